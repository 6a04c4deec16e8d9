// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cascading

import (
	"math"

	"github.com/gomlx/exceptions"

	"github.com/gomlx/npucascade/pkg/commandstream"
	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/opgraph"
)

// Checked conversions into the fields of the command stream.

func toUint16(v uint32, what string) uint16 {
	if v > math.MaxUint16 {
		notSupportedf("%s %d doesn't fit in 16 bits", what, v)
	}
	return uint16(v)
}

func toUint8(v uint32, what string) uint8 {
	if v > math.MaxUint8 {
		notSupportedf("%s %d doesn't fit in 8 bits", what, v)
	}
	return uint8(v)
}

func toInt8(v int64, what string) int8 {
	if v < math.MinInt8 || v > math.MaxInt8 {
		notSupportedf("%s %d doesn't fit in 8 bits", what, v)
	}
	return int8(v)
}

func toInt16(v int32, what string) int16 {
	if v < math.MinInt16 || v > math.MaxInt16 {
		notSupportedf("%s %d doesn't fit in 16 bits", what, v)
	}
	return int16(v)
}

// numStripes returns the number of stripes of size stripe to cover size. A 0 stripe covers everything.
func numStripes(size, stripe uint32) uint32 {
	if stripe == 0 {
		return 1
	}
	return tensor.DivRoundUp(size, stripe)
}

// tile returns the tile of an SRAM buffer. Addresses and sizes are per SRAM bank.
func (c *CascadingCompiler) tile(buffer *opgraph.Buffer) commandstream.Tile {
	if !buffer.HasOffset {
		exceptions.Panicf("SRAM buffer %s has no offset", buffer)
	}
	numSlots := max(buffer.NumStripes, 1)
	slotSize := buffer.SlotSizeInBytes
	if slotSize == 0 {
		slotSize = tensor.DivRoundUp(buffer.SizeInBytes, numSlots)
	}
	return commandstream.Tile{
		BaseAddr: toUint16(buffer.Offset, "SRAM address"),
		NumSlots: toUint16(numSlots, "number of slots"),
		SlotSize: toUint16(tensor.DivRoundUp(slotSize, c.caps.NumberOfSrams()), "slot size"),
	}
}

func tensorSize(s tensor.Shape, what string) commandstream.TensorSize {
	return commandstream.TensorSize{
		Height:   toUint16(s.Height(), what),
		Width:    toUint16(s.Width(), what),
		Channels: toUint16(s.Channels(), what),
	}
}

func fmsDataType(format opgraph.BufferFormat) commandstream.FmsDataType {
	switch format {
	case opgraph.BufferFormatNHWC:
		return commandstream.FmsDataTypeNhwc
	case opgraph.BufferFormatNHWCB:
		return commandstream.FmsDataTypeNhwcb
	case opgraph.BufferFormatFCAFDeep:
		return commandstream.FmsDataTypeFcafDeep
	case opgraph.BufferFormatFCAFWide:
		return commandstream.FmsDataTypeFcafWide
	}
	notSupportedf("streaming feature maps in %s format", format)
	return 0
}

// supertensorCell is the (width, channels) of the cells of a DRAM format.
func supertensorCell(format opgraph.BufferFormat) (width, channels uint32) {
	switch format {
	case opgraph.BufferFormatNHWCB:
		return 8, 16
	case opgraph.BufferFormatFCAFDeep:
		return 8, 32
	case opgraph.BufferFormatFCAFWide:
		return 16, 16
	}
	return 1, 1
}

// dramOffset returns the offset in bytes of the region of a DRAM tensor starting at the given position.
func (c *CascadingCompiler) dramOffset(dram *opgraph.Buffer, start tensor.Shape) uint32 {
	if start.IsZero() {
		return 0
	}
	shape := dram.TensorShape
	switch dram.Format {
	case opgraph.BufferFormatNHWC:
		return ((start.Height()*shape.Width()+start.Width())*shape.Channels() + start.Channels()) *
			dram.DataType.Size()
	case opgraph.BufferFormatNHWCB:
		brick := c.caps.BrickGroupShape
		if !start.IsMultipleOf(brick) {
			notSupportedf("DRAM offset %s is not aligned to the brick groups %s", start, brick)
		}
		cellsW := tensor.DivRoundUp(shape.Width(), brick.Width())
		cellsC := tensor.DivRoundUp(shape.Channels(), brick.Channels())
		cell := (start.Height()/brick.Height()*cellsW+start.Width()/brick.Width())*cellsC +
			start.Channels()/brick.Channels()
		return cell * tensor.TotalSizeBytes(brick)
	}
	notSupportedf("DRAM offset %s in a %s tensor", start, dram.Format)
	return 0
}

// fmsData describes the streaming of the SRAM buffer to or from the DRAM buffer.
func (c *CascadingCompiler) fmsData(dram, sram *opgraph.Buffer, dramBufferID uint32, dma *opgraph.DmaOp) commandstream.FmSData {
	if sram.Order != opgraph.TraversalOrderXyz {
		notSupportedf("streaming %s in %s order", sram, sram.Order)
	}
	shape, stripe := sram.TensorShape, sram.StripeShape
	num := tensor.Shape{1, tensor.NumStripesH(shape, stripe), tensor.NumStripesW(shape, stripe),
		tensor.NumStripesC(shape, stripe)}
	cellW, cellC := supertensorCell(dram.Format)
	return commandstream.FmSData{
		DramOffset:     c.dramOffset(dram, dma.Offset),
		BufferID:       toUint16(dramBufferID, "buffer id"),
		DataType:       fmsDataType(dram.Format),
		Tile:           c.tile(sram),
		DfltStripeSize: tensorSize(stripe.Min(shape), "stripe size"),
		EdgeStripeSize: commandstream.TensorSize{
			Height:   toUint16(tensor.EdgeStripeSize(shape.Height(), stripe.Height()), "stripe size"),
			Width:    toUint16(tensor.EdgeStripeSize(shape.Width(), stripe.Width()), "stripe size"),
			Channels: toUint16(tensor.EdgeStripeSize(shape.Channels(), stripe.Channels()), "stripe size"),
		},
		SupertensorSizeInCells: commandstream.SupertensorSize{
			Width:    toUint16(tensor.DivRoundUp(dram.TensorShape.Width(), cellW), "supertensor width"),
			Channels: toUint16(tensor.DivRoundUp(dram.TensorShape.Channels(), cellC), "supertensor channels"),
		},
		NumStripes: tensorSize(num, "number of stripes"),
		StripeIDStrides: commandstream.TensorSize{
			Height:   toUint16(num.Width()*num.Channels(), "stripe id stride"),
			Width:    toUint16(num.Channels(), "stripe id stride"),
			Channels: 1,
		},
	}
}

func fmsNumStripesTotal(data commandstream.FmSData) uint32 {
	n := data.NumStripes
	return uint32(n.Height) * uint32(n.Width) * uint32(n.Channels)
}

// wgtSData describes the streaming of the encoded weights into the SRAM buffer. Weights are HWIO: the
// stripes split the input (index 2) and output (index 3) channels.
func (c *CascadingCompiler) wgtSData(dram, sram *opgraph.Buffer, dramBufferID, metadataBufferID uint32) *commandstream.WgtS {
	shape, stripe := dram.TensorShape, sram.StripeShape
	numIfm := numStripes(shape[2], stripe[2])
	numOfm := numStripes(shape[3], stripe[3])
	return &commandstream.WgtS{
		BufferID:              toUint16(dramBufferID, "buffer id"),
		MetadataBufferID:      toUint16(metadataBufferID, "buffer id"),
		Tile:                  c.tile(sram),
		EdgeStripeOfmChannels: toUint16(tensor.EdgeStripeSize(shape[3], stripe[3]), "stripe size"),
		NumStripes: commandstream.WgtSWorkSize{
			OfmChannels: toUint16(numOfm, "number of stripes"),
			IfmChannels: toUint16(numIfm, "number of stripes"),
		},
		StripeIDStrides: commandstream.WgtSWorkSize{
			OfmChannels: toUint16(numIfm, "stripe id stride"),
			IfmChannels: 1,
		},
	}
}

func wgtSNumStripesTotal(data *commandstream.WgtS, sram *opgraph.Buffer) uint32 {
	return uint32(data.NumStripes.OfmChannels) * uint32(data.NumStripes.IfmChannels) * max(sram.NumLoads, 1)
}

var mceOperations = map[graph.MceOperation]commandstream.MceOperation{
	graph.MceOperationConvolution:          commandstream.MceOperationConvolution,
	graph.MceOperationDepthwiseConvolution: commandstream.MceOperationDepthwiseConvolution,
	graph.MceOperationFullyConnected:       commandstream.MceOperationFullyConnected,
}

var mceAlgorithms = map[graph.MceAlgorithm]commandstream.MceAlgorithm{
	graph.MceAlgorithmDirect:   commandstream.MceAlgorithmDirect,
	graph.MceAlgorithmWinograd: commandstream.MceAlgorithmWinograd,
}

// mceSData describes the MCE op, writing into the PLE op.
func (c *CascadingCompiler) mceSData(opID opgraph.OpID, mce *opgraph.MceOp, ple *opgraph.PleOp) *commandstream.MceS {
	inputs := c.graph.Inputs(opID)
	ifm, wgt := c.graph.Buffer(inputs[0]), c.graph.Buffer(inputs[1])
	ofm := c.graph.Buffer(c.graph.Output(opID))
	operation, found := mceOperations[mce.Operation]
	if !found {
		exceptions.Panicf("unknown MCE operation %s", mce.Operation)
	}
	algorithm, found := mceAlgorithms[mce.Algorithm]
	if !found {
		exceptions.Panicf("unknown MCE algorithm %s", mce.Algorithm)
	}

	ofmShape, ofmStripe := ofm.TensorShape, mce.OutputStripeShape.Min(ofm.TensorShape)
	ifmShape, ifmStripe := ifm.TensorShape, mce.InputStripeShape.Min(ifm.TensorShape)
	numOfmH := tensor.NumStripesH(ofmShape, ofmStripe)
	numOfmW := tensor.NumStripesW(ofmShape, ofmStripe)
	numOfmC := tensor.NumStripesC(ofmShape, ofmStripe)
	numIfmC := tensor.NumStripesC(ifmShape, ifmStripe)
	ifmStripeC, ifmEdgeC := ifmStripe.Channels(), tensor.EdgeStripeSize(ifmShape.Channels(), ifmStripe.Channels())
	if mce.Operation == graph.MceOperationDepthwiseConvolution {
		// Each output channel reads only its own input channel.
		numIfmC = 1
		ifmStripeC = ofmStripe.Channels()
		ifmEdgeC = tensor.EdgeStripeSize(ofmShape.Channels(), ofmStripe.Channels())
	}

	edgeOfmH := tensor.EdgeStripeSize(ofmShape.Height(), ofmStripe.Height())
	edgeOfmW := tensor.EdgeStripeSize(ofmShape.Width(), ofmStripe.Width())
	edgeIfmH := tensor.EdgeStripeSize(ifmShape.Height(), ifmStripe.Height())
	edgeIfmW := tensor.EdgeStripeSize(ifmShape.Width(), ifmStripe.Width())
	delta := func(ifmSize, ofmSize uint32) int8 {
		return toInt8(int64(ifmSize)-int64(ofmSize), "IFM delta")
	}

	return &commandstream.MceS{
		IfmTile: c.tile(ifm),
		WgtTile: c.tile(wgt),
		BlockSize: commandstream.BlockSize{
			Width:  toUint8(mce.BlockConfig.Width, "block width"),
			Height: toUint8(mce.BlockConfig.Height, "block height"),
		},
		DfltStripeSize: commandstream.MceSWorkSize{
			OfmHeight:   toUint16(ofmStripe.Height(), "stripe size"),
			OfmWidth:    toUint16(ofmStripe.Width(), "stripe size"),
			OfmChannels: toUint16(ofmStripe.Channels(), "stripe size"),
			IfmChannels: toUint16(ifmStripeC, "stripe size"),
		},
		EdgeStripeSize: commandstream.MceSWorkSize{
			OfmHeight:   toUint16(edgeOfmH, "stripe size"),
			OfmWidth:    toUint16(edgeOfmW, "stripe size"),
			OfmChannels: toUint16(tensor.EdgeStripeSize(ofmShape.Channels(), ofmStripe.Channels()), "stripe size"),
			IfmChannels: toUint16(ifmEdgeC, "stripe size"),
		},
		NumStripes: commandstream.MceSWorkSize{
			OfmHeight:   toUint16(numOfmH, "number of stripes"),
			OfmWidth:    toUint16(numOfmW, "number of stripes"),
			OfmChannels: toUint16(numOfmC, "number of stripes"),
			IfmChannels: toUint16(numIfmC, "number of stripes"),
		},
		StripeIDStrides: commandstream.MceSWorkSize{
			OfmHeight:   toUint16(numIfmC*numOfmW, "stripe id stride"),
			OfmWidth:    toUint16(numIfmC, "stripe id stride"),
			OfmChannels: toUint16(numIfmC*numOfmW*numOfmH, "stripe id stride"),
			IfmChannels: 1,
		},
		ConvStrideXY: commandstream.StrideXY{
			X: toUint8(mce.Stride.X, "stride"),
			Y: toUint8(mce.Stride.Y, "stride"),
		},
		IfmZeroPoint: toInt16(ifm.Quantization.ZeroPoint, "zero point"),
		MceOpMode:    operation,
		Algorithm:    algorithm,
		FilterShape: commandstream.FilterShape{
			Width:  toUint8(wgt.TensorShape[1], "filter width"),
			Height: toUint8(wgt.TensorShape[0], "filter height"),
		},
		Padding: commandstream.Padding{
			Left: toUint8(mce.PadLeft, "padding"),
			Top:  toUint8(mce.PadTop, "padding"),
		},
		IfmDeltaDefault: commandstream.IfmDelta{
			Width:  delta(ifmStripe.Width(), ofmStripe.Width()),
			Height: delta(ifmStripe.Height(), ofmStripe.Height()),
		},
		IfmDeltaEdge: commandstream.IfmDelta{
			Width:  delta(edgeIfmW, edgeOfmW),
			Height: delta(edgeIfmH, edgeOfmH),
		},
		ReluActiv:   commandstream.ReluActivation{Min: mce.LowerBound, Max: mce.UpperBound},
		PleKernelID: c.pleKernelID(ple),
	}
}

func mceSNumStripesTotal(data *commandstream.MceS) uint32 {
	n := data.NumStripes
	return uint32(n.OfmHeight) * uint32(n.OfmWidth) * uint32(n.OfmChannels) * uint32(n.IfmChannels)
}

// pleKernelFamilies names the kernels implementing each PLE operation.
var pleKernelFamilies = map[graph.PleOperation]string{
	graph.PleOperationPassthrough:        "PASSTHROUGH",
	graph.PleOperationAddition:           "ADDITION",
	graph.PleOperationAdditionRescale:    "ADDITION_RESCALE",
	graph.PleOperationAvgPool3x3_1_1Udma: "AVGPOOL_3X3_1_1_UDMA",
	graph.PleOperationDownsample2x2:      "DOWNSAMPLE_2X2",
	graph.PleOperationInterleave2x2_2_2:  "INTERLEAVE_2X2_2_2",
	graph.PleOperationLeakyRelu:          "LEAKY_RELU",
	graph.PleOperationMaxPool2x2_2_2:     "MAXPOOL_2X2_2_2",
	graph.PleOperationMaxPool3x3_2_2Even: "MAXPOOL_3X3_2_2_EVEN",
	graph.PleOperationMaxPool3x3_2_2Odd:  "MAXPOOL_3X3_2_2_ODD",
	graph.PleOperationMeanXy7x7:          "MEAN_XY_7X7",
	graph.PleOperationMeanXy8x8:          "MEAN_XY_8X8",
	graph.PleOperationSigmoid:            "SIGMOID",
	graph.PleOperationTransposeXy:        "TRANSPOSE_XY",
}

func (c *CascadingCompiler) pleKernelID(ple *opgraph.PleOp) commandstream.PleKernelID {
	family, found := pleKernelFamilies[ple.Operation]
	if !found {
		exceptions.Panicf("unknown PLE operation %s", ple.Operation)
	}
	id := commandstream.FindPleKernelID(family, ple.BlockConfig.Width, ple.BlockConfig.Height, ple.DataType.IsSigned())
	if id == commandstream.PleKernelIDNotFound {
		notSupportedf("no PLE kernel %s for block %s", family, ple.BlockConfig)
	}
	return id
}

func (c *CascadingCompiler) pleKernelSramAddr(ple *opgraph.PleOp) uint16 {
	if !ple.LoadKernel {
		return 0
	}
	if !ple.HasOffset {
		exceptions.Panicf("PLE kernel of %q has no SRAM offset", ple.DebugTag)
	}
	return toUint16(ple.Offset, "SRAM address")
}

func pleIfmInfo(buffer *opgraph.Buffer, multiplier, shift uint16) commandstream.PleIfmInfo {
	return commandstream.PleIfmInfo{
		ZeroPoint:  toInt16(buffer.Quantization.ZeroPoint, "zero point"),
		Multiplier: multiplier,
		Shift:      shift,
	}
}

// pleSData describes the PLE op. Standalone kernels read their inputs from SRAM, the others from the MCE.
func (c *CascadingCompiler) pleSData(opID opgraph.OpID, ple *opgraph.PleOp, standalone bool) *commandstream.PleS {
	ofm := c.graph.Buffer(c.graph.Output(opID))
	if ofm.Location != opgraph.LocationSram {
		notSupportedf("PLE %q writing into %s", ple.DebugTag, ofm.Location)
	}
	shape, stripe := ofm.TensorShape, ple.OutputStripeShape.Min(ofm.TensorShape)
	numH := tensor.NumStripesH(shape, stripe)
	numW := tensor.NumStripesW(shape, stripe)
	numC := tensor.NumStripesC(shape, stripe)
	data := &commandstream.PleS{
		OfmTile:        c.tile(ofm),
		OfmZeroPoint:   toInt16(ofm.Quantization.ZeroPoint, "zero point"),
		DfltStripeSize: tensorSize(stripe, "stripe size"),
		EdgeStripeSize: commandstream.TensorSize{
			Height:   toUint16(tensor.EdgeStripeSize(shape.Height(), stripe.Height()), "stripe size"),
			Width:    toUint16(tensor.EdgeStripeSize(shape.Width(), stripe.Width()), "stripe size"),
			Channels: toUint16(tensor.EdgeStripeSize(shape.Channels(), stripe.Channels()), "stripe size"),
		},
		NumStripes: commandstream.TensorSize{
			Height:   toUint16(numH, "number of stripes"),
			Width:    toUint16(numW, "number of stripes"),
			Channels: toUint16(numC, "number of stripes"),
		},
		StripeIDStrides: commandstream.TensorSize{
			Height:   toUint16(numW, "stripe id stride"),
			Width:    1,
			Channels: toUint16(numW*numH, "stripe id stride"),
		},
		PleKernelID:       c.pleKernelID(ple),
		PleKernelSramAddr: c.pleKernelSramAddr(ple),
	}

	inputs := c.graph.Inputs(opID)
	switch {
	case standalone:
		data.InputMode = commandstream.PleInputModeSram
		in0 := c.graph.Buffer(inputs[0])
		data.IfmTile0 = c.tile(in0)
		data.IfmInfo0 = pleIfmInfo(in0, ple.Input0Multiplier, ple.Input0Shift)
		if len(inputs) > 1 {
			in1 := c.graph.Buffer(inputs[1])
			data.IfmTile1 = c.tile(in1)
			data.IfmInfo1 = pleIfmInfo(in1, ple.Input1Multiplier, ple.Input1Shift)
		}
	case c.isFedByDepthwise(inputs[0]):
		data.InputMode = commandstream.PleInputModeMceOneOg
	default:
		data.InputMode = commandstream.PleInputModeMceAllOgs
	}
	return data
}

// isFedByDepthwise returns whether the PLE input buffer is written by a depthwise convolution.
func (c *CascadingCompiler) isFedByDepthwise(input opgraph.BufferID) bool {
	producer := c.graph.Producer(input)
	if producer == opgraph.InvalidOpID {
		return false
	}
	mce, ok := c.graph.Op(producer).(*opgraph.MceOp)
	return ok && mce.Operation == graph.MceOperationDepthwiseConvolution
}

func pleSNumStripesTotal(data *commandstream.PleS) uint32 {
	n := data.NumStripes
	return uint32(n.Height) * uint32(n.Width) * uint32(n.Channels)
}
