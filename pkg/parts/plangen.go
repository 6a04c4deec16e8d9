// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package parts

import (
	"fmt"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/stripes"
)

// tensorInfo describes the tensor held by a buffer.
type tensorInfo struct {
	Shape        tensor.Shape
	DataType     tensor.DataType
	Quantization tensor.QuantizationInfo
}

func nodeTensorInfo(node *graph.Node) tensorInfo {
	return tensorInfo{Shape: node.Shape, DataType: node.DataType, Quantization: node.Quantization}
}

// convData are the weights and bias of an MCE operation, and the owner identifying them in the
// WeightEncoderCache.
type convData struct {
	Owner   string
	Weights graph.WeightsInfo
	Bias    []int32
}

// lifetimeFor returns the lifetime of ops in plans of the cascade type.
func lifetimeFor(cascadeType opgraph.CascadeType) opgraph.Lifetime {
	if cascadeType == opgraph.CascadeTypeLonely {
		return opgraph.LifetimeAtomic
	}
	return opgraph.LifetimeCascade
}

// forEachNumStripes calls fn for every combination of the number of slots in the ranges of memory.
// Buffers missing from the plan have a {0, 0} range and are iterated once with 0.
func forEachNumStripes(memory stripes.MemoryStripesInfo, fn func(num stripes.NumMemoryStripes)) {
	for numInput := memory.Input.Range.Min; numInput <= memory.Input.Range.Max; numInput++ {
		for numOutput := memory.Output.Range.Min; numOutput <= memory.Output.Range.Max; numOutput++ {
			for numWeight := memory.Weight.Range.Min; numWeight <= memory.Weight.Range.Max; numWeight++ {
				for numPleInput := memory.PleInput.Range.Min; numPleInput <= memory.PleInput.Range.Max; numPleInput++ {
					fn(stripes.NumMemoryStripes{Input: numInput, Output: numOutput, Weight: numWeight, PleInput: numPleInput})
				}
			}
		}
	}
}

// dramBuffer returns a buffer holding the whole tensor in DRAM.
func dramBuffer(info tensorInfo, format opgraph.BufferFormat, bufferType opgraph.BufferType) *opgraph.Buffer {
	return &opgraph.Buffer{
		Location:     opgraph.LocationDram,
		Format:       format,
		Order:        opgraph.TraversalOrderXyz,
		DataType:     info.DataType,
		Quantization: info.Quantization,
		TensorShape:  info.Shape,
		StripeShape:  info.Shape,
		NumStripes:   1,
		SizeInBytes:  format.TotalSizeBytes(info.Shape),
		Type:         bufferType,
		NumLoads:     1,
	}
}

// sramBuffer returns a buffer with numStripes slots of stripeShape in SRAM.
func (p *BasePart) sramBuffer(info tensorInfo, stripeShape tensor.Shape, numStripes uint32) *opgraph.Buffer {
	return &opgraph.Buffer{
		Location:        opgraph.LocationSram,
		Format:          opgraph.BufferFormatNHWCB,
		Order:           opgraph.TraversalOrderXyz,
		DataType:        info.DataType,
		Quantization:    info.Quantization,
		TensorShape:     info.Shape,
		StripeShape:     stripeShape,
		NumStripes:      numStripes,
		SizeInBytes:     stripes.CalculateTileSize(p.config.Capabilities, info.Shape, stripeShape, numStripes),
		SlotSizeInBytes: tensor.TotalSizeBytesNHWCB(stripeShape),
		NumLoads:        1,
	}
}

// addPleInBuffer adds the buffer in PLE input SRAM connecting an MCE to a PLE. It is not allocated in the tile.
func addPleInBuffer(g *opgraph.OpGraph, info tensorInfo, stripeShape tensor.Shape, numStripes uint32) opgraph.BufferID {
	return g.AddBuffer(&opgraph.Buffer{
		Location:     opgraph.LocationPleInputSram,
		Format:       opgraph.BufferFormatNHWCB,
		Order:        opgraph.TraversalOrderXyz,
		DataType:     info.DataType,
		Quantization: info.Quantization,
		TensorShape:  info.Shape,
		StripeShape:  stripeShape,
		NumStripes:   numStripes,
		NumLoads:     1,
	})
}

// addMceToOpGraph adds the MCE op, its input buffer in SRAM and its weights, writing into outBuffer.
// It returns the input buffer.
func (p *BasePart) addMceToOpGraph(g *opgraph.OpGraph, mceOp *opgraph.MceOp, info stripes.MceStripesInfo,
	memory stripes.MemoryStripesInfo, num stripes.NumMemoryStripes, outBuffer opgraph.BufferID, input tensorInfo,
	kernelHeight uint32, conv convData) opgraph.BufferID {
	mceOp.InputStripeShape = info.Input
	mceOp.OutputStripeShape = info.Output
	mceOp.BlockConfig = info.BlockConfig
	weightsID := p.addWeightBuffersAndDmaOp(g, mceOp, memory.Weight, num.Weight, conv)
	opID := g.AddOp(mceOp)

	inBuffer := p.sramBuffer(input, memory.Input.Shape, num.Input)
	inBuffer.SizeInBytes = stripes.CalculateMceInputTileSize(p.config.Capabilities, input.Shape, memory.Input.Shape,
		mceOp.PadTop, kernelHeight, num.Input)
	inBuffer.PackedBoundaryThickness = memory.Input.PackedBoundaryThickness
	inBuffer.NumLoads = memory.Input.NumLoads
	inID := g.AddBuffer(inBuffer)
	g.AddConsumer(inID, opID, 0)
	g.AddConsumer(weightsID, opID, 1)
	g.SetProducer(outBuffer, opID)
	return inID
}

// addWeightBuffersAndDmaOp adds the encoded weights in DRAM and the DMA streaming them into the weights
// buffer in SRAM, which it returns. The weights buffer must then be connected to the input 1 of the MCE op.
//
// The buffers are sized from the encoded weights, so the encoding happens here.
func (p *BasePart) addWeightBuffersAndDmaOp(g *opgraph.OpGraph, mceOp *opgraph.MceOp,
	memory stripes.WeightMemoryStripeInfo, numStripes uint32, conv convData) opgraph.BufferID {
	weightStripe := memory.Shape
	mceOp.WeightsStripeShape = weightStripe

	// The encoder doesn't support multiple input depth iterations with Winograd.
	iterationSize := weightStripe[2]
	if iterationSize < conv.Weights.Shape[2] {
		mceOp.Algorithm = graph.MceAlgorithmDirect
	}
	encoded := p.config.Weights.Encode(&WeightEncodingParams{
		Owner:         conv.Owner,
		Weights:       conv.Weights,
		Bias:          conv.Bias,
		StripeDepth:   stripes.GetWeightStripeDepth(conv.Weights.Format, weightStripe, mceOp.Stride),
		IterationSize: iterationSize,
		Operation:     mceOp.Operation,
		Algorithm:     mceOp.Algorithm,
	})

	info := tensorInfo{Shape: conv.Weights.Shape, DataType: tensor.DataTypeUint8Quantized, Quantization: conv.Weights.Quantization}
	dramID := g.AddBuffer(&opgraph.Buffer{
		Location:       opgraph.LocationDram,
		Format:         opgraph.BufferFormatWEIGHT,
		Order:          opgraph.TraversalOrderXyz,
		DataType:       info.DataType,
		Quantization:   info.Quantization,
		TensorShape:    info.Shape,
		StripeShape:    weightStripe,
		NumStripes:     1,
		SizeInBytes:    uint32(len(encoded.Data)),
		Type:           opgraph.BufferTypeConstantDma,
		NumLoads:       memory.NumLoads,
		EncodedWeights: encoded,
	})

	sram := &opgraph.Buffer{
		Location:        opgraph.LocationSram,
		Format:          opgraph.BufferFormatWEIGHT,
		Order:           opgraph.TraversalOrderXyz,
		DataType:        info.DataType,
		Quantization:    info.Quantization,
		TensorShape:     info.Shape,
		StripeShape:     weightStripe,
		NumStripes:      numStripes,
		SizeInBytes:     encoded.MaxSize * numStripes,
		SlotSizeInBytes: encoded.MaxSize,
		NumLoads:        memory.NumLoads,
	}
	sramID := g.AddBuffer(sram)

	dmaID := g.AddOp(&opgraph.DmaOp{
		OpBase:         opgraph.OpBase{Lifetime: mceOp.Lifetime},
		TransferFormat: opgraph.BufferFormatWEIGHT,
	})
	g.AddConsumer(dramID, dmaID, 0)
	g.SetProducer(sramID, dmaID)
	return sramID
}

// addPleToOpGraph adds the PLE op and its output buffer in SRAM, which it returns with the op.
func (p *BasePart) addPleToOpGraph(g *opgraph.OpGraph, pleOp *opgraph.PleOp, memoryOutputShape tensor.Shape,
	numOutputStripes uint32, output tensorInfo) (opgraph.BufferID, opgraph.OpID) {
	opID := g.AddOp(pleOp)
	outID := g.AddBuffer(p.sramBuffer(output, memoryOutputShape, numOutputStripes))
	g.SetProducer(outID, opID)
	return outID, opID
}

// addIdentityMce adds a 1x1 depthwise convolution that copies its input to the PLE input SRAM, for PLE
// kernels that have no MCE operation of their own. It returns the input and the output buffers.
func (p *BasePart) addIdentityMce(g *opgraph.OpGraph, lifetime opgraph.Lifetime, info stripes.MceStripesInfo,
	memory stripes.MemoryStripesInfo, num stripes.NumMemoryStripes, input tensorInfo) (opgraph.BufferID, opgraph.BufferID) {
	weights, bias := identityWeights(input.Shape.Channels())
	outID := addPleInBuffer(g, input, memory.PleInput.Shape, num.PleInput)
	mceOp := &opgraph.MceOp{
		OpBase:        opgraph.OpBase{Lifetime: lifetime},
		Operation:     graph.MceOperationDepthwiseConvolution,
		Algorithm:     graph.MceAlgorithmDirect,
		Stride:        tensor.UnitStride,
		UpscaleFactor: 1,
		LowerBound:    lowerBoundOf(input.DataType),
		UpperBound:    upperBoundOf(input.DataType),
	}
	inID := p.addMceToOpGraph(g, mceOp, info, memory, num, outID, input, 1, convData{
		Owner:   fmt.Sprintf("identity/%d", input.Shape.Channels()),
		Weights: weights,
		Bias:    bias,
	})
	return inID, outID
}

// lowerBoundOf and upperBoundOf are the clamping bounds of an MCE output that don't clamp anything.
func lowerBoundOf(dataType tensor.DataType) int16 {
	if dataType.IsSigned() {
		return -128
	}
	return 0
}

func upperBoundOf(dataType tensor.DataType) int16 {
	if dataType.IsSigned() {
		return 127
	}
	return 255
}
