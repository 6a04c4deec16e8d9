// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package estimation

import (
	"github.com/gomlx/exceptions"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
)

// GetMinNumSlots returns the number of slots needed to start processing a stripe: 3 if it needs its
// neighbours (the previous one, itself and the next one), otherwise 1, capped by the number of stripes.
func GetMinNumSlots(needNeighbour bool, numStripes uint32) uint32 {
	if needNeighbour {
		return min(3, numStripes)
	}
	return min(1, numStripes)
}

// GetEffectiveSize returns the number of elements transferred along a dimension of the given size
// streamed in stripes of stripeSize, when each stripe is loaded with borderBefore and borderAfter
// elements of its neighbours.
func GetEffectiveSize(size, stripeSize, borderBefore, borderAfter uint32) uint32 {
	if size == 0 {
		return 0
	}
	if stripeSize == 0 {
		exceptions.Panicf("GetEffectiveSize: empty stripe for a dimension of size %d", size)
	}
	return size + (borderBefore+borderAfter)*((size-1)/stripeSize)
}

// GetInputMinNumSlotsForBuffering returns how many input slots are needed so that the next stripe can be
// loaded while the current one is processed.
func GetInputMinNumSlotsForBuffering(isStreamingH, isStreamingW, isStreamingC, needNeighbourStripeH,
	needNeighbourStripeW bool, numStripesH, numStripesW uint32) uint32 {
	switch {
	case isStreamingC:
		return 2 * GetMinNumSlots(needNeighbourStripeH, numStripesH) * GetMinNumSlots(needNeighbourStripeW, numStripesW)
	case isStreamingW:
		return GetMinNumSlots(needNeighbourStripeW, numStripesW) + 1
	case isStreamingH:
		return GetMinNumSlots(needNeighbourStripeH, numStripesH) + 1
	}
	return 1
}

// GetInputNumReloads returns how many times the input is loaded again after the first time: once per
// group of output channels when streaming the input depth, once per output depth stripe when streaming in
// width or height, except for depthwise weights.
func GetInputNumReloads(isStreamingH, isStreamingW, isStreamingC bool, weights graph.WeightsInfo, ofmProduced,
	numOutStripesC uint32) uint32 {
	if numOutStripesC == 0 {
		exceptions.Panicf("GetInputNumReloads: the output has 0 stripes in depth")
	}
	switch {
	case isStreamingC:
		return tensor.DivRoundUp(weights.Shape[3], ofmProduced) - 1
	case isStreamingH || isStreamingW:
		if weights.Format == graph.WeightsFormatHWIM {
			return 0
		}
		return numOutStripesC - 1
	}
	return 0
}

// GetInputTotalBytes returns the bytes of input transferred, including the boundary data and the reloads.
func GetInputTotalBytes(caps hwcaps.HardwareCapabilities, shape, stripeShape tensor.Shape, isStreamingH, isStreamingW,
	isStreamingC, needNeighbourStripeH, needNeighbourStripeW bool, reloads uint32) uint32 {
	var borderHeight, borderWidth uint32
	if needNeighbourStripeW && isStreamingC {
		borderWidth = stripeShape.Width()
	}
	if needNeighbourStripeH && (isStreamingC || (isStreamingH && isStreamingW)) {
		borderHeight = caps.BoundaryStripeHeight
	}
	effectiveHeight := GetEffectiveSize(shape.Height(), stripeShape.Height(), borderHeight, borderHeight)
	effectiveWidth := GetEffectiveSize(shape.Width(), stripeShape.Width(), borderWidth, borderWidth)
	return (reloads + 1) * shape.Batch() * effectiveHeight * effectiveWidth * shape.Channels()
}

// GetInputStats returns the transfers of an input feature map of the given shape, streamed into SRAM in
// stripes of stripeShape using a tile of tileSize bytes, by an MCE operation using the given weights and
// producing numOutStripesC stripes in depth.
//
// If the input is already in SRAM nothing is transferred.
func GetInputStats(caps hwcaps.HardwareCapabilities, shape, stripeShape tensor.Shape, location opgraph.Location,
	tileSize uint32, weights graph.WeightsInfo, numOutStripesC uint32) InputStats {
	var stats InputStats
	if location == opgraph.LocationSram {
		stats.Memory.Sram = uint32(shape.NumElements())
		return stats
	}

	stripeValid := stripeShape.Min(shape)
	stripeSize := uint32(stripeShape.NumElements())
	if stripeSize == 0 {
		exceptions.Panicf("GetInputStats: empty stripe shape %s", stripeShape)
	}
	numStripesH := tensor.NumStripesH(shape, stripeShape)
	numStripesW := tensor.NumStripesW(shape, stripeShape)
	numStripesC := tensor.NumStripesC(shape, stripeShape)
	needNeighbourStripeH := weights.Shape[0] > 1
	needNeighbourStripeW := weights.Shape[1] > 1
	isStreamingH, isStreamingW, isStreamingC := numStripesH > 1, numStripesW > 1, numStripesC > 1

	// Output channels produced per iteration of the MCE.
	ofmProduced := caps.NumberOfOgs()
	stats.Stripes.NumReloads = GetInputNumReloads(isStreamingH, isStreamingW, isStreamingC, weights, ofmProduced,
		numOutStripesC)
	total := GetInputTotalBytes(caps, shape, stripeShape, isStreamingH, isStreamingW, isStreamingC,
		needNeighbourStripeH, needNeighbourStripeW, stats.Stripes.NumReloads)

	// The minimum data needed to start processing.
	var borderHeight, borderWidth uint32
	if needNeighbourStripeH && isStreamingH {
		if isStreamingC || isStreamingW {
			borderHeight = caps.BoundaryStripeHeight
		} else {
			borderHeight = stripeValid.Height()
		}
	}
	if needNeighbourStripeW && isStreamingW {
		borderWidth = stripeValid.Width()
	}
	isUsingBoundarySlots := needNeighbourStripeH && isStreamingH && isStreamingW && !isStreamingC
	var boundarySize uint32
	if isUsingBoundarySlots {
		boundarySize = borderHeight * stripeShape.Width() * stripeShape.Channels()
	}
	var numStripesInTile uint32
	if boundaryTotal := boundarySize * caps.NumBoundarySlots; tileSize > boundaryTotal {
		numStripesInTile = tensor.DivRoundUp(tileSize-boundaryTotal, stripeSize)
	}
	stats.Memory.DramNonParallel = (stripeValid.Height() + borderHeight) * (stripeValid.Width() + borderWidth) *
		stripeValid.Channels()

	minNumSlots := GetInputMinNumSlotsForBuffering(isStreamingH, isStreamingW, isStreamingC, needNeighbourStripeH,
		needNeighbourStripeW, numStripesH, numStripesW)
	if numStripesInTile >= minNumSlots && total >= stats.Memory.DramNonParallel {
		stats.Memory.DramParallel = total - stats.Memory.DramNonParallel
	} else {
		stats.Memory.DramNonParallel = total
	}

	stats.Stripes.NumCentralStripes = tensor.NumStripesTotal(shape, stripeShape)
	if isUsingBoundarySlots {
		stats.Stripes.NumBoundaryStripes = (numStripesH - 1) * numStripesW
	}
	return stats
}

// GetOutputStats returns the transfers of an output feature map written from SRAM in stripes of
// stripeShape. Only the last stripe can't be written while computing.
func GetOutputStats(shape, stripeShape tensor.Shape, location opgraph.Location) OutputStats {
	var stats OutputStats
	total := uint32(shape.NumElements())
	if location == opgraph.LocationSram {
		stats.Memory.Sram = total
		return stats
	}
	stripeSize := uint32(stripeShape.Min(shape).NumElements())
	stats.Memory.DramNonParallel = stripeSize
	stats.Memory.DramParallel = total - stripeSize
	stats.Stripes.NumCentralStripes = tensor.NumStripesTotal(shape, stripeShape)
	return stats
}

// GetPleStats returns the number of patches processed by the PLE kernel over inputs of the given shapes.
func GetPleStats(caps hwcaps.HardwareCapabilities, inputShapes []tensor.Shape, operation graph.PleOperation) PleStats {
	var patchesH, patchesW, patchesC uint32
	for _, shape := range inputShapes {
		patchesH = max(patchesH, tensor.DivRoundUp(shape.Height(), caps.PatchShape.Height()))
		patchesW = max(patchesW, tensor.DivRoundUp(shape.Width(), caps.PatchShape.Width()))
		patchesC = max(patchesC, tensor.DivRoundUp(shape.Channels(), caps.NumberOfEngines*caps.NumberOfPleLanes))
	}
	return PleStats{NumOfPatches: patchesH * patchesW * patchesC, Operation: operation.String()}
}

// ConversionData describes one side of a conversion between formats.
type ConversionData struct {
	TensorShape tensor.Shape
	StripeShape tensor.Shape
	IsNHWC      bool
}

// GetConversionStats returns the transfers of a conversion from DRAM to DRAM, or from SRAM to SRAM.
// Tensors not in NHWC are padded to the brick group in height and width.
func GetConversionStats(input, output ConversionData, isDramToDram bool) PassStats {
	var stats PassStats
	size := func(data ConversionData) uint32 {
		if data.IsNHWC {
			return uint32(data.TensorShape.NumElements())
		}
		return uint32(tensor.RoundUpHeightAndWidthToBrickGroup(data.TensorShape).NumElements())
	}
	if isDramToDram {
		stats.Input.Memory.DramNonParallel = size(input)
		stats.Input.Stripes.NumCentralStripes = tensor.NumStripesTotal(input.TensorShape, input.StripeShape)
		stats.Output.Memory.DramNonParallel = size(output)
		stats.Output.Stripes.NumCentralStripes = tensor.NumStripesTotal(output.TensorShape, output.StripeShape)
		return stats
	}
	stats.Input.Memory.Sram = uint32(tensor.RoundUpHeightAndWidthToBrickGroup(input.TensorShape).NumElements())
	stats.Output.Memory.Sram = uint32(tensor.RoundUpHeightAndWidthToBrickGroup(output.TensorShape).NumElements())
	return stats
}

// AccountForActivationCompression scales the DRAM transfers by the space saved by compressing activations.
func AccountForActivationCompression(stats InputStats, spaceSavingRatio float64) InputStats {
	stats.Memory.DramNonParallel = uint32(float64(stats.Memory.DramNonParallel) * (1 - spaceSavingRatio))
	stats.Memory.DramParallel = uint32(float64(stats.Memory.DramParallel) * (1 - spaceSavingRatio))
	return stats
}

// GetWeightsStats returns the transfers of the encoded weights into a weights buffer of numSlots slots.
//
// The weights are loaded numLoads times. With more than one slot, only the first stripe must be loaded
// before the MCE can start.
func GetWeightsStats(encoded *opgraph.EncodedWeights, rawSize uint32, numSlots, numLoads uint32,
	overrideSaving float64, useOverride bool) WeightsStats {
	var stats WeightsStats
	if encoded == nil || len(encoded.Metadata) == 0 {
		return stats
	}
	numLoads = max(numLoads, 1)
	encodedSize := uint32(len(encoded.Data))
	if useOverride {
		encodedSize = uint32(float64(rawSize) * (1 - overrideSaving))
		stats.CompressionSaving = overrideSaving
	} else if rawSize > 0 {
		stats.CompressionSaving = 1 - float64(encodedSize)/float64(rawSize)
	}
	total := encodedSize * numLoads
	stats.Stripes.NumCentralStripes = uint32(len(encoded.Metadata))
	stats.Stripes.NumReloads = numLoads - 1
	firstStripe := min(encoded.Metadata[0].Size, total)
	if numSlots > 1 && len(encoded.Metadata) > 1 {
		stats.Memory.DramNonParallel = firstStripe
		stats.Memory.DramParallel = total - firstStripe
	} else {
		stats.Memory.DramNonParallel = total
	}
	return stats
}

// macsPerOg is the number of multiply-accumulates done by one output generator per cycle.
const macsPerOg = 8

// GetMceStats returns the operations of the MCE computing outputShape from inputShape with weights of
// weightsShape (HWIO or HWIM).
func GetMceStats(caps hwcaps.HardwareCapabilities, operation graph.MceOperation, algorithm graph.MceAlgorithm,
	inputShape, outputShape, weightsShape tensor.Shape) MceStats {
	macsPerOutput := uint64(weightsShape[0]) * uint64(weightsShape[1])
	if operation != graph.MceOperationDepthwiseConvolution {
		macsPerOutput *= uint64(inputShape.Channels())
	}
	macs := outputShape.NumElements() * macsPerOutput
	macsPerCycle := uint64(caps.NumberOfOgs()) * uint64(caps.IgsPerEngine) * macsPerOg
	if operation == graph.MceOperationDepthwiseConvolution {
		// Only one input generator is active per output channel.
		macsPerCycle = uint64(caps.NumberOfOgs()) * macsPerOg
	}
	cycles := tensor.DivRoundUp(macs, max(macsPerCycle, 1))
	if algorithm == graph.MceAlgorithmWinograd {
		// Winograd computes 2x2 outputs of a 3x3 kernel with 16 multiplications instead of 36.
		cycles = tensor.DivRoundUp(cycles*4, 9)
	}
	return MceStats{Operations: 2 * macs, CycleCount: cycles}
}
