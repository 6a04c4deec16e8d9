// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package stripes

import (
	"github.com/gomlx/exceptions"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
)

// CalculateTileSize returns the SRAM size of a buffer with numStripes slots of stripeShape in NHWCB.
// It is never more than the whole tensor needs, even if the stripes overhang the tensor.
func CalculateTileSize(caps hwcaps.HardwareCapabilities, tensorShape, stripeShape tensor.Shape, numStripes uint32) uint32 {
	return min(caps.MaxTileSize(tensorShape), numStripes*tensor.TotalSizeBytesNHWCB(stripeShape))
}

// CalculateMceInputTileSize is CalculateTileSize for the input of an MCE operation, whose slots have room
// for a boundary slot above and below each stripe when streaming in width with neighbouring data in height.
func CalculateMceInputTileSize(caps hwcaps.HardwareCapabilities, tensorShape, stripeShape tensor.Shape,
	padTop, kernelHeight, numStripes uint32) uint32 {
	needBoundaryY := tensor.GetBoundaryRequirements(padTop, tensorShape.Height(), stripeShape.Height(), kernelHeight)
	isStreamingWidth := stripeShape.Width() < tensorShape.Width()
	var boundarySlotSize uint32
	if needBoundaryY.Any() && isStreamingWidth {
		boundarySlotSize = caps.BrickGroupShape[tensor.AxisHeight] * stripeShape.Width() * stripeShape.Channels()
	}
	slotSize := 2*boundarySlotSize + tensor.TotalSizeBytes(stripeShape)
	return min(caps.MaxTileSize(tensorShape), numStripes*slotSize)
}

// GetWeightStripeDepth returns the number of output channels covered by a weight stripe.
func GetWeightStripeDepth(format graph.WeightsFormat, weightStripe tensor.Shape, stride tensor.Stride) uint32 {
	switch format {
	case graph.WeightsFormatHWIO:
		return weightStripe[3]
	case graph.WeightsFormatHWIM:
		return weightStripe[2] * weightStripe[3] / stride.Size()
	default:
		exceptions.Panicf("unsupported weights format %s", format)
	}
	return 0
}
