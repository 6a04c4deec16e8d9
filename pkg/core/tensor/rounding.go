// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensor

import (
	"golang.org/x/exp/constraints"
)

// DivRoundUp returns numerator/denominator rounded up. The denominator must not be 0.
func DivRoundUp[T constraints.Integer](numerator, denominator T) T {
	return (numerator + denominator - 1) / denominator
}

// RoundUpToMultiple rounds value up to the nearest multiple of `multiple`.
func RoundUpToMultiple[T constraints.Integer](value, multiple T) T {
	return DivRoundUp(value, multiple) * multiple
}

// RoundDownToMultiple rounds value down to the nearest multiple of `multiple`.
func RoundDownToMultiple[T constraints.Integer](value, multiple T) T {
	return (value / multiple) * multiple
}

// RoundUpHeightAndWidthToBrickGroup rounds the height and width of the shape up to the brick group,
// leaving batch and channels untouched.
func RoundUpHeightAndWidthToBrickGroup(s Shape) Shape {
	s[AxisHeight] = RoundUpToMultiple(s[AxisHeight], BrickGroupShape[AxisHeight])
	s[AxisWidth] = RoundUpToMultiple(s[AxisWidth], BrickGroupShape[AxisWidth])
	return s
}

// RoundUpToBrickGroup rounds height, width and channels up to the brick group.
func RoundUpToBrickGroup(s Shape) Shape {
	s = RoundUpHeightAndWidthToBrickGroup(s)
	s[AxisChannels] = RoundUpToMultiple(s[AxisChannels], BrickGroupShape[AxisChannels])
	return s
}

// TotalSizeBytes is the size of a shape stored in NHWC with 1 byte per element.
func TotalSizeBytes(s Shape) uint32 {
	return s[0] * s[1] * s[2] * s[3]
}

// TotalSizeBytesNHWCB is the size of a shape stored in NHWCB, that is, with each dimension padded to
// a full brick group.
func TotalSizeBytesNHWCB(s Shape) uint32 {
	return TotalSizeBytes(RoundUpToBrickGroup(s))
}

// TotalSizeBytesFCAFDeep is the uncompressed upper bound of a shape stored in FCAF_DEEP.
func TotalSizeBytesFCAFDeep(s Shape) uint32 {
	return totalSizeBytesInCells(s, FcafDeepCellShape)
}

// TotalSizeBytesFCAFWide is the uncompressed upper bound of a shape stored in FCAF_WIDE.
func TotalSizeBytesFCAFWide(s Shape) uint32 {
	return totalSizeBytesInCells(s, FcafWideCellShape)
}

func totalSizeBytesInCells(s, cell Shape) uint32 {
	return s[AxisBatch] *
		RoundUpToMultiple(s[AxisHeight], cell[AxisHeight]) *
		RoundUpToMultiple(s[AxisWidth], cell[AxisWidth]) *
		RoundUpToMultiple(s[AxisChannels], cell[AxisChannels])
}

// NumStripes returns how many stripes of stripeShape are needed to cover tensorShape along the given axis.
// A zero stripe dimension counts as one stripe.
func NumStripes(tensorShape, stripeShape Shape, axis int) uint32 {
	if stripeShape[axis] == 0 {
		return 1
	}
	return DivRoundUp(tensorShape[axis], stripeShape[axis])
}

// NumStripesH is NumStripes along the height.
func NumStripesH(tensorShape, stripeShape Shape) uint32 {
	return NumStripes(tensorShape, stripeShape, AxisHeight)
}

// NumStripesW is NumStripes along the width.
func NumStripesW(tensorShape, stripeShape Shape) uint32 {
	return NumStripes(tensorShape, stripeShape, AxisWidth)
}

// NumStripesC is NumStripes along the channels.
func NumStripesC(tensorShape, stripeShape Shape) uint32 {
	return NumStripes(tensorShape, stripeShape, AxisChannels)
}

// NumStripesTotal is the number of stripes needed to cover the whole tensor.
func NumStripesTotal(tensorShape, stripeShape Shape) uint32 {
	return NumStripesH(tensorShape, stripeShape) * NumStripesW(tensorShape, stripeShape) *
		NumStripesC(tensorShape, stripeShape)
}

// EdgeStripeSize returns the size of the last stripe along a dimension of size tensorSize split in
// stripes of stripeSize.
func EdgeStripeSize(tensorSize, stripeSize uint32) uint32 {
	if stripeSize == 0 {
		return tensorSize
	}
	if remaining := tensorSize % stripeSize; remaining != 0 {
		return remaining
	}
	return stripeSize
}
