// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tensor defines the tensor shapes, data types and quantization parameters shared by every stage
// of the cascading compiler, plus the integer rounding helpers used to align stripes to the hardware
// brick groups.
//
// All shapes are 4D and laid out as (batch, height, width, channels).
package tensor

import (
	"fmt"
)

// Shape of a feature map: N, H, W, C.
//
// Weight tensors reuse the same type with the layout H, W, I, O (or H, W, I, M for depthwise weights).
type Shape [4]uint32

// Axis indices of a Shape.
const (
	AxisBatch    = 0
	AxisHeight   = 1
	AxisWidth    = 2
	AxisChannels = 3
)

var (
	// BrickGroupShape is the granularity of the NHWCB layout in SRAM and DRAM.
	BrickGroupShape = Shape{1, 8, 8, 16}

	// FcafDeepCellShape is the cell of the FCAF_DEEP compressed DRAM format.
	FcafDeepCellShape = Shape{1, 8, 8, 32}

	// FcafWideCellShape is the cell of the FCAF_WIDE compressed DRAM format.
	FcafWideCellShape = Shape{1, 8, 16, 16}
)

// Batch returns the N dimension.
func (s Shape) Batch() uint32 { return s[AxisBatch] }

// Height returns the H dimension.
func (s Shape) Height() uint32 { return s[AxisHeight] }

// Width returns the W dimension.
func (s Shape) Width() uint32 { return s[AxisWidth] }

// Channels returns the C dimension.
func (s Shape) Channels() uint32 { return s[AxisChannels] }

// NumElements returns the product of all dimensions.
func (s Shape) NumElements() uint64 {
	return uint64(s[0]) * uint64(s[1]) * uint64(s[2]) * uint64(s[3])
}

// IsZero returns whether all dimensions are 0, which is used as "no shape".
func (s Shape) IsZero() bool {
	return s == Shape{}
}

// String implements fmt.Stringer.
func (s Shape) String() string {
	return fmt.Sprintf("[%d, %d, %d, %d]", s[0], s[1], s[2], s[3])
}

// Less orders shapes lexicographically. Used to keep candidate sets in a deterministic order.
func (s Shape) Less(other Shape) bool {
	for axis := range s {
		if s[axis] != other[axis] {
			return s[axis] < other[axis]
		}
	}
	return false
}

// Compare returns -1, 0 or 1 following the lexicographic order of Less.
func (s Shape) Compare(other Shape) int {
	for axis := range s {
		if s[axis] < other[axis] {
			return -1
		} else if s[axis] > other[axis] {
			return 1
		}
	}
	return 0
}

// Min returns the element-wise minimum of the two shapes.
func (s Shape) Min(other Shape) Shape {
	var result Shape
	for axis := range s {
		result[axis] = min(s[axis], other[axis])
	}
	return result
}

// CoversAllOf returns whether each dimension of s (a stripe) is at least as large as the corresponding
// dimension of tensorShape.
func (s Shape) CoversAllOf(tensorShape Shape) bool {
	for axis := range s {
		if s[axis] < tensorShape[axis] {
			return false
		}
	}
	return true
}

// IsMultipleOf returns whether the height, width and channels of s are all multiples of the cell's.
func (s Shape) IsMultipleOf(cell Shape) bool {
	for axis := AxisHeight; axis <= AxisChannels; axis++ {
		if cell[axis] == 0 || s[axis]%cell[axis] != 0 {
			return false
		}
	}
	return true
}

// Stride of a convolution, in the X (width) and Y (height) directions.
type Stride struct {
	X, Y uint32
}

// UnitStride is the default stride of 1 in both directions.
var UnitStride = Stride{X: 1, Y: 1}

// Size returns X*Y, which is the number of interleaved sub-maps produced by a strided convolution.
func (s Stride) Size() uint32 {
	return s.X * s.Y
}

// Padding of a convolution. Only the top and left padding are programmed into the hardware, the
// bottom and right are implied by the output shape.
type Padding struct {
	Top, Bottom, Left, Right uint32
}
