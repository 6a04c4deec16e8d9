// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRounding(t *testing.T) {
	assert.Equal(t, uint32(3), DivRoundUp(uint32(9), 4))
	assert.Equal(t, uint32(2), DivRoundUp(uint32(8), 4))
	assert.Equal(t, 0, DivRoundUp(0, 4))
	assert.Equal(t, uint32(16), RoundUpToMultiple(uint32(9), 8))
	assert.Equal(t, uint32(8), RoundDownToMultiple(uint32(15), 8))

	s := Shape{1, 17, 3, 20}
	assert.Equal(t, Shape{1, 24, 8, 20}, RoundUpHeightAndWidthToBrickGroup(s))
	assert.Equal(t, Shape{1, 24, 8, 32}, RoundUpToBrickGroup(s))
}

func TestTotalSizes(t *testing.T) {
	s := Shape{1, 9, 9, 17}
	assert.Equal(t, uint32(9*9*17), TotalSizeBytes(s))
	assert.Equal(t, uint32(16*16*32), TotalSizeBytesNHWCB(s))
	assert.Equal(t, uint32(16*16*32), TotalSizeBytesFCAFDeep(s))
	assert.Equal(t, uint32(16*16*32), TotalSizeBytesFCAFWide(s))

	s = Shape{1, 8, 20, 40}
	assert.Equal(t, uint32(8*24*64), TotalSizeBytesFCAFDeep(s))
	assert.Equal(t, uint32(8*32*48), TotalSizeBytesFCAFWide(s))
}

func TestNumStripes(t *testing.T) {
	tensorShape := Shape{1, 33, 16, 64}
	stripe := Shape{1, 8, 16, 16}
	assert.Equal(t, uint32(5), NumStripesH(tensorShape, stripe))
	assert.Equal(t, uint32(1), NumStripesW(tensorShape, stripe))
	assert.Equal(t, uint32(4), NumStripesC(tensorShape, stripe))
	assert.Equal(t, uint32(20), NumStripesTotal(tensorShape, stripe))
	assert.Equal(t, uint32(1), NumStripesH(tensorShape, Shape{}))

	assert.Equal(t, uint32(1), EdgeStripeSize(33, 8))
	assert.Equal(t, uint32(8), EdgeStripeSize(32, 8))
	assert.Equal(t, uint32(5), EdgeStripeSize(5, 0))
}

func TestShape(t *testing.T) {
	a := Shape{1, 8, 16, 32}
	b := Shape{1, 8, 32, 16}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.False(t, a.Less(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, Shape{1, 8, 16, 16}, a.Min(b))
	assert.Equal(t, "[1, 8, 16, 32]", a.String())
	assert.True(t, a.IsMultipleOf(FcafDeepCellShape))
	assert.True(t, a.IsMultipleOf(FcafWideCellShape))
	assert.False(t, b.IsMultipleOf(FcafDeepCellShape))
	assert.True(t, Shape{1, 16, 16, 32}.CoversAllOf(Shape{1, 9, 16, 20}))
	assert.False(t, Shape{1, 8, 16, 32}.CoversAllOf(Shape{1, 9, 16, 20}))
	assert.Equal(t, uint64(4096), a.NumElements())
}

func TestShapeMultiplier(t *testing.T) {
	halve := ShapeMultiplier{H: Fraction{1, 2}, W: Fraction{1, 2}, C: One}
	assert.Equal(t, Shape{1, 8, 4, 16}, halve.Apply(Shape{1, 16, 8, 16}))
	assert.Equal(t, Shape{1, 16, 8, 16}, IdentityShapeMultiplier.Apply(Shape{1, 16, 8, 16}))
	interleave := ShapeMultiplier{H: Fraction{1, 2}, W: Fraction{1, 2}, C: Fraction{4, 1}}
	assert.Equal(t, Shape{1, 4, 4, 64}, interleave.Apply(Shape{1, 8, 8, 16}))
}

func TestGetBoundaryRequirements(t *testing.T) {
	testCases := []struct {
		name                                      string
		padBefore, ifmSize, ifmStripe, kernelSize uint32
		want                                      NeedBoundary
	}{
		{"1x1 kernel", 0, 64, 8, 1, NeedBoundary{}},
		{"not split", 1, 64, 64, 3, NeedBoundary{}},
		{"3x3 same padding", 1, 64, 8, 3, NeedBoundary{Before: true, After: true}},
		{"3x3 valid padding", 0, 64, 8, 3, NeedBoundary{Before: false, After: true}},
		{"2x2 padded before", 1, 64, 8, 2, NeedBoundary{Before: true, After: false}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := GetBoundaryRequirements(tc.padBefore, tc.ifmSize, tc.ifmStripe, tc.kernelSize)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want.Before || tc.want.After, got.Any())
		})
	}
}

func TestRescaleMultiplierAndShift(t *testing.T) {
	for _, scale := range []float64{0.5, 1.0, 0.123456, 3.75, 1e-4} {
		multiplier, shift := RescaleMultiplierAndShift(scale)
		require.NotZero(t, multiplier)
		got := float64(multiplier) / float64(uint64(1)<<shift)
		assert.InEpsilon(t, scale, got, 1e-3, "scale=%g", scale)
	}
	multiplier, shift := RescaleMultiplierAndShift(0)
	assert.Zero(t, multiplier)
	assert.Zero(t, shift)
}

func TestDataType(t *testing.T) {
	assert.Equal(t, uint32(1), DataTypeUint8Quantized.Size())
	assert.Equal(t, uint32(4), DataTypeInt32Quantized.Size())
	assert.False(t, DataTypeUint8Quantized.IsSigned())
	assert.True(t, DataTypeInt8Quantized.IsSigned())
	assert.Equal(t, "Int8Quantized", DataTypeInt8Quantized.String())
	dt, err := DataTypeString("uint8quantized")
	require.NoError(t, err)
	assert.Equal(t, DataTypeUint8Quantized, dt)
}
