// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensor

import (
	"fmt"
	"math"
)

// DataType of the elements of a tensor.
type DataType int

//go:generate go tool enumer -type=DataType -trimprefix=DataType -output=gen_datatype_enumer.go quantization.go

const (
	DataTypeUint8Quantized DataType = iota
	DataTypeInt8Quantized
	DataTypeInt32Quantized
)

// Size in bytes of one element.
func (dt DataType) Size() uint32 {
	switch dt {
	case DataTypeUint8Quantized, DataTypeInt8Quantized:
		return 1
	case DataTypeInt32Quantized:
		return 4
	}
	return 0
}

// IsSigned returns whether the quantized values are signed.
func (dt DataType) IsSigned() bool {
	return dt != DataTypeUint8Quantized
}

// QuantizationInfo maps quantized integer values to real values: real = Scale * (quantized - ZeroPoint).
type QuantizationInfo struct {
	ZeroPoint int32
	Scale     float32
}

// String implements fmt.Stringer.
func (q QuantizationInfo) String() string {
	return fmt.Sprintf("ZeroPoint = %d, Scale = %g", q.ZeroPoint, q.Scale)
}

// Fraction is a rational number used to scale shapes.
type Fraction struct {
	Numerator, Denominator uint32
}

// One is the identity Fraction.
var One = Fraction{1, 1}

// Apply returns value * Numerator / Denominator, rounding down.
func (f Fraction) Apply(value uint32) uint32 {
	if f.Denominator == 0 {
		return value
	}
	return value * f.Numerator / f.Denominator
}

// ShapeMultiplier scales the height, width and channels of a shape.
// It describes how an operation transforms the shape of its input stripe into its output stripe,
// e.g. a 2x2 pooling with stride 2 has {1/2, 1/2, 1}.
type ShapeMultiplier struct {
	H, W, C Fraction
}

// IdentityShapeMultiplier leaves shapes unchanged.
var IdentityShapeMultiplier = ShapeMultiplier{H: One, W: One, C: One}

// Apply multiplies the shape (batch is unchanged).
func (m ShapeMultiplier) Apply(s Shape) Shape {
	return Shape{s[AxisBatch], m.H.Apply(s[AxisHeight]), m.W.Apply(s[AxisWidth]), m.C.Apply(s[AxisChannels])}
}

// RescaleMultiplierAndShift approximates the real factor `scale` as multiplier * 2^(-shift), with
// a 16 bits multiplier, which is what the PLE rescaling kernels consume.
func RescaleMultiplierAndShift(scale float64) (multiplier uint16, shift uint16) {
	if scale <= 0 {
		return 0, 0
	}
	mantissa, exponent := math.Frexp(scale) // scale = mantissa * 2^exponent, mantissa in [0.5, 1).
	quantized := int64(math.Round(mantissa * (1 << 16)))
	if quantized == 1<<16 {
		quantized /= 2
		exponent++
	}
	shiftValue := 16 - exponent
	if shiftValue < 0 {
		// Saturate: the factor does not fit in 16 bits.
		return math.MaxUint16, 0
	}
	for shiftValue > 31 && quantized > 0 {
		quantized >>= 1
		shiftValue--
	}
	return uint16(quantized), uint16(shiftValue)
}
