// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/npucascade/pkg/core/tensor"
)

func TestBuildGraph(t *testing.T) {
	g := New("conv_relu")
	quant := tensor.QuantizationInfo{ZeroPoint: 0, Scale: 1}
	input := g.AddInput("input", tensor.Shape{1, 16, 16, 16}, tensor.DataTypeUint8Quantized, quant, DataFormatNHWC)
	conv := g.AddMce("conv", input, MceAttributes{
		Operation: MceOperationConvolution,
		Weights:   WeightsInfo{Shape: tensor.Shape{3, 3, 16, 32}, Format: WeightsFormatHWIO},
		Padding:   tensor.Padding{Top: 1, Bottom: 1, Left: 1, Right: 1},
	}, quant)
	relu := g.AddMcePostProcess("relu", conv, 0, 255)
	pool := g.AddFuseOnlyPle("pool", relu, PleOperationMaxPool2x2_2_2,
		tensor.ShapeMultiplier{H: tensor.Fraction{Numerator: 1, Denominator: 2}, W: tensor.Fraction{Numerator: 1, Denominator: 2}, C: tensor.One}, quant)
	output := g.AddOutput("output", pool, DataFormatNHWC)

	require.Equal(t, 5, g.NumNodes())
	assert.Equal(t, tensor.Shape{1, 16, 16, 32}, g.Node(conv).Shape)
	assert.Equal(t, tensor.Shape{1, 8, 8, 32}, g.Node(pool).Shape)
	assert.Equal(t, tensor.Shape{1, 8, 8, 32}, g.Node(output).Shape)
	assert.Equal(t, NodeKindMcePostProcess, g.Node(relu).Kind())
	assert.Equal(t, []NodeID{input}, g.NodesOfKind(NodeKindInput))
	assert.Equal(t, tensor.UnitStride, g.Node(conv).Attributes.(MceAttributes).Stride)

	assert.Equal(t, []Edge{{From: conv, To: relu, InputIndex: 0}}, g.Consumers(conv))
	assert.Len(t, g.Edges(), 4)
	assert.Empty(t, g.Consumers(output))

	// Each node gets its own operation id.
	for _, node := range g.Nodes() {
		assert.Len(t, node.OperationIDs, 1)
		assert.True(t, node.OperationIDs.Has(int(node.ID)))
	}
	assert.Contains(t, g.String(), "MceOperation(conv")
}

func TestMceOutputShape(t *testing.T) {
	testCases := []struct {
		name  string
		in    tensor.Shape
		attrs MceAttributes
		want  tensor.Shape
	}{
		{"valid 3x3", tensor.Shape{1, 10, 12, 8}, MceAttributes{Operation: MceOperationConvolution,
			Weights: WeightsInfo{Shape: tensor.Shape{3, 3, 8, 4}}}, tensor.Shape{1, 8, 10, 4}},
		{"strided", tensor.Shape{1, 16, 16, 8}, MceAttributes{Operation: MceOperationConvolution,
			Weights: WeightsInfo{Shape: tensor.Shape{1, 1, 8, 16}}, Stride: tensor.Stride{X: 2, Y: 2}},
			tensor.Shape{1, 8, 8, 16}},
		{"depthwise", tensor.Shape{1, 8, 8, 32}, MceAttributes{Operation: MceOperationDepthwiseConvolution,
			Weights: WeightsInfo{Shape: tensor.Shape{3, 3, 32, 1}, Format: WeightsFormatHWIM},
			Padding: tensor.Padding{Top: 1, Bottom: 1, Left: 1, Right: 1}}, tensor.Shape{1, 8, 8, 32}},
		{"fully connected", tensor.Shape{1, 1, 1, 1024}, MceAttributes{Operation: MceOperationFullyConnected,
			Weights: WeightsInfo{Shape: tensor.Shape{1, 1, 1024, 10}}}, tensor.Shape{1, 1, 1, 10}},
		{"upscale", tensor.Shape{1, 4, 4, 16}, MceAttributes{Operation: MceOperationConvolution,
			Weights: WeightsInfo{Shape: tensor.Shape{1, 1, 16, 16}}, UpscaleFactor: 2}, tensor.Shape{1, 8, 8, 16}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MceOutputShape(tc.in, tc.attrs))
		})
	}
}

func TestBuildErrors(t *testing.T) {
	g := New("errors")
	quant := tensor.QuantizationInfo{Scale: 1}
	a := g.AddInput("a", tensor.Shape{1, 8, 8, 16}, tensor.DataTypeUint8Quantized, quant, DataFormatNHWCB)
	b := g.AddInput("b", tensor.Shape{1, 8, 8, 32}, tensor.DataTypeUint8Quantized, quant, DataFormatNHWCB)
	assert.Panics(t, func() { g.Node(100) })
	assert.Panics(t, func() { g.AddStandalonePle("add", []NodeID{a, b}, PleOperationAddition, quant) })
	assert.Panics(t, func() { g.AddStandalonePle("add", []NodeID{a}, PleOperationAddition, quant) })
	assert.Panics(t, func() { g.AddFuseOnlyPle("add", a, PleOperationAddition, tensor.IdentityShapeMultiplier, quant) })
	assert.Panics(t, func() { g.AddReinterpret("reshape", a, tensor.Shape{1, 1, 1, 100}) })
	assert.Panics(t, func() { g.AddConcat("concat", []NodeID{a, b}, 1, quant) })
	assert.Panics(t, func() { g.AddConstant("c", tensor.Shape{1, 1, 1, 4}, tensor.DataTypeUint8Quantized, quant, []byte{1}) })

	concat := g.AddConcat("concat", []NodeID{a, b}, tensor.AxisChannels, quant)
	assert.Equal(t, tensor.Shape{1, 8, 8, 48}, g.Node(concat).Shape)
	reshape := g.AddReinterpret("reshape", concat, tensor.Shape{1, 1, 64, 48})
	assert.Equal(t, NodeKindReinterpret, g.Node(reshape).Kind())
}
