// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package visualisation

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/npucascade/pkg/combiner"
	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/options"
	"github.com/gomlx/npucascade/pkg/parts"
)

var testQuant = tensor.QuantizationInfo{ZeroPoint: 0, Scale: 1}

// convGraph builds input -> conv 1x1 -> relu -> output.
func convGraph() *graph.Graph {
	g := graph.New("conv")
	x := g.AddInput("input", tensor.Shape{1, 16, 16, 16}, tensor.DataTypeUint8Quantized, testQuant, graph.DataFormatNHWC)
	conv := g.AddMce("conv", x, graph.MceAttributes{
		Operation: graph.MceOperationConvolution,
		Weights: graph.WeightsInfo{
			Shape: tensor.Shape{1, 1, 16, 16}, Format: graph.WeightsFormatHWIO,
			Quantization: testQuant, Data: make([]byte, 16*16),
		},
		Bias: make([]int32, 16),
	}, testQuant)
	relu := g.AddMcePostProcess("relu", conv, 0, 255)
	g.AddOutput("output", relu, graph.DataFormatNHWC)
	return g
}

// checkBalanced checks the dot text opens and closes all of its blocks.
func checkBalanced(t *testing.T, text string) {
	t.Helper()
	assert.Equal(t, strings.Count(text, "{"), strings.Count(text, "}"))
	assert.True(t, strings.HasSuffix(text, "}\n"), "dot output must end with the closing brace")
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"abc"`, quote("abc"))
	assert.Equal(t, `"a\"b\\c\nd"`, quote("a\"b\\c\nd"))
	assert.Equal(t, `"x\ny"`, label("x", "y"))
}

func TestSaveGraphToDot(t *testing.T) {
	g := convGraph()
	for _, level := range DetailLevelValues() {
		var buf bytes.Buffer
		require.NoError(t, SaveGraphToDot(g, &buf, level))
		text := buf.String()
		checkBalanced(t, text)
		assert.True(t, strings.HasPrefix(text, "digraph \"conv\" {\n"))
		assert.Contains(t, text, "\tNode_0 [label = \"input\\nInput")
		assert.Contains(t, text, "\tNode_0 -> Node_1 [label = 0]\n")
		assert.Contains(t, text, "\tNode_2 -> Node_3 [label = 0]\n")
		if level == DetailLevelHigh {
			assert.Contains(t, text, "NHWC")
		}
	}
}

func TestSaveOpGraphToDot(t *testing.T) {
	g := opgraph.New()
	in := g.AddBuffer(&opgraph.Buffer{Location: opgraph.LocationDram, DebugTag: "in"})
	out := g.AddBuffer(&opgraph.Buffer{Location: opgraph.LocationSram, DebugTag: "out", Offset: 0x100, HasOffset: true})
	dma := g.AddOp(&opgraph.DmaOp{OpBase: opgraph.OpBase{DebugTag: "load"}})
	g.AddConsumer(in, dma, 0)
	g.SetProducer(out, dma)

	var buf bytes.Buffer
	require.NoError(t, SaveOpGraphToDot(g, &buf, DetailLevelLow))
	text := buf.String()
	checkBalanced(t, text)
	assert.Contains(t, text, "\tBuffer_0 [label = \"in\\nDram\", shape = box, color = brown]\n")
	assert.Contains(t, text, "\tOp_0 [label = \"load\\nDma\", shape = oval, color = darkgoldenrod]\n")
	assert.Contains(t, text, "\tBuffer_0 -> Op_0\n")
	assert.Contains(t, text, "\tOp_0 -> Buffer_1\n")
	assert.NotContains(t, text, "Offset")

	buf.Reset()
	require.NoError(t, SaveOpGraphToDot(g, &buf, DetailLevelHigh))
	assert.Contains(t, buf.String(), "Offset = 0x100")
}

func TestSaveCombinationToDot(t *testing.T) {
	config := parts.NewConfig(hwcaps.Default(), options.DefaultCompilationOptions(), options.DefaultEstimationOptions())
	gop, err := parts.BuildGraphOfParts(convGraph(), config)
	require.NoError(t, err)
	comb, err := combiner.New(gop, config).Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, SaveGraphOfPartsToDot(gop, &buf, DetailLevelHigh))
	checkBalanced(t, buf.String())
	for _, part := range gop.Parts() {
		assert.Contains(t, buf.String(), part.DebugTag())
	}

	buf.Reset()
	require.NoError(t, SaveCombinationToDot(comb, gop, &buf, DetailLevelLow))
	low := buf.String()
	checkBalanced(t, low)
	assert.NotContains(t, low, "subgraph")
	slots, connections := gop.Connections()
	require.NotEmpty(t, slots)
	for _, in := range slots {
		assert.Contains(t, low, fmt.Sprintf("Part_%d -> Part_%d", connections[in].PartID, in.PartID))
	}

	buf.Reset()
	require.NoError(t, SaveCombinationToDot(comb, gop, &buf, DetailLevelHigh))
	high := buf.String()
	checkBalanced(t, high)
	for _, id := range comb.PartIDs() {
		assert.Contains(t, high, fmt.Sprintf("subgraph cluster_Part_%d {", id))
	}
	assert.Contains(t, high, "style = dashed")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestSaveToFailingWriter(t *testing.T) {
	err := SaveGraphToDot(convGraph(), failingWriter{}, DetailLevelHigh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
