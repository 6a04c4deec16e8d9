// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/npucascade/pkg/cascading"
	"github.com/gomlx/npucascade/pkg/commandstream"
	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/options"
	"github.com/gomlx/npucascade/pkg/parts"
)

var testQuant = tensor.QuantizationInfo{ZeroPoint: 0, Scale: 1}

func addConv(g *graph.Graph, name string, input graph.NodeID, channels uint32) graph.NodeID {
	weights := make([]byte, channels*channels)
	for ii := range weights {
		weights[ii] = byte(ii)
	}
	conv := g.AddMce(name, input, graph.MceAttributes{
		Operation: graph.MceOperationConvolution,
		Weights: graph.WeightsInfo{
			Shape: tensor.Shape{1, 1, channels, channels}, Format: graph.WeightsFormatHWIO,
			Quantization: testQuant, Data: weights,
		},
		Bias: make([]int32, channels),
	}, testQuant)
	return g.AddMcePostProcess(name+"/relu", conv, 0, 255)
}

// convsGraph builds input -> numConvs x (conv 1x1 + relu) -> output.
func convsGraph(numConvs int) *graph.Graph {
	g := graph.New("convs")
	shape := tensor.Shape{1, 16, 16, 16}
	x := g.AddInput("input", shape, tensor.DataTypeUint8Quantized, testQuant, graph.DataFormatNHWC)
	for ii := range numConvs {
		x = addConv(g, fmt.Sprintf("conv%d", ii), x, shape.Channels())
	}
	g.AddOutput("output", x, graph.DataFormatNHWC)
	return g
}

func TestCompile(t *testing.T) {
	for _, numConvs := range []int{1, 2} {
		t.Run(fmt.Sprintf("convs=%d", numConvs), func(t *testing.T) {
			c := New(hwcaps.Default())
			var numDone, numParts int
			c.OnPartDone = func(_ parts.Part, done, total int) { numDone, numParts = done, total }
			g := convsGraph(numConvs)
			result, err := c.Compile(context.Background(), g)
			require.NoError(t, err)
			require.NotNil(t, result.Network)
			assert.Same(t, g, result.Graph)
			assert.Equal(t, result.Parts.NumParts(), numParts)
			assert.Equal(t, numParts, numDone)
			assert.Equal(t, result.Parts.NumParts(), result.Combination.Len())
			assert.NotEmpty(t, result.Performance.Stream)
			assert.Empty(t, result.DebugDir)

			cascades := result.Network.CommandStream.Cascades()
			require.Len(t, cascades, 1)
			agents := cascades[0].Agents
			require.NotEmpty(t, agents)
			assert.Equal(t, commandstream.AgentTypeOfmStreamer, agents[len(agents)-1].Type())
			counts := make(map[commandstream.AgentType]int)
			for ii := range agents {
				counts[agents[ii].Type()]++
			}
			assert.Equal(t, numConvs, counts[commandstream.AgentTypeMceScheduler])
			assert.Equal(t, numConvs, counts[commandstream.AgentTypeWgtStreamer])
			assert.Positive(t, counts[commandstream.AgentTypeIfmStreamer])

			var numInputs, numOutputs int
			for _, b := range result.Network.Buffers.Buffers() {
				switch b.Type {
				case opgraph.BufferTypeInput:
					numInputs++
				case opgraph.BufferTypeOutput:
					numOutputs++
				}
			}
			assert.Equal(t, 1, numInputs)
			assert.Equal(t, 1, numOutputs)
			for _, node := range g.Nodes() {
				for id := range node.OperationIDs {
					assert.Contains(t, result.Network.OperationIDs, id)
				}
			}
		})
	}
}

func TestEstimate(t *testing.T) {
	c := New(hwcaps.Default())
	result, err := c.Estimate(context.Background(), convsGraph(1))
	require.NoError(t, err)
	assert.Nil(t, result.Network)
	assert.NotNil(t, result.OpGraph)
	assert.NotEmpty(t, result.Performance.Stream)
}

func TestCompileNotSupported(t *testing.T) {
	g := graph.New("estimate_only")
	shape := tensor.Shape{1, 8, 8, 16}
	x := g.AddInput("input", shape, tensor.DataTypeUint8Quantized, testQuant, graph.DataFormatNHWC)
	y := g.AddEstimateOnly("mystery", []graph.NodeID{x}, shape, "unknown operation")
	g.AddOutput("output", y, graph.DataFormatNHWC)

	c := New(hwcaps.Default())
	_, err := c.Compile(context.Background(), g)
	require.Error(t, err)
	var notSupported *cascading.NotSupportedError
	assert.ErrorAs(t, err, &notSupported)

	// It can still be estimated.
	result, err := c.Estimate(context.Background(), g)
	require.NoError(t, err)
	assert.NotNil(t, result.Performance)
}

func TestCompileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(hwcaps.Default())
	c.Options.MaxParallelism = 2
	_, err := c.Compile(ctx, convsGraph(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompileDebugFiles(t *testing.T) {
	for _, level := range []options.DebugLevel{options.DebugLevelNone, options.DebugLevelMedium, options.DebugLevelHigh} {
		t.Run(level.String(), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "debug")
			c := New(hwcaps.Default())
			c.Options.DebugInfo = options.DebugInfo{DumpDebugFiles: true, DebugDir: dir, DebugLevel: level}
			result, err := c.Compile(context.Background(), convsGraph(1))
			require.NoError(t, err)
			assert.Equal(t, dir, result.DebugDir)

			mediumFiles := []string{"graph.dot", "graph_of_parts.dot", "combination.dot", "estimation.txt",
				"command_stream.xml", "binding_table.xml"}
			highFiles := []string{"combination_detailed.dot", "merged_opgraph.dot"}
			for _, name := range mediumFiles {
				_, err := os.Stat(filepath.Join(dir, name))
				assert.Equal(t, level >= options.DebugLevelMedium, err == nil, "file %s at level %s", name, level)
			}
			for _, name := range highFiles {
				_, err := os.Stat(filepath.Join(dir, name))
				assert.Equal(t, level >= options.DebugLevelHigh, err == nil, "file %s at level %s", name, level)
			}
			if level < options.DebugLevelMedium {
				return
			}

			f, err := os.Open(filepath.Join(dir, "command_stream.xml"))
			require.NoError(t, err)
			defer func() { _ = f.Close() }()
			cs, err := commandstream.ParseXML(f)
			require.NoError(t, err)
			assert.Equal(t, result.Network.CommandStream.NumAgents(), cs.NumAgents())
		})
	}
}

func TestDebuggingContextDisabled(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never")
	d, err := NewDebuggingContext(options.DebugInfo{DebugDir: dir})
	require.NoError(t, err)
	assert.Empty(t, d.Dir())
	assert.False(t, d.Enabled(options.DebugLevelNone))
	require.NoError(t, d.SaveGraph(convsGraph(1)))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
