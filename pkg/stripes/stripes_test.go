// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package stripes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/options"
)

func TestGetDefaultStripeConfig(t *testing.T) {
	opts := options.DefaultCompilationOptions()
	config, err := GetDefaultStripeConfig(&opts, "McePart 0", nil)
	require.NoError(t, err)
	assert.Equal(t, NewStripeConfig(), config)

	opts.Strategy3 = false
	opts.BlockConfig8x32 = false
	opts.BlockConfig16x16 = false
	config, err = GetDefaultStripeConfig(&opts, "McePart 0", nil)
	require.NoError(t, err)
	assert.True(t, config.Splits.MceAndPleOutputHeight)
	assert.True(t, config.Splits.MceAndPleOutputDepth)
	assert.True(t, config.Splits.OutputDepthInputDepth)
	assert.True(t, config.Splits.WidthOnly)
	assert.True(t, config.Splits.WidthHeight)
	assert.True(t, config.Splits.WidthHeightOutputDepth)
	assert.True(t, config.Splits.WidthHeightOutputDepthInputDepth)
	assert.False(t, config.Splits.None)
	assert.False(t, config.Splits.MceOutputHeightOnly)
	assert.False(t, config.Splits.MceOutputDepthOnly)
	assert.Equal(t, []hwcaps.BlockConfig{{Width: 16, Height: 8}, {Width: 8, Height: 16}, {Width: 8, Height: 8}, {Width: 32, Height: 8}}, config.BlockConfigs)
}

const testStripeConfigFile = `# Only width splits for MCE parts.
McePart.*:
DisableAll
Splits.WidthOnly=True
BlockConfig(8,8)=True
BlockConfig(8,8)=True
BlockHeightMultiplier.Max=4
PlanTypes.Lonely=True

Other:
Bogus=True
`

func TestDebugStripeConfig(t *testing.T) {
	debug, err := ParseDebugStripeConfig("test.txt", strings.NewReader(testStripeConfigFile))
	require.NoError(t, err)

	config, err := GetDefaultStripeConfig(nil, "McePart 3", debug)
	require.NoError(t, err)
	assert.Equal(t, Splits{WidthOnly: true}, config.Splits)
	assert.Equal(t, []hwcaps.BlockConfig{{Width: 8, Height: 8}}, config.BlockConfigs)
	assert.Equal(t, MultiplierRange{1, 4}, config.BlockHeightMultiplier)
	assert.Equal(t, PlanTypes{Lonely: true}, config.PlanTypes)
	assert.True(t, config.PlanTypes.IsEnabled(opgraph.CascadeTypeLonely))
	assert.False(t, config.PlanTypes.IsEnabled(opgraph.CascadeTypeMiddle))

	// The section regex must match the whole identifier.
	config, err = GetDefaultStripeConfig(nil, "StandalonePlePart McePart", debug)
	require.NoError(t, err)
	assert.Equal(t, NewStripeConfig(), config)

	// Errors are only reported for the sections that apply.
	_, err = GetDefaultStripeConfig(nil, "Other", debug)
	require.Error(t, err)
	assert.Equal(t, "Error in stripe config file at line 11: Unknown name in assignment: Bogus", err.Error())
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, 11, configErr.Line)
}

func TestDebugStripeConfigErrors(t *testing.T) {
	for _, tc := range []struct{ command, msg string }{
		{"Splits.None=Yes", "Invalid value 'Yes'. Must be True or False."},
		{"IfmDepthMultiplier.Min=-1", "Invalid value '-1'. Must be an unsigned number."},
		{"BlockConfig(8,8)=1", "Invalid value '1'. Must be True or False."},
		{"Splits.Unknown=True", "Unknown name in assignment: Splits.Unknown"},
		{"DisableEverything", "Unexpected command syntax: DisableEverything"},
		{"Splits.None=True=False", "Unexpected command syntax: Splits.None=True=False"},
	} {
		t.Run(tc.command, func(t *testing.T) {
			debug, err := ParseDebugStripeConfig("test.txt", strings.NewReader("Part:\n\n"+tc.command+"\n"))
			require.NoError(t, err)
			_, err = GetDefaultStripeConfig(nil, "Part", debug)
			require.Error(t, err)
			assert.Equal(t, "Error in stripe config file at line 3: "+tc.msg, err.Error())
		})
	}

	_, err := ParseDebugStripeConfig("test.txt", strings.NewReader("Part(:\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error in stripe config file at line 1: ")

	missing := filepath.Join(t.TempDir(), "missing.txt")
	_, err = LoadDebugStripeConfig(missing)
	require.Error(t, err)
	assert.Equal(t, "Error opening stripe config file: "+missing, err.Error())

	debug, err := LoadDebugStripeConfig("")
	require.NoError(t, err)
	assert.Nil(t, debug)
}

func TestDebugStripeConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.txt")
	require.NoError(t, os.WriteFile(path, []byte("Part:\nDisableAllBlockConfigs\n"), 0o644))
	t.Setenv(options.EnvDebugStripeConfig, path)
	assert.Equal(t, path, DebugStripeConfigPath(nil))
	opts := options.DefaultCompilationOptions()
	opts.DebugStripeConfigFile = "other.txt"
	assert.Equal(t, "other.txt", DebugStripeConfigPath(&opts))

	debug, err := LoadDebugStripeConfig(DebugStripeConfigPath(nil))
	require.NoError(t, err)
	config, err := GetDefaultStripeConfig(nil, "Part", debug)
	require.NoError(t, err)
	assert.Empty(t, config.BlockConfigs)
}

func TestCreateStripe(t *testing.T) {
	in := tensor.Shape{1, 30, 40, 50}
	assert.Equal(t, tensor.Shape{1, 32, 40, 64}, CreateStripe(in, tensor.Shape{}, 16))
	assert.Equal(t, tensor.Shape{1, 8, 40, 64}, CreateStripe(in, tensor.Shape{0, 8, 0, 0}, 16))
	assert.Equal(t, tensor.Shape{1, 16, 40, 16}, CreateStripe(in, tensor.Shape{0, 9, 0, 16}, 16))
	// Clamped to the tensor before rounding.
	assert.Equal(t, tensor.Shape{1, 32, 40, 64}, CreateStripe(in, tensor.Shape{0, 64, 128, 128}, 16))
}

func convGenerator(op graph.MceOperation, input, output tensor.Shape, kernel uint32) *StripeGenerator {
	pad := kernel / 2
	return &StripeGenerator{
		MceInputTensorShape:  input,
		MceOutputTensorShape: output,
		PleOutputTensorShape: output,
		KernelHeight:         kernel,
		KernelWidth:          kernel,
		PadTop:               pad,
		PadLeft:              pad,
		Stride:               tensor.UnitStride,
		UpscaleFactor:        1,
		Operation:            op,
		PleOperation:         graph.PleOperationPassthrough,
		MceShapeMultiplier:   tensor.IdentityShapeMultiplier,
		PleShapeMultiplier:   tensor.IdentityShapeMultiplier,
		Capabilities:         hwcaps.Default(),
		Config:               NewStripeConfig(),
	}
}

func checkStripe(t *testing.T, name string, stripe, tensorShape tensor.Shape, channelsRounding uint32) {
	t.Helper()
	brick := tensor.BrickGroupShape
	for _, axis := range []int{tensor.AxisHeight, tensor.AxisWidth} {
		assert.LessOrEqual(t, stripe[axis], tensor.RoundUpToMultiple(tensorShape[axis], brick[axis]),
			"%s %s exceeds tensor %s", name, stripe, tensorShape)
		assert.Zero(t, stripe[axis]%brick[axis], "%s %s not rounded to the brick group", name, stripe)
	}
	assert.LessOrEqual(t, stripe.Channels(), tensor.RoundUpToMultiple(tensorShape.Channels(), channelsRounding),
		"%s %s exceeds tensor %s", name, stripe, tensorShape)
	assert.Zero(t, stripe.Channels()%channelsRounding, "%s %s channels not rounded", name, stripe)
}

func TestGenerateStripes(t *testing.T) {
	input, output := tensor.Shape{1, 64, 64, 64}, tensor.Shape{1, 64, 64, 128}
	for _, op := range []graph.MceOperation{graph.MceOperationConvolution, graph.MceOperationDepthwiseConvolution} {
		for _, cascadeType := range opgraph.CascadeTypeValues() {
			t.Run(fmt.Sprintf("%s-%s", op, cascadeType), func(t *testing.T) {
				out := output
				if op == graph.MceOperationDepthwiseConvolution {
					out = tensor.Shape{1, 64, 64, 64}
				}
				g := convGenerator(op, input, out, 3)
				infos := g.GenerateStripes(cascadeType)
				require.NotEmpty(t, infos.MceAndPleInfos)
				// MceOnly infos don't have the PLE output, so some MceAndPle infos collapse into one.
				assert.NotEmpty(t, infos.MceOnlyInfos)
				assert.LessOrEqual(t, len(infos.MceOnlyInfos), len(infos.MceAndPleInfos))
				for _, info := range infos.SortedMceAndPleInfos() {
					checkStripe(t, "mce input", info.MceCompute.Input, input, 16)
					checkStripe(t, "mce output", info.MceCompute.Output, out, 16)
					checkStripe(t, "ple output", info.PleCompute.Output, out, 16)
					checkStripe(t, "memory output", info.Memory.Output.Shape, out, 16)

					// Never more slots than stripes in the tensor.
					mem := info.Memory
					assert.LessOrEqual(t, mem.Input.Range.Max, tensor.NumStripesTotal(input, mem.Input.Shape))
					assert.LessOrEqual(t, mem.Output.Range.Max, tensor.NumStripesTotal(out, mem.Output.Shape))
					assert.LessOrEqual(t, mem.Input.Range.Min, mem.Input.Range.Max)
				}
				if cascadeType != opgraph.CascadeTypeLonely {
					// Only Lonely plans split in both width and height.
					for info := range infos.MceAndPleInfos {
						s := info.MceCompute.Input
						assert.False(t, s.Height() < input.Height() && s.Width() < input.Width(), "unexpected split %s", s)
					}
				}
			})
		}
	}
}

func TestGenerateStripesDeterministic(t *testing.T) {
	g := convGenerator(graph.MceOperationConvolution, tensor.Shape{1, 32, 32, 32}, tensor.Shape{1, 32, 32, 32}, 1)
	first := g.GenerateStripes(opgraph.CascadeTypeLonely).SortedMceAndPleInfos()
	second := g.GenerateStripes(opgraph.CascadeTypeLonely).SortedMceAndPleInfos()
	assert.Equal(t, first, second)
	for ii := 1; ii < len(first); ii++ {
		assert.Negative(t, first[ii-1].Compare(first[ii]))
	}
}

func TestDepthwiseWeightStripes(t *testing.T) {
	// The input depth fits in a single weight stripe: there is nothing to double buffer.
	input := tensor.Shape{1, 32, 32, 16}
	g := convGenerator(graph.MceOperationDepthwiseConvolution, input, input, 3)
	infos := g.GenerateStripes(opgraph.CascadeTypeLonely)
	require.NotEmpty(t, infos.MceAndPleInfos)
	for info := range infos.MceAndPleInfos {
		weight := info.Memory.Weight
		require.GreaterOrEqual(t, weight.Shape[2], input.Channels())
		assert.Equal(t, uint32(1), weight.Range.Max)
		assert.Equal(t, uint32(1), weight.Shape[3])
		assert.Equal(t, uint32(1), weight.NumLoads)
	}
}

func TestSplitFilters(t *testing.T) {
	g := convGenerator(graph.MceOperationConvolution, tensor.Shape{1, 64, 64, 64}, tensor.Shape{1, 64, 64, 64}, 3)
	g.Config.DisableAllSplits()
	g.Config.Splits.None = true
	infos := g.GenerateStripes(opgraph.CascadeTypeLonely)
	// One candidate per block config, all the same.
	require.Len(t, infos.MceAndPleInfos, len(g.Config.BlockConfigs))
	for info := range infos.MceAndPleInfos {
		assert.Equal(t, NumStripes{1, 1}, info.Memory.Input.Range)
		assert.Equal(t, tensor.Shape{1, 64, 64, 64}, info.Memory.Output.Shape)
		assert.False(t, info.Memory.Input.PackedBoundaryThickness.Any())
	}

	// Firmware limit on the number of MCE stripes per PLE stripe.
	g = convGenerator(graph.MceOperationConvolution, tensor.Shape{1, 8, 8, 256}, tensor.Shape{1, 8, 8, 64}, 1)
	g.Capabilities.MaxMceStripesPerPleStripe = 1
	g.Config.DisableAllSplits()
	g.Config.Splits.WidthHeightOutputDepthInputDepth = true
	infos = g.GenerateStripes(opgraph.CascadeTypeLonely)
	require.NotEmpty(t, infos.MceAndPleInfos)
	for info := range infos.MceAndPleInfos {
		assert.Equal(t, uint32(256), info.MceCompute.Input.Channels())
	}
	g.Capabilities.MaxMceStripesPerPleStripe = 64
	infos = g.GenerateStripes(opgraph.CascadeTypeLonely)
	minChannels := uint32(256)
	for info := range infos.MceAndPleInfos {
		minChannels = min(minChannels, info.MceCompute.Input.Channels())
		assert.Equal(t, uint32(16), info.MceCompute.Output.Channels())
	}
	assert.Equal(t, uint32(16), minChannels)
}

func TestPackedBoundary(t *testing.T) {
	g := convGenerator(graph.MceOperationConvolution, tensor.Shape{1, 64, 64, 64}, tensor.Shape{1, 64, 64, 64}, 3)
	g.Config.DisableAllSplits()
	g.Config.Splits.WidthHeight = true
	infos := g.GenerateStripes(opgraph.CascadeTypeLonely)
	found := false
	for info := range infos.MceAndPleInfos {
		in := info.MceCompute.Input
		if in.Width() < 64 && in.Height() < 64 {
			found = true
			assert.Equal(t, opgraph.PackedBoundaryThickness{Top: 8, Bottom: 8}, info.Memory.Input.PackedBoundaryThickness)
			assert.Equal(t, uint32(3), info.Memory.Input.Range.Min)
		}
	}
	assert.True(t, found)
}

func TestApplyPleKernelSplitRestrictions(t *testing.T) {
	g := convGenerator(graph.MceOperationConvolution, tensor.Shape{1, 64, 64, 64}, tensor.Shape{1, 64, 64, 64}, 1)
	g.PleOperation = graph.PleOperationMaxPool3x3_2_2Odd
	beginning := g.ApplyPleKernelSplitRestrictions(opgraph.CascadeTypeBeginning)
	assert.Equal(t, Splits{None: true}, beginning.Splits)
	lonely := g.ApplyPleKernelSplitRestrictions(opgraph.CascadeTypeLonely)
	assert.False(t, lonely.Splits.WidthOnly)
	assert.False(t, lonely.Splits.WidthHeight)
	assert.True(t, lonely.Splits.MceAndPleOutputHeight)
	assert.True(t, lonely.Splits.OutputDepthInputDepth)
	// The generator's own config is untouched.
	assert.True(t, g.Config.Splits.WidthOnly)
}

func TestCreateNumStripes(t *testing.T) {
	g := convGenerator(graph.MceOperationConvolution, tensor.Shape{1, 8, 8, 16}, tensor.Shape{1, 8, 8, 16}, 3)
	in, out, w, ple := g.CreateNumStripes(opgraph.CascadeTypeBeginning, true)
	assert.Equal(t, []NumStripes{{3, 4}, {1, 3}, {1, 2}, {0, 0}}, []NumStripes{in, out, w, ple})
	in, out, _, _ = g.CreateNumStripes(opgraph.CascadeTypeLonely, false)
	assert.Equal(t, []NumStripes{{1, 2}, {1, 2}}, []NumStripes{in, out})
	assert.Panics(t, func() { g.CreateNumStripes(opgraph.CascadeType(17), false) })
}

func TestTileSizes(t *testing.T) {
	caps := hwcaps.Default()
	shape := tensor.Shape{1, 16, 16, 16}
	assert.Equal(t, uint32(16*16*16), CalculateTileSize(caps, shape, tensor.Shape{1, 8, 16, 16}, 4))
	assert.Equal(t, uint32(2*8*16*16), CalculateTileSize(caps, shape, tensor.Shape{1, 8, 16, 16}, 2))

	// Streaming width with a 3x3 kernel adds boundary slots above and below.
	big := tensor.Shape{1, 64, 64, 16}
	stripe := tensor.Shape{1, 8, 8, 16}
	assert.Equal(t, uint32(3*(2*8*8*16+8*8*16)), CalculateMceInputTileSize(caps, big, stripe, 1, 3, 3))
	assert.Equal(t, uint32(3*8*8*16), CalculateMceInputTileSize(caps, big, stripe, 0, 1, 3))

	assert.Equal(t, uint32(32), GetWeightStripeDepth(graph.WeightsFormatHWIO, tensor.Shape{3, 3, 16, 32}, tensor.UnitStride))
	assert.Equal(t, uint32(16), GetWeightStripeDepth(graph.WeightsFormatHWIM, tensor.Shape{3, 3, 64, 1}, tensor.Stride{X: 2, Y: 2}))
}
