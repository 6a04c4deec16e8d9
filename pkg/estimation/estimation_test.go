// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package estimation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/options"
	"github.com/gomlx/npucascade/pkg/support/sets"
)

func TestGetEffectiveSize(t *testing.T) {
	assert.Equal(t, uint32(18), GetEffectiveSize(16, 8, 1, 1))
	assert.Equal(t, uint32(10), GetEffectiveSize(10, 10, 2, 2))
	assert.Equal(t, uint32(25), GetEffectiveSize(16, 4, 1, 2))
	assert.Zero(t, GetEffectiveSize(0, 8, 1, 1))
	assert.Zero(t, GetEffectiveSize(0, 0, 1, 1))
	assert.Panics(t, func() { GetEffectiveSize(16, 0, 1, 1) })

	assert.Equal(t, uint32(3), GetMinNumSlots(true, 5))
	assert.Equal(t, uint32(2), GetMinNumSlots(true, 2))
	assert.Equal(t, uint32(1), GetMinNumSlots(false, 5))
}

func TestGetInputStats(t *testing.T) {
	caps := hwcaps.Default()
	shape := tensor.Shape{1, 16, 16, 16}
	stripe := tensor.Shape{1, 8, 16, 16}
	weights1x1 := graph.WeightsInfo{Shape: tensor.Shape{1, 1, 16, 16}, Format: graph.WeightsFormatHWIO}
	weights3x3 := graph.WeightsInfo{Shape: tensor.Shape{3, 3, 16, 16}, Format: graph.WeightsFormatHWIO}

	t.Run("Sram", func(t *testing.T) {
		stats := GetInputStats(caps, shape, stripe, opgraph.LocationSram, 4096, weights1x1, 1)
		assert.Equal(t, MemoryStats{Sram: 4096}, stats.Memory)
		assert.Zero(t, stats.Stripes)
	})

	t.Run("DoubleBuffered", func(t *testing.T) {
		stats := GetInputStats(caps, shape, stripe, opgraph.LocationDram, 4096, weights1x1, 1)
		assert.Equal(t, MemoryStats{DramParallel: 2048, DramNonParallel: 2048}, stats.Memory)
		assert.Equal(t, StripesStats{NumCentralStripes: 2}, stats.Stripes)
	})

	t.Run("SingleBuffered", func(t *testing.T) {
		stats := GetInputStats(caps, shape, stripe, opgraph.LocationDram, 2048, weights1x1, 1)
		assert.Equal(t, MemoryStats{DramNonParallel: 4096}, stats.Memory)
	})

	t.Run("NeedsNeighbours", func(t *testing.T) {
		// With a 3x3 kernel 3 slots are needed before the next stripe can be loaded in parallel.
		stats := GetInputStats(caps, shape, stripe, opgraph.LocationDram, 4096, weights3x3, 1)
		assert.Equal(t, MemoryStats{DramNonParallel: 4096}, stats.Memory)
	})

	t.Run("Reloads", func(t *testing.T) {
		// Streaming in height reloads the input once per output depth stripe.
		stats := GetInputStats(caps, shape, stripe, opgraph.LocationDram, 4096, weights1x1, 2)
		assert.Equal(t, uint32(1), stats.Stripes.NumReloads)
		assert.Equal(t, uint64(2*4096), uint64(stats.Memory.DramParallel)+uint64(stats.Memory.DramNonParallel))

		depthwise := graph.WeightsInfo{Shape: tensor.Shape{1, 1, 16, 1}, Format: graph.WeightsFormatHWIM}
		stats = GetInputStats(caps, shape, stripe, opgraph.LocationDram, 4096, depthwise, 2)
		assert.Zero(t, stats.Stripes.NumReloads)
	})
}

func TestGetOutputStats(t *testing.T) {
	shape := tensor.Shape{1, 16, 16, 16}
	stats := GetOutputStats(shape, tensor.Shape{1, 8, 16, 16}, opgraph.LocationDram)
	assert.Equal(t, MemoryStats{DramParallel: 2048, DramNonParallel: 2048}, stats.Memory)
	assert.Equal(t, uint32(2), stats.Stripes.NumCentralStripes)

	stats = GetOutputStats(shape, tensor.Shape{1, 8, 16, 16}, opgraph.LocationSram)
	assert.Equal(t, MemoryStats{Sram: 4096}, stats.Memory)
}

func TestGetPleStats(t *testing.T) {
	caps := hwcaps.Default()
	stats := GetPleStats(caps, []tensor.Shape{{1, 16, 16, 16}}, graph.PleOperationSigmoid)
	assert.Equal(t, uint32(4*4*2), stats.NumOfPatches)
	assert.Equal(t, "Sigmoid", stats.Operation)

	// The largest input decides.
	stats = GetPleStats(caps, []tensor.Shape{{1, 4, 4, 8}, {1, 8, 16, 32}}, graph.PleOperationAddition)
	assert.Equal(t, uint32(2*4*4), stats.NumOfPatches)
}

func TestGetConversionStats(t *testing.T) {
	nhwc := ConversionData{TensorShape: tensor.Shape{1, 10, 10, 16}, StripeShape: tensor.Shape{1, 10, 10, 16}, IsNHWC: true}
	nhwcb := ConversionData{TensorShape: tensor.Shape{1, 10, 10, 16}, StripeShape: tensor.Shape{1, 8, 8, 16}}
	stats := GetConversionStats(nhwc, nhwcb, true)
	assert.Equal(t, uint32(1600), stats.Input.Memory.DramNonParallel)
	assert.Equal(t, uint32(1), stats.Input.Stripes.NumCentralStripes)
	assert.Equal(t, uint32(4096), stats.Output.Memory.DramNonParallel)
	assert.Equal(t, uint32(4), stats.Output.Stripes.NumCentralStripes)

	stats = GetConversionStats(nhwc, nhwcb, false)
	assert.Equal(t, uint32(4096), stats.Input.Memory.Sram)
	assert.Zero(t, stats.Input.Memory.DramNonParallel)
}

func TestGetWeightsStats(t *testing.T) {
	encoded := &opgraph.EncodedWeights{
		Data:     make([]byte, 256),
		Metadata: []opgraph.WeightStripeMetadata{{Offset: 0, Size: 64}, {Offset: 64, Size: 64}, {Offset: 128, Size: 128}},
		MaxSize:  128,
	}
	stats := GetWeightsStats(encoded, 512, 2, 1, 0, false)
	assert.Equal(t, MemoryStats{DramNonParallel: 64, DramParallel: 192}, stats.Memory)
	assert.InDelta(t, 0.5, stats.CompressionSaving, 1e-9)
	assert.Equal(t, uint32(3), stats.Stripes.NumCentralStripes)

	// A single slot can't load the next stripe while computing.
	stats = GetWeightsStats(encoded, 512, 1, 2, 0, false)
	assert.Equal(t, MemoryStats{DramNonParallel: 512}, stats.Memory)
	assert.Equal(t, uint32(1), stats.Stripes.NumReloads)

	stats = GetWeightsStats(encoded, 512, 1, 1, 0.75, true)
	assert.Equal(t, MemoryStats{DramNonParallel: 128}, stats.Memory)

	assert.Zero(t, GetWeightsStats(nil, 512, 1, 1, 0, false))
}

func TestGetMceStats(t *testing.T) {
	caps := hwcaps.Default()
	stats := GetMceStats(caps, graph.MceOperationConvolution, graph.MceAlgorithmDirect,
		tensor.Shape{1, 16, 16, 16}, tensor.Shape{1, 16, 16, 32}, tensor.Shape{3, 3, 16, 32})
	macs := uint64(16 * 16 * 32 * 3 * 3 * 16)
	assert.Equal(t, 2*macs, stats.Operations)
	assert.Equal(t, tensor.DivRoundUp(macs, uint64(caps.NumberOfOgs()*caps.IgsPerEngine*macsPerOg)), stats.CycleCount)

	winograd := GetMceStats(caps, graph.MceOperationConvolution, graph.MceAlgorithmWinograd,
		tensor.Shape{1, 16, 16, 16}, tensor.Shape{1, 16, 16, 32}, tensor.Shape{3, 3, 16, 32})
	assert.Equal(t, stats.Operations, winograd.Operations)
	assert.Less(t, winograd.CycleCount, stats.CycleCount)
}

func passWithInput(parallel, nonParallel uint32) PassPerformanceData {
	var pass PassPerformanceData
	pass.Stats.Input.Memory = MemoryStats{DramParallel: parallel, DramNonParallel: nonParallel}
	return pass
}

func TestComparePerformanceData(t *testing.T) {
	// Same total, the non-parallel bytes decide, whatever the number of passes.
	left := &NetworkPerformanceData{Stream: []PassPerformanceData{passWithInput(200, 100), {}, {}}}
	right := &NetworkPerformanceData{Stream: []PassPerformanceData{passWithInput(100, 200)}}
	assert.Equal(t, PerformanceComparisonResultLeftBetter, ComparePerformanceData(left, right))
	assert.Equal(t, PerformanceComparisonResultRightBetter, ComparePerformanceData(right, left))

	// The total decides first.
	cheaper := &NetworkPerformanceData{Stream: []PassPerformanceData{passWithInput(0, 250)}}
	assert.Equal(t, PerformanceComparisonResultLeftBetter, ComparePerformanceData(cheaper, left))

	// Only the number of passes differs.
	fewer := &NetworkPerformanceData{Stream: []PassPerformanceData{passWithInput(200, 100)}}
	assert.Equal(t, PerformanceComparisonResultRightBetter, ComparePerformanceData(left, fewer))
	assert.Equal(t, PerformanceComparisonResultEqual, ComparePerformanceData(fewer, fewer))

	assert.Equal(t, []uint64{300, 100, 3}, GetPerformanceMetrics(left))
	assert.Equal(t, uint64(200), GetPerformanceMetric(left, MetricTypeParallel))
	assert.Panics(t, func() { GetPerformanceMetric(left, MetricType(42)) })
}

// mceOpGraph builds DRAM -> DMA -> SRAM -> MCE -> PLE -> SRAM -> DMA -> DRAM, with weights.
// If inputInSram, the input SRAM buffer has no producer, as in the middle of a cascade.
func mceOpGraph(inputInSram bool) *opgraph.OpGraph {
	g := opgraph.New()
	shape := tensor.Shape{1, 16, 16, 16}
	stripe := tensor.Shape{1, 8, 16, 16}
	newOpBase := func(opID int) opgraph.OpBase {
		return opgraph.OpBase{Lifetime: opgraph.LifetimeCascade, OperationIDs: sets.MakeWith(opID)}
	}

	ifm := g.AddBuffer(&opgraph.Buffer{Location: opgraph.LocationSram, Format: opgraph.BufferFormatNHWCB,
		TensorShape: shape, StripeShape: stripe, NumStripes: 2, SizeInBytes: 4096})
	if !inputInSram {
		in := g.AddBuffer(&opgraph.Buffer{Location: opgraph.LocationDram, Format: opgraph.BufferFormatNHWCB,
			TensorShape: shape, StripeShape: shape, NumStripes: 1, SizeInBytes: 4096})
		dma := g.AddOp(&opgraph.DmaOp{OpBase: newOpBase(0), TransferFormat: opgraph.BufferFormatNHWCB})
		g.AddConsumer(in, dma, 0)
		g.SetProducer(ifm, dma)
	}

	wgtDram := g.AddBuffer(&opgraph.Buffer{Location: opgraph.LocationDram, Format: opgraph.BufferFormatWEIGHT,
		TensorShape: tensor.Shape{1, 1, 16, 16}, NumStripes: 1, SizeInBytes: 320, NumLoads: 1,
		EncodedWeights: &opgraph.EncodedWeights{
			Data: make([]byte, 320), Metadata: []opgraph.WeightStripeMetadata{{Offset: 0, Size: 320}}, MaxSize: 320,
		}})
	wgtSram := g.AddBuffer(&opgraph.Buffer{Location: opgraph.LocationSram, Format: opgraph.BufferFormatWEIGHT,
		TensorShape: tensor.Shape{1, 1, 16, 16}, StripeShape: tensor.Shape{1, 1, 16, 16}, NumStripes: 1, SizeInBytes: 320})
	wgtDma := g.AddOp(&opgraph.DmaOp{OpBase: newOpBase(1), TransferFormat: opgraph.BufferFormatWEIGHT})
	g.AddConsumer(wgtDram, wgtDma, 0)
	g.SetProducer(wgtSram, wgtDma)

	mce := g.AddOp(&opgraph.MceOp{OpBase: newOpBase(1), Operation: graph.MceOperationConvolution,
		InputStripeShape: stripe, OutputStripeShape: stripe, WeightsStripeShape: tensor.Shape{1, 1, 16, 16}})
	g.AddConsumer(ifm, mce, 0)
	g.AddConsumer(wgtSram, mce, 1)
	pleIn := g.AddBuffer(&opgraph.Buffer{Location: opgraph.LocationPleInputSram, TensorShape: shape,
		StripeShape: stripe, NumStripes: 1})
	g.SetProducer(pleIn, mce)

	ple := g.AddOp(&opgraph.PleOp{OpBase: newOpBase(2), Operation: graph.PleOperationPassthrough, NumInputs: 1})
	g.AddConsumer(pleIn, ple, 0)
	ofm := g.AddBuffer(&opgraph.Buffer{Location: opgraph.LocationSram, Format: opgraph.BufferFormatNHWCB,
		TensorShape: shape, StripeShape: stripe, NumStripes: 2, SizeInBytes: 4096})
	g.SetProducer(ofm, ple)

	out := g.AddBuffer(&opgraph.Buffer{Location: opgraph.LocationDram, Format: opgraph.BufferFormatNHWCB,
		TensorShape: shape, StripeShape: shape, NumStripes: 1, SizeInBytes: 4096})
	store := g.AddOp(&opgraph.DmaOp{OpBase: newOpBase(2), TransferFormat: opgraph.BufferFormatNHWCB})
	g.AddConsumer(ofm, store, 0)
	g.SetProducer(out, store)
	return g
}

func TestEstimateOpGraph(t *testing.T) {
	caps := hwcaps.Default()
	opts := options.DefaultEstimationOptions()

	data := EstimateOpGraph(caps, opts, mceOpGraph(false))
	require.Len(t, data.Stream, 1)
	pass := data.Stream[0]
	assert.Equal(t, []int{1, 2}, sets.Sorted(pass.OperationIDs))
	assert.Equal(t, MemoryStats{DramParallel: 2048, DramNonParallel: 2048}, pass.Stats.Input.Memory)
	assert.Equal(t, MemoryStats{DramParallel: 2048, DramNonParallel: 2048}, pass.Stats.Output.Memory)
	assert.Equal(t, MemoryStats{DramNonParallel: 320}, pass.Stats.Weights.Memory)
	assert.Equal(t, "Passthrough", pass.Stats.Ple.Operation)
	assert.NotZero(t, pass.Stats.Mce.Operations)
	assert.Equal(t, uint64(2048+2048+2048+2048+320), GetPerformanceTotalDataMetric(data))
	assert.Equal(t, uint64(2048+2048+320), GetPerformanceNonParallelDataMetric(data))
	assert.Empty(t, data.OperationIDFailureReasons)

	// An input already in SRAM costs no DRAM transfer.
	cascaded := EstimateOpGraph(caps, opts, mceOpGraph(true))
	require.Len(t, cascaded.Stream, 1)
	assert.Equal(t, MemoryStats{Sram: 4096}, cascaded.Stream[0].Stats.Input.Memory)
	assert.Equal(t, PerformanceComparisonResultLeftBetter, ComparePerformanceData(cascaded, data))
}

func TestEstimateConversionAndDummy(t *testing.T) {
	g := opgraph.New()
	in := g.AddBuffer(&opgraph.Buffer{Location: opgraph.LocationDram, Format: opgraph.BufferFormatNHWC,
		TensorShape: tensor.Shape{1, 10, 10, 16}, StripeShape: tensor.Shape{1, 10, 10, 16}, NumStripes: 1})
	sram := g.AddBuffer(&opgraph.Buffer{Location: opgraph.LocationSram, Format: opgraph.BufferFormatNHWCB,
		TensorShape: tensor.Shape{1, 10, 10, 16}, StripeShape: tensor.Shape{1, 8, 8, 16}, NumStripes: 2})
	out := g.AddBuffer(&opgraph.Buffer{Location: opgraph.LocationDram, Format: opgraph.BufferFormatNHWCB,
		TensorShape: tensor.Shape{1, 10, 10, 16}, StripeShape: tensor.Shape{1, 8, 8, 16}, NumStripes: 1})
	load := g.AddOp(&opgraph.DmaOp{TransferFormat: opgraph.BufferFormatNHWC})
	g.AddConsumer(in, load, 0)
	g.SetProducer(sram, load)
	store := g.AddOp(&opgraph.DmaOp{TransferFormat: opgraph.BufferFormatNHWCB})
	g.AddConsumer(sram, store, 0)
	g.SetProducer(out, store)

	estimated := g.AddBuffer(&opgraph.Buffer{Location: opgraph.LocationDram, Format: opgraph.BufferFormatNHWCB,
		TensorShape: tensor.Shape{1, 10, 10, 16}, StripeShape: tensor.Shape{1, 10, 10, 16}, NumStripes: 1})
	dummy := g.AddOp(&opgraph.DummyOp{OpBase: opgraph.OpBase{OperationIDs: sets.MakeWith(7), DebugTag: "unsupported"}})
	g.AddConsumer(out, dummy, 0)
	g.SetProducer(estimated, dummy)

	data := EstimateOpGraph(hwcaps.Default(), options.DefaultEstimationOptions(), g)
	require.Len(t, data.Stream, 2)
	// The dummy op comes first: conversions are collected after the compute ops.
	assert.True(t, data.Stream[0].OperationIDs.Has(7))
	assert.Equal(t, uint32(4096), data.Stream[0].Stats.Input.Memory.DramNonParallel)
	assert.Equal(t, "unsupported", data.OperationIDFailureReasons[7])
	assert.Equal(t, uint32(1600), data.Stream[1].Stats.Input.Memory.DramNonParallel)
	assert.Equal(t, uint32(4096), data.Stream[1].Stats.Output.Memory.DramNonParallel)
	assert.Contains(t, data.String(), "2 passes")
}
