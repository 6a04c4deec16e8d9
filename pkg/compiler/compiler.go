// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package compiler runs the whole compilation of a graph.Graph:
//
//  1. The graph is split into parts (parts.BuildGraphOfParts).
//  2. The combiner chooses one plan per part, and the glue between them (combiner.Combiner).
//  3. The plans and glues are merged into a single OpGraph, whose performance is estimated.
//  4. The cascading compiler lowers the OpGraph into a command stream (cascading.CascadingCompiler).
//
// When DebugInfo.DumpDebugFiles is set, the intermediate results are saved into the debug directory.
package compiler

import (
	"context"
	"time"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/cascading"
	"github.com/gomlx/npucascade/pkg/combiner"
	"github.com/gomlx/npucascade/pkg/estimation"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/options"
	"github.com/gomlx/npucascade/pkg/parts"
	"github.com/gomlx/npucascade/pkg/stripes"
	"github.com/gomlx/npucascade/pkg/support/sets"
)

// Compiler holds the configuration of compilations. The same Compiler can be used for any number
// of graphs, but not concurrently.
type Compiler struct {
	Capabilities hwcaps.HardwareCapabilities
	Options      options.CompilationOptions
	Estimation   options.EstimationOptions

	// OnPartDone, if set, is called by the combiner every time the best combination starting at a part
	// is found.
	OnPartDone func(part parts.Part, numDone, numParts int)
}

// New returns a Compiler for the given hardware, with default options.
func New(caps hwcaps.HardwareCapabilities) *Compiler {
	return &Compiler{
		Capabilities: caps,
		Options:      options.DefaultCompilationOptions(),
		Estimation:   options.DefaultEstimationOptions(),
	}
}

// Result of a compilation. Fields are filled as the compilation progresses: a Result returned by
// Estimate has no Network.
type Result struct {
	Graph       *graph.Graph
	Parts       *parts.GraphOfParts
	Combination combiner.Combination

	// OpGraph is the merged OpGraph of the combination.
	OpGraph     *opgraph.OpGraph
	Performance *estimation.NetworkPerformanceData

	Network *cascading.CompiledNetwork

	// DebugDir where the debug files were saved, if any.
	DebugDir string
}

// Compile the graph into a command stream.
//
// It returns a *cascading.NotSupportedError if the chosen combination can't be lowered.
func (c *Compiler) Compile(ctx context.Context, g *graph.Graph) (*Result, error) {
	return c.run(ctx, g, true)
}

// Estimate runs the compilation up to the estimation of the performance of the best combination.
func (c *Compiler) Estimate(ctx context.Context, g *graph.Graph) (*Result, error) {
	return c.run(ctx, g, false)
}

func (c *Compiler) run(ctx context.Context, g *graph.Graph, lower bool) (result *Result, err error) {
	start := time.Now()
	debug, err := NewDebuggingContext(c.Options.DebugInfo)
	if err != nil {
		return nil, err
	}
	result = &Result{Graph: g, DebugDir: debug.Dir()}
	panicErr := exceptions.TryCatch[error](func() {
		err = c.runPipeline(ctx, debug, result, lower)
	})
	if panicErr != nil {
		return nil, errors.WithMessagef(panicErr, "compiling graph %q", g.Name())
	}
	if err != nil {
		return nil, err
	}
	if klog.V(1).Enabled() {
		klog.Infof("graph %q compiled in %s", g.Name(), time.Since(start))
	}
	return result, nil
}

func (c *Compiler) runPipeline(ctx context.Context, debug *DebuggingContext, result *Result, lower bool) error {
	g := result.Graph
	if err := debug.SaveGraph(g); err != nil {
		return err
	}

	config := parts.NewConfig(c.Capabilities, c.Options, c.Estimation)
	stripeConfig, err := stripes.LoadDebugStripeConfig(stripes.DebugStripeConfigPath(&c.Options))
	if err != nil {
		return err
	}
	config.DebugStripeConfig = stripeConfig

	result.Parts, err = parts.BuildGraphOfParts(g, config)
	if err != nil {
		return errors.WithMessagef(err, "splitting graph %q into parts", g.Name())
	}
	if klog.V(1).Enabled() {
		klog.Infof("graph %q: %d nodes split into %d parts", g.Name(), g.NumNodes(), result.Parts.NumParts())
	}
	if err = debug.SaveGraphOfParts(result.Parts); err != nil {
		return err
	}

	comb := combiner.New(result.Parts, config)
	comb.OnPartDone = c.OnPartDone
	result.Combination, err = comb.Run(ctx)
	if err != nil {
		return err
	}
	if err = debug.SaveCombination(result.Combination, result.Parts); err != nil {
		return err
	}

	result.OpGraph = combiner.GetOpGraphForCombination(result.Combination, result.Parts)
	result.Performance = estimation.EstimateOpGraph(c.Capabilities, c.Estimation, result.OpGraph)
	if klog.V(1).Enabled() {
		klog.Infof("graph %q: %d ops and %d buffers, estimated metric %d", g.Name(), result.OpGraph.NumOps(),
			result.OpGraph.NumBuffers(), estimation.GetPerformanceTotalDataMetric(result.Performance))
	}
	if err = debug.SavePerformance(result.Performance); err != nil {
		return err
	}
	if !lower {
		return nil
	}

	operationIDs := sets.Make[int]()
	for _, part := range result.Parts.Parts() {
		operationIDs.InsertSet(part.OperationIDs())
	}
	result.Network, err = cascading.New(result.OpGraph, operationIDs, c.Capabilities, &c.Options).Compile()
	if err != nil {
		return err
	}
	// Offsets are only known once lowered.
	if err = debug.SaveOpGraph("merged_opgraph.dot", result.OpGraph); err != nil {
		return err
	}
	return debug.SaveCompiledNetwork(result.Network)
}
