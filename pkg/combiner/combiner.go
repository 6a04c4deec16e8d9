// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package combiner

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/estimation"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/parts"
)

// DefaultMaxCascadeLength is the maximum number of parts in one cascade.
const DefaultMaxCascadeLength = 8

// Combiner searches the best Combination for a GraphOfParts. Create it with New.
//
// A Combiner is meant to be used for a single search, from a single goroutine, except for
// PrecomputePlans, which generates plans concurrently.
type Combiner struct {
	graph  *parts.GraphOfParts
	config *parts.Config

	// MaxCascadeLength limits the number of parts in a cascade. Longer cascades are not tried.
	MaxCascadeLength int

	// OnPartDone, if set, is called each time the best combination for a part has been found.
	OnPartDone func(part parts.Part, numDone, numParts int)

	plans    *planCache
	best     map[parts.PartID]Combination
	numDone  int
	findBest func(part parts.Part) Combination

	bestCombination Combination
}

// New returns a Combiner for the graph. The config must be the one the parts were created with.
func New(graph *parts.GraphOfParts, config *parts.Config) *Combiner {
	c := &Combiner{
		graph:            graph,
		config:           config,
		MaxCascadeLength: DefaultMaxCascadeLength,
		plans:            newPlanCache(),
		best:             make(map[parts.PartID]Combination),
	}
	c.findBest = c.findBestCombinationForPartImpl
	return c
}

// Graph returns the GraphOfParts being combined.
func (c *Combiner) Graph() *parts.GraphOfParts { return c.graph }

func (c *Combiner) caps() hwcaps.HardwareCapabilities { return c.config.Capabilities }

// Run searches the best combination for the whole graph.
//
// It returns an error if some part has no plan that can be combined with the others.
func (c *Combiner) Run(ctx context.Context) (Combination, error) {
	if c.config.Compilation.MaxParallelism > 0 {
		if err := c.PrecomputePlans(ctx); err != nil {
			return Combination{}, err
		}
	}
	var result Combination
	for _, part := range c.graph.Parts() {
		if err := ctx.Err(); err != nil {
			return Combination{}, errors.Wrap(err, "combiner interrupted")
		}
		if !c.IsPartInput(part) {
			continue
		}
		comb := c.FindBestCombinationForPart(part)
		if comb.IsEmpty() {
			return Combination{}, errors.Errorf("no valid combination of plans for %s", part.DebugTag())
		}
		result = result.Add(comb)
	}
	for _, part := range c.graph.Parts() {
		if result.Plan(part.ID()) == nil {
			return Combination{}, errors.Errorf("no valid combination of plans for %s", part.DebugTag())
		}
	}
	c.bestCombination = result
	if klog.V(1).Enabled() {
		data := c.Estimate(result)
		klog.Infof("best combination of %d parts: %d passes, %s of DRAM traffic (%d plan cache hits)",
			result.Len(), len(data.Stream), humanize.Bytes(estimation.GetPerformanceTotalDataMetric(data)),
			c.plans.hits)
	}
	return result, nil
}

// BestCombination found by the last call to Run.
func (c *Combiner) BestCombination() Combination { return c.bestCombination }

// Estimate returns the performance estimation of the combination.
func (c *Combiner) Estimate(comb Combination) *estimation.NetworkPerformanceData {
	return estimation.EstimateOpGraph(c.caps(), c.config.Estimation, GetOpGraphForCombination(comb, c.graph))
}

// FindBestCombinationForPart returns the best combination covering the part and all the parts it feeds,
// directly or indirectly. The result is memoized per part.
//
// It returns an empty combination if no valid one exists.
func (c *Combiner) FindBestCombinationForPart(part parts.Part) Combination {
	if comb, found := c.best[part.ID()]; found {
		return comb
	}
	comb := c.findBest(part)
	c.best[part.ID()] = comb
	c.numDone++
	if c.OnPartDone != nil {
		c.OnPartDone(part, c.numDone, c.graph.NumParts())
	}
	return comb
}

// bestOf keeps the best of the combinations it is given.
type bestOf struct {
	c    *Combiner
	comb Combination
	data *estimation.NetworkPerformanceData
}

func (b *bestOf) consider(comb Combination) {
	data := b.c.Estimate(comb)
	if b.data == nil || estimation.ComparePerformanceData(data, b.data) == estimation.PerformanceComparisonResultLeftBetter {
		b.comb, b.data = comb, data
	}
}

func (c *Combiner) findBestCombinationForPartImpl(part parts.Part) Combination {
	best := &bestOf{c: c}

	// On its own.
	for _, plan := range c.GetPlansCached(part, opgraph.CascadeTypeLonely, hwcaps.BlockConfig{}, nil, 0) {
		if !IsPlanInputGlueable(plan) || !isPlanOutputGlueable(plan) || !c.fitsInSram(plan.SramSize(), plan) {
			continue
		}
		if comb, ok := c.continueWithDestinations(part, NewCombination(part, plan)); ok {
			best.consider(comb)
		}
	}

	// Starting a cascade with the part it feeds.
	if c.IsPartSo(part) && c.MaxCascadeLength > 1 {
		for _, plan := range c.GetPlansCached(part, opgraph.CascadeTypeBeginning, hwcaps.BlockConfig{}, nil, 0) {
			if !IsPlanInputGlueable(plan) || !c.fitsInSram(plan.SramSize(), plan) {
				continue
			}
			c.continueSection(part, plan, NewCombination(part, plan), plan.SramSize(), 1, best)
		}
	}

	if best.data == nil {
		klog.Warningf("%s: no valid combination found", part.DebugTag())
		return Combination{}
	}
	if klog.V(2).Enabled() {
		klog.Infof("%s: best combination has %d passes and %s of DRAM traffic", part.DebugTag(),
			len(best.data.Stream), humanize.Bytes(estimation.GetPerformanceTotalDataMetric(best.data)))
	}
	return best.comb
}

// pleKernelsSize is the SRAM needed for the kernels of the PLE ops of the plan that load one.
func (c *Combiner) pleKernelsSize(plan *parts.Plan) uint32 {
	var size uint32
	for _, id := range plan.OpGraph.OpIDs() {
		if ple, ok := plan.OpGraph.Op(id).(*opgraph.PleOp); ok && ple.LoadKernel {
			size += c.caps().MaxPleSize * c.caps().NumberOfSrams()
		}
	}
	return size
}

// fitsInSram returns whether sectionSize bytes of buffers, plus the PLE kernels of the plan, fit in SRAM.
func (c *Combiner) fitsInSram(sectionSize uint32, plan *parts.Plan) bool {
	return uint64(sectionSize)+uint64(c.pleKernelsSize(plan)) <= uint64(c.caps().TotalSramSize)
}

// continueSection tries to extend the cascade ending with prevPlan of prevPart to the single part fed by
// prevPart, either ending the cascade there or continuing it further.
//
// section has the plans of the cascade so far, and sramSize the SRAM they use, including the PLE kernels
// of all but the last plan.
func (c *Combiner) continueSection(prevPart parts.Part, prevPlan *parts.Plan, section Combination, sramSize uint32,
	length int, best *bestOf) {
	conns := c.DestinationConnections(prevPart.ID())
	if len(conns) != 1 {
		return
	}
	conn := conns[0]
	next := c.graph.Part(conn.In.PartID)
	if c.numInputEdges(next) != 1 {
		return
	}
	prevBufferID := prevPlan.OutputBuffer(conn.Out)
	if prevBufferID == opgraph.InvalidBufferID {
		return
	}
	prevBuffer := prevPlan.OpGraph.Buffer(prevBufferID)
	if prevBuffer.Location == opgraph.LocationDram {
		return
	}
	sramSize += c.pleKernelsSize(prevPlan)
	blockConfig := prevPlan.BlockConfig()

	cascadeTypes := []opgraph.CascadeType{opgraph.CascadeTypeEnd}
	if c.IsPartSiso(next) && length+1 < c.MaxCascadeLength {
		cascadeTypes = append(cascadeTypes, opgraph.CascadeTypeMiddle)
	}
	for _, cascadeType := range cascadeTypes {
		for _, plan := range c.GetPlansCached(next, cascadeType, blockConfig, prevBuffer, 0) {
			if !c.ArePlansAllowedToMerge(prevPlan, plan, conn.In) {
				continue
			}
			// The input buffer of the plan is the output buffer of the previous one.
			inBuffer := plan.OpGraph.Buffer(plan.InputBuffer(conn.In))
			total := sramSize + plan.SramSize()
			if inBuffer.Location == opgraph.LocationSram {
				total -= min(inBuffer.SizeInBytes, total)
			}
			if !c.fitsInSram(total, plan) {
				if klog.V(3).Enabled() {
					klog.Infof("%s: %s plan doesn't fit in SRAM after %d parts", next.DebugTag(), cascadeType, length)
				}
				continue
			}
			comb := section.Add(NewCombination(next, plan))
			if cascadeType == opgraph.CascadeTypeEnd {
				if !isPlanOutputGlueable(plan) {
					continue
				}
				if comb, ok := c.continueWithDestinations(next, comb); ok {
					best.consider(comb)
				}
				continue
			}
			c.continueSection(next, plan, comb, total, length+1, best)
		}
	}
}

// continueWithDestinations adds to comb, which has a plan for part, the best combinations of the parts fed
// by part, glued to it. It returns false if one of them has no valid combination.
func (c *Combiner) continueWithDestinations(part parts.Part, comb Combination) (Combination, bool) {
	dests := c.graph.DestinationParts(part.ID())
	for _, dest := range dests {
		destComb := c.FindBestCombinationForPart(c.graph.Part(dest))
		if destComb.IsEmpty() {
			return Combination{}, false
		}
		comb = comb.Add(destComb)
	}
	conns := c.DestinationConnections(part.ID())
	for _, dest := range dests {
		var sources []Connection
		for _, conn := range conns {
			if conn.In.PartID == dest {
				sources = append(sources, conn)
			}
		}
		comb = c.GluePartToCombination(c.graph.Part(dest), comb, sources)
	}
	return comb, true
}
