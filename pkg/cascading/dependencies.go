// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cascading

import (
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/commandstream"
)

// Dependencies between agents are counted in stripes: a ratio other:self means that for every self stripes
// of the agent holding the dependency, other stripes of the other agent are needed. The outer ratio covers
// the whole tensors, the inner ratio the stripes along width and height only.

func gcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ratio returns other:self reduced to its lowest terms.
func ratio(other, self uint32) commandstream.Ratio {
	if other == 0 || self == 0 {
		exceptions.Panicf("invalid stripe ratio %d:%d", other, self)
	}
	d := gcd(other, self)
	return commandstream.Ratio{Other: toUint8(other/d, "stripe ratio"), Self: toUint8(self/d, "stripe ratio")}
}

func swapRatio(r commandstream.Ratio) commandstream.Ratio {
	return commandstream.Ratio{Other: r.Self, Self: r.Other}
}

// relativeID returns the distance between the two agents, which must be in order and close enough.
func relativeID(before, after AgentID) uint8 {
	if before >= after {
		exceptions.Panicf("agent %d must come before agent %d", before, after)
	}
	distance := after - before
	if distance > commandstream.MaxRelativeAgentPosition {
		exceptions.Panicf("agents %d and %d are %d agents apart, at most %d is supported", before, after, distance,
			commandstream.MaxRelativeAgentPosition)
	}
	return uint8(distance)
}

// featureMapStripes returns the number of stripes in each dimension of the agents streaming feature maps
// through SRAM tiles.
func featureMapStripes(a *commandstream.Agent) (commandstream.TensorSize, bool) {
	switch data := a.Data.(type) {
	case *commandstream.IfmS:
		return data.NumStripes, true
	case *commandstream.OfmS:
		return data.NumStripes, true
	case *commandstream.PleS:
		return data.NumStripes, true
	}
	return commandstream.TensorSize{}, false
}

func spatialStripes(n commandstream.TensorSize) uint32 { return uint32(n.Height) * uint32(n.Width) }

// stripeRatios returns the outer and inner ratios, seen from the consumer, and the boundary flag of the
// consumer reading what the producer wrote into SRAM.
func stripeRatios(consumer, producer *commandstream.Agent) (outer, inner commandstream.Ratio, boundary int8) {
	switch data := consumer.Data.(type) {
	case *commandstream.MceS:
		switch producerData := producer.Data.(type) {
		case *commandstream.WgtS:
			// A weight stripe is used for all the spatial stripes of the output, unless the weights are
			// split in depth or reloaded for each spatial stripe.
			self := uint32(data.NumStripes.OfmHeight) * uint32(data.NumStripes.OfmWidth)
			if producerData.NumStripes.IfmChannels > 1 || producer.Info.NumStripesTotal > weightStripesPerLoad(producerData) {
				self = 1
			}
			r := ratio(1, self)
			return r, r, 0
		}
		ifm, ok := featureMapStripes(producer)
		if !ok {
			break
		}
		if data.NumStripes.IfmChannels > 1 && uint32(ifm.Channels) != uint32(data.NumStripes.IfmChannels) {
			exceptions.Panicf("MCE reads %d input channel stripes from an agent writing %d", data.NumStripes.IfmChannels,
				ifm.Channels)
		}
		mceSpatial := uint32(data.NumStripes.OfmHeight) * uint32(data.NumStripes.OfmWidth)
		outer = ratio(spatialStripes(ifm)*uint32(ifm.Channels), mceSpatial*uint32(data.NumStripes.IfmChannels))
		inner = ratio(spatialStripes(ifm), mceSpatial)
		if (ifm.Height > 1 && data.FilterShape.Height > 1) || (ifm.Width > 1 && data.FilterShape.Width > 1) {
			boundary = 1
		}
		return outer, inner, boundary

	case *commandstream.PleS:
		switch producerData := producer.Data.(type) {
		case *commandstream.MceS:
			outer = ratio(uint32(producer.Info.NumStripesTotal), uint32(consumer.Info.NumStripesTotal))
			inner = ratio(uint32(producerData.NumStripes.IfmChannels), 1)
			return outer, inner, 0
		case *commandstream.PleL:
			r := ratio(1, uint32(consumer.Info.NumStripesTotal))
			return r, r, 0
		}
		if _, ok := featureMapStripes(producer); ok {
			r := ratio(uint32(producer.Info.NumStripesTotal), uint32(consumer.Info.NumStripesTotal))
			return r, r, 0
		}

	case *commandstream.OfmS:
		if _, ok := featureMapStripes(producer); ok {
			r := ratio(uint32(producer.Info.NumStripesTotal), uint32(consumer.Info.NumStripesTotal))
			return r, r, 0
		}

	case *commandstream.IfmS:
		if _, ok := producer.Data.(*commandstream.OfmS); ok {
			// Through DRAM: the whole tensor must be written before it's read.
			r := wholeTensorRatio(consumer, producer)
			return r, r, 0
		}
	}
	exceptions.Panicf("no dependency of a %s on a %s", consumer.Type(), producer.Type())
	return
}

// weightStripesPerLoad is the number of stripes streamed to load all the weights once.
func weightStripesPerLoad(data *commandstream.WgtS) uint16 {
	return data.NumStripes.OfmChannels * data.NumStripes.IfmChannels
}

// wholeTensorRatio is the ratio of a dependency where the consumer waits for all the stripes of the
// producer before starting.
func wholeTensorRatio(consumer, producer *commandstream.Agent) commandstream.Ratio {
	return ratio(uint32(max(producer.Info.NumStripesTotal, 1)), uint32(max(consumer.Info.NumStripesTotal, 1)))
}

// FillConsumerAgentDependency fills the dependency of the consumer agent on the producer agent that comes
// before it: the read after write dependency of the consumer.
func FillConsumerAgentDependency(dep *commandstream.Dependency, consumer, producer *commandstream.Agent, relative uint8) {
	outer, inner, boundary := stripeRatios(consumer, producer)
	*dep = commandstream.Dependency{RelativeAgentID: relative, OuterRatio: outer, InnerRatio: inner, Boundary: boundary}
}

// FillProducerAgentDependency fills the dependency of the producer agent on the consumer agent that comes
// after it: the write after read and the schedule dependencies of the producer.
//
// The ratios mirror those of the consumer's read dependency.
func FillProducerAgentDependency(dep *commandstream.Dependency, producer, consumer *commandstream.Agent, relative uint8) {
	if _, ok := producer.Data.(*commandstream.PleL); ok {
		// The kernel is loaded once, before any stripe of the consumer.
		*dep = commandstream.Dependency{
			RelativeAgentID: relative,
			OuterRatio:      commandstream.Ratio{Other: 1, Self: 1},
			InnerRatio:      commandstream.Ratio{Other: 1, Self: 1},
		}
		return
	}
	outer, inner, boundary := stripeRatios(consumer, producer)
	*dep = commandstream.Dependency{
		RelativeAgentID: relative,
		OuterRatio:      swapRatio(outer),
		InnerRatio:      swapRatio(inner),
		Boundary:        boundary,
	}
}

// freeReadDependency returns the first unused read dependency, or nil.
func freeReadDependency(info *commandstream.AgentDependencyInfo) *commandstream.Dependency {
	for ii := range info.ReadDependencies {
		if !info.ReadDependencies[ii].IsUsed() {
			return &info.ReadDependencies[ii]
		}
	}
	return nil
}

func hasReadDependency(info *commandstream.AgentDependencyInfo, relative uint8) bool {
	for _, dep := range info.ReadDependencies {
		if dep.RelativeAgentID == relative {
			return true
		}
	}
	return false
}

// AddReadAfterWriteDependency makes the consumer wait for the stripes it reads to be written by the
// producer.
func (c *CascadingCompiler) AddReadAfterWriteDependency(consumer, producer AgentID) {
	relative := relativeID(producer, consumer)
	info := &c.agents[consumer].Info
	if hasReadDependency(info, relative) {
		return
	}
	dep := freeReadDependency(info)
	if dep == nil {
		notSupportedf("agent %d (%s) reads from more than %d agents", consumer, c.agents[consumer].Type(),
			len(info.ReadDependencies))
	}
	FillConsumerAgentDependency(dep, &c.agents[consumer], &c.agents[producer], relative)
}

// AddWriteAfterReadDependency makes the producer wait for the consumer to be done with a tile slot before
// overwriting it. With more than one consumer, the last one added wins.
func (c *CascadingCompiler) AddWriteAfterReadDependency(consumer, producer AgentID) {
	relative := relativeID(producer, consumer)
	FillProducerAgentDependency(&c.agents[producer].Info.WriteDependencies[0], &c.agents[producer],
		&c.agents[consumer], relative)
}

// AddScheduleTimeDependency keeps the producer from running too far ahead of the consumer. With more than
// one consumer, the first one added wins.
func (c *CascadingCompiler) AddScheduleTimeDependency(consumer, producer AgentID) {
	dep := &c.agents[producer].Info.ScheduleDependencies[0]
	if dep.IsUsed() {
		return
	}
	FillProducerAgentDependency(dep, &c.agents[producer], &c.agents[consumer], relativeID(producer, consumer))
}

// addSramOverlapDependency makes the first agent of a section wait for the last agent of an earlier
// section using the same SRAM. It returns false if the agent has no read dependency left.
func (c *CascadingCompiler) addSramOverlapDependency(first, last AgentID) bool {
	distance := first - last
	if distance > commandstream.MaxRelativeAgentPosition {
		notSupportedf("agent %d reuses the SRAM of agent %d, %d agents before", first, last, distance)
	}
	relative := uint8(distance)
	info := &c.agents[first].Info
	if hasReadDependency(info, relative) {
		return true
	}
	dep := freeReadDependency(info)
	if dep == nil {
		if klog.V(2).Enabled() {
			klog.Infof("agent %d has no read dependency left to wait for agent %d", first, last)
		}
		return false
	}
	r := wholeTensorRatio(&c.agents[first], &c.agents[last])
	*dep = commandstream.Dependency{RelativeAgentID: relative, OuterRatio: r, InnerRatio: r}
	return true
}
