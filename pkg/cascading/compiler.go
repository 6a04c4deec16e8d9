// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package cascading lowers the merged OpGraph of the chosen combination into a cascade of hardware agents,
// synchronized with each other by dependencies, and lays out the DRAM buffers they use.
//
// Ops are lowered in the order they were added to the OpGraph, which is topological:
//
//   - DmaOp becomes an IFM streamer (DRAM to SRAM), a weight streamer (DRAM to SRAM, WEIGHT format) or an
//     OFM streamer (SRAM to DRAM).
//   - MceOp becomes an MCE scheduler, preceded by a PLE loader if the PLE kernel it feeds must be loaded.
//   - PleOp becomes a PLE scheduler, preceded by a PLE loader for standalone kernels.
//   - ConcatOp has no agent: its inputs are expected to be written in place.
//
// Anything else can't be lowered and makes Compile fail with a NotSupportedError.
package cascading

import (
	"encoding/binary"
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/combiner"
	"github.com/gomlx/npucascade/pkg/commandstream"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/options"
	"github.com/gomlx/npucascade/pkg/support/sets"
)

// NotSupportedError is raised, with panic, when something in the OpGraph has no lowering. It is caught
// by CascadingCompiler.Compile.
type NotSupportedError struct {
	Msg string
}

// Error implements error.
func (e *NotSupportedError) Error() string { return "not supported: " + e.Msg }

func notSupportedf(format string, args ...any) {
	panic(&NotSupportedError{Msg: fmt.Sprintf(format, args...)})
}

// AgentID is the position of an agent in the cascade.
type AgentID int

// noAgent is used for ops that have no agent.
const noAgent AgentID = -1

// CascadingCompiler lowers one OpGraph. It is used only once: create it with New and call Compile.
type CascadingCompiler struct {
	graph        *opgraph.OpGraph
	operationIDs sets.Set[int]
	caps         hwcaps.HardwareCapabilities
	opts         *options.CompilationOptions

	agents []commandstream.Agent

	// opToAgentID maps each op to its main agent: the MCE scheduler for MceOp, the PLE scheduler for PleOp.
	opToAgentID map[opgraph.OpID]AgentID

	// pleLoaders maps the PleOps whose kernel is loaded to the PLE loader agent.
	pleLoaders map[opgraph.OpID]AgentID

	// opTime is the agent id at which each op runs, used for the lifetime of DRAM buffers. Ops without
	// agents take the time of the last agent before them.
	opTime map[opgraph.OpID]AgentID

	buffers *BufferManager

	// dramBufferIDs maps the DRAM buffers of the graph to their id in the BufferManager.
	dramBufferIDs map[opgraph.BufferID]uint32

	// weightsMetadataIDs maps the DRAM weight buffers to the id of the buffer with their stripes metadata.
	weightsMetadataIDs map[opgraph.BufferID]uint32

	sections []*combiner.SramSection

	// sectionAgents is the range [first, last] of agents of each section, or {noAgent, noAgent}.
	sectionAgents [][2]AgentID
	opSection     map[opgraph.OpID]int

	compiled bool
}

// New creates a CascadingCompiler for the merged OpGraph of a combination, implementing the front-end
// operations operationIDs.
func New(graph *opgraph.OpGraph, operationIDs sets.Set[int], caps hwcaps.HardwareCapabilities,
	opts *options.CompilationOptions) *CascadingCompiler {
	if opts == nil {
		defaultOpts := options.DefaultCompilationOptions()
		opts = &defaultOpts
	}
	return &CascadingCompiler{
		graph:              graph,
		operationIDs:       operationIDs,
		caps:               caps,
		opts:               opts,
		opToAgentID:        make(map[opgraph.OpID]AgentID),
		pleLoaders:         make(map[opgraph.OpID]AgentID),
		opTime:             make(map[opgraph.OpID]AgentID),
		buffers:            NewBufferManager(),
		dramBufferIDs:      make(map[opgraph.BufferID]uint32),
		weightsMetadataIDs: make(map[opgraph.BufferID]uint32),
		opSection:          make(map[opgraph.OpID]int),
	}
}

// Agents returns the agents created so far.
func (c *CascadingCompiler) Agents() []commandstream.Agent { return c.agents }

// BufferManager returns the buffers of the compiled network.
func (c *CascadingCompiler) BufferManager() *BufferManager { return c.buffers }

// AgentOf returns the main agent of the op, or false if it has none.
func (c *CascadingCompiler) AgentOf(op opgraph.OpID) (AgentID, bool) {
	id, found := c.opToAgentID[op]
	return id, found
}

// Compile allocates the SRAM, lowers every op and returns the compiled network.
//
// If some op can't be lowered, it logs and returns a *NotSupportedError, and no compiled network.
// Other errors are returned only for failures to allocate SRAM or to encode the command stream.
// Violations of internal invariants panic.
func (c *CascadingCompiler) Compile() (*CompiledNetwork, error) {
	if c.compiled {
		return nil, errors.New("CascadingCompiler.Compile can only be called once")
	}
	c.compiled = true

	sections, err := combiner.AllocateSram(c.caps, c.graph)
	if err != nil {
		return nil, errors.WithMessage(err, "allocating SRAM")
	}
	c.sections = sections

	notSupported := exceptions.TryCatch[*NotSupportedError](func() {
		c.addDramBuffers()
		c.lowerOps()
		c.addSramOverlapDependencies()
		c.AddLifetimeInfoForIntermediateDramBuffers()
	})
	if notSupported != nil {
		klog.Errorf("cascading compiler failed: %v", notSupported)
		return nil, notSupported
	}

	cs := commandstream.New()
	cs.Add(&commandstream.Cascade{Agents: c.agents})
	c.addDebugDumps(cs)
	if err := c.buffers.AddCommandStream(cs); err != nil {
		return nil, err
	}
	c.buffers.Allocate()
	if klog.V(1).Enabled() {
		klog.Infof("lowered %d ops into %d agents in %d SRAM sections", c.graph.NumOps(), len(c.agents),
			len(c.sections))
	}
	return &CompiledNetwork{
		ID:                      uuid.New(),
		OperationIDs:            sets.Sorted(c.operationIDs),
		CommandStream:           cs,
		Buffers:                 c.buffers,
		ConstantDmaData:         c.buffers.ConstantDmaData(),
		ConstantControlUnitData: c.buffers.ConstantControlUnitData(),
		IntermediateDataSize:    c.buffers.IntermediateSize(),
	}, nil
}

// addDebugDumps appends, at the highest debug level, the commands dumping the outputs and the SRAM
// once the cascade is done.
func (c *CascadingCompiler) addDebugDumps(cs *commandstream.CommandStream) {
	if !c.opts.DebugInfo.DumpDebugFiles || c.opts.DebugInfo.DebugLevel < options.DebugLevelHigh {
		return
	}
	cs.Add(&commandstream.Fence{})
	for _, b := range c.buffers.Buffers() {
		if b.Type == opgraph.BufferTypeOutput {
			cs.Add(&commandstream.DumpDram{DramBufferID: b.ID, Filename: fmt.Sprintf("%s.hex", b.DebugTag)})
		}
	}
	cs.Add(&commandstream.DumpSram{Prefix: "cascade_sram"})
}

// addDramBuffers registers the DRAM buffers of the graph with the BufferManager.
func (c *CascadingCompiler) addDramBuffers() {
	for _, id := range c.graph.BufferIDs() {
		b := c.graph.Buffer(id)
		if b.Location != opgraph.LocationDram {
			continue
		}
		if b.Format == opgraph.BufferFormatWEIGHT {
			if b.EncodedWeights == nil {
				notSupportedf("weights %s were not encoded", b)
			}
			c.dramBufferIDs[id] = c.buffers.AddDramConstant(opgraph.BufferTypeConstantDma, b.EncodedWeights.Data)
			c.weightsMetadataIDs[id] = c.buffers.AddDramConstant(opgraph.BufferTypeConstantControlUnit,
				encodeWeightsMetadata(b.EncodedWeights.Metadata))
			continue
		}
		switch b.Type {
		case opgraph.BufferTypeInput:
			c.dramBufferIDs[id] = c.buffers.AddDramInput(b.SizeInBytes, b.OperationID)
		case opgraph.BufferTypeOutput:
			c.dramBufferIDs[id] = c.buffers.AddDramOutput(b.SizeInBytes, b.OperationID, b.ProducerOutputIndex)
		case opgraph.BufferTypeConstantDma, opgraph.BufferTypeConstantControlUnit:
			c.dramBufferIDs[id] = c.buffers.AddDramConstant(b.Type, b.ConstantData)
		default:
			c.dramBufferIDs[id] = c.buffers.AddDram(b.SizeInBytes, b.DebugTag)
		}
	}
}

// encodeWeightsMetadata lays out the offset and size of each encoded weight stripe, as little-endian
// 32 bits words.
func encodeWeightsMetadata(metadata []opgraph.WeightStripeMetadata) []byte {
	data := make([]byte, 0, 8*len(metadata))
	for _, m := range metadata {
		data = binary.LittleEndian.AppendUint32(data, m.Offset)
		data = binary.LittleEndian.AppendUint32(data, m.Size)
	}
	return data
}

func (c *CascadingCompiler) lowerOps() {
	c.sectionAgents = make([][2]AgentID, len(c.sections))
	for ii, section := range c.sections {
		c.sectionAgents[ii] = [2]AgentID{noAgent, noAgent}
		for _, op := range section.Ops {
			c.opSection[op] = ii
		}
	}
	for _, opID := range c.graph.OpIDs() {
		numAgents := len(c.agents)
		switch op := c.graph.Op(opID).(type) {
		case *opgraph.DmaOp:
			c.processDmaOp(opID, op)
		case *opgraph.MceOp:
			c.processMceOp(opID, op)
		case *opgraph.PleOp:
			c.processPleOp(opID, op)
		case *opgraph.ConcatOp:
			// Lowered by its producers writing into the concatenated buffer.
		default:
			notSupportedf("op %q of kind %s has no lowering", op.Base().DebugTag, op.Kind())
		}

		if len(c.agents) > numAgents {
			c.opTime[opID] = AgentID(len(c.agents) - 1)
			section := &c.sectionAgents[c.opSection[opID]]
			if section[0] == noAgent {
				section[0] = AgentID(numAgents)
			}
			section[1] = AgentID(len(c.agents) - 1)
		} else {
			c.opTime[opID] = AgentID(max(len(c.agents)-1, 0))
		}
		if klog.V(3).Enabled() {
			klog.Infof("op #%d %s: %d agents", opID, opgraph.OpString(c.graph.Op(opID)), len(c.agents)-numAgents)
		}
	}
}

func (c *CascadingCompiler) addAgent(data commandstream.AgentData, numStripesTotal uint32) AgentID {
	id := AgentID(len(c.agents))
	c.agents = append(c.agents, commandstream.Agent{
		Data: data,
		Info: commandstream.AgentDependencyInfo{NumStripesTotal: toUint16(numStripesTotal, "number of stripes")},
	})
	return id
}

// agentOfBufferProducer returns the main agent of the producer of the buffer, or noAgent.
func (c *CascadingCompiler) agentOfBufferProducer(buffer opgraph.BufferID) AgentID {
	producer := c.graph.Producer(buffer)
	if producer == opgraph.InvalidOpID {
		return noAgent
	}
	if id, found := c.opToAgentID[producer]; found {
		return id
	}
	return noAgent
}

// dramWriters returns the agents writing the DRAM buffer, looking through the ops without agents.
func (c *CascadingCompiler) dramWriters(buffer opgraph.BufferID) []AgentID {
	var writers []AgentID
	visited := sets.Make[opgraph.BufferID]()
	var visit func(opgraph.BufferID)
	visit = func(id opgraph.BufferID) {
		if visited.Has(id) {
			return
		}
		visited.Insert(id)
		for _, producer := range c.graph.Producers(id) {
			if agent, found := c.opToAgentID[producer]; found {
				writers = append(writers, agent)
				continue
			}
			for _, input := range c.graph.Inputs(producer) {
				visit(input)
			}
		}
	}
	visit(buffer)
	return writers
}

func (c *CascadingCompiler) processDmaOp(opID opgraph.OpID, op *opgraph.DmaOp) {
	inputs := c.graph.Inputs(opID)
	outID := c.graph.Output(opID)
	if len(inputs) != 1 || outID == opgraph.InvalidBufferID {
		notSupportedf("DMA %q with %d inputs and output %d", op.DebugTag, len(inputs), outID)
	}
	inID := inputs[0]
	in, out := c.graph.Buffer(inID), c.graph.Buffer(outID)

	switch {
	case in.Location == opgraph.LocationDram && out.Location == opgraph.LocationSram &&
		in.Format == opgraph.BufferFormatWEIGHT:
		data := c.wgtSData(in, out, c.dramBufferIDs[inID], c.weightsMetadataIDs[inID])
		c.opToAgentID[opID] = c.addAgent(data, wgtSNumStripesTotal(data, out))

	case in.Location == opgraph.LocationDram && out.Location == opgraph.LocationSram:
		data := &commandstream.IfmS{FmSData: c.fmsData(in, out, c.dramBufferIDs[inID], op)}
		id := c.addAgent(data, fmsNumStripesTotal(data.FmSData)*max(out.NumLoads, 1))
		c.opToAgentID[opID] = id
		for _, writer := range c.dramWriters(inID) {
			if id-writer > commandstream.MaxRelativeAgentPosition {
				notSupportedf("%q reads the output of agent %d, %d agents before", op.DebugTag, writer, id-writer)
			}
			c.AddReadAfterWriteDependency(id, writer)
		}

	case in.Location == opgraph.LocationSram && out.Location == opgraph.LocationDram:
		data := &commandstream.OfmS{FmSData: c.fmsData(out, in, c.dramBufferIDs[outID], op)}
		id := c.addAgent(data, fmsNumStripesTotal(data.FmSData))
		c.opToAgentID[opID] = id
		if producer := c.agentOfBufferProducer(inID); producer != noAgent {
			c.AddReadAfterWriteDependency(id, producer)
			c.AddWriteAfterReadDependency(id, producer)
			c.AddScheduleTimeDependency(id, producer)
		}

	default:
		notSupportedf("DMA %q from %s %s to %s %s", op.DebugTag, in.Location, in.Format, out.Location, out.Format)
	}
}

// pleOpFedBy returns the PleOp reading the output of the MceOp.
func (c *CascadingCompiler) pleOpFedBy(mceID opgraph.OpID, mce *opgraph.MceOp) (opgraph.OpID, *opgraph.PleOp) {
	outID := c.graph.Output(mceID)
	if outID == opgraph.InvalidBufferID {
		notSupportedf("MCE %q has no output", mce.DebugTag)
	}
	for _, consumer := range c.graph.Consumers(outID) {
		if ple, ok := c.graph.Op(consumer.Op).(*opgraph.PleOp); ok {
			return consumer.Op, ple
		}
	}
	notSupportedf("output of MCE %q is not read by a PLE", mce.DebugTag)
	return opgraph.InvalidOpID, nil
}

func (c *CascadingCompiler) addPleLoader(pleID opgraph.OpID, ple *opgraph.PleOp) AgentID {
	data := &commandstream.PleL{
		PleKernelID: c.pleKernelID(ple),
		SramAddr:    c.pleKernelSramAddr(ple),
	}
	id := c.addAgent(data, 1)
	c.pleLoaders[pleID] = id
	return id
}

func (c *CascadingCompiler) processMceOp(opID opgraph.OpID, mce *opgraph.MceOp) {
	inputs := c.graph.Inputs(opID)
	if len(inputs) != 2 {
		notSupportedf("MCE %q with %d inputs", mce.DebugTag, len(inputs))
	}
	pleID, ple := c.pleOpFedBy(opID, mce)
	pleLoader := noAgent
	if ple.LoadKernel {
		pleLoader = c.addPleLoader(pleID, ple)
	}

	data := c.mceSData(opID, mce, ple)
	mceS := c.addAgent(data, mceSNumStripesTotal(data))
	c.opToAgentID[opID] = mceS

	ifm := c.agentOfBufferProducer(inputs[0])
	wgt := c.agentOfBufferProducer(inputs[1])
	for _, producer := range []AgentID{ifm, wgt} {
		if producer == noAgent {
			continue
		}
		c.AddReadAfterWriteDependency(mceS, producer)
		c.AddWriteAfterReadDependency(mceS, producer)
		c.AddScheduleTimeDependency(mceS, producer)
	}
	if pleLoader != noAgent {
		c.AddScheduleTimeDependency(mceS, pleLoader)
	}
}

func (c *CascadingCompiler) processPleOp(opID opgraph.OpID, ple *opgraph.PleOp) {
	inputs := c.graph.Inputs(opID)
	if len(inputs) == 0 || len(inputs) > 2 {
		notSupportedf("PLE %q with %d inputs", ple.DebugTag, len(inputs))
	}
	standalone := c.graph.Buffer(inputs[0]).Location == opgraph.LocationSram
	pleLoader, loaded := c.pleLoaders[opID]
	if standalone && ple.LoadKernel && !loaded {
		pleLoader, loaded = c.addPleLoader(opID, ple), true
	}

	data := c.pleSData(opID, ple, standalone)
	pleS := c.addAgent(data, pleSNumStripesTotal(data))
	c.opToAgentID[opID] = pleS

	for _, input := range inputs {
		producer := c.agentOfBufferProducer(input)
		if producer == noAgent {
			continue
		}
		c.AddReadAfterWriteDependency(pleS, producer)
		if standalone {
			c.AddWriteAfterReadDependency(pleS, producer)
			c.AddScheduleTimeDependency(pleS, producer)
		}
	}
	if loaded {
		if freeReadDependency(&c.agents[pleS].Info) != nil {
			c.AddReadAfterWriteDependency(pleS, pleLoader)
		}
		c.AddScheduleTimeDependency(pleS, pleLoader)
	}
}

// AddLifetimeInfoForIntermediateDramBuffers marks each intermediate DRAM buffer as used from the agent
// writing it up to the last agent reading it.
func (c *CascadingCompiler) AddLifetimeInfoForIntermediateDramBuffers() {
	for _, id := range c.graph.BufferIDs() {
		b := c.graph.Buffer(id)
		if b.Location != opgraph.LocationDram || b.Format == opgraph.BufferFormatWEIGHT {
			continue
		}
		if b.Type != opgraph.BufferTypeIntermediate && b.Type != opgraph.BufferTypeNone {
			continue
		}
		start, found := AgentID(0), false
		for _, producer := range c.graph.Producers(id) {
			t := c.opTime[producer]
			if !found || t < start {
				start, found = t, true
			}
		}
		end := start
		for _, consumer := range c.graph.Consumers(id) {
			end = max(end, c.opTime[consumer.Op])
		}
		c.buffers.MarkBufferUsedAtTime(c.dramBufferIDs[id], uint32(start), uint32(end)+1)
	}
}

// addSramOverlapDependencies makes the first agent of each SRAM section wait for the last agents of the
// sections before it that used the same SRAM.
func (c *CascadingCompiler) addSramOverlapDependencies() {
	for ii, section := range c.sections {
		first := c.sectionAgents[ii][0]
		if first == noAgent {
			continue
		}
		for jj := ii - 1; jj >= 0; jj-- {
			last := c.sectionAgents[jj][1]
			if last == noAgent || !section.Overlaps(c.sections[jj]) {
				continue
			}
			if last >= first {
				notSupportedf("SRAM section #%d (agents %d to %d) reuses the SRAM of section #%d still running at agent %d",
					ii, first, c.sectionAgents[ii][1], jj, last)
			}
			if !c.addSramOverlapDependency(first, last) {
				break
			}
		}
	}
}
