// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package opgraph defines the bipartite graph of Ops and Buffers that plans are made of.
//
// An OpGraph owns its ops and buffers, which are stored in arenas and referred to by OpID and BufferID.
// Ops are kept in insertion order. Plans and glues insert producers before consumers, and Append
// preserves the order, so the op order of a merged graph is a valid execution order.
package opgraph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
)

// Consumer of a buffer: the op and the index of the op input reading it.
type Consumer struct {
	Op    OpID
	Index int
}

// OpGraph is a graph of Ops connected through Buffers.
type OpGraph struct {
	ops     []Op
	buffers []*Buffer

	opInputs        [][]BufferID
	opOutput        []BufferID
	bufferProducers [][]OpID
	bufferConsumers [][]Consumer
}

// New creates an empty OpGraph.
func New() *OpGraph {
	return &OpGraph{}
}

// NumOps in the graph.
func (g *OpGraph) NumOps() int { return len(g.ops) }

// NumBuffers in the graph.
func (g *OpGraph) NumBuffers() int { return len(g.buffers) }

// AddOp adds the op to the graph, which takes ownership of it.
func (g *OpGraph) AddOp(op Op) OpID {
	if op == nil {
		exceptions.Panicf("OpGraph.AddOp(nil)")
	}
	if slices.Contains(g.ops, op) {
		exceptions.Panicf("op %s already in the graph", OpString(op))
	}
	g.ops = append(g.ops, op)
	g.opInputs = append(g.opInputs, nil)
	g.opOutput = append(g.opOutput, InvalidBufferID)
	return OpID(len(g.ops) - 1)
}

// AddBuffer adds the buffer to the graph, which takes ownership of it.
func (g *OpGraph) AddBuffer(buffer *Buffer) BufferID {
	if buffer == nil {
		exceptions.Panicf("OpGraph.AddBuffer(nil)")
	}
	if slices.Contains(g.buffers, buffer) {
		exceptions.Panicf("buffer %s already in the graph", buffer)
	}
	g.buffers = append(g.buffers, buffer)
	g.bufferProducers = append(g.bufferProducers, nil)
	g.bufferConsumers = append(g.bufferConsumers, nil)
	return BufferID(len(g.buffers) - 1)
}

func (g *OpGraph) checkOp(id OpID) {
	if id < 0 || int(id) >= len(g.ops) {
		exceptions.Panicf("invalid OpID %d: there are only %d ops", id, len(g.ops))
	}
}

func (g *OpGraph) checkBuffer(id BufferID) {
	if id < 0 || int(id) >= len(g.buffers) {
		exceptions.Panicf("invalid BufferID %d: there are only %d buffers", id, len(g.buffers))
	}
}

// Op returns the op with the given id.
func (g *OpGraph) Op(id OpID) Op {
	g.checkOp(id)
	return g.ops[id]
}

// Buffer returns the buffer with the given id.
func (g *OpGraph) Buffer(id BufferID) *Buffer {
	g.checkBuffer(id)
	return g.buffers[id]
}

// OpIDs returns the ids of all ops in insertion order.
func (g *OpGraph) OpIDs() []OpID {
	ids := make([]OpID, len(g.ops))
	for ii := range ids {
		ids[ii] = OpID(ii)
	}
	return ids
}

// BufferIDs returns the ids of all buffers in insertion order.
func (g *OpGraph) BufferIDs() []BufferID {
	ids := make([]BufferID, len(g.buffers))
	for ii := range ids {
		ids[ii] = BufferID(ii)
	}
	return ids
}

// SetProducer sets op as the (only) producer of buffer, which becomes the op's output.
func (g *OpGraph) SetProducer(buffer BufferID, op OpID) {
	g.checkBuffer(buffer)
	if len(g.bufferProducers[buffer]) > 0 {
		exceptions.Panicf("buffer %s already has a producer", g.buffers[buffer])
	}
	g.AddProducer(buffer, op)
}

// AddProducer adds op as one more producer of buffer. Several producers are used when ops write
// disjoint parts of a DRAM buffer, as in concatenations.
func (g *OpGraph) AddProducer(buffer BufferID, op OpID) {
	g.checkBuffer(buffer)
	g.checkOp(op)
	if g.opOutput[op] != InvalidBufferID && g.opOutput[op] != buffer {
		exceptions.Panicf("op %s already has an output buffer", OpString(g.ops[op]))
	}
	if slices.Contains(g.bufferProducers[buffer], op) {
		return
	}
	g.opOutput[op] = buffer
	g.bufferProducers[buffer] = append(g.bufferProducers[buffer], op)
}

// AddConsumer connects buffer to the input number index of op.
func (g *OpGraph) AddConsumer(buffer BufferID, op OpID, index int) {
	g.checkBuffer(buffer)
	g.checkOp(op)
	inputs := g.opInputs[op]
	if index > len(inputs) {
		exceptions.Panicf("op %s: input %d set before input %d", OpString(g.ops[op]), index, len(inputs))
	}
	if index == len(inputs) {
		g.opInputs[op] = append(inputs, buffer)
	} else {
		g.removeConsumer(inputs[index], Consumer{op, index})
		inputs[index] = buffer
	}
	g.bufferConsumers[buffer] = append(g.bufferConsumers[buffer], Consumer{op, index})
}

func (g *OpGraph) removeConsumer(buffer BufferID, consumer Consumer) {
	g.bufferConsumers[buffer] = slices.DeleteFunc(g.bufferConsumers[buffer],
		func(c Consumer) bool { return c == consumer })
}

// Inputs returns the input buffers of op, in input order.
func (g *OpGraph) Inputs(op OpID) []BufferID {
	g.checkOp(op)
	return g.opInputs[op]
}

// Output returns the output buffer of op, or InvalidBufferID if it has none.
func (g *OpGraph) Output(op OpID) BufferID {
	g.checkOp(op)
	return g.opOutput[op]
}

// Producers returns all ops writing to the buffer.
func (g *OpGraph) Producers(buffer BufferID) []OpID {
	g.checkBuffer(buffer)
	return g.bufferProducers[buffer]
}

// Producer returns the single producer of the buffer, or InvalidOpID if it has none.
// It panics if the buffer has more than one producer.
func (g *OpGraph) Producer(buffer BufferID) OpID {
	producers := g.Producers(buffer)
	switch len(producers) {
	case 0:
		return InvalidOpID
	case 1:
		return producers[0]
	}
	exceptions.Panicf("buffer %s has %d producers", g.buffers[buffer], len(producers))
	return InvalidOpID
}

// Consumers returns the ops reading the buffer, in the order they were connected.
func (g *OpGraph) Consumers(buffer BufferID) []Consumer {
	g.checkBuffer(buffer)
	return g.bufferConsumers[buffer]
}

// FindOp returns the id of the op, or InvalidOpID if it is not in the graph.
func (g *OpGraph) FindOp(op Op) OpID {
	idx := slices.Index(g.ops, op)
	if idx < 0 {
		return InvalidOpID
	}
	return OpID(idx)
}

// FindBuffer returns the id of the buffer, or InvalidBufferID if it is not in the graph.
func (g *OpGraph) FindBuffer(buffer *Buffer) BufferID {
	idx := slices.Index(g.buffers, buffer)
	if idx < 0 {
		return InvalidBufferID
	}
	return BufferID(idx)
}

// TotalSizeInLocation sums the size of all buffers in the given location.
func (g *OpGraph) TotalSizeInLocation(location Location) uint32 {
	var total uint32
	for _, b := range g.buffers {
		if b.Location == location {
			total += b.SizeInBytes
		}
	}
	return total
}

// Append copies all ops and buffers of other into g, along with their connections, and returns the
// mapping from the ids in other to the ids in g.
//
// Buffers of other listed in sharedBuffers are not copied: they are replaced by the given buffer of g.
// This is how the input buffer of a plan is merged with the output buffer of the plan feeding it.
// Copied ops and buffers are clones, so later changes to g (SRAM offsets, for instance) don't affect other.
func (g *OpGraph) Append(other *OpGraph, sharedBuffers map[BufferID]BufferID) (opMap []OpID, bufferMap []BufferID) {
	bufferMap = make([]BufferID, len(other.buffers))
	for ii, buffer := range other.buffers {
		if shared, found := sharedBuffers[BufferID(ii)]; found {
			g.checkBuffer(shared)
			bufferMap[ii] = shared
			continue
		}
		bufferMap[ii] = g.AddBuffer(buffer.Clone())
	}
	opMap = make([]OpID, len(other.ops))
	for ii, op := range other.ops {
		opMap[ii] = g.AddOp(op.clone())
	}
	for ii := range other.ops {
		newOp := opMap[ii]
		for index, input := range other.opInputs[ii] {
			g.AddConsumer(bufferMap[input], newOp, index)
		}
	}
	for ii, producers := range other.bufferProducers {
		for _, producer := range producers {
			g.AddProducer(bufferMap[ii], opMap[producer])
		}
	}
	return opMap, bufferMap
}

// Clone returns a deep copy of the graph.
func (g *OpGraph) Clone() *OpGraph {
	c := New()
	c.Append(g, nil)
	return c
}

// String lists the ops with their inputs and outputs.
func (g *OpGraph) String() string {
	var sb strings.Builder
	for ii, op := range g.ops {
		_, _ = fmt.Fprintf(&sb, "op#%d %s\n", ii, OpString(op))
		for index, input := range g.opInputs[ii] {
			_, _ = fmt.Fprintf(&sb, "  in[%d] buffer#%d %s\n", index, input, g.buffers[input])
		}
		if out := g.opOutput[ii]; out != InvalidBufferID {
			_, _ = fmt.Fprintf(&sb, "  out buffer#%d %s\n", out, g.buffers[out])
		}
	}
	return sb.String()
}
