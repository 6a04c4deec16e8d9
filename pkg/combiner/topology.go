// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package combiner

import (
	"github.com/gomlx/npucascade/pkg/parts"
)

// Connection from an output slot to an input slot of the GraphOfParts.
type Connection struct {
	In  parts.PartInputSlot
	Out parts.PartOutputSlot
}

// SourceConnections returns the connections feeding the part, sorted by input slot.
func (c *Combiner) SourceConnections(id parts.PartID) []Connection {
	var result []Connection
	for _, in := range c.graph.PartInputSlots(id) {
		out, _ := c.graph.ConnectedOutputSlot(in)
		result = append(result, Connection{In: in, Out: out})
	}
	return result
}

// DestinationConnections returns the connections leaving the part, sorted by the consuming input slot.
func (c *Combiner) DestinationConnections(id parts.PartID) []Connection {
	var result []Connection
	for _, in := range c.graph.PartOutputConnections(id) {
		out, _ := c.graph.ConnectedOutputSlot(in)
		result = append(result, Connection{In: in, Out: out})
	}
	return result
}

func (c *Combiner) numInputEdges(part parts.Part) int {
	return len(c.graph.PartInputSlots(part.ID()))
}

func (c *Combiner) numOutputEdges(part parts.Part) int {
	return len(c.graph.PartOutputConnections(part.ID()))
}

// IsPartInput returns whether nothing feeds the part.
func (c *Combiner) IsPartInput(part parts.Part) bool {
	return c.numInputEdges(part) == 0
}

// IsPartOutput returns whether the part feeds nothing.
func (c *Combiner) IsPartOutput(part parts.Part) bool {
	return c.numOutputEdges(part) == 0
}

// IsPartSo returns whether exactly one input slot consumes the outputs of the part.
func (c *Combiner) IsPartSo(part parts.Part) bool {
	return c.numOutputEdges(part) == 1
}

// IsPartMo returns whether more than one input slot consumes the outputs of the part.
func (c *Combiner) IsPartMo(part parts.Part) bool {
	return c.numOutputEdges(part) > 1
}

// IsPartSiso returns whether the part has exactly one input connection and one output connection.
func (c *Combiner) IsPartSiso(part parts.Part) bool {
	return c.numInputEdges(part) == 1 && c.numOutputEdges(part) == 1
}

// IsPartSimo returns whether the part has exactly one input connection and several output connections.
func (c *Combiner) IsPartSimo(part parts.Part) bool {
	return c.numInputEdges(part) == 1 && c.numOutputEdges(part) > 1
}

// IsPartMiso returns whether the part has several input connections and a single output slot, which may
// feed several parts.
func (c *Combiner) IsPartMiso(part parts.Part) bool {
	return c.numInputEdges(part) > 1 && len(c.graph.PartOutputSlots(part.ID())) == 1
}

// IsPartMimo returns whether the part has several input connections and several output connections.
func (c *Combiner) IsPartMimo(part parts.Part) bool {
	return c.numInputEdges(part) > 1 && c.numOutputEdges(part) > 1
}
