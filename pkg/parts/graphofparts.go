// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package parts

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"golang.org/x/exp/maps"
)

// GraphOfParts owns the parts of a compilation and the connections between their slots.
//
// Each input slot is connected to exactly one output slot, and an output slot may feed any number of input
// slots. Parts are added in topological order, so the order of their ids is an execution order.
type GraphOfParts struct {
	parts       []Part
	connections map[PartInputSlot]PartOutputSlot
	nextPartID  PartID
}

// NewGraphOfParts returns an empty GraphOfParts.
func NewGraphOfParts() *GraphOfParts {
	return &GraphOfParts{connections: make(map[PartInputSlot]PartOutputSlot)}
}

// GeneratePartID returns the id to use for the next part.
func (g *GraphOfParts) GeneratePartID() PartID {
	id := g.nextPartID
	g.nextPartID++
	return id
}

// AddPart adds the part, whose id must come from GeneratePartID and be the next one in order.
func (g *GraphOfParts) AddPart(part Part) {
	if int(part.ID()) != len(g.parts) {
		exceptions.Panicf("part %s added out of order: expected id %d", part.DebugTag(), len(g.parts))
	}
	g.parts = append(g.parts, part)
}

// NumParts in the graph.
func (g *GraphOfParts) NumParts() int { return len(g.parts) }

// Parts in id order. The returned slice must not be modified.
func (g *GraphOfParts) Parts() []Part { return g.parts }

// Part returns the part with the given id.
func (g *GraphOfParts) Part(id PartID) Part {
	if id < 0 || int(id) >= len(g.parts) {
		exceptions.Panicf("invalid PartID %d: there are only %d parts", id, len(g.parts))
	}
	return g.parts[id]
}

// AddConnection connects the output slot to the input slot.
func (g *GraphOfParts) AddConnection(in PartInputSlot, out PartOutputSlot) {
	if previous, found := g.connections[in]; found {
		exceptions.Panicf("%s is already connected to %s", in, previous)
	}
	g.connections[in] = out
}

// ConnectedOutputSlot returns the output slot feeding the input slot.
func (g *GraphOfParts) ConnectedOutputSlot(in PartInputSlot) (PartOutputSlot, bool) {
	out, found := g.connections[in]
	return out, found
}

// ConnectedInputSlots returns the input slots fed by the output slot, sorted by part id and index.
func (g *GraphOfParts) ConnectedInputSlots(out PartOutputSlot) []PartInputSlot {
	var result []PartInputSlot
	for in, o := range g.connections {
		if o == out {
			result = append(result, in)
		}
	}
	slices.SortFunc(result, compareInputSlots)
	return result
}

// PartInputSlots returns the connected input slots of the part, sorted by index.
func (g *GraphOfParts) PartInputSlots(id PartID) []PartInputSlot {
	var result []PartInputSlot
	for in := range g.connections {
		if in.PartID == id {
			result = append(result, in)
		}
	}
	slices.SortFunc(result, compareInputSlots)
	return result
}

// PartOutputSlots returns the output slots of the part that feed some other part, sorted by index.
func (g *GraphOfParts) PartOutputSlots(id PartID) []PartOutputSlot {
	var result []PartOutputSlot
	for _, out := range g.connections {
		if out.PartID == id && !slices.Contains(result, out) {
			result = append(result, out)
		}
	}
	slices.SortFunc(result, func(a, b PartOutputSlot) int { return cmp.Compare(a.Index, b.Index) })
	return result
}

// PartOutputConnections returns the input slots fed by any output of the part, sorted by part id and index.
// There is one per edge leaving the part.
func (g *GraphOfParts) PartOutputConnections(id PartID) []PartInputSlot {
	var result []PartInputSlot
	for in, out := range g.connections {
		if out.PartID == id {
			result = append(result, in)
		}
	}
	slices.SortFunc(result, compareInputSlots)
	return result
}

// SourceParts returns the distinct parts feeding the part, in increasing id order.
func (g *GraphOfParts) SourceParts(id PartID) []PartID {
	var result []PartID
	for _, in := range g.PartInputSlots(id) {
		if src := g.connections[in].PartID; !slices.Contains(result, src) {
			result = append(result, src)
		}
	}
	slices.Sort(result)
	return result
}

// DestinationParts returns the distinct parts fed by the part, in increasing id order.
func (g *GraphOfParts) DestinationParts(id PartID) []PartID {
	var result []PartID
	for _, in := range g.PartOutputConnections(id) {
		if !slices.Contains(result, in.PartID) {
			result = append(result, in.PartID)
		}
	}
	return result
}

// Connections returns all input slots, sorted, with the output slots feeding them.
func (g *GraphOfParts) Connections() ([]PartInputSlot, map[PartInputSlot]PartOutputSlot) {
	ins := maps.Keys(g.connections)
	slices.SortFunc(ins, compareInputSlots)
	return ins, maps.Clone(g.connections)
}

func compareInputSlots(a, b PartInputSlot) int {
	return cmp.Or(cmp.Compare(a.PartID, b.PartID), cmp.Compare(a.Index, b.Index))
}

// String lists the parts and their connections.
func (g *GraphOfParts) String() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "GraphOfParts: %d parts\n", len(g.parts))
	for _, part := range g.parts {
		_, _ = fmt.Fprintf(&sb, "  #%d %s\n", part.ID(), part.DebugTag())
		for _, in := range g.PartInputSlots(part.ID()) {
			_, _ = fmt.Fprintf(&sb, "    %s <- %s\n", in, g.connections[in])
		}
	}
	return sb.String()
}
