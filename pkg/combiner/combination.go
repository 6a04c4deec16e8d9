// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package combiner searches for the combination of plans, one per part, that executes the whole
// GraphOfParts with the least DRAM traffic.
//
// Parts are visited from the network inputs towards the outputs. For each part the combiner either
// picks a Lonely plan, or starts a cascade: a chain of Beginning, Middle and End plans that keep the
// data between them in SRAM. Wherever the plans on both sides of a connection don't share a buffer, a
// Glue of DMA ops moves the data through DRAM. The best combination found for each part, covering the
// part and everything downstream of it, is memoized.
package combiner

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/parts"
)

// GlueInput is the input of the glue's OpGraph that reads the producer's output buffer.
type GlueInput struct {
	Op    opgraph.OpID
	Index int
}

// Glue is a small OpGraph of DMA ops connecting the output buffer of a plan to the input buffer of the
// plan consuming it, when the two can't be the same buffer.
type Glue struct {
	Graph *opgraph.OpGraph

	// InputSlot reads the producer's output buffer.
	InputSlot GlueInput

	// Output op writes the consumer's input buffer.
	Output opgraph.OpID
}

// Elem is the choice made for one part: its plan and the glues on the connections leaving it.
//
// A connection present in Glues with a nil Glue is connected directly, as one present without any entry.
type Elem struct {
	Plan  *parts.Plan
	Glues map[parts.PartInputSlot]*Glue
}

// Combination of plans and glues for a subset of the parts.
type Combination struct {
	Elems map[parts.PartID]Elem
}

// NewCombination returns the combination with only the plan for part.
func NewCombination(part parts.Part, plan *parts.Plan) Combination {
	return Combination{Elems: map[parts.PartID]Elem{
		part.ID(): {Plan: plan, Glues: make(map[parts.PartInputSlot]*Glue)},
	}}
}

// NewGlueCombination returns a combination with only a glue, on the connection from the producer part to
// the input slot. Adding it to a combination with a plan for the producer attaches the glue to it.
func NewGlueCombination(producer parts.PartID, slot parts.PartInputSlot, glue *Glue) Combination {
	return Combination{Elems: map[parts.PartID]Elem{
		producer: {Glues: map[parts.PartInputSlot]*Glue{slot: glue}},
	}}
}

// Len is the number of parts in the combination.
func (c Combination) Len() int { return len(c.Elems) }

// IsEmpty returns whether the combination has no parts.
func (c Combination) IsEmpty() bool { return len(c.Elems) == 0 }

// Plan returns the plan chosen for the part, or nil.
func (c Combination) Plan(id parts.PartID) *parts.Plan {
	return c.Elems[id].Plan
}

// PartIDs in the combination, sorted.
func (c Combination) PartIDs() []parts.PartID {
	ids := maps.Keys(c.Elems)
	slices.Sort(ids)
	return ids
}

// Add returns the union of the two combinations. c and other are not modified.
//
// For a part present in both, the plan of other replaces the plan of c, unless other has no plan for it,
// and the glues of other replace the glues of c on the same connections.
func (c Combination) Add(other Combination) Combination {
	result := Combination{Elems: make(map[parts.PartID]Elem, len(c.Elems)+len(other.Elems))}
	for id, elem := range c.Elems {
		result.Elems[id] = Elem{Plan: elem.Plan, Glues: maps.Clone(elem.Glues)}
	}
	for id, elem := range other.Elems {
		merged := result.Elems[id]
		if elem.Plan != nil {
			merged.Plan = elem.Plan
		}
		if merged.Glues == nil {
			merged.Glues = make(map[parts.PartInputSlot]*Glue, len(elem.Glues))
		}
		for slot, glue := range elem.Glues {
			merged.Glues[slot] = glue
		}
		result.Elems[id] = merged
	}
	return result
}

// String lists the parts with a short description of their plans and glues.
func (c Combination) String() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "Combination: %d parts\n", len(c.Elems))
	for _, id := range c.PartIDs() {
		elem := c.Elems[id]
		if elem.Plan == nil {
			_, _ = fmt.Fprintf(&sb, "  Part#%d: no plan\n", id)
		} else {
			_, _ = fmt.Fprintf(&sb, "  Part#%d: %d ops, %d buffers, block config %s\n", id,
				elem.Plan.OpGraph.NumOps(), elem.Plan.OpGraph.NumBuffers(), elem.Plan.BlockConfig())
		}
		slots := maps.Keys(elem.Glues)
		slices.SortFunc(slots, func(a, b parts.PartInputSlot) int {
			return cmp.Or(cmp.Compare(a.PartID, b.PartID), cmp.Compare(a.Index, b.Index))
		})
		for _, slot := range slots {
			if glue := elem.Glues[slot]; glue != nil {
				_, _ = fmt.Fprintf(&sb, "    glue to %s: %d ops\n", slot, glue.Graph.NumOps())
			}
		}
	}
	return sb.String()
}
