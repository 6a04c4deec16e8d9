// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package parts

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
)

// Plan is one way of executing a Part: an OpGraph and the buffers of it that are the inputs and outputs of
// the part.
//
// A buffer may be both an input and an output, for parts that don't move data.
type Plan struct {
	OpGraph        *opgraph.OpGraph
	InputMappings  map[opgraph.BufferID]PartInputSlot
	OutputMappings map[opgraph.BufferID]PartOutputSlot
}

// NewPlan returns a plan with an empty OpGraph.
func NewPlan() *Plan {
	return &Plan{
		OpGraph:        opgraph.New(),
		InputMappings:  make(map[opgraph.BufferID]PartInputSlot),
		OutputMappings: make(map[opgraph.BufferID]PartOutputSlot),
	}
}

// IsPlanValid returns whether the plan fits in SRAM.
//
// It adds up all the SRAM buffers of the plan, without considering when they are alive.
func IsPlanValid(caps hwcaps.HardwareCapabilities, plan *Plan) bool {
	return plan.SramSize() <= caps.TotalSramSize
}

// SramSize is the total size of the SRAM buffers of the plan.
func (p *Plan) SramSize() uint32 {
	return p.OpGraph.TotalSizeInLocation(opgraph.LocationSram)
}

// InputBuffer returns the buffer mapped to the input slot, or InvalidBufferID.
func (p *Plan) InputBuffer(slot PartInputSlot) opgraph.BufferID {
	for _, id := range p.sortedInputBuffers() {
		if p.InputMappings[id] == slot {
			return id
		}
	}
	return opgraph.InvalidBufferID
}

// OutputBuffer returns the buffer mapped to the output slot, or InvalidBufferID.
func (p *Plan) OutputBuffer(slot PartOutputSlot) opgraph.BufferID {
	for _, id := range p.sortedOutputBuffers() {
		if p.OutputMappings[id] == slot {
			return id
		}
	}
	return opgraph.InvalidBufferID
}

// InputSlots returns the input slots of the plan, sorted by index.
func (p *Plan) InputSlots() []PartInputSlot {
	slots := maps.Values(p.InputMappings)
	slices.SortFunc(slots, func(a, b PartInputSlot) int { return cmp.Compare(a.Index, b.Index) })
	return slots
}

// OutputSlots returns the output slots of the plan, sorted by index.
func (p *Plan) OutputSlots() []PartOutputSlot {
	slots := maps.Values(p.OutputMappings)
	slices.SortFunc(slots, func(a, b PartOutputSlot) int { return cmp.Compare(a.Index, b.Index) })
	return slots
}

func (p *Plan) sortedInputBuffers() []opgraph.BufferID {
	ids := maps.Keys(p.InputMappings)
	slices.Sort(ids)
	return ids
}

func (p *Plan) sortedOutputBuffers() []opgraph.BufferID {
	ids := maps.Keys(p.OutputMappings)
	slices.Sort(ids)
	return ids
}

// BlockConfig of the compute ops of the plan, or the zero BlockConfig if it has none.
// Standalone PLE kernels don't use block configs and are ignored.
func (p *Plan) BlockConfig() hwcaps.BlockConfig {
	for _, id := range p.OpGraph.OpIDs() {
		switch op := p.OpGraph.Op(id).(type) {
		case *opgraph.MceOp:
			return op.BlockConfig
		case *opgraph.PleOp:
			if !op.Operation.IsStandalone() {
				return op.BlockConfig
			}
		}
	}
	return hwcaps.BlockConfig{}
}

// NumWeightStripes is the number of slots of the weights buffer in SRAM, or 0 if the plan has no weights.
func (p *Plan) NumWeightStripes() uint32 {
	for _, id := range p.OpGraph.BufferIDs() {
		b := p.OpGraph.Buffer(id)
		if b.Location == opgraph.LocationSram && b.Format == opgraph.BufferFormatWEIGHT {
			return b.NumStripes
		}
	}
	return 0
}

// HasKind returns whether the plan has an op of the given kind.
func (p *Plan) HasKind(kind opgraph.OpKind) bool {
	for _, id := range p.OpGraph.OpIDs() {
		if p.OpGraph.Op(id).Kind() == kind {
			return true
		}
	}
	return false
}

// String lists the mappings and the OpGraph of the plan.
func (p *Plan) String() string {
	var sb strings.Builder
	for _, id := range p.sortedInputBuffers() {
		_, _ = fmt.Fprintf(&sb, "%s <- buffer#%d\n", p.InputMappings[id], id)
	}
	for _, id := range p.sortedOutputBuffers() {
		_, _ = fmt.Fprintf(&sb, "%s -> buffer#%d\n", p.OutputMappings[id], id)
	}
	sb.WriteString(p.OpGraph.String())
	return sb.String()
}
