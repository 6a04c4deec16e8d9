// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package combiner

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
)

// SramSection is a set of ops that share data through SRAM, and so must have their SRAM buffers and PLE
// kernels allocated at the same time.
type SramSection struct {
	Ops []opgraph.OpID

	// Buffers in SRAM used by the ops of the section.
	Buffers []opgraph.BufferID

	// Start and End of the region used by the section, as offsets within each SRAM bank.
	Start, End uint32
}

// Overlaps returns whether the two sections use some common SRAM.
func (s *SramSection) Overlaps(other *SramSection) bool {
	if s.Start == s.End || other.Start == other.End {
		return false
	}
	return s.Start < other.End && other.Start < s.End
}

// interleaves returns whether some op of the other section comes between the first and the last ops of s,
// or the reverse.
func (s *SramSection) interleaves(other *SramSection) bool {
	if len(s.Ops) == 0 || len(other.Ops) == 0 {
		return false
	}
	return s.Ops[0] <= other.Ops[len(other.Ops)-1] && other.Ops[0] <= s.Ops[len(s.Ops)-1]
}

// FindSramSections groups the ops of the graph in sections connected by SRAM buffers. Sections are
// sorted by their first op.
func FindSramSections(g *opgraph.OpGraph) []*SramSection {
	parent := make([]opgraph.OpID, g.NumOps())
	for ii := range parent {
		parent[ii] = opgraph.OpID(ii)
	}
	var find func(opgraph.OpID) opgraph.OpID
	find = func(id opgraph.OpID) opgraph.OpID {
		if parent[id] != id {
			parent[id] = find(parent[id])
		}
		return parent[id]
	}
	union := func(a, b opgraph.OpID) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if rb < ra {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	isSram := func(b *opgraph.Buffer) bool {
		return b.Location == opgraph.LocationSram || b.Location == opgraph.LocationPleInputSram
	}
	for _, bufID := range g.BufferIDs() {
		if !isSram(g.Buffer(bufID)) {
			continue
		}
		users := append([]opgraph.OpID(nil), g.Producers(bufID)...)
		for _, consumer := range g.Consumers(bufID) {
			users = append(users, consumer.Op)
		}
		for _, user := range users[min(1, len(users)):] {
			union(users[0], user)
		}
	}

	byRoot := make(map[opgraph.OpID]*SramSection)
	var sections []*SramSection
	for _, opID := range g.OpIDs() {
		root := find(opID)
		section, found := byRoot[root]
		if !found {
			section = &SramSection{}
			byRoot[root] = section
			sections = append(sections, section)
		}
		section.Ops = append(section.Ops, opID)
	}
	seen := make(map[opgraph.BufferID]bool)
	for _, bufID := range g.BufferIDs() {
		if g.Buffer(bufID).Location != opgraph.LocationSram || seen[bufID] {
			continue
		}
		user := opgraph.InvalidOpID
		if producers := g.Producers(bufID); len(producers) > 0 {
			user = producers[0]
		} else if consumers := g.Consumers(bufID); len(consumers) > 0 {
			user = consumers[0].Op
		}
		if user == opgraph.InvalidOpID {
			continue
		}
		seen[bufID] = true
		section := byRoot[find(user)]
		section.Buffers = append(section.Buffers, bufID)
	}
	return sections
}

// AllocateSram sets the SRAM offsets of the buffers and PLE kernels of the merged OpGraph of a combination.
//
// Each section is allocated right after the sections whose ops are interleaved with its own, or from the
// start of the banks if there are none: the PLE kernels first, then the buffers. So sections may reuse the
// SRAM of sections executed entirely before them, and the returned sections tell which ones do. It returns
// an error if a section doesn't fit in SRAM.
func AllocateSram(caps hwcaps.HardwareCapabilities, g *opgraph.OpGraph) ([]*SramSection, error) {
	numSrams := caps.NumberOfSrams()
	bankSize := caps.SramSizePerBank()
	sections := FindSramSections(g)
	for ii, section := range sections {
		for _, previous := range sections[:ii] {
			if previous.interleaves(section) {
				section.Start = max(section.Start, previous.End)
			}
		}
		offset := section.Start
		for _, opID := range section.Ops {
			if ple, ok := g.Op(opID).(*opgraph.PleOp); ok && ple.LoadKernel {
				ple.Offset, ple.HasOffset = offset, true
				offset += caps.MaxPleSize
			}
		}
		for _, bufID := range section.Buffers {
			buffer := g.Buffer(bufID)
			buffer.Offset, buffer.HasOffset = offset, true
			offset += tensor.DivRoundUp(buffer.SizeInBytes, numSrams)
		}
		if offset > bankSize {
			return nil, errors.Errorf("SRAM section #%d (%d ops) needs up to %d bytes per bank, only %d available",
				ii, len(section.Ops), offset, bankSize)
		}
		section.End = offset
		if klog.V(2).Enabled() {
			klog.Infof("SRAM section #%d: %d ops, %d buffers, bytes [%d, %d) of each bank", ii, len(section.Ops),
				len(section.Buffers), section.Start, offset)
		}
	}
	return sections, nil
}
