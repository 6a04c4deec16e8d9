// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package stripes

import (
	"cmp"
	"slices"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/support/sets"
)

// NumStripes is the range of the number of stripe slots of an SRAM buffer that plans are generated for.
type NumStripes struct {
	Min, Max uint32
}

// Compare orders by Min, then Max.
func (n NumStripes) Compare(other NumStripes) int {
	return cmp.Or(cmp.Compare(n.Min, other.Min), cmp.Compare(n.Max, other.Max))
}

// MceStripesInfo are the stripes the MCE computes at a time.
type MceStripesInfo struct {
	Input, Output, Weight tensor.Shape
	BlockConfig           hwcaps.BlockConfig
}

// Compare orders lexicographically over the fields.
func (m MceStripesInfo) Compare(other MceStripesInfo) int {
	return cmp.Or(m.Input.Compare(other.Input), m.Output.Compare(other.Output), m.Weight.Compare(other.Weight),
		compareBlockConfigs(m.BlockConfig, other.BlockConfig))
}

// PleStripesInfo are the stripes the PLE computes at a time.
type PleStripesInfo struct {
	Input, Output tensor.Shape
	BlockConfig   hwcaps.BlockConfig
}

// Compare orders lexicographically over the fields.
func (p PleStripesInfo) Compare(other PleStripesInfo) int {
	return cmp.Or(p.Input.Compare(other.Input), p.Output.Compare(other.Output),
		compareBlockConfigs(p.BlockConfig, other.BlockConfig))
}

func compareBlockConfigs(a, b hwcaps.BlockConfig) int {
	return cmp.Or(cmp.Compare(a.Width, b.Width), cmp.Compare(a.Height, b.Height))
}

// MemoryStripeInfo is the stripe shape of a buffer in SRAM and the range of its number of slots.
type MemoryStripeInfo struct {
	Range NumStripes
	Shape tensor.Shape
}

// Compare orders by range, then shape.
func (m MemoryStripeInfo) Compare(other MemoryStripeInfo) int {
	return cmp.Or(m.Range.Compare(other.Range), m.Shape.Compare(other.Shape))
}

// InputMemoryStripeInfo adds to the input stripes the neighbouring data packed with each of them, and how
// many times the whole input is loaded.
type InputMemoryStripeInfo struct {
	MemoryStripeInfo
	PackedBoundaryThickness opgraph.PackedBoundaryThickness
	NumLoads                uint32
}

// Compare orders lexicographically over the fields.
func (m InputMemoryStripeInfo) Compare(other InputMemoryStripeInfo) int {
	a, b := m.PackedBoundaryThickness, other.PackedBoundaryThickness
	return cmp.Or(m.MemoryStripeInfo.Compare(other.MemoryStripeInfo),
		cmp.Compare(a.Left, b.Left), cmp.Compare(a.Top, b.Top), cmp.Compare(a.Right, b.Right),
		cmp.Compare(a.Bottom, b.Bottom), cmp.Compare(m.NumLoads, other.NumLoads))
}

// WeightMemoryStripeInfo adds to the weight stripes how many times the whole weights are loaded.
type WeightMemoryStripeInfo struct {
	MemoryStripeInfo
	NumLoads uint32
}

// Compare orders lexicographically over the fields.
func (m WeightMemoryStripeInfo) Compare(other WeightMemoryStripeInfo) int {
	return cmp.Or(m.MemoryStripeInfo.Compare(other.MemoryStripeInfo), cmp.Compare(m.NumLoads, other.NumLoads))
}

// MemoryStripesInfo describes the SRAM buffers of a plan.
type MemoryStripesInfo struct {
	Input    InputMemoryStripeInfo
	Output   MemoryStripeInfo
	Weight   WeightMemoryStripeInfo
	PleInput MemoryStripeInfo
}

// Compare orders lexicographically over the fields.
func (m MemoryStripesInfo) Compare(other MemoryStripesInfo) int {
	return cmp.Or(m.Input.Compare(other.Input), m.Output.Compare(other.Output), m.Weight.Compare(other.Weight),
		m.PleInput.Compare(other.PleInput))
}

// NumMemoryStripes is one choice of the number of slots of each SRAM buffer of a plan.
type NumMemoryStripes struct {
	Input, Output, Weight, PleInput uint32
}

// MceAndPleInfo describes a plan with an MCE followed by a PLE.
type MceAndPleInfo struct {
	MceCompute MceStripesInfo
	PleCompute PleStripesInfo
	Memory     MemoryStripesInfo
}

// Compare orders lexicographically over the fields.
func (i MceAndPleInfo) Compare(other MceAndPleInfo) int {
	return cmp.Or(i.MceCompute.Compare(other.MceCompute), i.PleCompute.Compare(other.PleCompute),
		i.Memory.Compare(other.Memory))
}

// MceOnlyInfo describes a plan with only the MCE, whose output goes to a PLE in the next plan.
type MceOnlyInfo struct {
	MceCompute MceStripesInfo
	Memory     MemoryStripesInfo
}

// Compare orders lexicographically over the fields.
func (i MceOnlyInfo) Compare(other MceOnlyInfo) int {
	return cmp.Or(i.MceCompute.Compare(other.MceCompute), i.Memory.Compare(other.Memory))
}

// PleOnlyInfo describes a plan with only the PLE, fed by the MCE of the previous plan.
type PleOnlyInfo struct {
	PleCompute PleStripesInfo
	Memory     MemoryStripesInfo
}

// Compare orders lexicographically over the fields.
func (i PleOnlyInfo) Compare(other PleOnlyInfo) int {
	return cmp.Or(i.PleCompute.Compare(other.PleCompute), i.Memory.Compare(other.Memory))
}

// DmaOnlyInfo describes a plan that only moves data.
type DmaOnlyInfo struct {
	Input, Output MemoryStripeInfo
}

// Compare orders lexicographically over the fields.
func (i DmaOnlyInfo) Compare(other DmaOnlyInfo) int {
	return cmp.Or(i.Input.Compare(other.Input), i.Output.Compare(other.Output))
}

// StripeInfos are the unique candidates generated for a part.
type StripeInfos struct {
	MceAndPleInfos sets.Set[MceAndPleInfo]
	MceOnlyInfos   sets.Set[MceOnlyInfo]
	PleOnlyInfos   sets.Set[PleOnlyInfo]
	DmaOnlyInfos   sets.Set[DmaOnlyInfo]
}

// NewStripeInfos returns empty StripeInfos.
func NewStripeInfos() *StripeInfos {
	return &StripeInfos{
		MceAndPleInfos: sets.Make[MceAndPleInfo](),
		MceOnlyInfos:   sets.Make[MceOnlyInfo](),
		PleOnlyInfos:   sets.Make[PleOnlyInfo](),
		DmaOnlyInfos:   sets.Make[DmaOnlyInfo](),
	}
}

// Len returns the total number of candidates.
func (s *StripeInfos) Len() int {
	return len(s.MceAndPleInfos) + len(s.MceOnlyInfos) + len(s.PleOnlyInfos) + len(s.DmaOnlyInfos)
}

// SortedMceAndPleInfos returns the MceAndPleInfos in a deterministic order.
func (s *StripeInfos) SortedMceAndPleInfos() []MceAndPleInfo { return sortedInfos(s.MceAndPleInfos) }

// SortedMceOnlyInfos returns the MceOnlyInfos in a deterministic order.
func (s *StripeInfos) SortedMceOnlyInfos() []MceOnlyInfo { return sortedInfos(s.MceOnlyInfos) }

// SortedPleOnlyInfos returns the PleOnlyInfos in a deterministic order.
func (s *StripeInfos) SortedPleOnlyInfos() []PleOnlyInfo { return sortedInfos(s.PleOnlyInfos) }

// SortedDmaOnlyInfos returns the DmaOnlyInfos in a deterministic order.
func (s *StripeInfos) SortedDmaOnlyInfos() []DmaOnlyInfo { return sortedInfos(s.DmaOnlyInfos) }

func sortedInfos[T interface {
	comparable
	Compare(T) int
}](s sets.Set[T]) []T {
	result := make([]T, 0, len(s))
	for v := range s {
		result = append(result, v)
	}
	slices.SortFunc(result, func(a, b T) int { return a.Compare(b) })
	return result
}
