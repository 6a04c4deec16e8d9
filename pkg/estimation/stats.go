// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package estimation is the cost model of the compiler: it counts the bytes moved between DRAM and SRAM by
// each pass of an OpGraph, and ranks alternatives by comparing these counts.
//
// The model is coarse on purpose: it doesn't simulate the hardware, it only needs to order the
// combinations found by the search. Counts are split into "parallel" bytes, which are transferred while
// the engines compute on already loaded stripes, and "non-parallel" bytes, which stall the pipeline.
package estimation

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/gomlx/npucascade/pkg/support/sets"
)

// MemoryStats counts the bytes transferred by one buffer of a pass.
type MemoryStats struct {
	DramParallel    uint32
	DramNonParallel uint32
	Sram            uint32
}

// Add returns the element-wise sum.
func (m MemoryStats) Add(other MemoryStats) MemoryStats {
	return MemoryStats{
		DramParallel:    m.DramParallel + other.DramParallel,
		DramNonParallel: m.DramNonParallel + other.DramNonParallel,
		Sram:            m.Sram + other.Sram,
	}
}

// StripesStats counts the stripes transferred by one buffer of a pass.
type StripesStats struct {
	NumCentralStripes  uint32
	NumBoundaryStripes uint32
	NumReloads         uint32
}

// Add returns the element-wise sum.
func (s StripesStats) Add(other StripesStats) StripesStats {
	return StripesStats{
		NumCentralStripes:  s.NumCentralStripes + other.NumCentralStripes,
		NumBoundaryStripes: s.NumBoundaryStripes + other.NumBoundaryStripes,
		NumReloads:         s.NumReloads + other.NumReloads,
	}
}

// InputStats of the input feature map, the output feature map or the weights of a pass.
type InputStats struct {
	Memory  MemoryStats
	Stripes StripesStats
}

// Add returns the element-wise sum.
func (s InputStats) Add(other InputStats) InputStats {
	return InputStats{Memory: s.Memory.Add(other.Memory), Stripes: s.Stripes.Add(other.Stripes)}
}

// OutputStats has the same counters as InputStats.
type OutputStats = InputStats

// WeightsStats has the same counters as InputStats, plus the ratio saved by the weight compression.
type WeightsStats struct {
	InputStats

	// CompressionSaving is the fraction of the raw weights size saved by the encoding.
	CompressionSaving float64
}

// MceStats of the convolution of a pass.
type MceStats struct {
	// Operations is the number of multiply and add operations.
	Operations uint64

	// CycleCount is an estimation of the cycles the MCE needs to compute the operations.
	CycleCount uint64
}

// PleStats of the PLE kernel of a pass.
type PleStats struct {
	// NumOfPatches processed by the kernel.
	NumOfPatches uint32
	Operation    string
}

// PassStats of one pass: a single run of the engines over a whole tensor, from DRAM to DRAM.
type PassStats struct {
	Input   InputStats
	Output  OutputStats
	Weights WeightsStats
	Mce     MceStats
	Ple     PleStats
}

// PassPerformanceData is the estimation of one pass.
type PassPerformanceData struct {
	// OperationIDs of the front-end operations computed by the pass.
	OperationIDs sets.Set[int]

	Stats PassStats
}

// NetworkPerformanceData is the estimation of a whole network, or of part of it.
type NetworkPerformanceData struct {
	Stream []PassPerformanceData

	// OperationIDFailureReasons tells why some operations could not be estimated.
	OperationIDFailureReasons map[int]string
}

// String returns a multi-line summary of the estimation.
func (d *NetworkPerformanceData) String() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "%d passes, DRAM total=%s non-parallel=%s\n", len(d.Stream),
		humanize.Bytes(GetPerformanceTotalDataMetric(d)), humanize.Bytes(GetPerformanceNonParallelDataMetric(d)))
	for ii, pass := range d.Stream {
		s := pass.Stats
		_, _ = fmt.Fprintf(&sb, "  pass %d ops=%v: input %s/%s, output %s/%s, weights %s/%s, mce ops=%s, ple %s patches=%d\n",
			ii, sets.Sorted(pass.OperationIDs),
			humanize.Bytes(uint64(s.Input.Memory.DramParallel)), humanize.Bytes(uint64(s.Input.Memory.DramNonParallel)),
			humanize.Bytes(uint64(s.Output.Memory.DramParallel)), humanize.Bytes(uint64(s.Output.Memory.DramNonParallel)),
			humanize.Bytes(uint64(s.Weights.Memory.DramParallel)), humanize.Bytes(uint64(s.Weights.Memory.DramNonParallel)),
			humanize.Comma(int64(s.Mce.Operations)), s.Ple.Operation, s.Ple.NumOfPatches)
	}
	return sb.String()
}
