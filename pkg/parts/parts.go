// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package parts splits the input graph into Parts, the units of work the combiner schedules, and generates
// the candidate Plans of each Part.
//
// A Part covers one or more nodes of the input graph. Its plans are generated on demand for a cascade type,
// a block config, the buffer left in SRAM by the previous plan of the cascade and the number of weight
// stripes, which are the constraints the combiner knows when it asks for them.
package parts

import (
	"fmt"

	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/options"
	"github.com/gomlx/npucascade/pkg/stripes"
	"github.com/gomlx/npucascade/pkg/support/sets"
)

// PartID identifies a Part in its GraphOfParts. Ids are dense and start at 0.
type PartID int

// PartInputSlot is the input number Index of a part.
type PartInputSlot struct {
	PartID PartID
	Index  int
}

// String implements fmt.Stringer.
func (s PartInputSlot) String() string { return fmt.Sprintf("Part#%d.in[%d]", s.PartID, s.Index) }

// PartOutputSlot is the output number Index of a part.
type PartOutputSlot struct {
	PartID PartID
	Index  int
}

// String implements fmt.Stringer.
func (s PartOutputSlot) String() string { return fmt.Sprintf("Part#%d.out[%d]", s.PartID, s.Index) }

// PartKind enumerates the implementations of Part.
type PartKind int

//go:generate go tool enumer -type=PartKind -trimprefix=PartKind -output=gen_partkind_enumer.go parts.go

const (
	PartKindInput PartKind = iota
	PartKindOutput
	PartKindConstant
	PartKindMce
	PartKindFusedPle
	PartKindStandalonePle
	PartKindConcat
	PartKindReinterpret
	PartKindEstimateOnly
)

// Part is a unit of work of the combiner.
type Part interface {
	ID() PartID
	Kind() PartKind

	// DebugTag identifies the part in dumps and in the debug stripe config file.
	DebugTag() string

	// OperationIDs of the front-end operations covered by the part.
	OperationIDs() sets.Set[int]

	// GetPlans returns the valid plans of the part for the given position in a cascade.
	//
	// blockConfig, if not zero, restricts the plans to the ones using it. prevBuffer is the output buffer of
	// the previous plan in the cascade, and must be given for the Middle and End cascade types.
	// numWeightStripes, if not 0, restricts the number of weight stripe slots.
	GetPlans(cascadeType opgraph.CascadeType, blockConfig hwcaps.BlockConfig, prevBuffer *opgraph.Buffer,
		numWeightStripes uint32) []*Plan

	// CanDoubleBufferWeights returns whether the plans of the part may keep 2 weight stripes in SRAM.
	CanDoubleBufferWeights() bool

	// MceOperation of the part, if it has one.
	MceOperation() (op graph.MceOperation, ok bool)
}

// Config shared by all the parts of a compilation.
type Config struct {
	Capabilities hwcaps.HardwareCapabilities
	Compilation  options.CompilationOptions
	Estimation   options.EstimationOptions

	// DebugStripeConfig overrides the stripe config of selected parts. It may be nil.
	DebugStripeConfig *stripes.DebugStripeConfig

	// Weights caches the encoded weights. If nil the parts encode weights every time.
	Weights *WeightEncoderCache
}

// NewConfig returns a Config with a new weight encoder cache.
func NewConfig(caps hwcaps.HardwareCapabilities, compilation options.CompilationOptions,
	estimation options.EstimationOptions) *Config {
	return &Config{
		Capabilities: caps,
		Compilation:  compilation,
		Estimation:   estimation,
		Weights:      NewWeightEncoderCache(),
	}
}

// BasePart implements the common methods of Part. It is embedded by all parts.
type BasePart struct {
	id           PartID
	kind         PartKind
	debugTag     string
	operationIDs sets.Set[int]
	config       *Config
}

func newBasePart(id PartID, kind PartKind, operationIDs sets.Set[int], config *Config) BasePart {
	return BasePart{
		id:           id,
		kind:         kind,
		debugTag:     fmt.Sprintf("%sPart %d", kind, id),
		operationIDs: operationIDs.Clone(),
		config:       config,
	}
}

// ID implements Part.
func (p *BasePart) ID() PartID { return p.id }

// Kind implements Part.
func (p *BasePart) Kind() PartKind { return p.kind }

// DebugTag implements Part.
func (p *BasePart) DebugTag() string { return p.debugTag }

// OperationIDs implements Part.
func (p *BasePart) OperationIDs() sets.Set[int] { return p.operationIDs }

// CanDoubleBufferWeights implements Part.
func (p *BasePart) CanDoubleBufferWeights() bool { return false }

// MceOperation implements Part.
func (p *BasePart) MceOperation() (graph.MceOperation, bool) { return 0, false }

// String implements fmt.Stringer.
func (p *BasePart) String() string { return p.debugTag }

// loadStripeConfig returns the stripe config of the part: the default one for the compilation options, with the
// overrides of the debug stripe config file.
func (p *BasePart) loadStripeConfig() (stripes.StripeConfig, error) {
	return stripes.GetDefaultStripeConfig(&p.config.Compilation, p.debugTag, p.config.DebugStripeConfig)
}

// addNewPlan tags all ops of the plan with the part's operation ids and appends it to plans if it is valid.
func (p *BasePart) addNewPlan(plans []*Plan, plan *Plan) []*Plan {
	for _, opID := range plan.OpGraph.OpIDs() {
		op := plan.OpGraph.Op(opID)
		if op.Base().OperationIDs == nil {
			op.Base().OperationIDs = sets.Make[int]()
		}
		op.Base().OperationIDs.InsertSet(p.operationIDs)
	}
	if !IsPlanValid(p.config.Capabilities, plan) {
		if klog.V(3).Enabled() {
			klog.Infof("%s: dropping plan using %d bytes of SRAM", p.debugTag, plan.SramSize())
		}
		return plans
	}
	return append(plans, plan)
}
