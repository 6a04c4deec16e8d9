// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package parts

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/support/sets"
)

// The parts in this file only work on DRAM buffers, so they have a single plan, and only when not cascaded.

// firstOperationID returns the smallest operation id, or 0 if there are none.
func firstOperationID(ids sets.Set[int]) int {
	sorted := sets.Sorted(ids)
	if len(sorted) == 0 {
		return 0
	}
	return sorted[0]
}

// InputPart is a network input, in DRAM.
type InputPart struct {
	BasePart
	output tensorInfo
	format opgraph.BufferFormat
}

var _ Part = (*InputPart)(nil)

// NewInputPart creates the part for the Input node.
func NewInputPart(id PartID, node *graph.Node, config *Config) *InputPart {
	return &InputPart{
		BasePart: newBasePart(id, PartKindInput, node.OperationIDs, config),
		output:   nodeTensorInfo(node),
		format:   opgraph.BufferFormatFromDataFormat(node.Format),
	}
}

// GetPlans implements Part.
func (p *InputPart) GetPlans(cascadeType opgraph.CascadeType, _ hwcaps.BlockConfig, _ *opgraph.Buffer, _ uint32) []*Plan {
	if cascadeType != opgraph.CascadeTypeLonely {
		return nil
	}
	plan := NewPlan()
	buffer := dramBuffer(p.output, p.format, opgraph.BufferTypeInput)
	buffer.OperationID = firstOperationID(p.operationIDs)
	buffer.DebugTag = fmt.Sprintf("%s Input", p.debugTag)
	plan.OutputMappings[plan.OpGraph.AddBuffer(buffer)] = PartOutputSlot{PartID: p.id, Index: 0}
	return p.addNewPlan(nil, plan)
}

// OutputPart is a network output, in DRAM.
type OutputPart struct {
	BasePart
	input  tensorInfo
	format opgraph.BufferFormat
	index  int
}

var _ Part = (*OutputPart)(nil)

// NewOutputPart creates the part for the Output node, fed by the input node.
func NewOutputPart(id PartID, node, input *graph.Node, config *Config) (*OutputPart, error) {
	attrs, ok := node.Attributes.(graph.OutputAttributes)
	if !ok {
		return nil, errors.Errorf("node %s is not a network output", node)
	}
	return &OutputPart{
		BasePart: newBasePart(id, PartKindOutput, node.OperationIDs, config),
		input:    nodeTensorInfo(input),
		format:   opgraph.BufferFormatFromDataFormat(node.Format),
		index:    attrs.Index,
	}, nil
}

// GetPlans implements Part.
func (p *OutputPart) GetPlans(cascadeType opgraph.CascadeType, _ hwcaps.BlockConfig, _ *opgraph.Buffer, _ uint32) []*Plan {
	if cascadeType != opgraph.CascadeTypeLonely {
		return nil
	}
	plan := NewPlan()
	buffer := dramBuffer(p.input, p.format, opgraph.BufferTypeOutput)
	buffer.OperationID = firstOperationID(p.operationIDs)
	buffer.ProducerOutputIndex = 0
	buffer.DebugTag = fmt.Sprintf("%s Output%d", p.debugTag, p.index)
	plan.InputMappings[plan.OpGraph.AddBuffer(buffer)] = PartInputSlot{PartID: p.id, Index: 0}
	return p.addNewPlan(nil, plan)
}

// ConstantPart is constant data, in DRAM.
type ConstantPart struct {
	BasePart
	output tensorInfo
	data   []byte
}

var _ Part = (*ConstantPart)(nil)

// NewConstantPart creates the part for the Constant node.
func NewConstantPart(id PartID, node *graph.Node, config *Config) (*ConstantPart, error) {
	attrs, ok := node.Attributes.(graph.ConstantAttributes)
	if !ok {
		return nil, errors.Errorf("node %s is not a constant", node)
	}
	return &ConstantPart{
		BasePart: newBasePart(id, PartKindConstant, node.OperationIDs, config),
		output:   nodeTensorInfo(node),
		data:     attrs.Data,
	}, nil
}

// GetPlans implements Part.
func (p *ConstantPart) GetPlans(cascadeType opgraph.CascadeType, _ hwcaps.BlockConfig, _ *opgraph.Buffer, _ uint32) []*Plan {
	if cascadeType != opgraph.CascadeTypeLonely {
		return nil
	}
	plan := NewPlan()
	buffer := dramBuffer(p.output, opgraph.BufferFormatNHWC, opgraph.BufferTypeConstantDma)
	buffer.ConstantData = p.data
	buffer.DebugTag = fmt.Sprintf("%s Constant", p.debugTag)
	plan.OutputMappings[plan.OpGraph.AddBuffer(buffer)] = PartOutputSlot{PartID: p.id, Index: 0}
	return p.addNewPlan(nil, plan)
}

// ConcatPart concatenates its inputs in DRAM.
type ConcatPart struct {
	BasePart
	inputs []tensorInfo
	output tensorInfo
	axis   int
}

var _ Part = (*ConcatPart)(nil)

// NewConcatPart creates the part for the Concat node, fed by the inputs nodes.
func NewConcatPart(id PartID, node *graph.Node, inputs []*graph.Node, config *Config) (*ConcatPart, error) {
	attrs, ok := node.Attributes.(graph.ConcatAttributes)
	if !ok {
		return nil, errors.Errorf("node %s is not a concatenation", node)
	}
	p := &ConcatPart{
		BasePart: newBasePart(id, PartKindConcat, node.OperationIDs, config),
		output:   nodeTensorInfo(node),
		axis:     attrs.Axis,
	}
	for _, input := range inputs {
		p.inputs = append(p.inputs, nodeTensorInfo(input))
	}
	return p, nil
}

// GetPlans implements Part.
func (p *ConcatPart) GetPlans(cascadeType opgraph.CascadeType, _ hwcaps.BlockConfig, _ *opgraph.Buffer, _ uint32) []*Plan {
	if cascadeType != opgraph.CascadeTypeLonely {
		return nil
	}
	op := &opgraph.ConcatOp{
		OpBase: opgraph.OpBase{Lifetime: opgraph.LifetimeAtomic, DebugTag: fmt.Sprintf("%s Concat", p.debugTag)},
		Axis:   p.axis,
	}
	return p.addNewPlan(nil, dramOnlyPlan(p.id, op, p.inputs, p.output))
}

// dramOnlyPlan returns the plan where op reads one DRAM buffer per input and writes the output in DRAM.
func dramOnlyPlan(id PartID, op opgraph.Op, inputs []tensorInfo, output tensorInfo) *Plan {
	plan := NewPlan()
	g := plan.OpGraph
	inIDs := make([]opgraph.BufferID, len(inputs))
	for ii, input := range inputs {
		inIDs[ii] = g.AddBuffer(dramBuffer(input, opgraph.BufferFormatNHWCB, opgraph.BufferTypeIntermediate))
		plan.InputMappings[inIDs[ii]] = PartInputSlot{PartID: id, Index: ii}
	}
	opID := g.AddOp(op)
	for ii, inID := range inIDs {
		g.AddConsumer(inID, opID, ii)
	}
	outID := g.AddBuffer(dramBuffer(output, opgraph.BufferFormatNHWCB, opgraph.BufferTypeIntermediate))
	g.SetProducer(outID, opID)
	plan.OutputMappings[outID] = PartOutputSlot{PartID: id, Index: 0}
	return plan
}

// ReinterpretPart views its input with another shape. The input and the output are the same DRAM buffer.
type ReinterpretPart struct {
	BasePart
	output tensorInfo
}

var _ Part = (*ReinterpretPart)(nil)

// NewReinterpretPart creates the part for the Reinterpret node.
func NewReinterpretPart(id PartID, node *graph.Node, config *Config) *ReinterpretPart {
	return &ReinterpretPart{
		BasePart: newBasePart(id, PartKindReinterpret, node.OperationIDs, config),
		output:   nodeTensorInfo(node),
	}
}

// GetPlans implements Part.
func (p *ReinterpretPart) GetPlans(cascadeType opgraph.CascadeType, _ hwcaps.BlockConfig, _ *opgraph.Buffer, _ uint32) []*Plan {
	if cascadeType != opgraph.CascadeTypeLonely {
		return nil
	}
	plan := NewPlan()
	buffer := dramBuffer(p.output, opgraph.BufferFormatNHWC, opgraph.BufferTypeIntermediate)
	buffer.DebugTag = fmt.Sprintf("%s Reinterpret", p.debugTag)
	id := plan.OpGraph.AddBuffer(buffer)
	plan.InputMappings[id] = PartInputSlot{PartID: p.id, Index: 0}
	plan.OutputMappings[id] = PartOutputSlot{PartID: p.id, Index: 0}
	return p.addNewPlan(nil, plan)
}

// EstimateOnlyPart stands for an operation the compiler can't lower. Its plan only counts its DRAM traffic.
type EstimateOnlyPart struct {
	BasePart
	inputs []tensorInfo
	output tensorInfo
	reason string
}

var _ Part = (*EstimateOnlyPart)(nil)

// NewEstimateOnlyPart creates the part for the EstimateOnly node, fed by the inputs nodes.
func NewEstimateOnlyPart(id PartID, node *graph.Node, inputs []*graph.Node, config *Config) (*EstimateOnlyPart, error) {
	attrs, ok := node.Attributes.(graph.EstimateOnlyAttributes)
	if !ok {
		return nil, errors.Errorf("node %s is not estimate-only", node)
	}
	p := &EstimateOnlyPart{
		BasePart: newBasePart(id, PartKindEstimateOnly, node.OperationIDs, config),
		output:   nodeTensorInfo(node),
		reason:   attrs.Reason,
	}
	for _, input := range inputs {
		p.inputs = append(p.inputs, nodeTensorInfo(input))
	}
	return p, nil
}

// Reason why the operation is only estimated.
func (p *EstimateOnlyPart) Reason() string { return p.reason }

// GetPlans implements Part.
func (p *EstimateOnlyPart) GetPlans(cascadeType opgraph.CascadeType, _ hwcaps.BlockConfig, _ *opgraph.Buffer, _ uint32) []*Plan {
	if cascadeType != opgraph.CascadeTypeLonely {
		return nil
	}
	op := &opgraph.DummyOp{
		OpBase: opgraph.OpBase{Lifetime: opgraph.LifetimeAtomic, DebugTag: fmt.Sprintf("%s EstimateOnly: %s", p.debugTag, p.reason)},
	}
	return p.addNewPlan(nil, dramOnlyPlan(p.id, op, p.inputs, p.output))
}
