// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package parts

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/stripes"
)

// FusedPlePart is a PLE kernel that reads the output of an MCE from the PLE input SRAM.
//
// Following an McePart that left its output in the PLE input SRAM, its plans only run the PLE. Otherwise
// they run an identity MCE in front of the kernel.
type FusedPlePart struct {
	BasePart

	input, output tensorInfo
	operation     graph.PleOperation
	multiplier    tensor.ShapeMultiplier
	stripeConfig  stripes.StripeConfig
}

var _ Part = (*FusedPlePart)(nil)

// NewFusedPlePart creates the part for the FuseOnlyPle node, fed by the input node.
func NewFusedPlePart(id PartID, node, input *graph.Node, config *Config) (*FusedPlePart, error) {
	attrs, ok := node.Attributes.(graph.FuseOnlyPleAttributes)
	if !ok {
		return nil, errors.Errorf("node %s is not a fused PLE operation", node)
	}
	p := &FusedPlePart{
		BasePart:   newBasePart(id, PartKindFusedPle, node.OperationIDs, config),
		input:      nodeTensorInfo(input),
		output:     nodeTensorInfo(node),
		operation:  attrs.Operation,
		multiplier: attrs.ShapeMultiplier,
	}
	var err error
	p.stripeConfig, err = p.loadStripeConfig()
	if err != nil {
		return nil, errors.WithMessagef(err, "stripe config of %s", p.debugTag)
	}
	return p, nil
}

// Operation is the PLE kernel run by the part.
func (p *FusedPlePart) Operation() graph.PleOperation { return p.operation }

func (p *FusedPlePart) stripeGenerator(blockConfig hwcaps.BlockConfig) *stripes.StripeGenerator {
	return &stripes.StripeGenerator{
		MceInputTensorShape:  p.input.Shape,
		MceOutputTensorShape: p.input.Shape,
		PleOutputTensorShape: p.output.Shape,
		KernelHeight:         1,
		KernelWidth:          1,
		Stride:               tensor.UnitStride,
		UpscaleFactor:        1,
		Operation:            graph.MceOperationDepthwiseConvolution,
		PleOperation:         p.operation,
		MceShapeMultiplier:   tensor.IdentityShapeMultiplier,
		PleShapeMultiplier:   p.multiplier,
		Capabilities:         p.config.Capabilities,
		Config:               restrictBlockConfigs(p.stripeConfig, blockConfig),
	}
}

// GetPlans implements Part.
func (p *FusedPlePart) GetPlans(cascadeType opgraph.CascadeType, blockConfig hwcaps.BlockConfig,
	prevBuffer *opgraph.Buffer, numWeightStripes uint32) []*Plan {
	if !p.stripeConfig.PlanTypes.IsEnabled(cascadeType) {
		return nil
	}
	pleOnly := false
	if cascadeType == opgraph.CascadeTypeMiddle || cascadeType == opgraph.CascadeTypeEnd {
		if prevBuffer == nil {
			return nil
		}
		switch prevBuffer.Location {
		case opgraph.LocationPleInputSram:
			pleOnly = true
		case opgraph.LocationSram:
		default:
			return nil
		}
	}
	infos := p.stripeGenerator(blockConfig).GenerateStripes(cascadeType)
	lifetime := lifetimeFor(cascadeType)

	var plans []*Plan
	if pleOnly {
		for _, info := range infos.SortedPleOnlyInfos() {
			forEachNumStripes(info.Memory, func(num stripes.NumMemoryStripes) {
				if inputMatchesPrevBuffer(cascadeType, prevBuffer, opgraph.LocationPleInputSram, info.Memory.PleInput.Shape,
					num.PleInput) {
					plans = p.addNewPlan(plans, p.pleOnlyPlan(info, num, lifetime))
				}
			})
		}
		return plans
	}
	for _, info := range infos.SortedMceAndPleInfos() {
		forEachNumStripes(info.Memory, func(num stripes.NumMemoryStripes) {
			if numWeightStripes != 0 && num.Weight != numWeightStripes {
				return
			}
			if inputMatchesPrevBuffer(cascadeType, prevBuffer, opgraph.LocationSram, info.Memory.Input.Shape, num.Input) {
				plans = p.addNewPlan(plans, p.identityMceAndFusedPlePlan(info, num, lifetime))
			}
		})
	}
	return plans
}

func (p *FusedPlePart) newPleOp(lifetime opgraph.Lifetime, info stripes.PleStripesInfo) *opgraph.PleOp {
	multiplier, shift := tensor.RescaleMultiplierAndShift(
		float64(p.input.Quantization.Scale) / float64(max(p.output.Quantization.Scale, 1e-12)))
	return &opgraph.PleOp{
		OpBase:            opgraph.OpBase{Lifetime: lifetime, DebugTag: fmt.Sprintf("%s Ple", p.debugTag)},
		Operation:         p.operation,
		BlockConfig:       info.BlockConfig,
		NumInputs:         1,
		InputStripeShapes: []tensor.Shape{info.Input},
		OutputStripeShape: info.Output,
		DataType:          p.output.DataType,
		LoadKernel:        true,
		Input0Multiplier:  multiplier,
		Input0Shift:       shift,
	}
}

func (p *FusedPlePart) identityMceAndFusedPlePlan(info stripes.MceAndPleInfo, num stripes.NumMemoryStripes,
	lifetime opgraph.Lifetime) *Plan {
	plan := NewPlan()
	g := plan.OpGraph
	inID, pleInID := p.addIdentityMce(g, lifetime, info.MceCompute, info.Memory, num, p.input)
	outID, pleID := p.addPleToOpGraph(g, p.newPleOp(lifetime, info.PleCompute), info.Memory.Output.Shape, num.Output,
		p.output)
	g.AddConsumer(pleInID, pleID, 0)
	plan.InputMappings[inID] = PartInputSlot{PartID: p.id, Index: 0}
	plan.OutputMappings[outID] = PartOutputSlot{PartID: p.id, Index: 0}
	return plan
}

func (p *FusedPlePart) pleOnlyPlan(info stripes.PleOnlyInfo, num stripes.NumMemoryStripes, lifetime opgraph.Lifetime) *Plan {
	plan := NewPlan()
	g := plan.OpGraph
	pleInID := addPleInBuffer(g, p.input, info.Memory.PleInput.Shape, num.PleInput)
	outID, pleID := p.addPleToOpGraph(g, p.newPleOp(lifetime, info.PleCompute), info.Memory.Output.Shape, num.Output,
		p.output)
	g.AddConsumer(pleInID, pleID, 0)
	plan.InputMappings[pleInID] = PartInputSlot{PartID: p.id, Index: 0}
	plan.OutputMappings[outID] = PartOutputSlot{PartID: p.id, Index: 0}
	return plan
}
