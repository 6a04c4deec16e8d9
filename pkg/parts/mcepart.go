// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package parts

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/stripes"
)

// McePart is a convolution, depthwise convolution or fully connected operation, with the clamping of a
// following McePostProcess node folded in.
//
// Its plans either run the MCE followed by a passthrough PLE, with the output in SRAM, or only the MCE, with
// the output left in the PLE input SRAM for a following FusedPlePart.
type McePart struct {
	BasePart

	input, output tensorInfo
	attrs         graph.MceAttributes

	lowerBound, upperBound int16
	stripeConfig           stripes.StripeConfig
}

var _ Part = (*McePart)(nil)

// NewMcePart creates the part for the MCE node, fed by the input node. postProcess is the optional
// McePostProcess node following the MCE node, whose clamping is folded into the MCE.
func NewMcePart(id PartID, mce, input, postProcess *graph.Node, config *Config) (*McePart, error) {
	attrs, ok := mce.Attributes.(graph.MceAttributes)
	if !ok {
		return nil, errors.Errorf("node %s is not an MCE operation", mce)
	}
	operationIDs := mce.OperationIDs.Clone()
	output := nodeTensorInfo(mce)
	lowerBound, upperBound := attrs.LowerBound, attrs.UpperBound
	if lowerBound == 0 && upperBound == 0 {
		lowerBound, upperBound = lowerBoundOf(mce.DataType), upperBoundOf(mce.DataType)
	}
	if postProcess != nil {
		pp, ok := postProcess.Attributes.(graph.McePostProcessAttributes)
		if !ok {
			return nil, errors.Errorf("node %s is not an MCE post-process", postProcess)
		}
		lowerBound, upperBound = max(lowerBound, pp.LowerBound), min(upperBound, pp.UpperBound)
		operationIDs.InsertSet(postProcess.OperationIDs)
		output = nodeTensorInfo(postProcess)
	}
	p := &McePart{
		BasePart:   newBasePart(id, PartKindMce, operationIDs, config),
		input:      nodeTensorInfo(input),
		output:     output,
		attrs:      attrs,
		lowerBound: lowerBound,
		upperBound: upperBound,
	}
	var err error
	p.stripeConfig, err = p.loadStripeConfig()
	if err != nil {
		return nil, errors.WithMessagef(err, "stripe config of %s", p.debugTag)
	}
	return p, nil
}

// CanDoubleBufferWeights implements Part.
func (p *McePart) CanDoubleBufferWeights() bool { return true }

// MceOperation implements Part.
func (p *McePart) MceOperation() (graph.MceOperation, bool) { return p.attrs.Operation, true }

// InputShape is the shape of the tensor fed to the MCE.
func (p *McePart) InputShape() tensor.Shape { return p.input.Shape }

// OutputShape is the shape of the tensor produced by the part.
func (p *McePart) OutputShape() tensor.Shape { return p.output.Shape }

// Attributes of the MCE operation.
func (p *McePart) Attributes() graph.MceAttributes { return p.attrs }

func (p *McePart) stripeGenerator(blockConfig hwcaps.BlockConfig) *stripes.StripeGenerator {
	upscale := max(p.attrs.UpscaleFactor, 1)
	return &stripes.StripeGenerator{
		MceInputTensorShape:  p.input.Shape,
		MceOutputTensorShape: p.output.Shape,
		PleOutputTensorShape: p.output.Shape,
		KernelHeight:         p.attrs.Weights.Shape[0],
		KernelWidth:          p.attrs.Weights.Shape[1],
		PadTop:               p.attrs.Padding.Top,
		PadLeft:              p.attrs.Padding.Left,
		Stride:               p.attrs.Stride,
		UpscaleFactor:        upscale,
		Operation:            p.attrs.Operation,
		PleOperation:         graph.PleOperationPassthrough,
		MceShapeMultiplier: tensor.ShapeMultiplier{
			H: tensor.Fraction{Numerator: upscale, Denominator: max(p.attrs.Stride.Y, 1)},
			W: tensor.Fraction{Numerator: upscale, Denominator: max(p.attrs.Stride.X, 1)},
			C: tensor.One,
		},
		PleShapeMultiplier: tensor.IdentityShapeMultiplier,
		Capabilities:       p.config.Capabilities,
		Config:             restrictBlockConfigs(p.stripeConfig, blockConfig),
	}
}

// restrictBlockConfigs returns the config with only the given block config, if it is not zero.
func restrictBlockConfigs(config stripes.StripeConfig, blockConfig hwcaps.BlockConfig) stripes.StripeConfig {
	if blockConfig.IsZero() {
		return config
	}
	config = config.Clone()
	if slices.Contains(config.BlockConfigs, blockConfig) {
		config.BlockConfigs = []hwcaps.BlockConfig{blockConfig}
	} else {
		config.BlockConfigs = nil
	}
	return config
}

// inputMatchesPrevBuffer returns whether a plan reading an SRAM input of the given stripe shape and number
// of stripes can share the output buffer of the previous plan in the cascade.
func inputMatchesPrevBuffer(cascadeType opgraph.CascadeType, prevBuffer *opgraph.Buffer, location opgraph.Location,
	stripeShape tensor.Shape, numStripes uint32) bool {
	if cascadeType != opgraph.CascadeTypeMiddle && cascadeType != opgraph.CascadeTypeEnd {
		return true
	}
	return prevBuffer.Location == location && prevBuffer.StripeShape == stripeShape && prevBuffer.NumStripes == numStripes
}

// GetPlans implements Part.
func (p *McePart) GetPlans(cascadeType opgraph.CascadeType, blockConfig hwcaps.BlockConfig, prevBuffer *opgraph.Buffer,
	numWeightStripes uint32) []*Plan {
	if !p.stripeConfig.PlanTypes.IsEnabled(cascadeType) {
		return nil
	}
	if cascadeType == opgraph.CascadeTypeMiddle || cascadeType == opgraph.CascadeTypeEnd {
		if prevBuffer == nil || prevBuffer.Location != opgraph.LocationSram {
			return nil
		}
	}
	infos := p.stripeGenerator(blockConfig).GenerateStripes(cascadeType)
	lifetime := lifetimeFor(cascadeType)
	accept := func(memory stripes.MemoryStripesInfo, num stripes.NumMemoryStripes) bool {
		if numWeightStripes != 0 && num.Weight != numWeightStripes {
			return false
		}
		return inputMatchesPrevBuffer(cascadeType, prevBuffer, opgraph.LocationSram, memory.Input.Shape, num.Input)
	}

	var plans []*Plan
	for _, info := range infos.SortedMceAndPleInfos() {
		forEachNumStripes(info.Memory, func(num stripes.NumMemoryStripes) {
			if accept(info.Memory, num) {
				plans = p.addNewPlan(plans, p.mceAndIdentityPlePlan(info, num, lifetime))
			}
		})
	}
	// The MCE output can only be left in the PLE input SRAM for a following part of the cascade.
	if cascadeType == opgraph.CascadeTypeBeginning || cascadeType == opgraph.CascadeTypeMiddle {
		for _, info := range infos.SortedMceOnlyInfos() {
			forEachNumStripes(info.Memory, func(num stripes.NumMemoryStripes) {
				if accept(info.Memory, num) {
					plans = p.addNewPlan(plans, p.mceOnlyPlan(info, num, lifetime))
				}
			})
		}
	}
	return plans
}

func (p *McePart) newMceOp(lifetime opgraph.Lifetime) *opgraph.MceOp {
	return &opgraph.MceOp{
		OpBase:        opgraph.OpBase{Lifetime: lifetime, DebugTag: fmt.Sprintf("%s Mce", p.debugTag)},
		Operation:     p.attrs.Operation,
		Algorithm:     p.attrs.Algorithm,
		Order:         opgraph.TraversalOrderXyz,
		Stride:        p.attrs.Stride,
		PadLeft:       p.attrs.Padding.Left,
		PadTop:        p.attrs.Padding.Top,
		UpscaleFactor: max(p.attrs.UpscaleFactor, 1),
		LowerBound:    p.lowerBound,
		UpperBound:    p.upperBound,
	}
}

func (p *McePart) conv() convData {
	return convData{Owner: p.debugTag, Weights: p.attrs.Weights, Bias: p.attrs.Bias}
}

func (p *McePart) mceAndIdentityPlePlan(info stripes.MceAndPleInfo, num stripes.NumMemoryStripes,
	lifetime opgraph.Lifetime) *Plan {
	plan := NewPlan()
	g := plan.OpGraph
	pleInID := addPleInBuffer(g, p.output, info.Memory.PleInput.Shape, num.PleInput)
	inID := p.addMceToOpGraph(g, p.newMceOp(lifetime), info.MceCompute, info.Memory, num, pleInID, p.input,
		p.attrs.Weights.Shape[0], p.conv())
	pleOp := &opgraph.PleOp{
		OpBase:            opgraph.OpBase{Lifetime: lifetime, DebugTag: fmt.Sprintf("%s Ple", p.debugTag)},
		Operation:         graph.PleOperationPassthrough,
		BlockConfig:       info.MceCompute.BlockConfig,
		NumInputs:         1,
		InputStripeShapes: []tensor.Shape{info.PleCompute.Input},
		OutputStripeShape: info.PleCompute.Output,
		DataType:          p.output.DataType,
		LoadKernel:        true,
	}
	outID, pleID := p.addPleToOpGraph(g, pleOp, info.Memory.Output.Shape, num.Output, p.output)
	g.AddConsumer(pleInID, pleID, 0)
	plan.InputMappings[inID] = PartInputSlot{PartID: p.id, Index: 0}
	plan.OutputMappings[outID] = PartOutputSlot{PartID: p.id, Index: 0}
	return plan
}

func (p *McePart) mceOnlyPlan(info stripes.MceOnlyInfo, num stripes.NumMemoryStripes, lifetime opgraph.Lifetime) *Plan {
	plan := NewPlan()
	g := plan.OpGraph
	outID := addPleInBuffer(g, p.output, info.Memory.PleInput.Shape, num.PleInput)
	inID := p.addMceToOpGraph(g, p.newMceOp(lifetime), info.MceCompute, info.Memory, num, outID, p.input,
		p.attrs.Weights.Shape[0], p.conv())
	plan.InputMappings[inID] = PartInputSlot{PartID: p.id, Index: 0}
	plan.OutputMappings[outID] = PartOutputSlot{PartID: p.id, Index: 0}
	return plan
}
