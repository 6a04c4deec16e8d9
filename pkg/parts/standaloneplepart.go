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

// standaloneBlockConfig is given to standalone PLE kernels, which ignore it.
var standaloneBlockConfig = hwcaps.BlockConfig{Width: 16, Height: 16}

// StandalonePlePart is a PLE kernel reading its inputs from SRAM, without an MCE operation.
type StandalonePlePart struct {
	BasePart

	inputs       []tensorInfo
	output       tensorInfo
	operation    graph.PleOperation
	stripeConfig stripes.StripeConfig

	input0Multiplier, input0Shift uint16
	input1Multiplier, input1Shift uint16
}

var _ Part = (*StandalonePlePart)(nil)

// NewStandalonePlePart creates the part for the StandalonePle node, fed by the inputs nodes.
func NewStandalonePlePart(id PartID, node *graph.Node, inputs []*graph.Node, config *Config) (*StandalonePlePart, error) {
	attrs, ok := node.Attributes.(graph.StandalonePleAttributes)
	if !ok {
		return nil, errors.Errorf("node %s is not a standalone PLE operation", node)
	}
	if len(inputs) != attrs.Operation.NumInputs() {
		return nil, errors.Errorf("standalone PLE operation %s takes %d inputs, got %d", attrs.Operation,
			attrs.Operation.NumInputs(), len(inputs))
	}
	p := &StandalonePlePart{
		BasePart:  newBasePart(id, PartKindStandalonePle, node.OperationIDs, config),
		output:    nodeTensorInfo(node),
		operation: attrs.Operation,
	}
	for _, input := range inputs {
		p.inputs = append(p.inputs, nodeTensorInfo(input))
	}
	outputScale := float64(max(p.output.Quantization.Scale, 1e-12))
	p.input0Multiplier, p.input0Shift = tensor.RescaleMultiplierAndShift(float64(p.inputs[0].Quantization.Scale) / outputScale)
	if len(p.inputs) == 2 {
		p.input1Multiplier, p.input1Shift = tensor.RescaleMultiplierAndShift(float64(p.inputs[1].Quantization.Scale) / outputScale)
	}
	var err error
	p.stripeConfig, err = p.loadStripeConfig()
	if err != nil {
		return nil, errors.WithMessagef(err, "stripe config of %s", p.debugTag)
	}
	return p, nil
}

// Operation is the PLE kernel run by the part.
func (p *StandalonePlePart) Operation() graph.PleOperation { return p.operation }

// GetPlans implements Part. The block config and the number of weight stripes are ignored.
func (p *StandalonePlePart) GetPlans(cascadeType opgraph.CascadeType, _ hwcaps.BlockConfig, prevBuffer *opgraph.Buffer,
	_ uint32) []*Plan {
	if !p.stripeConfig.PlanTypes.IsEnabled(cascadeType) {
		return nil
	}
	inMiddle := cascadeType == opgraph.CascadeTypeMiddle || cascadeType == opgraph.CascadeTypeEnd
	if inMiddle && (prevBuffer == nil || prevBuffer.Location != opgraph.LocationSram) {
		return nil
	}

	config := p.stripeConfig.Clone()
	switch p.operation {
	case graph.PleOperationAddition, graph.PleOperationAdditionRescale:
		// With two inputs they can't be in the middle of a cascade of single input parts.
		if cascadeType != opgraph.CascadeTypeLonely {
			return nil
		}
	case graph.PleOperationAvgPool3x3_1_1Udma:
		// The kernel needs the whole height and width, so it can only be cascaded if the previous part
		// produces the full tensor.
		config.DisableSplitWidth()
		config.DisableSplitHeight()
		if cascadeType != opgraph.CascadeTypeLonely {
			config.DisableSplitInputDepth()
			config.DisableSplitOutputDepth()
		}
		if inMiddle {
			in := p.inputs[0].Shape
			prev := prevBuffer.StripeShape
			if prev.Height() < in.Height() || prev.Width() < in.Width() || prev.Channels() < in.Channels() {
				return nil
			}
		}
	default:
		return nil
	}

	brickGroup := p.config.Capabilities.BrickGroupShape
	outputShape := p.output.Shape
	var plans []*Plan
	addPlan := func(encoding tensor.Shape) {
		stripe := stripes.CreateStripe(outputShape, encoding, brickGroup[tensor.AxisChannels])
		if inMiddle && !inputMatchesPrevBuffer(cascadeType, prevBuffer, opgraph.LocationSram, stripe, standaloneNumStripes) {
			return
		}
		plans = p.addNewPlan(plans, p.plan(stripe, lifetimeFor(cascadeType)))
	}

	if config.Splits.None {
		addPlan(tensor.Shape{})
	}
	if config.Splits.WidthOnly {
		addPlan(tensor.Shape{0, 0, brickGroup[tensor.AxisWidth], 0})
	}
	if config.Splits.MceAndPleOutputHeight {
		addPlan(tensor.Shape{0, brickGroup[tensor.AxisHeight], 0, 0})
	}
	if cascadeType == opgraph.CascadeTypeLonely {
		if config.Splits.OutputDepthInputDepth {
			addPlan(tensor.Shape{0, 0, 0, brickGroup[tensor.AxisChannels]})
		}
		if config.Splits.WidthHeightOutputDepthInputDepth {
			for _, height := range stripeSizesInclusive(outputShape.Height(), brickGroup[tensor.AxisHeight],
				config.BlockHeightMultiplier) {
				for _, width := range stripeSizesInclusive(outputShape.Width(), brickGroup[tensor.AxisWidth],
					config.BlockWidthMultiplier) {
					for _, depth := range stripeSizesInclusive(outputShape.Channels(), brickGroup[tensor.AxisChannels],
						config.OfmDepthMultiplier) {
						addPlan(tensor.Shape{0, height, width, depth})
					}
				}
			}
		}
	}
	return plans
}

// standaloneNumStripes is the number of slots of the input and output buffers of standalone PLE plans.
const standaloneNumStripes = 2

// stripeSizesInclusive returns the multiples of base by the powers of 2 in the range that are smaller than
// size, followed by size itself, so that plans splitting only some of the dimensions are generated.
func stripeSizesInclusive(size, base uint32, multipliers stripes.MultiplierRange) []uint32 {
	var result []uint32
	for m := max(multipliers.Min, 1); m <= multipliers.Max && base*m < size; m *= 2 {
		result = append(result, base*m)
		if m > multipliers.Max/2 {
			break
		}
	}
	return append(result, size)
}

func (p *StandalonePlePart) plan(stripe tensor.Shape, lifetime opgraph.Lifetime) *Plan {
	plan := NewPlan()
	g := plan.OpGraph
	inputStripes := make([]tensor.Shape, len(p.inputs))
	for ii := range inputStripes {
		inputStripes[ii] = stripe
	}
	pleOp := &opgraph.PleOp{
		OpBase:            opgraph.OpBase{Lifetime: lifetime, DebugTag: fmt.Sprintf("%s Ple", p.debugTag)},
		Operation:         p.operation,
		BlockConfig:       standaloneBlockConfig,
		NumInputs:         uint32(len(p.inputs)),
		InputStripeShapes: inputStripes,
		OutputStripeShape: stripe,
		DataType:          p.output.DataType,
		LoadKernel:        true,
		Input0Multiplier:  p.input0Multiplier,
		Input0Shift:       p.input0Shift,
		Input1Multiplier:  p.input1Multiplier,
		Input1Shift:       p.input1Shift,
	}
	inIDs := make([]opgraph.BufferID, len(p.inputs))
	for ii, input := range p.inputs {
		inIDs[ii] = g.AddBuffer(p.sramBuffer(input, stripe, standaloneNumStripes))
	}
	outID, pleID := p.addPleToOpGraph(g, pleOp, stripe, standaloneNumStripes, p.output)
	for ii, inID := range inIDs {
		g.AddConsumer(inID, pleID, ii)
		plan.InputMappings[inID] = PartInputSlot{PartID: p.id, Index: ii}
	}
	plan.OutputMappings[outID] = PartOutputSlot{PartID: p.id, Index: 0}
	return plan
}
