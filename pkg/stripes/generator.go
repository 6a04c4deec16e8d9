// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package stripes

import (
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
)

// PackedBoundarySize is the thickness of the neighbouring data packed with a stripe, in elements.
const PackedBoundarySize = 8

// CreateStripe returns the stripe of tensorShape described by the encoding: each dimension is the one
// of the encoding or, if 0, the full tensor. The stripe is clamped to the tensor, its height and width
// rounded up to the brick group and its channels to channelsRounding.
func CreateStripe(tensorShape, encoding tensor.Shape, channelsRounding uint32) tensor.Shape {
	var stripe tensor.Shape
	for axis := range stripe {
		stripe[axis] = tensorShape[axis]
		if encoding[axis] != 0 {
			stripe[axis] = min(encoding[axis], tensorShape[axis])
		}
	}
	stripe = tensor.RoundUpHeightAndWidthToBrickGroup(stripe)
	stripe[tensor.AxisChannels] = tensor.RoundUpToMultiple(stripe[tensor.AxisChannels], channelsRounding)
	return stripe
}

// StripeGenerator enumerates the stripe shapes of a part made of an MCE operation followed by a PLE
// kernel. Parts without an MCE use an identity MCE: a 1x1 depthwise convolution with stride 1.
type StripeGenerator struct {
	MceInputTensorShape  tensor.Shape
	MceOutputTensorShape tensor.Shape
	PleOutputTensorShape tensor.Shape

	KernelHeight, KernelWidth uint32
	PadTop, PadLeft           uint32
	Stride                    tensor.Stride
	UpscaleFactor             uint32

	Operation    graph.MceOperation
	PleOperation graph.PleOperation

	// MceShapeMultiplier maps the MCE input stripe to its output stripe, and PleShapeMultiplier the PLE input
	// stripe to its output stripe.
	MceShapeMultiplier tensor.ShapeMultiplier
	PleShapeMultiplier tensor.ShapeMultiplier

	Capabilities hwcaps.HardwareCapabilities
	Config       StripeConfig
}

// CreateNumStripes returns the ranges of the number of stripe slots of each buffer.
//
// At least 3 input stripes are needed when the MCE requires neighbouring data, for the data above and below.
// Plans at the beginning of a cascade may keep up to 3 output stripes, since the following part may need them
// for its own boundary data. The MCE outputs to PLE input SRAM, which is not counted in stripes.
func (g *StripeGenerator) CreateNumStripes(cascadeType opgraph.CascadeType, requiresBoundaryData bool) (
	input, output, weights, pleInput NumStripes) {
	input = NumStripes{1, 2}
	if requiresBoundaryData {
		input = NumStripes{3, 4}
	}
	weights = NumStripes{1, 2}
	switch cascadeType {
	case opgraph.CascadeTypeBeginning, opgraph.CascadeTypeMiddle, opgraph.CascadeTypeEnd:
		output = NumStripes{1, 3}
	case opgraph.CascadeTypeLonely:
		output = NumStripes{1, 2}
	default:
		exceptions.Panicf("invalid cascade type %s", cascadeType)
	}
	return
}

// ApplyPleKernelSplitRestrictions returns the config with the splits the PLE kernel can't work with
// disabled.
//
// The 3x3 stride 2 max pooling kernels keep state in PLE SRAM across the width, so they can't be streamed
// in width. At the beginning of a cascade they must work on the full tensor.
func (g *StripeGenerator) ApplyPleKernelSplitRestrictions(cascadeType opgraph.CascadeType) StripeConfig {
	result := g.Config.Clone()
	if g.PleOperation == graph.PleOperationMaxPool3x3_2_2Even || g.PleOperation == graph.PleOperationMaxPool3x3_2_2Odd {
		if cascadeType == opgraph.CascadeTypeBeginning {
			result.DisableSplitHeight()
			result.DisableSplitWidth()
			result.DisableSplitInputDepth()
			result.DisableSplitOutputDepth()
		} else {
			result.DisableSplitWidth()
		}
	}
	return result
}

// GenerateStripes returns the candidates for all block configs of the config.
func (g *StripeGenerator) GenerateStripes(cascadeType opgraph.CascadeType) *StripeInfos {
	result := NewStripeInfos()
	for _, blockConfig := range g.Config.BlockConfigs {
		g.generateStripesForBlockConfig(blockConfig, cascadeType, result)
	}
	klog.V(3).Infof("generated %d stripe candidates for %s cascade, MCE input %s", result.Len(), cascadeType,
		g.MceInputTensorShape)
	return result
}

// stripeCandidate holds the arguments of addStripeInfos.
type stripeCandidate struct {
	mceInput, mceOutput, pleInput, pleOutput  tensor.Shape
	inputRange, outputRange, weightRange      NumStripes
	pleInputRange                             NumStripes
	memoryInput, memoryOutput, memoryPleInput tensor.Shape
}

func capToOne(n NumStripes) NumStripes {
	return NumStripes{Min: min(n.Min, 1), Max: min(n.Max, 1)}
}

// multipliers returns the powers of 2 from minValue up to maxValue.
func multipliers(minValue, maxValue uint32) []uint32 {
	var result []uint32
	for m := max(minValue, 1); m <= maxValue; m *= 2 {
		result = append(result, m)
		if m > maxValue/2 {
			break
		}
	}
	return result
}

func (g *StripeGenerator) generateStripesForBlockConfig(blockConfig hwcaps.BlockConfig, cascadeType opgraph.CascadeType,
	out *StripeInfos) {
	numOgs := g.Capabilities.NumberOfOgs()
	brickGroup := g.Capabilities.BrickGroupShape
	brickDepth := brickGroup[tensor.AxisChannels]
	config := g.ApplyPleKernelSplitRestrictions(cascadeType)

	strideMultiplier := g.Stride.Size()
	isDepthwise := g.Operation == graph.MceOperationDepthwiseConvolution
	mceOutputShape := g.MceOutputTensorShape
	outputShape := g.PleOutputTensorShape
	inputShape := g.MceInputTensorShape
	requiresBoundaryData := g.KernelHeight > 1 || g.KernelWidth > 1 || g.UpscaleFactor > 1
	numStripesInput, numStripesOutput, numStripesWeights, numStripesPleInput :=
		g.CreateNumStripes(cascadeType, requiresBoundaryData)

	// The PLE must output at least one brick group per stripe.
	minBlockWidthMultiplier := max(
		brickGroup[tensor.AxisWidth]/max(1, g.PleShapeMultiplier.W.Apply(blockConfig.Width)),
		g.Config.BlockWidthMultiplier.Min, 1)
	maxBlockWidthMultiplier := max(1, min(inputShape.Width()/blockConfig.Width, g.Config.BlockWidthMultiplier.Max))
	minBlockHeightMultiplier := max(
		brickGroup[tensor.AxisHeight]/max(1, g.PleShapeMultiplier.H.Apply(blockConfig.Height)),
		g.Config.BlockHeightMultiplier.Min, 1)
	maxBlockHeightMultiplier := max(1, min(inputShape.Height()/blockConfig.Height, g.Config.BlockHeightMultiplier.Max))
	minIfmDepthMultiplier := max(1, g.Config.IfmDepthMultiplier.Min)
	maxIfmDepthMultiplier := max(1, min(inputShape.Channels()/(numOgs*strideMultiplier), g.Config.IfmDepthMultiplier.Max))
	minOfmDepthMultiplier := max(1, g.Config.OfmDepthMultiplier.Min)
	maxOfmDepthMultiplier := max(1, min(mceOutputShape.Channels()/numOgs, g.Config.OfmDepthMultiplier.Max))

	// fromEncoding builds the common candidate where the MCE output encoding follows the input one, the PLE
	// works on the MCE output stripe and the output is kept in SRAM in stripes.
	fromEncoding := func(mceInputEncoding, mceOutputEncoding tensor.Shape, channelsRounding uint32) stripeCandidate {
		mceInputStripe := CreateStripe(inputShape, mceInputEncoding, brickDepth)
		mceOutputStripe := CreateStripe(mceOutputShape, mceOutputEncoding, channelsRounding)
		pleOutputEncoding := g.PleShapeMultiplier.Apply(mceOutputEncoding)
		return stripeCandidate{
			mceInput:       mceInputStripe,
			mceOutput:      mceOutputStripe,
			pleInput:       mceOutputStripe,
			pleOutput:      CreateStripe(outputShape, pleOutputEncoding, channelsRounding),
			inputRange:     numStripesInput,
			outputRange:    numStripesOutput,
			weightRange:    numStripesWeights,
			pleInputRange:  numStripesPleInput,
			memoryInput:    mceInputStripe,
			memoryOutput:   CreateStripe(outputShape, pleOutputEncoding, brickDepth),
			memoryPleInput: mceOutputStripe,
		}
	}
	add := func(c stripeCandidate) { g.addStripeInfos(blockConfig, c, out) }

	// Smallest stripes first, to minimize the latency before processing starts: split height.
	if config.Splits.MceAndPleOutputHeight {
		encoding := tensor.Shape{0, minBlockHeightMultiplier * blockConfig.Height, 0, 0}
		c := fromEncoding(encoding, g.MceShapeMultiplier.Apply(encoding), brickDepth)
		c.weightRange = capToOne(numStripesWeights)
		add(c)
	}

	// Split only the MCE in height, the output is the full tensor.
	if config.Splits.MceOutputHeightOnly {
		encoding := tensor.Shape{0, minBlockHeightMultiplier * blockConfig.Height, 0, 0}
		c := fromEncoding(encoding, g.MceShapeMultiplier.Apply(encoding), brickDepth)
		c.memoryOutput = CreateStripe(outputShape, tensor.Shape{}, brickDepth)
		c.weightRange = capToOne(numStripesWeights)
		c.outputRange = capToOne(numStripesOutput)
		add(c)
	}

	inputRangeForWidth := numStripesInput
	if g.KernelWidth == 1 {
		inputRangeForWidth = NumStripes{1, 2}
	}
	if config.Splits.WidthOnly {
		encoding := tensor.Shape{0, 0, minBlockWidthMultiplier * blockConfig.Width, 0}
		c := fromEncoding(encoding, g.MceShapeMultiplier.Apply(encoding), brickDepth)
		c.inputRange = inputRangeForWidth
		c.weightRange = capToOne(numStripesWeights)
		add(c)
	}

	if cascadeType == opgraph.CascadeTypeLonely && config.Splits.WidthHeight {
		for _, heightMultiplier := range multipliers(minBlockHeightMultiplier, maxBlockHeightMultiplier) {
			for _, widthMultiplier := range multipliers(minBlockWidthMultiplier, maxBlockWidthMultiplier) {
				encoding := tensor.Shape{0, heightMultiplier * blockConfig.Height, widthMultiplier * blockConfig.Width, 0}
				c := fromEncoding(encoding, g.MceShapeMultiplier.Apply(encoding), brickDepth)
				c.inputRange = inputRangeForWidth
				c.weightRange = capToOne(numStripesWeights)
				add(c)
			}
		}
	}

	// fullPle is the candidate where the MCE output is split in depth but the PLE accumulates the full tensor.
	fullPle := func(mceInputEncoding tensor.Shape) stripeCandidate {
		c := fromEncoding(mceInputEncoding, g.MceShapeMultiplier.Apply(tensor.Shape{0, 0, 0, numOgs}), numOgs)
		c.pleInput = CreateStripe(mceOutputShape, tensor.Shape{}, brickDepth)
		c.pleOutput = CreateStripe(outputShape, tensor.Shape{}, brickDepth)
		c.memoryOutput = CreateStripe(outputShape, tensor.Shape{}, brickDepth)
		return c
	}

	if isDepthwise {
		if cascadeType == opgraph.CascadeTypeLonely {
			if config.Splits.OutputDepthInputDepth {
				for _, ifmMultiplier := range multipliers(minIfmDepthMultiplier, maxIfmDepthMultiplier) {
					// Each output channel of a depthwise convolution needs a single input channel.
					encoding := tensor.Shape{0, 0, 0, ifmMultiplier * numOgs}
					add(fromEncoding(encoding, g.MceShapeMultiplier.Apply(encoding), numOgs))
				}
			}
			if config.Splits.WidthHeightOutputDepthInputDepth {
				for _, heightMultiplier := range multipliers(minBlockHeightMultiplier, maxBlockHeightMultiplier) {
					for _, widthMultiplier := range multipliers(minBlockWidthMultiplier, maxBlockWidthMultiplier) {
						for _, ifmMultiplier := range multipliers(minIfmDepthMultiplier, maxIfmDepthMultiplier) {
							height := heightMultiplier * blockConfig.Height
							width := widthMultiplier * blockConfig.Width
							inputEncoding := tensor.Shape{0, height, width, ifmMultiplier * numOgs * strideMultiplier}
							outputEncoding := g.MceShapeMultiplier.Apply(tensor.Shape{0, height, width, ifmMultiplier * numOgs})
							add(fromEncoding(inputEncoding, outputEncoding, numOgs))
						}
					}
				}
			}
		}
		// Compute split in depth with the memory buffers holding the full tensor.
		if config.Splits.OutputDepthInputDepth {
			add(fullPle(tensor.Shape{0, 0, 0, numOgs}))
		}
	} else {
		if cascadeType == opgraph.CascadeTypeLonely {
			if config.Splits.MceAndPleOutputDepth {
				for _, ofmMultiplier := range multipliers(minOfmDepthMultiplier, maxOfmDepthMultiplier) {
					c := fromEncoding(tensor.Shape{}, g.MceShapeMultiplier.Apply(tensor.Shape{0, 0, 0, numOgs * ofmMultiplier}), numOgs)
					c.inputRange = capToOne(numStripesInput)
					add(c)
				}
			}
			if config.Splits.WidthHeightOutputDepth {
				for _, heightMultiplier := range multipliers(minBlockHeightMultiplier, maxBlockHeightMultiplier) {
					for _, widthMultiplier := range multipliers(minBlockWidthMultiplier, maxBlockWidthMultiplier) {
						height := heightMultiplier * blockConfig.Height
						width := widthMultiplier * blockConfig.Width
						outputEncoding := g.MceShapeMultiplier.Apply(tensor.Shape{0, height, width, numOgs})
						add(fromEncoding(tensor.Shape{0, height, width, 0}, outputEncoding, numOgs))
					}
				}
			}
			// Splitting the input depth, the stripes are limited to the smallest height and width.
			if config.Splits.WidthHeightOutputDepthInputDepth {
				for _, ifmMultiplier := range multipliers(minIfmDepthMultiplier, maxIfmDepthMultiplier) {
					inputEncoding := tensor.Shape{0, minBlockHeightMultiplier * blockConfig.Height,
						minBlockWidthMultiplier * blockConfig.Width, ifmMultiplier * numOgs * strideMultiplier}
					// The MCE accumulates across input depth iterations, which it can only do for numOgs channels.
					outputEncoding := g.MceShapeMultiplier.Apply(inputEncoding)
					outputEncoding[tensor.AxisChannels] = numOgs
					add(fromEncoding(inputEncoding, outputEncoding, numOgs))
				}
			}
		}
		if config.Splits.MceOutputDepthOnly {
			c := fullPle(tensor.Shape{})
			c.inputRange = capToOne(numStripesInput)
			add(c)
		}
	}

	// Full tensor, needed when every other candidate was filtered out.
	if config.Splits.None {
		c := fromEncoding(tensor.Shape{}, tensor.Shape{}, brickDepth)
		c.memoryOutput = c.pleOutput
		c.inputRange = capToOne(numStripesInput)
		c.weightRange = capToOne(numStripesWeights)
		c.outputRange = capToOne(numStripesOutput)
		add(c)
	}
}

// addStripeInfos filters the candidate and inserts the plan descriptions derived from it.
func (g *StripeGenerator) addStripeInfos(blockConfig hwcaps.BlockConfig, c stripeCandidate, out *StripeInfos) {
	inputShape := g.MceInputTensorShape
	outputShape := g.PleOutputTensorShape
	mceOutputShape := g.MceOutputTensorShape
	isDepthwise := g.Operation == graph.MceOperationDepthwiseConvolution

	// No point in having more slots in the tile than there are stripes in the tensor.
	inputRange := c.inputRange
	inputRange.Max = min(inputRange.Max, tensor.NumStripesTotal(inputShape, c.memoryInput))
	inputRange.Min = min(inputRange.Min, inputRange.Max)
	outputRange := c.outputRange
	outputRange.Max = min(outputRange.Max, tensor.NumStripesTotal(outputShape, c.memoryOutput))
	outputRange.Min = min(outputRange.Min, outputRange.Max)

	// Stripes with more elements than the whole tensor are redundant when buffering multiple stripes.
	multipleStripes := inputRange.Max > 1 && outputRange.Max > 1
	stripesLargerThanTensor := c.memoryInput.NumElements() > inputShape.NumElements() &&
		c.memoryOutput.NumElements() > outputShape.NumElements()
	if multipleStripes && stripesLargerThanTensor {
		return
	}

	// Firmware limit: MCE stripes per PLE stripe. The PLE accumulates the full output depth, and the MCE
	// only passes its result once it processed the whole input depth.
	numMceStripesPerPle := tensor.DivRoundUp(c.pleInput.Channels(), c.mceOutput.Channels()) *
		tensor.DivRoundUp(inputShape.Channels(), c.mceInput.Channels())
	if numMceStripesPerPle > g.Capabilities.MaxMceStripesPerPleStripe {
		return
	}

	// Firmware limit: IFM and weight stripes per PLE stripe.
	numIfmStripesPerMce := tensor.DivRoundUp(c.mceInput.Width(), c.memoryInput.Width()) *
		tensor.DivRoundUp(c.mceInput.Height(), c.memoryInput.Height()) *
		tensor.DivRoundUp(c.mceInput.Channels(), c.memoryInput.Channels())
	const numWeightStripesPerMce = 1
	if (numIfmStripesPerMce+numWeightStripesPerMce)*numMceStripesPerPle > g.Capabilities.MaxIfmAndWgtStripesPerPleStripe {
		return
	}

	weightDepth := c.mceOutput.Channels()
	if isDepthwise {
		weightDepth = 1
	}
	mceWeightStripe := tensor.Shape{g.KernelHeight, g.KernelWidth, c.mceInput.Channels(), weightDepth}
	weightRange := c.weightRange
	if isDepthwise {
		if mceWeightStripe[2] >= inputShape.Channels() {
			weightRange.Max = 1
		}
	} else if mceWeightStripe[3] >= mceOutputShape.Channels() {
		weightRange.Max = 1
	}
	weightRange.Min = min(weightRange.Min, weightRange.Max)

	needBoundaryY := tensor.GetBoundaryRequirements(g.PadTop, inputShape.Height(), c.mceInput.Height(), g.KernelHeight)
	needBoundaryX := tensor.GetBoundaryRequirements(g.PadLeft, inputShape.Width(), c.mceInput.Width(), g.KernelWidth)
	packVertical := c.mceInput.Width() < inputShape.Width()
	packHorizontal := c.mceInput.Channels() < inputShape.Channels()
	var packed opgraph.PackedBoundaryThickness
	if packHorizontal && needBoundaryX.Before {
		packed.Left = PackedBoundarySize
	}
	if packHorizontal && needBoundaryX.After {
		packed.Right = PackedBoundarySize
	}
	if packVertical && needBoundaryY.Before {
		packed.Top = PackedBoundarySize
	}
	if packVertical && needBoundaryY.After {
		packed.Bottom = PackedBoundarySize
	}

	// The OFM is traversed in XYZ order and the IFM in ZXY, so a streamed IFM is reloaded for each OFM
	// depth stripe.
	numIfmLoads := uint32(1)
	if !isDepthwise && !c.mceInput.CoversAllOf(inputShape) {
		numIfmLoads = tensor.DivRoundUp(mceOutputShape.Channels(), c.mceOutput.Channels())
	}
	numWeightLoads := uint32(1)
	if !isDepthwise && c.mceInput.Channels() < inputShape.Channels() {
		numWeightLoads = tensor.NumStripesW(mceOutputShape, c.mceOutput) * tensor.NumStripesH(mceOutputShape, c.mceOutput)
	}

	mceCompute := MceStripesInfo{Input: c.mceInput, Output: c.mceOutput, Weight: mceWeightStripe, BlockConfig: blockConfig}
	pleCompute := PleStripesInfo{Input: c.pleInput, Output: c.pleOutput, BlockConfig: blockConfig}
	memoryInput := InputMemoryStripeInfo{
		MemoryStripeInfo:        MemoryStripeInfo{Range: inputRange, Shape: c.memoryInput},
		PackedBoundaryThickness: packed,
		NumLoads:                numIfmLoads,
	}
	memoryOutput := MemoryStripeInfo{Range: outputRange, Shape: c.memoryOutput}
	memoryWeight := WeightMemoryStripeInfo{
		MemoryStripeInfo: MemoryStripeInfo{Range: weightRange, Shape: mceWeightStripe},
		NumLoads:         numWeightLoads,
	}
	memoryPleInput := MemoryStripeInfo{Range: c.pleInputRange, Shape: c.memoryPleInput}

	out.MceAndPleInfos.Insert(MceAndPleInfo{
		MceCompute: mceCompute,
		PleCompute: pleCompute,
		Memory:     MemoryStripesInfo{Input: memoryInput, Output: memoryOutput, Weight: memoryWeight, PleInput: memoryPleInput},
	})
	out.MceOnlyInfos.Insert(MceOnlyInfo{
		MceCompute: mceCompute,
		Memory:     MemoryStripesInfo{Input: memoryInput, Weight: memoryWeight, PleInput: memoryPleInput},
	})
	out.PleOnlyInfos.Insert(PleOnlyInfo{
		PleCompute: pleCompute,
		Memory:     MemoryStripesInfo{Output: memoryOutput, PleInput: memoryPleInput},
	})
	out.DmaOnlyInfos.Insert(DmaOnlyInfo{
		Input:  MemoryStripeInfo{Range: inputRange, Shape: c.memoryInput},
		Output: memoryOutput,
	})
}
