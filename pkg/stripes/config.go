// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package stripes enumerates the candidate stripe shapes of a part: how its input, output and weights are
// split into stripes that are streamed through SRAM, for each block config the MCE and PLE can use.
//
// What is enumerated is controlled by a StripeConfig, created by GetDefaultStripeConfig from the
// compilation options and, for debugging, overridden per part with a stripe config file.
package stripes

import (
	"math"
	"slices"

	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
)

// Splits enables each family of stripe shapes the StripeGenerator tries.
type Splits struct {
	// MceAndPleOutputHeight splits the MCE and the PLE outputs in height.
	MceAndPleOutputHeight bool

	// MceOutputHeightOnly splits the MCE in height, while the PLE output is the full tensor.
	MceOutputHeightOnly bool

	WidthOnly              bool
	WidthHeight            bool
	WidthHeightOutputDepth bool

	// WidthHeightOutputDepthInputDepth splits in every dimension, accumulating the input depth in the MCE.
	WidthHeightOutputDepthInputDepth bool

	OutputDepthInputDepth bool

	// MceOutputDepthOnly splits the MCE output depth, while the PLE works on the full tensor.
	MceOutputDepthOnly bool

	MceAndPleOutputDepth bool
	InputDepthOnly       bool

	// None uses the full tensor as a single stripe.
	None bool
}

// MultiplierRange limits the multipliers of the block size (or of the number of OGs, for depth)
// that are tried. Multipliers are swept in powers of 2.
type MultiplierRange struct {
	Min, Max uint32
}

// FullMultiplierRange doesn't restrict the multipliers.
var FullMultiplierRange = MultiplierRange{Min: 1, Max: math.MaxUint32}

// PlanTypes enables plans of each cascade position.
type PlanTypes struct {
	Beginning, Middle, End, Lonely bool
}

// IsEnabled returns whether plans for the cascade type are enabled.
func (p PlanTypes) IsEnabled(cascadeType opgraph.CascadeType) bool {
	switch cascadeType {
	case opgraph.CascadeTypeBeginning:
		return p.Beginning
	case opgraph.CascadeTypeMiddle:
		return p.Middle
	case opgraph.CascadeTypeEnd:
		return p.End
	case opgraph.CascadeTypeLonely:
		return p.Lonely
	}
	return false
}

// StripeConfig selects which stripe shapes are generated for a part.
type StripeConfig struct {
	Splits       Splits
	BlockConfigs []hwcaps.BlockConfig

	BlockWidthMultiplier  MultiplierRange
	BlockHeightMultiplier MultiplierRange
	IfmDepthMultiplier    MultiplierRange
	OfmDepthMultiplier    MultiplierRange

	PlanTypes PlanTypes
}

// NewStripeConfig returns a StripeConfig with everything enabled.
func NewStripeConfig() StripeConfig {
	return StripeConfig{
		Splits: Splits{
			MceAndPleOutputHeight: true, MceOutputHeightOnly: true, WidthOnly: true, WidthHeight: true,
			WidthHeightOutputDepth: true, WidthHeightOutputDepthInputDepth: true, OutputDepthInputDepth: true,
			MceOutputDepthOnly: true, MceAndPleOutputDepth: true, InputDepthOnly: true, None: true,
		},
		BlockConfigs:          hwcaps.AllBlockConfigs(),
		BlockWidthMultiplier:  FullMultiplierRange,
		BlockHeightMultiplier: FullMultiplierRange,
		IfmDepthMultiplier:    FullMultiplierRange,
		OfmDepthMultiplier:    FullMultiplierRange,
		PlanTypes:             PlanTypes{Beginning: true, Middle: true, End: true, Lonely: true},
	}
}

// Clone returns a copy that doesn't share the block configs.
func (c StripeConfig) Clone() StripeConfig {
	c.BlockConfigs = slices.Clone(c.BlockConfigs)
	return c
}

// DisableAll disables every split, block config and plan type, so a debug config can enable only
// what it wants.
func (c *StripeConfig) DisableAll() {
	c.DisableAllSplits()
	c.BlockConfigs = nil
	c.PlanTypes = PlanTypes{}
}

// DisableAllSplits disables every split, including None.
func (c *StripeConfig) DisableAllSplits() {
	c.Splits = Splits{}
}

// DisableSplitWidth disables every split that streams in width.
func (c *StripeConfig) DisableSplitWidth() {
	c.Splits.WidthOnly = false
	c.Splits.WidthHeight = false
	c.Splits.WidthHeightOutputDepth = false
	c.Splits.WidthHeightOutputDepthInputDepth = false
}

// DisableSplitHeight disables every split that streams in height.
func (c *StripeConfig) DisableSplitHeight() {
	c.Splits.MceAndPleOutputHeight = false
	c.Splits.MceOutputHeightOnly = false
	c.Splits.WidthHeight = false
	c.Splits.WidthHeightOutputDepth = false
	c.Splits.WidthHeightOutputDepthInputDepth = false
}

// DisableSplitInputDepth disables every split of the input channels.
func (c *StripeConfig) DisableSplitInputDepth() {
	c.Splits.WidthHeightOutputDepthInputDepth = false
	c.Splits.OutputDepthInputDepth = false
	c.Splits.InputDepthOnly = false
}

// DisableSplitOutputDepth disables every split of the output channels.
func (c *StripeConfig) DisableSplitOutputDepth() {
	c.Splits.WidthHeightOutputDepth = false
	c.Splits.WidthHeightOutputDepthInputDepth = false
	c.Splits.OutputDepthInputDepth = false
	c.Splits.MceOutputDepthOnly = false
	c.Splits.MceAndPleOutputDepth = false
}

// AddBlockConfig appends the block config, if not yet present.
func (c *StripeConfig) AddBlockConfig(b hwcaps.BlockConfig) {
	if !slices.Contains(c.BlockConfigs, b) {
		c.BlockConfigs = append(c.BlockConfigs, b)
	}
}

// RemoveBlockConfig removes the block config, if present.
func (c *StripeConfig) RemoveBlockConfig(b hwcaps.BlockConfig) {
	c.BlockConfigs = slices.DeleteFunc(c.BlockConfigs, func(other hwcaps.BlockConfig) bool { return other == b })
}
