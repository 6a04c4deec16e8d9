// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package hwcaps describes the NPU variants the compiler can target.
//
// A HardwareCapabilities value is plain data: it is created once per compilation (see New or Default)
// and passed by value to every component that needs it. There is no global configuration.
package hwcaps

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/gomlx/npucascade/pkg/core/tensor"
)

// Variant of the Ethos-N78 configuration.
type Variant int

//go:generate go tool enumer -type=Variant -trimprefix=Variant -output=gen_variant_enumer.go hwcaps.go

const (
	VariantN78_1TOPS_2PLE_RATIO Variant = iota
	VariantN78_1TOPS_4PLE_RATIO
	VariantN78_2TOPS_2PLE_RATIO
	VariantN78_2TOPS_4PLE_RATIO
	VariantN78_4TOPS_2PLE_RATIO
	VariantN78_4TOPS_4PLE_RATIO
	VariantN78_8TOPS_2PLE_RATIO
)

// DefaultVariant is used by Default and by most tests.
const DefaultVariant = VariantN78_4TOPS_4PLE_RATIO

// MinSramSize and MaxSramSize bound the SRAM size accepted by New.
const (
	MinSramSize = 64 * 1024
	MaxSramSize = 4 * 1024 * 1024
)

// HardwareCapabilities of one NPU configuration.
type HardwareCapabilities struct {
	Variant Variant

	// TotalSramSize in bytes, summed over all the SRAM banks of all engines.
	TotalSramSize uint32

	NumberOfEngines uint32
	OgsPerEngine    uint32
	IgsPerEngine    uint32
	EmcsPerEngine   uint32

	NumberOfPleLanes uint32

	BrickGroupShape tensor.Shape
	PatchShape      tensor.Shape

	// BoundaryStripeHeight is the height of the slots holding neighbouring data when streaming in width.
	BoundaryStripeHeight uint32
	NumBoundarySlots     uint32
	NumCentralSlots      uint32

	// MaxPleSize is the size reserved in each SRAM bank for a PLE kernel.
	MaxPleSize uint32

	// Firmware limits on how much work a single PLE stripe can wait on.
	MaxMceStripesPerPleStripe       uint32
	MaxIfmAndWgtStripesPerPleStripe uint32
}

type variantParams struct {
	engines, ogsPerEngine, igsPerEngine, emcsPerEngine, pleLanes, defaultSram uint32
}

var variantTable = map[Variant]variantParams{
	VariantN78_1TOPS_2PLE_RATIO: {2, 4, 4, 4, 2, 448 * 1024},
	VariantN78_1TOPS_4PLE_RATIO: {2, 4, 4, 4, 1, 448 * 1024},
	VariantN78_2TOPS_2PLE_RATIO: {4, 4, 4, 4, 2, 512 * 1024},
	VariantN78_2TOPS_4PLE_RATIO: {4, 4, 4, 4, 1, 512 * 1024},
	VariantN78_4TOPS_2PLE_RATIO: {8, 2, 2, 2, 2, 1024 * 1024},
	VariantN78_4TOPS_4PLE_RATIO: {8, 2, 2, 2, 1, 1024 * 1024},
	VariantN78_8TOPS_2PLE_RATIO: {16, 2, 2, 2, 2, 2048 * 1024},
}

// New returns the capabilities of the given variant. If sramSize is 0 the variant's default SRAM size is used.
//
// The SRAM size must be between MinSramSize and MaxSramSize and a multiple of 1KiB per SRAM bank.
func New(variant Variant, sramSize uint32) (HardwareCapabilities, error) {
	params, found := variantTable[variant]
	if !found {
		return HardwareCapabilities{}, errors.Errorf("unknown hardware variant %s", variant)
	}
	if sramSize == 0 {
		sramSize = params.defaultSram
	}
	numSrams := params.engines * params.emcsPerEngine
	if sramSize < MinSramSize || sramSize > MaxSramSize || sramSize%(numSrams*1024) != 0 {
		return HardwareCapabilities{}, errors.Errorf(
			"invalid SRAM size %s for variant %s: it must be between %s and %s and a multiple of %s",
			humanize.IBytes(uint64(sramSize)), variant, humanize.IBytes(MinSramSize), humanize.IBytes(MaxSramSize),
			humanize.IBytes(uint64(numSrams*1024)))
	}
	return HardwareCapabilities{
		Variant:                         variant,
		TotalSramSize:                   sramSize,
		NumberOfEngines:                 params.engines,
		OgsPerEngine:                    params.ogsPerEngine,
		IgsPerEngine:                    params.igsPerEngine,
		EmcsPerEngine:                   params.emcsPerEngine,
		NumberOfPleLanes:                params.pleLanes,
		BrickGroupShape:                 tensor.BrickGroupShape,
		PatchShape:                      tensor.Shape{1, 4, 4, 1},
		BoundaryStripeHeight:            8,
		NumBoundarySlots:                8,
		NumCentralSlots:                 4,
		MaxPleSize:                      4096,
		MaxMceStripesPerPleStripe:       64,
		MaxIfmAndWgtStripesPerPleStripe: 64,
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(variant Variant, sramSize uint32) HardwareCapabilities {
	caps, err := New(variant, sramSize)
	if err != nil {
		panic(err)
	}
	return caps
}

// Default returns the capabilities of DefaultVariant with its default SRAM size.
func Default() HardwareCapabilities {
	return MustNew(DefaultVariant, 0)
}

// NumberOfOgs is the total number of output generators, that is, output channels computed in parallel.
func (c HardwareCapabilities) NumberOfOgs() uint32 {
	return c.NumberOfEngines * c.OgsPerEngine
}

// NumberOfSrams is the total number of SRAM banks. Each tile is spread evenly over all banks.
func (c HardwareCapabilities) NumberOfSrams() uint32 {
	return c.NumberOfEngines * c.EmcsPerEngine
}

// SramSizePerBank returns the size of one SRAM bank.
func (c HardwareCapabilities) SramSizePerBank() uint32 {
	return c.TotalSramSize / c.NumberOfSrams()
}

// MaxTileSize is the largest tile worth allocating for the tensor: the whole tensor in NHWCB, capped by
// the SRAM size.
func (c HardwareCapabilities) MaxTileSize(tensorShape tensor.Shape) uint32 {
	return c.MaxTileSizeWithMultiples(tensorShape, c.BrickGroupShape[tensor.AxisWidth], c.BrickGroupShape[tensor.AxisHeight])
}

// MaxTileSizeWithMultiples is like MaxTileSize, but rounding width and height to the given multiples,
// used when the source may be in an FCAF format with larger cells.
func (c HardwareCapabilities) MaxTileSizeWithMultiples(tensorShape tensor.Shape, widthMultiple, heightMultiple uint32) uint32 {
	rounded := tensorShape
	rounded[tensor.AxisHeight] = tensor.RoundUpToMultiple(rounded[tensor.AxisHeight], heightMultiple)
	rounded[tensor.AxisWidth] = tensor.RoundUpToMultiple(rounded[tensor.AxisWidth], widthMultiple)
	rounded[tensor.AxisChannels] = tensor.RoundUpToMultiple(rounded[tensor.AxisChannels], c.BrickGroupShape[tensor.AxisChannels])
	return min(tensor.TotalSizeBytes(rounded), c.TotalSramSize)
}

// String implements fmt.Stringer.
func (c HardwareCapabilities) String() string {
	return fmt.Sprintf("%s (SRAM %s, %d engines, %d OGs)", c.Variant, humanize.IBytes(uint64(c.TotalSramSize)),
		c.NumberOfEngines, c.NumberOfOgs())
}
