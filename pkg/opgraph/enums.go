// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opgraph

import (
	"github.com/gomlx/exceptions"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
)

// Location of a Buffer.
type Location int

//go:generate go tool enumer -type=Location -trimprefix=Location -output=gen_location_enumer.go enums.go

const (
	LocationDram Location = iota
	LocationSram

	// LocationPleInputSram is the part of SRAM the MCE writes into for the PLE to read.
	// It is not allocated by the compiler.
	LocationPleInputSram

	// LocationVirtualSram is used when estimating plans whose SRAM usage is not checked.
	LocationVirtualSram
)

// BufferFormat is the layout of the data of a Buffer.
type BufferFormat int

//go:generate go tool enumer -type=BufferFormat -trimprefix=BufferFormat -output=gen_bufferformat_enumer.go enums.go

const (
	BufferFormatNHWC BufferFormat = iota
	BufferFormatNCHW
	BufferFormatNHWCB
	BufferFormatWEIGHT
	BufferFormatFCAFDeep
	BufferFormatFCAFWide
)

// BufferFormatFromDataFormat converts the format requested for a node to the format of a buffer.
func BufferFormatFromDataFormat(format graph.DataFormat) BufferFormat {
	switch format {
	case graph.DataFormatNHWC:
		return BufferFormatNHWC
	case graph.DataFormatNCHW:
		return BufferFormatNCHW
	case graph.DataFormatNHWCB:
		return BufferFormatNHWCB
	case graph.DataFormatWEIGHT:
		return BufferFormatWEIGHT
	default:
		exceptions.Panicf("unknown data format %s", format)
	}
	return BufferFormatNHWC
}

// IsFCAF returns whether the format is one of the compressed formats.
func (f BufferFormat) IsFCAF() bool {
	return f == BufferFormatFCAFDeep || f == BufferFormatFCAFWide
}

// TotalSizeBytes returns the size of a whole tensor of the given shape stored in this format.
// Weights are not covered: their size depends on the encoding.
func (f BufferFormat) TotalSizeBytes(shape tensor.Shape) uint32 {
	switch f {
	case BufferFormatNHWC, BufferFormatNCHW:
		return tensor.TotalSizeBytes(shape)
	case BufferFormatNHWCB:
		return tensor.TotalSizeBytesNHWCB(shape)
	case BufferFormatFCAFDeep:
		return tensor.TotalSizeBytesFCAFDeep(shape)
	case BufferFormatFCAFWide:
		return tensor.TotalSizeBytesFCAFWide(shape)
	default:
		exceptions.Panicf("size of a tensor in format %s is not defined", f)
	}
	return 0
}

// Lifetime of an op or buffer within a cascade.
type Lifetime int

//go:generate go tool enumer -type=Lifetime -trimprefix=Lifetime -output=gen_lifetime_enumer.go enums.go

const (
	// LifetimeCascade ops live for the whole cascade.
	LifetimeCascade Lifetime = iota

	// LifetimeAtomic ops are done within one stripe of the cascade.
	LifetimeAtomic
)

// TraversalOrder of the stripes of a tensor.
type TraversalOrder int

//go:generate go tool enumer -type=TraversalOrder -trimprefix=TraversalOrder -output=gen_traversalorder_enumer.go enums.go

const (
	// TraversalOrderXyz streams across width, then height, then channels (innermost first: channels).
	TraversalOrderXyz TraversalOrder = iota
	TraversalOrderZxy
)

// BufferType tells the buffer manager how a DRAM buffer is used.
type BufferType int

//go:generate go tool enumer -type=BufferType -trimprefix=BufferType -output=gen_buffertype_enumer.go enums.go

const (
	BufferTypeNone BufferType = iota
	BufferTypeInput
	BufferTypeOutput
	BufferTypeIntermediate
	BufferTypeConstantDma
	BufferTypeConstantControlUnit
)

// CascadeType is the position of a plan within a cascade of plans sharing SRAM.
type CascadeType int

//go:generate go tool enumer -type=CascadeType -trimprefix=CascadeType -output=gen_cascadetype_enumer.go enums.go

const (
	CascadeTypeBeginning CascadeType = iota
	CascadeTypeMiddle
	CascadeTypeEnd
	CascadeTypeLonely
)
