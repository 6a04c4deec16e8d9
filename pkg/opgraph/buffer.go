// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opgraph

import (
	"fmt"

	"github.com/gomlx/npucascade/pkg/core/tensor"
)

// BufferID indexes a Buffer in its OpGraph.
type BufferID int

// InvalidBufferID is used when an op has no output buffer.
const InvalidBufferID BufferID = -1

// PackedBoundaryThickness is the amount of neighbouring data packed along with each stripe of an SRAM
// buffer, in elements.
type PackedBoundaryThickness struct {
	Left, Top, Right, Bottom uint16
}

// Any returns whether any side has boundary data.
func (t PackedBoundaryThickness) Any() bool {
	return t.Left > 0 || t.Top > 0 || t.Right > 0 || t.Bottom > 0
}

// WeightStripeMetadata locates one encoded weight stripe within the encoded weights.
type WeightStripeMetadata struct {
	Offset, Size uint32
}

// EncodedWeights as produced by the weight encoder, which is external to this compiler.
type EncodedWeights struct {
	Data     []byte
	Metadata []WeightStripeMetadata

	// MaxSize of any single encoded stripe.
	MaxSize uint32
}

// Buffer is the storage for one tensor, or for a window of stripes of it when in SRAM.
//
// A DRAM buffer always holds the whole tensor: its stripes are only a view used for streaming.
type Buffer struct {
	Location Location
	Format   BufferFormat
	Order    TraversalOrder

	DataType     tensor.DataType
	Quantization tensor.QuantizationInfo
	TensorShape  tensor.Shape
	StripeShape  tensor.Shape

	// NumStripes is the number of stripe slots of an SRAM buffer.
	NumStripes  uint32
	SizeInBytes uint32

	// SlotSizeInBytes of one stripe slot, including packed boundary data. 0 if not relevant.
	SlotSizeInBytes uint32

	// Offset in SRAM, valid only when HasOffset is set.
	Offset    uint32
	HasOffset bool

	// Type of a DRAM buffer for the buffer manager.
	Type BufferType

	// OperationID of the network input or output, for input and output DRAM buffers.
	OperationID int

	// ProducerOutputIndex of the network output, for output DRAM buffers.
	ProducerOutputIndex int

	PackedBoundaryThickness PackedBoundaryThickness

	// NumLoads is how many times the whole tensor is streamed into this buffer.
	NumLoads uint32

	// EncodedWeights of a WEIGHT buffer, nil if not yet encoded.
	EncodedWeights *EncodedWeights

	// ConstantData of a BufferTypeConstantDma buffer.
	ConstantData []byte

	DebugTag string
}

// IsFullTensor returns whether a single stripe holds the whole tensor.
func (b *Buffer) IsFullTensor() bool {
	return b.StripeShape.CoversAllOf(b.TensorShape)
}

// String implements fmt.Stringer.
func (b *Buffer) String() string {
	tag := b.DebugTag
	if tag == "" {
		tag = "Buffer"
	}
	return fmt.Sprintf("%s(%s %s tensor=%s stripe=%s x%d, %d bytes)", tag, b.Location, b.Format,
		b.TensorShape, b.StripeShape, b.NumStripes, b.SizeInBytes)
}

// Clone returns a copy of the buffer. Large read-only data (weights, constants) is shared.
func (b *Buffer) Clone() *Buffer {
	c := *b
	return &c
}
