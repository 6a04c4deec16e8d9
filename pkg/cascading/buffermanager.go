// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cascading

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/commandstream"
	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/opgraph"
)

// CommandStreamBufferID is the id of the buffer holding the command stream.
const CommandStreamBufferID = 0

// BufferAlignment of the DRAM offsets assigned by BufferManager.Allocate.
const BufferAlignment = 64

// BufferInfo is one entry of the buffer table.
type BufferInfo struct {
	ID   uint32
	Type opgraph.BufferType
	Size uint32

	// Offset within the area of its type: the constant DMA data, the constant control unit data or the
	// intermediate data. Inputs and outputs are provided by the user and have no offset.
	// Only valid after BufferManager.Allocate.
	Offset uint32

	// OperationID of the network input or output.
	OperationID int

	// ProducerOutputIndex of the network output.
	ProducerOutputIndex int

	// ConstantData of constant buffers.
	ConstantData []byte

	// LifetimeStart and LifetimeEnd bound the agents using an intermediate buffer: [start, end).
	// Without HasLifetime the buffer is considered used during the whole inference.
	LifetimeStart, LifetimeEnd uint32
	HasLifetime                bool

	DebugTag string
}

// String implements fmt.Stringer.
func (b *BufferInfo) String() string {
	tag := b.DebugTag
	if tag == "" {
		tag = "Buffer"
	}
	return fmt.Sprintf("#%d %s(%s, %s)", b.ID, tag, b.Type, humanize.Bytes(uint64(b.Size)))
}

// lifetime returns the interval of agents using the buffer.
func (b *BufferInfo) lifetime() (start, end uint32) {
	if !b.HasLifetime {
		return 0, math.MaxUint32
	}
	return b.LifetimeStart, b.LifetimeEnd
}

// BufferManager keeps the table of the DRAM buffers used by a compiled network and lays out the constant
// and intermediate ones.
//
// Buffer CommandStreamBufferID is reserved for the command stream, set with AddCommandStream.
type BufferManager struct {
	buffers []*BufferInfo

	constantDmaData         []byte
	constantControlUnitData []byte
	intermediateSize        uint32
	allocated               bool
}

// NewBufferManager returns a BufferManager with only the command stream buffer.
func NewBufferManager() *BufferManager {
	m := &BufferManager{}
	m.buffers = append(m.buffers, &BufferInfo{
		ID:       CommandStreamBufferID,
		Type:     opgraph.BufferTypeConstantControlUnit,
		DebugTag: "CommandStream",
	})
	return m
}

func (m *BufferManager) add(info *BufferInfo) uint32 {
	if m.allocated {
		exceptions.Panicf("BufferManager: adding buffer %q after Allocate", info.DebugTag)
	}
	info.ID = uint32(len(m.buffers))
	m.buffers = append(m.buffers, info)
	return info.ID
}

// AddCommandStream sets the contents of the command stream buffer to the binary form of cs.
func (m *BufferManager) AddCommandStream(cs *commandstream.CommandStream) error {
	data, err := cs.MarshalBinary()
	if err != nil {
		return errors.WithMessage(err, "encoding command stream")
	}
	b := m.buffers[CommandStreamBufferID]
	b.ConstantData = data
	b.Size = uint32(len(data))
	return nil
}

// AddDram adds an intermediate buffer and returns its id.
func (m *BufferManager) AddDram(size uint32, debugTag string) uint32 {
	return m.add(&BufferInfo{Type: opgraph.BufferTypeIntermediate, Size: size, DebugTag: debugTag})
}

// AddDramInput adds the buffer of a network input and returns its id.
func (m *BufferManager) AddDramInput(size uint32, operationID int) uint32 {
	return m.add(&BufferInfo{
		Type:        opgraph.BufferTypeInput,
		Size:        size,
		OperationID: operationID,
		DebugTag:    fmt.Sprintf("Input%d", operationID),
	})
}

// AddDramOutput adds the buffer of a network output and returns its id.
func (m *BufferManager) AddDramOutput(size uint32, operationID, producerOutputIndex int) uint32 {
	return m.add(&BufferInfo{
		Type:                opgraph.BufferTypeOutput,
		Size:                size,
		OperationID:         operationID,
		ProducerOutputIndex: producerOutputIndex,
		DebugTag:            fmt.Sprintf("Output%d_%d", operationID, producerOutputIndex),
	})
}

// AddDramConstant adds a constant buffer with the given contents and returns its id. bufferType must be
// either opgraph.BufferTypeConstantDma or opgraph.BufferTypeConstantControlUnit.
func (m *BufferManager) AddDramConstant(bufferType opgraph.BufferType, data []byte) uint32 {
	if bufferType != opgraph.BufferTypeConstantDma && bufferType != opgraph.BufferTypeConstantControlUnit {
		exceptions.Panicf("BufferManager: %s is not a constant buffer type", bufferType)
	}
	return m.add(&BufferInfo{Type: bufferType, Size: uint32(len(data)), ConstantData: data})
}

// Buffer returns the buffer with the given id.
func (m *BufferManager) Buffer(id uint32) *BufferInfo {
	if int(id) >= len(m.buffers) {
		exceptions.Panicf("BufferManager: invalid buffer id %d, only %d buffers", id, len(m.buffers))
	}
	return m.buffers[id]
}

// Buffers returns all buffers, indexed by id.
func (m *BufferManager) Buffers() []*BufferInfo { return m.buffers }

// MarkBufferUsedAtTime records that the intermediate buffer is used by the agents in [start, end).
// Marking the same buffer more than once extends its lifetime.
func (m *BufferManager) MarkBufferUsedAtTime(id, start, end uint32) {
	b := m.Buffer(id)
	if b.Type != opgraph.BufferTypeIntermediate {
		exceptions.Panicf("BufferManager: lifetime of %s buffer #%d, only intermediate buffers have one", b.Type, id)
	}
	if start >= end {
		exceptions.Panicf("BufferManager: empty lifetime [%d, %d) for buffer #%d", start, end, id)
	}
	if b.HasLifetime {
		start, end = min(start, b.LifetimeStart), max(end, b.LifetimeEnd)
	}
	b.LifetimeStart, b.LifetimeEnd, b.HasLifetime = start, end, true
}

// Allocate packs the constant buffers into the constant data areas and assigns offsets to the
// intermediate buffers. Intermediate buffers whose lifetimes don't overlap may share DRAM.
func (m *BufferManager) Allocate() {
	for _, b := range m.buffers {
		switch b.Type {
		case opgraph.BufferTypeConstantDma:
			b.Offset = appendAligned(&m.constantDmaData, b.ConstantData)
		case opgraph.BufferTypeConstantControlUnit:
			b.Offset = appendAligned(&m.constantControlUnitData, b.ConstantData)
		}
	}
	m.allocateIntermediates()
	m.allocated = true
	if klog.V(1).Enabled() {
		klog.Infof("allocated %d buffers: %s of intermediate data, %s of constant DMA data, %s of control unit data",
			len(m.buffers), humanize.Bytes(uint64(m.intermediateSize)), humanize.Bytes(uint64(len(m.constantDmaData))),
			humanize.Bytes(uint64(len(m.constantControlUnitData))))
	}
}

// appendAligned appends data to the area at the next aligned offset, which it returns.
func appendAligned(area *[]byte, data []byte) uint32 {
	offset := tensor.RoundUpToMultiple(len(*area), BufferAlignment)
	*area = append(*area, make([]byte, offset-len(*area))...)
	*area = append(*area, data...)
	return uint32(offset)
}

// allocateIntermediates places the biggest buffers first, each at the lowest offset where it doesn't
// overlap with any buffer already placed and alive at the same time.
func (m *BufferManager) allocateIntermediates() {
	var pending []*BufferInfo
	for _, b := range m.buffers {
		if b.Type == opgraph.BufferTypeIntermediate {
			pending = append(pending, b)
		}
	}
	slices.SortStableFunc(pending, func(a, b *BufferInfo) int {
		return cmp.Or(cmp.Compare(b.Size, a.Size), cmp.Compare(a.ID, b.ID))
	})

	var placed []*BufferInfo
	m.intermediateSize = 0
	for _, b := range pending {
		start, end := b.lifetime()
		var conflicts []*BufferInfo
		for _, other := range placed {
			otherStart, otherEnd := other.lifetime()
			if start < otherEnd && otherStart < end {
				conflicts = append(conflicts, other)
			}
		}
		slices.SortFunc(conflicts, func(a, b *BufferInfo) int { return cmp.Compare(a.Offset, b.Offset) })
		var offset uint32
		for _, other := range conflicts {
			if offset+b.Size <= other.Offset {
				break
			}
			offset = max(offset, tensor.RoundUpToMultiple(other.Offset+other.Size, BufferAlignment))
		}
		b.Offset = offset
		placed = append(placed, b)
		m.intermediateSize = max(m.intermediateSize, offset+b.Size)
		if klog.V(2).Enabled() {
			klog.Infof("intermediate buffer %s alive in [%d, %d) at offset %d", b, start, end, offset)
		}
	}
}

// ConstantDmaData returns the contents of the constant buffers read by DMA. Only valid after Allocate.
func (m *BufferManager) ConstantDmaData() []byte { return m.constantDmaData }

// ConstantControlUnitData returns the contents of the constant buffers read by the control unit, the
// command stream included. Only valid after Allocate.
func (m *BufferManager) ConstantControlUnitData() []byte { return m.constantControlUnitData }

// IntermediateSize is the size of the DRAM area holding all intermediate buffers. Only valid after Allocate.
func (m *BufferManager) IntermediateSize() uint32 { return m.intermediateSize }

// BindingType returns the type of the buffer in a binding table.
func (b *BufferInfo) BindingType() commandstream.BufferType {
	switch b.Type {
	case opgraph.BufferTypeInput:
		return commandstream.BufferTypeInput
	case opgraph.BufferTypeOutput:
		return commandstream.BufferTypeOutput
	case opgraph.BufferTypeIntermediate:
		return commandstream.BufferTypeIntermediate
	case opgraph.BufferTypeConstantControlUnit:
		if b.ID == CommandStreamBufferID {
			return commandstream.BufferTypeCmdFw
		}
	}
	return commandstream.BufferTypeConstant
}

// BindingTable returns the binding table of the buffers laid out from base: the control unit data, the
// constant DMA data, the intermediate data and then each input and output buffer, all aligned.
func (m *BufferManager) BindingTable(base uint64) (*commandstream.BindingTable, error) {
	if !m.allocated {
		return nil, errors.New("BufferManager: BindingTable called before Allocate")
	}
	align := func(addr uint64) uint64 { return tensor.RoundUpToMultiple(addr, BufferAlignment) }
	controlUnitBase := align(base)
	dmaBase := align(controlUnitBase + uint64(len(m.constantControlUnitData)))
	intermediateBase := align(dmaBase + uint64(len(m.constantDmaData)))
	next := align(intermediateBase + uint64(m.intermediateSize))

	bt := &commandstream.BindingTable{Buffers: make([]commandstream.BufferInfo, 0, len(m.buffers))}
	for _, b := range m.buffers {
		var addr uint64
		switch b.Type {
		case opgraph.BufferTypeConstantControlUnit:
			addr = controlUnitBase + uint64(b.Offset)
		case opgraph.BufferTypeConstantDma:
			addr = dmaBase + uint64(b.Offset)
		case opgraph.BufferTypeIntermediate:
			addr = intermediateBase + uint64(b.Offset)
		default:
			addr = next
			next = align(next + uint64(b.Size))
		}
		bt.Buffers = append(bt.Buffers, commandstream.BufferInfo{
			ID:      b.ID,
			Address: commandstream.Hex64(addr),
			Size:    b.Size,
			Type:    b.BindingType(),
		})
	}
	return bt, nil
}
