// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cascading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/npucascade/pkg/commandstream"
	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/opgraph"
)

func TestBufferManagerIntermediates(t *testing.T) {
	m := NewBufferManager()
	a := m.AddDram(100, "a")
	b := m.AddDram(200, "b")
	c := m.AddDram(50, "c")
	d := m.AddDram(10, "d")
	m.MarkBufferUsedAtTime(a, 0, 2)
	m.MarkBufferUsedAtTime(b, 2, 4)
	m.MarkBufferUsedAtTime(c, 1, 3)
	m.Allocate()

	// b is placed first, a doesn't live at the same time so it reuses its space, c lives with both.
	assert.Equal(t, uint32(0), m.Buffer(b).Offset)
	assert.Equal(t, uint32(0), m.Buffer(a).Offset)
	assert.Equal(t, uint32(256), m.Buffer(c).Offset)

	// d has no lifetime: it is alive all the time, so it goes after everything.
	assert.Equal(t, uint32(320), m.Buffer(d).Offset)
	assert.Equal(t, uint32(330), m.IntermediateSize())
}

func TestBufferManagerFitsInGaps(t *testing.T) {
	m := NewBufferManager()
	big := m.AddDram(1000, "big")
	early := m.AddDram(100, "early")
	late := m.AddDram(100, "late")
	m.MarkBufferUsedAtTime(big, 0, 10)
	m.MarkBufferUsedAtTime(early, 0, 5)
	m.MarkBufferUsedAtTime(late, 5, 10)
	m.Allocate()
	assert.Equal(t, uint32(0), m.Buffer(big).Offset)
	assert.Equal(t, uint32(1024), m.Buffer(early).Offset)
	assert.Equal(t, uint32(1024), m.Buffer(late).Offset, "disjoint lifetimes share the same space")
	assert.Equal(t, uint32(1124), m.IntermediateSize())
	for _, b := range m.Buffers()[1:] {
		assert.Zero(t, b.Offset%BufferAlignment, "buffer %s", b)
	}
}

func TestMarkBufferUsedAtTime(t *testing.T) {
	m := NewBufferManager()
	id := m.AddDram(64, "intermediate")
	m.MarkBufferUsedAtTime(id, 3, 5)
	m.MarkBufferUsedAtTime(id, 1, 4)
	b := m.Buffer(id)
	assert.True(t, b.HasLifetime)
	assert.Equal(t, uint32(1), b.LifetimeStart)
	assert.Equal(t, uint32(5), b.LifetimeEnd)

	input := m.AddDramInput(64, 0)
	assert.Panics(t, func() { m.MarkBufferUsedAtTime(input, 0, 1) }, "only intermediate buffers have a lifetime")
	assert.Panics(t, func() { m.MarkBufferUsedAtTime(id, 2, 2) }, "empty lifetime")
	assert.Panics(t, func() { m.MarkBufferUsedAtTime(100, 0, 1) }, "invalid id")
	assert.Panics(t, func() { m.AddDramConstant(opgraph.BufferTypeIntermediate, nil) })
}

func TestBufferManagerConstants(t *testing.T) {
	m := NewBufferManager()
	require.NoError(t, m.AddCommandStream(commandstream.New()))
	cs := m.Buffer(CommandStreamBufferID)
	require.NotEmpty(t, cs.ConstantData)
	assert.Equal(t, uint32(len(cs.ConstantData)), cs.Size)

	dma0 := m.AddDramConstant(opgraph.BufferTypeConstantDma, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	dma1 := m.AddDramConstant(opgraph.BufferTypeConstantDma, []byte{11, 12, 13, 14, 15})
	cu := m.AddDramConstant(opgraph.BufferTypeConstantControlUnit, []byte{42})
	m.Allocate()

	assert.Equal(t, uint32(0), m.Buffer(dma0).Offset)
	assert.Equal(t, uint32(64), m.Buffer(dma1).Offset)
	dmaData := m.ConstantDmaData()
	require.Len(t, dmaData, 69)
	assert.Equal(t, []byte{11, 12, 13, 14, 15}, dmaData[64:])

	assert.Equal(t, uint32(0), cs.Offset)
	cuOffset := uint32(tensor.RoundUpToMultiple(len(cs.ConstantData), BufferAlignment))
	assert.Equal(t, cuOffset, m.Buffer(cu).Offset)
	cuData := m.ConstantControlUnitData()
	assert.Equal(t, cs.ConstantData, cuData[:len(cs.ConstantData)])
	assert.Equal(t, byte(42), cuData[cuOffset])
	assert.Zero(t, m.IntermediateSize())

	assert.Panics(t, func() { m.AddDram(10, "late") }, "adding after Allocate")
}

func TestBindingTable(t *testing.T) {
	m := NewBufferManager()
	require.NoError(t, m.AddCommandStream(commandstream.New()))
	input := m.AddDramInput(100, 0)
	weights := m.AddDramConstant(opgraph.BufferTypeConstantDma, make([]byte, 300))
	intermediate := m.AddDram(500, "intermediate")
	output := m.AddDramOutput(200, 5, 0)

	_, err := m.BindingTable(0x1000)
	require.Error(t, err, "not allocated yet")
	m.Allocate()

	bt, err := m.BindingTable(0x1000)
	require.NoError(t, err)
	require.Len(t, bt.Buffers, 5)
	controlUnitSize := uint64(len(m.ConstantControlUnitData()))
	dmaBase := tensor.RoundUpToMultiple(0x1000+controlUnitSize, uint64(BufferAlignment))
	intermediateBase := tensor.RoundUpToMultiple(dmaBase+300, uint64(BufferAlignment))
	inputAddr := tensor.RoundUpToMultiple(intermediateBase+500, uint64(BufferAlignment))
	outputAddr := tensor.RoundUpToMultiple(inputAddr+100, uint64(BufferAlignment))

	want := []commandstream.BufferInfo{
		{ID: CommandStreamBufferID, Address: 0x1000, Size: uint32(controlUnitSize), Type: commandstream.BufferTypeCmdFw},
		{ID: input, Address: commandstream.Hex64(inputAddr), Size: 100, Type: commandstream.BufferTypeInput},
		{ID: weights, Address: commandstream.Hex64(dmaBase), Size: 300, Type: commandstream.BufferTypeConstant},
		{ID: intermediate, Address: commandstream.Hex64(intermediateBase), Size: 500, Type: commandstream.BufferTypeIntermediate},
		{ID: output, Address: commandstream.Hex64(outputAddr), Size: 200, Type: commandstream.BufferTypeOutput},
	}
	assert.Equal(t, want, bt.Buffers)
	assert.Equal(t, "#4 Output5_0(Output, 200 B)", m.Buffer(output).String())
}
