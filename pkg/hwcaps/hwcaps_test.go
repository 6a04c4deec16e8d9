// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package hwcaps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/npucascade/pkg/core/tensor"
)

func TestDefault(t *testing.T) {
	caps := Default()
	assert.Equal(t, VariantN78_4TOPS_4PLE_RATIO, caps.Variant)
	assert.Equal(t, uint32(1024*1024), caps.TotalSramSize)
	assert.Equal(t, uint32(16), caps.NumberOfOgs())
	assert.Equal(t, uint32(16), caps.NumberOfSrams())
	assert.Equal(t, uint32(64*1024), caps.SramSizePerBank())
	assert.Equal(t, tensor.Shape{1, 8, 8, 16}, caps.BrickGroupShape)
	assert.Contains(t, caps.String(), "N78_4TOPS_4PLE_RATIO")
}

func TestNew(t *testing.T) {
	for _, variant := range VariantValues() {
		caps, err := New(variant, 0)
		require.NoError(t, err, "variant %s", variant)
		assert.Equal(t, variant, caps.Variant)
		assert.NotZero(t, caps.NumberOfOgs())
	}

	caps, err := New(VariantN78_8TOPS_2PLE_RATIO, 4*1024*1024)
	require.NoError(t, err)
	assert.Equal(t, uint32(4*1024*1024), caps.TotalSramSize)
	assert.Equal(t, uint32(32), caps.NumberOfSrams())

	_, err = New(VariantN78_4TOPS_4PLE_RATIO, 1000)
	require.Error(t, err)
	_, err = New(VariantN78_4TOPS_4PLE_RATIO, 8*1024*1024)
	require.Error(t, err)
	_, err = New(Variant(100), 0)
	require.Error(t, err)
	assert.Panics(t, func() { MustNew(Variant(100), 0) })
}

func TestMaxTileSize(t *testing.T) {
	caps := Default()
	// Small tensors are rounded up to the brick group.
	assert.Equal(t, uint32(8*8*16), caps.MaxTileSize(tensor.Shape{1, 3, 5, 7}))
	// Capped by the SRAM size.
	assert.Equal(t, caps.TotalSramSize, caps.MaxTileSize(tensor.Shape{1, 512, 512, 64}))
	assert.Equal(t, uint32(8*16*16), caps.MaxTileSizeWithMultiples(tensor.Shape{1, 8, 9, 16}, 16, 8))
}

func TestBlockConfig(t *testing.T) {
	b := BlockConfig{16, 8}
	assert.Equal(t, "16x8", b.String())
	assert.True(t, BlockConfig{}.IsZero())
	assert.True(t, BlockConfig{8, 16}.Less(b))
	assert.Len(t, AllBlockConfigs(), 6)
	assert.Contains(t, AllBlockConfigs(), BlockConfig{8, 32})
}
