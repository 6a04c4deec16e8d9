// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSettings(t *testing.T) {
	compilation, estimation := DefaultCompilationOptions(), DefaultEstimationOptions()
	require.True(t, compilation.AllStrategiesEnabled())

	paramsSet, err := ParseSettings(&compilation, &estimation,
		"strategy3=false;block_config_8x8=false;max_parallelism=1_000;debug_level=High;"+
			"activation_compression_saving=0.25;debug_dir=/tmp/dump;")
	require.NoError(t, err)
	assert.Equal(t, []string{"strategy3", "block_config_8x8", "max_parallelism", "debug_level",
		"activation_compression_saving", "debug_dir"}, paramsSet)
	assert.False(t, compilation.Strategy3)
	assert.False(t, compilation.AllStrategiesEnabled())
	assert.False(t, compilation.BlockConfig8x8)
	assert.True(t, compilation.BlockConfig8x16)
	assert.Equal(t, 1000, compilation.MaxParallelism)
	assert.Equal(t, DebugLevelHigh, compilation.DebugInfo.DebugLevel)
	assert.Equal(t, "/tmp/dump", compilation.DebugInfo.DebugDir)
	assert.Equal(t, 0.25, estimation.ActivationCompressionSaving)

	_, err = ParseSettings(&compilation, &estimation, "unknown=3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strategy0")
	_, err = ParseSettings(&compilation, &estimation, "strategy0")
	require.Error(t, err)
	_, err = ParseSettings(&compilation, &estimation, "strategy0=maybe")
	require.Error(t, err)
	_, err = ParseSettings(&compilation, nil, "current=false")
	require.Error(t, err, "estimation settings are unknown without EstimationOptions")
}

func TestParseSettingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.txt")
	require.NoError(t, os.WriteFile(path, []byte("# Disable block configs.\nblock_config_16x16=false\n\nblock_config_16x8=false;strategy7=false\n"), 0o644))
	compilation := DefaultCompilationOptions()
	paramsSet, err := ParseSettings(&compilation, nil, "file:"+path)
	require.NoError(t, err)
	assert.Equal(t, []string{"block_config_16x16", "block_config_16x8", "strategy7"}, paramsSet)
	assert.False(t, compilation.BlockConfig16x16)
	assert.False(t, compilation.Strategy7)

	_, err = ParseSettings(&compilation, nil, "file:"+path+".missing")
	require.Error(t, err)
}

func TestSprintSettings(t *testing.T) {
	compilation, estimation := DefaultCompilationOptions(), DefaultEstimationOptions()
	s := SprintSettings(&compilation, &estimation)
	assert.Contains(t, s, `"strategy0": true`)
	assert.Contains(t, s, `"debug_level": None`)
	assert.Contains(t, s, `"current": true`)
}
