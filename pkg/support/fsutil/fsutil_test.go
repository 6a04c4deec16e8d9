// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirAndCreateFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	assert.NoDirExists(t, dir)

	f, err := CreateFileIn(dir, "graph.dot")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.FileExists(t, filepath.Join(dir, "graph.dot"))

	got, err := EnsureDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestReplaceTildeInDir(t *testing.T) {
	dir, err := ReplaceTildeInDir("/no/tilde")
	require.NoError(t, err)
	assert.Equal(t, "/no/tilde", dir)
	dir, err = ReplaceTildeInDir("~/dumps")
	require.NoError(t, err)
	assert.NotContains(t, dir, "~")
	_, err = ReplaceTildeInDir("~no_such_user_for_sure/dumps")
	require.Error(t, err)
}
