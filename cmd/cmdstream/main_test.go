// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/npucascade/pkg/commandstream"
)

func TestConvertRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cs := commandstream.New().
		Add(&commandstream.DumpSram{Prefix: "ce"}).
		Add(&commandstream.Fence{}).
		Add(&commandstream.DumpDram{DramBufferID: 3, Filename: "output.hex"})
	var xmlText strings.Builder
	require.NoError(t, cs.WriteXML(&xmlText))
	xmlPath := filepath.Join(dir, "cs.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(xmlText.String()), 0o644))

	binPath := filepath.Join(dir, "cs.bin")
	require.NoError(t, convert("xml2bin", xmlPath, binPath))
	binData, err := os.ReadFile(binPath)
	require.NoError(t, err)
	want, err := cs.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, want, binData)

	backPath := filepath.Join(dir, "back.xml")
	require.NoError(t, convert("bin2xml", binPath, backPath))
	back, err := os.ReadFile(backPath)
	require.NoError(t, err)
	assert.Equal(t, xmlText.String(), string(back))
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	assert.ErrorContains(t, convert("xml2json", "-", "-"), "unknown conversion")
	assert.Error(t, convert("bin2xml", filepath.Join(dir, "missing.bin"), filepath.Join(dir, "out.xml")))

	garbage := filepath.Join(dir, "garbage.bin")
	require.NoError(t, os.WriteFile(garbage, []byte{1, 2, 3}, 0o644))
	assert.Error(t, convert("bin2xml", garbage, filepath.Join(dir, "out.xml")))
	assert.Error(t, convert("cmm2bt", garbage, filepath.Join(dir, "bt.xml")))
}

func TestConversionNames(t *testing.T) {
	assert.Equal(t, []string{"bin2xml", "cmm2bt", "cmm2cs", "xml2bin"}, conversionNames())
}
