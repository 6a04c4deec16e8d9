// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/npucascade/pkg/commandstream"
)

const convPool = `
name: conv_pool
settings: "max_parallelism=2"
nodes:
  - {name: input, op: input, shape: [1, 16, 16, 16]}
  - {name: conv, op: convolution, inputs: [input], kernel: [3, 3], channels: 16, padding: [1, 1, 1, 1], seed: 3}
  - {name: relu, op: relu, inputs: [conv]}
  - {name: pool, op: fuse_only_ple, operation: MaxPool2x2_2_2, inputs: [relu], multiplier: ["1/2", "1/2", "1"]}
  - {name: output, op: output, inputs: [pool]}
`

func writeNetworkFile(t *testing.T, text string) string {
	path := filepath.Join(t.TempDir(), "network.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func setFlags(t *testing.T, out string, estimate bool, plot string) {
	oldOut, oldEstimate, oldPlot, oldProgress := *flagOut, *flagEstimate, *flagPlot, *flagProgress
	t.Cleanup(func() {
		*flagOut, *flagEstimate, *flagPlot, *flagProgress = oldOut, oldEstimate, oldPlot, oldProgress
	})
	*flagOut, *flagEstimate, *flagPlot, *flagProgress = out, estimate, plot, false
}

func TestRun(t *testing.T) {
	out := t.TempDir()
	plot := filepath.Join(out, "lifetimes.svg")
	setFlags(t, out, false, plot)
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), writeNetworkFile(t, convPool), &stdout))
	assert.Contains(t, stdout.String(), "conv_pool")

	for _, suffix := range []string{".bin", ".xml", "_binding_table.xml", "_constant_dma.bin",
		"_constant_control_unit.bin"} {
		assert.FileExists(t, filepath.Join(out, "conv_pool"+suffix))
	}
	assert.FileExists(t, plot)

	data, err := os.ReadFile(filepath.Join(out, "conv_pool.bin"))
	require.NoError(t, err)
	cs, err := commandstream.DecodeBinary(data)
	require.NoError(t, err)
	f, err := os.Open(filepath.Join(out, "conv_pool.xml"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	fromXML, err := commandstream.ParseXML(f)
	require.NoError(t, err)
	assert.Equal(t, fromXML.NumAgents(), cs.NumAgents())
}

func TestRunEstimate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "never")
	setFlags(t, out, true, "")
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), writeNetworkFile(t, convPool), &stdout))
	assert.Contains(t, stdout.String(), "estimated metric")
	assert.NoDirExists(t, out)
}

func TestRunErrors(t *testing.T) {
	setFlags(t, t.TempDir(), false, "")
	var stdout bytes.Buffer
	assert.Error(t, run(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), &stdout))
	assert.Error(t, run(context.Background(), writeNetworkFile(t, "nodes: [{name: x, op: magic}]"), &stdout))

	badSettings := strings.Replace(convPool, "max_parallelism=2", "no_such_setting=1", 1)
	assert.Error(t, run(context.Background(), writeNetworkFile(t, badSettings), &stdout))
}
