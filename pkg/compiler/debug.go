// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/cascading"
	"github.com/gomlx/npucascade/pkg/combiner"
	"github.com/gomlx/npucascade/pkg/estimation"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/options"
	"github.com/gomlx/npucascade/pkg/parts"
	"github.com/gomlx/npucascade/pkg/support/fsutil"
	"github.com/gomlx/npucascade/pkg/visualisation"
)

// DebuggingContext saves the debug files of a compilation. With DumpDebugFiles disabled all its
// methods are no-ops.
type DebuggingContext struct {
	info options.DebugInfo
	dir  string
}

// NewDebuggingContext creates the debug directory, if debug files are enabled.
//
// If info.DebugDir is empty, a new directory is created under the system temporary directory.
func NewDebuggingContext(info options.DebugInfo) (*DebuggingContext, error) {
	d := &DebuggingContext{info: info}
	if !info.DumpDebugFiles {
		return d, nil
	}
	dir := info.DebugDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "npucascade_"+uuid.NewString())
	}
	var err error
	d.dir, err = fsutil.EnsureDir(dir)
	if err != nil {
		return nil, errors.WithMessage(err, "creating debug directory")
	}
	if klog.V(1).Enabled() {
		klog.Infof("saving debug files into %q", d.dir)
	}
	return d, nil
}

// Dir where files are saved. Empty if debug files are disabled.
func (d *DebuggingContext) Dir() string { return d.dir }

// Enabled returns whether files of the given level are saved.
func (d *DebuggingContext) Enabled(level options.DebugLevel) bool {
	return d.info.DumpDebugFiles && d.info.DebugLevel >= level
}

// detail of the dot files.
func (d *DebuggingContext) detail() visualisation.DetailLevel {
	if d.info.DebugLevel >= options.DebugLevelHigh {
		return visualisation.DetailLevelHigh
	}
	return visualisation.DetailLevelLow
}

// Save the file name, with the contents written by fn, if files of the given level are enabled.
func (d *DebuggingContext) Save(name string, level options.DebugLevel, fn func(w io.Writer) error) error {
	if !d.Enabled(level) {
		return nil
	}
	f, err := fsutil.CreateFileIn(d.dir, name)
	if err != nil {
		return err
	}
	if err = fn(f); err != nil {
		_ = f.Close()
		return errors.WithMessagef(err, "writing debug file %q", name)
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "closing debug file %q", name)
	}
	return nil
}

// SaveGraph saves the input graph into "graph.dot".
func (d *DebuggingContext) SaveGraph(g *graph.Graph) error {
	return d.Save("graph.dot", options.DebugLevelMedium, func(w io.Writer) error {
		return visualisation.SaveGraphToDot(g, w, d.detail())
	})
}

// SaveGraphOfParts saves the parts into "graph_of_parts.dot".
func (d *DebuggingContext) SaveGraphOfParts(gop *parts.GraphOfParts) error {
	return d.Save("graph_of_parts.dot", options.DebugLevelMedium, func(w io.Writer) error {
		return visualisation.SaveGraphOfPartsToDot(gop, w, d.detail())
	})
}

// SaveCombination saves the chosen combination into "combination.dot" and, at the highest level,
// with the contents of every plan into "combination_detailed.dot".
func (d *DebuggingContext) SaveCombination(comb combiner.Combination, gop *parts.GraphOfParts) error {
	err := d.Save("combination.dot", options.DebugLevelMedium, func(w io.Writer) error {
		return visualisation.SaveCombinationToDot(comb, gop, w, visualisation.DetailLevelLow)
	})
	if err != nil {
		return err
	}
	return d.Save("combination_detailed.dot", options.DebugLevelHigh, func(w io.Writer) error {
		return visualisation.SaveCombinationToDot(comb, gop, w, visualisation.DetailLevelHigh)
	})
}

// SaveOpGraph saves the OpGraph, only at the highest level.
func (d *DebuggingContext) SaveOpGraph(name string, g *opgraph.OpGraph) error {
	return d.Save(name, options.DebugLevelHigh, func(w io.Writer) error {
		return visualisation.SaveOpGraphToDot(g, w, visualisation.DetailLevelHigh)
	})
}

// SavePerformance saves the estimated performance into "estimation.txt".
func (d *DebuggingContext) SavePerformance(data *estimation.NetworkPerformanceData) error {
	return d.Save("estimation.txt", options.DebugLevelMedium, func(w io.Writer) error {
		_, err := io.WriteString(w, data.String()+"\n")
		return err
	})
}

// SaveCompiledNetwork saves the command stream into "command_stream.xml" and the DRAM buffers into
// "binding_table.xml".
func (d *DebuggingContext) SaveCompiledNetwork(network *cascading.CompiledNetwork) error {
	if err := d.Save("command_stream.xml", options.DebugLevelMedium, network.WriteXML); err != nil {
		return err
	}
	return d.Save("binding_table.xml", options.DebugLevelMedium, func(w io.Writer) error {
		bt, err := network.Buffers.BindingTable(0)
		if err != nil {
			return err
		}
		return bt.WriteXML(w)
	})
}
