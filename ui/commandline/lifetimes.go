// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/gomlx/npucascade/pkg/cascading"
	"github.com/gomlx/npucascade/pkg/opgraph"
)

// PlotBufferLifetimes saves into path a plot of the intermediate DRAM buffers: each buffer is a
// rectangle spanning the agents that use it (x axis) and its allocated bytes (y axis).
//
// Overlapping rectangles would mean two live buffers share memory. The format is taken from the
// path extension (e.g. ".png", ".svg" or ".pdf").
func PlotBufferLifetimes(network *cascading.CompiledNetwork, path string) error {
	numAgents := float64(network.CommandStream.NumAgents())
	p := plot.New()
	p.Title.Text = "Intermediate DRAM buffers"
	p.X.Label.Text = "agent"
	p.X.Min = 0
	p.X.Max = max(numAgents, 1)
	p.Y.Label.Text = "offset (bytes)"
	p.Y.Min = 0
	p.Y.Max = max(float64(network.IntermediateDataSize), 1)

	var labels plotter.XYLabels
	var numBuffers int
	for _, b := range network.Buffers.Buffers() {
		if b.Type != opgraph.BufferTypeIntermediate {
			continue
		}
		start, end := 0.0, numAgents
		if b.HasLifetime {
			start, end = float64(b.LifetimeStart), float64(b.LifetimeEnd)
		}
		bottom, top := float64(b.Offset), float64(b.Offset+b.Size)
		rect, err := plotter.NewPolygon(plotter.XYs{{X: start, Y: bottom}, {X: end, Y: bottom}, {X: end, Y: top},
			{X: start, Y: top}})
		if err != nil {
			return errors.Wrapf(err, "plotting buffer %s", b)
		}
		rect.Color = plotutil.Color(numBuffers)
		p.Add(rect)
		labels.XYs = append(labels.XYs, plotter.XY{X: start, Y: bottom})
		labels.Labels = append(labels.Labels, b.DebugTag)
		numBuffers++
	}
	if numBuffers > 0 {
		tags, err := plotter.NewLabels(labels)
		if err != nil {
			return errors.Wrap(err, "plotting buffer labels")
		}
		p.Add(tags)
	}
	if err := p.Save(12*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving plot to %q", path)
	}
	return nil
}
