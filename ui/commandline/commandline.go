// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package commandline contains the command-line UI of the compiler: a progress bar for the
// combiner, report tables of the compiled network and a plot of the DRAM buffers lifetimes.
package commandline

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/gomlx/npucascade/pkg/cascading"
	"github.com/gomlx/npucascade/pkg/commandstream"
	"github.com/gomlx/npucascade/pkg/compiler"
	"github.com/gomlx/npucascade/pkg/estimation"
	"github.com/gomlx/npucascade/pkg/opgraph"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 0, 4)
)

// newPlainTable returns a table with alternating row styles. The last alignment is used for all the
// remaining columns.
func newPlainTable(alignments ...lipgloss.Position) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if row < 0 {
				return headerRowStyle
			}
			if row%2 == 0 {
				s = oddRowStyle
			} else {
				s = evenRowStyle
			}
			alignment := lipgloss.Left
			if col < len(alignments) {
				alignment = alignments[col]
			} else if len(alignments) > 0 {
				alignment = alignments[len(alignments)-1]
			}
			return s.Align(alignment)
		})
}

// Report writes the tables describing the result of a compilation: a summary, the agents of each
// cascade and the DRAM buffers. Results of an estimation only have the summary.
func Report(w io.Writer, result *compiler.Result) error {
	sections := []string{
		titleStyle.Render("Summary"),
		summaryTable(result).String(),
	}
	if result.Network != nil {
		sections = append(sections,
			titleStyle.Render("Agents"), agentsTable(result.Network.CommandStream).String(),
			titleStyle.Render("Buffers"), buffersTable(result).String())
	}
	for _, section := range sections {
		if _, err := fmt.Fprintln(w, section); err != nil {
			return err
		}
	}
	return nil
}

func summaryTable(result *compiler.Result) *lgtable.Table {
	table := newPlainTable(lipgloss.Right, lipgloss.Left)
	table.Row("graph", result.Graph.Name())
	table.Row("# nodes", humanize.Comma(int64(result.Graph.NumNodes())))
	if result.Parts != nil {
		table.Row("# parts", humanize.Comma(int64(result.Parts.NumParts())))
	}
	if result.OpGraph != nil {
		table.Row("# ops", humanize.Comma(int64(result.OpGraph.NumOps())))
		table.Row("# buffers", humanize.Comma(int64(result.OpGraph.NumBuffers())))
	}
	if result.Performance != nil {
		table.Row("# passes", humanize.Comma(int64(len(result.Performance.Stream))))
		table.Row("estimated metric", humanize.Comma(int64(estimation.GetPerformanceTotalDataMetric(result.Performance))))
	}
	if n := result.Network; n != nil {
		table.Row("network id", n.ID.String())
		table.Row("# agents", humanize.Comma(int64(n.CommandStream.NumAgents())))
		table.Row("constant DMA data", humanize.Bytes(uint64(len(n.ConstantDmaData))))
		table.Row("constant control unit data", humanize.Bytes(uint64(len(n.ConstantControlUnitData))))
		table.Row("intermediate data", humanize.Bytes(uint64(n.IntermediateDataSize)))
	}
	if result.DebugDir != "" {
		table.Row("debug files", result.DebugDir)
	}
	return table
}

func agentsTable(cs *commandstream.CommandStream) *lgtable.Table {
	types := commandstream.AgentTypeValues()
	table := newPlainTable(lipgloss.Right)
	headers := []string{"cascade"}
	for _, t := range types {
		headers = append(headers, t.String())
	}
	table.Headers(append(headers, "total")...)
	for ii, cascade := range cs.Cascades() {
		counts := make(map[commandstream.AgentType]int, len(types))
		for jj := range cascade.Agents {
			counts[cascade.Agents[jj].Type()]++
		}
		row := []string{fmt.Sprintf("#%d", ii)}
		for _, t := range types {
			row = append(row, humanize.Comma(int64(counts[t])))
		}
		table.Row(append(row, humanize.Comma(int64(len(cascade.Agents))))...)
	}
	return table
}

func buffersTable(result *compiler.Result) *lgtable.Table {
	buffers := slices.Clone(result.Network.Buffers.Buffers())
	slices.SortStableFunc(buffers, func(a, b *cascading.BufferInfo) int { return cmp.Compare(a.Type, b.Type) })
	table := newPlainTable(lipgloss.Right, lipgloss.Left, lipgloss.Left, lipgloss.Right, lipgloss.Right,
		lipgloss.Left)
	table.Headers("id", "type", "tag", "size", "offset", "lifetime")
	for _, b := range buffers {
		offset, lifetime := "-", "-"
		switch b.Type {
		case opgraph.BufferTypeInput, opgraph.BufferTypeOutput:
		default:
			offset = fmt.Sprintf("0x%x", b.Offset)
		}
		if b.HasLifetime {
			lifetime = fmt.Sprintf("[%d, %d)", b.LifetimeStart, b.LifetimeEnd)
		}
		table.Row(fmt.Sprintf("%d", b.ID), b.Type.String(), b.DebugTag, humanize.Bytes(uint64(b.Size)), offset,
			lifetime)
	}
	return table
}
