// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package visualisation writes Graphviz ".dot" descriptions of the structures built during a compilation:
// the input graph.Graph, the parts.GraphOfParts, an opgraph.OpGraph and a combiner.Combination.
//
// Render them with, for instance, `dot -Tsvg combination.dot -o combination.svg`.
package visualisation

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/exp/maps"

	"github.com/gomlx/npucascade/pkg/combiner"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/parts"
)

// DetailLevel of the generated descriptions.
type DetailLevel int

//go:generate go tool enumer -type=DetailLevel -trimprefix=DetailLevel -output=gen_detaillevel_enumer.go visualisation.go

const (
	// DetailLevelLow shows only names and kinds.
	DetailLevelLow DetailLevel = iota

	// DetailLevelHigh adds shapes, formats, stripes and the contents of plans.
	DetailLevelHigh
)

// Colours of the nodes by location, for buffers, and by kind, for ops.
var (
	locationColours = map[opgraph.Location]string{
		opgraph.LocationDram:         "brown",
		opgraph.LocationSram:         "blue",
		opgraph.LocationPleInputSram: "darkgreen",
		opgraph.LocationVirtualSram:  "purple",
	}
	opKindColours = map[opgraph.OpKind]string{
		opgraph.OpKindMce:    "red",
		opgraph.OpKindPle:    "orange",
		opgraph.OpKindDma:    "darkgoldenrod",
		opgraph.OpKindConcat: "gray",
		opgraph.OpKindDummy:  "black",
	}
)

// dotWriter keeps the first error, so the writers can be written without checking each line.
type dotWriter struct {
	w      *bufio.Writer
	err    error
	indent string
}

func newDotWriter(w io.Writer) *dotWriter {
	return &dotWriter{w: bufio.NewWriter(w)}
}

func (d *dotWriter) printf(format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, d.indent+format+"\n", args...)
}

func (d *dotWriter) begin(header string) {
	d.printf("%s {", header)
	d.indent += "\t"
}

func (d *dotWriter) end() {
	d.indent = d.indent[:len(d.indent)-1]
	d.printf("}")
}

func (d *dotWriter) close() error {
	if d.err != nil {
		return d.err
	}
	return d.w.Flush()
}

// quote escapes s as a dot string.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + strings.ReplaceAll(s, "\n", `\n`) + `"`
}

func label(lines ...string) string {
	return quote(strings.Join(lines, "\n"))
}

// SaveGraphToDot writes the input graph: one node per graph.Node, one edge per operand.
func SaveGraphToDot(g *graph.Graph, w io.Writer, level DetailLevel) error {
	d := newDotWriter(w)
	d.begin("digraph " + quote(g.Name()))
	for _, node := range g.Nodes() {
		lines := []string{node.Name, node.Kind().String()}
		if level == DetailLevelHigh {
			lines = append(lines, node.Shape.String(), node.DataType.String(), node.Format.String())
		}
		d.printf("Node_%d [label = %s, shape = box]", node.ID, label(lines...))
	}
	for _, edge := range g.Edges() {
		d.printf("Node_%d -> Node_%d [label = %d]", edge.From, edge.To, edge.InputIndex)
	}
	d.end()
	return d.close()
}

// SaveGraphOfPartsToDot writes the parts and the connections between their slots.
func SaveGraphOfPartsToDot(gop *parts.GraphOfParts, w io.Writer, level DetailLevel) error {
	d := newDotWriter(w)
	d.begin("digraph GraphOfParts")
	for _, part := range gop.Parts() {
		lines := []string{part.DebugTag(), part.Kind().String()}
		if level == DetailLevelHigh {
			lines = append(lines, fmt.Sprintf("Operation ids: %v", sortedIDs(part)))
		}
		d.printf("Part_%d [label = %s, shape = box]", part.ID(), label(lines...))
	}
	slots, connections := gop.Connections()
	for _, in := range slots {
		out := connections[in]
		d.printf("Part_%d -> Part_%d [label = %s]", out.PartID, in.PartID, quote(fmt.Sprintf("%d -> %d", out.Index, in.Index)))
	}
	d.end()
	return d.close()
}

func sortedIDs(part parts.Part) []int {
	ids := maps.Keys(part.OperationIDs())
	slices.Sort(ids)
	return ids
}

// SaveOpGraphToDot writes the ops and buffers of the graph.
func SaveOpGraphToDot(g *opgraph.OpGraph, w io.Writer, level DetailLevel) error {
	d := newDotWriter(w)
	d.begin("digraph OpGraph")
	writeOpGraph(d, g, "", level)
	d.end()
	return d.close()
}

// writeOpGraph writes the nodes and edges of the OpGraph, with ids starting with prefix.
func writeOpGraph(d *dotWriter, g *opgraph.OpGraph, prefix string, level DetailLevel) {
	for _, id := range g.BufferIDs() {
		b := g.Buffer(id)
		lines := []string{b.DebugTag, b.Location.String()}
		if level == DetailLevelHigh {
			lines = append(lines,
				fmt.Sprintf("Format = %s", b.Format),
				fmt.Sprintf("Tensor = %s", b.TensorShape),
				fmt.Sprintf("Stripe = %s x %d", b.StripeShape, b.NumStripes),
				fmt.Sprintf("Size = %s", humanize.Bytes(uint64(b.SizeInBytes))))
			if b.HasOffset {
				lines = append(lines, fmt.Sprintf("Offset = 0x%X", b.Offset))
			}
		}
		d.printf("%sBuffer_%d [label = %s, shape = box, color = %s]", prefix, id, label(lines...),
			locationColours[b.Location])
	}
	for _, id := range g.OpIDs() {
		op := g.Op(id)
		text := op.Base().DebugTag
		if level == DetailLevelHigh {
			text = opgraph.OpString(op)
		}
		d.printf("%sOp_%d [label = %s, shape = oval, color = %s]", prefix, id, label(text, op.Kind().String()),
			opKindColours[op.Kind()])
		for _, in := range g.Inputs(id) {
			d.printf("%sBuffer_%d -> %sOp_%d", prefix, in, prefix, id)
		}
		if out := g.Output(id); out != opgraph.InvalidBufferID {
			d.printf("%sOp_%d -> %sBuffer_%d", prefix, id, prefix, out)
		}
	}
}

// SaveCombinationToDot writes the combination: at DetailLevelLow one node per part and glue, at
// DetailLevelHigh the OpGraphs of the plans and glues, each in its own cluster.
func SaveCombinationToDot(comb combiner.Combination, gop *parts.GraphOfParts, w io.Writer, level DetailLevel) error {
	d := newDotWriter(w)
	d.begin("digraph Combination")
	for _, id := range comb.PartIDs() {
		elem := comb.Elems[id]
		part := gop.Part(id)
		if level == DetailLevelLow || elem.Plan == nil {
			lines := []string{part.DebugTag()}
			if elem.Plan != nil {
				lines = append(lines, fmt.Sprintf("%d ops, %s of SRAM", elem.Plan.OpGraph.NumOps(),
					humanize.Bytes(uint64(elem.Plan.SramSize()))))
			}
			d.printf("Part_%d [label = %s, shape = box]", id, label(lines...))
		} else {
			d.begin(fmt.Sprintf("subgraph cluster_Part_%d", id))
			d.printf("label = %s", quote(part.DebugTag()))
			writeOpGraph(d, elem.Plan.OpGraph, fmt.Sprintf("Part_%d_", id), level)
			d.end()
		}
	}

	for _, id := range comb.PartIDs() {
		elem := comb.Elems[id]
		slots := maps.Keys(elem.Glues)
		slices.SortFunc(slots, func(a, b parts.PartInputSlot) int {
			return cmp.Or(cmp.Compare(a.PartID, b.PartID), cmp.Compare(a.Index, b.Index))
		})
		for _, slot := range slots {
			if glue := elem.Glues[slot]; glue != nil && level == DetailLevelHigh {
				prefix := fmt.Sprintf("Glue_%d_%d_%d_", id, slot.PartID, slot.Index)
				d.begin(fmt.Sprintf("subgraph cluster_%s", strings.TrimSuffix(prefix, "_")))
				d.printf("label = %s", quote("Glue to "+slot.String()))
				writeOpGraph(d, glue.Graph, prefix, level)
				d.end()
			}
		}
	}

	// Connections between parts, through their glue if any.
	slots, connections := gop.Connections()
	for _, in := range slots {
		out := connections[in]
		if comb.Elems[in.PartID].Plan == nil || comb.Elems[out.PartID].Plan == nil {
			continue
		}
		glue := comb.Elems[out.PartID].Glues[in]
		if level == DetailLevelLow {
			attrs := ""
			if glue != nil {
				attrs = fmt.Sprintf(" [label = %s, style = dashed]", quote(fmt.Sprintf("glue: %d ops", glue.Graph.NumOps())))
			}
			d.printf("Part_%d -> Part_%d%s", out.PartID, in.PartID, attrs)
			continue
		}
		from := planBufferNode(comb.Plan(out.PartID), out)
		to := planInputNode(comb.Plan(in.PartID), in)
		if from == "" || to == "" {
			continue
		}
		if glue == nil {
			d.printf("%s -> %s [style = dashed]", from, to)
			continue
		}
		prefix := fmt.Sprintf("Glue_%d_%d_%d_", out.PartID, in.PartID, in.Index)
		d.printf("%s -> %sOp_%d [style = dashed]", from, prefix, glue.InputSlot.Op)
		d.printf("%sOp_%d -> %s [style = dashed]", prefix, glue.Output, to)
	}
	d.end()
	return d.close()
}

// planBufferNode returns the node of the plan buffer mapped to the output slot.
func planBufferNode(plan *parts.Plan, slot parts.PartOutputSlot) string {
	if id := plan.OutputBuffer(slot); id != opgraph.InvalidBufferID {
		return fmt.Sprintf("Part_%d_Buffer_%d", slot.PartID, id)
	}
	return ""
}

// planInputNode returns the node of the plan buffer mapped to the input slot.
func planInputNode(plan *parts.Plan, slot parts.PartInputSlot) string {
	if id := plan.InputBuffer(slot); id != opgraph.InvalidBufferID {
		return fmt.Sprintf("Part_%d_Buffer_%d", slot.PartID, id)
	}
	return ""
}
