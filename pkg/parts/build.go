// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package parts

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/graph"
)

// BuildGraphOfParts creates one part per node of the graph, except for McePostProcess nodes, which are folded
// into the McePart of the MCE operation they follow. Parts are created in the topological order of the nodes.
//
// Errors come from nodes that can't be turned into parts, or from the debug stripe config.
func BuildGraphOfParts(g *graph.Graph, config *Config) (*GraphOfParts, error) {
	var gop *GraphOfParts
	var err error
	if panicErr := exceptions.TryCatch[error](func() { gop, err = buildGraphOfParts(g, config) }); panicErr != nil {
		return nil, panicErr
	}
	return gop, err
}

func buildGraphOfParts(g *graph.Graph, config *Config) (*GraphOfParts, error) {
	gop := NewGraphOfParts()
	producers := make(map[graph.NodeID]PartOutputSlot, g.NumNodes())
	folded := make(map[graph.NodeID]bool)

	inputNodes := func(node *graph.Node) []*graph.Node {
		inputs := make([]*graph.Node, len(node.Inputs))
		for ii, input := range node.Inputs {
			inputs[ii] = g.Node(input)
		}
		return inputs
	}
	firstInput := func(node *graph.Node) (*graph.Node, error) {
		if len(node.Inputs) != 1 {
			return nil, errors.Errorf("node %s must have exactly 1 input, it has %d", node, len(node.Inputs))
		}
		return g.Node(node.Inputs[0]), nil
	}

	for _, node := range g.Nodes() {
		if folded[node.ID] {
			continue
		}
		id := gop.GeneratePartID()
		var part Part
		var err error
		switch node.Kind() {
		case graph.NodeKindInput:
			part = NewInputPart(id, node, config)
		case graph.NodeKindOutput:
			var input *graph.Node
			if input, err = firstInput(node); err == nil {
				part, err = NewOutputPart(id, node, input, config)
			}
		case graph.NodeKindConstant:
			part, err = NewConstantPart(id, node, config)
		case graph.NodeKindMceOperation:
			var input, postProcess *graph.Node
			if consumers := g.Consumers(node.ID); len(consumers) == 1 {
				if next := g.Node(consumers[0].To); next.Kind() == graph.NodeKindMcePostProcess {
					postProcess = next
					folded[next.ID] = true
				}
			}
			if input, err = firstInput(node); err == nil {
				part, err = NewMcePart(id, node, input, postProcess, config)
			}
			if err == nil && postProcess != nil {
				producers[postProcess.ID] = PartOutputSlot{PartID: id, Index: 0}
			}
		case graph.NodeKindMcePostProcess:
			err = errors.Errorf("node %s must follow an MCE operation with no other consumers", node)
		case graph.NodeKindFuseOnlyPle:
			var input *graph.Node
			if input, err = firstInput(node); err == nil {
				part, err = NewFusedPlePart(id, node, input, config)
			}
		case graph.NodeKindStandalonePle:
			part, err = NewStandalonePlePart(id, node, inputNodes(node), config)
		case graph.NodeKindConcat:
			part, err = NewConcatPart(id, node, inputNodes(node), config)
		case graph.NodeKindReinterpret:
			if _, err = firstInput(node); err == nil {
				part = NewReinterpretPart(id, node, config)
			}
		case graph.NodeKindEstimateOnly:
			part, err = NewEstimateOnlyPart(id, node, inputNodes(node), config)
		default:
			err = errors.Errorf("node %s of unknown kind", node)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "creating part for node #%d", node.ID)
		}
		gop.AddPart(part)
		producers[node.ID] = PartOutputSlot{PartID: id, Index: 0}
		for ii, input := range node.Inputs {
			out, found := producers[input]
			if !found {
				return nil, errors.Errorf("node %s reads node #%d, which has no part", node, input)
			}
			gop.AddConnection(PartInputSlot{PartID: id, Index: ii}, out)
		}
		klog.V(2).Infof("%s <- %s", part.DebugTag(), node)
	}
	return gop, nil
}
