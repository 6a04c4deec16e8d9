// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package combiner

import (
	"cmp"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/parts"
)

// GetOpGraphForCombination merges the plans and glues of the combination into a single OpGraph.
//
// Plans are appended in part id order, each followed by its glues sorted by consumer slot. A plan's input
// buffer that isn't glued is the same buffer as the output buffer of the plan feeding it, if that plan comes
// earlier and both buffers are in the same location. Parts without a plan in the combination are skipped.
func GetOpGraphForCombination(comb Combination, graph *parts.GraphOfParts) *opgraph.OpGraph {
	result := opgraph.New()
	glued := make(map[parts.PartInputSlot]bool)
	for _, elem := range comb.Elems {
		for slot, glue := range elem.Glues {
			if glue != nil {
				glued[slot] = true
			}
		}
	}

	// Buffers of the output slots already appended, and the glue ops writing the input slots.
	outputBuffers := make(map[parts.PartOutputSlot]opgraph.BufferID)
	glueOutputs := make(map[parts.PartInputSlot]opgraph.OpID)

	for _, part := range graph.Parts() {
		elem, found := comb.Elems[part.ID()]
		if !found || elem.Plan == nil {
			continue
		}
		plan := elem.Plan
		inputBuffers := maps.Keys(plan.InputMappings)
		slices.Sort(inputBuffers)

		shared := make(map[opgraph.BufferID]opgraph.BufferID)
		for _, inID := range inputBuffers {
			slot := plan.InputMappings[inID]
			if glued[slot] {
				continue
			}
			out, found := graph.ConnectedOutputSlot(slot)
			if !found {
				continue
			}
			outID, found := outputBuffers[out]
			if !found {
				continue
			}
			in, sharedBuffer := plan.OpGraph.Buffer(inID), result.Buffer(outID)
			if in.Location != sharedBuffer.Location {
				continue
			}
			shared[inID] = outID
			if in.Type != opgraph.BufferTypeIntermediate && in.Type != opgraph.BufferTypeNone {
				// The consumer is the one that knows it is a network output.
				sharedBuffer.Type = in.Type
				sharedBuffer.OperationID = in.OperationID
				sharedBuffer.ProducerOutputIndex = in.ProducerOutputIndex
				sharedBuffer.DebugTag = in.DebugTag
			}
		}

		_, bufferMap := result.Append(plan.OpGraph, shared)
		for _, inID := range inputBuffers {
			if op, found := glueOutputs[plan.InputMappings[inID]]; found {
				result.SetProducer(bufferMap[inID], op)
			}
		}
		for outID, slot := range plan.OutputMappings {
			outputBuffers[slot] = bufferMap[outID]
		}

		slots := maps.Keys(elem.Glues)
		slices.SortFunc(slots, func(a, b parts.PartInputSlot) int {
			return cmp.Or(cmp.Compare(a.PartID, b.PartID), cmp.Compare(a.Index, b.Index))
		})
		for _, slot := range slots {
			glue := elem.Glues[slot]
			if glue == nil {
				continue
			}
			out, found := graph.ConnectedOutputSlot(slot)
			if !found {
				continue
			}
			outID, found := outputBuffers[out]
			if !found {
				continue
			}
			opMap, _ := result.Append(glue.Graph, nil)
			result.AddConsumer(outID, opMap[glue.InputSlot.Op], glue.InputSlot.Index)
			glueOutputs[slot] = opMap[glue.Output]
		}
	}
	return result
}
