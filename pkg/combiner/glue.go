// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package combiner

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/parts"
	"github.com/gomlx/npucascade/pkg/support/sets"
)

// IsPlanInputGlueable returns whether all the input buffers of the plan can be written by a glue: they must
// be in SRAM or in DRAM.
func IsPlanInputGlueable(plan *parts.Plan) bool {
	for id := range plan.InputMappings {
		if !isGlueableLocation(plan.OpGraph.Buffer(id).Location) {
			return false
		}
	}
	return true
}

// isPlanOutputGlueable returns whether all the output buffers of the plan can be read by a glue.
func isPlanOutputGlueable(plan *parts.Plan) bool {
	for id := range plan.OutputMappings {
		if !isGlueableLocation(plan.OpGraph.Buffer(id).Location) {
			return false
		}
	}
	return true
}

func isGlueableLocation(location opgraph.Location) bool {
	return location == opgraph.LocationSram || location == opgraph.LocationDram
}

// IsPlanInputGlueable is the method version of the function of the same name.
func (c *Combiner) IsPlanInputGlueable(plan *parts.Plan) bool {
	return IsPlanInputGlueable(plan)
}

// GluePartToCombination adds to comb the glues connecting the plans of the sources to the plan of part.
// The plans of part and of all the sources must be in comb.
//
// The glues are attached to the elems of the producing parts.
func (c *Combiner) GluePartToCombination(part parts.Part, comb Combination, sources []Connection) Combination {
	consumer := comb.Plan(part.ID())
	if consumer == nil {
		exceptions.Panicf("GluePartToCombination: combination has no plan for %s", part.DebugTag())
	}
	result := comb
	for _, conn := range sources {
		producer := comb.Plan(conn.Out.PartID)
		if producer == nil {
			exceptions.Panicf("GluePartToCombination: combination has no plan for the part feeding %s", conn.In)
		}
		outID := producer.OutputBuffer(conn.Out)
		inID := consumer.InputBuffer(conn.In)
		if outID == opgraph.InvalidBufferID || inID == opgraph.InvalidBufferID {
			exceptions.Panicf("GluePartToCombination: plans don't map %s -> %s", conn.Out, conn.In)
		}
		glue := newGlue(producer.OpGraph.Buffer(outID), consumer.OpGraph.Buffer(inID),
			fmt.Sprintf("%s->%s", conn.Out, conn.In))
		result = result.Add(NewGlueCombination(conn.Out.PartID, conn.In, glue))
	}
	return result
}

// dramFormatForGlue returns the format of the DRAM buffer of a glue between the two SRAM buffers: a
// compressed format if both stripe shapes are made of whole cells of it.
func dramFormatForGlue(producer, consumer *opgraph.Buffer) opgraph.BufferFormat {
	if producer.DataType == tensor.DataTypeInt32Quantized {
		return opgraph.BufferFormatNHWCB
	}
	switch {
	case producer.StripeShape.IsMultipleOf(tensor.FcafDeepCellShape) &&
		consumer.StripeShape.IsMultipleOf(tensor.FcafDeepCellShape):
		return opgraph.BufferFormatFCAFDeep
	case producer.StripeShape.IsMultipleOf(tensor.FcafWideCellShape) &&
		consumer.StripeShape.IsMultipleOf(tensor.FcafWideCellShape):
		return opgraph.BufferFormatFCAFWide
	}
	return opgraph.BufferFormatNHWCB
}

// areDramBuffersCompatible returns whether a DRAM output buffer can be read directly as a DRAM input buffer.
func areDramBuffersCompatible(producer, consumer *opgraph.Buffer) bool {
	return producer.Format == consumer.Format && producer.TensorShape == consumer.TensorShape
}

func newDma(format opgraph.BufferFormat, tag string) *opgraph.DmaOp {
	return &opgraph.DmaOp{
		OpBase:         opgraph.OpBase{Lifetime: opgraph.LifetimeAtomic, OperationIDs: sets.Make[int](), DebugTag: tag},
		TransferFormat: format,
	}
}

// newGlue returns the glue moving the data of the producer buffer into the consumer buffer, or nil if the
// consumer can use the producer buffer directly.
func newGlue(producer, consumer *opgraph.Buffer, tag string) *Glue {
	glue := &Glue{Graph: opgraph.New()}
	g := glue.Graph
	switch {
	case producer.Location == opgraph.LocationSram && consumer.Location == opgraph.LocationSram:
		// Through an intermediate DRAM buffer.
		format := dramFormatForGlue(producer, consumer)
		store := g.AddOp(newDma(format, "Glue store "+tag))
		dram := g.AddBuffer(&opgraph.Buffer{
			Location:     opgraph.LocationDram,
			Format:       format,
			Order:        opgraph.TraversalOrderXyz,
			DataType:     producer.DataType,
			Quantization: producer.Quantization,
			TensorShape:  producer.TensorShape,
			StripeShape:  producer.TensorShape,
			NumStripes:   1,
			SizeInBytes:  format.TotalSizeBytes(producer.TensorShape),
			Type:         opgraph.BufferTypeIntermediate,
			NumLoads:     1,
			DebugTag:     "Glue " + tag,
		})
		g.SetProducer(dram, store)
		load := g.AddOp(newDma(format, "Glue load "+tag))
		g.AddConsumer(dram, load, 0)
		glue.InputSlot = GlueInput{Op: store}
		glue.Output = load

	case producer.Location == opgraph.LocationSram:
		store := g.AddOp(newDma(consumer.Format, "Glue store "+tag))
		glue.InputSlot = GlueInput{Op: store}
		glue.Output = store

	case consumer.Location == opgraph.LocationSram:
		load := g.AddOp(newDma(producer.Format, "Glue load "+tag))
		glue.InputSlot = GlueInput{Op: load}
		glue.Output = load

	default:
		if areDramBuffersCompatible(producer, consumer) {
			return nil
		}
		// Conversion between DRAM formats, streaming rows of brick groups through SRAM.
		stripe := tensor.RoundUpToBrickGroup(producer.TensorShape)
		stripe[tensor.AxisBatch] = 1
		stripe[tensor.AxisHeight] = tensor.BrickGroupShape.Height()
		load := g.AddOp(newDma(producer.Format, "Glue load "+tag))
		sram := g.AddBuffer(&opgraph.Buffer{
			Location:        opgraph.LocationSram,
			Format:          opgraph.BufferFormatNHWCB,
			Order:           opgraph.TraversalOrderXyz,
			DataType:        producer.DataType,
			Quantization:    producer.Quantization,
			TensorShape:     producer.TensorShape,
			StripeShape:     stripe,
			NumStripes:      2,
			SizeInBytes:     2 * tensor.TotalSizeBytesNHWCB(stripe),
			SlotSizeInBytes: tensor.TotalSizeBytesNHWCB(stripe),
			NumLoads:        1,
			DebugTag:        "Glue " + tag,
		})
		g.SetProducer(sram, load)
		store := g.AddOp(newDma(consumer.Format, "Glue store "+tag))
		g.AddConsumer(sram, store, 0)
		glue.InputSlot = GlueInput{Op: load}
		glue.Output = store
	}
	if klog.V(3).Enabled() {
		klog.Infof("glue %s: %s -> %s with %d ops", tag, producer, consumer, g.NumOps())
	}
	return glue
}

// ArePlansAllowedToMerge returns whether the plan current can continue, in the same cascade, the plan
// reference feeding its input slot.
//
// The compute ops of current must use the block config of reference, and if reference splits the output
// in depth the input of current must be split in depth too.
func (c *Combiner) ArePlansAllowedToMerge(reference, current *parts.Plan, slot parts.PartInputSlot) bool {
	refOutID := opgraph.InvalidBufferID
	if out, found := c.graph.ConnectedOutputSlot(slot); found {
		refOutID = reference.OutputBuffer(out)
	}
	if refOutID == opgraph.InvalidBufferID && len(reference.OutputMappings) == 1 {
		for id := range reference.OutputMappings {
			refOutID = id
		}
	}
	curInID := current.InputBuffer(slot)
	if refOutID == opgraph.InvalidBufferID || curInID == opgraph.InvalidBufferID {
		return false
	}
	refOut := reference.OpGraph.Buffer(refOutID)
	curIn := current.OpGraph.Buffer(curInID)

	// Streaming strategies.
	refSplitsDepth := refOut.StripeShape.Channels() < refOut.TensorShape.Channels()
	curSplitsDepth := curIn.StripeShape.Channels() < curIn.TensorShape.Channels()
	if refSplitsDepth && !curSplitsDepth {
		return false
	}

	// Block configs.
	blockConfig := reference.BlockConfig()
	if blockConfig.IsZero() {
		return true
	}
	for _, id := range current.OpGraph.OpIDs() {
		switch op := current.OpGraph.Op(id).(type) {
		case *opgraph.MceOp:
			if op.BlockConfig != blockConfig {
				return false
			}
		case *opgraph.PleOp:
			if !op.Operation.IsStandalone() && op.BlockConfig != blockConfig {
				return false
			}
		}
	}
	return true
}
