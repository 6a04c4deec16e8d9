// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package estimation

import (
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/options"
	"github.com/gomlx/npucascade/pkg/support/sets"
)

// opGraphEstimator holds the state of EstimateOpGraph.
type opGraphEstimator struct {
	caps hwcaps.HardwareCapabilities
	opts options.EstimationOptions
	g    *opgraph.OpGraph

	// usedDmas are the DMA ops already accounted for in some pass.
	usedDmas sets.Set[opgraph.OpID]
}

// EstimateOpGraph splits the OpGraph in passes and estimates each of them.
//
// A pass is started by each MceOp (along with the PleOp reading its output), each PleOp not fed by an
// MceOp, and each ConcatOp or DummyOp. DMA ops between DRAM and SRAM are accounted in the pass reading or
// writing the SRAM side. DMA ops that only move data from DRAM to DRAM through SRAM are conversion passes.
//
// Data kept in SRAM between passes, as in a cascade, costs no DRAM transfer.
func EstimateOpGraph(caps hwcaps.HardwareCapabilities, opts options.EstimationOptions, g *opgraph.OpGraph) *NetworkPerformanceData {
	e := &opGraphEstimator{caps: caps, opts: opts, g: g, usedDmas: sets.Make[opgraph.OpID]()}
	data := &NetworkPerformanceData{OperationIDFailureReasons: make(map[int]string)}
	for _, id := range g.OpIDs() {
		switch op := g.Op(id).(type) {
		case *opgraph.MceOp:
			data.Stream = append(data.Stream, e.mcePass(id, op))
		case *opgraph.PleOp:
			if !e.isFedByMce(id) {
				data.Stream = append(data.Stream, e.standalonePlePass(id, op))
			}
		case *opgraph.ConcatOp:
			data.Stream = append(data.Stream, e.dramToDramPass(id))
		case *opgraph.DummyOp:
			data.Stream = append(data.Stream, e.dramToDramPass(id))
			for opID := range op.OperationIDs {
				data.OperationIDFailureReasons[opID] = op.DebugTag
			}
		case *opgraph.DmaOp:
			// Accounted for by the passes using them, or below.
		}
	}
	for _, id := range g.OpIDs() {
		if pass, ok := e.conversionPass(id); ok {
			data.Stream = append(data.Stream, pass)
		}
	}
	if klog.V(3).Enabled() {
		klog.Infof("Estimated OpGraph with %d ops: %s", g.NumOps(), data)
	}
	return data
}

func (e *opGraphEstimator) newPass(ops ...opgraph.Op) PassPerformanceData {
	pass := PassPerformanceData{OperationIDs: sets.Make[int]()}
	for _, op := range ops {
		pass.OperationIDs.InsertSet(op.Base().OperationIDs)
	}
	return pass
}

// isFedByMce returns whether the first input of the PLE op is written by an MCE op.
func (e *opGraphEstimator) isFedByMce(pleID opgraph.OpID) bool {
	inputs := e.g.Inputs(pleID)
	if len(inputs) == 0 {
		return false
	}
	for _, producer := range e.g.Producers(inputs[0]) {
		if e.g.Op(producer).Kind() == opgraph.OpKindMce {
			return true
		}
	}
	return false
}

// dramSource returns the DRAM buffer loaded by the DMA producing the SRAM buffer, if there is one.
func (e *opGraphEstimator) dramSource(sram opgraph.BufferID) (dmaID opgraph.OpID, dram *opgraph.Buffer, ok bool) {
	for _, producer := range e.g.Producers(sram) {
		if e.g.Op(producer).Kind() != opgraph.OpKindDma {
			continue
		}
		inputs := e.g.Inputs(producer)
		if len(inputs) == 1 && e.g.Buffer(inputs[0]).Location == opgraph.LocationDram {
			return producer, e.g.Buffer(inputs[0]), true
		}
	}
	return opgraph.InvalidOpID, nil, false
}

// dramDestination returns the DRAM buffer written by a DMA reading the SRAM buffer, if there is one.
func (e *opGraphEstimator) dramDestination(sram opgraph.BufferID) (dmaID opgraph.OpID, dram *opgraph.Buffer, ok bool) {
	for _, consumer := range e.g.Consumers(sram) {
		if e.g.Op(consumer.Op).Kind() != opgraph.OpKindDma {
			continue
		}
		if out := e.g.Output(consumer.Op); out != opgraph.InvalidBufferID && e.g.Buffer(out).Location == opgraph.LocationDram {
			return consumer.Op, e.g.Buffer(out), true
		}
	}
	return opgraph.InvalidOpID, nil, false
}

// inputStats of an SRAM buffer read by a compute op.
func (e *opGraphEstimator) inputStats(sramID opgraph.BufferID, weights graph.WeightsInfo, numOutStripesC uint32) InputStats {
	sram := e.g.Buffer(sramID)
	dmaID, dram, ok := e.dramSource(sramID)
	if !ok {
		return GetInputStats(e.caps, sram.TensorShape, sram.StripeShape, opgraph.LocationSram, sram.SizeInBytes,
			weights, numOutStripesC)
	}
	e.usedDmas.Insert(dmaID)
	stats := GetInputStats(e.caps, dram.TensorShape, sram.StripeShape, dram.Location, sram.SizeInBytes, weights,
		numOutStripesC)
	if dram.Format.IsFCAF() {
		stats = AccountForActivationCompression(stats, e.opts.ActivationCompressionSaving)
	}
	return stats
}

// outputStats of an SRAM buffer written by a compute op.
func (e *opGraphEstimator) outputStats(sramID opgraph.BufferID) OutputStats {
	sram := e.g.Buffer(sramID)
	dmaID, dram, ok := e.dramDestination(sramID)
	if !ok {
		return GetOutputStats(sram.TensorShape, sram.StripeShape, opgraph.LocationSram)
	}
	e.usedDmas.Insert(dmaID)
	stats := GetOutputStats(dram.TensorShape, sram.StripeShape, dram.Location)
	if dram.Format.IsFCAF() {
		stats = AccountForActivationCompression(stats, e.opts.ActivationCompressionSaving)
	}
	return stats
}

func (e *opGraphEstimator) mcePass(mceID opgraph.OpID, mce *opgraph.MceOp) PassPerformanceData {
	pass := e.newPass(mce)
	inputs := e.g.Inputs(mceID)
	ifm := e.g.Buffer(inputs[0])
	mceOutID := e.g.Output(mceID)
	mceOut := e.g.Buffer(mceOutID)

	// Weights.
	weights := graph.WeightsInfo{Shape: mce.WeightsStripeShape, Format: graph.WeightsFormatHWIO}
	if mce.Operation == graph.MceOperationDepthwiseConvolution {
		weights.Format = graph.WeightsFormatHWIM
	}
	if len(inputs) > 1 {
		wgtSram := e.g.Buffer(inputs[1])
		if dmaID, wgtDram, ok := e.dramSource(inputs[1]); ok {
			e.usedDmas.Insert(dmaID)
			weights.Shape = wgtDram.TensorShape
			pass.Stats.Weights = GetWeightsStats(wgtDram.EncodedWeights, uint32(wgtDram.TensorShape.NumElements()),
				wgtSram.NumStripes, wgtDram.NumLoads, e.opts.WeightCompressionSaving, e.opts.UseWeightCompressionOverride)
		}
	}

	numOutStripesC := tensor.NumStripesC(mceOut.TensorShape, mce.OutputStripeShape)
	pass.Stats.Input = e.inputStats(inputs[0], weights, max(numOutStripesC, 1))
	pass.Stats.Mce = GetMceStats(e.caps, mce.Operation, mce.Algorithm, ifm.TensorShape, mceOut.TensorShape, weights.Shape)

	// The PLE reading the MCE output belongs to the same pass.
	pass.Stats.Output = GetOutputStats(mceOut.TensorShape, mceOut.StripeShape, opgraph.LocationSram)
	for _, consumer := range e.g.Consumers(mceOutID) {
		ple, ok := e.g.Op(consumer.Op).(*opgraph.PleOp)
		if !ok {
			continue
		}
		pass.OperationIDs.InsertSet(ple.OperationIDs)
		pass.Stats.Ple = GetPleStats(e.caps, []tensor.Shape{mceOut.TensorShape}, ple.Operation)
		if out := e.g.Output(consumer.Op); out != opgraph.InvalidBufferID {
			pass.Stats.Output = e.outputStats(out)
		}
		break
	}
	return pass
}

func (e *opGraphEstimator) standalonePlePass(pleID opgraph.OpID, ple *opgraph.PleOp) PassPerformanceData {
	pass := e.newPass(ple)
	var inputShapes []tensor.Shape
	for _, input := range e.g.Inputs(pleID) {
		buffer := e.g.Buffer(input)
		inputShapes = append(inputShapes, buffer.TensorShape)
		// A PLE kernel has no kernel of its own in the MCE: it is estimated as a 1x1 depthwise convolution.
		weights := graph.WeightsInfo{Shape: tensor.Shape{1, 1, buffer.TensorShape.Channels(), 1},
			Format: graph.WeightsFormatHWIM}
		pass.Stats.Input = pass.Stats.Input.Add(e.inputStats(input, weights, 1))
	}
	pass.Stats.Ple = GetPleStats(e.caps, inputShapes, ple.Operation)
	if out := e.g.Output(pleID); out != opgraph.InvalidBufferID {
		pass.Stats.Output = e.outputStats(out)
	}
	return pass
}

func conversionData(buffer *opgraph.Buffer) ConversionData {
	return ConversionData{
		TensorShape: buffer.TensorShape,
		StripeShape: buffer.StripeShape,
		IsNHWC:      buffer.Format == opgraph.BufferFormatNHWC,
	}
}

// dramToDramPass estimates an op reading and writing DRAM buffers directly.
func (e *opGraphEstimator) dramToDramPass(id opgraph.OpID) PassPerformanceData {
	pass := e.newPass(e.g.Op(id))
	out := e.g.Output(id)
	if out == opgraph.InvalidBufferID {
		return pass
	}
	output := conversionData(e.g.Buffer(out))
	for ii, input := range e.g.Inputs(id) {
		stats := GetConversionStats(conversionData(e.g.Buffer(input)), output, true)
		pass.Stats.Input = pass.Stats.Input.Add(stats.Input)
		if ii == 0 {
			pass.Stats.Output = stats.Output
		}
	}
	return pass
}

// conversionPass returns the pass of a DMA loading a DRAM buffer into SRAM only to write it back to DRAM,
// as glues converting formats do.
func (e *opGraphEstimator) conversionPass(dmaID opgraph.OpID) (PassPerformanceData, bool) {
	if e.g.Op(dmaID).Kind() != opgraph.OpKindDma || e.usedDmas.Has(dmaID) {
		return PassPerformanceData{}, false
	}
	inputs := e.g.Inputs(dmaID)
	sramID := e.g.Output(dmaID)
	if len(inputs) != 1 || sramID == opgraph.InvalidBufferID {
		return PassPerformanceData{}, false
	}
	source := e.g.Buffer(inputs[0])
	if source.Location != opgraph.LocationDram {
		return PassPerformanceData{}, false
	}
	storeID, destination, ok := e.dramDestination(sramID)
	if !ok {
		return PassPerformanceData{}, false
	}
	e.usedDmas.Insert(dmaID)
	e.usedDmas.Insert(storeID)
	pass := e.newPass(e.g.Op(dmaID), e.g.Op(storeID))
	pass.Stats = GetConversionStats(conversionData(source), conversionData(destination), true)
	return pass, true
}
