// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cascading

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/npucascade/pkg/commandstream"
	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/options"
	"github.com/gomlx/npucascade/pkg/support/sets"
)

var (
	testShape  = tensor.Shape{1, 16, 16, 16}
	testStripe = tensor.Shape{1, 8, 16, 16}
)

func sramBuffer(shape, stripe tensor.Shape, numStripes uint32, tag string) *opgraph.Buffer {
	slot := tensor.TotalSizeBytesNHWCB(stripe)
	return &opgraph.Buffer{
		Location:        opgraph.LocationSram,
		Format:          opgraph.BufferFormatNHWCB,
		Order:           opgraph.TraversalOrderXyz,
		DataType:        tensor.DataTypeUint8Quantized,
		TensorShape:     shape,
		StripeShape:     stripe,
		NumStripes:      numStripes,
		SizeInBytes:     numStripes * slot,
		SlotSizeInBytes: slot,
		DebugTag:        tag,
	}
}

func dramBuffer(shape tensor.Shape, bufferType opgraph.BufferType, tag string) *opgraph.Buffer {
	return &opgraph.Buffer{
		Location:    opgraph.LocationDram,
		Format:      opgraph.BufferFormatNHWCB,
		Order:       opgraph.TraversalOrderXyz,
		DataType:    tensor.DataTypeUint8Quantized,
		TensorShape: shape,
		StripeShape: shape,
		SizeInBytes: tensor.TotalSizeBytesNHWCB(shape),
		Type:        bufferType,
		DebugTag:    tag,
	}
}

func dmaOp(tag string) *opgraph.DmaOp {
	return &opgraph.DmaOp{OpBase: opgraph.OpBase{DebugTag: tag}, TransferFormat: opgraph.BufferFormatNHWCB}
}

// convNetwork is DRAM -> IfmS -> MCE (weights through WgtS) -> PLE -> OfmS -> DRAM.
type convNetwork struct {
	g                                *opgraph.OpGraph
	input, weights, output           opgraph.BufferID
	ifmDma, wgtDma, mce, ple, ofmDma opgraph.OpID
}

func buildConvNetwork(kernel uint32, operation graph.MceOperation) *convNetwork {
	n := &convNetwork{g: opgraph.New()}
	g := n.g
	weightsShape := tensor.Shape{kernel, kernel, 16, 16}
	weightsSize := kernel * kernel * 16 * 16

	input := dramBuffer(testShape, opgraph.BufferTypeInput, "input")
	n.input = g.AddBuffer(input)
	ifm := g.AddBuffer(sramBuffer(testShape, testStripe, 2, "ifm"))
	n.weights = g.AddBuffer(&opgraph.Buffer{
		Location:    opgraph.LocationDram,
		Format:      opgraph.BufferFormatWEIGHT,
		DataType:    tensor.DataTypeUint8Quantized,
		TensorShape: weightsShape,
		StripeShape: weightsShape,
		SizeInBytes: weightsSize,
		Type:        opgraph.BufferTypeConstantDma,
		EncodedWeights: &opgraph.EncodedWeights{
			Data:     make([]byte, weightsSize),
			Metadata: []opgraph.WeightStripeMetadata{{Offset: 0, Size: weightsSize}},
			MaxSize:  weightsSize,
		},
		DebugTag: "weights",
	})
	wgt := g.AddBuffer(&opgraph.Buffer{
		Location:        opgraph.LocationSram,
		Format:          opgraph.BufferFormatWEIGHT,
		DataType:        tensor.DataTypeUint8Quantized,
		TensorShape:     weightsShape,
		StripeShape:     weightsShape,
		NumStripes:      1,
		SizeInBytes:     weightsSize,
		SlotSizeInBytes: weightsSize,
		DebugTag:        "wgt",
	})
	pleIn := g.AddBuffer(&opgraph.Buffer{
		Location:    opgraph.LocationPleInputSram,
		Format:      opgraph.BufferFormatNHWCB,
		DataType:    tensor.DataTypeUint8Quantized,
		TensorShape: testShape,
		StripeShape: testStripe,
		DebugTag:    "pleIn",
	})
	ofm := g.AddBuffer(sramBuffer(testShape, testStripe, 2, "ofm"))
	output := dramBuffer(testShape, opgraph.BufferTypeOutput, "output")
	output.OperationID = 7
	n.output = g.AddBuffer(output)

	n.ifmDma = g.AddOp(dmaOp("IfmDma"))
	n.wgtDma = g.AddOp(&opgraph.DmaOp{OpBase: opgraph.OpBase{DebugTag: "WgtDma"}, TransferFormat: opgraph.BufferFormatWEIGHT})
	n.mce = g.AddOp(&opgraph.MceOp{
		OpBase:             opgraph.OpBase{DebugTag: "Mce"},
		Operation:          operation,
		Algorithm:          graph.MceAlgorithmDirect,
		BlockConfig:        hwcaps.BlockConfig{Width: 16, Height: 16},
		InputStripeShape:   testStripe,
		OutputStripeShape:  testStripe,
		WeightsStripeShape: weightsShape,
		Stride:             tensor.UnitStride,
		PadLeft:            kernel / 2,
		PadTop:             kernel / 2,
		UpscaleFactor:      1,
		UpperBound:         255,
	})
	n.ple = g.AddOp(&opgraph.PleOp{
		OpBase:            opgraph.OpBase{DebugTag: "Ple"},
		Operation:         graph.PleOperationPassthrough,
		BlockConfig:       hwcaps.BlockConfig{Width: 16, Height: 16},
		NumInputs:         1,
		InputStripeShapes: []tensor.Shape{testStripe},
		OutputStripeShape: testStripe,
		DataType:          tensor.DataTypeUint8Quantized,
		LoadKernel:        true,
	})
	n.ofmDma = g.AddOp(dmaOp("OfmDma"))

	g.AddConsumer(n.input, n.ifmDma, 0)
	g.SetProducer(ifm, n.ifmDma)
	g.AddConsumer(n.weights, n.wgtDma, 0)
	g.SetProducer(wgt, n.wgtDma)
	g.AddConsumer(ifm, n.mce, 0)
	g.AddConsumer(wgt, n.mce, 1)
	g.SetProducer(pleIn, n.mce)
	g.AddConsumer(pleIn, n.ple, 0)
	g.SetProducer(ofm, n.ple)
	g.AddConsumer(ofm, n.ofmDma, 0)
	g.SetProducer(n.output, n.ofmDma)
	return n
}

func compileGraph(t *testing.T, g *opgraph.OpGraph, opts *options.CompilationOptions) (*CascadingCompiler, *CompiledNetwork) {
	c := New(g, sets.MakeWith(0, 7), hwcaps.Default(), opts)
	compiled, err := c.Compile()
	require.NoError(t, err)
	require.NotNil(t, compiled)
	return c, compiled
}

func agentTypes(agents []commandstream.Agent) []commandstream.AgentType {
	types := make([]commandstream.AgentType, len(agents))
	for ii := range agents {
		types[ii] = agents[ii].Type()
	}
	return types
}

func dep(relative uint8, outer, inner commandstream.Ratio, boundary int8) commandstream.Dependency {
	return commandstream.Dependency{RelativeAgentID: relative, OuterRatio: outer, InnerRatio: inner, Boundary: boundary}
}

func r(other, self uint8) commandstream.Ratio { return commandstream.Ratio{Other: other, Self: self} }

func TestCompileConvolution(t *testing.T) {
	for _, kernel := range []uint32{3, 1} {
		t.Run(fmt.Sprintf("%dx%d", kernel, kernel), func(t *testing.T) {
			n := buildConvNetwork(kernel, graph.MceOperationConvolution)
			c, compiled := compileGraph(t, n.g, nil)
			agents := c.Agents()
			require.Equal(t, []commandstream.AgentType{
				commandstream.AgentTypeIfmStreamer,
				commandstream.AgentTypeWgtStreamer,
				commandstream.AgentTypePleLoader,
				commandstream.AgentTypeMceScheduler,
				commandstream.AgentTypePleScheduler,
				commandstream.AgentTypeOfmStreamer,
			}, agentTypes(agents))
			assert.Equal(t, agents, compiled.CommandStream.Cascades()[0].Agents)

			for op, want := range map[opgraph.OpID]AgentID{n.ifmDma: 0, n.wgtDma: 1, n.mce: 3, n.ple: 4, n.ofmDma: 5} {
				got, found := c.AgentOf(op)
				require.True(t, found)
				assert.Equal(t, want, got)
			}

			// The IFM is split in 2 stripes along the height: a filter taller than 1 needs the
			// neighbouring stripe.
			var boundary int8
			if kernel > 1 {
				boundary = 1
			}
			ifmS, wgtS, pleL, mceS, pleS, ofmS := &agents[0], &agents[1], &agents[2], &agents[3], &agents[4], &agents[5]
			assert.Equal(t, uint16(2), ifmS.Info.NumStripesTotal)
			assert.Equal(t, uint16(1), wgtS.Info.NumStripesTotal)
			assert.Equal(t, uint16(1), pleL.Info.NumStripesTotal)
			assert.Equal(t, uint16(2), mceS.Info.NumStripesTotal)
			assert.Equal(t, uint16(2), pleS.Info.NumStripesTotal)
			assert.Equal(t, uint16(2), ofmS.Info.NumStripesTotal)

			assert.Equal(t, dep(3, r(1, 1), r(1, 1), boundary), mceS.Info.ReadDependencies[0])
			assert.Equal(t, dep(2, r(1, 2), r(1, 2), 0), mceS.Info.ReadDependencies[1])
			assert.Equal(t, dep(3, r(1, 1), r(1, 1), boundary), ifmS.Info.WriteDependencies[0])
			assert.Equal(t, dep(3, r(1, 1), r(1, 1), boundary), ifmS.Info.ScheduleDependencies[0])
			assert.Equal(t, dep(2, r(2, 1), r(2, 1), 0), wgtS.Info.WriteDependencies[0])
			assert.Equal(t, dep(1, r(1, 1), r(1, 1), 0), pleL.Info.ScheduleDependencies[0])
			assert.False(t, pleL.Info.WriteDependencies[0].IsUsed())

			assert.Equal(t, dep(1, r(1, 1), r(1, 1), 0), pleS.Info.ReadDependencies[0])
			assert.Equal(t, dep(2, r(1, 2), r(1, 2), 0), pleS.Info.ReadDependencies[1])
			assert.Equal(t, dep(1, r(1, 1), r(1, 1), 0), pleS.Info.WriteDependencies[0])
			assert.Equal(t, dep(1, r(1, 1), r(1, 1), 0), ofmS.Info.ReadDependencies[0])
			assert.False(t, ofmS.Info.ReadDependencies[1].IsUsed())
			assert.False(t, ifmS.Info.ReadDependencies[0].IsUsed(), "network input has no writer")

			// Tiles are shared by the agents on both sides of each SRAM buffer.
			ifmData := ifmS.Data.(*commandstream.IfmS)
			wgtData := wgtS.Data.(*commandstream.WgtS)
			mceData := mceS.Data.(*commandstream.MceS)
			pleLData := pleL.Data.(*commandstream.PleL)
			pleSData := pleS.Data.(*commandstream.PleS)
			ofmData := ofmS.Data.(*commandstream.OfmS)
			caps := hwcaps.Default()
			assert.Equal(t, ifmData.Tile, mceData.IfmTile)
			assert.Equal(t, wgtData.Tile, mceData.WgtTile)
			assert.Equal(t, ofmData.Tile, pleSData.OfmTile)
			assert.Equal(t, uint16(caps.MaxPleSize), ifmData.Tile.BaseAddr, "after the PLE kernel")
			assert.Equal(t, uint16(2), ifmData.Tile.NumSlots)
			assert.Equal(t, uint16(tensor.DivRoundUp(uint32(2048), caps.NumberOfSrams())), ifmData.Tile.SlotSize)
			assert.Equal(t, commandstream.TensorSize{Height: 2, Width: 1, Channels: 1}, ifmData.NumStripes)
			assert.Equal(t, commandstream.TensorSize{Height: 8, Width: 16, Channels: 16}, ifmData.DfltStripeSize)
			assert.Equal(t, commandstream.FmsDataTypeNhwcb, ifmData.DataType)

			kernelID := commandstream.FindPleKernelID("PASSTHROUGH", 16, 16, false)
			require.NotEqual(t, commandstream.PleKernelIDNotFound, kernelID)
			assert.Equal(t, kernelID, pleLData.PleKernelID)
			assert.Equal(t, kernelID, pleSData.PleKernelID)
			assert.Equal(t, kernelID, mceData.PleKernelID)
			assert.Equal(t, uint16(0), pleLData.SramAddr)
			assert.Equal(t, uint16(0), pleSData.PleKernelSramAddr)
			assert.Equal(t, commandstream.PleInputModeMceAllOgs, pleSData.InputMode)
			assert.Equal(t, commandstream.FilterShape{Width: uint8(kernel), Height: uint8(kernel)}, mceData.FilterShape)
			assert.Equal(t, commandstream.MceOperationConvolution, mceData.MceOpMode)

			// Buffers: the command stream, the input, the weights and their metadata, the output.
			buffers := compiled.Buffers.Buffers()
			require.Len(t, buffers, 5)
			assert.Equal(t, uint16(1), ifmData.BufferID)
			assert.Equal(t, uint16(2), wgtData.BufferID)
			assert.Equal(t, uint16(3), wgtData.MetadataBufferID)
			assert.Equal(t, uint16(4), ofmData.BufferID)
			assert.Equal(t, opgraph.BufferTypeInput, buffers[1].Type)
			assert.Equal(t, opgraph.BufferTypeConstantDma, buffers[2].Type)
			assert.Equal(t, opgraph.BufferTypeConstantControlUnit, buffers[3].Type)
			assert.Equal(t, opgraph.BufferTypeOutput, buffers[4].Type)
			assert.Equal(t, 7, buffers[4].OperationID)
			weightsSize := kernel * kernel * 256
			assert.Equal(t, binary.LittleEndian.AppendUint32(binary.LittleEndian.AppendUint32(nil, 0), weightsSize),
				buffers[3].ConstantData)
			assert.Len(t, compiled.ConstantDmaData, int(weightsSize))
			assert.Equal(t, []int{0, 7}, compiled.OperationIDs)
			assert.Zero(t, compiled.IntermediateDataSize)

			csData := buffers[CommandStreamBufferID].ConstantData
			require.NotEmpty(t, csData)
			assert.Equal(t, csData, compiled.ConstantControlUnitData[:len(csData)])
			assert.Equal(t, uint32(tensor.RoundUpToMultiple(len(csData), BufferAlignment)), buffers[3].Offset)
		})
	}
}

func TestCompileDepthwise(t *testing.T) {
	n := buildConvNetwork(3, graph.MceOperationDepthwiseConvolution)
	c, _ := compileGraph(t, n.g, nil)
	agents := c.Agents()
	mceData := agents[3].Data.(*commandstream.MceS)
	pleSData := agents[4].Data.(*commandstream.PleS)
	assert.Equal(t, commandstream.MceOperationDepthwiseConvolution, mceData.MceOpMode)
	assert.Equal(t, uint16(1), mceData.NumStripes.IfmChannels)
	assert.Equal(t, commandstream.PleInputModeMceOneOg, pleSData.InputMode)
}

func TestCompileTwice(t *testing.T) {
	n := buildConvNetwork(1, graph.MceOperationConvolution)
	c, _ := compileGraph(t, n.g, nil)
	_, err := c.Compile()
	require.Error(t, err)
}

func TestCompileRoundTrip(t *testing.T) {
	n := buildConvNetwork(3, graph.MceOperationConvolution)
	_, compiled := compileGraph(t, n.g, nil)

	var binBuf bytes.Buffer
	require.NoError(t, compiled.WriteBinary(&binBuf))
	assert.Equal(t, compiled.Buffers.Buffer(CommandStreamBufferID).ConstantData, binBuf.Bytes())
	decoded, err := commandstream.DecodeBinary(binBuf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, compiled.CommandStream.Cascades()[0].Agents, decoded.Cascades()[0].Agents)

	var xmlBuf bytes.Buffer
	require.NoError(t, compiled.WriteXML(&xmlBuf))
	parsed, err := commandstream.ParseXML(&xmlBuf)
	require.NoError(t, err)
	reencoded, err := parsed.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, binBuf.Bytes(), reencoded)
	assert.Contains(t, compiled.String(), "6 agents")
}

func TestCompileDebugDumps(t *testing.T) {
	opts := options.DefaultCompilationOptions()
	opts.DebugInfo = options.DebugInfo{DumpDebugFiles: true, DebugLevel: options.DebugLevelHigh}
	n := buildConvNetwork(1, graph.MceOperationConvolution)
	_, compiled := compileGraph(t, n.g, &opts)
	commands := compiled.CommandStream.Commands
	require.Len(t, commands, 4)
	assert.IsType(t, &commandstream.Cascade{}, commands[0])
	assert.IsType(t, &commandstream.Fence{}, commands[1])
	assert.Equal(t, &commandstream.DumpDram{DramBufferID: 4, Filename: "Output7_0.hex"}, commands[2])
	assert.Equal(t, &commandstream.DumpSram{Prefix: "cascade_sram"}, commands[3])

	// Not at the medium level.
	opts.DebugInfo.DebugLevel = options.DebugLevelMedium
	n = buildConvNetwork(1, graph.MceOperationConvolution)
	_, compiled = compileGraph(t, n.g, &opts)
	assert.Len(t, compiled.CommandStream.Commands, 1)
}

// copyChain adds DRAM -> IfmS -> SRAM -> OfmS -> DRAM to the graph, returning the output buffer.
func copyChain(g *opgraph.OpGraph, input opgraph.BufferID, output *opgraph.Buffer, tag string) opgraph.BufferID {
	shape := tensor.Shape{1, 8, 8, 16}
	sram := g.AddBuffer(sramBuffer(shape, shape, 1, tag))
	out := g.AddBuffer(output)
	load := g.AddOp(dmaOp("Load" + tag))
	store := g.AddOp(dmaOp("Store" + tag))
	g.AddConsumer(input, load, 0)
	g.SetProducer(sram, load)
	g.AddConsumer(sram, store, 0)
	g.SetProducer(out, store)
	return out
}

func TestCompileThroughDram(t *testing.T) {
	shape := tensor.Shape{1, 8, 8, 16}
	g := opgraph.New()
	input := g.AddBuffer(dramBuffer(shape, opgraph.BufferTypeInput, "input"))
	intermediate := copyChain(g, input, dramBuffer(shape, opgraph.BufferTypeIntermediate, "intermediate"), "A")
	copyChain(g, intermediate, dramBuffer(shape, opgraph.BufferTypeOutput, "output"), "B")

	c, compiled := compileGraph(t, g, nil)
	agents := c.Agents()
	require.Equal(t, []commandstream.AgentType{
		commandstream.AgentTypeIfmStreamer,
		commandstream.AgentTypeOfmStreamer,
		commandstream.AgentTypeIfmStreamer,
		commandstream.AgentTypeOfmStreamer,
	}, agentTypes(agents))

	// The second load waits for the whole intermediate tensor to be stored. Both sections use the same
	// SRAM, which the same dependency already covers.
	assert.Equal(t, dep(1, r(1, 1), r(1, 1), 0), agents[2].Info.ReadDependencies[0])
	assert.False(t, agents[2].Info.ReadDependencies[1].IsUsed())

	// Buffers: command stream, input, intermediate, output.
	b := compiled.Buffers.Buffer(2)
	assert.Equal(t, opgraph.BufferTypeIntermediate, b.Type)
	require.True(t, b.HasLifetime)
	assert.Equal(t, uint32(1), b.LifetimeStart)
	assert.Equal(t, uint32(3), b.LifetimeEnd)
	assert.Equal(t, tensor.TotalSizeBytesNHWCB(shape), compiled.IntermediateDataSize)
	assert.False(t, compiled.Buffers.Buffer(1).HasLifetime)
}

func TestCompileSramOverlap(t *testing.T) {
	shape := tensor.Shape{1, 8, 8, 16}
	g := opgraph.New()
	inputA := g.AddBuffer(dramBuffer(shape, opgraph.BufferTypeInput, "inputA"))
	inputB := g.AddBuffer(dramBuffer(shape, opgraph.BufferTypeInput, "inputB"))
	copyChain(g, inputA, dramBuffer(shape, opgraph.BufferTypeOutput, "outputA"), "A")
	copyChain(g, inputB, dramBuffer(shape, opgraph.BufferTypeOutput, "outputB"), "B")

	c, _ := compileGraph(t, g, nil)
	agents := c.Agents()
	require.Len(t, agents, 4)

	// The second chain is independent, but it reuses the SRAM of the first one.
	assert.Equal(t, dep(1, r(1, 1), r(1, 1), 0), agents[2].Info.ReadDependencies[0])
	assert.False(t, agents[0].Info.ReadDependencies[0].IsUsed())
}

func TestCompileStandalonePle(t *testing.T) {
	g := opgraph.New()
	inputA := g.AddBuffer(dramBuffer(testShape, opgraph.BufferTypeInput, "inputA"))
	inputB := g.AddBuffer(dramBuffer(testShape, opgraph.BufferTypeInput, "inputB"))
	sramA := g.AddBuffer(sramBuffer(testShape, testStripe, 2, "a"))
	sramB := g.AddBuffer(sramBuffer(testShape, testStripe, 2, "b"))
	sramOut := g.AddBuffer(sramBuffer(testShape, testStripe, 2, "sum"))
	output := g.AddBuffer(dramBuffer(testShape, opgraph.BufferTypeOutput, "output"))

	loadA := g.AddOp(dmaOp("LoadA"))
	loadB := g.AddOp(dmaOp("LoadB"))
	add := g.AddOp(&opgraph.PleOp{
		OpBase:            opgraph.OpBase{DebugTag: "Add"},
		Operation:         graph.PleOperationAddition,
		BlockConfig:       hwcaps.BlockConfig{Width: 16, Height: 16},
		NumInputs:         2,
		InputStripeShapes: []tensor.Shape{testStripe, testStripe},
		OutputStripeShape: testStripe,
		DataType:          tensor.DataTypeUint8Quantized,
		LoadKernel:        true,
		Input0Multiplier:  1 << 15,
		Input1Multiplier:  1 << 15,
	})
	store := g.AddOp(dmaOp("Store"))
	g.AddConsumer(inputA, loadA, 0)
	g.SetProducer(sramA, loadA)
	g.AddConsumer(inputB, loadB, 0)
	g.SetProducer(sramB, loadB)
	g.AddConsumer(sramA, add, 0)
	g.AddConsumer(sramB, add, 1)
	g.SetProducer(sramOut, add)
	g.AddConsumer(sramOut, store, 0)
	g.SetProducer(output, store)

	c, _ := compileGraph(t, g, nil)
	agents := c.Agents()
	require.Equal(t, []commandstream.AgentType{
		commandstream.AgentTypeIfmStreamer,
		commandstream.AgentTypeIfmStreamer,
		commandstream.AgentTypePleLoader,
		commandstream.AgentTypePleScheduler,
		commandstream.AgentTypeOfmStreamer,
	}, agentTypes(agents))

	pleS := &agents[3]
	data := pleS.Data.(*commandstream.PleS)
	assert.Equal(t, commandstream.PleInputModeSram, data.InputMode)
	assert.Equal(t, agents[0].Data.(*commandstream.IfmS).Tile, data.IfmTile0)
	assert.Equal(t, agents[1].Data.(*commandstream.IfmS).Tile, data.IfmTile1)
	assert.Equal(t, uint16(1<<15), data.IfmInfo1.Multiplier)
	assert.Equal(t, commandstream.FindPleKernelID("ADDITION", 16, 16, false), data.PleKernelID)

	// Both read slots are taken by the inputs: the kernel load is only waited for through scheduling.
	assert.Equal(t, dep(3, r(1, 1), r(1, 1), 0), pleS.Info.ReadDependencies[0])
	assert.Equal(t, dep(2, r(1, 1), r(1, 1), 0), pleS.Info.ReadDependencies[1])
	assert.Equal(t, dep(1, r(1, 1), r(1, 1), 0), agents[2].Info.ScheduleDependencies[0])
	assert.Equal(t, dep(3, r(1, 1), r(1, 1), 0), agents[0].Info.WriteDependencies[0])
	assert.Equal(t, dep(2, r(1, 1), r(1, 1), 0), agents[1].Info.ScheduleDependencies[0])
}

func TestCompileNotSupported(t *testing.T) {
	shape := tensor.Shape{1, 8, 8, 16}
	g := opgraph.New()
	input := g.AddBuffer(dramBuffer(shape, opgraph.BufferTypeInput, "input"))
	output := g.AddBuffer(dramBuffer(shape, opgraph.BufferTypeOutput, "output"))
	dummy := g.AddOp(&opgraph.DummyOp{OpBase: opgraph.OpBase{DebugTag: "Unsupported"}})
	g.AddConsumer(input, dummy, 0)
	g.SetProducer(output, dummy)

	compiled, err := New(g, sets.MakeWith(0), hwcaps.Default(), nil).Compile()
	assert.Nil(t, compiled)
	require.Error(t, err)
	var notSupported *NotSupportedError
	require.ErrorAs(t, err, &notSupported)
	assert.Contains(t, notSupported.Msg, "Unsupported")

	// SRAM to SRAM transfers have no streamer.
	g = opgraph.New()
	a := g.AddBuffer(sramBuffer(shape, shape, 1, "a"))
	b := g.AddBuffer(sramBuffer(shape, shape, 1, "b"))
	dma := g.AddOp(dmaOp("SramToSram"))
	g.AddConsumer(a, dma, 0)
	g.SetProducer(b, dma)
	compiled, err = New(g, sets.MakeWith(0), hwcaps.Default(), nil).Compile()
	assert.Nil(t, compiled)
	require.ErrorAs(t, err, &notSupported)

	// Weights must be encoded before lowering.
	n := buildConvNetwork(1, graph.MceOperationConvolution)
	n.g.Buffer(n.weights).EncodedWeights = nil
	compiled, err = New(n.g, sets.MakeWith(0), hwcaps.Default(), nil).Compile()
	assert.Nil(t, compiled)
	require.ErrorAs(t, err, &notSupported)
}

func TestDependencyConflicts(t *testing.T) {
	fm := func() commandstream.FmSData {
		return commandstream.FmSData{NumStripes: commandstream.TensorSize{Height: 1, Width: 1, Channels: 1}}
	}
	mce := func() *commandstream.MceS {
		return &commandstream.MceS{
			NumStripes:  commandstream.MceSWorkSize{OfmHeight: 1, OfmWidth: 1, OfmChannels: 1, IfmChannels: 1},
			FilterShape: commandstream.FilterShape{Width: 1, Height: 1},
		}
	}
	c := New(opgraph.New(), nil, hwcaps.Default(), nil)
	producer := c.addAgent(&commandstream.IfmS{FmSData: fm()}, 1)
	first := c.addAgent(mce(), 1)
	second := c.addAgent(mce(), 1)

	c.AddWriteAfterReadDependency(first, producer)
	c.AddWriteAfterReadDependency(second, producer)
	assert.Equal(t, uint8(2), c.agents[producer].Info.WriteDependencies[0].RelativeAgentID, "last consumer wins")

	c.AddScheduleTimeDependency(first, producer)
	c.AddScheduleTimeDependency(second, producer)
	assert.Equal(t, uint8(1), c.agents[producer].Info.ScheduleDependencies[0].RelativeAgentID, "first consumer wins")

	// Consumers added out of schedule order: the rules follow the order of the calls, not the agent ids.
	c2 := New(opgraph.New(), nil, hwcaps.Default(), nil)
	producer2 := c2.addAgent(&commandstream.IfmS{FmSData: fm()}, 1)
	first2 := c2.addAgent(mce(), 1)
	second2 := c2.addAgent(mce(), 1)
	c2.AddWriteAfterReadDependency(second2, producer2)
	c2.AddWriteAfterReadDependency(first2, producer2)
	assert.Equal(t, uint8(1), c2.agents[producer2].Info.WriteDependencies[0].RelativeAgentID, "last consumer wins")
	c2.AddScheduleTimeDependency(second2, producer2)
	c2.AddScheduleTimeDependency(first2, producer2)
	assert.Equal(t, uint8(2), c2.agents[producer2].Info.ScheduleDependencies[0].RelativeAgentID, "first consumer wins")

	c.AddReadAfterWriteDependency(first, producer)
	c.AddReadAfterWriteDependency(first, producer)
	assert.True(t, c.agents[first].Info.ReadDependencies[0].IsUsed())
	assert.False(t, c.agents[first].Info.ReadDependencies[1].IsUsed(), "same producer added once")

	// A third producer doesn't fit in the read dependencies.
	c = New(opgraph.New(), nil, hwcaps.Default(), nil)
	var producers []AgentID
	for range 3 {
		producers = append(producers, c.addAgent(&commandstream.IfmS{FmSData: fm()}, 1))
	}
	pleS := c.addAgent(&commandstream.PleS{NumStripes: commandstream.TensorSize{Height: 1, Width: 1, Channels: 1}}, 1)
	c.AddReadAfterWriteDependency(pleS, producers[0])
	c.AddReadAfterWriteDependency(pleS, producers[1])
	assert.PanicsWithError(t, "not supported: agent 3 (PLE_SCHEDULER) reads from more than 2 agents", func() {
		c.AddReadAfterWriteDependency(pleS, producers[2])
	})
}

func TestStripeRatios(t *testing.T) {
	mceS := &commandstream.Agent{
		Data: &commandstream.MceS{
			NumStripes:  commandstream.MceSWorkSize{OfmHeight: 4, OfmWidth: 2, OfmChannels: 2, IfmChannels: 3},
			FilterShape: commandstream.FilterShape{Width: 3, Height: 1},
		},
		Info: commandstream.AgentDependencyInfo{NumStripesTotal: 48},
	}
	ifmS := &commandstream.Agent{
		Data: &commandstream.IfmS{FmSData: commandstream.FmSData{
			NumStripes: commandstream.TensorSize{Height: 4, Width: 2, Channels: 3},
		}},
		Info: commandstream.AgentDependencyInfo{NumStripesTotal: 24},
	}
	var d commandstream.Dependency
	FillConsumerAgentDependency(&d, mceS, ifmS, 5)
	assert.Equal(t, dep(5, r(1, 1), r(1, 1), 1), d, "filter wider than 1 over 2 width stripes")

	FillProducerAgentDependency(&d, ifmS, mceS, 5)
	assert.Equal(t, dep(5, r(1, 1), r(1, 1), 1), d)

	// Weights are split in depth: one weight stripe per MCE stripe.
	wgtS := &commandstream.Agent{
		Data: &commandstream.WgtS{NumStripes: commandstream.WgtSWorkSize{OfmChannels: 2, IfmChannels: 3}},
		Info: commandstream.AgentDependencyInfo{NumStripesTotal: 6},
	}
	FillConsumerAgentDependency(&d, mceS, wgtS, 1)
	assert.Equal(t, dep(1, r(1, 1), r(1, 1), 0), d)

	// PLE writes 1 stripe for each 3 MCE stripes, accumulated over the input channels.
	pleS := &commandstream.Agent{
		Data: &commandstream.PleS{NumStripes: commandstream.TensorSize{Height: 4, Width: 2, Channels: 2}},
		Info: commandstream.AgentDependencyInfo{NumStripesTotal: 16},
	}
	FillConsumerAgentDependency(&d, pleS, mceS, 1)
	assert.Equal(t, dep(1, r(3, 1), r(3, 1), 0), d)
	FillProducerAgentDependency(&d, mceS, pleS, 1)
	assert.Equal(t, dep(1, r(1, 3), r(1, 3), 0), d)

	assert.Panics(t, func() { FillConsumerAgentDependency(&d, wgtS, ifmS, 1) })
	assert.Panics(t, func() { ratio(0, 1) })
	assert.PanicsWithError(t, "not supported: stripe ratio 256 doesn't fit in 8 bits", func() { ratio(256, 1) })
}
