// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandstream

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCascade() *Cascade {
	fms := func(bufferID uint16, dramOffset uint32) FmSData {
		return FmSData{
			DramOffset:             dramOffset,
			BufferID:               bufferID,
			DataType:               FmsDataTypeNhwcb,
			Tile:                   Tile{BaseAddr: 0x100, NumSlots: 4, SlotSize: 0x200},
			DfltStripeSize:         TensorSize{Height: 8, Width: 16, Channels: 16},
			EdgeStripeSize:         TensorSize{Height: 8, Width: 8, Channels: 16},
			SupertensorSizeInCells: SupertensorSize{Width: 2, Channels: 1},
			NumStripes:             TensorSize{Height: 2, Width: 2, Channels: 1},
			StripeIDStrides:        TensorSize{Height: 2, Width: 1, Channels: 1},
		}
	}
	pleKernel := FindPleKernelID("DOWNSAMPLE_2X2", 16, 16, false)
	mceCmd := &ProgramMceStripeCommand{AgentID: 3, IfmRowStride: 0x3423, IfmConfig1: 0xaa8daa,
		WideKernelOffset: 0x998765, IfmTopSlots: 0xee31, IfmMidSlots: 0xe56654, IfmBottomSlots: 0xf787,
		IfmSlotPadConfig: 0x897, OfmStripeSize: 0x1234, OfmConfig: 0x8765, NumBlocksProgrammedForMce: 128}
	for ce := range NumCes {
		for og := range NumOgs {
			mceCmd.MulEnable[ce][og] = Hex32(0x45 + ce*NumOgs + og)
			mceCmd.IfmConfig2[ce][og] = Hex32(0x1000 + ce*NumOgs + og)
		}
	}
	for ii := range mceCmd.IfmPad {
		for ig := range NumOgs {
			mceCmd.IfmPad[ii][ig] = Hex32(0x40 + ii + ig)
		}
	}
	mceCmd.WeightBaseAddr = [NumOgs]Hex32{0x11, 0x22, 0x33, 0x44}
	pleCmd := &StartPleStripeCommand{AgentID: 5}
	for ii := range pleCmd.Scratch {
		pleCmd.Scratch[ii] = Hex32(0x10 * (ii + 1))
	}

	info := func(numStripes uint16) AgentDependencyInfo {
		return AgentDependencyInfo{NumStripesTotal: numStripes}
	}
	mceInfo := info(4)
	mceInfo.ReadDependencies[0] = Dependency{RelativeAgentID: 2, OuterRatio: Ratio{Other: 4, Self: 4},
		InnerRatio: Ratio{Other: 1, Self: 1}, Boundary: 1}
	mceInfo.ReadDependencies[1] = Dependency{RelativeAgentID: 3, OuterRatio: Ratio{Other: 1, Self: 4},
		InnerRatio: Ratio{Other: 1, Self: 4}}
	mceInfo.ScheduleDependencies[0] = Dependency{RelativeAgentID: 2, OuterRatio: Ratio{Other: 1, Self: 1},
		InnerRatio: Ratio{Other: 1, Self: 1}}

	return &Cascade{
		Agents: []Agent{
			{Data: &WgtS{BufferID: 3, MetadataBufferID: 4, Tile: Tile{BaseAddr: 0x800, NumSlots: 2, SlotSize: 0x400},
				EdgeStripeOfmChannels: 8, NumStripes: WgtSWorkSize{OfmChannels: 1, IfmChannels: 1},
				StripeIDStrides: WgtSWorkSize{OfmChannels: 1, IfmChannels: 1}}, Info: info(1)},
			{Data: &IfmS{FmSData: fms(1, 0x40)}, Info: info(4)},
			{Data: &OfmS{FmSData: fms(2, 0)}, Info: info(4)},
			{Data: &MceS{IfmTile: Tile{BaseAddr: 0x100, NumSlots: 4, SlotSize: 0x200},
				WgtTile: Tile{BaseAddr: 0x800, NumSlots: 2, SlotSize: 0x400}, BlockSize: BlockSize{Width: 16, Height: 16},
				DfltStripeSize: MceSWorkSize{OfmHeight: 8, OfmWidth: 16, OfmChannels: 16, IfmChannels: 16},
				NumStripes:     MceSWorkSize{OfmHeight: 2, OfmWidth: 2, OfmChannels: 1, IfmChannels: 1},
				ConvStrideXY:   StrideXY{X: 1, Y: 1}, IfmZeroPoint: -3, MceOpMode: MceOperationDepthwiseConvolution,
				FilterShape: FilterShape{Width: 3, Height: 3}, Padding: Padding{Left: 1, Top: 1},
				IfmDeltaDefault: IfmDelta{Width: 2, Height: 2}, IfmDeltaEdge: IfmDelta{Width: -1, Height: 0},
				ReluActiv: ReluActivation{Min: -128, Max: 127}, PleKernelID: pleKernel}, Info: mceInfo},
			{Data: &PleL{PleKernelID: FindPleKernelID("SIGMOID", 16, 16, true), SramAddr: 0x1000}, Info: info(1)},
			{Data: &PleS{OfmTile: Tile{BaseAddr: 0x1200, NumSlots: 2, SlotSize: 0x100}, OfmZeroPoint: 5,
				InputMode: PleInputModeMceOneOg, PleKernelID: pleKernel, PleKernelSramAddr: 4096,
				IfmInfo0: PleIfmInfo{ZeroPoint: -1, Multiplier: 0x4000, Shift: 15}}, Info: info(4)},
		},
		DmaRdCommands: []Command{
			&DmaCommand{Type: CommandTypeLoadIfmStripe, DmaTransfer: DmaTransfer{AgentID: 1, DramOffset: 0x123412,
				SramAddr: 0x6543, DmaSramStride: 0x2345, DmaStride0: 0x7995, DmaStride3: 0x23245,
				DmaChannels: 0x12345, DmaEmcs: 0x989, DmaTotalBytes: 0xfea, DmaCmd: 0xa}},
		},
		DmaWrCommands: []Command{
			&WaitForCounterCommand{CounterName: CounterNamePleStripe, CounterValue: 1},
			&DmaCommand{Type: CommandTypeStoreOfmStripe, DmaTransfer: DmaTransfer{AgentID: 2, DramOffset: 0xabe,
				SramAddr: 0x6ee, DmaTotalBytes: 0xfa12a, DmaCmd: 0x11a}},
		},
		MceCommands: []Command{
			mceCmd,
			&ConfigMceifCommand{AgentID: 3},
			&StartMceStripeCommand{AgentID: 3, CeEnables: 8},
		},
		PleCommands: []Command{
			&WaitForCounterCommand{CounterName: CounterNameMceStripe, CounterValue: 1},
			&LoadPleCodeIntoPleSramCommand{AgentID: 4},
			pleCmd,
		},
	}
}

func testStream() *CommandStream {
	return New().
		Add(&DumpDram{DramBufferID: 2, Filename: "OutputModel_NHWCB.hex"}).
		Add(&DumpSram{Prefix: "output_ce"}).
		Add(&Fence{}).
		Add(testCascade())
}

func TestBinaryRoundTrip(t *testing.T) {
	cs := testStream()
	data, err := cs.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, "ENCS", string(data[:4]))
	assert.Zero(t, len(data)%4)

	decoded, err := DecodeBinary(data)
	require.NoError(t, err)
	assert.Equal(t, cs, decoded)
	assert.Equal(t, 6, decoded.NumAgents())
	assert.Len(t, decoded.Cascades(), 1)
}

func TestXMLRoundTrip(t *testing.T) {
	cs := testStream()
	var buf bytes.Buffer
	require.NoError(t, cs.WriteXML(&buf))
	xmlText := buf.String()

	parsed, err := ParseXML(strings.NewReader(xmlText))
	require.NoError(t, err)
	assert.Equal(t, cs, parsed)

	// Binary -> XML -> binary reproduces the same bytes.
	want, err := cs.MarshalBinary()
	require.NoError(t, err)
	got, err := parsed.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestXMLFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testStream().WriteXML(&buf))
	xmlText := buf.String()
	require.True(t, strings.HasPrefix(xmlText, xmlHeader))
	for _, want := range []string{
		`<STREAM VERSION_MAJOR="4" VERSION_MINOR="1" VERSION_PATCH="0">`,
		"    <DUMP_DRAM>\n        <DRAM_BUFFER_ID>2</DRAM_BUFFER_ID>\n        <FILENAME>OutputModel_NHWCB.hex</FILENAME>",
		"<PREFIX>output_ce</PREFIX>",
		"<FENCE></FENCE>",
		"<WGT_STREAMER>",
		"<MCE_OP_MODE>DEPTHWISE_CONVOLUTION</MCE_OP_MODE>",
		"<PLE_KERNEL_ID>V2442_DOWNSAMPLE_2X2_bw16_bh16_bm1</PLE_KERNEL_ID>",
		"<PLE_KERNEL_ID>V2442_SIGMOID_bw16_bh16_bm1_s8</PLE_KERNEL_ID>",
		"<INPUT_MODE>MCE_ONE_OG</INPUT_MODE>",
		"<DATA_TYPE>NHWCB</DATA_TYPE>",
		"<TYPE>LoadIfmStripe</TYPE>",
		"<DRAM_OFFSET>0x123412</DRAM_OFFSET>",
		"<COUNTER_NAME>PleStripe</COUNTER_NAME>",
		"<OG1>0x46</OG1>",
		"<WEIGHT_BASE_ADDR_OG3>0x44</WEIGHT_BASE_ADDR_OG3>",
		"<SCRATCH7>0x80</SCRATCH7>",
		"<BOUNDARY>1</BOUNDARY>",
	} {
		assert.Contains(t, xmlText, want)
	}
	assert.True(t, strings.HasSuffix(xmlText, "</STREAM>\n"))
}

func TestParseXMLErrors(t *testing.T) {
	wrap := func(cascade string) string {
		return `<STREAM VERSION_MAJOR="4" VERSION_MINOR="1" VERSION_PATCH="0"><CASCADE>` + cascade + `</CASCADE></STREAM>`
	}
	validInfo := `<INFO><NUM_STRIPES_TOTAL>1</NUM_STRIPES_TOTAL>
		<SCHEDULE_DEPENDENCIES><DEPENDENCY></DEPENDENCY></SCHEDULE_DEPENDENCIES>
		<READ_DEPENDENCIES><DEPENDENCY></DEPENDENCY><DEPENDENCY></DEPENDENCY></READ_DEPENDENCIES>
		<WRITE_DEPENDENCIES><DEPENDENCY></DEPENDENCY></WRITE_DEPENDENCIES></INFO>`
	for name, text := range map[string]string{
		"unknown command":  `<STREAM><NOT_A_COMMAND></NOT_A_COMMAND></STREAM>`,
		"two agent types":  wrap(`<AGENTS><AGENT><PLE_LOADER></PLE_LOADER><IFM_STREAMER></IFM_STREAMER>` + validInfo + `</AGENT></AGENTS>`),
		"no agent type":    wrap(`<AGENTS><AGENT>` + validInfo + `</AGENT></AGENTS>`),
		"dependencies":     wrap(`<AGENTS><AGENT><PLE_LOADER></PLE_LOADER><INFO></INFO></AGENT></AGENTS>`),
		"dma command type": wrap(`<DMA_RD_COMMANDS><DMA_COMMAND><TYPE>StartPleStripe</TYPE></DMA_COMMAND></DMA_RD_COMMANDS>`),
		"unknown register": wrap(`<PLE_COMMANDS><START_PLE_STRIPE_COMMAND><SCRATCH8>0x1</SCRATCH8></START_PLE_STRIPE_COMMAND></PLE_COMMANDS>`),
		"group index":      wrap(`<MCE_COMMANDS><PROGRAM_MCE_STRIPE_COMMAND><MUL_ENABLE_CE0><OG4>0x1</OG4></MUL_ENABLE_CE0></PROGRAM_MCE_STRIPE_COMMAND></MCE_COMMANDS>`),
		"register value":   wrap(`<MCE_COMMANDS><PROGRAM_MCE_STRIPE_COMMAND><IFM_CONFIG1>zz</IFM_CONFIG1></PROGRAM_MCE_STRIPE_COMMAND></MCE_COMMANDS>`),
		"ple kernel":       wrap(`<AGENTS><AGENT><PLE_LOADER><PLE_KERNEL_ID>V2442_NOTHING</PLE_KERNEL_ID></PLE_LOADER>` + validInfo + `</AGENT></AGENTS>`),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseXML(strings.NewReader(text))
			assert.Error(t, err)
		})
	}

	// Registers not present are left as zero.
	cs, err := ParseXML(strings.NewReader(wrap(
		`<PLE_COMMANDS><START_PLE_STRIPE_COMMAND><AGENT_ID>7</AGENT_ID><SCRATCH2>12</SCRATCH2></START_PLE_STRIPE_COMMAND></PLE_COMMANDS>`)))
	require.NoError(t, err)
	cascades := cs.Cascades()
	require.Len(t, cascades, 1)
	assert.Empty(t, cascades[0].Agents)
	assert.Equal(t, []Command{&StartPleStripeCommand{AgentID: 7, Scratch: [8]Hex32{2: 12}}}, cascades[0].PleCommands)
}

func TestDecodeBinaryErrors(t *testing.T) {
	data, err := testStream().MarshalBinary()
	require.NoError(t, err)

	_, err = DecodeBinary(data[:10])
	assert.Error(t, err, "truncated header")

	badMagic := bytes.Clone(data)
	badMagic[0] = 'X'
	_, err = DecodeBinary(badMagic)
	assert.ErrorContains(t, err, "magic")

	badVersion := bytes.Clone(data)
	binary.LittleEndian.PutUint32(badVersion[4:], VersionMajor+1)
	_, err = DecodeBinary(badVersion)
	assert.ErrorContains(t, err, "version")

	_, err = DecodeBinary(data[:len(data)-4])
	assert.Error(t, err, "truncated cascade")

	badOpcode := bytes.Clone(data[:16])
	badOpcode = binary.LittleEndian.AppendUint32(badOpcode, 99)
	_, err = DecodeBinary(badOpcode)
	assert.ErrorContains(t, err, "opcode")

	_, err = New().Add(&DumpSram{Prefix: strings.Repeat("x", MaxFilenameLength+1)}).MarshalBinary()
	assert.Error(t, err)

	_, err = New().Add(&Cascade{Agents: []Agent{{Data: &PleL{}}}, PleCommands: []Command{nil}}).MarshalBinary()
	assert.Error(t, err)
}

func TestPleKernels(t *testing.T) {
	assert.Equal(t, "V2442_SIGMOID_bw16_bh16_bm1_s8", FindPleKernelID("SIGMOID", 16, 16, true).String())
	assert.Equal(t, "V2442_SIGMOID_bw8_bh32_bm1_u8", FindPleKernelID("SIGMOID", 8, 32, false).String())
	assert.Equal(t, "V2442_PASSTHROUGH_bw16_bh8_bm1", FindPleKernelID("PASSTHROUGH", 16, 8, true).String())
	assert.Equal(t, PleKernelIDNotFound, FindPleKernelID("SIGMOID", 4, 4, true))
	assert.Equal(t, PleKernelIDNotFound, FindPleKernelID("CONVOLUTION", 16, 16, true))

	id, err := PleKernelIDString("V2442_ADDITION_bw8_bh8_bm1_u8")
	require.NoError(t, err)
	assert.Equal(t, FindPleKernelID("ADDITION", 8, 8, false), id)
	_, err = PleKernelIDString("V2442_ADDITION_bw8_bh8_bm1")
	assert.Error(t, err)
	assert.Equal(t, "PleKernelID(65535)", PleKernelID(65535).String())
}

const expectedBindingTableXML = `<?xml version="1.0" encoding="utf-8"?>
<BIND>
  <BUFFER>
    <ID>0</ID>
    <ADDRESS>0x60100000</ADDRESS>
    <SIZE>2560</SIZE>
    <TYPE>INPUT</TYPE>
  </BUFFER>
  <BUFFER>
    <ID>1</ID>
    <ADDRESS>0x60100a00</ADDRESS>
    <SIZE>1488</SIZE>
    <TYPE>INTERMEDIATE</TYPE>
  </BUFFER>
  <BUFFER>
    <ID>2</ID>
    <ADDRESS>0x60101000</ADDRESS>
    <SIZE>4096</SIZE>
    <TYPE>OUTPUT</TYPE>
  </BUFFER>
  <BUFFER>
    <ID>3</ID>
    <ADDRESS>0x60102000</ADDRESS>
    <SIZE>4096</SIZE>
    <TYPE>CONSTANT</TYPE>
  </BUFFER>
</BIND>
`

const cmmPreamble = "00003540: 00003554 00003554 00000000 00000000\n" +
	"00003550: 00000000 00000000 00000000 00000000\n" +
	"00003560: 00000000 00000000 00000000 00000000\n"

func TestExtractBTFromCMM(t *testing.T) {
	// The buffer array starts at each of the 4 words of a CMM line.
	snippets := map[string]string{
		"word1": "60000000: 60000010 00000001 00000000 00000000\n" +
			"60000010: 00000004 60100000 00000000 00000a00\n" +
			"60000020: 00000000 60100a00 00000000 000005d0\n" +
			"60000030: 00000001 60101000 00000000 00001000\n" +
			"60000040: 00000002 60102000 00000000 00001000\n" +
			"60000050: 00000003 00000000 00000000 00000000\n",
		"word2": "60000000: 60000014 00000001 00000000 00000000\n" +
			"60000010: 00000000 00000004 60100000 00000000\n" +
			"60000020: 00000a00 00000000 60100a00 00000000\n" +
			"60000030: 000005d0 00000001 60101000 00000000\n" +
			"60000040: 00001000 00000002 60102000 00000000\n" +
			"60000050: 00001000 00000003 00000000 00000000\n",
		"word3": "60000000: 60000018 00000001 00000000 00000000\n" +
			"60000010: 00000000 00000000 00000004 60100000\n" +
			"60000020: 00000000 00000a00 00000000 60100a00\n" +
			"60000030: 00000000 000005d0 00000001 60101000\n" +
			"60000040: 00000000 00001000 00000002 60102000\n" +
			"60000050: 00000000 00001000 00000003 00000000\n",
		"word4": "60000000: 6000001C 00000001 00000000 00000000\n" +
			"60000010: 00000000 00000000 00000000 00000004\n" +
			"60000020: 60100000 00000000 00000a00 00000000\n" +
			"60000030: 60100a00 00000000 000005d0 00000001\n" +
			"60000040: 60101000 00000000 00001000 00000002\n" +
			"60000050: 60102000 00000000 00001000 00000003\n",
	}
	for name, snippet := range snippets {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, ExtractBTFromCMM(strings.NewReader(cmmPreamble+snippet), &out))
			assert.Equal(t, expectedBindingTableXML, out.String())
		})
	}
}

func TestExtractBTFromCMMErrors(t *testing.T) {
	for name, cmm := range map[string]string{
		"no descriptor":   cmmPreamble,
		"missing array":   "60000000: 60000100 00000000 00000000 00000000\n",
		"short table":     "60000000: 60000010 00000000 00000000 00000000\n60000010: 00000002 60100000 00000000 00000a00\n",
		"bad address":     "6000000G: 00000000\n",
		"unaligned line":  "60000002: 00000000\n",
		"no separator":    "60000000 00000000\n",
		"word too large":  "60000000: 100000000\n",
		"too many buffer": "60000000: 60000010 00000000 00000000 00000000\n60000010: ffffffff 00000000 00000000 00000000\n",
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ExtractBTFromCMM(strings.NewReader(cmm), &bytes.Buffer{}))
		})
	}
}

func TestExtractCSFromCMM(t *testing.T) {
	cs := New().
		Add(&DumpDram{DramBufferID: 0, Filename: "1_16_16_16_CommandStream_Operation_0_OutputModel_NHWCB.hex"}).
		Add(&DumpSram{Prefix: "output_ce"}).
		Add(testCascade())
	data, err := cs.MarshalBinary()
	require.NoError(t, err)
	require.Zero(t, len(data)%4)

	// Buffer 0 is the input, the command stream is the CMD_FW buffer.
	const csAddr = 0x60001000
	var cmm strings.Builder
	cmm.WriteString(cmmPreamble)
	cmm.WriteString("60000000: 60000010 00000001 00000000 00000000\n")
	fmt.Fprintf(&cmm, "60000010: 00000002 60100000 00000000 00000100\n")
	fmt.Fprintf(&cmm, "60000020: 00000000 %08x 00000000 %08x\n", csAddr, len(data))
	fmt.Fprintf(&cmm, "60000030: %08x 00000000 00000000 00000000\n", uint32(BufferTypeCmdFw))
	for offset := 0; offset < len(data); offset += 16 {
		fmt.Fprintf(&cmm, "%08x:", csAddr+offset)
		for ii := range 4 {
			var word uint32
			if pos := offset + 4*ii; pos < len(data) {
				word = binary.LittleEndian.Uint32(data[pos:])
			}
			fmt.Fprintf(&cmm, " %08x", word)
		}
		cmm.WriteString("\n")
	}

	var got, want bytes.Buffer
	require.NoError(t, ExtractCSFromCMM(strings.NewReader(cmm.String()), &got))
	require.NoError(t, cs.WriteXML(&want))
	assert.Equal(t, want.String(), got.String())
}
