// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandstream

// AgentType identifies the hardware pipeline stage an Agent programs.
type AgentType uint32

//go:generate go tool enumer -type=AgentType -trimprefix=AgentType -transform=snake-upper -text -output=gen_agenttype_enumer.go agents.go

const (
	AgentTypeIfmStreamer AgentType = iota
	AgentTypeWgtStreamer
	AgentTypeMceScheduler
	AgentTypePleLoader
	AgentTypePleScheduler
	AgentTypeOfmStreamer
)

// MceOperation run by an MCE scheduler.
type MceOperation uint8

//go:generate go tool enumer -type=MceOperation -trimprefix=MceOperation -transform=snake-upper -text -output=gen_mceoperation_enumer.go agents.go

const (
	MceOperationConvolution MceOperation = iota
	MceOperationDepthwiseConvolution
	MceOperationFullyConnected
)

// MceAlgorithm used by an MCE scheduler.
type MceAlgorithm uint8

//go:generate go tool enumer -type=MceAlgorithm -trimprefix=MceAlgorithm -transform=snake-upper -text -output=gen_mcealgorithm_enumer.go agents.go

const (
	MceAlgorithmDirect MceAlgorithm = iota
	MceAlgorithmWinograd
)

// PleInputMode tells where a PLE scheduler reads its input from.
type PleInputMode uint8

//go:generate go tool enumer -type=PleInputMode -trimprefix=PleInputMode -transform=snake-upper -text -output=gen_pleinputmode_enumer.go agents.go

const (
	// PleInputModeMceAllOgs reads the output of all the MCE output groups.
	PleInputModeMceAllOgs PleInputMode = iota

	// PleInputModeMceOneOg reads the output of a single MCE output group, used by depthwise convolutions.
	PleInputModeMceOneOg

	// PleInputModeSram reads the inputs from SRAM, for standalone kernels.
	PleInputModeSram
)

// FmsDataType is the DRAM layout of a feature map streamed by an IFM or OFM streamer.
type FmsDataType uint8

//go:generate go tool enumer -type=FmsDataType -trimprefix=FmsDataType -transform=snake-upper -text -output=gen_fmsdatatype_enumer.go agents.go

const (
	FmsDataTypeNhwc FmsDataType = iota
	FmsDataTypeNhwcb
	FmsDataTypeFcafDeep
	FmsDataTypeFcafWide
)

// Tile is a circular buffer of stripe slots in SRAM. Addresses and sizes are per SRAM bank.
type Tile struct {
	BaseAddr uint16 `xml:"BASE_ADDR"`
	NumSlots uint16 `xml:"NUM_SLOTS"`
	SlotSize uint16 `xml:"SLOT_SIZE"`
}

// TensorSize is a height, width, channels triple: a stripe size, a number of stripes or stripe id strides.
type TensorSize struct {
	Height   uint16 `xml:"HEIGHT"`
	Width    uint16 `xml:"WIDTH"`
	Channels uint16 `xml:"CHANNELS"`
}

// SupertensorSize is the size of the whole DRAM tensor, in cells of its format.
type SupertensorSize struct {
	Width    uint16 `xml:"WIDTH"`
	Channels uint16 `xml:"CHANNELS"`
}

// FmSData describes the streaming of a feature map between DRAM and an SRAM tile.
type FmSData struct {
	DramOffset             uint32          `xml:"DRAM_OFFSET"`
	BufferID               uint16          `xml:"BUFFER_ID"`
	DataType               FmsDataType     `xml:"DATA_TYPE"`
	Tile                   Tile            `xml:"TILE"`
	DfltStripeSize         TensorSize      `xml:"DFLT_STRIPE_SIZE"`
	EdgeStripeSize         TensorSize      `xml:"EDGE_STRIPE_SIZE"`
	SupertensorSizeInCells SupertensorSize `xml:"SUPERTENSOR_SIZE_IN_CELLS"`
	NumStripes             TensorSize      `xml:"NUM_STRIPES"`
	StripeIDStrides        TensorSize      `xml:"STRIPE_ID_STRIDES"`
}

// IfmS is the data of an IFM streamer agent, which loads a feature map from DRAM into SRAM.
type IfmS struct {
	FmSData
}

// OfmS is the data of an OFM streamer agent, which stores a feature map from SRAM into DRAM.
type OfmS struct {
	FmSData
}

// WgtSWorkSize is an output channels, input channels pair.
type WgtSWorkSize struct {
	OfmChannels uint16 `xml:"OFM_CHANNELS"`
	IfmChannels uint16 `xml:"IFM_CHANNELS"`
}

// WgtS is the data of a weight streamer agent.
type WgtS struct {
	BufferID              uint16       `xml:"BUFFER_ID"`
	MetadataBufferID      uint16       `xml:"METADATA_BUFFER_ID"`
	Tile                  Tile         `xml:"TILE"`
	EdgeStripeOfmChannels uint16       `xml:"EDGE_STRIPE_OFM_CHANNELS"`
	NumStripes            WgtSWorkSize `xml:"NUM_STRIPES"`
	StripeIDStrides       WgtSWorkSize `xml:"STRIPE_ID_STRIDES"`
}

// BlockSize of the MCE, in elements.
type BlockSize struct {
	Width  uint8 `xml:"WIDTH"`
	Height uint8 `xml:"HEIGHT"`
}

// ReluActivation clamps the output of the MCE.
type ReluActivation struct {
	Min int16 `xml:"MIN"`
	Max int16 `xml:"MAX"`
}

// StrideXY of a convolution.
type StrideXY struct {
	X uint8 `xml:"X"`
	Y uint8 `xml:"Y"`
}

// MceSWorkSize is the MCE work split in four dimensions.
type MceSWorkSize struct {
	OfmHeight   uint16 `xml:"OFM_HEIGHT"`
	OfmWidth    uint16 `xml:"OFM_WIDTH"`
	OfmChannels uint16 `xml:"OFM_CHANNELS"`
	IfmChannels uint16 `xml:"IFM_CHANNELS"`
}

// FilterShape of a convolution kernel.
type FilterShape struct {
	Width  uint8 `xml:"WIDTH"`
	Height uint8 `xml:"HEIGHT"`
}

// Padding before the first element, in each direction.
type Padding struct {
	Left uint8 `xml:"LEFT"`
	Top  uint8 `xml:"TOP"`
}

// IfmDelta is the difference between the input and the output sizes of a stripe.
type IfmDelta struct {
	Width  int8 `xml:"WIDTH"`
	Height int8 `xml:"HEIGHT"`
}

// MceS is the data of an MCE scheduler agent.
type MceS struct {
	IfmTile         Tile           `xml:"IFM_TILE"`
	WgtTile         Tile           `xml:"WGT_TILE"`
	BlockSize       BlockSize      `xml:"BLOCK_SIZE"`
	DfltStripeSize  MceSWorkSize   `xml:"DFLT_STRIPE_SIZE"`
	EdgeStripeSize  MceSWorkSize   `xml:"EDGE_STRIPE_SIZE"`
	NumStripes      MceSWorkSize   `xml:"NUM_STRIPES"`
	StripeIDStrides MceSWorkSize   `xml:"STRIPE_ID_STRIDES"`
	ConvStrideXY    StrideXY       `xml:"CONV_STRIDE_XY"`
	IfmZeroPoint    int16          `xml:"IFM_ZERO_POINT"`
	MceOpMode       MceOperation   `xml:"MCE_OP_MODE"`
	Algorithm       MceAlgorithm   `xml:"ALGORITHM"`
	FilterShape     FilterShape    `xml:"FILTER_SHAPE"`
	Padding         Padding        `xml:"PADDING"`
	IfmDeltaDefault IfmDelta       `xml:"IFM_DELTA_DEFAULT"`
	IfmDeltaEdge    IfmDelta       `xml:"IFM_DELTA_EDGE"`
	ReluActiv       ReluActivation `xml:"RELU_ACTIV"`
	PleKernelID     PleKernelID    `xml:"PLE_KERNEL_ID"`
}

// PleL is the data of a PLE loader agent, which copies a kernel into SRAM.
type PleL struct {
	PleKernelID PleKernelID `xml:"PLE_KERNEL_ID"`
	SramAddr    uint16      `xml:"SRAM_ADDR"`
}

// PleIfmInfo is the quantization of one PLE input.
type PleIfmInfo struct {
	ZeroPoint  int16  `xml:"ZERO_POINT"`
	Multiplier uint16 `xml:"MULTIPLIER"`
	Shift      uint16 `xml:"SHIFT"`
}

// PleS is the data of a PLE scheduler agent.
type PleS struct {
	OfmTile           Tile         `xml:"OFM_TILE"`
	OfmZeroPoint      int16        `xml:"OFM_ZERO_POINT"`
	DfltStripeSize    TensorSize   `xml:"DFLT_STRIPE_SIZE"`
	EdgeStripeSize    TensorSize   `xml:"EDGE_STRIPE_SIZE"`
	NumStripes        TensorSize   `xml:"NUM_STRIPES"`
	StripeIDStrides   TensorSize   `xml:"STRIPE_ID_STRIDES"`
	InputMode         PleInputMode `xml:"INPUT_MODE"`
	PleKernelID       PleKernelID  `xml:"PLE_KERNEL_ID"`
	PleKernelSramAddr uint16       `xml:"PLE_KERNEL_SRAM_ADDR"`

	// Inputs read from SRAM, only used with PleInputModeSram.
	IfmTile0 Tile       `xml:"IFM_TILE0"`
	IfmInfo0 PleIfmInfo `xml:"IFM_INFO0"`
	IfmTile1 Tile       `xml:"IFM_TILE1"`
	IfmInfo1 PleIfmInfo `xml:"IFM_INFO1"`
}

// AgentData is the type specific part of an Agent. It is implemented only by the pointer types
// *IfmS, *WgtS, *MceS, *PleL, *PleS and *OfmS.
type AgentData interface {
	AgentType() AgentType
}

// AgentType implements AgentData.
func (*IfmS) AgentType() AgentType { return AgentTypeIfmStreamer }

// AgentType implements AgentData.
func (*WgtS) AgentType() AgentType { return AgentTypeWgtStreamer }

// AgentType implements AgentData.
func (*MceS) AgentType() AgentType { return AgentTypeMceScheduler }

// AgentType implements AgentData.
func (*PleL) AgentType() AgentType { return AgentTypePleLoader }

// AgentType implements AgentData.
func (*PleS) AgentType() AgentType { return AgentTypePleScheduler }

// AgentType implements AgentData.
func (*OfmS) AgentType() AgentType { return AgentTypeOfmStreamer }

// MaxRelativeAgentPosition is the largest distance, in agents, a Dependency can refer to.
const MaxRelativeAgentPosition = 255

// Ratio between the stripes of the other agent and the stripes of the agent owning the dependency.
type Ratio struct {
	Other uint8 `xml:"OTHER"`
	Self  uint8 `xml:"SELF"`
}

// Dependency of an agent on another one, identified by its distance in the command stream.
//
// For read dependencies the other agent comes before, for write and schedule dependencies it comes after.
// A RelativeAgentID of 0 means the dependency is not used.
type Dependency struct {
	RelativeAgentID uint8 `xml:"RELATIVE_AGENT_ID"`
	OuterRatio      Ratio `xml:"OUTER_RATIO"`
	InnerRatio      Ratio `xml:"INNER_RATIO"`

	// Boundary is 1 if a stripe of the consumer also needs the neighbouring stripes of the producer.
	Boundary int8 `xml:"BOUNDARY"`
}

// IsUsed returns whether the dependency refers to another agent.
func (d Dependency) IsUsed() bool { return d.RelativeAgentID != 0 }

// AgentDependencyInfo holds the synchronization of an agent with the others.
type AgentDependencyInfo struct {
	NumStripesTotal      uint16
	ScheduleDependencies [1]Dependency
	ReadDependencies     [2]Dependency
	WriteDependencies    [1]Dependency
}

// Agent is one entry of the cascade: what to run and when it can run.
type Agent struct {
	Data AgentData
	Info AgentDependencyInfo
}

// Type of the agent.
func (a *Agent) Type() AgentType { return a.Data.AgentType() }
