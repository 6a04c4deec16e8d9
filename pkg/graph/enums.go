// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

// DataFormat is the layout requested by the front end for a node's output. The compiler is free to use
// other layouts for intermediate tensors.
type DataFormat int

//go:generate go tool enumer -type=DataFormat -trimprefix=DataFormat -output=gen_dataformat_enumer.go enums.go

const (
	DataFormatNHWC DataFormat = iota
	DataFormatNCHW
	DataFormatNHWCB
	DataFormatWEIGHT
)

// MceOperation is the kind of computation done by the MCE.
type MceOperation int

//go:generate go tool enumer -type=MceOperation -trimprefix=MceOperation -output=gen_mceoperation_enumer.go enums.go

const (
	MceOperationConvolution MceOperation = iota
	MceOperationDepthwiseConvolution
	MceOperationFullyConnected
)

// MceAlgorithm used by the MCE for a convolution.
type MceAlgorithm int

//go:generate go tool enumer -type=MceAlgorithm -trimprefix=MceAlgorithm -output=gen_mcealgorithm_enumer.go enums.go

const (
	MceAlgorithmDirect MceAlgorithm = iota
	MceAlgorithmWinograd
)

// PleOperation identifies the PLE kernel family run on a node's data.
type PleOperation int

//go:generate go tool enumer -type=PleOperation -trimprefix=PleOperation -output=gen_pleoperation_enumer.go enums.go

const (
	PleOperationPassthrough PleOperation = iota
	PleOperationAddition
	PleOperationAdditionRescale
	PleOperationAvgPool3x3_1_1Udma
	PleOperationDownsample2x2
	PleOperationInterleave2x2_2_2
	PleOperationLeakyRelu
	PleOperationMaxPool2x2_2_2
	PleOperationMaxPool3x3_2_2Even
	PleOperationMaxPool3x3_2_2Odd
	PleOperationMeanXy7x7
	PleOperationMeanXy8x8
	PleOperationSigmoid
	PleOperationTransposeXy
)

// NumInputs returns how many input tensors the PLE kernel reads.
func (op PleOperation) NumInputs() int {
	switch op {
	case PleOperationAddition, PleOperationAdditionRescale:
		return 2
	default:
		return 1
	}
}

// IsStandalone returns whether the kernel reads its input from SRAM through the DMA rather than from the
// MCE output. Such kernels run without an MCE operation in front of them.
func (op PleOperation) IsStandalone() bool {
	switch op {
	case PleOperationAddition, PleOperationAdditionRescale, PleOperationAvgPool3x3_1_1Udma:
		return true
	default:
		return false
	}
}

// WeightsFormat is the order of the axes of a weights tensor.
type WeightsFormat int

//go:generate go tool enumer -type=WeightsFormat -trimprefix=WeightsFormat -output=gen_weightsformat_enumer.go enums.go

const (
	// WeightsFormatHWIO is used by convolutions and fully connected layers.
	WeightsFormatHWIO WeightsFormat = iota

	// WeightsFormatHWIM is used by depthwise convolutions: M is the channel multiplier.
	WeightsFormatHWIM
)
