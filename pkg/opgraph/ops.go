// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package opgraph

import (
	"fmt"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/support/sets"
)

// OpID indexes an Op in its OpGraph.
type OpID int

// InvalidOpID is returned when a buffer has no producer.
const InvalidOpID OpID = -1

// OpKind enumerates the implementations of Op.
type OpKind int

//go:generate go tool enumer -type=OpKind -trimprefix=OpKind -output=gen_opkind_enumer.go ops.go

const (
	OpKindMce OpKind = iota
	OpKindPle
	OpKindDma
	OpKindConcat
	OpKindDummy
)

// Op is a compute or transfer operation. It is implemented only by the pointer types of this package:
// *MceOp, *PleOp, *DmaOp, *ConcatOp and *DummyOp.
type Op interface {
	Base() *OpBase
	Kind() OpKind
	clone() Op
}

// OpBase holds the fields common to all ops.
type OpBase struct {
	Lifetime Lifetime

	// OperationIDs of the front-end operations implemented by this op.
	OperationIDs sets.Set[int]

	DebugTag string
}

// Base implements Op.
func (b *OpBase) Base() *OpBase { return b }

// String returns the debug tag.
func (b *OpBase) String() string { return b.DebugTag }

// MceOp is a convolution, depthwise convolution or fully connected operation on the MCE.
// Its inputs are the IFM buffer (index 0) and the weights buffer (index 1), and its output is always a
// PleInputSram buffer consumed by a PleOp.
type MceOp struct {
	OpBase

	Operation   graph.MceOperation
	Algorithm   graph.MceAlgorithm
	BlockConfig hwcaps.BlockConfig

	InputStripeShape   tensor.Shape
	OutputStripeShape  tensor.Shape
	WeightsStripeShape tensor.Shape
	Order              TraversalOrder

	Stride        tensor.Stride
	PadLeft       uint32
	PadTop        uint32
	UpscaleFactor uint32

	LowerBound, UpperBound int16
}

// Kind implements Op.
func (*MceOp) Kind() OpKind { return OpKindMce }
func (op *MceOp) clone() Op {
	c := *op
	c.OperationIDs = op.OperationIDs.Clone()
	return &c
}

// PleOp runs a PLE kernel. Its inputs are either the PleInputSram output of an MceOp or, for standalone
// kernels, SRAM buffers.
type PleOp struct {
	OpBase

	Operation   graph.PleOperation
	BlockConfig hwcaps.BlockConfig
	NumInputs   uint32

	InputStripeShapes []tensor.Shape
	OutputStripeShape tensor.Shape
	DataType          tensor.DataType

	// LoadKernel tells whether the kernel must be loaded into SRAM before running.
	LoadKernel bool

	// Offset in SRAM of the kernel code, valid only when HasOffset is set.
	Offset    uint32
	HasOffset bool

	// Rescale parameters of each input.
	Input0Multiplier, Input0Shift uint16
	Input1Multiplier, Input1Shift uint16
}

// Kind implements Op.
func (*PleOp) Kind() OpKind { return OpKindPle }
func (op *PleOp) clone() Op {
	c := *op
	c.OperationIDs = op.OperationIDs.Clone()
	c.InputStripeShapes = append([]tensor.Shape(nil), op.InputStripeShapes...)
	return &c
}

// DmaOp moves data between a DRAM buffer and an SRAM buffer.
type DmaOp struct {
	OpBase

	// TransferFormat is the format of the DRAM side.
	TransferFormat BufferFormat

	// Offset of the transferred region within the DRAM tensor, used by concatenations.
	Offset tensor.Shape
}

// Kind implements Op.
func (*DmaOp) Kind() OpKind { return OpKindDma }
func (op *DmaOp) clone() Op {
	c := *op
	c.OperationIDs = op.OperationIDs.Clone()
	return &c
}

// ConcatOp concatenates DRAM buffers along Axis.
type ConcatOp struct {
	OpBase
	Axis int
}

// Kind implements Op.
func (*ConcatOp) Kind() OpKind { return OpKindConcat }
func (op *ConcatOp) clone() Op {
	c := *op
	c.OperationIDs = op.OperationIDs.Clone()
	return &c
}

// DummyOp stands for operations that are only estimated or do not move data.
type DummyOp struct {
	OpBase
}

// Kind implements Op.
func (*DummyOp) Kind() OpKind { return OpKindDummy }
func (op *DummyOp) clone() Op {
	c := *op
	c.OperationIDs = op.OperationIDs.Clone()
	return &c
}

// OpString returns a one-line description of the op.
func OpString(op Op) string {
	tag := op.Base().DebugTag
	switch o := op.(type) {
	case *MceOp:
		return fmt.Sprintf("%s: Mce %s %s block=%s in=%s out=%s wgt=%s", tag, o.Operation, o.Algorithm, o.BlockConfig,
			o.InputStripeShape, o.OutputStripeShape, o.WeightsStripeShape)
	case *PleOp:
		return fmt.Sprintf("%s: Ple %s block=%s out=%s load=%v", tag, o.Operation, o.BlockConfig, o.OutputStripeShape,
			o.LoadKernel)
	case *DmaOp:
		return fmt.Sprintf("%s: Dma %s", tag, o.TransferFormat)
	case *ConcatOp:
		return fmt.Sprintf("%s: Concat axis=%d", tag, o.Axis)
	case *DummyOp:
		return fmt.Sprintf("%s: Dummy", tag)
	}
	return tag
}
