// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/support/sets"
)

// NodeID indexes a node in its Graph.
type NodeID int

// InvalidNodeID is returned by lookups that fail.
const InvalidNodeID NodeID = -1

// NodeKind is the closed set of node kinds handled by the compiler.
type NodeKind int

//go:generate go tool enumer -type=NodeKind -trimprefix=NodeKind -output=gen_nodekind_enumer.go node.go

const (
	NodeKindInput NodeKind = iota
	NodeKindOutput
	NodeKindConstant
	NodeKindMceOperation
	NodeKindMcePostProcess
	NodeKindFuseOnlyPle
	NodeKindStandalonePle
	NodeKindConcat
	NodeKindReinterpret
	NodeKindEstimateOnly
)

// Node of the input graph: one tensor operation with a single output tensor.
type Node struct {
	ID   NodeID
	Name string

	// Inputs are the producers of the node's operands, in operand order.
	Inputs []NodeID

	// Shape, DataType, Quantization and Format describe the node's output tensor.
	Shape        tensor.Shape
	DataType     tensor.DataType
	Quantization tensor.QuantizationInfo
	Format       DataFormat

	// OperationIDs of the front-end operations this node implements.
	OperationIDs sets.Set[int]

	// Attributes are specific to the kind of node.
	Attributes Attributes
}

// Kind of the node, given by its attributes.
func (n *Node) Kind() NodeKind {
	return n.Attributes.Kind()
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	name := n.Name
	if name == "" {
		name = fmt.Sprintf("#%d", n.ID)
	}
	return fmt.Sprintf("%s(%s, %s)", n.Kind(), name, n.Shape)
}

// Attributes of a node. It is implemented only by the types of this package, one per NodeKind.
type Attributes interface {
	Kind() NodeKind
	isAttributes()
}

// InputAttributes of a network input.
type InputAttributes struct {
	// Index of the network input.
	Index int
}

// OutputAttributes of a network output. The node's shape is the shape of its single input.
type OutputAttributes struct {
	// Index of the network output.
	Index int
}

// ConstantAttributes hold constant data, for instance the second operand of an addition.
type ConstantAttributes struct {
	Data []byte
}

// WeightsInfo describes the weights of an MCE operation.
type WeightsInfo struct {
	// Shape of the weights: kernel height, kernel width, input channels and output channels
	// (or channel multiplier for HWIM).
	Shape        tensor.Shape
	Format       WeightsFormat
	Quantization tensor.QuantizationInfo
	Data         []byte
}

// MceAttributes of a convolution, depthwise convolution or fully connected node.
type MceAttributes struct {
	Operation MceOperation
	Weights   WeightsInfo
	Bias      []int32
	Stride    tensor.Stride
	Padding   tensor.Padding

	// UpscaleFactor is 1 unless the MCE upsamples its input (transpose convolutions).
	UpscaleFactor uint32

	// Algorithm requested by the front end. The compiler may fall back to Direct.
	Algorithm MceAlgorithm

	// Clamping bounds of the output, used to fuse a ReLU.
	LowerBound, UpperBound int16

	// InputShape is the shape of the operand fed to the MCE.
	InputShape tensor.Shape
}

// McePostProcessAttributes of a ReLU-like clamp that folds into the preceding MCE operation.
type McePostProcessAttributes struct {
	LowerBound, UpperBound int16
}

// FuseOnlyPleAttributes of a PLE kernel that must run right after an MCE operation.
type FuseOnlyPleAttributes struct {
	Operation PleOperation

	// ShapeMultiplier maps the MCE output shape to the PLE output shape.
	ShapeMultiplier tensor.ShapeMultiplier
}

// StandalonePleAttributes of a PLE kernel that runs without an MCE operation.
type StandalonePleAttributes struct {
	Operation PleOperation
}

// ConcatAttributes of a concatenation of all inputs along Axis.
type ConcatAttributes struct {
	Axis int
}

// ReinterpretAttributes of a node that views its input with a different shape.
type ReinterpretAttributes struct{}

// EstimateOnlyAttributes of a node the compiler cannot lower but can still estimate.
type EstimateOnlyAttributes struct {
	Reason string
}

func (InputAttributes) Kind() NodeKind          { return NodeKindInput }
func (OutputAttributes) Kind() NodeKind         { return NodeKindOutput }
func (ConstantAttributes) Kind() NodeKind       { return NodeKindConstant }
func (MceAttributes) Kind() NodeKind            { return NodeKindMceOperation }
func (McePostProcessAttributes) Kind() NodeKind { return NodeKindMcePostProcess }
func (FuseOnlyPleAttributes) Kind() NodeKind    { return NodeKindFuseOnlyPle }
func (StandalonePleAttributes) Kind() NodeKind  { return NodeKindStandalonePle }
func (ConcatAttributes) Kind() NodeKind         { return NodeKindConcat }
func (ReinterpretAttributes) Kind() NodeKind    { return NodeKindReinterpret }
func (EstimateOnlyAttributes) Kind() NodeKind   { return NodeKindEstimateOnly }

func (InputAttributes) isAttributes()          {}
func (OutputAttributes) isAttributes()         {}
func (ConstantAttributes) isAttributes()       {}
func (MceAttributes) isAttributes()            {}
func (McePostProcessAttributes) isAttributes() {}
func (FuseOnlyPleAttributes) isAttributes()    {}
func (StandalonePleAttributes) isAttributes()  {}
func (ConcatAttributes) isAttributes()         {}
func (ReinterpretAttributes) isAttributes()    {}
func (EstimateOnlyAttributes) isAttributes()   {}
