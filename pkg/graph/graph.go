// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package graph holds the input of the compiler: a directed acyclic graph of tensor operation nodes.
//
// Nodes are stored in an arena owned by the Graph and referred to by NodeID. A node can only be added
// after its inputs, so the order in which nodes are added is a topological order, and Graph.Nodes
// returns them in that order.
//
// Errors while building a graph (unknown node ids, mismatched shapes) are programming errors of the front end
// and panic with github.com/gomlx/exceptions, like the rest of the graph building APIs in GoMLX.
// Front ends reading untrusted descriptions should use exceptions.TryCatch.
package graph

import (
	"fmt"
	"slices"

	"github.com/gomlx/exceptions"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/support/sets"
)

// Graph of tensor operations.
type Graph struct {
	name      string
	nodes     []*Node
	consumers [][]Edge
	nextOpID  int
}

// Edge connects the output of From to the input number InputIndex of To.
type Edge struct {
	From, To   NodeID
	InputIndex int
}

// New creates an empty graph.
func New(name string) *Graph {
	return &Graph{name: name}
}

// Name of the graph, used in dumps.
func (g *Graph) Name() string { return g.name }

// NumNodes in the graph.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Nodes in topological order. The returned slice must not be modified.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) *Node {
	g.checkID(id)
	return g.nodes[id]
}

// Consumers returns the edges leaving the node, in the order they were added.
func (g *Graph) Consumers(id NodeID) []Edge {
	g.checkID(id)
	return g.consumers[id]
}

// Edges returns all edges in the graph, grouped by consumer node in topological order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, node := range g.nodes {
		for ii, input := range node.Inputs {
			edges = append(edges, Edge{From: input, To: node.ID, InputIndex: ii})
		}
	}
	return edges
}

// NodesOfKind returns the ids of the nodes of the given kind, in topological order.
func (g *Graph) NodesOfKind(kind NodeKind) []NodeID {
	var ids []NodeID
	for _, node := range g.nodes {
		if node.Kind() == kind {
			ids = append(ids, node.ID)
		}
	}
	return ids
}

func (g *Graph) checkID(id NodeID) {
	if id < 0 || int(id) >= len(g.nodes) {
		exceptions.Panicf("graph %q has no node #%d", g.name, id)
	}
}

// AddNode appends a node with the given attributes and returns its id. The inputs must already be in the graph.
//
// If the node has no operation ids, it gets a new unique one.
func (g *Graph) AddNode(node *Node) NodeID {
	if node.Attributes == nil {
		exceptions.Panicf("graph %q: node %q has no attributes", g.name, node.Name)
	}
	for _, input := range node.Inputs {
		g.checkID(input)
	}
	node.ID = NodeID(len(g.nodes))
	node.Inputs = slices.Clone(node.Inputs)
	if len(node.OperationIDs) == 0 {
		node.OperationIDs = sets.MakeWith(g.nextOpID)
		g.nextOpID++
	} else {
		for opID := range node.OperationIDs {
			g.nextOpID = max(g.nextOpID, opID+1)
		}
	}
	g.nodes = append(g.nodes, node)
	g.consumers = append(g.consumers, nil)
	for ii, input := range node.Inputs {
		g.consumers[input] = append(g.consumers[input], Edge{From: input, To: node.ID, InputIndex: ii})
	}
	return node.ID
}

// AddInput adds a network input.
func (g *Graph) AddInput(name string, shape tensor.Shape, dtype tensor.DataType, quant tensor.QuantizationInfo,
	format DataFormat) NodeID {
	return g.AddNode(&Node{
		Name: name, Shape: shape, DataType: dtype, Quantization: quant, Format: format,
		Attributes: InputAttributes{Index: len(g.NodesOfKind(NodeKindInput))},
	})
}

// AddOutput adds a network output reading the given node.
func (g *Graph) AddOutput(name string, input NodeID, format DataFormat) NodeID {
	in := g.Node(input)
	return g.AddNode(&Node{
		Name: name, Inputs: []NodeID{input},
		Shape: in.Shape, DataType: in.DataType, Quantization: in.Quantization, Format: format,
		Attributes: OutputAttributes{Index: len(g.NodesOfKind(NodeKindOutput))},
	})
}

// AddConstant adds a constant tensor.
func (g *Graph) AddConstant(name string, shape tensor.Shape, dtype tensor.DataType, quant tensor.QuantizationInfo,
	data []byte) NodeID {
	if uint64(len(data)) != shape.NumElements()*uint64(dtype.Size()) {
		exceptions.Panicf("constant %q of shape %s has %d bytes of data", name, shape, len(data))
	}
	return g.AddNode(&Node{
		Name: name, Shape: shape, DataType: dtype, Quantization: quant, Format: DataFormatNHWC,
		Attributes: ConstantAttributes{Data: data},
	})
}

// AddMce adds a convolution, depthwise convolution or fully connected operation.
// The output shape is derived from the input shape, the weights, the stride, the padding and the upscale factor.
func (g *Graph) AddMce(name string, input NodeID, attrs MceAttributes, outputQuant tensor.QuantizationInfo) NodeID {
	in := g.Node(input)
	if attrs.UpscaleFactor == 0 {
		attrs.UpscaleFactor = 1
	}
	if attrs.Stride.X == 0 || attrs.Stride.Y == 0 {
		attrs.Stride = tensor.UnitStride
	}
	attrs.InputShape = in.Shape
	return g.AddNode(&Node{
		Name: name, Inputs: []NodeID{input},
		Shape: MceOutputShape(in.Shape, attrs), DataType: in.DataType, Quantization: outputQuant,
		Format:     DataFormatNHWCB,
		Attributes: attrs,
	})
}

// MceOutputShape returns the shape of the output of an MCE operation.
func MceOutputShape(inputShape tensor.Shape, attrs MceAttributes) tensor.Shape {
	weights := attrs.Weights.Shape
	upscale := max(attrs.UpscaleFactor, 1)
	stride := attrs.Stride
	if stride.X == 0 || stride.Y == 0 {
		stride = tensor.UnitStride
	}
	var outC uint32
	switch attrs.Operation {
	case MceOperationFullyConnected:
		return tensor.Shape{inputShape[0], 1, 1, weights[3]}
	case MceOperationDepthwiseConvolution:
		outC = weights[2] * weights[3]
	case MceOperationConvolution:
		outC = weights[3]
	default:
		exceptions.Panicf("unknown MCE operation %s", attrs.Operation)
	}
	outDim := func(in, padBefore, padAfter, kernel, stride uint32) uint32 {
		padded := in*upscale + padBefore + padAfter
		if padded < kernel {
			exceptions.Panicf("kernel of size %d larger than padded input %d", kernel, padded)
		}
		return (padded-kernel)/stride + 1
	}
	return tensor.Shape{
		inputShape[0],
		outDim(inputShape[1], attrs.Padding.Top, attrs.Padding.Bottom, weights[0], stride.Y),
		outDim(inputShape[2], attrs.Padding.Left, attrs.Padding.Right, weights[1], stride.X),
		outC,
	}
}

// AddMcePostProcess adds a clamp of the output of an MCE operation.
func (g *Graph) AddMcePostProcess(name string, input NodeID, lowerBound, upperBound int16) NodeID {
	in := g.Node(input)
	return g.AddNode(&Node{
		Name: name, Inputs: []NodeID{input},
		Shape: in.Shape, DataType: in.DataType, Quantization: in.Quantization, Format: DataFormatNHWCB,
		Attributes: McePostProcessAttributes{LowerBound: lowerBound, UpperBound: upperBound},
	})
}

// AddFuseOnlyPle adds a PLE kernel that has to run fused after an MCE operation.
func (g *Graph) AddFuseOnlyPle(name string, input NodeID, op PleOperation, multiplier tensor.ShapeMultiplier,
	outputQuant tensor.QuantizationInfo) NodeID {
	in := g.Node(input)
	if op.IsStandalone() {
		exceptions.Panicf("PLE operation %s cannot be fused to an MCE operation", op)
	}
	return g.AddNode(&Node{
		Name: name, Inputs: []NodeID{input},
		Shape: multiplier.Apply(in.Shape), DataType: in.DataType, Quantization: outputQuant, Format: DataFormatNHWCB,
		Attributes: FuseOnlyPleAttributes{Operation: op, ShapeMultiplier: multiplier},
	})
}

// AddStandalonePle adds a PLE kernel reading its inputs from SRAM. All inputs must have the same shape.
func (g *Graph) AddStandalonePle(name string, inputs []NodeID, op PleOperation, outputQuant tensor.QuantizationInfo) NodeID {
	if !op.IsStandalone() {
		exceptions.Panicf("PLE operation %s cannot run standalone", op)
	}
	if len(inputs) != op.NumInputs() {
		exceptions.Panicf("PLE operation %s takes %d inputs, got %d", op, op.NumInputs(), len(inputs))
	}
	in := g.Node(inputs[0])
	for _, other := range inputs[1:] {
		if g.Node(other).Shape != in.Shape {
			exceptions.Panicf("PLE operation %s inputs have different shapes %s and %s", op, in.Shape, g.Node(other).Shape)
		}
	}
	return g.AddNode(&Node{
		Name: name, Inputs: inputs,
		Shape: in.Shape, DataType: in.DataType, Quantization: outputQuant, Format: DataFormatNHWCB,
		Attributes: StandalonePleAttributes{Operation: op},
	})
}

// AddConcat adds a concatenation of the inputs along the given axis.
func (g *Graph) AddConcat(name string, inputs []NodeID, axis int, outputQuant tensor.QuantizationInfo) NodeID {
	if len(inputs) == 0 {
		exceptions.Panicf("concat %q has no inputs", name)
	}
	if axis < 0 || axis >= len(tensor.Shape{}) {
		exceptions.Panicf("concat %q has invalid axis %d", name, axis)
	}
	shape := g.Node(inputs[0]).Shape
	for _, input := range inputs[1:] {
		other := g.Node(input).Shape
		for dim := range shape {
			if dim != axis && other[dim] != shape[dim] {
				exceptions.Panicf("concat %q: input shapes %s and %s differ outside axis %d", name, shape, other, axis)
			}
		}
		shape[axis] += other[axis]
	}
	return g.AddNode(&Node{
		Name: name, Inputs: inputs,
		Shape: shape, DataType: g.Node(inputs[0]).DataType, Quantization: outputQuant, Format: DataFormatNHWCB,
		Attributes: ConcatAttributes{Axis: axis},
	})
}

// AddReinterpret adds a reshape that does not move data. The number of elements must be preserved.
func (g *Graph) AddReinterpret(name string, input NodeID, shape tensor.Shape) NodeID {
	in := g.Node(input)
	if in.Shape.NumElements() != shape.NumElements() {
		exceptions.Panicf("reinterpret %q: cannot view %s as %s", name, in.Shape, shape)
	}
	return g.AddNode(&Node{
		Name: name, Inputs: []NodeID{input},
		Shape: shape, DataType: in.DataType, Quantization: in.Quantization, Format: DataFormatNHWC,
		Attributes: ReinterpretAttributes{},
	})
}

// AddEstimateOnly adds a node that is only estimated, never lowered.
func (g *Graph) AddEstimateOnly(name string, inputs []NodeID, shape tensor.Shape, reason string) NodeID {
	var dtype tensor.DataType
	var quant tensor.QuantizationInfo
	if len(inputs) > 0 {
		in := g.Node(inputs[0])
		dtype, quant = in.DataType, in.Quantization
	}
	return g.AddNode(&Node{
		Name: name, Inputs: inputs,
		Shape: shape, DataType: dtype, Quantization: quant, Format: DataFormatNHWCB,
		Attributes: EstimateOnlyAttributes{Reason: reason},
	})
}

// String returns a one-line-per-node listing of the graph.
func (g *Graph) String() string {
	s := fmt.Sprintf("Graph %q: %d nodes\n", g.name, len(g.nodes))
	for _, node := range g.nodes {
		s += fmt.Sprintf("  #%d %s <- %v\n", node.ID, node, node.Inputs)
	}
	return s
}
