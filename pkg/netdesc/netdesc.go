// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package netdesc loads network descriptions written in YAML and builds the corresponding graph.Graph.
//
// Example:
//
//	name: two_convs
//	hardware:
//	  variant: N78_4TOPS_4PLE_RATIO
//	  sram_size: 1MiB
//	settings: "block_config_8x8=false"
//	nodes:
//	  - {name: input, op: input, shape: [1, 32, 32, 16]}
//	  - {name: conv0, op: convolution, inputs: [input], kernel: [3, 3], channels: 32, padding: [1, 1, 1, 1]}
//	  - {name: relu0, op: relu, inputs: [conv0]}
//	  - {name: pool, op: fuse_only_ple, operation: MaxPool2x2_2_2, inputs: [relu0]}
//	  - {name: output, op: output, inputs: [pool]}
//
// Nodes must be listed after their inputs. Weights and constants are generated deterministically from
// the node's seed.
package netdesc

import (
	"bytes"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/hwcaps"
)

// Network description.
type Network struct {
	Name     string   `yaml:"name"`
	Hardware Hardware `yaml:"hardware"`

	// Settings for the compilation, in the format of options.ParseSettings.
	Settings string `yaml:"settings"`

	Nodes []Node `yaml:"nodes"`
}

// Hardware selects the capabilities to compile for.
type Hardware struct {
	// Variant name, see hwcaps.VariantStrings. Defaults to hwcaps.DefaultVariant.
	Variant string `yaml:"variant"`

	// SramSize like "1MiB" or "786432". Defaults to the variant's SRAM size.
	SramSize string `yaml:"sram_size"`
}

// Quantization of a tensor.
type Quantization struct {
	ZeroPoint int32   `yaml:"zero_point"`
	Scale     float32 `yaml:"scale"`
}

// Node of the network. Which fields are used depends on Op.
type Node struct {
	Name   string   `yaml:"name"`
	Op     string   `yaml:"op"`
	Inputs []string `yaml:"inputs"`

	// Shape of inputs, constants, reinterpret and estimate_only nodes: N, H, W, C.
	Shape        []uint32      `yaml:"shape"`
	DataType     string        `yaml:"data_type"`
	Format       string        `yaml:"format"`
	Quantization *Quantization `yaml:"quantization"`

	// Kernel height and width, and output channels (or channel multiplier for depthwise convolutions).
	Kernel   []uint32 `yaml:"kernel"`
	Channels uint32   `yaml:"channels"`

	// Stride as [y, x] and padding as [top, bottom, left, right].
	Stride  []uint32 `yaml:"stride"`
	Padding []uint32 `yaml:"padding"`
	Upscale uint32   `yaml:"upscale"`

	// Winograd requests the Winograd algorithm.
	Winograd            bool          `yaml:"winograd"`
	WeightsQuantization *Quantization `yaml:"weights_quantization"`
	Seed                uint64        `yaml:"seed"`

	// Lower and Upper bounds of relu nodes. Default to the range of the data type.
	Lower *int16 `yaml:"lower"`
	Upper *int16 `yaml:"upper"`

	// Operation of PLE nodes, see graph.PleOperationStrings.
	Operation string `yaml:"operation"`

	// Multiplier of the output shape of fuse_only_ple nodes: fractions like "1/2" for H, W and C.
	Multiplier []string `yaml:"multiplier"`

	Axis   int    `yaml:"axis"`
	Reason string `yaml:"reason"`
}

// Load reads and parses the network description in the file.
func Load(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading network description")
	}
	net, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "in %q", path)
	}
	return net, nil
}

// Parse the YAML network description. Unknown fields are errors.
func Parse(data []byte) (*Network, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	net := &Network{}
	if err := decoder.Decode(net); err != nil {
		return nil, errors.Wrap(err, "parsing network description")
	}
	if len(net.Nodes) == 0 {
		return nil, errors.New("network description has no nodes")
	}
	if net.Name == "" {
		net.Name = "network"
	}
	return net, nil
}

// Capabilities returns the hardware capabilities selected by the description.
func (n *Network) Capabilities() (hwcaps.HardwareCapabilities, error) {
	variant := hwcaps.DefaultVariant
	if n.Hardware.Variant != "" {
		var err error
		variant, err = hwcaps.VariantString(n.Hardware.Variant)
		if err != nil {
			return hwcaps.HardwareCapabilities{}, errors.Errorf("unknown hardware variant %q, known variants: %s",
				n.Hardware.Variant, strings.Join(hwcaps.VariantStrings(), ", "))
		}
	}
	var sramSize uint64
	if n.Hardware.SramSize != "" {
		var err error
		sramSize, err = humanize.ParseBytes(n.Hardware.SramSize)
		if err != nil {
			return hwcaps.HardwareCapabilities{}, errors.Wrapf(err, "invalid SRAM size %q", n.Hardware.SramSize)
		}
		if sramSize > uint64(hwcaps.MaxSramSize) {
			return hwcaps.HardwareCapabilities{}, errors.Errorf("SRAM size %s is too large", n.Hardware.SramSize)
		}
	}
	return hwcaps.New(variant, uint32(sramSize))
}

// Build the graph described.
func (n *Network) Build() (g *graph.Graph, err error) {
	b := &builder{g: graph.New(n.Name), ids: make(map[string]graph.NodeID, len(n.Nodes))}
	for ii := range n.Nodes {
		node := &n.Nodes[ii]
		var addErr error
		err = exceptions.TryCatch[error](func() { addErr = b.add(node) })
		if err == nil {
			err = addErr
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "node #%d %q (%s)", ii, node.Name, node.Op)
		}
	}
	return b.g, nil
}

type builder struct {
	g   *graph.Graph
	ids map[string]graph.NodeID
}

func (b *builder) inputs(node *Node, want int) ([]graph.NodeID, error) {
	if want >= 0 && len(node.Inputs) != want {
		return nil, errors.Errorf("takes %d inputs, got %d", want, len(node.Inputs))
	}
	if len(node.Inputs) == 0 {
		return nil, errors.New("has no inputs")
	}
	ids := make([]graph.NodeID, len(node.Inputs))
	for ii, name := range node.Inputs {
		id, found := b.ids[name]
		if !found {
			return nil, errors.Errorf("input %q is not defined before", name)
		}
		ids[ii] = id
	}
	return ids, nil
}

func shapeOf(dims []uint32) (tensor.Shape, error) {
	if len(dims) != 4 {
		return tensor.Shape{}, errors.Errorf("shape %v must have 4 dimensions (N, H, W, C)", dims)
	}
	shape := tensor.Shape(dims)
	for _, dim := range shape {
		if dim == 0 {
			return tensor.Shape{}, errors.Errorf("shape %v has an empty dimension", dims)
		}
	}
	return shape, nil
}

func quantizationOf(q *Quantization) tensor.QuantizationInfo {
	if q == nil {
		return tensor.QuantizationInfo{ZeroPoint: 0, Scale: 1}
	}
	return tensor.QuantizationInfo{ZeroPoint: q.ZeroPoint, Scale: q.Scale}
}

func dataTypeOf(name string) (tensor.DataType, error) {
	if name == "" {
		return tensor.DataTypeUint8Quantized, nil
	}
	dtype, err := tensor.DataTypeString(name)
	if err != nil {
		return 0, errors.Errorf("unknown data type %q, known types: %s", name, strings.Join(tensor.DataTypeStrings(), ", "))
	}
	return dtype, nil
}

func formatOf(name string) (graph.DataFormat, error) {
	if name == "" {
		return graph.DataFormatNHWC, nil
	}
	format, err := graph.DataFormatString(name)
	if err != nil {
		return 0, errors.Errorf("unknown format %q, known formats: %s", name, strings.Join(graph.DataFormatStrings(), ", "))
	}
	return format, nil
}

// fraction parses "n/d" or "n".
func fraction(s string) (tensor.Fraction, error) {
	num, den, found := strings.Cut(s, "/")
	if !found {
		den = "1"
	}
	n, err := strconv.ParseUint(strings.TrimSpace(num), 10, 32)
	if err != nil {
		return tensor.Fraction{}, errors.Wrapf(err, "invalid fraction %q", s)
	}
	d, err := strconv.ParseUint(strings.TrimSpace(den), 10, 32)
	if err != nil || d == 0 {
		return tensor.Fraction{}, errors.Errorf("invalid fraction %q", s)
	}
	return tensor.Fraction{Numerator: uint32(n), Denominator: uint32(d)}, nil
}

// randomBytes returns n deterministic pseudo-random bytes.
func randomBytes(n uint64, seed uint64) []byte {
	rng := rand.New(rand.NewPCG(seed, 0x5eed))
	data := make([]byte, n)
	for ii := range data {
		data[ii] = byte(rng.UintN(256))
	}
	return data
}

func (b *builder) add(node *Node) error {
	if node.Name == "" {
		return errors.New("node has no name")
	}
	if _, found := b.ids[node.Name]; found {
		return errors.Errorf("node name %q is used twice", node.Name)
	}
	id, err := b.build(node)
	if err != nil {
		return err
	}
	b.ids[node.Name] = id
	return nil
}

func (b *builder) build(node *Node) (graph.NodeID, error) {
	quant := quantizationOf(node.Quantization)
	switch node.Op {
	case "input", "constant":
		shape, err := shapeOf(node.Shape)
		if err != nil {
			return 0, err
		}
		dtype, err := dataTypeOf(node.DataType)
		if err != nil {
			return 0, err
		}
		if node.Op == "constant" {
			data := randomBytes(shape.NumElements()*uint64(dtype.Size()), node.Seed)
			return b.g.AddConstant(node.Name, shape, dtype, quant, data), nil
		}
		format, err := formatOf(node.Format)
		if err != nil {
			return 0, err
		}
		return b.g.AddInput(node.Name, shape, dtype, quant, format), nil

	case "output":
		inputs, err := b.inputs(node, 1)
		if err != nil {
			return 0, err
		}
		format, err := formatOf(node.Format)
		if err != nil {
			return 0, err
		}
		return b.g.AddOutput(node.Name, inputs[0], format), nil

	case "convolution", "depthwise_convolution", "fully_connected":
		return b.mce(node, quant)

	case "relu":
		inputs, err := b.inputs(node, 1)
		if err != nil {
			return 0, err
		}
		in := b.g.Node(inputs[0])
		if in.Kind() != graph.NodeKindMceOperation {
			return 0, errors.Errorf("relu must follow a convolution or fully connected node, %q is %s",
				in.Name, in.Kind())
		}
		lower, upper := int16(0), int16(255)
		if in.DataType == tensor.DataTypeInt8Quantized {
			lower, upper = -128, 127
		}
		if node.Lower != nil {
			lower = *node.Lower
		}
		if node.Upper != nil {
			upper = *node.Upper
		}
		if lower > upper {
			return 0, errors.Errorf("relu bounds [%d, %d] are empty", lower, upper)
		}
		return b.g.AddMcePostProcess(node.Name, inputs[0], lower, upper), nil

	case "fuse_only_ple", "standalone_ple":
		op, err := graph.PleOperationString(node.Operation)
		if err != nil {
			return 0, errors.Errorf("unknown PLE operation %q, known operations: %s", node.Operation,
				strings.Join(graph.PleOperationStrings(), ", "))
		}
		if node.Op == "standalone_ple" {
			inputs, err := b.inputs(node, op.NumInputs())
			if err != nil {
				return 0, err
			}
			return b.g.AddStandalonePle(node.Name, inputs, op, quant), nil
		}
		inputs, err := b.inputs(node, 1)
		if err != nil {
			return 0, err
		}
		multiplier := tensor.IdentityShapeMultiplier
		if len(node.Multiplier) > 0 {
			if len(node.Multiplier) != 3 {
				return 0, errors.Errorf("multiplier %v must have 3 fractions, for H, W and C", node.Multiplier)
			}
			fractions := make([]tensor.Fraction, 3)
			for ii, s := range node.Multiplier {
				if fractions[ii], err = fraction(s); err != nil {
					return 0, err
				}
			}
			multiplier = tensor.ShapeMultiplier{H: fractions[0], W: fractions[1], C: fractions[2]}
		}
		return b.g.AddFuseOnlyPle(node.Name, inputs[0], op, multiplier, quant), nil

	case "concat":
		inputs, err := b.inputs(node, -1)
		if err != nil {
			return 0, err
		}
		return b.g.AddConcat(node.Name, inputs, node.Axis, quant), nil

	case "reinterpret":
		inputs, err := b.inputs(node, 1)
		if err != nil {
			return 0, err
		}
		shape, err := shapeOf(node.Shape)
		if err != nil {
			return 0, err
		}
		return b.g.AddReinterpret(node.Name, inputs[0], shape), nil

	case "estimate_only":
		inputs, err := b.inputs(node, -1)
		if err != nil {
			return 0, err
		}
		shape, err := shapeOf(node.Shape)
		if err != nil {
			return 0, err
		}
		return b.g.AddEstimateOnly(node.Name, inputs, shape, node.Reason), nil
	}
	return 0, errors.Errorf("unknown op %q", node.Op)
}

func (b *builder) mce(node *Node, quant tensor.QuantizationInfo) (graph.NodeID, error) {
	inputs, err := b.inputs(node, 1)
	if err != nil {
		return 0, err
	}
	in := b.g.Node(inputs[0])
	if node.Channels == 0 {
		return 0, errors.New("the number of output channels (or channel multiplier) must be given")
	}
	attrs := graph.MceAttributes{UpscaleFactor: max(node.Upscale, 1)}
	kernelH, kernelW := uint32(1), uint32(1)
	if len(node.Kernel) > 0 {
		if len(node.Kernel) != 2 || node.Kernel[0] == 0 || node.Kernel[1] == 0 {
			return 0, errors.Errorf("kernel %v must be [height, width]", node.Kernel)
		}
		kernelH, kernelW = node.Kernel[0], node.Kernel[1]
	}
	switch node.Op {
	case "convolution":
		attrs.Operation = graph.MceOperationConvolution
		attrs.Weights.Shape = tensor.Shape{kernelH, kernelW, in.Shape.Channels(), node.Channels}
		attrs.Weights.Format = graph.WeightsFormatHWIO
	case "depthwise_convolution":
		attrs.Operation = graph.MceOperationDepthwiseConvolution
		attrs.Weights.Shape = tensor.Shape{kernelH, kernelW, in.Shape.Channels(), node.Channels}
		attrs.Weights.Format = graph.WeightsFormatHWIM
	case "fully_connected":
		attrs.Operation = graph.MceOperationFullyConnected
		attrs.Weights.Shape = tensor.Shape{1, 1, uint32(in.Shape.NumElements() / uint64(in.Shape[0])), node.Channels}
		attrs.Weights.Format = graph.WeightsFormatHWIO
	}
	if len(node.Stride) > 0 {
		if len(node.Stride) != 2 || node.Stride[0] == 0 || node.Stride[1] == 0 {
			return 0, errors.Errorf("stride %v must be [y, x]", node.Stride)
		}
		attrs.Stride = tensor.Stride{Y: node.Stride[0], X: node.Stride[1]}
	}
	if len(node.Padding) > 0 {
		if len(node.Padding) != 4 {
			return 0, errors.Errorf("padding %v must be [top, bottom, left, right]", node.Padding)
		}
		attrs.Padding = tensor.Padding{Top: node.Padding[0], Bottom: node.Padding[1], Left: node.Padding[2],
			Right: node.Padding[3]}
	}
	if node.Winograd {
		attrs.Algorithm = graph.MceAlgorithmWinograd
	}
	attrs.Weights.Quantization = quantizationOf(node.WeightsQuantization)
	attrs.Weights.Data = randomBytes(attrs.Weights.Shape.NumElements(), node.Seed)
	outChannels := graph.MceOutputShape(in.Shape, attrs).Channels()
	attrs.Bias = make([]int32, outChannels)
	return b.g.AddMce(node.Name, inputs[0], attrs, quant), nil
}
