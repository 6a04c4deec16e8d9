// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package parts

import (
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/graph"
	"github.com/gomlx/npucascade/pkg/opgraph"
)

// WeightEncodingParams identify one encoding of the weights of an MCE operation.
type WeightEncodingParams struct {
	// Owner identifies the weights: the same owner must always pass the same Weights and Bias.
	Owner string

	Weights graph.WeightsInfo
	Bias    []int32

	// StripeDepth is the number of output channels of each weight stripe, and IterationSize the number of
	// input channels, which is smaller than the weights' input channels when the input depth is split.
	StripeDepth   uint32
	IterationSize uint32

	Operation graph.MceOperation
	Algorithm graph.MceAlgorithm
}

func (p *WeightEncodingParams) key() string {
	return fmt.Sprintf("%s/%d/%d/%s/%s", p.Owner, p.StripeDepth, p.IterationSize, p.Operation, p.Algorithm)
}

// WeightEncoderCache encodes weights once per set of parameters. It is safe for concurrent use, so plans
// of different parts can be generated in parallel.
//
// The actual compression codec is outside of the compiler: the encoding here lays out the weights of each
// stripe followed by its bias, which gives sizes in the right order of magnitude for the estimations.
type WeightEncoderCache struct {
	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]*opgraph.EncodedWeights
}

// NewWeightEncoderCache returns an empty cache.
func NewWeightEncoderCache() *WeightEncoderCache {
	return &WeightEncoderCache{entries: make(map[string]*opgraph.EncodedWeights)}
}

// Len returns the number of cached encodings.
func (c *WeightEncoderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Encode returns the encoded weights for the parameters, encoding them if not yet cached.
// The returned value is shared and must not be modified.
func (c *WeightEncoderCache) Encode(params *WeightEncodingParams) *opgraph.EncodedWeights {
	if c == nil {
		return EncodeWeights(params)
	}
	key := params.key()
	c.mu.Lock()
	encoded, found := c.entries[key]
	c.mu.Unlock()
	if found {
		return encoded
	}
	v, _, _ := c.group.Do(key, func() (any, error) {
		encoded := EncodeWeights(params)
		c.mu.Lock()
		c.entries[key] = encoded
		c.mu.Unlock()
		return encoded, nil
	})
	return v.(*opgraph.EncodedWeights)
}

// biasSize is the size of the encoded bias of one output channel.
const biasSize = 4

// EncodeWeights splits the weights in stripes of StripeDepth output channels and IterationSize input
// channels, in that nesting order.
//
// Weights are HWIO (or HWIM for depthwise convolutions, whose output channels are the flattened I and M
// axes). Missing weight data is encoded as the zero point.
func EncodeWeights(params *WeightEncodingParams) *opgraph.EncodedWeights {
	shape := params.Weights.Shape
	spatial := shape[0] * shape[1]
	var numInputs, numOutputs uint32
	switch params.Weights.Format {
	case graph.WeightsFormatHWIO:
		numInputs, numOutputs = shape[2], shape[3]
	case graph.WeightsFormatHWIM:
		numInputs, numOutputs = 1, shape[2]*shape[3]
	}
	stripeDepth := max(1, min(params.StripeDepth, numOutputs))
	iterationSize := numInputs
	if params.Weights.Format == graph.WeightsFormatHWIO && params.IterationSize > 0 {
		iterationSize = min(params.IterationSize, numInputs)
	}
	iterationSize = max(iterationSize, 1)
	zeroPoint := byte(params.Weights.Quantization.ZeroPoint)
	weightAt := func(s, i, o uint32) byte {
		idx := (uint64(s)*uint64(numInputs)+uint64(i))*uint64(numOutputs) + uint64(o)
		if idx < uint64(len(params.Weights.Data)) {
			return params.Weights.Data[idx]
		}
		return zeroPoint
	}

	encoded := &opgraph.EncodedWeights{}
	for oStart := uint32(0); oStart < numOutputs; oStart += stripeDepth {
		oEnd := min(oStart+stripeDepth, numOutputs)
		for iStart := uint32(0); iStart < numInputs; iStart += iterationSize {
			iEnd := min(iStart+iterationSize, numInputs)
			offset := uint32(len(encoded.Data))
			for o := oStart; o < oEnd; o++ {
				var bias [biasSize]byte
				if int(o) < len(params.Bias) {
					binary.LittleEndian.PutUint32(bias[:], uint32(params.Bias[o]))
				}
				encoded.Data = append(encoded.Data, bias[:]...)
				for s := range spatial {
					for i := iStart; i < iEnd; i++ {
						encoded.Data = append(encoded.Data, weightAt(s, i, o))
					}
				}
			}
			// Stripes are aligned to 16 bytes for the DMA.
			for len(encoded.Data)%16 != 0 {
				encoded.Data = append(encoded.Data, 0)
			}
			size := uint32(len(encoded.Data)) - offset
			encoded.Metadata = append(encoded.Metadata, opgraph.WeightStripeMetadata{Offset: offset, Size: size})
			encoded.MaxSize = max(encoded.MaxSize, size)
		}
	}
	return encoded
}

// identityWeights returns the weights of a 1x1 depthwise convolution that leaves numChannels channels
// unchanged: all weights are 2 with a scale of 0.5.
func identityWeights(numChannels uint32) (graph.WeightsInfo, []int32) {
	data := make([]byte, numChannels)
	for ii := range data {
		data[ii] = 2
	}
	weights := graph.WeightsInfo{
		Shape:        tensor.Shape{1, 1, numChannels, 1},
		Format:       graph.WeightsFormatHWIM,
		Quantization: tensor.QuantizationInfo{ZeroPoint: 0, Scale: 0.5},
		Data:         data,
	}
	return weights, make([]int32, numChannels)
}
