// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package combiner

import (
	"context"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/gomlx/npucascade/pkg/core/tensor"
	"github.com/gomlx/npucascade/pkg/hwcaps"
	"github.com/gomlx/npucascade/pkg/opgraph"
	"github.com/gomlx/npucascade/pkg/parts"
)

// bufferKey holds the properties of a previous buffer that the generation of plans depends on.
type bufferKey struct {
	valid       bool
	location    opgraph.Location
	format      opgraph.BufferFormat
	order       opgraph.TraversalOrder
	dataType    tensor.DataType
	tensorShape tensor.Shape
	stripeShape tensor.Shape
	numStripes  uint32
	sizeInBytes uint32
	boundary    opgraph.PackedBoundaryThickness
}

func newBufferKey(b *opgraph.Buffer) bufferKey {
	if b == nil {
		return bufferKey{}
	}
	return bufferKey{
		valid:       true,
		location:    b.Location,
		format:      b.Format,
		order:       b.Order,
		dataType:    b.DataType,
		tensorShape: b.TensorShape,
		stripeShape: b.StripeShape,
		numStripes:  b.NumStripes,
		sizeInBytes: b.SizeInBytes,
		boundary:    b.PackedBoundaryThickness,
	}
}

type planCacheKey struct {
	part             parts.PartID
	cascadeType      opgraph.CascadeType
	blockConfig      hwcaps.BlockConfig
	prevBuffer       bufferKey
	numWeightStripes uint32
}

// planCache memoizes Part.GetPlans. It is safe for concurrent use.
type planCache struct {
	mu      sync.Mutex
	entries map[planCacheKey][]*parts.Plan
	hits    int
}

func newPlanCache() *planCache {
	return &planCache{entries: make(map[planCacheKey][]*parts.Plan)}
}

// GetPlansCached returns the plans of the part, generating them only the first time they are requested
// with the same arguments. Two previous buffers with the same properties are the same for this purpose.
func (c *Combiner) GetPlansCached(part parts.Part, cascadeType opgraph.CascadeType, blockConfig hwcaps.BlockConfig,
	prevBuffer *opgraph.Buffer, numWeightStripes uint32) []*parts.Plan {
	key := planCacheKey{
		part:             part.ID(),
		cascadeType:      cascadeType,
		blockConfig:      blockConfig,
		prevBuffer:       newBufferKey(prevBuffer),
		numWeightStripes: numWeightStripes,
	}
	cache := c.plans
	cache.mu.Lock()
	if plans, found := cache.entries[key]; found {
		cache.hits++
		cache.mu.Unlock()
		return plans
	}
	cache.mu.Unlock()

	plans := part.GetPlans(cascadeType, blockConfig, prevBuffer, numWeightStripes)
	if klog.V(2).Enabled() {
		klog.Infof("%s: %d %s plans", part.DebugTag(), len(plans), cascadeType)
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()
	if existing, found := cache.entries[key]; found {
		// Generated concurrently by someone else: keep the first one.
		return existing
	}
	cache.entries[key] = plans
	return plans
}

// PrecomputePlans generates the plans that don't depend on a previous plan, Lonely and Beginning, for all
// parts, using up to Compilation.MaxParallelism goroutines. The search later finds them in the cache.
func (c *Combiner) PrecomputePlans(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.config.Compilation.MaxParallelism, 1))
	for _, part := range c.graph.Parts() {
		for _, cascadeType := range []opgraph.CascadeType{opgraph.CascadeTypeLonely, opgraph.CascadeTypeBeginning} {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				err := exceptions.TryCatch[error](func() {
					c.GetPlansCached(part, cascadeType, hwcaps.BlockConfig{}, nil, 0)
				})
				return errors.WithMessagef(err, "generating %s plans for %s", cascadeType, part.DebugTag())
			})
		}
	}
	return g.Wait()
}
