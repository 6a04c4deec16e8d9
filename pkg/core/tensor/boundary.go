// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensor

// NeedBoundary tells whether a stripe needs neighbouring (halo) data from the stripe before and/or after
// it along one axis.
type NeedBoundary struct {
	Before, After bool
}

// Any returns whether either side needs boundary data.
func (n NeedBoundary) Any() bool {
	return n.Before || n.After
}

// GetBoundaryRequirements returns which neighbouring data an MCE stripe needs along one axis.
//
// There is no boundary data if the kernel is 1 wide along the axis or if the input is not split along it.
// Otherwise the receptive field of an output stripe starts padBefore elements before its input stripe
// and ends kernelSize-1-padBefore elements after it.
func GetBoundaryRequirements(padBefore, ifmSize, ifmStripeSize, kernelSize uint32) NeedBoundary {
	if kernelSize <= 1 || ifmStripeSize >= ifmSize {
		return NeedBoundary{}
	}
	return NeedBoundary{
		Before: padBefore > 0,
		After:  kernelSize-1 > padBefore,
	}
}
