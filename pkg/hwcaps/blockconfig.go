// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package hwcaps

import (
	"fmt"
)

// BlockConfig is the size of the block of output elements the MCE computes at once (and the PLE
// post-processes at once).
type BlockConfig struct {
	Width, Height uint32
}

// String returns "WxH", e.g. "16x8".
func (b BlockConfig) String() string {
	return fmt.Sprintf("%dx%d", b.Width, b.Height)
}

// IsZero returns whether the block config is unset.
func (b BlockConfig) IsZero() bool {
	return b.Width == 0 && b.Height == 0
}

// Less orders block configs by width then height.
func (b BlockConfig) Less(other BlockConfig) bool {
	if b.Width != other.Width {
		return b.Width < other.Width
	}
	return b.Height < other.Height
}

// AllBlockConfigs supported by the hardware, in order of preference.
func AllBlockConfigs() []BlockConfig {
	return []BlockConfig{{16, 16}, {16, 8}, {8, 16}, {8, 8}, {32, 8}, {8, 32}}
}
