// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"time"
)

// FormatDuration pretty prints duration without a long list of decimal points: it is rounded to
// keep 3 significant digits.
func FormatDuration(d time.Duration) string {
	precision := time.Duration(1)
	for limit := 1000 * time.Nanosecond; d >= limit && precision < time.Second; limit *= 10 {
		precision *= 10
	}
	return d.Round(precision).String()
}
