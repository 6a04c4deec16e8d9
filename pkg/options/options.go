// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package options holds the user facing configuration of a compilation: CompilationOptions,
// EstimationOptions and DebugInfo.
//
// They are plain values, created with the Default* functions, optionally modified with ParseSettings
// and threaded explicitly through the compiler.
package options

// EnvDebugStripeConfig is the environment variable naming a stripe configuration file used to override
// the stripe configuration of selected parts. It is read once per compilation.
const EnvDebugStripeConfig = "ETHOSN_SUPPORT_LIBRARY_DEBUG_STRIPE_CONFIG"

// DebugLevel controls how much is dumped when debug files are enabled.
type DebugLevel int

//go:generate go tool enumer -type=DebugLevel -trimprefix=DebugLevel -output=gen_debuglevel_enumer.go options.go

const (
	DebugLevelNone DebugLevel = iota
	DebugLevelMedium
	DebugLevelHigh
)

// DebugInfo configures the debug artifacts written during a compilation.
type DebugInfo struct {
	// DumpDebugFiles enables writing .dot files and the command stream XML into DebugDir.
	DumpDebugFiles bool
	DebugDir       string
	DebugLevel     DebugLevel
}

// CompilationOptions select what the compiler is allowed to try.
//
// The strategy toggles are kept from the older, non-cascading compiler. Disabling any of them restricts
// the stripe splits tried to the closest equivalents of the strategies left enabled.
type CompilationOptions struct {
	Strategy0 bool
	Strategy1 bool
	Strategy3 bool
	Strategy4 bool
	Strategy6 bool
	Strategy7 bool

	BlockConfig16x16 bool
	BlockConfig16x8  bool
	BlockConfig8x16  bool
	BlockConfig8x8   bool
	BlockConfig8x32  bool
	BlockConfig32x8  bool

	// MaxParallelism of the generation of plans before the search. If 0 plans are generated lazily
	// during the search, in a single goroutine.
	MaxParallelism int

	DebugInfo DebugInfo

	// DebugStripeConfigFile overrides the stripe configuration of selected parts. If empty,
	// the file named by EnvDebugStripeConfig is used, if set.
	DebugStripeConfigFile string
}

// DefaultCompilationOptions has all strategies and block configs enabled.
func DefaultCompilationOptions() CompilationOptions {
	return CompilationOptions{
		Strategy0: true, Strategy1: true, Strategy3: true, Strategy4: true, Strategy6: true, Strategy7: true,
		BlockConfig16x16: true, BlockConfig16x8: true, BlockConfig8x16: true, BlockConfig8x8: true,
		BlockConfig8x32: true, BlockConfig32x8: true,
	}
}

// AllStrategiesEnabled returns whether none of the legacy strategies was disabled.
func (o *CompilationOptions) AllStrategiesEnabled() bool {
	return o.Strategy0 && o.Strategy1 && o.Strategy3 && o.Strategy4 && o.Strategy6 && o.Strategy7
}

// EstimationOptions tune the performance estimation.
type EstimationOptions struct {
	// ActivationCompressionSaving is the expected ratio of DRAM traffic saved by compressing activations.
	ActivationCompressionSaving float64

	// UseWeightCompressionOverride replaces the measured weight compression by WeightCompressionSaving.
	UseWeightCompressionOverride bool
	WeightCompressionSaving      float64

	// Current makes the estimation model the current hardware, rather than a future one.
	Current bool
}

// DefaultEstimationOptions returns the estimation options used when compiling.
func DefaultEstimationOptions() EstimationOptions {
	return EstimationOptions{Current: true}
}
