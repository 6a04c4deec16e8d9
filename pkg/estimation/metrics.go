// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package estimation

import (
	"github.com/gomlx/exceptions"
)

// MetricType is one of the numbers used to compare estimations. Lower is better for all of them.
type MetricType int

//go:generate go tool enumer -type=MetricType -trimprefix=MetricType -output=gen_metrictype_enumer.go metrics.go

const (
	MetricTypeTotal MetricType = iota
	MetricTypeParallel
	MetricTypeNonParallel
	MetricTypePasses
)

// PerformanceComparisonResult tells which of two estimations is better.
type PerformanceComparisonResult int

//go:generate go tool enumer -type=PerformanceComparisonResult -trimprefix=PerformanceComparisonResult -output=gen_performancecomparisonresult_enumer.go metrics.go

const (
	PerformanceComparisonResultEqual PerformanceComparisonResult = iota
	PerformanceComparisonResultLeftBetter
	PerformanceComparisonResultRightBetter
)

// MetricOrder is the sequence of metrics compared by ComparePerformanceData: the first one that differs
// decides.
var MetricOrder = []MetricType{MetricTypeTotal, MetricTypeNonParallel, MetricTypePasses}

// GetPerformanceParallelDataMetric sums the DRAM bytes transferred while computing.
func GetPerformanceParallelDataMetric(data *NetworkPerformanceData) uint64 {
	var total uint64
	for _, pass := range data.Stream {
		s := &pass.Stats
		total += uint64(s.Input.Memory.DramParallel) + uint64(s.Output.Memory.DramParallel) +
			uint64(s.Weights.Memory.DramParallel)
	}
	return total
}

// GetPerformanceNonParallelDataMetric sums the DRAM bytes that stall the computation.
func GetPerformanceNonParallelDataMetric(data *NetworkPerformanceData) uint64 {
	var total uint64
	for _, pass := range data.Stream {
		s := &pass.Stats
		total += uint64(s.Input.Memory.DramNonParallel) + uint64(s.Output.Memory.DramNonParallel) +
			uint64(s.Weights.Memory.DramNonParallel)
	}
	return total
}

// GetPerformanceTotalDataMetric sums all the DRAM bytes transferred.
func GetPerformanceTotalDataMetric(data *NetworkPerformanceData) uint64 {
	return GetPerformanceParallelDataMetric(data) + GetPerformanceNonParallelDataMetric(data)
}

// GetPerformanceNumberOfPassesMetric is the number of passes.
func GetPerformanceNumberOfPassesMetric(data *NetworkPerformanceData) uint64 {
	return uint64(len(data.Stream))
}

// GetPerformanceMetric returns the value of the metric for the estimation.
func GetPerformanceMetric(data *NetworkPerformanceData, metric MetricType) uint64 {
	switch metric {
	case MetricTypeTotal:
		return GetPerformanceTotalDataMetric(data)
	case MetricTypeParallel:
		return GetPerformanceParallelDataMetric(data)
	case MetricTypeNonParallel:
		return GetPerformanceNonParallelDataMetric(data)
	case MetricTypePasses:
		return GetPerformanceNumberOfPassesMetric(data)
	default:
		exceptions.Panicf("metric type %s is not implemented", metric)
	}
	return 0
}

// GetPerformanceMetrics returns the values of the metrics in MetricOrder.
func GetPerformanceMetrics(data *NetworkPerformanceData) []uint64 {
	result := make([]uint64, len(MetricOrder))
	for ii, metric := range MetricOrder {
		result[ii] = GetPerformanceMetric(data, metric)
	}
	return result
}

// ComparePerformanceData compares the metrics of MetricOrder in sequence, and returns the result of the
// first one that differs.
func ComparePerformanceData(left, right *NetworkPerformanceData) PerformanceComparisonResult {
	for _, metric := range MetricOrder {
		l, r := GetPerformanceMetric(left, metric), GetPerformanceMetric(right, metric)
		if l < r {
			return PerformanceComparisonResultLeftBetter
		}
		if l > r {
			return PerformanceComparisonResultRightBetter
		}
	}
	return PerformanceComparisonResultEqual
}
