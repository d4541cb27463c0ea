// Copyright 2026 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package metrics contains some common utility functions for
// constructing performance-monitoring metrics.
package metrics

import (
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/journal-sink/internal/types"
)

const (
	causeLabel     = "cause"
	operationLabel = "op"
	tableLabel     = "table"
	topicLabel     = "topic"
)

var (
	// LatencyBuckets is a default collection of histogram buckets
	// for latency metrics. The values in this slice assume that the
	// metric's base units are measured in seconds.
	LatencyBuckets = Buckets(time.Millisecond.Seconds(), time.Minute.Seconds())
	// BatchSizeBuckets are used for metrics that count events.
	BatchSizeBuckets = Buckets(1, 100_000)
	// CauseLabels are applied to metrics that classify failures.
	CauseLabels = []string{causeLabel}
	// OperationLabels are applied to per-table, per-operation metrics.
	OperationLabels = []string{tableLabel, operationLabel}
	// TableLabels are the labels to be applied to table-specific,
	// vector metrics.
	TableLabels = []string{tableLabel}
	// TopicLabels are applied to source-specific metrics.
	TopicLabels = []string{topicLabel}
)

// Buckets computes a linear log10 sequence of buckets, starting
// from the base unit, up to the specified maximum.
func Buckets(base, max float64) []float64 {
	var ret []float64
	for {
		for i := 0; i < 9; i++ {
			// next = i*base + base
			next := math.FMA(float64(i), base, base)
			if next > max {
				return ret
			}
			// Round to three decimal places to avoid awkward mantissas.
			next = math.Round(next*1000) / 1000
			ret = append(ret, next)
		}
		base *= 10
	}
}

// OperationValues returns the values to plug into a vector metric
// that expects OperationLabels.
func OperationValues(table string, op types.Operation) []string {
	return []string{table, op.String()}
}

// TableValues returns the values to plug into a vector metric that
// expects TableLabels.
func TableValues(table string) []string {
	return []string{table}
}

// maxCauseLength bounds the length of a cause label.
const maxCauseLength = 64

// CauseValue reduces a free-form failure description to a label value
// for metrics that expect CauseLabels. Anything following the first
// colon is discarded to keep the cardinality low.
func CauseValue(reason string) string {
	if idx := strings.IndexByte(reason, ':'); idx >= 0 {
		reason = reason[:idx]
	}
	reason = strings.TrimSuffix(strings.TrimSpace(reason), ".")
	if runes := []rune(reason); len(runes) > maxCauseLength {
		reason = string(runes[:maxCauseLength])
	}
	return reason
}
