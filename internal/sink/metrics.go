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

package sink

import (
	"github.com/cockroachdb/journal-sink/internal/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchDurations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sink_batch_duration_seconds",
		Help:    "the length of time it took to apply a batch of events",
		Buckets: metrics.LatencyBuckets,
	})
	batchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sink_batch_failures_total",
		Help: "the number of batches that were rolled back",
	}, metrics.CauseLabels)
	batchRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sink_rejected_events_total",
		Help: "the number of events routed to the quarantine table",
	}, metrics.CauseLabels)
	batchSizes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sink_batch_size",
		Help:    "the number of events contained in an applied batch",
		Buckets: metrics.BatchSizeBuckets,
	})
	batchSuccesses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sink_batch_success_total",
		Help: "the number of batches that were committed",
	})
)
