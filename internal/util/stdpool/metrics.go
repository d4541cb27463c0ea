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

package stdpool

import (
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/cockroachdb/journal-sink/internal/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hostLabels    = []string{"host"}
	productLabels = []string{"product"}

	poolAcquireCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_acquire_wait_count",
		Help: "the total number of times we waited for a connection from the pool",
	}, productLabels)
	poolAcquireDelay = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_acquire_wait_seconds",
		Help: "the total amount of time spent waiting for connection acquisition",
	}, productLabels)
	poolAcquiredCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pool_acquired_connection_count",
		Help: "the number of in-use database connections",
	}, productLabels)
	poolIdleCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pool_idle_connection_count",
		Help: "the number of idle database connections",
	}, productLabels)
	poolMaxCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pool_max_connection_count",
		Help: "the maximum number of connections in the pool",
	}, productLabels)
	poolDialErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_dial_error_count",
		Help: "the number of times a network connection could not be established",
	}, hostLabels)
	poolDialLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pool_dial_latency_seconds",
		Help:    "the number of seconds required to create a TCP connection to the database",
		Buckets: metrics.LatencyBuckets,
	}, hostLabels)
	poolDialSuccesses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_dial_success_count",
		Help: "the number of times a network connection was created to the database",
	}, hostLabels)
)

// publishMetrics updates the pool gauges at 1 QPS until the context
// is stopped.
func publishMetrics(ctx *stopper.Context, pool *types.TargetPool) {
	labels := prometheus.Labels{"product": pool.Product.String()}
	acquireCount := poolAcquireCount.With(labels)
	acquireDelay := poolAcquireDelay.With(labels)
	acquiredCount := poolAcquiredCount.With(labels)
	idleCount := poolIdleCount.With(labels)
	maxCount := poolMaxCount.With(labels)

	// These metrics are reported to us as counters, so we need to
	// compute the deltas to pass them into the API.
	var prevWaitCount int64
	var prevWaitDuration time.Duration

	for {
		stat := pool.Stats()

		acquireCount.Add(float64(stat.WaitCount - prevWaitCount))
		prevWaitCount = stat.WaitCount

		acquireDelay.Add((stat.WaitDuration - prevWaitDuration).Seconds())
		prevWaitDuration = stat.WaitDuration

		acquiredCount.Set(float64(stat.InUse))
		idleCount.Set(float64(stat.Idle))
		maxCount.Set(float64(stat.MaxOpenConnections))

		select {
		case <-ctx.Stopping():
			return
		case <-time.After(time.Second):
		}
	}
}
