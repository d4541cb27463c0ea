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

package writer

import (
	"github.com/cockroachdb/journal-sink/internal/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	writeDDL = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "writer_ddl_total",
		Help: "the number of CREATE or ALTER statements executed against target tables",
	}, metrics.TableLabels)
	writeDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "writer_duration_seconds",
		Help:    "the length of time it took to write a batch of records to a table",
		Buckets: metrics.LatencyBuckets,
	}, metrics.TableLabels)
	writeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "writer_errors_total",
		Help: "the number of times an error was encountered while writing to a table",
	}, metrics.TableLabels)
	writeRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "writer_rows_total",
		Help: "the number of rows written, by the operation applied",
	}, metrics.OperationLabels)
	writeSkippedDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "writer_skipped_deletes_total",
		Help: "the number of deletes dropped because no key columns are configured",
	}, metrics.TableLabels)
	writeUnmappable = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "writer_unmappable_total",
		Help: "the number of records whose payload could not be mapped onto columns",
	}, metrics.TableLabels)
)
