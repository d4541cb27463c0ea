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

package quarantine

import (
	"github.com/cockroachdb/journal-sink/internal/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	quarantineDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quarantine_dropped_total",
		Help: "the number of rejected events that could not be serialized into the quarantine table",
	})
	quarantineRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quarantine_rows_total",
		Help: "the number of rejected events written to the quarantine table",
	}, metrics.CauseLabels)
)
