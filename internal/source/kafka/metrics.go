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

package kafka

import (
	"github.com/cockroachdb/journal-sink/internal/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_batches_applied_total",
		Help: "the number of batches of messages committed to the target",
	}, metrics.TopicLabels)
	batchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_batch_failures_total",
		Help: "the number of batches that could not be applied after retrying",
	}, metrics.TopicLabels)
	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_messages_received_total",
		Help: "the total number of messages received from the source",
	}, metrics.TopicLabels)
)
