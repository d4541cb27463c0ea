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
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/cockroachdb/journal-sink/internal/util/retry"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Putter is the destination for batches of events.
type Putter interface {
	Put(ctx context.Context, events []*types.Event) error
}

// Handler represents a Sarama consumer group consumer. Each claim
// accumulates events into batches that are applied sequentially, and
// offsets are marked only once a batch has been committed.
type Handler struct {
	batchSize     int
	flushInterval time.Duration
	retry         *retry.Config
	sink          Putter
}

var _ sarama.ConsumerGroupHandler = (*Handler)(nil)

// NewHandler constructs a Handler that delivers batches to the sink.
func NewHandler(cfg *Config, sink Putter) *Handler {
	return &Handler{
		batchSize:     cfg.Sink.BatchSize,
		flushInterval: cfg.FlushInterval,
		retry:         &cfg.Sink.Retry,
		sink:          sink,
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (h *Handler) Setup(session sarama.ConsumerGroupSession) error {
	log.WithField("claims", session.Claims()).Info("consumer group session started")
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim
// goroutines have exited.
func (h *Handler) Cleanup(session sarama.ConsumerGroupSession) error {
	if err := session.Context().Err(); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("session terminated with an error")
		return err
	}
	return nil
}

// ConsumeClaim processes new messages for the topic/partition specified
// in the claim.
func (h *Handler) ConsumeClaim(
	session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim,
) error {
	log.WithFields(log.Fields{
		"topic":     claim.Topic(),
		"partition": claim.Partition(),
		"offset":    claim.InitialOffset(),
	}).Debug("consuming claim")

	ctx := session.Context()
	received := messagesReceived.WithLabelValues(claim.Topic())
	batch := make([]*types.Event, 0, h.batchSize)
	var last *sarama.ConsumerMessage

	// flush applies the pending batch and then marks the last message
	// of the batch as consumed.
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := h.apply(ctx, claim.Topic(), batch); err != nil {
			return err
		}
		session.MarkMessage(last, "")
		batch = make([]*types.Event, 0, h.batchSize)
		return nil
	}

	ticker := time.NewTicker(h.flushInterval)
	defer ticker.Stop()

	// Do not move the code below to a goroutine. ConsumeClaim is
	// already called within a goroutine per claim.
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				log.WithFields(log.Fields{
					"topic":     claim.Topic(),
					"partition": claim.Partition(),
				}).Debug("message channel was closed")
				return flush()
			}
			received.Inc()
			batch = append(batch, decode(msg))
			last = msg
			if len(batch) >= h.batchSize {
				if err := flush(); err != nil {
					return err
				}
			}

		// Must return when the session is done, otherwise a rebalance
		// will stall.
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			if err := flush(); err != nil {
				return err
			}
		}
	}
}

// apply delivers the batch to the sink, retrying failures according
// to the configured policy.
func (h *Handler) apply(ctx context.Context, topic string, batch []*types.Event) error {
	start := time.Now()
	err := h.retry.Do(ctx, func(ctx context.Context) error {
		err := h.sink.Put(ctx, batch)
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	})
	if err != nil {
		batchFailures.WithLabelValues(topic).Inc()
		return errors.Wrapf(err, "could not apply batch of %d events from %s", len(batch), topic)
	}
	batchesApplied.WithLabelValues(topic).Inc()
	log.WithFields(log.Fields{
		"duration": time.Since(start),
		"events":   len(batch),
		"topic":    topic,
	}).Trace("flushed batch")
	return nil
}

// isPermanent returns true if the error was caused by a database error
// that will not succeed if the batch is retried, e.g. a constraint
// violation.
func isPermanent(err error) bool {
	code, transient := retry.Classify(err)
	return !transient && code != retry.UnknownCode
}
