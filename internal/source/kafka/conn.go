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
	"time"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Conn encapsulates all wire-connection behavior. It joins the
// consumer group and delivers the claimed partitions to a Handler.
type Conn struct {
	// The connector configuration.
	config *Config
	// The consumer group client.
	group sarama.ConsumerGroup
	// The handler that processes the events.
	handler sarama.ConsumerGroupHandler
}

// Start connects to the Kafka cluster and processes events from the
// configured topics until the context is stopped. If more than one
// process is started, the partitions within the topics are allocated
// to each process based on the chosen rebalance strategy. The Config
// must have been preflighted.
func Start(ctx *stopper.Context, config *Config, sink Putter) (*Conn, error) {
	group, err := sarama.NewConsumerGroup(config.Brokers, config.Group, config.saramaConfig)
	if err != nil {
		return nil, errors.Wrap(err, "error creating consumer group client")
	}
	c := &Conn{
		config:  config,
		group:   group,
		handler: NewHandler(config, sink),
	}

	// Start a process to copy data to the target.
	ctx.Go(func(ctx *stopper.Context) error {
		defer func() { _ = c.group.Close() }()
		for !ctx.IsStopping() {
			if err := c.copyMessages(ctx); err != nil {
				log.WithError(err).Warn("error while copying messages; will retry")
				select {
				case <-ctx.Stopping():
				case <-time.After(time.Second):
				}
			}
		}
		return nil
	})

	// Surface asynchronous consumer errors.
	ctx.Go(func(ctx *stopper.Context) error {
		for {
			select {
			case <-ctx.Stopping():
				return nil
			case err, ok := <-c.group.Errors():
				if !ok {
					return nil
				}
				log.WithError(err).Warn("kafka consumer error")
			}
		}
	})

	log.WithFields(log.Fields{
		"brokers": config.Brokers,
		"group":   config.Group,
		"topics":  config.Topics,
	}).Info("kafka consumer started")
	return c, nil
}

// copyMessages is the main replication loop. It will join the consumer
// group, accumulate messages, and commit data to the target.
func (c *Conn) copyMessages(ctx *stopper.Context) error {
	return c.group.Consume(ctx, c.config.Topics, c.handler)
}
