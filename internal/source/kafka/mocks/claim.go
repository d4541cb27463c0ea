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

package mocks

import "github.com/IBM/sarama"

// Claim implements sarama.ConsumerGroupClaim over a buffered channel.
type Claim struct {
	topic     string
	partition int32
	messages  chan *sarama.ConsumerMessage
}

var _ sarama.ConsumerGroupClaim = (*Claim)(nil)

// NewClaim returns a claim that can buffer up to capacity messages.
func NewClaim(topic string, partition int32, capacity int) *Claim {
	return &Claim{
		topic:     topic,
		partition: partition,
		messages:  make(chan *sarama.ConsumerMessage, capacity),
	}
}

// Send enqueues a message on the claim's topic and partition.
func (c *Claim) Send(msg *sarama.ConsumerMessage) {
	msg.Topic = c.topic
	msg.Partition = c.partition
	c.messages <- msg
}

// Close closes the message channel, as happens during a rebalance.
func (c *Claim) Close() { close(c.messages) }

// Topic implements sarama.ConsumerGroupClaim.
func (c *Claim) Topic() string { return c.topic }

// Partition implements sarama.ConsumerGroupClaim.
func (c *Claim) Partition() int32 { return c.partition }

// InitialOffset implements sarama.ConsumerGroupClaim.
func (c *Claim) InitialOffset() int64 { return 0 }

// HighWaterMarkOffset implements sarama.ConsumerGroupClaim.
func (c *Claim) HighWaterMarkOffset() int64 { return int64(len(c.messages)) }

// Messages implements sarama.ConsumerGroupClaim.
func (c *Claim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }
