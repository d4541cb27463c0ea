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

// Package mocks implements a simple Kafka consumer group session and
// claim for testing purposes.
// Note: only the methods that are actively used for testing are implemented.
package mocks

import (
	"context"
	"sync"

	"github.com/IBM/sarama"
)

// Session implements sarama.ConsumerGroupSession, recording the
// messages that are marked as consumed.
type Session struct {
	ctx context.Context

	mu struct {
		sync.Mutex
		marked []*sarama.ConsumerMessage
	}
}

var _ sarama.ConsumerGroupSession = (*Session)(nil)

// NewSession returns a session bound to the context.
func NewSession(ctx context.Context) *Session {
	return &Session{ctx: ctx}
}

// Claims implements sarama.ConsumerGroupSession.
func (s *Session) Claims() map[string][]int32 { return nil }

// MemberID implements sarama.ConsumerGroupSession.
func (s *Session) MemberID() string { return "mock" }

// GenerationID implements sarama.ConsumerGroupSession.
func (s *Session) GenerationID() int32 { return 1 }

// MarkOffset implements sarama.ConsumerGroupSession.
func (s *Session) MarkOffset(topic string, partition int32, offset int64, metadata string) {
	s.MarkMessage(&sarama.ConsumerMessage{
		Topic:     topic,
		Partition: partition,
		Offset:    offset - 1,
	}, metadata)
}

// Commit implements sarama.ConsumerGroupSession.
func (s *Session) Commit() {}

// ResetOffset implements sarama.ConsumerGroupSession.
func (s *Session) ResetOffset(topic string, partition int32, offset int64, metadata string) {
	panic("unimplemented")
}

// MarkMessage implements sarama.ConsumerGroupSession.
func (s *Session) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mu.marked = append(s.mu.marked, msg)
}

// Context implements sarama.ConsumerGroupSession.
func (s *Session) Context() context.Context { return s.ctx }

// Marked returns the offsets of the marked messages, in order.
func (s *Session) Marked() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]int64, len(s.mu.marked))
	for i, msg := range s.mu.marked {
		ret[i] = msg.Offset
	}
	return ret
}
