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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/journal-sink/internal/source/kafka/mocks"
	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/cockroachdb/journal-sink/internal/util/retry"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSink records the batches it receives. Calls fail while fail
// returns an error.
type fakeSink struct {
	fail func(call int) error

	mu struct {
		sync.Mutex
		batches [][]*types.Event
		calls   int
	}
}

func (f *fakeSink) Put(_ context.Context, events []*types.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mu.calls++
	if f.fail != nil {
		if err := f.fail(f.mu.calls); err != nil {
			return err
		}
	}
	f.mu.batches = append(f.mu.batches, events)
	return nil
}

func (f *fakeSink) Batches() [][]*types.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]*types.Event(nil), f.mu.batches...)
}

func (f *fakeSink) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mu.calls
}

func newTestHandler(sink Putter, batchSize int, flush time.Duration) *Handler {
	cfg := &Config{FlushInterval: flush}
	cfg.Sink.BatchSize = batchSize
	cfg.Sink.Retry = retry.Config{MaxRetries: 1}
	return NewHandler(cfg, sink)
}

func message(offset int64) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{
		Offset: offset,
		Key:    []byte(fmt.Sprintf(`{"id": %d}`, offset)),
		Value:  []byte(fmt.Sprintf(`{"id": %d, "name": "row %d"}`, offset, offset)),
		Headers: []*sarama.RecordHeader{
			{Key: []byte("TableName"), Value: []byte("customers")},
			{Key: []byte("A_ENTTYP"), Value: []byte("PT")},
		},
	}
}

// TestConsumeBatches verifies that messages are grouped into batches
// of the configured size and that offsets are marked only after each
// batch has been applied.
func TestConsumeBatches(t *testing.T) {
	r := require.New(t)
	a := assert.New(t)

	sink := &fakeSink{}
	h := newTestHandler(sink, 2, time.Hour)
	session := mocks.NewSession(context.Background())
	claim := mocks.NewClaim("journal", 3, 8)
	for i := int64(10); i < 15; i++ {
		claim.Send(message(i))
	}
	claim.Close()

	r.NoError(h.ConsumeClaim(session, claim))

	batches := sink.Batches()
	r.Len(batches, 3)
	a.Len(batches[0], 2)
	a.Len(batches[1], 2)
	a.Len(batches[2], 1, "the partial batch is flushed when the claim closes")
	a.Equal([]int64{11, 13, 14}, session.Marked())

	ev := batches[0][1]
	a.Equal("journal", ev.Topic)
	a.Equal(int32(3), ev.Partition)
	a.Equal(int64(11), ev.Offset)
	table, ok := ev.HeaderString("TableName")
	a.True(ok)
	a.Equal("customers", table)
}

// TestConsumeFlushInterval verifies that a partial batch is applied
// once the flush interval elapses.
func TestConsumeFlushInterval(t *testing.T) {
	r := require.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &fakeSink{}
	h := newTestHandler(sink, 100, 10*time.Millisecond)
	session := mocks.NewSession(ctx)
	claim := mocks.NewClaim("journal", 0, 8)
	claim.Send(message(1))
	claim.Send(message(2))

	done := make(chan error, 1)
	go func() { done <- h.ConsumeClaim(session, claim) }()

	r.Eventually(func() bool {
		return len(session.Marked()) == 1
	}, 5*time.Second, 5*time.Millisecond)
	r.Equal([]int64{2}, session.Marked())
	r.Len(sink.Batches()[0], 2)

	cancel()
	select {
	case err := <-done:
		r.NoError(err)
	case <-time.After(5 * time.Second):
		r.Fail("ConsumeClaim did not exit")
	}
}

func TestConsumeStopsWithSession(t *testing.T) {
	r := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &fakeSink{}
	h := newTestHandler(sink, 10, time.Hour)
	session := mocks.NewSession(ctx)
	claim := mocks.NewClaim("journal", 0, 1)

	r.NoError(h.ConsumeClaim(session, claim))
	r.Zero(sink.Calls())
	r.Empty(session.Marked())
	r.NoError(h.Cleanup(session))
}

func TestConsumeRetries(t *testing.T) {
	tcs := []struct {
		name      string
		fail      func(call int) error
		wantCalls int
		wantErr   bool
	}{
		{
			name: "transient failure recovers",
			fail: func(call int) error {
				if call == 1 {
					return errors.New("connection reset")
				}
				return nil
			},
			wantCalls: 2,
		},
		{
			name:      "retries exhausted",
			fail:      func(int) error { return errors.New("connection reset") },
			wantCalls: 2,
			wantErr:   true,
		},
		{
			name: "lost connection is retried",
			fail: func(int) error {
				return &types.BatchError{
					Kind: types.FailureTransaction,
					Err:  &mysql.MySQLError{Number: 2013, Message: "lost connection"},
				}
			},
			wantCalls: 2,
			wantErr:   true,
		},
		{
			name: "constraint violation is permanent",
			fail: func(int) error {
				return &types.BatchError{
					Kind: types.FailureWrite,
					Err:  errors.WithStack(&mysql.MySQLError{Number: 1062, Message: "duplicate entry"}),
				}
			},
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)
			a := assert.New(t)

			sink := &fakeSink{fail: tc.fail}
			h := newTestHandler(sink, 1, time.Hour)
			session := mocks.NewSession(context.Background())
			claim := mocks.NewClaim("journal", 0, 1)
			claim.Send(message(7))
			claim.Close()

			err := h.ConsumeClaim(session, claim)
			a.Equal(tc.wantCalls, sink.Calls())
			if tc.wantErr {
				r.ErrorContains(err, "could not apply batch of 1 events from journal")
				a.Empty(session.Marked(), "failed batches must not be marked")
				return
			}
			r.NoError(err)
			a.Equal([]int64{7}, session.Marked())
		})
	}
}

func TestIsPermanent(t *testing.T) {
	a := assert.New(t)
	a.False(isPermanent(errors.New("plain")))
	a.False(isPermanent(&mysql.MySQLError{Number: 1213}))
	a.True(isPermanent(&mysql.MySQLError{Number: 1062}))
	a.True(isPermanent(&types.BatchError{
		Kind: types.FailureWrite,
		Err:  &mysql.MySQLError{Number: 1146},
	}))
}
