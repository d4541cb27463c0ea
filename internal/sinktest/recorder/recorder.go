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

// Package recorder contains a TargetQuerier implementation that records
// the SQL it sees.
package recorder

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/cockroachdb/journal-sink/internal/types"
)

// Call retains a single statement passed to the querier.
type Call struct {
	Method string // Exec, Prepare, or Query.
	SQL    string
}

// Recorder implements [types.TargetQuerier], recording its inputs
// before delegating to Next. This type is safe for concurrent access.
type Recorder struct {
	Next types.TargetQuerier
	// If non-nil, Fail is consulted before each call and may inject an
	// error.
	Fail func(method, query string) error

	mu struct {
		sync.Mutex
		calls []Call
	}
}

var _ types.TargetQuerier = (*Recorder)(nil)

// ExecContext implements [types.TargetQuerier].
func (r *Recorder) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := r.record("Exec", query); err != nil {
		return nil, err
	}
	return r.Next.ExecContext(ctx, query, args...)
}

// PrepareContext implements [types.TargetQuerier].
func (r *Recorder) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	if err := r.record("Prepare", query); err != nil {
		return nil, err
	}
	return r.Next.PrepareContext(ctx, query)
}

// QueryContext implements [types.TargetQuerier].
func (r *Recorder) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if err := r.record("Query", query); err != nil {
		return nil, err
	}
	return r.Next.QueryContext(ctx, query, args...)
}

func (r *Recorder) record(method, query string) error {
	if r.Fail != nil {
		if err := r.Fail(method, query); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mu.calls = append(r.mu.calls, Call{Method: method, SQL: query})
	return nil
}

// Calls returns a copy of the recording.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	ret := make([]Call, len(r.mu.calls))
	copy(ret, r.mu.calls)
	return ret
}

// Statements returns the SQL of the recorded calls with the given
// method, in order.
func (r *Recorder) Statements(method string) []string {
	var ret []string
	for _, call := range r.Calls() {
		if call.Method == method {
			ret = append(ret, call.SQL)
		}
	}
	return ret
}

// Matching returns the SQL of recorded calls that start with the
// given prefix, ignoring case.
func (r *Recorder) Matching(prefix string) []string {
	var ret []string
	for _, call := range r.Calls() {
		if strings.HasPrefix(strings.ToUpper(call.SQL), strings.ToUpper(prefix)) {
			ret = append(ret, call.SQL)
		}
	}
	return ret
}

// Reset discards the recording.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mu.calls = nil
}
