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

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachdb/journal-sink/internal/sink"
	"github.com/cockroachdb/journal-sink/internal/util/diag"
)

// Provide opens the target database, prepares the sink, and starts
// consuming. Everything is shut down when the context is stopped.
func Provide(ctx *stopper.Context, config *Config) (*Kafka, error) {
	if err := config.Preflight(); err != nil {
		return nil, err
	}
	pool, err := sink.OpenTarget(ctx, &config.Sink)
	if err != nil {
		return nil, err
	}
	s, err := sink.New(ctx, &config.Sink, pool)
	if err != nil {
		return nil, err
	}
	diags := diag.New(ctx)
	if err := diags.Register("sink", s); err != nil {
		return nil, err
	}
	if err := diags.Register("kafka", diag.DiagnosticFn(func(context.Context) any {
		return config.Diagnostic()
	})); err != nil {
		return nil, err
	}
	conn, err := Start(ctx, config, s)
	if err != nil {
		return nil, err
	}
	return &Kafka{Conn: conn, Diagnostics: diags, Sink: s}, nil
}
