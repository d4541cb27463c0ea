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

package stdpool

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// Option abstracts over driver-specific configuration.
type Option interface {
	option()
}

// These types are capability interfaces to receive objects that can be
// configured.
type (
	// attachable are all types on which attachOptions can operate.
	attachable interface {
		*sql.DB | *Controls
	}

	sqlDBOption interface {
		sqlDB(ctx context.Context, db *sql.DB) error
	}

	controlsOption interface {
		controls(ctx context.Context, c *Controls) error
	}
)

// Controls adjust the behavior of the pool while it is being opened.
type Controls struct {
	// Retry the initial connection until the database is ready.
	WaitForStartup bool
}

// WithWaitForStartup is an Option that retries the initial connection
// until the database accepts it or a timeout elapses. This is useful
// when the target is started alongside journal-sink.
func WithWaitForStartup() Option {
	return &withWaitForStartup{}
}

type withWaitForStartup struct{}

func (o *withWaitForStartup) option() {}
func (o *withWaitForStartup) controls(_ context.Context, c *Controls) error {
	c.WaitForStartup = true
	return nil
}

// attachOptions loops over the provided options to compose their
// functionality.
func attachOptions[T attachable](ctx context.Context, target T, options []Option) error {
	// Prepend reasonable defaults.
	options = append([]Option{
		&withConnectionLifetime{defaultMaxLifetime},
		&withPoolSize{defaultPoolSize},
	}, options...)

	switch t := any(target).(type) {
	case *sql.DB:
		for _, option := range options {
			if x, ok := option.(sqlDBOption); ok {
				if err := x.sqlDB(ctx, t); err != nil {
					return err
				}
			}
		}

	case *Controls:
		for _, option := range options {
			if x, ok := option.(controlsOption); ok {
				if err := x.controls(ctx, t); err != nil {
					return err
				}
			}
		}

	default:
		return errors.Errorf("unimplemented: %T", t)
	}

	return nil
}
