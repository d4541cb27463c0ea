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

package sink

import (
	"time"

	"github.com/cockroachdb/journal-sink/internal/target/quarantine"
	"github.com/cockroachdb/journal-sink/internal/target/writer"
	"github.com/cockroachdb/journal-sink/internal/util/retry"
	"github.com/cockroachdb/journal-sink/internal/validate"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

const (
	defaultBatchSize   = 3000
	defaultMaxLifetime = 10 * time.Minute
	defaultMaxPoolSize = 16
)

// Config contains the user-visible configuration for writing inbound
// batches to the target database.
type Config struct {
	Quarantine quarantine.Config
	Retry      retry.Config
	Validate   validate.Config
	Writer     writer.Config

	// The number of events to accumulate before a batch is applied.
	BatchSize int
	// Connection string for the target database.
	TargetConn string
	// The maximum lifetime of a pooled connection.
	TargetMaxLifetime time.Duration
	// The maximum number of connections to the target database.
	TargetMaxPoolSize int
	// Retry the initial connection until the target is ready.
	TargetWaitForStartup bool
}

// Bind adds flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	c.Quarantine.Bind(f)
	c.Retry.Bind(f)
	c.Validate.Bind(f)
	c.Writer.Bind(f)

	f.IntVar(&c.BatchSize, "batchSize", defaultBatchSize,
		"the maximum number of events to apply in a single transaction")
	f.StringVar(&c.TargetConn, "targetConn", "",
		"the target database's connection string; "+
			"one of mysql://, postgres://, or sqlite: URLs")
	f.DurationVar(&c.TargetMaxLifetime, "targetMaxLifetime", defaultMaxLifetime,
		"the maximum lifetime of a target database connection")
	f.IntVar(&c.TargetMaxPoolSize, "targetMaxPoolSize", defaultMaxPoolSize,
		"the maximum number of target database connections")
	f.BoolVar(&c.TargetWaitForStartup, "targetWaitForStartup", false,
		"retry the initial target connection until the database is ready")
}

// Preflight ensures that unset configuration options have sane defaults
// and returns an error if the Config is missing any fields for which a
// default cannot be provided.
func (c *Config) Preflight() error {
	if err := c.Writer.Preflight(); err != nil {
		return err
	}
	// The quarantine table follows the writer's autoCreate flag.
	c.Quarantine.AutoCreate = c.Writer.AutoCreate
	if err := c.Quarantine.Preflight(); err != nil {
		return err
	}
	if err := c.Retry.Preflight(); err != nil {
		return err
	}
	if err := c.Validate.Preflight(); err != nil {
		return err
	}

	if c.TargetConn == "" {
		return errors.New("targetConn must be set")
	}
	if c.BatchSize == 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.BatchSize < 0 {
		return errors.New("batchSize must be positive")
	}
	if c.TargetMaxLifetime == 0 {
		c.TargetMaxLifetime = defaultMaxLifetime
	}
	if c.TargetMaxPoolSize == 0 {
		c.TargetMaxPoolSize = defaultMaxPoolSize
	}
	if c.TargetMaxPoolSize < 0 {
		return errors.New("targetMaxPoolSize must be positive")
	}
	return nil
}
