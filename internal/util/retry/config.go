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

package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// Defaults for the batch retry flags.
const (
	DefaultMaxRetries = 10
	DefaultBackoff    = 3 * time.Second
)

// Config controls how often a failed batch is redelivered.
type Config struct {
	// The number of times a failed batch is retried before giving up.
	// Zero disables retries.
	MaxRetries int
	// The delay between attempts.
	Backoff time.Duration
}

// Bind adds flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	f.IntVar(&c.MaxRetries, "maxRetries", DefaultMaxRetries,
		"the number of times a failed batch is retried before the process exits")
	f.DurationVar(&c.Backoff, "retryBackoff", DefaultBackoff,
		"the delay between attempts to apply a failed batch")
}

// Preflight ensures that the configuration is usable.
func (c *Config) Preflight() error {
	if c.MaxRetries < 0 {
		return errors.New("maxRetries must be >= 0")
	}
	if c.Backoff < 0 {
		return errors.New("retryBackoff must be >= 0")
	}
	return nil
}

// Policy returns a backoff policy that waits a constant interval
// between attempts and gives up after MaxRetries retries or when the
// context is canceled.
func (c *Config) Policy(ctx context.Context) backoff.BackOff {
	var policy backoff.BackOff = backoff.NewConstantBackOff(c.Backoff)
	policy = backoff.WithMaxRetries(policy, uint64(c.MaxRetries))
	return backoff.WithContext(policy, ctx)
}

// Do invokes the callback until it succeeds, the policy is exhausted,
// or the callback returns an error wrapped by [backoff.Permanent].
func (c *Config) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			return fn(ctx)
		},
		c.Policy(ctx),
		func(err error, delay time.Duration) {
			batchRetries.Inc()
			log.WithError(err).WithFields(log.Fields{
				"attempt": attempt,
				"delay":   delay,
			}).Warn("retrying failed batch")
		})
}
