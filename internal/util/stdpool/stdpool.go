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

// Package stdpool creates standardized database connection pools.
package stdpool

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/cockroachdb/journal-sink/internal/util/retry"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	defaultMaxLifetime = 10 * time.Minute
	defaultPoolSize    = 16
	// startupTimeout bounds how long we wait for a target database to
	// accept connections when the WaitForStartup option is used.
	startupTimeout = 2 * time.Minute
)

// OpenTarget selects from target connector implementations based on the
// URL scheme contained in the connection string. The pool will be
// closed when the context is stopped.
func OpenTarget(
	ctx *stopper.Context, connectString string, options ...Option,
) (*types.TargetPool, error) {
	u, err := url.Parse(connectString)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse connection string")
	}

	switch strings.ToLower(u.Scheme) {
	case "mysql", "mariadb":
		return OpenMySQLAsTarget(ctx, connectString, u, options...)
	case "pg", "pgx", "postgres", "postgresql":
		return OpenPgxAsTarget(ctx, connectString, options...)
	case "sqlite", "sqlite3":
		return OpenSQLiteAsTarget(ctx, connectString, options...)
	default:
		return nil, errors.Errorf("unknown URL scheme: %s", u.Scheme)
	}
}

// finishTarget applies options, waits for the database to become
// available, and arranges for the pool to be closed when the context
// stops. The detect callback must populate the version and product.
func finishTarget(
	ctx *stopper.Context,
	ret *types.TargetPool,
	options []Option,
	detect func(context.Context, *types.TargetPool) error,
) error {
	var tc Controls
	if err := attachOptions(ctx, &tc, options); err != nil {
		return err
	}
	if err := attachOptions(ctx, ret.DB, options); err != nil {
		return err
	}

	ctx.Go(func(ctx *stopper.Context) error {
		<-ctx.Stopping()
		if err := ret.Close(); err != nil {
			log.WithError(errors.WithStack(err)).Warn("could not close database connection")
		}
		return nil
	})

	ping := func() error {
		err := retry.Retry(ctx, func(ctx context.Context) error {
			return detect(ctx, ret)
		})
		switch {
		case err == nil:
			return nil
		case tc.WaitForStartup && retry.IsTransient(err):
			log.WithError(err).Info("waiting for database to become ready")
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = startupTimeout
	var b backoff.BackOff = policy
	if !tc.WaitForStartup {
		b = &backoff.StopBackOff{}
	}
	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		return errors.Wrap(err, "could not determine database version")
	}

	ctx.Go(func(ctx *stopper.Context) error {
		publishMetrics(ctx, ret)
		return nil
	})

	log.WithFields(log.Fields{
		"product": ret.Product,
		"version": ret.Version,
	}).Info("connected to target database")
	return nil
}
