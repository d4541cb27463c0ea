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
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
)

// OpenPgxAsTarget uses pgx to open a database connection, returning it
// as a stdlib pool. Both PostgreSQL and CockroachDB are supported.
func OpenPgxAsTarget(
	ctx *stopper.Context, connectString string, options ...Option,
) (*types.TargetPool, error) {
	cfg, err := ParseConfig(connectString)
	if err != nil {
		return nil, err
	}

	ret := &types.TargetPool{
		DB: stdlib.OpenDB(*cfg),
		PoolInfo: types.PoolInfo{
			ConnectionString: connectString,
		},
	}

	if err := finishTarget(ctx, ret, options, detectPgx); err != nil {
		_ = ret.Close()
		return nil, err
	}
	return ret, nil
}

func detectPgx(ctx context.Context, ret *types.TargetPool) error {
	if err := ret.QueryRowContext(ctx, "SELECT version()").Scan(&ret.Version); err != nil {
		return errors.WithStack(err)
	}
	switch {
	case strings.HasPrefix(ret.Version, "CockroachDB"):
		ret.Product = types.ProductCockroachDB
	case strings.HasPrefix(ret.Version, "PostgreSQL"):
		ret.Product = types.ProductPostgreSQL
	default:
		return errors.Errorf("unknown product for version: %s", ret.Version)
	}
	return nil
}

// ParseConfig parses a pgx.ConnConfig with common defaults.
//   - application_name=journal-sink, if unset.
//   - success and latency metrics for creating connections
func ParseConfig(connectString string) (*pgx.ConnConfig, error) {
	// pgx only understands the canonical schemes.
	if scheme, rest, ok := strings.Cut(connectString, "://"); ok {
		switch strings.ToLower(scheme) {
		case "pg", "pgx":
			connectString = "postgres://" + rest
		}
	}

	cfg, err := pgx.ParseConfig(connectString)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse connection string")
	}
	// Identify traffic.
	if _, found := cfg.RuntimeParams["application_name"]; !found {
		cfg.RuntimeParams["application_name"] = "journal-sink"
	}

	// Measure how long it takes to create the network connection, to
	// distinguish network problems from database problems.
	var dialer = &net.Dialer{
		KeepAlive: 5 * time.Minute,
		Timeout:   10 * time.Second,
	}
	hName := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dialErrors := poolDialErrors.WithLabelValues(hName)
	dialLatency := poolDialLatency.WithLabelValues(hName)
	dialSuccesses := poolDialSuccesses.WithLabelValues(hName)
	cfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := dialer.DialContext(ctx, network, addr)
		if err == nil {
			dialSuccesses.Inc()
			dialLatency.Observe(time.Since(start).Seconds())
		} else {
			dialErrors.Inc()
		}
		return conn, err
	}
	return cfg, nil
}
