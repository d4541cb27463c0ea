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
	"strings"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // register driver
)

// OpenSQLiteAsTarget opens an embedded SQLite database. The connection
// string is sqlite: followed by a file name, a file: URI, or :memory:.
func OpenSQLiteAsTarget(
	ctx *stopper.Context, connectString string, options ...Option,
) (*types.TargetPool, error) {
	dsn, err := SQLiteDSN(connectString)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// SQLite permits a single writer, and in-memory databases exist
	// only as long as their one connection.
	options = append(options, WithPoolSize(1))
	if isMemory(dsn) {
		options = append(options, WithConnectionLifetime(0))
	}

	ret := &types.TargetPool{
		DB: db,
		PoolInfo: types.PoolInfo{
			ConnectionString: connectString,
			Product:          types.ProductSQLite,
		},
	}
	if err := finishTarget(ctx, ret, options, detectSQLite); err != nil {
		_ = ret.Close()
		return nil, err
	}
	return ret, nil
}

func detectSQLite(ctx context.Context, ret *types.TargetPool) error {
	var version string
	if err := ret.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return errors.WithStack(err)
	}
	ret.Version = "SQLite " + version
	ret.Product = types.ProductSQLite
	return nil
}

// SQLiteDSN extracts the driver data source from a sqlite: URL.
func SQLiteDSN(connectString string) (string, error) {
	scheme, rest, ok := strings.Cut(connectString, ":")
	if !ok || !strings.HasPrefix(strings.ToLower(scheme), "sqlite") {
		return "", errors.Errorf("not a sqlite connection string: %q", connectString)
	}
	rest = strings.TrimPrefix(rest, "//")
	if rest == "" {
		return "", errors.New("sqlite connection string must name a database")
	}
	return rest, nil
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
