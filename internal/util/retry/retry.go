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

// Package retry contains utility code for retrying database
// transactions and failed batches.
package retry

import (
	"context"
	"database/sql/driver"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// UnknownCode is returned by Classify for errors that did not
// originate in a database driver.
const UnknownCode = "unknown"

// Marker is a settable flag.
type Marker bool

// Mark sets the flag.
func (m *Marker) Mark() { *m = true }

// Marked returns the flag status.
func (m *Marker) Marked() bool { return bool(*m) }

// Retry is a convenience wrapper to automatically retry idempotent
// database operations that experience a transaction or connection
// failure. The provided callback must be entirely idempotent, with
// no observable side-effects during its execution.
func Retry(ctx context.Context, idempotent func(context.Context) error) error {
	return Loop(ctx, func(ctx context.Context, _ *Marker) error {
		return idempotent(ctx)
	})
}

// inLoop is a key used by Loop to detect reentrant behavior.
type inLoop struct{}

// Loop is a convenience wrapper to automatically retry idempotent
// database operations that experience a transaction or a connection
// failure. The provided callback may indicate that it has started
// generating observable effects by calling its second parameter to
// disable the retry behavior.
//
// If Loop is called in a reentrant fashion, the retry behavior will be
// suppressed within an inner loop, allowing the retryable error to
// percolate into the outer loop.
func Loop(ctx context.Context, fn func(ctx context.Context, sideEffect *Marker) error) error {
	const maxAttempts = 10
	if outerMarker, ok := ctx.Value(inLoop{}).(*Marker); ok {
		return fn(ctx, outerMarker)
	}

	var sideEffect Marker
	ctx = context.WithValue(ctx, inLoop{}, &sideEffect)
	actionsCount.Inc()
	attempt := 0
	for {
		err := fn(ctx, &sideEffect)
		if err == nil || sideEffect.Marked() {
			return err
		}
		code, transient := Classify(err)
		if !transient {
			abortedCount.WithLabelValues(code).Inc()
			return err
		}
		retryCount.WithLabelValues(code).Inc()
		attempt++
		if attempt >= maxAttempts {
			return errors.Wrapf(err, "maximum number of retries (%d) exceeded", maxAttempts)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// IsTransient returns true if the error is a database failure that may
// succeed if the transaction is retried.
func IsTransient(err error) bool {
	_, ret := Classify(err)
	return ret
}

// Classify returns a short code describing the error and whether it
// is transient.
func Classify(err error) (code string, transient bool) {
	if err == nil {
		return "", false
	}
	if pgErr := (*pgconn.PgError)(nil); errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // Serialization Failure
			"40003", // Statement Completion Unknown
			"40P01", // Deadlock Detected
			"08000", // Connection Exception
			"08003", // Connection Does Not Exist
			"08006", // Connection Failure
			"57P01": // Admin Shutdown
			return pgErr.Code, true
		default:
			return pgErr.Code, false
		}
	}
	if myErr := (*mysql.MySQLError)(nil); errors.As(err, &myErr) {
		code := strconv.Itoa(int(myErr.Number))
		switch myErr.Number {
		case 1205, // Lock wait timeout exceeded
			1213, // Deadlock found
			2006, // Server has gone away
			2013: // Lost connection during query
			return code, true
		default:
			return code, false
		}
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return "bad_conn", true
	}
	return UnknownCode, false
}
