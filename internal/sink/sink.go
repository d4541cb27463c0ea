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

// Package sink applies inbound batches of events to the target
// database. Each batch is validated, written, and quarantined within a
// single transaction that is owned by the Sink.
package sink

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachdb/journal-sink/internal/target/dialect"
	"github.com/cockroachdb/journal-sink/internal/target/quarantine"
	"github.com/cockroachdb/journal-sink/internal/target/writer"
	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/cockroachdb/journal-sink/internal/util/metrics"
	"github.com/cockroachdb/journal-sink/internal/util/stdpool"
	"github.com/cockroachdb/journal-sink/internal/validate"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Sink applies batches of events to the target database.
type Sink struct {
	cfg        *Config
	db         *sql.DB
	dialect    dialect.Dialect
	info       *types.PoolInfo
	quarantine *quarantine.Sink
	validator  *validate.Validator
	writer     *writer.Writer
}

// OpenTarget opens a connection pool to the configured target
// database. The pool will be closed when the context is stopped.
func OpenTarget(ctx *stopper.Context, cfg *Config) (*types.TargetPool, error) {
	options := []stdpool.Option{
		stdpool.WithConnectionLifetime(cfg.TargetMaxLifetime),
		stdpool.WithPoolSize(cfg.TargetMaxPoolSize),
	}
	if cfg.TargetWaitForStartup {
		options = append(options, stdpool.WithWaitForStartup())
	}
	return stdpool.OpenTarget(ctx, cfg.TargetConn, options...)
}

// New constructs a Sink for the pool and ensures that the quarantine
// table exists, if the configuration permits. The Config must have
// been preflighted.
func New(ctx context.Context, cfg *Config, pool *types.TargetPool) (*Sink, error) {
	validator, err := validate.New(&cfg.Validate)
	if err != nil {
		return nil, err
	}
	d := dialect.ForProduct(pool.Product)
	ret := &Sink{
		cfg:        cfg,
		db:         pool.DB,
		dialect:    d,
		info:       pool.Info(),
		quarantine: quarantine.New(&cfg.Quarantine, d),
		validator:  validator,
		writer:     writer.New(&cfg.Writer, d),
	}
	if err := ret.quarantine.Ensure(ctx, pool.DB); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"dialect":    d.Name(),
		"quarantine": cfg.Quarantine.Table,
	}).Info("sink ready")
	return ret, nil
}

// Dialect returns the SQL dialect in use.
func (s *Sink) Dialect() dialect.Dialect { return s.dialect }

// Diagnostic implements [diag.Diagnostic].
func (s *Sink) Diagnostic(_ context.Context) any {
	return map[string]any{
		"autoCreate":      s.cfg.Writer.AutoCreate,
		"autoEvolve":      s.cfg.Writer.AutoEvolve,
		"batchSize":       s.cfg.BatchSize,
		"dialect":         s.dialect.Name(),
		"pkMode":          s.cfg.Writer.PKMode,
		"product":         s.info.Product.String(),
		"quarantine":      s.quarantine.Table(),
		"tableNameFormat": s.cfg.Validate.TableNameFormat,
		"version":         s.info.Version,
	}
}

// Put applies a batch of events. Events that cannot be processed are
// written to the quarantine table in the same transaction. If Put
// returns an error, the transaction has been rolled back and the error
// will be a [*types.BatchError]. An empty batch is a no-op.
func (s *Sink) Put(ctx context.Context, events []*types.Event) error {
	if len(events) == 0 {
		return nil
	}
	start := time.Now()

	tables, rejected, err := s.classify(ctx, events)
	if err != nil {
		return s.fail(types.FailureTransaction, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail(types.FailureTransaction, errors.Wrap(err, "could not begin transaction"))
	}
	defer func() { _ = tx.Rollback() }()

	unmappable, err := s.writer.Write(ctx, tx, tables)
	if err != nil {
		return s.fail(types.FailureWrite, err)
	}
	rejected = append(rejected, unmappable...)

	if err := s.quarantine.Write(ctx, tx, rejected); err != nil {
		return s.fail(types.FailureQuarantine, err)
	}

	if err := tx.Commit(); err != nil {
		return s.fail(types.FailureTransaction, errors.Wrap(err, "could not commit transaction"))
	}

	for _, rej := range rejected {
		batchRejected.WithLabelValues(metrics.CauseValue(rej.Reason)).Inc()
	}
	batchDurations.Observe(time.Since(start).Seconds())
	batchSizes.Observe(float64(len(events)))
	batchSuccesses.Inc()
	log.WithFields(log.Fields{
		"duration": time.Since(start),
		"events":   len(events),
		"rejected": len(rejected),
		"tables":   len(tables),
	}).Debug("applied batch")
	return nil
}

// classify validates the events in parallel and groups the accepted
// records by target table, preserving batch order within each table.
func (s *Sink) classify(
	ctx context.Context, events []*types.Event,
) (tables map[string][]*types.Record, rejected []*types.Rejected, _ error) {
	outcomes := make([]types.Outcome, len(events))
	numWorkers := min(runtime.GOMAXPROCS(0), len(events))
	eg, errCtx := errgroup.WithContext(ctx)
	for worker := 0; worker < numWorkers; worker++ {
		eg.Go(func() error {
			for idx := worker; idx < len(events); idx += numWorkers {
				if err := errCtx.Err(); err != nil {
					return errors.WithStack(err)
				}
				outcomes[idx] = s.validator.Validate(events[idx])
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	tables = make(map[string][]*types.Record)
	for idx, out := range outcomes {
		if out.Rejected != nil {
			log.WithFields(eventFields(events[idx])).WithField("reason", out.Rejected.Reason).
				Debug("rejected event")
			rejected = append(rejected, out.Rejected)
			continue
		}
		rec := out.Record
		tables[rec.Table] = append(tables[rec.Table], rec)
	}
	return tables, rejected, nil
}

func (s *Sink) fail(kind types.FailureKind, err error) error {
	batchFailures.WithLabelValues(kind.String()).Inc()
	return &types.BatchError{Kind: kind, Err: err}
}

func eventFields(ev *types.Event) log.Fields {
	if ev == nil {
		return log.Fields{}
	}
	return log.Fields{
		"topic":     ev.Topic,
		"partition": ev.Partition,
		"offset":    ev.Offset,
	}
}
