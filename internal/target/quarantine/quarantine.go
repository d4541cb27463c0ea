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

// Package quarantine writes events that could not be processed to a
// fixed-schema table in the target database.
package quarantine

import (
	"context"
	"time"

	"github.com/cockroachdb/journal-sink/internal/target/dialect"
	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/cockroachdb/journal-sink/internal/util/metrics"
	"github.com/cockroachdb/journal-sink/internal/validate"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// maxReason is the width of the error_reason column.
const maxReason = 1000

var columns = []string{
	"topic",
	"kafka_partition",
	"kafka_offset",
	"record_key",
	"record_value",
	"headers",
	"error_reason",
	"table_name",
	"entry_type",
	"created_at",
}

// Sink writes rejected events to the quarantine table.
type Sink struct {
	cfg     *Config
	dialect dialect.Dialect
	insert  string

	now func() time.Time // Injection point for testing.
}

// New constructs a Sink. The Config must have been preflighted.
func New(cfg *Config, d dialect.Dialect) *Sink {
	return &Sink{
		cfg:     cfg,
		dialect: d,
		insert:  d.Insert(cfg.Table, columns),
		now:     time.Now,
	}
}

// Table returns the name of the quarantine table.
func (s *Sink) Table() string { return s.cfg.Table }

// Ensure creates the quarantine table and its indexes if the
// configuration permits.
func (s *Sink) Ensure(ctx context.Context, db types.TargetQuerier) error {
	if !s.cfg.AutoCreate {
		return nil
	}
	for _, ddl := range s.dialect.QuarantineDDL(s.cfg.Table) {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return errors.Wrapf(err, "could not create quarantine table: %s", ddl)
		}
	}
	log.WithField("table", s.cfg.Table).Info("ensured quarantine table exists")
	return nil
}

// Write inserts one row per rejected event, using the caller's
// transaction. An event that cannot be serialized is logged and
// dropped; the remaining events are still written.
func (s *Sink) Write(ctx context.Context, tx types.TargetQuerier, rejected []*types.Rejected) error {
	if len(rejected) == 0 {
		return nil
	}
	log.WithFields(log.Fields{
		"count": len(rejected),
		"table": s.cfg.Table,
	}).Info("quarantining events")

	stmt, err := tx.PrepareContext(ctx, s.insert)
	if err != nil {
		return errors.Wrapf(err, "could not prepare quarantine statement: %s", s.insert)
	}
	defer func() { _ = stmt.Close() }()

	now := s.now().UTC()
	written := 0
	for _, rej := range rejected {
		args, err := s.args(rej, now)
		if err != nil {
			quarantineDropped.Inc()
			log.WithError(err).WithFields(eventFields(rej.Event)).Error(
				"could not serialize event for quarantine; dropping it")
			continue
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.Wrapf(err, "could not write to quarantine table %s", s.cfg.Table)
		}
		quarantineRows.WithLabelValues(metrics.CauseValue(rej.Reason)).Inc()
		written++
	}
	log.WithField("count", written).Debug("quarantined events")
	return nil
}

// args returns the statement arguments in column order.
func (s *Sink) args(rej *types.Rejected, now time.Time) ([]any, error) {
	ev := rej.Event
	if ev == nil {
		ev = &types.Event{}
	}
	key, err := Serialize(ev.Key)
	if err != nil {
		return nil, errors.Wrap(err, "record_key")
	}
	value, err := Serialize(ev.Value)
	if err != nil {
		return nil, errors.Wrap(err, "record_value")
	}
	return []any{
		ev.Topic,
		ev.Partition,
		ev.Offset,
		key,
		value,
		SerializeHeaders(ev.Headers),
		Truncate(rej.Reason, maxReason),
		headerOrNull(ev, validate.HeaderTableName),
		headerOrNull(ev, validate.HeaderEntryType),
		now,
	}, nil
}

func headerOrNull(ev *types.Event, name string) any {
	if s, ok := ev.HeaderString(name); ok {
		return s
	}
	return nil
}

// Truncate limits the string to at most max characters, replacing the
// tail with an ellipsis if it was shortened.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
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
