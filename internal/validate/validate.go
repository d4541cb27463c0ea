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

// Package validate turns inbound events into records that can be
// written to a target table, or into rejections that will be
// quarantined.
package validate

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/journal-sink/internal/journal"
	"github.com/cockroachdb/journal-sink/internal/types"
	log "github.com/sirupsen/logrus"
)

// The headers that carry journal metadata.
const (
	HeaderTableName = "TableName"
	HeaderEntryType = "A_ENTTYP"
	HeaderTimestamp = "A_TIMSTAMP"
)

// Validator classifies events. It is immutable and safe for concurrent
// use.
type Validator struct {
	format     string
	normalizer *journal.Normalizer

	// Replaceable for testing.
	resolveTable func(format, tableName, topic string) string
}

// New constructs a Validator. The Config will be preflighted.
func New(cfg *Config) (*Validator, error) {
	if err := cfg.Preflight(); err != nil {
		return nil, err
	}
	return &Validator{
		format:       cfg.TableNameFormat,
		normalizer:   journal.NewNormalizer(cfg.Timezone),
		resolveTable: ResolveTable,
	}, nil
}

// Validate returns exactly one of a Record or a Rejected for the
// event. It never panics.
func (v *Validator) Validate(ev *types.Event) (ret types.Outcome) {
	if ev == nil {
		return types.Reject(nil, "Processing error: nil event")
	}
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"panic":     r,
				"topic":     ev.Topic,
				"partition": ev.Partition,
				"offset":    ev.Offset,
			}).Error("unexpected error while validating event")
			ret = types.Reject(ev, fmt.Sprintf("Processing error: %v", r))
		}
	}()
	return v.validate(ev)
}

func (v *Validator) validate(ev *types.Event) types.Outcome {
	tableName, hasTable := headerValue(ev, HeaderTableName)
	code, hasCode := headerValue(ev, HeaderEntryType)

	var missing []string
	if !hasTable {
		missing = append(missing, "Missing header: "+HeaderTableName+".")
	}
	if !hasCode {
		missing = append(missing, "Missing header: "+HeaderEntryType+".")
	}
	if len(missing) > 0 {
		return types.Reject(ev, strings.Join(missing, " "))
	}

	op, ok := journal.Operation(code)
	if !ok {
		return types.Reject(ev, fmt.Sprintf("Unrecognized %s code: %q", HeaderEntryType, code))
	}

	switch op {
	case types.OpDelete:
		if ev.Key == nil {
			return types.Reject(ev, "DELETE operation requires a record key")
		}
	default:
		if ev.Value == nil {
			return types.Reject(ev, fmt.Sprintf("%s operation requires a non-null value", op))
		}
	}

	rec := &types.Record{
		Op:          op,
		Key:         ev.Key,
		Value:       ev.Value,
		KeySchema:   ev.KeySchema,
		ValueSchema: ev.ValueSchema,
		Source:      ev,
	}

	if raw, ok := ev.HeaderString(HeaderTimestamp); ok {
		if ts, err := v.normalizer.Parse(raw); err == nil {
			rec.Timestamp = ts
		} else {
			log.WithError(err).WithField("offset", ev.Offset).Debug("ignoring source timestamp")
		}
	}

	rec.Table = strings.TrimSpace(v.resolveTable(v.format, tableName, ev.Topic))
	if rec.Table == "" {
		return types.Reject(ev, "Resolved target table name is empty")
	}
	return types.Accept(rec)
}

// headerValue returns a header only if it is present and not blank.
func headerValue(ev *types.Event, name string) (string, bool) {
	s, ok := ev.HeaderString(name)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// ResolveTable substitutes the placeholders in a table-name template.
// Missing values are substituted as empty strings.
func ResolveTable(format, tableName, topic string) string {
	return strings.NewReplacer(
		"${TableName}", tableName,
		"${topic}", topic,
	).Replace(format)
}
