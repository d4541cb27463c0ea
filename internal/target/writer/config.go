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

package writer

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// PKMode determines where primary-key values are read from.
type PKMode string

// The supported key modes.
const (
	// PKRecordKey reads key values from the record key, falling back
	// to the record value.
	PKRecordKey PKMode = "record_key"
	// PKRecordValue reads key values from the record value only.
	PKRecordValue PKMode = "record_value"
	// PKNone disables key handling: updates become upserts and
	// deletes are skipped.
	PKNone PKMode = "none"
)

// Config controls the behavior of the table writer.
type Config struct {
	AutoCreate      bool
	AutoEvolve      bool
	PKFields        []string
	PKMode          PKMode
	TimestampColumn string

	pkFields string // Raw flag value.
	pkMode   string // Raw flag value.
}

// Bind adds flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	f.BoolVar(&c.AutoCreate, "autoCreate", false,
		"create missing target tables from the first record of a batch")
	f.BoolVar(&c.AutoEvolve, "autoEvolve", false,
		"add columns to target tables when records contain unknown fields")
	f.StringVar(&c.pkFields, "pkFields", "",
		"a comma-separated list of primary-key column names")
	f.StringVar(&c.pkMode, "pkMode", string(PKRecordKey),
		"where key values are read from: record_key, record_value, or none")
	f.StringVar(&c.TimestampColumn, "timestampColumn", "",
		"if set, the normalized A_TIMSTAMP value is written to this column")
}

// Preflight ensures that the configuration is usable.
func (c *Config) Preflight() error {
	if c.pkMode != "" {
		c.PKMode = PKMode(strings.ToLower(strings.TrimSpace(c.pkMode)))
	}
	if c.PKMode == "" {
		c.PKMode = PKRecordKey
	}
	switch c.PKMode {
	case PKRecordKey, PKRecordValue, PKNone:
	default:
		return errors.Errorf("unknown pkMode %q", c.PKMode)
	}

	if c.pkFields != "" {
		c.PKFields = nil
		for _, field := range strings.Split(c.pkFields, ",") {
			if field = strings.TrimSpace(field); field != "" {
				c.PKFields = append(c.PKFields, field)
			}
		}
	}
	seen := make(map[string]struct{}, len(c.PKFields))
	for _, field := range c.PKFields {
		if _, dup := seen[field]; dup {
			return errors.Errorf("duplicate pkFields entry %q", field)
		}
		seen[field] = struct{}{}
	}

	c.TimestampColumn = strings.TrimSpace(c.TimestampColumn)
	if _, isKey := seen[c.TimestampColumn]; isKey {
		return errors.Errorf("timestampColumn %q may not be a key column", c.TimestampColumn)
	}
	return nil
}

// keys returns the key columns in effect.
func (c *Config) keys() []string {
	if c.PKMode == PKNone {
		return nil
	}
	return c.PKFields
}
