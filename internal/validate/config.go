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

package validate

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Defaults for the validator flags.
const (
	DefaultTableNameFormat = "${TableName}"
	DefaultTimezone        = "UTC"
)

// Config controls how events are mapped onto target tables.
type Config struct {
	// A template for the target table name. The placeholders
	// ${TableName} and ${topic} are substituted.
	TableNameFormat string
	// The zone in which journal timestamps are interpreted.
	Timezone string
}

// Bind adds flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	f.StringVar(&c.TableNameFormat, "tableNameFormat", DefaultTableNameFormat,
		"a template for target table names; ${TableName} and ${topic} are substituted")
	f.StringVar(&c.Timezone, "defaultTimezone", DefaultTimezone,
		"the zone of A_TIMSTAMP values: an IANA name or an offset such as +08:00")
}

// Preflight ensures that the configuration is usable.
func (c *Config) Preflight() error {
	if c.TableNameFormat == "" {
		c.TableNameFormat = DefaultTableNameFormat
	}
	if strings.TrimSpace(c.Timezone) == "" {
		c.Timezone = DefaultTimezone
	}
	if strings.TrimSpace(c.TableNameFormat) == "" {
		return errors.New("tableNameFormat must not be empty")
	}
	return nil
}
