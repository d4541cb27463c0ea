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

package quarantine

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// DefaultTable is the name of the quarantine table if none is given.
const DefaultTable = "streaming_corrupt_events"

// Config controls the quarantine table.
type Config struct {
	// AutoCreate is set by the owning configuration to share the
	// writer's autoCreate flag.
	AutoCreate bool
	Table      string
}

// Bind adds configuration flags to the set.
func (c *Config) Bind(f *pflag.FlagSet) {
	f.StringVar(&c.Table, "quarantineTable", DefaultTable,
		"the name of a table in the target database for storing events that could not be processed")
}

// Preflight validates the configuration.
func (c *Config) Preflight() error {
	c.Table = strings.TrimSpace(c.Table)
	if c.Table == "" {
		c.Table = DefaultTable
	}
	if strings.ContainsAny(c.Table, " \t\r\n;") {
		return errors.Errorf("invalid quarantineTable %q", c.Table)
	}
	return nil
}
