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

package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductString(t *testing.T) {
	tcs := []struct {
		product  Product
		expected string
	}{
		{ProductUnknown, "Unknown"},
		{ProductCockroachDB, "CockroachDB"},
		{ProductMariaDB, "MariaDB"},
		{ProductMySQL, "MySQL"},
		{ProductPostgreSQL, "PostgreSQL"},
		{ProductSQLite, "SQLite"},
		{Product(99), "Unknown"},
	}

	for idx, tc := range tcs {
		t.Run(fmt.Sprintf("%d", idx), func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.product.String())
		})
	}
}

func TestParseProduct(t *testing.T) {
	a := assert.New(t)
	a.Equal(ProductPostgreSQL, ParseProduct("postgresql"))
	a.Equal(ProductMySQL, ParseProduct(" MySQL "))
	a.Equal(ProductSQLite, ParseProduct("SQLITE"))
	a.Equal(ProductUnknown, ParseProduct("oracle"))
	a.Equal(ProductUnknown, ParseProduct(""))
}
