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

import "strings"

// Product is an enum type to make it easy to switch on the underlying
// database.
type Product int

// The supported products. Any product not listed here is handled by
// the generic SQL dialect.
const (
	ProductUnknown Product = iota
	ProductCockroachDB
	ProductMariaDB
	ProductMySQL
	ProductPostgreSQL
	ProductSQLite
)

var productNames = map[Product]string{
	ProductUnknown:     "Unknown",
	ProductCockroachDB: "CockroachDB",
	ProductMariaDB:     "MariaDB",
	ProductMySQL:       "MySQL",
	ProductPostgreSQL:  "PostgreSQL",
	ProductSQLite:      "SQLite",
}

func (p Product) String() string {
	if s, ok := productNames[p]; ok {
		return s
	}
	return productNames[ProductUnknown]
}

// ParseProduct returns the Product whose name matches the input,
// ignoring case. ProductUnknown is returned for unrecognized names.
func ParseProduct(name string) Product {
	name = strings.TrimSpace(name)
	for p, s := range productNames {
		if strings.EqualFold(s, name) {
			return p
		}
	}
	return ProductUnknown
}
