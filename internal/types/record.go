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
	"time"
)

// Operation is the kind of row-level change an event represents.
type Operation int

// The CDC operations. OpUpsert is used for journal codes that may
// describe either an insert or an update.
const (
	OpInsert Operation = iota + 1
	OpUpdate
	OpDelete
	OpUpsert
)

func (o Operation) String() string {
	switch o {
	case OpInsert:
		return "INSERT"
	case OpUpdate:
		return "UPDATE"
	case OpDelete:
		return "DELETE"
	case OpUpsert:
		return "UPSERT"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// A Record is a validated event, ready to be written to its target
// table.
type Record struct {
	Table       string    // Resolved target table, never empty.
	Op          Operation // The operation to apply.
	Key         any
	Value       any
	KeySchema   *Schema
	ValueSchema *Schema
	Timestamp   time.Time // Zero if the source timestamp was unavailable.
	Source      *Event    // The event from which the record was built.
}

// Rejected is an event that could not be processed, along with a
// human-readable explanation.
type Rejected struct {
	Event  *Event
	Reason string
}

// An Outcome is the result of validating a single Event. Exactly one
// of the fields will be set.
type Outcome struct {
	Record   *Record
	Rejected *Rejected
}

// Accept returns an Outcome for a valid record.
func Accept(r *Record) Outcome { return Outcome{Record: r} }

// Reject returns an Outcome for a rejected event.
func Reject(ev *Event, reason string) Outcome {
	return Outcome{Rejected: &Rejected{Event: ev, Reason: reason}}
}
