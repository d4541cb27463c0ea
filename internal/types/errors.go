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

import "fmt"

// FailureKind classifies the reason a batch could not be committed.
type FailureKind int

// The batch failure kinds. Per-event problems never appear here; they
// are routed to the quarantine table instead.
const (
	FailureWrite       FailureKind = iota + 1 // A target-table statement failed.
	FailureQuarantine                         // The quarantine insert failed.
	FailureTransaction                        // Begin or commit failed.
)

func (k FailureKind) String() string {
	switch k {
	case FailureWrite:
		return "write failure"
	case FailureQuarantine:
		return "quarantine failure"
	case FailureTransaction:
		return "transaction failure"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// A BatchError is returned when an inbound batch was rolled back. The
// caller decides whether to redeliver the batch.
type BatchError struct {
	Kind FailureKind
	Err  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *BatchError) Unwrap() error { return e.Err }
