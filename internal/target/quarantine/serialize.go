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
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/pkg/errors"
)

// Serialize renders a key or value for storage in a text column. A nil
// input returns nil, so that the column is NULL. Structs and maps
// become JSON objects and slices become arrays; any other value is rendered in its string form.
func Serialize(v any) (any, error) {
	var sb strings.Builder
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *types.Struct:
		if t == nil {
			return nil, nil
		}
		if err := writeValue(&sb, t); err != nil {
			return nil, err
		}
	case map[string]any, []any:
		if err := writeValue(&sb, t); err != nil {
			return nil, err
		}
	case []byte:
		return string(t), nil
	case float32:
		return formatFloat(float64(t), 32)
	case float64:
		return formatFloat(t, 64)
	default:
		return scalarString(t), nil
	}
	return sb.String(), nil
}

// SerializeHeaders renders headers as a JSON object of strings. The
// order of first appearance is kept, and later duplicates replace the
// earlier values.
func SerializeHeaders(headers []types.Header) string {
	if len(headers) == 0 {
		return "{}"
	}
	obj := &types.Struct{}
	for _, h := range headers {
		if h.Value == nil {
			obj.Put(h.Key, nil)
		} else {
			obj.Put(h.Key, types.HeaderValueString(h.Value))
		}
	}
	var sb strings.Builder
	// Only strings and nils are present, so this cannot fail.
	_ = writeValue(&sb, obj)
	return sb.String()
}

func writeValue(sb *strings.Builder, v any) error {
	switch t := v.(type) {
	case nil:
		sb.WriteString("null")
	case *types.Struct:
		if t == nil {
			sb.WriteString("null")
			return nil
		}
		sb.WriteByte('{')
		for i, f := range t.Fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeString(sb, f.Name)
			sb.WriteByte(':')
			if err := writeValue(sb, f.Value); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeString(sb, k)
			sb.WriteByte(':')
			if err := writeValue(sb, t[k]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, elt := range t {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeValue(sb, elt); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case bool:
		sb.WriteString(strconv.FormatBool(t))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		sb.WriteString(scalarString(t))
	case float32:
		s, err := formatFloat(float64(t), 32)
		if err != nil {
			return err
		}
		sb.WriteString(s)
	case float64:
		s, err := formatFloat(t, 64)
		if err != nil {
			return err
		}
		sb.WriteString(s)
	case string:
		writeString(sb, t)
	case []byte:
		writeString(sb, string(t))
	default:
		writeString(sb, scalarString(t))
	}
	return nil
}

func formatFloat(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errors.Errorf("cannot serialize non-finite number %v", f)
	}
	return strconv.FormatFloat(f, 'g', -1, bits), nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return types.HeaderValueString(t)
	}
}

const hex = "0123456789abcdef"

// writeString writes a quoted string, escaping quotes, backslashes, and
// control characters.
func writeString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if r < 0x20 {
				sb.WriteString(`\u00`)
				sb.WriteByte(hex[r>>4])
				sb.WriteByte(hex[r&0xf])
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
}
