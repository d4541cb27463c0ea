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

package kafka

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// timestampSchemaName is the logical type that the Kafka Connect JSON
// converter uses for epoch-millisecond timestamps.
const timestampSchemaName = "org.apache.kafka.connect.data.Timestamp"

// decode converts a consumer message into an Event. Keys and values
// are decoded as follows:
//   - empty input is a tombstone (nil)
//   - a {"schema": ..., "payload": ...} envelope is decoded using the
//     enclosed schema
//   - other JSON is decoded with object field order preserved
//   - anything else is retained as raw text
func decode(msg *sarama.ConsumerMessage) *types.Event {
	ev := &types.Event{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}
	ev.Key, ev.KeySchema = decodeData(msg.Key)
	ev.Value, ev.ValueSchema = decodeData(msg.Value)
	for _, h := range msg.Headers {
		if h == nil {
			continue
		}
		hdr := types.Header{Key: string(h.Key)}
		if h.Value != nil {
			hdr.Value = h.Value
		}
		ev.Headers = append(ev.Headers, hdr)
	}
	return ev
}

func decodeData(data []byte) (any, *types.Schema) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	parsed, err := parseJSON(data)
	if err != nil {
		return string(data), nil
	}
	obj, ok := parsed.(*types.Struct)
	if !ok || len(obj.Fields) != 2 {
		return parsed, nil
	}
	rawSchema, hasSchema := obj.Get("schema")
	payload, hasPayload := obj.Get("payload")
	if !hasSchema || !hasPayload {
		return parsed, nil
	}
	if rawSchema == nil {
		// Envelope without a schema.
		return payload, nil
	}
	schema, err := toSchema(rawSchema)
	if err != nil {
		log.WithError(err).Debug("ignoring malformed schema envelope")
		return parsed, nil
	}
	value, err := applySchema(schema, payload)
	if err != nil {
		log.WithError(err).Debug("payload does not match its schema")
		return parsed, nil
	}
	return value, schema
}

// parseJSON decodes a single JSON document.
func parseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	ret, err := decodeJSON(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return ret, nil
}

// decodeJSON reads a single JSON value, preserving the order of object
// fields. Objects become a *types.Struct, arrays a []any, and numbers
// an int64 or float64.
func decodeJSON(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &types.Struct{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, errors.WithStack(err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, errors.Errorf("unexpected object key %v", keyTok)
				}
				value, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				obj.Put(key, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, errors.WithStack(err)
			}
			return obj, nil
		case '[':
			arr := make([]any, 0)
			for dec.More() {
				elt, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, elt)
			}
			if _, err := dec.Token(); err != nil {
				return nil, errors.WithStack(err)
			}
			return arr, nil
		default:
			return nil, errors.Errorf("unexpected delimiter %s", t)
		}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return f, nil
	default:
		// string, bool, or nil
		return t, nil
	}
}

// toSchema converts a Kafka Connect JSON schema description.
func toSchema(raw any) (*types.Schema, error) {
	obj, ok := raw.(*types.Struct)
	if !ok {
		return nil, errors.Errorf("schema must be an object, got %T", raw)
	}
	typeName, _ := obj.Get("type")
	name, _ := typeName.(string)
	typ, ok := types.ParseSchemaType(name)
	if !ok {
		return nil, errors.Errorf("unknown schema type %q", typeName)
	}
	ret := &types.Schema{Type: typ}
	if n, ok := obj.Get("name"); ok {
		ret.Name, _ = n.(string)
	}
	if opt, ok := obj.Get("optional"); ok {
		ret.Optional, _ = opt.(bool)
	}
	if ret.Name == timestampSchemaName {
		ret.Type = types.SchemaTimestamp
	}
	if typ != types.SchemaStruct {
		return ret, nil
	}

	rawFields, _ := obj.Get("fields")
	fields, ok := rawFields.([]any)
	if !ok {
		return nil, errors.New("struct schema must have a fields array")
	}
	for _, rawField := range fields {
		fieldObj, ok := rawField.(*types.Struct)
		if !ok {
			return nil, errors.Errorf("field must be an object, got %T", rawField)
		}
		fieldName, _ := fieldObj.Get("field")
		fname, ok := fieldName.(string)
		if !ok || fname == "" {
			return nil, errors.New("field is missing its name")
		}
		fieldSchema, err := toSchema(fieldObj)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", fname)
		}
		ret.Fields = append(ret.Fields, types.Field{Name: fname, Schema: fieldSchema})
	}
	return ret, nil
}

// applySchema converts a decoded JSON payload into the types described
// by the schema.
func applySchema(s *types.Schema, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch s.Type {
	case types.SchemaStruct:
		obj, ok := v.(*types.Struct)
		if !ok {
			return nil, errors.Errorf("expected an object, got %T", v)
		}
		ret := &types.Struct{}
		for _, f := range s.Fields {
			fv, _ := obj.Get(f.Name)
			conv, err := applySchema(f.Schema, fv)
			if err != nil {
				return nil, errors.Wrapf(err, "field %s", f.Name)
			}
			ret.Put(f.Name, conv)
		}
		return ret, nil

	case types.SchemaInt8, types.SchemaInt16, types.SchemaInt32, types.SchemaInt64:
		if i, ok := v.(int64); ok {
			return i, nil
		}

	case types.SchemaFloat32, types.SchemaFloat64:
		switch t := v.(type) {
		case int64:
			return float64(t), nil
		case float64:
			return t, nil
		}

	case types.SchemaBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}

	case types.SchemaString:
		if s, ok := v.(string); ok {
			return s, nil
		}

	case types.SchemaBytes:
		if s, ok := v.(string); ok {
			data, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, errors.Wrap(err, "invalid base64 data")
			}
			return data, nil
		}

	case types.SchemaTimestamp:
		if ms, ok := v.(int64); ok {
			return time.UnixMilli(ms).UTC(), nil
		}

	default:
		// Maps and arrays are passed through.
		return v, nil
	}
	return nil, errors.Errorf("value of type %T does not match schema", v)
}
