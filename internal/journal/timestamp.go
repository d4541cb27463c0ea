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

package journal

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// sourceLayout is the A_TIMSTAMP format once the fractional seconds
// have been truncated or padded to nanosecond precision.
const sourceLayout = "2006-01-02 15:04:05.000000000"

const fractionDigits = 9

// maxOffsetSeconds is the largest accepted UTC offset (18 hours).
const maxOffsetSeconds = 18 * 60 * 60

// A Normalizer converts journal timestamps, which carry no zone
// information, into instants in a configured zone. A Normalizer is
// immutable and safe for concurrent use.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer resolves the zone once. A blank zone is UTC. Zones
// starting with a sign are fixed UTC offsets; anything else is an IANA
// zone name. A zone that cannot be resolved falls back to UTC with a
// warning.
func NewNormalizer(zone string) *Normalizer {
	loc, err := ParseZone(zone)
	if err != nil {
		log.WithError(err).WithField("zone", zone).Warn("could not parse time zone, defaulting to UTC")
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

// Location returns the zone in which timestamps are interpreted.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Parse interprets a journal timestamp in the configured zone.
func (n *Normalizer) Parse(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	ts, err := time.ParseInLocation(sourceLayout, fixFraction(raw), n.loc)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "could not parse timestamp %q", raw)
	}
	return ts, nil
}

// Normalize returns the RFC 3339 rendering of a journal timestamp,
// including its zone offset. The boolean will be false if the input
// could not be parsed; the failure is logged at debug level.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	ts, err := n.Parse(raw)
	if err != nil {
		log.WithError(err).Debug("dropping unparseable timestamp")
		return "", false
	}
	return ts.Format(time.RFC3339Nano), true
}

// fixFraction truncates or zero-pads the fractional seconds to exactly
// nine digits. Sources may emit up to twelve digits; the excess is
// dropped, never rounded.
func fixFraction(raw string) string {
	idx := strings.LastIndexByte(raw, '.')
	if idx < 0 {
		return raw + "." + strings.Repeat("0", fractionDigits)
	}
	fraction := raw[idx+1:]
	switch {
	case len(fraction) > fractionDigits:
		return raw[:idx+1] + fraction[:fractionDigits]
	case len(fraction) < fractionDigits:
		return raw + strings.Repeat("0", fractionDigits-len(fraction))
	default:
		return raw
	}
}

// ParseZone resolves a zone identifier. Offsets may be written as
// +h, +hh, +hhmm, +hh:mm, +hhmmss or +hh:mm:ss.
func ParseZone(zone string) (*time.Location, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return time.UTC, nil
	}
	if zone[0] == '+' || zone[0] == '-' {
		secs, err := parseOffset(zone)
		if err != nil {
			return nil, err
		}
		return time.FixedZone(zone, secs), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown zone %q", zone)
	}
	return loc, nil
}

func parseOffset(zone string) (int, error) {
	sign := 1
	if zone[0] == '-' {
		sign = -1
	}
	body := zone[1:]

	var parts []string
	if strings.Contains(body, ":") {
		parts = strings.Split(body, ":")
		if len(parts) > 3 || len(parts[0]) != 2 {
			return 0, errors.Errorf("malformed offset %q", zone)
		}
	} else {
		switch len(body) {
		case 1, 2:
			parts = []string{body}
		case 4:
			parts = []string{body[:2], body[2:]}
		case 6:
			parts = []string{body[:2], body[2:4], body[4:]}
		default:
			return 0, errors.Errorf("malformed offset %q", zone)
		}
	}

	units := []int{60 * 60, 60, 1}
	secs := 0
	for i, part := range parts {
		if i > 0 && len(part) != 2 {
			return 0, errors.Errorf("malformed offset %q", zone)
		}
		v, err := strconv.Atoi(part)
		if err != nil || strings.TrimLeft(part, "0123456789") != "" {
			return 0, errors.Errorf("malformed offset %q", zone)
		}
		if i > 0 && v > 59 {
			return 0, errors.Errorf("offset out of range %q", zone)
		}
		secs += v * units[i]
	}
	if secs > maxOffsetSeconds {
		return 0, errors.Errorf("offset out of range %q", zone)
	}
	return sign * secs, nil
}
