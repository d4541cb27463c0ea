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

// Package diag gathers point-in-time state from the sink's components
// into a single JSON document. The document is served from /_/diag and
// logged when the process receives SIGUSR1.
package diag

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Diagnostic is implemented by components that report their state,
// such as the target pool or the Kafka consumer configuration. The
// returned value must be JSON-serializable.
type Diagnostic interface {
	Diagnostic(context.Context) any
}

// DiagnosticFn adapts a function to [Diagnostic].
type DiagnosticFn func(context.Context) any

// Diagnostic calls fn.
func (fn DiagnosticFn) Diagnostic(ctx context.Context) any {
	return fn(ctx)
}

// Diagnostics holds the registered sections of the report.
type Diagnostics struct {
	started time.Time

	mu       sync.RWMutex
	sections map[string]Diagnostic
}

// New constructs a Diagnostics with the build, cmd, and process
// sections already registered.
func New(ctx *stopper.Context) *Diagnostics {
	d := &Diagnostics{started: time.Now().UTC()}
	d.sections = map[string]Diagnostic{
		"build":   DiagnosticFn(buildSection),
		"cmd":     DiagnosticFn(func(context.Context) any { return os.Args }),
		"process": DiagnosticFn(d.processSection),
	}
	logOnSignal(ctx, d)
	return d
}

// buildSection reports the module version and the vcs stamp.
func buildSection(context.Context) any {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	ret := map[string]string{
		"go":      bi.GoVersion,
		"module":  bi.Main.Path,
		"version": bi.Main.Version,
	}
	for _, s := range bi.Settings {
		if strings.HasPrefix(s.Key, "vcs") {
			ret[s.Key] = s.Value
		}
	}
	return ret
}

func (d *Diagnostics) processSection(context.Context) any {
	return map[string]any{
		"goroutines": runtime.NumGoroutine(),
		"pid":        os.Getpid(),
		"started":    d.started,
		"uptime":     time.Since(d.started).Round(time.Second).String(),
	}
}

// Register adds a named section to the report. Sections may be
// evaluated concurrently. A name may only be registered once.
func (d *Diagnostics) Register(name string, section Diagnostic) error {
	if name == "" {
		return errors.New("diagnostic name must not be empty")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.sections[name]; dup {
		return errors.Errorf("diagnostic %q already registered", name)
	}
	d.sections[name] = section
	return nil
}

// Payload evaluates every section.
func (d *Diagnostics) Payload(ctx context.Context) map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ret := make(map[string]any, len(d.sections))
	for name, section := range d.sections {
		ret[name] = section.Diagnostic(ctx)
	}
	return ret
}

// Write encodes the report as JSON.
func (d *Diagnostics) Write(ctx context.Context, w io.Writer, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", " ")
	}
	return errors.WithStack(enc.Encode(d.Payload(ctx)))
}

// Handler serves the report. Output is indented unless the request
// carries a compact query parameter.
func (d *Diagnostics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, compact := req.URL.Query()["compact"]
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := d.Write(req.Context(), w, !compact); err != nil {
			log.WithError(err).Warn("could not write diagnostics")
		}
	})
}
