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

// The journal-sink binary consumes journal change events and applies
// them to a SQL database.
package main

import (
	"context"
	golog "log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // Embed zone data for --defaultTimezone.

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachdb/journal-sink/internal/cmd/preflight"
	"github.com/cockroachdb/journal-sink/internal/cmd/start"
	"github.com/cockroachdb/journal-sink/internal/cmd/version"
	joonix "github.com/joonix/log"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// gracePeriod bounds the time spent flushing in-flight batches after a
// shutdown signal has been received.
const gracePeriod = 30 * time.Second

func main() {
	var logFormat, logDestination string
	var verbosity int
	root := &cobra.Command{
		Use:           "journal-sink",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Hijack anything that uses the standard go logger, like http.
			pw := log.WithField("golog", true).Writer()
			log.DeferExitHandler(func() { _ = pw.Close() })
			// logrus will provide timestamp info.
			golog.SetFlags(0)
			golog.SetOutput(pw)

			switch verbosity {
			case 0:
			// No-op
			case 1:
				log.SetLevel(log.DebugLevel)
			default:
				log.SetLevel(log.TraceLevel)
			}

			switch logFormat {
			case "fluent":
				log.SetFormatter(joonix.NewFormatter())
			case "text":
				log.SetFormatter(&log.TextFormatter{
					FullTimestamp:   true,
					PadLevelText:    true,
					TimestampFormat: time.Stamp,
				})
			default:
				return errors.Errorf("unknown log format: %q", logFormat)
			}

			if logDestination != "" {
				f, err := os.OpenFile(logDestination, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
				if err != nil {
					log.WithError(err).Error("could not open log output file")
					log.Exit(1)
				}
				log.DeferExitHandler(func() { _ = f.Close() })
				log.SetOutput(f)
			}

			return nil
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&logFormat, "logFormat", "text", "choose log output format [ fluent, text ]")
	f.StringVar(&logDestination, "logDestination", "", "write logs to a file, instead of stdout")
	f.CountVarP(&verbosity, "verbose", "v", "increase logging verbosity to debug; repeat for trace")

	root.AddCommand(
		preflight.Command(),
		start.Command(),
		version.Command(),
	)

	// The stopper is retrieved by the sub-commands. A signal begins a
	// graceful shutdown, a second one exits immediately.
	ctx := stopper.WithContext(context.Background())
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case <-ctx.Stopping():
			return
		case sig := <-signals:
			log.WithField("signal", sig).Info("shutting down")
			go ctx.Stop(gracePeriod)
		}
		sig := <-signals
		log.WithField("signal", sig).Warn("exiting immediately")
		log.Exit(1)
	}()
	log.DeferExitHandler(func() {
		signal.Stop(signals)
		ctx.Stop(time.Second)
		_ = ctx.Wait()
	})

	if err := root.ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("exited")
		log.Exit(1)
	}
	log.Exit(0)
}
