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

// Package preflight contains a command to assist with testing database
// connections.
package preflight

import (
	"context"
	"time"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachdb/journal-sink/internal/target/dialect"
	"github.com/cockroachdb/journal-sink/internal/util/stdpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Command returns a command to test the target database connection.
func Command() *cobra.Command {
	var target string
	var wait bool

	cmd := &cobra.Command{
		Args:  cobra.NoArgs,
		Short: "test the connection to the target database",
		Use:   "preflight",
		// Ignore unknown flags so that you can pass all the arguments in from a start command.
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(target) == 0 {
				log.Info("no targetConn specified, no connections to test")
				return nil
			}
			log.Infof("Testing Target DB (targetConn): %s", target)
			if err := testConnection(cmd.Context(), target, wait); err != nil {
				return errors.Wrap(err, "unable to connect to targetConn")
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&target, "targetConn", "",
		"the target database's connection string")
	f.BoolVar(&wait, "targetWaitForStartup", false,
		"retry the connection until the database is ready")
	return cmd
}

func testConnection(ctx context.Context, connString string, wait bool) error {
	stop := stopper.WithContext(ctx)
	defer func() {
		stop.Stop(time.Second)
		_ = stop.Wait()
	}()

	options := []stdpool.Option{
		stdpool.WithConnectionLifetime(5 * time.Minute),
		stdpool.WithPoolSize(1),
	}
	if wait {
		options = append(options, stdpool.WithWaitForStartup())
	}
	pool, err := stdpool.OpenTarget(stop, connString, options...)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"dialect": dialect.ForProduct(pool.Product).Name(),
		"product": pool.Product,
		"version": pool.Version,
	}).Info("connected to the database")

	var result int
	if err := pool.QueryRowContext(stop, "SELECT 1").Scan(&result); err != nil {
		return errors.WithStack(err)
	}
	if result != 1 {
		return errors.Errorf("SELECT 1 returned %d instead", result)
	}
	log.Info("Succeeded")
	return nil
}
