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
	"time"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/journal-sink/internal/sink"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const defaultFlushInterval = time.Second

// Config contains the configuration necessary for consuming journal
// events from Kafka. Brokers, Group, and Topics are mandatory.
type Config struct {
	Sink sink.Config

	Brokers       []string      // The address of the Kafka brokers.
	FlushInterval time.Duration // The maximum time a partial batch is held.
	Group         string        // The Kafka consumer group id.
	Strategy      string        // Kafka consumer group re-balance strategy.
	Topics        []string      // The list of topics that the consumer should use.
	Version       string        // The Kafka protocol version, if not the default.

	// SASL
	saslMechanism string
	saslUser      string
	saslPassword  string

	// The kafka connector configuration, computed by Preflight.
	saramaConfig *sarama.Config
}

// Bind adds flags to the set. It delegates to the embedded Config.Bind.
func (c *Config) Bind(f *pflag.FlagSet) {
	c.Sink.Bind(f)

	f.StringArrayVar(&c.Brokers, "broker", nil, "address of Kafka broker(s)")
	f.DurationVar(&c.FlushInterval, "flushInterval", defaultFlushInterval,
		"the maximum length of time to accumulate messages before applying a partial batch")
	f.StringVar(&c.Group, "group", "", "the Kafka consumer group id")
	f.StringVar(&c.Strategy, "strategy", "sticky", "Kafka consumer group re-balance strategy")
	f.StringArrayVar(&c.Topics, "topic", nil, "the topic(s) that the consumer should use")
	f.StringVar(&c.Version, "kafkaVersion", "", "the Kafka protocol version to use, e.g. 3.6.0")

	// SASL
	f.StringVar(&c.saslMechanism, "saslMechanism", "", "Can be set to SCRAM-SHA-256, SCRAM-SHA-512, or PLAIN")
	f.StringVar(&c.saslUser, "saslUser", "", "SASL username")
	f.StringVar(&c.saslPassword, "saslPassword", "", "SASL password")
}

// Preflight updates the configuration with sane defaults or returns an
// error if there are missing options for which a default cannot be
// provided.
func (c *Config) Preflight() error {
	if err := c.Sink.Preflight(); err != nil {
		return err
	}
	return c.preflight()
}

func (c *Config) preflight() error {
	if c.Group == "" {
		return errors.New("no group was configured")
	}
	if len(c.Brokers) == 0 {
		return errors.New("no brokers were configured")
	}
	if len(c.Topics) == 0 {
		return errors.New("no topics were configured")
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = defaultFlushInterval
	}
	if c.FlushInterval < time.Millisecond {
		return errors.New("flushInterval must be at least 1 millisecond")
	}

	sc := sarama.NewConfig()
	if c.Version != "" {
		version, err := sarama.ParseKafkaVersion(c.Version)
		if err != nil {
			return errors.Wrap(err, "invalid kafkaVersion")
		}
		sc.Version = version
	}
	switch c.Strategy {
	case "sticky", "":
		sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}
	case "roundrobin":
		sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	case "range":
		sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRange()}
	default:
		return errors.Errorf("unrecognized consumer rebalance strategy: %s", c.Strategy)
	}

	// If saslMechanism is set, authentication is done via SASL.
	if c.saslMechanism != "" {
		sc.Net.SASL.Enable = true
		switch c.saslMechanism {
		case sarama.SASLTypeSCRAMSHA512:
			sc.Net.SASL.SCRAMClientGeneratorFunc = sha512ClientGenerator
		case sarama.SASLTypeSCRAMSHA256:
			sc.Net.SASL.SCRAMClientGeneratorFunc = sha256ClientGenerator
		case sarama.SASLTypePlaintext:
		default:
			return errors.Errorf("unsupported saslMechanism: %s", c.saslMechanism)
		}
		sc.Net.SASL.Mechanism = sarama.SASLMechanism(c.saslMechanism)
		sc.Net.SASL.User = c.saslUser
		sc.Net.SASL.Password = c.saslPassword
		log.Infof("Using SASL %s", c.saslMechanism)
	}
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	c.saramaConfig = sc
	return errors.WithStack(sc.Validate())
}

// Diagnostic returns the non-secret portion of the configuration.
func (c *Config) Diagnostic() map[string]any {
	return map[string]any{
		"brokers":       c.Brokers,
		"flushInterval": c.FlushInterval.String(),
		"group":         c.Group,
		"saslMechanism": c.saslMechanism,
		"strategy":      c.Strategy,
		"topics":        c.Topics,
	}
}
