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
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"
)

var (
	// sha256ClientGenerator is a SCRAMClientGeneratorFunc for the
	// SCRAM-SHA-256 SASL mechanism.
	sha256ClientGenerator = scramGenerator(sha256.New)
	// sha512ClientGenerator is a SCRAMClientGeneratorFunc for the
	// SCRAM-SHA-512 SASL mechanism.
	sha512ClientGenerator = scramGenerator(sha512.New)
)

func scramGenerator(fn func() hash.Hash) func() sarama.SCRAMClient {
	return func() sarama.SCRAMClient {
		return &scramClient{hashFn: scram.HashGeneratorFcn(fn)}
	}
}

// scramClient adapts the xdg-go SCRAM implementation to sarama.
type scramClient struct {
	hashFn scram.HashGeneratorFcn
	conv   *scram.ClientConversation
}

var _ sarama.SCRAMClient = (*scramClient)(nil)

// Begin prepares the client for the SCRAM exchange with the server
// with a user name and a password.
func (c *scramClient) Begin(userName, password, authzID string) error {
	client, err := c.hashFn.NewClient(userName, password, authzID)
	if err != nil {
		return err
	}
	c.conv = client.NewConversation()
	return nil
}

// Step steps client through the SCRAM exchange. It is called
// repeatedly until it errors or Done returns true.
func (c *scramClient) Step(challenge string) (string, error) {
	return c.conv.Step(challenge)
}

// Done returns true when the SCRAM conversation is over.
func (c *scramClient) Done() bool {
	return c.conv.Done()
}
