// SPDX-License-Identifier: AGPL-3.0-or-later

// Package queue defines the queue interface consumed by the Sqs Trigger
// and the Sqs Producer, and an AWS SQS-backed implementation of it.
package queue

import "context"

// Message is one item received from a queue, carrying enough of the
// transport's own identity (receipt handle) to delete or requeue it
// later without a round-trip back through the Queue implementation's
// internals.
type Message struct {
	Body          string
	ReceiptHandle string
}

// Queue is the external collaborator spec.md leaves unspecified beyond
// its interface.
type Queue interface {
	// Send enqueues body onto queueName, returning the transport's MD5
	// of what it received so the caller can verify delivery integrity.
	Send(ctx context.Context, queueName, body string) (md5 string, err error)
	// Receive long-polls queueName for up to max messages.
	Receive(ctx context.Context, queueName string, max int32, waitSeconds int32) ([]Message, error)
	// Delete acknowledges msg, removing it from the queue.
	Delete(ctx context.Context, queueName string, msg Message) error
	// ResetVisibility makes msg immediately re-deliverable to other
	// consumers, used when processing msg failed.
	ResetVisibility(ctx context.Context, queueName string, msg Message) error
}
