// SPDX-License-Identifier: AGPL-3.0-or-later

// Package topic defines the pub/sub interface consumed by the Sns
// Trigger, and an AWS SNS-backed implementation of it.
package topic

import "context"

// Topic is the external collaborator spec.md leaves unspecified beyond
// its interface.
type Topic interface {
	// Publish sends body to topicArn. SNS gives no delivery
	// confirmation beyond a successful call, matching the spec's "no
	// response body; always Success" note for the Sns Trigger.
	Publish(ctx context.Context, topicArn, body string) error
}
