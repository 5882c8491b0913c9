// SPDX-License-Identifier: AGPL-3.0-or-later

package topic

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// snsAPI is the subset of the SNS client this package calls.
type snsAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SnsTopic implements Topic against AWS SNS.
type SnsTopic struct {
	client snsAPI
}

// NewSnsTopic wraps an *sns.Client (or any snsAPI-compatible fake).
func NewSnsTopic(client snsAPI) *SnsTopic {
	return &SnsTopic{client: client}
}

func (t *SnsTopic) Publish(ctx context.Context, topicArn, body string) error {
	_, err := t.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(topicArn),
		Message:  aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("topic: publish to %s: %w", topicArn, err)
	}
	return nil
}
