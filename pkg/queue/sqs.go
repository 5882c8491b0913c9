// SPDX-License-Identifier: AGPL-3.0-or-later

package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// sqsAPI is the subset of the SQS client this package calls.
type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, opts ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, opts ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, opts ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, in *sqs.ChangeMessageVisibilityInput, opts ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

// SqsQueue implements Queue against AWS SQS.
type SqsQueue struct {
	client sqsAPI
	// resolveURL maps a short queue name to its queue URL and is called
	// on every operation (no lookup is cached); SQS addresses queues by
	// URL, but every other component in this system names them by the
	// short queue name.
	resolveURL func(ctx context.Context, queueName string) (string, error)
}

// NewSqsQueue wraps an *sqs.Client (or any sqsAPI-compatible fake).
// resolveURL resolves a short queue name to its SQS URL; pass
// (*sqs.Client).GetQueueUrl wrapped to return the URL string, or a
// static lookup table in tests.
func NewSqsQueue(client sqsAPI, resolveURL func(ctx context.Context, queueName string) (string, error)) *SqsQueue {
	return &SqsQueue{client: client, resolveURL: resolveURL}
}

func (q *SqsQueue) url(ctx context.Context, queueName string) (string, error) {
	url, err := q.resolveURL(ctx, queueName)
	if err != nil {
		return "", fmt.Errorf("queue: resolving %s: %w", queueName, err)
	}
	return url, nil
}

func (q *SqsQueue) Send(ctx context.Context, queueName, body string) (string, error) {
	url, err := q.url(ctx, queueName)
	if err != nil {
		return "", err
	}
	out, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return "", fmt.Errorf("queue: send to %s: %w", queueName, err)
	}
	return aws.ToString(out.MD5OfMessageBody), nil
}

func (q *SqsQueue) Receive(ctx context.Context, queueName string, max int32, waitSeconds int32) ([]Message, error) {
	url, err := q.url(ctx, queueName)
	if err != nil {
		return nil, err
	}
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(url),
		MaxNumberOfMessages: max,
		WaitTimeSeconds:     waitSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("queue: receive from %s: %w", queueName, err)
	}
	msgs := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, Message{Body: aws.ToString(m.Body), ReceiptHandle: aws.ToString(m.ReceiptHandle)})
	}
	return msgs, nil
}

func (q *SqsQueue) Delete(ctx context.Context, queueName string, msg Message) error {
	url, err := q.url(ctx, queueName)
	if err != nil {
		return err
	}
	_, err = q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(url),
		ReceiptHandle: aws.String(msg.ReceiptHandle),
	})
	if err != nil {
		return fmt.Errorf("queue: delete from %s: %w", queueName, err)
	}
	return nil
}

func (q *SqsQueue) ResetVisibility(ctx context.Context, queueName string, msg Message) error {
	url, err := q.url(ctx, queueName)
	if err != nil {
		return err
	}
	_, err = q.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(url),
		ReceiptHandle:     aws.String(msg.ReceiptHandle),
		VisibilityTimeout: 0,
	})
	if err != nil {
		return fmt.Errorf("queue: reset visibility on %s: %w", queueName, err)
	}
	return nil
}
