// SPDX-License-Identifier: AGPL-3.0-or-later

package producers

import (
	"context"
	"fmt"

	"hopline/pkg/cleanup"
	"hopline/pkg/message"
	"hopline/pkg/queue"
	"hopline/pkg/serialize"
)

// sqsWaitSeconds is the long-poll wait spec §4.9 fixes at 20 seconds.
const sqsWaitSeconds = 20

// Sqs polls a queue.Queue, draining each received batch locally before
// re-polling. Grounded on
// original_source/npipes/producers/producer_sqs.py, including its
// pop-from-end batch draining.
type Sqs struct {
	Queue               queue.Queue
	QueueName           string
	MaxNumberOfMessages int32

	batch   []queue.Message
	current queue.Message
	hasCur  bool
}

// NewSqs constructs an Sqs producer. maxNumberOfMessages defaults to 1
// (the original's default) when <= 0.
func NewSqs(q queue.Queue, queueName string, maxNumberOfMessages int32) *Sqs {
	if maxNumberOfMessages <= 0 {
		maxNumberOfMessages = 1
	}
	return &Sqs{Queue: q, QueueName: queueName, MaxNumberOfMessages: maxNumberOfMessages}
}

func newSqsFromArgs(args map[string]any, deps Deps) (Producer, error) {
	queueName := serialize.Str(args, "queueName", "")
	if queueName == "" {
		return nil, fmt.Errorf("producers: sqs: missing required \"queueName\" argument")
	}
	if deps.Queue == nil {
		return nil, fmt.Errorf("producers: sqs: no Queue collaborator configured")
	}
	max := serialize.Int(args, "maxNumberOfMessages", 1)
	return NewSqs(deps.Queue, queueName, int32(max)), nil
}

func (p *Sqs) Next(ctx context.Context, stack *cleanup.Stack) (message.Message, bool, error) {
	for len(p.batch) == 0 {
		msgs, err := p.Queue.Receive(ctx, p.QueueName, p.MaxNumberOfMessages, sqsWaitSeconds)
		if err != nil {
			return message.Message{}, false, fmt.Errorf("producers: sqs: receive: %w", err)
		}
		p.batch = msgs
		if len(p.batch) == 0 {
			select {
			case <-ctx.Done():
				return message.Message{}, false, ctx.Err()
			default:
			}
		}
	}

	sqsMsg := p.batch[len(p.batch)-1]
	p.batch = p.batch[:len(p.batch)-1]

	msg, err := parseRaw(sqsMsg.Body, stack)
	if err != nil {
		return message.Message{}, false, fmt.Errorf("producers: sqs: parsing message body: %w", err)
	}
	p.current, p.hasCur = sqsMsg, true
	return msg, true, nil
}

func (p *Sqs) Report(ctx context.Context, result Result) error {
	if !p.hasCur {
		return nil
	}
	msg := p.current
	p.current, p.hasCur = queue.Message{}, false

	if result.Ok() {
		return p.Queue.Delete(ctx, p.QueueName, msg)
	}
	return p.Queue.ResetVisibility(ctx, p.QueueName, msg)
}
