// SPDX-License-Identifier: AGPL-3.0-or-later

// Package triggers implements the Trigger Dispatcher (spec §4.7): each
// Trigger variant resolves to a concrete send against its external
// collaborator, picking the wire format from the outgoing message's
// head step Protocol.
package triggers

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"hopline/pkg/blobstore"
	"hopline/pkg/lambdainvoke"
	"hopline/pkg/legacyenvelope"
	"hopline/pkg/message"
	"hopline/pkg/outcome"
	"hopline/pkg/overflow"
	"hopline/pkg/queue"
	"hopline/pkg/s3path"
	"hopline/pkg/topic"
)

// sent is the Unit-like type Dispatcher.Send's Outcome carries: the
// dispatch's only meaningful result is whether it succeeded.
type sent = struct{}

// Dispatcher sends a Step's successor Message onward via its Trigger,
// backed by the external-collaborator interfaces from pkg/blobstore,
// pkg/queue, pkg/topic, and pkg/lambdainvoke.
type Dispatcher struct {
	Topic      topic.Topic
	Queue      queue.Queue
	Lambda     lambdainvoke.FunctionInvoker
	Store      blobstore.Store
	HTTPClient *http.Client
	// RandomSuffix names files written by the Filesystem Trigger and
	// blobs written by auto-overflow.
	RandomSuffix overflow.RandomSuffix
}

// Send dispatches msg via trigger, choosing the wire format from msg's
// own head step (spec §4.7's "wire format selection").
func (d *Dispatcher) Send(ctx context.Context, trigger message.Trigger, msg message.Message) outcome.Outcome[sent] {
	switch t := trigger.(type) {
	case message.TriggerNothing:
		return outcome.Success(sent{})
	case message.TriggerSns:
		return d.sendSns(ctx, t, msg)
	case message.TriggerSqs:
		return d.sendSqs(ctx, t, msg)
	case message.TriggerGet:
		return d.sendHTTP(ctx, http.MethodGet, t.URI, msg)
	case message.TriggerPost:
		return d.sendHTTP(ctx, http.MethodPost, t.URI, msg)
	case message.TriggerLambda:
		return d.sendLambda(ctx, t, msg)
	case message.TriggerFilesystem:
		return d.sendFilesystem(t, msg)
	default:
		return outcome.Failure[sent](fmt.Sprintf("triggers: unknown trigger variant %T", trigger))
	}
}

// wireFormat renders msg per its own head step's Protocol.
func wireFormat(msg message.Message) (string, error) {
	head := message.PeekStep(msg.Header)
	if head.Protocol.OrDefault() == message.LegacyEnvelope {
		return legacyenvelope.Encode(msg)
	}
	return message.ToJSONLines(msg), nil
}

func (d *Dispatcher) sendSns(ctx context.Context, t message.TriggerSns, msg message.Message) outcome.Outcome[sent] {
	wire, err := wireFormat(msg)
	if err != nil {
		return outcome.Failure[sent](err.Error())
	}
	if err := d.Topic.Publish(ctx, t.Topic, wire); err != nil {
		return outcome.Failure[sent](err.Error())
	}
	return outcome.Success(sent{})
}

func (d *Dispatcher) sendSqs(ctx context.Context, t message.TriggerSqs, msg message.Message) outcome.Outcome[sent] {
	overflowed, err := overflow.Apply(ctx, msg, s3path.Parse(t.OverflowPath), d.Store, d.RandomSuffix)
	if err != nil {
		return outcome.Failure[sent](fmt.Sprintf("triggers: sqs overflow: %v", err))
	}
	wire, err := wireFormat(overflowed)
	if err != nil {
		return outcome.Failure[sent](err.Error())
	}

	serviceMD5, err := d.Queue.Send(ctx, t.QueueName, wire)
	if err != nil {
		return outcome.Failure[sent](err.Error())
	}
	sum := md5.Sum([]byte(wire))
	if serviceMD5 != hex.EncodeToString(sum[:]) {
		return outcome.Failure[sent]("triggers: sqs service-returned MD5 does not match locally computed MD5")
	}
	return outcome.Success(sent{})
}

func (d *Dispatcher) sendHTTP(ctx context.Context, method, uri string, msg message.Message) outcome.Outcome[sent] {
	wire, err := wireFormat(msg)
	if err != nil {
		return outcome.Failure[sent](err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, method, uri, strings.NewReader(wire))
	if err != nil {
		return outcome.Failure[sent](fmt.Sprintf("triggers: building request: %v", err))
	}

	client := d.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return outcome.Failure[sent](fmt.Sprintf("triggers: %s %s: %v", method, uri, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return outcome.Failure[sent](fmt.Sprintf("triggers: %s %s: status %s", method, uri, resp.Status))
	}
	return outcome.Success(sent{})
}

func (d *Dispatcher) sendLambda(ctx context.Context, t message.TriggerLambda, msg message.Message) outcome.Outcome[sent] {
	wire, err := wireFormat(msg)
	if err != nil {
		return outcome.Failure[sent](err.Error())
	}
	status, err := d.Lambda.InvokeEvent(ctx, t.Name, []byte(wire))
	if err != nil {
		return outcome.Failure[sent](err.Error())
	}
	if status != 202 {
		return outcome.Failure[sent](fmt.Sprintf("triggers: lambda %s returned status %d, want 202", t.Name, status))
	}
	return outcome.Success(sent{})
}

func (d *Dispatcher) sendFilesystem(t message.TriggerFilesystem, msg message.Message) outcome.Outcome[sent] {
	wire, err := wireFormat(msg)
	if err != nil {
		return outcome.Failure[sent](err.Error())
	}
	path := filepath.Join(t.Directory, d.RandomSuffix())
	if err := os.WriteFile(path, []byte(wire), 0o644); err != nil {
		return outcome.Failure[sent](fmt.Sprintf("triggers: writing %s: %v", path, err))
	}
	return outcome.Success(sent{})
}
