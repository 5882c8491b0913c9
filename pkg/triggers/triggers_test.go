// SPDX-License-Identifier: AGPL-3.0-or-later

package triggers

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"hopline/pkg/message"
	"hopline/pkg/queue"
)

type fakeTopic struct {
	published []string
	err       error
}

func (f *fakeTopic) Publish(ctx context.Context, topicArn, body string) error {
	f.published = append(f.published, body)
	return f.err
}

type fakeQueue struct {
	sent []string
	md5  string
}

func (f *fakeQueue) Send(ctx context.Context, queueName, body string) (string, error) {
	f.sent = append(f.sent, body)
	if f.md5 != "" {
		return f.md5, nil
	}
	sum := md5.Sum([]byte(body))
	return hex.EncodeToString(sum[:]), nil
}
func (f *fakeQueue) Receive(ctx context.Context, queueName string, max, wait int32) ([]queue.Message, error) {
	return nil, nil
}
func (f *fakeQueue) Delete(ctx context.Context, queueName string, msg queue.Message) error {
	return nil
}
func (f *fakeQueue) ResetVisibility(ctx context.Context, queueName string, msg queue.Message) error {
	return nil
}

func simpleMessage() message.Message {
	return message.Message{
		Header: message.Header{Steps: []message.Step{{ID: "step", Command: message.DefaultCommand()}}},
		Body:   message.InString("hi", message.PlainText),
	}
}

func TestSend_Nothing_AlwaysSucceeds(t *testing.T) {
	d := &Dispatcher{}
	out := d.Send(context.Background(), message.TriggerNothing{}, simpleMessage())
	if !out.Ok() {
		t.Fatalf("expected Success, got Failure(%s)", out.Reason())
	}
}

func TestSend_Sns_PublishesWireFormat(t *testing.T) {
	ft := &fakeTopic{}
	d := &Dispatcher{Topic: ft}
	out := d.Send(context.Background(), message.TriggerSns{Topic: "arn:topic"}, simpleMessage())
	if !out.Ok() {
		t.Fatalf("expected Success, got Failure(%s)", out.Reason())
	}
	if len(ft.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(ft.published))
	}
}

func TestSend_Sqs_VerifiesMD5(t *testing.T) {
	fq := &fakeQueue{}
	d := &Dispatcher{Queue: fq}
	out := d.Send(context.Background(), message.TriggerSqs{QueueName: "q"}, simpleMessage())
	if !out.Ok() {
		t.Fatalf("expected Success, got Failure(%s)", out.Reason())
	}
}

func TestSend_Sqs_MismatchedMD5IsFailure(t *testing.T) {
	fq := &fakeQueue{md5: "0000000000000000000000000000000"}
	d := &Dispatcher{Queue: fq}
	out := d.Send(context.Background(), message.TriggerSqs{QueueName: "q"}, simpleMessage())
	if out.Ok() {
		t.Fatalf("expected Failure on MD5 mismatch")
	}
}

func TestSend_Get_IssuesRequestWithBody(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := &Dispatcher{}
	out := d.Send(context.Background(), message.TriggerGet{URI: srv.URL}, simpleMessage())
	if !out.Ok() {
		t.Fatalf("expected Success, got Failure(%s)", out.Reason())
	}
	if gotBody == "" {
		t.Error("expected a non-empty request body")
	}
}

func TestSend_Get_NonSuccessStatusIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := &Dispatcher{}
	out := d.Send(context.Background(), message.TriggerGet{URI: srv.URL}, simpleMessage())
	if out.Ok() {
		t.Fatalf("expected Failure for 500 response")
	}
}

func TestSend_Filesystem_WritesUniqueFile(t *testing.T) {
	dir := t.TempDir()
	d := &Dispatcher{RandomSuffix: func() string { return "fixed-name" }}
	out := d.Send(context.Background(), message.TriggerFilesystem{Directory: dir}, simpleMessage())
	if !out.Ok() {
		t.Fatalf("expected Success, got Failure(%s)", out.Reason())
	}
	body, err := os.ReadFile(filepath.Join(dir, "fixed-name"))
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if len(body) == 0 {
		t.Error("expected non-empty written content")
	}
}
