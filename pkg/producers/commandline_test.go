// SPDX-License-Identifier: AGPL-3.0-or-later

package producers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hopline/pkg/cleanup"
	"hopline/pkg/message"
)

func TestCommandLine_FromLiteralMessage_YieldsOnceThenDone(t *testing.T) {
	p := NewCommandLine("", message.ToJSONLines(simpleLine()))
	stack := cleanup.NewStack()
	defer stack.Close()

	msg, ok, err := p.Next(context.Background(), stack)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true on first call")
	}
	if msg.Body.Value != "hi" {
		t.Errorf("Body.Value = %q, want %q", msg.Body.Value, "hi")
	}

	_, ok, err = p.Next(context.Background(), stack)
	if err != nil {
		t.Fatalf("second Next: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false after the single message is exhausted")
	}
}

func TestCommandLine_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "msg.txt")
	if err := os.WriteFile(path, []byte(message.ToJSONLines(simpleLine())), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewCommandLine(path, "")
	stack := cleanup.NewStack()
	defer stack.Close()

	msg, ok, err := p.Next(context.Background(), stack)
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if msg.Body.Value != "hi" {
		t.Errorf("Body.Value = %q, want %q", msg.Body.Value, "hi")
	}
}

func TestCommandLine_FromStdin(t *testing.T) {
	p := NewCommandLine("", "")
	p.Stdin = strings.NewReader(message.ToJSONLines(simpleLine()))
	stack := cleanup.NewStack()
	defer stack.Close()

	msg, ok, err := p.Next(context.Background(), stack)
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if msg.Body.Value != "hi" {
		t.Errorf("Body.Value = %q, want %q", msg.Body.Value, "hi")
	}
}

func simpleLine() message.Message {
	return message.Message{
		Header: message.Header{Steps: []message.Step{{ID: "step", Command: message.DefaultCommand()}}},
		Body:   message.InString("hi", message.PlainText),
	}
}
