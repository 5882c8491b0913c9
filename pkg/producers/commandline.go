// SPDX-License-Identifier: AGPL-3.0-or-later

package producers

import (
	"context"
	"fmt"
	"io"
	"os"

	"hopline/pkg/cleanup"
	"hopline/pkg/message"
	"hopline/pkg/serialize"
)

// CommandLine yields exactly one Message, read from File, Message, or
// (if neither is set) Stdin — grounded on
// original_source/npipes/producers/producer_commandline.py's --file /
// --message / stdin fallback. Intended for one-shot invocations piped
// into a shell, not long-running service operation.
type CommandLine struct {
	File    string
	Message string
	Stdin   io.Reader

	done bool
}

// NewCommandLine constructs a CommandLine producer. file and msg
// correspond to the producer's --file and --message arguments; at most
// one is expected to be non-empty.
func NewCommandLine(file, msg string) *CommandLine {
	return &CommandLine{File: file, Message: msg}
}

func newCommandLineFromArgs(args map[string]any, _ Deps) (Producer, error) {
	return NewCommandLine(
		serialize.Str(args, "file", ""),
		serialize.Str(args, "message", ""),
	), nil
}

func (p *CommandLine) Next(_ context.Context, stack *cleanup.Stack) (message.Message, bool, error) {
	if p.done {
		return message.Message{}, false, nil
	}
	p.done = true

	raw, err := p.read()
	if err != nil {
		return message.Message{}, false, fmt.Errorf("producers: commandline: %w", err)
	}
	msg, err := parseRaw(raw, stack)
	if err != nil {
		return message.Message{}, false, fmt.Errorf("producers: commandline: %w", err)
	}
	return msg, true, nil
}

// Report is a no-op: there is no transport-side delivery state to ack
// for a message that came from a file, a literal string, or stdin.
func (p *CommandLine) Report(context.Context, Result) error { return nil }

func (p *CommandLine) read() (string, error) {
	switch {
	case p.File != "":
		b, err := os.ReadFile(p.File)
		return string(b), err
	case p.Message != "":
		return p.Message, nil
	default:
		stdin := p.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
}
