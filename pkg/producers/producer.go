// SPDX-License-Identifier: AGPL-3.0-or-later

// Package producers implements the Producer Protocol (spec §4.9): the
// pull side of the pipeline, yielding Messages to the Engine Loop and
// receiving back the Outcome of processing each one so it can ack,
// delete, or requeue at the transport.
//
// Per SPEC_FULL.md §9's redesign note, this drops the original
// coroutine's two-step send/yield dance (an artifact of Python generator
// semantics, not a requirement) in favor of a plain Next/Report callback
// pair.
package producers

import (
	"context"
	"fmt"

	"hopline/pkg/cleanup"
	"hopline/pkg/legacyenvelope"
	"hopline/pkg/message"
	"hopline/pkg/outcome"
	"hopline/pkg/queue"
	"hopline/pkg/registry"
)

// Result is the Outcome the Engine Loop reports back for the Message
// most recently returned by Next. Its value carries nothing of
// interest — only Ok()/Failed() matters to a Producer's ack decision —
// so it shares the struct{} payload Dispatcher.Send already uses for
// the same reason.
type Result = outcome.Outcome[struct{}]

// Producer is the pull-side stream abstraction. Implementations are not
// required to be safe for concurrent use; the Engine Loop drives one
// Producer from a single goroutine.
type Producer interface {
	// Next returns the next Message to process. ok is false when the
	// Producer has definitively run out of work (CommandLine after its
	// one message, Filesystem with QuitWhenEmpty after a dry pass); a
	// Producer that polls indefinitely (Sqs, Filesystem without
	// QuitWhenEmpty) blocks inside Next rather than returning ok=false.
	//
	// Any temporary files created while turning the raw wire message
	// into a Message (the Legacy Envelope Bridge's generated output and
	// full-message files) are registered on stack, so the caller's
	// per-iteration cleanup stack unlinks them alongside its own
	// scratch files.
	Next(ctx context.Context, stack *cleanup.Stack) (msg message.Message, ok bool, err error)

	// Report delivers the Engine Loop's Outcome for the Message most
	// recently returned by Next, letting the Producer acknowledge,
	// delete, or make it re-deliverable at the transport.
	Report(ctx context.Context, result Result) error
}

// Deps bundles the external collaborators a Factory may need to build a
// Producer; only the fields a given producer kind actually uses must be
// populated.
type Deps struct {
	Queue queue.Queue
}

// Factory constructs a Producer from the producerArgs mapping decoded
// from NPIPES_producerArgs (spec §6).
type Factory func(args map[string]any, deps Deps) (Producer, error)

var factories = registry.New[Factory]()

func init() {
	factories.Register("sqs", newSqsFromArgs)
	factories.Register("filesystem", newFilesystemFromArgs)
	factories.Register("commandline", newCommandLineFromArgs)
}

// New resolves name (the NPIPES_producer module identifier) to a
// Producer, constructing it from args (the decoded NPIPES_producerArgs
// mapping).
func New(name string, args map[string]any, deps Deps) (Producer, error) {
	factory, ok := factories.Get(name)
	if !ok {
		return nil, fmt.Errorf("producers: unknown producer %q (available: %v)", name, factories.IDs())
	}
	return factory(args, deps)
}

// parseRaw turns a raw wire-format string into a Message, recognizing
// the Legacy Envelope Bridge's prefix and falling back to the Npipes
// JSON-lines format otherwise.
func parseRaw(raw string, stack *cleanup.Stack) (message.Message, error) {
	if legacyenvelope.IsLegacyEnvelope(raw) {
		return legacyenvelope.Decode(raw, stack)
	}
	return message.FromJSONLines(raw)
}
