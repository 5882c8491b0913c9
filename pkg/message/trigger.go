// SPDX-License-Identifier: AGPL-3.0-or-later

package message

import (
	"strings"

	"hopline/pkg/registry"
	"hopline/pkg/serialize"
)

// Trigger discriminators, exact spellings preserved on emit.
const (
	TriggerKindNothing    = "Nothing"
	TriggerKindSns        = "SNS"
	TriggerKindSqs        = "SQS"
	TriggerKindGet        = "Get"
	TriggerKindPost       = "Post"
	TriggerKindLambda     = "Lambda"
	TriggerKindFilesystem = "Filesystem"
)

// Trigger is routing data describing how a Step's successor Message
// should be dispatched. It carries no transport behavior itself — see
// pkg/triggers for the Sender implementations resolved from a Trigger's
// Kind.
type Trigger interface {
	Kind() string
	ToDict() *serialize.Dict
	MinDict() *serialize.Dict
}

// DefaultTrigger is the zero-state value used when diffing for the
// minimal-dict encoding.
func DefaultTrigger() Trigger { return TriggerNothing{} }

func defaultTriggerFields() *serialize.Dict { return DefaultTrigger().ToDict() }

// TriggerNothing is the no-op variant: no successor is dispatched.
type TriggerNothing struct{}

func (TriggerNothing) Kind() string { return TriggerKindNothing }
func (TriggerNothing) ToDict() *serialize.Dict {
	return serialize.NewDict().Set("type", TriggerKindNothing)
}
func (t TriggerNothing) MinDict() *serialize.Dict {
	return serialize.Diff(t.ToDict(), defaultTriggerFields())
}

// TriggerSns publishes the successor to an SNS topic.
type TriggerSns struct{ Topic string }

func (t TriggerSns) Kind() string { return TriggerKindSns }
func (t TriggerSns) ToDict() *serialize.Dict {
	return serialize.NewDict().Set("type", TriggerKindSns).Set("topic", t.Topic)
}
func (t TriggerSns) MinDict() *serialize.Dict {
	return serialize.Diff(t.ToDict(), defaultTriggerFields())
}

// TriggerSqs enqueues the successor onto an SQS queue, auto-overflowing
// to OverflowPath when the serialized message exceeds budget.
type TriggerSqs struct {
	QueueName    string
	OverflowPath string
}

func (t TriggerSqs) Kind() string { return TriggerKindSqs }
func (t TriggerSqs) ToDict() *serialize.Dict {
	return serialize.NewDict().
		Set("type", TriggerKindSqs).
		Set("queueName", t.QueueName).
		Set("overflowPath", t.OverflowPath)
}
func (t TriggerSqs) MinDict() *serialize.Dict {
	return serialize.Diff(t.ToDict(), defaultTriggerFields())
}

// TriggerGet issues an HTTP GET carrying the successor as its body.
type TriggerGet struct{ URI string }

func (t TriggerGet) Kind() string { return TriggerKindGet }
func (t TriggerGet) ToDict() *serialize.Dict {
	return serialize.NewDict().Set("type", TriggerKindGet).Set("uri", t.URI)
}
func (t TriggerGet) MinDict() *serialize.Dict {
	return serialize.Diff(t.ToDict(), defaultTriggerFields())
}

// TriggerPost issues an HTTP POST carrying the successor as its body.
type TriggerPost struct{ URI string }

func (t TriggerPost) Kind() string { return TriggerKindPost }
func (t TriggerPost) ToDict() *serialize.Dict {
	return serialize.NewDict().Set("type", TriggerKindPost).Set("uri", t.URI)
}
func (t TriggerPost) MinDict() *serialize.Dict {
	return serialize.Diff(t.ToDict(), defaultTriggerFields())
}

// TriggerLambda invokes a Lambda function by name with the successor as
// its event payload.
type TriggerLambda struct{ Name string }

func (t TriggerLambda) Kind() string { return TriggerKindLambda }
func (t TriggerLambda) ToDict() *serialize.Dict {
	return serialize.NewDict().Set("type", TriggerKindLambda).Set("name", t.Name)
}
func (t TriggerLambda) MinDict() *serialize.Dict {
	return serialize.Diff(t.ToDict(), defaultTriggerFields())
}

// TriggerFilesystem writes the successor to a uniquely named file in
// Directory.
type TriggerFilesystem struct{ Directory string }

func (t TriggerFilesystem) Kind() string { return TriggerKindFilesystem }
func (t TriggerFilesystem) ToDict() *serialize.Dict {
	return serialize.NewDict().Set("type", TriggerKindFilesystem).Set("directory", t.Directory)
}
func (t TriggerFilesystem) MinDict() *serialize.Dict {
	return serialize.Diff(t.ToDict(), defaultTriggerFields())
}

type triggerCtor func(map[string]any) Trigger

var triggerRegistry = registry.New[triggerCtor]()

func registerTrigger(kind string, ctor triggerCtor) {
	triggerRegistry.Register(strings.ToLower(kind), ctor)
}

func init() {
	registerTrigger(TriggerKindNothing, func(map[string]any) Trigger { return TriggerNothing{} })
	registerTrigger(TriggerKindSns, func(m map[string]any) Trigger {
		return TriggerSns{Topic: serialize.Str(m, "topic", "")}
	})
	registerTrigger(TriggerKindSqs, func(m map[string]any) Trigger {
		return TriggerSqs{
			QueueName:    serialize.Str(m, "queueName", ""),
			OverflowPath: serialize.Str(m, "overflowPath", ""),
		}
	})
	registerTrigger(TriggerKindGet, func(m map[string]any) Trigger {
		return TriggerGet{URI: serialize.Str(m, "uri", "")}
	})
	registerTrigger(TriggerKindPost, func(m map[string]any) Trigger {
		return TriggerPost{URI: serialize.Str(m, "uri", "")}
	})
	registerTrigger(TriggerKindLambda, func(m map[string]any) Trigger {
		return TriggerLambda{Name: serialize.Str(m, "name", "")}
	})
	registerTrigger(TriggerKindFilesystem, func(m map[string]any) Trigger {
		return TriggerFilesystem{Directory: serialize.Str(m, "directory", "")}
	})
}

// TriggerFromDict dispatches on the "type" discriminator, case-insensitively,
// defaulting to TriggerNothing for a missing or unrecognized type.
func TriggerFromDict(m map[string]any) Trigger {
	t := serialize.Str(m, "type", TriggerKindNothing)
	if ctor, ok := triggerRegistry.Get(strings.ToLower(t)); ok {
		return ctor(m)
	}
	return TriggerNothing{}
}
