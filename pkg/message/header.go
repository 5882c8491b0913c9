// SPDX-License-Identifier: AGPL-3.0-or-later

package message

import "hopline/pkg/serialize"

// Header is a Message's routing plan: an Encoding for its Body and the
// ordered remaining Steps.
type Header struct {
	Encoding Encoding
	Steps    []Step
}

// DefaultHeader is the zero-state value used when diffing for the
// minimal-dict encoding.
func DefaultHeader() Header { return Header{Encoding: DefaultEncoding()} }

func stepsToAny(steps []Step, min bool) []any {
	out := make([]any, len(steps))
	for i, s := range steps {
		if min {
			out[i] = s.MinDict()
		} else {
			out[i] = s.ToDict()
		}
	}
	return out
}

func (h Header) fieldsDict(steps []any) *serialize.Dict {
	d := serialize.NewDict().Set("encoding", string(h.Encoding.OrDefault()))
	if len(steps) > 0 {
		d.Set("steps", steps)
	}
	return d
}

// ToDict returns h's full structural representation.
func (h Header) ToDict() *serialize.Dict {
	return h.fieldsDict(stepsToAny(h.Steps, false))
}

// MinDict returns h's minimal-diff structural representation.
func (h Header) MinDict() *serialize.Dict {
	full := h.fieldsDict(stepsToAny(h.Steps, true))
	return serialize.Diff(full, DefaultHeader().fieldsDict(nil))
}

// HeaderFromDict reconstructs a Header, defaulting every missing key to
// its typed zero value.
func HeaderFromDict(m map[string]any) Header {
	rawSteps := serialize.Slice(m, "steps")
	steps := make([]Step, 0, len(rawSteps))
	for _, raw := range rawSteps {
		if sm, ok := raw.(map[string]any); ok {
			steps = append(steps, StepFromDict(sm))
		}
	}
	return Header{
		Encoding: ParseEncoding(serialize.Str(m, "encoding", string(PlainText))),
		Steps:    steps,
	}
}

// PopStep returns the head Step and a new Header holding the remaining
// tail, preserving Encoding. If h has no Steps, the head is EmptyStep()
// and the returned Header is h unchanged.
func PopStep(h Header) (Step, Header) {
	if len(h.Steps) == 0 {
		return EmptyStep(), h
	}
	return h.Steps[0], Header{Encoding: h.Encoding, Steps: h.Steps[1:]}
}

// PeekStep returns the head Step without popping it, or EmptyStep() if h
// has no Steps.
func PeekStep(h Header) Step {
	if len(h.Steps) == 0 {
		return EmptyStep()
	}
	return h.Steps[0]
}

// PeekTrigger returns the head Step's Trigger, or TriggerNothing if h
// has no Steps.
func PeekTrigger(h Header) Trigger {
	return PeekStep(h).trigger()
}
