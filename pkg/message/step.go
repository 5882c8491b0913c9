// SPDX-License-Identifier: AGPL-3.0-or-later

package message

import "hopline/pkg/serialize"

// EmptyStepID is the reserved id of the sentinel Step returned by
// PeekStep when a Header has no Steps.
const EmptyStepID = "NPIPES_EMPTY"

// Step is a single stage in a Header's ordered plan: what to run, which
// assets it needs localized first, and where its successor is sent.
type Step struct {
	ID          string
	Trigger     Trigger
	Command     Command
	StepTimeout int
	Assets      []Asset
	Protocol    Protocol
	Description string
}

// EmptyStep returns the sentinel Step with id EmptyStepID, used wherever
// a non-existent Step is requested rather than returning an error.
func EmptyStep() Step {
	return Step{
		ID:       EmptyStepID,
		Trigger:  DefaultTrigger(),
		Command:  DefaultCommand(),
		Protocol: DefaultProtocol(),
	}
}

// DefaultStep is the zero-state value used when diffing for the
// minimal-dict encoding.
func DefaultStep() Step {
	return Step{Trigger: DefaultTrigger(), Command: DefaultCommand(), Protocol: DefaultProtocol()}
}

func assetsToAny(assets []Asset, min bool) []any {
	out := make([]any, len(assets))
	for i, a := range assets {
		if min {
			out[i] = a.MinDict()
		} else {
			out[i] = a.ToDict()
		}
	}
	return out
}

// trigger returns s.Trigger, substituting TriggerNothing for the Go zero
// value (nil interface, from a struct literal that never set Trigger) so
// an unset field behaves identically to an explicit default construction.
func (s Step) trigger() Trigger {
	if s.Trigger == nil {
		return TriggerNothing{}
	}
	return s.Trigger
}

// StepTrigger returns s's Trigger, substituting TriggerNothing for the
// Go zero value. Callers outside this package (the Trigger Dispatcher)
// use this instead of reading s.Trigger directly so a struct literal
// that never set Trigger behaves like an explicit TriggerNothing{}.
func StepTrigger(s Step) Trigger { return s.trigger() }

func (s Step) fieldsDict(trigger, command *serialize.Dict, assets []any) *serialize.Dict {
	d := serialize.NewDict().Set("id", s.ID)
	if trigger.Len() > 0 {
		d.Set("trigger", trigger)
	}
	if command.Len() > 0 {
		d.Set("command", command)
	}
	d.Set("stepTimeout", s.StepTimeout)
	if len(assets) > 0 {
		d.Set("assets", assets)
	}
	d.Set("protocol", string(s.Protocol.OrDefault())).
		Set("description", s.Description)
	return d
}

// ToDict returns s's full structural representation.
func (s Step) ToDict() *serialize.Dict {
	t := s.trigger()
	return s.fieldsDict(t.ToDict(), s.Command.ToDict(), assetsToAny(s.Assets, false))
}

// MinDict returns s's minimal-diff structural representation.
func (s Step) MinDict() *serialize.Dict {
	t := s.trigger()
	full := s.fieldsDict(t.MinDict(), s.Command.MinDict(), assetsToAny(s.Assets, true))
	def := DefaultStep()
	defaults := def.fieldsDict(def.trigger().MinDict(), def.Command.MinDict(), nil)
	return serialize.Diff(full, defaults)
}

// StepFromDict reconstructs a Step, defaulting every missing key to its
// typed zero value.
func StepFromDict(m map[string]any) Step {
	rawAssets := serialize.Slice(m, "assets")
	assets := make([]Asset, 0, len(rawAssets))
	for _, raw := range rawAssets {
		if am, ok := raw.(map[string]any); ok {
			assets = append(assets, AssetFromDict(am))
		}
	}
	return Step{
		ID:          serialize.Str(m, "id", ""),
		Trigger:     TriggerFromDict(serialize.SubDict(m, "trigger")),
		Command:     CommandFromDict(serialize.SubDict(m, "command")),
		StepTimeout: serialize.Int(m, "stepTimeout", 0),
		Assets:      assets,
		Protocol:    ParseProtocol(serialize.Str(m, "protocol", string(Npipes))),
		Description: serialize.Str(m, "description", ""),
	}
}
