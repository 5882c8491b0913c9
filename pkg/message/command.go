// SPDX-License-Identifier: AGPL-3.0-or-later

package message

import "hopline/pkg/serialize"

// Command is what a Step runs: an argv, an optional wall-clock timeout,
// whether the body is piped to stdin, and where the result comes from.
type Command struct {
	Arglist           []string
	Timeout           int
	InputChannelStdin bool
	Output            OutputChannel
}

// DefaultCommand is the zero-state value used when diffing for the
// minimal-dict encoding.
func DefaultCommand() Command { return Command{Output: DefaultOutputChannel()} }

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func (c Command) fieldsDict(output *serialize.Dict) *serialize.Dict {
	d := serialize.NewDict().
		Set("arglist", anySlice(c.Arglist)).
		Set("timeout", c.Timeout).
		Set("inputChannelStdin", c.InputChannelStdin)
	if output.Len() > 0 {
		d.Set("outputChannel", output)
	}
	return d
}

// ToDict returns c's full structural representation.
func (c Command) ToDict() *serialize.Dict {
	return c.fieldsDict(c.Output.ToDict())
}

// MinDict returns c's minimal-diff structural representation.
func (c Command) MinDict() *serialize.Dict {
	full := c.fieldsDict(c.Output.MinDict())
	return serialize.Diff(full, DefaultCommand().fieldsDict(DefaultOutputChannel().MinDict()))
}

// CommandFromDict reconstructs a Command, defaulting every missing key
// to its typed zero value.
func CommandFromDict(m map[string]any) Command {
	return Command{
		Arglist:           serialize.StrSlice(m, "arglist"),
		Timeout:           serialize.Int(m, "timeout", 0),
		InputChannelStdin: serialize.Bool(m, "inputChannelStdin", false),
		Output:            OutputChannelFromDict(serialize.SubDict(m, "outputChannel")),
	}
}
