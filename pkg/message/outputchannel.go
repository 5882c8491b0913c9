// SPDX-License-Identifier: AGPL-3.0-or-later

package message

import (
	"strings"

	"hopline/pkg/serialize"
)

// OutputChannel discriminators, exact spellings preserved on emit.
const (
	OutputStdout = "Stdout"
	OutputFile   = "File"
)

// OutputChannel is a tagged variant: either Stdout, or a File at
// Filepath. The literal filepath "${unique}" requests engine-generated
// unique naming; substitution of that token happens in the command
// expander, not here.
type OutputChannel struct {
	Kind     string
	Filepath string
}

// Stdout constructs the Stdout variant.
func Stdout() OutputChannel { return OutputChannel{Kind: OutputStdout} }

// NewFile constructs the File variant at path.
func NewFile(path string) OutputChannel { return OutputChannel{Kind: OutputFile, Filepath: path} }

// DefaultOutputChannel is the zero-state value used when diffing for the
// minimal-dict encoding: a bare Command writes to stdout.
func DefaultOutputChannel() OutputChannel { return Stdout() }

// IsFile reports whether o is the File variant.
func (o OutputChannel) IsFile() bool { return o.Kind == OutputFile }

// kind normalizes the Go zero value ("", from a struct literal that
// never set OutputChannel) to Stdout, so an unset field behaves
// identically to an explicit Stdout() construction.
func (o OutputChannel) kind() string {
	if o.Kind == "" {
		return OutputStdout
	}
	return o.Kind
}

func (o OutputChannel) fieldsDict() *serialize.Dict {
	d := serialize.NewDict().Set("type", o.kind())
	if o.kind() == OutputFile {
		d.Set("filepath", o.Filepath)
	}
	return d
}

// ToDict returns o's full structural representation.
func (o OutputChannel) ToDict() *serialize.Dict {
	return o.fieldsDict()
}

// MinDict returns o's minimal-diff structural representation: an empty
// Dict when o is the default Stdout channel, so a parent that embeds an
// OutputChannel can drop the whole field (from-dict defaults a missing
// outputChannel to Stdout).
func (o OutputChannel) MinDict() *serialize.Dict {
	return serialize.Diff(o.fieldsDict(), DefaultOutputChannel().fieldsDict())
}

// OutputChannelFromDict reconstructs an OutputChannel, defaulting to
// Stdout for a missing or unrecognized type.
func OutputChannelFromDict(m map[string]any) OutputChannel {
	t := serialize.Str(m, "type", OutputStdout)
	if strings.EqualFold(t, OutputFile) {
		return NewFile(serialize.Str(m, "filepath", ""))
	}
	return Stdout()
}
