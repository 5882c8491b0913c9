// SPDX-License-Identifier: AGPL-3.0-or-later

// Package expand implements the command expander: ${name} variable
// substitution across a Command's arglist and File output path.
package expand

import (
	"strconv"
	"strings"

	"hopline/pkg/message"
)

// Vars is the substitution context passed to Expand.
type Vars struct {
	BodyFile   string
	HeaderFile string
	OutputFile string
	PID        int
	Body       string
	// AssetPaths maps each asset's AssetSettings.ID to its localized
	// path, as produced by the Asset Localizer.
	AssetPaths map[string]string
}

const escapedBodyToken = "${escapedbodycontents}"

// Expand returns a new Command with every ${name} token in its arglist,
// and in its OutputChannel's filepath when it names a File, substituted
// per Vars. Arglist length is preserved; strings with no tokens are
// returned unchanged. Unknown names are left untouched.
func Expand(cmd message.Command, vars Vars) message.Command {
	table := vars.baseTable()

	// ${escapedbodycontents} is only computed if some arg actually
	// references it — the body can be very large, so a quoted copy of
	// it is not worth building on every command.
	needsEscaped := false
	for _, arg := range cmd.Arglist {
		if strings.Contains(arg, escapedBodyToken) {
			needsEscaped = true
			break
		}
	}
	if needsEscaped {
		table["escapedbodycontents"] = shellQuote(vars.Body)
	}

	out := cmd
	out.Arglist = make([]string, len(cmd.Arglist))
	for i, arg := range cmd.Arglist {
		out.Arglist[i] = substitute(arg, table)
	}

	output := cmd.Output
	if output.IsFile() {
		output = message.NewFile(substitute(output.Filepath, map[string]string{"bodyfile": vars.BodyFile}))
	}
	out.Output = output

	return out
}

func (v Vars) baseTable() map[string]string {
	table := map[string]string{
		"bodyfile":     v.BodyFile,
		"headerfile":   v.HeaderFile,
		"outputfile":   v.OutputFile,
		"pid":          strconv.Itoa(v.PID),
		"bodycontents": v.Body,
	}
	for id, path := range v.AssetPaths {
		if id == "" {
			continue
		}
		table[id] = path
	}
	return table
}

// substitute replaces every ${name} occurring in s whose name is a key
// of table; any other ${name} is left untouched.
func substitute(s string, table map[string]string) string {
	var b strings.Builder
	rest := s
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], "}")
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start

		b.WriteString(rest[:start])
		name := rest[start+2 : end]
		if val, ok := table[name]; ok {
			b.WriteString(val)
		} else {
			b.WriteString(rest[start : end+1])
		}
		rest = rest[end+1:]
	}
	return b.String()
}

// shellQuote produces a POSIX single-quoted form of s safe to splice
// into a shell command line: each embedded single quote is closed,
// escaped, and reopened.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
