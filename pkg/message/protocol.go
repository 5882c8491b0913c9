// SPDX-License-Identifier: AGPL-3.0-or-later

package message

import "strings"

// Protocol selects the wire format a Trigger uses when it emits a Step's
// successor Message.
type Protocol string

const (
	Npipes         Protocol = "npipes"
	LegacyEnvelope Protocol = "EZQ"
)

// DefaultProtocol is the zero-state value used when diffing for the
// minimal-dict encoding, and the fallback when a successor has no steps
// (see the Trigger Dispatcher's wire-format selection).
func DefaultProtocol() Protocol { return Npipes }

// ParseProtocol parses p case-insensitively, defaulting to Npipes for
// any unrecognized value.
func ParseProtocol(p string) Protocol {
	if strings.EqualFold(p, string(LegacyEnvelope)) {
		return LegacyEnvelope
	}
	return Npipes
}

// OrDefault normalizes the Go zero value ("", from a struct literal that
// never set Protocol) to Npipes, so an unset field behaves identically
// to an explicit default construction.
func (p Protocol) OrDefault() Protocol {
	if p == "" {
		return Npipes
	}
	return p
}
