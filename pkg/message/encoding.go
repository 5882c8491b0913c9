// SPDX-License-Identifier: AGPL-3.0-or-later

// Package message implements the wire data model shared by every worker:
// Message, Header, Step, and the Trigger/Protocol/Command/Asset/Body
// variants nested inside them. Every exported type in this package is
// immutable once constructed; operations like PopStep return a new value
// rather than mutating the receiver.
package message

import "strings"

// Encoding names the text transform applied to a Body's string content.
// PlainText is the default; GzB64 is produced only by the auto-overflow
// path for over-budget bodies, and is decoded for messages received from
// producers that used it.
type Encoding string

const (
	PlainText Encoding = "plaintext"
	GzB64     Encoding = "gzb64"
)

// DefaultEncoding is the zero-state value used when diffing for the
// minimal-dict encoding.
func DefaultEncoding() Encoding { return PlainText }

// ParseEncoding parses e case-insensitively, defaulting to PlainText for
// any unrecognized value.
func ParseEncoding(e string) Encoding {
	if strings.EqualFold(e, string(GzB64)) {
		return GzB64
	}
	return PlainText
}

// OrDefault normalizes the Go zero value ("", from a struct literal that
// never set Encoding) to PlainText.
func (e Encoding) OrDefault() Encoding {
	if e == "" {
		return PlainText
	}
	return e
}
