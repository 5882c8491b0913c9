// SPDX-License-Identifier: AGPL-3.0-or-later

package message

import (
	"fmt"
	"strings"

	"hopline/pkg/serialize"
)

// Message = (Header, Body). Immutable once constructed; lives only for
// the duration of one engine iteration.
type Message struct {
	Header Header
	Body   Body
}

// New constructs a Message.
func New(h Header, b Body) Message { return Message{Header: h, Body: b} }

// ToJSONLines renders m as the Npipes wire format: the header's minimal
// JSON on the first line, the body's minimal JSON on the second.
func ToJSONLines(m Message) string {
	return serialize.ToJSON(m.Header.MinDict()) + "\n" + serialize.ToJSON(m.Body.MinDict())
}

// FromJSONLines parses the Npipes wire format produced by ToJSONLines.
func FromJSONLines(s string) (Message, error) {
	headerLine, bodyLine, found := strings.Cut(s, "\n")
	if !found {
		return Message{}, fmt.Errorf("message: malformed JSON-lines message: missing header/body separator")
	}
	headerMap, err := serialize.FromJSON(headerLine)
	if err != nil {
		return Message{}, fmt.Errorf("message: decoding header: %w", err)
	}
	bodyMap, err := serialize.FromJSON(bodyLine)
	if err != nil {
		return Message{}, fmt.Errorf("message: decoding body: %w", err)
	}
	return Message{Header: HeaderFromDict(headerMap), Body: BodyFromDict(bodyMap)}, nil
}
