// SPDX-License-Identifier: AGPL-3.0-or-later

package message

import (
	"testing"

	"hopline/pkg/s3path"
	"hopline/pkg/serialize"
)

func roundTripStep(t *testing.T, s Step) Step {
	t.Helper()
	m, err := serialize.FromJSON(serialize.ToJSON(s.ToDict()))
	if err != nil {
		t.Fatalf("decoding full dict: %v", err)
	}
	return StepFromDict(m)
}

func TestStep_FromDictToDict_RoundTrips(t *testing.T) {
	s := Step{
		ID:      "step one",
		Trigger: TriggerSqs{QueueName: "Q", OverflowPath: "s3://bucket/overflow"},
		Command: Command{
			Arglist: []string{"cat", "${bodyfile}"},
			Output:  NewFile("out.txt"),
		},
		StepTimeout: 30,
		Assets: []Asset{
			S3Asset{Path: s3path.New("bucket", "key"), Opts: AssetSettings{ID: "a"}},
		},
		Protocol:    LegacyEnvelope,
		Description: "first hop",
	}

	got := roundTripStep(t, s)

	if got.ID != s.ID || got.StepTimeout != s.StepTimeout || got.Description != s.Description {
		t.Fatalf("scalar fields did not round-trip: got %+v", got)
	}
	if got.Protocol != s.Protocol {
		t.Errorf("Protocol = %v, want %v", got.Protocol, s.Protocol)
	}
	sqs, ok := got.Trigger.(TriggerSqs)
	if !ok || sqs != s.Trigger.(TriggerSqs) {
		t.Errorf("Trigger = %+v, want %+v", got.Trigger, s.Trigger)
	}
	if len(got.Assets) != 1 {
		t.Fatalf("Assets = %+v, want 1 entry", got.Assets)
	}
}

func TestStep_MinDict_RoundTrips(t *testing.T) {
	s := Step{
		ID:      "step one",
		Command: Command{Arglist: []string{"cat", "${bodyfile}"}},
	}

	min := s.MinDict()
	m, err := serialize.FromJSON(serialize.ToJSON(min))
	if err != nil {
		t.Fatalf("decoding min dict: %v", err)
	}
	got := StepFromDict(m)

	if got.ID != s.ID {
		t.Errorf("ID = %q, want %q", got.ID, s.ID)
	}
	if len(got.Command.Arglist) != 2 || got.Command.Arglist[0] != "cat" {
		t.Errorf("Command.Arglist = %v, want [cat ${bodyfile}]", got.Command.Arglist)
	}
	if got.Protocol != Npipes {
		t.Errorf("Protocol = %v, want default Npipes", got.Protocol)
	}
	if _, ok := got.Trigger.(TriggerNothing); !ok {
		t.Errorf("Trigger = %+v, want default TriggerNothing", got.Trigger)
	}
}

// Scenario 2 from the testable-properties list: an exact byte-for-byte
// minimal-dict encoding.
func TestStep_MinDict_ExactEncoding(t *testing.T) {
	s := Step{
		ID:      "step one",
		Command: Command{Arglist: []string{"cat", "${bodyfile}"}},
	}

	got := serialize.ToJSON(s.MinDict())
	want := `{"id":"step one","command":{"arglist":["cat","${bodyfile}"]}}`
	if got != want {
		t.Errorf("MinDict JSON = %s, want %s", got, want)
	}
}

func TestMinDict_KeyCountNeverExceedsFullDict(t *testing.T) {
	s := Step{
		ID:      "step",
		Trigger: TriggerSns{Topic: "t"},
		Command: Command{Arglist: []string{"run"}, Output: NewFile("o.txt")},
	}
	if got, max := s.MinDict().Len(), s.ToDict().Len(); got > max {
		t.Errorf("min dict key count %d exceeds full dict key count %d", got, max)
	}
}

func TestPopStep(t *testing.T) {
	step1 := Step{ID: "1"}
	step2 := Step{ID: "2"}
	h := Header{Encoding: PlainText, Steps: []Step{step1, step2}}

	head, rest := PopStep(h)

	if head.ID != "1" {
		t.Errorf("head.ID = %q, want %q", head.ID, "1")
	}
	if len(rest.Steps) != 1 || rest.Steps[0].ID != "2" {
		t.Errorf("rest.Steps = %+v, want [{ID:2}]", rest.Steps)
	}
	if rest.Encoding != h.Encoding {
		t.Errorf("Encoding not preserved across pop: got %v, want %v", rest.Encoding, h.Encoding)
	}
}

func TestPopStep_EmptyHeaderReturnsSentinel(t *testing.T) {
	head, _ := PopStep(Header{})
	if head.ID != EmptyStepID {
		t.Errorf("head.ID = %q, want sentinel %q", head.ID, EmptyStepID)
	}
}

func TestMessage_JSONLines_RoundTrips(t *testing.T) {
	msg := Message{
		Header: Header{Encoding: PlainText, Steps: []Step{{ID: "next", Trigger: TriggerFilesystem{Directory: "./out"}}}},
		Body:   InString("hello world", PlainText),
	}

	encoded := ToJSONLines(msg)
	got, err := FromJSONLines(encoded)
	if err != nil {
		t.Fatalf("FromJSONLines: %v", err)
	}

	if got.Body.Value != "hello world" {
		t.Errorf("Body.Value = %q, want %q", got.Body.Value, "hello world")
	}
	if len(got.Header.Steps) != 1 || got.Header.Steps[0].ID != "next" {
		t.Errorf("Header.Steps = %+v, want one step with ID next", got.Header.Steps)
	}
}
