// SPDX-License-Identifier: AGPL-3.0-or-later

package serialize

import "testing"

func TestDict_MarshalJSON_PreservesInsertionOrder(t *testing.T) {
	d := NewDict().Set("b", 1).Set("a", 2)
	got := ToJSON(d)
	want := `{"b":1,"a":2}`
	if got != want {
		t.Errorf("ToJSON = %s, want %s", got, want)
	}
}

func TestDict_Prepend(t *testing.T) {
	d := NewDict().Set("b", 1)
	d.Prepend("a", 2)
	got := ToJSON(d)
	want := `{"a":2,"b":1}`
	if got != want {
		t.Errorf("ToJSON = %s, want %s", got, want)
	}
}

func TestDiff_DropsEqualKeysAndEmptyNestedDicts(t *testing.T) {
	full := NewDict().Set("id", "x").Set("timeout", 0).Set("nested", NewDict())
	defaults := NewDict().Set("id", "").Set("timeout", 0)

	got := Diff(full, defaults)

	if got.Len() != 1 {
		t.Fatalf("Diff result = %s, want exactly one key", ToJSON(got))
	}
	if v, _ := got.Get("id"); v != "x" {
		t.Errorf("id = %v, want x", v)
	}
}

func TestFromJSON_RoundTrips(t *testing.T) {
	m, err := FromJSON(`{"a":1,"b":"two"}`)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if Int(m, "a", 0) != 1 {
		t.Errorf("Int(a) = %d, want 1", Int(m, "a", 0))
	}
	if Str(m, "b", "") != "two" {
		t.Errorf("Str(b) = %q, want two", Str(m, "b", ""))
	}
	if Str(m, "missing", "fallback") != "fallback" {
		t.Errorf("Str(missing) = %q, want fallback", Str(m, "missing", "fallback"))
	}
}
