package queue

import "testing"

func TestMsgIDTimestampRoundTrip(t *testing.T) {
	id := newMsgIDAt(1700000000)
	ts, ok := id.Timestamp()
	if !ok {
		t.Fatalf("Timestamp() returned ok=false for %q", id)
	}
	if ts != 1700000000 {
		t.Fatalf("got ts=%d, want 1700000000", ts)
	}
}

func TestMsgIDTimestampSurvivesDigitLeadingUUID(t *testing.T) {
	// Regression: if the random suffix happens to start with a decimal
	// digit, a naive "scan for first non-digit rune" parse would absorb it
	// into the timestamp. newMsgIDAt must stay parseable regardless of the
	// suffix's first character.
	id := MsgID("1700000000" + "01234567-89ab-cdef-0123-456789abcdef")
	ts, ok := id.Timestamp()
	if !ok || ts != 1700000000 {
		t.Fatalf("got ts=%d ok=%v, want 1700000000/true", ts, ok)
	}
}

func TestMsgIDOrderingApproximatesPublishTime(t *testing.T) {
	a := newMsgIDAt(1000)
	b := newMsgIDAt(2000)
	if a >= b {
		t.Fatalf("expected earlier timestamp to sort first: a=%q b=%q", a, b)
	}
}

func TestMsgIDTimestampRejectsShortString(t *testing.T) {
	if _, ok := MsgID("too-short").Timestamp(); ok {
		t.Fatalf("expected ok=false for a string shorter than the uuid suffix")
	}
}

func TestNewMsgIDUsesClockSeam(t *testing.T) {
	orig := nowSeconds
	nowSeconds = func() int64 { return 42 }
	defer func() { nowSeconds = orig }()

	id := NewMsgID()
	ts, ok := id.Timestamp()
	if !ok || ts != 42 {
		t.Fatalf("got ts=%d ok=%v, want 42/true", ts, ok)
	}
}
