package queue

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseStrategy(t *testing.T) {
	cases := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"prune_first", PruneFirst, false},
		{"prune_last", PruneLast, false},
		{"bogus", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := ParseStrategy(c.in)
		if c.wantErr {
			if !errors.Is(err, ErrUnknownStrategy) {
				t.Errorf("ParseStrategy(%q): got err=%v, want ErrUnknownStrategy", c.in, err)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("ParseStrategy(%q) = %v, %v; want %v, nil", c.in, got, err, c.want)
		}
	}
}

func TestStrategyStringRoundTrip(t *testing.T) {
	for _, s := range []Strategy{PruneFirst, PruneLast} {
		got, err := ParseStrategy(s.String())
		if err != nil || got != s {
			t.Errorf("round trip through String()/ParseStrategy failed for %v: got %v, %v", s, got, err)
		}
	}
}

func TestEncodeDecodeSubscriberIDs(t *testing.T) {
	ids := []string{"billing", "audit", "search"}
	encoded := EncodeSubscriberIDs(ids)
	if encoded != "billing audit search" {
		t.Fatalf("got %q", encoded)
	}
	decoded := DecodeSubscriberIDs(encoded)
	if !reflect.DeepEqual(decoded, ids) {
		t.Fatalf("got %v, want %v", decoded, ids)
	}
}

func TestDecodeSubscriberIDsEmpty(t *testing.T) {
	got := DecodeSubscriberIDs("")
	if got == nil || len(got) != 0 {
		t.Fatalf("got %#v, want non-nil empty slice", got)
	}
}

func TestValidSubscriberID(t *testing.T) {
	valid := []string{"a", "billing-events", "audit_log", "A1_2-b"}
	for _, id := range valid {
		if !ValidSubscriberID(id) {
			t.Errorf("ValidSubscriberID(%q) = false, want true", id)
		}
	}
	invalid := []string{"", "has space", "slash/in/it", "data_db", "meta_db", "pending_db", "queue_db"}
	for _, id := range invalid {
		if ValidSubscriberID(id) {
			t.Errorf("ValidSubscriberID(%q) = true, want false", id)
		}
	}
}
