package control

import (
	"testing"

	"github.com/rzbill/pubsubd/internal/queue"
)

func testParams(subs []string) InitParams {
	return InitParams{
		SubscriberIDs: subs,
		MaxReaders:    126,
		MapSizeBytes:  1 << 30,
		HWM: queue.HighWaterMark{
			MsgTimeoutSecs: 3600,
			MaxMsgsNum:     1 << 20,
			HWMDBSizeBytes: 1 << 40,
		},
		Strategy: queue.PruneFirst,
	}
}

func TestCheckInitializedBeforeAndAfterInit(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	ok, err := c.CheckInitialized()
	if err != nil || ok {
		t.Fatalf("got ok=%v err=%v before Init, want false/nil", ok, err)
	}

	if err := c.Init(testParams([]string{"billing"})); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ok, err = c.CheckInitialized()
	if err != nil || !ok {
		t.Fatalf("got ok=%v err=%v after Init, want true/nil", ok, err)
	}
}

func TestCheckInitializedNeverMutates(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	for i := 0; i < 3; i++ {
		if _, err := c.CheckInitialized(); err != nil {
			t.Fatalf("CheckInitialized: %v", err)
		}
	}
	if ok, err := c.CheckInitialized(); err != nil || ok {
		t.Fatalf("repeated CheckInitialized calls must stay read-only: ok=%v err=%v", ok, err)
	}
}

func TestAddAndRemoveSubscriber(t *testing.T) {
	dir := t.TempDir()

	// Pebble holds an exclusive lock per directory per process, so Control
	// and queue.Queue handles on the same dir must never be open at once;
	// each step below opens, acts, and closes before the next opens.
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Init(testParams([]string{"billing"})); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.AddSubscriber("audit"); err != nil {
		t.Fatalf("AddSubscriber: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	q, err := queue.Open(dir)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	subs := q.SubscriberIDs()
	if err := q.Close(); err != nil {
		t.Fatalf("q.Close: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("got subscribers %v, want 2 entries", subs)
	}

	c, err = Open(dir)
	if err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	if err := c.RemoveSubscriber("audit"); err != nil {
		t.Fatalf("RemoveSubscriber: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	q, err = queue.Open(dir)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	subs = q.SubscriberIDs()
	if err := q.Close(); err != nil {
		t.Fatalf("q.Close: %v", err)
	}
	if len(subs) != 1 || subs[0] != "billing" {
		t.Fatalf("got subscribers %v, want [billing]", subs)
	}
}

func TestRemoveUnknownSubscriberFails(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()
	if err := c.Init(testParams([]string{"billing"})); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := c.RemoveSubscriber("nonexistent"); err != queue.ErrUnknownSubscriber {
		t.Fatalf("got err=%v, want ErrUnknownSubscriber", err)
	}
}

func TestInitRejectsInvalidSubscriberID(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	if err := c.Init(testParams([]string{"has space"})); err == nil {
		t.Fatalf("expected Init to reject an invalid subscriber id")
	}
}
