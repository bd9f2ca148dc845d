package queue

import (
	"context"
	"testing"
)

func TestPruneDanglingDeletesZeroPendingMessages(t *testing.T) {
	ctx := context.Background()
	q := openTestQueue(t, []string{"only"}, bigHWM(), PruneFirst)

	id, err := q.Put(ctx, []byte("payload"), []string{"only"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := q.Pop(ctx, "only"); err != nil {
		t.Fatalf("Pop: %v", err)
	}

	n, err := q.PruneDangling(ctx)
	if err != nil {
		t.Fatalf("PruneDangling: %v", err)
	}
	if n != 1 {
		t.Fatalf("got %d deleted, want 1", n)
	}

	r := q.env.BeginRead()
	defer r.Close()
	if _, ok, _ := r.DB(dataDBPrefix).Get([]byte(id)); ok {
		t.Fatalf("expected data_db entry to be gone after prune_dangling")
	}
	if _, ok, _ := r.DB(metaDBPrefix).Get([]byte(id)); ok {
		t.Fatalf("expected meta_db entry to be gone after prune_dangling")
	}
	if _, ok, _ := r.DB(pendingDBPrefix).Get([]byte(id)); ok {
		t.Fatalf("expected pending_db entry to be gone after prune_dangling")
	}
}

func TestPruneDanglingDeletesTimedOutMessagesRegardlessOfPendingCount(t *testing.T) {
	ctx := context.Background()
	hwm := bigHWM()
	hwm.MsgTimeoutSecs = 10
	q := openTestQueue(t, []string{"slow"}, hwm, PruneFirst)

	orig := nowSeconds
	defer func() { nowSeconds = orig }()

	nowSeconds = func() int64 { return 1000 }
	id, err := q.Put(ctx, []byte("payload"), []string{"slow"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	// slow never pops; advance the clock past msg_timeout_secs.
	nowSeconds = func() int64 { return 1000 + hwm.MsgTimeoutSecs + 1 }
	n, err := q.PruneDangling(ctx)
	if err != nil {
		t.Fatalf("PruneDangling: %v", err)
	}
	if n != 1 {
		t.Fatalf("got %d deleted, want 1", n)
	}

	r := q.env.BeginRead()
	defer r.Close()
	if _, ok, _ := r.DB(SubDBPrefix("slow")).Get([]byte(id)); ok {
		t.Fatalf("expected timed-out message to be removed from subscriber inbox too")
	}
}

func TestPruneDanglingIgnoresLiveUntimedOutMessages(t *testing.T) {
	ctx := context.Background()
	q := openTestQueue(t, []string{"only"}, bigHWM(), PruneFirst)

	if _, err := q.Put(ctx, []byte("payload"), []string{"only"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	n, err := q.PruneDangling(ctx)
	if err != nil {
		t.Fatalf("PruneDangling: %v", err)
	}
	if n != 0 {
		t.Fatalf("got %d deleted, want 0 for a live, non-timed-out, still-pending message", n)
	}
}

func TestPruneHalfUnderPruneFirstDropsOldestHalf(t *testing.T) {
	ctx := context.Background()
	q := openTestQueue(t, []string{"billing"}, bigHWM(), PruneFirst)

	orig := nowSeconds
	defer func() { nowSeconds = orig }()

	ts := int64(1000)
	var ids []MsgID
	for i := 0; i < 4; i++ {
		nowSeconds = func() int64 { return ts }
		ts++
		id, err := q.Put(ctx, []byte("p"), []string{"billing"})
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		ids = append(ids, id)
	}

	n, err := q.PruneHalf(ctx)
	if err != nil {
		t.Fatalf("PruneHalf: %v", err)
	}
	if n != 3 {
		t.Fatalf("got %d pruned, want floor(4/2)+1=3", n)
	}

	r := q.env.BeginRead()
	defer r.Close()
	for i, id := range ids {
		_, ok, _ := r.DB(metaDBPrefix).Get([]byte(id))
		wantGone := i < 3 // oldest floor(4/2)+1=3
		if ok == wantGone {
			t.Errorf("id[%d]=%q: present=%v, want gone=%v", i, id, ok, wantGone)
		}
	}
}

func TestPruneHalfUnderPruneLastDropsNewestHalf(t *testing.T) {
	ctx := context.Background()
	q := openTestQueue(t, []string{"billing"}, bigHWM(), PruneLast)

	orig := nowSeconds
	defer func() { nowSeconds = orig }()

	ts := int64(1000)
	var ids []MsgID
	for i := 0; i < 4; i++ {
		nowSeconds = func() int64 { return ts }
		ts++
		id, err := q.Put(ctx, []byte("p"), []string{"billing"})
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		ids = append(ids, id)
	}

	n, err := q.PruneHalf(ctx)
	if err != nil {
		t.Fatalf("PruneHalf: %v", err)
	}
	if n != 3 {
		t.Fatalf("got %d pruned, want floor(4/2)+1=3", n)
	}

	r := q.env.BeginRead()
	defer r.Close()
	for i, id := range ids {
		_, ok, _ := r.DB(metaDBPrefix).Get([]byte(id))
		wantGone := i >= 1 // newest floor(4/2)+1=3, i.e. ids[1:]
		if ok == wantGone {
			t.Errorf("id[%d]=%q: present=%v, want gone=%v", i, id, ok, wantGone)
		}
	}
}

// TestVacuumScenario5PruneFirstLeavesNewestTwoOfFive reproduces the
// walkthrough where max_msgs_num=4 under PruneFirst and five messages are
// published one at a time: the fifth Put's Vacuum sees count()==4, prunes
// floor(4/2)+1=3 of the oldest, and the subscriber is left seeing only the
// newest two, m4 and m5.
func TestVacuumScenario5PruneFirstLeavesNewestTwoOfFive(t *testing.T) {
	ctx := context.Background()
	hwm := HighWaterMark{MsgTimeoutSecs: 3600, MaxMsgsNum: 4, HWMDBSizeBytes: 1 << 40}
	q := openTestQueue(t, []string{"billing"}, hwm, PruneFirst)

	orig := nowSeconds
	defer func() { nowSeconds = orig }()

	ts := int64(1000)
	for _, payload := range []string{"m1", "m2", "m3", "m4", "m5"} {
		nowSeconds = func() int64 { return ts }
		ts++
		if _, err := q.Put(ctx, []byte(payload), []string{"billing"}); err != nil {
			t.Fatalf("Put(%s): %v", payload, err)
		}
	}

	var survivors []string
	for {
		payload, ok, err := q.Front(ctx, "billing")
		if err != nil {
			t.Fatalf("Front: %v", err)
		}
		if !ok {
			break
		}
		survivors = append(survivors, string(payload))
		if _, err := q.Pop(ctx, "billing"); err != nil {
			t.Fatalf("Pop: %v", err)
		}
	}

	want := []string{"m4", "m5"}
	if len(survivors) != len(want) {
		t.Fatalf("got survivors %v, want %v", survivors, want)
	}
	for i := range want {
		if survivors[i] != want[i] {
			t.Fatalf("got survivors %v, want %v", survivors, want)
		}
	}
}

func TestVacuumPrunesHalfWhenMaxMsgsExceeded(t *testing.T) {
	ctx := context.Background()
	hwm := HighWaterMark{MsgTimeoutSecs: 3600, MaxMsgsNum: 2, HWMDBSizeBytes: 1 << 40}
	q := openTestQueue(t, []string{"billing"}, hwm, PruneFirst)

	orig := nowSeconds
	defer func() { nowSeconds = orig }()
	ts := int64(1000)
	for i := 0; i < 2; i++ {
		nowSeconds = func() int64 { return ts }
		ts++
		if _, err := q.Put(ctx, []byte("p"), []string{"billing"}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	// The third Put's internal Vacuum call should see count()==2 >= max(2)
	// and prune_half before admitting the new message.
	nowSeconds = func() int64 { return ts }
	if _, err := q.Put(ctx, []byte("p"), []string{"billing"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	n, err := q.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n > 2 {
		t.Fatalf("got count=%d, expected vacuum to have pruned before the 3rd message was admitted to keep the queue bounded", n)
	}
}
