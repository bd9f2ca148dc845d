package queue

import (
	"context"

	"github.com/rzbill/pubsubd/internal/storage/kvs"
)

// VacuumStats reports what a Vacuum pass actually did, for callers that want
// to log or export it; Vacuum itself never fails merely because nothing
// needed cleanup.
type VacuumStats struct {
	DanglingDeleted int
	HWMPrunedCount  int
	HWMPrunedSize   int
}

// Vacuum runs the reactive maintenance pass the engine performs on every
// Put/PutMany: first prune_dangling, then prune_half once per bound that is
// still exceeded afterward. Each step commits its own transaction, so a
// Vacuum is never atomic as a whole — only each of its sub-steps is.
func (q *Queue) Vacuum(ctx context.Context) (VacuumStats, error) {
	var stats VacuumStats

	dangling, err := q.PruneDangling(ctx)
	if err != nil {
		return stats, err
	}
	stats.DanglingDeleted = dangling

	count, err := q.Count(ctx)
	if err != nil {
		return stats, err
	}
	if uint64(count) >= q.hwm.MaxMsgsNum {
		n, err := q.PruneHalf(ctx)
		if err != nil {
			return stats, err
		}
		stats.HWMPrunedCount = n
	}

	size, err := q.SizeBytes()
	if err != nil {
		return stats, err
	}
	if size >= q.hwm.HWMDBSizeBytes {
		n, err := q.PruneHalf(ctx)
		if err != nil {
			return stats, err
		}
		stats.HWMPrunedSize = n
	}

	if stats.DanglingDeleted > 0 || stats.HWMPrunedCount > 0 || stats.HWMPrunedSize > 0 {
		q.metrics.ObserveVacuum(stats.DanglingDeleted, stats.HWMPrunedCount+stats.HWMPrunedSize)
	}
	return stats, nil
}

// PruneDangling deletes every message whose pending counter has reached
// zero, and every message older than msg_timeout_secs regardless of
// remaining pending count. It delegates to PruneDanglingIn so that package
// control can run the same pass against its own env handle — reopening a
// second Pebble instance on the same directory from inside this process
// would fail on Pebble's exclusive directory lock.
func (q *Queue) PruneDangling(ctx context.Context) (int, error) {
	return PruneDanglingIn(q.env, q.hwm.MsgTimeoutSecs, q.subs)
}

// PruneDanglingIn runs one prune_dangling pass directly against env, given
// the message timeout and the current subscriber id list. Exposed so
// package control can correct pending counters after removing or clearing
// subscribers without needing a fully-opened Queue.
func PruneDanglingIn(env *kvs.Env, msgTimeoutSecs int64, subs []string) (int, error) {
	w := env.BeginWrite()

	pendingDB := w.DB(pendingDBPrefix)
	dangling := map[string]struct{}{}
	pendingCur, err := pendingDB.Cursor()
	if err != nil {
		w.Abort()
		return 0, storageErr("scan pending_db", err)
	}
	for ok := pendingCur.First(); ok; ok = pendingCur.Next() {
		count, err := parseUint(string(pendingCur.Value()))
		if err == nil && count == 0 {
			dangling[string(pendingCur.Key())] = struct{}{}
		}
	}
	pendingCur.Close()

	metaDB := w.DB(metaDBPrefix)
	now := nowSeconds()
	timedOut := map[string]struct{}{}
	metaCur, err := metaDB.Cursor()
	if err != nil {
		w.Abort()
		return 0, storageErr("scan meta_db", err)
	}
	for ok := metaCur.First(); ok; ok = metaCur.Next() {
		ts, err := parseInt(string(metaCur.Value()))
		if err == nil && now-ts > msgTimeoutSecs {
			timedOut[string(metaCur.Key())] = struct{}{}
		}
	}
	metaCur.Close()

	toDelete := make(map[string]struct{}, len(dangling)+len(timedOut))
	for k := range dangling {
		toDelete[k] = struct{}{}
	}
	for k := range timedOut {
		toDelete[k] = struct{}{}
	}

	dataDB := w.DB(dataDBPrefix)
	for k := range toDelete {
		key := []byte(k)
		if err := dataDB.Delete(key); err != nil {
			w.Abort()
			return 0, storageErr("delete data_db", err)
		}
		if err := metaDB.Delete(key); err != nil {
			w.Abort()
			return 0, storageErr("delete meta_db", err)
		}
		if err := pendingDB.Delete(key); err != nil {
			w.Abort()
			return 0, storageErr("delete pending_db", err)
		}
	}

	for k := range timedOut {
		key := []byte(k)
		for _, sub := range subs {
			if err := w.DB(subDBPrefix(sub)).Delete(key); err != nil {
				w.Abort()
				return 0, storageErr("delete from subscriber inbox", err)
			}
		}
	}

	if err := w.Commit(); err != nil {
		return 0, storageErr("commit prune_dangling", err)
	}
	return len(toDelete), nil
}

// PruneHalf discards floor(count/2)+1 of the live messages: the oldest
// share under PruneFirst, the newest share under PruneLast. The "+1" means
// a queue sitting exactly at max_msgs_num drops strictly below it rather
// than landing back on the boundary it was just pruned for. Selection
// happens in a read transaction against meta_db's cursor order; deletion
// happens afterward in its own write transaction.
func (q *Queue) PruneHalf(ctx context.Context) (int, error) {
	r := q.env.BeginRead()
	metaDB := r.DB(metaDBPrefix)
	total, err := metaDB.Count()
	if err != nil {
		r.Close()
		return 0, storageErr("count meta_db", err)
	}
	target := total/2 + 1

	cur, err := metaDB.Cursor()
	if err != nil {
		r.Close()
		return 0, storageErr("open meta_db cursor", err)
	}

	var victims [][]byte
	var ok bool
	var next func() bool
	switch q.strategy {
	case PruneLast:
		ok = cur.Last()
		next = cur.Prev
	default: // PruneFirst
		ok = cur.First()
		next = cur.Next
	}
	for ok && len(victims) < target {
		victims = append(victims, append([]byte(nil), cur.Key()...))
		ok = next()
	}
	cur.Close()
	r.Close()

	if len(victims) == 0 {
		return 0, nil
	}

	w := q.env.BeginWrite()
	dataDB := w.DB(dataDBPrefix)
	wMeta := w.DB(metaDBPrefix)
	pendingDB := w.DB(pendingDBPrefix)
	for _, key := range victims {
		if err := dataDB.Delete(key); err != nil {
			w.Abort()
			return 0, storageErr("delete data_db", err)
		}
		if err := wMeta.Delete(key); err != nil {
			w.Abort()
			return 0, storageErr("delete meta_db", err)
		}
		if err := pendingDB.Delete(key); err != nil {
			w.Abort()
			return 0, storageErr("delete pending_db", err)
		}
		for _, sub := range q.subs {
			if err := w.DB(subDBPrefix(sub)).Delete(key); err != nil {
				w.Abort()
				return 0, storageErr("delete from subscriber inbox", err)
			}
		}
	}

	if err := w.Commit(); err != nil {
		return 0, storageErr("commit prune_half", err)
	}
	return len(victims), nil
}
