package control

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rzbill/pubsubd/internal/queue"
	"github.com/rzbill/pubsubd/internal/storage/kvs"
	"github.com/rzbill/pubsubd/pkg/fsutil"
)

// Control is the administrative handle for one queue directory. Unlike
// queue.Queue, it does not require the directory to already be initialized —
// Init is how that happens.
type Control struct {
	dir  string
	env  *kvs.Env
	lock *fsutil.FileLock
}

// InitParams are the five configuration values a queue directory is
// bootstrapped with. MaxReaders and MapSizeBytes are accepted for
// compatibility with the language-neutral admin surface but are not used by
// this adapter: Pebble has no fixed reader-count or memory-map-size limit to
// configure up front, unlike the LMDB-style store this surface was modeled
// on.
type InitParams struct {
	SubscriberIDs []string
	MaxReaders    int
	MapSizeBytes  uint64
	HWM           queue.HighWaterMark
	Strategy      queue.Strategy
}

// Open opens the KVS environment at dir without requiring it to already
// carry queue configuration, so that Init can be the first write against a
// fresh directory. It also takes an advisory lock on the directory for the
// lifetime of the Control, so two processes racing Open+Init against the
// same fresh directory fail one of them with fsutil.ErrLocked instead of
// corrupting each other's writes.
func Open(dir string) (*Control, error) {
	// The lock is taken before the KVS is opened: Pebble locks the same
	// directory itself, and a losing process would otherwise fail inside
	// kvs.Open before ever reaching fsutil.Lock.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("control: create directory: %w", err)
	}
	lock, err := fsutil.Lock(dir)
	if err != nil {
		return nil, fmt.Errorf("control: lock directory: %w", err)
	}
	env, err := kvs.Open(kvs.Options{Dir: dir, Fsync: kvs.FsyncModeAlways})
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("control: open kvs environment: %w", err)
	}
	return &Control{dir: dir, env: env, lock: lock}, nil
}

// Close releases the underlying KVS environment and the directory lock.
func (c *Control) Close() error {
	err := c.env.Close()
	if unlockErr := c.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

// Init writes the five required configuration keys into queue_db; no inbox
// sub-DB needs to be written for the subscriber ids. It is idempotent in the sense that
// re-running it simply overwrites the configuration; it does not merge with
// whatever subscriber ids or counters already exist.
func (c *Control) Init(params InitParams) error {
	for _, id := range params.SubscriberIDs {
		if !queue.ValidSubscriberID(id) {
			return fmt.Errorf("control: invalid subscriber id %q", id)
		}
	}

	w := c.env.BeginWrite()
	cfg := w.DB(queue.QueueDBPrefix)

	if err := cfg.Put([]byte(queue.ConfigKeyHWMDBSizeBytes), []byte(formatUint(params.HWM.HWMDBSizeBytes))); err != nil {
		w.Abort()
		return fmt.Errorf("control: write %s: %w", queue.ConfigKeyHWMDBSizeBytes, err)
	}
	if err := cfg.Put([]byte(queue.ConfigKeyMaxMsgsNum), []byte(formatUint(params.HWM.MaxMsgsNum))); err != nil {
		w.Abort()
		return fmt.Errorf("control: write %s: %w", queue.ConfigKeyMaxMsgsNum, err)
	}
	if err := cfg.Put([]byte(queue.ConfigKeyMsgTimeoutSecs), []byte(formatInt(params.HWM.MsgTimeoutSecs))); err != nil {
		w.Abort()
		return fmt.Errorf("control: write %s: %w", queue.ConfigKeyMsgTimeoutSecs, err)
	}
	if err := cfg.Put([]byte(queue.ConfigKeyStrategy), []byte(params.Strategy.String())); err != nil {
		w.Abort()
		return fmt.Errorf("control: write %s: %w", queue.ConfigKeyStrategy, err)
	}
	if err := cfg.Put([]byte(queue.ConfigKeySubscriberIDs), []byte(queue.EncodeSubscriberIDs(params.SubscriberIDs))); err != nil {
		w.Abort()
		return fmt.Errorf("control: write %s: %w", queue.ConfigKeySubscriberIDs, err)
	}

	// A subscriber inbox sub-DB needs no explicit creation under this
	// adapter (see queue.Open's doc comment); listing the id in
	// subscriber_ids is the only durable act of "creating" it.

	if err := w.Commit(); err != nil {
		return fmt.Errorf("control: commit init: %w", err)
	}
	return nil
}

// CheckInitialized reports whether all five required configuration keys are
// present. It never mutates the directory: a misconfigured caller probing
// readiness must not accidentally bring a directory half into existence.
func (c *Control) CheckInitialized() (bool, error) {
	r := c.env.BeginRead()
	defer r.Close()

	cfg := r.DB(queue.QueueDBPrefix)
	for _, key := range []string{
		queue.ConfigKeyHWMDBSizeBytes,
		queue.ConfigKeyMaxMsgsNum,
		queue.ConfigKeyMsgTimeoutSecs,
		queue.ConfigKeyStrategy,
		queue.ConfigKeySubscriberIDs,
	} {
		_, ok, err := cfg.Get([]byte(key))
		if err != nil {
			return false, fmt.Errorf("control: read %s: %w", key, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (c *Control) readSubscriberIDs(r *kvs.ReadTxn) ([]string, error) {
	v, ok, err := r.DB(queue.QueueDBPrefix).Get([]byte(queue.ConfigKeySubscriberIDs))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, queue.ErrNotInitialized
	}
	return queue.DecodeSubscriberIDs(string(v)), nil
}

// AddSubscriber registers a new subscriber id: it is appended to
// subscriber_ids. Its inbox sub-DB needs no explicit creation (see Init);
// the id becomes a valid Put target the moment it is listed.
func (c *Control) AddSubscriber(id string) error {
	if !queue.ValidSubscriberID(id) {
		return fmt.Errorf("control: invalid subscriber id %q", id)
	}

	w := c.env.BeginWrite()
	cfg := w.DB(queue.QueueDBPrefix)

	v, ok, err := cfg.Get([]byte(queue.ConfigKeySubscriberIDs))
	if err != nil {
		w.Abort()
		return fmt.Errorf("control: read subscriber_ids: %w", err)
	}
	if !ok {
		w.Abort()
		return queue.ErrNotInitialized
	}
	ids := queue.DecodeSubscriberIDs(string(v))
	for _, existing := range ids {
		if existing == id {
			w.Abort()
			return nil
		}
	}
	ids = append(ids, id)

	if err := cfg.Put([]byte(queue.ConfigKeySubscriberIDs), []byte(queue.EncodeSubscriberIDs(ids))); err != nil {
		w.Abort()
		return fmt.Errorf("control: write subscriber_ids: %w", err)
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("control: commit add_subscriber: %w", err)
	}
	return nil
}

// RemoveSubscriber drops a subscriber's inbox sub-DB and removes it from
// subscriber_ids, then runs PruneDangling. The pending_db counters of the
// messages deleted from the inbox are not decremented, so that pass removes
// only messages whose counter was already zero or that have timed out; a
// message still counted for the removed subscriber stays until it times
// out or is pruned by a high-water mark.
func (c *Control) RemoveSubscriber(id string) error {
	w := c.env.BeginWrite()
	cfg := w.DB(queue.QueueDBPrefix)

	v, ok, err := cfg.Get([]byte(queue.ConfigKeySubscriberIDs))
	if err != nil {
		w.Abort()
		return fmt.Errorf("control: read subscriber_ids: %w", err)
	}
	if !ok {
		w.Abort()
		return queue.ErrNotInitialized
	}
	ids := queue.DecodeSubscriberIDs(string(v))
	remaining := ids[:0:0]
	found := false
	for _, existing := range ids {
		if existing == id {
			found = true
			continue
		}
		remaining = append(remaining, existing)
	}
	if !found {
		w.Abort()
		return queue.ErrUnknownSubscriber
	}

	inbox := w.DB(queue.SubDBPrefix(id))
	cur, err := inbox.Cursor()
	if err != nil {
		w.Abort()
		return fmt.Errorf("control: open inbox cursor: %w", err)
	}
	var keys [][]byte
	for ok := cur.First(); ok; ok = cur.Next() {
		keys = append(keys, append([]byte(nil), cur.Key()...))
	}
	cur.Close()
	for _, key := range keys {
		if err := inbox.Delete(key); err != nil {
			w.Abort()
			return fmt.Errorf("control: delete inbox entry: %w", err)
		}
	}

	if err := cfg.Put([]byte(queue.ConfigKeySubscriberIDs), []byte(queue.EncodeSubscriberIDs(remaining))); err != nil {
		w.Abort()
		return fmt.Errorf("control: write subscriber_ids: %w", err)
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("control: commit remove_subscriber: %w", err)
	}

	return c.pruneDangling()
}

// ClearAllSubscribers empties every registered subscriber's inbox and then
// runs PruneDangling. Clearing an inbox does not touch pending_db, so the
// pass deletes only messages whose counter was already zero or that have
// timed out; the others stay in data_db/meta_db/pending_db until they time
// out or are pruned by a high-water mark.
func (c *Control) ClearAllSubscribers() error {
	r := c.env.BeginRead()
	ids, err := c.readSubscriberIDs(r)
	r.Close()
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := c.clearInbox(id); err != nil {
			return err
		}
	}
	return c.pruneDangling()
}

func (c *Control) clearInbox(id string) error {
	w := c.env.BeginWrite()
	inbox := w.DB(queue.SubDBPrefix(id))
	cur, err := inbox.Cursor()
	if err != nil {
		w.Abort()
		return fmt.Errorf("control: open inbox cursor: %w", err)
	}
	var keys [][]byte
	for ok := cur.First(); ok; ok = cur.Next() {
		keys = append(keys, append([]byte(nil), cur.Key()...))
	}
	cur.Close()
	for _, key := range keys {
		if err := inbox.Delete(key); err != nil {
			w.Abort()
			return fmt.Errorf("control: clear inbox: %w", err)
		}
	}
	if err := w.Commit(); err != nil {
		return fmt.Errorf("control: commit clear_inbox: %w", err)
	}
	return nil
}

// pruneDangling runs the same prune_dangling pass queue.Queue uses, directly
// against Control's own env handle. It cannot go through queue.Open: Pebble
// takes an exclusive lock on its directory, so a second Env opened on c.dir
// while c.env is still live would fail to open.
func (c *Control) pruneDangling() error {
	r := c.env.BeginRead()
	v, ok, err := r.DB(queue.QueueDBPrefix).Get([]byte(queue.ConfigKeyMsgTimeoutSecs))
	if err != nil {
		r.Close()
		return fmt.Errorf("control: read %s: %w", queue.ConfigKeyMsgTimeoutSecs, err)
	}
	ids, idsErr := c.readSubscriberIDs(r)
	r.Close()
	if !ok {
		return queue.ErrNotInitialized
	}
	if idsErr != nil {
		return idsErr
	}

	timeout, err := parseInt(string(v))
	if err != nil {
		return fmt.Errorf("control: malformed %s: %w", queue.ConfigKeyMsgTimeoutSecs, err)
	}

	_, err = queue.PruneDanglingIn(c.env, timeout, ids)
	return err
}

func parseInt(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }
func formatInt(v int64) string   { return strconv.FormatInt(v, 10) }
