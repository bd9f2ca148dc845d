package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rzbill/pubsubd/internal/storage/kvs"
)

// Queue is the core engine: a handle on an initialized KVS environment plus
// the cached configuration read at open time. A Queue does not own the
// directory's lifecycle — the control plane creates it, nothing destroys it
// but the host filesystem.
type Queue struct {
	dir      string
	env      *kvs.Env
	hwm      HighWaterMark
	strategy Strategy
	subs     []string
	metrics  Metrics
}

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	fsync   kvs.FsyncMode
	metrics Metrics
	hook    kvs.MetricsHook
}

// WithFsyncMode overrides the default (FsyncModeAlways) durability mode.
func WithFsyncMode(m kvs.FsyncMode) Option {
	return func(c *openConfig) { c.fsync = m }
}

// WithMetrics wires an engine-level Metrics observer.
func WithMetrics(m Metrics) Option {
	return func(c *openConfig) { c.metrics = m }
}

// WithStorageMetricsHook wires a kvs.MetricsHook for commit-level observation.
func WithStorageMetricsHook(h kvs.MetricsHook) Option {
	return func(c *openConfig) { c.hook = h }
}

// Open opens the KVS environment at dir and reads its configuration from
// queue_db. The four well-known sub-databases (data_db, meta_db, pending_db,
// queue_db) require no explicit creation under this adapter: unlike a named
// multi-database KVS, a Pebble key prefix exists the moment something is
// written under it, so there is nothing for open to commit up front. Open
// fails with ErrNotInitialized if any of the five required configuration
// keys is absent — that absence is exactly what distinguishes a directory
// Control.Init has not yet run on.
func Open(dir string, opts ...Option) (*Queue, error) {
	cfg := openConfig{fsync: kvs.FsyncModeAlways, metrics: noopMetrics{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	env, err := kvs.Open(kvs.Options{Dir: dir, Fsync: cfg.fsync, Metrics: cfg.hook})
	if err != nil {
		return nil, fmt.Errorf("queue: open kvs environment: %w", err)
	}

	data, err := readQueueData(env)
	if err != nil {
		env.Close()
		return nil, err
	}

	if cfg.metrics == nil {
		cfg.metrics = noopMetrics{}
	}

	return &Queue{
		dir:      dir,
		env:      env,
		hwm:      data.HWM,
		strategy: data.Strategy,
		subs:     data.SubscriberIDs,
		metrics:  cfg.metrics,
	}, nil
}

// Close releases the underlying KVS environment.
func (q *Queue) Close() error {
	return q.env.Close()
}

// SubscriberIDs returns the subscriber ids cached at open time.
func (q *Queue) SubscriberIDs() []string {
	out := make([]string, len(q.subs))
	copy(out, q.subs)
	return out
}

func readQueueData(env *kvs.Env) (QueueData, error) {
	r := env.BeginRead()
	defer r.Close()

	cfgDB := r.DB(QueueDBPrefix)
	values := make(map[string]string, len(requiredConfigKeys))
	for _, key := range requiredConfigKeys {
		v, ok, err := cfgDB.Get([]byte(key))
		if err != nil {
			return QueueData{}, storageErr("read config key "+key, err)
		}
		if !ok {
			return QueueData{}, ErrNotInitialized
		}
		values[key] = string(v)
	}

	msgTimeout, err := parseInt(values[configKeyMsgTimeoutSecs])
	if err != nil {
		return QueueData{}, fmt.Errorf("queue: malformed %s: %w", configKeyMsgTimeoutSecs, err)
	}
	maxMsgs, err := parseUint(values[configKeyMaxMsgsNum])
	if err != nil {
		return QueueData{}, fmt.Errorf("queue: malformed %s: %w", configKeyMaxMsgsNum, err)
	}
	hwmBytes, err := parseUint(values[configKeyHWMDBSizeBytes])
	if err != nil {
		return QueueData{}, fmt.Errorf("queue: malformed %s: %w", configKeyHWMDBSizeBytes, err)
	}
	strategy, err := ParseStrategy(values[configKeyStrategy])
	if err != nil {
		return QueueData{}, err
	}

	return QueueData{
		HWM: HighWaterMark{
			MsgTimeoutSecs: msgTimeout,
			MaxMsgsNum:     maxMsgs,
			HWMDBSizeBytes: hwmBytes,
		},
		Strategy:      strategy,
		SubscriberIDs: DecodeSubscriberIDs(values[configKeySubscriberIDs]),
	}, nil
}

// Put vacuums, then atomically writes payload into data_db/meta_db/pending_db
// and into the inbox of every subscriber in subscribers. Every id in
// subscribers must already be a registered subscriber; Put does not create
// sub-DBs on the fly.
func (q *Queue) Put(ctx context.Context, payload []byte, subscribers []string) (MsgID, error) {
	ids, err := q.PutMany(ctx, [][]byte{payload}, subscribers)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// PutSync is Put with an explicit per-call durability override; see
// PutManySync.
func (q *Queue) PutSync(ctx context.Context, payload []byte, subscribers []string, sync bool) (MsgID, error) {
	ids, err := q.PutManySync(ctx, [][]byte{payload}, subscribers, sync)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// PutMany is Put for a batch of payloads sharing one publish timestamp and
// one commit, amortizing commit cost across the batch.
func (q *Queue) PutMany(ctx context.Context, payloads [][]byte, subscribers []string) ([]MsgID, error) {
	return q.putMany(ctx, payloads, subscribers, nil)
}

// PutManySync is PutMany with an explicit per-call durability override,
// bypassing the queue's own FsyncMode for this commit only. Publisher uses
// this to implement its autosync flag without needing a dedicated Queue
// handle per durability mode.
func (q *Queue) PutManySync(ctx context.Context, payloads [][]byte, subscribers []string, sync bool) ([]MsgID, error) {
	return q.putMany(ctx, payloads, subscribers, &sync)
}

func (q *Queue) putMany(ctx context.Context, payloads [][]byte, subscribers []string, sync *bool) ([]MsgID, error) {
	if _, err := q.Vacuum(ctx); err != nil {
		return nil, err
	}

	for _, sub := range subscribers {
		if !q.isRegistered(sub) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSubscriber, sub)
		}
	}

	ts := nowSeconds()
	tsField := []byte(formatInt(ts))

	w := q.env.BeginWrite()
	if sync != nil {
		w.SetSync(*sync)
	}
	data := w.DB(dataDBPrefix)
	meta := w.DB(metaDBPrefix)
	pending := w.DB(pendingDBPrefix)
	pendingField := []byte(formatUint(uint64(len(subscribers))))

	ids := make([]MsgID, len(payloads))
	for i, payload := range payloads {
		id := MsgID(formatInt(ts) + uuid.NewString())
		key := []byte(id)

		if err := data.Put(key, payload); err != nil {
			w.Abort()
			return nil, storageErr("put data_db", err)
		}
		if err := meta.Put(key, tsField); err != nil {
			w.Abort()
			return nil, storageErr("put meta_db", err)
		}
		if err := pending.Put(key, pendingField); err != nil {
			w.Abort()
			return nil, storageErr("put pending_db", err)
		}
		for _, sub := range subscribers {
			if err := w.DB(subDBPrefix(sub)).Put(key, nil); err != nil {
				w.Abort()
				return nil, storageErr("put subscriber inbox", err)
			}
		}
		ids[i] = id
	}

	if err := w.Commit(); err != nil {
		return nil, storageErr("commit put", err)
	}
	q.metrics.ObservePut(len(payloads))
	return ids, nil
}

func (q *Queue) isRegistered(sub string) bool {
	for _, id := range q.subs {
		if id == sub {
			return true
		}
	}
	return false
}

// Front returns the oldest undelivered payload in subscriber id's inbox
// without consuming it. It returns ok=false if the inbox is empty.
func (q *Queue) Front(ctx context.Context, id string) (payload []byte, ok bool, err error) {
	r := q.env.BeginRead()
	defer r.Close()

	inbox, err := r.DB(subDBPrefix(id)).Cursor()
	if err != nil {
		return nil, false, storageErr("open inbox cursor", err)
	}
	defer inbox.Close()

	if !inbox.First() {
		return nil, false, nil
	}
	key := append([]byte(nil), inbox.Key()...)

	v, found, err := r.DB(dataDBPrefix).Get(key)
	if err != nil {
		return nil, false, storageErr("read data_db", err)
	}
	if !found {
		return nil, false, fmt.Errorf("%w: msg_id %s present in inbox %s but absent from data_db", ErrInconsistent, string(key), id)
	}
	return v, true, nil
}

// InboxCount returns the number of undelivered messages in subscriber id's
// inbox. Not part of spec's core operation list, but needed by Subscriber's
// receive_to_top to know how many entries it can safely discard before
// delivering the last one.
func (q *Queue) InboxCount(ctx context.Context, id string) (int, error) {
	r := q.env.BeginRead()
	defer r.Close()
	n, err := r.DB(subDBPrefix(id)).Count()
	if err != nil {
		return 0, storageErr("count subscriber inbox", err)
	}
	return n, nil
}

// Pop removes the oldest undelivered message from subscriber id's inbox and
// decrements its pending counter. It does not delete the message from
// data_db/meta_db/pending_db even when the counter reaches zero; that
// cleanup is deferred to Vacuum.
func (q *Queue) Pop(ctx context.Context, id string) (MsgID, error) {
	w := q.env.BeginWrite()

	inboxDB := w.DB(subDBPrefix(id))
	cur, err := inboxDB.Cursor()
	if err != nil {
		w.Abort()
		return "", storageErr("open inbox cursor", err)
	}
	if !cur.First() {
		cur.Close()
		w.Abort()
		return "", ErrEmpty
	}
	key := append([]byte(nil), cur.Key()...)
	cur.Close()

	if err := inboxDB.Delete(key); err != nil {
		w.Abort()
		return "", storageErr("delete from inbox", err)
	}

	pendingDB := w.DB(pendingDBPrefix)
	v, found, err := pendingDB.Get(key)
	if err != nil {
		w.Abort()
		return "", storageErr("read pending_db", err)
	}
	if found {
		count, parseErr := parseUint(string(v))
		if parseErr != nil {
			// pending_db's value for key is not a counter we understand; leave
			// it as-is rather than overwrite it with a guessed value.
			w.Abort()
			return "", storageErr("parse pending_db counter", parseErr)
		}
		if count > 0 {
			count--
		}
		if err := pendingDB.Put(key, []byte(formatUint(count))); err != nil {
			w.Abort()
			return "", storageErr("write pending_db", err)
		}
	}

	if err := w.Commit(); err != nil {
		return "", storageErr("commit pop", err)
	}
	q.metrics.ObservePop()
	return MsgID(key), nil
}

// Count returns the number of live messages, i.e. the size of meta_db.
func (q *Queue) Count(ctx context.Context) (int, error) {
	r := q.env.BeginRead()
	defer r.Close()
	n, err := r.DB(metaDBPrefix).Count()
	if err != nil {
		return 0, storageErr("count meta_db", err)
	}
	return n, nil
}

// SizeBytes returns the approximate on-disk size of data_db.
func (q *Queue) SizeBytes() (uint64, error) {
	n, err := q.env.EstimateDiskUsage(dataDBPrefix)
	if err != nil {
		return 0, storageErr("estimate data_db size", err)
	}
	return n, nil
}
