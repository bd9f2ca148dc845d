package kvs

import (
	"errors"
	"time"

	"github.com/cockroachdb/pebble"
)

// FsyncMode selects WAL durability behavior for write transactions.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways forces a WAL sync on every committed write transaction.
	FsyncModeAlways
	// FsyncModeInterval lets Pebble coalesce WAL syncs within the configured
	// interval (group commit).
	FsyncModeInterval
	// FsyncModeNever never forces a sync from the application; Pebble may
	// still sync on its own schedule. Highest throughput, weakest durability.
	FsyncModeNever
)

// MetricsHook observes storage-level operations. Optional; defaults to a
// no-op so callers that don't care about metrics pay nothing for them.
type MetricsHook interface {
	ObserveCommit(kind string, elapsed time.Duration, keys int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveCommit(string, time.Duration, int) {}

// Options configures an Env.
type Options struct {
	// Dir is the queue directory; Pebble's on-disk files live here.
	Dir string
	// Fsync controls WAL durability for write transactions.
	Fsync FsyncMode
	// FsyncInterval controls group-commit spacing when Fsync == FsyncModeInterval.
	FsyncInterval time.Duration
	// MaxOpenFiles bounds Pebble's open file handles; zero uses Pebble's default.
	MaxOpenFiles int
	// Metrics observes commit latency and batch size. Optional.
	Metrics MetricsHook
}

// Env is one KVS environment bound to a single directory. At most one
// WriteTxn may be open against an Env at a time; the underlying Pebble
// instance serializes writers and never blocks readers.
type Env struct {
	inner     *pebble.DB
	writeSync bool
	metrics   MetricsHook
}

// Open opens (creating if absent) the environment at opts.Dir.
func Open(opts Options) (*Env, error) {
	if opts.Dir == "" {
		return nil, errors.New("kvs: Options.Dir is required")
	}

	po := &pebble.Options{}
	if opts.MaxOpenFiles > 0 {
		po.MaxOpenFiles = opts.MaxOpenFiles
	}

	switch opts.Fsync {
	case FsyncModeAlways:
		// WriteTxn.Commit passes pebble.Sync explicitly; no WAL interval needed.
	case FsyncModeInterval:
		interval := opts.FsyncInterval
		if interval <= 0 {
			interval = 5 * time.Millisecond
		}
		po.WALMinSyncInterval = func() time.Duration { return interval }
	case FsyncModeNever:
		// leave WALMinSyncInterval at zero and never pass Sync on commit.
	default:
		po.WALMinSyncInterval = func() time.Duration { return 5 * time.Millisecond }
	}

	inner, err := pebble.Open(opts.Dir, po)
	if err != nil {
		return nil, err
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &Env{
		inner:     inner,
		writeSync: opts.Fsync != FsyncModeNever,
		metrics:   metrics,
	}, nil
}

// Close releases the underlying Pebble instance. The Env must not be used
// afterward.
func (e *Env) Close() error {
	if e == nil || e.inner == nil {
		return nil
	}
	return e.inner.Close()
}

// BeginWrite starts a write transaction. Only one should be live at a time;
// the caller is responsible for calling Commit or Abort exactly once.
func (e *Env) BeginWrite() *WriteTxn {
	return &WriteTxn{
		env:   e,
		batch: e.inner.NewIndexedBatch(),
	}
}

// BeginRead starts a read transaction backed by a Pebble snapshot: a
// consistent point-in-time view that is unaffected by concurrent writers.
func (e *Env) BeginRead() *ReadTxn {
	return &ReadTxn{
		env:  e,
		snap: e.inner.NewSnapshot(),
	}
}
