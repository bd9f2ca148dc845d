package queue

// Sub-database prefixes. Each is a disjoint region of the single Pebble
// keyspace (see internal/storage/kvs); together with SubDBPrefix these are
// the only prefixes the engine ever opens a kvs.DB against. Exported so
// package control can address queue_db and subscriber inboxes directly
// during init/add-subscriber/remove-subscriber, which run against a
// directory the queue engine itself may not yet consider initialized.
var (
	dataDBPrefix    = []byte("data_db/")
	metaDBPrefix    = []byte("meta_db/")
	pendingDBPrefix = []byte("pending_db/")
	QueueDBPrefix   = []byte("queue_db/")
	subDBPrefixBase = []byte("sub/")
)

// SubDBPrefix returns the key prefix for a subscriber's inbox sub-database.
func SubDBPrefix(subID string) []byte {
	p := make([]byte, 0, len(subDBPrefixBase)+len(subID)+1)
	p = append(p, subDBPrefixBase...)
	p = append(p, subID...)
	p = append(p, '/')
	return p
}

func subDBPrefix(subID string) []byte { return SubDBPrefix(subID) }
