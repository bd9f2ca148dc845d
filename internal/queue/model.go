package queue

import (
	"regexp"
	"strconv"
	"strings"
)

// Strategy selects which half of the queue is discarded when a high-water
// mark is exceeded. The two literal on-disk strings are part of the
// directory's external format and must not change.
type Strategy int

const (
	// PruneFirst discards the oldest half, keeping the newer half.
	PruneFirst Strategy = iota
	// PruneLast discards the newest half, keeping the older half.
	PruneLast
)

const (
	strategyPruneFirst = "prune_first"
	strategyPruneLast  = "prune_last"
)

// String renders the strategy using its exact on-disk literal.
func (s Strategy) String() string {
	switch s {
	case PruneFirst:
		return strategyPruneFirst
	case PruneLast:
		return strategyPruneLast
	default:
		return "unknown"
	}
}

// ParseStrategy maps the two on-disk literals to their Strategy value,
// failing with ErrUnknownStrategy for anything else.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case strategyPruneFirst:
		return PruneFirst, nil
	case strategyPruneLast:
		return PruneLast, nil
	default:
		return 0, ErrUnknownStrategy
	}
}

// HighWaterMark is the triple of bounds that trigger reactive pruning.
type HighWaterMark struct {
	// MsgTimeoutSecs is the age after which a message is dangling
	// regardless of remaining pending count.
	MsgTimeoutSecs int64
	// MaxMsgsNum is the live-message-count bound.
	MaxMsgsNum uint64
	// HWMDBSizeBytes is the approximate data_db byte-size bound.
	HWMDBSizeBytes uint64
}

// Configuration keys stored verbatim (as decimal ASCII or plain strings) in
// queue_db. Portable and inspectable with generic KVS tools. Exported so
// package control can write them during Init/AddSubscriber/RemoveSubscriber.
const (
	ConfigKeyHWMDBSizeBytes = "hwm_db_size_bytes"
	ConfigKeyMaxMsgsNum     = "max_msgs_num"
	ConfigKeyMsgTimeoutSecs = "msg_timeout_secs"
	ConfigKeyStrategy       = "strategy"
	ConfigKeySubscriberIDs  = "subscriber_ids"

	configKeyHWMDBSizeBytes = ConfigKeyHWMDBSizeBytes
	configKeyMaxMsgsNum     = ConfigKeyMaxMsgsNum
	configKeyMsgTimeoutSecs = ConfigKeyMsgTimeoutSecs
	configKeyStrategy       = ConfigKeyStrategy
	configKeySubscriberIDs  = ConfigKeySubscriberIDs
)

// requiredConfigKeys lists all five keys that must be present for a queue
// to be considered initialized.
var requiredConfigKeys = []string{
	ConfigKeyHWMDBSizeBytes,
	ConfigKeyMaxMsgsNum,
	ConfigKeyMsgTimeoutSecs,
	ConfigKeyStrategy,
	ConfigKeySubscriberIDs,
}

// QueueData aggregates the parsed contents of queue_db.
type QueueData struct {
	HWM           HighWaterMark
	Strategy      Strategy
	SubscriberIDs []string
}

// EncodeSubscriberIDs renders a subscriber id list as the single
// space-separated ASCII string stored under subscriber_ids.
func EncodeSubscriberIDs(ids []string) string {
	return strings.Join(ids, " ")
}

// DecodeSubscriberIDs parses the space-separated subscriber_ids string.
// An empty string decodes to an empty (non-nil) slice.
func DecodeSubscriberIDs(s string) []string {
	fields := strings.Fields(s)
	if fields == nil {
		return []string{}
	}
	return fields
}

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }
func formatInt(v int64) string   { return strconv.FormatInt(v, 10) }

func parseUint(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) }
func parseInt(s string) (int64, error)   { return strconv.ParseInt(s, 10, 64) }

// subscriberIDPattern restricts subscriber identifiers to characters that
// are safe both as KVS sub-database prefixes and as directory-name-like
// tokens in queue_db[subscriber_ids]: this is stricter than spec.md
// requires, but spec.md is silent on subscriber-id syntax and an
// unconstrained id could otherwise collide with a reserved key prefix
// (data_db/, meta_db/, pending_db/, queue_db/).
var subscriberIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidSubscriberID reports whether id is safe to use as a subscriber
// identifier.
func ValidSubscriberID(id string) bool {
	if !subscriberIDPattern.MatchString(id) {
		return false
	}
	switch id {
	case "data_db", "meta_db", "pending_db", "queue_db":
		return false
	}
	return true
}
