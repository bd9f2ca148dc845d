// Package queue implements the persistent, multi-subscriber message queue
// engine: the data layout across sub-databases, the transactional
// protocols for publish/peek/acknowledge, reference-counted message
// lifetime across subscribers, and the two-axis overflow policy
// (dangling-message collection plus high-water-mark pruning).
//
// # Layout
//
// One Env (internal/storage/kvs) backs four well-known sub-databases plus
// one per registered subscriber:
//
//	data_db     msg_id -> payload bytes
//	meta_db     msg_id -> publish timestamp (decimal ASCII seconds)
//	pending_db  msg_id -> remaining subscriber count (decimal ASCII)
//	queue_db    configuration keys
//	<sub_id>    msg_id -> "" (subscriber inbox)
//
// msg_id is built so that ascending byte order matches ascending publish
// time: publish_ts_seconds as decimal ASCII, followed by a random 128-bit
// suffix (internal/queue/msgid.go) that breaks ties without implying any
// further order.
//
// # Lifecycle
//
// A message is created Live by Put/PutMany, partially consumed by Pop
// (which only ever decrements pending_db, never deletes), and goes Dead
// only inside Vacuum: when its pending counter reaches zero, its age
// exceeds msg_timeout_secs, or it is chosen by a high-water-mark prune.
// Vacuum runs automatically at the start of every Put/PutMany.
package queue
