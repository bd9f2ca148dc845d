package queue

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// uuidStringLen is the fixed length of uuid.NewString()'s canonical
// hyphenated-hex form (8-4-4-4-12 digits plus four hyphens). MsgID relies on
// this being constant width to split the timestamp prefix back out without
// a separator byte, since the suffix's own leading digit is otherwise
// indistinguishable from a timestamp digit.
const uuidStringLen = 36

// MsgID is a lexicographically sortable message identifier: the publish
// timestamp in whole seconds as decimal ASCII, followed by a random
// 128-bit identifier rendered as a hyphenated hex string. Ascending byte
// order therefore matches ascending publish time, with the random suffix
// breaking ties between messages published in the same second.
//
// Unlike a monotonic counter, the suffix carries no ordering information
// of its own: two ids from the same second compare arbitrarily relative to
// each other, and callers must not depend on that sub-second order for
// anything beyond tie-breaking.
type MsgID string

// nowSeconds is a seam for tests; production code always uses the real
// clock.
var nowSeconds = func() int64 { return time.Now().Unix() }

// NewMsgID builds a fresh id stamped at the current time.
func NewMsgID() MsgID {
	return newMsgIDAt(nowSeconds())
}

func newMsgIDAt(ts int64) MsgID {
	return MsgID(strconv.FormatInt(ts, 10) + uuid.NewString())
}

// Timestamp extracts the publish-second component encoded at the front of
// the id. It does not validate the random suffix.
func (m MsgID) Timestamp() (int64, bool) {
	s := string(m)
	if len(s) <= uuidStringLen {
		return 0, false
	}
	ts, err := strconv.ParseInt(s[:len(s)-uuidStringLen], 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
