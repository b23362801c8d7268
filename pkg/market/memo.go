package market

import (
	"encoding/binary"
	"hash/fnv"
	"io"
	"time"
)

// NewMemo derives a correlation id from the subject, the caller identity, and
// the current time. The nanosecond component makes repeated calls diverge, but
// there is no collision detection; two reservations hashed in the same tick by
// the same caller for the same subject would overwrite each other.
func NewMemo(subject string, caller Identity, at time.Time) Memo {
	digest := fnv.New64a()
	_, _ = io.WriteString(digest, subject)
	_, _ = io.WriteString(digest, caller.String())
	_ = binary.Write(digest, binary.BigEndian, at.UnixNano())
	return Memo(digest.Sum64())
}
