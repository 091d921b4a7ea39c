package oid

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

// ObjectID is a unique 12-byte document identifier: a 4-byte big-endian
// timestamp in seconds, 5 process-unique bytes, and a 3-byte counter.
type ObjectID [12]byte

var (
	counter       atomic.Uint32
	processUnique [5]byte
)

func init() {
	rand.Read(processUnique[:])
	var seed [4]byte
	rand.Read(seed[:])
	counter.Store(binary.BigEndian.Uint32(seed[:]))
}

// SetProcessUnique overrides the process-unique bytes used by New.
// Intended for deterministic tests.
func SetProcessUnique(b [5]byte) {
	processUnique = b
}

// SetCounter overrides the counter used by New.
// Intended for deterministic tests.
func SetCounter(n uint32) {
	counter.Store(n)
}

// New returns a new ObjectID stamped with the current time.
func New() ObjectID {
	return NewWithTime(time.Now())
}

// NewWithTime returns a new ObjectID stamped with the given time.
func NewWithTime(t time.Time) ObjectID {
	var id ObjectID
	binary.BigEndian.PutUint32(id[0:4], uint32(t.Unix()))
	copy(id[4:9], processUnique[:])
	n := counter.Add(1)
	id[9] = byte(n >> 16)
	id[10] = byte(n >> 8)
	id[11] = byte(n)
	return id
}

// FromHex returns the ObjectID encoded by a 24 character hex string.
func FromHex(s string) (ObjectID, error) {
	var id ObjectID
	if len(s) != 24 {
		return id, fmt.Errorf("invalid object id length %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid object id %q: %w", s, err)
	}
	copy(id[:], b)
	return id, nil
}

// FromBytes returns the ObjectID encoded by 12 raw bytes.
func FromBytes(b []byte) (ObjectID, error) {
	var id ObjectID
	if len(b) != 12 {
		return id, fmt.Errorf("invalid object id length %d", len(b))
	}
	copy(id[:], b)
	return id, nil
}

// IsHex returns true if the given string is a valid ObjectID hex encoding.
func IsHex(s string) bool {
	_, err := FromHex(s)
	return err == nil
}

// Hex returns the 24 character lowercase hex encoding of the id.
func (id ObjectID) Hex() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the 12 raw bytes of the id.
func (id ObjectID) Bytes() []byte {
	return id[:]
}

// String returns the hex encoding of the id.
func (id ObjectID) String() string {
	return id.Hex()
}

// MarshalText encodes the id as its hex form, so json and yaml render
// ids as strings rather than byte arrays.
func (id ObjectID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

// UnmarshalText decodes the id from its hex form.
func (id *ObjectID) UnmarshalText(text []byte) error {
	decoded, err := FromHex(string(text))
	if err != nil {
		return err
	}
	*id = decoded
	return nil
}

// Equal returns true if the given id has the same byte value.
func (id ObjectID) Equal(other ObjectID) bool {
	return bytes.Equal(id[:], other[:])
}

// IsZero returns true if the id is the zero value.
func (id ObjectID) IsZero() bool {
	return id == ObjectID{}
}

// GenerationTime returns the timestamp the id was generated at,
// decoded from its first 4 bytes and truncated to whole seconds.
func (id ObjectID) GenerationTime() time.Time {
	secs := binary.BigEndian.Uint32(id[0:4])
	return time.Unix(int64(secs), 0)
}
