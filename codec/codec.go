// Package codec implements the kind tagged binary encoding used for
// collection snapshots.
package codec

import (
	"bytes"

	"github.com/docfold/docfold/document"
)

const (
	kindNull     = byte(1)
	kindBool     = byte(2)
	kindInt64    = byte(3)
	kindFloat64  = byte(4)
	kindString   = byte(5)
	kindBytes    = byte(6)
	kindList     = byte(7)
	kindDocument = byte(8)
	kindObjectID = byte(9)

	kindSnapshot = byte(100)
)

// EncodeSnapshot returns the encoded form of a collection's documents.
func EncodeSnapshot(docs []document.Document) ([]byte, error) {
	var buffer bytes.Buffer
	enc := NewEncoder(&buffer)
	err := enc.EncodeSnapshot(docs)
	if err != nil {
		return nil, err
	}
	err = enc.Flush()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// DecodeSnapshot returns the documents encoded by EncodeSnapshot.
func DecodeSnapshot(data []byte) ([]document.Document, error) {
	return NewDecoder(bytes.NewReader(data)).DecodeSnapshot()
}
