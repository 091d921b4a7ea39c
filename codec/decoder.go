package codec

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/docfold/docfold/document"
	"github.com/docfold/docfold/oid"
)

type Decoder struct {
	r *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{bufio.NewReader(r)}
}

func (d *Decoder) Decode() (any, error) {
	kind, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	err = d.r.UnreadByte()
	if err != nil {
		return nil, err
	}
	switch kind {
	case kindNull:
		return nil, d.DecodeNull()
	case kindObjectID:
		return d.DecodeObjectID()
	case kindBytes:
		return d.DecodeBytes()
	case kindString:
		return d.DecodeString()
	case kindInt64:
		return d.DecodeInt64()
	case kindFloat64:
		return d.DecodeFloat64()
	case kindBool:
		return d.DecodeBool()
	case kindList:
		return d.DecodeList()
	case kindDocument:
		return d.DecodeDocument()
	default:
		return nil, fmt.Errorf("invalid codec kind %x", kind)
	}
}

// DecodeSnapshot decodes an ordered document sequence.
func (d *Decoder) DecodeSnapshot() ([]document.Document, error) {
	kind, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	if kind != kindSnapshot {
		return nil, fmt.Errorf("unexpected codec kind %x", kind)
	}
	size, err := d.readUint64()
	if err != nil {
		return nil, err
	}
	docs := make([]document.Document, size)
	for i := 0; i < int(size); i++ {
		doc, err := d.DecodeDocument()
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}
	return docs, nil
}

func (d *Decoder) DecodeNull() error {
	kind, err := d.r.ReadByte()
	if err != nil {
		return err
	}
	if kind != kindNull {
		return fmt.Errorf("unexpected codec kind %x", kind)
	}
	return nil
}

func (d *Decoder) DecodeObjectID() (oid.ObjectID, error) {
	var id oid.ObjectID
	kind, err := d.r.ReadByte()
	if err != nil {
		return id, err
	}
	if kind != kindObjectID {
		return id, fmt.Errorf("unexpected codec kind %x", kind)
	}
	value := make([]byte, 12)
	_, err = io.ReadFull(d.r, value)
	if err != nil {
		return id, err
	}
	return oid.FromBytes(value)
}

func (d *Decoder) DecodeBytes() ([]byte, error) {
	kind, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	if kind != kindBytes {
		return nil, fmt.Errorf("unexpected codec kind %x", kind)
	}
	size, err := d.readUint64()
	if err != nil {
		return nil, err
	}
	value := make([]byte, size)
	_, err = io.ReadFull(d.r, value)
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (d *Decoder) DecodeString() (string, error) {
	kind, err := d.r.ReadByte()
	if err != nil {
		return "", err
	}
	if kind != kindString {
		return "", fmt.Errorf("unexpected codec kind %x", kind)
	}
	size, err := d.readUint64()
	if err != nil {
		return "", err
	}
	value := make([]byte, size)
	_, err = io.ReadFull(d.r, value)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (d *Decoder) DecodeInt64() (int64, error) {
	kind, err := d.r.ReadByte()
	if err != nil {
		return 0, err
	}
	if kind != kindInt64 {
		return 0, fmt.Errorf("unexpected codec kind %x", kind)
	}
	value, err := d.readUint64()
	if err != nil {
		return 0, err
	}
	return int64(value), nil
}

func (d *Decoder) DecodeFloat64() (float64, error) {
	kind, err := d.r.ReadByte()
	if err != nil {
		return 0, err
	}
	if kind != kindFloat64 {
		return 0, fmt.Errorf("unexpected codec kind %x", kind)
	}
	value, err := d.readUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(value), nil
}

func (d *Decoder) DecodeBool() (bool, error) {
	kind, err := d.r.ReadByte()
	if err != nil {
		return false, err
	}
	if kind != kindBool {
		return false, fmt.Errorf("unexpected codec kind %x", kind)
	}
	value, err := d.r.ReadByte()
	if err != nil {
		return false, err
	}
	return value != 0, nil
}

func (d *Decoder) DecodeList() ([]any, error) {
	kind, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	if kind != kindList {
		return nil, fmt.Errorf("unexpected codec kind %x", kind)
	}
	size, err := d.readUint64()
	if err != nil {
		return nil, err
	}
	value := make([]any, size)
	for i := 0; i < int(size); i++ {
		v, err := d.Decode()
		if err != nil {
			return nil, err
		}
		value[i] = v
	}
	return value, nil
}

func (d *Decoder) DecodeDocument() (map[string]any, error) {
	kind, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	if kind != kindDocument {
		return nil, fmt.Errorf("unexpected codec kind %x", kind)
	}
	size, err := d.readUint64()
	if err != nil {
		return nil, err
	}
	value := make(map[string]any, size)
	for i := 0; i < int(size); i++ {
		k, err := d.DecodeString()
		if err != nil {
			return nil, err
		}
		v, err := d.Decode()
		if err != nil {
			return nil, err
		}
		value[k] = v
	}
	return value, nil
}

func (d *Decoder) readUint64() (uint64, error) {
	result := uint64(0)
	for i := 0; i < 8; i++ {
		b, err := d.r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b) << (i * 8)
	}
	return result, nil
}
