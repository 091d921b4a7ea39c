package codec

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/docfold/docfold/document"
	"github.com/docfold/docfold/oid"
)

type Encoder struct {
	w *bufio.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{bufio.NewWriter(w)}
}

func (e *Encoder) Flush() error {
	return e.w.Flush()
}

func (e *Encoder) Encode(value any) error {
	switch t := value.(type) {
	case nil:
		return e.EncodeNull()
	case oid.ObjectID:
		return e.EncodeObjectID(t)
	case []byte:
		return e.EncodeBytes(t)
	case string:
		return e.EncodeString(t)
	case int:
		return e.EncodeInt64(int64(t))
	case int64:
		return e.EncodeInt64(t)
	case float64:
		return e.EncodeFloat64(t)
	case bool:
		return e.EncodeBool(t)
	case []any:
		return e.EncodeList(t)
	case map[string]any:
		return e.EncodeDocument(t)
	default:
		return fmt.Errorf("no encoder for %T", value)
	}
}

// EncodeSnapshot encodes an ordered document sequence.
func (e *Encoder) EncodeSnapshot(docs []document.Document) error {
	err := e.w.WriteByte(kindSnapshot)
	if err != nil {
		return err
	}
	err = e.writeUint64(uint64(len(docs)))
	if err != nil {
		return err
	}
	for _, doc := range docs {
		err := e.EncodeDocument(doc)
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) EncodeNull() error {
	return e.w.WriteByte(kindNull)
}

func (e *Encoder) EncodeObjectID(value oid.ObjectID) error {
	err := e.w.WriteByte(kindObjectID)
	if err != nil {
		return err
	}
	_, err = e.w.Write(value.Bytes())
	return err
}

func (e *Encoder) EncodeBytes(value []byte) error {
	err := e.w.WriteByte(kindBytes)
	if err != nil {
		return err
	}
	err = e.writeUint64(uint64(len(value)))
	if err != nil {
		return err
	}
	_, err = e.w.Write(value)
	return err
}

func (e *Encoder) EncodeString(value string) error {
	err := e.w.WriteByte(kindString)
	if err != nil {
		return err
	}
	err = e.writeUint64(uint64(len(value)))
	if err != nil {
		return err
	}
	_, err = e.w.Write([]byte(value))
	return err
}

func (e *Encoder) EncodeInt64(value int64) error {
	err := e.w.WriteByte(kindInt64)
	if err != nil {
		return err
	}
	return e.writeUint64(uint64(value))
}

func (e *Encoder) EncodeFloat64(value float64) error {
	err := e.w.WriteByte(kindFloat64)
	if err != nil {
		return err
	}
	return e.writeUint64(math.Float64bits(value))
}

func (e *Encoder) EncodeBool(value bool) error {
	err := e.w.WriteByte(kindBool)
	if err != nil {
		return err
	}
	if value {
		return e.w.WriteByte(1)
	}
	return e.w.WriteByte(0)
}

func (e *Encoder) EncodeList(value []any) error {
	err := e.w.WriteByte(kindList)
	if err != nil {
		return err
	}
	err = e.writeUint64(uint64(len(value)))
	if err != nil {
		return err
	}
	for _, v := range value {
		err := e.Encode(v)
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) EncodeDocument(value map[string]any) error {
	err := e.w.WriteByte(kindDocument)
	if err != nil {
		return err
	}
	err = e.writeUint64(uint64(len(value)))
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(value))
	for k := range value {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		err := e.EncodeString(k)
		if err != nil {
			return err
		}
		err = e.Encode(value[k])
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeUint64(value uint64) error {
	for i := 0; i < 8; i++ {
		err := e.w.WriteByte(byte(value >> (i * 8)))
		if err != nil {
			return err
		}
	}
	return nil
}
