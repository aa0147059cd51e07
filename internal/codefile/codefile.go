// Package codefile reads and writes compiled chunks. The wire format is
// big-endian throughout: the magic, a format version, a build id, a
// creation timestamp, then code, the line table, and the constant pool.
package codefile

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/ncruces/go-strftime"

	"pythowon/internal/chunk"
	"pythowon/internal/value"
)

const (
	Magic   = "POWON\x00\x00"
	Version = 1
)

// Constant tags on the wire.
const (
	tagNone byte = iota
	tagBool
	tagInt
	tagDouble
	tagInfinity
	tagNaN
	tagString
)

// Header describes a compiled artifact.
type Header struct {
	Version   uint16
	BuildID   uuid.UUID
	CreatedAt time.Time
}

// Timestamp renders the creation time for listings.
func (h *Header) Timestamp() string {
	return strftime.Format("%Y-%m-%d %H:%M:%S", h.CreatedAt)
}

// Sniff reports whether data starts with the artifact magic.
func Sniff(data []byte) bool {
	return len(data) >= len(Magic) && string(data[:len(Magic)]) == Magic
}

// Write serializes ch, stamping a fresh build id and the current time.
func Write(w io.Writer, ch *chunk.Chunk) error {
	if len(ch.Lines) != len(ch.Code) {
		return fmt.Errorf("codefile: malformed chunk: %d lines for %d code bytes",
			len(ch.Lines), len(ch.Code))
	}
	if len(ch.Code) > math.MaxUint32 || len(ch.Constants) > math.MaxUint32 {
		return fmt.Errorf("codefile: chunk too large")
	}

	if _, err := w.Write([]byte(Magic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint16(Version)); err != nil {
		return err
	}
	id := uuid.New()
	if _, err := w.Write(id[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint64(time.Now().Unix())); err != nil {
		return err
	}

	if err := binary.Write(w, binary.BigEndian, uint32(len(ch.Code))); err != nil {
		return err
	}
	if _, err := w.Write(ch.Code); err != nil {
		return err
	}
	for _, line := range ch.Lines {
		if err := binary.Write(w, binary.BigEndian, uint32(line)); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.BigEndian, uint32(len(ch.Constants))); err != nil {
		return err
	}
	for _, v := range ch.Constants {
		if err := writeConstant(w, v); err != nil {
			return err
		}
	}
	return nil
}

func writeConstant(w io.Writer, v value.Value) error {
	switch v.Type {
	case value.VAL_NONE:
		return binary.Write(w, binary.BigEndian, tagNone)
	case value.VAL_BOOL:
		if err := binary.Write(w, binary.BigEndian, tagBool); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.Bool)
	case value.VAL_INT:
		if err := binary.Write(w, binary.BigEndian, tagInt); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.Int)
	case value.VAL_DOUBLE:
		if err := binary.Write(w, binary.BigEndian, tagDouble); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, math.Float64bits(v.Double))
	case value.VAL_INFINITY:
		if err := binary.Write(w, binary.BigEndian, tagInfinity); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.Bool)
	case value.VAL_NAN:
		if err := binary.Write(w, binary.BigEndian, tagNaN); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.Bool)
	case value.VAL_OBJ:
		if !v.IsString() {
			return fmt.Errorf("codefile: unsupported object constant")
		}
		if err := binary.Write(w, binary.BigEndian, tagString); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint32(len(v.Obj.Str))); err != nil {
			return err
		}
		_, err := w.Write([]byte(v.Obj.Str))
		return err
	default:
		return fmt.Errorf("codefile: unsupported constant tag %d", v.Type)
	}
}

// Read deserializes an artifact. String constants are interned into pool so
// the loaded chunk obeys the same identity rules as a compiled one.
func Read(r io.Reader, pool *value.Pool) (*chunk.Chunk, *Header, error) {
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, nil, fmt.Errorf("codefile: reading magic: %w", err)
	}
	if string(magic) != Magic {
		return nil, nil, fmt.Errorf("codefile: bad magic")
	}

	var header Header
	if err := binary.Read(r, binary.BigEndian, &header.Version); err != nil {
		return nil, nil, err
	}
	if header.Version != Version {
		return nil, nil, fmt.Errorf("codefile: unsupported version %d", header.Version)
	}

	var id [16]byte
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return nil, nil, err
	}
	header.BuildID = uuid.UUID(id)

	var created uint64
	if err := binary.Read(r, binary.BigEndian, &created); err != nil {
		return nil, nil, err
	}
	header.CreatedAt = time.Unix(int64(created), 0)

	var codeLen uint32
	if err := binary.Read(r, binary.BigEndian, &codeLen); err != nil {
		return nil, nil, err
	}
	ch := chunk.New()
	ch.Code = make([]byte, codeLen)
	if _, err := io.ReadFull(r, ch.Code); err != nil {
		return nil, nil, err
	}

	ch.Lines = make([]int, codeLen)
	for i := range ch.Lines {
		var line uint32
		if err := binary.Read(r, binary.BigEndian, &line); err != nil {
			return nil, nil, err
		}
		ch.Lines[i] = int(line)
	}

	var constCount uint32
	if err := binary.Read(r, binary.BigEndian, &constCount); err != nil {
		return nil, nil, err
	}
	for i := uint32(0); i < constCount; i++ {
		v, err := readConstant(r, pool)
		if err != nil {
			return nil, nil, err
		}
		ch.Constants = append(ch.Constants, v)
	}

	return ch, &header, nil
}

func readConstant(r io.Reader, pool *value.Pool) (value.Value, error) {
	var tag byte
	if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
		return value.Value{}, err
	}

	switch tag {
	case tagNone:
		return value.NoneVal(), nil
	case tagBool:
		var b bool
		if err := binary.Read(r, binary.BigEndian, &b); err != nil {
			return value.Value{}, err
		}
		return value.BoolVal(b), nil
	case tagInt:
		var i int64
		if err := binary.Read(r, binary.BigEndian, &i); err != nil {
			return value.Value{}, err
		}
		return value.IntVal(i), nil
	case tagDouble:
		var bits uint64
		if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
			return value.Value{}, err
		}
		return value.DoubleVal(math.Float64frombits(bits)), nil
	case tagInfinity:
		var positive bool
		if err := binary.Read(r, binary.BigEndian, &positive); err != nil {
			return value.Value{}, err
		}
		return value.InfinityVal(positive), nil
	case tagNaN:
		var positive bool
		if err := binary.Read(r, binary.BigEndian, &positive); err != nil {
			return value.Value{}, err
		}
		return value.NaNVal(positive), nil
	case tagString:
		var length uint32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return value.Value{}, err
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return value.Value{}, err
		}
		return pool.StringVal(string(buf)), nil
	default:
		return value.Value{}, fmt.Errorf("codefile: unknown constant tag %d", tag)
	}
}
