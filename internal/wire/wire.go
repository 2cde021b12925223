package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version      byte = 1
	kindSnapshot byte = 1

	headerLen = 4 + 1 + 1 + 4 + 8 + 4
)

var (
	ErrCorrupt        = errors.New("parkcache: corrupt entry")
	ErrSchemaMismatch = errors.New("parkcache: schema version mismatch")
	magic4            = [...]byte{'P', 'K', 'C', 'S'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Frame is one decoded snapshot entry.
type Frame struct {
	Schema  uint32
	Gen     uint64
	Payload []byte
}

// Snapshot: magic(4) | ver(1) | kind(1=snapshot) | schema(u32 be) | gen(u64 be) | vlen(u32 be) | payload(vlen)
func EncodeSnapshot(schema uint32, gen uint64, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(headerLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindSnapshot)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint32(u4[:], schema)
	buf.Write(u4[:])

	binary.BigEndian.PutUint64(u8[:], gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// DecodeSnapshot parses a frame. Framing is strict: bad magic, version or
// kind, short payloads and trailing bytes are all ErrCorrupt.
func DecodeSnapshot(b []byte) (Frame, error) {
	if len(b) < headerLen || !hasMagic(b) || b[4] != version || b[5] != kindSnapshot {
		return Frame{}, ErrCorrupt
	}

	off := 6
	var f Frame

	f.Schema = binary.BigEndian.Uint32(b[off : off+4])
	off += 4

	f.Gen = binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // overflow-safe; no trailing bytes
		return Frame{}, ErrCorrupt
	}

	f.Payload = b[off : off+vlen]
	return f, nil
}

// DecodeSnapshotSchema is DecodeSnapshot plus a schema check.
func DecodeSnapshotSchema(b []byte, schema uint32) (Frame, error) {
	f, err := DecodeSnapshot(b)
	if err != nil {
		return Frame{}, err
	}
	if f.Schema != schema {
		return Frame{}, ErrSchemaMismatch
	}
	return f, nil
}
