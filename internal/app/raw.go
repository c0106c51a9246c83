package app

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"

	"github.com/miguelinux314/trpx"
)

func validDtype(dtype string) bool {
	switch dtype {
	case "u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64":
		return true
	}
	return false
}

func elemSize(dtype string) int {
	switch dtype {
	case "u8", "i8":
		return 1
	case "u16", "i16":
		return 2
	case "u32", "i32":
		return 4
	default:
		return 8
	}
}

// appendRaw parses one frame of little-endian values and appends it.
func appendRaw(t *trpx.Terse, dtype string, raw []byte) error {
	le := binary.LittleEndian
	switch dtype {
	case "u8":
		return trpx.Append(t, raw)
	case "u16":
		return trpx.Append(t, parseFrame(raw, 2, le.Uint16))
	case "u32":
		return trpx.Append(t, parseFrame(raw, 4, le.Uint32))
	case "u64":
		return trpx.Append(t, parseFrame(raw, 8, le.Uint64))
	case "i8":
		return trpx.Append(t, parseFrame(raw, 1, func(b []byte) int8 { return int8(b[0]) }))
	case "i16":
		return trpx.Append(t, parseFrame(raw, 2, func(b []byte) int16 { return int16(le.Uint16(b)) }))
	case "i32":
		return trpx.Append(t, parseFrame(raw, 4, func(b []byte) int32 { return int32(le.Uint32(b)) }))
	case "i64":
		return trpx.Append(t, parseFrame(raw, 8, func(b []byte) int64 { return int64(le.Uint64(b)) }))
	default:
		return errors.Errorf("unknown dtype %q", dtype)
	}
}

func parseFrame[T constraints.Integer](raw []byte, elem int, get func([]byte) T) []T {
	out := make([]T, len(raw)/elem)
	for i := range out {
		out[i] = get(raw[i*elem:])
	}
	return out
}

// dumpRaw decodes every frame and writes it as little-endian values.
func dumpRaw(w io.Writer, t *trpx.Terse, dtype string) error {
	le := binary.LittleEndian
	switch dtype {
	case "u8":
		return dumpFrames(w, t, 1, func(b []byte, v uint8) { b[0] = v })
	case "u16":
		return dumpFrames(w, t, 2, func(b []byte, v uint16) { le.PutUint16(b, v) })
	case "u32":
		return dumpFrames(w, t, 4, func(b []byte, v uint32) { le.PutUint32(b, v) })
	case "u64":
		return dumpFrames(w, t, 8, func(b []byte, v uint64) { le.PutUint64(b, v) })
	case "i8":
		return dumpFrames(w, t, 1, func(b []byte, v int8) { b[0] = byte(v) })
	case "i16":
		return dumpFrames(w, t, 2, func(b []byte, v int16) { le.PutUint16(b, uint16(v)) })
	case "i32":
		return dumpFrames(w, t, 4, func(b []byte, v int32) { le.PutUint32(b, uint32(v)) })
	case "i64":
		return dumpFrames(w, t, 8, func(b []byte, v int64) { le.PutUint64(b, uint64(v)) })
	default:
		return errors.Errorf("unknown dtype %q", dtype)
	}
}

func dumpFrames[T constraints.Integer](w io.Writer, t *trpx.Terse, elem int, put func([]byte, T)) error {
	sink := make([]T, t.Size())
	buf := make([]byte, t.Size()*elem)
	for f := 0; f < t.Frames(); f++ {
		if err := trpx.Decode(t, f, sink); err != nil {
			return err
		}
		for i, v := range sink {
			put(buf[i*elem:], v)
		}
		if _, err := w.Write(buf); err != nil {
			return errors.Wrap(err, "write dest")
		}
	}
	return nil
}
