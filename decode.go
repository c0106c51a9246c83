package trpx

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"

	"github.com/miguelinux314/trpx/bitio"
)

// Decode unpacks frame number frame into sink, which must hold at least
// Size values. Signed data cannot be decoded into an unsigned sink.
//
// Values wider than the sink saturate: unsigned sinks clamp to their
// maximum, signed sinks clamp to their maximum or minimum by sign. Unsigned
// data decoded into a signed sink of exactly the block's width is
// reinterpreted bit-for-bit, so an all-ones value comes out as -1; callers
// that care choose a wider signed sink.
func Decode[T constraints.Integer](t *Terse, frame int, sink []T) error {
	if t.signed && !signedType[T]() {
		return errors.Wrap(ErrSignedness, "signed data cannot decode into an unsigned sink")
	}
	if len(sink) < t.size {
		return errors.Wrapf(ErrSize, "sink holds %d values, frame has %d", len(sink), t.size)
	}
	out := sink[:t.size]
	return t.decodeFrame(frame, func(cur *bitio.Cursor, w, from, to int) {
		if w == 0 {
			for i := from; i < to; i++ {
				out[i] = 0
			}
			return
		}
		decodeBlock(cur, w, t.signed, out[from:to])
	})
}

// DecodeFloat unpacks frame number frame into a floating-point sink. Both
// signed and unsigned data decode into floats with the correct sign; no
// saturation applies.
func DecodeFloat[F constraints.Float](t *Terse, frame int, sink []F) error {
	if len(sink) < t.size {
		return errors.Wrapf(ErrSize, "sink holds %d values, frame has %d", len(sink), t.size)
	}
	out := sink[:t.size]
	return t.decodeFrame(frame, func(cur *bitio.Cursor, w, from, to int) {
		block := out[from:to]
		switch {
		case w == 0:
			for i := range block {
				block[i] = 0
			}
		case t.signed:
			for i := range block {
				block[i] = F(signExtend(cur.ReadBits(w), w))
			}
		default:
			for i := range block {
				block[i] = F(cur.ReadBits(w))
			}
		}
	})
}

// ScanOffsets populates the byte offset of every frame eagerly. Afterwards,
// read-only decodes of distinct frames may run concurrently.
func (t *Terse) ScanOffsets() error {
	if len(t.frames) == 0 {
		return nil
	}
	_, err := t.frameOffset(len(t.frames) - 1)
	return err
}

// decodeFrame locates the frame's byte offset, walks its blocks with visit,
// and records the offset of the following frame as a byproduct.
func (t *Terse) decodeFrame(frame int, visit func(cur *bitio.Cursor, w, from, to int)) error {
	if frame < 0 || frame >= len(t.frames) {
		return errors.Wrapf(ErrFrameRange, "frame %d of %d", frame, len(t.frames))
	}
	off, err := t.frameOffset(frame)
	if err != nil {
		return err
	}
	n, err := t.walkFrame(off, visit)
	if err != nil {
		return err
	}
	if frame+1 < len(t.frames) && t.frames[frame+1] == 0 {
		t.frames[frame+1] = off + n
	}
	return nil
}

// frameOffset returns the byte offset of the frame's bit-stream, scanning
// forward from the nearest known offset and caching every offset the scan
// passes. Frame 0 always starts at 0.
func (t *Terse) frameOffset(frame int) (int, error) {
	known := frame
	for known > 0 && t.frames[known] == 0 {
		known--
	}
	for i := known; i < frame; i++ {
		n, err := t.walkFrame(t.frames[i], nil)
		if err != nil {
			return 0, err
		}
		t.frames[i+1] = t.frames[i] + n
	}
	return t.frames[frame], nil
}

// walkFrame drives the block headers of one frame starting at byte offset
// off, calling visit with the cursor positioned on each block's payload.
// A nil visit skips payload bits without materialising values. The return
// value is the frame's length in whole bytes.
func (t *Terse) walkFrame(off int, visit func(cur *bitio.Cursor, w, from, to int)) (int, error) {
	if off < 0 || off > len(t.data) {
		return 0, errors.Wrapf(ErrTruncated, "frame offset %d beyond %d payload bytes", off, len(t.data))
	}
	cur := bitio.NewCursor(t.data[off:])
	prev := 0
	for from := 0; from < t.size; from += t.block {
		to := min(from+t.block, t.size)
		w, err := readWidth(cur, prev)
		if err != nil {
			return 0, err
		}
		prev = w
		if need := w * (to - from); cur.Remaining() < need {
			return 0, errors.Wrapf(ErrTruncated, "%d bits missing from block at value %d", need-cur.Remaining(), from)
		}
		if visit != nil {
			visit(cur, w, from, to)
		} else {
			cur.Skip(w * (to - from))
		}
	}
	cur.AlignToByte()
	return cur.Pos() / 8, nil
}

// decodeBlock reads fixed-width fields into out, sign-extending signed
// sources and saturating values the sink cannot hold.
func decodeBlock[T constraints.Integer](cur *bitio.Cursor, w int, srcSigned bool, out []T) {
	tb := typeBits[T]()
	switch {
	case !srcSigned && !signedType[T]():
		umax := ^uint64(0)
		if tb < 64 {
			umax = 1<<uint(tb) - 1
		}
		for i := range out {
			u := cur.ReadBits(w)
			if u > umax {
				u = umax
			}
			out[i] = T(u)
		}
	case !srcSigned && signedType[T]():
		smax := uint64(1)<<uint(tb-1) - 1
		for i := range out {
			u := cur.ReadBits(w)
			if w > tb && u > smax {
				u = smax
			}
			out[i] = T(u)
		}
	default: // signed source, signed sink
		smax := int64(1)<<uint(tb-1) - 1
		smin := -smax - 1
		for i := range out {
			v := signExtend(cur.ReadBits(w), w)
			if tb < 64 {
				if v > smax {
					v = smax
				} else if v < smin {
					v = smin
				}
			}
			out[i] = T(v)
		}
	}
}

// signExtend interprets the low w bits of u, 1 <= w <= 64, as a
// two's-complement value.
func signExtend(u uint64, w int) int64 {
	if w < 64 && u&(1<<uint(w-1)) != 0 {
		u |= ^uint64(0) << uint(w)
	}
	return int64(u)
}
