package trpx

import (
	"github.com/pkg/errors"

	"github.com/miguelinux314/trpx/bitio"
)

// Every block starts with a header naming its bit width. A set first bit
// reuses the previous block's width and ends the header. A clear first bit
// is followed by an absolute width in an escalating form, read LSB-first:
// a 3-bit field below 7 is the width itself; the value 7 escapes into a
// 2-bit extension covering widths 7 to 9; the extension value 3 escapes
// into a final 6-bit field covering widths 10 to 64.
const maxHeaderBits = 12

// writeWidth emits the absolute header form for w, narrowest form first.
// Callers emit the one-bit reuse form themselves when w matches the
// previous block.
func writeWidth(cur *bitio.Cursor, w int) {
	switch {
	case w < 7:
		cur.WriteBits(uint64(w)<<1, 4)
	case w < 10:
		cur.WriteBits(0b111<<1|uint64(w-7)<<4, 6)
	default:
		cur.WriteBits(0b11111<<1|uint64(w-10)<<6, maxHeaderBits)
	}
}

// readWidth reads one block header and returns the block's width, given the
// width carried over from the preceding block.
func readWidth(cur *bitio.Cursor, prev int) (int, error) {
	if cur.Remaining() < 1 {
		return 0, errors.Wrap(ErrTruncated, "block header")
	}
	if cur.ReadBit() == 1 {
		return prev, nil
	}
	if cur.Remaining() < 3 {
		return 0, errors.Wrap(ErrTruncated, "block header")
	}
	w := int(cur.ReadBits(3))
	if w == 7 {
		if cur.Remaining() < 2 {
			return 0, errors.Wrap(ErrTruncated, "block header")
		}
		w += int(cur.ReadBits(2))
		if w == 10 {
			if cur.Remaining() < 6 {
				return 0, errors.Wrap(ErrTruncated, "block header")
			}
			w += int(cur.ReadBits(6))
		}
	}
	if w > 64 {
		return 0, errors.Wrapf(ErrWidth, "%d bits per value", w)
	}
	return w, nil
}
