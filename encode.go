package trpx

import (
	"math/bits"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"

	"github.com/miguelinux314/trpx/bitio"
)

// FromValues creates a container holding values as its first frame. The
// element type fixes the signedness of the container.
func FromValues[T constraints.Integer](values []T, opts ...Option) *Terse {
	t := New(opts...)
	t.signed = signedType[T]()
	t.size = len(values)
	t.frames = append(t.frames, 0)
	encodeFrame(t, values)
	return t
}

// Append encodes one more frame. The first frame appended to an empty
// container fixes its signedness and frame length; every further frame must
// match both.
func Append[T constraints.Integer](t *Terse, values []T) error {
	if len(t.frames) == 0 {
		t.signed = signedType[T]()
		t.size = len(values)
	} else {
		if len(values) != t.size {
			return errors.Wrapf(ErrSize, "frame has %d values, want %d", len(values), t.size)
		}
		if signedType[T]() != t.signed {
			return errors.Wrapf(ErrSignedness, "cannot append %s values to a %s container",
				signWord(signedType[T]()), signWord(t.signed))
		}
	}
	t.frames = append(t.frames, 0)
	encodeFrame(t, values)
	return nil
}

// encodeFrame compresses one frame of values onto the payload. The payload
// is grown once up front, so the cursor's base never moves mid-encode, and
// shrunk to the bytes actually used afterwards.
func encodeFrame[T constraints.Integer](t *Terse, values []T) {
	start := len(t.data)
	blocks := 0
	if t.size > 0 {
		blocks = (t.size + t.block - 1) / t.block
	}
	need := (t.size*typeBits[T]() + blocks*maxHeaderBits + 7) / 8
	t.data = append(t.data, make([]byte, need)...)

	cur := bitio.NewCursor(t.data[start:])
	prev := 0
	for from := 0; from < t.size; from += t.block {
		to := min(from+t.block, t.size)
		w := blockWidth(values[from:to])
		if w > t.prolix {
			t.prolix = w
		}
		if w == prev {
			cur.WriteBits(1, 1)
		} else {
			writeWidth(cur, w)
			prev = w
		}
		for _, v := range values[from:to] {
			cur.WriteBits(uint64(v), w)
		}
	}
	cur.AlignToByte()
	t.data = t.data[:start+cur.Pos()/8]
}

// blockWidth returns the smallest number of bits sufficient for every value
// in the block: the highest set bit for unsigned elements, one more than
// the highest set bit of the magnitude for signed ones. A value equal to
// the source type's minimum has no representable magnitude and needs the
// full type width.
func blockWidth[T constraints.Integer](block []T) int {
	if !signedType[T]() {
		var acc uint64
		for _, v := range block {
			acc |= uint64(v)
		}
		return bits.Len64(acc)
	}
	tmin := int64(-1) << uint(typeBits[T]()-1)
	var acc uint64
	for _, v := range block {
		sv := int64(v)
		switch {
		case sv == tmin:
			return typeBits[T]()
		case sv < 0:
			acc |= uint64(-sv)
		default:
			acc |= uint64(sv)
		}
	}
	if acc == 0 {
		return 0
	}
	return 1 + bits.Len64(acc)
}

func signedType[T constraints.Integer]() bool {
	return ^T(0) < T(0)
}

func typeBits[T constraints.Integer]() int {
	var v T
	return int(unsafe.Sizeof(v)) * 8
}

func signWord(signed bool) string {
	if signed {
		return "signed"
	}
	return "unsigned"
}
