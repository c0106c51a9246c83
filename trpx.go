// Package trpx implements Terse/Prolix (TRPX), a lossless compression codec
// for integer-valued raster data such as diffraction frames and greyscale
// stacks.
//
// Values are encoded in blocks (12 values by default) that are stripped of
// their most significant bits, provided those bits are all zero for unsigned
// data, or all zero or all one for signed data, in which case the sign bit is
// kept. Each block is preceded by a short header giving the number of bits
// kept per value; a block with the same width as its predecessor spends a
// single header bit. Detector images, whose pixel distributions are heavily
// skewed toward small magnitudes, therefore pack tightly. An all-zero block
// costs one bit when it opens a frame or follows another all-zero block, and
// four bits after a block of non-zero width.
//
// A Terse container may stack multiple frames of equal length, signedness
// and dimensions; frames are decoded individually by index. On a byte stream
// the payload is preceded by a small XML header, and the bit layout is
// chosen so that big- and little-endian hosts produce identical bytes.
package trpx

import "github.com/pkg/errors"

// DefaultBlockSize is the number of consecutive values that share one
// encoded bit width unless WithBlockSize says otherwise.
const DefaultBlockSize = 12

// A Terse holds one or more compressed frames sharing length, signedness
// and dimensions. The zero value is not usable; construct with New,
// FromValues or Read.
type Terse struct {
	signed bool
	block  int
	size   int // values per frame
	prolix int // bits required for the most extreme encoded value
	dim    []int
	data   []byte
	frames []int // byte offset of each frame's bit-stream; 0 means not yet known
}

// An Option configures a container at construction time.
type Option func(*Terse)

// WithBlockSize sets the number of consecutive values that share one
// encoded bit width.
func WithBlockSize(n int) Option {
	return func(t *Terse) {
		if n > 0 {
			t.block = n
		}
	}
}

// New returns an empty container. Signedness and frame length are fixed by
// the first appended frame.
func New(opts ...Option) *Terse {
	t := &Terse{block: DefaultBlockSize}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Size returns the number of values in a single frame.
func (t *Terse) Size() int {
	return t.size
}

// Frames returns the number of frames stored in the container.
func (t *Terse) Frames() int {
	return len(t.frames)
}

// IsSigned reports whether the encoded data are signed. Signed data cannot
// be decoded into unsigned sinks.
func (t *Terse) IsSigned() bool {
	return t.signed
}

// BitsPerValue returns the number of bits required to decode the most
// extreme value in the container without overflow.
func (t *Terse) BitsPerValue() int {
	return t.prolix
}

// BlockSize returns the number of values that share one encoded bit width.
func (t *Terse) BlockSize() int {
	return t.block
}

// TerseSize returns the number of payload bytes used by all encoded frames,
// excluding the textual header.
func (t *Terse) TerseSize() int {
	return len(t.data)
}

// Dim returns the dimensions of a frame, or an empty slice if none were
// set.
func (t *Terse) Dim() []int {
	return append([]int(nil), t.dim...)
}

// SetDim sets the dimensions shared by every frame. Dimensions can be set
// only once.
func (t *Terse) SetDim(dim []int) error {
	if len(t.dim) > 0 {
		return ErrDimLocked
	}
	for _, d := range dim {
		if d <= 0 {
			return errors.Errorf("trpx: dimension must be positive, got %d", d)
		}
	}
	t.dim = append([]int(nil), dim...)
	return nil
}
