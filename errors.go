package trpx

import "errors"

// Error kinds reported by the codec. Call sites wrap them with context;
// match with errors.Is.
var (
	// ErrSignedness is reported when a frame's signedness differs from the
	// container's, or when signed data is decoded into an unsigned sink.
	ErrSignedness = errors.New("trpx: signedness mismatch")

	// ErrSize is reported when a frame or sink has the wrong number of
	// values.
	ErrSize = errors.New("trpx: size mismatch")

	// ErrDimLocked is reported when dimensions are set on a container that
	// already has them.
	ErrDimLocked = errors.New("trpx: dimensions already set")

	// ErrFrameRange is reported for a frame index at or beyond the frame
	// count.
	ErrFrameRange = errors.New("trpx: frame index out of range")

	// ErrHeader is reported when the textual header is missing, lacks a
	// required attribute, or contains a non-numeric or out-of-range value.
	ErrHeader = errors.New("trpx: malformed header")

	// ErrTruncated is reported when the byte source or the payload ends
	// before the data it announces.
	ErrTruncated = errors.New("trpx: truncated payload")

	// ErrWidth is reported when a decoded block header announces a width
	// above 64 bits.
	ErrWidth = errors.New("trpx: invalid bit width")
)
