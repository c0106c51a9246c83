package trpx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// maxElementBytes bounds the textual header scan; a Terse element with
// every attribute and generous dimensions fits well below this.
const maxElementBytes = 1 << 16

// Write emits the textual header followed by the raw payload bytes and
// flushes sinks that support it. The bytes written are independent of the
// host byte order.
func (t *Terse) Write(w io.Writer) error {
	var hdr bytes.Buffer
	fmt.Fprintf(&hdr, `<Terse prolix_bits="%d" signed="%d" block="%d" memory_size="%d" number_of_values="%d"`,
		t.prolix, boolAttr(t.signed), t.block, len(t.data), t.size)
	if len(t.dim) > 0 {
		hdr.WriteString(` dimensions="`)
		for i, d := range t.dim {
			if i > 0 {
				hdr.WriteByte(' ')
			}
			fmt.Fprintf(&hdr, "%d", d)
		}
		hdr.WriteByte('"')
	}
	fmt.Fprintf(&hdr, ` number_of_frames="%d"/>`, len(t.frames))

	if _, err := w.Write(hdr.Bytes()); err != nil {
		return errors.Wrap(err, "trpx: write header")
	}
	if _, err := w.Write(t.data); err != nil {
		return errors.Wrap(err, "trpx: write payload")
	}
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// terseElement mirrors the attributes of the <Terse/> header. Pointer
// fields distinguish absent attributes from zero values.
type terseElement struct {
	ProlixBits *int   `xml:"prolix_bits,attr"`
	Signed     *int   `xml:"signed,attr"`
	Block      *int   `xml:"block,attr"`
	MemorySize *int   `xml:"memory_size,attr"`
	Values     *int   `xml:"number_of_values,attr"`
	Dimensions string `xml:"dimensions,attr"`
	Frames     *int   `xml:"number_of_frames,attr"`
}

// Read consumes a Terse stream from r: the textual header, then exactly the
// payload bytes it announces. The source is left positioned on the first
// byte past the payload, so consecutive containers on one stream read back
// to back.
func Read(r io.Reader) (*Terse, error) {
	elem, err := scanElement(r)
	if err != nil {
		return nil, err
	}
	var h terseElement
	if err := xml.Unmarshal(elem, &h); err != nil {
		return nil, errors.Wrap(ErrHeader, err.Error())
	}
	for name, p := range map[string]*int{
		"prolix_bits":      h.ProlixBits,
		"signed":           h.Signed,
		"block":            h.Block,
		"memory_size":      h.MemorySize,
		"number_of_values": h.Values,
	} {
		if p == nil {
			return nil, errors.Wrapf(ErrHeader, "missing attribute %q", name)
		}
	}
	switch {
	case *h.ProlixBits < 0 || *h.ProlixBits > 64:
		return nil, errors.Wrapf(ErrHeader, "prolix_bits %d out of range", *h.ProlixBits)
	case *h.Signed != 0 && *h.Signed != 1:
		return nil, errors.Wrapf(ErrHeader, "signed must be 0 or 1, got %d", *h.Signed)
	case *h.Block < 1:
		return nil, errors.Wrapf(ErrHeader, "block %d out of range", *h.Block)
	case *h.MemorySize < 0:
		return nil, errors.Wrapf(ErrHeader, "memory_size %d out of range", *h.MemorySize)
	case *h.Values < 0:
		return nil, errors.Wrapf(ErrHeader, "number_of_values %d out of range", *h.Values)
	}
	nframes := 1
	if h.Frames != nil {
		nframes = *h.Frames
		if nframes < 1 {
			return nil, errors.Wrapf(ErrHeader, "number_of_frames %d out of range", nframes)
		}
	}
	var dim []int
	for _, field := range strings.Fields(h.Dimensions) {
		d, err := strconv.Atoi(field)
		if err != nil || d <= 0 {
			return nil, errors.Wrapf(ErrHeader, "bad dimension %q", field)
		}
		dim = append(dim, d)
	}

	t := &Terse{
		signed: *h.Signed == 1,
		block:  *h.Block,
		size:   *h.Values,
		prolix: *h.ProlixBits,
		dim:    dim,
		data:   make([]byte, *h.MemorySize),
		frames: make([]int, nframes),
	}
	if n, err := io.ReadFull(r, t.data); err != nil {
		return nil, errors.Wrapf(ErrTruncated, "read %d of %d payload bytes", n, len(t.data))
	}
	return t, nil
}

// scanElement reads the byte source one byte at a time until it has
// consumed a complete <Terse ... /> element, skipping anything before it
// and nothing after it.
func scanElement(r io.Reader) ([]byte, error) {
	const open = "<Terse"
	var (
		buf     [1]byte
		matched int
	)
	for matched < len(open) {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, errors.Wrap(ErrHeader, "no Terse element in stream")
		}
		switch {
		case buf[0] == open[matched]:
			matched++
		case buf[0] == open[0]:
			matched = 1
		default:
			matched = 0
		}
	}
	elem := []byte(open)
	for !bytes.HasSuffix(elem, []byte("/>")) {
		if len(elem) > maxElementBytes {
			return nil, errors.Wrap(ErrHeader, "unterminated Terse element")
		}
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, errors.Wrap(ErrHeader, "unterminated Terse element")
		}
		elem = append(elem, buf[0])
	}
	return elem, nil
}

func boolAttr(b bool) int {
	if b {
		return 1
	}
	return 0
}
