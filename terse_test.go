package trpx

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
)

func checkRoundTrip[T comparable](t *testing.T, want, got []T) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("decoded %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("value %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

// 1000 signed values counting up from -500. The most extreme magnitudes
// need 10 bits including sign, and the payload stays below 30% of the raw
// 32-bit representation.
func TestRamp(t *testing.T) {
	values := make([]int32, 1000)
	for i := range values {
		values[i] = int32(i) - 500
	}
	tr := FromValues(values)

	if !tr.IsSigned() {
		t.Error("ramp container not signed")
	}
	if got := tr.BitsPerValue(); got != 10 {
		t.Errorf("BitsPerValue = %d, want 10", got)
	}
	if got := tr.TerseSize(); got != 1152 {
		t.Errorf("TerseSize = %d, want 1152", got)
	}
	if limit := 1000 * 4 * 30 / 100; tr.TerseSize() > limit {
		t.Errorf("TerseSize = %d exceeds 30%% of raw (%d)", tr.TerseSize(), limit)
	}

	sink := make([]int32, 1000)
	if err := Decode(tr, 0, sink); err != nil {
		t.Fatal(err)
	}
	checkRoundTrip(t, values, sink)
}

// A constant frame encodes one absolute width and then a single reuse bit
// per block.
func TestConstant(t *testing.T) {
	values := make([]uint16, 4096)
	for i := range values {
		values[i] = 7
	}
	tr := FromValues(values)

	if got := tr.BitsPerValue(); got != 3 {
		t.Errorf("BitsPerValue = %d, want 3", got)
	}
	// First block: 4 header bits + 36 payload bits. 340 full reuse blocks:
	// 37 bits each. Final block of 4 values: 13 bits.
	bits := 40 + 340*37 + 13
	if want := (bits + 7) / 8; tr.TerseSize() != want {
		t.Errorf("TerseSize = %d, want %d", tr.TerseSize(), want)
	}
	// Header 0110, then one 3-bit seven and the low bit of the next: 0xF6.
	if tr.data[0] != 0xF6 {
		t.Errorf("first payload byte %#02x, want 0xF6", tr.data[0])
	}

	sink := make([]uint16, 4096)
	if err := Decode(tr, 0, sink); err != nil {
		t.Fatal(err)
	}
	checkRoundTrip(t, values, sink)
}

// An all-zero frame spends one bit per block: the initial previous width is
// zero, so even the first block takes the reuse form.
func TestAllZeros(t *testing.T) {
	values := make([]uint8, 100)
	tr := FromValues(values)

	if got := tr.BitsPerValue(); got != 0 {
		t.Errorf("BitsPerValue = %d, want 0", got)
	}
	if got := tr.TerseSize(); got != 2 { // 9 blocks, 9 bits
		t.Errorf("TerseSize = %d, want 2", got)
	}
	if tr.data[0] != 0xFF || tr.data[1] != 0x01 {
		t.Errorf("payload % 02x, want ff 01", tr.data)
	}

	sink := make([]uint8, 100)
	sink[3] = 99 // must be overwritten
	if err := Decode(tr, 0, sink); err != nil {
		t.Fatal(err)
	}
	checkRoundTrip(t, values, sink)
}

// A single 30-bit value escalates the header through both escape forms.
func TestWidthEscalation(t *testing.T) {
	values := make([]uint32, 12)
	values[11] = 1_000_000_000
	tr := FromValues(values)

	if got := tr.BitsPerValue(); got != 30 {
		t.Errorf("BitsPerValue = %d, want 30", got)
	}
	if got := tr.TerseSize(); got != 47 { // 12 header + 360 payload bits
		t.Errorf("TerseSize = %d, want 47", got)
	}
	// 0 111 11 010100 LSB-first: the 6-bit field holds 30-10 = 20.
	if tr.data[0] != 0x3E || tr.data[1] != 0x05 {
		t.Errorf("header bytes %#02x %#02x, want 0x3e 0x05", tr.data[0], tr.data[1])
	}

	sink := make([]uint32, 12)
	if err := Decode(tr, 0, sink); err != nil {
		t.Fatal(err)
	}
	checkRoundTrip(t, values, sink)
}

func TestTwoFrameStack(t *testing.T) {
	a := make([]int32, 1000)
	b := make([]int32, 1000)
	for i := range a {
		a[i] = int32(i) - 500
		b[i] = a[i] + 10
	}
	tr := FromValues(a)
	if err := Append(tr, b); err != nil {
		t.Fatal(err)
	}
	if tr.Frames() != 2 {
		t.Fatalf("Frames = %d, want 2", tr.Frames())
	}

	var buf bytes.Buffer
	if err := tr.Write(&buf); err != nil {
		t.Fatal(err)
	}
	rt, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}

	sink := make([]int32, 1000)
	if err := Decode(rt, 1, sink); err != nil {
		t.Fatal(err)
	}
	checkRoundTrip(t, b, sink)

	// Frame 0 still decodes after frame 1, and repeating frame 1 leaves the
	// cached offsets untouched.
	if err := Decode(rt, 0, sink); err != nil {
		t.Fatal(err)
	}
	checkRoundTrip(t, a, sink)

	offsets := append([]int(nil), rt.frames...)
	if err := Decode(rt, 1, sink); err != nil {
		t.Fatal(err)
	}
	checkRoundTrip(t, b, sink)
	for i := range offsets {
		if offsets[i] != rt.frames[i] {
			t.Fatalf("offset %d changed from %d to %d", i, offsets[i], rt.frames[i])
		}
	}
}

// Values wider than the sink clamp to the sink's limits; everything else is
// exact.
func TestSaturation(t *testing.T) {
	values := make([]uint16, 4096)
	for i := range values {
		values[i] = uint16(i)
	}
	tr := FromValues(values)

	narrow := make([]uint8, 4096)
	if err := Decode(tr, 0, narrow); err != nil {
		t.Fatal(err)
	}
	for i, v := range values {
		want := uint8(math.MaxUint8)
		if v < 256 {
			want = uint8(v)
		}
		if narrow[i] != want {
			t.Fatalf("value %d: got %d, want %d", i, narrow[i], want)
		}
	}
}

func TestSaturationSigned(t *testing.T) {
	values := []int16{-5000, -129, -128, -1, 0, 1, 127, 128, 5000}
	tr := FromValues(values)

	narrow := make([]int8, len(values))
	if err := Decode(tr, 0, narrow); err != nil {
		t.Fatal(err)
	}
	want := []int8{-128, -128, -128, -1, 0, 1, 127, 127, 127}
	checkRoundTrip(t, want, narrow)
}

// Unsigned all-ones data decoded into a signed sink of the same width comes
// out as -1. Documented hazard, not an error.
func TestUnsignedIntoSignedAllOnes(t *testing.T) {
	values := []uint16{0xFFFF, 3, 0}
	tr := FromValues(values)

	sink := make([]int16, len(values))
	if err := Decode(tr, 0, sink); err != nil {
		t.Fatal(err)
	}
	checkRoundTrip(t, []int16{-1, 3, 0}, sink)

	// A wider signed sink keeps the value positive.
	wide := make([]int32, len(values))
	if err := Decode(tr, 0, wide); err != nil {
		t.Fatal(err)
	}
	checkRoundTrip(t, []int32{0xFFFF, 3, 0}, wide)
}

func TestDecodeFloat(t *testing.T) {
	values := make([]int32, 100)
	for i := range values {
		values[i] = int32(i)*7 - 350
	}
	tr := FromValues(values)

	sink := make([]float64, 100)
	if err := DecodeFloat(tr, 0, sink); err != nil {
		t.Fatal(err)
	}
	for i, v := range values {
		if sink[i] != float64(v) {
			t.Fatalf("value %d: got %v, want %d", i, sink[i], v)
		}
	}

	uvalues := []uint32{0, 1, 4095, 1 << 24}
	utr := FromValues(uvalues)
	fsink := make([]float32, len(uvalues))
	if err := DecodeFloat(utr, 0, fsink); err != nil {
		t.Fatal(err)
	}
	for i, v := range uvalues {
		if fsink[i] != float32(v) {
			t.Fatalf("value %d: got %v, want %d", i, fsink[i], v)
		}
	}
}

// Round trips across element types, block sizes and frame lengths that do
// not divide evenly into blocks.
func TestRoundTripWidths(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	lengths := []int{1, 7, 13, 100, 1000}
	blocks := []int{1, 2, 3, 5, 12, 64}

	for _, n := range lengths {
		for _, block := range blocks {
			i8 := make([]int8, n)
			i64 := make([]int64, n)
			u16 := make([]uint16, n)
			u64 := make([]uint64, n)
			for i := 0; i < n; i++ {
				i8[i] = int8(rng.Intn(1 << 8))
				i64[i] = rng.Int63() - rng.Int63()
				u16[i] = uint16(rng.Intn(1 << 16))
				u64[i] = rng.Uint64() >> uint(rng.Intn(64))
			}
			// Seed the extremes into the larger runs.
			if n >= 7 {
				i8[0], i8[1] = math.MinInt8, math.MaxInt8
				i64[2], i64[3] = math.MinInt64, math.MaxInt64
				u64[4], u64[5] = math.MaxUint64, 0
			}

			sink8 := make([]int8, n)
			tr := FromValues(i8, WithBlockSize(block))
			if err := Decode(tr, 0, sink8); err != nil {
				t.Fatal(err)
			}
			checkRoundTrip(t, i8, sink8)

			sink64 := make([]int64, n)
			tr = FromValues(i64, WithBlockSize(block))
			if err := Decode(tr, 0, sink64); err != nil {
				t.Fatal(err)
			}
			checkRoundTrip(t, i64, sink64)

			usink16 := make([]uint16, n)
			tr = FromValues(u16, WithBlockSize(block))
			if err := Decode(tr, 0, usink16); err != nil {
				t.Fatal(err)
			}
			checkRoundTrip(t, u16, usink16)

			usink64 := make([]uint64, n)
			tr = FromValues(u64, WithBlockSize(block))
			if err := Decode(tr, 0, usink64); err != nil {
				t.Fatal(err)
			}
			checkRoundTrip(t, u64, usink64)
		}
	}
}

// Appending must keep BitsPerValue monotonic and reject mismatched frames.
func TestAppend(t *testing.T) {
	tr := New()
	if err := Append(tr, []uint16{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if tr.Size() != 4 || tr.IsSigned() {
		t.Fatalf("first append: size %d signed %v", tr.Size(), tr.IsSigned())
	}
	before := tr.BitsPerValue()
	if err := Append(tr, []uint16{4000, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if tr.BitsPerValue() < before {
		t.Errorf("BitsPerValue fell from %d to %d", before, tr.BitsPerValue())
	}

	if err := Append(tr, []uint16{1, 2, 3}); !errors.Is(err, ErrSize) {
		t.Errorf("short frame: got %v, want ErrSize", err)
	}
	if err := Append(tr, []int16{1, 2, 3, 4}); !errors.Is(err, ErrSignedness) {
		t.Errorf("signed frame: got %v, want ErrSignedness", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	tr := FromValues([]int16{-1, 2, 3})

	if err := Decode(tr, 3, make([]int16, 3)); !errors.Is(err, ErrFrameRange) {
		t.Errorf("frame 3: got %v, want ErrFrameRange", err)
	}
	if err := Decode(tr, -1, make([]int16, 3)); !errors.Is(err, ErrFrameRange) {
		t.Errorf("frame -1: got %v, want ErrFrameRange", err)
	}
	if err := Decode(tr, 0, make([]int16, 2)); !errors.Is(err, ErrSize) {
		t.Errorf("short sink: got %v, want ErrSize", err)
	}
	if err := Decode(tr, 0, make([]uint16, 3)); !errors.Is(err, ErrSignedness) {
		t.Errorf("unsigned sink: got %v, want ErrSignedness", err)
	}
}

func TestSetDim(t *testing.T) {
	tr := FromValues([]uint8{1, 2, 3, 4, 5, 6})
	if err := tr.SetDim([]int{2, 3}); err != nil {
		t.Fatal(err)
	}
	if got := tr.Dim(); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("Dim = %v", got)
	}
	if err := tr.SetDim([]int{3, 2}); !errors.Is(err, ErrDimLocked) {
		t.Errorf("second SetDim: got %v, want ErrDimLocked", err)
	}
}

// With offsets pre-scanned, read-only decodes of distinct frames can run
// concurrently.
func TestScanOffsetsConcurrentDecode(t *testing.T) {
	frame := make([]uint32, 500)
	tr := New()
	for f := 0; f < 8; f++ {
		for i := range frame {
			frame[i] = uint32(f*1000 + i)
		}
		if err := Append(tr, frame); err != nil {
			t.Fatal(err)
		}
	}
	if err := tr.ScanOffsets(); err != nil {
		t.Fatal(err)
	}
	for i := 1; i < 8; i++ {
		if tr.frames[i] == 0 {
			t.Fatalf("offset %d not populated", i)
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for f := 0; f < 8; f++ {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			sink := make([]uint32, 500)
			if err := Decode(tr, f, sink); err != nil {
				errs[f] = err
				return
			}
			for i := range sink {
				if sink[i] != uint32(f*1000+i) {
					errs[f] = errors.New("wrong value")
					return
				}
			}
		}(f)
	}
	wg.Wait()
	for f, err := range errs {
		if err != nil {
			t.Errorf("frame %d: %v", f, err)
		}
	}
}

func TestTruncatedPayloadDecode(t *testing.T) {
	tr := FromValues([]uint32{1 << 30, 2, 3, 4})
	tr.data = tr.data[:len(tr.data)-2]
	if err := Decode(tr, 0, make([]uint32, 4)); !errors.Is(err, ErrTruncated) {
		t.Errorf("got %v, want ErrTruncated", err)
	}
}
