// Package app implements the commands of the trpx tool. Raw files are flat
// little-endian integer arrays, the usual interchange for detector stacks.
package app

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/miguelinux314/trpx"
	"github.com/miguelinux314/trpx/internal/config"
)

// Pack compresses a raw little-endian integer file into a Terse stream.
func Pack(cmd config.PackCmd) error {
	raw, err := os.ReadFile(cmd.Source)
	if err != nil {
		return errors.Wrap(err, "read source")
	}
	elem := elemSize(cmd.Dtype)
	if len(raw)%elem != 0 {
		return errors.Errorf("source is %d bytes, not a multiple of %d-byte %s elements", len(raw), elem, cmd.Dtype)
	}
	total := len(raw) / elem

	frame := cmd.Values
	if len(cmd.Dims) > 0 {
		frame = 1
		for _, d := range cmd.Dims {
			if d <= 0 {
				return errors.Errorf("dimension %d must be positive", d)
			}
			frame *= d
		}
	}
	if frame <= 0 {
		return errors.New("either --dims or --values is required")
	}
	if total%frame != 0 {
		return errors.Errorf("%d values do not divide into frames of %d", total, frame)
	}

	t := trpx.New(trpx.WithBlockSize(cmd.Block))
	stride := frame * elem
	for f := 0; f < total/frame; f++ {
		if err := appendRaw(t, cmd.Dtype, raw[f*stride:(f+1)*stride]); err != nil {
			return err
		}
	}
	if len(cmd.Dims) > 0 {
		if err := t.SetDim(cmd.Dims); err != nil {
			return err
		}
	}

	out, err := os.Create(cmd.Dest)
	if err != nil {
		return errors.Wrap(err, "create dest")
	}
	defer out.Close()
	if err := t.Write(bufio.NewWriter(out)); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(err, "close dest")
	}

	log.Info().
		Int("frames", t.Frames()).
		Int("values_per_frame", t.Size()).
		Int("prolix_bits", t.BitsPerValue()).
		Float64("ratio", float64(t.TerseSize())/float64(len(raw))).
		Msg("packed")
	return nil
}

// Unpack decompresses a Terse stream into a raw little-endian integer file.
func Unpack(cmd config.UnpackCmd) error {
	in, err := os.Open(cmd.Source)
	if err != nil {
		return errors.Wrap(err, "open source")
	}
	defer in.Close()
	t, err := trpx.Read(bufio.NewReader(in))
	if err != nil {
		return err
	}

	dtype := cmd.Dtype
	if dtype == "" {
		dtype = defaultDtype(t)
	} else if !validDtype(dtype) {
		return errors.Errorf("unknown dtype %q", dtype)
	}

	out, err := os.Create(cmd.Dest)
	if err != nil {
		return errors.Wrap(err, "create dest")
	}
	defer out.Close()
	bw := bufio.NewWriter(out)
	if err := dumpRaw(bw, t, dtype); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "flush dest")
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(err, "close dest")
	}

	log.Info().
		Int("frames", t.Frames()).
		Int("values_per_frame", t.Size()).
		Str("dtype", dtype).
		Msg("unpacked")
	return nil
}

// Info prints the metadata of a Terse stream without decoding it.
func Info(cmd config.InfoCmd) error {
	in, err := os.Open(cmd.Source)
	if err != nil {
		return errors.Wrap(err, "open source")
	}
	defer in.Close()
	t, err := trpx.Read(bufio.NewReader(in))
	if err != nil {
		return err
	}

	log.Info().
		Int("prolix_bits", t.BitsPerValue()).
		Bool("signed", t.IsSigned()).
		Int("block", t.BlockSize()).
		Int("frames", t.Frames()).
		Int("number_of_values", t.Size()).
		Ints("dimensions", t.Dim()).
		Int("memory_size", t.TerseSize()).
		Msg("terse stream")
	return nil
}

// defaultDtype picks the smallest element type that decodes the stream
// without saturation.
func defaultDtype(t *trpx.Terse) string {
	w := 8
	for _, candidate := range []int{16, 32, 64} {
		if t.BitsPerValue() > w {
			w = candidate
		}
	}
	if t.IsSigned() {
		return fmt.Sprintf("i%d", w)
	}
	return fmt.Sprintf("u%d", w)
}
