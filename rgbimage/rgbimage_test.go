package rgbimage

import (
	"bytes"
	"context"
	"encoding/binary"
	"path/filepath"
	"testing"

	"row-major/whitted/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func gradient(width, height int) *Image {
	im := New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			im.SetPixel(x, y, vec3.T{float64(x) / float64(width), float64(y) / float64(height), 0.5})
		}
	}
	return im
}

func TestCutPaste(t *testing.T) {
	src := gradient(5, 7)

	cut := src.Cut(2, 6, 1, 4)
	if cut.Width != 3 || cut.Height != 4 {
		t.Fatalf("Bad cut size %dx%d", cut.Width, cut.Height)
	}
	if diff := cmp.Diff(cut.Pixel(0, 0), src.Pixel(1, 2)); diff != "" {
		t.Errorf("Bad cut origin; diff (-got +want)\n%s", diff)
	}

	dst := New(5, 7)
	for _, rows := range [][2]int{{0, 3}, {3, 7}} {
		dst.Paste(src.Cut(rows[0], rows[1], 0, 5), rows[0], 0)
	}
	if diff := cmp.Diff(dst, src); diff != "" {
		t.Errorf("Pasted chunks differ from source; diff (-got +want)\n%s", diff)
	}
}

func TestRawRoundTrip(t *testing.T) {
	src := gradient(4, 3)
	src.SetPixel(0, 0, vec3.T{12.5, -1, 0})

	buf := &bytes.Buffer{}
	if err := WriteRaw(src, buf); err != nil {
		t.Fatalf("Unexpected error from WriteRaw: %v", err)
	}

	got, err := ReadRaw(buf)
	if err != nil {
		t.Fatalf("Unexpected error from ReadRaw: %v", err)
	}
	if diff := cmp.Diff(got, src, cmpopts.EquateApprox(1e-6, 0)); diff != "" {
		t.Errorf("Raw image did not round-trip; diff (-got +want)\n%s", diff)
	}
}

func TestReadRawRejectsGarbage(t *testing.T) {
	hdr := make([]byte, 8)
	binary.LittleEndian.PutUint64(hdr, 1<<40)
	if _, err := ReadRaw(bytes.NewReader(hdr)); err == nil {
		t.Errorf("ReadRaw accepted an implausible header length")
	}

	if _, err := ReadRaw(bytes.NewReader([]byte{1, 2})); err == nil {
		t.Errorf("ReadRaw accepted a truncated stream")
	}
}

func TestPNGOrientation(t *testing.T) {
	src := New(2, 2)
	src.SetPixel(0, 0, vec3.T{1, 0, 0}) // bottom left
	src.SetPixel(1, 1, vec3.T{0, 0, 1}) // top right

	nrgba := src.ToNRGBA()
	if r, _, _, _ := nrgba.At(0, 1).RGBA(); r != 0xffff {
		t.Errorf("Bottom-left pixel did not land on the last PNG row")
	}
	if _, _, b, _ := nrgba.At(1, 0).RGBA(); b != 0xffff {
		t.Errorf("Top-right pixel did not land on the first PNG row")
	}

	buf := &bytes.Buffer{}
	if err := WritePNG(src, buf); err != nil {
		t.Fatalf("Unexpected error from WritePNG: %v", err)
	}
	got, err := ReadPNG(buf)
	if err != nil {
		t.Fatalf("Unexpected error from ReadPNG: %v", err)
	}
	if diff := cmp.Diff(got, src); diff != "" {
		t.Errorf("PNG did not round-trip; diff (-got +want)\n%s", diff)
	}
}

func TestToNRGBAClamps(t *testing.T) {
	testCases := []struct {
		in   float64
		want uint8
	}{
		{-1, 0},
		{0, 0},
		{0.5, 128},
		{1, 255},
		{7, 255},
	}
	for _, tc := range testCases {
		if got := toByte(tc.in); got != tc.want {
			t.Errorf("toByte(%v); got %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	src := gradient(3, 2)

	for _, name := range []string{"out.png", "out" + RawExtension} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := src.Save(context.Background(), path); err != nil {
				t.Fatalf("Unexpected error from Save: %v", err)
			}
			got, err := Load(context.Background(), path)
			if err != nil {
				t.Fatalf("Unexpected error from Load: %v", err)
			}
			// PNG quantizes to 8 bits.
			if diff := cmp.Diff(got, src, cmpopts.EquateApprox(0, 1.0/255)); diff != "" {
				t.Errorf("Image did not round-trip; diff (-got +want)\n%s", diff)
			}
		})
	}

	if err := src.Save(context.Background(), filepath.Join(dir, "out.jpg")); err == nil {
		t.Errorf("Save accepted an unsupported extension")
	}
}

func TestAverage(t *testing.T) {
	im := New(2, 1)
	im.SetPixel(0, 0, vec3.T{1, 0, 0})
	im.SetPixel(1, 0, vec3.T{0, 1, 0})
	if got, want := im.Average(), (vec3.T{0.5, 0.5, 0}); got != want {
		t.Errorf("Bad average; got %v, want %v", got, want)
	}
	if got := New(0, 0).Average(); got != (vec3.T{}) {
		t.Errorf("Average of empty image; got %v, want zero", got)
	}
}
