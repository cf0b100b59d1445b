// Package rgbimage is the floating-point RGB buffer the tracer renders into,
// along with its on-disk formats.
//
// Row 0 is the bottom of the picture, matching the camera's normalized device
// coordinates.  Formats that store rows top-down flip on the way in and out.
package rgbimage

import (
	"compress/zlib"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strings"

	"row-major/whitted/blobio"
	"row-major/whitted/vmath/vec3"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type Image struct {
	Width, Height int
	Pixels        []vec3.T
}

func New(width, height int) *Image {
	im := &Image{}
	im.Resize(width, height)
	return im
}

func (im *Image) Resize(width, height int) {
	im.Width = width
	im.Height = height
	im.Pixels = make([]vec3.T, width*height)
}

func (im *Image) SetPixel(x, y int, c vec3.T) {
	im.Pixels[y*im.Width+x] = c
}

func (im *Image) Pixel(x, y int) vec3.T {
	return im.Pixels[y*im.Width+x]
}

// Cut copies the rows [rowSrc, rowLim) and columns [colSrc, colLim) into a new
// image, so that a worker can fill it without sharing memory with others.
func (im *Image) Cut(rowSrc, rowLim, colSrc, colLim int) *Image {
	dst := New(colLim-colSrc, rowLim-rowSrc)

	dstIndex := 0
	for r := rowSrc; r < rowLim; r++ {
		for c := colSrc; c < colLim; c++ {
			dst.Pixels[dstIndex] = im.Pixels[r*im.Width+c]
			dstIndex++
		}
	}

	return dst
}

// Paste copies src into im with its bottom-left corner at (colSrc, rowSrc).
func (im *Image) Paste(src *Image, rowSrc, colSrc int) {
	for r := 0; r < src.Height; r++ {
		for c := 0; c < src.Width; c++ {
			im.Pixels[(r+rowSrc)*im.Width+(c+colSrc)] = src.Pixels[r*src.Width+c]
		}
	}
}

// Average is the mean color over all pixels.
func (im *Image) Average() vec3.T {
	sum := vec3.T{}
	if len(im.Pixels) == 0 {
		return sum
	}
	for _, p := range im.Pixels {
		sum = vec3.AddVV(sum, p)
	}
	return vec3.DivVS(sum, float64(len(im.Pixels)))
}

func toByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// ToNRGBA clamps each channel to [0, 1] and quantizes to 8 bits.
func (im *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, im.Width, im.Height))
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			p := im.Pixel(x, y)
			out.SetNRGBA(x, im.Height-1-y, color.NRGBA{
				R: toByte(p[0]),
				G: toByte(p[1]),
				B: toByte(p[2]),
				A: 255,
			})
		}
	}
	return out
}

// FromImage converts any decoded image to linear [0, 1] channels.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	im := New(b.Dx(), b.Dy())
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+im.Height-1-y).RGBA()
			im.SetPixel(x, y, vec3.T{
				float64(r) / 0xffff,
				float64(g) / 0xffff,
				float64(bl) / 0xffff,
			})
		}
	}
	return im
}

func WritePNG(im *Image, w io.Writer) error {
	if err := png.Encode(w, im.ToNRGBA()); err != nil {
		return fmt.Errorf("while encoding PNG: %w", err)
	}
	return nil
}

func ReadPNG(in io.Reader) (*Image, error) {
	src, err := png.Decode(in)
	if err != nil {
		return nil, fmt.Errorf("while decoding PNG: %w", err)
	}
	return FromImage(src), nil
}

const rawDataLayoutVersion = 1

// WriteRaw stores im without loss: an 8-byte little-endian header length, a
// protobuf Struct header, then zlib-compressed little-endian float32 RGB
// triples.
func WriteRaw(im *Image, w io.Writer) error {
	hdr, err := structpb.NewStruct(map[string]interface{}{
		"width":               im.Width,
		"height":              im.Height,
		"channels":            3,
		"data_layout_version": rawDataLayoutVersion,
	})
	if err != nil {
		return fmt.Errorf("while building header: %w", err)
	}

	hdrBytes, err := proto.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}

	headerLengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(headerLengthBytes, uint64(len(hdrBytes)))
	if _, err := w.Write(headerLengthBytes); err != nil {
		return fmt.Errorf("while writing header length: %w", err)
	}

	if _, err := w.Write(hdrBytes); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	data := make([]float32, 0, 3*len(im.Pixels))
	for _, p := range im.Pixels {
		data = append(data, float32(p[0]), float32(p[1]), float32(p[2]))
	}

	zipWriter := zlib.NewWriter(w)

	if err := binary.Write(zipWriter, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("while writing pixels: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("while closing zip writer: %w", err)
	}

	return nil
}

// maxRawHeaderLength guards against reading garbage as a header length.
const maxRawHeaderLength = 1 << 20

func ReadRaw(in io.Reader) (*Image, error) {
	var headerLength uint64
	if err := binary.Read(in, binary.LittleEndian, &headerLength); err != nil {
		return nil, fmt.Errorf("while reading header length: %w", err)
	}
	if headerLength > maxRawHeaderLength {
		return nil, fmt.Errorf("implausible header length %d", headerLength)
	}

	headerBytes := make([]byte, int(headerLength))
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, fmt.Errorf("while reading header bytes: %w", err)
	}

	hdr := &structpb.Struct{}
	if err := proto.Unmarshal(headerBytes, hdr); err != nil {
		return nil, fmt.Errorf("while unmarshaling header: %w", err)
	}

	field := func(name string) int {
		return int(hdr.GetFields()[name].GetNumberValue())
	}

	if v := field("data_layout_version"); v != rawDataLayoutVersion {
		return nil, fmt.Errorf("bad data layout version: %v", v)
	}
	if c := field("channels"); c != 3 {
		return nil, fmt.Errorf("unsupported channel count: %v", c)
	}

	width, height := field("width"), field("height")
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("bad dimensions %dx%d", width, height)
	}

	zipReader, err := zlib.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("while opening zip reader: %w", err)
	}
	defer zipReader.Close()

	data := make([]float32, 3*width*height)
	if err := binary.Read(zipReader, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("while reading pixels: %w", err)
	}

	im := New(width, height)
	for i := range im.Pixels {
		im.Pixels[i] = vec3.T{float64(data[3*i]), float64(data[3*i+1]), float64(data[3*i+2])}
	}

	return im, nil
}

// Format picks the encoding for a file name.
type Format int

const (
	FormatPNG Format = iota
	FormatRaw
)

// RawExtension marks files written by WriteRaw.
const RawExtension = ".rgbf"

func FormatForName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return FormatPNG, nil
	case RawExtension:
		return FormatRaw, nil
	}
	return 0, fmt.Errorf("unrecognized image extension for %q (want .png or %s)", name, RawExtension)
}

// Save writes im to a local path or gs:// object, choosing the format by
// extension.
func (im *Image) Save(ctx context.Context, name string) error {
	tracer := otel.Tracer("row-major/whitted/rgbimage")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Image.Save")
	defer span.End()

	span.SetAttributes(attribute.String("name", name))

	format, err := FormatForName(name)
	if err != nil {
		return err
	}

	out, err := blobio.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("while opening output: %w", err)
	}

	switch format {
	case FormatPNG:
		err = WritePNG(im, out)
	case FormatRaw:
		err = WriteRaw(im, out)
	}
	if err != nil {
		out.Close()
		return err
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("while closing output: %w", err)
	}
	return nil
}

// Load reads an image written by Save, or any PNG.
func Load(ctx context.Context, name string) (*Image, error) {
	format, err := FormatForName(name)
	if err != nil {
		return nil, err
	}

	in, err := blobio.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	switch format {
	case FormatRaw:
		return ReadRaw(in)
	default:
		return ReadPNG(in)
	}
}
