package grid

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"strings"

	"golang.org/x/image/bmp"
)

// Codec converts a grid to and from a raster image.
type Codec[T any] interface {
	Encode(g *Grid[T]) (image.Image, error)
	Decode(img image.Image) (*Grid[T], error)
}

// Format selects the raster container written by Save.
type Format string

// Supported containers. Both are lossless.
const (
	FormatPNG Format = "png"
	FormatBMP Format = "bmp"
)

// ParseFormat converts a name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "png", "":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	default:
		return "", fmt.Errorf("unknown raster format %q", s)
	}
}

// Save encodes g with codec and writes it in the given container.
func Save[T any](w io.Writer, g *Grid[T], codec Codec[T], format Format) error {
	img, err := codec.Encode(g)
	if err != nil {
		return err
	}
	switch format {
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatPNG, "":
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		return enc.Encode(w, img)
	default:
		return fmt.Errorf("unknown raster format %q", format)
	}
}

// Load decodes a PNG or BMP stream with codec.
func Load[T any](r io.Reader, codec Codec[T]) (*Grid[T], error) {
	img, _, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("decoding raster: %w", err)
	}
	return codec.Decode(img)
}

// SaveFile writes g to path, picking the container from the extension.
func SaveFile[T any](path string, g *Grid[T], codec Codec[T]) error {
	format, err := ParseFormat(extension(path))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Save(f, g, codec, format); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// LoadFile reads a grid from path.
func LoadFile[T any](path string, codec Codec[T]) (*Grid[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := Load(f, codec)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return g, nil
}

func extension(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return ""
}

// GrayCodec stores one byte per cell as 8-bit grayscale.
type GrayCodec[T ~uint8] struct{}

// Encode implements Codec.
func (GrayCodec[T]) Encode(g *Grid[T]) (image.Image, error) {
	img := image.NewGray(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		row := g.Row(y)
		dst := img.Pix[y*img.Stride : y*img.Stride+g.width]
		for x, v := range row {
			dst[x] = uint8(v)
		}
	}
	return img, nil
}

// Decode implements Codec. Colored or translucent pixels fail with a
// *PaletteError.
func (GrayCodec[T]) Decode(img image.Image) (*Grid[T], error) {
	b := img.Bounds()
	g, err := New[T](b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < g.height; y++ {
			src := gray.Pix[y*gray.Stride : y*gray.Stride+g.width]
			row := g.Row(y)
			for x, v := range src {
				row[x] = T(v)
			}
		}
		return g, nil
	}

	// Other models (BMP's gray palette, 16-bit or RGB PNGs) must hold
	// opaque neutral pixels only.
	for y := 0; y < g.height; y++ {
		row := g.Row(y)
		for x := range row {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			if c.R != c.G || c.G != c.B || c.A != 0xff {
				return nil, &PaletteError{X: x, Y: y, Color: c}
			}
			row[x] = T(c.R)
		}
	}
	return g, nil
}

// RGBACodec stores four bytes per cell as non-premultiplied RGBA, channel i
// of the cell going to channel i of the pixel (R, G, B, A).
type RGBACodec[T ~[4]uint8] struct{}

// Encode implements Codec.
func (RGBACodec[T]) Encode(g *Grid[T]) (image.Image, error) {
	img := image.NewNRGBA(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		row := g.Row(y)
		dst := img.Pix[y*img.Stride : y*img.Stride+4*g.width]
		for x, v := range row {
			copy(dst[4*x:4*x+4], v[:])
		}
	}
	return img, nil
}

// Decode implements Codec.
func (RGBACodec[T]) Decode(img image.Image) (*Grid[T], error) {
	b := img.Bounds()
	g, err := New[T](b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < g.height; y++ {
			src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+4*g.width]
			row := g.Row(y)
			for x := range row {
				row[x] = T{src[4*x], src[4*x+1], src[4*x+2], src[4*x+3]}
			}
		}
		return g, nil
	}

	// Opaque images come back from PNG and BMP as *image.RGBA; the
	// NRGBA conversion is exact for alpha 255.
	for y := 0; y < g.height; y++ {
		row := g.Row(y)
		for x := range row {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			row[x] = T{c.R, c.G, c.B, c.A}
		}
	}
	return g, nil
}
