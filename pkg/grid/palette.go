package grid

import (
	"fmt"
	"image"
	"image/color"
)

// TexturePalette is the fixed 16-color palette of texture index grids.
var TexturePalette = color.Palette{
	color.NRGBA{0x00, 0x00, 0x00, 0xff}, // black
	color.NRGBA{0x80, 0x00, 0x00, 0xff}, // maroon
	color.NRGBA{0x00, 0x80, 0x00, 0xff}, // green
	color.NRGBA{0x80, 0x80, 0x00, 0xff}, // olive
	color.NRGBA{0x00, 0x00, 0x80, 0xff}, // navy
	color.NRGBA{0x80, 0x00, 0x80, 0xff}, // purple
	color.NRGBA{0x00, 0x80, 0x80, 0xff}, // teal
	color.NRGBA{0x80, 0x80, 0x80, 0xff}, // gray
	color.NRGBA{0xc0, 0xc0, 0xc0, 0xff}, // silver
	color.NRGBA{0xff, 0x00, 0x00, 0xff}, // red
	color.NRGBA{0x00, 0xff, 0x00, 0xff}, // lime
	color.NRGBA{0xff, 0xff, 0x00, 0xff}, // yellow
	color.NRGBA{0x00, 0x00, 0xff, 0xff}, // blue
	color.NRGBA{0xff, 0x00, 0xff, 0xff}, // fuchsia
	color.NRGBA{0x00, 0xff, 0xff, 0xff}, // aqua
	color.NRGBA{0xff, 0xff, 0xff, 0xff}, // white
}

// PaletteError reports a pixel color or cell value the codec cannot map.
// Encode errors carry the rejected cell in Index; decode errors carry Color.
type PaletteError struct {
	X, Y   int
	Color  color.NRGBA
	Index  int
	Encode bool
}

func (e *PaletteError) Error() string {
	if e.Encode {
		return fmt.Sprintf("cell (%d,%d): index %d outside palette", e.X, e.Y, e.Index)
	}
	return fmt.Sprintf("pixel (%d,%d): color #%02x%02x%02x%02x not in palette",
		e.X, e.Y, e.Color.R, e.Color.G, e.Color.B, e.Color.A)
}

// Unwrap lets errors.Is match ErrPalette.
func (e *PaletteError) Unwrap() error { return ErrPalette }

// NibbleCodec stores 4-bit palette indices using TexturePalette.
type NibbleCodec[T ~uint8] struct{}

// Encode implements Codec. Cells above 15 are rejected.
func (NibbleCodec[T]) Encode(g *Grid[T]) (image.Image, error) {
	img := image.NewPaletted(image.Rect(0, 0, g.width, g.height), TexturePalette)
	for y := 0; y < g.height; y++ {
		row := g.Row(y)
		dst := img.Pix[y*img.Stride : y*img.Stride+g.width]
		for x, v := range row {
			if uint8(v) >= uint8(len(TexturePalette)) {
				return nil, &PaletteError{X: x, Y: y, Index: int(v), Encode: true}
			}
			dst[x] = uint8(v)
		}
	}
	return img, nil
}

// Decode implements Codec. Pixels are matched by exact color, so the
// file's own palette order does not matter.
func (NibbleCodec[T]) Decode(img image.Image) (*Grid[T], error) {
	b := img.Bounds()
	g, err := New[T](b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	lookup := make(map[color.NRGBA]uint8, len(TexturePalette))
	for i, c := range TexturePalette {
		lookup[c.(color.NRGBA)] = uint8(i)
	}

	for y := 0; y < g.height; y++ {
		row := g.Row(y)
		for x := range row {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			idx, ok := lookup[c]
			if !ok {
				return nil, &PaletteError{X: x, Y: y, Color: c}
			}
			row[x] = T(idx)
		}
	}
	return g, nil
}
