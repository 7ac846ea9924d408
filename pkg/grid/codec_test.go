package grid

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"path/filepath"
	"testing"
)

type cell4 [4]uint8

var roundTripSizes = [][2]int{{1, 1}, {7, 13}, {256, 256}}

func randomGrid[T any](t *testing.T, w, h int, gen func(*rand.Rand) T) *Grid[T] {
	t.Helper()
	rng := rand.New(rand.NewSource(int64(w*1000 + h)))
	g := MustNew[T](w, h)
	for i := range g.Data() {
		g.Data()[i] = gen(rng)
	}
	return g
}

func roundTrip[T comparable](t *testing.T, g *Grid[T], codec Codec[T], format Format) {
	t.Helper()
	var buf bytes.Buffer
	if err := Save(&buf, g, codec, format); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(&buf, codec)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !Equal(g, got) {
		t.Errorf("%s round trip %dx%d not bit-exact", format, g.Width(), g.Height())
	}
}

func TestGrayCodec_RoundTrip(t *testing.T) {
	for _, size := range roundTripSizes {
		g := randomGrid(t, size[0], size[1], func(r *rand.Rand) uint8 { return uint8(r.Intn(256)) })
		roundTrip(t, g, GrayCodec[uint8]{}, FormatPNG)
		roundTrip(t, g, GrayCodec[uint8]{}, FormatBMP)
	}
}

func TestRGBACodec_RoundTrip(t *testing.T) {
	for _, size := range roundTripSizes {
		// Arbitrary alpha survives PNG.
		g := randomGrid(t, size[0], size[1], func(r *rand.Rand) cell4 {
			return cell4{uint8(r.Intn(256)), uint8(r.Intn(256)), uint8(r.Intn(256)), uint8(r.Intn(256))}
		})
		roundTrip(t, g, RGBACodec[cell4]{}, FormatPNG)

		// Occlusion layout (rise, set, 255, 255) is opaque.
		opaque := randomGrid(t, size[0], size[1], func(r *rand.Rand) cell4 {
			return cell4{uint8(r.Intn(256)), uint8(r.Intn(256)), 255, 255}
		})
		roundTrip(t, opaque, RGBACodec[cell4]{}, FormatPNG)
		roundTrip(t, opaque, RGBACodec[cell4]{}, FormatBMP)
	}
}

func TestRGBACodec_ChannelOrder(t *testing.T) {
	g := MustNew[cell4](1, 1)
	_ = g.Set(0, 0, cell4{10, 20, 255, 255})

	var buf bytes.Buffer
	if err := Save(&buf, g, RGBACodec[cell4]{}, FormatPNG); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode failed: %v", err)
	}
	c := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA)
	if c.R != 10 || c.G != 20 || c.B != 255 || c.A != 255 {
		t.Errorf("expected R=10 G=20 B=255 A=255 on disk, got %+v", c)
	}
}

func TestNibbleCodec_RoundTrip(t *testing.T) {
	for _, size := range roundTripSizes {
		g := randomGrid(t, size[0], size[1], func(r *rand.Rand) uint8 { return uint8(r.Intn(16)) })
		roundTrip(t, g, NibbleCodec[uint8]{}, FormatPNG)
		roundTrip(t, g, NibbleCodec[uint8]{}, FormatBMP)
	}
}

func TestNibbleCodec_UnknownColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetNRGBA(1, 1, color.NRGBA{0x12, 0x34, 0x56, 0xff})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}

	_, err := Load(&buf, NibbleCodec[uint8]{})
	if !errors.Is(err, ErrPalette) {
		t.Fatalf("expected ErrPalette, got %v", err)
	}
	var perr *PaletteError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PaletteError, got %T", err)
	}
	if perr.X != 1 || perr.Y != 1 || perr.Color.R != 0x12 {
		t.Errorf("unexpected error details: %+v", perr)
	}
}

func TestNibbleCodec_EncodeRejectsLargeIndex(t *testing.T) {
	g := MustNew[uint8](2, 1)
	_ = g.Set(1, 0, 16)

	var buf bytes.Buffer
	err := Save(&buf, g, NibbleCodec[uint8]{}, FormatPNG)
	if !errors.Is(err, ErrPalette) {
		t.Errorf("expected ErrPalette, got %v", err)
	}
	var perr *PaletteError
	if errors.As(err, &perr) && (!perr.Encode || perr.Index != 16) {
		t.Errorf("unexpected error details: %+v", perr)
	}
}

func TestGrayCodec_RejectsColor(t *testing.T) {
	rgba := MustNew[cell4](2, 1)
	_ = rgba.Set(0, 0, cell4{200, 10, 255, 255})
	_ = rgba.Set(1, 0, cell4{0, 255, 255, 255})

	var buf bytes.Buffer
	if err := Save(&buf, rgba, RGBACodec[cell4]{}, FormatPNG); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	_, err := Load(&buf, GrayCodec[uint8]{})
	if !errors.Is(err, ErrPalette) {
		t.Fatalf("expected ErrPalette, got %v", err)
	}
	var perr *PaletteError
	if !errors.As(err, &perr) || perr.X != 0 || perr.Color.R != 200 || perr.Encode {
		t.Errorf("unexpected error details: %+v", perr)
	}
}

func TestGrayCodec_DecodeNeutralColors(t *testing.T) {
	tests := []struct {
		name    string
		pixel   color.NRGBA
		wantErr bool
	}{
		{"opaque gray", color.NRGBA{77, 77, 77, 0xff}, false},
		{"translucent gray", color.NRGBA{77, 77, 77, 0x80}, true},
		{"tinted", color.NRGBA{77, 78, 77, 0xff}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
			img.SetNRGBA(0, 0, tt.pixel)

			g, err := GrayCodec[uint8]{}.Decode(img)
			if tt.wantErr {
				if !errors.Is(err, ErrPalette) {
					t.Errorf("expected ErrPalette, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if g.Data()[0] != 77 {
				t.Errorf("expected 77, got %d", g.Data()[0])
			}
		})
	}
}

func TestPaletteError_Message(t *testing.T) {
	decode := &PaletteError{X: 1, Y: 2, Color: color.NRGBA{0x12, 0x34, 0x56, 0xff}}
	if got := decode.Error(); got != "pixel (1,2): color #123456ff not in palette" {
		t.Errorf("unexpected decode message %q", got)
	}

	encode := &PaletteError{X: 3, Y: 0, Index: 0, Encode: true}
	if got := encode.Error(); got != "cell (3,0): index 0 outside palette" {
		t.Errorf("unexpected encode message %q", got)
	}
}

func TestSaveLoadFile(t *testing.T) {
	dir := t.TempDir()
	g := randomGrid(t, 7, 13, func(r *rand.Rand) uint8 { return uint8(r.Intn(256)) })

	for _, name := range []string{"height.png", "height.bmp"} {
		path := filepath.Join(dir, name)
		if err := SaveFile(path, g, GrayCodec[uint8]{}); err != nil {
			t.Fatalf("SaveFile(%s) failed: %v", name, err)
		}
		got, err := LoadFile(path, GrayCodec[uint8]{})
		if err != nil {
			t.Fatalf("LoadFile(%s) failed: %v", name, err)
		}
		if !Equal(g, got) {
			t.Errorf("%s: round trip mismatch", name)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{".PNG", FormatPNG, false},
		{"bmp", FormatBMP, false},
		{"tga", "", true},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
