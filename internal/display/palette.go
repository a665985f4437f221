package display

import (
	"image/color"
	"strings"
)

// Palette maps the two pixel states to colours.
type Palette struct {
	Name string
	Off  color.RGBA
	On   color.RGBA
}

// Palettes is the curated set offered by the frontends. Index 0 is the default.
var Palettes = []Palette{
	{Name: "Classic", Off: color.RGBA{0x00, 0x00, 0x00, 0xFF}, On: color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}},
	{Name: "Amber", Off: color.RGBA{0x1A, 0x0F, 0x00, 0xFF}, On: color.RGBA{0xFF, 0xB0, 0x00, 0xFF}},
	{Name: "Phosphor", Off: color.RGBA{0x00, 0x14, 0x00, 0xFF}, On: color.RGBA{0x33, 0xFF, 0x66, 0xFF}},
	{Name: "LCD", Off: color.RGBA{0x9B, 0xBC, 0x0F, 0xFF}, On: color.RGBA{0x0F, 0x38, 0x0F, 0xFF}},
	{Name: "Inverted", Off: color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}, On: color.RGBA{0x00, 0x00, 0x00, 0xFF}},
}

// PaletteByIndex clamps out-of-range ids to the default palette.
func PaletteByIndex(id int) Palette {
	if id < 0 || id >= len(Palettes) {
		return Palettes[0]
	}
	return Palettes[id]
}

// PaletteByName does a case-insensitive lookup. Returns (index, true) on success.
func PaletteByName(name string) (int, bool) {
	n := strings.TrimSpace(name)
	for i, p := range Palettes {
		if strings.EqualFold(p.Name, n) {
			return i, true
		}
	}
	return 0, false
}

// RGBA renders the framebuffer into dst (Width*Height*4 bytes, allocated if short).
func (d *Display) RGBA(dst []byte, p Palette) []byte {
	if len(dst) < Size*4 {
		dst = make([]byte, Size*4)
	}
	for i, c := range d.cells {
		col := p.Off
		if c != Off {
			col = p.On
		}
		o := i * 4
		dst[o+0] = col.R
		dst[o+1] = col.G
		dst[o+2] = col.B
		dst[o+3] = col.A
	}
	return dst[:Size*4]
}

// PackedToRGBA converts a packed 1bpp frame into RGBA, for presenters that only receive the packed buffer.
func PackedToRGBA(dst, packed []byte, p Palette) []byte {
	var d Display
	d.cells = Unpack(packed)
	return d.RGBA(dst, p)
}
