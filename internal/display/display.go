package display

const (
	Width  = 64
	Height = 32
	Size   = Width * Height

	// PackedSize is the length of the 1bpp framebuffer handed to presenters.
	PackedSize = Size / 8
)

// Cell values stored in the framebuffer.
const (
	Off byte = 0x00
	On  byte = 0xFF
)

// PixelFormat describes the layout of a framebuffer passed to a presenter.
type PixelFormat int

const (
	// Format1BPPMSB packs 8 pixels per byte, leftmost pixel in bit 7, rows top to bottom.
	Format1BPPMSB PixelFormat = iota
	// FormatRGBA is 4 bytes per pixel, as produced by RGBA.
	FormatRGBA
)

func (f PixelFormat) String() string {
	switch f {
	case Format1BPPMSB:
		return "1bpp-msb"
	case FormatRGBA:
		return "rgba"
	}
	return "unknown"
}

// Display is the 64x32 monochrome framebuffer.
type Display struct {
	cells [Size]byte
}

func New() *Display {
	return &Display{}
}

func (d *Display) Clear() {
	d.cells = [Size]byte{}
}

// Draw XORs an 8-pixel-wide sprite at (x, y), one byte per row.
// Positions wrap on the linear cell index, not per axis, so a sprite running
// off the right edge continues on the next row. Returns true if any lit cell was cleared.
func (d *Display) Draw(x, y byte, rows []byte) (collision bool) {
	for row, bits := range rows {
		for col := 0; col < 8; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}
			pos := (int(x) + col + (int(y)+row)*Width) % Size
			if d.cells[pos] != Off {
				collision = true
			}
			d.cells[pos] ^= On
		}
	}
	return collision
}

// Pixel reports whether the cell at (x, y) is lit. Out-of-range coordinates are dark.
func (d *Display) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= Width || y >= Height {
		return false
	}
	return d.cells[y*Width+x] != Off
}

// Cells returns a copy of the raw framebuffer.
func (d *Display) Cells() [Size]byte { return d.cells }

// Restore overwrites the raw framebuffer, used by save states.
func (d *Display) Restore(cells [Size]byte) { d.cells = cells }

// Pack writes the framebuffer as 1 bit per pixel, MSB first, into dst and returns it.
// dst is allocated when it is too small.
func (d *Display) Pack(dst []byte) []byte {
	if len(dst) < PackedSize {
		dst = make([]byte, PackedSize)
	}
	dst = dst[:PackedSize]
	for i := range dst {
		var b byte
		for bit := 0; bit < 8; bit++ {
			if d.cells[i*8+bit] != Off {
				b |= 0x80 >> bit
			}
		}
		dst[i] = b
	}
	return dst
}

// Unpack expands a packed 1bpp buffer into cells.
func Unpack(packed []byte) [Size]byte {
	var cells [Size]byte
	for i := 0; i < Size && i/8 < len(packed); i++ {
		if packed[i/8]&(0x80>>(i%8)) != 0 {
			cells[i] = On
		}
	}
	return cells
}
