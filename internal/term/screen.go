// Package term runs the machine in a raw-mode terminal, drawing the display with
// half-block characters and reading the keypad from typed characters.
package term

import (
	"bytes"
	"io"
	"sync"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
)

const (
	hideCursor = "\x1b[?25l"
	showCursor = "\x1b[?25h"
	clearAll   = "\x1b[2J"
	home       = "\x1b[H"
)

// Screen is an emu.Presenter writing frames to a terminal.
type Screen struct {
	mu   sync.Mutex
	w    io.Writer
	buf  []byte
	last []byte
	err  error
}

func NewScreen(w io.Writer) *Screen {
	return &Screen{w: w}
}

// Open hides the cursor and clears the terminal.
func (s *Screen) Open() error {
	_, err := io.WriteString(s.w, hideCursor+clearAll)
	return err
}

// Close shows the cursor again below the last frame.
func (s *Screen) Close() error {
	_, err := io.WriteString(s.w, "\r\n"+showCursor)
	return err
}

// Err returns the first write error seen by Present.
func (s *Screen) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Present redraws the terminal when the frame differs from the previous one.
func (s *Screen) Present(fb []byte, format display.PixelFormat, width, height int) {
	if format != display.Format1BPPMSB || width != display.Width || height != display.Height {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil || (s.last != nil && bytes.Equal(s.last, fb)) {
		return
	}
	s.last = append(s.last[:0], fb...)
	cells := display.Unpack(fb)
	s.buf = Render(s.buf[:0], cells[:], display.Width, display.Height)
	if _, err := s.w.Write(s.buf); err != nil {
		s.err = err
	}
}

// Render appends one frame of unpacked cells to dst. Each text row covers two
// pixel rows, so a 64x32 display needs 16 lines of 64 columns.
func Render(dst, cells []byte, width, height int) []byte {
	dst = append(dst, home...)
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			top := cells[y*width+x] != display.Off
			bottom := y+1 < height && cells[(y+1)*width+x] != display.Off
			switch {
			case top && bottom:
				dst = append(dst, "█"...)
			case top:
				dst = append(dst, "▀"...)
			case bottom:
				dst = append(dst, "▄"...)
			default:
				dst = append(dst, ' ')
			}
		}
		dst = append(dst, '\r', '\n')
	}
	return dst
}
