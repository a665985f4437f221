package bus

import (
	"errors"
	"fmt"
)

const (
	MemorySize = 0x1000
	AddrMask   = 0x0FFF
	ROMStart   = 0x200
	MaxROMSize = MemorySize - ROMStart

	FontStart     = 0x000
	FontGlyphSize = 5
)

// ErrROMTooLarge is returned by LoadROM when the image does not fit above ROMStart.
var ErrROMTooLarge = errors.New("rom too large")

// fontset holds the 4x5 hexadecimal digit glyphs 0-F.
var fontset = [0x50]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Bus is the 4 KiB CHIP-8 address space. All accesses wrap to 12 bits.
type Bus struct {
	mem [MemorySize]byte
}

func New() *Bus {
	return &Bus{}
}

func (b *Bus) Read(addr uint16) byte {
	return b.mem[addr&AddrMask]
}

func (b *Bus) Write(addr uint16, value byte) {
	b.mem[addr&AddrMask] = value
}

// Fetch16 reads a big-endian instruction word at addr; the low byte address wraps too.
func (b *Bus) Fetch16(addr uint16) uint16 {
	return uint16(b.Read(addr))<<8 | uint16(b.Read(addr+1))
}

// LoadROM copies data to ROMStart. Oversized images are rejected and memory is left as is.
func (b *Bus) LoadROM(data []byte) error {
	if len(data) > MaxROMSize {
		return fmt.Errorf("%w: %d bytes, at most %d allowed", ErrROMTooLarge, len(data), MaxROMSize)
	}
	copy(b.mem[ROMStart:], data)
	return nil
}

// ResetSystemArea clears the interpreter area below ROMStart and reinstalls the fontset.
// The ROM region is not touched.
func (b *Bus) ResetSystemArea() {
	for i := 0; i < ROMStart; i++ {
		b.mem[i] = 0
	}
	copy(b.mem[FontStart:], fontset[:])
}

// ClearROMArea zeroes everything from ROMStart up.
func (b *Bus) ClearROMArea() {
	for i := ROMStart; i < MemorySize; i++ {
		b.mem[i] = 0
	}
}

// Clear zeroes the whole address space, ROM included.
func (b *Bus) Clear() {
	b.mem = [MemorySize]byte{}
}

// Bytes returns a copy of memory.
func (b *Bus) Bytes() [MemorySize]byte { return b.mem }

// Restore overwrites memory, used by save states.
func (b *Bus) Restore(mem [MemorySize]byte) { b.mem = mem }

// FontAddress returns where the glyph for digit lives (digit*5, as the interpreter computes it).
func FontAddress(digit byte) uint16 {
	return FontStart + uint16(digit)*FontGlyphSize
}

// Fontset returns a copy of the built-in digit glyphs.
func Fontset() [0x50]byte { return fontset }
