package ui

import "github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/apu"

// Config contains window/input/audio related settings.
type Config struct {
	Title      string // window title
	Scale      int    // integer upscaling factor
	Palette    int    // index into display.Palettes
	SampleRate int    // audio output rate
	Muted      bool
	ROMsDir    string // directory to browse for ROMs
	StateDir   string // where save slots go; empty keeps them next to the ROM
	Slots      int    // number of save slots
	// Later: key remapping, fullscreen on start.
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "chip8"
	}
	if c.Scale <= 0 {
		c.Scale = 10
	}
	if c.SampleRate <= 0 {
		c.SampleRate = apu.DefaultSampleRate
	}
	if c.ROMsDir == "" {
		c.ROMsDir = "roms"
	}
	if c.Slots <= 0 {
		c.Slots = 4
	}
}
