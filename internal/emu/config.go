package emu

// Config contains settings that affect emulation behavior.
type Config struct {
	InstructionsPerSecond int      // per-frame budget is this divided by 60
	Seed                  int64    // Cxkk random source seed, 0 picks one from the clock
	SoundEffects          []string // effect files the audio gate can switch between
	SoundEffect           int      // initial effect index, -1 for the built-in beep
	AudioEnabled          bool
	AutoProfile           bool // apply per-ROM speed from the profile table on file load
	Trace                 bool // log every instruction at debug level
}

const DefaultInstructionsPerSecond = 600

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.InstructionsPerSecond <= 0 {
		c.InstructionsPerSecond = DefaultInstructionsPerSecond
	}
	if c.SoundEffect < 0 || c.SoundEffect >= len(c.SoundEffects) {
		c.SoundEffect = -1
	}
}
