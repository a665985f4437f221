package term

import "github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"

// DefaultHoldFrames is how long a typed key stays pressed without a repeat.
const DefaultHoldFrames = 12

const (
	ctrlC = 0x03
	ctrlD = 0x04
)

// KeyTarget receives keypad edges, usually an *emu.Machine.
type KeyTarget interface {
	PressKey(player, key uint)
	ReleaseKey(player, key uint)
}

// Input turns typed characters into keypad presses. Terminals report no key
// releases, so every press is released after a number of frames unless the
// character repeats first.
type Input struct {
	target KeyTarget
	hold   int
	left   [keypad.NumKeys]int
}

func NewInput(target KeyTarget, holdFrames int) *Input {
	if holdFrames <= 0 {
		holdFrames = DefaultHoldFrames
	}
	return &Input{target: target, hold: holdFrames}
}

// Feed handles bytes read from the terminal. It returns true on Ctrl-C or Ctrl-D.
func (in *Input) Feed(b []byte) (quit bool) {
	for _, c := range b {
		if c == ctrlC || c == ctrlD {
			return true
		}
		key, ok := keypad.KeyForChar(rune(c))
		if !ok {
			continue
		}
		if in.left[key] == 0 {
			in.target.PressKey(keypad.Player, uint(key))
		}
		in.left[key] = in.hold
	}
	return false
}

// Tick advances one frame and releases keys whose hold ran out.
func (in *Input) Tick() {
	for key := range in.left {
		if in.left[key] == 0 {
			continue
		}
		in.left[key]--
		if in.left[key] == 0 {
			in.target.ReleaseKey(keypad.Player, uint(key))
		}
	}
}

// ReleaseAll lifts every held key.
func (in *Input) ReleaseAll() {
	for key := range in.left {
		if in.left[key] != 0 {
			in.left[key] = 0
			in.target.ReleaseKey(keypad.Player, uint(key))
		}
	}
}

// Held reports whether key is currently pressed by this input.
func (in *Input) Held(key byte) bool {
	return int(key) < len(in.left) && in.left[key] > 0
}
