package emu

import (
	"strings"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rom"
)

// Profile holds per-ROM preferences picked from the program name.
type Profile struct {
	InstructionsPerSecond int
	Palette               int // index into display.Palettes
}

// profileExact maps exact, normalized names to a profile.
var profileExact = map[string]Profile{
	"PONG":     {InstructionsPerSecond: 540, Palette: 0},
	"PONG2":    {InstructionsPerSecond: 540, Palette: 0},
	"BRIX":     {InstructionsPerSecond: 600, Palette: 2},
	"VBRIX":    {InstructionsPerSecond: 600, Palette: 2},
	"TETRIS":   {InstructionsPerSecond: 720, Palette: 3},
	"BLINKY":   {InstructionsPerSecond: 900, Palette: 1},
	"INVADERS": {InstructionsPerSecond: 600, Palette: 2},
	"UFO":      {InstructionsPerSecond: 480, Palette: 0},
	"TANK":     {InstructionsPerSecond: 540, Palette: 1},
	"MAZE":     {InstructionsPerSecond: 1200, Palette: 0},
	"KALEID":   {InstructionsPerSecond: 900, Palette: 4},
	"IBMLOGO":  {InstructionsPerSecond: 600, Palette: 0},
	"MISSILE":  {InstructionsPerSecond: 600, Palette: 1},
	"WIPEOFF":  {InstructionsPerSecond: 600, Palette: 2},
	"CONNECT4": {InstructionsPerSecond: 480, Palette: 3},
	"TICTAC":   {InstructionsPerSecond: 480, Palette: 3},
	"SYZYGY":   {InstructionsPerSecond: 720, Palette: 2},
	"15PUZZLE": {InstructionsPerSecond: 480, Palette: 3},
}

type containsRule struct {
	substr  string
	profile Profile
}

// profileContains applies broader substring heuristics for families and renamed dumps.
var profileContains = []containsRule{
	{"PONG", Profile{InstructionsPerSecond: 540, Palette: 0}},
	{"BRIX", Profile{InstructionsPerSecond: 600, Palette: 2}},
	{"TETRIS", Profile{InstructionsPerSecond: 720, Palette: 3}},
	{"INVADER", Profile{InstructionsPerSecond: 600, Palette: 2}},
	{"BLINKY", Profile{InstructionsPerSecond: 900, Palette: 1}},
	{"MAZE", Profile{InstructionsPerSecond: 1200, Palette: 0}},
}

func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LookupProfile picks a profile from a ROM's name. Unknown programs report false.
func LookupProfile(info rom.Info) (Profile, bool) {
	n := normalizeName(info.Name)
	if n == "" {
		return Profile{}, false
	}
	if p, ok := profileExact[n]; ok {
		return p, true
	}
	for _, r := range profileContains {
		if strings.Contains(n, r.substr) {
			return r.profile, true
		}
	}
	return Profile{}, false
}
