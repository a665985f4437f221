package ui

import (
	"fmt"
	"image/color"
	"path/filepath"
	"unicode"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	lineHeight = 14
	romListY   = 40

	settingsTitle = "Settings (Up/Down select; Left/Right change; Enter/Backspace/Esc: back)"
	keysTitle     = "Keybindings (Up/Down to scroll, Backspace/Esc to return)"
)

func (a *App) drawMenu(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 0, float32(a.curW), float32(a.curH), color.RGBA{0, 0, 0, 192}, false)
	switch a.menuMode {
	case "slot":
		a.drawSlotMenu(screen)
	case "rom":
		a.drawRomMenu(screen)
	case "settings":
		a.drawSettingsMenu(screen)
	case "keys":
		a.drawKeysMenu(screen)
	default:
		a.drawMainMenu(screen)
	}
}

func (a *App) drawMainMenu(screen *ebiten.Image) {
	lines := []string{
		"Menu:",
		fmt.Sprintf("Save state (slot %d)", a.currentSlot+1),
		fmt.Sprintf("Load state (slot %d)", a.currentSlot+1),
		"Select Slot",
		"Switch ROM",
		"Settings",
		"Keybindings",
		"Close",
	}
	for i, s := range lines {
		prefix := "  "
		if i == a.menuIdx+1 {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+s, 10, 10+i*lineHeight)
	}
	// quick hints, keep on-screen
	hint := "F5: Save  F9: Load  F2: Reset  F11: Fullscreen  Backspace: Back"
	ebitenutil.DebugPrintAt(screen, a.truncateText(hint, a.maxCharsForText(10)), 10, 10+len(lines)*lineHeight)

	r := a.m.Registers()
	status := fmt.Sprintf("PC=%03X I=%03X DT=%d ST=%d  %d ips  %s", r.PC, r.I, r.DT, r.ST, a.m.InstructionsPerSecond(), a.m.State())
	ebitenutil.DebugPrintAt(screen, a.truncateText(status, a.maxCharsForText(10)), 10, 10+(len(lines)+1)*lineHeight)
}

func (a *App) drawSlotMenu(screen *ebiten.Image) {
	// Show the slots, mark empty ones
	lines := []string{"Select Slot:"}
	for i := 0; i < a.cfg.Slots; i++ {
		state := ""
		if !a.slotUsed(i) {
			state = "[empty]"
		}
		lines = append(lines, fmt.Sprintf("%d %s", i+1, state))
	}
	for i, s := range lines {
		prefix := "  "
		if i == a.menuIdx+1 {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+s, 10, 10+i*lineHeight)
	}
}

func (a *App) drawRomMenu(screen *ebiten.Image) {
	width := a.maxCharsForText(10)
	ebitenutil.DebugPrintAt(screen, a.truncateText("Select ROM (Enter to load, Backspace/Esc to return)", width), 10, 10)
	ebitenutil.DebugPrintAt(screen, a.truncateText("Dir: "+a.cfg.ROMsDir, width), 10, 24)
	if len(a.romList) == 0 {
		ebitenutil.DebugPrintAt(screen, "No ROMs found", 10, romListY)
		return
	}
	names := make([]string, len(a.romList))
	for i, p := range a.romList {
		names[i] = filepath.Base(p)
	}
	a.drawList(screen, names, a.romSel, a.romOff, romListY)
}

// drawList prints the rows visible from off onward, marks sel with "> "
// (sel < 0 marks nothing) and shows ^/v when rows are cut off.
func (a *App) drawList(screen *ebiten.Image, rows []string, sel, off, y int) {
	visible := a.visibleRows(y)
	end := min(off+visible, len(rows))
	width := a.maxCharsForText(10)
	for i := off; i < end; i++ {
		prefix := ""
		if sel >= 0 {
			prefix = "  "
			if i == sel {
				prefix = "> "
			}
		}
		ebitenutil.DebugPrintAt(screen, a.truncateText(prefix+rows[i], width), 10, y+(i-off)*lineHeight)
	}
	if off > 0 {
		ebitenutil.DebugPrintAt(screen, "^", 2, y)
	}
	if end < len(rows) {
		ebitenutil.DebugPrintAt(screen, "v", 2, y+(visible-1)*lineHeight)
	}
}

// visibleRows is how many list lines fit below y.
func (a *App) visibleRows(y int) int {
	return max((a.curH-y)/lineHeight, 1)
}

// drawTitle prints s wrapped to the window width and returns the y below it.
func (a *App) drawTitle(screen *ebiten.Image, s string) int {
	y := 10
	for _, w := range a.wrapText(s, a.maxCharsForText(10)) {
		ebitenutil.DebugPrintAt(screen, w, 10, y)
		y += lineHeight
	}
	return y
}

func (a *App) keyRows() []string {
	rows := make([]string, 0, 4+10)
	for r := range keypad.Layout {
		line := ""
		for c, ch := range keypad.Layout[r] {
			line += fmt.Sprintf("%c:%X  ", unicode.ToUpper(ch), keypad.Keys[r][c])
		}
		rows = append(rows, line)
	}
	return append(rows,
		"P: Pause",
		"N: Step (when paused)",
		"Tab: Fast-forward",
		"F2: Reset",
		"+/-: Speed",
		"[ ]: Palette",
		"M: Mute",
		"F5/F9: Save/Load slot",
		"F12: Screenshot",
		"Esc: Open/Close Menu",
	)
}

func (a *App) drawKeysMenu(screen *ebiten.Image) {
	y := a.drawTitle(screen, keysTitle) + 4
	rows := a.keyRows()
	a.keysOff = max(0, min(a.keysOff, len(rows)-1))
	a.drawList(screen, rows, -1, a.keysOff, y)
}

func (a *App) drawSettingsMenu(screen *ebiten.Image) {
	y := a.drawTitle(screen, settingsTitle)
	effect := "built-in beep"
	if i := a.m.AudioEffect(); i >= 0 && i < len(a.m.SoundEffects()) {
		effect = filepath.Base(a.m.SoundEffects()[i])
	}
	audio := "Off"
	if a.m.AudioEnabled() {
		audio = "On"
	}
	items := []string{
		fmt.Sprintf("Scale: %dx", a.cfg.Scale),
		fmt.Sprintf("Palette: %s", paletteName(a.cfg.Palette)),
		fmt.Sprintf("Speed: %d instructions/s", a.m.InstructionsPerSecond()),
		"Audio: " + audio,
		"Sound effect: " + effect,
	}
	a.drawList(screen, items, a.menuIdx, a.settingsOff, y)
}
