package ui

import (
	"fmt"
	"os"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// mainItems is the number of rows in the main menu.
const mainItems = 7

// moveSelection applies Up/Down to a cursor over n rows.
func moveSelection(idx, n int) int {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && idx > 0 {
		idx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && idx < n-1 {
		idx++
	}
	return idx
}

func backPressed() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace)
}

func (a *App) updateMainMenu() {
	a.menuIdx = moveSelection(a.menuIdx, mainItems)
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		switch a.menuIdx {
		case 0:
			a.quickSave()
		case 1:
			a.quickLoad()
		case 2:
			a.menuMode = "slot"
			a.menuIdx = a.currentSlot
		case 3:
			a.romList = a.findROMs()
			a.romSel = 0
			a.romOff = 0
			a.menuMode = "rom"
		case 4:
			a.menuMode = "settings"
			a.menuIdx = 0
			a.settingsOff = 0
		case 5:
			a.menuMode = "keys"
			a.keysOff = 0
		case 6:
			a.showMenu = false
		}
	}
	// Back with Backspace
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.showMenu = false
	}
}

func (a *App) updateSlotMenu() {
	a.menuIdx = moveSelection(a.menuIdx, a.cfg.Slots)
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.currentSlot = a.menuIdx
		a.toast(fmt.Sprintf("Slot set to %d", a.currentSlot+1))
		a.backToMain(2)
	}
	if backPressed() {
		a.backToMain(2)
	}
}

func (a *App) updateRomMenu() {
	n := len(a.romList)
	if n == 0 {
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || backPressed() {
			a.backToMain(3)
		}
		return
	}
	maxRows := a.visibleRows(romListY)
	a.romSel = moveSelection(a.romSel, n)
	if a.romSel < a.romOff {
		a.romOff = a.romSel
	}
	if a.romSel >= a.romOff+maxRows {
		a.romOff = a.romSel - maxRows + 1
	}
	if a.romOff < 0 {
		a.romOff = 0
	}
	if a.romOff > n-1 {
		a.romOff = n - 1
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.loadROM(a.romList[a.romSel])
		a.showMenu = false
		a.menuMode = "main"
		return
	}
	if backPressed() {
		a.backToMain(3)
	}
}

func (a *App) updateKeysMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.keysOff > 0 {
		a.keysOff--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		a.keysOff++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || backPressed() {
		a.backToMain(5)
	}
}

// settingsItems is the number of rows in the settings menu.
const settingsItems = 5

func (a *App) updateSettingsMenu() {
	// Items order:
	// 0 Scale
	// 1 Palette
	// 2 Speed
	// 3 Audio
	// 4 Sound effect
	a.menuIdx = moveSelection(a.menuIdx, settingsItems)
	// keep the selection inside the scroll window
	maxRows := a.visibleRows(10 + lineHeight*len(a.wrapText(settingsTitle, a.maxCharsForText(10))))
	if a.menuIdx < a.settingsOff {
		a.settingsOff = a.menuIdx
	}
	if a.menuIdx >= a.settingsOff+maxRows {
		a.settingsOff = a.menuIdx - maxRows + 1
	}

	left := inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft)
	right := inpututil.IsKeyJustPressed(ebiten.KeyArrowRight)
	dir := 0
	if left {
		dir = -1
	} else if right {
		dir = +1
	}

	switch a.menuIdx {
	case 0: // Scale
		if dir < 0 && a.cfg.Scale > 1 {
			a.cfg.Scale--
			a.applyWindowSize()
		}
		if dir > 0 && a.cfg.Scale < 20 {
			a.cfg.Scale++
			a.applyWindowSize()
		}
	case 1: // Palette
		if dir != 0 {
			a.cyclePalette(dir)
		}
	case 2: // Speed
		if dir != 0 {
			a.changeSpeed(dir * ipsStep)
		}
	case 3: // Audio on/off
		if dir != 0 {
			if a.m.AudioEnabled() {
				a.m.DisableAudio()
				a.toast("Audio disabled")
			} else {
				a.m.EnableAudio()
				a.toast("Audio enabled")
			}
		}
	case 4: // Sound effect
		if n := len(a.m.SoundEffects()); dir != 0 && n > 0 {
			idx := (a.m.AudioEffect() + dir + n) % n
			a.m.SetAudioEffect(idx)
			a.toast(fmt.Sprintf("Sound effect %d", idx+1))
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || backPressed() {
		a.backToMain(4)
	}
}

func (a *App) backToMain(idx int) {
	a.menuMode = "main"
	a.menuIdx = idx
}

// slotUsed reports whether a save slot has a state file.
func (a *App) slotUsed(slot int) bool {
	_, err := os.Stat(a.statePath(slot))
	return err == nil
}

func paletteName(id int) string { return display.PaletteByIndex(id).Name }
