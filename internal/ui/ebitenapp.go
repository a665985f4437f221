package ui

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/apu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rom"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/retroenv/retrogolib/log"
)

// hostKeys are the ebiten keys for keypad.Layout, row by row.
var hostKeys = [4][4]ebiten.Key{
	{ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4},
	{ebiten.KeyQ, ebiten.KeyW, ebiten.KeyE, ebiten.KeyR},
	{ebiten.KeyA, ebiten.KeyS, ebiten.KeyD, ebiten.KeyF},
	{ebiten.KeyZ, ebiten.KeyX, ebiten.KeyC, ebiten.KeyV},
}

const ipsStep = 60

type App struct {
	cfg    Config
	m      *emu.Machine
	gate   *apu.Gate
	logger *log.Logger

	// presenter state, written from Present and read in Draw
	mu     sync.Mutex
	frame  []byte // last packed frame
	rgba   []byte
	tex    *ebiten.Image
	paused bool
	fast   bool
	halted error

	audioCtx    *audio.Context
	audioPlayer *audio.Player

	// overlay/menu
	showMenu    bool
	menuMode    string // "main", "slot", "rom", "settings", "keys"
	menuIdx     int
	currentSlot int
	romList     []string
	romSel      int
	romOff      int
	keysOff     int
	settingsOff int
	toastMsg    string
	toastUntil  time.Time
	curW, curH  int
}

func NewApp(cfg Config, m *emu.Machine, gate *apu.Gate, logger *log.Logger) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(display.Width*cfg.Scale, display.Height*cfg.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	a := &App{
		cfg:      cfg,
		m:        m,
		gate:     gate,
		logger:   logger,
		frame:    make([]byte, display.PackedSize),
		menuMode: "main",
	}
	m.SetPresenter(a)
	a.updateTitle()
	return a
}

// Run opens the window and blocks until it is closed.
func (a *App) Run() error {
	a.startAudio()
	defer a.stopAudio()
	err := ebiten.RunGame(a)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Present implements emu.Presenter.
func (a *App) Present(fb []byte, format display.PixelFormat, width, height int) {
	if format != display.Format1BPPMSB || width != display.Width || height != display.Height {
		return
	}
	a.mu.Lock()
	copy(a.frame, fb)
	a.mu.Unlock()
}

func (a *App) Update() error {
	a.updateKeypad()

	// Pause toggle (P)
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}

	// Fast-forward (Tab): while held, run multiple frames per Ebiten update
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)

	// Reset (F2) restarts the loaded program
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		a.m.Reset()
		a.halted = nil
		a.toast("Reset")
	}

	// Frame-step when paused (N)
	if a.paused && inpututil.IsKeyJustPressed(ebiten.KeyN) {
		a.stepFrame()
	}

	// Speed (+/-)
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd) {
		a.changeSpeed(+ipsStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract) {
		a.changeSpeed(-ipsStep)
	}

	// Palette cycle ([ / ])
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		a.cyclePalette(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		a.cyclePalette(+1)
	}

	// Mute (M)
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		a.setMuted(!a.cfg.Muted)
	}

	// Quick save/load
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		a.quickSave()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		a.quickLoad()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}

	// Screenshot (F12)
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if name, err := a.saveScreenshot(); err == nil {
			a.toast("Saved " + name)
		} else {
			a.toast("Screenshot failed: " + err.Error())
		}
	}

	// Toggle menu (Escape)
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && (!a.showMenu || a.menuMode == "main") {
		a.showMenu = !a.showMenu
		a.menuMode = "main"
		a.menuIdx = 0
	} else if a.showMenu {
		switch a.menuMode {
		case "slot":
			a.updateSlotMenu()
		case "rom":
			a.updateRomMenu()
		case "settings":
			a.updateSettingsMenu()
		case "keys":
			a.updateKeysMenu()
		default:
			a.updateMainMenu()
		}
	}

	if !a.paused && !a.showMenu {
		if a.fast {
			// Run a few frames to speed up
			for i := 0; i < 5; i++ {
				a.stepFrame()
			}
		} else {
			a.stepFrame()
		}
	}
	return nil
}

// updateKeypad forwards host key edges to the latch.
func (a *App) updateKeypad() {
	if a.showMenu {
		return
	}
	for row := range hostKeys {
		for col, k := range hostKeys[row] {
			key := uint(keypad.Keys[row][col])
			if inpututil.IsKeyJustPressed(k) {
				a.m.PressKey(keypad.Player, key)
			}
			if inpututil.IsKeyJustReleased(k) {
				a.m.ReleaseKey(keypad.Player, key)
			}
		}
	}
}

func (a *App) stepFrame() {
	if a.halted != nil {
		return
	}
	if err := a.m.StepFrame(); err != nil {
		a.halted = err
		if !errors.Is(err, cpu.ErrHalted) && a.logger != nil {
			a.logger.Error("Machine halted", log.Err(err))
		}
		a.toast("Halted: " + err.Error())
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(display.Width, display.Height)
	}
	a.mu.Lock()
	a.rgba = display.PackedToRGBA(a.rgba, a.frame, display.PaletteByIndex(a.cfg.Palette))
	a.mu.Unlock()
	a.tex.WritePixels(a.rgba)

	// integer scale to the largest size that fits, centred
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale := min(sw/display.Width, sh/display.Height)
	if scale < 1 {
		scale = 1
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	op.GeoM.Translate(float64(sw-display.Width*scale)/2, float64(sh-display.Height*scale)/2)
	screen.DrawImage(a.tex, op)

	if a.showMenu {
		a.drawMenu(screen)
	} else if a.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED (P)", 4, 4)
	}
	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.truncateText(a.toastMsg, a.maxCharsForText(4)), 4, sh-18)
	}
}

func (a *App) Layout(outW, outH int) (int, int) {
	a.curW, a.curH = outW, outH
	return outW, outH
}

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
	if a.logger != nil {
		a.logger.Debug("ui", log.String("message", msg))
	}
}

func (a *App) updateTitle() {
	title := a.cfg.Title
	if name := a.m.ROMInfo().Name; name != "" {
		title = a.cfg.Title + " - [" + name + "]"
	}
	ebiten.SetWindowTitle(title)
}

func (a *App) applyWindowSize() {
	ebiten.SetWindowSize(display.Width*a.cfg.Scale, display.Height*a.cfg.Scale)
}

func (a *App) changeSpeed(delta int) {
	ips := a.m.InstructionsPerSecond() + delta
	if ips < ipsStep {
		ips = ipsStep
	}
	a.m.SetInstructionsPerSecond(ips)
	a.toast(fmt.Sprintf("Speed: %d instructions/s", ips))
}

func (a *App) cyclePalette(dir int) {
	n := len(display.Palettes)
	a.cfg.Palette = (a.cfg.Palette + dir + n) % n
	a.toast("Palette: " + display.PaletteByIndex(a.cfg.Palette).Name)
}

func (a *App) statePath(slot int) string {
	return rom.StatePath(a.m.ROMPath(), a.cfg.StateDir, slot)
}

func (a *App) saveSlot(slot int) error {
	return a.m.SaveStateToFile(a.statePath(slot))
}

func (a *App) loadSlot(slot int) error {
	if err := a.m.LoadStateFromFile(a.statePath(slot)); err != nil {
		return err
	}
	a.halted = nil
	return nil
}

func (a *App) quickSave() {
	if err := a.saveSlot(a.currentSlot); err == nil {
		a.toast(fmt.Sprintf("Saved slot %d", a.currentSlot+1))
	} else {
		a.toast("Save failed: " + err.Error())
	}
}

func (a *App) quickLoad() {
	if _, err := os.Stat(a.statePath(a.currentSlot)); err != nil {
		a.toast("Slot is empty")
		return
	}
	if err := a.loadSlot(a.currentSlot); err == nil {
		a.toast(fmt.Sprintf("Loaded slot %d", a.currentSlot+1))
	} else {
		a.toast("Load failed: " + err.Error())
	}
}

func (a *App) findROMs() []string {
	list, err := rom.Find(a.cfg.ROMsDir)
	if err != nil {
		a.toast(err.Error())
		return nil
	}
	return list
}

func (a *App) loadROM(path string) {
	if err := a.m.LoadROMFromFile(path); err != nil {
		a.toast("ROM load failed: " + err.Error())
		return
	}
	a.halted = nil
	if p, ok := emu.LookupProfile(a.m.ROMInfo()); ok {
		a.cfg.Palette = p.Palette
	}
	a.updateTitle()
	a.toast("Loaded ROM: " + a.m.ROMInfo().Name)
}

func (a *App) saveScreenshot() (string, error) {
	a.mu.Lock()
	pix := display.PackedToRGBA(nil, a.frame, display.PaletteByIndex(a.cfg.Palette))
	a.mu.Unlock()
	img := &image.RGBA{
		Pix:    pix,
		Stride: 4 * display.Width,
		Rect:   image.Rect(0, 0, display.Width, display.Height),
	}
	ts := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("screenshot_%s.png", ts)
	f, err := os.Create(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return name, png.Encode(f, img)
}

// maxCharsForText returns how many debug-font glyphs fit on a line starting at x.
func (a *App) maxCharsForText(x int) int {
	n := (a.curW - x) / 6
	if n < 1 {
		n = 1
	}
	return n
}

func (a *App) truncateText(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return s[:maxChars]
	}
	return s[:maxChars-3] + "..."
}

func (a *App) wrapText(s string, maxChars int) []string {
	if maxChars <= 0 || len(s) <= maxChars {
		return []string{s}
	}
	var lines []string
	for len(s) > maxChars {
		cut := maxChars
		for i := maxChars; i > 0; i-- {
			if s[i] == ' ' {
				cut = i
				break
			}
		}
		lines = append(lines, s[:cut])
		s = trimLeftSpace(s[cut:])
	}
	if s != "" {
		lines = append(lines, s)
	}
	return lines
}

func trimLeftSpace(s string) string {
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	return s
}
