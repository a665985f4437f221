package emu

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/diag"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rom"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/snapshot"
	"github.com/retroenv/retrogolib/log"
)

// FrameRate is the scheduler and timer cadence in Hz.
const FrameRate = 60

// Presenter receives the framebuffer once per frame.
type Presenter interface {
	Present(fb []byte, format display.PixelFormat, width, height int)
}

// AudioGate plays the configured sound effect while the sound timer runs.
type AudioGate interface {
	Open(path string) error
	Close()
	Play()
}

// Registers is a read-only copy of the CPU register file.
type Registers struct {
	V     [cpu.NumRegisters]byte
	I     uint16
	PC    uint16
	SP    byte
	Stack [cpu.StackDepth]uint16
	DT    byte
	ST    byte
}

type Machine struct {
	cfg Config
	ips int

	// core components
	bus  *bus.Bus
	disp *display.Display
	keys *keypad.Keypad
	cpu  *cpu.CPU

	// collaborators
	sink      diag.Sink
	logger    *log.Logger
	presenter Presenter
	audio     AudioGate
	audioOn   bool
	effect    int // index into cfg.SoundEffects, -1 when none is open

	romPath string
	romInfo rom.Info
	packed  []byte
	frames  uint64
}

func New(cfg Config) *Machine {
	cfg.Defaults()
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	m := &Machine{
		cfg:    cfg,
		ips:    cfg.InstructionsPerSecond,
		bus:    bus.New(),
		disp:   display.New(),
		keys:   keypad.New(),
		sink:   diag.Discard,
		effect: -1,
		packed: make([]byte, display.PackedSize),
	}
	m.cpu = cpu.New(m.bus, m.disp, m.keys, rand.New(rand.NewSource(seed)))
	m.bus.Clear()
	m.Reset()
	return m
}

// SetSink routes diagnostics; nil discards them.
func (m *Machine) SetSink(s diag.Sink) {
	if s == nil {
		s = diag.Discard
	}
	m.sink = s
}

// SetLogger enables trace and lifecycle logging.
func (m *Machine) SetLogger(l *log.Logger) { m.logger = l }

func (m *Machine) SetPresenter(p Presenter) { m.presenter = p }

// AttachAudio connects the audio gate and, when audio is enabled in the
// config, opens the configured effect.
func (m *Machine) AttachAudio(g AudioGate) {
	m.audio = g
	m.effect = -1
	if g == nil {
		m.audioOn = false
		return
	}
	if m.cfg.AudioEnabled {
		m.EnableAudio()
	}
}

// Reset wipes the interpreter area, reinstalls the fontset and restarts the
// program at ROMStart. The loaded ROM is kept.
func (m *Machine) Reset() {
	m.bus.ResetSystemArea()
	m.disp.Clear()
	m.keys.Reset()
	m.cpu.Reset()
	m.frames = 0
}

// LoadROM copies a program to ROMStart. Oversized images are reported and
// leave memory unchanged. The machine is not reset.
func (m *Machine) LoadROM(data []byte) error {
	if err := m.bus.LoadROM(data); err != nil {
		m.sink.Report(diag.Error, err.Error())
		return err
	}
	return nil
}

// LoadROMFromFile replaces the program with a ROM from disk and resets.
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := rom.Load(path)
	if err != nil {
		m.sink.Report(diag.Error, err.Error())
		return err
	}
	if len(data) > bus.MaxROMSize {
		return m.LoadROM(data)
	}
	m.bus.ClearROMArea()
	if err := m.LoadROM(data); err != nil {
		return err
	}
	m.Reset()
	m.romPath = path
	m.romInfo = rom.Identify(path, data)
	if m.cfg.AutoProfile {
		if p, ok := LookupProfile(m.romInfo); ok {
			m.SetInstructionsPerSecond(p.InstructionsPerSecond)
		}
	}
	if m.logger != nil {
		m.logger.Info("ROM loaded",
			log.String("name", m.romInfo.Name),
			log.Int("size", m.romInfo.Size),
			log.Hex("crc32", m.romInfo.CRC32),
			log.Int("ips", m.ips))
	}
	return nil
}

// ROMPath returns the currently loaded ROM file path, if any.
func (m *Machine) ROMPath() string { return m.romPath }

// ROMInfo describes the ROM loaded from file.
func (m *Machine) ROMInfo() rom.Info { return m.romInfo }

// SetInstructionsPerSecond changes the per-frame instruction budget; negative values count as 0.
func (m *Machine) SetInstructionsPerSecond(n int) {
	if n < 0 {
		n = 0
	}
	m.ips = n
}

func (m *Machine) InstructionsPerSecond() int { return m.ips }

// State returns the CPU run state.
func (m *Machine) State() cpu.RunState { return m.cpu.State() }

// Frames counts frames stepped since the last reset.
func (m *Machine) Frames() uint64 { return m.frames }

func (m *Machine) Registers() Registers {
	c := m.cpu
	return Registers{V: c.V, I: c.I, PC: c.PC, SP: c.SP, Stack: c.Stack, DT: c.DT, ST: c.ST}
}

// StepFrame runs one 60 Hz frame: the instruction budget, the timers, the
// audio gate and the presenter. A halted machine returns cpu.ErrHalted.
func (m *Machine) StepFrame() error {
	if err := m.StepFrameNoRender(); err != nil {
		return err
	}
	if m.presenter != nil {
		m.presenter.Present(m.disp.Pack(m.packed), display.Format1BPPMSB, display.Width, display.Height)
	}
	return nil
}

// StepFrameNoRender is StepFrame without the presenter call, for batch runs.
func (m *Machine) StepFrameNoRender() error {
	if m.cpu.State() == cpu.Halted {
		return cpu.ErrHalted
	}
	budget := m.ips / FrameRate
	for i := 0; i < budget; i++ {
		if m.cfg.Trace && m.logger != nil && m.cpu.State() == cpu.Running {
			m.logger.Debug("exec",
				log.Hex("pc", m.cpu.PC),
				log.Hex("op", m.bus.Fetch16(m.cpu.PC)),
				log.Hex("i", m.cpu.I))
		}
		if err := m.cpu.Step(); err != nil {
			m.sink.Report(diag.Fatal, err.Error())
			return err
		}
	}
	if m.cpu.UpdateTimers() && m.audio != nil && m.audioOn {
		m.audio.Play()
	}
	m.frames++
	return nil
}

// Framebuffer returns the display packed at 1 bit per pixel, MSB first.
func (m *Machine) Framebuffer() []byte {
	return m.disp.Pack(nil)
}

// FramebufferRGBA renders the display with a palette, 64x32x4 bytes.
func (m *Machine) FramebufferRGBA(p display.Palette) []byte {
	return m.disp.RGBA(nil, p)
}

// Pixel reports whether the cell at (x, y) is lit.
func (m *Machine) Pixel(x, y int) bool { return m.disp.Pixel(x, y) }

// PressKey and ReleaseKey update the key latch; only player 0 and keys 0-F count.
func (m *Machine) PressKey(player, key uint)   { m.keys.Press(player, key) }
func (m *Machine) ReleaseKey(player, key uint) { m.keys.Release(player, key) }

// --- Audio gate ---

// SetAudioEffect switches to one of the configured sound effects.
func (m *Machine) SetAudioEffect(index int) {
	if index < 0 || index >= len(m.cfg.SoundEffects) {
		m.sink.Report(diag.Warning, fmt.Sprintf("audio effect %d out of range, %d configured", index, len(m.cfg.SoundEffects)))
		return
	}
	if index == m.effect {
		return
	}
	m.cfg.SoundEffect = index
	if m.audio == nil || !m.audioOn {
		return
	}
	m.openEffect(index)
}

// AudioEffect returns the selected effect index, -1 for the built-in sound.
func (m *Machine) AudioEffect() int { return m.cfg.SoundEffect }

// SoundEffects lists the configured effect files.
func (m *Machine) SoundEffects() []string { return m.cfg.SoundEffects }

func (m *Machine) openEffect(index int) {
	path := m.cfg.SoundEffects[index]
	if err := m.audio.Open(path); err != nil {
		m.sink.Report(diag.Error, err.Error())
		return
	}
	m.effect = index
}

// EnableAudio opens the selected effect and lets the sound timer drive the gate.
func (m *Machine) EnableAudio() {
	if m.audio == nil {
		return
	}
	m.audioOn = true
	if i := m.cfg.SoundEffect; i >= 0 && i < len(m.cfg.SoundEffects) && i != m.effect {
		m.openEffect(i)
	}
}

// DisableAudio closes the gate; the sound timer keeps counting silently.
func (m *Machine) DisableAudio() {
	if m.audio == nil {
		return
	}
	m.audioOn = false
	m.audio.Close()
	m.effect = -1
}

func (m *Machine) AudioEnabled() bool { return m.audio != nil && m.audioOn }

// Detach closes and drops the audio gate, for shutdown.
func (m *Machine) Detach() {
	if m.audio != nil {
		m.audio.Close()
	}
	m.audio = nil
	m.audioOn = false
	m.effect = -1
}

// --- Save/Load state ---

func (m *Machine) snapshotState() snapshot.State {
	c := m.cpu
	return snapshot.State{
		Framebuffer: m.disp.Cells(),
		Keys:        m.keys.Snapshot(),
		Memory:      m.bus.Bytes(),
		Stack:       c.Stack,
		V:           c.V,
		DT:          c.DT,
		ST:          c.ST,
		I:           c.I,
		PC:          c.PC,
		SP:          c.SP,
	}
}

func (m *Machine) SaveState() []byte {
	s := m.snapshotState()
	return snapshot.Encode(&s)
}

// LoadState restores a snapshot. On error the machine is untouched. A pending
// key wait or halt is cleared.
func (m *Machine) LoadState(data []byte) error {
	s := m.snapshotState()
	format, err := snapshot.Decode(data, &s)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	m.disp.Restore(s.Framebuffer)
	m.keys.Restore(s.Keys)
	m.bus.Restore(s.Memory)
	c := m.cpu
	c.Stack, c.V = s.Stack, s.V
	c.DT, c.ST = s.DT, s.ST
	c.I, c.PC, c.SP = s.I, s.PC, s.SP
	c.Resume()
	if m.logger != nil {
		m.logger.Debug("state restored", log.String("format", format.String()), log.Hex("pc", s.PC))
	}
	return nil
}

func (m *Machine) SaveStateToFile(path string) error {
	return os.WriteFile(path, m.SaveState(), 0644)
}

func (m *Machine) LoadStateFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.LoadState(data)
}
