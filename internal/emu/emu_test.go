package emu

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/diag"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/rom"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/snapshot"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

type capturePresenter struct {
	calls  int
	last   []byte
	format display.PixelFormat
	w, h   int
}

func (p *capturePresenter) Present(fb []byte, format display.PixelFormat, width, height int) {
	p.calls++
	p.last = append(p.last[:0], fb...)
	p.format, p.w, p.h = format, width, height
}

type fakeGate struct {
	opened []string
	closes int
	plays  int
	fail   bool
}

func (g *fakeGate) Open(path string) error {
	if g.fail {
		return errors.New("cannot decode " + path)
	}
	g.opened = append(g.opened, path)
	return nil
}
func (g *fakeGate) Close() { g.closes++ }
func (g *fakeGate) Play()  { g.plays++ }

func words(code ...uint16) []byte {
	out := make([]byte, 0, len(code)*2)
	for _, w := range code {
		out = append(out, byte(w>>8), byte(w))
	}
	return out
}

func newMachine(t *testing.T, code ...uint16) (*Machine, *diag.Recorder, *capturePresenter) {
	t.Helper()
	m := New(Config{Seed: 1})
	rec := &diag.Recorder{}
	p := &capturePresenter{}
	m.SetSink(rec)
	m.SetPresenter(p)
	if len(code) > 0 {
		assert.NoError(t, m.LoadROM(words(code...)))
	}
	return m, rec, p
}

func TestMachine_ClearAndJumpAtZeroHz(t *testing.T) {
	m, _, p := newMachine(t, 0x00E0, 0x1200)
	m.SetInstructionsPerSecond(0)

	assert.NoError(t, m.StepFrame())
	assert.Equal(t, uint16(0x200), m.Registers().PC)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, display.Format1BPPMSB, p.format)
	assert.Equal(t, 64, p.w)
	assert.Equal(t, 32, p.h)
	assert.Equal(t, make([]byte, display.PackedSize), p.last)
}

func TestMachine_AddWithoutCarry(t *testing.T) {
	m, _, _ := newMachine(t, 0x6005, 0x6103, 0x8014, 0x1206)
	assert.NoError(t, m.StepFrame())
	r := m.Registers()
	assert.Equal(t, byte(8), r.V[0])
	assert.Equal(t, byte(0), r.V[0xF])
	assert.Equal(t, uint16(0x206), r.PC)
}

func TestMachine_AddWithCarry(t *testing.T) {
	m, _, _ := newMachine(t, 0x60FF, 0x6101, 0x8014, 0x1206)
	assert.NoError(t, m.StepFrame())
	r := m.Registers()
	assert.Equal(t, byte(0), r.V[0])
	assert.Equal(t, byte(1), r.V[0xF])
}

func TestMachine_BudgetFollowsInstructionsPerSecond(t *testing.T) {
	// ADD V0,1 repeated: one increment per instruction
	code := make([]uint16, 40)
	for i := range code {
		code[i] = 0x7001
	}
	m, _, _ := newMachine(t, code...)
	assert.Equal(t, DefaultInstructionsPerSecond, m.InstructionsPerSecond())

	assert.NoError(t, m.StepFrame())
	assert.Equal(t, byte(10), m.Registers().V[0])

	m.SetInstructionsPerSecond(1200)
	assert.NoError(t, m.StepFrame())
	assert.Equal(t, byte(30), m.Registers().V[0])

	m.SetInstructionsPerSecond(119) // truncates to 1 per frame
	assert.NoError(t, m.StepFrame())
	assert.Equal(t, byte(31), m.Registers().V[0])

	m.SetInstructionsPerSecond(-5)
	assert.Equal(t, 0, m.InstructionsPerSecond())
}

func TestMachine_OversizeROMRejected(t *testing.T) {
	m, rec, _ := newMachine(t, 0x1200)
	before := m.bus.Bytes()

	err := m.LoadROM(make([]byte, bus.MaxROMSize+1))
	if !errors.Is(err, bus.ErrROMTooLarge) {
		t.Fatalf("got %v want ErrROMTooLarge", err)
	}
	assert.Equal(t, 1, rec.Count(diag.Error))
	assert.Equal(t, before, m.bus.Bytes())

	assert.NoError(t, m.LoadROM(make([]byte, bus.MaxROMSize)))
	assert.Equal(t, 1, rec.Count(diag.Error))
}

func TestMachine_ResetKeepsROM(t *testing.T) {
	m, _, _ := newMachine(t, 0xA000, 0xD005, 0x6A42, 0x1206)
	m.bus.Write(0x100, 0x77)
	m.PressKey(0, 3)
	assert.NoError(t, m.StepFrame())
	assert.True(t, m.Pixel(0, 0))

	m.Reset()
	r := m.Registers()
	assert.Equal(t, uint16(0x200), r.PC)
	assert.Equal(t, uint16(0), r.I)
	assert.Equal(t, byte(0), r.SP)
	assert.Equal(t, byte(60), r.DT)
	assert.Equal(t, byte(60), r.ST)
	assert.Equal(t, [16]byte{}, r.V)
	assert.Equal(t, cpu.Running, m.State())
	assert.False(t, m.Pixel(0, 0))
	assert.False(t, m.keys.Pressed(3))

	mem := m.bus.Bytes()
	font := bus.Fontset()
	assert.Equal(t, font[:], mem[:0x50])
	assert.Equal(t, make([]byte, 0x200-0x50), mem[0x50:0x200])
	assert.Equal(t, words(0xA000, 0xD005, 0x6A42, 0x1206), mem[0x200:0x208])
}

func TestMachine_TimersDriveAudio(t *testing.T) {
	m, _, _ := newMachine(t, 0x1200)
	g := &fakeGate{}
	m.AttachAudio(g)
	m.EnableAudio()

	for i := 0; i < 60; i++ {
		assert.NoError(t, m.StepFrame())
	}
	// ST starts at 60: frames leaving 59..1 play, the frame reaching 0 does not
	assert.Equal(t, 59, g.plays)
	assert.Equal(t, byte(0), m.Registers().ST)
	assert.Equal(t, byte(0), m.Registers().DT)

	assert.NoError(t, m.StepFrame())
	assert.Equal(t, 59, g.plays)
	assert.Equal(t, uint64(61), m.Frames())
}

func TestMachine_AudioDisabledStaysSilent(t *testing.T) {
	m, _, _ := newMachine(t, 0x1200)
	g := &fakeGate{}
	m.AttachAudio(g)
	assert.False(t, m.AudioEnabled())
	for i := 0; i < 10; i++ {
		assert.NoError(t, m.StepFrame())
	}
	assert.Equal(t, 0, g.plays)
	assert.Equal(t, byte(50), m.Registers().ST)
}

func TestMachine_UnknownOpcodeIsFatal(t *testing.T) {
	m, rec, p := newMachine(t, 0x6001, 0xF0FF)

	err := m.StepFrame()
	var oe *cpu.OpcodeError
	if !errors.As(err, &oe) {
		t.Fatalf("expected OpcodeError, got %v", err)
	}
	assert.Equal(t, uint16(0xF0FF), oe.Opcode)
	assert.Equal(t, uint16(0x202), oe.PC)
	assert.Equal(t, 1, rec.Count(diag.Fatal))
	assert.Equal(t, cpu.Halted, m.State())
	assert.Equal(t, 0, p.calls)
	assert.Equal(t, byte(60), m.Registers().DT, "timers must not tick on a fatal frame")

	if err := m.StepFrame(); !errors.Is(err, cpu.ErrHalted) {
		t.Fatalf("second frame: got %v want ErrHalted", err)
	}
	assert.Equal(t, 1, rec.Count(diag.Fatal))

	m.Reset()
	assert.Equal(t, cpu.Running, m.State())
}

func TestMachine_KeyWaitAcrossFrames(t *testing.T) {
	m, _, _ := newMachine(t, 0xF30A, 0x6401, 0x1204)
	assert.NoError(t, m.StepFrame())
	assert.Equal(t, cpu.AwaitingKey, m.State())

	m.PressKey(1, 7) // second player: ignored
	m.PressKey(0, 16)
	assert.NoError(t, m.StepFrame())
	assert.Equal(t, cpu.AwaitingKey, m.State())
	assert.Equal(t, byte(58), m.Registers().DT, "timers keep running while waiting")

	m.PressKey(0, 7)
	assert.NoError(t, m.StepFrame())
	r := m.Registers()
	assert.Equal(t, byte(7), r.V[3])
	assert.Equal(t, byte(1), r.V[4])
	assert.Equal(t, cpu.Running, m.State())
}

func TestMachine_AudioEffects(t *testing.T) {
	m := New(Config{Seed: 1, SoundEffects: []string{"beep.wav", "boop.mp3"}, AudioEnabled: true})
	rec := &diag.Recorder{}
	m.SetSink(rec)
	g := &fakeGate{}
	m.AttachAudio(g)
	assert.Equal(t, []string{"beep.wav"}, g.opened)

	m.SetAudioEffect(2)
	m.SetAudioEffect(-1)
	assert.Equal(t, 2, rec.Count(diag.Warning))
	assert.Equal(t, 0, m.AudioEffect())

	m.SetAudioEffect(0)
	assert.Len(t, g.opened, 1)

	m.SetAudioEffect(1)
	assert.Equal(t, []string{"beep.wav", "boop.mp3"}, g.opened)
	assert.Equal(t, 1, m.AudioEffect())

	m.DisableAudio()
	assert.Equal(t, 1, g.closes)
	assert.False(t, m.AudioEnabled())

	m.SetAudioEffect(0) // remembered, opened on enable
	assert.Len(t, g.opened, 2)
	m.EnableAudio()
	assert.Equal(t, "beep.wav", g.opened[len(g.opened)-1])

	m.Detach()
	assert.Equal(t, 2, g.closes)
	assert.False(t, m.AudioEnabled())
	m.EnableAudio()
	assert.False(t, m.AudioEnabled())
}

func TestMachine_AudioOpenFailureReported(t *testing.T) {
	m := New(Config{Seed: 1, SoundEffects: []string{"broken.wav"}, AudioEnabled: true})
	rec := &diag.Recorder{}
	m.SetSink(rec)
	m.AttachAudio(&fakeGate{fail: true})
	assert.Equal(t, 1, rec.Count(diag.Error))
}

func TestMachine_SaveLoadState(t *testing.T) {
	m, _, _ := newMachine(t, 0x6A12, 0xA300, 0xFA33, 0x2210, 0x0000, 0x0000, 0x0000, 0x0000, 0x1210)
	m.PressKey(0, 0xE)
	assert.NoError(t, m.StepFrame())
	saved := m.SaveState()
	want := m.Registers()
	assert.Len(t, saved, snapshot.Size)

	m.Reset()
	m.bus.Write(0x300, 0)
	assert.NoError(t, m.LoadState(saved))
	assert.Equal(t, want, m.Registers())
	assert.Equal(t, byte(1), m.bus.Read(0x301))
	assert.True(t, m.keys.Pressed(0xE))
	assert.Equal(t, saved, m.SaveState())
}

func TestMachine_LoadStateErrorsLeaveMachine(t *testing.T) {
	m, _, _ := newMachine(t, 0x6A12, 0x1202)
	assert.NoError(t, m.StepFrame())
	before := m.SaveState()

	err := m.LoadState([]byte("C8ST"))
	if !errors.Is(err, snapshot.ErrCorrupt) {
		t.Fatalf("got %v want ErrCorrupt", err)
	}
	assert.Equal(t, before, m.SaveState())
}

func TestMachine_LoadLegacyStateKeepsSoundTimer(t *testing.T) {
	m, _, _ := newMachine(t, 0x1200)
	s := m.snapshotState()
	s.DT = 9
	s.PC = 0x234
	legacy := snapshot.EncodeLegacy(&s)

	assert.NoError(t, m.StepFrame()) // ST 60 -> 59
	assert.NoError(t, m.LoadState(legacy))
	r := m.Registers()
	assert.Equal(t, byte(9), r.DT)
	assert.Equal(t, byte(59), r.ST)
	assert.Equal(t, uint16(0x234), r.PC)
}

func TestMachine_LoadStateResumesWait(t *testing.T) {
	m, _, _ := newMachine(t, 0x1200)
	saved := m.SaveState()
	assert.NoError(t, m.LoadROM(words(0xF00A)))
	assert.NoError(t, m.StepFrame())
	assert.Equal(t, cpu.AwaitingKey, m.State())
	assert.NoError(t, m.LoadState(saved))
	assert.Equal(t, cpu.Running, m.State())
}

func TestMachine_StateFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slot0.c8st")
	m, _, _ := newMachine(t, 0x6B33, 0x1202)
	assert.NoError(t, m.StepFrame())
	assert.NoError(t, m.SaveStateToFile(path))

	n, _, _ := newMachine(t)
	assert.NoError(t, n.LoadStateFromFile(path))
	assert.Equal(t, m.Registers(), n.Registers())
	assert.Error(t, n.LoadStateFromFile(filepath.Join(dir, "missing")))
}

func TestMachine_LoadROMFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pong.ch8")
	assert.NoError(t, os.WriteFile(path, words(0x6007, 0x1202), 0o644))

	m := New(Config{Seed: 1, AutoProfile: true})
	m.SetLogger(log.NewTestLogger(t))
	rec := &diag.Recorder{}
	m.SetSink(rec)

	// leftovers from a longer program must not survive a file load
	assert.NoError(t, m.LoadROM(words(0x1111, 0x2222, 0x3333)))
	assert.NoError(t, m.LoadROMFromFile(path))
	assert.Equal(t, path, m.ROMPath())
	assert.Equal(t, "pong", m.ROMInfo().Name)
	assert.Equal(t, 540, m.InstructionsPerSecond())
	assert.Equal(t, byte(0), m.bus.Read(0x204))

	assert.NoError(t, m.StepFrame())
	assert.Equal(t, byte(7), m.Registers().V[0])

	err := m.LoadROMFromFile(filepath.Join(dir, "missing.ch8"))
	if !errors.Is(err, rom.ErrUnreadable) {
		t.Fatalf("got %v want ErrUnreadable", err)
	}
	assert.Equal(t, 1, rec.Count(diag.Error))
	assert.Equal(t, path, m.ROMPath())

	big := filepath.Join(dir, "big.ch8")
	assert.NoError(t, os.WriteFile(big, make([]byte, bus.MaxROMSize+2), 0o644))
	assert.Error(t, m.LoadROMFromFile(big))
	assert.Equal(t, 2, rec.Count(diag.Error))
	assert.Equal(t, byte(0x60), m.bus.Read(0x200))
}

func TestMachine_TraceLogging(t *testing.T) {
	m := New(Config{Seed: 1, Trace: true})
	m.SetLogger(log.NewTestLogger(t))
	assert.NoError(t, m.LoadROM(words(0x6001, 0x1202)))
	assert.NoError(t, m.StepFrameNoRender())
	assert.Equal(t, byte(1), m.Registers().V[0])
}

func TestMachine_FramebufferViews(t *testing.T) {
	m, _, _ := newMachine(t, 0xA000, 0xD001, 0x1204)
	assert.NoError(t, m.StepFrameNoRender())

	fb := m.Framebuffer()
	assert.Len(t, fb, display.PackedSize)
	assert.Equal(t, byte(0xF0), fb[0])

	rgba := m.FramebufferRGBA(display.Palettes[0])
	assert.Len(t, rgba, display.Size*4)
	assert.Equal(t, display.Palettes[0].On.R, rgba[0])
	assert.Equal(t, display.Palettes[0].Off.R, rgba[4*4])
}

func TestLookupProfile(t *testing.T) {
	p, ok := LookupProfile(rom.Info{Name: "Pong (1 player)"})
	assert.True(t, ok)
	assert.Equal(t, 540, p.InstructionsPerSecond)

	p, ok = LookupProfile(rom.Info{Name: "IBM Logo"})
	assert.True(t, ok)
	assert.Equal(t, 600, p.InstructionsPerSecond)

	_, ok = LookupProfile(rom.Info{Name: "my homebrew"})
	assert.False(t, ok)
	_, ok = LookupProfile(rom.Info{})
	assert.False(t, ok)
}
