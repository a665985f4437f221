package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/apu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/diag"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/statsview"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/term"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/ui"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

type CLIFlags struct {
	ROMPath     string
	IPS         int
	IPSSet      bool // -ips given explicitly, wins over ROM profiles
	Seed        int64
	Scale       int
	Title       string
	Palette     string
	ROMsDir     string
	StateDir    string
	StateFile   string // save state to load after the ROM
	SoundFX     string // comma separated .wav/.mp3 effect files
	SoundIndex  int
	Mute        bool
	AutoProfile bool
	Trace       bool
	Debug       bool
	Quiet       bool
	Stats       string // statsview listen address

	// terminal frontend
	Term bool
	Hold int

	// headless
	Headless bool
	Frames   int
	PNGOut   string
	WAVOut   string
	Expect   string // expected framebuffer CRC32 hex (e.g., "1a2b3c4d")
	ExpectOn string // "packed" or "rgba"
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.ch8)")
	flag.IntVar(&f.IPS, "ips", emu.DefaultInstructionsPerSecond, "instructions per second")
	flag.Int64Var(&f.Seed, "seed", 0, "random seed for Cxkk, 0 seeds from the clock")
	flag.IntVar(&f.Scale, "scale", 10, "window scale")
	flag.StringVar(&f.Title, "title", "chip8", "window title")
	flag.StringVar(&f.Palette, "palette", "", "display palette name")
	flag.StringVar(&f.ROMsDir, "romdir", "roms", "directory listed by the ROM menu")
	flag.StringVar(&f.StateDir, "statedir", "", "directory for save slots (default: next to the ROM)")
	flag.StringVar(&f.StateFile, "state", "", "load this save state after the ROM")
	flag.StringVar(&f.SoundFX, "sfx", "", "comma separated sound effect files (.wav, .mp3)")
	flag.IntVar(&f.SoundIndex, "sfxindex", 0, "initial sound effect, -1 for the built-in beep")
	flag.BoolVar(&f.Mute, "mute", false, "start muted")
	flag.BoolVar(&f.AutoProfile, "autoprofile", true, "apply per-ROM speed and palette")
	flag.BoolVar(&f.Trace, "trace", false, "CPU trace log (needs -debug)")
	flag.BoolVar(&f.Debug, "debug", false, "enable debug logging")
	flag.BoolVar(&f.Quiet, "quiet", false, "only log errors")
	flag.StringVar(&f.Stats, "statsview", "", "serve runtime stats on this address (needs -tags statsview)")

	flag.BoolVar(&f.Term, "term", false, "run in the terminal instead of a window")
	flag.IntVar(&f.Hold, "hold", term.DefaultHoldFrames, "frames a typed key stays pressed in terminal mode")

	// headless options
	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.WAVOut, "wavout", "", "write the sound output of a headless run to a wav file")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.StringVar(&f.ExpectOn, "expecton", "packed", "framebuffer the CRC32 is taken over: packed or rgba")
	flag.Parse()
	flag.Visit(func(fl *flag.Flag) {
		if fl.Name == "ips" {
			f.IPSSet = true
		}
	})
	return f
}

func soundEffects(list string) []string {
	var out []string
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runHeadless(logger *log.Logger, m *emu.Machine, gate *apu.Gate, f CLIFlags, palette display.Palette) error {
	frames := f.Frames
	if frames <= 0 {
		frames = 1
	}
	var wav *apu.WAVWriter
	if f.WAVOut != "" {
		wav = apu.NewWAVWriter(f.WAVOut, gate.SampleRate())
	}

	start := time.Now()
	var runErr error
	ran := 0
	for ; ran < frames; ran++ {
		if runErr = m.StepFrameNoRender(); runErr != nil {
			break
		}
		if wav != nil {
			before := wav.Samples()
			wav.Capture(gate)
			if wav.Samples() == before {
				wav.Pad(gate.SampleRate() / emu.FrameRate)
			}
		}
	}
	dur := time.Since(start)

	packed := m.Framebuffer()
	rgba := m.FramebufferRGBA(palette)
	crc := crc32.ChecksumIEEE(packed)
	if f.ExpectOn == "rgba" {
		crc = crc32.ChecksumIEEE(rgba)
	}
	fps := float64(ran) / dur.Seconds()

	logger.Info("Headless run finished",
		log.Int("frames", ran),
		log.String("elapsed", dur.Truncate(time.Millisecond).String()),
		log.String("fps", fmt.Sprintf("%.2f", fps)),
		log.String("fb_crc32", fmt.Sprintf("%08x", crc)))

	if f.PNGOut != "" {
		if err := saveFramePNG(rgba, display.Width, display.Height, f.PNGOut); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		logger.Info("Wrote screenshot", log.String("path", f.PNGOut))
	}
	if wav != nil {
		if err := wav.Close(); err != nil {
			return err
		}
		logger.Info("Wrote audio", log.String("path", f.WAVOut), log.Int("samples", wav.Samples()))
	}
	if runErr != nil {
		return runErr
	}

	if f.Expect != "" {
		// normalize expected hex (allow with/without 0x, upper/lowercase)
		want := strings.TrimPrefix(strings.ToLower(f.Expect), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func saveFramePNG(pix []byte, w, h int, path string) error {
	img := &image.RGBA{
		Pix:    make([]byte, len(pix)),
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}
	copy(img.Pix, pix)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func run(ctx context.Context, logger *log.Logger, f CLIFlags) error {
	if f.Stats != "" {
		statsview.Launch(f.Stats, logger)
	}

	paletteIdx := 0
	if f.Palette != "" {
		idx, ok := display.PaletteByName(f.Palette)
		if !ok {
			return fmt.Errorf("unknown palette %q", f.Palette)
		}
		paletteIdx = idx
	}

	m := emu.New(emu.Config{
		InstructionsPerSecond: f.IPS,
		Seed:                  f.Seed,
		SoundEffects:          soundEffects(f.SoundFX),
		SoundEffect:           f.SoundIndex,
		AudioEnabled:          !f.Term,
		AutoProfile:           f.AutoProfile,
		Trace:                 f.Trace,
	})
	m.SetLogger(logger)
	m.SetSink(diag.NewLogSink(logger))

	gate := apu.New(apu.DefaultSampleRate)
	m.AttachAudio(gate)
	defer m.Detach()

	if f.ROMPath != "" {
		// prefer absolute path for state/save placement consistency
		path := f.ROMPath
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if err := m.LoadROMFromFile(path); err != nil {
			return err
		}
		if f.IPSSet {
			m.SetInstructionsPerSecond(f.IPS)
		}
		if p, ok := emu.LookupProfile(m.ROMInfo()); ok && f.AutoProfile && f.Palette == "" {
			paletteIdx = p.Palette
		}
	}
	if f.StateFile != "" {
		if err := m.LoadStateFromFile(f.StateFile); err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		logger.Info("Loaded state", log.String("path", f.StateFile))
	}

	switch {
	case f.Headless:
		return runHeadless(logger, m, gate, f, display.PaletteByIndex(paletteIdx))

	case f.Term:
		err := term.Run(ctx, m, term.Config{HoldFrames: f.Hold, Logger: logger})
		if errors.Is(err, term.ErrQuit) {
			return nil
		}
		return err

	default:
		uiCfg := ui.Config{
			Title:      f.Title,
			Scale:      f.Scale,
			Palette:    paletteIdx,
			SampleRate: gate.SampleRate(),
			Muted:      f.Mute,
			ROMsDir:    f.ROMsDir,
			StateDir:   f.StateDir,
		}
		return ui.NewApp(uiCfg, m, gate, logger).Run()
	}
}

func main() {
	ctx := app.Context()
	f := parseFlags()
	logger := diag.NewLogger(f.Debug, f.Quiet)

	if err := run(ctx, logger, f); err != nil {
		// Handle context cancellation (Ctrl+C) gracefully
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Error("Emulation failed", log.Err(err))
		os.Exit(1)
	}
}
