package term

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/retroenv/retrogolib/log"
)

// ErrQuit is returned by Run when the user typed Ctrl-C or Ctrl-D.
var ErrQuit = errors.New("quit")

// Config controls the terminal frontend.
type Config struct {
	HoldFrames int // frames a typed key stays pressed
	Logger     *log.Logger
}

// Run puts stdin into raw mode and drives m at 60 frames per second until ctx
// is done, the user quits or the machine stops with an error.
func Run(ctx context.Context, m *emu.Machine, cfg Config) error {
	raw, err := EnterRaw(int(os.Stdin.Fd()))
	if err != nil {
		return err
	}
	defer func() {
		if err := raw.Restore(); err != nil && cfg.Logger != nil {
			cfg.Logger.Error("Restoring terminal failed", log.Err(err))
		}
	}()

	screen := NewScreen(os.Stdout)
	if err := screen.Open(); err != nil {
		return err
	}
	defer func() { _ = screen.Close() }()

	return Loop(ctx, m, os.Stdin, screen, NewInput(m, cfg.HoldFrames))
}

// Loop is the frame loop behind Run, reading key bytes from r.
func Loop(ctx context.Context, m *emu.Machine, r io.Reader, screen *Screen, in *Input) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.SetPresenter(screen)
	defer m.SetPresenter(nil)
	keys := make(chan []byte, 16)
	go readKeys(ctx, r, keys)

	ticker := time.NewTicker(time.Second / emu.FrameRate)
	defer ticker.Stop()
	defer in.ReleaseAll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			if in.Feed(b) {
				return ErrQuit
			}
		case <-ticker.C:
			in.Tick()
			if err := m.StepFrame(); err != nil {
				return err
			}
			if err := screen.Err(); err != nil {
				return err
			}
		}
	}
}

// readKeys forwards chunks read from r until ctx is done or r fails. A read
// blocked on the terminal outlives Loop; the process exit ends it.
func readKeys(ctx context.Context, r io.Reader, out chan<- []byte) {
	defer close(out)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			b := make([]byte, n)
			copy(b, buf[:n])
			select {
			case out <- b:
			case <-ctx.Done():
				return
			}
		}
		if err != nil || ctx.Err() != nil {
			return
		}
	}
}
