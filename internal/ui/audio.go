package ui

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/retroenv/retrogolib/log"
)

// startAudio streams the gate's PCM through an ebiten player. The gate
// already produces 16-bit little-endian stereo, which is what the player reads.
func (a *App) startAudio() {
	if a.gate == nil {
		return
	}
	if a.audioCtx == nil {
		a.audioCtx = audio.CurrentContext()
		if a.audioCtx == nil {
			a.audioCtx = audio.NewContext(a.gate.SampleRate())
		}
	}
	p, err := a.audioCtx.NewPlayer(a.gate)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("Audio unavailable", log.Err(err))
		}
		return
	}
	a.audioPlayer = p
	a.applyPlayerBufferSize()
	a.gate.SetMuted(a.cfg.Muted)
	a.audioPlayer.Play()
}

func (a *App) stopAudio() {
	if a.audioPlayer != nil {
		_ = a.audioPlayer.Close()
		a.audioPlayer = nil
	}
}

// applyPlayerBufferSize caps the player's buffer at two frames (~33ms).
func (a *App) applyPlayerBufferSize() {
	if a.audioPlayer == nil {
		return
	}
	a.audioPlayer.SetBufferSize(2 * time.Second / 60)
}

func (a *App) setMuted(on bool) {
	a.cfg.Muted = on
	if a.gate != nil {
		a.gate.SetMuted(on)
	}
	if on {
		a.toast("Audio muted")
	} else {
		a.toast("Audio on")
	}
}
