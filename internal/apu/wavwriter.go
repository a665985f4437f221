package apu

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVWriter collects mono samples and writes them as a 16-bit PCM wav file on Close.
type WAVWriter struct {
	path       string
	sampleRate int
	data       []int
}

func NewWAVWriter(path string, sampleRate int) *WAVWriter {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &WAVWriter{path: path, sampleRate: sampleRate}
}

// Capture drains everything queued in g. Silence is not inserted for frames
// without sound; call Pad for that.
func (w *WAVWriter) Capture(g *Gate) {
	for _, s := range g.PullSamples(ringSize) {
		w.data = append(w.data, int(s))
	}
}

// Pad appends n samples of silence.
func (w *WAVWriter) Pad(n int) {
	for i := 0; i < n; i++ {
		w.data = append(w.data, 0)
	}
}

// Samples returns the number of samples collected.
func (w *WAVWriter) Samples() int { return len(w.data) }

func (w *WAVWriter) Close() error {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, w.sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: w.sampleRate},
		Data:           w.data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}
