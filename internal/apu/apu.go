package apu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

const (
	DefaultSampleRate = 48000
	// FrameRate is how often the machine calls Play while the sound timer runs.
	FrameRate = 60

	beepHz        = 440
	beepAmplitude = 32767 / 4
	ringSize      = 1 << 15 // mono samples, must be a power of two
)

var ErrFormat = errors.New("unsupported sound effect format")

// Gate turns the machine's once-per-frame "tone on" signal into PCM.
// With an effect file open, each Play queues the next 1/60 s of the effect,
// looping at the end; without one it queues a square beep.
type Gate struct {
	mu sync.Mutex

	sampleRate int
	path       string
	effect     []int16 // mono, already at sampleRate
	pos        int     // playhead into effect
	phase      int     // beep oscillator position in samples

	// output ring buffer (mono int16 samples)
	buf     []int16
	bufHead int
	bufTail int

	plays int
	muted bool
}

func New(sampleRate int) *Gate {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Gate{
		sampleRate: sampleRate,
		buf:        make([]int16, ringSize),
	}
}

func (g *Gate) SampleRate() int { return g.sampleRate }

// Open decodes a .wav or .mp3 file and makes it the current effect.
func (g *Gate) Open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open sound effect: %w", err)
	}
	defer f.Close()

	pcm, rate, err := decode(path, f)
	if err != nil {
		return fmt.Errorf("sound effect %s: %w", filepath.Base(path), err)
	}
	pcm = resample(pcm, rate, g.sampleRate)

	g.mu.Lock()
	g.path = path
	g.effect = pcm
	g.pos = 0
	g.mu.Unlock()
	return nil
}

// Close drops the current effect and any queued samples; Play falls back to the beep.
func (g *Gate) Close() {
	g.mu.Lock()
	g.path = ""
	g.effect = nil
	g.pos = 0
	g.bufHead, g.bufTail = 0, 0
	g.mu.Unlock()
}

// Path returns the open effect, or "" when the beep is in use.
func (g *Gate) Path() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.path
}

// Play queues one frame of sound.
func (g *Gate) Play() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.plays++
	n := g.sampleRate / FrameRate
	if len(g.effect) == 0 {
		half := g.sampleRate / beepHz / 2
		if half < 1 {
			half = 1
		}
		amp := int16(beepAmplitude)
		for i := 0; i < n; i++ {
			s := amp
			if (g.phase/half)&1 == 1 {
				s = -amp
			}
			g.pushSample(s)
			g.phase++
		}
		return
	}
	for i := 0; i < n; i++ {
		g.pushSample(g.effect[g.pos])
		g.pos++
		if g.pos >= len(g.effect) {
			g.pos = 0
		}
	}
}

// Plays returns how many frames Play has been called for.
func (g *Gate) Plays() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.plays
}

// SetMuted discards queued and future samples while on.
func (g *Gate) SetMuted(on bool) {
	g.mu.Lock()
	g.muted = on
	if on {
		g.bufHead, g.bufTail = 0, 0
	}
	g.mu.Unlock()
}

// Buffered returns the number of queued mono samples.
func (g *Gate) Buffered() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.available()
}

func (g *Gate) available() int {
	return (g.bufHead - g.bufTail) & (len(g.buf) - 1)
}

func (g *Gate) pushSample(s int16) {
	if g.muted {
		return
	}
	next := (g.bufHead + 1) & (len(g.buf) - 1)
	if next == g.bufTail {
		return // full, drop
	}
	g.buf[g.bufHead] = s
	g.bufHead = next
}

// PullSamples copies up to max queued samples out of the ring buffer.
func (g *Gate) PullSamples(max int) []int16 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pull(max)
}

func (g *Gate) pull(max int) []int16 {
	if max <= 0 || g.bufHead == g.bufTail {
		return nil
	}
	out := make([]int16, 0, min(max, g.available()))
	for len(out) < max && g.bufTail != g.bufHead {
		out = append(out, g.buf[g.bufTail])
		g.bufTail = (g.bufTail + 1) & (len(g.buf) - 1)
	}
	return out
}

// Read implements io.Reader as 16-bit little-endian stereo frames. When nothing
// is queued it returns silence so a streaming player never stalls.
func (g *Gate) Read(p []byte) (int, error) {
	n := len(p) &^ 3
	if n == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	g.mu.Lock()
	samples := g.pull(n / 4)
	g.mu.Unlock()

	i := 0
	for _, s := range samples {
		binary.LittleEndian.PutUint16(p[i:], uint16(s))
		binary.LittleEndian.PutUint16(p[i+2:], uint16(s))
		i += 4
	}
	for ; i < n; i++ {
		p[i] = 0
	}
	return n, nil
}

func decode(path string, r io.ReadSeeker) ([]int16, int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(r)
	case ".mp3":
		return decodeMP3(r)
	}
	return nil, 0, fmt.Errorf("%w: %q", ErrFormat, filepath.Ext(path))
}

// decodeWAV keeps the first channel only.
func decodeWAV(r io.ReadSeeker) ([]int16, int, error) {
	dec := wav.NewDecoder(r)
	if dec == nil || !dec.IsValidFile() {
		return nil, 0, errors.New("wav: not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("wav: %w", err)
	}
	chans := int(dec.NumChans)
	if chans < 1 {
		chans = 1
	}
	depth := int(dec.BitDepth)
	out := make([]int16, 0, len(buf.Data)/chans)
	for i := 0; i < len(buf.Data); i += chans {
		out = append(out, toInt16(buf.Data[i], depth))
	}
	return out, int(dec.SampleRate), nil
}

func toInt16(v, depth int) int16 {
	switch {
	case depth == 8: // unsigned
		return int16((v - 128) << 8)
	case depth > 16:
		return int16(v >> (depth - 16))
	case depth > 0 && depth < 16:
		return int16(v << (16 - depth))
	}
	return int16(v)
}

// decodeMP3 keeps the left channel; go-mp3 always yields 16-bit little-endian stereo.
func decodeMP3(r io.Reader) ([]int16, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3: %w", err)
	}
	out, err := leftChannel(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3: %w", err)
	}
	return out, dec.SampleRate(), nil
}

// leftChannel reads 16-bit little-endian stereo frames and keeps the left
// samples. Partial frames are carried over to the next read; a trailing
// partial frame at EOF is dropped.
func leftChannel(r io.Reader) ([]int16, error) {
	var out []int16
	chunk := make([]byte, 4096)
	carry := 0
	for {
		n, err := r.Read(chunk[carry:])
		n += carry
		whole := n &^ 3
		for i := 0; i < whole; i += 4 {
			out = append(out, int16(binary.LittleEndian.Uint16(chunk[i:])))
		}
		carry = copy(chunk, chunk[whole:n])
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// resample converts between sample rates by nearest neighbour.
func resample(in []int16, from, to int) []int16 {
	if from <= 0 || from == to || len(in) == 0 {
		return in
	}
	n := int(int64(len(in)) * int64(to) / int64(from))
	if n < 1 {
		n = 1
	}
	out := make([]int16, n)
	for i := range out {
		out[i] = in[int64(i)*int64(from)/int64(to)]
	}
	return out
}
