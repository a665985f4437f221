package snapshot

import (
	"bytes"
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func sampleState() *State {
	s := &State{
		DT: 0x12,
		ST: 0x34,
		I:  0x0ABC,
		PC: 0x0246,
		SP: 3,
	}
	for i := range s.Framebuffer {
		if i%3 == 0 {
			s.Framebuffer[i] = 0xFF
		}
	}
	for i := range s.Memory {
		s.Memory[i] = byte(i * 7)
	}
	s.Keys[4], s.Keys[15] = true, true
	s.Stack[1], s.Stack[2], s.Stack[3] = 0x202, 0x31E, 0xFFE
	for i := range s.V {
		s.V[i] = byte(0xA0 + i)
	}
	return s
}

func TestSizes(t *testing.T) {
	assert.Equal(t, 2048+16+4096+32+16+1+1+2+2+1, BodySize)
	assert.Equal(t, BodySize+5, Size)
}

func TestRoundTripV1(t *testing.T) {
	in := sampleState()
	data := Encode(in)
	assert.Len(t, data, Size)
	assert.Equal(t, Magic, string(data[:4]))
	assert.Equal(t, byte(Version), data[4])

	var out State
	format, err := Decode(data, &out)
	assert.NoError(t, err)
	assert.Equal(t, FormatV1, format)
	assert.Equal(t, *in, out)

	again := Encode(&out)
	assert.True(t, bytes.Equal(data, again), "re-encoding is not bit-identical")
}

func TestFieldOrder(t *testing.T) {
	s := &State{DT: 0x11, ST: 0x22, I: 0x0123, PC: 0x0456, SP: 0x07}
	s.Framebuffer[0] = 0xFF
	s.Keys[0] = true
	s.Memory[0] = 0x99
	s.Stack[0] = 0xBEEF
	s.V[0] = 0x55
	data := Encode(s)[headerSize:]

	assert.Equal(t, byte(0xFF), data[0])
	assert.Equal(t, byte(1), data[2048])
	assert.Equal(t, byte(0x99), data[2048+16])
	off := 2048 + 16 + 4096
	assert.Equal(t, []byte{0xEF, 0xBE}, data[off:off+2])
	off += 32
	assert.Equal(t, byte(0x55), data[off])
	off += 16
	assert.Equal(t, []byte{0x11, 0x22, 0x23, 0x01, 0x56, 0x04, 0x07}, data[off:])
}

func TestDecodeLegacy(t *testing.T) {
	in := sampleState()
	data := EncodeLegacy(in)
	assert.Len(t, data, BodySize)

	out := State{ST: 0x77}
	format, err := Decode(data, &out)
	assert.NoError(t, err)
	assert.Equal(t, FormatLegacy, format)
	assert.Equal(t, in.DT, out.DT)
	assert.Equal(t, byte(0x77), out.ST, "legacy load must keep the sound timer")
	assert.Equal(t, in.Memory, out.Memory)
	assert.Equal(t, in.PC, out.PC)
	assert.Equal(t, in.SP, out.SP)
}

func TestDecodeErrors(t *testing.T) {
	good := Encode(sampleState())

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrCorrupt},
		{"truncated v1", good[:len(good)-1], ErrCorrupt},
		{"trailing bytes", append(append([]byte{}, good...), 0), ErrCorrupt},
		{"header only", good[:headerSize], ErrCorrupt},
		{"bad version", append([]byte(Magic), 2), ErrVersion},
		{"random length", make([]byte, 100), ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := *sampleState()
			before := out
			_, err := Decode(tt.data, &out)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v want %v", err, tt.want)
			}
			assert.Equal(t, before, out)
		})
	}
}
