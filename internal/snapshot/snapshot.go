// Package snapshot encodes machine state in a fixed binary field order.
//
// A v1 snapshot starts with the magic "C8ST" and a version byte, followed by
// framebuffer, key latch, memory, stack, registers, delay timer, sound timer,
// I, PC and SP. Multi-byte values are little-endian.
//
// Headerless legacy snapshots store the delay timer twice where v1 stores
// delay and sound; they are still accepted by Decode.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	Magic   = "C8ST"
	Version = 1

	headerSize = len(Magic) + 1
)

var (
	ErrCorrupt = errors.New("corrupt snapshot")
	ErrVersion = errors.New("unsupported snapshot version")
)

// Format identifies which layout Decode found.
type Format int

const (
	FormatV1 Format = iota
	FormatLegacy
)

func (f Format) String() string {
	if f == FormatLegacy {
		return "legacy"
	}
	return fmt.Sprintf("v%d", Version)
}

// State is everything a snapshot carries.
type State struct {
	Framebuffer [2048]byte
	Keys        [16]bool
	Memory      [4096]byte
	Stack       [16]uint16
	V           [16]byte
	DT          byte
	ST          byte
	I           uint16
	PC          uint16
	SP          byte
}

// body mirrors State in wire order; legacy differs only in the second timer byte.
type body struct {
	Framebuffer [2048]byte
	Keys        [16]bool
	Memory      [4096]byte
	Stack       [16]uint16
	V           [16]byte
	DT          byte
	Timer2      byte // ST in v1, a second copy of DT in legacy
	I           uint16
	PC          uint16
	SP          byte
}

// BodySize is the length of the field section, which is also the full length of a legacy snapshot.
var BodySize = binary.Size(body{})

// Size is the length of an encoded v1 snapshot.
var Size = headerSize + BodySize

// Encode returns the v1 encoding of s.
func Encode(s *State) []byte {
	var buf bytes.Buffer
	buf.Grow(Size)
	buf.WriteString(Magic)
	buf.WriteByte(Version)
	b := body{
		Framebuffer: s.Framebuffer,
		Keys:        s.Keys,
		Memory:      s.Memory,
		Stack:       s.Stack,
		V:           s.V,
		DT:          s.DT,
		Timer2:      s.ST,
		I:           s.I,
		PC:          s.PC,
		SP:          s.SP,
	}
	// writes into a bytes.Buffer cannot fail
	_ = binary.Write(&buf, binary.LittleEndian, &b)
	return buf.Bytes()
}

// EncodeLegacy writes the headerless layout with the delay timer in both timer slots.
func EncodeLegacy(s *State) []byte {
	var buf bytes.Buffer
	buf.Grow(BodySize)
	b := body{
		Framebuffer: s.Framebuffer,
		Keys:        s.Keys,
		Memory:      s.Memory,
		Stack:       s.Stack,
		V:           s.V,
		DT:          s.DT,
		Timer2:      s.DT,
		I:           s.I,
		PC:          s.PC,
		SP:          s.SP,
	}
	_ = binary.Write(&buf, binary.LittleEndian, &b)
	return buf.Bytes()
}

// Decode fills s from data. On error s is left untouched. A legacy snapshot
// restores the delay timer from its first copy and keeps s.ST as it was.
func Decode(data []byte, s *State) (Format, error) {
	switch {
	case len(data) == BodySize && !bytes.HasPrefix(data, []byte(Magic)):
		b, err := readBody(data)
		if err != nil {
			return FormatLegacy, err
		}
		st := s.ST
		b.apply(s)
		s.ST = st
		return FormatLegacy, nil

	case len(data) >= headerSize && string(data[:len(Magic)]) == Magic:
		if v := data[len(Magic)]; v != Version {
			return FormatV1, fmt.Errorf("%w: %d", ErrVersion, v)
		}
		if len(data) != Size {
			return FormatV1, fmt.Errorf("%w: %d bytes, want %d", ErrCorrupt, len(data), Size)
		}
		b, err := readBody(data[headerSize:])
		if err != nil {
			return FormatV1, err
		}
		b.apply(s)
		return FormatV1, nil
	}
	return FormatV1, fmt.Errorf("%w: unrecognised layout of %d bytes", ErrCorrupt, len(data))
}

func readBody(data []byte) (*body, error) {
	var b body
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &b, nil
}

func (b *body) apply(s *State) {
	s.Framebuffer = b.Framebuffer
	s.Keys = b.Keys
	s.Memory = b.Memory
	s.Stack = b.Stack
	s.V = b.V
	s.DT = b.DT
	s.ST = b.Timer2
	s.I = b.I
	s.PC = b.PC
	s.SP = b.SP
}
