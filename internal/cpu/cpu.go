package cpu

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
)

const (
	NumRegisters = 16
	StackDepth   = 16
	// TimerReset is the value both timers hold after Reset.
	TimerReset = 60
)

var (
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrHalted        = errors.New("cpu halted")
)

// OpcodeError reports an instruction word the interpreter does not implement.
type OpcodeError struct {
	Opcode uint16
	PC     uint16 // address the word was fetched from
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode %04X at %03X", e.Opcode, e.PC)
}

func (e *OpcodeError) Unwrap() error { return ErrUnknownOpcode }

// RunState is the scheduler-visible execution state.
type RunState int

const (
	Running RunState = iota
	AwaitingKey
	Halted
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "running"
	case AwaitingKey:
		return "awaiting key"
	case Halted:
		return "halted"
	}
	return fmt.Sprintf("RunState(%d)", int(s))
}

// CPU is the CHIP-8 register file plus the decoder/executor.
type CPU struct {
	V     [NumRegisters]byte // VF doubles as carry/borrow/collision flag
	I     uint16
	PC    uint16
	SP    byte
	Stack [StackDepth]uint16

	DT byte // delay timer
	ST byte // sound timer

	state RunState
	// Fx0A bookkeeping: destination register and the latch sequence when the wait began
	waitReg byte
	waitSeq uint64

	bus  *bus.Bus
	disp *display.Display
	keys *keypad.Keypad
	rng  *rand.Rand
}

// New wires a CPU to its memory, framebuffer and key latch. rng feeds Cxkk; nil seeds from 1.
func New(b *bus.Bus, d *display.Display, k *keypad.Keypad, rng *rand.Rand) *CPU {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	c := &CPU{bus: b, disp: d, keys: k, rng: rng}
	c.Reset()
	return c
}

// Reset clears registers and stack and sets PC to the ROM entry point.
// Memory and framebuffer are owned by the machine and reset there.
func (c *CPU) Reset() {
	c.V = [NumRegisters]byte{}
	c.Stack = [StackDepth]uint16{}
	c.I = 0
	c.PC = bus.ROMStart
	c.SP = 0
	c.DT, c.ST = TimerReset, TimerReset
	c.state = Running
	c.waitReg = 0
	c.waitSeq = 0
}

// SetRand replaces the random source used by Cxkk.
func (c *CPU) SetRand(rng *rand.Rand) {
	if rng != nil {
		c.rng = rng
	}
}

func (c *CPU) State() RunState { return c.state }

// Halt stops execution; every later Step returns ErrHalted until Reset.
func (c *CPU) Halt() { c.state = Halted }

// Resume clears a pending key wait or halt, used after restoring a save state.
func (c *CPU) Resume() { c.state = Running }

// WaitRegister returns the register an in-progress Fx0A will write.
func (c *CPU) WaitRegister() (byte, bool) {
	return c.waitReg, c.state == AwaitingKey
}

// Step executes at most one instruction.
// While a key wait is pending it only checks the latch; when the latch has
// changed the wait completes and the next instruction runs in the same call.
func (c *CPU) Step() error {
	switch c.state {
	case Halted:
		return ErrHalted
	case AwaitingKey:
		if !c.pollKeyWait() {
			return nil
		}
	}

	pc := c.PC
	op := c.bus.Fetch16(pc)
	c.PC = (c.PC + 2) & bus.AddrMask
	if err := c.Execute(op); err != nil {
		c.state = Halted
		return fmt.Errorf("step at %03X: %w", pc, err)
	}
	return nil
}

// pollKeyWait finishes Fx0A with the first key that changed after the wait began.
func (c *CPU) pollKeyWait() bool {
	key, changed := c.keys.ChangeSince(c.waitSeq)
	if !changed {
		return false
	}
	c.V[c.waitReg] = key
	c.state = Running
	return true
}

// UpdateTimers performs the 60 Hz countdown. It reports whether the sound
// timer is still running after the decrement.
func (c *CPU) UpdateTimers() (sound bool) {
	if c.DT > 0 {
		c.DT--
	}
	if c.ST > 0 {
		c.ST--
		return c.ST > 0
	}
	return false
}

func (c *CPU) push(v uint16) {
	// no overflow check; the pointer wraps within the 16 slots
	c.SP = (c.SP + 1) & (StackDepth - 1)
	c.Stack[c.SP] = v
}

func (c *CPU) pop() uint16 {
	v := c.Stack[c.SP&(StackDepth-1)]
	c.SP = (c.SP - 1) & (StackDepth - 1)
	return v
}
