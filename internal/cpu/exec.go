package cpu

import (
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
)

// opcode is a raw instruction word with its operand fields.
type opcode uint16

func (o opcode) x() byte     { return byte(o>>8) & 0xF }
func (o opcode) y() byte     { return byte(o>>4) & 0xF }
func (o opcode) n() byte     { return byte(o) & 0xF }
func (o opcode) kk() byte    { return byte(o) }
func (o opcode) nnn() uint16 { return uint16(o) & 0x0FFF }

type handler func(c *CPU, op opcode) error

// families is indexed by the high nibble of the instruction.
var families = [16]handler{
	0x0: (*CPU).op0,
	0x1: (*CPU).opJP,
	0x2: (*CPU).opCALL,
	0x3: (*CPU).opSEByte,
	0x4: (*CPU).opSNEByte,
	0x5: (*CPU).opSEReg,
	0x6: (*CPU).opLDByte,
	0x7: (*CPU).opADDByte,
	0x8: (*CPU).op8,
	0x9: (*CPU).opSNEReg,
	0xA: (*CPU).opLDI,
	0xB: (*CPU).opJPV0,
	0xC: (*CPU).opRND,
	0xD: (*CPU).opDRW,
	0xE: (*CPU).opE,
	0xF: (*CPU).opF,
}

// Execute performs a single already-fetched instruction. PC must already point past it.
// Unknown words return an *OpcodeError and leave the machine untouched.
func (c *CPU) Execute(word uint16) error {
	op := opcode(word)
	return families[word>>12](c, op)
}

func (c *CPU) unknown(op opcode) error {
	return &OpcodeError{Opcode: uint16(op), PC: (c.PC - 2) & bus.AddrMask}
}

func (c *CPU) skipIf(cond bool) {
	if cond {
		c.PC = (c.PC + 2) & bus.AddrMask
	}
}

func (c *CPU) op0(op opcode) error {
	switch op {
	case 0x00E0: // CLS
		c.disp.Clear()
	case 0x00EE: // RET
		c.PC = c.pop() & bus.AddrMask
	default:
		return c.unknown(op)
	}
	return nil
}

// 1nnn
func (c *CPU) opJP(op opcode) error {
	c.PC = op.nnn()
	return nil
}

// 2nnn
func (c *CPU) opCALL(op opcode) error {
	c.push(c.PC)
	c.PC = op.nnn()
	return nil
}

// 3xkk
func (c *CPU) opSEByte(op opcode) error {
	c.skipIf(c.V[op.x()] == op.kk())
	return nil
}

// 4xkk
func (c *CPU) opSNEByte(op opcode) error {
	c.skipIf(c.V[op.x()] != op.kk())
	return nil
}

// 5xy0; the low nibble is not decoded.
func (c *CPU) opSEReg(op opcode) error {
	c.skipIf(c.V[op.x()] == c.V[op.y()])
	return nil
}

// 6xkk
func (c *CPU) opLDByte(op opcode) error {
	c.V[op.x()] = op.kk()
	return nil
}

// 7xkk, no carry
func (c *CPU) opADDByte(op opcode) error {
	c.V[op.x()] += op.kk()
	return nil
}

// op8 covers the register-register ALU group. VF is written before Vx so
// that x == 0xF ends with the result, not the flag.
func (c *CPU) op8(op opcode) error {
	x, y := op.x(), op.y()
	vx, vy := c.V[x], c.V[y]
	switch op.n() {
	case 0x0: // LD Vx, Vy
		c.V[x] = vy
	case 0x1: // OR
		c.V[x] = vx | vy
	case 0x2: // AND
		c.V[x] = vx & vy
	case 0x3: // XOR
		c.V[x] = vx ^ vy
	case 0x4: // ADD, VF = carry
		c.V[0xF] = boolToByte(uint16(vx)+uint16(vy) > 0xFF)
		c.V[x] = vx + vy
	case 0x5: // SUB, VF = not borrow
		c.V[0xF] = boolToByte(vy <= vx)
		c.V[x] = vx - vy
	case 0x6: // SHR, VF = bit shifted out
		c.V[0xF] = vx & 0x01
		c.V[x] = vx >> 1
	case 0x7: // SUBN, VF = not borrow
		c.V[0xF] = boolToByte(vy >= vx)
		c.V[x] = vy - vx
	case 0xE: // SHL, VF = bit shifted out
		c.V[0xF] = vx >> 7
		c.V[x] = vx << 1
	default:
		return c.unknown(op)
	}
	return nil
}

// 9xy0; the low nibble is not decoded.
func (c *CPU) opSNEReg(op opcode) error {
	c.skipIf(c.V[op.x()] != c.V[op.y()])
	return nil
}

// Annn
func (c *CPU) opLDI(op opcode) error {
	c.I = op.nnn()
	return nil
}

// Bnnn
func (c *CPU) opJPV0(op opcode) error {
	c.PC = (op.nnn() + uint16(c.V[0])) & bus.AddrMask
	return nil
}

// Cxkk
func (c *CPU) opRND(op opcode) error {
	c.V[op.x()] = byte(c.rng.Intn(256)) & op.kk()
	return nil
}

// Dxyn
func (c *CPU) opDRW(op opcode) error {
	vx, vy := c.V[op.x()], c.V[op.y()]
	h := int(op.n())
	c.V[0xF] = 0
	rows := make([]byte, h)
	for i := 0; i < h; i++ {
		rows[i] = c.bus.Read(c.I + uint16(i))
	}
	if c.disp.Draw(vx, vy, rows) {
		c.V[0xF] = 1
	}
	return nil
}

func (c *CPU) opE(op opcode) error {
	switch op.kk() {
	case 0x9E: // SKP Vx
		c.skipIf(c.keys.Pressed(c.V[op.x()]))
	case 0xA1: // SKNP Vx
		c.skipIf(!c.keys.Pressed(c.V[op.x()]))
	default:
		return c.unknown(op)
	}
	return nil
}

func (c *CPU) opF(op opcode) error {
	x := op.x()
	switch op.kk() {
	case 0x07: // LD Vx, DT
		c.V[x] = c.DT
	case 0x0A: // LD Vx, K
		c.waitReg = x
		c.waitSeq = c.keys.Seq()
		c.state = AwaitingKey
	case 0x15: // LD DT, Vx
		c.DT = c.V[x]
	case 0x18: // LD ST, Vx
		c.ST = c.V[x]
	case 0x1E: // ADD I, Vx
		c.I += uint16(c.V[x])
	case 0x29: // LD F, Vx
		c.I = bus.FontAddress(c.V[x])
	case 0x33: // LD B, Vx
		v := c.V[x]
		c.bus.Write(c.I, v/100)
		c.bus.Write(c.I+1, (v/10)%10)
		c.bus.Write(c.I+2, v%10)
	case 0x55: // LD [I], Vx
		for i := byte(0); i <= x; i++ {
			c.bus.Write(c.I+uint16(i), c.V[i])
		}
	case 0x65: // LD Vx, [I]
		for i := byte(0); i <= x; i++ {
			c.V[i] = c.bus.Read(c.I + uint16(i))
		}
	default:
		return c.unknown(op)
	}
	return nil
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
