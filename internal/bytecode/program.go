package bytecode

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Domain prefix for content-addressed program identity. The version suffix
// enables future wire-format migration; the null separator prevents
// domain/data boundary ambiguity.
const DomainProgram = "cypherlite/program/v1"

// MaxProgramLen caps the instruction count of an executable program.
const MaxProgramLen = 100

const wireVersion = 1

// Program is a compiled query: an ordered instruction sequence plus the
// RETURN projection applied by SAVE_RESULTS. A program is a pure value; it
// holds no store reference.
type Program struct {
	Instructions []Instruction
	// Return is the projected node field ("id", "label", or "data").
	// Empty for programs that save no results.
	Return string
}

// Mutates reports whether any instruction writes to the store.
func (p *Program) Mutates() bool {
	for _, in := range p.Instructions {
		if in.Mutates() {
			return true
		}
	}
	return false
}

// Disassemble renders the program one mnemonic per line, the form used by
// the compile command and golden tests.
func (p *Program) Disassemble() string {
	var sb strings.Builder
	for i, in := range p.Instructions {
		fmt.Fprintf(&sb, "%04d  %s\n", i, in)
	}
	if p.Return != "" {
		fmt.Fprintf(&sb, "return %s\n", p.Return)
	}
	return sb.String()
}

// MarshalWire produces the canonical serialization. All strings are NFC
// normalized here so the wire bytes, and therefore the code hash, do not
// depend on the Unicode composition of the query text.
func (p *Program) MarshalWire() ([]byte, error) {
	if len(p.Instructions) > MaxProgramLen {
		return nil, fmt.Errorf("program has %d instructions, limit is %d", len(p.Instructions), MaxProgramLen)
	}

	var buf bytes.Buffer
	buf.WriteByte(wireVersion)
	if err := writeString(&buf, p.Return); err != nil {
		return nil, fmt.Errorf("return projection: %w", err)
	}
	writeWireU16(&buf, uint16(len(p.Instructions)))

	for i, in := range p.Instructions {
		buf.WriteByte(byte(in.Op))
		switch in.Op {
		case OpPushConst, OpLimit:
			writeWireU64(&buf, in.K)
		case OpFilterNodeLabel, OpTraverseOut:
			if err := writeString(&buf, in.Label); err != nil {
				return nil, fmt.Errorf("instruction %d: %w", i, err)
			}
		case OpFilterNodeAttrEq:
			if err := writeBytes(&buf, in.Bytes); err != nil {
				return nil, fmt.Errorf("instruction %d: %w", i, err)
			}
		case OpCreateNode:
			if err := writeString(&buf, in.Label); err != nil {
				return nil, fmt.Errorf("instruction %d: %w", i, err)
			}
			if err := writeBytes(&buf, in.Bytes); err != nil {
				return nil, fmt.Errorf("instruction %d: %w", i, err)
			}
		case OpCreateEdge:
			writeWireU64(&buf, in.From)
			writeWireU64(&buf, in.To)
			if err := writeString(&buf, in.Label); err != nil {
				return nil, fmt.Errorf("instruction %d: %w", i, err)
			}
		case OpSetCurrentFromAllNodes, OpFilterNodeID, OpSaveResults, OpHalt:
			// no operand
		default:
			return nil, fmt.Errorf("instruction %d: unknown opcode 0x%02x", i, uint8(in.Op))
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalWire decodes a canonical serialization back into a program.
func UnmarshalWire(data []byte) (*Program, error) {
	r := &wireReader{data: data}
	if v := r.u8(); v != wireVersion {
		if r.err != nil {
			return nil, fmt.Errorf("truncated program: %w", r.err)
		}
		return nil, fmt.Errorf("unsupported program wire version %d", v)
	}

	p := &Program{Return: r.str()}
	count := int(r.u16())
	if r.err != nil {
		return nil, fmt.Errorf("truncated program header: %w", r.err)
	}
	if count > MaxProgramLen {
		return nil, fmt.Errorf("program has %d instructions, limit is %d", count, MaxProgramLen)
	}

	for i := 0; i < count; i++ {
		in := Instruction{Op: Opcode(r.u8())}
		switch in.Op {
		case OpPushConst, OpLimit:
			in.K = r.u64()
		case OpFilterNodeLabel, OpTraverseOut:
			in.Label = r.str()
		case OpFilterNodeAttrEq:
			in.Bytes = r.blob()
		case OpCreateNode:
			in.Label = r.str()
			in.Bytes = r.blob()
		case OpCreateEdge:
			in.From = r.u64()
			in.To = r.u64()
			in.Label = r.str()
		case OpSetCurrentFromAllNodes, OpFilterNodeID, OpSaveResults, OpHalt:
		default:
			return nil, fmt.Errorf("instruction %d: unknown opcode 0x%02x", i, uint8(in.Op))
		}
		if r.err != nil {
			return nil, fmt.Errorf("truncated instruction %d: %w", i, r.err)
		}
		p.Instructions = append(p.Instructions, in)
	}
	if r.rest() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after program", r.rest())
	}
	return p, nil
}

// Hash is a hex-encoded content address of a program.
type Hash string

// CodeHash computes the content-addressed identity of the program:
// SHA-256(domain + 0x00 + wire bytes). The hash is stable across processes
// and restarts given the same program.
func (p *Program) CodeHash() (Hash, error) {
	wire, err := p.MarshalWire()
	if err != nil {
		return "", fmt.Errorf("code hash: %w", err)
	}
	return HashBytes(wire), nil
}

// HashBytes computes the domain-separated digest over already-serialized
// program bytes.
func HashBytes(wire []byte) Hash {
	h := sha256.New()
	h.Write([]byte(DomainProgram))
	h.Write([]byte{0x00})
	h.Write(wire)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

func writeString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)
	if len(normalized) > 255 {
		return fmt.Errorf("string operand is %d bytes, limit is 255", len(normalized))
	}
	buf.WriteByte(byte(len(normalized)))
	buf.WriteString(normalized)
	return nil
}

func writeBytes(buf *bytes.Buffer, b []byte) error {
	if len(b) > 0xffff {
		return fmt.Errorf("byte operand is %d bytes, limit is %d", len(b), 0xffff)
	}
	writeWireU16(buf, uint16(len(b)))
	buf.Write(b)
	return nil
}

func writeWireU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeWireU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

type wireReader struct {
	data []byte
	pos  int
	err  error
}

func (r *wireReader) rest() int { return len(r.data) - r.pos }

func (r *wireReader) take(n int) []byte {
	if r.err != nil || r.pos+n > len(r.data) {
		if r.err == nil {
			r.err = fmt.Errorf("need %d bytes at offset %d, have %d", n, r.pos, r.rest())
		}
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *wireReader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *wireReader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *wireReader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *wireReader) str() string {
	return string(r.take(int(r.u8())))
}

func (r *wireReader) blob() []byte {
	b := r.take(int(r.u16()))
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}
