// Package bytecode encodes and decodes compiled p-code programs to a
// small binary object format, so a program can be compiled once and
// run many times without re-parsing the source.
package bytecode

import (
	"errors"
	"io"
	"math/bits"

	"github.com/pl0ext/plc/code"
)

// magic identifies a p-code object file. version bumps when the
// on-disk layout changes incompatibly.
const (
	magic   = "PLC0"
	version = int32(1)
)

type writer struct {
	w   io.Writer
	buf [1]byte
	err error
}

func (wr *writer) putByte(b byte) {
	if wr.err != nil {
		return
	}
	wr.buf[0] = b
	_, wr.err = wr.w.Write(wr.buf[:])
}

type reader struct {
	r io.Reader
}

func (rd *reader) getByte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(rd.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Encode writes prog to w in the object format.
func Encode(w io.Writer, prog []code.Instruction) error {
	wr := &writer{w: w}
	for _, b := range []byte(magic) {
		wr.putByte(b)
	}
	wr.putInt(version)
	wr.putNum(int32(len(prog)))
	for _, in := range prog {
		wr.putByte(byte(in.Op))
		wr.putNum(int32(in.L))
		wr.putNum(int32(in.A))
		wr.putNum(int32(in.Line))
	}
	return wr.err
}

// Decode reads a program previously written by Encode.
func Decode(r io.Reader) ([]code.Instruction, error) {
	rd := &reader{r: r}

	var hdr [4]byte
	for i := range hdr {
		b, err := rd.getByte()
		if err != nil {
			return nil, err
		}
		hdr[i] = b
	}
	if string(hdr[:]) != magic {
		return nil, errors.New("bytecode: not a p-code object file")
	}

	v, err := rd.getInt()
	if err != nil {
		return nil, err
	}
	if v != version {
		return nil, errors.New("bytecode: unsupported object file version")
	}

	count, err := rd.getNum()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, errors.New("bytecode: corrupt instruction count")
	}

	prog := make([]code.Instruction, count)
	for i := range prog {
		op, err := rd.getByte()
		if err != nil {
			return nil, err
		}
		l, err := rd.getNum()
		if err != nil {
			return nil, err
		}
		a, err := rd.getNum()
		if err != nil {
			return nil, err
		}
		line, err := rd.getNum()
		if err != nil {
			return nil, err
		}
		prog[i] = code.Instruction{Op: code.Op(op), L: int(l), A: int(a), Line: int(line)}
	}
	return prog, nil
}

func (wr *writer) putInt(x int32) {
	wr.putByte(byte(x))
	wr.putByte(byte(x >> 8))
	wr.putByte(byte(x >> 16))
	wr.putByte(byte(x >> 24))
}

func (rd *reader) getInt() (int32, error) {
	var b [4]byte
	for i := range b {
		v, err := rd.getByte()
		if err != nil {
			return 0, err
		}
		b[i] = v
	}
	return int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16 | int32(b[3])<<24, nil
}

// putNum and getNum encode a signed integer as a variable-length
// 7-bits-per-byte sequence, high bit set on every byte but the last.
// The scheme is the teacher's own (originally used for Oberon symbol
// file integers), reused here for instruction operands.
func (wr *writer) putNum(x int32) {
	for (x < -0x40) || (x >= 0x40) {
		wr.putByte(byte(x)%0x80 + 0x80)
		x = x >> 7
	}
	wr.putByte(byte(x) % 0x80)
}

func (rd *reader) getNum() (int32, error) {
	n := 32
	y := 0
	b, err := rd.getByte()
	if err != nil {
		return 0, err
	}
	for b >= 0x80 {
		y = int(bits.RotateLeft32(uint32(y+int(b)-0x80), -7))
		n -= 7
		b, err = rd.getByte()
		if err != nil {
			return 0, err
		}
	}
	var x int32
	if n <= 4 {
		x = int32(bits.RotateLeft32(uint32(y+int(b)%0x10), -4))
	} else {
		x = int32(bits.RotateLeft32(uint32(y+int(b)), -7)) >> (n - 7)
	}
	return x, nil
}
