package chunk

import (
	"fmt"
	"io"
)

// Disassemble writes a listing of the whole chunk to w.
func (c *Chunk) Disassemble(w io.Writer, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = c.DisassembleInstruction(w, offset)
	}
}

// DisassembleInstruction prints one instruction and returns the offset of
// the next one.
func (c *Chunk) DisassembleInstruction(w io.Writer, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprintf(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.Lines[offset])
	}

	op := OpCode(c.Code[offset])
	switch op {
	case OP_CONSTANT, OP_GET_GLOBAL, OP_SET_GLOBAL, OP_DEF_GLOBAL:
		return c.constantInstruction(w, op.String(), offset)
	case OP_CONSTANT_LONG, OP_GET_GLOBAL_LONG, OP_SET_GLOBAL_LONG, OP_DEF_GLOBAL_LONG:
		return c.constantLongInstruction(w, op.String(), offset)
	case OP_POPN, OP_GET_LOCAL, OP_SET_LOCAL, OP_CALL:
		return c.byteInstruction(w, op.String(), offset)
	case OP_GET_LOCAL_LONG, OP_SET_LOCAL_LONG, OP_JUMP_LONG, OP_JUMP_FALSE_LONG, OP_LOOP_LONG:
		return c.longInstruction(w, op.String(), offset)
	case OP_JUMP, OP_JUMP_FALSE:
		return c.jumpInstruction(w, op.String(), 1, offset)
	case OP_LOOP:
		return c.jumpInstruction(w, op.String(), -1, offset)
	case OP_NONE, OP_TRUE, OP_FALSE, OP_POP, OP_DUP, OP_EQUAL, OP_GREATER,
		OP_LESS, OP_ADD, OP_MULTIPLY, OP_DIVIDE, OP_MODULO, OP_LEFTSHIFT,
		OP_RIGHTSHIFT, OP_NEGATE, OP_NOT, OP_AND, OP_OR, OP_PRINT, OP_RETURN:
		return c.simpleInstruction(w, op.String(), offset)
	default:
		fmt.Fprintf(w, "Unknown opcode %d\n", byte(op))
		return offset + 1
	}
}

func (c *Chunk) simpleInstruction(w io.Writer, name string, offset int) int {
	fmt.Fprintf(w, "%s\n", name)
	return offset + 1
}

func (c *Chunk) constantInstruction(w io.Writer, name string, offset int) int {
	constant := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", name, constant, c.Constants[constant])
	return offset + 2
}

func (c *Chunk) constantLongInstruction(w io.Writer, name string, offset int) int {
	constant := readUint32(c.Code, offset+1)
	fmt.Fprintf(w, "%-16s %4d '%s'\n", name, constant, c.Constants[constant])
	return offset + 5
}

func (c *Chunk) byteInstruction(w io.Writer, name string, offset int) int {
	slot := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", name, slot)
	return offset + 2
}

func (c *Chunk) longInstruction(w io.Writer, name string, offset int) int {
	slot := readUint32(c.Code, offset+1)
	fmt.Fprintf(w, "%-16s %4d\n", name, slot)
	return offset + 5
}

func (c *Chunk) jumpInstruction(w io.Writer, name string, sign int, offset int) int {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	fmt.Fprintf(w, "%-16s %4d -> %d\n", name, offset, offset+3+sign*jump)
	return offset + 3
}

func readUint32(code []byte, offset int) uint32 {
	return uint32(code[offset])<<24 | uint32(code[offset+1])<<16 |
		uint32(code[offset+2])<<8 | uint32(code[offset+3])
}
