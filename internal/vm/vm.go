package vm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"pythowon/internal/chunk"
	"pythowon/internal/value"
)

// Config controls where the VM writes and whether it traces execution.
type Config struct {
	Out   io.Writer
	Trace bool
}

// VM executes one finalized chunk at a time against a value stack and a
// global-name table. It borrows the chunk; the pool owns every object the
// run creates.
type VM struct {
	chunk *chunk.Chunk
	ip    int
	// opOffset is the offset of the opcode being dispatched, for the line
	// lookup in runtime errors.
	opOffset int

	stack   []value.Value
	globals map[*value.Obj]value.Value

	pool *value.Pool
	out  io.Writer

	trace bool
}

func New(pool *value.Pool) *VM {
	return NewWithConfig(pool, Config{})
}

func NewWithConfig(pool *value.Pool, cfg Config) *VM {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	return &VM{
		globals: make(map[*value.Obj]value.Value),
		pool:    pool,
		out:     out,
		trace:   cfg.Trace,
	}
}

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) resetStack() {
	vm.stack = vm.stack[:0]
}

func (vm *VM) runtimeError(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(vm.out, msg)

	line := 0
	if vm.chunk != nil && vm.opOffset < len(vm.chunk.Lines) {
		line = vm.chunk.Lines[vm.opOffset]
	}
	fmt.Fprintf(vm.out, "[line %d] in script\n", line)

	vm.resetStack()
	return errors.New(msg)
}

// operandWidth gives the number of inline operand bytes for op, so every
// read below stays in bounds.
func operandWidth(op chunk.OpCode) int {
	switch op {
	case chunk.OP_CONSTANT, chunk.OP_POPN, chunk.OP_GET_LOCAL, chunk.OP_SET_LOCAL,
		chunk.OP_GET_GLOBAL, chunk.OP_SET_GLOBAL, chunk.OP_DEF_GLOBAL, chunk.OP_CALL:
		return 1
	case chunk.OP_JUMP, chunk.OP_JUMP_FALSE, chunk.OP_LOOP:
		return 2
	case chunk.OP_CONSTANT_LONG, chunk.OP_GET_LOCAL_LONG, chunk.OP_SET_LOCAL_LONG,
		chunk.OP_GET_GLOBAL_LONG, chunk.OP_SET_GLOBAL_LONG, chunk.OP_DEF_GLOBAL_LONG,
		chunk.OP_JUMP_LONG, chunk.OP_JUMP_FALSE_LONG, chunk.OP_LOOP_LONG:
		return 4
	default:
		return 0
	}
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readShort() int {
	s := int(vm.chunk.Code[vm.ip])<<8 | int(vm.chunk.Code[vm.ip+1])
	vm.ip += 2
	return s
}

func (vm *VM) readLong() int {
	l := int(vm.chunk.Code[vm.ip])<<24 | int(vm.chunk.Code[vm.ip+1])<<16 |
		int(vm.chunk.Code[vm.ip+2])<<8 | int(vm.chunk.Code[vm.ip+3])
	vm.ip += 4
	return l
}

func (vm *VM) readConstant(index int) (value.Value, error) {
	if index >= len(vm.chunk.Constants) {
		return value.Value{}, vm.runtimeError("Constant index %d out of range.", index)
	}
	return vm.chunk.Constants[index], nil
}

// readName resolves a global-name operand to its interned string handle.
func (vm *VM) readName(index int) (*value.Obj, error) {
	v, err := vm.readConstant(index)
	if err != nil {
		return nil, err
	}
	if !v.IsString() {
		return nil, vm.runtimeError("Malformed bytecode: name constant is not a string.")
	}
	return v.Obj, nil
}

// Run executes a finalized chunk. The chunk is borrowed and never mutated.
func (vm *VM) Run(c *chunk.Chunk) error {
	vm.chunk = c
	vm.ip = 0
	vm.resetStack()

	for vm.ip < len(c.Code) {
		if vm.trace {
			vm.traceInstruction()
		}

		vm.opOffset = vm.ip
		op := chunk.OpCode(vm.readByte())

		if vm.ip+operandWidth(op) > len(c.Code) {
			return vm.runtimeError("Truncated instruction at offset %d.", vm.opOffset)
		}

		switch op {
		case chunk.OP_CONSTANT:
			v, err := vm.readConstant(int(vm.readByte()))
			if err != nil {
				return err
			}
			vm.push(v)

		case chunk.OP_CONSTANT_LONG:
			v, err := vm.readConstant(vm.readLong())
			if err != nil {
				return err
			}
			vm.push(v)

		case chunk.OP_NONE:
			vm.push(value.NoneVal())
		case chunk.OP_TRUE:
			vm.push(value.BoolVal(true))
		case chunk.OP_FALSE:
			vm.push(value.BoolVal(false))

		case chunk.OP_POP:
			if len(vm.stack) == 0 {
				return vm.runtimeError("Stack underflow.")
			}
			vm.pop()

		case chunk.OP_POPN:
			n := int(vm.readByte())
			if n > len(vm.stack) {
				return vm.runtimeError("Stack underflow.")
			}
			vm.stack = vm.stack[:len(vm.stack)-n]

		case chunk.OP_DUP:
			if len(vm.stack) == 0 {
				return vm.runtimeError("Stack underflow.")
			}
			vm.push(vm.peek(0))

		case chunk.OP_GET_LOCAL, chunk.OP_GET_LOCAL_LONG:
			var slot int
			if op == chunk.OP_GET_LOCAL {
				slot = int(vm.readByte())
			} else {
				slot = vm.readLong()
			}
			if slot >= len(vm.stack) {
				return vm.runtimeError("Local slot %d out of range.", slot)
			}
			vm.push(vm.stack[slot])

		case chunk.OP_SET_LOCAL, chunk.OP_SET_LOCAL_LONG:
			var slot int
			if op == chunk.OP_SET_LOCAL {
				slot = int(vm.readByte())
			} else {
				slot = vm.readLong()
			}
			if slot >= len(vm.stack) {
				return vm.runtimeError("Local slot %d out of range.", slot)
			}
			if err := vm.need(1); err != nil {
				return err
			}
			vm.stack[slot] = vm.peek(0)

		case chunk.OP_GET_GLOBAL, chunk.OP_GET_GLOBAL_LONG:
			var index int
			if op == chunk.OP_GET_GLOBAL {
				index = int(vm.readByte())
			} else {
				index = vm.readLong()
			}
			name, err := vm.readName(index)
			if err != nil {
				return err
			}
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Str)
			}
			vm.push(v)

		case chunk.OP_SET_GLOBAL, chunk.OP_SET_GLOBAL_LONG:
			var index int
			if op == chunk.OP_SET_GLOBAL {
				index = int(vm.readByte())
			} else {
				index = vm.readLong()
			}
			name, err := vm.readName(index)
			if err != nil {
				return err
			}
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Str)
			}
			if err := vm.need(1); err != nil {
				return err
			}
			vm.globals[name] = vm.peek(0)

		case chunk.OP_DEF_GLOBAL, chunk.OP_DEF_GLOBAL_LONG:
			var index int
			if op == chunk.OP_DEF_GLOBAL {
				index = int(vm.readByte())
			} else {
				index = vm.readLong()
			}
			name, err := vm.readName(index)
			if err != nil {
				return err
			}
			if err := vm.need(1); err != nil {
				return err
			}
			vm.globals[name] = vm.peek(0)
			vm.pop()

		case chunk.OP_EQUAL:
			if err := vm.need(2); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			vm.push(value.BoolVal(value.Equal(a, b)))

		case chunk.OP_GREATER:
			if err := vm.checkNumbers(); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			vm.push(value.BoolVal(value.Greater(a, b)))

		case chunk.OP_LESS:
			if err := vm.checkNumbers(); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			vm.push(value.BoolVal(value.Less(a, b)))

		case chunk.OP_ADD:
			if err := vm.checkAddable(); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Add(vm.pool, a, b))

		case chunk.OP_MULTIPLY:
			if err := vm.checkMultiplicable(); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Multiply(vm.pool, a, b))

		case chunk.OP_DIVIDE:
			if err := vm.checkDividable(); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Divide(a, b))

		case chunk.OP_MODULO:
			if err := vm.checkDividable(); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Modulo(a, b))

		case chunk.OP_LEFTSHIFT, chunk.OP_RIGHTSHIFT:
			if err := vm.need(2); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			if op == chunk.OP_LEFTSHIFT {
				vm.push(value.LeftShift(a, b))
			} else {
				vm.push(value.RightShift(a, b))
			}

		case chunk.OP_NEGATE:
			if err := vm.need(1); err != nil {
				return err
			}
			v, ok := value.Negate(vm.peek(0))
			if !ok {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.pop()
			vm.push(v)

		case chunk.OP_NOT:
			if err := vm.need(1); err != nil {
				return err
			}
			vm.push(value.BoolVal(vm.pop().Falsey()))

		case chunk.OP_AND:
			if err := vm.need(2); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			vm.push(value.BoolVal(!a.Falsey() && !b.Falsey()))

		case chunk.OP_OR:
			if err := vm.need(2); err != nil {
				return err
			}
			b := vm.pop()
			a := vm.pop()
			vm.push(value.BoolVal(!a.Falsey() || !b.Falsey()))

		case chunk.OP_JUMP:
			vm.ip += vm.readShort()

		case chunk.OP_JUMP_LONG:
			vm.ip += vm.readLong()

		case chunk.OP_JUMP_FALSE:
			offset := vm.readShort()
			if err := vm.need(1); err != nil {
				return err
			}
			if vm.peek(0).Falsey() {
				vm.ip += offset
			}

		case chunk.OP_JUMP_FALSE_LONG:
			offset := vm.readLong()
			if err := vm.need(1); err != nil {
				return err
			}
			if vm.peek(0).Falsey() {
				vm.ip += offset
			}

		case chunk.OP_LOOP:
			vm.ip -= vm.readShort()
			if vm.ip < 0 {
				return vm.runtimeError("Loop target out of range.")
			}

		case chunk.OP_LOOP_LONG:
			vm.ip -= vm.readLong()
			if vm.ip < 0 {
				return vm.runtimeError("Loop target out of range.")
			}

		case chunk.OP_PRINT:
			if err := vm.need(1); err != nil {
				return err
			}
			fmt.Fprintf(vm.out, "%s\n", vm.pop())

		case chunk.OP_CALL:
			vm.readByte() // arity; reserved
			return vm.runtimeError("Functions are not yet supported.")

		case chunk.OP_RETURN:
			if len(vm.stack) > 0 {
				fmt.Fprintf(vm.out, "%s\n", vm.pop())
			}
			return nil

		default:
			return vm.runtimeError("Unknown opcode %d.", byte(op))
		}
	}

	return nil
}

// need guards the stack depth for handcrafted chunks; compiled code is
// always balanced.
func (vm *VM) need(n int) error {
	if len(vm.stack) < n {
		return vm.runtimeError("Stack underflow.")
	}
	return nil
}

func (vm *VM) checkNumbers() error {
	if err := vm.need(2); err != nil {
		return err
	}
	if !vm.peek(0).IsNumeric() || !vm.peek(1).IsNumeric() {
		return vm.runtimeError("Operands must be numbers.")
	}
	return nil
}

// checkDividable additionally admits None, which absorbs the operation.
func (vm *VM) checkDividable() error {
	if err := vm.need(2); err != nil {
		return err
	}
	if !dividable(vm.peek(0)) || !dividable(vm.peek(1)) {
		return vm.runtimeError("Operands must be numbers.")
	}
	return nil
}

func (vm *VM) checkAddable() error {
	if err := vm.need(2); err != nil {
		return err
	}
	// A string on either side coerces the other operand to its display form.
	if vm.peek(0).IsString() || vm.peek(1).IsString() {
		return nil
	}
	if !addable(vm.peek(0)) || !addable(vm.peek(1)) {
		return vm.runtimeError("Operands must be numbers or strings.")
	}
	return nil
}

func (vm *VM) checkMultiplicable() error {
	if err := vm.need(2); err != nil {
		return err
	}
	if !addable(vm.peek(0)) || !addable(vm.peek(1)) {
		return vm.runtimeError("Operands must be numbers or strings.")
	}
	return nil
}

func dividable(v value.Value) bool {
	return v.IsNumeric() || v.IsNone()
}

// addable: numbers, special numbers, strings, and the absorbing None.
func addable(v value.Value) bool {
	return v.IsNumeric() || v.IsString() || v.IsNone()
}

func (vm *VM) traceInstruction() {
	fmt.Fprint(vm.out, "          ")
	for _, v := range vm.stack {
		fmt.Fprintf(vm.out, "[ %s ]", v)
	}
	fmt.Fprintln(vm.out)
	vm.chunk.DisassembleInstruction(vm.out, vm.ip)
}
