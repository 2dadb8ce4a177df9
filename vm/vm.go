package vm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/pkg/loxerr"
)

var log = commonlog.GetLogger("lox.vm")

// defaultStackSize is the number of slots preallocated for the operand
// stack. The stack grows past it if a chunk needs more.
const defaultStackSize = 256

// VM executes bytecode chunks against an operand stack.
//
// A VM may run any number of chunks one after another, but it is not safe
// for concurrent use. Concurrent sessions each need their own VM.
type VM struct {
	// Current execution state
	chunk *bytecode.Chunk
	ip    int              // Index of the next instruction
	stack []bytecode.Value // Operand stack; len is the stack pointer

	out   io.Writer // Where Interpret prints results
	trace io.Writer // Execution trace destination; nil disables tracing
	store *bytecode.ChunkStore
}

// Result is the outcome of a successful run.
type Result struct {
	Value bytecode.Value
	// Returned is false when execution ran off the end of the chunk
	// without reaching OpReturn. Compiled chunks never do this.
	Returned bool
}

// Option configures a VM.
type Option func(*VM)

// WithOutput sets the writer Interpret prints results to. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) { vm.out = w }
}

// WithTrace enables the execution trace: before each instruction the stack
// and the disassembled instruction are written to w.
func WithTrace(w io.Writer) Option {
	return func(vm *VM) { vm.trace = w }
}

// WithChunkStore makes the VM reuse compiled chunks for repeated source.
func WithChunkStore(store *bytecode.ChunkStore) Option {
	return func(vm *VM) { vm.store = store }
}

// New creates a VM.
func New(opts ...Option) *VM {
	vm := &VM{
		stack: make([]bytecode.Value, 0, defaultStackSize),
		out:   os.Stdout,
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// SetTrace changes the trace destination; nil disables tracing.
func (vm *VM) SetTrace(w io.Writer) {
	vm.trace = w
}

// Tracing reports whether the execution trace is enabled.
func (vm *VM) Tracing() bool {
	return vm.trace != nil
}

// StackDepth returns the number of values on the operand stack.
func (vm *VM) StackDepth() int {
	return len(vm.stack)
}

// Run executes chunk from its first instruction until OpReturn or a fault.
// A fault is returned as a *loxerr.Error of kind KindRuntime.
func (vm *VM) Run(chunk *bytecode.Chunk) (Result, error) {
	vm.chunk = chunk
	vm.ip = 0
	vm.stack = vm.stack[:0]

	result, err := vm.run()
	if err != nil {
		// Faults leave operands behind; the next run starts clean anyway.
		vm.stack = vm.stack[:0]
		log.Debugf("run failed: %s", err)
		return Result{}, err
	}
	return result, nil
}

// run is the main execution loop.
func (vm *VM) run() (Result, error) {
	for vm.ip < len(vm.chunk.Code) {
		if vm.trace != nil {
			vm.traceInstruction()
		}

		in := vm.chunk.Code[vm.ip]
		vm.ip++

		switch in.Op {
		// ============ Constants ============
		case bytecode.OpConstant:
			if in.Operand < 0 || in.Operand >= len(vm.chunk.Constants) {
				return Result{}, vm.fault(loxerr.FaultNone, "Constant index %d out of range.", in.Operand)
			}
			vm.push(vm.chunk.Constants[in.Operand])

		case bytecode.OpNil:
			vm.push(bytecode.Nil)

		case bytecode.OpTrue:
			vm.push(bytecode.Bool(true))

		case bytecode.OpFalse:
			vm.push(bytecode.Bool(false))

		// ============ Comparison ============
		case bytecode.OpEqual:
			a, b, err := vm.popTwo()
			if err != nil {
				return Result{}, err
			}
			vm.push(bytecode.Bool(a.Equal(b)))

		// ============ Unary ============
		case bytecode.OpNot:
			v, err := vm.pop()
			if err != nil {
				return Result{}, err
			}
			vm.push(bytecode.Bool(v.IsFalsey()))

		case bytecode.OpNegate:
			v, err := vm.pop()
			if err != nil {
				return Result{}, err
			}
			n, ok := v.AsNumber()
			if !ok {
				return Result{}, vm.fault(loxerr.FaultTypeMismatch, "Operand must be a number.")
			}
			vm.push(bytecode.Number(-n))

		// ============ Return ============
		case bytecode.OpReturn:
			v, err := vm.pop()
			if err != nil {
				return Result{}, err
			}
			return Result{Value: v, Returned: true}, nil

		// ============ Numeric binary ============
		default:
			if !in.Op.IsBinary() {
				return Result{}, vm.fault(loxerr.FaultNone, "Unknown opcode 0x%02X.", byte(in.Op))
			}
			if err := vm.binaryOp(in.Op); err != nil {
				return Result{}, err
			}
		}
	}

	// Only a malformed chunk gets here: there is no OpReturn to report a value.
	log.Debug("chunk ended without a return", "instructions", len(vm.chunk.Code))
	return Result{}, nil
}

// binaryOp pops two numbers and pushes the result of op on them.
// Division follows IEEE-754, so dividing by zero yields an infinity or NaN.
func (vm *VM) binaryOp(op bytecode.Opcode) error {
	a, b, err := vm.popTwo()
	if err != nil {
		return err
	}
	x, okA := a.AsNumber()
	y, okB := b.AsNumber()
	if !okA || !okB {
		return vm.fault(loxerr.FaultTypeMismatch, "Operands must be numbers.")
	}

	switch op {
	case bytecode.OpGreater:
		vm.push(bytecode.Bool(x > y))
	case bytecode.OpLess:
		vm.push(bytecode.Bool(x < y))
	case bytecode.OpAdd:
		vm.push(bytecode.Number(x + y))
	case bytecode.OpSubtract:
		vm.push(bytecode.Number(x - y))
	case bytecode.OpMultiply:
		vm.push(bytecode.Number(x * y))
	case bytecode.OpDivide:
		vm.push(bytecode.Number(x / y))
	}
	return nil
}

func (vm *VM) push(v bytecode.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() (bytecode.Value, error) {
	n := len(vm.stack)
	if n == 0 {
		return bytecode.Nil, vm.fault(loxerr.FaultStackUnderflow, "Stack underflow.")
	}
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v, nil
}

// popTwo pops b then a, so a is the left operand.
func (vm *VM) popTwo() (a, b bytecode.Value, err error) {
	if b, err = vm.pop(); err != nil {
		return
	}
	a, err = vm.pop()
	return
}

// fault builds a runtime error attributed to the line of the instruction
// that is executing.
func (vm *VM) fault(f loxerr.Fault, format string, args ...any) *loxerr.Error {
	return loxerr.NewRuntime(f, vm.chunk.LineAt(vm.ip-1), format, args...)
}

// traceInstruction writes the stack contents and the next instruction.
func (vm *VM) traceInstruction() {
	var sb strings.Builder
	sb.WriteString("          ")
	for _, v := range vm.stack {
		sb.WriteString(fmt.Sprintf("[ %s ]", v))
	}
	sb.WriteString("\n")
	sb.WriteString(vm.chunk.DisassembleInstruction(vm.ip))
	sb.WriteString("\n")
	io.WriteString(vm.trace, sb.String())
}
