// Package vm implements the stack-based p-code interpreter: a
// fetch-decode-execute loop over a unified store used for both the
// call stack (growing up from 0) and the heap (growing down from the
// top), plus a small debugger surface (breakpoints, single-stepping,
// call-stack inspection).
package vm

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pl0ext/plc/code"
	"github.com/pl0ext/plc/symtab"
)

// DefaultStoreSize is the store length used unless SetStoreSize is
// called before Start.
const DefaultStoreSize = 10000

// State is the interpreter's current debugger-visible state.
type State int

const (
	StateHalted State = iota
	StateRunning
	StatePaused
	StateError
	// StateWaitingInput is entered when a RED instruction runs in debug
	// mode with no synchronous input source: the interpreter parks
	// until ProvideInput supplies the value.
	StateWaitingInput
)

func (s State) String() string {
	switch s {
	case StateHalted:
		return "halted"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	case StateWaitingInput:
		return "waiting_input"
	default:
		return "unknown"
	}
}

// StackFrame describes one activation record as seen by a debugger
// walking the dynamic-link chain from the current base.
type StackFrame struct {
	ReturnAddress int
	DynamicLink   int
	StaticLink    int
	BaseAddress   int
}

// Interpreter executes a compiled p-code program.
type Interpreter struct {
	code []code.Instruction
	sym  *symtab.Table

	store        []int
	p, b, t, h   int
	freeListHead int
	storeSize    int

	running bool
	trace   bool
	state   State
	errMsg  string

	debugMode       bool
	breakpoints     map[int]bool
	waitingForInput bool
	pendingAddr     int

	in     *bufio.Reader
	out    io.Writer
	traceW io.Writer

	inputFunc  func() int
	outputFunc func(int)
}

// New returns an Interpreter for the given program, halted until
// Start is called.
func New(prog []code.Instruction) *Interpreter {
	return &Interpreter{
		code:        prog,
		storeSize:   DefaultStoreSize,
		state:       StateHalted,
		breakpoints: make(map[int]bool),
		in:          bufio.NewReader(nopReader{}),
		out:         io.Discard,
		traceW:      io.Discard,
	}
}

type nopReader struct{}

func (nopReader) Read([]byte) (int, error) { return 0, io.EOF }

// SetSymbolTable attaches the compiled symbol table for name-based
// debugger lookups (GetValue). Optional.
func (in *Interpreter) SetSymbolTable(sym *symtab.Table) { in.sym = sym }

// SetDebugMode toggles the RED-instruction pause-for-input behavior
// used by an interactive debugger frontend.
func (in *Interpreter) SetDebugMode(debug bool) { in.debugMode = debug }

// SetStoreSize sets the unified store length used from the next Start.
func (in *Interpreter) SetStoreSize(size int) { in.storeSize = size }

// EnableTrace turns per-instruction tracing on or off.
func (in *Interpreter) EnableTrace(enable bool) { in.trace = enable }

// SetInput sets the reader RED consumes integers from in CLI mode.
func (in *Interpreter) SetInput(r io.Reader) { in.in = bufio.NewReader(r) }

// SetOutput sets the writer WRT prints to in CLI mode, and where trace
// lines are written when tracing is enabled.
func (in *Interpreter) SetOutput(w io.Writer) { in.out = w; in.traceW = w }

// SetInputFunc installs a callback RED calls instead of reading from
// the CLI input reader, for embedding the interpreter in a host that
// supplies input another way.
func (in *Interpreter) SetInputFunc(f func() int) { in.inputFunc = f }

// SetOutputFunc installs a callback WRT calls instead of writing to
// the CLI output writer.
func (in *Interpreter) SetOutputFunc(f func(int)) { in.outputFunc = f }

// SetBreakpoint arms a breakpoint at the given source line.
func (in *Interpreter) SetBreakpoint(line int) { in.breakpoints[line] = true }

// RemoveBreakpoint disarms a breakpoint at the given source line.
func (in *Interpreter) RemoveBreakpoint(line int) { delete(in.breakpoints, line) }

// State returns the interpreter's current debug state.
func (in *Interpreter) State() State { return in.state }

// CurrentLine returns the source line of the next instruction to
// execute, or -1 if the program counter is out of range.
func (in *Interpreter) CurrentLine() int {
	if in.p >= 0 && in.p < len(in.code) {
		return in.code[in.p].Line
	}
	return -1
}

// CurrentPC returns the program counter.
func (in *Interpreter) CurrentPC() int { return in.p }

// HasError reports whether the interpreter stopped on a runtime error.
func (in *Interpreter) HasError() bool {
	return in.state == StateError || (!in.running && in.errMsg != "")
}

// Error returns the last runtime error message, or "" if none.
func (in *Interpreter) Error() string { return in.errMsg }

// Run starts a fresh execution and runs it to completion or the first
// breakpoint.
func (in *Interpreter) Run() {
	in.Start()
	in.Resume()
}

// Start (re)initializes the store and registers and marks the
// interpreter running, without executing anything.
func (in *Interpreter) Start() {
	in.store = make([]int, in.storeSize)
	in.p, in.b, in.t = 0, 0, 0
	in.h = in.storeSize
	in.freeListHead = -1
	in.running = true
	in.state = StateRunning
	in.errMsg = ""
	if in.trace {
		fmt.Fprintln(in.traceW)
		fmt.Fprintln(in.traceW, "[interpreter trace]")
	}
}

// Resume runs until the program halts, errors, or hits a breakpoint.
func (in *Interpreter) Resume() {
	if in.state == StateHalted || in.state == StateError {
		return
	}
	in.state = StateRunning
	for in.running && in.p >= 0 && in.p < len(in.code) {
		line := in.code[in.p].Line
		if in.breakpoints[line] {
			in.state = StatePaused
			fmt.Fprintf(in.out, "breakpoint hit at line %d\n", line)
			return
		}
		if !in.executeOne() {
			return
		}
	}
	if in.running {
		in.running = false
		in.state = StateHalted
	}
}

// Step executes exactly one instruction.
func (in *Interpreter) Step() {
	if in.state == StateHalted || in.state == StateError {
		return
	}
	if in.running && in.p >= 0 && in.p < len(in.code) {
		in.state = StateRunning
		in.executeOne()
		if in.running {
			in.state = StatePaused
		}
	}
}

// StepOver executes instructions until control reaches a different
// source line than the one it started on.
func (in *Interpreter) StepOver() {
	if in.state == StateHalted || in.state == StateError {
		return
	}
	initialLine := in.CurrentLine()
	in.state = StateRunning
	for in.running && in.p >= 0 && in.p < len(in.code) {
		in.executeOne()
		currentLine := 0
		if in.p >= 0 && in.p < len(in.code) {
			currentLine = in.code[in.p].Line
		}
		if currentLine != initialLine && currentLine != 0 {
			break
		}
	}
	if in.running {
		in.state = StatePaused
	}
}

// ProvideInput supplies the value a RED instruction is blocked on
// after the interpreter entered StateWaitingInput. The value is stored
// at the RED's target and the program counter moves past the RED, so
// the next Resume or Step continues with the following instruction.
func (in *Interpreter) ProvideInput(value int) {
	if !in.waitingForInput {
		return
	}
	in.store[in.pendingAddr] = value
	in.waitingForInput = false
	in.pendingAddr = 0
	in.p++
	in.state = StatePaused
}

// GetCallStack walks the dynamic-link chain from the current base,
// capped at 1000 frames as a guard against a corrupted store.
func (in *Interpreter) GetCallStack() []StackFrame {
	var frames []StackFrame
	b := in.b
	for i := 0; b > 0 && i < 1000; i++ {
		frames = append(frames, StackFrame{
			BaseAddress:   b,
			StaticLink:    in.store[b],
			DynamicLink:   in.store[b+1],
			ReturnAddress: in.store[b+2],
		})
		b = in.store[b+1]
	}
	return frames
}

// GetValue resolves a variable by name against the most recently
// registered matching declaration in the symbol table's full history and the interpreter's
// current base register. Because it searches history rather than a
// live scope stack, it can resolve to a declaration that is no longer
// in scope if an outer variable shares the name with one that has gone
// out of scope; callers that need exact scoping should track a symbol
// index instead of a name.
func (in *Interpreter) GetValue(name string) int {
	if in.sym == nil {
		return -999999
	}
	history := in.sym.History()
	var found *symtab.Symbol
	for i := len(history) - 1; i >= 0; i-- {
		s := history[i]
		if s.Name == name && (s.Kind == symtab.Variable || s.Kind == symtab.Pointer) {
			found = &history[i]
			break
		}
	}
	if found == nil {
		return -888888
	}
	addr := in.b + found.Address
	if addr >= 0 && addr < in.storeSize {
		return in.store[addr]
	}
	return -777777
}

// GetValueAt reads the store directly at address, for a debugger
// rendering raw memory without a live symbol.
func (in *Interpreter) GetValueAt(address int) int {
	if address >= 0 && address < in.storeSize {
		return in.store[address]
	}
	return 0
}

func (in *Interpreter) executeOne() bool {
	instr := in.code[in.p]

	if in.trace {
		fmt.Fprintf(in.traceW, "%4d: L%-3d %-4s %2d,%-4d | B=%-4d T=%-4d H=%-4d\n",
			in.p, instr.Line, instr.Op, instr.L, instr.A, in.b, in.t, in.h)
	}

	in.p++

	switch instr.Op {
	case code.LIT:
		in.t++
		in.store[in.t] = instr.A
		in.checkCollision()

	case code.LOD:
		if instr.A == 0 {
			addr := in.store[in.t]
			in.t--
			if addr < 0 || addr >= in.storeSize {
				in.runtimeError(fmt.Sprintf("access violation: invalid address %d", addr))
				return false
			}
			in.t++
			in.store[in.t] = in.store[addr]
		} else {
			in.t++
			in.store[in.t] = in.store[in.base(instr.L)+instr.A]
		}
		in.checkCollision()

	case code.STO:
		if instr.A == 0 {
			value := in.store[in.t]
			in.t--
			addr := in.store[in.t]
			in.t--
			if addr < 0 || addr >= in.storeSize {
				in.runtimeError(fmt.Sprintf("access violation: invalid address %d", addr))
				return false
			}
			in.store[addr] = value
		} else {
			in.store[in.base(instr.L)+instr.A] = in.store[in.t]
			in.t--
		}

	case code.CAL:
		paramCount := in.store[in.t]
		in.t--
		newBase := in.t - paramCount - 2
		if newBase < 0 {
			in.runtimeError("stack underflow during call")
			return false
		}
		in.store[newBase] = in.base(instr.L)
		in.store[newBase+1] = in.b
		in.store[newBase+2] = in.p
		in.b = newBase
		in.p = instr.A

	case code.INT:
		in.t += instr.A
		in.checkCollision()

	case code.JMP:
		in.p = instr.A

	case code.JPC:
		v := in.store[in.t]
		in.t--
		if v == 0 {
			in.p = instr.A
		}

	case code.OPR:
		if !in.executeOpr(code.Opr(instr.A)) {
			return false
		}

	case code.RED:
		if !in.executeRed(instr) {
			return false
		}

	case code.WRT:
		value := in.store[in.t]
		in.t--
		if in.outputFunc != nil {
			in.outputFunc(value)
		} else {
			fmt.Fprintln(in.out, value)
		}

	case code.NEW:
		size := in.store[in.t]
		in.t--
		if size <= 0 {
			in.runtimeError("invalid allocation size")
			return false
		}
		addr := in.allocate(size)
		if addr == -1 {
			in.runtimeError("out of memory (heap exhausted)")
			return false
		}
		in.t++
		in.store[in.t] = addr

	case code.DEL:
		addr := in.store[in.t]
		in.t--
		in.deallocate(addr)

	case code.LAD:
		in.t++
		in.store[in.t] = in.base(instr.L) + instr.A

	default:
		in.runtimeError("unknown opcode")
		return false
	}

	if !in.running {
		in.state = StateHalted
		return false
	}
	return true
}

func (in *Interpreter) executeRed(instr code.Instruction) bool {
	isIndirect := instr.A == 0
	var targetAddr int
	if isIndirect {
		targetAddr = in.store[in.t]
		in.t--
		if targetAddr < 0 || targetAddr >= in.storeSize {
			in.runtimeError(fmt.Sprintf("access violation: invalid address %d", targetAddr))
			return false
		}
	} else {
		targetAddr = in.base(instr.L) + instr.A
	}

	switch {
	case in.inputFunc != nil:
		in.store[targetAddr] = in.inputFunc()
	case in.debugMode && !in.waitingForInput:
		in.pendingAddr = targetAddr
		in.waitingForInput = true
		in.state = StateWaitingInput
		in.p--
		return false
	default:
		fmt.Fprint(in.out, "? ")
		var value int
		if _, err := fmt.Fscan(in.in, &value); err != nil {
			in.in.ReadString('\n')
			value = 0
		}
		in.store[targetAddr] = value
	}
	return true
}

func (in *Interpreter) executeOpr(opr code.Opr) bool {
	switch opr {
	case code.Ret:
		oldBase := in.b
		in.t = in.b - 1
		in.p = in.store[in.b+2]
		in.b = in.store[in.b+1]
		if oldBase == 0 {
			in.running = false
		}

	case code.Neg:
		in.store[in.t] = -in.store[in.t]

	case code.Add:
		in.t--
		in.store[in.t] = in.store[in.t] + in.store[in.t+1]

	case code.Sub:
		in.t--
		in.store[in.t] = in.store[in.t] - in.store[in.t+1]

	case code.Mul:
		in.t--
		in.store[in.t] = in.store[in.t] * in.store[in.t+1]

	case code.Div:
		in.t--
		if in.store[in.t+1] == 0 {
			in.runtimeError("division by zero")
			return true
		}
		in.store[in.t] = in.store[in.t] / in.store[in.t+1]

	case code.Odd:
		in.store[in.t] = in.store[in.t] % 2

	case code.Mod:
		in.t--
		if in.store[in.t+1] == 0 {
			in.runtimeError("modulo by zero")
			return true
		}
		in.store[in.t] = in.store[in.t] % in.store[in.t+1]

	case code.Eql:
		in.t--
		in.store[in.t] = boolInt(in.store[in.t] == in.store[in.t+1])

	case code.Neq:
		in.t--
		in.store[in.t] = boolInt(in.store[in.t] != in.store[in.t+1])

	case code.Lss:
		in.t--
		in.store[in.t] = boolInt(in.store[in.t] < in.store[in.t+1])

	case code.Geq:
		in.t--
		in.store[in.t] = boolInt(in.store[in.t] >= in.store[in.t+1])

	case code.Gtr:
		in.t--
		in.store[in.t] = boolInt(in.store[in.t] > in.store[in.t+1])

	case code.Leq:
		in.t--
		in.store[in.t] = boolInt(in.store[in.t] <= in.store[in.t+1])
	}
	return true
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// base resolves the activation-record base L static links up from the
// current base register.
func (in *Interpreter) base(l int) int {
	b := in.b
	for l > 0 {
		b = in.store[b]
		l--
	}
	return b
}

func (in *Interpreter) runtimeError(msg string) {
	in.errMsg = fmt.Sprintf("%s (PC=%d)", msg, in.p-1)
	in.running = false
}

func (in *Interpreter) checkCollision() {
	if in.t >= in.h {
		in.runtimeError("stack overflow (stack/heap collision)")
	}
}

// allocate reserves size cells on the heap using first-fit over the
// sorted free list, splitting the found block when the remainder is
// large enough to hold its own header. It returns the address of the
// first usable cell, or -1 if the heap is exhausted.
func (in *Interpreter) allocate(size int) int {
	totalSize := size + 1
	prev := -1
	curr := in.freeListHead

	for curr != -1 {
		blockSize := in.store[curr]
		if blockSize >= totalSize {
			remaining := blockSize - totalSize
			if remaining >= 2 {
				nextFree := in.store[curr+1]
				newFreeNode := curr + totalSize
				in.store[newFreeNode] = remaining
				in.store[newFreeNode+1] = nextFree
				if prev == -1 {
					in.freeListHead = newFreeNode
				} else {
					in.store[prev+1] = newFreeNode
				}
				in.store[curr] = size
				return curr + 1
			}
			nextFree := in.store[curr+1]
			if prev == -1 {
				in.freeListHead = nextFree
			} else {
				in.store[prev+1] = nextFree
			}
			in.store[curr] = size
			return curr + 1
		}
		prev = curr
		curr = in.store[curr+1]
	}

	in.h -= totalSize
	if in.h <= in.t {
		return -1
	}
	in.store[in.h] = size
	return in.h + 1
}

// deallocate returns the block at address to the free list, coalescing
// with an adjacent free block on either side.
func (in *Interpreter) deallocate(address int) {
	if address <= 0 || address >= in.storeSize {
		return
	}
	blockHeader := address - 1
	size := in.store[blockHeader]
	totalSize := size + 1

	prev := -1
	curr := in.freeListHead
	for curr != -1 && curr < blockHeader {
		prev = curr
		curr = in.store[curr+1]
	}

	if curr != -1 && blockHeader+totalSize == curr {
		totalSize += in.store[curr]
		nextNext := in.store[curr+1]
		in.store[blockHeader] = totalSize
		in.store[blockHeader+1] = nextNext
	} else {
		in.store[blockHeader] = totalSize
		in.store[blockHeader+1] = curr
	}

	if prev != -1 {
		prevSize := in.store[prev]
		if prev+prevSize == blockHeader {
			in.store[prev] = prevSize + totalSize
			in.store[prev+1] = in.store[blockHeader+1]
		} else {
			in.store[prev+1] = blockHeader
		}
	} else {
		in.freeListHead = blockHeader
	}
}
