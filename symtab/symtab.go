// Package symtab implements the compiler's symbol table: a flat symbol
// stack combined with a name-keyed hash chain for O(1) lookup and
// LIFO scope teardown.
package symtab

// Kind classifies a Symbol.
type Kind int

const (
	Constant Kind = iota
	Variable
	Procedure
	Array
	Pointer
)

func (k Kind) String() string {
	switch k {
	case Constant:
		return "CONST"
	case Variable:
		return "VAR"
	case Procedure:
		return "PROC"
	case Array:
		return "ARRAY"
	case Pointer:
		return "POINTER"
	default:
		return "???"
	}
}

// Symbol is one entry in the table: a declared constant, variable,
// array, pointer, or procedure.
type Symbol struct {
	Name  string
	Kind  Kind
	Level int // 0 = main program
	// Address holds: unused for Constant; the stack-frame offset for
	// Variable/Pointer; the array base offset for Array; the code
	// entry address for Procedure.
	Address int

	Value      int // Constant: its value
	Size       int // Array: element count
	ParamCount int // Procedure: parameter count

	tableIndex   int
	historyIndex int
}

// Table is the scope-stack + hash-chain symbol table used while
// compiling a single program.
type Table struct {
	stack   []Symbol // live symbols, index-addressable
	history []Symbol // every symbol ever registered, for debugger use

	byName map[string][]int // name -> indices into stack, front = innermost
	scopes []int            // stack-size snapshot at each enterScope

	level int
}

// New returns an empty Table positioned at level 0.
func New() *Table {
	return &Table{
		byName: make(map[string][]int),
		scopes: []int{0},
	}
}

// Level reports the current nesting depth (0 = main program).
func (t *Table) Level() int { return t.level }

// EnterScope opens a new nested scope.
func (t *Table) EnterScope() {
	t.level++
	t.scopes = append(t.scopes, len(t.stack))
}

// LeaveScope closes the innermost scope, popping every symbol declared
// in it off the stack and out of the hash chains. Leaving level 0 is a
// no-op, matching a program with unbalanced scope calls being an
// internal compiler error, not a leaveable state.
func (t *Table) LeaveScope() {
	if t.level == 0 {
		return
	}
	start := t.scopes[len(t.scopes)-1]
	t.scopes = t.scopes[:len(t.scopes)-1]

	for len(t.stack) > start {
		last := len(t.stack) - 1
		sym := t.stack[last]
		t.removeFromHash(sym.Name, sym.tableIndex)
		t.stack = t.stack[:last]
	}
	t.level--
}

// Register adds a new symbol at the current level. It returns the
// symbol's table index, or -1 if name is already declared in the
// current scope.
func (t *Table) Register(name string, kind Kind, address int) int {
	if t.LookupCurrentScope(name) >= 0 {
		return -1
	}
	sym := Symbol{
		Name:         name,
		Kind:         kind,
		Level:        t.level,
		Address:      address,
		tableIndex:   len(t.stack),
		historyIndex: len(t.history),
	}
	t.stack = append(t.stack, sym)
	t.history = append(t.history, sym)
	t.addToHash(name, sym.tableIndex)
	return sym.tableIndex
}

// Lookup returns the index of the innermost-scoped symbol named name,
// or -1 if none is visible.
func (t *Table) Lookup(name string) int {
	indices := t.byName[name]
	if len(indices) == 0 {
		return -1
	}
	return indices[0]
}

// LookupCurrentScope reports the index of name only if its innermost
// declaration is in the current scope, used to detect redeclaration.
func (t *Table) LookupCurrentScope(name string) int {
	indices := t.byName[name]
	if len(indices) == 0 {
		return -1
	}
	idx := indices[0]
	if t.stack[idx].Level == t.level {
		return idx
	}
	return -1
}

// Exists reports whether name is visible in any enclosing scope.
func (t *Table) Exists(name string) bool {
	return t.Lookup(name) >= 0
}

func (t *Table) addToHash(name string, index int) {
	t.byName[name] = append([]int{index}, t.byName[name]...)
}

func (t *Table) removeFromHash(name string, index int) {
	indices := t.byName[name]
	for i, v := range indices {
		if v == index {
			indices = append(indices[:i], indices[i+1:]...)
			break
		}
	}
	if len(indices) == 0 {
		delete(t.byName, name)
	} else {
		t.byName[name] = indices
	}
}

// Symbol returns the live symbol at index.
func (t *Table) Symbol(index int) *Symbol {
	return &t.stack[index]
}

// Size returns the number of currently live symbols.
func (t *Table) Size() int { return len(t.stack) }

// History returns every symbol ever registered, in registration order,
// for use by a debugger inspecting symbols out of scope.
func (t *Table) History() []Symbol {
	return t.history
}

func (t *Table) syncHistory(index int) {
	histIdx := t.stack[index].historyIndex
	if histIdx >= 0 && histIdx < len(t.history) {
		t.history[histIdx] = t.stack[index]
	}
}

// SetAddress updates a symbol's Address, keeping History in sync.
func (t *Table) SetAddress(index, address int) {
	t.stack[index].Address = address
	t.syncHistory(index)
}

// SetParamCount updates a Procedure symbol's ParamCount.
func (t *Table) SetParamCount(index, count int) {
	t.stack[index].ParamCount = count
	t.syncHistory(index)
}

// SetSize updates an Array symbol's Size.
func (t *Table) SetSize(index, size int) {
	t.stack[index].Size = size
	t.syncHistory(index)
}

// SetValue updates a Constant symbol's Value.
func (t *Table) SetValue(index, value int) {
	t.stack[index].Value = value
	t.syncHistory(index)
}
