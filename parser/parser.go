// Package parser implements a single-pass recursive-descent parser that
// emits p-code as it recognizes the grammar, driving symtab and code in
// lock-step rather than building an intermediate tree.
package parser

import (
	"github.com/pl0ext/plc/code"
	"github.com/pl0ext/plc/lexer"
	"github.com/pl0ext/plc/source"
	"github.com/pl0ext/plc/symtab"
	"github.com/pl0ext/plc/token"
)

// Parser recognizes a PL/0-ext program and emits its p-code.
type Parser struct {
	lex  *lexer.Lexer
	sym  *symtab.Table
	code *code.Builder
	diag *source.Diagnostics

	prev, cur token.Token

	// tempOffset is the reserved stack slot used as scratch space by
	// array bounds checks; it moves with the enclosing procedure's
	// frame layout.
	tempOffset int
}

// New builds a Parser reading from lex, registering declarations in
// sym, emitting to code, and reporting problems through diag.
func New(lex *lexer.Lexer, sym *symtab.Table, code *code.Builder, diag *source.Diagnostics) *Parser {
	p := &Parser{lex: lex, sym: sym, code: code, diag: diag}
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.prev = p.cur
	p.cur = p.lex.Next()
	for p.cur.Kind == token.Unknown {
		p.cur = p.lex.Next()
	}
}

func (p *Parser) check(k token.Kind) bool { return p.cur.Kind == k }

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind, msg string) {
	if p.check(k) {
		p.advance()
		return
	}
	p.diag.ErrorAt(p.cur, "%s", msg)
}

func (p *Parser) emit(op code.Op, l, a int) int {
	return p.code.Emit(op, l, a, p.prev.Line)
}

// synchronize skips tokens until a plausible statement boundary, used
// after a parse error to keep producing diagnostics instead of
// aborting on the first mistake.
func (p *Parser) synchronize() {
	for !p.check(token.EOF) {
		if p.prev.Kind == token.Semicolon {
			return
		}
		switch p.cur.Kind {
		case token.Begin, token.End, token.If, token.While, token.For,
			token.Call, token.Read, token.Write, token.Const, token.Var, token.Procedure:
			return
		default:
			p.advance()
		}
	}
}

// Parse compiles the whole program and reports whether it compiled
// without errors.
func (p *Parser) Parse() bool {
	p.parseProgram()
	if p.check(token.Period) {
		p.diag.ErrorAt(p.cur, "unexpected '.' after end of program")
	} else if !p.check(token.EOF) {
		p.diag.ErrorAt(p.cur, "expected end of file")
	}
	return !p.diag.HasErrors()
}

func (p *Parser) parseProgram() {
	p.expect(token.Program, "expected 'program'")
	p.expect(token.Ident, "expected program name")
	p.expect(token.Semicolon, "expected ';'")

	p.parseBlock(-1)

	if p.check(token.Period) {
		p.diag.ErrorAt(p.cur, "unexpected '.' at end of program")
		p.advance()
	} else if !p.check(token.EOF) {
		p.diag.ErrorAt(p.cur, "expected end of file")
	}
}

// parseBlock parses a program body or procedure body: declarations
// followed by a compound statement. procIndex is -1 for the main
// program, or the procedure's symbol index so its entry address can be
// patched once its body's address is known.
func (p *Parser) parseBlock(procIndex int) {
	dataOffset := 4
	oldTemp := p.tempOffset
	p.tempOffset = 3

	jmpAddr := p.emit(code.JMP, 0, 0)
	// The main program's declarations live at level 0; only a
	// procedure block opens a nested scope.
	if procIndex >= 0 {
		p.sym.EnterScope()
	}

	if p.check(token.Const) {
		p.parseConstDecl()
	}

	var arrayIndices []int
	if p.check(token.Var) {
		p.parseVarDecl(&dataOffset, &arrayIndices)
	}

	for p.check(token.Procedure) {
		p.parseProcDecl()
		if p.check(token.Semicolon) {
			p.advance()
		}
	}

	p.code.Backpatch(jmpAddr, p.code.NextAddr())

	if procIndex >= 0 {
		p.sym.SetAddress(procIndex, p.code.NextAddr())
	}

	p.emit(code.INT, 0, dataOffset)
	p.initArrays(arrayIndices)

	p.parseBody()
	p.emit(code.OPR, 0, int(code.Ret))

	if procIndex >= 0 {
		p.sym.LeaveScope()
	}
	p.tempOffset = oldTemp
}

// initArrays emits the heap allocation and descriptor initialization
// for every array declared directly in the block just parsed.
func (p *Parser) initArrays(indices []int) {
	for _, idx := range indices {
		sym := p.sym.Symbol(idx)
		p.emit(code.LIT, 0, sym.Size)
		p.emit(code.NEW, 0, 0)
		p.emit(code.STO, 0, sym.Address)
		p.emit(code.LIT, 0, sym.Size)
		p.emit(code.STO, 0, sym.Address+1)
	}
}

func (p *Parser) parseConstDecl() {
	p.advance() // 'const'
	for {
		p.expect(token.Ident, "expected constant name")
		name := p.prev.Lexeme
		nameTok := p.prev

		p.expect(token.Assign, "expected ':='")

		sign := 1
		if p.match(token.Plus) {
			sign = 1
		} else if p.match(token.Minus) {
			sign = -1
		}

		p.expect(token.Number, "expected integer")
		value := sign * int(p.prev.Value)

		idx := p.sym.Register(name, symtab.Constant, 0)
		if idx < 0 {
			p.diag.ErrorAt(nameTok, "duplicate identifier: %s", name)
		} else {
			p.sym.SetValue(idx, value)
		}

		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.Semicolon, "expected ';'")
}

func (p *Parser) parseVarDecl(dataOffset *int, arrayIndices *[]int) {
	p.advance() // 'var'
	for {
		p.expect(token.Ident, "expected variable name")
		name := p.prev.Lexeme
		nameTok := p.prev

		switch {
		case p.match(token.Colon):
			switch {
			case p.cur.Kind == token.Ident && p.cur.Lexeme == "pointer":
				p.advance()
				if idx := p.sym.Register(name, symtab.Pointer, *dataOffset); idx < 0 {
					p.diag.ErrorAt(nameTok, "duplicate identifier: %s", name)
				}
				*dataOffset++
			case p.cur.Kind == token.Ident && p.cur.Lexeme == "integer":
				p.advance()
				if idx := p.sym.Register(name, symtab.Variable, *dataOffset); idx < 0 {
					p.diag.ErrorAt(nameTok, "duplicate identifier: %s", name)
				}
				*dataOffset++
			default:
				p.diag.ErrorAt(p.cur, "expected type 'pointer' or 'integer'")
			}
		case p.match(token.LBracket):
			p.expect(token.Number, "expected array size")
			size := int(p.prev.Value)
			if size <= 0 {
				p.diag.ErrorAt(p.prev, "array size must be positive")
				size = 1
			}
			p.expect(token.RBracket, "expected ']'")

			idx := p.sym.Register(name, symtab.Array, *dataOffset)
			if idx < 0 {
				p.diag.ErrorAt(nameTok, "duplicate identifier: %s", name)
			} else {
				p.sym.SetSize(idx, size)
				*arrayIndices = append(*arrayIndices, idx)
			}
			*dataOffset += 2
		default:
			if idx := p.sym.Register(name, symtab.Variable, *dataOffset); idx < 0 {
				p.diag.ErrorAt(nameTok, "duplicate identifier: %s", name)
			}
			*dataOffset++
		}

		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.Semicolon, "expected ';'")
}

func (p *Parser) parseProcDecl() {
	p.advance() // 'procedure'

	p.expect(token.Ident, "expected procedure name")
	name := p.prev.Lexeme
	nameTok := p.prev

	procIdx := p.sym.Register(name, symtab.Procedure, 0)
	if procIdx < 0 {
		p.diag.ErrorAt(nameTok, "duplicate identifier: %s", name)
		procIdx = p.sym.Size() - 1
	}

	p.expect(token.LParen, "expected '('")

	var paramNames []string
	if !p.check(token.RParen) {
		for {
			p.expect(token.Ident, "expected parameter name")
			paramNames = append(paramNames, p.prev.Lexeme)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	paramCount := len(paramNames)

	p.expect(token.RParen, "expected ')'")

	if procIdx >= 0 && procIdx < p.sym.Size() {
		p.sym.SetParamCount(procIdx, paramCount)
	}

	p.expect(token.Semicolon, "expected ';'")

	jmpAddr := p.emit(code.JMP, 0, 0)

	p.sym.EnterScope()

	for i, pname := range paramNames {
		if idx := p.sym.Register(pname, symtab.Variable, 3+i); idx < 0 {
			p.diag.ErrorAt(nameTok, "duplicate parameter: %s", pname)
		}
	}

	oldTemp := p.tempOffset
	p.tempOffset = 3 + paramCount
	dataOffset := p.tempOffset + 1

	if p.check(token.Const) {
		p.parseConstDecl()
	}

	var arrayIndices []int
	if p.check(token.Var) {
		p.parseVarDecl(&dataOffset, &arrayIndices)
	}

	for p.check(token.Procedure) {
		p.parseProcDecl()
		if p.check(token.Semicolon) {
			p.advance()
		}
	}

	if procIdx >= 0 && procIdx < p.sym.Size() {
		p.sym.SetAddress(procIdx, p.code.NextAddr())
	}
	p.code.Backpatch(jmpAddr, p.code.NextAddr())

	p.emit(code.INT, 0, dataOffset)
	p.initArrays(arrayIndices)

	p.parseBody()
	p.emit(code.OPR, 0, int(code.Ret))

	p.sym.LeaveScope()
	p.tempOffset = oldTemp
}

func (p *Parser) parseBody() {
	p.expect(token.Begin, "expected 'begin'")
	p.parseStatement()
	for p.match(token.Semicolon) {
		p.parseStatement()
	}
	p.expect(token.End, "expected 'end'")
}

func (p *Parser) parseStatement() {
	switch {
	case p.check(token.Ident):
		p.advance()
		p.parseAssignOrArrayAssign()
	case p.check(token.If):
		p.parseIfStatement()
	case p.check(token.While):
		p.parseWhileStatement()
	case p.check(token.For):
		p.parseForStatement()
	case p.check(token.Call):
		p.parseCallStatement()
	case p.check(token.Read):
		p.parseReadStatement()
	case p.check(token.Write):
		p.parseWriteStatement()
	case p.check(token.New):
		p.parseNewStatement()
	case p.check(token.Delete):
		p.parseDeleteStatement()
	case p.check(token.Star):
		// Pointer assignment: *expr := expr
		p.advance()
		p.parseExpression()
		p.expect(token.Assign, "expected ':='")
		p.parseExpression()
		p.emit(code.STO, 0, 0)
	case p.check(token.Begin):
		p.parseBody()
	}
	// Empty statement is also valid.
}

func (p *Parser) parseIfStatement() {
	p.advance() // 'if'
	p.parseCondition()
	p.expect(token.Then, "expected 'then'")

	jpcAddr := p.emit(code.JPC, 0, 0)
	p.parseStatement()

	if p.match(token.Else) {
		jmpAddr := p.emit(code.JMP, 0, 0)
		p.code.Backpatch(jpcAddr, p.code.NextAddr())
		p.parseStatement()
		p.code.Backpatch(jmpAddr, p.code.NextAddr())
	} else {
		p.code.Backpatch(jpcAddr, p.code.NextAddr())
	}
}

func (p *Parser) parseWhileStatement() {
	p.advance() // 'while'
	loopStart := p.code.NextAddr()

	p.parseCondition()
	p.expect(token.Do, "expected 'do'")

	jpcAddr := p.emit(code.JPC, 0, 0)
	p.parseStatement()
	p.emit(code.JMP, 0, loopStart)
	p.code.Backpatch(jpcAddr, p.code.NextAddr())
}

func (p *Parser) parseForStatement() {
	p.advance() // 'for'

	p.expect(token.Ident, "expected loop variable")
	varName := p.prev.Lexeme
	varTok := p.prev

	varIdx := p.sym.Lookup(varName)
	if varIdx < 0 {
		p.diag.ErrorAt(varTok, "undefined identifier: %s", varName)
		p.synchronize()
		return
	}
	varSym := p.sym.Symbol(varIdx)
	if varSym.Kind != symtab.Variable {
		p.diag.ErrorAt(varTok, "loop variable must be a variable")
	}

	p.expect(token.Assign, "expected ':='")
	p.parseExpression()

	levelDiff := p.sym.Level() - varSym.Level
	p.emit(code.STO, levelDiff, varSym.Address)

	isDownto := false
	switch {
	case p.match(token.To):
		isDownto = false
	case p.match(token.Downto):
		isDownto = true
	default:
		p.diag.ErrorAt(p.cur, "expected 'to' or 'downto'")
		p.synchronize()
		return
	}

	loopStart := p.code.NextAddr()
	p.emit(code.LOD, levelDiff, varSym.Address)

	// The end value is re-evaluated on every iteration: it may depend
	// on mutable state, matching the reference implementation.
	p.parseExpression()

	if isDownto {
		p.emit(code.OPR, 0, int(code.Geq))
	} else {
		p.emit(code.OPR, 0, int(code.Leq))
	}
	exitJpc := p.emit(code.JPC, 0, 0)

	p.expect(token.Do, "expected 'do'")
	p.parseStatement()

	p.emit(code.LOD, levelDiff, varSym.Address)
	p.emit(code.LIT, 0, 1)
	if isDownto {
		p.emit(code.OPR, 0, int(code.Sub))
	} else {
		p.emit(code.OPR, 0, int(code.Add))
	}
	p.emit(code.STO, levelDiff, varSym.Address)
	p.emit(code.JMP, 0, loopStart)

	p.code.Backpatch(exitJpc, p.code.NextAddr())
}

func (p *Parser) parseCallStatement() {
	p.advance() // 'call'

	p.expect(token.Ident, "expected procedure name")
	procName := p.prev.Lexeme
	procTok := p.prev

	idx := p.sym.Lookup(procName)
	if idx < 0 {
		p.diag.ErrorAt(procTok, "undefined procedure: %s", procName)
		p.synchronize()
		return
	}
	procSym := p.sym.Symbol(idx)
	if procSym.Kind != symtab.Procedure {
		p.diag.ErrorAt(procTok, "'%s' is not a procedure", procName)
		p.synchronize()
		return
	}

	p.expect(token.LParen, "expected '('")

	p.emit(code.INT, 0, 3) // reserve SL/DL/RA

	argCount := 0
	if !p.check(token.RParen) {
		for {
			p.parseExpression()
			argCount++
			if !p.match(token.Comma) {
				break
			}
		}
	}

	p.expect(token.RParen, "expected ')'")

	if argCount != procSym.ParamCount {
		p.diag.ErrorAt(procTok, "argument count mismatch: expected %d, got %d", procSym.ParamCount, argCount)
	}

	p.emit(code.LIT, 0, argCount)
	levelDiff := p.sym.Level() - procSym.Level
	p.emit(code.CAL, levelDiff, procSym.Address)
}

func (p *Parser) parseReadStatement() {
	p.advance() // 'read'
	p.expect(token.LParen, "expected '('")

	for {
		p.expect(token.Ident, "expected variable name")
		name := p.prev.Lexeme
		nameTok := p.prev

		idx := p.sym.Lookup(name)
		if idx < 0 {
			p.diag.ErrorAt(nameTok, "undefined identifier: %s", name)
			if !p.match(token.Comma) {
				break
			}
			continue
		}
		sym := p.sym.Symbol(idx)
		levelDiff := p.sym.Level() - sym.Level

		if p.check(token.LBracket) {
			if sym.Kind != symtab.Array {
				p.diag.ErrorAt(nameTok, "'%s' is not an array", name)
			}
			p.parseArrayElementAddress(sym)
			p.emit(code.RED, 0, 0)
		} else {
			if sym.Kind != symtab.Variable && sym.Kind != symtab.Pointer {
				p.diag.ErrorAt(nameTok, "'%s' is not a variable", name)
				if !p.match(token.Comma) {
					break
				}
				continue
			}
			p.emit(code.RED, levelDiff, sym.Address)
		}

		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, "expected ')'")
}

func (p *Parser) parseWriteStatement() {
	p.advance() // 'write'
	p.expect(token.LParen, "expected '('")
	for {
		p.parseExpression()
		p.emit(code.WRT, 0, 0)
		if !p.match(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, "expected ')'")
}

func (p *Parser) parseNewStatement() {
	p.advance() // 'new'
	p.expect(token.LParen, "expected '('")

	p.expect(token.Ident, "expected variable name")
	name := p.prev.Lexeme
	nameTok := p.prev

	idx := p.sym.Lookup(name)
	if idx < 0 {
		p.diag.ErrorAt(nameTok, "undefined identifier: %s", name)
	}

	p.expect(token.Comma, "expected ','")
	p.parseExpression()
	p.expect(token.RParen, "expected ')'")

	p.emit(code.NEW, 0, 0)

	if idx >= 0 {
		sym := p.sym.Symbol(idx)
		if sym.Kind != symtab.Variable && sym.Kind != symtab.Pointer {
			p.diag.ErrorAt(nameTok, "'%s' is not a variable or pointer", name)
		} else {
			levelDiff := p.sym.Level() - sym.Level
			p.emit(code.STO, levelDiff, sym.Address)
		}
	}
}

func (p *Parser) parseDeleteStatement() {
	p.advance() // 'delete'
	p.expect(token.LParen, "expected '('")

	p.expect(token.Ident, "expected variable name")
	name := p.prev.Lexeme
	nameTok := p.prev

	idx := p.sym.Lookup(name)
	if idx >= 0 {
		sym := p.sym.Symbol(idx)
		if sym.Kind != symtab.Variable && sym.Kind != symtab.Pointer {
			p.diag.ErrorAt(nameTok, "'%s' is not a variable or pointer", name)
		} else {
			levelDiff := p.sym.Level() - sym.Level
			p.emit(code.LOD, levelDiff, sym.Address)
			p.emit(code.DEL, 0, 0)
		}
	} else {
		p.diag.ErrorAt(nameTok, "undefined identifier: %s", name)
	}

	p.expect(token.RParen, "expected ')'")
}

func (p *Parser) parseAssignOrArrayAssign() {
	name := p.prev.Lexeme
	idTok := p.prev

	idx := p.sym.Lookup(name)
	if idx < 0 {
		p.diag.ErrorAt(idTok, "undefined identifier: %s", name)
		p.synchronize()
		return
	}
	sym := p.sym.Symbol(idx)
	levelDiff := p.sym.Level() - sym.Level

	if p.check(token.LBracket) {
		p.parseArrayElementAddress(sym)
		p.expect(token.Assign, "expected ':='")
		p.parseExpression()
		p.emit(code.STO, 0, 0)
		return
	}

	if sym.Kind != symtab.Variable && sym.Kind != symtab.Pointer {
		p.diag.ErrorAt(idTok, "cannot assign to constant, procedure, or array (without index)")
	}

	p.expect(token.Assign, "expected ':='")
	p.parseExpression()
	p.emit(code.STO, levelDiff, sym.Address)
}

// parseArrayElementAddress parses "[expr]" and leaves the element's
// absolute store address on top of the stack. Declared arrays get a
// runtime bounds check; a pointer or plain variable used as a base
// address does not.
func (p *Parser) parseArrayElementAddress(sym *symtab.Symbol) {
	if sym.Kind != symtab.Array && sym.Kind != symtab.Pointer && sym.Kind != symtab.Variable {
		p.diag.ErrorAt(p.cur, "identifier cannot be indexed")
	}

	levelDiff := p.sym.Level() - sym.Level

	p.emit(code.LOD, levelDiff, sym.Address)

	p.expect(token.LBracket, "expected '['")
	p.parseExpression()
	p.expect(token.RBracket, "expected ']'")

	if sym.Kind != symtab.Array {
		p.emit(code.OPR, 0, int(code.Add))
		return
	}

	p.emit(code.STO, 0, p.tempOffset)

	p.emit(code.LOD, 0, p.tempOffset)
	p.emit(code.LIT, 0, 0)
	p.emit(code.OPR, 0, int(code.Geq))
	jpcFail1 := p.emit(code.JPC, 0, 0)

	p.emit(code.LOD, 0, p.tempOffset)
	p.emit(code.LOD, levelDiff, sym.Address+1)
	p.emit(code.OPR, 0, int(code.Lss))
	jpcFail2 := p.emit(code.JPC, 0, 0)

	p.emit(code.LOD, 0, p.tempOffset)
	p.emit(code.OPR, 0, int(code.Add))
	jumpOverError := p.emit(code.JMP, 0, 0)

	errAddr := p.code.NextAddr()
	p.code.Backpatch(jpcFail1, errAddr)
	p.code.Backpatch(jpcFail2, errAddr)

	// Out-of-bounds trap: deliberately triggers a division by zero so
	// the interpreter surfaces it through its normal runtime error path.
	p.emit(code.LIT, 0, 0)
	p.emit(code.LIT, 0, 0)
	p.emit(code.OPR, 0, int(code.Div))

	p.code.Backpatch(jumpOverError, p.code.NextAddr())
}

func (p *Parser) parseCondition() {
	if p.match(token.Odd) {
		p.parseExpression()
		p.emit(code.OPR, 0, int(code.Odd))
		return
	}

	p.parseExpression()

	var opr code.Opr
	switch {
	case p.match(token.Eq):
		opr = code.Eql
	case p.match(token.Neq):
		opr = code.Neq
	case p.match(token.Lt):
		opr = code.Lss
	case p.match(token.Leq):
		opr = code.Leq
	case p.match(token.Gt):
		opr = code.Gtr
	case p.match(token.Geq):
		opr = code.Geq
	default:
		p.diag.ErrorAt(p.cur, "expected relational operator")
		return
	}

	p.parseExpression()
	p.emit(code.OPR, 0, int(opr))
}

func (p *Parser) parseExpression() {
	negate := false
	switch {
	case p.match(token.Plus):
	case p.match(token.Minus):
		negate = true
	}

	p.parseTerm()
	if negate {
		p.emit(code.OPR, 0, int(code.Neg))
	}

	for p.check(token.Plus) || p.check(token.Minus) {
		op := p.cur.Kind
		p.advance()
		p.parseTerm()
		if op == token.Plus {
			p.emit(code.OPR, 0, int(code.Add))
		} else {
			p.emit(code.OPR, 0, int(code.Sub))
		}
	}
}

func (p *Parser) parseTerm() {
	p.parseFactor()
	for p.check(token.Star) || p.check(token.Slash) || p.check(token.Mod) {
		op := p.cur.Kind
		p.advance()
		p.parseFactor()
		switch op {
		case token.Star:
			p.emit(code.OPR, 0, int(code.Mul))
		case token.Slash:
			p.emit(code.OPR, 0, int(code.Div))
		default:
			p.emit(code.OPR, 0, int(code.Mod))
		}
	}
}

func (p *Parser) parseFactor() {
	switch {
	case p.cur.Kind == token.Star:
		p.advance()
		p.parseFactor()
		p.emit(code.LOD, 0, 0)

	case p.cur.Kind == token.Addr:
		p.advance()
		p.expect(token.Ident, "expected identifier after '&'")
		name := p.prev.Lexeme
		nameTok := p.prev

		idx := p.sym.Lookup(name)
		if idx < 0 {
			p.diag.ErrorAt(nameTok, "undefined identifier: %s", name)
			return
		}
		sym := p.sym.Symbol(idx)
		levelDiff := p.sym.Level() - sym.Level

		switch {
		case p.check(token.LBracket):
			p.parseArrayElementAddress(sym)
		case sym.Kind == symtab.Variable || sym.Kind == symtab.Pointer:
			p.emit(code.LAD, levelDiff, sym.Address)
		case sym.Kind == symtab.Array:
			p.emit(code.LOD, levelDiff, sym.Address)
		default:
			p.diag.ErrorAt(nameTok, "cannot take address of this symbol")
		}

	case p.match(token.Ident):
		name := p.prev.Lexeme
		idTok := p.prev

		idx := p.sym.Lookup(name)
		if idx < 0 {
			p.diag.ErrorAt(idTok, "undefined identifier: %s", name)
			return
		}
		sym := p.sym.Symbol(idx)
		levelDiff := p.sym.Level() - sym.Level

		if p.check(token.LBracket) {
			p.parseArrayElementAddress(sym)
			p.emit(code.LOD, 0, 0)
			return
		}

		switch sym.Kind {
		case symtab.Constant:
			p.emit(code.LIT, 0, sym.Value)
		case symtab.Variable, symtab.Pointer:
			p.emit(code.LOD, levelDiff, sym.Address)
		case symtab.Array:
			p.diag.ErrorAt(idTok, "cannot use array '%s' without subscript", name)
		default:
			p.diag.ErrorAt(idTok, "invalid identifier type")
		}

	case p.match(token.Number):
		p.emit(code.LIT, 0, int(p.prev.Value))

	case p.match(token.LParen):
		p.parseExpression()
		p.expect(token.RParen, "expected ')'")

	default:
		p.diag.ErrorAt(p.cur, "unexpected token in expression")
		p.advance()
	}
}
