// Package token defines the lexical token kinds produced by the lexer
// and consumed by the parser.
package token

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

// Token kinds. Order is not significant, unlike the scanner's own
// symbol table in the teacher package this one is modelled after.
const (
	EOF Kind = iota
	Unknown

	Ident
	Number

	// Keywords
	Program
	Const
	Var
	Procedure
	Begin
	End
	If
	Then
	Else
	While
	Do
	For
	To
	Downto
	Call
	Read
	Write
	Odd
	Mod
	New
	Delete

	// Operators
	Plus
	Minus
	Star
	Slash
	Eq
	Neq
	Lt
	Leq
	Gt
	Geq
	Assign
	Addr // &

	// Delimiters
	LParen
	RParen
	LBracket
	RBracket
	Comma
	Semicolon
	Period
	Colon
)

var names = map[Kind]string{
	EOF:       "eof",
	Unknown:   "unknown",
	Ident:     "identifier",
	Number:    "number",
	Program:   "program",
	Const:     "const",
	Var:       "var",
	Procedure: "procedure",
	Begin:     "begin",
	End:       "end",
	If:        "if",
	Then:      "then",
	Else:      "else",
	While:     "while",
	Do:        "do",
	For:       "for",
	To:        "to",
	Downto:    "downto",
	Call:      "call",
	Read:      "read",
	Write:     "write",
	Odd:       "odd",
	Mod:       "mod",
	New:       "new",
	Delete:    "delete",
	Plus:      "+",
	Minus:     "-",
	Star:      "*",
	Slash:     "/",
	Eq:        "=",
	Neq:       "<>",
	Lt:        "<",
	Leq:       "<=",
	Gt:        ">",
	Geq:       ">=",
	Assign:    ":=",
	Addr:      "&",
	LParen:    "(",
	RParen:    ")",
	LBracket:  "[",
	RBracket:  "]",
	Comma:     ",",
	Semicolon: ";",
	Period:    ".",
	Colon:     ":",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Keywords maps a lowercase keyword lexeme to its Kind. Identifiers not
// found here are Ident.
var Keywords = map[string]Kind{
	"program":   Program,
	"const":     Const,
	"var":       Var,
	"procedure": Procedure,
	"begin":     Begin,
	"end":       End,
	"if":        If,
	"then":      Then,
	"else":      Else,
	"while":     While,
	"do":        Do,
	"for":       For,
	"to":        To,
	"downto":    Downto,
	"call":      Call,
	"read":      Read,
	"write":     Write,
	"odd":       Odd,
	"mod":       Mod,
	"new":       New,
	"delete":    Delete,
}

// Token is an immutable lexical unit produced by the lexer. Column and
// Length are counted in user-visible characters, not bytes.
type Token struct {
	Kind    Kind
	Lexeme  string // UTF-8 bytes of the token text
	Value   int32  // valid for Number
	Line    int    // 1-based
	Column  int    // 1-based, character count
	Length  int    // character count, for caret/tilde diagnostics
}

// Pos implements source.Pos so a Token can be passed directly to
// Diagnostics.ErrorAt.
func (t Token) Pos() (line, col, length int) {
	return t.Line, t.Column, t.Length
}

func (t Token) String() string {
	if t.Kind == Ident || t.Kind == Number {
		return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Lexeme, t.Line, t.Column)
	}
	return fmt.Sprintf("%s@%d:%d", t.Kind, t.Line, t.Column)
}
