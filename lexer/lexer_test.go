package lexer

import (
	"testing"

	"github.com/pl0ext/plc/source"
	"github.com/pl0ext/plc/token"
)

func tokenize(t *testing.T, text string) ([]token.Token, *source.Diagnostics) {
	t.Helper()
	buf := source.NewBuffer("t.pl0", text)
	diag := source.NewDiagnostics(buf, nil)
	return Tokenize(buf, diag), diag
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks, diag := tokenize(t, "program foo123")
	if diag.HasErrors() {
		t.Fatalf("unexpected errors: %v", diag.Records())
	}
	want := []token.Kind{token.Program, token.Ident, token.EOF}
	if got := kinds(toks); !equalKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if toks[1].Lexeme != "foo123" {
		t.Errorf("lexeme = %q, want foo123", toks[1].Lexeme)
	}
}

func TestNumberOverflow(t *testing.T) {
	toks, diag := tokenize(t, "99999999999")
	if !diag.HasErrors() {
		t.Fatal("expected overflow diagnostic")
	}
	if toks[0].Kind != token.Number || toks[0].Value != 0 {
		t.Errorf("got %+v, want folded-to-zero Number", toks[0])
	}
}

func TestOperators(t *testing.T) {
	toks, diag := tokenize(t, ":= <= <> >= & : < >")
	if diag.HasErrors() {
		t.Fatalf("unexpected errors: %v", diag.Records())
	}
	want := []token.Kind{
		token.Assign, token.Leq, token.Neq, token.Geq, token.Addr,
		token.Colon, token.Lt, token.Gt, token.EOF,
	}
	if got := kinds(toks); !equalKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
}

func TestComments(t *testing.T) {
	src := "a // line comment\nb /* block\ncomment */ c { pascal } d"
	toks, diag := tokenize(t, src)
	if diag.HasErrors() {
		t.Fatalf("unexpected errors: %v", diag.Records())
	}
	want := []token.Kind{token.Ident, token.Ident, token.Ident, token.Ident, token.EOF}
	if got := kinds(toks); !equalKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
}

func TestUnclosedBlockComment(t *testing.T) {
	_, diag := tokenize(t, "a /* never closed")
	if !diag.HasErrors() {
		t.Fatal("expected unclosed comment diagnostic")
	}
}

func TestUnknownRunMerged(t *testing.T) {
	toks, diag := tokenize(t, "a @@@ b")
	if diag.ErrorCount() != 1 {
		t.Fatalf("expected exactly one diagnostic for the illegal run, got %d", diag.ErrorCount())
	}
	want := []token.Kind{token.Ident, token.Unknown, token.Ident, token.EOF}
	if got := kinds(toks); !equalKinds(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if toks[1].Lexeme != "@@@" {
		t.Errorf("unknown lexeme = %q, want @@@", toks[1].Lexeme)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	buf := source.NewBuffer("t.pl0", "a b")
	diag := source.NewDiagnostics(buf, nil)
	l := New(buf, diag)

	p1 := l.Peek()
	p2 := l.Peek()
	if p1 != p2 {
		t.Fatalf("Peek() not idempotent: %v != %v", p1, p2)
	}
	n1 := l.Next()
	if n1 != p1 {
		t.Fatalf("Next() after Peek() = %v, want %v", n1, p1)
	}
	n2 := l.Next()
	if n2.Lexeme != "b" {
		t.Fatalf("Next() = %v, want lexeme b", n2)
	}
}

func TestColumnsCountCharactersNotBytes(t *testing.T) {
	// "café" has 4 characters but 5 UTF-8 bytes; the token following it
	// should still be reported at column 6, not column 7.
	toks, _ := tokenize(t, "café x")
	if toks[0].Length != 4 {
		t.Errorf("length = %d, want 4", toks[0].Length)
	}
	if toks[1].Column != 6 {
		t.Errorf("column = %d, want 6", toks[1].Column)
	}
}

func equalKinds(a, b []token.Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
