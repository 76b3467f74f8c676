package token

import (
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	cases := []struct {
		k    Kind
		want string
	}{
		{Program, "program"},
		{Assign, ":="},
		{Neq, "<>"},
		{Addr, "&"},
	}
	for _, c := range cases {
		if got := c.k.String(); got != c.want {
			t.Errorf("Kind(%d).String() = %q, want %q", c.k, got, c.want)
		}
	}
}

func TestKindStringUnknownFallsBack(t *testing.T) {
	k := Kind(9999)
	if got := k.String(); got == "" {
		t.Errorf("expected non-empty fallback string, got %q", got)
	}
}

func TestKeywordsLowercaseOnly(t *testing.T) {
	for kw, kind := range Keywords {
		if kw == "" {
			t.Fatalf("empty keyword mapped to %v", kind)
		}
		if kw != strings.ToLower(kw) {
			t.Errorf("keyword %q mapped to %v is not lowercase", kw, kind)
		}
	}
	if _, ok := Keywords["begin"]; !ok {
		t.Error("expected 'begin' to be a keyword")
	}
	if _, ok := Keywords["notakeyword"]; ok {
		t.Error("did not expect 'notakeyword' to be registered")
	}
}

func TestTokenString(t *testing.T) {
	tok := Token{Kind: Ident, Lexeme: "x", Line: 3, Column: 5}
	s := tok.String()
	if s == "" {
		t.Fatal("expected non-empty String()")
	}
}

func TestTokenPos(t *testing.T) {
	tok := Token{Line: 2, Column: 7, Length: 3}
	line, col, length := tok.Pos()
	if line != 2 || col != 7 || length != 3 {
		t.Errorf("Pos() = (%d,%d,%d), want (2,7,3)", line, col, length)
	}
}
