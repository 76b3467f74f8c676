package bytecode

import (
	"bytes"
	"testing"

	"github.com/pl0ext/plc/code"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	prog := []code.Instruction{
		{Op: code.LIT, L: 0, A: 42, Line: 1},
		{Op: code.LOD, L: 2, A: -7, Line: 3},
		{Op: code.OPR, L: 0, A: int(code.Add), Line: 4},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, prog); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(prog) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(prog))
	}
	for i := range prog {
		if got[i] != prog[i] {
			t.Errorf("instruction %d = %+v, want %+v", i, got[i], prog[i])
		}
	}
}

func TestEncodeEmptyProgram(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len(got) = %d, want 0", len(got))
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("XXXX")
	if _, err := Decode(buf); err == nil {
		t.Fatal("expected an error for a non-object-file header")
	}
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	var buf bytes.Buffer
	Encode(&buf, []code.Instruction{{Op: code.LIT, A: 1}})
	truncated := bytes.NewReader(buf.Bytes()[:3])
	if _, err := Decode(truncated); err == nil {
		t.Fatal("expected an error for truncated input")
	}
}
