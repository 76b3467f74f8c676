package parser

import (
	"testing"

	"github.com/pl0ext/plc/code"
	"github.com/pl0ext/plc/lexer"
	"github.com/pl0ext/plc/source"
	"github.com/pl0ext/plc/symtab"
	"github.com/pl0ext/plc/vm"
)

func compile(t *testing.T, src string) ([]code.Instruction, *symtab.Table, *source.Diagnostics) {
	t.Helper()
	buf := source.NewBuffer("t.pl0", src)
	diag := source.NewDiagnostics(buf, nil)
	sym := symtab.New()
	builder := code.NewBuilder()
	lx := lexer.New(buf, diag)
	p := New(lx, sym, builder, diag)
	p.Parse()
	return builder.Code(), sym, diag
}

func runProgram(t *testing.T, src string) (*vm.Interpreter, []int) {
	t.Helper()
	prog, sym, diag := compile(t, src)
	if diag.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", diag.Records())
	}
	interp := vm.New(prog)
	interp.SetSymbolTable(sym)
	var out []int
	interp.SetOutputFunc(func(v int) { out = append(out, v) })
	interp.Run()
	return interp, out
}

func TestArithmeticExpression(t *testing.T) {
	src := `program p;
var x;
begin
    x := 2 + 3 * 4;
    write(x)
end`
	interp, out := runProgram(t, src)
	if interp.HasError() {
		t.Fatalf("runtime error: %s", interp.Error())
	}
	if len(out) != 1 || out[0] != 14 {
		t.Fatalf("output = %v, want [14]", out)
	}
}

func TestLoopSum(t *testing.T) {
	src := `program p;
var i, sum;
begin
    sum := 0;
    for i := 1 to 10 do
        sum := sum + i;
    write(sum)
end`
	interp, out := runProgram(t, src)
	if interp.HasError() {
		t.Fatalf("runtime error: %s", interp.Error())
	}
	if len(out) != 1 || out[0] != 55 {
		t.Fatalf("output = %v, want [55]", out)
	}
}

func TestRecursiveFactorial(t *testing.T) {
	src := `program p;
var result;

procedure fact(n);
begin
    if n <= 1 then
        result := 1
    else begin
        call fact(n - 1);
        result := result * n
    end
end;

begin
    call fact(5);
    write(result)
end`
	interp, out := runProgram(t, src)
	if interp.HasError() {
		t.Fatalf("runtime error: %s", interp.Error())
	}
	if len(out) != 1 || out[0] != 120 {
		t.Fatalf("output = %v, want [120]", out)
	}
}

func TestArrayDeclarationAndInBoundsAccess(t *testing.T) {
	src := `program p;
var a[3];
begin
    a[0] := 10;
    a[1] := 20;
    write(a[0] + a[1])
end`
	interp, out := runProgram(t, src)
	if interp.HasError() {
		t.Fatalf("runtime error: %s", interp.Error())
	}
	if len(out) != 1 || out[0] != 30 {
		t.Fatalf("output = %v, want [30]", out)
	}
}

func TestArrayOutOfBoundsTrapsAtRuntime(t *testing.T) {
	src := `program p;
var a[3];
begin
    a[5] := 1
end`
	interp, _ := runProgram(t, src)
	if !interp.HasError() {
		t.Fatal("expected a runtime error from the out-of-bounds access")
	}
}

func TestHeapAllocAndFree(t *testing.T) {
	src := `program p;
var p1: pointer;
begin
    new(p1, 4);
    *p1 := 99;
    write(*p1);
    delete(p1)
end`
	interp, out := runProgram(t, src)
	if interp.HasError() {
		t.Fatalf("runtime error: %s", interp.Error())
	}
	if len(out) != 1 || out[0] != 99 {
		t.Fatalf("output = %v, want [99]", out)
	}
}

func TestArgumentCountMismatchIsDiagnosticNotAbort(t *testing.T) {
	src := `program p;

procedure add(a, b);
begin
    write(a + b)
end;

begin
    call add(1)
end`
	_, _, diag := compile(t, src)
	if diag.ErrorCount() == 0 {
		t.Fatal("expected an argument count mismatch diagnostic")
	}
}

func TestDuplicateIdentifierDiagnostic(t *testing.T) {
	src := `program p;
var x, x;
begin
    x := 1
end`
	_, _, diag := compile(t, src)
	if !diag.HasErrors() {
		t.Fatal("expected a duplicate identifier diagnostic")
	}
}

func TestUndefinedIdentifierDiagnostic(t *testing.T) {
	src := `program p;
begin
    y := 1
end`
	_, _, diag := compile(t, src)
	if !diag.HasErrors() {
		t.Fatal("expected an undefined identifier diagnostic")
	}
}
