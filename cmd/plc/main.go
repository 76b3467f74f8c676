// Command plc compiles and runs a PL/0-ext source file.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pl0ext/plc/bytecode"
	"github.com/pl0ext/plc/code"
	"github.com/pl0ext/plc/lexer"
	"github.com/pl0ext/plc/optimizer"
	"github.com/pl0ext/plc/parser"
	"github.com/pl0ext/plc/source"
	"github.com/pl0ext/plc/symtab"
	"github.com/pl0ext/plc/vm"
)

// objectExt is the extension used for compiled p-code object files
// produced by -c and recognized as pre-compiled input.
const objectExt = ".plo"

func usage() {
	printVersion()
	fail(`
Compiles and runs a PL/0-ext source file, or a previously compiled
` + objectExt + ` object file.

Usage:
    plc [-trace] [-noopt] [-store=N] file.pl0
    plc -c [-noopt] -o file.plo file.pl0
    plc [-trace] [-store=N] file.plo

Flags:
    -trace   print an instruction trace while the program runs
    -noopt   skip the optimizer pass
    -store   store size in cells (default 10000)
    -c       compile only; write a ` + objectExt + ` object file instead of running
    -o       object file path used with -c (default: input with ` + objectExt + `)

Examples:
    plc hello.pl0
    plc -trace loop.pl0
    plc -c -o loop.plo loop.pl0
    plc loop.plo`)
}

func main() {
	trace := flag.Bool("trace", false, "print an instruction trace while running")
	noOpt := flag.Bool("noopt", false, "skip the optimizer pass")
	storeSize := flag.Int("store", vm.DefaultStoreSize, "store size in cells")
	compileOnly := flag.Bool("c", false, "compile only, writing an object file")
	outPath := flag.String("o", "", "object file path, used with -c")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
	}

	printVersion()
	path := flag.Arg(0)

	if *compileOnly {
		check(compileToObject(path, !*noOpt, *outPath))
		return
	}
	check(run(path, *trace, !*noOpt, *storeSize))
}

// compile parses and optionally optimizes a .pl0 source file, returning
// the resulting program and the symbol table used for debugging.
func compile(path string, optimize bool) ([]code.Instruction, *symtab.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	buf, err := source.Load(path, f)
	if err != nil {
		return nil, nil, err
	}

	diag := source.NewDiagnostics(buf, os.Stderr)
	sym := symtab.New()
	builder := code.NewBuilder()
	lx := lexer.New(buf, diag)
	p := parser.New(lx, sym, builder, diag)

	if !p.Parse() {
		return nil, nil, fmt.Errorf("%d error(s), %d warning(s)", diag.ErrorCount(), diag.WarningCount())
	}

	prog := builder.Code()
	if optimize {
		prog = optimizer.Optimize(prog)
	}
	return prog, sym, nil
}

func compileToObject(path string, optimize bool, outPath string) error {
	prog, _, err := compile(path, optimize)
	if err != nil {
		return err
	}
	if outPath == "" {
		outPath = strings.TrimSuffix(path, ".pl0") + objectExt
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return bytecode.Encode(out, prog)
}

func run(path string, trace, optimize bool, storeSize int) error {
	var prog []code.Instruction
	var sym *symtab.Table

	if strings.HasSuffix(path, objectExt) {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		prog, err = bytecode.Decode(f)
		if err != nil {
			return err
		}
	} else {
		var err error
		prog, sym, err = compile(path, optimize)
		if err != nil {
			return err
		}
	}

	interp := vm.New(prog)
	interp.SetSymbolTable(sym)
	interp.SetStoreSize(storeSize)
	interp.EnableTrace(trace)
	interp.SetInput(os.Stdin)
	interp.SetOutput(os.Stdout)

	interp.Run()
	if interp.HasError() {
		return fmt.Errorf("runtime error: %s", interp.Error())
	}
	return nil
}

func printVersion() {
	fmt.Println("plc 0.1 - PL/0-ext compiler and virtual machine")
}

func check(err error) {
	if err != nil {
		fail(err)
	}
}

func fail(msg interface{}) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
