package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// defaultSource is compiled when toyc runs without arguments.
const defaultSource = "main.toy"

func showUsage() {
	fmt.Fprintf(os.Stderr, `toyc - A toy language compiler for x86-64

Usage:
    toyc                    Compile main.toy and print the assembly
    toyc <command> [arguments]

Commands:
    build <file>    Compile a .toy file to NASM assembly
    run <file>      Compile, assemble, link and execute a .toy file
    eval <code>     Compile inline code and print the assembly
    check <file>    Parse and compile a .toy file, reporting errors only
    ast <file>      Print the syntax tree of a .toy file
    fmt <file>      Print a .toy file in canonical form
    serve           Start the web playground
    help            Show this help message

Examples:
    toyc run examples/fact.toy
    toyc build -o fact.asm fact.toy
    toyc eval 'func main() { print("%%d\n", 42); }'
    toyc serve -addr 127.0.0.1:5000

Use "toyc <command> -h" for more information about a command.
`)
}

func newFlagSet(name, usage, about string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: toyc %s\n", usage)
		fmt.Fprintf(os.Stderr, "%s\n\n", about)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags parses args and requires exactly one positional argument.
func parseFlags(fs *flag.FlagSet, args []string, what string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one %s argument\n", what)
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func readSource(filename string) string {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}
	return string(source)
}

func parseSource(filename, source string) *Program {
	prog, err := NewParser(NewLexer(source)).ParseProgram()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", filename, err)
		os.Exit(1)
	}
	return prog
}

// compileSource runs the whole pipeline and exits on the first error.
func compileSource(filename, source string, verbose bool) string {
	prog := parseSource(filename, source)
	if verbose {
		fmt.Fprintf(os.Stderr, "AST: %s\n", prog.SExpr())
	}

	asm, err := NewCompiler(prog).Compile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", filename, err)
		os.Exit(1)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Generated %d instructions\n", len(asm.Text))
	}
	return asm.String()
}

func buildCommand(args []string) {
	fs := newFlagSet("build", "build [-o output] [-v] <file>", "Compile a .toy file to NASM assembly")
	output := fs.String("o", "", "Output file path (default: <filename>.asm)")
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	filename := parseFlags(fs, args, "file")

	outputFile := *output
	if outputFile == "" {
		outputFile = strings.TrimSuffix(filename, ".toy") + ".asm"
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "Compiling %s to %s...\n", filename, outputFile)
	}

	asm := compileSource(filename, readSource(filename), *verbose)
	if err := os.WriteFile(outputFile, []byte(asm), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing assembly file %s: %v\n", outputFile, err)
		os.Exit(1)
	}
	fmt.Printf("Generated %s (%d bytes)\n", outputFile, len(asm))
}

func runCommand(args []string) {
	fs := newFlagSet("run", "run [-v] [-keep] <file>", "Compile, assemble, link and execute a .toy file")
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	keep := fs.Bool("keep", false, "Keep the build directory")
	filename := parseFlags(fs, args, "file")

	if *verbose {
		fmt.Fprintf(os.Stderr, "Compiling %s...\n", filename)
	}
	asm := compileSource(filename, readSource(filename), *verbose)

	name := strings.TrimSuffix(filepath.Base(filename), ".toy")
	code, err := buildAndRun(name, asm, *keep, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	// The program's exit status is main's return value.
	if code != 0 {
		os.Exit(code)
	}
}

// buildAndRun assembles asm in a fresh temporary directory and runs the
// executable with the process's standard streams, returning its exit status.
// The directory is gone when buildAndRun returns unless keep is set, so
// callers are free to os.Exit right after.
func buildAndRun(name, asm string, keep, verbose bool) (int, error) {
	dir, err := os.MkdirTemp("", "toyc-")
	if err != nil {
		return 0, fmt.Errorf("creating build directory: %w", err)
	}
	if keep {
		fmt.Fprintf(os.Stderr, "Build directory: %s\n", dir)
	} else {
		defer os.RemoveAll(dir)
	}

	exe, err := assemble(dir, name, asm, verbose)
	if err != nil {
		return 0, err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Executing...\n")
	}
	cmd := exec.Command(exe)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("execution failed: %w", err)
	}
	return 0, nil
}

// assemble writes asm into dir, assembles it with nasm and links it with gcc
// against the C library. It returns the path of the executable.
func assemble(dir, name, asm string, verbose bool) (string, error) {
	asmFile := filepath.Join(dir, name+".asm")
	objFile := filepath.Join(dir, name+".o")
	exeFile := filepath.Join(dir, name)

	if err := os.WriteFile(asmFile, []byte(asm), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", asmFile, err)
	}

	steps := [][]string{
		{"nasm", "-felf64", "-o", objFile, asmFile},
		{"gcc", "-no-pie", "-o", exeFile, objFile},
	}
	for _, step := range steps {
		if verbose {
			fmt.Fprintf(os.Stderr, "%s\n", strings.Join(step, " "))
		}
		out, err := exec.Command(step[0], step[1:]...).CombinedOutput()
		if err != nil {
			return "", fmt.Errorf("%s failed: %v\nOutput: %s", step[0], err, out)
		}
	}
	return exeFile, nil
}

func evalCommand(args []string) {
	fs := newFlagSet("eval", "eval [-v] <code>", "Compile inline code and print the assembly")
	verbose := fs.Bool("v", false, "Show verbose compilation details")
	code := parseFlags(fs, args, "code")

	if *verbose {
		fmt.Fprintf(os.Stderr, "Evaluating: %s\n", code)
	}
	fmt.Print(compileSource("<eval>", code, *verbose))
}

func checkCommand(args []string) {
	fs := newFlagSet("check", "check [-v] <file>", "Parse and compile a .toy file, reporting errors only")
	verbose := fs.Bool("v", false, "Show verbose checking details")
	filename := parseFlags(fs, args, "file")

	if *verbose {
		fmt.Fprintf(os.Stderr, "Checking %s...\n", filename)
	}
	compileSource(filename, readSource(filename), *verbose)
	fmt.Printf("%s: no errors found\n", filename)
}

func astCommand(args []string) {
	fs := newFlagSet("ast", "ast [-json] <file>", "Print the syntax tree of a .toy file")
	asJSON := fs.Bool("json", false, "Print statements and the expression store as JSON")
	filename := parseFlags(fs, args, "file")

	prog := parseSource(filename, readSource(filename))
	if !*asJSON {
		fmt.Println(prog.SExpr())
		return
	}

	out, err := json.MarshalIndent(map[string]any{
		"stmts": nonNil(prog.Stmts),
		"store": prog.Store,
	}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding AST: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func fmtCommand(args []string) {
	fs := newFlagSet("fmt", "fmt <file>", "Print a .toy file in canonical form")
	filename := parseFlags(fs, args, "file")

	fmt.Print(Format(parseSource(filename, readSource(filename))))
}

func serveCommand(args []string) {
	fs := newFlagSet("serve", "serve [-addr host:port]", "Start the web playground")
	addr := fs.String("addr", "127.0.0.1:5000", "Address to listen on")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log.Printf("playground listening on http://%s", *addr)
	log.Fatal(http.ListenAndServe(*addr, NewServer()))
}

func main() {
	if len(os.Args) < 2 {
		fmt.Print(compileSource(defaultSource, readSource(defaultSource), false))
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		buildCommand(args)
	case "run":
		runCommand(args)
	case "eval":
		evalCommand(args)
	case "check":
		checkCommand(args)
	case "ast":
		astCommand(args)
	case "fmt":
		fmtCommand(args)
	case "serve":
		serveCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
