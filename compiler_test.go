package main

import (
	"fmt"
	"os/exec"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func compileProgram(t *testing.T, src string) *Assembly {
	t.Helper()
	asm, err := NewCompiler(parseProgram(t, src)).Compile()
	be.Err(t, err, nil)
	return asm
}

func compileError(t *testing.T, src string) error {
	t.Helper()
	_, err := Compile(src)
	be.True(t, err != nil)
	return err
}

// funcBody returns the rendered instructions of the named function, from its
// label up to the next function label.
func funcBody(asm *Assembly, name string) []string {
	var out []string
	in := false
	for _, ins := range asm.Text {
		if ins.Op == OpLabel && !strings.Contains(ins.Operands[0], "@") {
			if in {
				break
			}
			in = ins.Operands[0] == name
		}
		if in {
			out = append(out, ins.String())
		}
	}
	return out
}

func TestCompileSumIntoLocal(t *testing.T) {
	asm := compileProgram(t, "func main() { var x: int = 2 + 3; return x; }")

	be.Equal(t, funcBody(asm, "main"), []string{
		"main:",
		"\tpush rbp",
		"\tmov rbp, rsp",
		"\tsub rsp, 16",
		"\tpush 2",
		"\tpush 3",
		"\tpop rbx",
		"\tpop rax",
		"\tadd rax, rbx",
		"\tpush rax",
		"\tpop rax",
		"\tmov QWORD [rbp-8], rax",
		"\tmov rax, QWORD [rbp-8]",
		"\tpush rax",
		"\tpop rax",
		"\tmov rsp, rbp",
		"\tpop rbp",
		"\tret",
		"\txor rax, rax",
		"\tmov rsp, rbp",
		"\tpop rbp",
		"\tret",
	})
}

func TestCompileListingLayout(t *testing.T) {
	out, err := Compile(`func main() { print("hi"); }`)
	be.Err(t, err, nil)

	be.True(t, strings.HasPrefix(out, "section .data\nstr@0: db `hi`, 0\n\nsection .text\nextern printf\nglobal main\nprint:\n"))
	be.True(t, strings.HasSuffix(out, "\tret\n"))
}

func TestCompileNoDataSection(t *testing.T) {
	out, err := Compile("func main() {}")
	be.Err(t, err, nil)
	be.True(t, strings.HasPrefix(out, "section .text\n"))
	be.True(t, !strings.Contains(out, "section .data"))
}

func TestCompileFrameSize(t *testing.T) {
	tests := []struct {
		locals int
		want   int
	}{
		{0, 16},
		{1, 16},
		{2, 16},
		{3, 24},
		{5, 40},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.locals), func(t *testing.T) {
			var sb strings.Builder
			sb.WriteString("func main() {\n")
			for i := range tt.locals {
				fmt.Fprintf(&sb, "var v%d: int = %d;\n", i, i)
			}
			sb.WriteString("}\n")

			body := funcBody(compileProgram(t, sb.String()), "main")
			be.Equal(t, body[3], fmt.Sprintf("\tsub rsp, %d", tt.want))
		})
	}
}

func TestCompileFrameCountsParameters(t *testing.T) {
	asm := compileProgram(t, "func f(a: int, b: int, c: int) { var d: int; } func main() {}")
	body := funcBody(asm, "f")
	be.Equal(t, body[3], "\tsub rsp, 32")
	be.Equal(t, body[4:10], []string{
		"\tmov rax, QWORD [rbp+16]",
		"\tmov QWORD [rbp-8], rax",
		"\tmov rax, QWORD [rbp+24]",
		"\tmov QWORD [rbp-16], rax",
		"\tmov rax, QWORD [rbp+32]",
		"\tmov QWORD [rbp-24], rax",
	})
}

func TestCompileArgumentCountCheckedFirst(t *testing.T) {
	prog := parseProgram(t, `
		func add(a: int, b: int): int { return a + b; }
		func main() { add(7); }
	`)
	c := NewCompiler(prog)
	_, err := c.Compile()
	be.True(t, IsKind(err, SemanticError))
	be.Equal(t, err.Error(), "line 3:17: semantic error: function 'add' expects 2 arguments, got 1")

	// Nothing was emitted for main's call.
	last := c.text[len(c.text)-1]
	be.Equal(t, last.String(), "\tsub rsp, 0")
}

func TestCompileUndefinedVariable(t *testing.T) {
	err := compileError(t, "func main() { return y; }")
	be.True(t, IsKind(err, UndefinedVariable))
	be.Equal(t, err.Error(), "line 1:22: undefined variable: 'y'")
}

func TestCompileIsDeterministic(t *testing.T) {
	src := `
		func fib(n: int): int {
			if n < 2 { return n; }
			return fib(n - 1) + fib(n - 2);
		}
		func main() {
			print("%d %s\n", fib(10), "done");
			if 1 && 0 || 1 { print("yes\n"); } else { print("no\n"); }
		}
	`
	first, err := Compile(src)
	be.Err(t, err, nil)
	second, err := Compile(src)
	be.Err(t, err, nil)
	be.Equal(t, first, second)
}

func TestCompileLabelsAreUnique(t *testing.T) {
	asm := compileProgram(t, `
		func main() {
			if 1 { } else { }
			if 2 { if 3 { } }
			var x: int = 1 && 2;
		}
	`)

	seen := map[string]bool{}
	for _, ins := range asm.Text {
		if ins.Op != OpLabel {
			continue
		}
		be.True(t, !seen[ins.Operands[0]])
		seen[ins.Operands[0]] = true
	}
	for _, name := range []string{"else@0", "end@0", "else@1", "end@1", "else@2", "end@2", "false@3", "done@3"} {
		be.True(t, seen[name])
	}
}

func TestCompileOperandStackBalanced(t *testing.T) {
	asm := compileProgram(t, `
		func f(a: int): int { return a; }
		func main() {
			f(1) + f(2);
			f(3);
			"s";
			1 < 2;
		}
	`)

	depth := 0
	for _, ins := range funcBody(asm, "main")[4:] {
		switch {
		case strings.HasPrefix(ins, "\tpush "):
			depth++
		case strings.HasPrefix(ins, "\tpop rax"), strings.HasPrefix(ins, "\tpop rbx"):
			depth--
		case ins == "\tadd rsp, 8":
			depth--
		}
		be.True(t, depth >= 0)
	}
	be.Equal(t, depth, 0)
}

func TestCompileStringData(t *testing.T) {
	asm := compileProgram(t, "func main() { print(\"a`b\"); print(\"\"); }")
	be.Equal(t, len(asm.Data), 2)
	be.Equal(t, asm.Data[0].String(), "str@0: db `a\\`b`, 0")
	be.Equal(t, asm.Data[1].String(), "str@1: db 0")
}

func TestCompileTopLevelRules(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1;", "line 1:1: semantic error: expr statement outside of a function"},
		{"return 1;", "line 1:1: semantic error: return statement outside of a function"},
		{"if 1 {}", "line 1:1: semantic error: if statement outside of a function"},
		{"func main() { func g() {} }", "line 1:15: semantic error: function 'g' declared inside another function"},
		{"func main() {} func main() {}", "line 1:16: semantic error: function 'main' already declared"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			err := compileError(t, tt.src)
			be.Equal(t, err.Error(), tt.want)
		})
	}
}

func TestSemanticErrorsCarryPositions(t *testing.T) {
	err := compileError(t, "func main() {\n\tvar k: int = 1;\n\tk = undefined;\n}")
	be.True(t, IsKind(err, UndefinedVariable))
	be.Equal(t, err.Error(), "line 3:6: undefined variable: 'undefined'")

	err = compileError(t, "func main() {\n  const k: int = 1;\n  k = 2;\n}")
	be.Equal(t, err.Error(), "line 3:3: semantic error: cannot assign to constant 'k'")

	err = compileError(t, "func f() {}\nfunc main() {\n    f(1);\n}")
	be.Equal(t, err.Error(), "line 3:5: semantic error: function 'f' expects 0 arguments, got 1")
}

func TestCompileReportsSyntaxErrors(t *testing.T) {
	err := compileError(t, "func main() { var; }")
	be.True(t, IsKind(err, SyntaxError))
}

func TestStoreRejectsForeignHandles(t *testing.T) {
	a := NewStore()
	b := NewStore()
	ref := a.Add(Expr{Kind: ExprInteger, Int: 1})

	defer func() {
		be.True(t, recover() != nil)
	}()
	b.Get(ref)
}

// requireToolchain skips t unless nasm and gcc are installed.
func requireToolchain(t *testing.T) {
	t.Helper()
	for _, tool := range []string{"nasm", "gcc"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available", tool)
		}
	}
}

func TestCompileAndRun(t *testing.T) {
	requireToolchain(t)

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "arithmetic",
			src:  "func main() { print(\"%d %d %d\n\", 2 + 3 * 4, 10 - 3 - 2, -7 / 2); }",
			want: "14 5 -3\n",
		},
		{
			name: "recursion",
			src: `
				func fact(n: int): int {
					if n < 2 { return 1; }
					return n * fact(n - 1);
				}
				func main() { print("%d ", fact(10)); }`,
			want: "3628800 ",
		},
		{
			name: "shadowing",
			src: `
				func main() {
					var x: int = 10;
					if 1 {
						var x: int = 20;
						print("%d ", x);
					}
					print("%d ", x);
				}`,
			want: "20 10 ",
		},
		{
			name: "logic",
			src: `
				func main() {
					print("%d %d %d %d", 1 && 0, 1 || 0, 2 <= 2, 3 != 3);
				}`,
			want: "0 1 1 0",
		},
		{
			name: "strings",
			src:  `func main() { var s: string = "hello"; print("%s, world", s); }`,
			want: "hello, world",
		},
		{
			name: "raw string bytes",
			src:  "func main() { print(\"x\\y a\\`b\\n\n\"); }",
			want: "x\\y a\\`b\\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asm, err := Compile(tt.src)
			be.Err(t, err, nil)

			exe, err := assemble(t.TempDir(), "prog", asm, false)
			be.Err(t, err, nil)

			out, err := exec.Command(exe).Output()
			be.Err(t, err, nil)
			be.Equal(t, string(out), tt.want)
		})
	}
}
