package main

import (
	"fmt"
	"strings"
)

// Opcode is a NASM mnemonic, or one of the pseudo ops that render without
// a leading tab (labels, directives and data).
type Opcode string

const (
	// Pseudo ops
	OpLabel  Opcode = "label"
	OpExtern Opcode = "extern"
	OpGlobal Opcode = "global"
	OpData   Opcode = "db"

	OpPush  Opcode = "push"
	OpPop   Opcode = "pop"
	OpMov   Opcode = "mov"
	OpMovzx Opcode = "movzx"
	OpLea   Opcode = "lea"
	OpAdd   Opcode = "add"
	OpSub   Opcode = "sub"
	OpImul  Opcode = "imul"
	OpIdiv  Opcode = "idiv"
	OpCqo   Opcode = "cqo"
	OpNeg   Opcode = "neg"
	OpAnd   Opcode = "and"
	OpXor   Opcode = "xor"
	OpCmp   Opcode = "cmp"
	OpSete  Opcode = "sete"
	OpSetne Opcode = "setne"
	OpSetl  Opcode = "setl"
	OpSetg  Opcode = "setg"
	OpSetle Opcode = "setle"
	OpSetge Opcode = "setge"
	OpJmp   Opcode = "jmp"
	OpJe    Opcode = "je"
	OpJne   Opcode = "jne"
	OpCall  Opcode = "call"
	OpRet   Opcode = "ret"
)

// Register names as NASM spells them.
type Register string

const (
	RAX Register = "rax"
	RBX Register = "rbx"
	RCX Register = "rcx"
	RDX Register = "rdx"
	RSI Register = "rsi"
	RDI Register = "rdi"
	R8  Register = "r8"
	R9  Register = "r9"
	RSP Register = "rsp"
	RBP Register = "rbp"
	AL  Register = "al"
)

// argRegisters are the System V integer argument registers in order.
var argRegisters = []Register{RDI, RSI, RDX, RCX, R8, R9}

// Instruction is one line of output.
type Instruction struct {
	Op       Opcode
	Operands []string
}

func (ins Instruction) String() string {
	switch ins.Op {
	case OpLabel:
		return ins.Operands[0] + ":"
	case OpExtern, OpGlobal:
		return string(ins.Op) + " " + strings.Join(ins.Operands, ", ")
	case OpData:
		return fmt.Sprintf("%s: db %s", ins.Operands[0], ins.Operands[1])
	}
	if len(ins.Operands) == 0 {
		return "\t" + string(ins.Op)
	}
	return "\t" + string(ins.Op) + " " + strings.Join(ins.Operands, ", ")
}

// Assembly is the compiler's output, kept as three instruction streams until
// it is rendered.
type Assembly struct {
	Data   []Instruction // string constants
	Header []Instruction // extern and global directives
	Text   []Instruction
}

// String renders the listing: the data section (only if there is data)
// followed by the text section.
func (a *Assembly) String() string {
	var sb strings.Builder
	if len(a.Data) > 0 {
		sb.WriteString("section .data\n")
		for _, ins := range a.Data {
			sb.WriteString(ins.String())
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("section .text\n")
	for _, ins := range a.Header {
		sb.WriteString(ins.String())
		sb.WriteByte('\n')
	}
	for _, ins := range a.Text {
		sb.WriteString(ins.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// qword renders a 64-bit memory operand relative to the frame base. Negative
// offsets address locals, positive ones the caller's arguments.
func qword(offset int64) string {
	if offset < 0 {
		return fmt.Sprintf("QWORD [rbp-%d]", -offset)
	}
	return fmt.Sprintf("QWORD [rbp+%d]", offset)
}

// nasmString renders s as a NASM backquoted string followed by the
// terminating zero byte. The assembled bytes are exactly the bytes of s:
// backslashes and backquotes are escaped, control bytes written as \xNN.
func nasmString(s string) string {
	if s == "" {
		return "0"
	}
	var sb strings.Builder
	sb.WriteByte('`')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '`' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&sb, "\\x%02x", c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteString("`, 0")
	return sb.String()
}
