package i386

import (
	"fmt"
	"io"

	"github.com/iley/stackc/internal/asm"
)

func formatProgram(out io.Writer, p asm.Program) {
	formatGlobalVariables(out, p.GlobalVariables)
	for _, fn := range p.Functions {
		formatFunction(out, fn)
	}
}

func formatFunction(out io.Writer, fn asm.Function) {
	fmt.Fprintf(out, "section .text\n")
	fmt.Fprintf(out, "global %s\n", fn.Name)
	fmt.Fprintf(out, "%s:\n", fn.Name)

	for _, line := range fn.Lines {
		formatLine(out, line)
	}
}

func formatLine(out io.Writer, line asm.Line) {
	if line.Label != "" {
		fmt.Fprintf(out, "%s:", line.Label)
	} else if line.Op != "" {
		fmt.Fprintf(out, "  %s", line.Op)

		if line.Arity >= 1 {
			fmt.Fprintf(out, " %s", argToString(line.Arg1))
		}
		if line.Arity >= 2 {
			fmt.Fprintf(out, ", %s", argToString(line.Arg2))
		}
	}

	if line.Comment != "" {
		fmt.Fprintf(out, "  ; %s", line.Comment)
	}

	fmt.Fprintf(out, "\n")
}

func argToString(arg asm.Arg) string {
	var result string
	switch {
	case arg.Reg != "" && arg.Deref && arg.Offset != 0:
		result = fmt.Sprintf("[%s%+d]", arg.Reg, arg.Offset)
	case arg.Reg != "" && arg.Deref:
		result = fmt.Sprintf("[%s]", arg.Reg)
	case arg.Reg != "":
		result = arg.Reg
	case arg.Label != "":
		result = arg.Label
	case arg.Imm != nil:
		result = fmt.Sprintf("%d", *arg.Imm)
	default:
		panic(fmt.Errorf("invalid arg %#v", arg))
	}

	if prefix := sizePrefix(arg.Size); prefix != "" {
		result = prefix + " " + result
	}
	return result
}

func sizePrefix(size int) string {
	switch size {
	case 0:
		return ""
	case 1:
		return "byte"
	case 2:
		return "word"
	case 4:
		return "dword"
	case 8:
		return "qword"
	}
	panic(fmt.Errorf("unsupported operand size %d", size))
}

// formatGlobalVariables reserves uninitialized data in dwords, rounding sizes up.
func formatGlobalVariables(out io.Writer, globals []asm.GlobalVariable) {
	if len(globals) == 0 {
		return
	}

	fmt.Fprintf(out, "section .bss\n")
	for _, g := range globals {
		fmt.Fprintf(out, "%s: resd %d\n", g.Label, (g.Size+3)/4)
	}
}
