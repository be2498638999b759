package x86_64

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
	fmt.Fprintf(out, ".section .note.GNU-stack,\"\",@progbits\n")
}

func formatFunction(out io.Writer, fn asm.Function) {
	fmt.Fprintf(out, ".text\n")
	fmt.Fprintf(out, ".globl %s\n", fn.Name)
	fmt.Fprintf(out, ".type %s, @function\n", fn.Name)
	fmt.Fprintf(out, "%s:\n", fn.Name)

	for _, line := range fn.Lines {
		formatLine(out, line)
	}
	fmt.Fprintf(out, ".size %s, .-%s\n", fn.Name, fn.Name)
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
		fmt.Fprintf(out, "  # %s", line.Comment)
	}

	fmt.Fprintf(out, "\n")
}

func argToString(arg asm.Arg) string {
	switch {
	case arg.Reg != "" && arg.Deref && arg.Offset != 0:
		return fmt.Sprintf("%d(%%%s)", arg.Offset, arg.Reg)
	case arg.Reg != "" && arg.Deref:
		return fmt.Sprintf("(%%%s)", arg.Reg)
	case arg.Reg != "":
		return fmt.Sprintf("%%%s", arg.Reg)
	case arg.Label != "":
		return arg.Label
	case arg.Imm != nil:
		return fmt.Sprintf("$%d", *arg.Imm)
	}
	panic(fmt.Errorf("invalid arg %#v", arg))
}

func formatGlobalVariables(out io.Writer, globals []asm.GlobalVariable) {
	if len(globals) == 0 {
		return
	}

	fmt.Fprintf(out, ".bss\n")
	for _, g := range globals {
		fmt.Fprintf(out, ".type %s, @object\n", g.Label)
		fmt.Fprintf(out, ".align %d\n", g.Size)
		fmt.Fprintf(out, "%s:\n", g.Label)
		fmt.Fprintf(out, "  .zero %d\n", g.Size)
	}
}
