package opt

import "github.com/iley/stackc/internal/ir"

// Run applies the IR optimization passes. The input program is not modified.
func Run(irp ir.Program) ir.Program {
	irp = foldConstantAdditions(irp)
	return irp
}
