package common

import (
	"io"

	"github.com/iley/stackc/internal/asm"
	"github.com/iley/stackc/internal/ir"
)

type CodeGenerator interface {
	Generate(ir.Program) (asm.Program, error)
	Format(io.Writer, asm.Program)
}

const (
	// FrameSize is the number of bytes reserved below the frame pointer for variables.
	FrameSize = 256
	// EntryName is the symbol of the generated procedure.
	EntryName = "main"
	// ScratchLabel names the word-sized cell in the uninitialized data section.
	ScratchLabel = "scratch"
)
