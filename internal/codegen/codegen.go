package codegen

import (
	"fmt"
	"io"

	"github.com/iley/stackc/internal/codegen/common"
	"github.com/iley/stackc/internal/codegen/i386"
	"github.com/iley/stackc/internal/codegen/x86_64"
	"github.com/iley/stackc/internal/ir"
)

type Target int

const (
	TargetX86_64 Target = iota
	TargetI386
)

func (t Target) String() string {
	switch t {
	case TargetX86_64:
		return "x86_64"
	case TargetI386:
		return "i386"
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

func TargetFromName(name string) (Target, error) {
	switch name {
	case "x86_64", "amd64":
		return TargetX86_64, nil
	case "i386", "x86":
		return TargetI386, nil
	}
	return 0, fmt.Errorf("unknown target: %s", name)
}

// TargetNames lists the canonical target names accepted by TargetFromName.
func TargetNames() []string {
	return []string{TargetX86_64.String(), TargetI386.String()}
}

func NewCodeGenerator(target Target) (common.CodeGenerator, error) {
	switch target {
	case TargetX86_64:
		return &x86_64.CodeGenerator{}, nil
	case TargetI386:
		return &i386.CodeGenerator{}, nil
	}
	return nil, fmt.Errorf("unknown target: %v", target)
}

func Generate(out io.Writer, target Target, irp ir.Program) error {
	cg, err := NewCodeGenerator(target)
	if err != nil {
		return err
	}

	asmProgram, err := cg.Generate(irp)
	if err != nil {
		return err
	}

	cg.Format(out, asmProgram)
	return nil
}
