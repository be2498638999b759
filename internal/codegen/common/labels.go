package common

import (
	"fmt"

	"github.com/iley/stackc/internal/asm"
	"github.com/iley/stackc/internal/diag"
	"github.com/iley/stackc/internal/ir"
)

func LabelName(functionName string, label ir.Label) string {
	return fmt.Sprintf(".L%s_%d", functionName, int(label))
}

// LowerFunc translates a single op to target lines.
type LowerFunc func(op ir.Op) ([]asm.Line, error)

// Lower translates the body of a program op by op.
//
// Labels come from the program's label table rather than from the jumps: every marker is emitted once,
// right before the op the table says it marks, no matter how many jumps refer to it.
// Labels marking the end of the program are emitted after the last op.
func Lower(functionName string, p ir.Program, lowerOp LowerFunc) ([]asm.Line, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var lines []asm.Line
	emitLabels := func(index int) {
		for _, label := range p.LabelsAt(index) {
			lines = append(lines, asm.Label(LabelName(functionName, label)))
		}
	}

	for i, op := range p.Ops {
		emitLabels(i)
		lines = append(lines, asm.Comment(fmt.Sprintf("Op %d: %s", i, op.String())))
		opLines, err := lowerOp(op)
		if err != nil {
			return nil, fmt.Errorf("op %d (%s): %w", i, op, err)
		}
		lines = append(lines, opLines...)
	}
	emitLabels(len(p.Ops))

	return lines, nil
}

// ConditionSuffix returns the condition code used by the set and jump instructions of both x86 dialects.
func ConditionSuffix(cmp ir.Comparison) (string, error) {
	switch cmp {
	case ir.CmpEqual:
		return "e", nil
	case ir.CmpLess:
		return "l", nil
	case ir.CmpGreater:
		return "g", nil
	case ir.CmpLessEqual:
		return "le", nil
	case ir.CmpGreaterEqual:
		return "ge", nil
	}
	return "", diag.Errorf(diag.KindCodegen, "unrecognized comparison operator %s", cmp)
}
