package ir

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/iley/stackc/internal/diag"
)

/*
Intermediate representation. This sits between AST and assembly.
The IR is a flat sequence of operations over an implicit evaluation stack.

Here are the supported operations:
 * LoadConstant(N) - push an integer constant.
 * LoadVariable(Name) - push the value of a variable.
 * Add, Subtract, Multiply, Divide - pop the right operand, then the left one, push the result.
 * Store(Name) - pop a value and assign it to a variable.
 * Compare(Op) - pop two values, push 1 if "left Op right" holds and 0 otherwise.
 * JumpIfFalse(Label) - pop a value, jump to the label if it is zero.
 * Jump(Label) - jump to the label unconditionally.

Labels are not operations. Program.Labels maps every label to the index of the operation it marks.
*/

type Label int

func (l Label) String() string {
	return fmt.Sprintf("L%d", l)
}

type Program struct {
	Ops []Op
	// Labels maps each label to the index of the op it precedes.
	// An index equal to len(Ops) marks the end of the program.
	Labels map[Label]int
}

// LabelsAt returns the labels marking the given op index in ascending order.
func (p Program) LabelsAt(index int) []Label {
	var result []Label
	for label, idx := range p.Labels {
		if idx == index {
			result = append(result, label)
		}
	}
	slices.Sort(result)
	return result
}

// IsLabelled reports whether any label marks the given op index.
func (p Program) IsLabelled(index int) bool {
	for _, idx := range p.Labels {
		if idx == index {
			return true
		}
	}
	return false
}

// Validate checks that every referenced label is defined at a position inside the program.
func (p Program) Validate() error {
	for label, idx := range p.Labels {
		if idx < 0 || idx > len(p.Ops) {
			return diag.Errorf(diag.KindCodegen, "label %s is defined at invalid position %d", label, idx)
		}
	}
	for i, op := range p.Ops {
		target, ok := JumpTarget(op)
		if !ok {
			continue
		}
		if _, defined := p.Labels[target]; !defined {
			return diag.Errorf(diag.KindCodegen, "op %d (%s) jumps to undefined label %s", i, op, target)
		}
	}
	return nil
}

func (p Program) Print(writer io.Writer) {
	for i, op := range p.Ops {
		for _, label := range p.LabelsAt(i) {
			fmt.Fprintf(writer, "%s:\n", label)
		}
		fmt.Fprintf(writer, "%4d  %s\n", i, op)
	}
	for _, label := range p.LabelsAt(len(p.Ops)) {
		fmt.Fprintf(writer, "%s:\n", label)
	}
}

// Clone returns a deep copy of the program.
func (p Program) Clone() Program {
	return Program{
		Ops:    slices.Clone(p.Ops),
		Labels: maps.Clone(p.Labels),
	}
}

type Op interface {
	fmt.Stringer
	isOp()
}

// JumpTarget returns the label an op jumps to, if it is a jump.
func JumpTarget(op Op) (Label, bool) {
	switch o := op.(type) {
	case Jump:
		return o.Label, true
	case JumpIfFalse:
		return o.Label, true
	}
	return 0, false
}

type LoadConstant struct {
	Value int32
}

func (o LoadConstant) String() string {
	return fmt.Sprintf("LoadConstant(%d)", o.Value)
}

func (LoadConstant) isOp() {}

type LoadVariable struct {
	Name string
}

func (o LoadVariable) String() string {
	return fmt.Sprintf("LoadVariable(%s)", o.Name)
}

func (LoadVariable) isOp() {}

type Add struct{}

func (Add) String() string { return "Add" }
func (Add) isOp()          {}

type Subtract struct{}

func (Subtract) String() string { return "Subtract" }
func (Subtract) isOp()          {}

type Multiply struct{}

func (Multiply) String() string { return "Multiply" }
func (Multiply) isOp()          {}

type Divide struct{}

func (Divide) String() string { return "Divide" }
func (Divide) isOp()          {}

type Store struct {
	Name string
}

func (o Store) String() string {
	return fmt.Sprintf("Store(%s)", o.Name)
}

func (Store) isOp() {}

type Comparison int

const (
	CmpEqual Comparison = iota
	CmpLess
	CmpGreater
	CmpLessEqual
	CmpGreaterEqual
)

func (c Comparison) String() string {
	switch c {
	case CmpEqual:
		return "=="
	case CmpLess:
		return "<"
	case CmpGreater:
		return ">"
	case CmpLessEqual:
		return "<="
	case CmpGreaterEqual:
		return ">="
	}
	return fmt.Sprintf("Comparison(%d)", int(c))
}

type Compare struct {
	Operator Comparison
}

func (o Compare) String() string {
	return fmt.Sprintf("Compare(%s)", o.Operator)
}

func (Compare) isOp() {}

type JumpIfFalse struct {
	Label Label
}

func (o JumpIfFalse) String() string {
	return fmt.Sprintf("JumpIfFalse(%s)", o.Label)
}

func (JumpIfFalse) isOp() {}

type Jump struct {
	Label Label
}

func (o Jump) String() string {
	return fmt.Sprintf("Jump(%s)", o.Label)
}

func (Jump) isOp() {}
