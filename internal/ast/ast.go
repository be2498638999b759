package ast

import (
	"fmt"
	"strings"

	"github.com/iley/stackc/internal/lexer"
)

type Location = lexer.Location

// Node is any statement or expression of the language.
// Statements and expressions share one closed set of node types: an expression may
// appear where a statement is expected, its value is then discarded.
type Node interface {
	fmt.Stringer
	GetLocation() Location
	isNode()
}

type Program struct {
	Statements []Node
}

func (p *Program) String() string {
	var sb strings.Builder
	sb.WriteString("(program")
	for _, stmt := range p.Statements {
		sb.WriteString(" ")
		sb.WriteString(stmt.String())
	}
	sb.WriteString(")")
	return sb.String()
}

type Integer struct {
	Loc   Location
	Value int32
}

func (i *Integer) GetLocation() Location {
	return i.Loc
}

func (i *Integer) isNode() {}

func (i *Integer) String() string {
	return fmt.Sprintf("%d", i.Value)
}

type Identifier struct {
	Loc  Location
	Name string
}

func (i *Identifier) GetLocation() Location {
	return i.Loc
}

func (i *Identifier) isNode() {}

func (i *Identifier) String() string {
	return i.Name
}

type BinaryOp struct {
	Loc      Location
	Left     Node
	Operator lexer.TokenType
	Right    Node
}

func (b *BinaryOp) GetLocation() Location {
	return b.Loc
}

func (b *BinaryOp) isNode() {}

func (b *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Operator, b.Left.String(), b.Right.String())
}

type Assignment struct {
	Loc        Location
	Identifier string
	Value      Node
}

func (a *Assignment) GetLocation() Location {
	return a.Loc
}

func (a *Assignment) isNode() {}

func (a *Assignment) String() string {
	return fmt.Sprintf("(= %s %s)", a.Identifier, a.Value.String())
}

type IfElse struct {
	Loc       Location
	Condition Node
	IfBranch  []Node
	// ElseBranch is nil when there is no else clause.
	// An empty but present else clause is a non-nil empty slice.
	ElseBranch []Node
}

func (i *IfElse) GetLocation() Location {
	return i.Loc
}

func (i *IfElse) isNode() {}

func (i *IfElse) HasElse() bool {
	return i.ElseBranch != nil
}

func (i *IfElse) String() string {
	if !i.HasElse() {
		return fmt.Sprintf("(if %s %s)", i.Condition.String(), blockString(i.IfBranch))
	}
	return fmt.Sprintf("(if %s %s %s)", i.Condition.String(), blockString(i.IfBranch), blockString(i.ElseBranch))
}

func blockString(stmts []Node) string {
	var sb strings.Builder
	sb.WriteString("(block")
	for _, stmt := range stmts {
		sb.WriteString(" ")
		sb.WriteString(stmt.String())
	}
	sb.WriteString(")")
	return sb.String()
}
