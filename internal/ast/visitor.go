package ast

import "fmt"

type Visitor interface {
	VisitInteger(node *Integer)
	VisitIdentifier(node *Identifier)
	VisitBinaryOp(node *BinaryOp)
	VisitAssignment(node *Assignment)
	VisitIfElse(node *IfElse)
}

// Accept dispatches node to the matching method of visitor.
func Accept(node Node, visitor Visitor) {
	switch n := node.(type) {
	case *Integer:
		visitor.VisitInteger(n)
	case *Identifier:
		visitor.VisitIdentifier(n)
	case *BinaryOp:
		visitor.VisitBinaryOp(n)
	case *Assignment:
		visitor.VisitAssignment(n)
	case *IfElse:
		visitor.VisitIfElse(n)
	default:
		panic(fmt.Sprintf("unsupported node type: %T", node))
	}
}
