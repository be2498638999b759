package ir

import (
	"github.com/iley/stackc/internal/ast"
	"github.com/iley/stackc/internal/diag"
	"github.com/iley/stackc/internal/lexer"
)

// Generator lowers a checked AST into IR.
// A generator is meant for a single compilation; labels are numbered from zero.
type Generator struct {
	ops       []Op
	labels    map[Label]int
	nextLabel Label
}

func NewGenerator() *Generator {
	return &Generator{
		ops:    []Op{},
		labels: make(map[Label]int),
	}
}

func (g *Generator) Generate(program *ast.Program) (Program, error) {
	for _, stmt := range program.Statements {
		if err := g.generateNode(stmt); err != nil {
			return Program{}, err
		}
	}
	return Program{Ops: g.ops, Labels: g.labels}, nil
}

func (g *Generator) emit(op Op) {
	g.ops = append(g.ops, op)
}

func (g *Generator) allocLabel() Label {
	label := g.nextLabel
	g.nextLabel++
	return label
}

// mark defines the label at the position of the next emitted op.
func (g *Generator) mark(label Label) {
	g.labels[label] = len(g.ops)
}

func (g *Generator) generateBlock(stmts []ast.Node) error {
	for _, stmt := range stmts {
		if err := g.generateNode(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) generateNode(node ast.Node) error {
	switch n := node.(type) {
	case *ast.Integer:
		g.emit(LoadConstant{Value: n.Value})
	case *ast.Identifier:
		g.emit(LoadVariable{Name: n.Name})
	case *ast.BinaryOp:
		return g.generateBinaryOp(n)
	case *ast.Assignment:
		if err := g.generateNode(n.Value); err != nil {
			return err
		}
		g.emit(Store{Name: n.Identifier})
	case *ast.IfElse:
		return g.generateIfElse(n)
	default:
		return diag.Errorf(diag.KindOperator, "unsupported node type %T", node)
	}
	return nil
}

func (g *Generator) generateBinaryOp(node *ast.BinaryOp) error {
	if err := g.generateNode(node.Left); err != nil {
		return err
	}
	if err := g.generateNode(node.Right); err != nil {
		return err
	}
	op, ok := binaryOpcode(node.Operator)
	if !ok {
		return diag.Errorf(diag.KindOperator, "%s: invalid binary operator %s", node.Loc, node.Operator)
	}
	g.emit(op)
	return nil
}

func binaryOpcode(operator lexer.TokenType) (Op, bool) {
	switch operator {
	case lexer.LEX_PLUS:
		return Add{}, true
	case lexer.LEX_MINUS:
		return Subtract{}, true
	case lexer.LEX_STAR:
		return Multiply{}, true
	case lexer.LEX_SLASH:
		return Divide{}, true
	case lexer.LEX_DOUBLE_EQUALS:
		return Compare{Operator: CmpEqual}, true
	case lexer.LEX_LESS:
		return Compare{Operator: CmpLess}, true
	case lexer.LEX_GREATER:
		return Compare{Operator: CmpGreater}, true
	case lexer.LEX_LESS_EQUALS:
		return Compare{Operator: CmpLessEqual}, true
	case lexer.LEX_GREATER_EQUALS:
		return Compare{Operator: CmpGreaterEqual}, true
	}
	return nil, false
}

// generateIfElse lowers
//
//	cond; JumpIfFalse(else); then...; Jump(end); else: else...; end:
//
// Without an else branch the first label marks the end and no Jump is emitted.
func (g *Generator) generateIfElse(node *ast.IfElse) error {
	if err := g.generateNode(node.Condition); err != nil {
		return err
	}

	elseLabel := g.allocLabel()
	endLabel := elseLabel
	if node.HasElse() {
		endLabel = g.allocLabel()
	}
	g.emit(JumpIfFalse{Label: elseLabel})

	if err := g.generateBlock(node.IfBranch); err != nil {
		return err
	}

	if !node.HasElse() {
		g.mark(endLabel)
		return nil
	}

	g.emit(Jump{Label: endLabel})
	g.mark(elseLabel)
	if err := g.generateBlock(node.ElseBranch); err != nil {
		return err
	}
	g.mark(endLabel)
	return nil
}
