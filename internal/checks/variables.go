package checks

import (
	"maps"
	"slices"

	"github.com/iley/stackc/internal/ast"
	"github.com/iley/stackc/internal/diag"
	"github.com/iley/stackc/internal/lexer"
)

// DeclTable records which variables have been assigned so far.
// There is one flat scope per program: assignments inside if/else branches are visible after the if.
type DeclTable map[string]struct{}

func (t DeclTable) Declare(name string) {
	t[name] = struct{}{}
}

func (t DeclTable) IsDeclared(name string) bool {
	_, ok := t[name]
	return ok
}

// Names returns the declared names in sorted order.
func (t DeclTable) Names() []string {
	return slices.Sorted(maps.Keys(t))
}

var knownOperators = map[lexer.TokenType]bool{
	lexer.LEX_PLUS:           true,
	lexer.LEX_MINUS:          true,
	lexer.LEX_STAR:           true,
	lexer.LEX_SLASH:          true,
	lexer.LEX_DOUBLE_EQUALS:  true,
	lexer.LEX_LESS:           true,
	lexer.LEX_GREATER:        true,
	lexer.LEX_LESS_EQUALS:    true,
	lexer.LEX_GREATER_EQUALS: true,
}

func checkStatements(stmts []ast.Node, decls DeclTable) error {
	for _, stmt := range stmts {
		if err := checkNode(stmt, decls); err != nil {
			return err
		}
	}
	return nil
}

// checkNode validates a node depth-first, left to right, and stops at the first problem.
func checkNode(node ast.Node, decls DeclTable) error {
	switch n := node.(type) {
	case *ast.Integer:
		return nil
	case *ast.Identifier:
		if !decls.IsDeclared(n.Name) {
			return diag.Errorf(diag.KindName, "%s: variable %s is used before assignment", n.Loc, n.Name)
		}
		return nil
	case *ast.BinaryOp:
		if err := checkNode(n.Left, decls); err != nil {
			return err
		}
		if err := checkNode(n.Right, decls); err != nil {
			return err
		}
		if !knownOperators[n.Operator] {
			return diag.Errorf(diag.KindOperator, "%s: invalid binary operator %s", n.Loc, n.Operator)
		}
		return nil
	case *ast.Assignment:
		if err := checkNode(n.Value, decls); err != nil {
			return err
		}
		decls.Declare(n.Identifier)
		return nil
	case *ast.IfElse:
		if err := checkNode(n.Condition, decls); err != nil {
			return err
		}
		if err := checkStatements(n.IfBranch, decls); err != nil {
			return err
		}
		return checkStatements(n.ElseBranch, decls)
	}
	return diag.Errorf(diag.KindOperator, "unsupported node type %T", node)
}
