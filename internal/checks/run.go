package checks

import "github.com/iley/stackc/internal/ast"

// Run validates the program and returns the declaration table built along the way.
func Run(program *ast.Program) (DeclTable, error) {
	decls := make(DeclTable)
	if err := checkStatements(program.Statements, decls); err != nil {
		return nil, err
	}
	return decls, nil
}
