package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer formats a program back into source text.
// Binary operations are fully parenthesized so that the printed text parses into the same tree.
type Printer struct {
	output      io.Writer
	indentLevel int
}

func NewPrinter(output io.Writer) *Printer {
	return &Printer{output: output}
}

func (p *Printer) write(text string) {
	fmt.Fprint(p.output, text)
}

func (p *Printer) writeln(text string) {
	p.write(text)
	p.write("\n")
}

func (p *Printer) writeIndent() {
	p.write(strings.Repeat("  ", p.indentLevel))
}

func (p *Printer) PrintProgram(program *Program) {
	p.printBlock(program.Statements)
}

func (p *Printer) printBlock(stmts []Node) {
	for _, stmt := range stmts {
		p.writeIndent()
		Accept(stmt, p)
		if _, isIf := stmt.(*IfElse); isIf {
			p.writeln("")
		} else {
			p.writeln(";")
		}
	}
}

func (p *Printer) VisitInteger(node *Integer) {
	p.write(fmt.Sprintf("%d", node.Value))
}

func (p *Printer) VisitIdentifier(node *Identifier) {
	p.write(node.Name)
}

func (p *Printer) VisitBinaryOp(node *BinaryOp) {
	p.write("(")
	Accept(node.Left, p)
	p.write(" " + node.Operator.String() + " ")
	Accept(node.Right, p)
	p.write(")")
}

func (p *Printer) VisitAssignment(node *Assignment) {
	p.write(node.Identifier + " = ")
	Accept(node.Value, p)
}

func (p *Printer) VisitIfElse(node *IfElse) {
	p.write("if ")
	Accept(node.Condition, p)
	p.writeln(" {")
	p.indentLevel++
	p.printBlock(node.IfBranch)
	p.indentLevel--
	p.writeIndent()
	p.write("}")
	if node.HasElse() {
		p.writeln(" else {")
		p.indentLevel++
		p.printBlock(node.ElseBranch)
		p.indentLevel--
		p.writeIndent()
		p.write("}")
	}
}

// Format returns the source text of a program.
func Format(program *Program) string {
	var sb strings.Builder
	NewPrinter(&sb).PrintProgram(program)
	return sb.String()
}
