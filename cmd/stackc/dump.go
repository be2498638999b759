package main

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/iley/stackc/internal/ast"
	"github.com/iley/stackc/internal/compiler"
	"github.com/iley/stackc/internal/ir"
	"github.com/iley/stackc/internal/lexer"
)

var (
	emit string
	raw  bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file.calc>",
	Short: "Print an intermediate representation of a program",
	Long:  "Print the tokens, syntax tree, formatted source, IR or assembly of a program. The output is for humans and has no stable format.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		c, _, err := newCompiler()
		if err != nil {
			return err
		}
		source, err := readSource(args[0])
		if err != nil {
			return err
		}

		var result *compiler.Result
		switch emit {
		case "tokens", "ast", "source", "ir":
			result, err = c.Frontend(source)
		case "asm":
			result, err = c.Run(source)
		default:
			return fmt.Errorf("unknown stage to emit: %s", emit)
		}
		if err != nil {
			return err
		}

		out := os.Stdout
		if raw {
			dumpRaw(out, result)
			return nil
		}

		switch emit {
		case "tokens":
			dumpTokens(out, result.Tokens)
		case "ast":
			fmt.Fprintln(out, result.AST.String())
		case "source":
			fmt.Fprint(out, ast.Format(result.AST))
		case "ir":
			dumpIR(out, result.Optimized)
		case "asm":
			fmt.Fprint(out, result.Assembly)
		}
		return nil
	},
}

func init() {
	dumpCmd.Flags().StringVar(&emit, "emit", "ir", "stage to print (tokens, ast, source, ir, asm)")
	dumpCmd.Flags().BoolVar(&raw, "raw", false, "dump Go values instead of the readable form")
}

func dumpRaw(out io.Writer, result *compiler.Result) {
	config := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
	switch emit {
	case "tokens":
		config.Fdump(out, result.Tokens)
	case "ast", "source":
		config.Fdump(out, result.AST)
	case "ir":
		config.Fdump(out, result.Optimized)
	case "asm":
		config.Fdump(out, result.Assembly)
	}
}

func dumpTokens(out io.Writer, tokens []lexer.Lexeme) {
	for _, lex := range tokens {
		fmt.Fprintf(out, "%-6s %s\n", au.Yellow(lex.Loc.String()), au.Cyan(lex.String()))
	}
}

// dumpIR prints the IR with labels highlighted.
func dumpIR(out io.Writer, program ir.Program) {
	var buf bytes.Buffer
	program.Print(&buf)
	for _, line := range strings.SplitAfter(buf.String(), "\n") {
		if strings.HasSuffix(strings.TrimSpace(line), ":") {
			fmt.Fprint(out, au.Magenta(line))
		} else {
			fmt.Fprint(out, line)
		}
	}
}

func formatVariables(vars map[string]int32) []string {
	var lines []string
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		lines = append(lines, fmt.Sprintf("%s = %d", au.Cyan(name), vars[name]))
	}
	return lines
}
