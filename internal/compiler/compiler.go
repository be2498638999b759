// Package compiler runs the whole pipeline: lexing, parsing, semantic analysis, IR generation,
// optimization and code generation. A compilation either produces the complete assembly text or
// fails at the first stage that reports an error.
package compiler

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/iley/stackc/internal/ast"
	"github.com/iley/stackc/internal/checks"
	"github.com/iley/stackc/internal/codegen"
	"github.com/iley/stackc/internal/codegen/common"
	"github.com/iley/stackc/internal/ir"
	"github.com/iley/stackc/internal/lexer"
	"github.com/iley/stackc/internal/opt"
	"github.com/iley/stackc/internal/parser"
)

// Stage names used to prefix errors.
const (
	StageLexing     = "lexing"
	StageParsing    = "parsing"
	StageSemantic   = "semantic analysis"
	StageIR         = "IR generation"
	StageOptimizing = "optimization"
	StageCodegen    = "code generation"
)

type Options struct {
	Target   codegen.Target
	Optimize bool
	Logger   *slog.Logger
	// Backend overrides the code generator chosen by Target.
	Backend common.CodeGenerator
}

type Option func(*Options)

func WithTarget(target codegen.Target) Option {
	return func(o *Options) {
		o.Target = target
	}
}

func WithOptimization(enabled bool) Option {
	return func(o *Options) {
		o.Optimize = enabled
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithBackend(backend common.CodeGenerator) Option {
	return func(o *Options) {
		o.Backend = backend
	}
}

// Compiler holds configuration only. Every call to Compile or Run uses fresh pipeline state,
// so one Compiler may be shared between goroutines.
type Compiler struct {
	opts Options
}

func New(opts ...Option) *Compiler {
	options := Options{
		Target:   codegen.TargetX86_64,
		Optimize: true,
		Logger:   slog.Default(),
	}
	for _, o := range opts {
		o(&options)
	}
	return &Compiler{opts: options}
}

// Result holds the output of every stage of a successful compilation.
type Result struct {
	Tokens   []lexer.Lexeme
	AST      *ast.Program
	Declared checks.DeclTable
	IR       ir.Program
	// Optimized equals IR when optimization is disabled.
	Optimized ir.Program
	Assembly  string
}

// Compile translates source into assembly text for the configured target.
func Compile(source string, target codegen.Target) (string, error) {
	return New(WithTarget(target)).Compile(source)
}

func (c *Compiler) Compile(source string) (string, error) {
	result, err := c.Run(source)
	if err != nil {
		return "", err
	}
	return result.Assembly, nil
}

// Frontend runs every stage up to and including optimization.
func (c *Compiler) Frontend(source string) (*Result, error) {
	log := c.opts.Logger
	result := &Result{}

	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageLexing, err)
	}
	result.Tokens = tokens
	log.Debug("stage complete", "stage", StageLexing, "tokens", len(tokens))

	program, err := parser.Parse(tokens)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageParsing, err)
	}
	result.AST = program
	log.Debug("stage complete", "stage", StageParsing, "statements", len(program.Statements))

	declared, err := checks.Run(program)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageSemantic, err)
	}
	result.Declared = declared
	log.Debug("stage complete", "stage", StageSemantic, "variables", len(declared))

	irProgram, err := ir.NewGenerator().Generate(program)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageIR, err)
	}
	result.IR = irProgram
	log.Debug("stage complete", "stage", StageIR, "ops", len(irProgram.Ops), "labels", len(irProgram.Labels))

	result.Optimized = irProgram
	if c.opts.Optimize {
		result.Optimized = opt.Run(irProgram)
		log.Debug("stage complete", "stage", StageOptimizing,
			"ops_before", len(irProgram.Ops), "ops_after", len(result.Optimized.Ops))
	}

	return result, nil
}

// Run executes the whole pipeline and returns every intermediate result.
func (c *Compiler) Run(source string) (*Result, error) {
	result, err := c.Frontend(source)
	if err != nil {
		return nil, err
	}

	backend := c.opts.Backend
	if backend == nil {
		backend, err = codegen.NewCodeGenerator(c.opts.Target)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", StageCodegen, err)
		}
	}

	asmProgram, err := backend.Generate(result.Optimized)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageCodegen, err)
	}

	var out bytes.Buffer
	backend.Format(&out, asmProgram)
	result.Assembly = out.String()
	c.opts.Logger.Debug("stage complete", "stage", StageCodegen, "target", c.opts.Target.String(), "bytes", out.Len())

	return result, nil
}
