package compiler_test

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/iley/stackc/internal/asm"
	"github.com/iley/stackc/internal/codegen"
	"github.com/iley/stackc/internal/compiler"
	"github.com/iley/stackc/internal/diag"
	"github.com/iley/stackc/internal/ir"
)

var _ = Describe("Compiler", func() {
	var (
		mockCtrl    *gomock.Controller
		mockBackend *MockCodeGenerator
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		mockBackend = NewMockCodeGenerator(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("with a well-formed program", func() {
		source := "x = 5; y = 10; z = x + y;"

		It("should lower assignments to the expected IR", func() {
			result, err := compiler.New().Run(source)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.IR.Ops).To(Equal([]ir.Op{
				ir.LoadConstant{Value: 5},
				ir.Store{Name: "x"},
				ir.LoadConstant{Value: 10},
				ir.Store{Name: "y"},
				ir.LoadVariable{Name: "x"},
				ir.LoadVariable{Name: "y"},
				ir.Add{},
				ir.Store{Name: "z"},
			}))
			Expect(result.Optimized).To(Equal(result.IR))
			Expect(result.Declared.Names()).To(Equal([]string{"x", "y", "z"}))
		})

		DescribeTable("should emit assembly for every target",
			func(target codegen.Target, parts []string) {
				text, err := compiler.Compile(source, target)

				Expect(err).NotTo(HaveOccurred())
				for _, part := range parts {
					Expect(text).To(ContainSubstring(part))
				}
			},
			Entry("x86_64", codegen.TargetX86_64,
				[]string{".globl main", "movq %rax, -8(%rbp)", "movq %rax, -16(%rbp)", "movq %rax, -24(%rbp)"}),
			Entry("i386", codegen.TargetI386,
				[]string{"global main", "mov [ebp-4], eax", "mov [ebp-8], eax", "mov [ebp-12], eax"}),
		)

		It("should hand the optimized IR to the backend", func() {
			mockBackend.EXPECT().
				Generate(gomock.Any()).
				DoAndReturn(func(p ir.Program) (asm.Program, error) {
					Expect(p.Ops).To(Equal([]ir.Op{ir.LoadConstant{Value: 5}, ir.Store{Name: "x"}}))
					return asm.Program{Functions: []asm.Function{{Name: "main"}}}, nil
				})
			mockBackend.EXPECT().
				Format(gomock.Any(), gomock.Any()).
				Do(func(out io.Writer, p asm.Program) {
					io.WriteString(out, "assembled "+p.Functions[0].Name)
				})

			text, err := compiler.New(compiler.WithBackend(mockBackend)).Compile("x = 2 + 3")

			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("assembled main"))
		})

		It("should skip folding when optimization is disabled", func() {
			result, err := compiler.New(compiler.WithOptimization(false)).Run("x = 2 + 3")

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Optimized.Ops).To(HaveLen(4))
		})

		It("should lower if/else so that only one branch runs", func() {
			result, err := compiler.New().Run("if (1 < 2) { x = 1; } else { x = 2; }")

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Optimized.Labels).To(HaveLen(2))
			vars, err := ir.Run(result.Optimized)
			Expect(err).NotTo(HaveOccurred())
			Expect(vars).To(Equal(map[string]int32{"x": 1}))
		})

		It("should log every stage at debug level", func() {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

			_, err := compiler.New(compiler.WithLogger(logger)).Compile(source)

			Expect(err).NotTo(HaveOccurred())
			for _, stage := range []string{"lexing", "parsing", "\"semantic analysis\"", "\"IR generation\"", "optimization", "\"code generation\""} {
				Expect(logs.String()).To(ContainSubstring("stage=" + stage))
			}
		})

		It("should give identical results to independent concurrent compilations", func() {
			expected, err := compiler.Compile(source, codegen.TargetX86_64)
			Expect(err).NotTo(HaveOccurred())

			var wg sync.WaitGroup
			results := make([]string, 8)
			c := compiler.New()
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], _ = c.Compile(source)
				}(i)
			}
			wg.Wait()

			for _, result := range results {
				Expect(result).To(Equal(expected))
			}
		})
	})

	Context("with a malformed program", func() {
		DescribeTable("should fail before reaching the backend",
			func(source string, kind diag.Kind, stage string) {
				text, err := compiler.New(compiler.WithBackend(mockBackend)).Compile(source)

				Expect(err).To(HaveOccurred())
				Expect(text).To(BeEmpty())
				Expect(diag.Is(err, kind)).To(BeTrue(), "unexpected error kind: %v", err)
				Expect(strings.HasPrefix(err.Error(), stage+": ")).To(BeTrue(), "unexpected stage: %v", err)
			},
			Entry("missing assignment value", "x = ;", diag.KindSyntax, compiler.StageParsing),
			Entry("unrecognized character", "x = 1 @ 2", diag.KindUnrecognizedCharacter, compiler.StageLexing),
			Entry("integer literal overflow", "x = 2147483648", diag.KindSyntax, compiler.StageLexing),
			Entry("use before assignment", "y = x + 1", diag.KindName, compiler.StageSemantic),
			Entry("unclosed block", "if 1 { x = 1", diag.KindSyntax, compiler.StageParsing),
		)

		It("should report a backend failure as a codegen error without output", func() {
			mockBackend.EXPECT().
				Generate(gomock.Any()).
				Return(asm.Program{}, diag.Errorf(diag.KindCodegen, "out of registers"))

			text, err := compiler.New(compiler.WithBackend(mockBackend)).Compile("x = 1")

			Expect(text).To(BeEmpty())
			Expect(diag.Is(err, diag.KindCodegen)).To(BeTrue())
			Expect(err.Error()).To(Equal("code generation: CodegenError: out of registers"))
		})

		It("should expose the error kind through errors.As", func() {
			_, err := compiler.Compile("x = ;", codegen.TargetI386)

			var diagErr *diag.Error
			Expect(errors.As(err, &diagErr)).To(BeTrue())
			Expect(diagErr.Kind).To(Equal(diag.KindSyntax))
		})
	})
})
