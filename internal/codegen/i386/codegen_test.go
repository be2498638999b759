package i386

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/iley/stackc/internal/diag"
	"github.com/iley/stackc/internal/ir"
)

func generateText(t *testing.T, program ir.Program) string {
	t.Helper()
	cg := &CodeGenerator{}
	asmProgram, err := cg.Generate(program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var output bytes.Buffer
	cg.Format(&output, asmProgram)
	return output.String()
}

func TestGenerate_EmptyProgram(t *testing.T) {
	result := generateText(t, ir.Program{})

	expectedParts := []string{
		"section .bss\nscratch: resd 1\n",
		"section .text\n",
		"global main\n",
		"main:\n",
		"  push ebp\n",
		"  mov ebp, esp\n",
		"  sub esp, 256\n",
		"  mov eax, 0\n",
		"  mov esp, ebp\n",
		"  pop ebp\n",
		"  ret\n",
	}

	for _, expected := range expectedParts {
		if !strings.Contains(result, expected) {
			t.Errorf("Expected output to contain %q, but it was missing.\nFull output:\n%s", expected, result)
		}
	}
}

func TestGenerate_Assignments(t *testing.T) {
	// x = 5; y = 10; z = x + y;
	program := ir.Program{Ops: []ir.Op{
		ir.LoadConstant{Value: 5},
		ir.Store{Name: "x"},
		ir.LoadConstant{Value: 10},
		ir.Store{Name: "y"},
		ir.LoadVariable{Name: "x"},
		ir.LoadVariable{Name: "y"},
		ir.Add{},
		ir.Store{Name: "z"},
	}}
	result := generateText(t, program)

	stores := regexp.MustCompile(`mov \[ebp(-\d+)\], eax`).FindAllStringSubmatch(result, -1)
	if len(stores) != 3 {
		t.Fatalf("Expected 3 stores, got %d.\nFull output:\n%s", len(stores), result)
	}
	offsets := map[string]bool{}
	for _, store := range stores {
		offsets[store[1]] = true
	}
	if len(offsets) != 3 {
		t.Errorf("Expected 3 distinct store offsets, got %v.\nFull output:\n%s", offsets, result)
	}

	expectedParts := []string{
		"  push dword 5\n",
		"  push dword 10\n",
		"  push dword [ebp-4]\n",
		"  push dword [ebp-8]\n",
		"  pop ecx\n  pop eax\n  add eax, ecx\n  push eax\n",
		"  mov [ebp-12], eax\n",
	}
	for _, expected := range expectedParts {
		if !strings.Contains(result, expected) {
			t.Errorf("Expected output to contain %q, but it was missing.\nFull output:\n%s", expected, result)
		}
	}
}

func TestGenerate_Arithmetic(t *testing.T) {
	testCases := []struct {
		op       ir.Op
		expected string
	}{
		{op: ir.Subtract{}, expected: "  sub eax, ecx\n"},
		{op: ir.Multiply{}, expected: "  imul eax, ecx\n"},
		{op: ir.Divide{}, expected: "  cdq\n  idiv ecx\n"},
		{op: ir.Compare{Operator: ir.CmpEqual}, expected: "  cmp eax, ecx\n  sete al\n  movzx eax, al\n  push eax\n"},
		{op: ir.Compare{Operator: ir.CmpLess}, expected: "  setl al\n"},
		{op: ir.Compare{Operator: ir.CmpGreater}, expected: "  setg al\n"},
		{op: ir.Compare{Operator: ir.CmpLessEqual}, expected: "  setle al\n"},
		{op: ir.Compare{Operator: ir.CmpGreaterEqual}, expected: "  setge al\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.op.String(), func(t *testing.T) {
			result := generateText(t, ir.Program{Ops: []ir.Op{ir.LoadConstant{Value: 7}, ir.LoadConstant{Value: 2}, tc.op}})
			if !strings.Contains(result, tc.expected) {
				t.Errorf("Expected output to contain %q, but it was missing.\nFull output:\n%s", tc.expected, result)
			}
		})
	}
}

func TestGenerate_Labels(t *testing.T) {
	program := ir.Program{
		Ops: []ir.Op{
			ir.LoadConstant{Value: 1},
			ir.JumpIfFalse{Label: 0},
			ir.LoadConstant{Value: 1},
			ir.Store{Name: "x"},
			ir.Jump{Label: 1},
			ir.LoadConstant{Value: 2},
			ir.Store{Name: "x"},
		},
		Labels: map[ir.Label]int{0: 5, 1: 7},
	}
	result := generateText(t, program)

	for _, label := range []string{".Lmain_0", ".Lmain_1"} {
		if count := strings.Count(result, label+":"); count != 1 {
			t.Errorf("Expected label %s to be defined once, got %d.\nFull output:\n%s", label, count, result)
		}
	}

	expectedParts := []string{
		"  pop eax\n  cmp eax, 0\n  je .Lmain_0\n",
		"  jmp .Lmain_1\n.Lmain_0:\n",
		".Lmain_1:\n  mov eax, 0\n",
	}
	for _, expected := range expectedParts {
		if !strings.Contains(result, expected) {
			t.Errorf("Expected output to contain %q, but it was missing.\nFull output:\n%s", expected, result)
		}
	}
}

func TestGenerate_Errors(t *testing.T) {
	tooMany := ir.Program{}
	for i := 0; i < 65; i++ {
		tooMany.Ops = append(tooMany.Ops, ir.LoadConstant{Value: 0}, ir.Store{Name: fmt.Sprintf("v%d", i)})
	}

	testCases := []struct {
		name    string
		program ir.Program
	}{
		{name: "undefined label", program: ir.Program{Ops: []ir.Op{ir.JumpIfFalse{Label: 0}}}},
		{
			name:    "unknown comparison",
			program: ir.Program{Ops: []ir.Op{ir.LoadConstant{Value: 1}, ir.LoadConstant{Value: 2}, ir.Compare{Operator: ir.Comparison(9)}}},
		},
		{name: "too many variables", program: tooMany},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Generate(tc.program)
			if !diag.Is(err, diag.KindCodegen) {
				t.Errorf("Expected a codegen error, got %v", err)
			}
		})
	}
}
