package opt

import (
	"math"
	"reflect"
	"testing"

	"github.com/iley/stackc/internal/ir"
	"github.com/iley/stackc/internal/lexer"
	"github.com/iley/stackc/internal/parser"
)

func TestRun(t *testing.T) {
	testCases := []struct {
		name     string
		program  ir.Program
		expected ir.Program
	}{
		{
			name:     "single fold",
			program:  ir.Program{Ops: []ir.Op{ir.LoadConstant{Value: 2}, ir.LoadConstant{Value: 3}, ir.Add{}}},
			expected: ir.Program{Ops: []ir.Op{ir.LoadConstant{Value: 5}}, Labels: map[ir.Label]int{}},
		},
		{
			name: "chained fold",
			program: ir.Program{Ops: []ir.Op{
				ir.LoadConstant{Value: 1}, ir.LoadConstant{Value: 2}, ir.Add{}, ir.LoadConstant{Value: 3}, ir.Add{}, ir.Store{Name: "x"},
			}},
			expected: ir.Program{Ops: []ir.Op{ir.LoadConstant{Value: 6}, ir.Store{Name: "x"}}, Labels: map[ir.Label]int{}},
		},
		{
			name: "fold that enables a fold to the left",
			program: ir.Program{Ops: []ir.Op{
				ir.LoadConstant{Value: 1}, ir.LoadConstant{Value: 2}, ir.LoadConstant{Value: 3}, ir.Add{}, ir.Add{},
			}},
			expected: ir.Program{Ops: []ir.Op{ir.LoadConstant{Value: 6}}, Labels: map[ir.Label]int{}},
		},
		{
			name: "other operators are kept",
			program: ir.Program{Ops: []ir.Op{
				ir.LoadConstant{Value: 5}, ir.LoadConstant{Value: 3}, ir.Subtract{},
				ir.LoadConstant{Value: 2}, ir.LoadConstant{Value: 4}, ir.Multiply{},
			}},
			expected: ir.Program{Ops: []ir.Op{
				ir.LoadConstant{Value: 5}, ir.LoadConstant{Value: 3}, ir.Subtract{},
				ir.LoadConstant{Value: 2}, ir.LoadConstant{Value: 4}, ir.Multiply{},
			}, Labels: map[ir.Label]int{}},
		},
		{
			name: "variables are not folded",
			program: ir.Program{Ops: []ir.Op{
				ir.LoadConstant{Value: 5}, ir.Store{Name: "x"}, ir.LoadConstant{Value: 10}, ir.Store{Name: "y"},
				ir.LoadVariable{Name: "x"}, ir.LoadVariable{Name: "y"}, ir.Add{}, ir.Store{Name: "z"},
			}},
			expected: ir.Program{Ops: []ir.Op{
				ir.LoadConstant{Value: 5}, ir.Store{Name: "x"}, ir.LoadConstant{Value: 10}, ir.Store{Name: "y"},
				ir.LoadVariable{Name: "x"}, ir.LoadVariable{Name: "y"}, ir.Add{}, ir.Store{Name: "z"},
			}, Labels: map[ir.Label]int{}},
		},
		{
			name:     "wrap around",
			program:  ir.Program{Ops: []ir.Op{ir.LoadConstant{Value: math.MaxInt32}, ir.LoadConstant{Value: 1}, ir.Add{}}},
			expected: ir.Program{Ops: []ir.Op{ir.LoadConstant{Value: math.MinInt32}}, Labels: map[ir.Label]int{}},
		},
		{
			name:     "fewer than three ops",
			program:  ir.Program{Ops: []ir.Op{ir.LoadConstant{Value: 1}, ir.LoadConstant{Value: 2}}},
			expected: ir.Program{Ops: []ir.Op{ir.LoadConstant{Value: 1}, ir.LoadConstant{Value: 2}}, Labels: map[ir.Label]int{}},
		},
		{
			name: "labels after a fold are shifted",
			program: ir.Program{
				Ops: []ir.Op{
					ir.LoadConstant{Value: 1},
					ir.JumpIfFalse{Label: 0},
					ir.LoadConstant{Value: 2}, ir.LoadConstant{Value: 3}, ir.Add{}, ir.Store{Name: "x"},
					ir.Jump{Label: 1},
					ir.LoadConstant{Value: 4}, ir.Store{Name: "x"},
				},
				Labels: map[ir.Label]int{0: 7, 1: 9},
			},
			expected: ir.Program{
				Ops: []ir.Op{
					ir.LoadConstant{Value: 1},
					ir.JumpIfFalse{Label: 0},
					ir.LoadConstant{Value: 5}, ir.Store{Name: "x"},
					ir.Jump{Label: 1},
					ir.LoadConstant{Value: 4}, ir.Store{Name: "x"},
				},
				Labels: map[ir.Label]int{0: 5, 1: 7},
			},
		},
		{
			name: "no fold across a label",
			program: ir.Program{
				Ops: []ir.Op{
					ir.LoadConstant{Value: 0},
					ir.JumpIfFalse{Label: 0},
					ir.LoadConstant{Value: 2},
					ir.LoadConstant{Value: 3},
					ir.Add{},
				},
				Labels: map[ir.Label]int{0: 3},
			},
			expected: ir.Program{
				Ops: []ir.Op{
					ir.LoadConstant{Value: 0},
					ir.JumpIfFalse{Label: 0},
					ir.LoadConstant{Value: 2},
					ir.LoadConstant{Value: 3},
					ir.Add{},
				},
				Labels: map[ir.Label]int{0: 3},
			},
		},
		{
			name: "fold when a label marks the first op",
			program: ir.Program{
				Ops:    []ir.Op{ir.Jump{Label: 0}, ir.LoadConstant{Value: 2}, ir.LoadConstant{Value: 3}, ir.Add{}},
				Labels: map[ir.Label]int{0: 1},
			},
			expected: ir.Program{
				Ops:    []ir.Op{ir.Jump{Label: 0}, ir.LoadConstant{Value: 5}},
				Labels: map[ir.Label]int{0: 1},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Run(tc.program)
			if !reflect.DeepEqual(result, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, result)
			}
			if err := result.Validate(); err != nil {
				t.Errorf("optimized program is invalid: %v", err)
			}
		})
	}
}

func TestRunIsIdempotent(t *testing.T) {
	programs := []ir.Program{
		{Ops: []ir.Op{ir.LoadConstant{Value: 1}, ir.LoadConstant{Value: 2}, ir.Add{}, ir.LoadConstant{Value: 3}, ir.Add{}}},
		{Ops: []ir.Op{ir.LoadConstant{Value: 1}, ir.LoadConstant{Value: 2}, ir.LoadConstant{Value: 3}, ir.Add{}, ir.Add{}, ir.LoadConstant{Value: 4}, ir.Add{}}},
		{
			Ops:    []ir.Op{ir.LoadConstant{Value: 0}, ir.JumpIfFalse{Label: 0}, ir.LoadConstant{Value: 2}, ir.LoadConstant{Value: 3}, ir.Add{}, ir.LoadConstant{Value: 4}, ir.Add{}},
			Labels: map[ir.Label]int{0: 3},
		},
		generateSourceProgram("a = 1 + 2 + 3; if a == 6 { b = a + 4 + 5 } else { b = 7 + 8 }"),
	}

	for _, program := range programs {
		once := Run(program)
		twice := Run(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("optimizer is not idempotent:\n%v\n%v", once, twice)
		}
	}
}

func TestRunPreservesSemantics(t *testing.T) {
	program := generateSourceProgram("a = 1 + 2 + 3; if a == 6 { b = a + 4 + 5 } else { b = 7 + 8 }; c = (1 + 2) * (3 + 4)")
	before, err := ir.Run(program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	optimized := Run(program)
	if len(optimized.Ops) >= len(program.Ops) {
		t.Errorf("expected the optimizer to shorten the program, got %d ops from %d", len(optimized.Ops), len(program.Ops))
	}
	after, err := ir.Run(optimized)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("optimization changed the result: %v vs %v", before, after)
	}
}

func TestRunDoesNotModifyInput(t *testing.T) {
	program := ir.Program{
		Ops:    []ir.Op{ir.Jump{Label: 0}, ir.LoadConstant{Value: 2}, ir.LoadConstant{Value: 3}, ir.Add{}, ir.Store{Name: "x"}},
		Labels: map[ir.Label]int{0: 4},
	}
	original := program.Clone()
	Run(program)
	if !reflect.DeepEqual(program, original) {
		t.Errorf("input was modified: %v", program)
	}
}

func generateSourceProgram(src string) ir.Program {
	lexemes, err := lexer.Tokenize(src)
	if err != nil {
		panic(err)
	}
	program, err := parser.Parse(lexemes)
	if err != nil {
		panic(err)
	}
	irProgram, err := ir.NewGenerator().Generate(program)
	if err != nil {
		panic(err)
	}
	return irProgram
}
