package ir

import (
	"errors"
	"fmt"
)

var ErrDivisionByZero = errors.New("division by zero")

// maxSteps bounds execution of malformed programs with backward jumps.
const maxSteps = 1_000_000

// Run executes the program with 32-bit wrap-around arithmetic and returns the final variable values.
// It serves as a reference for what the generated assembly computes.
func Run(program Program) (map[string]int32, error) {
	if err := program.Validate(); err != nil {
		return nil, err
	}

	vars := make(map[string]int32)
	var stack []int32

	pop := func(pc int) (int32, error) {
		if len(stack) == 0 {
			return 0, fmt.Errorf("op %d (%s): stack underflow", pc, program.Ops[pc])
		}
		value := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return value, nil
	}

	pop2 := func(pc int) (int32, int32, error) {
		right, err := pop(pc)
		if err != nil {
			return 0, 0, err
		}
		left, err := pop(pc)
		if err != nil {
			return 0, 0, err
		}
		return left, right, nil
	}

	pc := 0
	for steps := 0; pc < len(program.Ops); steps++ {
		if steps >= maxSteps {
			return nil, fmt.Errorf("program did not finish in %d steps", maxSteps)
		}

		next := pc + 1
		switch op := program.Ops[pc].(type) {
		case LoadConstant:
			stack = append(stack, op.Value)
		case LoadVariable:
			value, ok := vars[op.Name]
			if !ok {
				return nil, fmt.Errorf("op %d (%s): variable %s is not assigned", pc, op, op.Name)
			}
			stack = append(stack, value)
		case Store:
			value, err := pop(pc)
			if err != nil {
				return nil, err
			}
			vars[op.Name] = value
		case Add, Subtract, Multiply, Divide, Compare:
			left, right, err := pop2(pc)
			if err != nil {
				return nil, err
			}
			result, err := evalBinary(op, left, right)
			if err != nil {
				return nil, fmt.Errorf("op %d (%s): %w", pc, op, err)
			}
			stack = append(stack, result)
		case JumpIfFalse:
			cond, err := pop(pc)
			if err != nil {
				return nil, err
			}
			if cond == 0 {
				next = program.Labels[op.Label]
			}
		case Jump:
			next = program.Labels[op.Label]
		default:
			return nil, fmt.Errorf("op %d: unsupported op type %T", pc, op)
		}
		pc = next
	}

	return vars, nil
}

func evalBinary(op Op, left, right int32) (int32, error) {
	switch o := op.(type) {
	case Add:
		return left + right, nil
	case Subtract:
		return left - right, nil
	case Multiply:
		return left * right, nil
	case Divide:
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		return left / right, nil
	case Compare:
		var result bool
		switch o.Operator {
		case CmpEqual:
			result = left == right
		case CmpLess:
			result = left < right
		case CmpGreater:
			result = left > right
		case CmpLessEqual:
			result = left <= right
		case CmpGreaterEqual:
			result = left >= right
		default:
			return 0, fmt.Errorf("unknown comparison %s", o.Operator)
		}
		if result {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("not a binary op: %s", op)
}
