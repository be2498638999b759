package opt

import (
	"github.com/iley/stackc/internal/ir"
)

// foldConstantAdditions runs a single peephole pass replacing LoadConstant(a), LoadConstant(b), Add with LoadConstant(a+b).
//
// A triple is never folded if a label marks its second or third op: a jump could land in the middle of it.
// After a fold the scan steps back by one op because the new constant may start a foldable triple
// together with the constant before it. That makes the pass idempotent.
func foldConstantAdditions(irp ir.Program) ir.Program {
	res := irp.Clone()
	if res.Labels == nil {
		res.Labels = make(map[ir.Label]int)
	}

	i := 0
	for i+2 < len(res.Ops) {
		if value, ok := foldableAddition(res, i); ok {
			res.Ops[i] = ir.LoadConstant{Value: value}
			res.Ops = append(res.Ops[:i+1], res.Ops[i+3:]...)
			shiftLabels(res.Labels, i+2, -2)
			if i > 0 {
				i--
			}
			continue
		}
		i++
	}

	return res
}

func foldableAddition(irp ir.Program, index int) (int32, bool) {
	left, ok := irp.Ops[index].(ir.LoadConstant)
	if !ok {
		return 0, false
	}
	right, ok := irp.Ops[index+1].(ir.LoadConstant)
	if !ok {
		return 0, false
	}
	if _, ok := irp.Ops[index+2].(ir.Add); !ok {
		return 0, false
	}
	if irp.IsLabelled(index+1) || irp.IsLabelled(index+2) {
		return 0, false
	}
	// Wraps around the same way the generated 32-bit code does.
	return left.Value + right.Value, true
}

// shiftLabels moves every label positioned after index by delta.
func shiftLabels(labels map[ir.Label]int, index int, delta int) {
	for label, idx := range labels {
		if idx > index {
			labels[label] = idx + delta
		}
	}
}
