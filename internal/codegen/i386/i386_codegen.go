package i386

import (
	"fmt"
	"io"

	"github.com/iley/stackc/internal/asm"
	"github.com/iley/stackc/internal/codegen/common"
	"github.com/iley/stackc/internal/ir"
)

const (
	SlotSize = 4
	// dwordSize marks operands NASM cannot infer a width for.
	dwordSize = 4
)

var (
	eax = asm.Reg("eax")
	ecx = asm.Reg("ecx")
	al  = asm.Reg("al")
	ebp = asm.Reg("ebp")
	esp = asm.Reg("esp")
)

// CodeGenerator emits NASM assembly in Intel syntax. Operands are stored in Intel order: destination first.
type CodeGenerator struct{}

func (cg *CodeGenerator) Generate(program ir.Program) (asm.Program, error) {
	return Generate(program)
}

func (cg *CodeGenerator) Format(out io.Writer, p asm.Program) {
	formatProgram(out, p)
}

type codegenContext struct {
	slots        *common.SlotTable
	functionName string
}

func Generate(program ir.Program) (asm.Program, error) {
	slots, err := common.NewSlotTable(SlotSize, common.GatherVariables(program))
	if err != nil {
		return asm.Program{}, err
	}

	cc := &codegenContext{
		slots:        slots,
		functionName: common.EntryName,
	}

	fn := asm.Function{Name: cc.functionName}
	fn.Lines = append(fn.Lines,
		asm.Comment(fmt.Sprintf("frame size: %d bytes, %d variables", common.FrameSize, slots.Len())),
		asm.Op1("push", ebp),
		asm.Op2("mov", ebp, esp),
		asm.Op2("sub", esp, asm.Imm(common.FrameSize)))

	body, err := common.Lower(cc.functionName, program, cc.generateOp)
	if err != nil {
		return asm.Program{}, err
	}
	fn.Lines = append(fn.Lines, body...)

	fn.Lines = append(fn.Lines,
		asm.Op2("mov", eax, asm.Imm(0)),
		asm.Op2("mov", esp, ebp),
		asm.Op1("pop", ebp),
		asm.Op0("ret"))

	return asm.Program{
		Functions:       []asm.Function{fn},
		GlobalVariables: []asm.GlobalVariable{{Label: common.ScratchLabel, Size: SlotSize}},
	}, nil
}

func (cc *codegenContext) generateOp(op ir.Op) ([]asm.Line, error) {
	switch o := op.(type) {
	case ir.LoadConstant:
		return []asm.Line{asm.Op1("push", asm.Imm(int(o.Value)).WithSize(dwordSize))}, nil
	case ir.LoadVariable:
		offset, err := cc.slots.Offset(o.Name)
		if err != nil {
			return nil, err
		}
		return []asm.Line{asm.Op1("push", asm.DerefWithOffset(ebp, offset).WithSize(dwordSize))}, nil
	case ir.Store:
		offset, err := cc.slots.Offset(o.Name)
		if err != nil {
			return nil, err
		}
		return []asm.Line{
			asm.Op1("pop", eax),
			asm.Op2("mov", asm.DerefWithOffset(ebp, offset), eax),
		}, nil
	case ir.Add:
		return generateArithmetic(asm.Op2("add", eax, ecx)), nil
	case ir.Subtract:
		return generateArithmetic(asm.Op2("sub", eax, ecx)), nil
	case ir.Multiply:
		return generateArithmetic(asm.Op2("imul", eax, ecx)), nil
	case ir.Divide:
		return generateArithmetic(asm.Op0("cdq"), asm.Op1("idiv", ecx)), nil
	case ir.Compare:
		suffix, err := common.ConditionSuffix(o.Operator)
		if err != nil {
			return nil, err
		}
		return generateArithmetic(
			asm.Op2("cmp", eax, ecx),
			asm.Op1("set"+suffix, al),
			asm.Op2("movzx", eax, al)), nil
	case ir.JumpIfFalse:
		return []asm.Line{
			asm.Op1("pop", eax),
			asm.Op2("cmp", eax, asm.Imm(0)),
			asm.Op1("je", asm.Ref(common.LabelName(cc.functionName, o.Label))),
		}, nil
	case ir.Jump:
		return []asm.Line{asm.Op1("jmp", asm.Ref(common.LabelName(cc.functionName, o.Label)))}, nil
	}
	return nil, fmt.Errorf("unsupported op type: %T", op)
}

// generateArithmetic pops the right operand into ecx and the left one into eax,
// applies the given instructions and pushes eax.
func generateArithmetic(compute ...asm.Line) []asm.Line {
	lines := []asm.Line{
		asm.Op1("pop", ecx),
		asm.Op1("pop", eax),
	}
	lines = append(lines, compute...)
	lines = append(lines, asm.Op1("push", eax))
	return lines
}
