package x86_64

import (
	"fmt"
	"io"

	"github.com/iley/stackc/internal/asm"
	"github.com/iley/stackc/internal/codegen/common"
	"github.com/iley/stackc/internal/ir"
)

// Values live on the machine stack as 8-byte words holding sign-extended 32-bit integers.
const SlotSize = 8

var (
	rax = asm.Reg("rax")
	rcx = asm.Reg("rcx")
	eax = asm.Reg("eax")
	ecx = asm.Reg("ecx")
	al  = asm.Reg("al")
	rbp = asm.Reg("rbp")
	rsp = asm.Reg("rsp")
)

// CodeGenerator emits GNU as assembly in AT&T syntax.
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
		asm.Op1("pushq", rbp),
		asm.Op2("movq", rsp, rbp),
		asm.Op2("subq", asm.Imm(common.FrameSize), rsp))

	body, err := common.Lower(cc.functionName, program, cc.generateOp)
	if err != nil {
		return asm.Program{}, err
	}
	fn.Lines = append(fn.Lines, body...)

	fn.Lines = append(fn.Lines,
		asm.Op2("movl", asm.Imm(0), eax),
		asm.Op2("movq", rbp, rsp),
		asm.Op1("popq", rbp),
		asm.Op0("ret"))

	return asm.Program{
		Functions:       []asm.Function{fn},
		GlobalVariables: []asm.GlobalVariable{{Label: common.ScratchLabel, Size: SlotSize}},
	}, nil
}

func (cc *codegenContext) generateOp(op ir.Op) ([]asm.Line, error) {
	switch o := op.(type) {
	case ir.LoadConstant:
		return []asm.Line{asm.Op1("pushq", asm.Imm(int(o.Value)))}, nil
	case ir.LoadVariable:
		offset, err := cc.slots.Offset(o.Name)
		if err != nil {
			return nil, err
		}
		return []asm.Line{asm.Op1("pushq", asm.DerefWithOffset(rbp, offset))}, nil
	case ir.Store:
		offset, err := cc.slots.Offset(o.Name)
		if err != nil {
			return nil, err
		}
		return []asm.Line{
			asm.Op1("popq", rax),
			asm.Op2("movq", rax, asm.DerefWithOffset(rbp, offset)),
		}, nil
	case ir.Add:
		return generateArithmetic(asm.Op2("addl", ecx, eax)), nil
	case ir.Subtract:
		return generateArithmetic(asm.Op2("subl", ecx, eax)), nil
	case ir.Multiply:
		return generateArithmetic(asm.Op2("imull", ecx, eax)), nil
	case ir.Divide:
		return generateArithmetic(asm.Op0("cltd"), asm.Op1("idivl", ecx)), nil
	case ir.Compare:
		suffix, err := common.ConditionSuffix(o.Operator)
		if err != nil {
			return nil, err
		}
		return []asm.Line{
			asm.Op1("popq", rcx),
			asm.Op1("popq", rax),
			asm.Op2("cmpl", ecx, eax),
			asm.Op1("set"+suffix, al),
			asm.Op2("movzbl", al, eax),
			asm.Op1("pushq", rax),
		}, nil
	case ir.JumpIfFalse:
		return []asm.Line{
			asm.Op1("popq", rax),
			asm.Op2("cmpl", asm.Imm(0), eax),
			asm.Op1("je", asm.Ref(common.LabelName(cc.functionName, o.Label))),
		}, nil
	case ir.Jump:
		return []asm.Line{asm.Op1("jmp", asm.Ref(common.LabelName(cc.functionName, o.Label)))}, nil
	}
	return nil, fmt.Errorf("unsupported op type: %T", op)
}

// generateArithmetic pops the right operand into rcx and the left one into rax,
// applies the given instructions and pushes the sign-extended 32-bit result.
func generateArithmetic(compute ...asm.Line) []asm.Line {
	lines := []asm.Line{
		asm.Op1("popq", rcx),
		asm.Op1("popq", rax),
	}
	lines = append(lines, compute...)
	lines = append(lines,
		asm.Op0("cltq"),
		asm.Op1("pushq", rax))
	return lines
}
