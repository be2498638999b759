package asm

// Program is a target-neutral model of the emitted assembly.
// Code generators build it, formatters turn it into text in a concrete dialect.
type Program struct {
	Functions       []Function
	GlobalVariables []GlobalVariable
}

type Function struct {
	Name  string
	Lines []Line
}

type Line struct {
	Comment string
	Label   string
	Op      string
	Arity   int
	Arg1    Arg
	Arg2    Arg
}

// Arg is an instruction operand: a register, an immediate, a label or a memory reference.
type Arg struct {
	Reg    string
	Offset int
	Imm    *int
	Label  string
	Deref  bool
	// Size is the operand width in bytes for dialects that spell it out (dword, qword).
	// Zero means the width is implied by the instruction or the register.
	Size int
}

func (a Arg) WithOffset(offset int) Arg {
	result := a
	result.Offset = offset
	return result
}

func (a Arg) AsDeref() Arg {
	result := a
	result.Deref = true
	return result
}

func (a Arg) WithSize(size int) Arg {
	result := a
	result.Size = size
	return result
}

// GlobalVariable is an uninitialized data cell.
type GlobalVariable struct {
	Label string
	Size  int
}

func Imm(value int) Arg {
	return Arg{Imm: &value}
}

func DerefWithOffset(arg Arg, offset int) Arg {
	return arg.WithOffset(offset).AsDeref()
}

func Reg(reg string) Arg {
	return Arg{Reg: reg}
}

func Ref(label string) Arg {
	return Arg{Label: label}
}

func Op0(op string) Line {
	return Line{Op: op}
}

func Op1(op string, arg Arg) Line {
	return Line{Op: op, Arity: 1, Arg1: arg}
}

func Op2(op string, arg1, arg2 Arg) Line {
	return Line{Op: op, Arity: 2, Arg1: arg1, Arg2: arg2}
}

func Comment(text string) Line {
	return Line{Comment: text}
}

func Label(text string) Line {
	return Line{Label: text}
}

// Ops returns the instruction lines of a function, skipping labels and comments.
func (f Function) Ops() []Line {
	var result []Line
	for _, line := range f.Lines {
		if line.Op != "" {
			result = append(result, line)
		}
	}
	return result
}
