// Package diag defines the error kinds reported by the compiler stages.
package diag

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindUnrecognizedCharacter is reported by the lexer.
	KindUnrecognizedCharacter Kind = iota
	// KindSyntax is reported when the token stream does not match the grammar.
	KindSyntax
	// KindName is reported when a variable is used before it is assigned.
	KindName
	// KindOperator signals an operator outside of the closed set a stage understands.
	KindOperator
	// KindCodegen signals an IR program the code generator cannot translate.
	KindCodegen
)

func (k Kind) String() string {
	switch k {
	case KindUnrecognizedCharacter:
		return "UnrecognizedCharacter"
	case KindSyntax:
		return "SyntaxError"
	case KindName:
		return "NameError"
	case KindOperator:
		return "OperatorError"
	case KindCodegen:
		return "CodegenError"
	default:
		return "UnknownError"
	}
}

type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind of a (possibly wrapped) compiler error.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// Is reports whether err is a compiler error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
