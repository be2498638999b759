package diag

import (
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := Errorf(KindName, "variable %s is not declared", "x")
	wrapped := fmt.Errorf("semantic analysis: %w", err)

	kind, ok := KindOf(wrapped)
	if !ok {
		t.Fatalf("expected a diag error in %v", wrapped)
	}
	if kind != KindName {
		t.Errorf("expected kind %s, got %s", KindName, kind)
	}
	if !Is(wrapped, KindName) {
		t.Errorf("expected Is(%v, KindName) to be true", wrapped)
	}
	if Is(wrapped, KindSyntax) {
		t.Errorf("expected Is(%v, KindSyntax) to be false", wrapped)
	}
	if want := "semantic analysis: NameError: variable x is not declared"; wrapped.Error() != want {
		t.Errorf("expected %q, got %q", want, wrapped.Error())
	}
}

func TestKindOfForeignError(t *testing.T) {
	if _, ok := KindOf(fmt.Errorf("plain")); ok {
		t.Errorf("expected a plain error to carry no kind")
	}
}
