package common

import (
	"github.com/iley/stackc/internal/diag"
	"github.com/iley/stackc/internal/ir"
)

// GatherVariables returns the names of all variables the program loads or stores, in order of first appearance.
func GatherVariables(p ir.Program) []string {
	seen := make(map[string]struct{})
	var result []string
	for _, op := range p.Ops {
		var name string
		switch o := op.(type) {
		case ir.LoadVariable:
			name = o.Name
		case ir.Store:
			name = o.Name
		default:
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}
	return result
}

// SlotTable assigns every variable its own slot in the fixed-size frame.
// Slots are laid out downwards from the frame pointer: the first variable lives at -slotSize.
type SlotTable struct {
	slotSize int
	offsets  map[string]int
	names    []string
}

func NewSlotTable(slotSize int, names []string) (*SlotTable, error) {
	t := &SlotTable{
		slotSize: slotSize,
		offsets:  make(map[string]int),
	}
	for _, name := range names {
		if _, err := t.Allocate(name); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Allocate returns the frame pointer offset of the variable, assigning the next free slot on first use.
func (t *SlotTable) Allocate(name string) (int, error) {
	if offset, ok := t.offsets[name]; ok {
		return offset, nil
	}
	if len(t.names) >= t.Capacity() {
		return 0, diag.Errorf(diag.KindCodegen, "too many variables: %s does not fit into a %d byte frame of %d slots",
			name, FrameSize, t.Capacity())
	}
	t.names = append(t.names, name)
	offset := -len(t.names) * t.slotSize
	t.offsets[name] = offset
	return offset, nil
}

// Offset returns the offset of a variable that already has a slot.
func (t *SlotTable) Offset(name string) (int, error) {
	offset, ok := t.offsets[name]
	if !ok {
		return 0, diag.Errorf(diag.KindCodegen, "variable %s has no frame slot", name)
	}
	return offset, nil
}

func (t *SlotTable) Capacity() int {
	return FrameSize / t.slotSize
}

func (t *SlotTable) Len() int {
	return len(t.names)
}

// Names returns the variables in slot order.
func (t *SlotTable) Names() []string {
	return t.names
}
