// Package layout assigns global slot indices to the fields of a sum type and
// computes each variant's contiguous slot range.
package layout

import (
	"fmt"

	"github.com/reoring/sumsplit/internal/ir"
)

// Slot is one position of the flattened container.
type Slot struct {
	Index   int    `json:"index"`
	Variant int    `json:"variant"` // owning variant, by declaration index
	Field   int    `json:"field"`   // field index within the variant
	Type    string `json:"type"`
}

// Table is the full ordered sequence of slots.
type Table struct {
	Slots []Slot `json:"slots"`
}

// N returns the number of slots.
func (t Table) N() int { return len(t.Slots) }

// Range is the half-open slot range [Offset, Offset+Len) owned by a variant.
type Range struct {
	Offset int `json:"offset"`
	Len    int `json:"len"`
}

// End returns Offset+Len.
func (r Range) End() int { return r.Offset + r.Len }

// Contains reports whether slot k falls inside the range.
func (r Range) Contains(k int) bool { return k >= r.Offset && k < r.End() }

// Allocate walks variants in declaration order and their fields in declaration
// order, assigning 0, 1, 2, ... The result depends only on the schema.
func Allocate(s *ir.SumType) Table {
	t := Table{Slots: make([]Slot, 0, s.NumSlots())}
	for vi := range s.Variants {
		for fi, f := range s.Variants[vi].Fields {
			t.Slots = append(t.Slots, Slot{Index: len(t.Slots), Variant: vi, Field: fi, Type: f.Type})
		}
	}
	return t
}

// Assign writes the allocated slot indices back into the schema's fields.
func Assign(s *ir.SumType, t Table) {
	for _, sl := range t.Slots {
		s.Variants[sl.Variant].Fields[sl.Field].Slot = sl.Index
	}
}

// Layout is a planned sum type: its slot table and per-variant ranges.
type Layout struct {
	Table  Table   `json:"table"`
	Ranges []Range `json:"ranges"`
}

// Plan allocates slots and computes offset(i) = sum of |fields(j)| for j < i.
func Plan(s *ir.SumType) *Layout {
	l := &Layout{Table: Allocate(s), Ranges: make([]Range, len(s.Variants))}
	off := 0
	for i := range s.Variants {
		n := len(s.Variants[i].Fields)
		l.Ranges[i] = Range{Offset: off, Len: n}
		off += n
	}
	return l
}

// N returns the number of slots.
func (l *Layout) N() int { return l.Table.N() }

// Range returns the slot range of variant i.
func (l *Layout) Range(i int) Range { return l.Ranges[i] }

// Owner returns the variant owning slot k, or -1 when k is out of range.
func (l *Layout) Owner(k int) int {
	if k < 0 || k >= l.N() {
		return -1
	}
	return l.Table.Slots[k].Variant
}

// Check verifies that the ranges partition [0, N) in declaration order and
// agree with the slot table.
func (l *Layout) Check() error {
	next := 0
	for i, r := range l.Ranges {
		if r.Offset != next {
			return fmt.Errorf("layout: variant %d starts at %d, want %d", i, r.Offset, next)
		}
		if r.Len < 0 {
			return fmt.Errorf("layout: variant %d has negative width %d", i, r.Len)
		}
		for k := r.Offset; k < r.End(); k++ {
			if k >= l.N() {
				return fmt.Errorf("layout: variant %d range %v exceeds %d slots", i, r, l.N())
			}
			sl := l.Table.Slots[k]
			if sl.Index != k || sl.Variant != i || sl.Field != k-r.Offset {
				return fmt.Errorf("layout: slot %d is %+v, want variant %d field %d", k, sl, i, k-r.Offset)
			}
		}
		next = r.End()
	}
	if next != l.N() {
		return fmt.Errorf("layout: ranges cover [0, %d), table has %d slots", next, l.N())
	}
	return nil
}
