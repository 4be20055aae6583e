package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/sumsplit/internal/ir"
)

func pos(types ...string) ir.Variant {
	v := ir.Variant{Shape: ir.ShapePositional}
	for _, t := range types {
		v.Fields = append(v.Fields, ir.Field{Type: t, Slot: -1})
	}
	return v
}

func named(pairs ...string) ir.Variant {
	v := ir.Variant{Shape: ir.ShapeNamed}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Fields = append(v.Fields, ir.Field{Name: pairs[i], Type: pairs[i+1], Slot: -1})
	}
	return v
}

func withName(v ir.Variant, name string) ir.Variant {
	v.Name = name
	return v
}

// newtypeAndRecord is {A(i32), B(u32,u64), C(String)}.
func newtypeAndRecord() *ir.SumType {
	return &ir.SumType{Name: "Msg", Variants: []ir.Variant{
		withName(pos("int32"), "A"),
		withName(pos("uint32", "uint64"), "B"),
		withName(pos("string"), "C"),
	}}
}

// unitTupleRecord is {A, B(u8), C(u16,u32), D{d:u64}, E{e:i8, f:i16}}.
func unitTupleRecord() *ir.SumType {
	return &ir.SumType{Name: "Mixed", Variants: []ir.Variant{
		{Name: "A", Shape: ir.ShapeUnit},
		withName(pos("uint8"), "B"),
		withName(pos("uint16", "uint32"), "C"),
		withName(named("d", "uint64"), "D"),
		withName(named("e", "int8", "f", "int16"), "E"),
	}}
}

func TestAllocate_NewtypeAndRecord(t *testing.T) {
	tbl := Allocate(newtypeAndRecord())
	want := Table{Slots: []Slot{
		{Index: 0, Variant: 0, Field: 0, Type: "int32"},
		{Index: 1, Variant: 1, Field: 0, Type: "uint32"},
		{Index: 2, Variant: 1, Field: 1, Type: "uint64"},
		{Index: 3, Variant: 2, Field: 0, Type: "string"},
	}}
	if diff := cmp.Diff(want, tbl); diff != "" {
		t.Fatalf("slot table mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_UnitTupleRecord(t *testing.T) {
	l := Plan(unitTupleRecord())
	require.NoError(t, l.Check())
	assert.Equal(t, 6, l.N())
	assert.Equal(t, []Range{
		{Offset: 0, Len: 0},
		{Offset: 0, Len: 1},
		{Offset: 1, Len: 2},
		{Offset: 3, Len: 1},
		{Offset: 4, Len: 2},
	}, l.Ranges)
	assert.Equal(t, 2, l.Owner(2))
	assert.Equal(t, 4, l.Owner(5))
	assert.Equal(t, -1, l.Owner(6))
}

func TestAllocate_Deterministic(t *testing.T) {
	first := Plan(unitTupleRecord())
	for i := 0; i < 20; i++ {
		again := Plan(unitTupleRecord())
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestPlan_RangesPartition(t *testing.T) {
	widths := [][]int{{}, {0}, {0, 0}, {3}, {1, 0, 2, 0, 5}, {0, 4, 0}}
	for _, ws := range widths {
		s := &ir.SumType{Name: "S"}
		for i, w := range ws {
			v := ir.Variant{Name: string(rune('A' + i)), Shape: ir.ShapeUnit}
			if w > 0 {
				v.Shape = ir.ShapePositional
				for j := 0; j < w; j++ {
					v.Fields = append(v.Fields, ir.Field{Type: "int"})
				}
			}
			s.Variants = append(s.Variants, v)
		}
		l := Plan(s)
		require.NoError(t, l.Check(), "widths %v", ws)

		covered := make([]int, l.N())
		for _, r := range l.Ranges {
			for k := r.Offset; k < r.End(); k++ {
				covered[k]++
			}
		}
		for k, c := range covered {
			assert.Equal(t, 1, c, "slot %d covered %d times (widths %v)", k, c, ws)
		}
	}
}

func TestAssign_WritesSlots(t *testing.T) {
	s := unitTupleRecord()
	Assign(s, Allocate(s))
	var got []int
	for _, v := range s.Variants {
		for _, f := range v.Fields {
			got = append(got, f.Slot)
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, got)
}

func TestCheck_DetectsGap(t *testing.T) {
	l := Plan(newtypeAndRecord())
	l.Ranges[1].Offset = 2
	if err := l.Check(); err == nil {
		t.Fatalf("expected gap to be detected")
	}
}

func TestRange_Contains(t *testing.T) {
	r := Range{Offset: 1, Len: 2}
	assert.False(t, r.Contains(0))
	assert.True(t, r.Contains(1))
	assert.True(t, r.Contains(2))
	assert.False(t, r.Contains(3))
	assert.Equal(t, 3, r.End())
}
