package sumsplit

import "strconv"

// Slot is the positional view shared by Option, Ref and Mut.
type Slot interface {
	IsSome() bool
	// Any returns the value (Option) or the field pointer (Ref, Mut), nil when empty.
	Any() any
}

// Container is implemented by every generated projection. Slot(k) panics when
// k is outside [0, Len()).
type Container interface {
	Len() int
	Slot(k int) Slot
}

// From is implemented by owned containers: it replaces the receiver with the
// split of v. Generated containers implement it on their pointer type.
type From[S any] interface {
	From(v S)
}

// Convert builds the owned container C from the sum value v.
//
//	slots := sumsplit.Convert[shapes.MsgSlots](msg)
func Convert[C any, S any, P interface {
	*C
	From[S]
}](v S) C {
	var c C
	P(&c).From(v)
	return c
}

// Occupied returns the indices of the populated slots in ascending order.
func Occupied(c Container) []int {
	var out []int
	for k := 0; k < c.Len(); k++ {
		if c.Slot(k).IsSome() {
			out = append(out, k)
		}
	}
	return out
}

// Values returns the populated slot payloads in slot order. Together with the
// variant tag this is enough to rebuild the original value.
func Values(c Container) []any {
	var out []any
	for k := 0; k < c.Len(); k++ {
		if s := c.Slot(k); s.IsSome() {
			out = append(out, s.Any())
		}
	}
	return out
}

// SlotRangeError is the panic value of a generated Slot method called with an
// index outside the container.
type SlotRangeError struct {
	Index int
	Len   int
}

func (e SlotRangeError) Error() string {
	return "sumsplit: slot index " + strconv.Itoa(e.Index) + " out of range [0, " + strconv.Itoa(e.Len) + ")"
}
