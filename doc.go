// Package sumsplit is the runtime half of the sumsplit code generator.
//
// A sum type is written as a sealed interface whose variants are the types
// implementing its unexported marker method. The generator flattens such a
// type into three containers with one slot per field of every variant:
//
//   - MsgSlots holds Option slots with copies of the field values (owned).
//   - MsgRefs holds Ref slots pointing into the split value (shared).
//   - MsgMuts holds Mut slots that write through to the split value (exclusive).
//
// Slots are numbered across variants in declaration order, so each variant
// owns a contiguous, disjoint slot range and a split populates exactly the
// range of the active variant.
//
// Typical usage:
//
//	//go:generate go run github.com/reoring/sumsplit/cmd/sumsplit generate . -t Msg
//
//	slots := SplitMsg(msg)
//	if x, ok := slots.BX.Get(); ok { ... }
//
//	WithMsgMut(&msg, func(m MsgMuts) { m.BY.Set(9) })
//
// This package provides the slot types, the Container interface shared by all
// generated containers, the exclusive-split guard and the Diagnostics error
// model reported by the generator.
package sumsplit
