// Package reflectsplit splits sum type values at run time through reflection,
// for callers that cannot run the code generator. It applies the same slot
// layout as generated code but returns dynamically typed slots, and reports
// values of unregistered types as errors instead of compile-time failures.
//
// A variant whose underlying type is a struct gets one slot per field; any
// other variant gets a single slot of its underlying type.
//
//	sp, err := reflectsplit.For[shapes.Msg](shapes.A(0), shapes.B{}, (*shapes.Empty)(nil))
//	slots, err := sp.Split(msg)
package reflectsplit

import (
	"reflect"
	"unsafe"

	sumsplit "github.com/reoring/sumsplit"
	"github.com/reoring/sumsplit/internal/ir"
	"github.com/reoring/sumsplit/internal/layout"
)

// Slots is a split result. In a shared split each payload is a pointer to the
// field.
type Slots []sumsplit.Option[any]

// Len returns the number of slots.
func (s Slots) Len() int { return len(s) }

// Slot returns slot k.
func (s Slots) Slot(k int) sumsplit.Slot {
	if k < 0 || k >= len(s) {
		panic(sumsplit.SlotRangeError{Index: k, Len: len(s)})
	}
	return s[k]
}

var _ sumsplit.Container = Slots(nil)

// Splitter splits values of one sum type.
type Splitter struct {
	sum      reflect.Type
	schema   *ir.SumType
	layout   *layout.Layout
	variants []variant
	byType   map[reflect.Type]int
}

type variant struct {
	typ     reflect.Type
	newtype reflect.Type // underlying type of a non-struct variant
	fields  [][]int      // struct field index paths
}

// For is New with the sum type given as a type argument.
func For[S any](variants ...any) (*Splitter, error) {
	return New(reflect.TypeOf((*S)(nil)).Elem(), variants...)
}

// New registers the variants of the interface type sum, in the given order.
// Each variant is a sample value of the variant type: V{} or (*V)(nil).
func New(sum reflect.Type, variants ...any) (*Splitter, error) {
	if sum == nil || sum.Kind() != reflect.Interface {
		name := ""
		if sum != nil {
			name = sum.String()
		}
		return nil, sumsplit.UnsupportedShape(name, sumsplit.Pos{}, "not an interface type")
	}
	marker, ok := markerMethod(sum)
	if !ok {
		return nil, sumsplit.UnsupportedShape(sum.String(), sumsplit.Pos{}, "interface has no unexported marker method")
	}
	sp := &Splitter{
		sum:    sum,
		byType: map[reflect.Type]int{},
		schema: &ir.SumType{
			Name:    sum.Name(),
			Package: ir.PackageName(sum.PkgPath()),
			Marker:  marker,
		},
	}
	for _, sample := range variants {
		if err := sp.register(sample); err != nil {
			return nil, err
		}
	}
	if err := sp.schema.Validate(); err != nil {
		return nil, err
	}
	sp.layout = layout.Plan(sp.schema)
	return sp, nil
}

func markerMethod(t reflect.Type) (string, bool) {
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if m.IsExported() {
			continue
		}
		if m.Type.NumIn() == 0 && m.Type.NumOut() == 0 {
			return m.Name, true
		}
	}
	return "", false
}

func (sp *Splitter) register(sample any) error {
	t := reflect.TypeOf(sample)
	if t == nil {
		return sumsplit.Newf(sumsplit.CodeInvalidSchema, sp.sum.String(), sumsplit.Pos{}, "nil variant sample")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	pt := reflect.PointerTo(t)
	if !pt.Implements(sp.sum) {
		return sumsplit.Newf(sumsplit.CodeInvalidSchema, sp.sum.String(), sumsplit.Pos{}, "%s does not implement %s", t, sp.sum)
	}
	if _, dup := sp.byType[pt]; dup {
		return sumsplit.Newf(sumsplit.CodeInvalidSchema, sp.sum.String(), sumsplit.Pos{}, "%s registered twice", t)
	}

	idx := len(sp.variants)
	iv := ir.Variant{Name: t.Name(), PointerOnly: !t.Implements(sp.sum)}
	rv := variant{typ: t}
	if t.Kind() == reflect.Struct {
		iv.Shape = ir.ShapeNamed
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Name == "_" {
				continue
			}
			rv.fields = append(rv.fields, f.Index)
			iv.Fields = append(iv.Fields, ir.Field{Name: f.Name, Type: f.Type.String(), Slot: -1})
		}
		if len(iv.Fields) == 0 {
			iv.Shape = ir.ShapeUnit
		}
	} else {
		rv.newtype = underlying(t)
		iv.Shape = ir.ShapePositional
		iv.Newtype = true
		iv.Fields = []ir.Field{{Type: rv.newtype.String(), Slot: -1}}
	}
	sp.variants = append(sp.variants, rv)
	sp.schema.Variants = append(sp.schema.Variants, iv)
	sp.byType[pt] = idx
	if !iv.PointerOnly {
		sp.byType[t] = idx
	}
	return nil
}

// Schema returns the schema derived from the registered variants.
func (sp *Splitter) Schema() *ir.SumType { return sp.schema }

// Layout returns the slot layout shared with generated code.
func (sp *Splitter) Layout() *layout.Layout { return sp.layout }

// N returns the slot count.
func (sp *Splitter) N() int { return sp.layout.N() }

// Variant returns the declaration index of the variant held by v, or -1 for
// a nil value.
func (sp *Splitter) Variant(v any) (int, error) {
	if v == nil {
		return -1, nil
	}
	idx, ok := sp.byType[reflect.TypeOf(v)]
	if !ok {
		return -1, sumsplit.Newf(sumsplit.CodeUnknownVariant, sp.sum.String(), sumsplit.Pos{}, "%T is not a registered variant", v)
	}
	return idx, nil
}

// Split returns the owned split of v: the active variant's field values in
// its slot range, every other slot empty. Nil values and nil pointers yield
// all-empty slots.
func (sp *Splitter) Split(v any) (Slots, error) {
	return sp.split(v, false)
}

// SplitRef returns pointers to the active variant's fields. Pointer-held
// variants are addressed in place, so writes through the pointers are visible
// to the caller; value-held variants are addressed in a private copy.
func (sp *Splitter) SplitRef(v any) (Slots, error) {
	return sp.split(v, true)
}

func (sp *Splitter) split(v any, ref bool) (Slots, error) {
	out := make(Slots, sp.N())
	idx, err := sp.Variant(v)
	if err != nil || idx < 0 {
		return out, err
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return out, nil
		}
		rv = rv.Elem()
	} else {
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		rv = cp
	}

	vr := sp.variants[idx]
	r := sp.layout.Range(idx)
	for i, p := range sp.pointers(vr, rv) {
		if ref {
			out[r.Offset+i] = sumsplit.Some(p.Interface())
		} else {
			out[r.Offset+i] = sumsplit.Some(p.Elem().Interface())
		}
	}
	return out, nil
}

// pointers returns a pointer to every field of the addressable variant value
// rv, including unexported ones.
func (sp *Splitter) pointers(vr variant, rv reflect.Value) []reflect.Value {
	if vr.newtype != nil {
		return []reflect.Value{reflect.NewAt(vr.newtype, unsafe.Pointer(rv.UnsafeAddr()))}
	}
	out := make([]reflect.Value, len(vr.fields))
	for i, path := range vr.fields {
		f := rv.FieldByIndex(path)
		out[i] = reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr()))
	}
	return out
}

var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:       reflect.TypeOf(false),
	reflect.Int:        reflect.TypeOf(int(0)),
	reflect.Int8:       reflect.TypeOf(int8(0)),
	reflect.Int16:      reflect.TypeOf(int16(0)),
	reflect.Int32:      reflect.TypeOf(int32(0)),
	reflect.Int64:      reflect.TypeOf(int64(0)),
	reflect.Uint:       reflect.TypeOf(uint(0)),
	reflect.Uint8:      reflect.TypeOf(uint8(0)),
	reflect.Uint16:     reflect.TypeOf(uint16(0)),
	reflect.Uint32:     reflect.TypeOf(uint32(0)),
	reflect.Uint64:     reflect.TypeOf(uint64(0)),
	reflect.Uintptr:    reflect.TypeOf(uintptr(0)),
	reflect.Float32:    reflect.TypeOf(float32(0)),
	reflect.Float64:    reflect.TypeOf(float64(0)),
	reflect.Complex64:  reflect.TypeOf(complex64(0)),
	reflect.Complex128: reflect.TypeOf(complex128(0)),
	reflect.String:     reflect.TypeOf(""),
}

// underlying approximates the underlying type of a named non-struct type.
func underlying(t reflect.Type) reflect.Type {
	if b, ok := basicTypes[t.Kind()]; ok {
		return b
	}
	switch t.Kind() {
	case reflect.Slice:
		return reflect.SliceOf(t.Elem())
	case reflect.Array:
		return reflect.ArrayOf(t.Len(), t.Elem())
	case reflect.Map:
		return reflect.MapOf(t.Key(), t.Elem())
	case reflect.Pointer:
		return reflect.PointerTo(t.Elem())
	case reflect.Chan:
		return reflect.ChanOf(t.ChanDir(), t.Elem())
	case reflect.Func:
		in := make([]reflect.Type, t.NumIn())
		for i := range in {
			in[i] = t.In(i)
		}
		out := make([]reflect.Type, t.NumOut())
		for i := range out {
			out[i] = t.Out(i)
		}
		return reflect.FuncOf(in, out, t.IsVariadic())
	}
	return t
}
