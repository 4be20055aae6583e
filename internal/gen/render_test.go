package gen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/sumsplit/internal/ir"
)

func msgSchema() *ir.SumType {
	return &ir.SumType{
		Name:    "Msg",
		Package: "shapes",
		Marker:  "isMsg",
		Variants: []ir.Variant{
			{Name: "A", Shape: ir.ShapePositional, Newtype: true, Fields: []ir.Field{{Type: "int32", Slot: -1}}},
			{Name: "B", Shape: ir.ShapeNamed, Fields: []ir.Field{{Name: "X", Type: "uint32", Slot: -1}, {Name: "Y", Type: "uint64", Slot: -1}}},
			{Name: "C", Shape: ir.ShapePositional, Newtype: true, Fields: []ir.Field{{Type: "string", Slot: -1}}},
			{Name: "Empty", Shape: ir.ShapeUnit, PointerOnly: true},
		},
	}
}

type parsed struct {
	file    *ast.File
	structs map[string][]string // type name -> "Field Type"
	funcs   map[string]*ast.FuncDecl
}

func parseOutput(t *testing.T, src []byte) parsed {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "out.go", src, parser.ParseComments)
	require.NoError(t, err, "generated source does not parse:\n%s", src)
	p := parsed{file: f, structs: map[string][]string{}, funcs: map[string]*ast.FuncDecl{}}
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				st, ok := ts.Type.(*ast.StructType)
				if !ok {
					continue
				}
				fields := []string{}
				for _, fld := range st.Fields.List {
					for _, n := range fld.Names {
						fields = append(fields, n.Name+" "+types.ExprString(fld.Type))
					}
				}
				p.structs[ts.Name.Name] = fields
			}
		case *ast.FuncDecl:
			name := d.Name.Name
			if d.Recv != nil {
				name = types.ExprString(d.Recv.List[0].Type) + "." + name
			}
			p.funcs[name] = d
		}
	}
	return p
}

func TestRender_NewtypeRecordAndUnit(t *testing.T) {
	out, err := Render(msgSchema(), Options{})
	require.NoError(t, err)
	p := parseOutput(t, out)

	assert.True(t, strings.HasPrefix(string(out), ir.GeneratedHeader))
	assert.Equal(t, "shapes", p.file.Name.Name)
	assert.Equal(t, []string{
		"A0 sumsplit.Option[int32]",
		"BX sumsplit.Option[uint32]",
		"BY sumsplit.Option[uint64]",
		"C0 sumsplit.Option[string]",
	}, p.structs["MsgSlots"])
	assert.Equal(t, []string{
		"A0 sumsplit.Ref[int32]",
		"BX sumsplit.Ref[uint32]",
		"BY sumsplit.Ref[uint64]",
		"C0 sumsplit.Ref[string]",
	}, p.structs["MsgRefs"])
	assert.Len(t, p.structs["MsgMuts"], 4)

	for _, fn := range []string{
		"SplitMsg", "SplitMsgRef", "SplitMsgMut", "WithMsgMut",
		"*MsgSlots.From",
		"MsgSlots.Len", "MsgRefs.Len", "MsgMuts.Len",
		"MsgSlots.Slot", "MsgRefs.Slot", "MsgMuts.Slot",
	} {
		assert.Contains(t, p.funcs, fn)
	}

	src := string(out)
	assert.Contains(t, src, "return MsgSlots{A0: sumsplit.Some(int32(v))}")
	assert.Contains(t, src, "return MsgSlots{A0: sumsplit.Some(int32(*v))}")
	assert.Contains(t, src, "return MsgSlots{BX: sumsplit.Some(v.X), BY: sumsplit.Some(v.Y)}")
	assert.Contains(t, src, "return MsgRefs{A0: sumsplit.RefOf((*int32)(&v))}")
	assert.Contains(t, src, "return MsgMuts{BX: sumsplit.MutOf(&v.X), BY: sumsplit.MutOf(&v.Y)}")
	assert.Contains(t, src, "*p = &v")
	assert.Contains(t, src, "case *Empty:")
	assert.NotContains(t, src, "case Empty")
	assert.Contains(t, src, "defer sumsplit.AcquireExclusive(p).Release()")
	assert.Contains(t, src, "defer sumsplit.AcquireExclusive(v).Release()")
	assert.Contains(t, src, "fn(MsgMuts{BX: sumsplit.MutOf(&v.X), BY: sumsplit.MutOf(&v.Y)})\n\t\t*p = v\n\t\treturn")
	assert.Regexp(t, `_\s+sumsplit\.From\[Msg\]\s+= \(\*MsgSlots\)\(nil\)`, src)
}

func TestRender_Deterministic(t *testing.T) {
	first, err := Render(msgSchema(), Options{})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Render(msgSchema(), Options{})
		require.NoError(t, err)
		if string(first) != string(again) {
			t.Fatalf("run %d produced different output", i)
		}
	}
}

func TestRender_CustomNaming(t *testing.T) {
	out, err := Render(msgSchema(), Options{Naming: Naming{OwnedSuffix: "Owned", SplitPrefix: "Flatten"}})
	require.NoError(t, err)
	p := parseOutput(t, out)
	assert.Len(t, p.structs["MsgOwned"], 4)
	assert.Contains(t, p.funcs, "FlattenMsg")
	assert.Contains(t, p.funcs, "FlattenMsgMut")
	assert.Contains(t, p.funcs, "MsgRefs.Slot")
}

func TestRender_Declared(t *testing.T) {
	s := &ir.SumType{
		Name:    "Mixed",
		Package: "wire",
		Marker:  "isMixed",
		Declare: true,
		Doc:     "Mixed is a test fixture.",
		Variants: []ir.Variant{
			{Name: "A", Shape: ir.ShapeUnit},
			{Name: "C", Shape: ir.ShapePositional, Fields: []ir.Field{{Type: "uint16"}, {Type: "uint32"}}},
			{Name: "D", Shape: ir.ShapeNamed, PointerOnly: true, Fields: []ir.Field{{Name: "d", Type: "uint64"}}},
		},
	}
	out, err := Render(s, Options{})
	require.NoError(t, err)
	p := parseOutput(t, out)

	assert.Equal(t, []string{"F0 uint16", "F1 uint32"}, p.structs["C"])
	assert.Equal(t, []string{"d uint64"}, p.structs["D"])
	assert.Empty(t, p.structs["A"])
	assert.Contains(t, p.funcs, "A.isMixed")
	assert.Contains(t, p.funcs, "*D.isMixed")
	assert.Equal(t, []string{
		"C0 sumsplit.Option[uint16]",
		"C1 sumsplit.Option[uint32]",
		"DD sumsplit.Option[uint64]",
	}, p.structs["MixedSlots"])

	src := string(out)
	assert.Contains(t, src, "// Mixed is a test fixture.\ntype Mixed interface {")
	assert.Contains(t, src, "return MixedSlots{C0: sumsplit.Some(v.F0), C1: sumsplit.Some(v.F1)}")
	assert.Contains(t, src, "case A, *A:")
}

func TestRender_Generic(t *testing.T) {
	s := &ir.SumType{
		Name:       "Result",
		Package:    "shapes",
		Marker:     "isResult",
		TypeParams: []ir.TypeParam{{Name: "T", Constraint: "any"}},
		Variants: []ir.Variant{
			{Name: "Ok", Shape: ir.ShapeNamed, Generic: true, Fields: []ir.Field{{Name: "Val", Type: "T"}}},
			{Name: "Err", Shape: ir.ShapeNamed, Fields: []ir.Field{{Name: "Err", Type: "error"}}},
		},
	}
	out, err := Render(s, Options{})
	require.NoError(t, err)
	p := parseOutput(t, out)

	assert.Equal(t, []string{"OkVal sumsplit.Option[T]", "ErrErr sumsplit.Option[error]"}, p.structs["ResultSlots"])
	assert.Contains(t, p.funcs, "ResultSlots[T].Len")
	assert.Contains(t, p.funcs, "*ResultSlots[T].From")

	src := string(out)
	assert.Contains(t, src, "type ResultSlots[T any] struct")
	assert.Contains(t, src, "func SplitResult[T any](v Result[T]) ResultSlots[T]")
	assert.Contains(t, src, "func WithResultMut[T any](p *Result[T], fn func(ResultMuts[T]))")
	assert.Contains(t, src, "case Ok[T]:")
	assert.Contains(t, src, "case *Err:")
	assert.Contains(t, src, "*c = SplitResult[T](v)")
	assert.NotContains(t, src, "sumsplit.Container =")
}

func TestRender_NoVariants(t *testing.T) {
	s := &ir.SumType{Name: "Never", Package: "shapes", Marker: "isNever"}
	out, err := Render(s, Options{})
	require.NoError(t, err)
	p := parseOutput(t, out)
	assert.Empty(t, p.structs["NeverSlots"])
	assert.Contains(t, string(out), "panic(sumsplit.SlotRangeError{Index: k, Len: 0})")
	assert.NotContains(t, string(out), "switch")
}

func TestRender_RuntimeQualifierClash(t *testing.T) {
	s := msgSchema()
	s.Imports = []ir.Import{{Path: "example.com/other/sumsplit"}}
	s.Variants[2].Fields[0].Type = "sumsplit.Token"
	out, err := Render(s, Options{})
	require.NoError(t, err)
	src := string(out)
	assert.Contains(t, src, `sumsplitrt "github.com/reoring/sumsplit"`)
	assert.Contains(t, src, "C0 sumsplitrt.Option[sumsplit.Token]")
	parseOutput(t, out)
}

func TestRenderFile_MultipleTypes(t *testing.T) {
	a := msgSchema()
	b := &ir.SumType{Name: "Flag", Package: "shapes", Marker: "isFlag", Variants: []ir.Variant{{Name: "On", Shape: ir.ShapeUnit}}}
	out, err := RenderFile(File{Package: "shapes", Source: "shapes.go", Types: []*ir.SumType{a, b}}, Options{})
	require.NoError(t, err)
	p := parseOutput(t, out)
	assert.Contains(t, p.funcs, "SplitMsg")
	assert.Contains(t, p.funcs, "SplitFlag")
	assert.Contains(t, string(out), "// Source: shapes.go")

	_, err = RenderFile(File{Package: "shapes", Types: []*ir.SumType{a, a}}, Options{})
	require.Error(t, err)
}

func TestRenderFile_Errors(t *testing.T) {
	_, err := RenderFile(File{Types: []*ir.SumType{msgSchema()}}, Options{})
	assert.Error(t, err)
	_, err = RenderFile(File{Package: "shapes"}, Options{})
	assert.Error(t, err)
	_, err = Render(msgSchema(), Options{Naming: Naming{OwnedSuffix: "X", SharedSuffix: "X"}})
	assert.Error(t, err)
}

func TestSlotNames(t *testing.T) {
	s := &ir.SumType{Name: "S", Variants: []ir.Variant{
		{Name: "A", Shape: ir.ShapeNamed, Fields: []ir.Field{{Name: "b1", Type: "int"}}},
		{Name: "AB", Shape: ir.ShapePositional, Fields: []ir.Field{{Type: "int"}, {Type: "int"}}},
		{Name: "U", Shape: ir.ShapeUnit},
		{Name: "Sl", Shape: ir.ShapeNamed, Fields: []ir.Field{{Name: "ot", Type: "int"}}},
	}}
	assert.Equal(t, []string{"AB1", "AB0", "AB1_2", "SlOt"}, SlotNames(s))
}

func TestNaming_Validate(t *testing.T) {
	assert.NoError(t, DefaultNaming().Validate())
	assert.NoError(t, Naming{}.Validate())
	assert.Error(t, Naming{RefSuffix: "X", MutSuffix: "X"}.Validate())
	assert.Error(t, Naming{WithPrefix: "with-"}.Validate())
	assert.Equal(t, "ShapeMuts", DefaultNaming().Container("Shape", ir.Exclusive))
	assert.Equal(t, "SplitShapeRef", DefaultNaming().Split("Shape", ir.Shared))
	assert.Equal(t, "WithShapeMut", DefaultNaming().With("Shape"))
}
