package gen

import (
	"strconv"
	"strings"

	sumsplit "github.com/reoring/sumsplit"
	"github.com/reoring/sumsplit/internal/ir"
	"github.com/reoring/sumsplit/internal/layout"
)

// typeView is the template model of one sum type.
type typeView struct {
	RT       string // runtime package qualifier
	Name     string
	Doc      []string
	Decl     string // "[T any]" or ""
	Use      string // "[T]" or ""
	Self     string // Name+Use
	Marker   string
	Declare  bool
	Generic  bool
	N        int
	Variants []variantDecl

	Containers []containerView // owned, shared, exclusive
	Splits     []splitView     // owned, shared, exclusive
	Owned      containerView
	OwnedSplit string
	With       string
	MutSelf    string
	WithCases  []caseView // exclusive clauses of variants with fields
}

// variantDecl is a variant emitted for a declared sum type.
type variantDecl struct {
	Name   string
	Doc    []string
	Decl   string
	Recv   string
	Fields []fieldView
	Unit   bool
}

type fieldView struct {
	Name string
	Type string
}

type containerView struct {
	Name       string
	Self       string
	Projection string
	Wrapper    string // Option, Ref or Mut
	Fields     []fieldView
}

type splitView struct {
	Name      string
	Decl      string
	Param     string
	Subject   string
	Result    string
	Exclusive bool
	Bind      bool
	Cases     []caseView
}

// caseView is one clause of the dispatching type switch.
type caseView struct {
	Types   string
	NilTest bool
	Promote bool
	Unit    bool
	Lit     string
}

func newTypeView(s *ir.SumType, l *layout.Layout, n Naming, rt string) *typeView {
	tv := &typeView{
		RT:      rt,
		Name:    s.Name,
		Doc:     docLines(s.Doc),
		Decl:    s.ParamDecl(),
		Use:     s.ParamUse(),
		Marker:  s.Marker,
		Declare: s.Declare,
		Generic: len(s.TypeParams) > 0,
		N:       l.N(),
	}
	tv.Self = s.Name + tv.Use

	names := SlotNames(s)
	for _, p := range ir.Projections {
		c := containerView{Name: n.Container(s.Name, p), Projection: p.String(), Wrapper: wrapper(p)}
		c.Self = c.Name + tv.Use
		for _, sl := range l.Table.Slots {
			c.Fields = append(c.Fields, fieldView{Name: names[sl.Index], Type: rt + "." + c.Wrapper + "[" + sl.Type + "]"})
		}
		tv.Containers = append(tv.Containers, c)
		tv.Splits = append(tv.Splits, newSplitView(s, l, names, c, p, n, rt))
	}
	tv.Owned = tv.Containers[0]
	tv.OwnedSplit = n.Split(s.Name, ir.Owned)
	tv.MutSelf = tv.Containers[2].Self
	tv.With = n.With(s.Name)
	for _, c := range tv.Splits[2].Cases {
		if !c.Unit {
			tv.WithCases = append(tv.WithCases, c)
		}
	}

	if s.Declare {
		for i := range s.Variants {
			tv.Variants = append(tv.Variants, newVariantDecl(s, &s.Variants[i]))
		}
	}
	return tv
}

func wrapper(p ir.Projection) string {
	switch p {
	case ir.Shared:
		return "Ref"
	case ir.Exclusive:
		return "Mut"
	default:
		return "Option"
	}
}

func newSplitView(s *ir.SumType, l *layout.Layout, names []string, c containerView, p ir.Projection, n Naming, rt string) splitView {
	sv := splitView{
		Name:    n.Split(s.Name, p),
		Decl:    s.ParamDecl(),
		Param:   "v " + s.Name + s.ParamUse(),
		Subject: "v",
		Result:  c.Self,
	}
	if p == ir.Exclusive {
		sv.Param = "p *" + s.Name + s.ParamUse()
		sv.Subject = "(*p)"
		sv.Exclusive = true
	}
	for i := range s.Variants {
		v := &s.Variants[i]
		inst := v.Instance(s)
		if len(v.Fields) == 0 {
			types := "*" + inst
			if !v.PointerOnly {
				types = inst + ", " + types
			}
			sv.Cases = append(sv.Cases, caseView{Types: types, Unit: true, Lit: c.Self + "{}"})
			continue
		}
		sv.Bind = true
		r := l.Range(i)
		if !v.PointerOnly {
			sv.Cases = append(sv.Cases, caseView{
				Types:   inst,
				Promote: p == ir.Exclusive,
				Lit:     literal(c.Self, names[r.Offset:r.End()], slotExprs(v, p, false, rt)),
			})
		}
		sv.Cases = append(sv.Cases, caseView{
			Types:   "*" + inst,
			NilTest: true,
			Lit:     literal(c.Self, names[r.Offset:r.End()], slotExprs(v, p, true, rt)),
		})
	}
	return sv
}

// slotExprs renders the wrapped field expressions of v for one clause. ptr
// reports whether the bound variable is *V rather than V. In the exclusive
// projection value-held variants have been promoted, so v is addressable
// storage owned by the caller's variable.
func slotExprs(v *ir.Variant, p ir.Projection, ptr bool, rt string) []string {
	out := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		var e string
		switch {
		case p == ir.Owned && v.Newtype && ptr:
			e = conv(f.Type) + "(*v)"
		case p == ir.Owned && v.Newtype:
			e = conv(f.Type) + "(v)"
		case p == ir.Owned:
			e = "v." + fieldName(v, i)
		case v.Newtype && ptr:
			e = "(*" + f.Type + ")(v)"
		case v.Newtype:
			e = "(*" + f.Type + ")(&v)"
		default:
			e = "&v." + fieldName(v, i)
		}
		switch p {
		case ir.Shared:
			out[i] = rt + ".RefOf(" + e + ")"
		case ir.Exclusive:
			out[i] = rt + ".MutOf(" + e + ")"
		default:
			out[i] = rt + ".Some(" + e + ")"
		}
	}
	return out
}

func fieldName(v *ir.Variant, i int) string {
	if name := v.Fields[i].Name; name != "" {
		return name
	}
	return positionalName(i)
}

// conv parenthesizes type expressions that cannot be used as a conversion
// function name as written.
func conv(t string) string {
	for _, prefix := range []string{"*", "func", "chan", "<-"} {
		if strings.HasPrefix(t, prefix) {
			return "(" + t + ")"
		}
	}
	return t
}

func literal(typ string, names, exprs []string) string {
	var b strings.Builder
	b.WriteString(typ)
	b.WriteByte('{')
	for i := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(names[i])
		b.WriteString(": ")
		b.WriteString(exprs[i])
	}
	b.WriteByte('}')
	return b.String()
}

func newVariantDecl(s *ir.SumType, v *ir.Variant) variantDecl {
	d := variantDecl{Name: v.Name, Doc: docLines(v.Doc), Unit: len(v.Fields) == 0}
	if v.Generic {
		d.Decl = s.ParamDecl()
	}
	d.Recv = v.Instance(s)
	if v.PointerOnly {
		d.Recv = "*" + d.Recv
	}
	for i, f := range v.Fields {
		d.Fields = append(d.Fields, fieldView{Name: fieldName(v, i), Type: f.Type})
	}
	return d
}

func docLines(doc string) []string {
	if doc == "" {
		return nil
	}
	return strings.Split(doc, "\n")
}

// mergeImports collects the imports of every type and picks the runtime
// package qualifier, renaming it when a field type already uses "sumsplit".
func mergeImports(types []*ir.SumType, runtimePath string) ([]ir.Import, string, error) {
	var out []ir.Import
	byName := map[string]string{}
	for _, s := range types {
		for _, imp := range s.Imports {
			name := imp.LocalName()
			if prev, ok := byName[name]; ok {
				if prev != imp.Path {
					return nil, "", sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, s.Pos,
						"qualifier %s refers to both %s and %s", name, prev, imp.Path)
				}
				continue
			}
			byName[name] = imp.Path
			out = append(out, imp)
		}
	}

	rt := ir.PackageName(runtimePath)
	if prev, ok := byName[rt]; ok && prev != runtimePath {
		base := rt + "rt"
		rt = base
		for i := 2; ; i++ {
			if _, taken := byName[rt]; !taken {
				break
			}
			rt = base + strconv.Itoa(i)
		}
	}
	if prev, ok := byName[rt]; !ok || prev != runtimePath {
		imp := ir.Import{Path: runtimePath}
		if rt != ir.PackageName(runtimePath) {
			imp.Name = rt
		}
		out = append(out, imp)
	}
	return out, rt, nil
}
