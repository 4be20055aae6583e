// Package irconv converts dsl descriptions into the generator's sum type
// model.
package irconv

import (
	"go/ast"
	"go/parser"
	"sort"

	sumsplit "github.com/reoring/sumsplit"
	"github.com/reoring/sumsplit/dsl"
	"github.com/reoring/sumsplit/internal/ir"
)

// ToIR converts every type of doc, in document order.
func ToIR(doc *dsl.Document) ([]*ir.SumType, error) {
	if err := doc.Check(); err != nil {
		return nil, err
	}
	out := make([]*ir.SumType, 0, len(doc.Types))
	for _, def := range doc.Types {
		s, err := SumToIR(doc.Package, def)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// SumToIR converts one description. The result has Declare set: the generator
// emits the interface, the variant types and their marker methods as well.
func SumToIR(pkg string, def dsl.SumDef) (*ir.SumType, error) {
	if err := def.Check(); err != nil {
		return nil, err
	}
	s := &ir.SumType{
		Name:    def.Name,
		Package: pkg,
		Marker:  def.Marker,
		Pos:     def.Pos,
		Declare: true,
		Doc:     def.Doc,
	}
	if s.Marker == "" {
		s.Marker = "is" + def.Name
	}
	for _, p := range def.TypeParams {
		s.TypeParams = append(s.TypeParams, ir.TypeParam{Name: p.Name, Constraint: p.Constraint})
	}

	used := map[string]struct{}{}
	for _, p := range s.TypeParams {
		if p.Constraint != "" {
			if err := qualifiers(s, p.Constraint, used); err != nil {
				return nil, err
			}
		}
	}
	for _, vd := range def.Variants {
		v := ir.Variant{
			Name:        vd.Name,
			PointerOnly: vd.Pointer,
			Generic:     len(s.TypeParams) > 0,
			Pos:         vd.Pos,
			Doc:         vd.Doc,
		}
		switch {
		case len(vd.Tuple) > 0:
			v.Shape = ir.ShapePositional
			for _, t := range vd.Tuple {
				v.Fields = append(v.Fields, ir.Field{Type: t, Slot: -1})
			}
		case len(vd.Fields) > 0:
			v.Shape = ir.ShapeNamed
			for _, f := range vd.Fields {
				v.Fields = append(v.Fields, ir.Field{Name: f.Name, Type: f.Type, Slot: -1})
			}
		default:
			v.Shape = ir.ShapeUnit
		}
		for _, f := range v.Fields {
			if err := qualifiers(s, f.Type, used); err != nil {
				return nil, err
			}
		}
		s.Variants = append(s.Variants, v)
	}

	imports, err := resolveImports(s, def.Imports, used)
	if err != nil {
		return nil, err
	}
	s.Imports = imports
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// qualifiers parses a type expression and records the package qualifiers it
// uses.
func qualifiers(s *ir.SumType, expr string, used map[string]struct{}) error {
	e, err := parser.ParseExpr(expr)
	if err != nil {
		return sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, s.Pos, "invalid type expression %q: %v", expr, err)
	}
	ast.Inspect(e, func(n ast.Node) bool {
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok {
				used[id.Name] = struct{}{}
			}
			return false
		}
		return true
	})
	return nil
}

// resolveImports keeps the declared imports that field types reference and
// reports qualifiers nobody declared.
func resolveImports(s *ir.SumType, declared []dsl.ImportDef, used map[string]struct{}) ([]ir.Import, error) {
	byName := map[string]ir.Import{}
	for _, d := range declared {
		imp := ir.Import{Name: d.Name, Path: d.Path}
		if imp.Name == ir.PackageName(imp.Path) {
			imp.Name = ""
		}
		if prev, dup := byName[imp.LocalName()]; dup && prev.Path != imp.Path {
			return nil, sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, s.Pos,
				"imports %s and %s share the name %s", prev.Path, imp.Path, imp.LocalName())
		}
		byName[imp.LocalName()] = imp
	}

	names := make([]string, 0, len(used))
	for n := range used {
		names = append(names, n)
	}
	sort.Strings(names)
	var out []ir.Import
	for _, n := range names {
		imp, ok := byName[n]
		if !ok {
			return nil, sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, s.Pos, "qualifier %s has no matching import", n)
		}
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
