// Package extract turns Go sealed-interface declarations into sum type
// schemas.
//
// A sum type is an interface with an unexported marker method taking no
// arguments and returning nothing. Its variants are the named types of the
// same package that declare the marker. Variant order is the source order of
// the variant type declarations (files sorted by name), unless the interface
// carries a directive pinning it:
//
//	//sumsplit:split
//	//sumsplit:variants Circle, Rect, Empty
//	type Shape interface{ isShape() }
package extract

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sumsplit "github.com/reoring/sumsplit"
	"github.com/reoring/sumsplit/internal/ir"
)

// Package is a parsed Go package directory.
type Package struct {
	Name  string
	Dir   string
	fset  *token.FileSet
	files []*ast.File

	types   map[string]*typeDecl
	markers map[string][]markerDecl // method name -> declarations
}

type typeDecl struct {
	spec  *ast.TypeSpec
	doc   *ast.CommentGroup
	file  *ast.File
	order int // global declaration order across sorted files
}

type markerDecl struct {
	recv    string // receiver base type name
	pointer bool
	pos     token.Pos
}

// Load parses the non-test Go files of dir. Files produced by the generator
// are skipped so that regeneration is idempotent.
func Load(dir string) (*Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, sumsplit.Wrap(sumsplit.CodeIO, "", sumsplit.Pos{File: dir}, err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, ".go") || strings.HasSuffix(n, "_test.go") {
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)

	srcs := make(map[string][]byte, len(names))
	for _, n := range names {
		path := filepath.Join(dir, n)
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, sumsplit.Wrap(sumsplit.CodeIO, "", sumsplit.Pos{File: path}, err)
		}
		if bytes.Contains(b, []byte(ir.GeneratedHeader)) {
			continue
		}
		srcs[path] = b
	}
	p, err := Parse(srcs)
	if err != nil {
		return nil, err
	}
	p.Dir = dir
	return p, nil
}

// Parse builds a Package from in-memory sources keyed by file name.
func Parse(srcs map[string][]byte) (*Package, error) {
	p := &Package{
		fset:    token.NewFileSet(),
		types:   map[string]*typeDecl{},
		markers: map[string][]markerDecl{},
	}
	names := make([]string, 0, len(srcs))
	for n := range srcs {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		f, err := parser.ParseFile(p.fset, n, srcs[n], parser.ParseComments)
		if err != nil {
			return nil, sumsplit.Wrap(sumsplit.CodeParseError, "", sumsplit.Pos{File: n}, err)
		}
		if p.Name == "" {
			p.Name = f.Name.Name
		} else if f.Name.Name != p.Name {
			return nil, sumsplit.Newf(sumsplit.CodeParseError, "", p.pos(f.Name.Pos()),
				"found packages %s and %s in the same directory", p.Name, f.Name.Name)
		}
		p.files = append(p.files, f)
		p.index(f)
	}
	return p, nil
}

func (p *Package) index(f *ast.File) {
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || ts.Name == nil {
					continue
				}
				doc := ts.Doc
				if doc == nil && len(d.Specs) == 1 {
					doc = d.Doc
				}
				p.types[ts.Name.Name] = &typeDecl{spec: ts, doc: doc, file: f, order: len(p.types)}
			}
		case *ast.FuncDecl:
			if d.Recv == nil || len(d.Recv.List) != 1 || !isMarkerSignature(d.Name, d.Type) {
				continue
			}
			recv, ptr := receiverBase(d.Recv.List[0].Type)
			if recv == "" {
				continue
			}
			p.markers[d.Name.Name] = append(p.markers[d.Name.Name], markerDecl{recv: recv, pointer: ptr, pos: d.Pos()})
		}
	}
}

// isMarkerSignature reports an unexported method with no params and no results.
func isMarkerSignature(name *ast.Ident, ft *ast.FuncType) bool {
	if name == nil || token.IsExported(name.Name) || name.Name == "_" {
		return false
	}
	if ft.TypeParams != nil && len(ft.TypeParams.List) > 0 {
		return false
	}
	if ft.Params != nil && len(ft.Params.List) > 0 {
		return false
	}
	return ft.Results == nil || len(ft.Results.List) == 0
}

func receiverBase(e ast.Expr) (string, bool) {
	ptr := false
	if st, ok := e.(*ast.StarExpr); ok {
		ptr = true
		e = st.X
	}
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name, ptr
	case *ast.IndexExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name, ptr
		}
	case *ast.IndexListExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name, ptr
		}
	}
	return "", ptr
}

func (p *Package) pos(tp token.Pos) sumsplit.Pos {
	if !tp.IsValid() {
		return sumsplit.Pos{}
	}
	ps := p.fset.Position(tp)
	return sumsplit.Pos{File: ps.Filename, Line: ps.Line, Column: ps.Column}
}

// Tagged returns, in declaration order, the types carrying a //sumsplit:split
// directive.
func (p *Package) Tagged() []string {
	var decls []*typeDecl
	for _, td := range p.types {
		if hasDirective(td.doc, directiveSplit) {
			decls = append(decls, td)
		}
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].order < decls[j].order })
	out := make([]string, len(decls))
	for i, td := range decls {
		out[i] = td.spec.Name.Name
	}
	return out
}

// SumType extracts the schema of the named sealed interface.
func (p *Package) SumType(name string) (*ir.SumType, error) {
	td, ok := p.types[name]
	if !ok {
		return nil, sumsplit.Newf(sumsplit.CodeTypeNotFound, name, sumsplit.Pos{File: p.Dir}, "package %s", p.Name)
	}
	ts := td.spec
	pos := p.pos(ts.Name.Pos())
	if ts.Assign.IsValid() {
		return nil, sumsplit.UnsupportedShape(name, pos, "type alias")
	}
	it, ok := ts.Type.(*ast.InterfaceType)
	if !ok {
		return nil, sumsplit.UnsupportedShape(name, pos, describeShape(ts.Type))
	}
	marker, reason := findMarker(it)
	if reason != "" {
		return nil, sumsplit.UnsupportedShape(name, pos, reason)
	}

	s := &ir.SumType{
		Name:    name,
		Package: p.Name,
		Marker:  marker,
		Pos:     pos,
		Doc:     strings.TrimSpace(td.doc.Text()),
	}
	if ts.TypeParams != nil {
		pp := newExprPrinter(nil)
		for _, f := range ts.TypeParams.List {
			c := pp.String(f.Type)
			for _, n := range f.Names {
				s.TypeParams = append(s.TypeParams, ir.TypeParam{Name: n.Name, Constraint: c})
			}
		}
		if err := p.addImports(s, td.file, pp.pkgs); err != nil {
			return nil, err
		}
	}

	members, err := p.orderedVariants(s, td)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		v, err := p.variant(s, m)
		if err != nil {
			return nil, err
		}
		s.Variants = append(s.Variants, v)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// findMarker returns the first unexported niladic method, or a reason why the
// interface cannot be a sum type.
func findMarker(it *ast.InterfaceType) (string, string) {
	if it.Methods == nil {
		return "", "interface has no unexported marker method"
	}
	for _, m := range it.Methods.List {
		if len(m.Names) == 0 {
			switch m.Type.(type) {
			case *ast.BinaryExpr, *ast.UnaryExpr:
				return "", "type-set constraint interface cannot hold values"
			}
			continue
		}
		ft, ok := m.Type.(*ast.FuncType)
		if ok && isMarkerSignature(m.Names[0], ft) {
			return m.Names[0].Name, ""
		}
	}
	return "", "interface has no unexported marker method"
}

type member struct {
	decl   *typeDecl
	marker markerDecl
}

func (p *Package) orderedVariants(s *ir.SumType, td *typeDecl) ([]member, error) {
	byName := map[string]member{}
	for _, md := range p.markers[s.Marker] {
		vd, ok := p.types[md.recv]
		if !ok || vd == td {
			continue
		}
		if _, isIface := vd.spec.Type.(*ast.InterfaceType); isIface {
			continue
		}
		byName[md.recv] = member{decl: vd, marker: md}
	}
	if err := p.checkPromoted(s, byName); err != nil {
		return nil, err
	}

	if order, ok := directiveList(td.doc, directiveVariants); ok {
		out := make([]member, 0, len(order))
		seen := map[string]struct{}{}
		for _, n := range order {
			m, ok := byName[n]
			if !ok {
				return nil, sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, s.Pos,
					"%s lists %s, which does not implement %s()", directiveVariants, n, s.Marker)
			}
			if _, dup := seen[n]; dup {
				return nil, sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, s.Pos, "%s lists %s twice", directiveVariants, n)
			}
			seen[n] = struct{}{}
			out = append(out, m)
		}
		if len(out) != len(byName) {
			var missing []string
			for n := range byName {
				if _, ok := seen[n]; !ok {
					missing = append(missing, n)
				}
			}
			sort.Strings(missing)
			return nil, sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, s.Pos,
				"%s omits variants %s", directiveVariants, strings.Join(missing, ", "))
		}
		return out, nil
	}

	out := make([]member, 0, len(byName))
	for _, m := range byName {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].decl.order < out[j].decl.order })
	return out, nil
}

// checkPromoted rejects struct types that satisfy the sum type only through
// an embedded variant or an embedded sum interface. Their values would match
// no case of the generated split.
func (p *Package) checkPromoted(s *ir.SumType, variants map[string]member) error {
	decls := make([]*typeDecl, 0, len(p.types))
	for _, td := range p.types {
		decls = append(decls, td)
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].order < decls[j].order })

	for _, td := range decls {
		name := td.spec.Name.Name
		if _, ok := variants[name]; ok {
			continue
		}
		st, ok := td.spec.Type.(*ast.StructType)
		if !ok || st.Fields == nil {
			continue
		}
		var via []string
		for _, f := range st.Fields.List {
			if len(f.Names) != 0 {
				continue
			}
			base := localName(unwrapEmbedded(f.Type))
			if _, ok := variants[base]; ok || base == s.Name {
				via = append(via, base)
			}
		}
		// Two promoted markers at the same depth are ambiguous and promote nothing.
		if len(via) == 1 {
			return sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, p.pos(td.spec.Name.Pos()),
				"%s implements %s() through embedded %s; declare %s() on %s or do not embed %s",
				name, s.Marker, via[0], s.Marker, name, via[0])
		}
	}
	return nil
}

// unwrapEmbedded strips the pointer, parentheses and type arguments of an
// embedded field type.
func unwrapEmbedded(e ast.Expr) ast.Expr {
	for {
		switch t := e.(type) {
		case *ast.StarExpr:
			e = t.X
		case *ast.ParenExpr:
			e = t.X
		case *ast.IndexExpr:
			e = t.X
		case *ast.IndexListExpr:
			e = t.X
		default:
			return e
		}
	}
}

func (p *Package) variant(s *ir.SumType, m member) (ir.Variant, error) {
	ts := m.decl.spec
	v := ir.Variant{
		Name:        ts.Name.Name,
		PointerOnly: m.marker.pointer,
		Pos:         p.pos(ts.Name.Pos()),
		Doc:         strings.TrimSpace(m.decl.doc.Text()),
	}
	if ts.Assign.IsValid() {
		return v, sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, v.Pos, "variant %s is a type alias", v.Name)
	}

	subst := map[string]string{}
	if ts.TypeParams != nil && len(ts.TypeParams.List) > 0 {
		var params []string
		for _, f := range ts.TypeParams.List {
			for _, n := range f.Names {
				params = append(params, n.Name)
			}
		}
		if len(params) != len(s.TypeParams) {
			return v, sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, v.Pos,
				"variant %s has %d type parameters, %s has %d", v.Name, len(params), s.Name, len(s.TypeParams))
		}
		for i, n := range params {
			subst[n] = s.TypeParams[i].Name
		}
		v.Generic = true
	}

	hops, err := p.resolve(s, v.Name, hop{expr: ts.Type, pp: newExprPrinter(subst), file: m.decl.file})
	if err != nil {
		return v, err
	}
	last := hops[len(hops)-1]
	pp := last.pp
	switch t := last.expr.(type) {
	case *ast.StructType:
		if t.Fields != nil {
			for _, f := range t.Fields.List {
				typ := pp.String(f.Type)
				if len(f.Names) == 0 {
					v.Fields = append(v.Fields, ir.Field{Name: embeddedName(f.Type), Type: typ, Slot: -1})
					continue
				}
				for _, n := range f.Names {
					if n.Name == "_" {
						continue
					}
					v.Fields = append(v.Fields, ir.Field{Name: n.Name, Type: typ, Slot: -1})
				}
			}
		}
		v.Shape = ir.ShapeNamed
		if len(v.Fields) == 0 {
			v.Shape = ir.ShapeUnit
		}
	default:
		v.Shape = ir.ShapePositional
		v.Newtype = true
		v.Fields = []ir.Field{{Type: pp.String(last.expr), Slot: -1}}
	}
	for _, h := range hops {
		if err := p.addImports(s, h.file, h.pp.pkgs); err != nil {
			return v, err
		}
	}
	return v, nil
}

// hop is one step from a variant declaration towards its underlying type:
// the type expression, the printer rendering it in terms of the variant's
// type parameters, and the file whose imports qualify it.
type hop struct {
	expr ast.Expr
	pp   *exprPrinter
	file *ast.File
}

// resolve follows defined types of this package until it reaches a type
// literal or a predeclared type, so that "type P Pair" is split like Pair's
// struct and "type A Base" gets Base's underlying type as its slot type. The
// underlying type of an imported named type is not visible from source, so a
// variant defined directly over one is rejected.
func (p *Package) resolve(s *ir.SumType, variant string, h hop) ([]hop, error) {
	hops := []hop{h}
	seen := map[string]struct{}{variant: {}}
	for {
		cur := &hops[len(hops)-1]
		var (
			name string
			args []ast.Expr
		)
		switch t := cur.expr.(type) {
		case *ast.ParenExpr:
			cur.expr = t.X
			continue
		case *ast.Ident:
			name = t.Name
		case *ast.IndexExpr:
			name, args = localName(t.X), []ast.Expr{t.Index}
		case *ast.IndexListExpr:
			name, args = localName(t.X), t.Indices
		case *ast.SelectorExpr:
			return nil, sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, p.pos(t.Pos()),
				"variant %s is defined over imported type %s, whose underlying type is not visible from source; declare it as a struct, e.g. struct{ %s }",
				variant, cur.pp.String(t), cur.pp.String(t))
		default:
			return hops, nil
		}
		if name == "" {
			return nil, sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, p.pos(cur.expr.Pos()),
				"variant %s is defined over imported generic type %s; declare it as a struct", variant, cur.pp.String(cur.expr))
		}
		if _, isParam := cur.pp.subst[name]; isParam {
			return hops, nil
		}
		td, ok := p.types[name]
		if !ok {
			return hops, nil // predeclared
		}
		if _, cyclic := seen[name]; cyclic {
			return nil, sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, p.pos(cur.expr.Pos()),
				"variant %s has a cyclic type definition through %s", variant, name)
		}
		seen[name] = struct{}{}

		var params []string
		if td.spec.TypeParams != nil {
			for _, f := range td.spec.TypeParams.List {
				for _, n := range f.Names {
					params = append(params, n.Name)
				}
			}
		}
		if len(params) != len(args) {
			return nil, sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, p.pos(cur.expr.Pos()),
				"variant %s instantiates %s with %d type arguments, want %d", variant, name, len(args), len(params))
		}
		subst := make(map[string]string, len(params))
		for i, n := range params {
			subst[n] = cur.pp.String(args[i])
		}
		hops = append(hops, hop{expr: td.spec.Type, pp: newExprPrinter(subst), file: td.file})
	}
}

// localName returns the name of an unqualified type, or "" for a qualified one.
func localName(e ast.Expr) string {
	if id, ok := e.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

// addImports resolves package qualifiers used by field types against the
// imports of the declaring file.
func (p *Package) addImports(s *ir.SumType, f *ast.File, used map[string]struct{}) error {
	names := make([]string, 0, len(used))
	for name := range used {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		imp, ok := lookupImport(f, name)
		if !ok {
			return sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, p.pos(f.Pos()),
				"qualifier %s is not imported by %s", name, p.fset.Position(f.Pos()).Filename)
		}
		known, clash := hasImport(s.Imports, imp)
		if clash {
			return sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, p.pos(f.Pos()),
				"qualifier %s refers to different packages across files", name)
		}
		if !known {
			s.Imports = append(s.Imports, imp)
		}
	}
	sort.Slice(s.Imports, func(i, j int) bool { return s.Imports[i].Path < s.Imports[j].Path })
	return nil
}

// hasImport reports whether imp is already present, and whether another
// package already uses its local name.
func hasImport(have []ir.Import, imp ir.Import) (known, clash bool) {
	for _, h := range have {
		if h == imp {
			return true, false
		}
		if h.LocalName() == imp.LocalName() {
			clash = true
		}
	}
	return false, clash
}

func lookupImport(f *ast.File, name string) (ir.Import, bool) {
	for _, is := range f.Imports {
		path := strings.Trim(is.Path.Value, `"`)
		imp := ir.Import{Path: path}
		if is.Name != nil {
			if is.Name.Name == "_" || is.Name.Name == "." {
				continue
			}
			imp.Name = is.Name.Name
		}
		if imp.LocalName() == name {
			if imp.Name == ir.PackageName(path) {
				imp.Name = ""
			}
			return imp, true
		}
	}
	return ir.Import{}, false
}

// Describe is a debugging helper used by the CLI's verbose output.
func (p *Package) Describe() string {
	return fmt.Sprintf("package %s (%d files, %d types)", p.Name, len(p.files), len(p.types))
}
