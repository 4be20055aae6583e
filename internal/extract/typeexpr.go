package extract

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"
)

// exprPrinter renders type expressions back to Go source, renaming type
// parameters through subst and recording the package qualifiers it meets.
type exprPrinter struct {
	subst map[string]string
	pkgs  map[string]struct{}
}

func newExprPrinter(subst map[string]string) *exprPrinter {
	return &exprPrinter{subst: subst, pkgs: map[string]struct{}{}}
}

func (p *exprPrinter) String(e ast.Expr) string {
	var b strings.Builder
	p.write(&b, e)
	return b.String()
}

func (p *exprPrinter) write(b *strings.Builder, e ast.Expr) {
	switch t := e.(type) {
	case nil:
	case *ast.Ident:
		if r, ok := p.subst[t.Name]; ok {
			b.WriteString(r)
			return
		}
		b.WriteString(t.Name)
	case *ast.SelectorExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			p.pkgs[id.Name] = struct{}{}
			b.WriteString(id.Name)
		} else {
			p.write(b, t.X)
		}
		b.WriteByte('.')
		b.WriteString(t.Sel.Name)
	case *ast.StarExpr:
		b.WriteByte('*')
		p.write(b, t.X)
	case *ast.ParenExpr:
		b.WriteByte('(')
		p.write(b, t.X)
		b.WriteByte(')')
	case *ast.ArrayType:
		b.WriteByte('[')
		if t.Len != nil {
			p.write(b, t.Len)
		}
		b.WriteByte(']')
		p.write(b, t.Elt)
	case *ast.Ellipsis:
		b.WriteString("...")
		p.write(b, t.Elt)
	case *ast.MapType:
		b.WriteString("map[")
		p.write(b, t.Key)
		b.WriteByte(']')
		p.write(b, t.Value)
	case *ast.ChanType:
		switch t.Dir {
		case ast.RECV:
			b.WriteString("<-chan ")
		case ast.SEND:
			b.WriteString("chan<- ")
		default:
			b.WriteString("chan ")
		}
		p.write(b, t.Value)
	case *ast.FuncType:
		b.WriteString("func")
		p.writeSignature(b, t)
	case *ast.IndexExpr:
		p.write(b, t.X)
		b.WriteByte('[')
		p.write(b, t.Index)
		b.WriteByte(']')
	case *ast.IndexListExpr:
		p.write(b, t.X)
		b.WriteByte('[')
		for i, ix := range t.Indices {
			if i > 0 {
				b.WriteString(", ")
			}
			p.write(b, ix)
		}
		b.WriteByte(']')
	case *ast.BasicLit:
		b.WriteString(t.Value)
	case *ast.UnaryExpr:
		b.WriteString(t.Op.String())
		p.write(b, t.X)
	case *ast.BinaryExpr:
		p.write(b, t.X)
		b.WriteByte(' ')
		b.WriteString(t.Op.String())
		b.WriteByte(' ')
		p.write(b, t.Y)
	case *ast.StructType:
		b.WriteString("struct{")
		p.writeFields(b, t.Fields, "; ", true)
		b.WriteByte('}')
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			b.WriteString("interface{}")
			return
		}
		b.WriteString("interface{ ")
		for i, m := range t.Methods.List {
			if i > 0 {
				b.WriteString("; ")
			}
			if len(m.Names) > 0 {
				b.WriteString(m.Names[0].Name)
				if ft, ok := m.Type.(*ast.FuncType); ok {
					p.writeSignature(b, ft)
					continue
				}
			}
			p.write(b, m.Type)
		}
		b.WriteString(" }")
	default:
		b.WriteString(types.ExprString(e))
	}
}

func (p *exprPrinter) writeSignature(b *strings.Builder, ft *ast.FuncType) {
	b.WriteByte('(')
	p.writeFields(b, ft.Params, ", ", false)
	b.WriteByte(')')
	if ft.Results == nil || len(ft.Results.List) == 0 {
		return
	}
	b.WriteByte(' ')
	if len(ft.Results.List) == 1 && len(ft.Results.List[0].Names) == 0 {
		p.write(b, ft.Results.List[0].Type)
		return
	}
	b.WriteByte('(')
	p.writeFields(b, ft.Results, ", ", false)
	b.WriteByte(')')
}

func (p *exprPrinter) writeFields(b *strings.Builder, fl *ast.FieldList, sep string, tags bool) {
	if fl == nil {
		return
	}
	for i, f := range fl.List {
		if i > 0 {
			b.WriteString(sep)
		}
		for j, n := range f.Names {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(n.Name)
		}
		if len(f.Names) > 0 {
			b.WriteByte(' ')
		}
		p.write(b, f.Type)
		if tags && f.Tag != nil {
			b.WriteByte(' ')
			b.WriteString(f.Tag.Value)
		}
	}
}

// embeddedName returns the implicit field name of an embedded field type.
func embeddedName(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	case *ast.ParenExpr:
		return embeddedName(t.X)
	}
	return ""
}

// describeShape names a non-interface type expression for diagnostics.
func describeShape(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.StructType:
		if t.Fields == nil || len(t.Fields.List) == 0 {
			return "empty struct"
		}
		return "struct (record) type"
	case *ast.Ident:
		if token.IsExported(t.Name) {
			return "named type " + t.Name
		}
		return "basic type " + t.Name
	case *ast.ArrayType:
		return "array or slice type"
	case *ast.MapType:
		return "map type"
	case *ast.FuncType:
		return "func type"
	case *ast.ChanType:
		return "channel type"
	case *ast.StarExpr:
		return "pointer type"
	}
	return "non-interface type"
}
