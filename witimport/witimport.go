// Package witimport reads sum types from WebAssembly Interface Type (WIT)
// documents in the JSON form emitted by `wasm-tools component wit --json`.
//
// Every variant typedef becomes a sum type whose cases are variants; a case
// payload that is an anonymous tuple contributes one positional field per
// element, any other payload a single positional field. Every enum typedef
// becomes a sum type of unit variants. Go names are the CamelCase forms of the
// WIT names, and case types are prefixed with their sum type's name.
package witimport

import (
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"go.bytecodealliance.org/wit"

	sumsplit "github.com/reoring/sumsplit"
	"github.com/reoring/sumsplit/internal/ir"
)

// Options selects what to import.
type Options struct {
	// Package is the Go package name of the output. Defaults to the name of
	// the interface owning the first imported type.
	Package string
	// Types lists WIT or Go type names to import. Empty imports every variant
	// and enum; a listed type that is neither is reported as unsupported.
	Types []string
	// File is recorded in diagnostics.
	File string
}

// LoadFile decodes the WIT JSON document at path and imports it.
func LoadFile(path string, opt Options) ([]*ir.SumType, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sumsplit.Wrap(sumsplit.CodeIO, "", sumsplit.Pos{File: path}, err)
	}
	defer f.Close()
	if opt.File == "" {
		opt.File = path
	}
	res, err := Decode(f, opt.File)
	if err != nil {
		return nil, err
	}
	return Import(res, opt)
}

// Decode reads a WIT JSON resolve document.
func Decode(r io.Reader, file string) (*wit.Resolve, error) {
	res, err := wit.DecodeJSON(r)
	if err != nil {
		return nil, sumsplit.Wrap(sumsplit.CodeParseError, "", sumsplit.Pos{File: file}, err)
	}
	return res, nil
}

// Import converts the selected typedefs of res, in resolve order.
func Import(res *wit.Resolve, opt Options) ([]*ir.SumType, error) {
	im := &importer{res: res, opt: opt, names: map[*wit.TypeDef]string{}}
	selected, err := im.selectTypes()
	if err != nil {
		return nil, err
	}
	for _, td := range selected {
		im.names[td] = GoName(typeName(td))
	}

	pkg := opt.Package
	if pkg == "" && len(selected) > 0 {
		pkg = ownerPackage(selected[0])
	}
	var out []*ir.SumType
	for _, td := range selected {
		s, err := im.sumType(td, pkg)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

type importer struct {
	res   *wit.Resolve
	opt   Options
	names map[*wit.TypeDef]string // typedefs emitted as sum types
}

func (im *importer) pos() sumsplit.Pos { return sumsplit.Pos{File: im.opt.File} }

func (im *importer) selectTypes() ([]*wit.TypeDef, error) {
	if len(im.opt.Types) == 0 {
		var out []*wit.TypeDef
		for _, td := range im.res.TypeDefs {
			if td.Name != nil && isSum(td) {
				out = append(out, td)
			}
		}
		return out, nil
	}
	var out []*wit.TypeDef
	for _, want := range im.opt.Types {
		td := im.lookup(want)
		if td == nil {
			return nil, sumsplit.Newf(sumsplit.CodeTypeNotFound, want, im.pos(), "no typedef named %s", want)
		}
		if !isSum(td) {
			return nil, sumsplit.UnsupportedShape(want, im.pos(), kindName(td.Kind)+" typedef")
		}
		out = append(out, td)
	}
	return out, nil
}

func (im *importer) lookup(name string) *wit.TypeDef {
	for _, td := range im.res.TypeDefs {
		if td.Name == nil {
			continue
		}
		if *td.Name == name || GoName(*td.Name) == name {
			return td
		}
	}
	return nil
}

func isSum(td *wit.TypeDef) bool {
	switch td.Kind.(type) {
	case *wit.Variant, *wit.Enum:
		return true
	}
	return false
}

func (im *importer) sumType(td *wit.TypeDef, pkg string) (*ir.SumType, error) {
	name := im.names[td]
	s := &ir.SumType{
		Name:    name,
		Package: pkg,
		Marker:  "is" + name,
		Pos:     im.pos(),
		Declare: true,
		Doc:     strings.TrimSpace(td.Docs.Contents),
	}
	switch k := td.Kind.(type) {
	case *wit.Enum:
		for _, c := range k.Cases {
			s.Variants = append(s.Variants, ir.Variant{
				Name:  name + GoName(c.Name),
				Shape: ir.ShapeUnit,
				Pos:   s.Pos,
				Doc:   strings.TrimSpace(c.Docs.Contents),
			})
		}
	case *wit.Variant:
		for _, c := range k.Cases {
			v := ir.Variant{
				Name:  name + GoName(c.Name),
				Shape: ir.ShapeUnit,
				Pos:   s.Pos,
				Doc:   strings.TrimSpace(c.Docs.Contents),
			}
			if c.Type != nil {
				types, err := im.payload(s.Name, c.Type)
				if err != nil {
					return nil, err
				}
				v.Shape = ir.ShapePositional
				for _, t := range types {
					v.Fields = append(v.Fields, ir.Field{Type: t, Slot: -1})
				}
			}
			s.Variants = append(s.Variants, v)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// payload flattens an anonymous tuple payload into its elements.
func (im *importer) payload(sum string, t wit.Type) ([]string, error) {
	if td, ok := t.(*wit.TypeDef); ok && td.Name == nil {
		if tup, ok := td.Kind.(*wit.Tuple); ok {
			out := make([]string, 0, len(tup.Types))
			for _, et := range tup.Types {
				gt, err := im.goType(sum, et)
				if err != nil {
					return nil, err
				}
				out = append(out, gt)
			}
			return out, nil
		}
	}
	gt, err := im.goType(sum, t)
	if err != nil {
		return nil, err
	}
	return []string{gt}, nil
}

// goType renders the Go type used for a WIT type.
func (im *importer) goType(sum string, t wit.Type) (string, error) {
	switch t := t.(type) {
	case wit.Bool:
		return "bool", nil
	case wit.S8:
		return "int8", nil
	case wit.U8:
		return "uint8", nil
	case wit.S16:
		return "int16", nil
	case wit.U16:
		return "uint16", nil
	case wit.S32:
		return "int32", nil
	case wit.U32:
		return "uint32", nil
	case wit.S64:
		return "int64", nil
	case wit.U64:
		return "uint64", nil
	case wit.F32:
		return "float32", nil
	case wit.F64:
		return "float64", nil
	case wit.Char:
		return "rune", nil
	case wit.String:
		return "string", nil
	case *wit.TypeDef:
		if name, ok := im.names[t]; ok {
			return name, nil
		}
		return im.typeDef(sum, t)
	}
	return "", sumsplit.UnsupportedShape(sum, im.pos(), "WIT type "+kindName(t))
}

func (im *importer) typeDef(sum string, td *wit.TypeDef) (string, error) {
	switch k := td.Kind.(type) {
	case *wit.List:
		elem, err := im.goType(sum, k.Type)
		if err != nil {
			return "", err
		}
		return "[]" + elem, nil
	case *wit.Option:
		elem, err := im.goType(sum, k.Type)
		if err != nil {
			return "", err
		}
		return "*" + elem, nil
	case *wit.Tuple:
		parts := make([]string, len(k.Types))
		for i, et := range k.Types {
			gt, err := im.goType(sum, et)
			if err != nil {
				return "", err
			}
			parts[i] = "F" + strconv.Itoa(i) + " " + gt
		}
		return "struct{ " + strings.Join(parts, "; ") + " }", nil
	case *wit.Record:
		parts := make([]string, len(k.Fields))
		for i, f := range k.Fields {
			gt, err := im.goType(sum, f.Type)
			if err != nil {
				return "", err
			}
			parts[i] = GoName(f.Name) + " " + gt
		}
		return "struct{ " + strings.Join(parts, "; ") + " }", nil
	case wit.Type:
		return im.goType(sum, k)
	}
	return "", sumsplit.UnsupportedShape(sum, im.pos(), kindName(td.Kind)+" payload "+typeName(td))
}

func typeName(td *wit.TypeDef) string {
	if td.Name == nil {
		return ""
	}
	return *td.Name
}

func kindName(k any) string {
	switch k.(type) {
	case *wit.Record:
		return "record"
	case *wit.Variant:
		return "variant"
	case *wit.Enum:
		return "enum"
	case *wit.Flags:
		return "flags"
	case *wit.Tuple:
		return "tuple"
	case *wit.List:
		return "list"
	case *wit.Option:
		return "option"
	case *wit.Result:
		return "result"
	case *wit.Resource:
		return "resource"
	case *wit.Own:
		return "own handle"
	case *wit.Borrow:
		return "borrow handle"
	}
	return "unsupported"
}

// ownerPackage derives a Go package name from the typedef's owning interface.
func ownerPackage(td *wit.TypeDef) string {
	if iface, ok := td.Owner.(*wit.Interface); ok && iface.Name != nil {
		return strings.ToLower(GoName(*iface.Name))
	}
	return "wit"
}

// GoName converts a kebab-case WIT identifier to an exported Go name.
func GoName(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		switch {
		case r == '-' || r == '_' || r == '%':
			upper = true
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
