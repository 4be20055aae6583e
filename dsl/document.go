package dsl

import (
	"go/token"

	sumsplit "github.com/reoring/sumsplit"
)

// Document is a set of sum types that share one Go package.
type Document struct {
	Package string   `yaml:"package" json:"package"`
	Types   []SumDef `yaml:"types" json:"types"`

	// File is the path the document was read from, when known.
	File string `yaml:"-" json:"-"`
}

// SumDef describes one sum type.
type SumDef struct {
	Name       string       `yaml:"name" json:"name"`
	Doc        string       `yaml:"doc,omitempty" json:"doc,omitempty"`
	Marker     string       `yaml:"marker,omitempty" json:"marker,omitempty"` // defaults to "is"+Name
	TypeParams []ParamDef   `yaml:"typeParams,omitempty" json:"typeParams,omitempty"`
	Imports    []ImportDef  `yaml:"imports,omitempty" json:"imports,omitempty"`
	Variants   []VariantDef `yaml:"variants" json:"variants"`

	Pos sumsplit.Pos `yaml:"-" json:"-"`
}

// ParamDef is a type parameter, e.g. {Name: "T", Constraint: "any"}.
type ParamDef struct {
	Name       string `yaml:"name" json:"name"`
	Constraint string `yaml:"constraint,omitempty" json:"constraint,omitempty"`
}

// ImportDef is a package referenced by field types.
type ImportDef struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	Path string `yaml:"path" json:"path"`
}

// VariantDef describes one variant. Tuple and Fields are mutually exclusive.
type VariantDef struct {
	Name    string     `yaml:"name" json:"name"`
	Doc     string     `yaml:"doc,omitempty" json:"doc,omitempty"`
	Pointer bool       `yaml:"pointer,omitempty" json:"pointer,omitempty"` // only *V implements the sum type
	Tuple   []string   `yaml:"tuple,omitempty" json:"tuple,omitempty"`
	Fields  []FieldDef `yaml:"fields,omitempty" json:"fields,omitempty"`

	Pos sumsplit.Pos `yaml:"-" json:"-"`
}

// FieldDef is a named field.
type FieldDef struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// F is shorthand for a named field.
func F(name, typ string) FieldDef { return FieldDef{Name: name, Type: typ} }

// Check reports structural problems of every type in the document.
func (d *Document) Check() error {
	var diags sumsplit.Diagnostics
	if !token.IsIdentifier(d.Package) {
		diags = append(diags, sumsplit.Newf(sumsplit.CodeInvalidSchema, "", sumsplit.Pos{File: d.File}, "package name %q is not an identifier", d.Package)...)
	}
	seen := map[string]struct{}{}
	for i := range d.Types {
		s := &d.Types[i]
		if _, dup := seen[s.Name]; dup {
			diags = append(diags, sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, s.Pos, "sum type %s defined twice", s.Name)...)
			continue
		}
		seen[s.Name] = struct{}{}
		diags = append(diags, s.diagnostics()...)
	}
	if len(diags) > 0 {
		return diags
	}
	return nil
}

// Check reports structural problems of one sum type: bad identifiers,
// duplicate variants or fields, and variants mixing named and positional
// fields.
func (s *SumDef) Check() error {
	if diags := s.diagnostics(); len(diags) > 0 {
		return diags
	}
	return nil
}

func (s *SumDef) diagnostics() sumsplit.Diagnostics {
	var diags sumsplit.Diagnostics
	bad := func(pos sumsplit.Pos, format string, a ...any) {
		diags = append(diags, sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, pos, format, a...)...)
	}
	if !token.IsIdentifier(s.Name) {
		bad(s.Pos, "sum type name %q is not an identifier", s.Name)
	}
	if s.Marker != "" && (!token.IsIdentifier(s.Marker) || token.IsExported(s.Marker)) {
		bad(s.Pos, "marker %q must be an unexported identifier", s.Marker)
	}
	params := map[string]struct{}{}
	for _, p := range s.TypeParams {
		if !token.IsIdentifier(p.Name) {
			bad(s.Pos, "type parameter %q is not an identifier", p.Name)
		}
		if _, dup := params[p.Name]; dup {
			bad(s.Pos, "duplicate type parameter %s", p.Name)
		}
		params[p.Name] = struct{}{}
	}

	variants := map[string]struct{}{}
	for _, v := range s.Variants {
		if !token.IsIdentifier(v.Name) {
			bad(v.Pos, "variant name %q is not an identifier", v.Name)
		}
		if v.Name == s.Name {
			bad(v.Pos, "variant %s has the sum type's name", v.Name)
		}
		if _, dup := variants[v.Name]; dup {
			bad(v.Pos, "duplicate variant %s", v.Name)
		}
		variants[v.Name] = struct{}{}

		if len(v.Tuple) > 0 && len(v.Fields) > 0 {
			bad(v.Pos, "variant %s mixes named and positional fields", v.Name)
			continue
		}
		for i, t := range v.Tuple {
			if t == "" {
				bad(v.Pos, "field %d of %s has no type", i, v.Name)
			}
		}
		fields := map[string]struct{}{}
		for _, f := range v.Fields {
			switch {
			case f.Name == "":
				bad(v.Pos, "variant %s mixes named and positional fields", v.Name)
			case !token.IsIdentifier(f.Name):
				bad(v.Pos, "field name %q of %s is not an identifier", f.Name, v.Name)
			case f.Type == "":
				bad(v.Pos, "field %s.%s has no type", v.Name, f.Name)
			}
			if _, dup := fields[f.Name]; dup && f.Name != "" {
				bad(v.Pos, "duplicate field %s.%s", v.Name, f.Name)
			}
			fields[f.Name] = struct{}{}
		}
	}
	return diags
}

// Width returns the number of fields of the variant.
func (v VariantDef) Width() int { return len(v.Tuple) + len(v.Fields) }
