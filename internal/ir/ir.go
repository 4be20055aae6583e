package ir

// Package ir defines the sum type model shared by the frontends (Go source,
// structural descriptions, WIT) and the code generator. This package is
// internal and not part of the public API.

import (
	"fmt"
	"strings"

	sumsplit "github.com/reoring/sumsplit"
)

// GeneratedHeader is the first line of every generated file. Loaders skip
// files containing it so that regeneration is idempotent.
const GeneratedHeader = "// Code generated by sumsplit. DO NOT EDIT."

// Shape identifies how a variant's fields are written. It only affects surface
// syntax (accessors, emitted declarations), never the slot layout.
type Shape int

const (
	ShapeUnit Shape = iota
	ShapeNamed
	ShapePositional
)

func (s Shape) String() string {
	switch s {
	case ShapeNamed:
		return "named"
	case ShapePositional:
		return "positional"
	default:
		return "unit"
	}
}

// Projection selects one of the three container shapes.
type Projection int

const (
	Owned Projection = iota
	Shared
	Exclusive
)

// Projections lists every projection in emission order.
var Projections = []Projection{Owned, Shared, Exclusive}

func (p Projection) String() string {
	switch p {
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	default:
		return "owned"
	}
}

// SumType is the normalized description of one sum type.
type SumType struct {
	Name       string
	Package    string
	Marker     string // unexported marker method implemented by every variant
	TypeParams []TypeParam
	Variants   []Variant // declaration order
	Imports    []Import  // imports needed by field types
	Pos        sumsplit.Pos
	// Declare is set when the sum type itself must be emitted (descriptions,
	// WIT) rather than already existing in Go source.
	Declare bool
	Doc     string
}

// TypeParam is one type parameter of a generic sum type.
type TypeParam struct {
	Name       string
	Constraint string
}

// Import is a package imported by a field type.
type Import struct {
	Name string // explicit local name; empty when it matches the path's last element
	Path string
}

// LocalName returns the qualifier the import is referred to by.
func (i Import) LocalName() string {
	if i.Name != "" {
		return i.Name
	}
	return PackageName(i.Path)
}

// PackageName guesses the package name from its import path, dropping a /vN
// suffix, a ".vN" gopkg.in suffix and a "go-" prefix.
func PackageName(path string) string {
	parts := strings.Split(path, "/")
	last := parts[len(parts)-1]
	if len(parts) > 1 && isMajorVersion(last) {
		last = parts[len(parts)-2]
	}
	if i := strings.LastIndex(last, ".v"); i > 0 && isMajorVersion(last[i+1:]) {
		last = last[:i]
	}
	return strings.TrimPrefix(last, "go-")
}

func isMajorVersion(s string) bool {
	return len(s) > 1 && s[0] == 'v' && strings.Trim(s[1:], "0123456789") == ""
}

// Variant is one alternative of the sum type.
type Variant struct {
	Name        string
	Shape       Shape
	Fields      []Field
	PointerOnly bool // marker declared on *V: only *V is a member
	Generic     bool // instantiated with the sum type's parameters
	Newtype     bool // the variant type is its single positional field (type A int32)
	Pos         sumsplit.Pos
	Doc         string
}

// Field is one field of a variant.
type Field struct {
	Name string // empty for positional fields
	Type string // Go type expression, already expressed in the sum type's parameters
	Slot int    // global slot index; -1 until allocated
}

// NumFields returns the variant's field count (its slot width).
func (v *Variant) NumFields() int { return len(v.Fields) }

// Instance renders the variant type as used inside the sum type's scope,
// e.g. "Ok[T]" for a generic variant.
func (v *Variant) Instance(s *SumType) string {
	if !v.Generic || len(s.TypeParams) == 0 {
		return v.Name
	}
	return v.Name + "[" + s.ParamNames() + "]"
}

// NumSlots returns N, the total field count across variants.
func (s *SumType) NumSlots() int {
	n := 0
	for i := range s.Variants {
		n += len(s.Variants[i].Fields)
	}
	return n
}

// ParamNames renders "T, U" for the type parameters.
func (s *SumType) ParamNames() string {
	names := make([]string, len(s.TypeParams))
	for i, p := range s.TypeParams {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// ParamDecl renders "[T any, U comparable]", or "" for non-generic types.
func (s *SumType) ParamDecl() string {
	if len(s.TypeParams) == 0 {
		return ""
	}
	parts := make([]string, len(s.TypeParams))
	for i, p := range s.TypeParams {
		c := p.Constraint
		if c == "" {
			c = "any"
		}
		parts[i] = p.Name + " " + c
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ParamUse renders "[T, U]", or "" for non-generic types.
func (s *SumType) ParamUse() string {
	if len(s.TypeParams) == 0 {
		return ""
	}
	return "[" + s.ParamNames() + "]"
}

// Validate checks structural invariants shared by every frontend.
func (s *SumType) Validate() error {
	if s.Name == "" {
		return sumsplit.Newf(sumsplit.CodeInvalidSchema, "", s.Pos, "sum type has no name")
	}
	seen := make(map[string]struct{}, len(s.Variants))
	for i := range s.Variants {
		v := &s.Variants[i]
		if v.Name == "" {
			return sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, v.Pos, "variant %d has no name", i)
		}
		if _, dup := seen[v.Name]; dup {
			return sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, v.Pos, "duplicate variant %q", v.Name)
		}
		seen[v.Name] = struct{}{}
		if err := v.validate(s.Name); err != nil {
			return err
		}
	}
	return nil
}

func (v *Variant) validate(sum string) error {
	switch {
	case len(v.Fields) == 0 && v.Shape != ShapeUnit:
		return sumsplit.Newf(sumsplit.CodeInvalidSchema, sum, v.Pos, "variant %s has shape %s but no fields", v.Name, v.Shape)
	case len(v.Fields) > 0 && v.Shape == ShapeUnit:
		return sumsplit.Newf(sumsplit.CodeInvalidSchema, sum, v.Pos, "unit variant %s has fields", v.Name)
	}
	names := make(map[string]struct{}, len(v.Fields))
	for i, f := range v.Fields {
		if f.Type == "" {
			return sumsplit.Newf(sumsplit.CodeInvalidSchema, sum, v.Pos, "field %d of %s has no type", i, v.Name)
		}
		if v.Shape == ShapeNamed {
			if f.Name == "" {
				return sumsplit.Newf(sumsplit.CodeInvalidSchema, sum, v.Pos, "variant %s mixes named and positional fields", v.Name)
			}
			if _, dup := names[f.Name]; dup {
				return sumsplit.Newf(sumsplit.CodeInvalidSchema, sum, v.Pos, "duplicate field %s.%s", v.Name, f.Name)
			}
			names[f.Name] = struct{}{}
		}
		if v.Shape == ShapePositional && f.Name != "" {
			return sumsplit.Newf(sumsplit.CodeInvalidSchema, sum, v.Pos, "variant %s mixes named and positional fields", v.Name)
		}
	}
	return nil
}

// String renders a compact signature, e.g. "Msg{A(int32), B{X uint32, Y uint64}, C}".
func (s *SumType) String() string {
	b := &strings.Builder{}
	b.WriteString(s.Name)
	b.WriteString(s.ParamDecl())
	b.WriteByte('{')
	for i := range s.Variants {
		if i > 0 {
			b.WriteString(", ")
		}
		v := &s.Variants[i]
		b.WriteString(v.Name)
		switch v.Shape {
		case ShapePositional:
			types := make([]string, len(v.Fields))
			for j, f := range v.Fields {
				types[j] = f.Type
			}
			fmt.Fprintf(b, "(%s)", strings.Join(types, ", "))
		case ShapeNamed:
			parts := make([]string, len(v.Fields))
			for j, f := range v.Fields {
				parts[j] = f.Name + " " + f.Type
			}
			fmt.Fprintf(b, "{%s}", strings.Join(parts, ", "))
		}
	}
	b.WriteByte('}')
	return b.String()
}
