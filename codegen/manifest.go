package codegen

import (
	"context"

	json "github.com/goccy/go-json"

	"github.com/reoring/sumsplit/internal/extract"
	"github.com/reoring/sumsplit/internal/gen"
	"github.com/reoring/sumsplit/internal/ir"
	"github.com/reoring/sumsplit/internal/layout"
)

// Manifest describes the slot layout of one sum type. Two manifests of the
// same type are equal exactly when generated code stays positionally
// compatible.
type Manifest struct {
	Type     string            `json:"type"`
	Package  string            `json:"package"`
	N        int               `json:"n"`
	Variants []VariantManifest `json:"variants"`
	Slots    []SlotManifest    `json:"slots"`
}

// VariantManifest is one variant and its slot range.
type VariantManifest struct {
	Name   string       `json:"name"`
	Shape  string       `json:"shape"`
	Range  layout.Range `json:"range"`
	Fields []string     `json:"fields,omitempty"`
}

// SlotManifest is one slot of the flattened containers.
type SlotManifest struct {
	Index   int    `json:"index"`
	Name    string `json:"name"` // container field name
	Variant string `json:"variant"`
	Type    string `json:"type"`
}

// NewManifest plans s and describes the result.
func NewManifest(s *ir.SumType) Manifest {
	l := layout.Plan(s)
	names := gen.SlotNames(s)
	m := Manifest{Type: s.Name, Package: s.Package, N: l.N()}
	for i := range s.Variants {
		v := &s.Variants[i]
		vm := VariantManifest{Name: v.Name, Shape: v.Shape.String(), Range: l.Range(i)}
		for _, f := range v.Fields {
			vm.Fields = append(vm.Fields, f.Name)
		}
		if v.Shape != ir.ShapeNamed {
			vm.Fields = nil
		}
		m.Variants = append(m.Variants, vm)
	}
	for _, sl := range l.Table.Slots {
		m.Slots = append(m.Slots, SlotManifest{
			Index:   sl.Index,
			Name:    names[sl.Index],
			Variant: s.Variants[sl.Variant].Name,
			Type:    sl.Type,
		})
	}
	return m
}

// JSON renders the manifest as indented JSON.
func (m Manifest) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// Manifests describes the named sum types of the Go package in dir, or its
// tagged types when names is empty.
func (g *Generator) Manifests(ctx context.Context, dir string, names []string) ([]Manifest, error) {
	pkg, err := extract.Load(dir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = pkg.Tagged()
	}
	types, err := g.schemas(ctx, pkg, names)
	if err != nil {
		return nil, err
	}
	out := make([]Manifest, len(types))
	for i, s := range types {
		out[i] = NewManifest(s)
	}
	return out, nil
}
