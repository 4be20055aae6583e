package dsl

type sumBuilder struct {
	def SumDef
}

// Sum starts a builder for the sum type name.
func Sum(name string) *sumBuilder {
	return &sumBuilder{def: SumDef{Name: name}}
}

// Doc sets the doc comment of the sum type.
func (b *sumBuilder) Doc(doc string) *sumBuilder {
	b.def.Doc = doc
	return b
}

// Marker overrides the marker method name.
func (b *sumBuilder) Marker(name string) *sumBuilder {
	b.def.Marker = name
	return b
}

// Param adds a type parameter; an empty constraint means any.
func (b *sumBuilder) Param(name, constraint string) *sumBuilder {
	b.def.TypeParams = append(b.def.TypeParams, ParamDef{Name: name, Constraint: constraint})
	return b
}

// Import records a package used by field types.
func (b *sumBuilder) Import(path string) *sumBuilder { return b.ImportAs("", path) }

// ImportAs records a package under an explicit local name.
func (b *sumBuilder) ImportAs(name, path string) *sumBuilder {
	b.def.Imports = append(b.def.Imports, ImportDef{Name: name, Path: path})
	return b
}

// Unit adds a variant without fields.
func (b *sumBuilder) Unit(name string) *sumBuilder {
	b.def.Variants = append(b.def.Variants, VariantDef{Name: name})
	return b
}

// Tuple adds a variant with positional fields of the given types.
func (b *sumBuilder) Tuple(name string, types ...string) *sumBuilder {
	b.def.Variants = append(b.def.Variants, VariantDef{Name: name, Tuple: types})
	return b
}

// Variant adds a variant with named fields.
func (b *sumBuilder) Variant(name string, fields ...FieldDef) *sumBuilder {
	b.def.Variants = append(b.def.Variants, VariantDef{Name: name, Fields: fields})
	return b
}

// Pointer marks the last added variant as pointer-held.
func (b *sumBuilder) Pointer() *sumBuilder {
	if n := len(b.def.Variants); n > 0 {
		b.def.Variants[n-1].Pointer = true
	}
	return b
}

// Build checks and returns the description.
func (b *sumBuilder) Build() (SumDef, error) {
	def := b.def
	def.Variants = append([]VariantDef(nil), b.def.Variants...)
	if err := def.Check(); err != nil {
		return SumDef{}, err
	}
	return def, nil
}

// MustBuild is Build that panics on error.
func (b *sumBuilder) MustBuild() SumDef {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
