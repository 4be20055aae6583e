// Package dsl describes sum types structurally, without Go source, for the
// sumsplit generator.
//
// Overview
//   - Builder API: declare a sum type with Sum(name) and chain Unit/Tuple/Variant,
//     then Build()/MustBuild().
//   - Documents: the same description as YAML or JSON, read with ParseYAML,
//     ParseJSON or LoadFile. YAML documents record source positions for
//     diagnostics.
//   - Conversion: dsl/irconv turns a Document into the generator's model. The
//     generated file then also declares the sum type itself, its variants and
//     their marker methods.
//
// Entry points
//   - Sum(name): builder for one sum type.
//   - F(name, type): a named field for Variant.
//   - ParseYAML/ParseJSON/LoadFile: decode a Document.
//
// File layout (roles)
//   - document.go: Document/SumDef/VariantDef and their structural checks.
//   - builder.go: the fluent builder.
//   - load.go: YAML (gopkg.in/yaml.v3) and JSON (github.com/goccy/go-json) decoding.
//
// Example (builder)
//
//	msg := dsl.Sum("Msg").
//	    Tuple("A", "int32").
//	    Variant("B", dsl.F("X", "uint32"), dsl.F("Y", "uint64")).
//	    Tuple("C", "string").
//	    Unit("Empty").Pointer().
//	    MustBuild()
//	doc := &dsl.Document{Package: "wire", Types: []dsl.SumDef{msg}}
//
// Example (YAML)
//
//	package: wire
//	types:
//	  - name: Mixed
//	    variants:
//	      - name: A
//	      - name: B
//	        tuple: [uint8]
//	      - name: D
//	        fields:
//	          - {name: d, type: uint64}
//
// A variant lists either tuple (positional) or fields (named), never both;
// a variant with neither is a unit variant.
package dsl
