// Package gen renders the flattened containers, split functions and
// conversion wiring of sum types as Go source.
package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"text/template"

	sumsplit "github.com/reoring/sumsplit"
	"github.com/reoring/sumsplit/internal/ir"
	"github.com/reoring/sumsplit/internal/layout"
)

// DefaultRuntimeImport is the import path of the runtime slot types.
const DefaultRuntimeImport = "github.com/reoring/sumsplit"

// Options tunes rendering.
type Options struct {
	Naming        Naming
	RuntimeImport string // defaults to DefaultRuntimeImport
}

// File is one output file: every sum type of one Go package.
type File struct {
	Package string
	Source  string // optional, recorded in the header
	Types   []*ir.SumType
}

type fileView struct {
	Header  string
	Source  string
	Package string
	Imports []ir.Import
	RT      string
	Types   []*typeView
}

// Render renders a single sum type into a file of its own package.
func Render(s *ir.SumType, opt Options) ([]byte, error) {
	return RenderFile(File{Package: s.Package, Types: []*ir.SumType{s}}, opt)
}

// RenderFile renders every type of f, in the given order, into one gofmt'ed
// Go file. The output depends only on f and opt.
func RenderFile(f File, opt Options) ([]byte, error) {
	if f.Package == "" {
		return nil, fmt.Errorf("gen: package name is required")
	}
	if len(f.Types) == 0 {
		return nil, fmt.Errorf("gen: no sum types to render for package %s", f.Package)
	}
	opt.Naming = opt.Naming.withDefaults()
	if err := opt.Naming.Validate(); err != nil {
		return nil, fmt.Errorf("gen: %w", err)
	}
	if opt.RuntimeImport == "" {
		opt.RuntimeImport = DefaultRuntimeImport
	}

	imports, rt, err := mergeImports(f.Types, opt.RuntimeImport)
	if err != nil {
		return nil, err
	}
	sort.Slice(imports, func(i, j int) bool { return imports[i].Path < imports[j].Path })

	fv := fileView{
		Header:  ir.GeneratedHeader,
		Source:  f.Source,
		Package: f.Package,
		Imports: imports,
		RT:      rt,
	}
	seen := map[string]struct{}{}
	for _, s := range f.Types {
		if _, dup := seen[s.Name]; dup {
			return nil, sumsplit.Newf(sumsplit.CodeInvalidSchema, s.Name, s.Pos, "sum type %s requested twice", s.Name)
		}
		seen[s.Name] = struct{}{}
		l := layout.Plan(s)
		if err := l.Check(); err != nil {
			return nil, fmt.Errorf("gen: %s: %w", s.Name, err)
		}
		fv.Types = append(fv.Types, newTypeView(s, l, opt.Naming, rt))
	}

	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, fv); err != nil {
		return nil, fmt.Errorf("gen: executing template: %w", err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gen: formatting generated source: %w\n%s", err, buf.Bytes())
	}
	return out, nil
}

var fileTmpl = template.Must(template.New("file").Parse(fileText))

func init() {
	template.Must(fileTmpl.New("type").Parse(typeText))
	template.Must(fileTmpl.New("split").Parse(splitText))
}

const fileText = `{{.Header}}
{{- if .Source}}
// Source: {{.Source}}
{{- end}}

package {{.Package}}

import (
{{- range .Imports}}
	{{if .Name}}{{.Name}} {{end}}"{{.Path}}"
{{- end}}
)
{{range .Types}}{{template "type" .}}{{end}}`

const typeText = `{{$rt := .RT}}{{$t := .}}
{{- if .Declare}}
{{range .Doc}}
// {{.}}
{{- end}}
type {{.Name}}{{.Decl}} interface {
	{{.Marker}}()
}
{{range .Variants}}
{{- range .Doc}}
// {{.}}
{{- end}}
type {{.Name}}{{.Decl}} struct {
{{- range .Fields}}
	{{.Name}} {{.Type}}
{{- end}}
}

func ({{.Recv}}) {{$t.Marker}}() {}
{{end}}
{{- end}}
{{- range .Containers}}
// {{.Name}} is the {{.Projection}} projection of {{$t.Name}}: one slot per field of
// every variant, in declaration order.
type {{.Name}}{{$t.Decl}} struct {
{{- range .Fields}}
	{{.Name}} {{.Type}}
{{- end}}
}

// Len returns the number of slots.
func ({{.Self}}) Len() int { return {{$t.N}} }

// Slot returns slot k.
func ({{if $t.N}}c {{end}}{{.Self}}) Slot(k int) {{$rt}}.Slot {
{{- if $t.N}}
	switch k {
{{- range $k, $f := .Fields}}
	case {{$k}}:
		return c.{{$f.Name}}
{{- end}}
	}
{{- end}}
	panic({{$rt}}.SlotRangeError{Index: k, Len: {{$t.N}}})
}
{{end}}
{{- range .Splits}}
{{template "split" .}}
{{end}}
// {{.With}} calls fn with the exclusive split of *p while holding an exclusive
// lease on the storage of the held variant: the variant pointer when *p holds
// one, p otherwise. A nested or concurrent {{.With}} on the same storage
// panics, even through another variable holding the same pointer. A value-held
// variant is split from a copy that is stored back into *p when fn returns, so
// *p keeps its dynamic type; fn must not reassign *p.
func {{.With}}{{.Decl}}(p *{{.Self}}, fn func({{.MutSelf}})) {
	if p == nil {
		fn({{.MutSelf}}{})
		return
	}
{{- if .WithCases}}
	switch v := (*p).(type) {
{{- range .WithCases}}
	case {{.Types}}:
{{- if .NilTest}}
		if v == nil {
			break
		}
		defer {{$rt}}.AcquireExclusive(v).Release()
		fn({{.Lit}})
{{- else}}
		defer {{$rt}}.AcquireExclusive(p).Release()
		fn({{.Lit}})
		*p = v
{{- end}}
		return
{{- end}}
	}
{{- end}}
	defer {{$rt}}.AcquireExclusive(p).Release()
	fn({{.MutSelf}}{})
}

// From replaces c with the owned split of v.
func (c *{{.Owned.Self}}) From(v {{.Self}}) { *c = {{.OwnedSplit}}{{.Use}}(v) }
{{if not .Generic}}
var (
{{- range .Containers}}
	_ {{$rt}}.Container = {{.Name}}{}
{{- end}}
	_ {{$rt}}.From[{{.Name}}] = (*{{.Owned.Name}})(nil)
)
{{end}}`

const splitText = `// {{.Name}} dispatches on the variant held by {{if .Exclusive}}*p{{else}}v{{end}} and fills its slot
// range; every other slot is left empty.
func {{.Name}}{{.Decl}}({{.Param}}) {{.Result}} {
{{- if .Exclusive}}
	if p == nil {
		return {{.Result}}{}
	}
{{- end}}
{{- if .Cases}}
	switch {{if .Bind}}v := {{end}}{{.Subject}}.(type) {
{{- range .Cases}}
	case {{.Types}}:
{{- if .NilTest}}
		if v == nil {
			return {{$.Result}}{}
		}
{{- end}}
{{- if .Promote}}
		*p = &v
{{- end}}
		return {{.Lit}}
{{- end}}
	}
{{- end}}
	return {{.Result}}{}
}`
