// Package codegen drives the frontends and the renderer: it extracts sum type
// schemas from Go source, description documents or WIT documents, renders
// the flattened containers and writes the result next to the input.
//
//	g := codegen.New(codegen.Options{Logger: logger})
//	out, err := g.FromDir(ctx, "./shapes", []string{"Msg"})
//	if err == nil {
//		_, err = out.Write()
//	}
package codegen

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	sumsplit "github.com/reoring/sumsplit"
	"github.com/reoring/sumsplit/dsl"
	"github.com/reoring/sumsplit/dsl/irconv"
	"github.com/reoring/sumsplit/internal/extract"
	"github.com/reoring/sumsplit/internal/gen"
	"github.com/reoring/sumsplit/internal/ir"
	"github.com/reoring/sumsplit/witimport"
)

// DefaultFileSuffix is appended to the output file's base name.
const DefaultFileSuffix = "_split.go"

// Options configures a Generator. The zero value is usable.
type Options struct {
	Naming        gen.Naming
	RuntimeImport string
	// Concurrency bounds the number of schemas extracted and requests served
	// in parallel. Zero means GOMAXPROCS.
	Concurrency int
	FileSuffix  string
	Logger      *zap.Logger
}

// Generator renders split code. It holds no per-run state and may be used
// from several goroutines.
type Generator struct {
	opt Options
	log *zap.Logger
}

// New returns a Generator with defaults applied to opt.
func New(opt Options) *Generator {
	if opt.Concurrency <= 0 {
		opt.Concurrency = runtime.GOMAXPROCS(0)
	}
	if opt.FileSuffix == "" {
		opt.FileSuffix = DefaultFileSuffix
	}
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{opt: opt, log: log}
}

// Output is one rendered file.
type Output struct {
	Path    string // default destination, derived from the input
	Package string
	Types   []*ir.SumType
	Source  []byte
}

// Request names the sum types to generate from one package directory. An
// empty Types list selects the types tagged //sumsplit:split.
type Request struct {
	Dir   string
	Types []string
}

// Generate serves every request in parallel. Outputs are returned in request
// order; the first failure cancels the remaining work.
func (g *Generator) Generate(ctx context.Context, reqs ...Request) ([]*Output, error) {
	outs := make([]*Output, len(reqs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opt.Concurrency)
	for i, r := range reqs {
		eg.Go(func() error {
			out, err := g.FromDir(egCtx, r.Dir, r.Types)
			if err != nil {
				return err
			}
			outs[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return outs, nil
}

// FromDir extracts the named sum types from the Go package in dir and renders
// them into one file.
func (g *Generator) FromDir(ctx context.Context, dir string, types []string) (*Output, error) {
	log := g.log.With(zap.String("dir", dir))
	pkg, err := extract.Load(dir)
	if err != nil {
		return nil, err
	}
	log.Debug("package loaded", zap.String("package", pkg.Describe()))
	if len(types) == 0 {
		types = pkg.Tagged()
		if len(types) == 0 {
			return nil, sumsplit.Newf(sumsplit.CodeTypeNotFound, "", sumsplit.Pos{File: dir},
				"no type names given and no //sumsplit:split directive in package %s", pkg.Name)
		}
	}

	schemas, err := g.schemas(ctx, pkg, types)
	if err != nil {
		return nil, err
	}
	return g.render(pkg.Name, dir, filepath.Join(dir, pkg.Name+g.opt.FileSuffix), schemas)
}

// schemas resolves the named types of pkg in parallel. The result follows the
// order of names.
func (g *Generator) schemas(ctx context.Context, pkg *extract.Package, names []string) ([]*ir.SumType, error) {
	out := make([]*ir.SumType, len(names))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opt.Concurrency)
	for i, name := range names {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			s, err := pkg.SumType(name)
			if err != nil {
				return err
			}
			g.log.Debug("schema extracted",
				zap.String("type", name),
				zap.Int("variants", len(s.Variants)),
				zap.Int("slots", s.NumSlots()))
			out[i] = s
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FromDocument renders every sum type of a description document. source is
// the document path; the output path is derived from it.
func (g *Generator) FromDocument(ctx context.Context, doc *dsl.Document, source string) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	types, err := irconv.ToIR(doc)
	if err != nil {
		return nil, err
	}
	return g.render(doc.Package, source, siblingPath(source, g.opt.FileSuffix), types)
}

// FromDocumentFile loads a YAML or JSON description and renders it.
func (g *Generator) FromDocumentFile(ctx context.Context, path string) (*Output, error) {
	doc, err := dsl.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return g.FromDocument(ctx, doc, path)
}

// FromWIT imports the variants and enums of a WIT JSON document and renders
// them.
func (g *Generator) FromWIT(ctx context.Context, path string, opt witimport.Options) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	types, err := witimport.LoadFile(path, opt)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, sumsplit.Newf(sumsplit.CodeTypeNotFound, "", sumsplit.Pos{File: path}, "document declares no variant or enum types")
	}
	return g.render(types[0].Package, path, siblingPath(path, g.opt.FileSuffix), types)
}

func (g *Generator) render(pkg, source, path string, types []*ir.SumType) (*Output, error) {
	src, err := gen.RenderFile(gen.File{Package: pkg, Source: filepath.ToSlash(filepath.Base(source)), Types: types},
		gen.Options{Naming: g.opt.Naming, RuntimeImport: g.opt.RuntimeImport})
	if err != nil {
		return nil, err
	}
	names := make([]string, len(types))
	for i, s := range types {
		names[i] = s.Name
	}
	g.log.Info("rendered",
		zap.String("package", pkg),
		zap.Strings("types", names),
		zap.Int("bytes", len(src)))
	return &Output{Path: path, Package: pkg, Types: types, Source: src}, nil
}

// siblingPath replaces the extension of source with suffix.
func siblingPath(source, suffix string) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(source), base+suffix)
}
