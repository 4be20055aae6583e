package codegen

import (
	"context"
	"errors"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	sumsplit "github.com/reoring/sumsplit"
	"github.com/reoring/sumsplit/dsl"
	"github.com/reoring/sumsplit/witimport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const msgSrc = `package shapes

//sumsplit:split
type Msg interface{ isMsg() }

type A int32
type B struct {
	X uint32
	Y uint64
}
type C string

func (A) isMsg() {}
func (B) isMsg() {}
func (C) isMsg() {}

type Flag interface{ isFlag() }

type On struct{}
type Off struct{}

func (On) isFlag()  {}
func (Off) isFlag() {}

type Record struct{ N int }
`

func writePkg(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func assertParses(t *testing.T, src []byte) {
	t.Helper()
	_, err := parser.ParseFile(token.NewFileSet(), "out.go", src, 0)
	require.NoError(t, err, "%s", src)
}

func TestFromDir_TaggedAndIdempotent(t *testing.T) {
	dir := writePkg(t, map[string]string{"msg.go": msgSrc})
	core, logs := observer.New(zapcore.DebugLevel)
	g := New(Options{Logger: zap.New(core)})

	out, err := g.FromDir(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "shapes_split.go"), out.Path)
	assert.Equal(t, "shapes", out.Package)
	require.Len(t, out.Types, 1)
	assert.Equal(t, "Msg", out.Types[0].Name)
	assertParses(t, out.Source)
	assert.Contains(t, string(out.Source), "func SplitMsg(v Msg) MsgSlots {")

	assert.Equal(t, 1, logs.FilterMessage("rendered").Len())
	assert.Equal(t, 1, logs.FilterMessage("schema extracted").FilterField(zap.Int("slots", 4)).Len())

	wrote, err := out.Write()
	require.NoError(t, err)
	assert.True(t, wrote)

	// The generated file is ignored on the next run, so the output is stable.
	again, err := g.FromDir(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, string(out.Source), string(again.Source))
	wrote, err = again.Write()
	require.NoError(t, err)
	assert.False(t, wrote)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temporary files must not remain")
}

func TestFromDir_ExplicitTypesKeepOrder(t *testing.T) {
	dir := writePkg(t, map[string]string{"msg.go": msgSrc})
	g := New(Options{Concurrency: 1})
	out, err := g.FromDir(context.Background(), dir, []string{"Flag", "Msg"})
	require.NoError(t, err)
	require.Len(t, out.Types, 2)
	assert.Equal(t, "Flag", out.Types[0].Name)
	assert.Equal(t, "Msg", out.Types[1].Name)
	assertParses(t, out.Source)
}

func TestFromDir_Errors(t *testing.T) {
	dir := writePkg(t, map[string]string{"msg.go": msgSrc})
	g := New(Options{})

	_, err := g.FromDir(context.Background(), dir, []string{"Msg", "Record"})
	assert.True(t, errors.Is(err, sumsplit.ErrUnsupportedShape), "%v", err)

	untagged := writePkg(t, map[string]string{"p.go": "package p\n\ntype S interface{ isS() }\n"})
	_, err = g.FromDir(context.Background(), untagged, nil)
	ds, ok := sumsplit.AsDiagnostics(err)
	require.True(t, ok)
	assert.Equal(t, sumsplit.CodeTypeNotFound, ds[0].Code)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.FromDir(ctx, dir, []string{"Msg"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_RequestOrder(t *testing.T) {
	first := writePkg(t, map[string]string{"msg.go": msgSrc})
	second := writePkg(t, map[string]string{"flag.go": "package flags\n\ntype F interface{ isF() }\n\ntype Up struct{ By int }\n\nfunc (Up) isF() {}\n"})
	g := New(Options{Concurrency: 2})

	outs, err := g.Generate(context.Background(),
		Request{Dir: second, Types: []string{"F"}},
		Request{Dir: first},
	)
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, "flags", outs[0].Package)
	assert.Equal(t, "shapes", outs[1].Package)

	changed, err := WriteFiles(outs)
	require.NoError(t, err)
	assert.Equal(t, []string{outs[0].Path, outs[1].Path}, changed)

	_, err = g.Generate(context.Background(), Request{Dir: first}, Request{Dir: filepath.Join(first, "missing")})
	ds, ok := sumsplit.AsDiagnostics(err)
	require.True(t, ok)
	assert.Equal(t, sumsplit.CodeIO, ds[0].Code)
}

func TestFromDocument(t *testing.T) {
	doc := &dsl.Document{Package: "wire", Types: []dsl.SumDef{
		dsl.Sum("Mixed").
			Unit("A").
			Tuple("B", "uint8").
			Tuple("C", "uint16", "uint32").
			Variant("D", dsl.F("d", "uint64")).
			Variant("E", dsl.F("e", "int8"), dsl.F("f", "int16")).
			MustBuild(),
	}}
	g := New(Options{})
	out, err := g.FromDocument(context.Background(), doc, filepath.Join("defs", "mixed.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("defs", "mixed_split.go"), out.Path)
	assertParses(t, out.Source)
	assert.Contains(t, string(out.Source), "// Source: mixed.yaml")
	assert.Contains(t, string(out.Source), "type Mixed interface {")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.FromDocument(ctx, doc, "mixed.yaml")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromDocumentFile(t *testing.T) {
	dir := writePkg(t, map[string]string{"flag.json": `{"package": "flags", "types": [{"name": "Flag", "variants": [{"name": "On"}, {"name": "Level", "tuple": ["int"]}]}]}`})
	out, err := New(Options{FileSuffix: ".gen.go"}).FromDocumentFile(context.Background(), filepath.Join(dir, "flag.json"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "flag.gen.go"), out.Path)
	assertParses(t, out.Source)
}

const witDoc = `{
  "worlds": [],
  "interfaces": [{"name": "paint", "types": {"color": 0}, "functions": {}, "package": 0}],
  "types": [
    {"name": "color", "kind": {"variant": {"cases": [{"name": "rgb", "type": "u32"}, {"name": "none", "type": null}]}}, "owner": {"interface": 0}}
  ],
  "packages": [{"name": "example:paint@0.1.0", "interfaces": {"paint": 0}, "worlds": {}}]
}`

func TestFromWIT(t *testing.T) {
	dir := writePkg(t, map[string]string{"paint.wit.json": witDoc})
	out, err := New(Options{}).FromWIT(context.Background(), filepath.Join(dir, "paint.wit.json"), witimport.Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "paint.wit_split.go"), out.Path)
	assert.Equal(t, "paint", out.Package)
	assertParses(t, out.Source)
	assert.Contains(t, string(out.Source), "func SplitColor(v Color) ColorSlots {")
}

func TestManifests(t *testing.T) {
	dir := writePkg(t, map[string]string{"msg.go": msgSrc})
	ms, err := New(Options{}).Manifests(context.Background(), dir, nil)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	m := ms[0]
	assert.Equal(t, 4, m.N)
	assert.Equal(t, []string{"X", "Y"}, m.Variants[1].Fields)
	assert.Nil(t, m.Variants[0].Fields)
	assert.Equal(t, SlotManifest{Index: 2, Name: "BY", Variant: "B", Type: "uint64"}, m.Slots[2])

	data, err := m.JSON()
	require.NoError(t, err)
	var back Manifest
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m, back)
}

func TestSiblingPath(t *testing.T) {
	assert.Equal(t, filepath.Join("a", "b_split.go"), siblingPath(filepath.Join("a", "b.json"), "_split.go"))
	assert.Equal(t, filepath.Join("a", "b.wit_split.go"), siblingPath(filepath.Join("a", "b.wit.json"), "_split.go"))
	assert.Equal(t, "v1.shapes_split.go", siblingPath("v1.shapes.yaml", "_split.go"))
	assert.Equal(t, "doc_split.go", siblingPath("doc", "_split.go"))
}
