package dsl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sumsplit "github.com/reoring/sumsplit"
)

const mixedYAML = `package: wire
types:
  - name: Mixed
    doc: Mixed covers every variant shape.
    variants:
      - name: A
      - name: B
        tuple: [uint8]
      - name: C
        tuple: [uint16, uint32]
      - name: D
        fields:
          - {name: d, type: uint64}
      - name: E
        pointer: true
        fields:
          - {name: e, type: int8}
          - {name: f, type: int16}
`

func TestParseYAML(t *testing.T) {
	doc, err := ParseYAML([]byte(mixedYAML), "mixed.yaml")
	require.NoError(t, err)
	assert.Equal(t, "wire", doc.Package)
	require.Len(t, doc.Types, 1)

	s := doc.Types[0]
	assert.Equal(t, "Mixed", s.Name)
	assert.Equal(t, sumsplit.Pos{File: "mixed.yaml", Line: 3, Column: 5}, s.Pos)
	require.Len(t, s.Variants, 5)
	widths := []int{}
	for _, v := range s.Variants {
		widths = append(widths, v.Width())
	}
	assert.Equal(t, []int{0, 1, 2, 1, 2}, widths)
	assert.Equal(t, 11, s.Variants[3].Pos.Line)
	assert.True(t, s.Variants[4].Pointer)
}

func TestParseYAML_UnknownKey(t *testing.T) {
	_, err := ParseYAML([]byte("package: wire\ntypez: []\n"), "bad.yaml")
	require.Error(t, err)
	ds, ok := sumsplit.AsDiagnostics(err)
	require.True(t, ok)
	assert.Equal(t, sumsplit.CodeParseError, ds[0].Code)
}

func TestParseYAML_Empty(t *testing.T) {
	_, err := ParseYAML(nil, "empty.yaml")
	require.Error(t, err)
}

func TestParseYAML_InvalidSchema(t *testing.T) {
	src := "package: wire\ntypes:\n  - name: S\n    variants:\n      - name: A\n        tuple: [int]\n        fields: [{name: x, type: int}]\n"
	_, err := ParseYAML([]byte(src), "bad.yaml")
	require.Error(t, err)
	ds, ok := sumsplit.AsDiagnostics(err)
	require.True(t, ok)
	assert.Equal(t, sumsplit.CodeInvalidSchema, ds[0].Code)
	assert.Equal(t, 5, ds[0].Pos.Line)
}

func TestParseJSON(t *testing.T) {
	src := `{"package":"wire","types":[{"name":"Msg","variants":[
		{"name":"A","tuple":["int32"]},
		{"name":"B","fields":[{"name":"X","type":"uint32"},{"name":"Y","type":"uint64"}]},
		{"name":"C","tuple":["string"]}]}]}`
	doc, err := ParseJSON([]byte(src), "msg.json")
	require.NoError(t, err)
	require.Len(t, doc.Types, 1)
	assert.Len(t, doc.Types[0].Variants, 3)
	assert.Equal(t, "msg.json", doc.Types[0].Pos.File)

	_, err = ParseJSON([]byte(`{"package":"wire","extra":1}`), "x.json")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mixed.yml")
	require.NoError(t, os.WriteFile(path, []byte(mixedYAML), 0o644))
	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.File)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	ds, _ := sumsplit.AsDiagnostics(err)
	assert.Equal(t, []string{sumsplit.CodeIO}, ds.Codes())
}
