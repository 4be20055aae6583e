package sumsplit

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/sumsplit/i18n"
)

func TestPosString(t *testing.T) {
	assert.Equal(t, "-", Pos{}.String())
	assert.Equal(t, "a.go", Pos{File: "a.go"}.String())
	assert.Equal(t, "a.go:3", Pos{File: "a.go", Line: 3}.String())
	assert.Equal(t, "a.go:3:6", Pos{File: "a.go", Line: 3, Column: 6}.String())
}

func TestUnsupportedShape(t *testing.T) {
	err := error(UnsupportedShape("Point", Pos{File: "p.go", Line: 4, Column: 6}, "struct (record) type"))
	assert.True(t, errors.Is(err, ErrUnsupportedShape))
	assert.Equal(t,
		"unsupported_shape: p.go:4:6: Point is not a sum type (sealed interface) (struct (record) type)",
		err.Error())

	wrapped := fmt.Errorf("generate: %w", err)
	ds, ok := AsDiagnostics(wrapped)
	require.True(t, ok)
	assert.Equal(t, []string{CodeUnsupportedShape}, ds.Codes())

	assert.False(t, errors.Is(Newf(CodeTypeNotFound, "X", Pos{}, ""), ErrUnsupportedShape))
}

func TestDiagnostics_ErrorTruncates(t *testing.T) {
	var ds Diagnostics
	for i := 0; i < 5; i++ {
		ds = AppendDiagnostics(ds, Newf(CodeTypeNotFound, fmt.Sprintf("T%d", i), Pos{}, "")...)
	}
	assert.Equal(t,
		"type_not_found: type T0 not found; type_not_found: type T1 not found; type_not_found: type T2 not found; ... (total 5)",
		ds.Error())
	assert.Equal(t, "", Diagnostics(nil).Error())
}

func TestWrap_UnwrapsCause(t *testing.T) {
	err := Wrap(CodeIO, "", Pos{File: "x_split.go"}, fs.ErrPermission)
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.Equal(t, "x_split.go: i/o error (permission denied)", err[0].String())
}

func TestDiagnostic_Localized(t *testing.T) {
	t.Cleanup(func() { i18n.SetLanguage("en") })
	i18n.SetLanguage("ja")
	d := Diagnostic{Code: CodeTypeNotFound, Type: "Msg"}
	assert.Equal(t, "型 Msg が見つかりません", d.String())
}

func TestAsDiagnostics_Plain(t *testing.T) {
	_, ok := AsDiagnostics(errors.New("x"))
	assert.False(t, ok)
	_, ok = AsDiagnostics(nil)
	assert.False(t, ok)
}
