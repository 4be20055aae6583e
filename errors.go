package sumsplit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/sumsplit/i18n"
)

// Diagnostic codes (exported consts for IDE completion and type safety by convention)
const (
	// CodeUnsupportedShape: the declaration is not a sum type.
	CodeUnsupportedShape = "unsupported_shape"
	// Frontend plumbing around the generator.
	CodeTypeNotFound  = "type_not_found"
	CodeParseError    = "parse_error"
	CodeInvalidSchema = "invalid_schema"
	CodeIO            = "io_error"
	// Runtime reflection splitter only.
	CodeUnknownVariant = "unknown_variant"
)

// ErrUnsupportedShape matches, via errors.Is, any Diagnostics containing an
// unsupported_shape entry.
var ErrUnsupportedShape = errors.New("sumsplit: unsupported shape")

// Pos is a source location. Line and Column are 1-based; zero means unknown.
type Pos struct {
	File   string
	Line   int
	Column int
}

// IsValid reports whether the position carries at least a file name.
func (p Pos) IsValid() bool { return p.File != "" }

func (p Pos) String() string {
	if p.File == "" {
		return "-"
	}
	if p.Line == 0 {
		return p.File
	}
	if p.Column == 0 {
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Diagnostic is a single generation-time failure.
type Diagnostic struct {
	Code    string // One of the codes listed above.
	Type    string // Sum type (or declaration) the diagnostic is about.
	Message string
	Hint    string // Optional: remediation hint.
	Pos     Pos
	Cause   error // Optional: underlying error.
}

// String renders the diagnostic in compiler style: "file:line:col: message".
func (d Diagnostic) String() string {
	msg := d.Message
	if msg == "" {
		msg = i18n.T(d.Code, map[string]string{"type": d.Type})
	}
	b := &strings.Builder{}
	if d.Pos.IsValid() {
		b.WriteString(d.Pos.String())
		b.WriteString(": ")
	}
	b.WriteString(msg)
	if d.Hint != "" {
		fmt.Fprintf(b, " (%s)", d.Hint)
	}
	return b.String()
}

// Diagnostics is a collection of generation failures that implements error.
type Diagnostics []Diagnostic

// Error summarizes the first few diagnostics.
func (ds Diagnostics) Error() string {
	if len(ds) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(ds)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s: %s", ds[i].Code, ds[i].String())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Is lets errors.Is(err, ErrUnsupportedShape) match.
func (ds Diagnostics) Is(target error) bool {
	if target != ErrUnsupportedShape {
		return false
	}
	for _, d := range ds {
		if d.Code == CodeUnsupportedShape {
			return true
		}
	}
	return false
}

// Unwrap exposes the causes of the individual diagnostics.
func (ds Diagnostics) Unwrap() []error {
	var out []error
	for _, d := range ds {
		if d.Cause != nil {
			out = append(out, d.Cause)
		}
	}
	return out
}

// Codes returns the diagnostic codes in order.
func (ds Diagnostics) Codes() []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}

// AppendDiagnostics appends diagnostics to the destination, initializing the
// slice when needed.
func AppendDiagnostics(dst Diagnostics, more ...Diagnostic) Diagnostics {
	if dst == nil {
		dst = Diagnostics{}
	}
	return append(dst, more...)
}

// AsDiagnostics extracts Diagnostics from an error using errors.As internally.
func AsDiagnostics(err error) (Diagnostics, bool) {
	if err == nil {
		return nil, false
	}
	var ds Diagnostics
	if errors.As(err, &ds) {
		return ds, true
	}
	return nil, false
}

// UnsupportedShape builds the diagnostic for a declaration that is not a sum type.
func UnsupportedShape(typ string, pos Pos, hint string) Diagnostics {
	return Diagnostics{{
		Code:    CodeUnsupportedShape,
		Type:    typ,
		Message: i18n.T(CodeUnsupportedShape, map[string]string{"type": typ}),
		Hint:    hint,
		Pos:     pos,
	}}
}

// Newf builds a single-entry Diagnostics with a formatted hint.
func Newf(code, typ string, pos Pos, format string, a ...any) Diagnostics {
	return Diagnostics{{
		Code:    code,
		Type:    typ,
		Message: i18n.T(code, map[string]string{"type": typ}),
		Hint:    fmt.Sprintf(format, a...),
		Pos:     pos,
	}}
}

// Wrap builds a single-entry Diagnostics around an underlying error.
func Wrap(code, typ string, pos Pos, cause error) Diagnostics {
	hint := ""
	if cause != nil {
		hint = cause.Error()
	}
	return Diagnostics{{
		Code:    code,
		Type:    typ,
		Message: i18n.T(code, map[string]string{"type": typ}),
		Hint:    hint,
		Pos:     pos,
		Cause:   cause,
	}}
}
