package gen

import (
	"fmt"
	"go/token"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/reoring/sumsplit/internal/ir"
)

// Naming controls the identifiers emitted for one sum type S.
type Naming struct {
	OwnedSuffix     string // SSlots
	SharedSuffix    string // SRefs
	ExclusiveSuffix string // SMuts
	SplitPrefix     string // SplitS
	RefSuffix       string // SplitSRef
	MutSuffix       string // SplitSMut
	WithPrefix      string // WithSMut
}

// DefaultNaming returns the naming used when no configuration is given.
func DefaultNaming() Naming {
	return Naming{
		OwnedSuffix:     "Slots",
		SharedSuffix:    "Refs",
		ExclusiveSuffix: "Muts",
		SplitPrefix:     "Split",
		RefSuffix:       "Ref",
		MutSuffix:       "Mut",
		WithPrefix:      "With",
	}
}

// withDefaults fills empty entries from DefaultNaming.
func (n Naming) withDefaults() Naming {
	d := DefaultNaming()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&n.OwnedSuffix, d.OwnedSuffix)
	fill(&n.SharedSuffix, d.SharedSuffix)
	fill(&n.ExclusiveSuffix, d.ExclusiveSuffix)
	fill(&n.SplitPrefix, d.SplitPrefix)
	fill(&n.RefSuffix, d.RefSuffix)
	fill(&n.MutSuffix, d.MutSuffix)
	fill(&n.WithPrefix, d.WithPrefix)
	return n
}

// Validate rejects namings that would make the three containers or the split
// functions collide.
func (n Naming) Validate() error {
	n = n.withDefaults()
	if n.OwnedSuffix == n.SharedSuffix || n.OwnedSuffix == n.ExclusiveSuffix || n.SharedSuffix == n.ExclusiveSuffix {
		return fmt.Errorf("container suffixes must differ: %q, %q, %q", n.OwnedSuffix, n.SharedSuffix, n.ExclusiveSuffix)
	}
	if n.RefSuffix == n.MutSuffix {
		return fmt.Errorf("split suffixes must differ: %q", n.RefSuffix)
	}
	for _, part := range []string{n.OwnedSuffix, n.SharedSuffix, n.ExclusiveSuffix, n.SplitPrefix, n.RefSuffix, n.MutSuffix, n.WithPrefix} {
		if !token.IsIdentifier("X" + part) {
			return fmt.Errorf("%q is not usable in an identifier", part)
		}
	}
	return nil
}

// Container returns the container type name of s for projection p.
func (n Naming) Container(s string, p ir.Projection) string {
	switch p {
	case ir.Shared:
		return s + n.SharedSuffix
	case ir.Exclusive:
		return s + n.ExclusiveSuffix
	default:
		return s + n.OwnedSuffix
	}
}

// Split returns the split function name of s for projection p.
func (n Naming) Split(s string, p ir.Projection) string {
	switch p {
	case ir.Shared:
		return n.SplitPrefix + s + n.RefSuffix
	case ir.Exclusive:
		return n.SplitPrefix + s + n.MutSuffix
	default:
		return n.SplitPrefix + s
	}
}

// With returns the name of the guarded exclusive split helper.
func (n Naming) With(s string) string { return n.WithPrefix + s + n.MutSuffix }

// reservedFields are container method names a slot field must not shadow.
var reservedFields = map[string]struct{}{"Len": {}, "Slot": {}, "From": {}}

// SlotNames returns one field name per slot in slot order: <Variant><Field>
// for named fields, <Variant><i> for positional ones. A name that is already
// taken gets "_<slot index>" appended.
func SlotNames(s *ir.SumType) []string {
	var out []string
	used := map[string]struct{}{}
	for vi := range s.Variants {
		v := &s.Variants[vi]
		for fi, f := range v.Fields {
			name := v.Name + strconv.Itoa(fi)
			if f.Name != "" {
				name = v.Name + upperFirst(f.Name)
			}
			if _, taken := used[name]; taken {
				name += "_" + strconv.Itoa(len(out))
			} else if _, taken := reservedFields[name]; taken {
				name += "_" + strconv.Itoa(len(out))
			}
			used[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// positionalName is the field name used when a positional variant is emitted
// as a struct.
func positionalName(i int) string { return "F" + strconv.Itoa(i) }
