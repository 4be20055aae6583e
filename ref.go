package sumsplit

// Ref is a shared, read-only slot: a pointer into a field of the split value.
// The zero Ref is None. A Ref must not outlive the value it was split from.
type Ref[T any] struct {
	p *T
}

// RefOf wraps p as a shared slot. A nil p yields None.
func RefOf[T any](p *T) Ref[T] { return Ref[T]{p: p} }

// IsSome reports whether the slot is populated.
func (r Ref[T]) IsSome() bool { return r.p != nil }

// IsNone reports whether the slot is empty.
func (r Ref[T]) IsNone() bool { return r.p == nil }

// Get returns a copy of the referenced field and whether it was present.
func (r Ref[T]) Get() (T, bool) {
	if r.p == nil {
		var zero T
		return zero, false
	}
	return *r.p, true
}

// MustGet returns a copy of the referenced field or panics when empty.
func (r Ref[T]) MustGet() T {
	if r.p == nil {
		panic("sumsplit: MustGet on empty Ref")
	}
	return *r.p
}

// Any returns the underlying pointer boxed as any, or nil when empty.
func (r Ref[T]) Any() any {
	if r.p == nil {
		return nil
	}
	return r.p
}

// Mut is an exclusive, writable slot. Populated Muts returned by a single split
// always point at pairwise disjoint fields of the one active variant.
type Mut[T any] struct {
	p *T
}

// MutOf wraps p as an exclusive slot. A nil p yields None.
func MutOf[T any](p *T) Mut[T] { return Mut[T]{p: p} }

// IsSome reports whether the slot is populated.
func (m Mut[T]) IsSome() bool { return m.p != nil }

// IsNone reports whether the slot is empty.
func (m Mut[T]) IsNone() bool { return m.p == nil }

// Get returns a copy of the referenced field and whether it was present.
func (m Mut[T]) Get() (T, bool) {
	if m.p == nil {
		var zero T
		return zero, false
	}
	return *m.p, true
}

// Ptr returns the field pointer, or nil when empty.
func (m Mut[T]) Ptr() *T { return m.p }

// Set stores v into the referenced field. It reports false when the slot is empty.
func (m Mut[T]) Set(v T) bool {
	if m.p == nil {
		return false
	}
	*m.p = v
	return true
}

// Update applies fn to the referenced field in place. It is a no-op when empty.
func (m Mut[T]) Update(fn func(*T)) {
	if m.p != nil {
		fn(m.p)
	}
}

// Any returns the underlying pointer boxed as any, or nil when empty.
func (m Mut[T]) Any() any {
	if m.p == nil {
		return nil
	}
	return m.p
}
