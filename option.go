package sumsplit

// Option is an owned slot value. The zero Option is None.
type Option[T any] struct {
	v  T
	ok bool
}

// Some returns a populated Option holding v.
func Some[T any](v T) Option[T] { return Option[T]{v: v, ok: true} }

// None returns an empty Option. It is equivalent to the zero value.
func None[T any]() Option[T] { return Option[T]{} }

// IsSome reports whether the slot is populated.
func (o Option[T]) IsSome() bool { return o.ok }

// IsNone reports whether the slot is empty.
func (o Option[T]) IsNone() bool { return !o.ok }

// Get returns the held value and whether it was present.
func (o Option[T]) Get() (T, bool) { return o.v, o.ok }

// MustGet returns the held value or panics when the slot is empty.
func (o Option[T]) MustGet() T {
	if !o.ok {
		panic("sumsplit: MustGet on empty Option")
	}
	return o.v
}

// OrElse returns the held value, or def when the slot is empty.
func (o Option[T]) OrElse(def T) T {
	if !o.ok {
		return def
	}
	return o.v
}

// Any returns the held value boxed as any, or nil when empty.
func (o Option[T]) Any() any {
	if !o.ok {
		return nil
	}
	return o.v
}
