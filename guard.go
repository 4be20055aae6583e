package sumsplit

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAliasedExclusive is raised (as a panic value wrapping it) when a value is
// split exclusively while an earlier exclusive split of it is still live.
var ErrAliasedExclusive = errors.New("sumsplit: value is already split exclusively")

var (
	leaseMu sync.Mutex
	leased  = map[any]struct{}{}
)

// Lease marks one live exclusive split. Release is idempotent.
type Lease struct {
	key  any
	once sync.Once
}

// TryAcquireExclusive records p (a pointer to the sum value being split) as
// exclusively held. It reports false when p is already held.
func TryAcquireExclusive(p any) (*Lease, bool) {
	leaseMu.Lock()
	defer leaseMu.Unlock()
	if _, held := leased[p]; held {
		return nil, false
	}
	leased[p] = struct{}{}
	return &Lease{key: p}, true
}

// AcquireExclusive is TryAcquireExclusive that panics on aliasing.
func AcquireExclusive(p any) *Lease {
	l, ok := TryAcquireExclusive(p)
	if !ok {
		panic(fmt.Errorf("%w: %T %p", ErrAliasedExclusive, p, p))
	}
	return l
}

// Release ends the exclusive split.
func (l *Lease) Release() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		leaseMu.Lock()
		delete(leased, l.key)
		leaseMu.Unlock()
	})
}
