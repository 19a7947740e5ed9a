package sync

import (
	"sync/atomic"

	"github.com/datatrellis/catalog-engine/pkg/apperrors"
)

// authBreaker trips after repeated authentication failures so a batch with
// bad credentials stops dispatching new work instead of hammering the
// catalog. In-flight items are left to finish; only new dispatches check it.
type authBreaker struct {
	threshold int32
	failures  atomic.Int32
}

func newAuthBreaker(threshold int) *authBreaker {
	if threshold < 1 {
		threshold = 3
	}
	return &authBreaker{threshold: int32(threshold)}
}

// Record folds one item outcome into the breaker. Consecutive auth failures
// accumulate; any other outcome resets the count.
func (b *authBreaker) Record(err error) {
	if err != nil && apperrors.IsAuthFailure(err) {
		b.failures.Add(1)
		return
	}
	b.failures.Store(0)
}

// Open reports whether new work should stop being dispatched.
func (b *authBreaker) Open() bool {
	return b.failures.Load() >= b.threshold
}
