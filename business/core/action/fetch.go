package action

import (
	"context"
	"fmt"
	"sync"

	"github.com/ardanlabs/ballot/business/core/contract"
	"github.com/ardanlabs/ballot/business/core/session"
	"go.uber.org/zap"
)

// Query describes a read only contract call made by a read action.
type Query struct {
	Contract string
	Method   string
	Args     []any
	ErrorMsg string
}

// Fetcher runs a read action and holds the last value it produced.
type Fetcher[T any] struct {
	log       *zap.SugaredLogger
	notify    Notifier
	query     Query
	transform func(T) T

	mu      sync.Mutex
	value   T
	loading bool
	mounted *contract.Handle
}

// NewFetcher constructs a fetcher for the query. The optional transform is
// applied to every value fetched.
func NewFetcher[T any](log *zap.SugaredLogger, notify Notifier, q Query, transform func(T) T) *Fetcher[T] {
	return &Fetcher[T]{
		log:       log,
		notify:    notify,
		query:     q,
		transform: transform,
	}
}

// Mount fetches when the contract handle differs from the one seen at the
// previous mount.
func (f *Fetcher[T]) Mount(ctx context.Context, conn session.Connection) error {
	h := conn.Contract(f.query.Contract)

	f.mu.Lock()
	same := sameHandle(f.mounted, h)
	f.mounted = h
	f.mu.Unlock()

	if same {
		return nil
	}

	return f.Fetch(ctx, conn)
}

// Fetch runs the query with its configured arguments.
func (f *Fetcher[T]) Fetch(ctx context.Context, conn session.Connection) error {
	_, err := f.FetchArgs(ctx, conn, f.query.Args...)
	return err
}

// FetchArgs runs the query with the specified arguments and returns the
// value this call produced, which concurrent fetches can't replace. Without
// a contract handle or client nothing happens and the last value is
// returned. On failure the value is cleared and a single error toast is
// shown.
func (f *Fetcher[T]) FetchArgs(ctx context.Context, conn session.Connection, args ...any) (T, error) {
	h := conn.Contract(f.query.Contract)
	if h == nil || conn.Client == nil {
		return f.Value(), nil
	}

	f.setLoading(true)
	defer f.setLoading(false)

	env, err := contract.Query(ctx, conn.Client, conn.Account.Address, h, f.query.Method, args...)

	var v T
	if err == nil {
		v, err = contract.Unwrap[T](env)
	}

	if err != nil {
		f.log.Errorw("action: fetch", "contract", f.query.Contract, "method", f.query.Method, "ERROR", err)

		var zero T
		f.mu.Lock()
		f.value = zero
		f.mu.Unlock()

		f.notify.Error(f.query.ErrorMsg)
		return zero, fmt.Errorf("%w: %w", ErrCallFailed, err)
	}

	if f.transform != nil {
		v = f.transform(v)
	}

	f.mu.Lock()
	f.value = v
	f.mu.Unlock()

	return v, nil
}

// Value returns the last value fetched.
func (f *Fetcher[T]) Value() T {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.value
}

// Loading reports whether a fetch is in progress.
func (f *Fetcher[T]) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.loading
}

func (f *Fetcher[T]) setLoading(loading bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.loading = loading
}

func sameHandle(a, b *contract.Handle) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
