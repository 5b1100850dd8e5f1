package fetch

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"
)

// ErrSuperseded is returned to a Get whose result was discarded because a newer call started
// or Cancel was called.
var ErrSuperseded = errors.New("request superseded")

// GetMethod issues GETs with at most one request outstanding. Starting a Get cancels the
// previous one, and only the most recent call's outcome reaches Data and Err.
type GetMethod[T any] struct {
	fetcher *Fetcher

	lock       sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	loading    bool
	err        error
	data       T
}

func NewGetMethod[T any](f *Fetcher) *GetMethod[T] {
	return &GetMethod[T]{fetcher: f}
}

func (g *GetMethod[T]) Get(ctx context.Context, url string) (T, error) {
	g.lock.Lock()
	if g.cancel != nil {
		g.cancel()
	}
	callCtx, cancel := context.WithCancel(ctx)
	g.generation++
	gen := g.generation
	g.cancel = cancel
	g.loading = true
	g.err = nil
	g.lock.Unlock()
	defer cancel()

	var out T
	resp, err := g.fetcher.Do(callCtx, Request{Method: http.MethodGet, URL: url})
	if err == nil {
		err = HandleResponse(resp, &out)
	}

	g.lock.Lock()
	defer g.lock.Unlock()

	var zero T
	if gen != g.generation {
		return zero, ErrSuperseded
	}
	g.cancel = nil
	g.loading = false
	if err != nil {
		if !IsAborted(err) {
			g.err = err
		}
		return zero, err
	}
	g.data = out
	return out, nil
}

// Cancel aborts the outstanding Get, if any, and discards its outcome.
func (g *GetMethod[T]) Cancel() {
	g.lock.Lock()
	defer g.lock.Unlock()

	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.generation++
	g.loading = false
}

func (g *GetMethod[T]) Loading() bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.loading
}

func (g *GetMethod[T]) Err() error {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.err
}

func (g *GetMethod[T]) Data() T {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.data
}

// UpdateMethod issues POST, PUT, PATCH and DELETE calls. Calls are never cancelled by each other.
type UpdateMethod[T any] struct {
	fetcher *Fetcher

	lock    sync.Mutex
	pending int
	err     error
	data    T
}

func NewUpdateMethod[T any](f *Fetcher) *UpdateMethod[T] {
	return &UpdateMethod[T]{fetcher: f}
}

// Update sends body to url. body may be nil, a JSON string, a *Multipart or any value to marshal.
func (u *UpdateMethod[T]) Update(ctx context.Context, method, url string, body any) (T, error) {
	u.lock.Lock()
	u.pending++
	u.err = nil
	u.lock.Unlock()

	var out T
	err := u.fetcher.JSON(ctx, method, url, body, &out)

	u.lock.Lock()
	defer u.lock.Unlock()
	u.pending--
	if err != nil {
		if !IsAborted(err) {
			u.err = err
		}
		var zero T
		return zero, err
	}
	u.data = out
	return out, nil
}

func (u *UpdateMethod[T]) Loading() bool {
	u.lock.Lock()
	defer u.lock.Unlock()
	return u.pending > 0
}

func (u *UpdateMethod[T]) Err() error {
	u.lock.Lock()
	defer u.lock.Unlock()
	return u.err
}

func (u *UpdateMethod[T]) Data() T {
	u.lock.Lock()
	defer u.lock.Unlock()
	return u.data
}
