// Package registry owns lazily loaded, immutable model snapshots.
//
// A Registry collapses concurrent first loads into one execution and
// publishes the result through an atomic pointer, so readers never take a
// lock and never observe a partially built snapshot. Failed loads are not
// cached; the next caller retries.
package registry

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Jagmohan-Prajapati/Smart-Agriculture/pkg/logger"
)

// Loader builds a snapshot. It runs detached from the triggering request's
// cancellation and is expected to run to completion.
type Loader[T any] func(ctx context.Context) (*T, error)

// Registry holds the current snapshot of T.
type Registry[T any] struct {
	name    string
	load    Loader[T]
	current atomic.Pointer[T]
	group   singleflight.Group
	loads   atomic.Int64
	log     logger.Logger
}

// New creates a registry named name that fills itself with load.
func New[T any](name string, load Loader[T], opts ...Option) *Registry[T] {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("registry")
	}
	return &Registry[T]{
		name: name,
		load: load,
		log:  s.log,
	}
}

// Get returns the current snapshot, loading it first if needed. Concurrent
// callers share one load. A caller whose ctx ends stops waiting, but the
// load itself carries on for the others.
func (r *Registry[T]) Get(ctx context.Context) (*T, error) {
	if s := r.current.Load(); s != nil {
		return s, nil
	}
	return r.do(ctx, r.name, r.load, false)
}

// Replace builds a new snapshot with build and swaps it in atomically.
// In-flight readers keep the snapshot they already hold.
func (r *Registry[T]) Replace(ctx context.Context, build Loader[T]) (*T, error) {
	return r.do(ctx, r.name+"/replace", build, true)
}

// Swap publishes s directly.
func (r *Registry[T]) Swap(s *T) {
	r.current.Store(s)
}

// Current returns the loaded snapshot or nil.
func (r *Registry[T]) Current() *T {
	return r.current.Load()
}

// Loaded reports whether a snapshot is published.
func (r *Registry[T]) Loaded() bool {
	return r.current.Load() != nil
}

// Loads returns how many load executions have started.
func (r *Registry[T]) Loads() int64 {
	return r.loads.Load()
}

func (r *Registry[T]) do(ctx context.Context, key string, build Loader[T], replace bool) (*T, error) {
	ch := r.group.DoChan(key, func() (any, error) {
		if !replace {
			if s := r.current.Load(); s != nil {
				return s, nil
			}
		}
		r.loads.Add(1)
		start := time.Now()
		s, err := build(context.WithoutCancel(ctx))
		if err != nil {
			r.log.Warn(ctx, "snapshot load failed",
				logger.String("registry", r.name),
				logger.Duration("took", time.Since(start)),
				logger.Error(err))
			return nil, err
		}
		r.current.Store(s)
		r.log.Info(ctx, "snapshot published",
			logger.String("registry", r.name),
			logger.Bool("replace", replace),
			logger.Duration("took", time.Since(start)))
		return s, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*T), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
