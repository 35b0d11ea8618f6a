package database

import (
	"context"
	"database/sql"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
)

// Source hands out the shared connection pool.
type Source interface {
	DB(ctx context.Context) (*sql.DB, error)
}

// OpenFunc establishes a new pool.
type OpenFunc func(ctx context.Context) (*sql.DB, error)

// Provider owns the process-wide pool. It connects on first use; concurrent
// first callers share a single dial.
type Provider struct {
	open      OpenFunc
	onConnect []func(ctx context.Context, db *sql.DB) error

	mu    sync.RWMutex
	db    *sql.DB
	group singleflight.Group
}

// NewProvider returns a Provider that dials with open on first use. Each
// onConnect hook (e.g. migrations) runs once after a successful dial.
func NewProvider(open OpenFunc, onConnect ...func(ctx context.Context, db *sql.DB) error) *Provider {
	return &Provider{open: open, onConnect: onConnect}
}

// FromDB wraps an already open pool.
func FromDB(db *sql.DB) *Provider {
	return &Provider{db: db}
}

// DB returns the pool, connecting if necessary. Connection failures surface
// as apperr.ErrUnavailable.
func (p *Provider) DB(ctx context.Context) (*sql.DB, error) {
	p.mu.RLock()
	db := p.db
	p.mu.RUnlock()
	if db != nil {
		return db, nil
	}
	if p.open == nil {
		return nil, apperr.Unavailable("database is not configured", nil)
	}

	// The dial must outlive the request that happened to trigger it.
	dialCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan("connect", func() (any, error) {
		p.mu.RLock()
		existing := p.db
		p.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		db, err := p.open(dialCtx)
		if err != nil {
			return nil, err
		}
		for _, hook := range p.onConnect {
			if err := hook(dialCtx, db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}

		p.mu.Lock()
		p.db = db
		p.mu.Unlock()
		return db, nil
	})

	select {
	case <-ctx.Done():
		return nil, apperr.Unavailable("database connection timed out", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, apperr.Unavailable("database unavailable", res.Err)
		}
		return res.Val.(*sql.DB), nil
	}
}

// Close releases the pool if one was opened.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
