package sqlite

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrConnectorClosed is returned by Acquire after Close.
var ErrConnectorClosed = errors.New("sqlite: connector closed")

// OpenFunc opens and migrates a database.
type OpenFunc func(ctx context.Context) (*DB, error)

// Connector hands out one shared *DB, opening it lazily.
//
// Concurrent first calls to Acquire share a single open attempt through a
// singleflight.Group. A successful handle is cached for every later caller.
// A failed attempt is not cached, so the next Acquire tries again.
type Connector struct {
	open  OpenFunc
	group singleflight.Group

	mu     sync.Mutex
	db     *DB
	closed bool
}

// NewConnector returns a Connector that opens dbPath with New.
func NewConnector(dbPath string) *Connector {
	return NewConnectorFunc(func(ctx context.Context) (*DB, error) {
		return New(ctx, dbPath)
	})
}

// NewConnectorFunc returns a Connector around a custom opener.
func NewConnectorFunc(open OpenFunc) *Connector {
	return &Connector{open: open}
}

// Acquire returns the shared handle, opening it on first use.
func (c *Connector) Acquire(ctx context.Context) (*DB, error) {
	if db, err := c.cached(); db != nil || err != nil {
		return db, err
	}

	v, err, _ := c.group.Do("open", func() (any, error) {
		if db, err := c.cached(); db != nil || err != nil {
			return db, err
		}

		// The attempt is shared, so one caller's cancellation must not
		// fail everyone else waiting on it.
		db, err := c.open(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			_ = db.Close()
			return nil, ErrConnectorClosed
		}
		c.db = db
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*DB), nil
}

// Close releases the cached handle. Later Acquire calls fail.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *Connector) cached() (*DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrConnectorClosed
	}
	return c.db, nil
}
