// Package cache provides in-memory caches in front of the user store.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/auth"
	"github.com/abbakari/works/internal/domain/notifications"
)

// UserSource is the subset of the user store the directory reads.
type UserSource interface {
	GetByID(ctx context.Context, userID id.ID) (*auth.User, error)
	DirectReports(ctx context.Context, managerID id.ID) ([]id.ID, error)
}

// Directory caches users and who reports to whom. Entries expire after
// the TTL and are dropped on Forget, so changes made through the auth
// service are visible immediately.
type Directory struct {
	source  UserSource
	users   *lru.LRU[id.ID, auth.User]
	reports *lru.LRU[id.ID, []id.ID]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewDirectory creates a Directory holding up to size users.
// size <= 0 disables caching.
func NewDirectory(source UserSource, size int, ttl time.Duration) *Directory {
	if size <= 0 {
		size = 1
		ttl = time.Nanosecond
	}
	return &Directory{
		source:  source,
		users:   lru.NewLRU[id.ID, auth.User](size, nil, ttl),
		reports: lru.NewLRU[id.ID, []id.ID](size, nil, ttl),
	}
}

// DirectReports implements security.ReportsLookup.
func (d *Directory) DirectReports(ctx context.Context, managerID id.ID) ([]id.ID, error) {
	if ids, ok := d.reports.Get(managerID); ok {
		d.hits.Add(1)
		return ids, nil
	}
	d.misses.Add(1)

	ids, err := d.source.DirectReports(ctx, managerID)
	if err != nil {
		return nil, err
	}
	d.reports.Add(managerID, ids)
	return ids, nil
}

// ManagerOf implements notifications.Directory.
func (d *Directory) ManagerOf(ctx context.Context, userID id.ID) (*id.ID, error) {
	u, err := d.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.ManagerID, nil
}

// IsActiveUser implements notifications.Directory. Unknown users are inactive.
func (d *Directory) IsActiveUser(ctx context.Context, userID id.ID) (bool, error) {
	u, err := d.user(ctx, userID)
	if apperror.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsActive, nil
}

// User implements auth.SessionCache. Each caller gets its own copy.
func (d *Directory) User(ctx context.Context, userID id.ID) (*auth.User, error) {
	u, err := d.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (d *Directory) user(ctx context.Context, userID id.ID) (auth.User, error) {
	if u, ok := d.users.Get(userID); ok {
		d.hits.Add(1)
		return u, nil
	}
	d.misses.Add(1)

	u, err := d.source.GetByID(ctx, userID)
	if err != nil {
		return auth.User{}, err
	}
	d.users.Add(userID, *u)
	return *u, nil
}

// Forget implements auth.SessionCache. A changed user may have moved
// between managers, so every report list is dropped.
func (d *Directory) Forget(userID id.ID) {
	d.users.Remove(userID)
	d.reports.Purge()
}

// Stats returns cache hit and miss counters.
func (d *Directory) Stats() (hits, misses int64) {
	return d.hits.Load(), d.misses.Load()
}

var (
	_ security.ReportsLookup  = (*Directory)(nil)
	_ notifications.Directory = (*Directory)(nil)
	_ auth.SessionCache       = (*Directory)(nil)
)
