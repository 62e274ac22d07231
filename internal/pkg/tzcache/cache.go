package tzcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
)

// Loader returns the IANA timezone name configured for a company.
type Loader func(ctx context.Context, companyID string) (string, error)

// Zone is a resolved company timezone.
type Zone struct {
	Name     string
	Location *time.Location
}

type entry struct {
	zone      Zone
	expiresAt time.Time
}

// Cache keeps resolved company timezones for a fixed TTL. It is owned by
// whoever constructs it; there is no package level instance.
type Cache struct {
	loader   Loader
	ttl      time.Duration
	now      func() time.Time
	fallback string

	mu      sync.RWMutex
	entries map[string]entry
}

type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithFallback sets the zone used when the loader returns an empty name.
func WithFallback(timezone string) Option {
	return func(c *Cache) {
		c.fallback = timezone
	}
}

func New(loader Loader, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		loader:  loader,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached zone for a company, loading it when missing or expired.
func (c *Cache) Get(ctx context.Context, companyID string) (Zone, error) {
	c.mu.RLock()
	e, ok := c.entries[companyID]
	c.mu.RUnlock()

	if ok && c.now().Before(e.expiresAt) {
		return e.zone, nil
	}
	return c.Refresh(ctx, companyID)
}

// Refresh reloads a company's zone regardless of the cached state.
func (c *Cache) Refresh(ctx context.Context, companyID string) (Zone, error) {
	name, err := c.loader(ctx, companyID)
	if err != nil {
		return Zone{}, fmt.Errorf("failed to load timezone for company %s: %w", companyID, err)
	}
	if name == "" {
		name = c.fallback
	}
	if name == "" {
		return Zone{}, fmt.Errorf("%w: company %s has no timezone", attendance.ErrInvalidTimezone, companyID)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return Zone{}, fmt.Errorf("%w %q: %v", attendance.ErrInvalidTimezone, name, err)
	}

	zone := Zone{Name: name, Location: loc}
	c.mu.Lock()
	c.entries[companyID] = entry{zone: zone, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()

	return zone, nil
}

// Invalidate drops a single company from the cache.
func (c *Cache) Invalidate(companyID string) {
	c.mu.Lock()
	delete(c.entries, companyID)
	c.mu.Unlock()
}

func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of cached companies, expired entries included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
