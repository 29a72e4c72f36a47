package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/contestboard/internal/domain/sheet"
	"github.com/okian/contestboard/pkg/logger"
	"github.com/okian/contestboard/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Document is one fetched and parsed copy of the source sheet.
type Document struct {
	ID        string
	URL       string
	FetchedAt time.Time
	Table     sheet.Table
}

// CacheOption applies a configuration option to the Cache.
type CacheOption func(*Cache)

// WithTTL sets how long a fetched document is served before refetching.
// Zero keeps documents until Invalidate is called.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl >= 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets a custom logger for the cache.
func WithLogger(l logger.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Cache memoizes parsed documents per URL. Concurrent callers asking for the
// same URL share a single in-flight fetch and all observe its result. A failed
// fetch is never memoized, so the next call retries.
type Cache struct {
	fetcher Fetcher
	group   singleflight.Group

	mu   sync.RWMutex
	docs map[string]Document
	gens map[string]uint64

	ttl    time.Duration
	now    func() time.Time
	logger logger.Logger
}

// NewCache creates a cache in front of fetcher.
func NewCache(fetcher Fetcher, opts ...CacheOption) *Cache {
	c := &Cache{
		fetcher: fetcher,
		docs:    make(map[string]Document),
		gens:    make(map[string]uint64),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Named("source")
	}
	return c
}

// GetOrFetch returns the memoized document for url, fetching and parsing it
// when absent or expired. ctx only bounds the caller's wait; the shared fetch
// itself is bounded by the fetcher's own timeout.
func (c *Cache) GetOrFetch(ctx context.Context, url string) (Document, error) {
	if doc, ok := c.lookup(url); ok {
		metrics.RecordCacheHit()
		return doc, nil
	}
	metrics.RecordCacheMiss()

	ch := c.group.DoChan(url, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), url, c.generation(url))
	})
	select {
	case <-ctx.Done():
		return Document{}, fmt.Errorf("wait for source: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Document{}, res.Err
		}
		doc, _ := res.Val.(Document)
		return doc, nil
	}
}

// Invalidate drops the memoized document for url. A fetch already in flight
// is detached so the next GetOrFetch starts a new one, and its result is
// never stored.
func (c *Cache) Invalidate(url string) {
	c.mu.Lock()
	delete(c.docs, url)
	c.gens[url]++
	c.mu.Unlock()
	c.group.Forget(url)
}

func (c *Cache) generation(url string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[url]
}

// Peek returns the memoized document without fetching.
func (c *Cache) Peek(url string) (Document, bool) {
	return c.lookup(url)
}

func (c *Cache) lookup(url string) (Document, bool) {
	c.mu.RLock()
	doc, ok := c.docs[url]
	c.mu.RUnlock()
	if !ok {
		return Document{}, false
	}
	if c.ttl > 0 && c.now().Sub(doc.FetchedAt) >= c.ttl {
		return Document{}, false
	}
	return doc, true
}

// load fetches url and stores the result unless the url was invalidated
// after gen was read.
func (c *Cache) load(ctx context.Context, url string, gen uint64) (Document, error) {
	start := time.Now()
	text, err := c.fetcher.Fetch(ctx, url)
	durationMs := float64(time.Since(start).Milliseconds())
	metrics.RecordSourceFetch(durationMs, err == nil)
	if err != nil {
		c.mu.Lock()
		if c.gens[url] == gen {
			delete(c.docs, url)
		}
		c.mu.Unlock()
		c.logger.Error(ctx, "source fetch failed", logger.String("url", url), logger.Error(err))
		return Document{}, err
	}

	doc := Document{
		ID:        uuid.NewString(),
		URL:       url,
		FetchedAt: c.now(),
		Table:     sheet.ParseTable(text),
	}
	c.mu.Lock()
	stale := c.gens[url] != gen
	if !stale {
		c.docs[url] = doc
	}
	c.mu.Unlock()
	if stale {
		c.logger.Debug(ctx, "discarding document fetched before invalidation",
			logger.String("url", url), logger.String("snapshot", doc.ID))
		return doc, nil
	}

	metrics.UpdateRecordsLoaded(len(doc.Table.Records))
	c.logger.Info(ctx, "source document loaded",
		logger.String("url", url),
		logger.String("snapshot", doc.ID),
		logger.Int("records", len(doc.Table.Records)),
		logger.Float64("durationMs", durationMs),
	)
	return doc, nil
}
