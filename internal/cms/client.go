package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

const defaultCacheTTL = 5 * time.Minute

// Fetch results reported to the Observer.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Observer receives fetch and cache outcomes, typically for metrics.
type Observer interface {
	ObserveFetch(document, source, result string)
	ObserveCache(document string, hit bool)
}

type nopObserver struct{}

func (nopObserver) ObserveFetch(string, string, string) {}
func (nopObserver) ObserveCache(string, bool)           {}

var extensions = []string{".json", ".yml", ".yaml"}

// Client loads CMS documents from an ordered list of sources, caching decoded
// documents for a TTL. Concurrent loads of the same document share one fetch.
type Client struct {
	sources  []Source
	ttl      time.Duration
	logger   *zap.Logger
	observer Observer
	now      func() time.Time

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	doc     any
	expires time.Time
}

// Option customises the Client.
type Option func(*Client)

// WithFallback appends a source consulted when earlier ones miss or fail.
func WithFallback(src Source) Option {
	return func(c *Client) {
		if src != nil {
			c.sources = append(c.sources, src)
		}
	}
}

// WithCacheTTL overrides the document cache duration. Zero disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.ttl = d
		}
	}
}

// WithLogger sets the logger used for source failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver reports fetch and cache outcomes.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(c *Client) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewClient constructs a Client reading from primary first.
func NewClient(primary Source, opts ...Option) *Client {
	c := &Client{
		ttl:      defaultCacheTTL,
		logger:   zap.NewNop(),
		observer: nopObserver{},
		now:      time.Now,
		cache:    map[string]cacheEntry{},
	}
	if primary != nil {
		c.sources = append(c.sources, primary)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Document returns the decoded document called name (without extension),
// trying ".json", ".yml" and ".yaml" in every source. The returned value is
// shared with the cache and must not be modified.
func (c *Client) Document(ctx context.Context, name string) (any, error) {
	name = strings.TrimSpace(name)
	if doc, ok := c.cached(name); ok {
		c.observer.ObserveCache(name, true)
		return doc, nil
	}
	c.observer.ObserveCache(name, false)

	v, err, _ := c.group.Do(name, func() (any, error) {
		doc, err := c.load(ctx, name)
		if err != nil {
			return nil, err
		}
		c.store(name, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Decode loads the document called name into out.
func (c *Client) Decode(ctx context.Context, name string, out any) error {
	doc, err := c.Document(ctx, name)
	if err != nil {
		return err
	}
	return convert(doc, out)
}

// Invalidate drops every cached document.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.cache = map[string]cacheEntry{}
	c.mu.Unlock()
}

func (c *Client) load(ctx context.Context, name string) (any, error) {
	var lastErr error
	for _, src := range c.sources {
		doc, err := c.loadFrom(ctx, src, name)
		if err == nil {
			return doc, nil
		}
		if errors.Is(err, ErrNotFound) {
			c.observer.ObserveFetch(name, src.Name(), ResultNotFound)
			continue
		}
		c.observer.ObserveFetch(name, src.Name(), ResultError)
		c.logger.Warn("cms source failed",
			zap.String("document", name),
			zap.String("source", src.Name()),
			zap.Error(err),
		)
		lastErr = err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("cms: load %s: %w", name, lastErr)
	}
	return nil, ErrNotFound
}

func (c *Client) loadFrom(ctx context.Context, src Source, name string) (any, error) {
	for _, ext := range extensions {
		data, err := src.Fetch(ctx, name+ext)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		doc, err := parse(data, ext)
		if err != nil {
			return nil, fmt.Errorf("cms: parse %s%s: %w", name, ext, err)
		}
		c.observer.ObserveFetch(name, src.Name(), ResultOK)
		return doc, nil
	}
	return nil, ErrNotFound
}

func parse(data []byte, ext string) (any, error) {
	var doc any
	if ext == ".json" {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// convert re-encodes a generic document into a typed value.
func convert(doc any, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (c *Client) cached(name string) (any, bool) {
	if c.ttl == 0 {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.cache[name]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		return nil, false
	}
	return entry.doc, true
}

func (c *Client) store(name string, doc any) {
	if c.ttl == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[name] = cacheEntry{doc: doc, expires: c.now().Add(c.ttl)}
}
