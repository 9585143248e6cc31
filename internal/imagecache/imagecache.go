// Package imagecache decodes page images in the background and caches
// them by source key. Concurrent requests for the same key share one
// decode; failed entries stay failed so a broken page never blocks the
// rest of the book.
package imagecache

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"sync"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Status reports the state of a cache entry.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

// OpenFunc opens the raw bytes behind a key.
type OpenFunc func(name string) (io.ReadCloser, error)

type entry struct {
	done chan struct{}
	img  image.Image
	err  error
}

// Cache is a keyed single-flight image decoder. The zero value is not
// usable; construct with New.
type Cache struct {
	open   OpenFunc
	onLoad func(key string)

	mu      sync.Mutex
	entries map[string]*entry
}

// Option modifies a Cache during creation.
type Option func(*Cache)

// WithLoadListener registers a callback fired after a decode settles,
// successfully or not. Viewers hook their frame request here.
func WithLoadListener(fn func(key string)) Option {
	return func(c *Cache) { c.onLoad = fn }
}

// New creates a cache that resolves keys through open.
func New(open OpenFunc, opts ...Option) *Cache {
	c := &Cache{open: open, entries: make(map[string]*entry)}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the decoded image for key without blocking. The first
// request starts the decode; until it settles the status is loading.
func (c *Cache) Get(key string) (image.Image, Status) {
	e := c.ensure(key)
	select {
	case <-e.done:
		if e.err != nil {
			return nil, StatusFailed
		}
		return e.img, StatusReady
	default:
		return nil, StatusLoading
	}
}

// Wait blocks until the decode for key settles or ctx is done.
func (c *Cache) Wait(ctx context.Context, key string) (image.Image, error) {
	e := c.ensure(key)
	select {
	case <-e.done:
		return e.img, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len reports the number of entries, settled or in flight.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) ensure(key string) *entry {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{done: make(chan struct{})}
		c.entries[key] = e
		go c.load(key, e)
	}
	c.mu.Unlock()
	return e
}

func (c *Cache) load(key string, e *entry) {
	img, err := c.decode(key)
	e.img, e.err = img, err
	close(e.done)
	if err != nil {
		log.Printf("imagecache: %v", err)
	}
	if c.onLoad != nil {
		c.onLoad(key)
	}
}

func (c *Cache) decode(key string) (image.Image, error) {
	r, err := c.open(key)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	defer r.Close()
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return img, nil
}
