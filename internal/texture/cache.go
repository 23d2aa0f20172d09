package texture

import (
	"context"
	"image"
	"path/filepath"
	"sync"
)

// Loader resolves an image reference to decoded pixels.
type Loader interface {
	Load(ctx context.Context, ref string) (*image.NRGBA, error)
}

// Cache is a concurrency-safe Loader that decodes each resolved file once.
// Returned images are shared and must not be modified.
type Cache struct {
	store *store
	index *Index
}

type store struct {
	mu    sync.RWMutex
	items map[string]*image.NRGBA // resolved path -> image
}

var _ Loader = (*Cache)(nil)

// NewCache creates a cache that resolves references through index.
func NewCache(index *Index) *Cache {
	return &Cache{
		store: &store{items: make(map[string]*image.NRGBA)},
		index: index,
	}
}

// Index returns the index references are resolved through.
func (c *Cache) Index() *Index { return c.index }

// WithDir returns a cache sharing the receiver's decoded images whose index
// searches dir first.
func (c *Cache) WithDir(dir string) *Cache {
	return &Cache{store: c.store, index: c.index.WithDir(dir)}
}

// Load resolves ref and returns its decoded image. Failed loads are not
// cached.
func (c *Cache) Load(ctx context.Context, ref string) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := c.index.Resolve(ref)
	if err != nil {
		return nil, err
	}

	c.store.mu.RLock()
	img, ok := c.store.items[path]
	c.store.mu.RUnlock()
	if ok {
		return img, nil
	}

	img, err = LoadImage(path)
	if err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if existing, ok := c.store.items[path]; ok {
		return existing, nil
	}
	c.store.items[path] = img
	return img, nil
}

// Invalidate forgets the image decoded from path and the index's stem table.
func (c *Cache) Invalidate(path string) {
	c.store.mu.Lock()
	delete(c.store.items, filepath.Clean(path))
	c.store.mu.Unlock()
	c.index.Reset()
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return len(c.store.items)
}
