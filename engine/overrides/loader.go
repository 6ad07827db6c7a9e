package overrides

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
)

/**
 * @brief Image loader used for overrides. The set of loaders is closed:
 * only *KTX2Loader and *DevLoader implement it.
 */
type Loader interface {
	loader()
}

func (*KTX2Loader) loader() {}
func (*DevLoader) loader()  {}

func Load(l Loader, path string) (*metadata.ImageResult, error) {
	switch v := l.(type) {
	case *KTX2Loader:
		return v.Load(path)
	case *DevLoader:
		return v.Load(path)
	default:
		panic(fmt.Sprintf("overrides: unknown loader %T", l))
	}
}

func FreeLoaded(l Loader) {
	switch v := l.(type) {
	case *KTX2Loader:
		v.FreeLoaded()
	case *DevLoader:
		v.FreeLoaded()
	default:
		panic(fmt.Sprintf("overrides: unknown loader %T", l))
	}
}

func GetExtension(l Loader) string {
	switch l.(type) {
	case *KTX2Loader:
		return KTX2Extension
	case *DevLoader:
		return DevExtension
	default:
		panic(fmt.Sprintf("overrides: unknown loader %T", l))
	}
}

// Invalidate drops a cached result so the next Load reads the file again.
func Invalidate(l Loader, path string) {
	switch v := l.(type) {
	case *KTX2Loader:
		v.cache.invalidate(path)
	case *DevLoader:
		v.cache.invalidate(path)
	default:
		panic(fmt.Sprintf("overrides: unknown loader %T", l))
	}
}

// NewLoader returns the loader for a configuration name: "ktx2" or "png".
func NewLoader(name string) (Loader, error) {
	switch name {
	case "ktx2", "":
		return NewKTX2Loader(), nil
	case "png", "dev":
		return NewDevLoader(false), nil
	default:
		return nil, fmt.Errorf("unknown override loader %q", name)
	}
}

/**
 * @brief Results loaded since the last FreeLoaded, by absolute path.
 */
type resultCache struct {
	mu      sync.Mutex
	results map[string]*metadata.ImageResult
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func (c *resultCache) get(path string) (*metadata.ImageResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[cacheKey(path)]
	return r, ok
}

func (c *resultCache) put(path string, r *metadata.ImageResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = make(map[string]*metadata.ImageResult)
	}
	c.results[cacheKey(path)] = r
}

func (c *resultCache) invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.results, cacheKey(path))
}

func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = nil
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}
