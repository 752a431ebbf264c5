package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheCapacity is the default number of catalogs to cache.
const DefaultCacheCapacity = 64

// Loader supplies catalogs from some backing source: a manifest directory, a
// database, an object store. Implementations return ErrNotFound (possibly
// wrapped) for unknown names.
type Loader interface {
	Load(ctx context.Context, name string) (*Catalog, error)

	// Names lists every catalog the loader can supply.
	Names(ctx context.Context) ([]string, error)
}

// Registration records one catalog known to a registry.
type Registration struct {
	ID           string // instance UUID, assigned at first load
	Name         string
	Kind         Kind
	Partitions   int
	TotalRows    int64
	RegisteredAt time.Time
}

// Registry provides catalog lookup with caching. The cache is injected so
// callers control its lifetime and capacity; the core stays stateless.
type Registry struct {
	loader Loader
	cache  *LRUCache

	mu  sync.Mutex
	ids map[string]string // name → instance UUID
}

// NewRegistry creates a registry with the default cache capacity.
func NewRegistry(loader Loader) *Registry {
	return NewRegistryWithCache(loader, NewLRUCache(DefaultCacheCapacity))
}

// NewRegistryWithCache creates a registry around a caller-owned cache.
func NewRegistryWithCache(loader Loader, cache *LRUCache) *Registry {
	return &Registry{
		loader: loader,
		cache:  cache,
		ids:    make(map[string]string),
	}
}

// Get returns the named catalog, from cache when possible.
func (r *Registry) Get(ctx context.Context, name string) (*Catalog, error) {
	if cached := r.cache.Get(name); cached != nil {
		return cached, nil
	}

	cat, err := r.loader.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("loaded catalog %q is invalid: %w", name, err)
	}

	r.cache.Put(cat)
	slog.Info("[Registry] Catalog loaded",
		"catalog", name,
		"kind", cat.Kind,
		"partitions", cat.Tree.Len(),
		"rows", cat.Tree.TotalRows(),
	)
	return cat, nil
}

// Describe returns the registration record for one catalog, loading it if
// needed.
func (r *Registry) Describe(ctx context.Context, name string) (Registration, error) {
	cat, err := r.Get(ctx, name)
	if err != nil {
		return Registration{}, err
	}

	r.mu.Lock()
	id, ok := r.ids[name]
	if !ok {
		id = uuid.NewString()
		r.ids[name] = id
	}
	r.mu.Unlock()

	return Registration{
		ID:           id,
		Name:         cat.Name,
		Kind:         cat.Kind,
		Partitions:   cat.Tree.Len(),
		TotalRows:    cat.Tree.TotalRows(),
		RegisteredAt: cat.LoadedAt,
	}, nil
}

// List describes every catalog the loader knows, sorted by name.
func (r *Registry) List(ctx context.Context) ([]Registration, error) {
	names, err := r.loader.Names(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]Registration, 0, len(names))
	for _, name := range names {
		reg, err := r.Describe(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("describe %q: %w", name, err)
		}
		out = append(out, reg)
	}
	return out, nil
}

// Invalidate drops the cached copy of one catalog, forcing the next Get to
// reload from the backing source.
func (r *Registry) Invalidate(name string) {
	r.cache.Invalidate(name)
	slog.Info("[Registry] Catalog invalidated", "catalog", name)
}

// Collection is a main catalog together with its companion catalogs (margin
// caches, association tables) that get queried as a unit.
type Collection struct {
	Main       *Catalog
	Companions map[string]*Catalog
}

// LoadCollection fetches the main catalog and all companions concurrently.
// Loads are independent pure reads, so they fan out on an errgroup with no
// shared mutable state.
func (r *Registry) LoadCollection(ctx context.Context, main string, companions []string) (*Collection, error) {
	col := &Collection{Companions: make(map[string]*Catalog, len(companions))}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cat, err := r.Get(ctx, main)
		if err != nil {
			return fmt.Errorf("load main catalog %q: %w", main, err)
		}
		col.Main = cat
		return nil
	})
	for _, name := range companions {
		name := name
		g.Go(func() error {
			cat, err := r.Get(ctx, name)
			if err != nil {
				return fmt.Errorf("load companion catalog %q: %w", name, err)
			}
			mu.Lock()
			col.Companions[name] = cat
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// A margin companion must actually belong to the main catalog.
	for name, cat := range col.Companions {
		if cat.Kind == KindMargin && cat.PrimaryCatalog != main {
			return nil, fmt.Errorf("margin catalog %q was built for %q, not %q",
				name, cat.PrimaryCatalog, main)
		}
	}
	return col, nil
}
