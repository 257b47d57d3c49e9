package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/suguidance/guidance-go/internal/pkg/serr"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/store"
)

type CacheConfig struct {
	MaxItems int64
	TTL      time.Duration
}

// categoryCache is a read-through cache of categories by id. Every
// invalidation bumps gen, and a value read before the bump is never stored.
type categoryCache struct {
	c   *ristretto.Cache[int64, model.Category]
	ttl time.Duration

	mu  sync.Mutex
	gen uint64
}

func newCategoryCache(cfg CacheConfig) (*categoryCache, error) {
	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = 1024
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	c, err := ristretto.NewCache(&ristretto.Config[int64, model.Category]{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("new cache: %w", err)
	}

	return &categoryCache{c: c, ttl: ttl}, nil
}

func (c *categoryCache) get(id int64) (model.Category, bool) {
	return c.c.Get(id)
}

func (c *categoryCache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// set stores cat unless the cache was invalidated since gen was taken.
func (c *categoryCache) set(cat model.Category, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.c.SetWithTTL(cat.ID, cat, 1, c.ttl)
}

func (c *categoryCache) del(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.c.Del(id)
}

// Categories manages tutoring categories.
type Categories struct {
	store store.Store
	cache *categoryCache
}

func NewCategories(st store.Store, cfg CacheConfig) (*Categories, error) {
	cache, err := newCategoryCache(cfg)
	if err != nil {
		return nil, err
	}

	return &Categories{store: st, cache: cache}, nil
}

func (s *Categories) Get(ctx context.Context, id int64) (model.Category, error) {
	if c, ok := s.cache.get(id); ok {
		return c, nil
	}

	gen := s.cache.generation()
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return model.Category{}, notFoundOr(err, "get category", "Category %d not found", id)
	}
	s.cache.set(c, gen)

	return c, nil
}

func (s *Categories) List(ctx context.Context, params url.Values) (query.Page[model.Category], error) {
	spec, err := parseSpec(query.Categories, params)
	if err != nil {
		return query.Page[model.Category]{}, err
	}

	page, err := s.store.ListCategories(ctx, spec)
	if err != nil {
		return page, fmt.Errorf("list categories: %w", err)
	}
	return page, nil
}

type CategoryRequest struct {
	Name   string `json:"name"`
	Locked bool   `json:"locked"`
}

func (r CategoryRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return serr.BadRequest(nil, "Category name is required")
	}
	return nil
}

func (s *Categories) Create(ctx context.Context, r CategoryRequest) (model.Category, error) {
	if err := r.validate(); err != nil {
		return model.Category{}, err
	}

	c, err := s.store.CreateCategory(ctx, model.Category{Name: r.Name, Locked: r.Locked})
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			return model.Category{}, serr.Conflict(err, "Category %s already exists", r.Name)
		}
		return model.Category{}, fmt.Errorf("create category: %w", err)
	}

	return c, nil
}

func (s *Categories) Update(ctx context.Context, id int64, r CategoryRequest) (model.Category, error) {
	if err := r.validate(); err != nil {
		return model.Category{}, err
	}

	s.cache.del(id)
	c, err := s.store.UpdateCategory(ctx, model.Category{ID: id, Name: r.Name, Locked: r.Locked})
	s.cache.del(id)
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			return model.Category{}, serr.Conflict(err, "Category %s already exists", r.Name)
		}
		return model.Category{}, notFoundOr(err, "update category", "Category %d not found", id)
	}

	return c, nil
}

func (s *Categories) Delete(ctx context.Context, id int64) error {
	s.cache.del(id)
	err := s.store.DeleteCategory(ctx, id)
	s.cache.del(id)
	if err != nil {
		if errors.Is(err, store.ErrReference) {
			return serr.Conflict(err, "Category %d is in use", id)
		}
		return notFoundOr(err, "delete category", "Category %d not found", id)
	}
	return nil
}

func (s *Categories) Close() {
	s.cache.c.Close()
}
