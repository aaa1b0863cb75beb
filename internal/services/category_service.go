package services

import (
	"context"
	"fmt"
	"time"

	"accountbook/internal/cache"
	"accountbook/internal/core"
	"accountbook/internal/storage"

	"github.com/google/uuid"
)

// CategoryService handles category CRUD. Listings are cached per family;
// every mutation invalidates the family's entry.
type CategoryService struct {
	repo  *storage.Repository
	cache *cache.LRU[[]core.Category]
}

func NewCategoryService(repo *storage.Repository) *CategoryService {
	return &CategoryService{
		repo:  repo,
		cache: cache.NewLRU[[]core.Category](256, 5*time.Minute),
	}
}

// ListCache exposes the cache for cleanup registration.
func (s *CategoryService) ListCache() *cache.LRU[[]core.Category] {
	return s.cache
}

func (s *CategoryService) CreateCategory(ctx context.Context, actor uuid.UUID, c *core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, err := requireActiveMember(ctx, s.repo, c.FamilyUUID, actor); err != nil {
		return err
	}

	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return fmt.Errorf("create category: %w", err)
	}

	s.cache.Delete(c.FamilyUUID.String())
	return nil
}

func (s *CategoryService) ListCategories(ctx context.Context, actor, familyUUID uuid.UUID) ([]core.Category, error) {
	if _, err := requireActiveMember(ctx, s.repo, familyUUID, actor); err != nil {
		return nil, err
	}

	key := familyUUID.String()
	if categories, ok := s.cache.Get(key); ok {
		return categories, nil
	}

	categories, err := s.repo.ListCategories(ctx, familyUUID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	s.cache.Set(key, categories)
	return categories, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, actor uuid.UUID, c *core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.FindActiveCategory(ctx, c.UUID)
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}
	if existing == nil {
		return core.ErrNotFound
	}
	if _, err := requireActiveMember(ctx, s.repo, existing.FamilyUUID, actor); err != nil {
		return err
	}

	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return fmt.Errorf("update category: %w", err)
	}

	s.cache.Delete(existing.FamilyUUID.String())
	return nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, actor, categoryUUID uuid.UUID) error {
	existing, err := s.repo.FindActiveCategory(ctx, categoryUUID)
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}
	if existing == nil {
		return core.ErrNotFound
	}
	if _, err := requireActiveMember(ctx, s.repo, existing.FamilyUUID, actor); err != nil {
		return err
	}

	if err := s.repo.SoftDeleteCategory(ctx, categoryUUID); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.cache.Delete(existing.FamilyUUID.String())
	return nil
}
