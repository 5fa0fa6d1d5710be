// Package categories manages note categories.
//
// Category operations never touch the statistics summary: the summary only
// depends on user/note ownership, which no category write can change.
package categories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kuitang/notes-admin/internal/denorm"
	"github.com/kuitang/notes-admin/internal/errs"
	"github.com/kuitang/notes-admin/internal/store"
)

// Service handles category CRUD. A rename propagates the new display name
// onto referencing notes; a delete cascades to those notes first.
type Service struct {
	store store.Store
	sync  *denorm.Synchronizer
}

// NewService creates a category service.
func NewService(st store.Store, sync *denorm.Synchronizer) *Service {
	return &Service{store: st, sync: sync}
}

// Create creates a new category.
func (s *Service) Create(ctx context.Context, name string) (*store.Category, error) {
	if name == "" {
		return nil, errs.New(errs.InvalidArgument, "category name is required")
	}

	c := store.Category{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &c, nil
}

// Get retrieves a category by ID.
func (s *Service) Get(ctx context.Context, id string) (*store.Category, error) {
	return s.store.GetCategory(ctx, id)
}

// List retrieves all categories in insertion order.
func (s *Service) List(ctx context.Context) ([]store.Category, error) {
	return s.store.ListCategories(ctx)
}

// Update renames a category and propagates the new name onto its notes.
func (s *Service) Update(ctx context.Context, id, name string) (*store.Category, error) {
	if name == "" {
		return nil, errs.New(errs.InvalidArgument, "category name is required")
	}

	if err := s.store.UpdateCategory(ctx, id, name); err != nil {
		return nil, err
	}
	if err := s.sync.PropagateCategoryRename(ctx, id, name); err != nil {
		return nil, err
	}
	return s.store.GetCategory(ctx, id)
}

// Delete removes a category, deleting its notes first.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.sync.CascadeCategoryDelete(ctx, id)
}
