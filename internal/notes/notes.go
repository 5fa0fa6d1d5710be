// Package notes manages notes and their listing.
package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kuitang/notes-admin/internal/stats"
	"github.com/kuitang/notes-admin/internal/store"
)

// Service handles note CRUD and filtered listing. Creation and deletion
// rebuild the statistics summary; edits never do, because an edit cannot
// change which user owns the note.
type Service struct {
	store      store.Store
	reconciler *stats.Reconciler
}

// NewService creates a notes service.
func NewService(st store.Store, reconciler *stats.Reconciler) *Service {
	return &Service{store: st, reconciler: reconciler}
}

// CreateParams contains parameters for creating a note.
type CreateParams struct {
	UserID     string
	CategoryID string
	Content    string
}

// Create resolves both references, creates the note with the current display
// names cached on it, and rebuilds the summary. Either reference failing to
// resolve fails the operation before any write.
func (s *Service) Create(ctx context.Context, params CreateParams) (*store.Note, error) {
	user, err := s.store.GetUser(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	category, err := s.store.GetCategory(ctx, params.CategoryID)
	if err != nil {
		return nil, err
	}

	n := store.Note{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		UserName:     user.Name,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Content:      params.Content,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateNote(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	if err := s.reconciler.Reconcile(ctx); err != nil {
		return nil, err
	}
	return &n, nil
}

// Get retrieves a note by ID.
func (s *Service) Get(ctx context.Context, id string) (*store.Note, error) {
	return s.store.GetNote(ctx, id)
}

// List retrieves notes matching the filter in the requested order.
func (s *Service) List(ctx context.Context, filter store.NoteFilter, sort store.NoteSort) ([]store.Note, error) {
	return s.store.ListNotes(ctx, filter, sort)
}

// Edit updates a note's content and category in place. The new category must
// resolve before any write. The owning user fields are never re-resolved,
// and the summary is not rebuilt: the note count per user is unchanged.
func (s *Service) Edit(ctx context.Context, id, content, categoryID string) (*store.Note, error) {
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateNote(ctx, id, content, category.ID, category.Name); err != nil {
		return nil, err
	}
	return s.store.GetNote(ctx, id)
}

// Delete removes a note and rebuilds the summary.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteNote(ctx, id); err != nil {
		return err
	}
	return s.reconciler.Reconcile(ctx)
}
