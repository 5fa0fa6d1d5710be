// Package denorm keeps the cached display names on notes consistent with
// their source records. Every resynchronization trigger in the system goes
// through the Synchronizer, so the full trigger surface is this type's
// method set rather than call-site discipline.
//
// None of these operations are atomic with the parent record's own write:
// a rename is visible on the user record before the notes catch up, and an
// interrupted cascade can leave a partial state. The synchronizer restores
// the invariant; it does not enforce it transactionally.
package denorm

import (
	"context"
	"fmt"

	"github.com/kuitang/notes-admin/internal/store"
)

// Synchronizer propagates renames onto referencing notes and runs delete
// cascades. It never touches the statistics summary; reconciliation is the
// caller's responsibility.
type Synchronizer struct {
	store store.Store
}

// New creates a Synchronizer over the given store.
func New(st store.Store) *Synchronizer {
	return &Synchronizer{store: st}
}

// PropagateUserRename updates the cached user_name on every note owned by
// userID. Notes of other users are untouched.
func (s *Synchronizer) PropagateUserRename(ctx context.Context, userID, newName string) error {
	if _, err := s.store.UpdateNotesByUser(ctx, userID, newName); err != nil {
		return fmt.Errorf("failed to propagate user rename: %w", err)
	}
	return nil
}

// PropagateCategoryRename updates the cached category_name on every note in
// categoryID.
func (s *Synchronizer) PropagateCategoryRename(ctx context.Context, categoryID, newName string) error {
	if _, err := s.store.UpdateNotesByCategory(ctx, categoryID, newName); err != nil {
		return fmt.Errorf("failed to propagate category rename: %w", err)
	}
	return nil
}

// CascadeUserDelete deletes every note owned by userID and then the user
// record itself. Notes go first: if the sequence is interrupted the store is
// left with a note-less user rather than orphaned notes.
func (s *Synchronizer) CascadeUserDelete(ctx context.Context, userID string) error {
	if _, err := s.store.DeleteNotesByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete notes for user: %w", err)
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// CascadeCategoryDelete deletes every note in categoryID and then the
// category record itself, in that order.
func (s *Synchronizer) CascadeCategoryDelete(ctx context.Context, categoryID string) error {
	if _, err := s.store.DeleteNotesByCategory(ctx, categoryID); err != nil {
		return fmt.Errorf("failed to delete notes for category: %w", err)
	}
	if err := s.store.DeleteCategory(ctx, categoryID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}
