// Package users manages note authors.
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kuitang/notes-admin/internal/denorm"
	"github.com/kuitang/notes-admin/internal/errs"
	"github.com/kuitang/notes-admin/internal/stats"
	"github.com/kuitang/notes-admin/internal/store"
)

// Service handles user CRUD. A rename propagates the new display name onto
// the user's notes and rebuilds the statistics summary; a delete cascades to
// the user's notes before removing the user, then rebuilds the summary.
type Service struct {
	store      store.Store
	sync       *denorm.Synchronizer
	reconciler *stats.Reconciler
}

// NewService creates a user service.
func NewService(st store.Store, sync *denorm.Synchronizer, reconciler *stats.Reconciler) *Service {
	return &Service{store: st, sync: sync, reconciler: reconciler}
}

// CreateParams contains parameters for creating a user.
type CreateParams struct {
	Name  string
	Email string
}

// Create creates a new user. Creating a user changes the aggregate (it gains
// a zero-count row), but the original trigger list only reconciles on user
// edit and delete; the next triggering write picks the new user up.
func (s *Service) Create(ctx context.Context, params CreateParams) (*store.User, error) {
	if params.Name == "" {
		return nil, errs.New(errs.InvalidArgument, "user name is required")
	}

	u := store.User{
		ID:        uuid.New().String(),
		Name:      params.Name,
		Email:     params.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

// Get retrieves a user by ID.
func (s *Service) Get(ctx context.Context, id string) (*store.User, error) {
	return s.store.GetUser(ctx, id)
}

// List retrieves all users in insertion order.
func (s *Service) List(ctx context.Context) ([]store.User, error) {
	return s.store.ListUsers(ctx)
}

// Update renames a user, propagates the new name onto the user's notes and
// rebuilds the statistics summary. The three writes are sequential and not
// atomic; the cached names converge once propagation completes.
func (s *Service) Update(ctx context.Context, id, name, email string) (*store.User, error) {
	if name == "" {
		return nil, errs.New(errs.InvalidArgument, "user name is required")
	}

	if err := s.store.UpdateUser(ctx, id, name, email); err != nil {
		return nil, err
	}
	if err := s.sync.PropagateUserRename(ctx, id, name); err != nil {
		return nil, err
	}
	if err := s.reconciler.Reconcile(ctx); err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, id)
}

// Delete removes a user. The user's notes are deleted before the user record
// itself, then the summary is rebuilt.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.sync.CascadeUserDelete(ctx, id); err != nil {
		return err
	}
	return s.reconciler.Reconcile(ctx)
}
