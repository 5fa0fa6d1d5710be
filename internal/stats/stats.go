// Package stats rebuilds the denormalized user statistics summary.
//
// The summary is derived entirely from the users and notes collections, so
// reconciliation is a full recompute followed by an upsert-replace of the
// single summary record. Running it twice with no intervening writes yields
// identical summaries.
//
// Triggered synchronously after note creation, note deletion, user rename
// and user deletion. Deliberately NOT triggered after category operations or
// note edits: an edit never changes which user owns the note, so the counts
// cannot drift.
package stats

import (
	"context"
	"fmt"

	"github.com/kuitang/notes-admin/internal/store"
)

// Reconciler recomputes the user→note-count summary.
type Reconciler struct {
	store store.Store
}

// New creates a Reconciler over the given store.
func New(st store.Store) *Reconciler {
	return &Reconciler{store: st}
}

// Reconcile recomputes the full summary and replaces the stored one.
// Callers await completion before finishing the triggering request.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	counts, err := r.store.AggregateUserNoteCounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to aggregate note counts: %w", err)
	}
	if err := r.store.ReplaceSummary(ctx, store.Summary{UserStatistics: counts}); err != nil {
		return fmt.Errorf("failed to replace summary: %w", err)
	}
	return nil
}

// Snapshot recomputes the mapping without persisting it. The index page
// renders a fresh aggregation rather than the stored record.
func (r *Reconciler) Snapshot(ctx context.Context) ([]store.UserNoteCount, error) {
	counts, err := r.store.AggregateUserNoteCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate note counts: %w", err)
	}
	return counts, nil
}

// Current returns the stored summary without recomputing it.
func (r *Reconciler) Current(ctx context.Context) (*store.Summary, error) {
	sum, err := r.store.GetSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}
	return sum, nil
}
