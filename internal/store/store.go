// Package store defines the data-access contract the admin services consume.
// Two backends implement it: the default SQLite store (internal/store/sqlite)
// and the SurrealDB document store (internal/store/surreal).
package store

import "context"

// Store is the persistence contract. Lookups of absent records return an
// error carrying errs.NotFound rather than a nil record, so callers resolve
// references explicitly before dereferencing them.
//
// Multi-record updates and deletes return the number of records touched.
// No method spans collections transactionally; callers sequence their own
// cascades.
type Store interface {
	CreateUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id, name, email string) error
	DeleteUser(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, c Category) error
	GetCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, id, name string) error
	DeleteCategory(ctx context.Context, id string) error

	CreateNote(ctx context.Context, n Note) error
	GetNote(ctx context.Context, id string) (*Note, error)
	ListNotes(ctx context.Context, filter NoteFilter, sort NoteSort) ([]Note, error)
	UpdateNote(ctx context.Context, id, content, categoryID, categoryName string) error
	UpdateNotesByUser(ctx context.Context, userID, userName string) (int64, error)
	UpdateNotesByCategory(ctx context.Context, categoryID, categoryName string) (int64, error)
	DeleteNote(ctx context.Context, id string) error
	DeleteNotesByUser(ctx context.Context, userID string) (int64, error)
	DeleteNotesByCategory(ctx context.Context, categoryID string) (int64, error)

	// AggregateUserNoteCounts joins users against notes grouped by owner,
	// preserving every user row (zero counts included). Rows are ordered by
	// user name then user id so repeated aggregations are byte-stable.
	AggregateUserNoteCounts(ctx context.Context) ([]UserNoteCount, error)

	// ReplaceSummary upserts the single statistics record, replacing any
	// prior value.
	ReplaceSummary(ctx context.Context, s Summary) error

	// GetSummary returns the current statistics record, or an empty summary
	// when none has been written yet.
	GetSummary(ctx context.Context) (*Summary, error)

	Close() error
}
