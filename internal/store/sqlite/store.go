// Package sqlite is the default store backend. It keeps the four collections
// in a single SQLite file and serves the user/note aggregation with a
// left-preserving join.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kuitang/notes-admin/internal/errs"
	"github.com/kuitang/notes-admin/internal/store"
)

const (
	// DefaultDBName is the filename for the admin database.
	DefaultDBName = "admin.db"

	// MaxOpenConns is kept low; SQLite is single-writer.
	MaxOpenConns = 10

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns = 2
)

// Store implements store.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the admin database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DefaultDBName)
	dsn := appendParams(dbPath, commonParams())

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "failed to open admin database", err)
	}

	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.Unavailable, "failed to ping admin database", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// NewFromSQL wraps an existing sql.DB. The caller owns schema initialization.
func NewFromSQL(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, u store.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.CreatedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*store.User, error) {
	var u store.User
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errs.New(errs.NotFound, "user not found: "+id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]store.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, created_at FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []store.User
	for rows.Next() {
		var u store.User
		var createdAt int64
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.CreatedAt = time.Unix(createdAt, 0).UTC()
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, id, name, email string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ? WHERE id = ?`, name, email, id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireRow(res, "user not found: "+id)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireRow(res, "user not found: "+id)
}

// Categories

func (s *Store) CreateCategory(ctx context.Context, c store.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)`,
		c.ID, c.Name, c.CreatedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (*store.Category, error) {
	var c store.Category
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, errs.New(errs.NotFound, "category not found: "+id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]store.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM categories ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []store.Category
	for rows.Next() {
		var c store.Category
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.CreatedAt = time.Unix(createdAt, 0).UTC()
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id, name string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return requireRow(res, "category not found: "+id)
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireRow(res, "category not found: "+id)
}

// Notes

func (s *Store) CreateNote(ctx context.Context, n store.Note) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, user_id, user_name, category_id, category_name, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.UserName, n.CategoryID, n.CategoryName, n.Content, n.CreatedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (s *Store) GetNote(ctx context.Context, id string) (*store.Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, user_name, category_id, category_name, content, created_at
		 FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, errs.New(errs.NotFound, "note not found: "+id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

func (s *Store) ListNotes(ctx context.Context, filter store.NoteFilter, sort store.NoteSort) ([]store.Note, error) {
	query := `SELECT id, user_id, user_name, category_id, category_name, content, created_at FROM notes`
	var args []any
	var conds []string
	if filter.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.CategoryID != "" {
		conds = append(conds, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	switch sort {
	case store.SortByUserName:
		query += " ORDER BY user_name ASC, created_at, id"
	case store.SortByCategoryName:
		query += " ORDER BY category_name ASC, created_at, id"
	default:
		query += " ORDER BY created_at, id"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []store.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}
	return notes, nil
}

func (s *Store) UpdateNote(ctx context.Context, id, content, categoryID, categoryName string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET content = ?, category_id = ?, category_name = ? WHERE id = ?`,
		content, categoryID, categoryName, id)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return requireRow(res, "note not found: "+id)
}

func (s *Store) UpdateNotesByUser(ctx context.Context, userID, userName string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET user_name = ? WHERE user_id = ?`, userName, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to update notes by user: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) UpdateNotesByCategory(ctx context.Context, categoryID, categoryName string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET category_name = ? WHERE category_id = ?`, categoryName, categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to update notes by category: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return requireRow(res, "note not found: "+id)
}

func (s *Store) DeleteNotesByUser(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notes by user: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) DeleteNotesByCategory(ctx context.Context, categoryID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE category_id = ?`, categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notes by category: %w", err)
	}
	return res.RowsAffected()
}

// Aggregation and summary

func (s *Store) AggregateUserNoteCounts(ctx context.Context) ([]store.UserNoteCount, error) {
	// Left join keeps users with zero notes in the result.
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.name, COUNT(n.id)
		FROM users u
		LEFT JOIN notes n ON n.user_id = u.id
		GROUP BY u.id, u.name
		ORDER BY u.name, u.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate note counts: %w", err)
	}
	defer rows.Close()

	var counts []store.UserNoteCount
	for rows.Next() {
		var c store.UserNoteCount
		if err := rows.Scan(&c.UserID, &c.UserName, &c.NotesCount); err != nil {
			return nil, fmt.Errorf("failed to scan note count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating note counts: %w", err)
	}
	return counts, nil
}

func (s *Store) ReplaceSummary(ctx context.Context, sum store.Summary) error {
	payload, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO statistics (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, string(payload), time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to replace summary: %w", err)
	}
	return nil
}

func (s *Store) GetSummary(ctx context.Context) (*store.Summary, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM statistics WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return &store.Summary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	var sum store.Summary
	if err := json.Unmarshal([]byte(payload), &sum); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return &sum, nil
}

// Helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*store.Note, error) {
	var n store.Note
	var createdAt int64
	if err := row.Scan(&n.ID, &n.UserID, &n.UserName, &n.CategoryID, &n.CategoryName, &n.Content, &createdAt); err != nil {
		return nil, err
	}
	n.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &n, nil
}

func requireRow(res sql.Result, notFoundMsg string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return errs.New(errs.NotFound, notFoundMsg)
	}
	return nil
}
