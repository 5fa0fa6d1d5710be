// Package surreal implements the store contract on SurrealDB over WebSocket.
// Records live in the users, categories and notes tables; the statistics
// record is pinned at statistics:current. SurrealDB creates tables on first
// insert, so there is no schema to migrate.
package surreal

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/kuitang/notes-admin/internal/errs"
	"github.com/kuitang/notes-admin/internal/store"
)

const (
	usersTable      = "users"
	categoriesTable = "categories"
	notesTable      = "notes"
	statsTable      = "statistics"

	// statsKey pins the summary to a single record so every write replaces
	// the previous one.
	statsKey = "current"
)

// Config carries the connection settings for a SurrealDB store.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

// Store implements store.Store backed by SurrealDB.
type Store struct {
	db *surrealdb.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to SurrealDB, authenticates and selects the namespace and
// database. The connection uses the surrealcbor codec so time.Time and
// RecordID values round-trip in the wire format SurrealDB expects. Failures
// here surface as Unavailable.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "invalid SurrealDB URL", err)
	}

	conf := connection.NewConfig(u)
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)
	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "failed to connect to SurrealDB", err)
	}

	if cfg.Username != "" && cfg.Password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.Username,
			"pass": cfg.Password,
		}); err != nil {
			db.Close(ctx)
			return nil, errs.Wrap(errs.Unavailable, "failed to authenticate with SurrealDB", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		db.Close(ctx)
		return nil, errs.Wrap(errs.Unavailable, "failed to select SurrealDB namespace/database", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close(context.Background())
}

// Record shapes. IDs are SurrealDB RecordIDs whose key part is the
// application-level UUID string; references between records stay plain
// strings so both backends expose the same values.

type userRecord struct {
	ID        *models.RecordID `json:"id,omitempty"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	CreatedAt time.Time        `json:"created_at"`
}

type categoryRecord struct {
	ID        *models.RecordID `json:"id,omitempty"`
	Name      string           `json:"name"`
	CreatedAt time.Time        `json:"created_at"`
}

type noteRecord struct {
	ID           *models.RecordID `json:"id,omitempty"`
	UserID       string           `json:"user_id"`
	UserName     string           `json:"user_name"`
	CategoryID   string           `json:"category_id"`
	CategoryName string           `json:"category_name"`
	Content      string           `json:"content"`
	CreatedAt    time.Time        `json:"created_at"`
}

type summaryRecord struct {
	ID             *models.RecordID      `json:"id,omitempty"`
	UserStatistics []store.UserNoteCount `json:"user_statistics"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

func recordKey(rid *models.RecordID) string {
	if rid == nil {
		return ""
	}
	return fmt.Sprint(rid.ID)
}

// isNoRecords reports whether an error means the record does not exist.
// The driver surfaces missing records as unmarshaling failures rather than
// a sentinel error.
func isNoRecords(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Expected a single or multiple results but got 0") ||
		strings.Contains(msg, "cannot unmarshal array into Go value")
}

func (u userRecord) toStore() store.User {
	return store.User{
		ID:        recordKey(u.ID),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func (c categoryRecord) toStore() store.Category {
	return store.Category{
		ID:        recordKey(c.ID),
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
	}
}

func (n noteRecord) toStore() store.Note {
	return store.Note{
		ID:           recordKey(n.ID),
		UserID:       n.UserID,
		UserName:     n.UserName,
		CategoryID:   n.CategoryID,
		CategoryName: n.CategoryName,
		Content:      n.Content,
		CreatedAt:    n.CreatedAt,
	}
}

// Users

func (s *Store) CreateUser(ctx context.Context, u store.User) error {
	rid := models.NewRecordID(usersTable, u.ID)
	rec := userRecord{Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
	if _, err := surrealdb.Create[userRecord](ctx, s.db, rid, rec); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*store.User, error) {
	rid := models.NewRecordID(usersTable, id)
	rec, err := surrealdb.Select[userRecord](ctx, s.db, rid)
	if err != nil {
		if isNoRecords(err) {
			return nil, errs.New(errs.NotFound, "user not found: "+id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if rec == nil || rec.ID == nil {
		return nil, errs.New(errs.NotFound, "user not found: "+id)
	}
	u := rec.toStore()
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]store.User, error) {
	result, err := surrealdb.Query[[]userRecord](ctx, s.db,
		"SELECT * FROM users ORDER BY created_at ASC", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	records := firstResult(result)
	users := make([]store.User, 0, len(records))
	for _, rec := range records {
		users = append(users, rec.toStore())
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, id, name, email string) error {
	existing, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	rid := models.NewRecordID(usersTable, id)
	rec := userRecord{Name: name, Email: email, CreatedAt: existing.CreatedAt}
	if _, err := surrealdb.Update[userRecord](ctx, s.db, rid, rec); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}

	rid := models.NewRecordID(usersTable, id)
	if _, err := surrealdb.Delete[userRecord](ctx, s.db, rid); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// Categories

func (s *Store) CreateCategory(ctx context.Context, c store.Category) error {
	rid := models.NewRecordID(categoriesTable, c.ID)
	rec := categoryRecord{Name: c.Name, CreatedAt: c.CreatedAt}
	if _, err := surrealdb.Create[categoryRecord](ctx, s.db, rid, rec); err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (*store.Category, error) {
	rid := models.NewRecordID(categoriesTable, id)
	rec, err := surrealdb.Select[categoryRecord](ctx, s.db, rid)
	if err != nil {
		if isNoRecords(err) {
			return nil, errs.New(errs.NotFound, "category not found: "+id)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if rec == nil || rec.ID == nil {
		return nil, errs.New(errs.NotFound, "category not found: "+id)
	}
	c := rec.toStore()
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]store.Category, error) {
	result, err := surrealdb.Query[[]categoryRecord](ctx, s.db,
		"SELECT * FROM categories ORDER BY created_at ASC", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	records := firstResult(result)
	categories := make([]store.Category, 0, len(records))
	for _, rec := range records {
		categories = append(categories, rec.toStore())
	}
	return categories, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id, name string) error {
	existing, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}

	rid := models.NewRecordID(categoriesTable, id)
	rec := categoryRecord{Name: name, CreatedAt: existing.CreatedAt}
	if _, err := surrealdb.Update[categoryRecord](ctx, s.db, rid, rec); err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}

	rid := models.NewRecordID(categoriesTable, id)
	if _, err := surrealdb.Delete[categoryRecord](ctx, s.db, rid); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// Notes

func (s *Store) CreateNote(ctx context.Context, n store.Note) error {
	rid := models.NewRecordID(notesTable, n.ID)
	rec := noteRecord{
		UserID:       n.UserID,
		UserName:     n.UserName,
		CategoryID:   n.CategoryID,
		CategoryName: n.CategoryName,
		Content:      n.Content,
		CreatedAt:    n.CreatedAt,
	}
	if _, err := surrealdb.Create[noteRecord](ctx, s.db, rid, rec); err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (s *Store) GetNote(ctx context.Context, id string) (*store.Note, error) {
	rid := models.NewRecordID(notesTable, id)
	rec, err := surrealdb.Select[noteRecord](ctx, s.db, rid)
	if err != nil {
		if isNoRecords(err) {
			return nil, errs.New(errs.NotFound, "note not found: "+id)
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	if rec == nil || rec.ID == nil {
		return nil, errs.New(errs.NotFound, "note not found: "+id)
	}
	n := rec.toStore()
	return &n, nil
}

func (s *Store) ListNotes(ctx context.Context, filter store.NoteFilter, sortBy store.NoteSort) ([]store.Note, error) {
	query := "SELECT * FROM notes"
	params := map[string]any{}
	var conds []string
	if filter.UserID != "" {
		conds = append(conds, "user_id = $user_id")
		params["user_id"] = filter.UserID
	}
	if filter.CategoryID != "" {
		conds = append(conds, "category_id = $category_id")
		params["category_id"] = filter.CategoryID
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	switch sortBy {
	case store.SortByUserName:
		query += " ORDER BY user_name ASC, created_at ASC"
	case store.SortByCategoryName:
		query += " ORDER BY category_name ASC, created_at ASC"
	default:
		query += " ORDER BY created_at ASC"
	}

	result, err := surrealdb.Query[[]noteRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	records := firstResult(result)
	notes := make([]store.Note, 0, len(records))
	for _, rec := range records {
		notes = append(notes, rec.toStore())
	}
	return notes, nil
}

func (s *Store) UpdateNote(ctx context.Context, id, content, categoryID, categoryName string) error {
	existing, err := s.GetNote(ctx, id)
	if err != nil {
		return err
	}

	rid := models.NewRecordID(notesTable, id)
	rec := noteRecord{
		UserID:       existing.UserID,
		UserName:     existing.UserName,
		CategoryID:   categoryID,
		CategoryName: categoryName,
		Content:      content,
		CreatedAt:    existing.CreatedAt,
	}
	if _, err := surrealdb.Update[noteRecord](ctx, s.db, rid, rec); err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return nil
}

func (s *Store) UpdateNotesByUser(ctx context.Context, userID, userName string) (int64, error) {
	result, err := surrealdb.Query[[]noteRecord](ctx, s.db,
		"UPDATE notes SET user_name = $user_name WHERE user_id = $user_id RETURN AFTER",
		map[string]any{"user_id": userID, "user_name": userName})
	if err != nil {
		return 0, fmt.Errorf("failed to update notes by user: %w", err)
	}
	return int64(len(firstResult(result))), nil
}

func (s *Store) UpdateNotesByCategory(ctx context.Context, categoryID, categoryName string) (int64, error) {
	result, err := surrealdb.Query[[]noteRecord](ctx, s.db,
		"UPDATE notes SET category_name = $category_name WHERE category_id = $category_id RETURN AFTER",
		map[string]any{"category_id": categoryID, "category_name": categoryName})
	if err != nil {
		return 0, fmt.Errorf("failed to update notes by category: %w", err)
	}
	return int64(len(firstResult(result))), nil
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	if _, err := s.GetNote(ctx, id); err != nil {
		return err
	}

	rid := models.NewRecordID(notesTable, id)
	if _, err := surrealdb.Delete[noteRecord](ctx, s.db, rid); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

func (s *Store) DeleteNotesByUser(ctx context.Context, userID string) (int64, error) {
	result, err := surrealdb.Query[[]noteRecord](ctx, s.db,
		"DELETE FROM notes WHERE user_id = $user_id RETURN BEFORE",
		map[string]any{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete notes by user: %w", err)
	}
	return int64(len(firstResult(result))), nil
}

func (s *Store) DeleteNotesByCategory(ctx context.Context, categoryID string) (int64, error) {
	result, err := surrealdb.Query[[]noteRecord](ctx, s.db,
		"DELETE FROM notes WHERE category_id = $category_id RETURN BEFORE",
		map[string]any{"category_id": categoryID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete notes by category: %w", err)
	}
	return int64(len(firstResult(result))), nil
}

// Aggregation

// AggregateUserNoteCounts counts notes per owner in the application rather
// than with a SurrealQL GROUP BY, so users without notes keep their zero row
// exactly like the SQL LEFT JOIN.
func (s *Store) AggregateUserNoteCounts(ctx context.Context) ([]store.UserNoteCount, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	type ownerRow struct {
		UserID string `json:"user_id"`
	}
	result, err := surrealdb.Query[[]ownerRow](ctx, s.db, "SELECT user_id FROM notes", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	counts := make(map[string]int64)
	for _, row := range firstResult(result) {
		counts[row.UserID]++
	}

	rows := make([]store.UserNoteCount, 0, len(users))
	for _, u := range users {
		rows = append(rows, store.UserNoteCount{
			UserID:     u.ID,
			UserName:   u.Name,
			NotesCount: counts[u.ID],
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UserName != rows[j].UserName {
			return rows[i].UserName < rows[j].UserName
		}
		return rows[i].UserID < rows[j].UserID
	})
	return rows, nil
}

// Summary

func (s *Store) ReplaceSummary(ctx context.Context, summary store.Summary) error {
	rid := models.NewRecordID(statsTable, statsKey)
	rec := summaryRecord{
		UserStatistics: summary.UserStatistics,
		UpdatedAt:      time.Now().UTC(),
	}
	if _, err := surrealdb.Upsert[summaryRecord](ctx, s.db, rid, rec); err != nil {
		return fmt.Errorf("failed to replace summary: %w", err)
	}
	return nil
}

func (s *Store) GetSummary(ctx context.Context) (*store.Summary, error) {
	rid := models.NewRecordID(statsTable, statsKey)
	rec, err := surrealdb.Select[summaryRecord](ctx, s.db, rid)
	if err != nil {
		if isNoRecords(err) {
			return &store.Summary{}, nil
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	if rec == nil || rec.ID == nil {
		return &store.Summary{}, nil
	}
	return &store.Summary{UserStatistics: rec.UserStatistics}, nil
}

func firstResult[T any](result *[]surrealdb.QueryResult[[]T]) []T {
	if result == nil || len(*result) == 0 {
		return nil
	}
	return (*result)[0].Result
}
