package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/kuitang/notes-admin/internal/errs"
	"github.com/kuitang/notes-admin/internal/store"
	"github.com/kuitang/notes-admin/internal/store/sqlite/sqlitetest"
)

func mustCreateUser(t *testing.T, st store.Store, id, name string) {
	t.Helper()
	err := st.CreateUser(context.Background(), store.User{
		ID:        id,
		Name:      name,
		Email:     name + "@example.com",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to create user %s: %v", id, err)
	}
}

func mustCreateCategory(t *testing.T, st store.Store, id, name string) {
	t.Helper()
	err := st.CreateCategory(context.Background(), store.Category{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to create category %s: %v", id, err)
	}
}

func mustCreateNote(t *testing.T, st store.Store, id, userID, userName, categoryID, categoryName, content string, createdAt time.Time) {
	t.Helper()
	err := st.CreateNote(context.Background(), store.Note{
		ID:           id,
		UserID:       userID,
		UserName:     userName,
		CategoryID:   categoryID,
		CategoryName: categoryName,
		Content:      content,
		CreatedAt:    createdAt,
	})
	if err != nil {
		t.Fatalf("failed to create note %s: %v", id, err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	t.Parallel()
	st := sqlitetest.NewStore(t)

	_, err := st.GetUser(context.Background(), "missing")
	if !errs.IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	t.Parallel()
	st := sqlitetest.NewStore(t)

	err := st.UpdateUser(context.Background(), "missing", "New Name", "new@example.com")
	if !errs.IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestDeleteNote_NotFound(t *testing.T) {
	t.Parallel()
	st := sqlitetest.NewStore(t)

	err := st.DeleteNote(context.Background(), "missing")
	if !errs.IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestUserRoundTrip(t *testing.T) {
	t.Parallel()
	st := sqlitetest.NewStore(t)
	ctx := context.Background()

	mustCreateUser(t, st, "u1", "Alice")

	u, err := st.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.Name != "Alice" || u.Email != "Alice@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}

	if err := st.UpdateUser(ctx, "u1", "Alicia", "alicia@example.com"); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	u, err = st.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser after update failed: %v", err)
	}
	if u.Name != "Alicia" || u.Email != "alicia@example.com" {
		t.Fatalf("update not applied: %+v", u)
	}

	if err := st.DeleteUser(ctx, "u1"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := st.GetUser(ctx, "u1"); !errs.IsNotFound(err) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
}

func TestListNotes_FiltersAreConjunctive(t *testing.T) {
	t.Parallel()
	st := sqlitetest.NewStore(t)
	ctx := context.Background()

	mustCreateUser(t, st, "u1", "Alice")
	mustCreateUser(t, st, "u2", "Bob")
	mustCreateCategory(t, st, "c1", "Work")
	mustCreateCategory(t, st, "c2", "Home")

	base := time.Now().UTC()
	mustCreateNote(t, st, "n1", "u1", "Alice", "c1", "Work", "a", base)
	mustCreateNote(t, st, "n2", "u1", "Alice", "c2", "Home", "b", base.Add(time.Second))
	mustCreateNote(t, st, "n3", "u2", "Bob", "c1", "Work", "c", base.Add(2*time.Second))

	got, err := st.ListNotes(ctx, store.NoteFilter{UserID: "u1", CategoryID: "c1"}, store.SortNone)
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "n1" {
		t.Fatalf("expected only n1, got %+v", got)
	}

	got, err = st.ListNotes(ctx, store.NoteFilter{UserID: "u1"}, store.SortNone)
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notes for u1, got %d", len(got))
	}

	got, err = st.ListNotes(ctx, store.NoteFilter{}, store.SortNone)
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected all 3 notes, got %d", len(got))
	}
}

func TestListNotes_SortByCachedNames(t *testing.T) {
	t.Parallel()
	st := sqlitetest.NewStore(t)
	ctx := context.Background()

	mustCreateUser(t, st, "u1", "Zoe")
	mustCreateUser(t, st, "u2", "Adam")
	mustCreateCategory(t, st, "c1", "Work")
	mustCreateCategory(t, st, "c2", "Archive")

	base := time.Now().UTC()
	mustCreateNote(t, st, "n1", "u1", "Zoe", "c1", "Work", "a", base)
	mustCreateNote(t, st, "n2", "u2", "Adam", "c2", "Archive", "b", base.Add(time.Second))

	got, err := st.ListNotes(ctx, store.NoteFilter{}, store.SortByUserName)
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if got[0].UserName != "Adam" || got[1].UserName != "Zoe" {
		t.Fatalf("wrong user_name order: %q, %q", got[0].UserName, got[1].UserName)
	}

	got, err = st.ListNotes(ctx, store.NoteFilter{}, store.SortByCategoryName)
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if got[0].CategoryName != "Archive" || got[1].CategoryName != "Work" {
		t.Fatalf("wrong category_name order: %q, %q", got[0].CategoryName, got[1].CategoryName)
	}
}

func TestUpdateNotesByUser_CountsAndScope(t *testing.T) {
	t.Parallel()
	st := sqlitetest.NewStore(t)
	ctx := context.Background()

	mustCreateUser(t, st, "u1", "Alice")
	mustCreateUser(t, st, "u2", "Bob")
	mustCreateCategory(t, st, "c1", "Work")

	base := time.Now().UTC()
	mustCreateNote(t, st, "n1", "u1", "Alice", "c1", "Work", "a", base)
	mustCreateNote(t, st, "n2", "u1", "Alice", "c1", "Work", "b", base.Add(time.Second))
	mustCreateNote(t, st, "n3", "u2", "Bob", "c1", "Work", "c", base.Add(2*time.Second))

	n, err := st.UpdateNotesByUser(ctx, "u1", "Alicia")
	if err != nil {
		t.Fatalf("UpdateNotesByUser failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 notes updated, got %d", n)
	}

	notes, err := st.ListNotes(ctx, store.NoteFilter{}, store.SortNone)
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	for _, note := range notes {
		want := "Alicia"
		if note.UserID == "u2" {
			want = "Bob"
		}
		if note.UserName != want {
			t.Fatalf("note %s has user_name %q, want %q", note.ID, note.UserName, want)
		}
	}
}

func TestDeleteNotesByCategory_Counts(t *testing.T) {
	t.Parallel()
	st := sqlitetest.NewStore(t)
	ctx := context.Background()

	mustCreateUser(t, st, "u1", "Alice")
	mustCreateCategory(t, st, "c1", "Work")
	mustCreateCategory(t, st, "c2", "Home")

	base := time.Now().UTC()
	mustCreateNote(t, st, "n1", "u1", "Alice", "c1", "Work", "a", base)
	mustCreateNote(t, st, "n2", "u1", "Alice", "c1", "Work", "b", base.Add(time.Second))
	mustCreateNote(t, st, "n3", "u1", "Alice", "c2", "Home", "c", base.Add(2*time.Second))

	n, err := st.DeleteNotesByCategory(ctx, "c1")
	if err != nil {
		t.Fatalf("DeleteNotesByCategory failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 notes deleted, got %d", n)
	}

	remaining, err := st.ListNotes(ctx, store.NoteFilter{}, store.SortNone)
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "n3" {
		t.Fatalf("expected only n3 to remain, got %+v", remaining)
	}
}

func TestAggregateUserNoteCounts_KeepsZeroCountUsers(t *testing.T) {
	t.Parallel()
	st := sqlitetest.NewStore(t)
	ctx := context.Background()

	mustCreateUser(t, st, "u1", "Zoe")
	mustCreateUser(t, st, "u2", "Adam")
	mustCreateCategory(t, st, "c1", "Work")
	mustCreateNote(t, st, "n1", "u1", "Zoe", "c1", "Work", "a", time.Now().UTC())

	counts, err := st.AggregateUserNoteCounts(ctx)
	if err != nil {
		t.Fatalf("AggregateUserNoteCounts failed: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(counts))
	}
	// Ordered by name: Adam before Zoe.
	if counts[0].UserName != "Adam" || counts[0].NotesCount != 0 {
		t.Fatalf("unexpected first row: %+v", counts[0])
	}
	if counts[1].UserName != "Zoe" || counts[1].NotesCount != 1 {
		t.Fatalf("unexpected second row: %+v", counts[1])
	}
}

func TestReplaceSummary_SingleRecord(t *testing.T) {
	t.Parallel()
	st := sqlitetest.NewStore(t)
	ctx := context.Background()

	first := store.Summary{UserStatistics: []store.UserNoteCount{
		{UserID: "u1", UserName: "Alice", NotesCount: 3},
	}}
	if err := st.ReplaceSummary(ctx, first); err != nil {
		t.Fatalf("ReplaceSummary failed: %v", err)
	}

	second := store.Summary{UserStatistics: []store.UserNoteCount{
		{UserID: "u1", UserName: "Alice", NotesCount: 1},
		{UserID: "u2", UserName: "Bob", NotesCount: 0},
	}}
	if err := st.ReplaceSummary(ctx, second); err != nil {
		t.Fatalf("ReplaceSummary (second) failed: %v", err)
	}

	got, err := st.GetSummary(ctx)
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if len(got.UserStatistics) != 2 {
		t.Fatalf("expected the second summary to replace the first, got %+v", got)
	}
	if got.UserStatistics[0].NotesCount != 1 {
		t.Fatalf("stale count survived the replace: %+v", got.UserStatistics[0])
	}
}

func TestGetSummary_EmptyBeforeFirstWrite(t *testing.T) {
	t.Parallel()
	st := sqlitetest.NewStore(t)

	got, err := st.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if len(got.UserStatistics) != 0 {
		t.Fatalf("expected empty summary, got %+v", got)
	}
}
