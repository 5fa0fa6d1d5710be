package store

import "time"

// User is a note author managed through the admin pages.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Category groups notes for filtering.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Note carries its owner and category references together with a cached copy
// of each display name. The cached names are the read-path source for listing
// and sorting; they are resynchronized by the denorm package after renames
// and are only guaranteed to match the referenced records between
// synchronization points.
type Note struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	CategoryID   string    `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserNoteCount is one row of the user/note aggregation. Users without notes
// appear with NotesCount zero.
type UserNoteCount struct {
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	NotesCount int64  `json:"notes_count"`
}

// Summary is the single statistics record. It is replaced wholesale on every
// reconciliation; there is never more than one summary in the store.
type Summary struct {
	UserStatistics []UserNoteCount `json:"user_statistics"`
}

// NoteFilter restricts a note listing. Empty fields match everything; when
// both are set the filters are conjunctive.
type NoteFilter struct {
	UserID     string
	CategoryID string
}

// NoteSort selects the ordering of a note listing.
type NoteSort int

const (
	// SortNone returns notes in insertion order.
	SortNone NoteSort = iota

	// SortByUserName orders ascending by the cached user display name.
	SortByUserName

	// SortByCategoryName orders ascending by the cached category display name.
	SortByCategoryName
)

// ParseNoteSort maps the sort_by query value to a NoteSort.
// Unknown values fall back to insertion order.
func ParseNoteSort(s string) NoteSort {
	switch s {
	case "user":
		return SortByUserName
	case "category":
		return SortByCategoryName
	default:
		return SortNone
	}
}
