package web

import (
	"net/http"

	"github.com/kuitang/notes-admin/internal/categories"
	"github.com/kuitang/notes-admin/internal/errs"
	"github.com/kuitang/notes-admin/internal/notes"
	"github.com/kuitang/notes-admin/internal/obs"
	"github.com/kuitang/notes-admin/internal/stats"
	"github.com/kuitang/notes-admin/internal/store"
	"github.com/kuitang/notes-admin/internal/users"
)

// Handler provides HTTP handlers for the admin pages.
type Handler struct {
	renderer   *Renderer
	users      *users.Service
	categories *categories.Service
	notes      *notes.Service
	stats      *stats.Reconciler
}

// NewHandler creates a new web handler.
func NewHandler(
	renderer *Renderer,
	usersService *users.Service,
	categoriesService *categories.Service,
	notesService *notes.Service,
	reconciler *stats.Reconciler,
) *Handler {
	return &Handler{
		renderer:   renderer,
		users:      usersService,
		categories: categoriesService,
		notes:      notesService,
		stats:      reconciler,
	}
}

// RegisterRoutes registers all admin routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", h.HandleIndex)

	mux.HandleFunc("GET /users", h.HandleUsersPage)
	mux.HandleFunc("POST /users", h.HandleCreateUser)
	mux.HandleFunc("GET /users/{id}/edit", h.HandleEditUserPage)
	mux.HandleFunc("POST /users/{id}/edit", h.HandleUpdateUser)
	mux.HandleFunc("POST /users/{id}/delete", h.HandleDeleteUser)

	mux.HandleFunc("GET /categories", h.HandleCategoriesPage)
	mux.HandleFunc("POST /categories", h.HandleCreateCategory)
	mux.HandleFunc("GET /categories/{id}/edit", h.HandleEditCategoryPage)
	mux.HandleFunc("POST /categories/{id}/edit", h.HandleUpdateCategory)
	mux.HandleFunc("POST /categories/{id}/delete", h.HandleDeleteCategory)

	mux.HandleFunc("GET /notes", h.HandleNotesPage)
	mux.HandleFunc("POST /notes", h.HandleCreateNote)
	mux.HandleFunc("GET /notes/{id}/edit", h.HandleEditNotePage)
	mux.HandleFunc("POST /notes/{id}/edit", h.HandleUpdateNote)
	mux.HandleFunc("POST /notes/{id}/delete", h.HandleDeleteNote)
}

// PageData contains common data passed to all templates.
type PageData struct {
	Title string
}

// IndexData contains data for the dashboard page.
type IndexData struct {
	PageData
	Notes      []store.Note
	Statistics []store.UserNoteCount
	Users      []store.User
	Categories []store.Category
	UserID     string
	CategoryID string
	SortBy     string
}

// ManageUsersData contains data for the user management page.
type ManageUsersData struct {
	PageData
	Users []store.User
}

// EditUserData contains data for the user edit page.
type EditUserData struct {
	PageData
	User *store.User
}

// ManageCategoriesData contains data for the category management page.
type ManageCategoriesData struct {
	PageData
	Categories []store.Category
}

// EditCategoryData contains data for the category edit page.
type EditCategoryData struct {
	PageData
	Category *store.Category
}

// ManageNotesData contains data for the note management page.
type ManageNotesData struct {
	PageData
	Notes      []store.Note
	Users      []store.User
	Categories []store.Category
}

// EditNoteData contains data for the note edit page.
type EditNoteData struct {
	PageData
	Note       *store.Note
	Users      []store.User
	Categories []store.Category
}

// renderFailure maps a service error onto an error page.
func (h *Handler) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.HTTPStatus(errs.CodeOf(err))
	if code >= http.StatusInternalServerError {
		obs.From(r.Context()).Error("request_failed", "path", r.URL.Path, "error", err.Error())
	}
	h.renderer.RenderError(w, code, errs.MessageOf(err))
}

// HandleIndex handles GET / — the note listing with optional user/category
// filters, optional sort, and the per-user note counts.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.URL.Query().Get("user_id")
	categoryID := r.URL.Query().Get("category_id")
	sortBy := r.URL.Query().Get("sort_by")

	noteList, err := h.notes.List(ctx, store.NoteFilter{UserID: userID, CategoryID: categoryID}, store.ParseNoteSort(sortBy))
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	counts, err := h.stats.Snapshot(ctx)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	userList, err := h.users.List(ctx)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	categoryList, err := h.categories.List(ctx)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	data := IndexData{
		PageData:   PageData{Title: "Notes"},
		Notes:      noteList,
		Statistics: counts,
		Users:      userList,
		Categories: categoryList,
		UserID:     userID,
		CategoryID: categoryID,
		SortBy:     sortBy,
	}

	if err := h.renderer.Render(w, "index.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// User management

// HandleUsersPage handles GET /users.
func (h *Handler) HandleUsersPage(w http.ResponseWriter, r *http.Request) {
	userList, err := h.users.List(r.Context())
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	data := ManageUsersData{
		PageData: PageData{Title: "Manage Users"},
		Users:    userList,
	}

	if err := h.renderer.Render(w, "manage_users.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleCreateUser handles POST /users.
func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	_, err := h.users.Create(r.Context(), users.CreateParams{
		Name:  r.FormValue("name"),
		Email: r.FormValue("email"),
	})
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	http.Redirect(w, r, "/users", http.StatusFound)
}

// HandleEditUserPage handles GET /users/{id}/edit.
func (h *Handler) HandleEditUserPage(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	data := EditUserData{
		PageData: PageData{Title: "Edit User"},
		User:     user,
	}

	if err := h.renderer.Render(w, "edit_user.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleUpdateUser handles POST /users/{id}/edit — renames the user,
// propagates the new name onto the user's notes and rebuilds statistics.
func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	_, err := h.users.Update(r.Context(), r.PathValue("id"), r.FormValue("name"), r.FormValue("email"))
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	http.Redirect(w, r, "/users", http.StatusFound)
}

// HandleDeleteUser handles POST /users/{id}/delete — deletes the user's
// notes, then the user, then rebuilds statistics.
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.renderFailure(w, r, err)
		return
	}

	http.Redirect(w, r, "/users", http.StatusFound)
}

// Category management

// HandleCategoriesPage handles GET /categories.
func (h *Handler) HandleCategoriesPage(w http.ResponseWriter, r *http.Request) {
	categoryList, err := h.categories.List(r.Context())
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	data := ManageCategoriesData{
		PageData:   PageData{Title: "Manage Categories"},
		Categories: categoryList,
	}

	if err := h.renderer.Render(w, "manage_categories.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleCreateCategory handles POST /categories.
func (h *Handler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	if _, err := h.categories.Create(r.Context(), r.FormValue("name")); err != nil {
		h.renderFailure(w, r, err)
		return
	}

	http.Redirect(w, r, "/categories", http.StatusFound)
}

// HandleEditCategoryPage handles GET /categories/{id}/edit.
func (h *Handler) HandleEditCategoryPage(w http.ResponseWriter, r *http.Request) {
	category, err := h.categories.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	data := EditCategoryData{
		PageData: PageData{Title: "Edit Category"},
		Category: category,
	}

	if err := h.renderer.Render(w, "edit_category.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleUpdateCategory handles POST /categories/{id}/edit. No statistics
// rebuild: the summary never depends on category data.
func (h *Handler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	if _, err := h.categories.Update(r.Context(), r.PathValue("id"), r.FormValue("name")); err != nil {
		h.renderFailure(w, r, err)
		return
	}

	http.Redirect(w, r, "/categories", http.StatusFound)
}

// HandleDeleteCategory handles POST /categories/{id}/delete.
func (h *Handler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.categories.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.renderFailure(w, r, err)
		return
	}

	http.Redirect(w, r, "/categories", http.StatusFound)
}

// Note management

// HandleNotesPage handles GET /notes.
func (h *Handler) HandleNotesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	noteList, err := h.notes.List(ctx, store.NoteFilter{}, store.SortNone)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	userList, err := h.users.List(ctx)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	categoryList, err := h.categories.List(ctx)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	data := ManageNotesData{
		PageData:   PageData{Title: "Manage Notes"},
		Notes:      noteList,
		Users:      userList,
		Categories: categoryList,
	}

	if err := h.renderer.Render(w, "manage_notes.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleCreateNote handles POST /notes — resolves both references before
// writing, then rebuilds statistics.
func (h *Handler) HandleCreateNote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	_, err := h.notes.Create(r.Context(), notes.CreateParams{
		UserID:     r.FormValue("user_id"),
		CategoryID: r.FormValue("category_id"),
		Content:    r.FormValue("content"),
	})
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	http.Redirect(w, r, "/notes", http.StatusFound)
}

// HandleEditNotePage handles GET /notes/{id}/edit.
func (h *Handler) HandleEditNotePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	note, err := h.notes.Get(ctx, r.PathValue("id"))
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	userList, err := h.users.List(ctx)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}
	categoryList, err := h.categories.List(ctx)
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	data := EditNoteData{
		PageData:   PageData{Title: "Edit Note"},
		Note:       note,
		Users:      userList,
		Categories: categoryList,
	}

	if err := h.renderer.Render(w, "edit_note.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleUpdateNote handles POST /notes/{id}/edit — updates content and
// category in place. The owner never changes and statistics are not rebuilt.
func (h *Handler) HandleUpdateNote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	_, err := h.notes.Edit(r.Context(), r.PathValue("id"), r.FormValue("content"), r.FormValue("category_id"))
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	http.Redirect(w, r, "/notes", http.StatusFound)
}

// HandleDeleteNote handles POST /notes/{id}/delete.
func (h *Handler) HandleDeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.renderFailure(w, r, err)
		return
	}

	http.Redirect(w, r, "/notes", http.StatusFound)
}
