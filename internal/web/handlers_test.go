package web_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kuitang/notes-admin/internal/categories"
	"github.com/kuitang/notes-admin/internal/denorm"
	"github.com/kuitang/notes-admin/internal/notes"
	"github.com/kuitang/notes-admin/internal/stats"
	"github.com/kuitang/notes-admin/internal/store/sqlite/sqlitetest"
	"github.com/kuitang/notes-admin/internal/users"
	"github.com/kuitang/notes-admin/internal/web"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := sqlitetest.NewStore(t)

	renderer, err := web.NewRenderer("../../web/templates")
	require.NoError(t, err, "failed to load templates")

	synchronizer := denorm.New(st)
	reconciler := stats.New(st)
	handler := web.NewHandler(
		renderer,
		users.NewService(st, synchronizer, reconciler),
		categories.NewService(st, synchronizer),
		notes.NewService(st, reconciler),
		reconciler,
	)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// client that does not follow redirects, so handlers' 302s are observable.
func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, srv *httptest.Server, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := noRedirectClient().Post(
		srv.URL+path,
		"application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// extractID pulls the first edit link for the given section out of a page,
// which is how a browser user would discover an entity's id.
func extractID(t *testing.T, body, section string) string {
	t.Helper()
	marker := `href="/` + section + `/`
	idx := strings.Index(body, marker)
	require.GreaterOrEqual(t, idx, 0, "no %s edit link in page", section)
	rest := body[idx+len(marker):]
	end := strings.Index(rest, "/edit")
	require.GreaterOrEqual(t, end, 0, "malformed edit link")
	return rest[:end]
}

func getBody(t *testing.T, srv *httptest.Server, path string) string {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestIndexPage_Empty(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	body := getBody(t, srv, "/")
	require.Contains(t, body, "No notes yet")
	require.Contains(t, body, "No users yet")
}

func TestCreateUser_RedirectsAndLists(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp := postForm(t, srv, "/users", url.Values{
		"name":  {"Alice"},
		"email": {"alice@example.com"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/users", resp.Header.Get("Location"))

	body := getBody(t, srv, "/users")
	require.Contains(t, body, "Alice")
	require.Contains(t, body, "alice@example.com")
}

func TestCreateUser_MissingNameIsBadRequest(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp := postForm(t, srv, "/users", url.Values{"email": {"a@example.com"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateNote_MissingUserIsNotFound(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp := postForm(t, srv, "/categories", url.Values{"name": {"Work"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	categoryID := extractID(t, getBody(t, srv, "/categories"), "categories")

	resp = postForm(t, srv, "/notes", url.Values{
		"user_id":     {"does-not-exist"},
		"category_id": {categoryID},
		"content":     {"hello"},
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := getBody(t, srv, "/notes")
	require.NotContains(t, body, "hello")
}

func TestNoteLifecycleThroughForms(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	postForm(t, srv, "/users", url.Values{"name": {"Alice"}})
	postForm(t, srv, "/categories", url.Values{"name": {"Work"}})
	userID := extractID(t, getBody(t, srv, "/users"), "users")
	categoryID := extractID(t, getBody(t, srv, "/categories"), "categories")

	resp := postForm(t, srv, "/notes", url.Values{
		"user_id":     {userID},
		"category_id": {categoryID},
		"content":     {"remember the milk"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/notes", resp.Header.Get("Location"))

	body := getBody(t, srv, "/notes")
	require.Contains(t, body, "remember the milk")
	noteID := extractID(t, body, "notes")

	// Rename the user; the dashboard shows the propagated name.
	resp = postForm(t, srv, "/users/"+userID+"/edit", url.Values{"name": {"Alicia"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	index := getBody(t, srv, "/")
	require.Contains(t, index, "Alicia")
	require.NotContains(t, index, ">Alice<")

	// Delete the note and confirm the count drops to zero.
	resp = postForm(t, srv, "/notes/"+noteID+"/delete", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	index = getBody(t, srv, "/")
	require.Contains(t, index, "No notes yet")
}

func TestIndexPage_FilterByUser(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	postForm(t, srv, "/users", url.Values{"name": {"Alice"}})
	postForm(t, srv, "/categories", url.Values{"name": {"Work"}})
	userID := extractID(t, getBody(t, srv, "/users"), "users")
	categoryID := extractID(t, getBody(t, srv, "/categories"), "categories")

	postForm(t, srv, "/notes", url.Values{
		"user_id":     {userID},
		"category_id": {categoryID},
		"content":     {"alpha note"},
	})

	body := getBody(t, srv, "/?user_id="+userID)
	require.Contains(t, body, "alpha note")

	body = getBody(t, srv, "/?user_id=nobody")
	require.NotContains(t, body, "alpha note")
}

func TestEditUserPage_MissingUserIsNotFound(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/users/missing/edit")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteUser_RemovesNotesFromDashboard(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	postForm(t, srv, "/users", url.Values{"name": {"Alice"}})
	postForm(t, srv, "/categories", url.Values{"name": {"Work"}})
	userID := extractID(t, getBody(t, srv, "/users"), "users")
	categoryID := extractID(t, getBody(t, srv, "/categories"), "categories")

	postForm(t, srv, "/notes", url.Values{
		"user_id":     {userID},
		"category_id": {categoryID},
		"content":     {"doomed note"},
	})

	resp := postForm(t, srv, "/users/"+userID+"/delete", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	index := getBody(t, srv, "/")
	require.NotContains(t, index, "doomed note")
	require.Contains(t, index, "No users yet")
}
