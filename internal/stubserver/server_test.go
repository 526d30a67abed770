package stubserver_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/service"
	"tasksync/internal/stubserver"
)

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreate_ReusedRequestIDConflicts(t *testing.T) {
	srv := stubserver.New(stubserver.Options{Prefix: "/api"})
	header := map[string]string{"X-Request-ID": "abc"}

	first := do(t, srv, http.MethodPost, "/api/Tasks", `{"title":"B","description":"","dueDate":null}`, header)
	second := do(t, srv, http.MethodPost, "/api/Tasks", `{"title":"B","description":"","dueDate":null}`, header)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Len(t, srv.Tasks(), 1)
}

func TestCreate_EmptyTitle(t *testing.T) {
	srv := stubserver.New(stubserver.Options{})

	rec := do(t, srv, http.MethodPost, "/Tasks", `{"title":"  "}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestReplaceAndDelete(t *testing.T) {
	srv := stubserver.New(stubserver.Options{})
	srv.Seed(service.Task{ID: "1", Title: "A"})

	rec := do(t, srv, http.MethodPut, "/Tasks/1", `{"title":"A","description":"x","dueDate":"2026-05-01T00:00:00.000Z","isCompleted":true}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := srv.Tasks()
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].IsCompleted)
	require.NotNil(t, tasks[0].DueDate)

	rec = do(t, srv, http.MethodDelete, "/Tasks/1", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, srv.Tasks())

	rec = do(t, srv, http.MethodDelete, "/Tasks/1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuth(t *testing.T) {
	srv := stubserver.New(stubserver.Options{Secret: []byte("secret")})

	rec := do(t, srv, http.MethodGet, "/Tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, srv, http.MethodGet, "/Tasks", "", map[string]string{"Authorization": "Bearer junk"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := srv.IssueToken("user-1")
	require.NoError(t, err)
	rec = do(t, srv, http.MethodGet, "/Tasks", "", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestIssueTokenEndpoint(t *testing.T) {
	srv := stubserver.New(stubserver.Options{Prefix: "/api", Secret: []byte("secret")})

	rec := do(t, srv, http.MethodPost, "/api/Auth/token", `{"subject":"me"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)
}

func TestFailNext(t *testing.T) {
	srv := stubserver.New(stubserver.Options{})
	srv.FailNext(http.MethodGet, http.StatusInternalServerError)

	assert.Equal(t, http.StatusInternalServerError, do(t, srv, http.MethodGet, "/Tasks", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/Tasks", "", nil).Code)
	assert.Equal(t, 2, srv.Requests(http.MethodGet))
}
