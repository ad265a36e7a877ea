package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskapi/internal/app"
	"taskapi/internal/config"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type AppTestSuite struct {
	suite.Suite
	handler http.Handler
}

func TestAppTestSuite(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}

func (s *AppTestSuite) SetupTest() {
	cfg := config.Default()
	cfg.Auth.Secret = "test-secret"
	cfg.Auth.BcryptCost = bcrypt.MinCost

	a := app.New(cfg)
	s.Require().NoError(a.Init(context.Background()))
	s.handler = a.Handler()
}

func (s *AppTestSuite) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var decoded map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func (s *AppTestSuite) login(username, password string, staff bool) (string, string) {
	w, _ := s.do(http.MethodPost, "/register/", "", map[string]any{
		"username": username, "password": password, "is_staff": staff,
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	w, body := s.do(http.MethodPost, "/login/", "", map[string]any{"username": username, "password": password})
	s.Require().Equal(http.StatusOK, w.Code)
	return body["access"].(string), body["refresh"].(string)
}

func (s *AppTestSuite) createTask(token string, body map[string]any) map[string]any {
	w, created := s.do(http.MethodPost, "/tasks/", token, body)
	s.Require().Equal(http.StatusCreated, w.Code)
	return created
}

func (s *AppTestSuite) TestHealth() {
	w, body := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("ok", body["status"])
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *AppTestSuite) TestAnonymousCreate() {
	created := s.createTask("", map[string]any{"title": "Buy milk"})

	s.NotEmpty(created["id"])
	s.Equal("Buy milk", created["title"])
	s.Nil(created["description"])
	s.Equal(false, created["completed"])
	s.Equal(created["created_at"], created["updated_at"])
}

func (s *AppTestSuite) TestUpdateRequiresAuthentication() {
	created := s.createTask("", map[string]any{"title": "Buy milk"})
	path := "/tasks/" + created["id"].(string) + "/"

	w, body := s.do(http.MethodPut, path, "", map[string]any{"completed": true})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("UNAUTHENTICATED", body["error"])

	w, _ = s.do(http.MethodPut, path, "not-a-jwt", map[string]any{"completed": true})
	s.Equal(http.StatusUnauthorized, w.Code)

	access, _ := s.login("member", "pw", false)
	w, updated := s.do(http.MethodPut, path, access, map[string]any{"completed": true})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, updated["completed"])
	s.Equal("Buy milk", updated["title"])
	s.Equal(created["created_at"], updated["created_at"])
	s.NotEqual(created["updated_at"], updated["updated_at"])
}

func (s *AppTestSuite) TestDeletePermissions() {
	created := s.createTask("", map[string]any{"title": "Buy milk"})
	id := created["id"].(string)
	path := "/tasks/" + id + "/"

	w, _ := s.do(http.MethodDelete, path, "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	member, _ := s.login("member", "pw", false)
	w, body := s.do(http.MethodDelete, path, member, nil)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("FORBIDDEN", body["error"])

	w, _ = s.do(http.MethodGet, path, "", nil)
	s.Equal(http.StatusOK, w.Code, "task survives a forbidden delete")

	admin, _ := s.login("admin", "pw", true)
	w, body = s.do(http.MethodDelete, path, admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("Task with ID "+id+" deleted", body["message"])

	w, _ = s.do(http.MethodGet, path, "", nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodDelete, path, admin, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *AppTestSuite) TestFilterScenario() {
	first := s.createTask("", map[string]any{"title": "first"})
	s.createTask("", map[string]any{"title": "second", "completed": true})

	w, body := s.do(http.MethodGet, "/tasks-filter/true/10/1/", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(1), body["total_items"])
	s.Equal(float64(1), body["total_pages"])
	results := body["results"].([]any)
	s.Require().Len(results, 1)
	s.Equal("second", results[0].(map[string]any)["title"])

	w, body = s.do(http.MethodGet, "/taskfilterbycompleted/null/1/1/", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(2), body["total_items"])
	s.Equal(float64(2), body["total_pages"])
	s.Equal(first["id"], body["results"].([]any)[0].(map[string]any)["id"])

	w, body = s.do(http.MethodGet, "/tasks-filter/false/10/2/", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("INVALID_PAGE", body["error"])

	w, _ = s.do(http.MethodGet, "/tasks-filter/false/0/1/", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/tasks-filter/false/abc/1/", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *AppTestSuite) TestFilterHugePageSize() {
	s.createTask("", map[string]any{"title": "first"})
	s.createTask("", map[string]any{"title": "second"})

	w, body := s.do(http.MethodGet, "/tasks-filter/null/9223372036854775807/1/", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(2), body["total_items"])
	s.Equal(float64(1), body["total_pages"])
	s.Len(body["results"], 2)
}

func (s *AppTestSuite) TestListOrderedByCreation() {
	for _, title := range []string{"a", "b", "c"} {
		s.createTask("", map[string]any{"title": title})
	}

	req := httptest.NewRequest(http.MethodGet, "/tasks/", nil)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)

	var tasks []map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &tasks))
	s.Require().Len(tasks, 3)
	s.Equal("a", tasks[0]["title"])
	s.Equal("c", tasks[2]["title"])
}

func (s *AppTestSuite) TestRefresh() {
	access, refresh := s.login("alice", "pw", false)

	w, body := s.do(http.MethodPost, "/token-refresh/", "", map[string]any{"refresh": refresh})
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotEmpty(body["access"])

	w, body = s.do(http.MethodPost, "/tokenrefresh/", "", map[string]any{"refresh": refresh + "tampered"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("TOKEN_ERROR", body["error"])
	s.NotContains(body, "access")

	w, _ = s.do(http.MethodPost, "/token-refresh/", "", map[string]any{"refresh": access})
	s.Equal(http.StatusBadRequest, w.Code)

	w, body = s.do(http.MethodPost, "/token-refresh/", "", map[string]any{})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("VALIDATION_ERROR", body["error"])
}

func (s *AppTestSuite) TestLoginRejectsBadPassword() {
	s.login("alice", "pw", false)

	w, body := s.do(http.MethodPost, "/login/", "", map[string]any{"username": "alice", "password": "wrong"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("INVALID_CREDENTIALS", body["error"])
	s.Equal("Invalid username or password", body["message"])
}

func (s *AppTestSuite) TestUnsupportedMediaType() {
	req := httptest.NewRequest(http.MethodPost, "/tasks/", bytes.NewBufferString(`title=x`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	s.Equal(http.StatusUnsupportedMediaType, w.Code)
}

func TestAppRequireAuthForCreate(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.Secret = "test-secret"
	cfg.Auth.RequireAuthForCreate = true

	a := app.New(cfg)
	require.NoError(t, a.Init(context.Background()))

	req := httptest.NewRequest(http.MethodPost, "/tasks/", bytes.NewBufferString(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAppSQLiteStorage(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.Secret = "test-secret"
	cfg.Repository.Type = config.RepositorySQLite
	cfg.Database.SQLitePath = ":memory:"

	a := app.New(cfg)
	require.NoError(t, a.Init(context.Background()))
	t.Cleanup(func() { _ = a.Stop(context.Background()) })

	req := httptest.NewRequest(http.MethodPost, "/tasks/", bytes.NewBufferString(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
