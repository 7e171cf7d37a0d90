package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"time-planner/internal/service"
	"time-planner/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := testutil.OpenStore(t)
	log := zerolog.Nop()
	svc := Services{
		Accounts:   service.NewAccountService(store, store.Accounts, service.NewMigrator(store, log), bcrypt.MinCost, log),
		Categories: service.NewCategoryService(store),
		Templates:  service.NewTemplateService(store),
		Tasks:      service.NewTaskService(store),
		Agenda:     service.NewAgendaService(store),
		Stats:      service.NewStatsService(store),
	}
	return NewServer(svc, time.UTC, log)
}

func do(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func register(t *testing.T, s *Server, email string) string {
	t.Helper()
	w := do(t, s, http.MethodPost, "/api/auth/register", "", gin.H{"email": email, "password": "Str0ng!pass"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", w.Code, w.Body.String())
	}
	var resp sessionResponse
	decode(t, w, &resp)
	return resp.Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRegisterStatusCodes(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "dup@example.com")

	tests := []struct {
		name   string
		body   gin.H
		status int
		code   string
	}{
		{
			name:   "duplicate email",
			body:   gin.H{"email": "dup@example.com", "password": "Str0ng!pass"},
			status: http.StatusConflict,
			code:   "conflict",
		},
		{
			name:   "weak password",
			body:   gin.H{"email": "weak@example.com", "password": "weak"},
			status: http.StatusBadRequest,
			code:   "validation_failed",
		},
		{
			name: "migration fails",
			body: gin.H{
				"email":    "broken@example.com",
				"password": "Str0ng!pass",
				"migrationData": gin.H{
					"categories": []gin.H{{"id": "c1", "name": "Work", "color": "#FF0000"}},
					"tasks":      []gin.H{{"title": "x", "start": "soon", "duration": 1, "categoryId": "c1"}},
				},
			},
			status: http.StatusUnprocessableEntity,
			code:   "migration_failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/auth/register", "", tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			var resp ErrorResponse
			decode(t, w, &resp)
			if resp.Code != tt.code {
				t.Fatalf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}

	// The rolled back registration left the email free.
	register(t, s, "broken@example.com")
}

func TestRegisterWithMigrationData(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{
		"email":    "local@example.com",
		"password": "Str0ng!pass",
		"migrationData": gin.H{
			"categories": []gin.H{{"id": "c1", "name": "Work", "color": "#FF0000"}},
			"templates":  []gin.H{{"id": "t1", "title": "Focus", "duration": 2, "categoryId": "c1"}},
			"tasks": []gin.H{
				{"title": "x", "start": "2026-05-04T09:00:00Z", "duration": 1, "categoryId": "c1", "templateId": "t1"},
				{"title": "y", "start": "2026-05-04T12:00:00Z", "duration": 1, "categoryId": "gone"},
			},
		},
	}
	w := do(t, s, http.MethodPost, "/api/auth/register", "", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp sessionResponse
	decode(t, w, &resp)
	want := service.MigrationReport{Categories: 1, Templates: 1, Tasks: 1, SkippedTasks: 1}
	if resp.Migration == nil || *resp.Migration != want {
		t.Fatalf("migration = %+v, want %+v", resp.Migration, want)
	}

	w = do(t, s, http.MethodGet, "/api/tasks?from=2026-05-04&to=2026-05-04", resp.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var tasks []taskResponse
	decode(t, w, &tasks)
	if len(tasks) != 1 || tasks[0].Title != "Focus" || tasks[0].CategoryName != "Work" {
		t.Fatalf("tasks = %+v", tasks)
	}
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, token := range []string{"", "not-a-token"} {
		w := do(t, s, http.MethodGet, "/api/categories", token, nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: status = %d", token, w.Code)
		}
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := register(t, s, "tasks@example.com")

	w := do(t, s, http.MethodPost, "/api/categories", token, gin.H{"name": "Work", "color": "#336699"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category = %d: %s", w.Code, w.Body.String())
	}
	var category categoryResponse
	decode(t, w, &category)

	newTask := func(start string, duration float64) *httptest.ResponseRecorder {
		return do(t, s, http.MethodPost, "/api/tasks", token, gin.H{
			"title": "block", "start": start, "duration": duration, "categoryId": category.ID,
		})
	}

	w = newTask("2026-05-04T09:00:00Z", 1)
	if w.Code != http.StatusCreated {
		t.Fatalf("create task = %d: %s", w.Code, w.Body.String())
	}
	var first taskResponse
	decode(t, w, &first)
	if !first.End.Equal(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %s", first.End)
	}

	if w = newTask("2026-05-04T09:30:00Z", 0.5); w.Code != http.StatusConflict {
		t.Fatalf("overlap status = %d, want 409", w.Code)
	}
	if w = newTask("2026-05-04T10:00:00Z", 1); w.Code != http.StatusCreated {
		t.Fatalf("touching status = %d, want 201", w.Code)
	}
	if w = newTask("2026-05-04T12:00:00Z", 0); w.Code != http.StatusBadRequest {
		t.Fatalf("zero duration status = %d, want 400", w.Code)
	}

	w = do(t, s, http.MethodPut, "/api/tasks/"+first.ID.String(), token, gin.H{
		"title": "renamed", "start": "2026-05-04T09:00:00Z", "duration": 1, "categoryId": category.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update own interval = %d: %s", w.Code, w.Body.String())
	}

	if w = do(t, s, http.MethodDelete, "/api/tasks/"+first.ID.String(), token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w = do(t, s, http.MethodDelete, "/api/tasks/"+first.ID.String(), token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d, want 404", w.Code)
	}
	if w = do(t, s, http.MethodDelete, "/api/tasks/not-a-uuid", token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("bad id delete = %d, want 404", w.Code)
	}

	w = do(t, s, http.MethodDelete, "/api/categories/"+category.ID.String(), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete category = %d", w.Code)
	}
	var deleted deleteCategoryResponse
	decode(t, w, &deleted)
	if deleted.Fallback.Name != "Other" || deleted.ReassignedTasks != 1 {
		t.Fatalf("delete result = %+v", deleted)
	}
	if w = do(t, s, http.MethodDelete, "/api/categories/"+deleted.Fallback.ID.String(), token, nil); w.Code != http.StatusConflict {
		t.Fatalf("delete fallback = %d, want 409", w.Code)
	}

	w = do(t, s, http.MethodGet, "/api/stats?year=2026", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats = %d", w.Code)
	}
	var stats service.Stats
	decode(t, w, &stats)
	if stats.Monthly[4] != 1 {
		t.Fatalf("monthly = %v", stats.Monthly)
	}
}

func TestCrossAccountAccessIsNotFound(t *testing.T) {
	s := newTestServer(t)
	alice := register(t, s, "alice@example.com")
	bob := register(t, s, "bob@example.com")

	w := do(t, s, http.MethodPost, "/api/categories", alice, gin.H{"name": "Private", "color": "#000000"})
	var category categoryResponse
	decode(t, w, &category)

	w = do(t, s, http.MethodPut, "/api/categories/"+category.ID.String(), bob, gin.H{"name": "Mine", "color": "#000000"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
