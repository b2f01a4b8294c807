package web

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/akovalev/go-taskmanager/internal/models"
	"github.com/akovalev/go-taskmanager/internal/services"
)

const testTemplates = `
{{define "register.html"}}register:{{.Error}}{{end}}
{{define "login.html"}}login:{{.Error}}{{end}}
{{define "home.html"}}home:{{len .Tasks}}{{end}}
{{define "add_task.html"}}add:{{.Error}}{{end}}
{{define "edit_task.html"}}edit:{{.Task.Title}}{{end}}
`

type fakeUserService struct {
	registerErr error
	authErr     error
	user        *models.User
	registered  []services.RegisterParams
}

func (f *fakeUserService) Register(_ context.Context, params services.RegisterParams) (*models.User, error) {
	f.registered = append(f.registered, params)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.user, nil
}

func (f *fakeUserService) Authenticate(_ context.Context, _, _ string) (*models.User, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.user, nil
}

type fakeSessionService struct {
	sessions  map[string]*models.Session
	destroyed []string
}

func newFakeSessionService() *fakeSessionService {
	return &fakeSessionService{sessions: make(map[string]*models.Session)}
}

func (f *fakeSessionService) Create(_ context.Context, userID string) (*models.Session, error) {
	now := time.Now()
	session := &models.Session{
		ID:        "sess-" + userID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeSessionService) Get(_ context.Context, sessionID string) (*models.Session, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	if session.Expired(time.Now()) {
		return nil, services.ErrSessionExpired
	}
	return session, nil
}

func (f *fakeSessionService) Destroy(_ context.Context, sessionID string) error {
	f.destroyed = append(f.destroyed, sessionID)
	delete(f.sessions, sessionID)
	return nil
}

type fakeTaskService struct {
	created      []services.CreateTaskParams
	updated      []services.UpdateTaskParams
	completed    [][2]string // (taskID, ownerID)
	deleted      [][2]string
	searchCalls  [][2]string // (ownerID, text)
	filterCalls  [][2]string // (ownerID, status)
	tasks        []*models.Task
	findOneErr   error
	findOneTask  *models.Task
	createErr    error
	completeTask *models.Task
}

func (f *fakeTaskService) Create(_ context.Context, params services.CreateTaskParams) (*models.Task, error) {
	f.created = append(f.created, params)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Task{ID: "task-1", UserID: params.OwnerID, Title: params.Title}, nil
}

func (f *fakeTaskService) ListByOwner(_ context.Context, _ string) ([]*models.Task, error) {
	return f.tasks, nil
}

func (f *fakeTaskService) FindOneOwned(_ context.Context, _, _ string) (*models.Task, error) {
	if f.findOneErr != nil {
		return nil, f.findOneErr
	}
	return f.findOneTask, nil
}

func (f *fakeTaskService) UpdateOwned(_ context.Context, params services.UpdateTaskParams) (*models.Task, error) {
	f.updated = append(f.updated, params)
	return nil, nil
}

func (f *fakeTaskService) CompleteOwned(_ context.Context, taskID, ownerID string) (*models.Task, error) {
	f.completed = append(f.completed, [2]string{taskID, ownerID})
	return f.completeTask, nil
}

func (f *fakeTaskService) DeleteOwned(_ context.Context, taskID, ownerID string) error {
	f.deleted = append(f.deleted, [2]string{taskID, ownerID})
	return nil
}

func (f *fakeTaskService) Search(_ context.Context, ownerID, text string) ([]*models.Task, error) {
	f.searchCalls = append(f.searchCalls, [2]string{ownerID, text})
	return f.tasks, nil
}

func (f *fakeTaskService) FilterByStatus(_ context.Context, ownerID, status string) ([]*models.Task, error) {
	f.filterCalls = append(f.filterCalls, [2]string{ownerID, status})
	return f.tasks, nil
}

func newTestRouter(users services.UserService, sessions services.SessionService, tasks services.TaskService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.New("t").Parse(testTemplates)))

	h := New(zerolog.Nop(), users, sessions, tasks)
	router.GET("/", h.HandleHome)
	router.GET("/register", h.HandleRegisterPage)
	router.POST("/register", h.HandleRegister)
	router.GET("/login", h.HandleLoginPage)
	router.POST("/login", h.HandleLogin)
	router.GET("/logout", h.HandleSessionMiddleware, h.HandleLogout)

	taskRouter := router.Group("/tasks", h.HandleSessionMiddleware)
	taskRouter.GET("", h.HandleListTasks)
	taskRouter.GET("/new", h.HandleNewTaskPage)
	taskRouter.POST("/create", h.HandleCreateTask)
	taskRouter.GET("/search", h.HandleSearchTasks)
	taskRouter.POST("/:id/complete", h.HandleCompleteTask)
	taskRouter.POST("/:id/delete", h.HandleDeleteTask)
	taskRouter.GET("/:id/edit", h.HandleEditTaskPage)
	taskRouter.POST("/:id/update", h.HandleUpdateTask)
	return router
}

func loggedInRequest(t *testing.T, sessions *fakeSessionService, userID, method, target string, form url.Values) *http.Request {
	t.Helper()

	session, err := sessions.Create(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to create fake session: %v", err)
	}

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: session.ID})
	return req
}

func TestSessionMiddleware_RejectsUnauthenticated(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{
			name:   "no cookie",
			cookie: nil,
		},
		{
			name:   "unknown session id",
			cookie: &http.Cookie{Name: sessionCookie, Value: "no-such-session"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &fakeTaskService{}
			router := newTestRouter(&fakeUserService{}, newFakeSessionService(), tasks)

			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
			}
			if loc := w.Header().Get("Location"); loc != "/login" {
				t.Errorf("redirect location = %q, want /login", loc)
			}
			// Pure rejection: the guard must stop the request before
			// any store call.
			if len(tasks.filterCalls) != 0 {
				t.Errorf("task store was called %d times for an unauthenticated request", len(tasks.filterCalls))
			}
		})
	}
}

func TestCreateTask_OwnerComesFromSession(t *testing.T) {
	sessions := newFakeSessionService()
	tasks := &fakeTaskService{}
	router := newTestRouter(&fakeUserService{}, sessions, tasks)

	// A forged user_id form field must be ignored.
	form := url.Values{
		"title":    {"Buy milk"},
		"category": {"Shopping"},
		"user_id":  {"mallory"},
	}
	req := loggedInRequest(t, sessions, "alice", http.MethodPost, "/tasks/create", form)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if len(tasks.created) != 1 {
		t.Fatalf("Create called %d times, want 1", len(tasks.created))
	}
	if got := tasks.created[0].OwnerID; got != "alice" {
		t.Errorf("OwnerID = %q, want %q", got, "alice")
	}
	if got := tasks.created[0].Title; got != "Buy milk" {
		t.Errorf("Title = %q, want %q", got, "Buy milk")
	}
}

func TestUpdateTask_ForwardsRawCompletedValue(t *testing.T) {
	tests := []struct {
		name      string
		completed string
	}{
		{
			name:      "checkbox on",
			completed: "on",
		},
		{
			name:      "absent checkbox",
			completed: "",
		},
		{
			name:      "arbitrary value",
			completed: "true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := newFakeSessionService()
			tasks := &fakeTaskService{}
			router := newTestRouter(&fakeUserService{}, sessions, tasks)

			form := url.Values{"title": {"Buy milk"}}
			if tt.completed != "" {
				form.Set("completed", tt.completed)
			}
			req := loggedInRequest(t, sessions, "alice", http.MethodPost, "/tasks/t1/update", form)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
			}
			if len(tasks.updated) != 1 {
				t.Fatalf("UpdateOwned called %d times, want 1", len(tasks.updated))
			}
			params := tasks.updated[0]
			if params.ID != "t1" || params.OwnerID != "alice" {
				t.Errorf("scoped by (%q, %q), want (t1, alice)", params.ID, params.OwnerID)
			}
			if params.Completed != tt.completed {
				t.Errorf("Completed = %q, want the raw form value %q", params.Completed, tt.completed)
			}
		})
	}
}

func TestCompleteTask_ScopedByOwnerAndNoOpRedirects(t *testing.T) {
	sessions := newFakeSessionService()
	// completeTask stays nil: the service reports a no-op.
	tasks := &fakeTaskService{}
	router := newTestRouter(&fakeUserService{}, sessions, tasks)

	req := loggedInRequest(t, sessions, "alice", http.MethodPost, "/tasks/missing/complete", url.Values{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d (no-op must not be an error)", w.Code, http.StatusSeeOther)
	}
	if len(tasks.completed) != 1 {
		t.Fatalf("CompleteOwned called %d times, want 1", len(tasks.completed))
	}
	if got := tasks.completed[0]; got != [2]string{"missing", "alice"} {
		t.Errorf("CompleteOwned args = %v, want [missing alice]", got)
	}
}

func TestDeleteTask_NoOpIsNotAnError(t *testing.T) {
	sessions := newFakeSessionService()
	tasks := &fakeTaskService{}
	router := newTestRouter(&fakeUserService{}, sessions, tasks)

	req := loggedInRequest(t, sessions, "alice", http.MethodPost, "/tasks/nonexistent/delete", url.Values{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if got := tasks.deleted[0]; got != [2]string{"nonexistent", "alice"} {
		t.Errorf("DeleteOwned args = %v, want [nonexistent alice]", got)
	}
}

func TestSearchTasks_ScopedByOwner(t *testing.T) {
	sessions := newFakeSessionService()
	tasks := &fakeTaskService{}
	router := newTestRouter(&fakeUserService{}, sessions, tasks)

	req := loggedInRequest(t, sessions, "alice", http.MethodGet, "/tasks/search?q=milk", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if len(tasks.searchCalls) != 1 {
		t.Fatalf("Search called %d times, want 1", len(tasks.searchCalls))
	}
	if got := tasks.searchCalls[0]; got != [2]string{"alice", "milk"} {
		t.Errorf("Search args = %v, want [alice milk]", got)
	}
}

func TestListTasks_ForwardsStatusFilter(t *testing.T) {
	sessions := newFakeSessionService()
	tasks := &fakeTaskService{tasks: []*models.Task{{ID: "t1", Title: "Buy milk"}}}
	router := newTestRouter(&fakeUserService{}, sessions, tasks)

	req := loggedInRequest(t, sessions, "alice", http.MethodGet, "/tasks?status=pending", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := tasks.filterCalls[0]; got != [2]string{"alice", "pending"} {
		t.Errorf("FilterByStatus args = %v, want [alice pending]", got)
	}
	if body := w.Body.String(); body != "home:1" {
		t.Errorf("body = %q, want %q", body, "home:1")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := &fakeUserService{registerErr: services.ErrUserAlreadyExists}
	router := newTestRouter(users, newFakeSessionService(), &fakeTaskService{})

	form := url.Values{
		"name":     {"Alice"},
		"email":    {"alice@example.com"},
		"password": {"pw123456"},
	}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	if !strings.Contains(w.Body.String(), "email already exists") {
		t.Errorf("body = %q, want inline duplicate-email message", w.Body.String())
	}
}

func TestLogin_SameMessageForBothFailureKinds(t *testing.T) {
	tests := []struct {
		name    string
		authErr error
	}{
		{
			name:    "unknown user",
			authErr: services.ErrUserNotFound,
		},
		{
			name:    "wrong password",
			authErr: services.ErrUserPasswordMismatch,
		},
	}

	var bodies []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserService{authErr: tt.authErr}
			router := newTestRouter(users, newFakeSessionService(), &fakeTaskService{})

			form := url.Values{
				"email":    {"alice@example.com"},
				"password": {"whatever"},
			}
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			bodies = append(bodies, w.Body.String())
		})
	}

	if len(bodies) == 2 && bodies[0] != bodies[1] {
		t.Errorf("failure kinds render differently (%q vs %q); emails can be enumerated", bodies[0], bodies[1])
	}
}

func TestLogin_EstablishesSessionAndRedirects(t *testing.T) {
	users := &fakeUserService{user: &models.User{ID: "alice", Email: "alice@example.com"}}
	sessions := newFakeSessionService()
	router := newTestRouter(users, sessions, &fakeTaskService{})

	form := url.Values{
		"email":    {"alice@example.com"},
		"password": {"pw123456"},
	}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/tasks" {
		t.Errorf("redirect location = %q, want /tasks", loc)
	}
	if len(sessions.sessions) != 1 {
		t.Fatalf("%d sessions created, want 1", len(sessions.sessions))
	}

	var found bool
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == sessionCookie && cookie.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("no session cookie set on login")
	}
}

func TestLogout_DestroysSessionBeforeRedirect(t *testing.T) {
	sessions := newFakeSessionService()
	router := newTestRouter(&fakeUserService{}, sessions, &fakeTaskService{})

	req := loggedInRequest(t, sessions, "alice", http.MethodGet, "/logout", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("redirect location = %q, want /login", loc)
	}
	if len(sessions.destroyed) != 1 {
		t.Fatalf("%d sessions destroyed, want 1", len(sessions.destroyed))
	}
	if len(sessions.sessions) != 0 {
		t.Error("session survived logout")
	}
}

func TestEditTaskPage_NotOwnedRenders404(t *testing.T) {
	sessions := newFakeSessionService()
	tasks := &fakeTaskService{findOneErr: services.ErrTaskNotFound}
	router := newTestRouter(&fakeUserService{}, sessions, tasks)

	req := loggedInRequest(t, sessions, "bob", http.MethodGet, "/tasks/t1/edit", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestCreateTask_EmptyTitleRerendersForm(t *testing.T) {
	sessions := newFakeSessionService()
	tasks := &fakeTaskService{createErr: services.ErrEmptyTitle}
	router := newTestRouter(&fakeUserService{}, sessions, tasks)

	req := loggedInRequest(t, sessions, "alice", http.MethodPost, "/tasks/create", url.Values{"title": {""}})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "title must not be empty") {
		t.Errorf("body = %q, want inline validation message", w.Body.String())
	}
}
