package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskboard-service/middleware"
	"taskboard-service/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Validation failures never reach the database, so the services can be built
// with nil collections.

func newTestUserHandler() *UserHandler {
	jwtService := services.NewJWTService("test-secret", time.Hour)
	return NewUserHandler(services.NewUserService(nil, jwtService, nil), jwtService, false)
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := middleware.ContextWithUserID(req.Context(), primitive.NewObjectID())
	return req.WithContext(ctx)
}

func TestRegisterRejectsInvalidPayload(t *testing.T) {
	h := newTestUserHandler()

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"missing email", `{"name": "Ana", "password": "secret123"}`},
		{"bad email", `{"name": "Ana", "email": "not-an-email", "password": "secret123"}`},
		{"short password", `{"name": "Ana", "email": "ana@example.com", "password": "abc"}`},
		{"short name", `{"name": "A", "email": "ana@example.com", "password": "secret123"}`},
		{"bad role", `{"name": "Ana", "email": "ana@example.com", "password": "secret123", "role": "admin"}`},
		{"unknown field", `{"name": "Ana", "email": "ana@example.com", "password": "secret123", "isAdmin": true}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			h.Register(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "message")
		})
	}
}

func TestLoginRejectsInvalidPayload(t *testing.T) {
	h := newTestUserHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(`{"email": "ana@example.com"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutClearsSessionCookie(t *testing.T) {
	h := newTestUserHandler()

	req := authedRequest(http.MethodPost, "/api/users/logout", "")
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == middleware.SessionCookieName {
			found = true
			assert.Empty(t, c.Value)
			assert.Negative(t, c.MaxAge)
		}
	}
	assert.True(t, found, "session cookie should be cleared")
}

func TestCreateProjectRequiresAuthentication(t *testing.T) {
	h := NewProjectHandler(services.NewProjectService(nil, nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(`{"name": "Board", "description": "desc"}`))
	rec := httptest.NewRecorder()

	h.CreateProject(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateProjectRejectsInvalidPayload(t *testing.T) {
	h := NewProjectHandler(services.NewProjectService(nil, nil, nil))

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"description": "desc"}`},
		{"missing description", `{"name": "Board"}`},
		{"bad member id", `{"name": "Board", "description": "desc", "members": ["nope"]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := authedRequest(http.MethodPost, "/api/projects", tc.body)
			rec := httptest.NewRecorder()

			h.CreateProject(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateTaskRejectsInvalidPayload(t *testing.T) {
	h := NewTaskHandler(services.NewTaskService(nil, nil, nil))

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"projectId": "507f1f77bcf86cd799439011"}`},
		{"missing project", `{"title": "Fix the build"}`},
		{"bad project id", `{"title": "Fix the build", "projectId": "nope"}`},
		{"bad assignee id", `{"title": "Fix the build", "projectId": "507f1f77bcf86cd799439011", "assignedTo": "nope"}`},
		{"bad priority", `{"title": "Fix the build", "projectId": "507f1f77bcf86cd799439011", "priority": "urgent"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := authedRequest(http.MethodPost, "/api/tasks", tc.body)
			rec := httptest.NewRecorder()

			h.CreateTask(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetTasksByProjectRequiresProjectID(t *testing.T) {
	h := NewTaskHandler(services.NewTaskService(nil, nil, nil))

	req := authedRequest(http.MethodGet, "/api/tasks", "")
	rec := httptest.NewRecorder()

	h.GetTasksByProject(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateTaskStatusRejectsMissingStatus(t *testing.T) {
	h := NewTaskHandler(services.NewTaskService(nil, nil, nil))

	r := mux.NewRouter()
	r.HandleFunc("/api/tasks/{taskId}/status", h.UpdateTaskStatus).Methods(http.MethodPatch)

	req := authedRequest(http.MethodPatch, "/api/tasks/507f1f77bcf86cd799439011/status", `{}`)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateTaskRejectsBadAssigneeID(t *testing.T) {
	h := NewTaskHandler(services.NewTaskService(nil, nil, nil))

	r := mux.NewRouter()
	r.HandleFunc("/api/tasks/{taskId}", h.UpdateTask).Methods(http.MethodPut)

	req := authedRequest(http.MethodPut, "/api/tasks/507f1f77bcf86cd799439011", `{"assignedTo": "nope"}`)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
