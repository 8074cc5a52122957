package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mbolis/formdesk/app"
	"github.com/mbolis/formdesk/config"
	"github.com/mbolis/formdesk/database"
	"github.com/mbolis/formdesk/httpx"
	"github.com/mbolis/formdesk/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	store *database.Store
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	log.SetLevel(log.ErrorLevel)

	cfg := config.Config{
		DBUrl:          filepath.Join(t.TempDir(), "test.sqlite"),
		TokenSecret:    "test-secret",
		TokenTTL:       time.Hour,
		RequestTimeout: 10 * time.Second,
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	store := database.NewStore(db)
	t.Cleanup(func() { store.Close() })

	_, err = store.EnsureAdmin(context.Background(), "admin", "admin@example.com", "adminpass")
	require.NoError(t, err)

	srv := httptest.NewServer(Wire(app.App{
		Store:  store,
		Bearer: httpx.NewBearerServer(store, cfg),
		Config: cfg,
	}))
	t.Cleanup(srv.Close)

	return testServer{Server: srv, store: store}
}

func (ts testServer) do(t *testing.T, method, path, auth string, body any) (int, map[string]any) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			payload.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&payload).Encode(body))
		}
	}

	req, err := http.NewRequest(method, ts.URL+path, &payload)
	require.NoError(t, err)
	req.Header.Set("content-type", "application/json")
	if auth != "" {
		req.Header.Set("authorization", auth)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	m, _ := out.(map[string]any)
	if m == nil {
		m = map[string]any{"list": out}
	}
	return resp.StatusCode, m
}

func (ts testServer) signin(t *testing.T, username, password string) (access, refresh string) {
	t.Helper()
	status, body := ts.do(t, "POST", "/api/auth/signin", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status, body)
	return body["access_token"].(string), body["refresh_token"].(string)
}

func bearer(token string) string { return "Bearer " + token }

func TestSigninAndRefresh(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, "POST", "/api/auth/signin", "", map[string]string{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", body["error"])

	status, _ = ts.do(t, "POST", "/api/auth/signin", "", "{")
	assert.Equal(t, http.StatusBadRequest, status)

	_, refresh := ts.signin(t, "admin", "adminpass")

	status, body = ts.do(t, "POST", "/api/auth/refresh", "Refresh "+refresh, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["access_token"])

	// refresh tokens are single use
	status, _ = ts.do(t, "POST", "/api/auth/refresh", "Refresh "+refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.do(t, "POST", "/api/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProtectedRoutes(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, "GET", "/api/admin/forms", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authentication required", body["error"])

	status, _ = ts.do(t, "GET", "/api/user/my-form", bearer("garbage"), nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	admin, _ := ts.signin(t, "admin", "adminpass")
	status, _ = ts.do(t, "POST", "/api/admin/users", bearer(admin), map[string]string{
		"username": "ada", "email": "ada@example.com", "password": "adapass",
	})
	require.Equal(t, http.StatusCreated, status)

	user, _ := ts.signin(t, "ada", "adapass")
	status, body = ts.do(t, "GET", "/api/admin/dashboard", bearer(user), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Admin access required", body["error"])
}

func TestAssignAndSubmitFlow(t *testing.T) {
	ts := newTestServer(t)
	admin, _ := ts.signin(t, "admin", "adminpass")

	status, body := ts.do(t, "POST", "/api/admin/users", bearer(admin), map[string]string{
		"username": "ada", "email": "ada@example.com", "password": "adapass",
	})
	require.Equal(t, http.StatusCreated, status)
	adaID := body["user"].(map[string]any)["id"].(string)

	status, body = ts.do(t, "POST", "/api/admin/users", bearer(admin), map[string]string{
		"username": "ada", "email": "other@example.com", "password": "adapass",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username or email already exists", body["error"])

	form := map[string]any{
		"title":      "Intake",
		"assignedTo": adaID,
		"fields": []map[string]any{
			{"fieldName": "name", "fieldType": "text", "label": "Name", "required": true},
			{"fieldName": "age", "fieldType": "number", "label": "Age", "validation": map[string]any{"min": 0}},
			{"fieldName": "notes", "fieldType": "textarea", "label": "Notes"},
		},
	}
	status, body = ts.do(t, "POST", "/api/admin/forms", bearer(admin), form)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "Form created successfully", body["message"])
	created := body["form"].(map[string]any)
	formID := created["id"].(string)
	assert.Equal(t, "ada", created["assignedTo"].(map[string]any)["username"])

	status, body = ts.do(t, "POST", "/api/admin/forms", bearer(admin), form)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User already has an active form assigned", body["error"])

	status, body = ts.do(t, "GET", "/api/admin/forms/not-an-id", bearer(admin), nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = ts.do(t, "GET", "/api/admin/forms/00000000-0000-4000-8000-000000000000", bearer(admin), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Form not found", body["error"])

	user, _ := ts.signin(t, "ada", "adapass")

	status, body = ts.do(t, "GET", "/api/user/my-form", bearer(user), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["hasForm"])
	assert.Equal(t, false, body["hasSubmitted"])

	status, body = ts.do(t, "POST", "/api/user/submit-form", bearer(user), map[string]any{
		"formId":    formID,
		"responses": []map[string]any{{"fieldName": "notes", "value": "hi"}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Name is required", body["error"])

	status, body = ts.do(t, "POST", "/api/user/submit-form", bearer(user), map[string]any{
		"formId": formID,
		"responses": []map[string]any{
			{"fieldName": "name", "value": "Ada"},
			{"fieldName": "age", "value": 29},
			{"fieldName": "notes", "value": ""},
		},
	})
	require.Equal(t, http.StatusCreated, status, body)
	answers := body["response"].(map[string]any)["responses"].([]any)
	assert.Len(t, answers, 2)
	assert.Equal(t, float64(29), answers[1].(map[string]any)["value"])

	status, body = ts.do(t, "POST", "/api/user/submit-form", bearer(user), map[string]any{
		"formId":    formID,
		"responses": []map[string]any{{"fieldName": "name", "value": "Again"}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You have already submitted this form", body["error"])

	status, body = ts.do(t, "GET", "/api/user/my-form", bearer(user), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["hasSubmitted"])

	status, body = ts.do(t, "GET", "/api/user/my-responses", bearer(user), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["list"], 1)

	status, body = ts.do(t, "GET", "/api/admin/dashboard", bearer(admin), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["stats"].(map[string]any)["totalResponses"])

	status, body = ts.do(t, "DELETE", "/api/admin/users/"+adaID, bearer(admin), nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = ts.do(t, "DELETE", "/api/admin/forms/"+formID, bearer(admin), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["deletedResponses"])

	status, body = ts.do(t, "GET", "/api/user/my-form", bearer(user), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["hasForm"])
	assert.Equal(t, "No form assigned", body["message"])
}

func TestSubmitToForeignForm(t *testing.T) {
	ts := newTestServer(t)
	admin, _ := ts.signin(t, "admin", "adminpass")

	ids := map[string]string{}
	for _, name := range []string{"ada", "bob"} {
		status, body := ts.do(t, "POST", "/api/admin/users", bearer(admin), map[string]string{
			"username": name, "email": name + "@example.com", "password": name + "pass",
		})
		require.Equal(t, http.StatusCreated, status)
		ids[name] = body["user"].(map[string]any)["id"].(string)
	}

	status, body := ts.do(t, "POST", "/api/admin/forms", bearer(admin), map[string]any{
		"title":      "Intake",
		"assignedTo": ids["ada"],
		"fields":     []map[string]any{{"fieldName": "name", "fieldType": "text", "label": "Name"}},
	})
	require.Equal(t, http.StatusCreated, status)
	formID := body["form"].(map[string]any)["id"].(string)

	bob, _ := ts.signin(t, "bob", "bobpass")
	status, body = ts.do(t, "POST", "/api/user/submit-form", bearer(bob), map[string]any{
		"formId":    formID,
		"responses": []map[string]any{{"fieldName": "name", "value": "Bob"}},
	})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Form not found or not assigned to you", body["error"])
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, "GET", "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Route not found", body["error"])
}
