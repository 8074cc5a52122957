package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mbolis/formdesk/forms"
	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{forms.NewInputError(forms.ErrCodeInvalidInput, "bad"), http.StatusBadRequest},
		{forms.NewRuleError(forms.ErrCodeRequiredFieldMissing, "name", "Name is required"), http.StatusBadRequest},
		{forms.NewConflictError(forms.ErrCodeAlreadySubmitted, "again"), http.StatusBadRequest},
		{forms.NewNotFoundError(forms.ErrCodeFormNotFound, "Form not found"), http.StatusNotFound},
		{forms.NewAuthError(forms.ErrCodeUnauthenticated, "who"), http.StatusUnauthorized},
		{forms.NewAuthError(forms.ErrCodeForbidden, "no"), http.StatusForbidden},
		{forms.NewStoreError(errors.New("disk")), http.StatusInternalServerError},
		{errors.New("anything"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, StatusOf(tt.err), tt.err.Error())
	}
}

func TestLogErrorHidesStoreFailures(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	LogError(w, r, "test", forms.NewStoreError(errors.New("database is locked")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error": "Server error"}`, w.Body.String())

	w = httptest.NewRecorder()
	LogError(w, r, "test", forms.NewConflictError(forms.ErrCodeActiveFormExists, "User already has an active form assigned"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error": "User already has an active form assigned"}`, w.Body.String())
}

func TestResponseBuffer(t *testing.T) {
	buf := NewResponseBuffer()
	buf.Header().Set("x-test", "1")
	buf.Write([]byte(`{"ok":true}`))
	assert.Equal(t, http.StatusOK, buf.Status())

	w := httptest.NewRecorder()
	assert.NoError(t, buf.Flush(w))
	assert.Equal(t, "1", w.Header().Get("x-test"))
	assert.Equal(t, `{"ok":true}`, w.Body.String())

	empty := NewResponseBuffer()
	assert.Zero(t, empty.Status())
	assert.Empty(t, empty.Body())
}
