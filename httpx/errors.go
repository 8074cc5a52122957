package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/formdesk/forms"
	"github.com/mbolis/formdesk/log"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorBody{Error: msg})
}

// Will log an error, and send an HTTP response with status 500 and a generic message
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	writeError(w, r, http.StatusInternalServerError, "Server error")
}

// Will log a debug message, and send an HTTP response with status 404 and the given message
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, msg string) {
	log.Debugf("%s: not found", code)
	writeError(w, r, http.StatusNotFound, msg)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string) {
	log.Log(level, code)
	writeError(w, r, status, http.StatusText(status))
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	writeError(w, r, status, errMsg)
}

// StatusOf maps an error to the HTTP status it is reported with.
// Conflicts are reported as 400, like any other rejected request.
func StatusOf(err error) int {
	var fe *forms.Error
	if !errors.As(err, &fe) {
		return http.StatusInternalServerError
	}
	switch fe.Kind {
	case forms.KindInput, forms.KindRule, forms.KindConflict:
		return http.StatusBadRequest
	case forms.KindNotFound:
		return http.StatusNotFound
	case forms.KindAuth:
		if fe.Code == forms.ErrCodeForbidden {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// LogError reports err with the status of its kind. Store failures and unknown errors
// are logged at ERROR and hidden behind a generic message; the rest go to DEBUG and
// carry their own message.
func LogError(w http.ResponseWriter, r *http.Request, code string, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		LogInternalError(w, r, code, err)
		return
	}

	var fe *forms.Error
	errors.As(err, &fe)
	log.WithFields(log.Fields{
		"status": status,
		"kind":   fe.Kind,
		"code":   fe.Code,
		"field":  fe.Field,
	}).Debugf("%s: %s", code, fe.Message)
	writeError(w, r, status, fe.Message)
}
