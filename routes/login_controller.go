package routes

import (
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/mbolis/formdesk/app"
	"github.com/mbolis/formdesk/httpx"
	"github.com/mbolis/formdesk/log"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

type signinRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signin exchanges a username and password for an access and refresh token pair.
func Signin(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body signinRequest
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "Invalid request body")
			return
		}
		if body.Username == "" || body.Password == "" {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "signin.credentials", "Username and password are required")
			return
		}

		grant := url.Values{
			"grant_type": {"password"},
			"username":   {body.Username},
			"password":   {body.Password},
		}
		resp, err := requestToken(app, r, grant)
		if err != nil {
			httpx.LogInternalError(w, r, "signin.new_request", err)
			return
		}
		if resp.Status() != http.StatusOK {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "signin.grant", "Invalid credentials")
			return
		}
		log.Infof("signin: %s", body.Username)
		resp.Flush(w)
	}
}

// Refresh trades the refresh token in an `Authorization: Refresh <token>` header for a
// new token pair. Each refresh token works once.
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "refresh.token", "Refresh token required")
			return
		}

		grant := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {match[1]},
		}
		resp, err := requestToken(app, r, grant)
		if err != nil {
			httpx.LogInternalError(w, r, "refresh.new_request", err)
			return
		}
		if resp.Status() != http.StatusOK {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "refresh.grant", "Invalid refresh token")
			return
		}
		resp.Flush(w)
	}
}

// requestToken runs grant through the bearer server as a form-encoded token request.
func requestToken(app app.App, r *http.Request, grant url.Values) (httpx.ResponseBuffer, error) {
	body := grant.Encode()
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, "/", strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(body)))

	resp := httpx.NewResponseBuffer()
	app.Bearer.UserCredentials(resp, req)
	return resp, nil
}
