package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/oauth"
	"github.com/mbolis/formdesk/httpx"
	"github.com/mbolis/formdesk/log"
	"github.com/mbolis/formdesk/model"
)

type contextKey struct{ name string }

var identityKey = &contextKey{"identity"}

func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the caller stored by Authenticate, if any.
func IdentityFrom(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(model.Identity)
	return id, ok
}

// Authenticate checks the bearer token of the request and stores the caller's
// identity in the request context. Requests without a valid token are answered
// with 401 before reaching next.
func Authenticate(secret string) func(http.Handler) http.Handler {
	authorize := oauth.Authorize(secret, nil)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// oauth answers rejected tokens in its own format, so run it against a buffer
			var authorized *http.Request
			probe := authorize(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				authorized = r
			}))
			probe.ServeHTTP(httpx.NewResponseBuffer(), r)
			if authorized == nil {
				httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "auth.token", "Authentication required")
				return
			}

			id, ok := identityFromClaims(authorized.Context())
			if !ok {
				httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "auth.claims", "Authentication required")
				return
			}

			next.ServeHTTP(w, authorized.WithContext(WithIdentity(authorized.Context(), id)))
		})
	}
}

func identityFromClaims(ctx context.Context) (model.Identity, bool) {
	claims, ok := ctx.Value(oauth.ClaimsContext).(map[string]string)
	if !ok {
		return model.Identity{}, false
	}

	id := model.Identity{
		UserID:   claims[httpx.ClaimUserID],
		Username: claims[httpx.ClaimUsername],
		Role:     model.Role(claims[httpx.ClaimRole]),
	}
	if id.UserID == "" || !id.Role.Valid() {
		return model.Identity{}, false
	}
	return id, true
}

// Admin middleware to check for the 'admin' role of an authenticated caller.
func Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "auth.identity", "Authentication required")
			return
		}
		if !id.IsAdmin() {
			httpx.LogStatusMsg(w, r, http.StatusForbidden, log.DebugLevel, "auth.admin", "Admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
