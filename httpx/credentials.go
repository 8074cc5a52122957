package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/oauth"
	"github.com/mbolis/formdesk/config"
	"github.com/mbolis/formdesk/database"
	"github.com/mbolis/formdesk/model"
)

// Claim names carried by every access token.
const (
	ClaimUserID   = "user_id"
	ClaimUsername = "username"
	ClaimRole     = "role"
)

// CredentialStore is the part of the store the token server needs.
type CredentialStore interface {
	Authenticate(ctx context.Context, username, password string) (model.User, error)
	UserByUsername(ctx context.Context, username string) (model.User, error)
	StoreToken(ctx context.Context, username, tokenID, refreshTokenID string) error
	ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) error
}

var _ CredentialStore = (*database.Store)(nil)

type credentialsVerifier struct {
	store CredentialStore
}

func CredentialsVerifier(store CredentialStore) oauth.CredentialsVerifier {
	return &credentialsVerifier{store}
}

func NewBearerServer(store CredentialStore, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, CredentialsVerifier(store), nil)
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	_, err := cs.store.Authenticate(r.Context(), username, password)
	return err
}

func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.store.StoreToken(context.Background(), credential, tokenID, refreshTokenID)
}

func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.store.ConsumeToken(context.Background(), credential, tokenID, refreshTokenID)
}

// AddClaims reads the user afresh, so a refreshed token picks up role changes.
func (cs *credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	u, err := cs.store.UserByUsername(r.Context(), credential)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		ClaimUserID:   u.ID,
		ClaimUsername: u.Username,
		ClaimRole:     string(u.Role),
	}, nil
}

func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}

func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
