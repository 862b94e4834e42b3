package core

import (
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

type Authenticator interface {
	setAuthHeader(headers *http.Header) error
	String() string
}

// createAuthenticator creates a new Authenticator instance based on the provided Config.
// Priority: TokenSource > ApiKey
func createAuthenticator(config *Config) (Authenticator, error) {
	if config.TokenSource != nil {
		return NewTokenAuthenticator(config.TokenSource), nil
	}
	if config.ApiKey != "" {
		return &ApiKeyAuthenticator{ApiKey: config.ApiKey}, nil
	}
	return nil, fmt.Errorf("createAuthenticator: neither api key nor token source are provided")
}

// ApiKeyAuthenticator sends a static key in the api-key header.
type ApiKeyAuthenticator struct {
	ApiKey string
}

func (a *ApiKeyAuthenticator) setAuthHeader(headers *http.Header) error {
	headers.Set(HeaderApiKey, a.ApiKey)
	return nil
}

func (a *ApiKeyAuthenticator) String() string {
	return "ApiKeyAuthenticator"
}

// TokenAuthenticator sends a bearer token obtained from an oauth2.TokenSource.
// Tokens are cached until they expire.
type TokenAuthenticator struct {
	source oauth2.TokenSource
}

func NewTokenAuthenticator(source oauth2.TokenSource) *TokenAuthenticator {
	return &TokenAuthenticator{source: oauth2.ReuseTokenSource(nil, source)}
}

func (a *TokenAuthenticator) setAuthHeader(headers *http.Header) error {
	token, err := a.source.Token()
	if err != nil {
		return fmt.Errorf("failed to obtain access token: %w", err)
	}
	tokenType := token.Type()
	if tokenType == "" {
		tokenType = AuthTypeBearer
	}
	headers.Set(HeaderAuthorization, tokenType+" "+token.AccessToken)
	return nil
}

func (a *TokenAuthenticator) String() string {
	return "TokenAuthenticator"
}
