package auth

import (
	"context"
	"strings"
	"time"

	"github.com/Nerzal/gocloak/v13"

	"github.com/itlusions/itlc/pkg/itlc/config"
)

// ServiceAccountClient authenticates automation principals against a
// Keycloak realm with the client-credentials grant and can introspect
// tokens at the realm's introspection endpoint.
type ServiceAccountClient struct {
	realm string
	kc    *gocloak.GoCloak
}

func NewServiceAccountClient(cfg config.Config) *ServiceAccountClient {
	return &ServiceAccountClient{
		realm: cfg.Realm,
		kc:    gocloak.NewClient(strings.TrimRight(cfg.KeycloakURL, "/")),
	}
}

// Login obtains a TokenSet for the given confidential client.
func (s *ServiceAccountClient) Login(ctx context.Context, clientID, clientSecret string) (*TokenSet, error) {
	jwt, err := s.kc.LoginClient(ctx, clientID, clientSecret, s.realm)
	if err != nil {
		return nil, &TokenExchangeError{
			Endpoint: "realm " + s.realm + " token endpoint",
			Detail:   "client credentials grant failed",
			Err:      err,
		}
	}

	ts := TokenSet{
		AccessToken:  jwt.AccessToken,
		RefreshToken: jwt.RefreshToken,
		IDToken:      jwt.IDToken,
		TokenType:    jwt.TokenType,
		Scope:        jwt.Scope,
	}
	if ts.AccessToken == "" {
		return nil, &TokenExchangeError{
			Endpoint: "realm " + s.realm + " token endpoint",
			Detail:   "response missing access_token",
		}
	}
	if ts.TokenType == "" {
		ts.TokenType = "Bearer"
	}
	expiresIn := time.Duration(jwt.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	ts.ExpiresAt = time.Now().Add(expiresIn)
	return &ts, nil
}

// Introspect asks the realm whether a token is active. Requires the
// credentials of a confidential client permitted to introspect.
func (s *ServiceAccountClient) Introspect(ctx context.Context, token, clientID, clientSecret string) (*gocloak.IntroSpectTokenResult, error) {
	return s.kc.RetrospectToken(ctx, token, clientID, clientSecret, s.realm)
}
