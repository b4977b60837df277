package cache

import (
	"fmt"
	"time"

	"github.com/itlusions/itlc/pkg/itlc/auth"
)

// Entry is one cached token set keyed by a principal identifier. The
// realm and issuer fields are only populated for the interactive Context
// entry.
type Entry struct {
	Key          string    `json:"key"`
	Realm        string    `json:"realm,omitempty"`
	IssuerURL    string    `json:"issuer_url,omitempty"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	CachedAt     time.Time `json:"cached_at"`
}

// NewEntry builds an Entry from a TokenSet.
func NewEntry(key string, ts auth.TokenSet, now time.Time) Entry {
	return Entry{
		Key:          key,
		AccessToken:  ts.AccessToken,
		RefreshToken: ts.RefreshToken,
		IDToken:      ts.IDToken,
		TokenType:    ts.TokenType,
		Scope:        ts.Scope,
		ExpiresAt:    ts.ExpiresAt,
		CachedAt:     now,
	}
}

// TokenSet reconstructs the token set a read entry carries.
func (e Entry) TokenSet() auth.TokenSet {
	return auth.TokenSet{
		AccessToken:  e.AccessToken,
		RefreshToken: e.RefreshToken,
		IDToken:      e.IDToken,
		TokenType:    e.TokenType,
		Scope:        e.Scope,
		ExpiresAt:    e.ExpiresAt,
	}
}

func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// NearExpiry reports whether the entry expires within window.
func (e Entry) NearExpiry(now time.Time, window time.Duration) bool {
	return !e.ExpiresAt.After(now.Add(window))
}

// Metadata is the token-redacted view of an entry, safe to print.
type Metadata struct {
	Key       string    `json:"key"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	CachedAt  time.Time `json:"cached_at"`
}

func (e Entry) Metadata() Metadata {
	return Metadata{
		Key:       e.Key,
		TokenType: e.TokenType,
		ExpiresAt: e.ExpiresAt,
		CachedAt:  e.CachedAt,
	}
}

// Store is a keyed token store. Reads never return expired entries: an
// expired entry is evicted by the read that finds it.
type Store interface {
	Save(key string, entry Entry) error
	// Get returns the entry and true only when an unexpired entry exists.
	Get(key string) (Entry, bool, error)
	Delete(key string) error
	// List returns redacted metadata for every entry, expired or not.
	List() ([]Metadata, error)
	Clear() error
}

// CacheError wraps a backend failure. Callers at the flow boundary treat
/// it as non-fatal: the authentication result is still usable, only the
// caching side effect is lost.
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("token cache %s for key %q failed: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("token cache %s failed: %v", e.Op, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }
