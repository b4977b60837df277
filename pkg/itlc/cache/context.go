package cache

import (
	"time"

	"github.com/itlusions/itlc/pkg/itlc/auth"
)

// ContextKey is the reserved store key holding the single interactive
// login. At most one Context exists per installation: login overwrites
// it, logout deletes it.
const ContextKey = "current-context"

// ContextStore persists the current interactive identity through any
// Store backend.
type ContextStore struct {
	store Store
}

func NewContextStore(store Store) *ContextStore {
	return &ContextStore{store: store}
}

// Save overwrites the current Context with a fresh login result.
func (c *ContextStore) Save(realm, issuerURL string, ts auth.TokenSet) error {
	entry := NewEntry(ContextKey, ts, time.Now())
	entry.Realm = realm
	entry.IssuerURL = issuerURL
	return c.store.Save(ContextKey, entry)
}

// Current returns the persisted Context, false when none exists or the
// stored token set has expired.
func (c *ContextStore) Current() (Entry, bool, error) {
	return c.store.Get(ContextKey)
}

// Clear removes the Context. Clearing an absent Context is not an error.
func (c *ContextStore) Clear() error {
	return c.store.Delete(ContextKey)
}
