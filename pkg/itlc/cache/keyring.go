package cache

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "com.itlusions.itlc"
	keyringIndex   = "__index__"
)

// KeyringStore keeps entries in the OS keychain instead of files. The
// keychain cannot enumerate its own items, so an index entry tracks the
// known keys for List and Clear.
type KeyringStore struct {
	service string
	nowFn   func() time.Time
}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: keyringService}
}

func (s *KeyringStore) now() time.Time {
	if s.nowFn != nil {
		return s.nowFn()
	}
	return time.Now()
}

func (s *KeyringStore) Save(key string, entry Entry) error {
	content, err := json.Marshal(entry)
	if err != nil {
		return &CacheError{Op: "save", Key: key, Err: err}
	}
	if err := keyring.Set(s.service, key, string(content)); err != nil {
		return &CacheError{Op: "save", Key: key, Err: err}
	}
	if err := s.indexAdd(key); err != nil {
		return err
	}
	return nil
}

func (s *KeyringStore) Get(key string) (Entry, bool, error) {
	content, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Entry{}, false, nil
		}
		return Entry{}, false, &CacheError{Op: "read", Key: key, Err: err}
	}
	var entry Entry
	if err := json.Unmarshal([]byte(content), &entry); err != nil {
		_ = s.Delete(key)
		return Entry{}, false, nil
	}
	if entry.Expired(s.now()) {
		_ = s.Delete(key)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (s *KeyringStore) Delete(key string) error {
	if err := keyring.Delete(s.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return &CacheError{Op: "delete", Key: key, Err: err}
	}
	return s.indexRemove(key)
}

func (s *KeyringStore) List() ([]Metadata, error) {
	keys, err := s.indexKeys()
	if err != nil {
		return nil, err
	}
	var out []Metadata
	for _, key := range keys {
		content, err := keyring.Get(s.service, key)
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(content), &entry); err != nil {
			continue
		}
		out = append(out, entry.Metadata())
	}
	return out, nil
}

func (s *KeyringStore) Clear() error {
	keys, err := s.indexKeys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := keyring.Delete(s.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return &CacheError{Op: "clear", Key: key, Err: err}
		}
	}
	if err := keyring.Delete(s.service, keyringIndex); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return &CacheError{Op: "clear", Err: err}
	}
	return nil
}

func (s *KeyringStore) indexKeys() ([]string, error) {
	content, err := keyring.Get(s.service, keyringIndex)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, &CacheError{Op: "list", Err: err}
	}
	var keys []string
	if err := json.Unmarshal([]byte(content), &keys); err != nil {
		return nil, nil
	}
	return keys, nil
}

func (s *KeyringStore) indexWrite(keys []string) error {
	sort.Strings(keys)
	content, err := json.Marshal(keys)
	if err != nil {
		return &CacheError{Op: "save", Err: err}
	}
	if err := keyring.Set(s.service, keyringIndex, string(content)); err != nil {
		return &CacheError{Op: "save", Err: err}
	}
	return nil
}

func (s *KeyringStore) indexAdd(key string) error {
	keys, err := s.indexKeys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if k == key {
			return nil
		}
	}
	return s.indexWrite(append(keys, key))
}

func (s *KeyringStore) indexRemove(key string) error {
	keys, err := s.indexKeys()
	if err != nil {
		return err
	}
	out := keys[:0]
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	return s.indexWrite(out)
}
