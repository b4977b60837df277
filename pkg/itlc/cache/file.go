package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore keeps one JSON file per key under Dir. Filenames are hashed
// so arbitrary principal identifiers stay filesystem-safe, the directory
// is 0700 and entries 0600, and writes go through a temp file and rename
// so concurrent writers to the same key cannot interleave partial JSON.
type FileStore struct {
	Dir string

	// nowFn overrides the clock in tests.
	nowFn func() time.Time
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) now() time.Time {
	if s.nowFn != nil {
		return s.nowFn()
	}
	return time.Now()
}

func (s *FileStore) entryPath(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.Dir, hex.EncodeToString(sum[:])+".json")
}

func (s *FileStore) Save(key string, entry Entry) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return &CacheError{Op: "save", Key: key, Err: err}
	}
	content, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return &CacheError{Op: "save", Key: key, Err: err}
	}

	tmp, err := os.CreateTemp(s.Dir, ".entry-*")
	if err != nil {
		return &CacheError{Op: "save", Key: key, Err: err}
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return &CacheError{Op: "save", Key: key, Err: err}
	}
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return &CacheError{Op: "save", Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &CacheError{Op: "save", Key: key, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.entryPath(key)); err != nil {
		return &CacheError{Op: "save", Key: key, Err: err}
	}
	return nil
}

func (s *FileStore) Get(key string) (Entry, bool, error) {
	path := s.entryPath(key)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, false, nil
		}
		return Entry{}, false, &CacheError{Op: "read", Key: key, Err: err}
	}
	var entry Entry
	if err := json.Unmarshal(content, &entry); err != nil {
		// A corrupt entry is as good as no entry; drop it.
		_ = os.Remove(path)
		return Entry{}, false, nil
	}
	if entry.Expired(s.now()) {
		_ = os.Remove(path)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (s *FileStore) Delete(key string) error {
	if err := os.Remove(s.entryPath(key)); err != nil && !os.IsNotExist(err) {
		return &CacheError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (s *FileStore) List() ([]Metadata, error) {
	files, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &CacheError{Op: "list", Err: err}
	}
	var out []Metadata
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(s.Dir, f.Name()))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(content, &entry); err != nil {
			continue
		}
		out = append(out, entry.Metadata())
	}
	return out, nil
}

func (s *FileStore) Clear() error {
	files, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &CacheError{Op: "clear", Err: err}
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, f.Name())); err != nil {
			return &CacheError{Op: "clear", Err: err}
		}
	}
	return nil
}
