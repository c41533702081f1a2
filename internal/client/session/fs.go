package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// FSStore persists the session as small files under a directory, 0600 like an
// ssh key. The token lives in its own file so it can be rotated without
// touching the identity.
type FSStore struct {
	dir string
}

var _ Provider = (*FSStore)(nil)

// NewFSStore returns a store rooted at dir, creating it if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FSStore{dir: dir}, nil
}

// DefaultDir resolves the per-user session directory.
func DefaultDir() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, "narratlas"), nil
}

func (s *FSStore) tokenPath() string { return filepath.Join(s.dir, "auth_token") }
func (s *FSStore) userPath() string  { return filepath.Join(s.dir, "user.json") }

func (s *FSStore) Token() string {
	b, err := os.ReadFile(s.tokenPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func (s *FSStore) SaveToken(token string) error {
	return os.WriteFile(s.tokenPath(), []byte(token), 0o600)
}

func (s *FSStore) ClearToken() error {
	err := os.Remove(s.tokenPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type userFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *FSStore) readUser() userFile {
	var u userFile
	b, err := os.ReadFile(s.userPath())
	if err != nil {
		return u
	}
	_ = json.Unmarshal(b, &u)
	return u
}

func (s *FSStore) UserID() string { return s.readUser().ID }

func (s *FSStore) UserName() string { return s.readUser().Name }

func (s *FSStore) SaveUser(id, name string) error {
	b, err := json.Marshal(userFile{ID: id, Name: name})
	if err != nil {
		return err
	}
	return os.WriteFile(s.userPath(), b, 0o600)
}

func (s *FSStore) ClearUser() error {
	err := os.Remove(s.userPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
