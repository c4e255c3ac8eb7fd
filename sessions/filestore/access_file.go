package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jrsteele09/go-roombook/sessions"
)

const accessTokenFile = "access_token"

// AccessFile keeps the access token in a private file so consecutive CLI invocations share it.
type AccessFile struct {
	path string
	lock sync.Mutex
}

var _ sessions.AccessStorage = (*AccessFile)(nil)

func NewAccessFile(dir string) *AccessFile {
	return &AccessFile{path: filepath.Join(dir, accessTokenFile)}
}

func (a *AccessFile) Load() (string, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	b, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("[AccessFile Load] %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (a *AccessFile) Save(token string) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if err := os.MkdirAll(filepath.Dir(a.path), 0o700); err != nil {
		return fmt.Errorf("[AccessFile Save] %w", err)
	}
	if err := os.WriteFile(a.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("[AccessFile Save] %w", err)
	}
	return nil
}

func (a *AccessFile) Delete() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("[AccessFile Delete] %w", err)
	}
	return nil
}
