package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"xhsbridge/internal/components/configutil"
)

// StoredCredential is the cookie string the service runs with and the user agent it was
// accepted with, an empty UserAgent means the configured default.
type StoredCredential struct {
	Cookie    string
	UserAgent string
}

// CredentialStore persists the one credential the service runs with.
//
// note: fault injection point
type CredentialStore interface {
	// Load returns the stored credential, an absent credential has an empty Cookie and no error.
	Load() (StoredCredential, error)
	Save(credential StoredCredential) error
}

// FileCredentials keeps the credential as plain text in a single file, the cookie on the first
// line and the user agent, if any, on the second. An empty path stores nothing.
type FileCredentials struct {
	path string
}

func NewFileCredentials(path string) FileCredentials {
	return FileCredentials{path: path}
}

func (f FileCredentials) Load() (StoredCredential, error) {
	if f.path == "" {
		return StoredCredential{}, nil
	}
	path, err := configutil.ResolvePath(f.path)
	if err != nil {
		return StoredCredential{}, err
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return StoredCredential{}, nil
	}
	if err != nil {
		return StoredCredential{}, fmt.Errorf("read credential file: %w", err)
	}

	cookie, userAgent, _ := strings.Cut(strings.TrimSpace(string(content)), "\n")
	return StoredCredential{
		Cookie:    strings.TrimSpace(cookie),
		UserAgent: strings.TrimSpace(userAgent),
	}, nil
}

func (f FileCredentials) Save(credential StoredCredential) error {
	if f.path == "" {
		return nil
	}
	path, err := configutil.ResolvePath(f.path)
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return err
	}

	// write then rename so a crash never leaves half a cookie behind
	temp := path + ".tmp"
	content := credential.Cookie
	if credential.UserAgent != "" {
		content += "\n" + credential.UserAgent
	}
	err = os.WriteFile(temp, []byte(content+"\n"), 0600)
	if err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	return os.Rename(temp, path)
}
