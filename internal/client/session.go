// Package client is the Go client of the smarttodo REST API, together with
// the on-disk session it keeps between invocations.
package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/isdelr/smarttodo-be/internal/models"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Session is the cached login: a token and the user it belongs to. It is
// written only on login or registration and removed on logout or expiry.
type Session struct {
	Token string              `yaml:"token"`
	User  *models.UserSummary `yaml:"user,omitempty"`

	path string
}

// LoadSession reads the session file at path. A missing or unreadable file
// yields an empty session rather than an error.
func LoadSession(path string) *Session {
	s := &Session{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("Could not read session file, starting logged out")
		}
		return s
	}

	var stored Session
	if err := yaml.Unmarshal(data, &stored); err != nil || stored.Token == "" || stored.User == nil {
		log.Warn().Err(err).Str("path", path).Msg("Ignoring corrupt session file")
		return s
	}

	s.Token = stored.Token
	s.User = stored.User
	return s
}

// LoggedIn reports whether a token is cached.
func (s *Session) LoggedIn() bool {
	return s.Token != ""
}

// Save caches a new login and writes it to disk.
func (s *Session) Save(token string, user models.UserSummary) error {
	s.Token = token
	s.User = &user

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear forgets the cached login and deletes the file.
func (s *Session) Clear() error {
	s.Token = ""
	s.User = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
