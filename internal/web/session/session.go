// Package session keeps login sessions in a key/value storage. The mysql and
// postgres engines use the gofiber storage drivers, sqlite keeps them in the
// api_sessions table through gorm.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CookieName is the name of the cookie carrying the session id.
const CookieName = "session"

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Storage is the part of the gofiber storage interface used for sessions.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
	Close() error
}

// Data represents the session data structure.
type Data struct {
	UserID    uint64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Manager reads and writes session data.
type Manager struct {
	storage Storage
	expiry  time.Duration
}

// NewManager returns a manager writing sessions valid for expiry to storage.
func NewManager(storage Storage, expiry time.Duration) *Manager {
	if storage == nil {
		panic("storage is nil")
	}

	return &Manager{storage: storage, expiry: expiry}
}

// Expiry returns how long new sessions stay valid.
func (m *Manager) Expiry() time.Duration {
	return m.expiry
}

// Storage returns the underlying storage.
func (m *Manager) Storage() Storage {
	return m.storage
}

// Create stores a new session for the user and returns its id.
func (m *Manager) Create(userID uint64) (string, error) {
	sessionID, err := GenerateSessionID()
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(Data{UserID: userID, CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	if err = m.storage.Set(sessionID, out, m.expiry); err != nil {
		return "", fmt.Errorf("failed to write session: %w", err)
	}

	return sessionID, nil
}

// Read returns the data of the session sessionID.
func (m *Manager) Read(sessionID string) (*Data, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	raw, err := m.storage.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	// gofiber drivers return nil without error for missing keys
	if len(raw) == 0 {
		return nil, ErrSessionNotFound
	}

	data := new(Data)
	if err = json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	if data.UserID == 0 {
		return nil, ErrSessionNotFound
	}

	return data, nil
}

// Delete removes the session sessionID.
func (m *Manager) Delete(sessionID string) error {
	if err := m.storage.Delete(sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// Close releases the storage.
func (m *Manager) Close() error {
	return m.storage.Close() //nolint:wrapcheck
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err //nolint:wrapcheck
	}

	return hex.EncodeToString(b), nil
}
