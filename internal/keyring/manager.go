package keyring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/sqreport/go/internal/crypto"
)

// ServiceName is the name used to identify sqreport in the system keyring
const ServiceName = "sqreport"

// entry is what gets stored under one server URL
type entry struct {
	MasterKey      string `json:"master_key"`      // Base64-encoded master key
	EncryptedToken string `json:"encrypted_token"` // Token sealed with the master key
}

// Manager stores one API token per server URL in the system keyring
type Manager struct {
	serviceName string
	enabled     bool
}

// NewManager creates a new keyring manager
func NewManager() *Manager {
	return &Manager{
		serviceName: ServiceName,
		enabled:     true,
	}
}

// IsEnabled returns whether keyring integration is enabled
func (m *Manager) IsEnabled() bool {
	return m.enabled
}

// Disable turns every operation into a no-op (lookups report ErrKeyringDisabled)
func (m *Manager) Disable() {
	m.enabled = false
}

// Enable enables keyring integration
func (m *Manager) Enable() {
	m.enabled = true
}

// SetServiceName allows customizing the service name (useful for testing)
func (m *Manager) SetServiceName(name string) {
	m.serviceName = name
}

// GetServiceName returns the current service name
func (m *Manager) GetServiceName() string {
	return m.serviceName
}

// ServerKey normalizes a server URL into the keyring username it is stored under
func ServerKey(server string) string {
	return strings.TrimSuffix(strings.TrimSpace(server), "/")
}

// SaveToken stores token for server. An existing master key for the same
// server is reused.
func (m *Manager) SaveToken(server, token string) error {
	if !m.enabled {
		return ErrKeyringDisabled
	}
	user := ServerKey(server)
	if user == "" {
		return ErrEmptyServer
	}

	var masterKey crypto.MasterKey
	existing, err := m.load(user)
	if err == nil {
		if masterKey, err = crypto.DecodeMasterKey(existing.MasterKey); err != nil {
			return fmt.Errorf("failed to decode existing master key: %w", err)
		}
	} else {
		if masterKey, err = crypto.GenerateMasterKey(); err != nil {
			return err
		}
	}
	defer masterKey.Zeroize()

	sealed, err := masterKey.EncryptToken(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	data, err := json.Marshal(entry{
		MasterKey:      masterKey.Encode(),
		EncryptedToken: sealed,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal keyring data: %w", err)
	}

	if err := keyring.Set(m.serviceName, user, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// GetToken returns the token stored for server
func (m *Manager) GetToken(server string) (string, error) {
	if !m.enabled {
		return "", ErrKeyringDisabled
	}
	user := ServerKey(server)
	if user == "" {
		return "", ErrEmptyServer
	}

	e, err := m.load(user)
	if err != nil {
		return "", err
	}

	masterKey, err := crypto.DecodeMasterKey(e.MasterKey)
	if err != nil {
		return "", fmt.Errorf("failed to decode master key: %w", err)
	}
	defer masterKey.Zeroize()

	token, err := masterKey.DecryptToken(e.EncryptedToken)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}
	return token, nil
}

// HasToken reports whether a token is stored for server
func (m *Manager) HasToken(server string) bool {
	_, err := m.GetToken(server)
	return err == nil
}

// DeleteToken removes the token stored for server. Deleting a missing entry is not an error.
func (m *Manager) DeleteToken(server string) error {
	if !m.enabled {
		return ErrKeyringDisabled
	}
	user := ServerKey(server)
	if user == "" {
		return ErrEmptyServer
	}

	if err := keyring.Delete(m.serviceName, user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// load reads and parses the entry stored under user
func (m *Manager) load(user string) (*entry, error) {
	raw, err := keyring.Get(m.serviceName, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, fmt.Errorf("failed to parse keyring data: %w", err)
	}
	return &e, nil
}
