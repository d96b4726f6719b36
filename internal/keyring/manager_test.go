package keyring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	keyring.MockInit()
	m := NewManager()
	m.SetServiceName("sqreport-test-" + t.Name())
	return m
}

func TestNewManager(t *testing.T) {
	m := NewManager()
	assert.Equal(t, ServiceName, m.GetServiceName())
	assert.True(t, m.IsEnabled())

	m.Disable()
	assert.False(t, m.IsEnabled())
	m.Enable()
	assert.True(t, m.IsEnabled())
}

func TestServerKey(t *testing.T) {
	assert.Equal(t, "https://sonar.example.com", ServerKey(" https://sonar.example.com/ "))
	assert.Equal(t, "https://sonar.example.com", ServerKey("https://sonar.example.com"))
}

func TestSaveAndGetToken(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.SaveToken("https://sonar.example.com/", "squ_first"))
	assert.True(t, m.HasToken("https://sonar.example.com"))

	token, err := m.GetToken("https://sonar.example.com")
	require.NoError(t, err)
	assert.Equal(t, "squ_first", token)

	_, err = m.GetToken("https://other.example.com")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenIsNotStoredInClear(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.SaveToken("https://sonar.example.com", "squ_visible"))

	raw, err := keyring.Get(m.GetServiceName(), "https://sonar.example.com")
	require.NoError(t, err)
	assert.NotContains(t, raw, "squ_visible")

	var e entry
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	assert.NotEmpty(t, e.MasterKey)
	assert.NotEmpty(t, e.EncryptedToken)
}

func TestSaveTokenReusesMasterKey(t *testing.T) {
	m := newTestManager(t)
	server := "https://sonar.example.com"

	require.NoError(t, m.SaveToken(server, "squ_one"))
	first, err := m.load(server)
	require.NoError(t, err)

	require.NoError(t, m.SaveToken(server, "squ_two"))
	second, err := m.load(server)
	require.NoError(t, err)

	assert.Equal(t, first.MasterKey, second.MasterKey)
	token, err := m.GetToken(server)
	require.NoError(t, err)
	assert.Equal(t, "squ_two", token)
}

func TestDeleteToken(t *testing.T) {
	m := newTestManager(t)
	server := "https://sonar.example.com"

	require.NoError(t, m.SaveToken(server, "squ_x"))
	require.NoError(t, m.DeleteToken(server))
	assert.False(t, m.HasToken(server))

	// deleting again is fine
	assert.NoError(t, m.DeleteToken(server))
}

func TestDisabledManager(t *testing.T) {
	m := newTestManager(t)
	m.Disable()

	assert.ErrorIs(t, m.SaveToken("https://s", "t"), ErrKeyringDisabled)
	_, err := m.GetToken("https://s")
	assert.ErrorIs(t, err, ErrKeyringDisabled)
	assert.ErrorIs(t, m.DeleteToken("https://s"), ErrKeyringDisabled)
	assert.False(t, m.HasToken("https://s"))
}

func TestEmptyServer(t *testing.T) {
	m := newTestManager(t)
	assert.ErrorIs(t, m.SaveToken(" / ", "t"), ErrEmptyServer)
	_, err := m.GetToken("")
	assert.ErrorIs(t, err, ErrEmptyServer)
}

func TestCorruptEntry(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, keyring.Set(m.GetServiceName(), "https://s", "{not json"))

	_, err := m.GetToken("https://s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse keyring data")
}
