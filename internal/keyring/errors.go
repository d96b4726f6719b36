package keyring

import "errors"

var (
	// ErrKeyringDisabled is returned when keyring is disabled
	ErrKeyringDisabled = errors.New("keyring is disabled")

	// ErrTokenNotFound is returned when no token is stored for a server
	ErrTokenNotFound = errors.New("token not found in keyring")

	// ErrEmptyServer is returned when no server URL is given to key the entry
	ErrEmptyServer = errors.New("server URL is required")
)
