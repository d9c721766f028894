package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNoCredentials is returned when neither DB_CREDENTIALS nor the credentials file is available.
var ErrNoCredentials = errors.New("no database credentials found: set DB_CREDENTIALS or provide the credentials file")

// Credentials locate and authenticate against the booking store. The URI
// scheme selects the driver (mongodb, mongodb+srv, postgres, postgresql, sqlite).
type Credentials struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

// LoadCredentials reads the inline JSON blob if set, otherwise the credentials file.
func (c *ServiceConfig) LoadCredentials() (*Credentials, error) {
	if c.CredentialsJSON != "" {
		creds, err := ParseCredentials([]byte(c.CredentialsJSON))
		if err != nil {
			return nil, fmt.Errorf("invalid DB_CREDENTIALS: %w", err)
		}
		return creds, nil
	}

	if c.CredentialsFile == "" {
		return nil, ErrNoCredentials
	}
	raw, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to read credentials file %s: %w", c.CredentialsFile, err)
	}
	creds, err := ParseCredentials(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials file %s: %w", c.CredentialsFile, err)
	}
	return creds, nil
}

// ParseCredentials decodes and checks a credentials JSON document.
func ParseCredentials(raw []byte) (*Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("malformed credentials JSON: %w", err)
	}
	if creds.URI == "" {
		return nil, errors.New("credentials missing uri")
	}
	return &creds, nil
}
