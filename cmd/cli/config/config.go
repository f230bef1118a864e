package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultAPIURL = "http://localhost:8080"
	tokenFileName = ".tombers_token"
)

// APIURL returns the base URL for the Tombers API.
// It can be overridden with the TOMBERS_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("TOMBERS_API_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultAPIURL
}

// TokenPath is ~/.tombers_token unless TOMBERS_TOKEN_FILE is set.
func TokenPath() string {
	if v := os.Getenv("TOMBERS_TOKEN_FILE"); v != "" {
		return v
	}
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, tokenFileName)
}

// SaveToken stores the session token readable by the owner only.
func SaveToken(token string) error {
	return os.WriteFile(TokenPath(), []byte(token), 0600)
}

// LoadToken returns the stored session token.
func LoadToken() (string, error) {
	data, err := os.ReadFile(TokenPath())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// ClearToken removes the stored token. It reports false when there was none.
func ClearToken() (bool, error) {
	err := os.Remove(TokenPath())
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}
