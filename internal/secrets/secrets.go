// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API credentials from a directory of plain-text
// files. The filename is the key name and the trimmed file contents are
// the value.
//
// Supported key file: semantic-scholar-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const apiKeyFile = "semantic-scholar-api-key"

// APIKey returns the Semantic Scholar API key from dir, or "" when the
// directory or file does not exist. Higher-priority sources (flags,
// environment) are resolved by the caller.
func APIKey(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, apiKeyFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading secret %s: %w", apiKeyFile, err)
	}
	return strings.TrimSpace(string(data)), nil
}
