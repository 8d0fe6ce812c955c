// Package gcp resolves the Google service-account credentials shared by the
// Sheets and Vision clients.
package gcp

import (
	"errors"
	"os"

	"google.golang.org/api/option"
)

// ErrNoCredentials indicates that neither a key file nor an inline
// credential blob is configured.
var ErrNoCredentials = errors.New("no Google credentials configured: provide a service-account key file or inline JSON")

// CredentialOption resolves credentials for a Google API client. A key file
// on disk wins over the inline JSON blob.
func CredentialOption(file, inline string) (option.ClientOption, error) {
	if file != "" {
		if _, err := os.Stat(file); err == nil {
			return option.WithCredentialsFile(file), nil
		}
	}
	if inline != "" {
		return option.WithCredentialsJSON([]byte(inline)), nil
	}
	return nil, ErrNoCredentials
}
