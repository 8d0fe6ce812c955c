package gcp

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCredentialOptionFileWins(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(keyFile, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	opt, err := CredentialOption(keyFile, `{"type":"service_account"}`)
	if err != nil {
		t.Fatalf("CredentialOption: %v", err)
	}
	if opt == nil {
		t.Fatal("CredentialOption returned nil option")
	}
}

func TestCredentialOptionInlineFallback(t *testing.T) {
	// The configured file path does not exist, so the inline blob applies.
	missing := filepath.Join(t.TempDir(), "absent.json")

	opt, err := CredentialOption(missing, `{"type":"service_account"}`)
	if err != nil {
		t.Fatalf("CredentialOption: %v", err)
	}
	if opt == nil {
		t.Fatal("CredentialOption returned nil option")
	}
}

func TestCredentialOptionNeitherConfigured(t *testing.T) {
	_, err := CredentialOption(filepath.Join(t.TempDir(), "absent.json"), "")
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("err = %v, want ErrNoCredentials", err)
	}
}
