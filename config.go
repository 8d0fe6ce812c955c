package main

import (
	"errors"
	"fmt"
	"os"

	"stoic-notifier/scraper"
)

const (
	defaultCredentialsFile = "service_account.json"
	defaultDBPath          = "motivation.db"
	defaultScratchDir      = "."
)

// config holds everything read from the environment at startup.
type config struct {
	Handle          string // Instagram profile to watch
	SenderAddr      string // From address for outgoing mail
	SenderPassword  string // SMTP app password; empty enables mock mode
	SheetID         string // Google Sheet holding the subscriber roster
	CredentialsFile string // service account key file
	CredentialsJSON string // inline service account key, used when the file is absent
	DBPath          string
	ScratchDir      string
}

func loadConfig() (*config, error) {
	cfg := &config{
		Handle:          scraper.SanitizeHandle(os.Getenv("INSTA_HANDLE")),
		SenderAddr:      os.Getenv("EMAIL_SENDER"),
		SenderPassword:  os.Getenv("EMAIL_PASSWORD"),
		SheetID:         os.Getenv("SHEET_ID"),
		CredentialsFile: os.Getenv("SERVICE_ACCOUNT_FILE"),
		CredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		DBPath:          os.Getenv("DB_PATH"),
		ScratchDir:      os.Getenv("SCRATCH_DIR"),
	}

	if cfg.Handle == "" {
		return nil, errors.New("INSTA_HANDLE environment variable required")
	}
	if !scraper.ValidHandle(cfg.Handle) {
		return nil, fmt.Errorf("INSTA_HANDLE %q is not a valid profile handle", cfg.Handle)
	}
	if cfg.SenderAddr == "" {
		return nil, errors.New("EMAIL_SENDER environment variable required")
	}
	if cfg.SheetID == "" {
		return nil, errors.New("SHEET_ID environment variable required")
	}

	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = defaultCredentialsFile
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = defaultScratchDir
	}

	return cfg, nil
}
