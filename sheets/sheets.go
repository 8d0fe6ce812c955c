// Package sheets syncs the subscriber roster from a Google Sheet into the
// local store.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"stoic-notifier/gcp"
)

// Store is the subset of the storage layer the syncer writes to.
type Store interface {
	AddSubscriber(ctx context.Context, email string) error
}

// Syncer pulls subscriber emails from a spreadsheet before each run.
type Syncer struct {
	store    Store
	logger   *slog.Logger
	sheetID  string
	credFile string
	credJSON string
}

// The roster lives on the first sheet; the header row names the columns.
const subscriberRange = "A:Z"

// New creates a syncer for the given spreadsheet. Credentials are resolved
// on every sync so a key file dropped in later is picked up without a
// restart.
func New(store Store, sheetID, credFile, credJSON string, logger *slog.Logger) *Syncer {
	return &Syncer{
		store:    store,
		logger:   logger,
		sheetID:  sheetID,
		credFile: credFile,
		credJSON: credJSON,
	}
}

// Sync reads the sheet and upserts every valid address into the store.
// Errors (missing credentials, unreachable sheet) surface to the caller,
// which logs them and continues the run with the addresses already stored.
func (s *Syncer) Sync(ctx context.Context) error {
	opt, err := gcp.CredentialOption(s.credFile, s.credJSON)
	if err != nil {
		return err
	}

	svc, err := sheets.NewService(ctx, opt, option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	if err != nil {
		return fmt.Errorf("create sheets service: %w", err)
	}

	var resp *sheets.ValueRange
	err = retry.Do(
		func() error {
			s.logger.Info("Sheets API request starting",
				"sheet_id", s.sheetID,
				"range", subscriberRange)

			startTime := time.Now()
			r, err := svc.Spreadsheets.Values.Get(s.sheetID, subscriberRange).Context(ctx).Do()
			duration := time.Since(startTime)

			if err != nil {
				s.logger.Warn("Sheets API read failed, will retry",
					"sheet_id", s.sheetID,
					"duration_ms", duration.Milliseconds(),
					"error", err)
				return err
			}

			s.logger.Info("Sheets API request completed",
				"sheet_id", s.sheetID,
				"duration_ms", duration.Milliseconds(),
				"rows", len(r.Values))
			resp = r
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Info("Retrying sheet read after error", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("read sheet after retries: %w", err)
	}

	emails := extractEmails(resp.Values)
	if len(emails) == 0 {
		s.logger.Warn("Sheet yielded no valid subscriber emails", "sheet_id", s.sheetID)
		return nil
	}

	for _, email := range emails {
		if err := s.store.AddSubscriber(ctx, email); err != nil {
			return fmt.Errorf("store subscriber %q: %w", email, err)
		}
	}

	s.logger.Info("Subscriber sync complete", "emails_in_sheet", len(emails))
	return nil
}

// extractEmails pulls addresses out of the raw cell grid. The header row
// locates the Email column (case-insensitive); values are trimmed,
// lowercased, and kept only when they contain "@".
func extractEmails(values [][]interface{}) []string {
	if len(values) == 0 {
		return nil
	}

	col := -1
	for i, cell := range values[0] {
		if strings.EqualFold(strings.TrimSpace(fmt.Sprint(cell)), "email") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil
	}

	var emails []string
	for _, row := range values[1:] {
		if col >= len(row) {
			continue
		}
		email := normalizeEmail(fmt.Sprint(row[col]))
		if !strings.Contains(email, "@") {
			continue
		}
		emails = append(emails, email)
	}
	return emails
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
