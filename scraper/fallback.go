package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/codeGROOVE-dev/retry"
)

// The profile page bootstraps the same timeline JSON the API serves,
// inside a window._sharedData script tag.
type sharedData struct {
	EntryData struct {
		ProfilePage []struct {
			GraphQL struct {
				User *profileUser `json:"user"`
			} `json:"graphql"`
		} `json:"ProfilePage"`
	} `json:"entry_data"`
}

// scrapeProfilePage fetches the public profile HTML and pulls the timeline
// out of its embedded bootstrap data. Used when the JSON API refuses the
// anonymous call.
func (s *Scraper) scrapeProfilePage(ctx context.Context, handle string) (*profileUser, error) {
	pageURL := fmt.Sprintf("%s/%s/", s.baseURL, handle)

	var user *profileUser
	err := retry.Do(
		func() error {
			s.logger.Info("HTTP request starting",
				"method", "GET",
				"url", pageURL,
				"purpose", "fetch_profile_page")

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("User-Agent", browserUserAgent)
			req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
			req.Header.Set("Accept-Language", "en-US,en;q=0.9")
			req.Header.Set("Upgrade-Insecure-Requests", "1")

			startTime := time.Now()
			resp, err := s.client.Do(req)
			duration := time.Since(startTime)

			if err != nil {
				s.logger.Warn("HTTP request failed, will retry",
					"url", pageURL,
					"duration_ms", duration.Milliseconds(),
					"error", err)
				return err
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					s.logger.Warn("Failed to close response body", "error", closeErr)
				}
			}()

			s.logger.Info("HTTP request completed",
				"url", pageURL,
				"status_code", resp.StatusCode,
				"duration_ms", duration.Milliseconds())

			if resp.StatusCode == http.StatusNotFound {
				return retry.Unrecoverable(fmt.Errorf("profile %q not found", handle))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("HTTP %d", resp.StatusCode)
			}

			parsed, parseErr := parseSharedData(resp.Body)
			if parseErr != nil {
				s.logger.Error("Failed to parse profile page", "error", parseErr)
				return retry.Unrecoverable(parseErr)
			}

			user = parsed
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Info("Retrying profile page fetch after error", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}
	return user, nil
}

// parseSharedData extracts the bootstrap JSON from the profile HTML.
func parseSharedData(body io.Reader) (*profileUser, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse profile page: %w", err)
	}

	var payload string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if strings.HasPrefix(text, "window._sharedData") {
			payload = text
			return false
		}
		return true
	})
	if payload == "" {
		return nil, errors.New("profile page carries no shared data")
	}

	start := strings.Index(payload, "{")
	end := strings.LastIndex(payload, "}")
	if start < 0 || end <= start {
		return nil, errors.New("malformed shared data payload")
	}

	var data sharedData
	if err := json.Unmarshal([]byte(payload[start:end+1]), &data); err != nil {
		return nil, fmt.Errorf("decode shared data: %w", err)
	}

	pages := data.EntryData.ProfilePage
	if len(pages) == 0 || pages[0].GraphQL.User == nil {
		return nil, errors.New("shared data has no profile timeline")
	}
	return pages[0].GraphQL.User, nil
}
