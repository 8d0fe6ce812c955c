package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

const (
	defaultBaseURL  = "https://www.instagram.com"
	profileEndpoint = "/api/v1/users/web_profile_info/"
	mediaEndpoint   = "/graphql/query/"

	// Query hash for the public timeline pagination query.
	mediaQueryHash = "e769aa130647d2354c40ea6a439bfc08"
	mediaPageSize  = 12

	// Instagram web app ID; the API endpoints reject requests without it.
	webAppID = "936619743392459"

	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Wire format of the web profile and timeline endpoints.
type profileResponse struct {
	RequiresToLogin bool        `json:"requires_to_login"`
	Data            profileData `json:"data"`
	Status          string      `json:"status"`
}

type profileData struct {
	User *profileUser `json:"user"`
}

type profileUser struct {
	ID       string   `json:"id"`
	Timeline timeline `json:"edge_owner_to_timeline_media"`
}

type timeline struct {
	Count    int        `json:"count"`
	PageInfo pageInfo   `json:"page_info"`
	Edges    []postEdge `json:"edges"`
}

type pageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

type postEdge struct {
	Node postNode `json:"node"`
}

type postNode struct {
	ID         string `json:"id"`
	Shortcode  string `json:"shortcode"`
	DisplayURL string `json:"display_url"`
	IsVideo    bool   `json:"is_video"`
}

// LoginRequiredError indicates Instagram refused the anonymous request.
type LoginRequiredError struct {
	Handle string
}

func (e *LoginRequiredError) Error() string {
	return fmt.Sprintf("profile %q requires login", e.Handle)
}

// IsLoginRequired checks if an error is a login wall.
func IsLoginRequired(err error) bool {
	var lr *LoginRequiredError
	return errors.As(err, &lr)
}

func (s *Scraper) fetchProfile(ctx context.Context, handle string) (*profileUser, error) {
	params := url.Values{}
	params.Set("username", handle)
	reqURL := fmt.Sprintf("%s%s?%s", s.baseURL, profileEndpoint, params.Encode())

	var user *profileUser
	err := retry.Do(
		func() error {
			s.logger.Info("HTTP request starting",
				"method", "GET",
				"url", reqURL,
				"purpose", "fetch_profile")

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			s.setAPIHeaders(req)

			startTime := time.Now()
			resp, err := s.client.Do(req)
			duration := time.Since(startTime)

			if err != nil {
				s.logger.Warn("HTTP request failed, will retry",
					"url", reqURL,
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
				"url", reqURL,
				"status_code", resp.StatusCode,
				"duration_ms", duration.Milliseconds())

			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return retry.Unrecoverable(&LoginRequiredError{Handle: handle})
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("HTTP %d", resp.StatusCode)
			}

			var parsed profileResponse
			if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode profile response: %w", err))
			}
			if parsed.RequiresToLogin {
				return retry.Unrecoverable(&LoginRequiredError{Handle: handle})
			}
			if parsed.Data.User == nil || parsed.Data.User.ID == "" {
				return retry.Unrecoverable(fmt.Errorf("profile %q not found", handle))
			}

			user = parsed.Data.User
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Info("Retrying profile fetch after error", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}
	return user, nil
}

func (s *Scraper) fetchMediaPage(ctx context.Context, userID, after string) (*timeline, error) {
	params := url.Values{}
	params.Set("query_hash", mediaQueryHash)
	params.Set("variables", fmt.Sprintf(`{"id":"%s","first":%d,"after":"%s"}`, userID, mediaPageSize, after))
	reqURL := fmt.Sprintf("%s%s?%s", s.baseURL, mediaEndpoint, params.Encode())

	var page *timeline
	err := retry.Do(
		func() error {
			s.logger.Info("HTTP request starting",
				"method", "GET",
				"url", reqURL,
				"purpose", "fetch_media_page")

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			s.setAPIHeaders(req)

			startTime := time.Now()
			resp, err := s.client.Do(req)
			duration := time.Since(startTime)

			if err != nil {
				s.logger.Warn("HTTP request failed, will retry",
					"url", reqURL,
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
				"url", reqURL,
				"status_code", resp.StatusCode,
				"duration_ms", duration.Milliseconds())

			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return retry.Unrecoverable(&LoginRequiredError{Handle: userID})
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("HTTP %d", resp.StatusCode)
			}

			var parsed profileResponse
			if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode media response: %w", err))
			}
			if parsed.Data.User == nil {
				return retry.Unrecoverable(errors.New("media page has no timeline"))
			}

			page = &parsed.Data.User.Timeline
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Info("Retrying media page fetch after error", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}
	return page, nil
}

// downloadImage saves the post's display image into dir and returns the
// file path. A post without a display URL yields ("", nil): nothing was
// produced and the caller moves on.
func (s *Scraper) downloadImage(ctx context.Context, node postNode, dir string) (string, error) {
	if node.DisplayURL == "" {
		return "", nil
	}

	var data []byte
	err := retry.Do(
		func() error {
			s.logger.Info("HTTP request starting",
				"method", "GET",
				"url", node.DisplayURL,
				"purpose", "download_image")

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, node.DisplayURL, http.NoBody)
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("User-Agent", browserUserAgent)
			req.Header.Set("Accept", "image/webp,*/*")
			req.Header.Set("Referer", s.baseURL+"/")

			startTime := time.Now()
			resp, err := s.client.Do(req)
			duration := time.Since(startTime)

			if err != nil {
				s.logger.Warn("HTTP request failed, will retry",
					"url", node.DisplayURL,
					"duration_ms", duration.Milliseconds(),
					"error", err)
				return err
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					s.logger.Warn("Failed to close response body", "error", closeErr)
				}
			}()

			if resp.StatusCode != http.StatusOK {
				s.logger.Warn("Image download returned non-OK status, will retry",
					"status_code", resp.StatusCode)
				return fmt.Errorf("HTTP %d", resp.StatusCode)
			}

			body, readErr := io.ReadAll(resp.Body)
			if readErr != nil {
				return fmt.Errorf("read image body: %w", readErr)
			}

			s.logger.Info("HTTP request completed",
				"url", node.DisplayURL,
				"status_code", resp.StatusCode,
				"duration_ms", duration.Milliseconds(),
				"bytes", len(body))

			data = body
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Info("Retrying image download after error", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("after retries: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}

	// Write to a temp file first so a crash never leaves a truncated image.
	filename := filepath.Join(dir, node.Shortcode+".jpg")
	tempFile := filename + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := os.Rename(tempFile, filename); err != nil {
		return "", fmt.Errorf("finalize image: %w", err)
	}

	s.logger.Info("Image saved", "path", filename, "bytes", len(data))
	return filename, nil
}

func (s *Scraper) postURL(shortcode string) string {
	return fmt.Sprintf("%s/p/%s/", s.baseURL, shortcode)
}

// Browser-like headers keep the anonymous web API endpoints answering.
func (s *Scraper) setAPIHeaders(req *http.Request) {
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("X-IG-App-ID", webAppID)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", s.baseURL+"/")
}
