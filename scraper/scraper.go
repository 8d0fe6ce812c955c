// Package scraper finds the newest acceptable image post on an Instagram
// profile: not a video, text readable, and not advertising anything.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"stoic-notifier/pkg/notifier"
)

// TextReader extracts text fragments from an image on disk.
type TextReader interface {
	ReadText(ctx context.Context, imagePath string) ([]string, error)
}

// Scraper walks a profile's timeline and returns the first post that
// survives the filters.
type Scraper struct {
	client  *http.Client
	reader  TextReader
	logger  *slog.Logger
	baseURL string
	baseDir string
}

// New creates a scraper that downloads into a per-handle directory under
// baseDir.
func New(client *http.Client, reader TextReader, baseDir string, logger *slog.Logger) *Scraper {
	return &Scraper{
		client:  client,
		reader:  reader,
		logger:  logger,
		baseURL: defaultBaseURL,
		baseDir: baseDir,
	}
}

// Posts whose text pushes merch or link-in-bio funnels are rejected.
var promotionalWords = []string{"shop", "link", "bio", "promo", "limited", "sale"}

// LatestDesign scans the timeline newest-first and returns the first image
// post whose text passes the promotion filter. (nil, nil) means the
// timeline was exhausted without a match. The scratch directory is
// recreated before the scan; Cleanup removes it afterwards.
func (s *Scraper) LatestDesign(ctx context.Context, handle string) (*notifier.Design, error) {
	start := time.Now()
	dir := s.scratchDir(handle)
	if err := prepareScratch(dir); err != nil {
		return nil, err
	}

	user, err := s.resolveProfile(ctx, handle)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Profile resolved",
		"handle", handle,
		"user_id", user.ID,
		"post_count", user.Timeline.Count)

	edges := user.Timeline.Edges
	page := user.Timeline.PageInfo
	checked := 0
	for {
		for _, edge := range edges {
			node := edge.Node
			checked++

			if node.IsVideo {
				s.logger.Info("Skipping video post", "shortcode", node.Shortcode)
				continue
			}

			imagePath, err := s.downloadImage(ctx, node, dir)
			if err != nil {
				return nil, fmt.Errorf("download post %s: %w", node.Shortcode, err)
			}
			if imagePath == "" {
				s.logger.Warn("Post produced no image file, skipping", "shortcode", node.Shortcode)
				continue
			}

			fragments, err := s.reader.ReadText(ctx, imagePath)
			if err != nil {
				return nil, fmt.Errorf("read text from post %s: %w", node.Shortcode, err)
			}

			text := normalizeText(fragments)
			if word := promotionalWord(text); word != "" {
				s.logger.Info("Rejecting promotional post",
					"shortcode", node.Shortcode,
					"matched", word)
				continue
			}

			s.logger.Info("Acceptable design found",
				"shortcode", node.Shortcode,
				"posts_checked", checked,
				"text_length", len(text),
				"duration_ms", time.Since(start).Milliseconds())
			return &notifier.Design{
				Shortcode: node.Shortcode,
				PostURL:   s.postURL(node.Shortcode),
				ImagePath: imagePath,
				Text:      text,
			}, nil
		}

		if !page.HasNextPage {
			break
		}
		timeline, err := s.fetchMediaPage(ctx, user.ID, page.EndCursor)
		if err != nil {
			return nil, fmt.Errorf("fetch next media page: %w", err)
		}
		edges = timeline.Edges
		page = timeline.PageInfo
	}

	s.logger.Info("No acceptable post found",
		"handle", handle,
		"posts_checked", checked,
		"duration_ms", time.Since(start).Milliseconds())
	return nil, nil
}

// Cleanup removes the scratch directory for handle, read-only leftovers
// included. Removing an absent directory is a no-op.
func (s *Scraper) Cleanup(handle string) error {
	dir := s.scratchDir(handle)
	if err := forceRemoveAll(dir); err != nil {
		return fmt.Errorf("remove scratch dir: %w", err)
	}
	s.logger.Info("Scratch directory removed", "dir", dir)
	return nil
}

// resolveProfile tries the web API first and falls back to scraping the
// profile page when the API refuses anonymous callers.
func (s *Scraper) resolveProfile(ctx context.Context, handle string) (*profileUser, error) {
	user, err := s.fetchProfile(ctx, handle)
	if err == nil {
		return user, nil
	}
	s.logger.Warn("Profile API fetch failed, falling back to page scrape",
		"handle", handle,
		"error", err)

	user, fallbackErr := s.scrapeProfilePage(ctx, handle)
	if fallbackErr != nil {
		s.logger.Error("Profile page scrape failed", "handle", handle, "error", fallbackErr)
		return nil, fmt.Errorf("resolve profile %q: %w", handle, err)
	}
	return user, nil
}

// normalizeText joins OCR fragments into a single lowercase line.
func normalizeText(fragments []string) string {
	return strings.ToLower(strings.Join(fragments, " "))
}

// promotionalWord returns the first blacklisted word contained in text,
// or "" when the text is clean.
func promotionalWord(text string) string {
	for _, w := range promotionalWords {
		if strings.Contains(text, w) {
			return w
		}
	}
	return ""
}

// SanitizeHandle strips a leading @ and any trailing slashes or spaces
// from a profile handle.
func SanitizeHandle(handle string) string {
	if handle == "" {
		return ""
	}
	if handle[0] == '@' {
		handle = handle[1:]
	}
	for len(handle) > 0 && (handle[len(handle)-1] == '/' || handle[len(handle)-1] == ' ') {
		handle = handle[:len(handle)-1]
	}
	return handle
}

// ValidHandle reports whether handle uses only the characters Instagram
// allows: letters, numbers, periods, and underscores, at most 30 of them.
func ValidHandle(handle string) bool {
	if handle == "" || len(handle) > 30 {
		return false
	}
	for _, char := range handle {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}
	return true
}
