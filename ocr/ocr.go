// Package ocr extracts text from downloaded images via the Cloud Vision API.
package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/api/option"
	"google.golang.org/api/vision/v1"

	"stoic-notifier/gcp"
)

// Client reads text off images. Construct once at process start.
type Client struct {
	svc     *vision.Service
	logger  *slog.Logger
	initErr error
}

// New creates a Vision-backed text reader. When the service cannot be
// initialized (usually missing credentials) the returned client reports the
// stored error on every read, so the process keeps running and the fetch
// step degrades instead.
func New(ctx context.Context, credFile, credJSON string, logger *slog.Logger) *Client {
	opt, err := gcp.CredentialOption(credFile, credJSON)
	if err != nil {
		logger.Error("Vision service unavailable", "error", err)
		return &Client{logger: logger, initErr: err}
	}

	svc, err := vision.NewService(ctx, opt, option.WithScopes(vision.CloudVisionScope))
	if err != nil {
		logger.Error("Failed to initialize Vision service", "error", err)
		return &Client{logger: logger, initErr: fmt.Errorf("create vision service: %w", err)}
	}

	logger.Info("Vision service initialized")
	return &Client{svc: svc, logger: logger}
}

// ReadText runs text detection on the image at path and returns the raw
// text fragments. No text in the image is (nil, nil), not an error.
func (c *Client) ReadText(ctx context.Context, imagePath string) ([]string, error) {
	if c.initErr != nil {
		return nil, c.initErr
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(data)},
			Features: []*vision.Feature{{Type: "TEXT_DETECTION"}},
		}},
	}

	var resp *vision.BatchAnnotateImagesResponse
	err = retry.Do(
		func() error {
			c.logger.Info("Vision API request starting",
				"image", imagePath,
				"image_bytes", len(data))

			startTime := time.Now()
			r, err := c.svc.Images.Annotate(req).Context(ctx).Do()
			duration := time.Since(startTime)

			if err != nil {
				c.logger.Warn("Vision API annotate failed, will retry",
					"image", imagePath,
					"duration_ms", duration.Milliseconds(),
					"error", err)
				return err
			}

			c.logger.Info("Vision API request completed",
				"image", imagePath,
				"duration_ms", duration.Milliseconds())
			resp = r
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("Retrying text detection after error", "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("annotate after retries: %w", err)
	}

	if len(resp.Responses) == 0 {
		return nil, fmt.Errorf("annotate returned no responses for %s", imagePath)
	}
	res := resp.Responses[0]
	if res.Error != nil {
		return nil, fmt.Errorf("annotate %s: %s", imagePath, res.Error.Message)
	}

	fragments := annotationFragments(res.TextAnnotations)
	c.logger.Info("Text detection complete", "image", imagePath, "fragments", len(fragments))
	return fragments, nil
}

// annotationFragments flattens the detection result. The first annotation
// is the whole block with embedded newlines; the rest are the word-level
// pieces, which join cleanly with spaces.
func annotationFragments(annotations []*vision.EntityAnnotation) []string {
	if len(annotations) == 0 {
		return nil
	}
	if len(annotations) == 1 {
		return []string{annotations[0].Description}
	}

	fragments := make([]string, 0, len(annotations)-1)
	for _, a := range annotations[1:] {
		fragments = append(fragments, a.Description)
	}
	return fragments
}
