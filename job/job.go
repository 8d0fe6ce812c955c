// Package job orchestrates a single notification run end to end.
package job

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"runtime"
	"time"

	"stoic-notifier/pkg/notifier"
)

// settleDelay is how long cleanup waits after GC before removing the
// scratch directory.
const settleDelay = 2 * time.Second

// Syncer pulls the subscriber roster from its external source.
type Syncer interface {
	Sync(ctx context.Context) error
}

// Store interface for subscriber and sent-design persistence.
type Store interface {
	Subscribers(ctx context.Context) ([]string, error)
	HasSent(ctx context.Context, hash string) (bool, error)
	MarkSent(ctx context.Context, hash string) error
}

// Fetcher interface for finding the latest acceptable design.
type Fetcher interface {
	LatestDesign(ctx context.Context, handle string) (*notifier.Design, error)
	Cleanup(handle string) error
}

// Emailer interface for delivering a design to subscribers.
type Emailer interface {
	SendDesign(ctx context.Context, recipients []string, design *notifier.Design) error
}

// Runner drives one complete check-and-notify cycle.
type Runner struct {
	syncer  Syncer
	store   Store
	fetcher Fetcher
	emailer Emailer
	logger  *slog.Logger
	handle  string
	settle  time.Duration
}

// New creates a run orchestrator for the given profile handle.
func New(syncer Syncer, store Store, fetcher Fetcher, emailer Emailer, handle string, logger *slog.Logger) *Runner {
	return &Runner{
		syncer:  syncer,
		store:   store,
		fetcher: fetcher,
		emailer: emailer,
		logger:  logger,
		handle:  handle,
		settle:  settleDelay,
	}
}

// RunOnce executes one full cycle: sync subscribers, fetch the latest
// acceptable design, email it, record it. Failures are logged and end the
// run early; nothing propagates to the scheduler.
func (r *Runner) RunOnce(ctx context.Context) {
	start := time.Now()
	r.logger.Info("Run starting", "handle", r.handle, "timestamp", start.Format(time.RFC3339))

	defer r.cleanup()

	if err := r.syncer.Sync(ctx); err != nil {
		r.logger.Warn("Subscriber sync failed, continuing with known subscribers", "error", err)
	}

	recipients, err := r.store.Subscribers(ctx)
	if err != nil {
		r.logger.Error("Failed to load subscribers", "error", err)
		return
	}
	if len(recipients) == 0 {
		r.logger.Info("No subscribers found, aborting run")
		return
	}

	design, err := r.fetcher.LatestDesign(ctx, r.handle)
	if err != nil {
		r.logger.Error("Design fetch failed", "handle", r.handle, "error", err)
		return
	}
	if design == nil {
		r.logger.Info("No acceptable design found", "handle", r.handle)
		return
	}

	hash := contentHash(design.Text)

	sent, err := r.store.HasSent(ctx, hash)
	if err != nil {
		r.logger.Error("Failed to check sent history", "hash", hash, "error", err)
		return
	}
	if sent {
		r.logger.Info("Design already sent, skipping",
			"shortcode", design.Shortcode,
			"hash", hash)
		return
	}

	if err := r.emailer.SendDesign(ctx, recipients, design); err != nil {
		r.logger.Error("Email delivery failed, will retry next run",
			"shortcode", design.Shortcode,
			"recipients", len(recipients),
			"error", err)
		return
	}

	// Record only after the send went out. A crash between the two can
	// produce a duplicate next run, never a missed design.
	if err := r.store.MarkSent(ctx, hash); err != nil {
		r.logger.Warn("Failed to record sent design, duplicate send possible next run",
			"hash", hash, "error", err)
	}

	r.logger.Info("Run completed",
		"shortcode", design.Shortcode,
		"recipients", len(recipients),
		"duration_ms", time.Since(start).Milliseconds())
}

// cleanup removes the scratch directory regardless of how the run ended.
func (r *Runner) cleanup() {
	// Let finalizers close any image handles still held before the
	// directory underneath them is removed.
	runtime.GC()
	if r.settle > 0 {
		time.Sleep(r.settle)
	}

	if err := r.fetcher.Cleanup(r.handle); err != nil {
		r.logger.Warn("Scratch cleanup failed", "handle", r.handle, "error", err)
		return
	}
	r.logger.Info("Scratch directory cleaned", "handle", r.handle)
}

// contentHash derives the dedupe key for a design from its extracted text.
func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
