// Package autosave batches settings edits into debounced saves.
package autosave

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/neboloop/outfitswitch/internal/status"
)

const (
	DefaultDebounce       = 800 * time.Millisecond
	DefaultNoticeCooldown = 1800 * time.Millisecond
)

// Request describes one edit that needs saving.
type Request struct {
	// Key is the change key; Reason overrides the phrase derived from it.
	Key    string
	Reason string
	// NoticeKey groups notices for the cooldown; defaults to Key.
	NoticeKey string
	// Message overrides the "Auto-saving ..." notice.
	Message string
	// Debounce overrides the scheduler delay when positive.
	Debounce time.Duration
	// Quiet skips the notice.
	Quiet bool
}

// FlushOptions controls a flush.
type FlushOptions struct {
	// Force saves even with nothing pending.
	Force bool
	// Message replaces the "Auto-saved ..." completion notice.
	Message string
	// Quiet skips the completion notice.
	Quiet bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithDebounce(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

func WithNoticeCooldown(d time.Duration) Option {
	return func(s *Scheduler) { s.cooldown = d }
}

func WithNotifier(n status.Notifier) Option {
	return func(s *Scheduler) { s.notifier = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithClock replaces time.Now for notice cooldowns.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler collects pending reasons and saves once edits settle. A single
// timer is re-armed on every request.
type Scheduler struct {
	persist  func(context.Context) error
	notifier status.Notifier
	logger   *zap.Logger
	debounce time.Duration
	cooldown time.Duration
	now      func() time.Time

	mu         sync.Mutex
	timer      *time.Timer
	pending    []string
	lastNotice map[string]time.Time

	cron *cronlib.Cron
}

// New returns a scheduler that calls persist to save.
func New(persist func(context.Context) error, opts ...Option) *Scheduler {
	s := &Scheduler{
		persist:    persist,
		notifier:   status.Discard,
		logger:     zap.NewNop(),
		debounce:   DefaultDebounce,
		cooldown:   DefaultNoticeCooldown,
		now:        time.Now,
		lastNotice: map[string]time.Time{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule records req and (re)starts the debounce timer.
func (s *Scheduler) Schedule(req Request) {
	reason := req.Reason
	if reason == "" {
		reason = FormatReason(req.Key)
	}

	delay := s.debounce
	if req.Debounce > 0 {
		delay = req.Debounce
	}

	s.mu.Lock()
	if reason != "" && !contains(s.pending, reason) {
		s.pending = append(s.pending, reason)
	}
	var notice *status.Message
	if !req.Quiet {
		notice = s.noticeLocked(req, reason)
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(delay, func() {
		s.Flush(FlushOptions{})
	})
	s.mu.Unlock()

	if notice != nil {
		s.notifier.Notify(*notice)
	}
}

func (s *Scheduler) noticeLocked(req Request, reason string) *status.Message {
	key := req.NoticeKey
	if key == "" {
		key = req.Key
	}
	if key == "" {
		key = "auto-save"
		if reason != "" {
			key = strings.Join(strings.Fields(reason), "-")
		}
	}

	now := s.now()
	if last, ok := s.lastNotice[key]; ok && now.Sub(last) < s.cooldown {
		return nil
	}
	s.lastNotice[key] = now

	text := req.Message
	if text == "" {
		text = "Auto-saving changes…"
		if reason != "" {
			text = "Auto-saving " + reason + "…"
		}
	}
	msg := status.New(status.KindInfo, text)
	return &msg
}

// Flush saves now. Without Force it does nothing, and returns false, when no
// edits are pending.
func (s *Scheduler) Flush(opts FlushOptions) bool {
	s.mu.Lock()
	hasPending := len(s.pending) > 0
	if !hasPending && !opts.Force {
		s.mu.Unlock()
		return false
	}
	summary := Summarize(s.pending)
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
	s.mu.Unlock()

	if err := s.persist(context.Background()); err != nil {
		s.logger.Error("auto-save failed", zap.Error(err))
		if !opts.Quiet {
			s.notifier.Notify(status.New(status.KindError, fmt.Sprintf("Failed to save %s.", summary)))
		}
		return true
	}

	message := opts.Message
	if message == "" && hasPending {
		message = "Auto-saved " + summary + "."
	}
	if message != "" && !opts.Quiet {
		s.notifier.Notify(status.New(status.KindSuccess, message))
	}
	return true
}

// Pending lists the reasons waiting to be saved, in the order first seen.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pending...)
}

// StartCheckpoint forces a quiet save on a cron schedule, e.g. "@every 5m"
// or "*/10 * * * *".
func (s *Scheduler) StartCheckpoint(spec string) error {
	c := cronlib.New()
	if _, err := c.AddFunc(spec, func() {
		s.Flush(FlushOptions{Force: true, Quiet: true})
	}); err != nil {
		return fmt.Errorf("invalid checkpoint schedule: %w", err)
	}

	s.mu.Lock()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.cron = c
	s.mu.Unlock()

	c.Start()
	return nil
}

// Close stops the checkpoint and writes anything still pending.
func (s *Scheduler) Close() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	s.Flush(FlushOptions{Quiet: true})
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
