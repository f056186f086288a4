package svc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neboloop/outfitswitch/internal/automation"
	"github.com/neboloop/outfitswitch/internal/autosave"
	"github.com/neboloop/outfitswitch/internal/command"
	"github.com/neboloop/outfitswitch/internal/config"
	"github.com/neboloop/outfitswitch/internal/db"
	"github.com/neboloop/outfitswitch/internal/events"
	"github.com/neboloop/outfitswitch/internal/issuer"
	"github.com/neboloop/outfitswitch/internal/local"
	"github.com/neboloop/outfitswitch/internal/logging"
	"github.com/neboloop/outfitswitch/internal/notify"
	"github.com/neboloop/outfitswitch/internal/profile"
	"github.com/neboloop/outfitswitch/internal/realtime"
	"github.com/neboloop/outfitswitch/internal/status"
)

// ServiceContext owns every long-lived component and the wiring between
// them.
type ServiceContext struct {
	Config  *config.Config
	Logger  *zap.Logger
	Version string

	Events   *events.Subject
	Store    *profile.Store
	Files    *local.FileStore // set for store: file
	DB       *db.Store        // set for store: sqlite
	Autosave *autosave.Scheduler

	Hub        *realtime.Hub
	Issuer     *issuer.Issuer
	Controller *automation.Controller
	Runner     *command.Runner
	Notices    *NoticeLog

	closeOnce sync.Once
}

// Option adjusts construction, mostly for tests and the CLI.
type Option func(*options)

type options struct {
	executor issuer.Executor
	backend  profile.Backend
}

// WithExecutor overrides the executor chosen by issuer.mode.
func WithExecutor(e issuer.Executor) Option {
	return func(o *options) { o.executor = e }
}

// WithBackend overrides the settings backend chosen by store.
func WithBackend(b profile.Backend) Option {
	return func(o *options) { o.backend = b }
}

// NewServiceContext builds and wires the service from cfg and loads the
// persisted settings.
func NewServiceContext(ctx context.Context, cfg *config.Config, opts ...Option) (*ServiceContext, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := logging.Named("outfitswitch")
	s := &ServiceContext{
		Config:  cfg,
		Logger:  logger,
		Version: "dev",
		Events:  events.NewSubject(events.WithSyncDelivery(), events.WithLogger(logger.Named("events"))),
		Notices: NewNoticeLog(50),
	}

	backend := o.backend
	if backend == nil {
		if err := cfg.EnsureDataDir(); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		switch cfg.Store {
		case config.StoreSQLite:
			store, err := db.NewSQLite(cfg.DBPath())
			if err != nil {
				return nil, err
			}
			s.DB = store
			store.RecordFrom(s.Events, logger.Named("history"))
			backend = store
		default:
			s.Files = local.NewFileStore(cfg.SettingsPath(), logger.Named("settings"))
			backend = s.Files
		}
	}
	s.Store = profile.NewStore(backend)

	s.Hub = realtime.NewHub(s.Events)
	s.Notices.hub = s.Hub
	if cfg.Notify.Desktop {
		s.Notices.desktop = notify.NewDesktop(cfg.Notify.ErrorsOnly, logger.Named("notify"))
	}

	executor := o.executor
	if executor == nil {
		executor = s.executorFor(cfg)
	}
	s.Issuer = issuer.New(executor,
		issuer.WithNotifier(s.Notices),
		issuer.WithEvents(s.Events),
		issuer.WithLogger(logger.Named("issuer")),
		issuer.WithTimeout(cfg.IssuerTimeout()),
	)

	s.Autosave = autosave.New(s.Store.Persist,
		autosave.WithDebounce(cfg.Debounce()),
		autosave.WithNoticeCooldown(cfg.NoticeCooldown()),
		autosave.WithNotifier(s.Notices),
		autosave.WithLogger(logger.Named("autosave")),
	)

	s.Controller = automation.New(s.Store, s.Issuer,
		automation.WithBufferLimit(cfg.Stream.BufferLimit),
		automation.WithLogger(logger.Named("automation")),
	)
	s.Runner = command.NewRunner(s.Store, s.Issuer, s.FlushQuiet)

	s.Store.SetFlusher(s.FlushQuiet)
	s.Store.OnChange(func(ch profile.Change) {
		if !ch.Persisted {
			s.Autosave.Schedule(autosave.Request{Key: ch.Key})
		}
		s.Controller.OnSettingsChange(ch)
	})

	if err := s.Store.Load(ctx); err != nil {
		s.Close()
		return nil, err
	}
	s.Controller.Register(s.Events)
	return s, nil
}

func (s *ServiceContext) executorFor(cfg *config.Config) issuer.Executor {
	switch cfg.Issuer.Mode {
	case config.IssuerWebhook:
		return issuer.WebhookExecutor{
			URL:    cfg.Issuer.WebhookURL,
			Client: &http.Client{Timeout: cfg.IssuerTimeout()},
		}
	case config.IssuerLog:
		return issuer.LogExecutor{Logger: s.Logger.Named("issuer")}
	}
	return s.Hub
}

// FlushQuiet writes pending edits without a completion notice.
func (s *ServiceContext) FlushQuiet() {
	s.Autosave.Flush(autosave.FlushOptions{Quiet: true})
}

// Start runs the background parts: the host hub, the settings file
// watcher and the checkpoint schedule. They stop with ctx.
func (s *ServiceContext) Start(ctx context.Context) error {
	go s.Hub.Run(ctx)

	if s.Files != nil {
		err := s.Files.Watch(ctx, func(settings *profile.Settings) {
			s.Store.Replace(settings)
		})
		if err != nil {
			s.Logger.Warn("settings watcher not started", zap.Error(err))
		}
	}

	if spec := s.Config.Autosave.Checkpoint; spec != "" {
		if err := s.Autosave.StartCheckpoint(spec); err != nil {
			return err
		}
	}
	return nil
}

// Close unregisters the controller, saves pending edits and releases
// storage. Safe to call more than once.
func (s *ServiceContext) Close() {
	s.closeOnce.Do(func() {
		s.Controller.Teardown()
		s.Autosave.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.Events.Sync(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			s.Logger.Debug("event drain", zap.Error(err))
		}
		if err := s.Controller.Drain(ctx); err != nil {
			s.Logger.Debug("issuance drain", zap.Error(err))
		}
		cancel()
		events.Complete(s.Events)

		if s.DB != nil {
			if err := s.DB.Close(); err != nil {
				s.Logger.Warn("close database", zap.Error(err))
			}
		}
	})
}

// NoticeLog keeps the most recent status messages and forwards each one
// to connected hosts.
type NoticeLog struct {
	hub     *realtime.Hub
	desktop status.Notifier

	mu    sync.Mutex
	max   int
	items []status.Message
}

func NewNoticeLog(max int) *NoticeLog {
	return &NoticeLog{max: max}
}

func (n *NoticeLog) Notify(m status.Message) {
	n.mu.Lock()
	n.items = append(n.items, m)
	if len(n.items) > n.max {
		n.items = n.items[len(n.items)-n.max:]
	}
	n.mu.Unlock()

	logging.L().Info("status", zap.String("kind", string(m.Kind)), zap.String("text", m.Text))
	if n.desktop != nil {
		n.desktop.Notify(m)
	}
	if n.hub != nil {
		n.hub.Broadcast(&realtime.Message{
			Type:      "status",
			Data:      map[string]string{"kind": string(m.Kind), "text": m.Text, "html": m.HTML()},
			Timestamp: time.Now(),
		})
	}
}

// Recent returns the stored messages, oldest first.
func (n *NoticeLog) Recent() []status.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]status.Message(nil), n.items...)
}
