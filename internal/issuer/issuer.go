// Package issuer turns a costume path into the host's /costume command and
// reports the outcome.
package issuer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/neboloop/outfitswitch/internal/costume"
	"github.com/neboloop/outfitswitch/internal/events"
	"github.com/neboloop/outfitswitch/internal/status"
)

// Source tells where an issuance came from. Slash invocations return their
// message to the caller instead of posting it to the notifier.
type Source string

const (
	SourceAutomation Source = "automation"
	SourceSlash      Source = "slash"
	SourceUI         Source = "ui"
)

// Command is what gets delivered to the host.
type Command struct {
	Text string `json:"command"`
	Path string `json:"path"`
}

// CommandFor formats the /costume command for an already normalized path.
func CommandFor(path string) Command {
	return Command{Text: `/costume \` + path, Path: path}
}

// Executor delivers a command to the host.
type Executor interface {
	Execute(ctx context.Context, cmd Command) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, cmd Command) error

func (f ExecutorFunc) Execute(ctx context.Context, cmd Command) error { return f(ctx, cmd) }

// Option configures an Issuer.
type Option func(*Issuer)

// WithNotifier sets where non-slash outcomes are posted.
func WithNotifier(n status.Notifier) Option {
	return func(i *Issuer) { i.notifier = n }
}

// WithEvents publishes every executed command as events.CostumeIssued.
func WithEvents(subject *events.Subject) Option {
	return func(i *Issuer) { i.subject = subject }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(i *Issuer) { i.logger = l }
}

// WithTimeout bounds a single execution.
func WithTimeout(d time.Duration) Option {
	return func(i *Issuer) { i.timeout = d }
}

// Issuer executes costume changes.
type Issuer struct {
	exec     Executor
	notifier status.Notifier
	subject  *events.Subject
	logger   *zap.Logger
	timeout  time.Duration
}

// New returns an Issuer delivering through exec.
func New(exec Executor, opts ...Option) *Issuer {
	i := &Issuer{
		exec:     exec,
		notifier: status.Discard,
		logger:   zap.NewNop(),
		timeout:  15 * time.Second,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

const missingFolder = "Provide an outfit folder for the focus character."

// Issue normalizes folder and asks the host to switch to it. The returned
// message describes the outcome; it is also posted to the notifier unless
// the request came from a slash command.
func (i *Issuer) Issue(ctx context.Context, folder string, source Source) status.Message {
	return i.IssueTriggered(ctx, folder, "", source)
}

// IssueTriggered is Issue with the trigger that caused it, for the record.
func (i *Issuer) IssueTriggered(ctx context.Context, folder, trigger string, source Source) status.Message {
	path := costume.NormalizeFolder(folder)
	if path == "" {
		msg := status.New(status.KindError, missingFolder)
		i.post(msg, source)
		return msg
	}

	cmd := CommandFor(path)
	execCtx, cancel := context.WithTimeout(ctx, i.timeout)
	err := i.exec.Execute(execCtx, cmd)
	cancel()

	var msg status.Message
	if err != nil {
		i.logger.Error("costume command failed",
			zap.String("path", path),
			zap.String("source", string(source)),
			zap.Error(err))
		msg = status.Emphasized(status.KindError, "Failed to update the focus character's outfit to %s.", path)
	} else {
		msg = status.Emphasized(status.KindSuccess, "Updated the focus character's outfit to %s.", path)
	}

	if i.subject != nil {
		evt := events.CostumeIssued{
			Path:    path,
			Command: cmd.Text,
			Trigger: trigger,
			Source:  string(source),
			OK:      err == nil,
			Message: msg.Text,
			At:      time.Now(),
		}
		if emitErr := events.Emit(i.subject, events.TopicCostumeIssued, evt); emitErr != nil {
			i.logger.Warn("costume event dropped", zap.Error(emitErr))
		}
	}

	i.post(msg, source)
	return msg
}

// IsMissingFolder reports whether msg is the empty-folder outcome.
func IsMissingFolder(msg status.Message) bool {
	return msg.Text == missingFolder
}

func (i *Issuer) post(msg status.Message, source Source) {
	if source == SourceSlash {
		return
	}
	i.notifier.Notify(msg)
}
