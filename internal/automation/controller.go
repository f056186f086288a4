// Package automation switches costumes from chat lifecycle events.
//
// The controller watches finished messages and streamed tokens. A message
// or stream switches the costume at most once: a final message whose
// costume was already issued while streaming only confirms it, a repeated
// render of the same message is suppressed, and a stream re-issues only
// when the costume its growing buffer matches actually changes.
package automation

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neboloop/outfitswitch/internal/issuer"
	"github.com/neboloop/outfitswitch/internal/payload"
	"github.com/neboloop/outfitswitch/internal/profile"
	"github.com/neboloop/outfitswitch/internal/status"
	"github.com/neboloop/outfitswitch/internal/stream"
	"github.com/neboloop/outfitswitch/internal/trigger"
)

// SettingsSource gives read access to the live settings. *profile.Store
// satisfies it.
type SettingsSource interface {
	View(fn func(*profile.Settings))
}

// Issuer performs the costume change. *issuer.Issuer satisfies it.
type Issuer interface {
	IssueTriggered(ctx context.Context, folder, trigger string, source issuer.Source) status.Message
}

// State is the controller's tracking state. The Stream* fields are always
// cleared together.
type State struct {
	LastMessageSignature string `json:"lastMessageSignature"`
	LastAppliedCostume   string `json:"lastAppliedCostume"`
	StreamKey            string `json:"streamKey"`
	StreamBuffer         string `json:"streamBuffer"`
	StreamIssuedCostume  string `json:"streamIssuedCostume"`
	StreamTrigger        string `json:"streamTrigger"`
}

func (s *State) resetStream() {
	s.StreamKey = ""
	s.StreamBuffer = ""
	s.StreamIssuedCostume = ""
	s.StreamTrigger = ""
}

// Decision is what a handler did with an event.
type Decision int

const (
	Ignored Decision = iota
	// Confirmed means a final message matched the costume its stream
	// already issued; nothing was sent.
	Confirmed
	// Suppressed means the costume was already applied for this message
	// or stream.
	Suppressed
	Issued
)

func (d Decision) String() string {
	switch d {
	case Confirmed:
		return "confirmed"
	case Suppressed:
		return "suppressed"
	case Issued:
		return "issued"
	}
	return "ignored"
}

// Option configures a Controller.
type Option func(*Controller)

// WithBufferLimit bounds the stream buffer in characters.
func WithBufferLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithKeyGenerator replaces the stream key generator used when the host
// gives no stream reference.
func WithKeyGenerator(fn func() string) Option {
	return func(c *Controller) { c.newKey = fn }
}

// WithDispatcher replaces how issuance is started. The default queues
// issuances and runs them one at a time in decision order.
func WithDispatcher(fn func(func())) Option {
	return func(c *Controller) { c.dispatch = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewStreamKey returns a time-ordered key for an unnamed stream.
func NewStreamKey() string {
	return "stream-" + uuid.Must(uuid.NewV7()).String()
}

// Controller is the automation state machine.
type Controller struct {
	settings SettingsSource
	issuer   Issuer
	limit    int
	newKey   func() string
	dispatch func(func())
	logger   *zap.Logger
	queue    issueQueue

	mu    sync.Mutex
	state State

	regMu sync.Mutex
	reg   *registration
}

// New returns a controller reading settings from src and switching through iss.
func New(src SettingsSource, iss Issuer, opts ...Option) *Controller {
	c := &Controller{
		settings: src,
		issuer:   iss,
		limit:    stream.DefaultLimit,
		newKey:   NewStreamKey,
		logger:   zap.NewNop(),
	}
	c.dispatch = c.queue.push
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// issueQueue runs queued issuances in FIFO order on a single goroutine.
// The goroutine exits when the queue empties; the next push starts another.
type issueQueue struct {
	mu      sync.Mutex
	pending []func()
	running bool
	idle    chan struct{} // closed when the drainer exits
}

func (q *issueQueue) push(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, fn)
	if q.running {
		return
	}
	q.running = true
	q.idle = make(chan struct{})
	go q.drain(q.idle)
}

func (q *issueQueue) drain(idle chan struct{}) {
	defer close(idle)
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()
		fn()
	}
}

// wait blocks until queued issuances have run or ctx is done.
func (q *issueQueue) wait(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	running := q.running
	q.mu.Unlock()
	if !running {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain waits for issuances already decided to finish.
func (c *Controller) Drain(ctx context.Context) error {
	return c.queue.wait(ctx)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset clears all tracking. It is safe to call repeatedly.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.state = State{}
	c.mu.Unlock()
}

// match looks text up in the active profile. enabled is false, and no
// lookup happens, when automation is switched off.
func (c *Controller) match(text string) (m trigger.Match, enabled, ok bool) {
	c.settings.View(func(s *profile.Settings) {
		enabled = s.Enabled
		if !enabled {
			return
		}
		m, ok = trigger.FindCostumeForText(s.Active(), text)
	})
	return m, enabled, ok
}

func (c *Controller) enabled() bool {
	var on bool
	c.settings.View(func(s *profile.Settings) { on = s.Enabled })
	return on
}

// HandleMessage processes a rendered message.
func (c *Controller) HandleMessage(args []*payload.Value) Decision {
	if !c.enabled() {
		return Ignored
	}
	details, found := payload.ExtractMessage(args)
	if !found || details.IsUser {
		return Ignored
	}
	m, enabled, ok := c.match(details.Text)
	if !enabled || !ok || m.Costume == "" {
		return Ignored
	}
	signature := details.Signature()

	c.mu.Lock()
	if c.state.StreamIssuedCostume != "" && c.state.StreamIssuedCostume == m.Costume {
		c.state.LastMessageSignature = signature
		c.state.LastAppliedCostume = m.Costume
		c.state.resetStream()
		c.mu.Unlock()
		c.logger.Debug("stream costume confirmed", zap.String("costume", m.Costume))
		return Confirmed
	}
	if signature != "" && c.state.LastMessageSignature == signature && c.state.LastAppliedCostume == m.Costume {
		c.mu.Unlock()
		return Suppressed
	}
	c.state.LastMessageSignature = signature
	c.state.LastAppliedCostume = m.Costume
	c.mu.Unlock()

	c.logger.Info("auto-switching costume",
		zap.String("costume", m.Costume),
		zap.String("trigger", m.Trigger))
	c.issue(m)
	return Issued
}

// HandleGenerationStarted starts tracking a new stream.
func (c *Controller) HandleGenerationStarted(args []*payload.Value) {
	if !c.enabled() {
		return
	}
	key := payload.StreamReference(args)
	if key == "" {
		key = c.newKey()
	}

	c.mu.Lock()
	c.state.resetStream()
	c.state.StreamKey = key
	c.mu.Unlock()
}

// HandleStreamToken appends a streamed token and re-matches the buffer.
func (c *Controller) HandleStreamToken(args []*payload.Value) Decision {
	if !c.enabled() {
		return Ignored
	}
	token := payload.TokenText(args)
	if token == "" {
		return Ignored
	}
	ref := payload.TokenReference(args)

	c.mu.Lock()
	switch {
	case ref != "" && c.state.StreamKey != "" && c.state.StreamKey != ref:
		c.state.resetStream()
		c.state.StreamKey = ref
	case c.state.StreamKey == "":
		if ref == "" {
			ref = c.newKey()
		}
		c.state.StreamKey = ref
	}
	c.state.StreamBuffer = stream.BuildBuffer(c.state.StreamBuffer, token, c.limit)
	buffer := c.state.StreamBuffer
	c.mu.Unlock()

	m, enabled, ok := c.match(buffer)
	if !enabled || !ok || m.Costume == "" {
		return Ignored
	}

	c.mu.Lock()
	if c.state.StreamBuffer != buffer {
		// Reset or another token arrived while matching.
		c.mu.Unlock()
		return Ignored
	}
	if c.state.StreamIssuedCostume == m.Costume {
		c.mu.Unlock()
		return Suppressed
	}
	c.state.StreamIssuedCostume = m.Costume
	c.state.StreamTrigger = m.Trigger
	c.state.LastAppliedCostume = m.Costume
	c.mu.Unlock()

	c.logger.Info("streaming auto-switch",
		zap.String("costume", m.Costume),
		zap.String("trigger", m.Trigger))
	c.issue(m)
	return Issued
}

// OnSettingsChange drops tracking once automation is switched off.
func (c *Controller) OnSettingsChange(ch profile.Change) {
	if ch.Key != profile.KeyEnabled && ch.Key != profile.KeySettings {
		return
	}
	if !c.enabled() {
		c.Reset()
	}
}

func (c *Controller) issue(m trigger.Match) {
	c.dispatch(func() {
		c.issuer.IssueTriggered(context.Background(), m.Costume, m.Trigger, issuer.SourceAutomation)
	})
}
