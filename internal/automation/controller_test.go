package automation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/outfitswitch/internal/events"
	"github.com/neboloop/outfitswitch/internal/issuer"
	"github.com/neboloop/outfitswitch/internal/payload"
	"github.com/neboloop/outfitswitch/internal/profile"
	"github.com/neboloop/outfitswitch/internal/status"
)

type staticSettings struct {
	mu sync.RWMutex
	s  *profile.Settings
}

func (f *staticSettings) View(fn func(*profile.Settings)) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fn(f.s)
}

func (f *staticSettings) update(fn func(*profile.Settings)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f.s)
}

type issued struct {
	folder, trigger string
}

type fakeIssuer struct {
	mu    sync.Mutex
	calls []issued
}

func (f *fakeIssuer) IssueTriggered(_ context.Context, folder, trigger string, _ issuer.Source) status.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, issued{folder, trigger})
	return status.New(status.KindSuccess, folder)
}

func (f *fakeIssuer) folders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for _, c := range f.calls {
		out = append(out, c.folder)
	}
	return out
}

func newHarness(t *testing.T, doc string, opts ...Option) (*Controller, *staticSettings, *fakeIssuer) {
	t.Helper()
	src := &staticSettings{s: profile.EnsureSettingsShape([]byte(doc))}
	iss := &fakeIssuer{}
	keys := 0
	base := []Option{
		WithDispatcher(func(fn func()) { fn() }),
		WithKeyGenerator(func() string {
			keys++
			return fmt.Sprintf("gen-%d", keys)
		}),
	}
	return New(src, iss, append(base, opts...)...), src, iss
}

func args(docs ...string) []*payload.Value {
	out := make([]*payload.Value, 0, len(docs))
	for _, d := range docs {
		out = append(out, payload.MustParse(d))
	}
	return out
}

const greetingSettings = `{
	"enabled": true,
	"profiles": {"Main": {"triggers": [{"triggers": ["/^hello/i"], "folder": "greet"}]}},
	"activeProfile": "Main"
}`

const winterSettings = `{
	"enabled": true,
	"profiles": {
		"Main": {"baseFolder": "looks", "triggers": [{"triggers": ["winter"], "folder": "cold"}, {"trigger": "beach", "folder": "sun"}]},
		"Alt": {"baseFolder": "alt", "triggers": [{"trigger": "winter", "folder": "snow"}]}
	},
	"activeProfile": "Main"
}`

func TestStreamedGreetingIssuesOnce(t *testing.T) {
	c, _, iss := newHarness(t, greetingSettings)

	c.HandleGenerationStarted(args(`{"bufKey":"b1"}`))
	assert.Equal(t, "b1", c.Snapshot().StreamKey)

	assert.Equal(t, Ignored, c.HandleStreamToken(args(`"he"`)))
	assert.Equal(t, Issued, c.HandleStreamToken(args(`"llo there"`)))
	assert.Equal(t, "hello there", c.Snapshot().StreamBuffer)
	assert.Equal(t, Suppressed, c.HandleStreamToken(args(`" friend"`)))
	assert.Equal(t, "b1", c.Snapshot().StreamKey)
	assert.Equal(t, []string{"greet"}, iss.folders())

	st := c.Snapshot()
	assert.Equal(t, "greet", st.StreamIssuedCostume)
	assert.Equal(t, "/^hello/i", st.StreamTrigger)
	assert.Equal(t, "greet", st.LastAppliedCostume)

	// The final render of the streamed message confirms instead of re-issuing.
	assert.Equal(t, Confirmed, c.HandleMessage(args(`{"mes":"hello there friend","key":"m7"}`)))
	assert.Equal(t, []string{"greet"}, iss.folders())

	st = c.Snapshot()
	assert.Equal(t, "m7", st.LastMessageSignature)
	assert.Equal(t, "greet", st.LastAppliedCostume)
	assert.Empty(t, st.StreamKey)
	assert.Empty(t, st.StreamBuffer)
	assert.Empty(t, st.StreamIssuedCostume)
	assert.Empty(t, st.StreamTrigger)

	// A later re-render of the same message is suppressed.
	assert.Equal(t, Suppressed, c.HandleMessage(args(`{"mes":"hello there friend","key":"m7"}`)))
	assert.Equal(t, []string{"greet"}, iss.folders())
}

func TestMessageDeduplication(t *testing.T) {
	c, _, iss := newHarness(t, winterSettings)

	msg := `{"mes":"She puts on a Winter coat.","id":3}`
	assert.Equal(t, Issued, c.HandleMessage(args(msg)))
	assert.Equal(t, Suppressed, c.HandleMessage(args(msg)))
	assert.Equal(t, "id:3", c.Snapshot().LastMessageSignature)

	// Same costume, different message: switch again.
	assert.Equal(t, Issued, c.HandleMessage(args(`{"mes":"Winter again","id":4}`)))
	// Same message id but different costume: switch.
	assert.Equal(t, Issued, c.HandleMessage(args(`{"mes":"to the beach","id":4}`)))

	assert.Equal(t, []string{"looks/cold", "looks/cold", "looks/sun"}, iss.folders())
	assert.Equal(t, "winter", iss.calls[0].trigger)
}

func TestMessageIgnored(t *testing.T) {
	c, src, iss := newHarness(t, winterSettings)

	assert.Equal(t, Ignored, c.HandleMessage(args(`{"mes":"winter","is_user":true}`)))
	assert.Equal(t, Ignored, c.HandleMessage(args(`{"mes":"   "}`)))
	assert.Equal(t, Ignored, c.HandleMessage(args(`{"mes":"summer"}`)))
	assert.Equal(t, Ignored, c.HandleMessage(nil))

	src.update(func(s *profile.Settings) { s.Enabled = false })
	assert.Equal(t, Ignored, c.HandleMessage(args(`{"mes":"winter"}`)))
	assert.Equal(t, Ignored, c.HandleStreamToken(args(`"winter"`)))
	c.HandleGenerationStarted(args(`"g"`))
	assert.Empty(t, c.Snapshot().StreamKey)

	assert.Empty(t, iss.folders())
	assert.Equal(t, State{}, c.Snapshot())
}

func TestActiveProfileIsResolvedPerEvent(t *testing.T) {
	c, src, iss := newHarness(t, winterSettings)

	c.HandleMessage(args(`{"mes":"winter","key":"a"}`))
	src.update(func(s *profile.Settings) { s.ActiveProfile = "Alt" })
	c.HandleMessage(args(`{"mes":"winter","key":"b"}`))

	assert.Equal(t, []string{"looks/cold", "alt/snow"}, iss.folders())
}

func TestStreamReferenceChangeResetsBuffer(t *testing.T) {
	c, _, iss := newHarness(t, winterSettings)

	c.HandleStreamToken(args(`{"token":"win","messageId":1}`))
	st := c.Snapshot()
	assert.Equal(t, "m1", st.StreamKey)
	assert.Equal(t, "win", st.StreamBuffer)

	// Tokens of a different stream never join the old buffer.
	assert.Equal(t, Ignored, c.HandleStreamToken(args(`{"token":"ter","messageId":2}`)))
	st = c.Snapshot()
	assert.Equal(t, "m2", st.StreamKey)
	assert.Equal(t, "ter", st.StreamBuffer)

	// Tokens without a reference stay on the current stream.
	assert.Equal(t, Issued, c.HandleStreamToken(args(`{"token":" winter"}`)))
	assert.Equal(t, "ter winter", c.Snapshot().StreamBuffer)
	assert.Equal(t, []string{"looks/cold"}, iss.folders())
}

func TestStreamWithoutReferenceGetsGeneratedKey(t *testing.T) {
	c, _, _ := newHarness(t, winterSettings)

	c.HandleGenerationStarted(nil)
	assert.Equal(t, "gen-1", c.Snapshot().StreamKey)

	c.Reset()
	c.HandleStreamToken(args(`"x"`))
	assert.Equal(t, "gen-2", c.Snapshot().StreamKey)
}

func TestStreamSwitchesWhenCostumeChanges(t *testing.T) {
	c, _, iss := newHarness(t, `{
		"enabled": true,
		"profiles": {"P": {"triggers": [{"trigger": "rain", "folder": "wet"}, {"trigger": "sun", "folder": "dry"}]}}
	}`, WithBufferLimit(10))

	c.HandleGenerationStarted(args(`"s"`))
	assert.Equal(t, Issued, c.HandleStreamToken(args(`"sun "`)))
	assert.Equal(t, Suppressed, c.HandleStreamToken(args(`"shine"`)))
	assert.Equal(t, Issued, c.HandleStreamToken(args(`" rain"`)))
	assert.Equal(t, "shine rain", c.Snapshot().StreamBuffer)
	assert.Equal(t, []string{"dry", "wet"}, iss.folders())
}

func TestStreamTokensWithMessageID(t *testing.T) {
	c, _, iss := newHarness(t, winterSettings)

	c.HandleGenerationStarted(args(`{"messageId":5}`))
	assert.Equal(t, Ignored, c.HandleStreamToken(args(`5`, `"win"`)))
	assert.Equal(t, Issued, c.HandleStreamToken(args(`5`, `"ter"`)))
	assert.Equal(t, "m5", c.Snapshot().StreamKey)
	assert.Equal(t, []string{"looks/cold"}, iss.folders())
}

func TestGenerationStartedResetsStreamOnly(t *testing.T) {
	c, _, _ := newHarness(t, winterSettings)

	c.HandleMessage(args(`{"mes":"winter","key":"k"}`))
	c.HandleStreamToken(args(`"winter"`))
	c.HandleGenerationStarted(args(`7`))

	st := c.Snapshot()
	assert.Equal(t, "m7", st.StreamKey)
	assert.Empty(t, st.StreamBuffer)
	assert.Empty(t, st.StreamIssuedCostume)
	assert.Equal(t, "k", st.LastMessageSignature)
	assert.Equal(t, "looks/cold", st.LastAppliedCostume)
}

func TestResetIsIdempotent(t *testing.T) {
	c, _, _ := newHarness(t, winterSettings)
	c.HandleMessage(args(`{"mes":"winter"}`))
	c.Reset()
	c.Reset()
	assert.Equal(t, State{}, c.Snapshot())
}

func TestOnSettingsChangeResetsWhenDisabled(t *testing.T) {
	c, src, _ := newHarness(t, winterSettings)
	c.HandleMessage(args(`{"mes":"winter"}`))

	c.OnSettingsChange(profile.Change{Key: profile.KeyTriggers})
	assert.NotEqual(t, State{}, c.Snapshot())

	c.OnSettingsChange(profile.Change{Key: profile.KeyEnabled})
	assert.NotEqual(t, State{}, c.Snapshot(), "still enabled")

	src.update(func(s *profile.Settings) { s.Enabled = false })
	c.OnSettingsChange(profile.Change{Key: profile.KeyEnabled})
	assert.Equal(t, State{}, c.Snapshot())
}

func TestRegisterAndTeardown(t *testing.T) {
	c, _, iss := newHarness(t, greetingSettings)
	subject := events.NewSubject(events.WithSyncDelivery())
	defer events.Complete(subject)

	c.Register(subject)
	c.Register(subject)
	assert.True(t, c.Registered())

	emit := func(topic string, docs ...string) {
		require.NoError(t, events.Emit(subject, topic, events.HostEvent{Topic: topic, Args: args(docs...)}))
	}
	flush := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, subject.Sync(ctx))
	}

	emit(events.TopicGenerationStarted, `"g1"`)
	emit(events.TopicStreamTokenReceived, `"Hello"`)
	emit(events.TopicStreamTokenReceived, `" you"`)
	emit(events.TopicCharacterMessageRendered, `{"mes":"Hello you","key":"g1"}`)
	emit(events.TopicMessageRendered, `{"mes":"Hello you","key":"g1"}`)
	flush()
	assert.Equal(t, []string{"greet"}, iss.folders())

	emit(events.TopicStreamTokenReceived, `"hello"`)
	emit(events.TopicStreamEnded)
	flush()
	assert.Equal(t, State{}, c.Snapshot())
	assert.Equal(t, []string{"greet", "greet"}, iss.folders())

	c.Teardown()
	assert.False(t, c.Registered())
	emit(events.TopicMessageRendered, `{"mes":"hello again","key":"z"}`)
	flush()
	assert.Len(t, iss.folders(), 2)
}

func TestNewStreamKey(t *testing.T) {
	a, b := NewStreamKey(), NewStreamKey()
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^stream-[0-9a-f-]{36}$`, a)
}

type slowFirstIssuer struct {
	fakeIssuer
	once sync.Once
}

func (s *slowFirstIssuer) IssueTriggered(ctx context.Context, folder, trigger string, src issuer.Source) status.Message {
	s.once.Do(func() { time.Sleep(30 * time.Millisecond) })
	return s.fakeIssuer.IssueTriggered(ctx, folder, trigger, src)
}

func TestIssuanceRunsInDecisionOrder(t *testing.T) {
	for i := 0; i < 20; i++ {
		src := &staticSettings{s: profile.EnsureSettingsShape([]byte(winterSettings))}
		iss := &slowFirstIssuer{}
		c := New(src, iss)

		require.Equal(t, Issued, c.HandleMessage(args(`{"mes":"A winter storm.","id":1}`)))
		require.Equal(t, Issued, c.HandleMessage(args(`{"mes":"Off to the beach.","id":2}`)))

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		require.NoError(t, c.Drain(ctx))
		cancel()
		assert.Equal(t, []string{"looks/cold", "looks/sun"}, iss.folders())
	}
}

func TestDrainWithNothingQueued(t *testing.T) {
	c := New(&staticSettings{s: profile.DefaultSettings()}, &fakeIssuer{})
	assert.NoError(t, c.Drain(context.Background()))
}
