package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// HandlerFunc is the function called when an event is emitted.
type HandlerFunc func(context.Context, any) error

// SubjectOption configures a Subject
type SubjectOption func(*subjectConfig)

type subjectConfig struct {
	bufferSize     int
	syncDelivery   bool
	emitTimeout    time.Duration
	handlerTimeout time.Duration
	logger         *zap.Logger
}

// WithBufferSize sets the event channel buffer size
func WithBufferSize(size int) SubjectOption {
	return func(cfg *subjectConfig) {
		cfg.bufferSize = size
	}
}

// WithLogger sets the logger for handler errors and panics
func WithLogger(logger *zap.Logger) SubjectOption {
	return func(cfg *subjectConfig) {
		cfg.logger = logger
	}
}

// WithSyncDelivery runs every handler inline on the event loop, so handlers
// see events one at a time in emission order.
func WithSyncDelivery() SubjectOption {
	return func(cfg *subjectConfig) {
		cfg.syncDelivery = true
	}
}

// WithEmitTimeout bounds how long Emit waits for room in a full buffer.
func WithEmitTimeout(d time.Duration) SubjectOption {
	return func(cfg *subjectConfig) {
		cfg.emitTimeout = d
	}
}

// Emit emits an event to the given topic.
func Emit[T any](subject *Subject, topic string, value T) error {
	if atomic.LoadInt32(&subject.closed) == 1 {
		return fmt.Errorf("emit %s: subject closed", topic)
	}

	evt := event{
		topic:   topic,
		message: value,
	}

	timer := time.NewTimer(subject.config.emitTimeout)
	defer timer.Stop()

	select {
	case subject.events <- evt:
		return nil
	case <-subject.shutdown:
		return fmt.Errorf("emit %s: subject closed", topic)
	case <-timer.C:
		return fmt.Errorf("emit %s: buffer full after %s", topic, subject.config.emitTimeout)
	}
}

// Subscribe subscribes a typed handler to the given topic.
// A Subscription is returned that can be used to unsubscribe from the topic.
func Subscribe[T any](subject *Subject, topic string, handler func(context.Context, T) error) Subscription {
	wrappedHandler := HandlerFunc(func(ctx context.Context, data any) error {
		if typed, ok := data.(T); ok {
			return handler(ctx, typed)
		}
		return fmt.Errorf("type assertion failed for %T, expected %T", data, *new(T))
	})

	subID := atomic.AddInt64(&subject.nextSubID, 1)
	sub := Subscription{
		Topic:     topic,
		CreatedAt: time.Now().UnixNano(),
		Handler:   wrappedHandler,
		ID:        fmt.Sprintf("%s-%d", topic, subID),
	}

	subject.addSubscription(sub)
	sub.Unsubscribe = func() {
		subject.removeSubscription(sub.Topic, sub.ID)
	}
	return sub
}

// Sync blocks until every event emitted before the call has been delivered
// to its synchronous handlers.
func (s *Subject) Sync(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case s.events <- event{barrier: done}:
	case <-s.shutdown:
		return fmt.Errorf("sync: subject closed")
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-s.shutdown:
		return fmt.Errorf("sync: subject closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Delivered reports how many events the loop has dispatched.
func (s *Subject) Delivered() int64 {
	return atomic.LoadInt64(&s.eventCount)
}

// Complete shuts down the event system, stopping all goroutines and cleaning up resources.
// This function is idempotent and safe to call multiple times.
func Complete(s *Subject) {
	if s == nil {
		return
	}

	if atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		close(s.shutdown)

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	}
}

type event struct {
	topic   string
	message any
	barrier chan struct{}
}

// Subscription represents a handler subscribed to a specific topic.
type Subscription struct {
	Topic       string
	CreatedAt   int64
	Handler     HandlerFunc
	ID          string
	Unsubscribe func()
}

// subscriberMap holds, per topic, subscriptions in the order they were made.
type subscriberMap map[string][]Subscription

type Subject struct {
	subscribers atomic.Pointer[subscriberMap]
	nextSubID   int64
	eventCount  int64

	events   chan event
	shutdown chan struct{}

	config subjectConfig

	closed int32
	wg     sync.WaitGroup
}

// NewSubject creates a new Subject with optional configuration.
func NewSubject(opts ...SubjectOption) *Subject {
	cfg := subjectConfig{
		bufferSize:     512,
		emitTimeout:    5 * time.Second,
		handlerTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	s := &Subject{
		events:   make(chan event, cfg.bufferSize),
		shutdown: make(chan struct{}),
		config:   cfg,
	}

	empty := make(subscriberMap)
	s.subscribers.Store(&empty)

	s.wg.Add(1)
	go s.eventLoop()
	return s
}

// eventLoop processes events and distributes them to subscribers
func (s *Subject) eventLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.shutdown:
			return
		case evt := <-s.events:
			if evt.barrier != nil {
				close(evt.barrier)
				continue
			}
			atomic.AddInt64(&s.eventCount, 1)

			subs := s.subscribers.Load()
			for _, sub := range (*subs)[evt.topic] {
				s.sendToSubscriber(sub, evt, s.config.syncDelivery)
			}
		}
	}
}

// addSubscription adds a subscription using copy-on-write
func (s *Subject) addSubscription(sub Subscription) {
	for {
		oldSubs := s.subscribers.Load()
		newSubs := s.copySubscribers(*oldSubs)
		newSubs[sub.Topic] = append(newSubs[sub.Topic], sub)

		if s.subscribers.CompareAndSwap(oldSubs, &newSubs) {
			return
		}
	}
}

// removeSubscription removes a subscription using copy-on-write
func (s *Subject) removeSubscription(topic, subID string) {
	for {
		oldSubs := s.subscribers.Load()
		list := (*oldSubs)[topic]
		idx := -1
		for i, sub := range list {
			if sub.ID == subID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}

		newSubs := s.copySubscribers(*oldSubs)
		trimmed := append(newSubs[topic][:idx:idx], newSubs[topic][idx+1:]...)
		if len(trimmed) == 0 {
			delete(newSubs, topic)
		} else {
			newSubs[topic] = trimmed
		}

		if s.subscribers.CompareAndSwap(oldSubs, &newSubs) {
			return
		}
	}
}

// copySubscribers creates a deep copy of the subscribers map
func (s *Subject) copySubscribers(original subscriberMap) subscriberMap {
	cp := make(subscriberMap, len(original))
	for topic, list := range original {
		cp[topic] = append([]Subscription(nil), list...)
	}
	return cp
}

// sendToSubscriber delivers an event to a subscriber. A panicking handler is
// logged and does not stop the loop.
func (s *Subject) sendToSubscriber(sub Subscription, evt event, sync bool) {
	deliverEvent := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.handlerTimeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				s.config.logger.Error("event handler panic",
					zap.String("topic", evt.topic),
					zap.String("subscription_id", sub.ID),
					zap.Any("panic", r))
			}
		}()

		if err := sub.Handler(ctx, evt.message); err != nil {
			s.config.logger.Debug("event handler error",
				zap.String("topic", evt.topic),
				zap.Error(err),
				zap.String("subscription_id", sub.ID),
				zap.Bool("sync", sync))
		}
	}

	if sync {
		deliverEvent()
	} else {
		go deliverEvent()
	}
}
