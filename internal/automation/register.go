package automation

import (
	"context"

	"github.com/neboloop/outfitswitch/internal/events"
)

type registration struct {
	subject *events.Subject
	subs    []events.Subscription
}

// Register subscribes the controller to the host lifecycle topics on
// subject. A second call while registered is a no-op.
func (c *Controller) Register(subject *events.Subject) {
	c.regMu.Lock()
	defer c.regMu.Unlock()
	if c.reg != nil {
		return
	}

	reg := &registration{subject: subject}
	on := func(topics []string, fn func(events.HostEvent)) {
		for _, topic := range topics {
			reg.subs = append(reg.subs, events.Subscribe(subject, topic, func(_ context.Context, e events.HostEvent) error {
				fn(e)
				return nil
			}))
		}
	}

	on(events.MessageTopics, func(e events.HostEvent) { c.HandleMessage(e.Args) })
	on(events.StreamTopics, func(e events.HostEvent) { c.HandleStreamToken(e.Args) })
	on(events.GenerationTopics, func(e events.HostEvent) { c.HandleGenerationStarted(e.Args) })
	on(events.ResetTopics, func(events.HostEvent) { c.Reset() })

	c.reg = reg
}

// Registered reports whether the controller is subscribed.
func (c *Controller) Registered() bool {
	c.regMu.Lock()
	defer c.regMu.Unlock()
	return c.reg != nil
}

// Teardown unsubscribes every handler and clears tracking.
func (c *Controller) Teardown() {
	c.regMu.Lock()
	reg := c.reg
	c.reg = nil
	c.regMu.Unlock()

	if reg != nil {
		for _, sub := range reg.subs {
			sub.Unsubscribe()
		}
	}
	c.Reset()
}
