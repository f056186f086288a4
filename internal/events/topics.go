package events

import (
	"fmt"
	"time"

	"github.com/neboloop/outfitswitch/internal/payload"
)

// Host lifecycle topics. Names follow the chat host's event names.
const (
	TopicCharacterMessageRendered = "character_message_rendered"
	TopicMessageRendered          = "message_rendered"
	TopicStreamTokenReceived      = "stream_token_received"
	TopicGenerationStarted        = "generation_started"
	TopicChatChanged              = "chat_id_changed"
	TopicStreamEnded              = "stream_ended"
	TopicStreamFinished           = "stream_finished"
	TopicStreamComplete           = "stream_complete"
	TopicGenerationEnded          = "generation_ended"
)

// Internal topics.
const (
	TopicCostumeIssued = "outfit.costume_issued"
)

var (
	MessageTopics    = []string{TopicCharacterMessageRendered, TopicMessageRendered}
	StreamTopics     = []string{TopicStreamTokenReceived}
	GenerationTopics = []string{TopicGenerationStarted}
	ResetTopics      = []string{TopicChatChanged, TopicStreamEnded, TopicStreamFinished, TopicStreamComplete, TopicGenerationEnded}
)

// HostTopics lists every topic a host may post.
func HostTopics() []string {
	out := make([]string, 0, 10)
	for _, group := range [][]string{MessageTopics, StreamTopics, GenerationTopics, ResetTopics} {
		out = append(out, group...)
	}
	return out
}

// IsHostTopic reports whether topic is one the host may post.
func IsHostTopic(topic string) bool {
	for _, t := range HostTopics() {
		if t == topic {
			return true
		}
	}
	return false
}

// HostEvent is one lifecycle notification from the chat host. Args are the
// positional arguments the host passed to its listeners.
type HostEvent struct {
	Topic    string
	Args     []*payload.Value
	Received time.Time
}

// EmitHost posts a host lifecycle event. Unknown topics are rejected.
func EmitHost(subject *Subject, topic string, args []*payload.Value) error {
	if !IsHostTopic(topic) {
		return fmt.Errorf("unknown host topic %q", topic)
	}
	return Emit(subject, topic, HostEvent{Topic: topic, Args: args, Received: time.Now()})
}

// CostumeIssued is emitted after a costume command has been executed.
type CostumeIssued struct {
	Path    string
	Command string
	Trigger string
	Source  string
	OK      bool
	Message string
	At      time.Time
}
