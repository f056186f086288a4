// Package status carries the human-readable outcome strings shown to the
// user after an action.
package status

import (
	"fmt"

	"github.com/neboloop/outfitswitch/internal/markdown"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Message is a status line in plain and markdown form.
type Message struct {
	Kind     Kind   `json:"kind"`
	Text     string `json:"text"`
	Markdown string `json:"markdown"`
}

// New builds a message whose text carries no emphasis.
func New(kind Kind, text string) Message {
	return Message{Kind: kind, Text: text, Markdown: markdown.Escape(text)}
}

// Emphasized formats a message where each %s value is shown in bold.
// The format itself is treated as literal text.
func Emphasized(kind Kind, format string, values ...string) Message {
	plain := make([]any, len(values))
	bold := make([]any, len(values))
	for i, v := range values {
		plain[i] = v
		bold[i] = markdown.Bold(v)
	}
	return Message{
		Kind:     kind,
		Text:     fmt.Sprintf(format, plain...),
		Markdown: fmt.Sprintf(escapeFormat(format), bold...),
	}
}

// escapeFormat escapes markdown in a format string while leaving verbs alone.
func escapeFormat(format string) string {
	out := make([]byte, 0, len(format)+8)
	for i := 0; i < len(format); i++ {
		if format[i] == '%' && i+1 < len(format) {
			out = append(out, format[i], format[i+1])
			i++
			continue
		}
		out = append(out, markdown.Escape(format[i:i+1])...)
	}
	return string(out)
}

// HTML renders the message for display.
func (m Message) HTML() string {
	return markdown.Inline(m.Markdown)
}

func (m Message) String() string { return m.Text }

// OK reports whether the message is not an error.
func (m Message) OK() bool { return m.Kind != KindError }

// Notifier receives status messages for display.
type Notifier interface {
	Notify(Message)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Message)

func (f NotifierFunc) Notify(m Message) { f(m) }

// Discard drops every message.
var Discard Notifier = NotifierFunc(func(Message) {})
