// Package notify delivers user-facing messages about automatic updates.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/sqve/avalanche/internal/logger"
	"github.com/sqve/avalanche/internal/models"
	"github.com/sqve/avalanche/internal/styles"
)

type Notifier interface {
	Notify(message string, severity models.Severity)
}

// Console prints one line per message.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Notify(message string, severity models.Severity) {
	var line string
	switch severity {
	case models.SeverityError:
		line = styles.Symbol("error") + " " + styles.Render(&styles.Error, message)
	case models.SeverityWarning:
		line = styles.Symbol("warning") + " " + message
	default:
		line = styles.Symbol("info") + " " + message
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, line)
}

// Log writes messages to the structured log sink.
type Log struct{}

func (Log) Notify(message string, severity models.Severity) {
	log := logger.WithComponent("notify")
	switch severity {
	case models.SeverityError:
		log.Error(message)
	case models.SeverityWarning:
		log.Warn(message)
	default:
		log.Info(message)
	}
}

// Multi fans a message out to every notifier.
type Multi []Notifier

func (m Multi) Notify(message string, severity models.Severity) {
	for _, n := range m {
		n.Notify(message, severity)
	}
}

type Message struct {
	Text     string
	Severity models.Severity
}

// Recorder keeps every message it receives.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(message string, severity models.Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Text: message, Severity: severity})
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Texts returns the recorded messages of the given severity.
func (r *Recorder) Texts(severity models.Severity) []string {
	var texts []string
	for _, m := range r.Messages() {
		if m.Severity == severity {
			texts = append(texts, m.Text)
		}
	}
	return texts
}
