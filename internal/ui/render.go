package ui

import (
	"github.com/pterm/pterm"
	"go.uber.org/zap"
)

// Message is one line bound for the terminal.
type Message struct {
	Text    string
	IsError bool
}

// Renderer owns all terminal output while a batch runs. Worker goroutines
// post Messages to its channel; a single render goroutine consumes them, so
// the terminal is never written from two goroutines at once.
type Renderer struct {
	ch     chan Message
	done   chan struct{}
	logger *zap.Logger
}

// NewRenderer creates a renderer with a buffered message channel.
func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{
		ch:     make(chan Message, 64),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post queues a message. Safe to call from any goroutine; matches the
// converter.ProgressSink signature.
func (r *Renderer) Post(text string, isError bool) {
	r.ch <- Message{Text: text, IsError: isError}
}

// Loop consumes messages until Close is called and all queued messages are
// drained. It must be the only goroutine touching the terminal while running.
func (r *Renderer) Loop() error {
	defer close(r.done)
	for msg := range r.ch {
		if msg.IsError {
			pterm.Error.Println(msg.Text)
		} else {
			pterm.Info.Println(msg.Text)
		}
	}
	return nil
}

// Close stops the render loop after the queue drains and waits for it to
// exit, so callers can safely print again afterwards.
func (r *Renderer) Close() {
	close(r.ch)
	<-r.done
}
