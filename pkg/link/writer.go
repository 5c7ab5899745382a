// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link moves bytes between the host and the serial transport.
package link

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/freeroam/roamctl/pkg/freeroam"
	"github.com/rs/zerolog"
)

var (
	ErrClosed    = errors.New("link writer closed")
	ErrQueueFull = errors.New("link write queue full")
)

// DefaultQueueSize is the number of commands that may wait for the link
const DefaultQueueSize = 64

// CompletionFunc observes the outcome of one write
type CompletionFunc func(cmd freeroam.Command, err error)

type writeRequest struct {
	cmd  freeroam.Command
	done CompletionFunc
}

// AsyncWriter writes commands to the link from its own goroutine.
// Send never blocks and never retries: a write that fails or cannot be
// queued is reported to the completion callback and forgotten.
type AsyncWriter struct {
	w          io.Writer
	queue      chan writeRequest
	logger     zerolog.Logger
	onComplete CompletionFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	sent   atomic.Uint64
	failed atomic.Uint64
}

// WriterOption configures an AsyncWriter
type WriterOption func(*AsyncWriter)

// WithWriterLogger sets the logger used for delivery diagnostics
func WithWriterLogger(logger zerolog.Logger) WriterOption {
	return func(a *AsyncWriter) {
		a.logger = logger
	}
}

// WithQueueSize sets how many commands may be pending
func WithQueueSize(n int) WriterOption {
	return func(a *AsyncWriter) {
		if n > 0 {
			a.queue = make(chan writeRequest, n)
		}
	}
}

// WithCompletion sets the callback used by Send. It runs on the writer
// goroutine.
func WithCompletion(fn CompletionFunc) WriterOption {
	return func(a *AsyncWriter) {
		a.onComplete = fn
	}
}

// NewAsyncWriter starts a writer goroutine over w
func NewAsyncWriter(w io.Writer, opts ...WriterOption) *AsyncWriter {
	a := &AsyncWriter{
		w:      w,
		queue:  make(chan writeRequest, DefaultQueueSize),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.onComplete == nil {
		a.onComplete = a.logCompletion
	}

	a.wg.Add(1)
	go a.run()
	return a
}

// Send implements freeroam.Sender
func (a *AsyncWriter) Send(cmd freeroam.Command) {
	a.SendFunc(cmd, a.onComplete)
}

// SendFunc queues cmd and reports its outcome to done
func (a *AsyncWriter) SendFunc(cmd freeroam.Command, done CompletionFunc) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.complete(done, cmd, ErrClosed)
		return
	}

	select {
	case a.queue <- writeRequest{cmd: cmd, done: done}:
	default:
		a.complete(done, cmd, ErrQueueFull)
	}
}

// Sent returns the number of commands written successfully
func (a *AsyncWriter) Sent() uint64 {
	return a.sent.Load()
}

// Failed returns the number of commands that were not written
func (a *AsyncWriter) Failed() uint64 {
	return a.failed.Load()
}

// Close stops accepting commands and waits for queued ones to be written.
// The underlying writer is left open.
func (a *AsyncWriter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	a.wg.Wait()
	return nil
}

func (a *AsyncWriter) run() {
	defer a.wg.Done()
	for req := range a.queue {
		_, err := a.w.Write(req.cmd.Encode())
		a.complete(req.done, req.cmd, err)
	}
}

func (a *AsyncWriter) complete(done CompletionFunc, cmd freeroam.Command, err error) {
	if err != nil {
		a.failed.Add(1)
	} else {
		a.sent.Add(1)
	}
	if done != nil {
		done(cmd, err)
	}
}

func (a *AsyncWriter) logCompletion(cmd freeroam.Command, err error) {
	if err != nil {
		a.logger.Warn().Err(err).Str("command", freeroam.FormatCommand(cmd)).Msg("write failed")
		return
	}
	if cmd.Kind() == freeroam.CommandEmergencyStop {
		a.logger.Warn().Msg("emergency stop sent")
		return
	}
	a.logger.Debug().Str("command", freeroam.FormatCommand(cmd)).Msg("sent")
}
