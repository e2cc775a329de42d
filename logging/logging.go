// Package logging wires structured diagnostics for the runtime through
// github.com/joeycumines/logiface: a thin adapter over logiface's generic
// Logger[E]/Builder[E] so any concrete logiface backend (zerolog, slog,
// logrus, stumpy, or an in-memory testsuite harness) can be wired in by the
// host without this package depending on any of them.
package logging

import (
	"github.com/joeycumines/logiface"
)

// Logger is the structured-logging surface the runtime calls into: it logs
// each actor creation, each scheduling decision, and a failed iteration.
// Dispatch events and monitor transitions are not logged.
type Logger interface {
	Debug() Event
	Info() Event
	Warn() Event
	Error() Event
}

// Event is one in-flight log record, mirroring logiface's Builder chain.
type Event interface {
	Str(key, val string) Event
	Int(key string, val int) Event
	Err(err error) Event
	Msg(msg string)
}

// Adapter adapts a *logiface.Logger[E] into a [Logger], for any concrete
// logiface Event implementation E the host chooses to back it with.
type Adapter[E logiface.Event] struct {
	L *logiface.Logger[E]
}

// NewAdapter wraps an existing logiface logger.
func NewAdapter[E logiface.Event](l *logiface.Logger[E]) Adapter[E] {
	return Adapter[E]{L: l}
}

func (a Adapter[E]) Debug() Event { return builderEvent[E]{a.L.Debug()} }
func (a Adapter[E]) Info() Event  { return builderEvent[E]{a.L.Info()} }
func (a Adapter[E]) Warn() Event  { return builderEvent[E]{a.L.Warning()} }
func (a Adapter[E]) Error() Event { return builderEvent[E]{a.L.Err()} }

type builderEvent[E logiface.Event] struct {
	b *logiface.Builder[E]
}

func (e builderEvent[E]) Str(key, val string) Event { e.b.Str(key, val); return e }
func (e builderEvent[E]) Int(key string, val int) Event { e.b.Int(key, val); return e }
func (e builderEvent[E]) Err(err error) Event { e.b.Err(err); return e }
func (e builderEvent[E]) Msg(msg string) { e.b.Log(msg) }

// nopEvent discards every field and message, for NewNop.
type nopEvent struct{}

func (nopEvent) Str(string, string) Event  { return nopEvent{} }
func (nopEvent) Int(string, int) Event     { return nopEvent{} }
func (nopEvent) Err(error) Event           { return nopEvent{} }
func (nopEvent) Msg(string)                {}

type nopLogger struct{}

func (nopLogger) Debug() Event { return nopEvent{} }
func (nopLogger) Info() Event  { return nopEvent{} }
func (nopLogger) Warn() Event  { return nopEvent{} }
func (nopLogger) Error() Event { return nopEvent{} }

// NewNop returns a Logger that discards everything, the runtime's default
// when the host supplies none.
func NewNop() Logger { return nopLogger{} }
