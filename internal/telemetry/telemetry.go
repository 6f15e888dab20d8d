// Package telemetry provides the optional diagnostic-logging hook shared
// by hsm and cell. It standardizes how those packages accept a
// logiface.Logger-shaped sink without either package needing to import
// a concrete logiface backend (stumpy, zerolog, logrus, ...) itself.
//
// This mirrors eventloop's package-level SetStructuredLogger/getGlobalLogger
// pattern, but scoped per-instance rather than global: each Engine or Cell
// is constructed with its own optional sink, so two independent state
// machines in the same process never share (or fight over) logging
// configuration.
package telemetry

import "github.com/joeycumines/logiface"

// Sink is the narrow surface this repository's core packages need from a
// logiface event. It is satisfied by *logiface.Logger[E] for any event
// type E via the Adapt helper below.
type Sink interface {
	// Enabled reports whether a log at the given level would be emitted.
	Enabled(level logiface.Level) bool
	// Log emits a structured record. fields is flattened as key, value,
	// key, value, ... pairs; an odd trailing element is ignored.
	Log(level logiface.Level, msg string, fields ...any)
}

// NoOp is the zero-overhead default sink: Enabled always false, Log is a
// no-op. Used when no logger option is supplied.
var NoOp Sink = noOpSink{}

type noOpSink struct{}

func (noOpSink) Enabled(logiface.Level) bool { return false }
func (noOpSink) Log(logiface.Level, string, ...any) {}

// Adapt wraps a *logiface.Logger[E] as a Sink, for any concrete event
// type E (e.g. *stumpy.Event).
func Adapt[E logiface.Event](l *logiface.Logger[E]) Sink {
	if l == nil {
		return NoOp
	}
	return loggerSink[E]{l: l}
}

type loggerSink[E logiface.Event] struct {
	l *logiface.Logger[E]
}

func (s loggerSink[E]) Enabled(level logiface.Level) bool {
	return s.l.Level().Enabled() && level <= s.l.Level()
}

func (s loggerSink[E]) Log(level logiface.Level, msg string, fields ...any) {
	b := s.l.Build(level)
	if b == nil {
		return
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key, _ := fields[i].(string)
		if key == "" {
			continue
		}
		b = b.Any(key, fields[i+1])
	}
	b.Log(msg)
}
