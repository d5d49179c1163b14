package importer

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Level classifies an import log event.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// Event is one human-readable progress line of an import run.
type Event struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Reporter receives import events as they happen.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

// LogReporter mirrors events to the global zerolog logger.
type LogReporter struct{}

func (LogReporter) Report(e Event) {
	switch e.Level {
	case LevelWarn:
		log.Warn().Str("component", "importer").Msg(e.Message)
	case LevelError:
		log.Error().Str("component", "importer").Msg(e.Message)
	case LevelFatal:
		// WithLevel never exits; the caller decides whether the process stops.
		log.WithLevel(zerolog.FatalLevel).Str("component", "importer").Msg(e.Message)
	default:
		log.Info().Str("component", "importer").Msg(e.Message)
	}
}

// MultiReporter fans events out to every non-nil reporter in order.
func MultiReporter(reporters ...Reporter) Reporter {
	return ReporterFunc(func(e Event) {
		for _, r := range reporters {
			if r != nil {
				r.Report(e)
			}
		}
	})
}

// BufferReporter collects events in memory, used by the non-streaming
// import endpoint.
type BufferReporter struct {
	mu     sync.Mutex
	events []Event
}

func (b *BufferReporter) Report(e Event) {
	b.mu.Lock()
	b.events = append(b.events, e)
	b.mu.Unlock()
}

// Lines returns the messages received so far.
func (b *BufferReporter) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := make([]string, len(b.events))
	for i, e := range b.events {
		lines[i] = e.Message
	}
	return lines
}

// runLog stamps events and counts warnings for the summary.
type runLog struct {
	rep      Reporter
	now      func() time.Time
	warnings int
}

func (l *runLog) emit(level Level, format string, args ...any) {
	if level == LevelWarn {
		l.warnings++
	}
	if l.rep == nil {
		return
	}
	l.rep.Report(Event{Level: level, Message: fmt.Sprintf(format, args...), Time: l.now()})
}

func (l *runLog) info(format string, args ...any)   { l.emit(LevelInfo, format, args...) }
func (l *runLog) warn(format string, args ...any)   { l.emit(LevelWarn, format, args...) }
func (l *runLog) errorf(format string, args ...any) { l.emit(LevelError, format, args...) }
func (l *runLog) fatal(format string, args ...any)  { l.emit(LevelFatal, format, args...) }
