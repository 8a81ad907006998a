// Package notifier delivers grade and error events to downstream consumers.
package notifier

import (
	"context"

	"gradewatch/internal/logger"
	"gradewatch/internal/model"

	"github.com/rs/zerolog"
)

// Sink receives events.
type Sink interface {
	Publish(ctx context.Context, evt *model.Event) error
	Name() string
}

// Dispatcher fans an event out to every sink. A failing sink is logged
// and does not stop delivery to the others.
type Dispatcher struct {
	sinks []Sink
	log   zerolog.Logger
}

// NewDispatcher creates a Dispatcher over sinks.
func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks: sinks,
		log:   logger.Get().With().Str("component", "notifier").Logger(),
	}
}

// Dispatch publishes evt to all sinks and returns the number that failed.
func (d *Dispatcher) Dispatch(ctx context.Context, evt *model.Event) int {
	failed := 0
	for _, s := range d.sinks {
		if err := s.Publish(ctx, evt); err != nil {
			failed++
			d.log.Error().Err(err).Str("sink", s.Name()).Str("event_id", evt.ID).Msg("publish event")
		}
	}
	return failed
}

// LogSink writes one structured line per event.
type LogSink struct {
	Log zerolog.Logger
}

func (LogSink) Name() string { return "log" }

func (s LogSink) Publish(_ context.Context, evt *model.Event) error {
	switch evt.Kind {
	case model.EventGrade:
		g := evt.Grade
		e := s.Log.Info().Str("event_id", evt.ID).Str("class", g.ClassName).Str("grade", g.Text)
		if g.ClassAverage.Valid {
			e = e.Str("class_average", g.ClassAverage.Decimal.String())
		}
		if g.OverallAverage.Valid {
			e = e.Str("overall_average", g.OverallAverage.Decimal.String())
		}
		e.Msg("found grade")
	case model.EventError:
		s.Log.Error().Str("event_id", evt.ID).Str("kind", evt.Error.Kind).Msg(evt.Error.Message)
	}
	return nil
}
