package sink

import (
	"context"
	"errors"
	"log"

	"github.com/moona3k/website-to-voice-agent/internal/agent"
	"github.com/moona3k/website-to-voice-agent/internal/lead"
)

// Multi fans one record out to every configured destination. All sinks are
// attempted even when earlier ones fail; the combined error is returned.
type Multi struct {
	recorders []agent.Recorder
}

func NewMulti(recorders ...agent.Recorder) *Multi {
	return &Multi{recorders: recorders}
}

func (m *Multi) Append(ctx context.Context, rec lead.Record) error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.Append(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogRecorder writes leads to the process log. It is the fallback when no
// external sink is configured, so finished calls are never silently dropped.
type LogRecorder struct{}

func (LogRecorder) Append(_ context.Context, rec lead.Record) error {
	log.Printf("lead [%s]: status=%s website=%s duration=%s", rec.SessionID, rec.Status, rec.WebsiteURL, rec.Duration)
	return nil
}
