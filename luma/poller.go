package luma

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/luma-mcp/pkg/logging"
	"github.com/sweetpotato0/luma-mcp/pkg/telemetry"
)

// Clock abstracts time for the poller so tests can run without real delays.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// StatusFetcher is the slice of the API the poller needs. *Client
// implements it.
type StatusFetcher interface {
	GetGeneration(ctx context.Context, id string) (*Generation, error)
}

// Poller queries a generation at a fixed interval until it reaches a
// terminal status with its assets published, the per-kind ceiling elapses,
// or the context is cancelled. It is the only component that waits; the
// wait is a channel receive, so concurrent jobs never starve each other.
type Poller struct {
	fetcher  StatusFetcher
	interval time.Duration
	clock    Clock
	logger   *slog.Logger
	tracer   trace.Tracer
}

// PollerOption customises a Poller.
type PollerOption func(*Poller)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) PollerOption {
	return func(p *Poller) { p.clock = c }
}

// WithPollerLogger replaces the component logger.
func WithPollerLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

// NewPoller builds a Poller querying fetcher every interval.
func NewPoller(fetcher StatusFetcher, interval time.Duration, opts ...PollerOption) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		interval: interval,
		clock:    systemClock{},
		logger:   logging.WithComponent("poller"),
		tracer:   otel.Tracer("luma-mcp/luma"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait blocks until the generation identified by id finishes, fails, or the
// ceiling elapses.
//
//   - Completed with the kind's assets published: the final Generation is
//     returned. Completed without assets keeps polling; the API can flip
//     the status before the CDN URLs appear.
//   - Failed: a *RemoteError carrying the provider's failure reason.
//   - Ceiling elapsed: a *TimeoutError carrying the last observed status.
//     The remote job is not retracted.
//   - Context cancelled: ctx.Err(), and no further queries are issued.
func (p *Poller) Wait(ctx context.Context, id string, kind Kind, ceiling time.Duration) (gen *Generation, err error) {
	ctx, span := p.tracer.Start(ctx, "luma.Poll", trace.WithAttributes(
		attribute.String("luma.generation_id", id),
		attribute.String("luma.kind", string(kind)),
	))
	defer func() { telemetry.End(span, err) }()

	deadline := p.clock.Now().Add(ceiling)
	lastStatus := StatusPending

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		gen, err := p.fetcher.GetGeneration(ctx, id)
		if err != nil {
			return nil, err
		}
		lastStatus = gen.Status
		p.logger.Debug("generation polled", "generation_id", id, "status", gen.Status, "attempt", attempt)

		switch gen.Status {
		case StatusFailed:
			reason := gen.FailureReason
			if reason == "" {
				reason = "generation failed without a reason"
			}
			return nil, &RemoteError{GenerationID: id, Message: reason}
		case StatusCompleted:
			if assetsReady(kind, gen.Assets) {
				span.SetAttributes(attribute.Int("luma.poll_attempts", attempt))
				return gen, nil
			}
		}

		// Sleeping past the deadline could not observe anything new in
		// time, so give up now rather than overshoot the ceiling.
		if !p.clock.Now().Add(p.interval).Before(deadline) {
			return nil, &TimeoutError{GenerationID: id, LastStatus: lastStatus, Ceiling: ceiling}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.clock.After(p.interval):
		}
	}
}
