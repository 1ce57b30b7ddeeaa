package database

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/utafrali/ShopyKart/pkg/database"

var mongoCommandDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mongo_command_duration_seconds",
		Help:    "Duration of MongoDB commands in seconds",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	},
	[]string{"command", "collection", "outcome"},
)

// commandObserver correlates started and finished driver events.
type commandObserver struct {
	tracer    trace.Tracer
	threshold time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	inflight map[string]inflightCommand
}

type inflightCommand struct {
	span       trace.Span
	collection string
}

// NewCommandMonitor returns a driver monitor that opens a client span per
// command, records mongo_command_duration_seconds and warns about commands
// slower than threshold. A zero threshold disables the slow-command log.
func NewCommandMonitor(threshold time.Duration, logger *slog.Logger) *event.CommandMonitor {
	o := &commandObserver{
		tracer:    otel.Tracer(tracerName),
		threshold: threshold,
		logger:    logger,
		inflight:  make(map[string]inflightCommand),
	}
	return &event.CommandMonitor{
		Started:   o.started,
		Succeeded: o.succeeded,
		Failed:    o.failed,
	}
}

func commandKey(connID string, requestID int64) string {
	return fmt.Sprintf("%s/%d", connID, requestID)
}

func (o *commandObserver) started(ctx context.Context, e *event.CommandStartedEvent) {
	collection := ""
	if v, ok := e.Command.Lookup(e.CommandName).StringValueOK(); ok {
		collection = v
	}

	_, span := o.tracer.Start(ctx, "mongo."+e.CommandName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "mongodb"),
			attribute.String("db.name", e.DatabaseName),
			attribute.String("db.operation", e.CommandName),
			attribute.String("db.mongodb.collection", collection),
		),
	)

	o.mu.Lock()
	o.inflight[commandKey(e.ConnectionID, e.RequestID)] = inflightCommand{span: span, collection: collection}
	o.mu.Unlock()
}

func (o *commandObserver) succeeded(ctx context.Context, e *event.CommandSucceededEvent) {
	o.finish(ctx, e.CommandFinishedEvent, "")
}

func (o *commandObserver) failed(ctx context.Context, e *event.CommandFailedEvent) {
	failure := e.Failure
	if failure == "" {
		failure = "command failed"
	}
	o.finish(ctx, e.CommandFinishedEvent, failure)
}

func (o *commandObserver) finish(ctx context.Context, e event.CommandFinishedEvent, failure string) {
	key := commandKey(e.ConnectionID, e.RequestID)
	o.mu.Lock()
	cmd, ok := o.inflight[key]
	delete(o.inflight, key)
	o.mu.Unlock()

	outcome := "ok"
	if failure != "" {
		outcome = "error"
	}
	mongoCommandDuration.WithLabelValues(e.CommandName, cmd.collection, outcome).Observe(e.Duration.Seconds())

	if ok {
		if failure != "" {
			cmd.span.SetStatus(codes.Error, failure)
		}
		cmd.span.End()
	}

	if o.threshold > 0 && o.logger != nil && e.Duration >= o.threshold {
		attrs := []any{
			slog.String("command", e.CommandName),
			slog.String("collection", cmd.collection),
			slog.Duration("duration", e.Duration),
		}
		if failure != "" {
			attrs = append(attrs, slog.String("error", failure))
		}
		o.logger.WarnContext(ctx, "slow mongo command", attrs...)
	}
}
