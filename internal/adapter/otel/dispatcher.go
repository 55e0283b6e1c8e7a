package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/proviq/internal/domain"
)

// TracingDispatcher wraps a domain.EventDispatcher with OpenTelemetry tracing.
// The span covers the whole dispatch, so every provider call and state update
// made for one delivered event shows up under a single trace.
type TracingDispatcher struct {
	next   domain.EventDispatcher
	tracer trace.Tracer
}

// Compile-time check: TracingDispatcher implements domain.EventDispatcher.
var _ domain.EventDispatcher = (*TracingDispatcher)(nil)

// NewTracingDispatcher creates a tracing decorator around the given dispatcher.
func NewTracingDispatcher(next domain.EventDispatcher) *TracingDispatcher {
	return &TracingDispatcher{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (d *TracingDispatcher) Dispatch(ctx context.Context, event domain.LifecycleEvent, subscriptionID string) error {
	ctx, span := d.tracer.Start(ctx, "EventDispatcher.Dispatch",
		trace.WithAttributes(
			attribute.String("event.type", string(event)),
			attribute.String("subscription.id", subscriptionID),
		),
	)
	defer span.End()

	err := d.next.Dispatch(ctx, event, subscriptionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
