package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/proviq/internal/domain"
)

const tracerName = "github.com/neomorfeo/proviq/internal/adapter/otel"

// TracingSubscriptionRepository wraps a domain.SubscriptionRepository with
// OpenTelemetry tracing. Each method creates a span with semantic attributes
// and records errors.
type TracingSubscriptionRepository struct {
	next   domain.SubscriptionRepository
	tracer trace.Tracer
}

// Compile-time check: TracingSubscriptionRepository implements domain.SubscriptionRepository.
var _ domain.SubscriptionRepository = (*TracingSubscriptionRepository)(nil)

// NewTracingSubscriptionRepository creates a tracing decorator around the given repository.
func NewTracingSubscriptionRepository(next domain.SubscriptionRepository) *TracingSubscriptionRepository {
	return &TracingSubscriptionRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingSubscriptionRepository) Create(ctx context.Context, sub domain.Subscription) error {
	ctx, span := r.tracer.Start(ctx, "SubscriptionRepository.Create",
		trace.WithAttributes(
			attribute.String("subscription.id", sub.ID),
			attribute.String("subscription.client_id", sub.ClientID),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, sub)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingSubscriptionRepository) GetByID(ctx context.Context, id string) (domain.Subscription, error) {
	ctx, span := r.tracer.Start(ctx, "SubscriptionRepository.GetByID",
		trace.WithAttributes(attribute.String("subscription.id", id)),
	)
	defer span.End()

	sub, err := r.next.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return sub, err
}

func (r *TracingSubscriptionRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Subscription, error) {
	ctx, span := r.tracer.Start(ctx, "SubscriptionRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	subs, err := r.next.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(subs)))
	}
	return subs, err
}

func (r *TracingSubscriptionRepository) UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error {
	ctx, span := r.tracer.Start(ctx, "SubscriptionRepository.UpdateStatus",
		trace.WithAttributes(
			attribute.String("subscription.id", id),
			attribute.String("subscription.status", string(status)),
		),
	)
	defer span.End()

	err := r.next.UpdateStatus(ctx, id, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
