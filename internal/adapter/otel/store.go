package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/proviq/internal/domain"
)

// TracingComponentStore wraps a domain.ComponentStore with OpenTelemetry tracing.
type TracingComponentStore struct {
	next   domain.ComponentStore
	tracer trace.Tracer
}

// Compile-time check: TracingComponentStore implements domain.ComponentStore.
var _ domain.ComponentStore = (*TracingComponentStore)(nil)

// NewTracingComponentStore creates a tracing decorator around the given store.
func NewTracingComponentStore(next domain.ComponentStore) *TracingComponentStore {
	return &TracingComponentStore{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (s *TracingComponentStore) CreateDefinition(ctx context.Context, def domain.ComponentDefinition) error {
	ctx, span := s.tracer.Start(ctx, "ComponentStore.CreateDefinition",
		trace.WithAttributes(
			attribute.String("definition.id", def.ID),
			attribute.String("definition.key", def.ComponentKey),
		),
	)
	defer span.End()

	err := s.next.CreateDefinition(ctx, def)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *TracingComponentStore) GetDefinitionByKey(ctx context.Context, componentKey string) (domain.ComponentDefinition, error) {
	ctx, span := s.tracer.Start(ctx, "ComponentStore.GetDefinitionByKey",
		trace.WithAttributes(attribute.String("definition.key", componentKey)),
	)
	defer span.End()

	def, err := s.next.GetDefinitionByKey(ctx, componentKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return def, err
}

func (s *TracingComponentStore) ListDefinitions(ctx context.Context) ([]domain.ComponentDefinition, error) {
	ctx, span := s.tracer.Start(ctx, "ComponentStore.ListDefinitions")
	defer span.End()

	defs, err := s.next.ListDefinitions(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(defs)))
	}
	return defs, err
}

func (s *TracingComponentStore) CreateComponent(ctx context.Context, component domain.SubscribedComponent) error {
	ctx, span := s.tracer.Start(ctx, "ComponentStore.CreateComponent",
		trace.WithAttributes(
			attribute.String("component.id", component.ID),
			attribute.String("subscription.id", component.SubscriptionID),
		),
	)
	defer span.End()

	err := s.next.CreateComponent(ctx, component)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *TracingComponentStore) GetComponent(ctx context.Context, id string) (domain.SubscribedComponent, error) {
	ctx, span := s.tracer.Start(ctx, "ComponentStore.GetComponent",
		trace.WithAttributes(attribute.String("component.id", id)),
	)
	defer span.End()

	component, err := s.next.GetComponent(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return component, err
}

func (s *TracingComponentStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]domain.SubscribedComponent, error) {
	ctx, span := s.tracer.Start(ctx, "ComponentStore.ListBySubscription",
		trace.WithAttributes(attribute.String("subscription.id", subscriptionID)),
	)
	defer span.End()

	components, err := s.next.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(components)))
	}
	return components, err
}

func (s *TracingComponentStore) UpdateComponentState(ctx context.Context, id string, metadata domain.Metadata, isActive bool) error {
	ctx, span := s.tracer.Start(ctx, "ComponentStore.UpdateComponentState",
		trace.WithAttributes(
			attribute.String("component.id", id),
			attribute.String("component.status", string(metadata.Status())),
			attribute.Bool("component.is_active", isActive),
		),
	)
	defer span.End()

	err := s.next.UpdateComponentState(ctx, id, metadata, isActive)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
