package otel_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	adapter "github.com/neomorfeo/proviq/internal/adapter/otel"
	"github.com/neomorfeo/proviq/internal/domain"
)

// --- Test tracer setup ---

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter
}

// --- Mock repository ---

type mockRepo struct {
	subs map[string]domain.Subscription
}

func newMockRepo() *mockRepo {
	return &mockRepo{subs: make(map[string]domain.Subscription)}
}

func (m *mockRepo) Create(_ context.Context, sub domain.Subscription) error {
	m.subs[sub.ID] = sub
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (domain.Subscription, error) {
	sub, ok := m.subs[id]
	if !ok {
		return domain.Subscription{}, domain.ErrSubscriptionNotFound
	}
	return sub, nil
}

func (m *mockRepo) List(_ context.Context, _ domain.ListFilter) ([]domain.Subscription, error) {
	out := make([]domain.Subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		out = append(out, sub)
	}
	return out, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id string, status domain.SubscriptionStatus) error {
	sub, ok := m.subs[id]
	if !ok {
		return domain.ErrSubscriptionNotFound
	}
	sub.Status = status
	m.subs[id] = sub
	return nil
}

// --- Tests ---

func TestTracingSubscriptionRepository_Create_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingSubscriptionRepository(inner)

	sub := domain.NewSubscription("sub-1", "client-1", "Web Hosting Pro")
	if err := repo.Create(context.Background(), sub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "SubscriptionRepository.Create" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "SubscriptionRepository.Create")
	}

	assertAttribute(t, spans[0], "subscription.id", "sub-1")
	assertAttribute(t, spans[0], "subscription.client_id", "client-1")
}

func TestTracingSubscriptionRepository_GetByID_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingSubscriptionRepository(inner)

	inner.subs["sub-1"] = domain.NewSubscription("sub-1", "client-1", "Web Hosting Pro")

	got, err := repo.GetByID(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "sub-1" {
		t.Errorf("ID = %q, want %q", got.ID, "sub-1")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "SubscriptionRepository.GetByID" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "SubscriptionRepository.GetByID")
	}
}

func TestTracingSubscriptionRepository_GetByID_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingSubscriptionRepository(inner)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}

	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
}

func TestTracingSubscriptionRepository_List_RecordsResultCount(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingSubscriptionRepository(inner)

	inner.subs["sub-1"] = domain.NewSubscription("sub-1", "client-1", "Web Hosting Pro")
	inner.subs["sub-2"] = domain.NewSubscription("sub-2", "client-2", "Email Basic")

	subs, err := repo.List(context.Background(), domain.ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs) != 2 {
		t.Errorf("got %d subscriptions, want 2", len(subs))
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	assertAttribute(t, spans[0], "result.count", "2")
}

func TestTracingSubscriptionRepository_UpdateStatus_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockRepo()
	repo := adapter.NewTracingSubscriptionRepository(inner)

	inner.subs["sub-1"] = domain.NewSubscription("sub-1", "client-1", "Web Hosting Pro")

	if err := repo.UpdateStatus(context.Background(), "sub-1", domain.SubscriptionActive); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "SubscriptionRepository.UpdateStatus" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "SubscriptionRepository.UpdateStatus")
	}

	assertAttribute(t, spans[0], "subscription.status", "active")
}

// assertAttribute checks that a span has an attribute with the given key and string value.
func assertAttribute(t *testing.T, span tracetest.SpanStub, key, want string) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			got := attr.Value.Emit()
			if got != want {
				t.Errorf("attribute %q = %q, want %q", key, got, want)
			}
			return
		}
	}
	t.Errorf("attribute %q not found on span %q", key, span.Name)
}
