package domain

import "context"

// SubscriptionRepository defines the persistence contract for subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub Subscription) error
	GetByID(ctx context.Context, id string) (Subscription, error)
	List(ctx context.Context, filter ListFilter) ([]Subscription, error)
	UpdateStatus(ctx context.Context, id string, status SubscriptionStatus) error
}

// ListFilter holds optional criteria for listing subscriptions.
type ListFilter struct {
	Status *SubscriptionStatus
	Limit  int
	Offset int
}

// ComponentStore defines persistence for the component catalog and the
// components subscribed under each subscription.
type ComponentStore interface {
	CreateDefinition(ctx context.Context, def ComponentDefinition) error
	GetDefinitionByKey(ctx context.Context, componentKey string) (ComponentDefinition, error)
	ListDefinitions(ctx context.Context) ([]ComponentDefinition, error)

	CreateComponent(ctx context.Context, component SubscribedComponent) error
	GetComponent(ctx context.Context, id string) (SubscribedComponent, error)
	// ListBySubscription returns the subscription's components with their
	// definitions attached, or ErrSubscriptionNotFound.
	ListBySubscription(ctx context.Context, subscriptionID string) ([]SubscribedComponent, error)
	// UpdateComponentState persists a provisioning outcome. Only metadata,
	// the active flag, and the update timestamp change.
	UpdateComponentState(ctx context.Context, id string, metadata Metadata, isActive bool) error
}

// EventPublisher defines the contract for emitting lifecycle events onto the
// durable queue.
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent, subscriptionID string) error
}

// TransitionValidator checks whether an event may fire from the current
// status and reports the resulting one.
type TransitionValidator interface {
	Apply(ctx context.Context, current SubscriptionStatus, event LifecycleEvent) (SubscriptionStatus, error)
}

// EventDispatcher consumes a delivered lifecycle event, running the matching
// provider operation across the subscription's components. A returned error
// means the event must be redelivered.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event LifecycleEvent, subscriptionID string) error
}
