package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/proviq/internal/domain"
)

// ComponentSelection names a catalog entry to instantiate under a new
// subscription, with its per-instance config.
type ComponentSelection struct {
	ComponentKey string
	Config       map[string]any
}

// SubscriptionService orchestrates subscription lifecycle operations.
type SubscriptionService struct {
	subscriptions domain.SubscriptionRepository
	components    domain.ComponentStore
	publisher     domain.EventPublisher
	validator     domain.TransitionValidator
}

// NewSubscriptionService creates a service with the given adapters.
func NewSubscriptionService(subscriptions domain.SubscriptionRepository, components domain.ComponentStore, publisher domain.EventPublisher, validator domain.TransitionValidator) *SubscriptionService {
	return &SubscriptionService{
		subscriptions: subscriptions,
		components:    components,
		publisher:     publisher,
		validator:     validator,
	}
}

// RegisterDefinition adds an entry to the component catalog.
func (s *SubscriptionService) RegisterDefinition(ctx context.Context, componentKey, name string, provisioningRequired bool, metadata map[string]any) (domain.ComponentDefinition, error) {
	id, err := generateID()
	if err != nil {
		return domain.ComponentDefinition{}, fmt.Errorf("generating definition id: %w", err)
	}

	def := domain.NewComponentDefinition(id, componentKey, name, provisioningRequired, metadata)

	if err := s.components.CreateDefinition(ctx, def); err != nil {
		return domain.ComponentDefinition{}, err
	}
	return def, nil
}

// Definitions returns the component catalog.
func (s *SubscriptionService) Definitions(ctx context.Context) ([]domain.ComponentDefinition, error) {
	return s.components.ListDefinitions(ctx)
}

// Create persists a new pending subscription with one subscribed component
// per selection. Nothing is provisioned yet; that happens when the
// subscription is activated.
func (s *SubscriptionService) Create(ctx context.Context, clientID, productName string, selections []ComponentSelection) (domain.Subscription, error) {
	// Resolve every selection before writing anything.
	defs := make([]domain.ComponentDefinition, 0, len(selections))
	for _, sel := range selections {
		def, err := s.components.GetDefinitionByKey(ctx, sel.ComponentKey)
		if err != nil {
			return domain.Subscription{}, fmt.Errorf("resolving component %q: %w", sel.ComponentKey, err)
		}
		defs = append(defs, def)
	}

	id, err := generateID()
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("generating subscription id: %w", err)
	}

	sub := domain.NewSubscription(id, clientID, productName)

	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return domain.Subscription{}, fmt.Errorf("creating subscription: %w", err)
	}

	for i, sel := range selections {
		componentID, err := generateID()
		if err != nil {
			return domain.Subscription{}, fmt.Errorf("generating component id: %w", err)
		}

		component := domain.NewSubscribedComponent(componentID, sub.ID, defs[i], sel.Config)
		if err := s.components.CreateComponent(ctx, component); err != nil {
			return domain.Subscription{}, fmt.Errorf("creating component %q: %w", sel.ComponentKey, err)
		}
	}

	return sub, nil
}

// GetByID returns a subscription by its unique identifier.
func (s *SubscriptionService) GetByID(ctx context.Context, id string) (domain.Subscription, error) {
	return s.subscriptions.GetByID(ctx, id)
}

// List returns subscriptions matching the given filter.
func (s *SubscriptionService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Subscription, error) {
	return s.subscriptions.List(ctx, filter)
}

// Components returns a subscription's components with their definitions and
// accumulated provisioning metadata.
func (s *SubscriptionService) Components(ctx context.Context, subscriptionID string) ([]domain.SubscribedComponent, error) {
	return s.components.ListBySubscription(ctx, subscriptionID)
}

// Transition applies a lifecycle event to a subscription, changing its status
// and publishing the event onto the queue for provisioning.
func (s *SubscriptionService) Transition(ctx context.Context, id string, event domain.LifecycleEvent) (domain.Subscription, error) {
	sub, err := s.subscriptions.GetByID(ctx, id)
	if err != nil {
		return domain.Subscription{}, err
	}

	newStatus, err := s.validator.Apply(ctx, sub.Status, event)
	if err != nil {
		return domain.Subscription{}, err
	}

	if err := s.subscriptions.UpdateStatus(ctx, id, newStatus); err != nil {
		return domain.Subscription{}, fmt.Errorf("updating subscription: %w", err)
	}
	sub.Status = newStatus

	if err := s.publisher.Publish(ctx, event, sub.ID); err != nil {
		return domain.Subscription{}, fmt.Errorf("publishing event %q: %w", event, err)
	}

	return sub, nil
}
