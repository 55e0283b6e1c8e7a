package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/proviq/internal/domain"
)

// Compile-time check: LifecycleDispatcher implements domain.EventDispatcher.
var _ domain.EventDispatcher = (*LifecycleDispatcher)(nil)

// DefaultHandlerTimeout bounds a single provider invocation so a hung remote
// API cannot pin a queue worker.
const DefaultHandlerTimeout = 30 * time.Second

// LifecycleDispatcher reacts to a subscription lifecycle event by running the
// matching provider operation across the subscription's components and
// recording each outcome in component metadata.
//
// Failure handling is deliberately asymmetric. Anything wrong with a single
// component (provider says no, provider errors, provider hangs past the
// timeout) is folded into that component's metadata and never stops its
// siblings. Failing to load the components at all, or failing to write an
// outcome back, is returned to the caller so the queue redelivers the event;
// provider idempotency makes the replay safe.
type LifecycleDispatcher struct {
	store          domain.ComponentStore
	registry       *HandlerRegistry
	logger         *slog.Logger
	handlerTimeout time.Duration
	locks          keyedLocks
}

// NewLifecycleDispatcher creates a dispatcher. A nil logger falls back to
// slog.Default; a non-positive timeout falls back to DefaultHandlerTimeout.
func NewLifecycleDispatcher(store domain.ComponentStore, registry *HandlerRegistry, logger *slog.Logger, handlerTimeout time.Duration) *LifecycleDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if handlerTimeout <= 0 {
		handlerTimeout = DefaultHandlerTimeout
	}
	return &LifecycleDispatcher{
		store:          store,
		registry:       registry,
		logger:         logger,
		handlerTimeout: handlerTimeout,
	}
}

// Dispatch handles one delivered lifecycle event. Events for the same
// subscription are serialized so their component writes never interleave.
func (d *LifecycleDispatcher) Dispatch(ctx context.Context, event domain.LifecycleEvent, subscriptionID string) error {
	op, ok := domain.OperationForEvent(event)
	if !ok {
		d.logger.WarnContext(ctx, "dropping unknown lifecycle event",
			slog.String("event", string(event)),
			slog.String("subscription_id", subscriptionID),
		)
		return nil
	}

	unlock := d.locks.Lock(subscriptionID)
	defer unlock()

	components, err := d.store.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("loading components for subscription %s: %w", subscriptionID, err)
	}

	var persistErrs []error
	for _, component := range components {
		if err := d.processComponent(ctx, op, component); err != nil {
			persistErrs = append(persistErrs, err)
		}
	}
	return errors.Join(persistErrs...)
}

// processComponent runs one provider operation and persists its outcome. The
// only error it returns is a failed outcome write.
func (d *LifecycleDispatcher) processComponent(ctx context.Context, op domain.Operation, component domain.SubscribedComponent) error {
	log := d.logger.With(
		slog.String("subscription_id", component.SubscriptionID),
		slog.String("component_id", component.ID),
		slog.String("operation", string(op)),
	)

	if !component.Definition.ProvisioningRequired {
		log.DebugContext(ctx, "skipping component, provisioning not required",
			slog.String("component_key", component.Definition.ComponentKey))
		return nil
	}

	key := component.Definition.ProviderKey()
	handler, ok := d.registry.Resolve(key)
	if !ok {
		log.WarnContext(ctx, "skipping component, no provider handler registered",
			slog.String("provider_key", key))
		return nil
	}

	result, err := d.invoke(ctx, handler, op, component)
	if err != nil {
		log.ErrorContext(ctx, "provider handler failed",
			slog.String("provider_key", key),
			slog.Any("error", err),
		)
		result = domain.ProviderResult{Success: false, Message: err.Error()}
	} else if !result.Success {
		log.WarnContext(ctx, "provider reported failure",
			slog.String("provider_key", key),
			slog.String("message", result.Message),
		)
	}

	metadata, isActive := projectOutcome(op, result, component, time.Now())

	if err := d.store.UpdateComponentState(ctx, component.ID, metadata, isActive); err != nil {
		return fmt.Errorf("recording outcome for component %s: %w", component.ID, err)
	}

	log.InfoContext(ctx, "component state recorded",
		slog.String("provider_key", key),
		slog.String("provisioning_status", string(metadata.Status())),
	)
	return nil
}

// invoke calls the handler method for op under the per-invocation timeout.
// A panicking handler is reported as an error rather than taking down the
// queue worker and its sibling components with it.
func (d *LifecycleDispatcher) invoke(ctx context.Context, handler domain.ProviderHandler, op domain.Operation, component domain.SubscribedComponent) (result domain.ProviderResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, d.handlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider handler panicked: %v", r)
		}
	}()

	switch op {
	case domain.OpProvision:
		return handler.Provision(ctx, domain.ProvisionRequest{ComponentID: component.ID, Config: component.Config})
	case domain.OpSuspend:
		return handler.Suspend(ctx, component.ID)
	case domain.OpUnsuspend:
		return handler.Unsuspend(ctx, component.ID)
	case domain.OpTerminate:
		return handler.Terminate(ctx, component.ID)
	default:
		return domain.ProviderResult{}, fmt.Errorf("unsupported operation %q", op)
	}
}
