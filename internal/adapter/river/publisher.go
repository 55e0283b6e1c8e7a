package river

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/proviq/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// One args type per lifecycle event. The Kind strings are the event names
// themselves, so the queue table reads like an event log. The payload is just
// the subscription id; workers load current state from the store, which keeps
// redeliveries from acting on stale snapshots.

// ActivatedArgs is the payload of a subscription.activated job.
type ActivatedArgs struct {
	SubscriptionID string `json:"subscription_id"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (ActivatedArgs) Kind() string { return string(domain.EventActivated) }

// SuspendedArgs is the payload of a subscription.suspended job.
type SuspendedArgs struct {
	SubscriptionID string `json:"subscription_id"`
}

func (SuspendedArgs) Kind() string { return string(domain.EventSuspended) }

// UnsuspendedArgs is the payload of a subscription.unsuspended job.
type UnsuspendedArgs struct {
	SubscriptionID string `json:"subscription_id"`
}

func (UnsuspendedArgs) Kind() string { return string(domain.EventUnsuspended) }

// TerminatedArgs is the payload of a subscription.terminated job.
type TerminatedArgs struct {
	SubscriptionID string `json:"subscription_id"`
}

func (TerminatedArgs) Kind() string { return string(domain.EventTerminated) }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
	logger *slog.Logger
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, logger: logger}
}

// Publish enqueues a lifecycle event as an async job in River. Event names
// outside the known set are logged and dropped rather than failed.
func (p *Publisher) Publish(ctx context.Context, event domain.LifecycleEvent, subscriptionID string) error {
	args, ok := argsForEvent(event, subscriptionID)
	if !ok {
		p.logger.WarnContext(ctx, "dropping unknown lifecycle event",
			slog.String("event", string(event)),
			slog.String("subscription_id", subscriptionID),
		)
		return nil
	}

	if _, err := p.client.Insert(ctx, args, nil); err != nil {
		return fmt.Errorf("enqueuing %s job: %w", event, err)
	}
	return nil
}

func argsForEvent(event domain.LifecycleEvent, subscriptionID string) (river.JobArgs, bool) {
	switch event {
	case domain.EventActivated:
		return ActivatedArgs{SubscriptionID: subscriptionID}, true
	case domain.EventSuspended:
		return SuspendedArgs{SubscriptionID: subscriptionID}, true
	case domain.EventUnsuspended:
		return UnsuspendedArgs{SubscriptionID: subscriptionID}, true
	case domain.EventTerminated:
		return TerminatedArgs{SubscriptionID: subscriptionID}, true
	default:
		return nil, false
	}
}
