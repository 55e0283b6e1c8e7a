package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/proviq/internal/domain"
)

// One worker per lifecycle event kind. Each hands the subscription id to the
// dispatcher; a returned error makes River retry the delivery, which is the
// at-least-once contract the dispatcher and providers are written for.

// ActivatedWorker processes subscription.activated jobs.
type ActivatedWorker struct {
	river.WorkerDefaults[ActivatedArgs]
	dispatcher domain.EventDispatcher
}

// Work processes a single activation job.
func (w *ActivatedWorker) Work(ctx context.Context, job *river.Job[ActivatedArgs]) error {
	return dispatch(ctx, w.dispatcher, domain.EventActivated, job.Args.SubscriptionID, job.ID, job.Attempt)
}

// SuspendedWorker processes subscription.suspended jobs.
type SuspendedWorker struct {
	river.WorkerDefaults[SuspendedArgs]
	dispatcher domain.EventDispatcher
}

func (w *SuspendedWorker) Work(ctx context.Context, job *river.Job[SuspendedArgs]) error {
	return dispatch(ctx, w.dispatcher, domain.EventSuspended, job.Args.SubscriptionID, job.ID, job.Attempt)
}

// UnsuspendedWorker processes subscription.unsuspended jobs.
type UnsuspendedWorker struct {
	river.WorkerDefaults[UnsuspendedArgs]
	dispatcher domain.EventDispatcher
}

func (w *UnsuspendedWorker) Work(ctx context.Context, job *river.Job[UnsuspendedArgs]) error {
	return dispatch(ctx, w.dispatcher, domain.EventUnsuspended, job.Args.SubscriptionID, job.ID, job.Attempt)
}

// TerminatedWorker processes subscription.terminated jobs.
type TerminatedWorker struct {
	river.WorkerDefaults[TerminatedArgs]
	dispatcher domain.EventDispatcher
}

func (w *TerminatedWorker) Work(ctx context.Context, job *river.Job[TerminatedArgs]) error {
	return dispatch(ctx, w.dispatcher, domain.EventTerminated, job.Args.SubscriptionID, job.ID, job.Attempt)
}

func dispatch(ctx context.Context, dispatcher domain.EventDispatcher, event domain.LifecycleEvent, subscriptionID string, jobID int64, attempt int) error {
	slog.InfoContext(ctx, "processing lifecycle event",
		"event", string(event),
		"subscription_id", subscriptionID,
		"job_id", jobID,
		"attempt", attempt,
	)
	return dispatcher.Dispatch(ctx, event, subscriptionID)
}
