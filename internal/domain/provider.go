package domain

import "context"

// Operation is one of the four provisioning actions a provider performs.
type Operation string

const (
	OpProvision Operation = "provision"
	OpSuspend   Operation = "suspend"
	OpUnsuspend Operation = "unsuspend"
	OpTerminate Operation = "terminate"
)

// OperationForEvent maps a lifecycle event to the provider operation it
// triggers. Unknown events report false and must be dropped, not failed.
func OperationForEvent(event LifecycleEvent) (Operation, bool) {
	switch event {
	case EventActivated:
		return OpProvision, true
	case EventSuspended:
		return OpSuspend, true
	case EventUnsuspended:
		return OpUnsuspend, true
	case EventTerminated:
		return OpTerminate, true
	default:
		return "", false
	}
}

// ProvisionRequest carries what a provider needs to create a remote resource.
type ProvisionRequest struct {
	ComponentID string
	Config      map[string]any
}

// ProviderResult is a provider's own verdict on an operation. Success false
// with a Message is the expected-failure path; RemoteID and Data are only
// populated by provisioning.
type ProviderResult struct {
	Success  bool
	RemoteID string
	Data     map[string]any
	Message  string
}

// ProviderHandler provisions one kind of component on an external system.
//
// All four operations must be idempotent: repeating one against a resource
// already in the requested state reports success. Expected external failures
// (remote rejection, non-2xx, unreachable host) are returned as
// ProviderResult{Success: false}; a non-nil error is reserved for failures the
// handler cannot classify. Handlers never mutate stored component state.
type ProviderHandler interface {
	Provision(ctx context.Context, req ProvisionRequest) (ProviderResult, error)
	Suspend(ctx context.Context, componentID string) (ProviderResult, error)
	Unsuspend(ctx context.Context, componentID string) (ProviderResult, error)
	Terminate(ctx context.Context, componentID string) (ProviderResult, error)
}
