package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrDefinitionNotFound   = errors.New("component definition not found")
	ErrComponentNotFound    = errors.New("subscribed component not found")
)

// ComponentKeyConflictError is returned when a definition's component key is
// already in use.
type ComponentKeyConflictError struct {
	ComponentKey string
}

func (e *ComponentKeyConflictError) Error() string {
	return fmt.Sprintf("component key %q is already in use", e.ComponentKey)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   LifecycleEvent
	Current SubscriptionStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from status %q", e.Event, e.Current)
}
