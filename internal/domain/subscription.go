package domain

import "time"

// SubscriptionStatus represents the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionPending    SubscriptionStatus = "pending"
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionSuspended  SubscriptionStatus = "suspended"
	SubscriptionTerminated SubscriptionStatus = "terminated"
)

// LifecycleEvent identifies a subscription state change. The values double as
// queue job kinds, so renaming one is a wire-format change.
type LifecycleEvent string

const (
	EventActivated   LifecycleEvent = "subscription.activated"
	EventSuspended   LifecycleEvent = "subscription.suspended"
	EventUnsuspended LifecycleEvent = "subscription.unsuspended"
	EventTerminated  LifecycleEvent = "subscription.terminated"
)

// Transition defines a valid state change: an event moves a subscription from Src to Dst.
type Transition struct {
	Event LifecycleEvent
	Src   SubscriptionStatus
	Dst   SubscriptionStatus
}

// Transitions defines all valid state changes in the subscription lifecycle.
// This is domain knowledge consumed by the FSM adapter.
var Transitions = []Transition{
	{Event: EventActivated, Src: SubscriptionPending, Dst: SubscriptionActive},
	{Event: EventSuspended, Src: SubscriptionActive, Dst: SubscriptionSuspended},
	{Event: EventUnsuspended, Src: SubscriptionSuspended, Dst: SubscriptionActive},
	{Event: EventTerminated, Src: SubscriptionPending, Dst: SubscriptionTerminated},
	{Event: EventTerminated, Src: SubscriptionActive, Dst: SubscriptionTerminated},
	{Event: EventTerminated, Src: SubscriptionSuspended, Dst: SubscriptionTerminated},
}

// Subscription is a client's purchase of a product, owning the components
// that get provisioned on external systems.
type Subscription struct {
	ID          string
	ClientID    string
	ProductName string
	Status      SubscriptionStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSubscription creates a subscription in the initial "pending" state.
func NewSubscription(id, clientID, productName string) Subscription {
	now := time.Now().UTC()
	return Subscription{
		ID:          id,
		ClientID:    clientID,
		ProductName: productName,
		Status:      SubscriptionPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
