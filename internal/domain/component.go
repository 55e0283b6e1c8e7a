package domain

import "time"

// Metadata keys written by the provisioning pipeline. Everything else in a
// component's metadata belongs to callers and is preserved on update.
const (
	MetaProvisioningStatus      = "provisioningStatus"
	MetaRemoteID                = "remoteId"
	MetaData                    = "data"
	MetaLastProvisionedAt       = "lastProvisionedAt"
	MetaLastProvisioningError   = "lastProvisioningError"
	MetaLastProvisioningAttempt = "lastProvisioningAttempt"
	MetaSuspendedAt             = "suspendedAt"
	MetaUnsuspendedAt           = "unsuspendedAt"
	MetaTerminatedAt            = "terminatedAt"
	MetaLastError               = "lastError"
)

// ProvisioningStatus is the per-component outcome of the last lifecycle
// operation, stored under MetaProvisioningStatus. The zero value means no
// operation has touched the component yet.
type ProvisioningStatus string

const (
	ProvisioningUnset              ProvisioningStatus = ""
	ProvisioningActive             ProvisioningStatus = "active"
	ProvisioningFailed             ProvisioningStatus = "failed"
	ProvisioningSuspended          ProvisioningStatus = "suspended"
	ProvisioningSuspensionFailed   ProvisioningStatus = "suspension_failed"
	ProvisioningUnsuspensionFailed ProvisioningStatus = "unsuspension_failed"
	ProvisioningTerminated         ProvisioningStatus = "terminated"
	ProvisioningTerminationFailed  ProvisioningStatus = "termination_failed"
)

// Metadata is the open key-value state carried by a subscribed component.
type Metadata map[string]any

// Status reads the provisioning status, ProvisioningUnset when absent.
func (m Metadata) Status() ProvisioningStatus {
	s, _ := m[MetaProvisioningStatus].(string)
	return ProvisioningStatus(s)
}

// Clone returns a shallow copy so writers never mutate a shared map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ComponentDefinition is a catalog entry describing a provisionable component
// type, e.g. a hosting account or an SSL certificate.
type ComponentDefinition struct {
	ID                   string
	ComponentKey         string
	Name                 string
	ProvisioningRequired bool
	Metadata             map[string]any
	CreatedAt            time.Time
}

// ProviderKey resolves which provider handles this component: the
// "provisioningProvider" metadata override when set, the component key otherwise.
func (d ComponentDefinition) ProviderKey() string {
	if v, ok := d.Metadata["provisioningProvider"].(string); ok && v != "" {
		return v
	}
	return d.ComponentKey
}

// NewComponentDefinition creates a catalog entry.
func NewComponentDefinition(id, componentKey, name string, provisioningRequired bool, metadata map[string]any) ComponentDefinition {
	return ComponentDefinition{
		ID:                   id,
		ComponentKey:         componentKey,
		Name:                 name,
		ProvisioningRequired: provisioningRequired,
		Metadata:             metadata,
		CreatedAt:            time.Now().UTC(),
	}
}

// SubscribedComponent is one component instance owned by a subscription.
// Provisioning outcomes accumulate in Metadata; IsActive drops to false only
// on termination.
type SubscribedComponent struct {
	ID             string
	SubscriptionID string
	DefinitionID   string
	Definition     ComponentDefinition
	Config         map[string]any
	Metadata       Metadata
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewSubscribedComponent instantiates a definition under a subscription.
func NewSubscribedComponent(id string, subscriptionID string, def ComponentDefinition, config map[string]any) SubscribedComponent {
	now := time.Now().UTC()
	return SubscribedComponent{
		ID:             id,
		SubscriptionID: subscriptionID,
		DefinitionID:   def.ID,
		Definition:     def,
		Config:         config,
		Metadata:       Metadata{},
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
