package app

import (
	"time"

	"github.com/neomorfeo/proviq/internal/domain"
)

// timeFormat matches the store's timestamp encoding so metadata timestamps
// and column timestamps read the same.
const timeFormat = "2006-01-02T15:04:05Z"

// outcomeRule describes how one operation's result lands in component
// metadata.
type outcomeRule struct {
	successStatus  domain.ProvisioningStatus
	successStampAt string
	failureStatus  domain.ProvisioningStatus
	failureMessage string
	deactivates    bool
}

var outcomeRules = map[domain.Operation]outcomeRule{
	domain.OpProvision: {
		successStatus:  domain.ProvisioningActive,
		successStampAt: domain.MetaLastProvisionedAt,
		failureStatus:  domain.ProvisioningFailed,
		failureMessage: "Provisioning failed",
	},
	domain.OpSuspend: {
		successStatus:  domain.ProvisioningSuspended,
		successStampAt: domain.MetaSuspendedAt,
		failureStatus:  domain.ProvisioningSuspensionFailed,
		failureMessage: "Suspension failed",
	},
	domain.OpUnsuspend: {
		successStatus:  domain.ProvisioningActive,
		successStampAt: domain.MetaUnsuspendedAt,
		failureStatus:  domain.ProvisioningUnsuspensionFailed,
		failureMessage: "Unsuspension failed",
	},
	domain.OpTerminate: {
		successStatus:  domain.ProvisioningTerminated,
		successStampAt: domain.MetaTerminatedAt,
		failureStatus:  domain.ProvisioningTerminationFailed,
		failureMessage: "Termination failed",
		deactivates:    true,
	},
}

// projectOutcome folds a provider result into a component's metadata and
// active flag. The current metadata is cloned, never mutated; keys the
// operation does not own are preserved as-is. Termination deactivates the
// component whether or not the provider succeeded.
func projectOutcome(op domain.Operation, result domain.ProviderResult, component domain.SubscribedComponent, now time.Time) (domain.Metadata, bool) {
	rule := outcomeRules[op]
	md := component.Metadata.Clone()
	stamp := now.UTC().Format(timeFormat)

	isActive := component.IsActive
	if rule.deactivates {
		isActive = false
	}

	if result.Success {
		md[domain.MetaProvisioningStatus] = string(rule.successStatus)
		md[rule.successStampAt] = stamp
		if op == domain.OpProvision {
			if result.RemoteID != "" {
				md[domain.MetaRemoteID] = result.RemoteID
			}
			if result.Data != nil {
				md[domain.MetaData] = result.Data
			}
		}
		return md, isActive
	}

	message := result.Message
	if message == "" {
		message = rule.failureMessage
	}

	md[domain.MetaProvisioningStatus] = string(rule.failureStatus)
	if op == domain.OpProvision {
		md[domain.MetaLastProvisioningError] = message
		md[domain.MetaLastProvisioningAttempt] = stamp
	} else {
		md[domain.MetaLastError] = message
	}
	return md, isActive
}
