// Package events implements the structured event bus described in
// spec.md §6: the eight lifecycle/registry events, each carrying
// {domain, key, provider, source}, scrubbed of secret-shaped fields before
// any console echo. It is grounded on the EventReason/EventData idiom in
// giantswarm-muster's internal/events/types.go, adapted away from its
// Kubernetes EventRecorder coupling since this control plane runs standalone.
package events

import "time"

// Type is one of the eight events the core emits.
type Type string

const (
	TypeCandidateRegistered   Type = "candidate-registered"
	TypeCandidateUnregistered Type = "candidate-unregistered"
	TypePreSwap               Type = "pre-swap"
	TypePostSwap              Type = "post-swap"
	TypeSwapFailed            Type = "swap-failed"
	TypeSwapComplete          Type = "swap-complete"
	TypeDomainReady           Type = "domain-ready"
	TypeLifecycleError        Type = "lifecycle-error"
)

// Event is one structured emission from the core. Fields carries any
// additional payload (e.g. error text, rule cited); it is scrubbed of
// secret-shaped keys before being handed to a console or network sink.
type Event struct {
	Type      Type                   `json:"type"`
	Domain    string                 `json:"domain"`
	Key       string                 `json:"key"`
	Provider  string                 `json:"provider,omitempty"`
	Source    string                 `json:"source,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
