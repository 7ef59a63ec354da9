package cmd

import "time"

// These mirror internal/api's request shapes. cmd/ talks to the daemon only
// over HTTP, never by importing internal/api directly, so the request
// wire shapes are duplicated here deliberately. Responses that are plain
// domain types (registry.Candidate, manifest.Status, ...) reuse those types;
// responses internal/api builds itself (swap, manifest fetch, activity) are
// duplicated here like the requests.

type registerRequest struct {
	Domain       string                 `json:"domain"`
	Key          string                 `json:"key"`
	Provider     string                 `json:"provider"`
	Priority     *int                   `json:"priority,omitempty"`
	StackLevel   *int                   `json:"stack_level,omitempty"`
	Factory      string                 `json:"factory"`
	Source       string                 `json:"source"`
	Capabilities []string               `json:"capabilities,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

type swapRequest struct {
	Domain   string  `json:"domain"`
	Key      string  `json:"key"`
	Provider *string `json:"provider,omitempty"`
	Force    bool    `json:"force"`
}

type swapResponse struct {
	Domain   string `json:"domain"`
	Key      string `json:"key"`
	Provider string `json:"provider"`
	State    string `json:"state"`
}

type transitionRequest struct {
	Domain string `json:"domain"`
	Key    string `json:"key"`
	Note   string `json:"note,omitempty"`
}

type manifestFetchRequest struct {
	URI string `json:"uri"`
}

type manifestFetchResponse struct {
	Registered int `json:"registered"`
}

// activityEntry mirrors internal/api's ActivityEntry. Like swapResponse and
// manifestFetchResponse, it has no existing domain-type equivalent to reuse
// (it's a flattened aggregate api/ builds from the lifecycle manager's live
// instances), so it's duplicated here like the request shapes above.
type activityEntry struct {
	Domain       string    `json:"domain"`
	Key          string    `json:"key"`
	Provider     string    `json:"provider"`
	State        string    `json:"state"`
	Healthy      bool      `json:"healthy"`
	LastHealthAt time.Time `json:"last_health_at"`
}
