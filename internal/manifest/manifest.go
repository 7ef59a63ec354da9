// Package manifest implements the Remote Manifest Loader: fetching a signed
// document over HTTP(S) or an object store, verifying its digest and
// signature, staging artifacts in a content-addressed cache, and converting
// surviving entries into registry.Candidate values. It is grounded on the
// manifest/signature verification pipeline in
// r3e-network-service_layer/cmd/slctl/manifest.go (scheme-dispatch fetch,
// sha256 digest check, ed25519 signature verify), combined with that repo's
// infrastructure/resilience circuit breaker for the network path.
package manifest

import "time"

// Entry is one candidate-producing line item in a manifest (spec.md §4.3).
type Entry struct {
	Domain       string                 `json:"domain"`
	Key          string                 `json:"key"`
	Provider     string                 `json:"provider"`
	URI          string                 `json:"uri,omitempty"`
	SHA256       string                 `json:"sha256,omitempty"`
	Signature    string                 `json:"signature,omitempty"`
	Signer       string                 `json:"signer,omitempty"`
	StackLevel   *int                   `json:"stack_level,omitempty"`
	Priority     *int                   `json:"priority,omitempty"`
	Version      string                 `json:"version,omitempty"`
	Capabilities []string               `json:"capabilities,omitempty"`
	Factory      string                 `json:"factory,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Profile toggles loader behaviors carried alongside a manifest.
type Profile struct {
	DisableWatchers bool `json:"disable_watchers,omitempty"`
	Inline          bool `json:"inline,omitempty"`
}

// Document is the top-level manifest mapping (spec.md §6).
type Document struct {
	Source    string   `json:"source"`
	Profile   *Profile `json:"profile,omitempty"`
	Entries   []Entry  `json:"entries"`
	Signature string   `json:"signature,omitempty"`
	Signer    string   `json:"signer,omitempty"`
}

// FetchedManifest bundles a Document with its canonical bytes (the exact
// form the signature covers) and when it was obtained.
type FetchedManifest struct {
	Document Document
	Raw      []byte
	Canon    []byte
	FetchedAt time.Time
	FromCache bool
}
