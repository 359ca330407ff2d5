package domain

import (
	"encoding/json"
	"strings"
)

// Mode identifies which listener channel a webhook arrived on. The provider
// posts live and test events to distinct URLs; an event whose embedded
// livemode flag disagrees with its channel is dropped.
type Mode string

const (
	ModeLive Mode = "live"
	ModeTest Mode = "test"
)

// Event is the provider's webhook envelope: an asynchronous notification that
// a remote resource was created, updated or deleted
type Event struct {
	ID       string
	Type     string
	LiveMode bool
	Object   map[string]interface{} // data.object, the resource payload
}

// ParseEvent decodes a raw webhook body. A body that is not a JSON object or
// lacks the id/type keys is malformed; per the silent no-op policy the caller
// answers such requests with a success status and an empty body.
func ParseEvent(body []byte) (*Event, error) {
	var raw struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		LiveMode bool   `json:"livemode"`
		Data     struct {
			Object map[string]interface{} `json:"object"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, WrapError(ErrorCodeEventMalformed, "event body is not valid JSON", err)
	}
	if raw.ID == "" || raw.Type == "" {
		return nil, ErrEventMalformed
	}

	return &Event{
		ID:       raw.ID,
		Type:     raw.Type,
		LiveMode: raw.LiveMode,
		Object:   raw.Data.Object,
	}, nil
}

// IsCreation reports whether the event announces a resource creation
func (e *Event) IsCreation() bool {
	return strings.HasSuffix(e.Type, ".created")
}

// IsDeletion reports whether the event announces a resource deletion
func (e *Event) IsDeletion() bool {
	return strings.HasSuffix(e.Type, ".deleted")
}

// MatchesMode reports whether the embedded livemode flag agrees with the
// channel the event arrived on
func (e *Event) MatchesMode(mode Mode) bool {
	return e.LiveMode == (mode == ModeLive)
}

// SyncStatus classifies what a synchronization service did with an event
type SyncStatus string

const (
	// SyncProcessed means local state was reconciled with the event
	SyncProcessed SyncStatus = "processed"
	// SyncIgnored means the event type is outside the service's recognized set
	SyncIgnored SyncStatus = "ignored"
	// SyncSkipped means the event was recognized but intentionally not applied
	// (redundant creation, nothing to delete, unknown local row)
	SyncSkipped SyncStatus = "skipped"
)

// SyncOutcome is the result of one SyncFromEvent call
type SyncOutcome struct {
	Status  SyncStatus
	Message string
}

// Processed builds a processed outcome with a diagnostic message
func Processed(message string) SyncOutcome {
	return SyncOutcome{Status: SyncProcessed, Message: message}
}

// Ignored builds an ignored outcome
func Ignored() SyncOutcome {
	return SyncOutcome{Status: SyncIgnored}
}

// Skipped builds a skipped outcome carrying the reason
func Skipped(reason string) SyncOutcome {
	return SyncOutcome{Status: SyncSkipped, Message: reason}
}

// DispatchResult is what the dispatcher hands back to the transport layer.
// Retry asks the handler to answer with a non-success status so the provider
// redelivers the event later.
type DispatchResult struct {
	Message string
	Retry   bool
}
