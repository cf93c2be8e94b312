package core

import (
	"fmt"
)

// Intent names the six operations the upstream producer may request.
type Intent string

const (
	IntentCreateSession       Intent = "create_session"
	IntentEditSession         Intent = "edit_session"
	IntentEditPerson          Intent = "edit_person"
	IntentEditItem            Intent = "edit_item"
	IntentEditSessionEntities Intent = "edit_session_entities"
	IntentGeneralInquiry      Intent = "general_inquiry"
)

var knownIntents = map[Intent]struct{}{
	IntentCreateSession:       {},
	IntentEditSession:         {},
	IntentEditPerson:          {},
	IntentEditItem:            {},
	IntentEditSessionEntities: {},
	IntentGeneralInquiry:      {},
}

// KnownIntent reports whether name is one of the supported intents.
func KnownIntent(name string) bool {
	_, ok := knownIntents[Intent(name)]
	return ok
}

// Envelope is the unit of work handed to the engine: one intent name plus the
// raw, untyped payload the producer emitted for it.
type Envelope struct {
	Intent string         `json:"intent"`
	AIData map[string]any `json:"ai_data"`
}

// ParseEnvelope validates the fixed outer shape: exactly the two required
// top-level keys, a known non-empty intent, and an object payload. Shape
// problems are rejected here, before any intent-specific logic runs.
func ParseEnvelope(raw map[string]any) (Envelope, error) {
	if raw == nil {
		return Envelope{}, fmt.Errorf("request body must be a JSON object")
	}
	for key := range raw {
		if key != "intent" && key != "ai_data" {
			return Envelope{}, fmt.Errorf("unexpected top-level key %q", key)
		}
	}
	intentRaw, ok := raw["intent"]
	if !ok {
		return Envelope{}, fmt.Errorf("intent is required")
	}
	intent, ok := intentRaw.(string)
	if !ok || cleanString(intent) == "" {
		return Envelope{}, fmt.Errorf("intent must be a non-empty string")
	}
	intent = cleanString(intent)
	if !KnownIntent(intent) {
		return Envelope{}, fmt.Errorf("unknown intent: %s", intent)
	}
	dataRaw, ok := raw["ai_data"]
	if !ok {
		return Envelope{}, fmt.Errorf("ai_data is required")
	}
	data, ok := dataRaw.(map[string]any)
	if !ok {
		return Envelope{}, fmt.Errorf("ai_data must be an object")
	}
	return Envelope{Intent: intent, AIData: data}, nil
}
