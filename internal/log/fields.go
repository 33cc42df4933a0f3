// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldService   = "service"
	FieldVersion   = "version"

	// Negotiation fields
	FieldCategory      = "category"
	FieldSourceURI     = "source_uri"
	FieldMimeType      = "mime_type"
	FieldVerdict       = "verdict"
	FieldOutcome       = "outcome"
	FieldCandidates    = "candidates"
	FieldLastResortURI = "last_resort_uri"
	FieldPlatform      = "platform"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / network fields
	FieldPath   = "path"
	FieldListen = "listen"
)
