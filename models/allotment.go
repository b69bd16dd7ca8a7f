package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RegistrarForm describes how to query a registrar's allotment page for one IPO.
// FormFields values are literal, "USER_INPUT" (replaced by the PAN) or
// "SCRAPE:<selector>" (read from the form page before posting).
type RegistrarForm struct {
	IPOID        uuid.UUID         `json:"ipo_id"`
	Registrar    string            `json:"registrar"`
	FormURL      *string           `json:"form_url"`
	FormFields   map[string]string `json:"form_fields"`
	FormHeaders  map[string]string `json:"form_headers"`
	ParserConfig ParserConfig      `json:"parser_config"`
}

// ParserConfig is the registrar specific response parsing configuration.
type ParserConfig struct {
	SubmitURL       string          `json:"submit_url"`
	StatusSelectors StatusSelectors `json:"status_selectors"`
}

// StatusSelectors are CSS selectors whose presence marks an outcome.
type StatusSelectors struct {
	Allotted    []string `json:"allotted"`
	NotAllotted []string `json:"not_allotted"`
}

// RawRegistrarForm holds the JSONB columns as stored in ipo_list.
type RawRegistrarForm struct {
	FormURL      *string         `json:"form_url"`
	FormFields   json.RawMessage `json:"form_fields"`
	FormHeaders  json.RawMessage `json:"form_headers"`
	ParserConfig json.RawMessage `json:"parser_config"`
}

// AllotmentResult is the canonical outcome of one allotment check.
type AllotmentResult struct {
	IPOID     uuid.UUID       `json:"ipo_id"`
	PanHash   string          `json:"pan_hash"`
	Status    AllotmentStatus `json:"status"`
	RawStatus string          `json:"raw_status"`
	Source    string          `json:"source"`
	CheckedAt time.Time       `json:"checked_at"`
}
