// Package slots ranks available appointment slots against a caller's date
// and time preferences. Slot records live in an external store and are
// read-only here.
package slots

import (
	"context"
	"errors"
)

// DefaultCollection is the table or collection holding slot records.
const DefaultCollection = "appointment_slots"

var (
	// ErrStoreUnavailable wraps any retrieval failure surfaced by the matcher.
	ErrStoreUnavailable = errors.New("slots: store unavailable")
	// ErrUnsupportedQuery means a store cannot express the requested filter,
	// field or collection. It is never retried.
	ErrUnsupportedQuery = errors.New("slots: unsupported query")
)

// Slot is one appointment record as stored upstream. Time is a free-text
// label such as "9:00 AM - 9:15 AM".
type Slot struct {
	Date          string `json:"date" dynamodbav:"date"`
	Time          string `json:"time" dynamodbav:"time"`
	State         string `json:"state" dynamodbav:"state"`
	StateAbbr     string `json:"state_abbreviation,omitempty" dynamodbav:"state_abbreviation,omitempty"`
	Provider      string `json:"provider" dynamodbav:"provider"`
	ProviderID    string `json:"provider_id" dynamodbav:"provider_id"`
	AppointmentID string `json:"appointment_id" dynamodbav:"appointment_id"`
	Available     bool   `json:"available" dynamodbav:"available"`
}

// Record field names usable in filters and ordering.
const (
	FieldDate          = "date"
	FieldTime          = "time"
	FieldState         = "state"
	FieldStateAbbr     = "state_abbreviation"
	FieldProvider      = "provider"
	FieldProviderID    = "provider_id"
	FieldAppointmentID = "appointment_id"
	FieldAvailable     = "available"
)

// Op is a filter comparison.
type Op string

const (
	OpEq  Op = "=="
	OpGte Op = ">="
	OpLte Op = "<="
	OpGt  Op = ">"
	OpLt  Op = "<"
)

// Filter restricts a query to records where Field Op Value holds.
type Filter struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
	Value any    `json:"value"`
}

// OrderBy sorts query results on one field.
type OrderBy struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// Store is the read-only document store contract. A limit <= 0 means no cap.
type Store interface {
	Query(ctx context.Context, collection string, filters []Filter, orderBy *OrderBy, limit int) ([]Slot, error)
}

// TimeRange bounds acceptable start times, both ends "HH:mm" and inclusive.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Preferences describe what the caller asked for. Every field is optional
// except that Timezone defaults to America/New_York when empty.
type Preferences struct {
	Date      string     `json:"date,omitempty"`
	Time      string     `json:"time,omitempty"`
	TimeRange *TimeRange `json:"time_range,omitempty"`
	Timezone  string     `json:"timezone,omitempty"`
}

// ScoredSlot is a candidate after scoring; Rank is 1-based.
type ScoredSlot struct {
	Slot
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}
