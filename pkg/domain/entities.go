// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by splitcore.
package domain

import (
	"fmt"
	"math"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntitySession identifies an expense session record.
	EntitySession EntityType = "session"
	// EntityPerson identifies a participant record owned by a session.
	EntityPerson EntityType = "person"
	// EntityItem identifies a priced line item owned by a person.
	EntityItem EntityType = "item"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Session is the top-level expense ledger: a titled receipt with percentage
// adjustments applied on top of the people's item totals.
type Session struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Tax       float64   `json:"tax"`
	Service   float64   `json:"service"`
	Discount  float64   `json:"discount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Taxed applies the session's tax, service, and discount percentages to an
// amount and rounds to cents.
func (s Session) Taxed(amount float64) float64 {
	taxed := amount*(1+s.Tax/100)*(1+s.Service/100) - amount*(s.Discount/100)
	return round2(taxed)
}

// Person is a participant in exactly one session.
type Person struct {
	ID        int64  `json:"id"`
	SessionID int64  `json:"session_id"`
	Name      string `json:"name"`
}

// Item is a priced line owned by exactly one person.
type Item struct {
	ID       int64   `json:"id"`
	PersonID int64   `json:"person_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Total returns the line total (price times quantity).
func (i Item) Total() float64 {
	return i.Price * float64(i.Quantity)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID int64
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

// NotFoundError is returned when a referenced entity does not exist, or when
// it belongs to a different session than the one the caller named. The two
// cases are deliberately indistinguishable.
type NotFoundError struct {
	Entity EntityType
	ID     int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}
