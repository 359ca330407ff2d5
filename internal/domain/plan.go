package domain

import (
	"time"

	"github.com/google/uuid"
)

// BillingInterval defines the time unit for a plan's billing cycle
type BillingInterval string

const (
	BillingIntervalDay   BillingInterval = "day"
	BillingIntervalWeek  BillingInterval = "week"
	BillingIntervalMonth BillingInterval = "month"
	BillingIntervalYear  BillingInterval = "year"
)

// ParseBillingInterval validates a provider interval string. An unknown value
// is a contract violation and fails fast rather than being coerced.
func ParseBillingInterval(s string) (BillingInterval, error) {
	switch BillingInterval(s) {
	case BillingIntervalDay, BillingIntervalWeek, BillingIntervalMonth, BillingIntervalYear:
		return BillingInterval(s), nil
	}
	return "", WrapError(ErrorCodeValidationBadInterval, "interval must be one of day/week/month/year", ErrInvalidBillingInterval).
		WithDetail("interval", s)
}

// PlanMetadata is a single key/value pair attached to a plan. Entries keep a
// back-reference to their plan so the store can persist the ownership side.
type PlanMetadata struct {
	ID    uuid.UUID
	Plan  *Plan
	Key   string
	Value string
}

// Plan is the local mirror of a provider billing plan.
//
// Provider plan ids are only unique among plans that currently exist: a short
// id can be reused for a brand new plan after the old one is deleted remotely.
// The natural key of a mirror row is therefore (ProviderID, CreatedAt).
type Plan struct {
	ID              uuid.UUID
	ProviderID      string
	Name            string
	Amount          int64 // minor currency units
	Currency        string
	Interval        BillingInterval
	IntervalCount   int
	TrialPeriodDays *int
	CreatedAt       time.Time
	Features        []string
	Metadata        []*PlanMetadata
	Active          bool
}

// NewPlan creates an active, empty plan mirror
func NewPlan() *Plan {
	return &Plan{
		ID:     uuid.New(),
		Active: true,
	}
}

// HasFeature reports whether a feature tag is set on the plan
func (p *Plan) HasFeature(feature string) bool {
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// AddFeature adds a feature tag, keeping the set free of duplicates
func (p *Plan) AddFeature(feature string) {
	if !p.HasFeature(feature) {
		p.Features = append(p.Features, feature)
	}
}

// RemoveFeature removes a feature tag if present
func (p *Plan) RemoveFeature(feature string) {
	for i, f := range p.Features {
		if f == feature {
			p.Features = append(p.Features[:i], p.Features[i+1:]...)
			return
		}
	}
}

// AddMetadata appends a metadatum and sets its back-reference to this plan
func (p *Plan) AddMetadata(metadatum *PlanMetadata) {
	metadatum.Plan = p
	p.Metadata = append(p.Metadata, metadatum)
}

// RemoveMetadata detaches a metadatum from the plan
func (p *Plan) RemoveMetadata(metadatum *PlanMetadata) {
	for i, m := range p.Metadata {
		if m == metadatum {
			p.Metadata = append(p.Metadata[:i], p.Metadata[i+1:]...)
			metadatum.Plan = nil
			return
		}
	}
}

// MetadataValue looks up a metadata value by key
func (p *Plan) MetadataValue(key string) (string, bool) {
	for _, m := range p.Metadata {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}
