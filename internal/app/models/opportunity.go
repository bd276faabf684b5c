package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
)

// OpportunityStatus is the lifecycle state of a posted opportunity
type OpportunityStatus string

const (
	OpportunityDraft      OpportunityStatus = "draft"
	OpportunityOpen       OpportunityStatus = "open"
	OpportunityInProgress OpportunityStatus = "in_progress"
	OpportunityClosed     OpportunityStatus = "closed"
)

// OpportunityStatuses lists every status in lifecycle order.
var OpportunityStatuses = []OpportunityStatus{
	OpportunityDraft, OpportunityOpen, OpportunityInProgress, OpportunityClosed,
}

var opportunityEdges = map[OpportunityStatus][]OpportunityStatus{
	OpportunityDraft:      {OpportunityOpen},
	OpportunityOpen:       {OpportunityInProgress, OpportunityClosed},
	OpportunityInProgress: {OpportunityClosed},
}

// Valid reports whether s is a known status.
func (s OpportunityStatus) Valid() bool {
	_, ok := opportunityEdges[s]
	return ok || s == OpportunityClosed
}

// CanTransitionTo reports whether s -> target is a legal edge.
func (s OpportunityStatus) CanTransitionTo(target OpportunityStatus) bool {
	for _, next := range opportunityEdges[s] {
		if next == target {
			return true
		}
	}
	return false
}

// CheckTransition returns an InvalidTransitionError for illegal edges.
func (s OpportunityStatus) CheckTransition(target OpportunityStatus) error {
	if !s.CanTransitionTo(target) {
		return apperrors.NewInvalidTransitionError("opportunity", string(s), string(target))
	}
	return nil
}

// CompensationType distinguishes paid engagements from volunteer ones
type CompensationType string

const (
	CompensationPaid      CompensationType = "paid"
	CompensationVolunteer CompensationType = "volunteer"
)

// Compensation is stored as a JSON document alongside the opportunity
type Compensation struct {
	Type     CompensationType `json:"type"`
	Amount   float64          `json:"amount,omitempty"`
	Currency string           `json:"currency,omitempty"`
	Unit     string           `json:"unit,omitempty"`
}

// GeoPoint is an optional map coordinate
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Opportunity is owned by exactly one NGO profile and is never deleted
type Opportunity struct {
	ID                uuid.UUID         `json:"id" db:"id"`
	NGOID             uuid.UUID         `json:"ngoId" db:"ngo_id"`
	Title             string            `json:"title" db:"title"`
	Description       string            `json:"description" db:"description"`
	RequiredExpertise []string          `json:"requiredExpertise" db:"required_expertise"`
	LocationName      string            `json:"locationName" db:"location_name"`
	Geo               *GeoPoint         `json:"geo,omitempty" db:"location"`
	StartDate         time.Time         `json:"startDate" db:"start_date"`
	EndDate           time.Time         `json:"endDate" db:"end_date"`
	Compensation      Compensation      `json:"compensation" db:"compensation"`
	Status            OpportunityStatus `json:"status" db:"status"`
	Version           int64             `json:"version" db:"version"`
	CreatedAt         time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time         `json:"updatedAt" db:"updated_at"`
}

// IsOwnedBy reports whether ngoID owns the opportunity.
func (o *Opportunity) IsOwnedBy(ngoID uuid.UUID) bool {
	return o != nil && ngoID != uuid.Nil && o.NGOID == ngoID
}
