package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
)

// ApplicationStatus is the lifecycle state of an expert's application
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

// ApplicationStatuses lists every status.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationPending, ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn,
}

// IsTerminal reports whether no further transition is possible.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationAccepted || s == ApplicationRejected || s == ApplicationWithdrawn
}

// CanTransitionTo reports whether s -> target is a legal edge.
func (s ApplicationStatus) CanTransitionTo(target ApplicationStatus) bool {
	return s == ApplicationPending && target.IsTerminal()
}

// CheckTransition returns an InvalidTransitionError for illegal edges.
func (s ApplicationStatus) CheckTransition(target ApplicationStatus) error {
	if !s.CanTransitionTo(target) {
		return apperrors.NewInvalidTransitionError("application", string(s), string(target))
	}
	return nil
}

// Application relates an expert to an opportunity; owned by neither
type Application struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	OpportunityID uuid.UUID         `json:"opportunityId" db:"opportunity_id"`
	ExpertID      uuid.UUID         `json:"expertId" db:"expert_id"`
	Message       *string           `json:"message,omitempty" db:"message"`
	Status        ApplicationStatus `json:"status" db:"status"`
	Version       int64             `json:"version" db:"version"`
	CreatedAt     time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time         `json:"updatedAt" db:"updated_at"`
}

// HasMessage reports whether the applicant wrote a cover message.
func (a *Application) HasMessage() bool {
	return a.Message != nil && strings.TrimSpace(*a.Message) != ""
}

// SavedOpportunity marks an opportunity bookmarked by an expert
type SavedOpportunity struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ExpertID      uuid.UUID `json:"expertId" db:"expert_id"`
	OpportunityID uuid.UUID `json:"opportunityId" db:"opportunity_id"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}
