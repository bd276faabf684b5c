package models

import "github.com/google/uuid"

// Role defines the marketplace role attached to a profile
type Role string

const (
	RoleNGO    Role = "ngo"
	RoleExpert Role = "expert"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleNGO || r == RoleExpert
}

// Actor is the resolved identity every lifecycle operation receives.
// RoleProfileID is the ngo_profiles.id or expert_profiles.id matching Role.
type Actor struct {
	UserID        uuid.UUID
	ProfileID     uuid.UUID
	Role          Role
	RoleProfileID uuid.UUID
}

// NGOID returns the actor's NGO profile id when the actor is an NGO.
func (a Actor) NGOID() (uuid.UUID, bool) {
	if a.Role != RoleNGO || a.RoleProfileID == uuid.Nil {
		return uuid.Nil, false
	}
	return a.RoleProfileID, true
}

// ExpertID returns the actor's expert profile id when the actor is an expert.
func (a Actor) ExpertID() (uuid.UUID, bool) {
	if a.Role != RoleExpert || a.RoleProfileID == uuid.Nil {
		return uuid.Nil, false
	}
	return a.RoleProfileID, true
}
