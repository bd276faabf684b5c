package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the credential record behind a session
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// Profile is the role-independent part of an account, one per user
type Profile struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	FullName  string    `json:"fullName" db:"full_name"`
	Bio       *string   `json:"bio,omitempty" db:"bio"`
	AvatarRef *string   `json:"avatarRef,omitempty" db:"avatar_ref"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// NGOProfile exists only for profiles with RoleNGO
type NGOProfile struct {
	ID               uuid.UUID `json:"id" db:"id"`
	ProfileID        uuid.UUID `json:"profileId" db:"profile_id"`
	OrganizationName string    `json:"organizationName" db:"organization_name"`
	Country          string    `json:"country" db:"country"`
	City             string    `json:"city" db:"city"`
	Website          *string   `json:"website,omitempty" db:"website"`
	MissionStatement *string   `json:"missionStatement,omitempty" db:"mission_statement"`
	FoundedYear      *int      `json:"foundedYear,omitempty" db:"founded_year"`
	Verified         bool      `json:"verified" db:"verified"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// ExpertProfile exists only for profiles with RoleExpert
type ExpertProfile struct {
	ID              uuid.UUID `json:"id" db:"id"`
	ProfileID       uuid.UUID `json:"profileId" db:"profile_id"`
	ExpertiseAreas  []string  `json:"expertiseAreas" db:"expertise_areas"`
	YearsExperience *int      `json:"yearsExperience,omitempty" db:"years_experience"`
	Education       *string   `json:"education,omitempty" db:"education"`
	Certifications  *string   `json:"certifications,omitempty" db:"certifications"`
	HourlyRate      *float64  `json:"hourlyRate,omitempty" db:"hourly_rate"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// Account is a profile together with its role-specific half.
// It is implemented by *NGOAccount and *ExpertAccount only; switch on the
// concrete type instead of comparing role strings.
type Account interface {
	Base() *Profile
	Actor() Actor
	account()
}

// NGOAccount is an Account for RoleNGO
type NGOAccount struct {
	Profile *Profile    `json:"profile"`
	NGO     *NGOProfile `json:"ngo"`
}

// Base returns the shared profile.
func (a *NGOAccount) Base() *Profile { return a.Profile }

// Actor returns the identity used by lifecycle operations.
func (a *NGOAccount) Actor() Actor {
	return Actor{UserID: a.Profile.UserID, ProfileID: a.Profile.ID, Role: RoleNGO, RoleProfileID: a.NGO.ID}
}

func (*NGOAccount) account() {}

// ExpertAccount is an Account for RoleExpert
type ExpertAccount struct {
	Profile *Profile       `json:"profile"`
	Expert  *ExpertProfile `json:"expert"`
}

// Base returns the shared profile.
func (a *ExpertAccount) Base() *Profile { return a.Profile }

// Actor returns the identity used by lifecycle operations.
func (a *ExpertAccount) Actor() Actor {
	return Actor{UserID: a.Profile.UserID, ProfileID: a.Profile.ID, Role: RoleExpert, RoleProfileID: a.Expert.ID}
}

func (*ExpertAccount) account() {}
