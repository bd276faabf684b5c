package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
)

// The interfaces in this file are the Data Access Port. Services depend on
// them only; PostgreSQL and memstore provide the implementations.
//
// Every method may fail with apperrors.ErrConnection when the store is
// unreachable and apperrors.ErrResourceNotFound when a keyed lookup misses.
// Update on opportunities and applications compares Version and fails with
// apperrors.ErrConflict when the stored row has moved on; on success the
// passed entity carries the new Version and UpdatedAt.

// IUserRepository manages credential records
type IUserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// IProfileRepository manages profiles and their role-specific halves
type IProfileRepository interface {
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error

	CreateNGOProfile(ctx context.Context, ngo *models.NGOProfile) error
	GetNGOProfileByID(ctx context.Context, id uuid.UUID) (*models.NGOProfile, error)
	GetNGOProfileByProfileID(ctx context.Context, profileID uuid.UUID) (*models.NGOProfile, error)
	UpdateNGOProfile(ctx context.Context, ngo *models.NGOProfile) error

	CreateExpertProfile(ctx context.Context, expert *models.ExpertProfile) error
	GetExpertProfileByID(ctx context.Context, id uuid.UUID) (*models.ExpertProfile, error)
	GetExpertProfileByProfileID(ctx context.Context, profileID uuid.UUID) (*models.ExpertProfile, error)
	UpdateExpertProfile(ctx context.Context, expert *models.ExpertProfile) error
	QueryExpertProfiles(ctx context.Context, filter ExpertFilter) ([]*models.ExpertProfile, error)
}

// IOpportunityRepository manages opportunities. There is no delete.
type IOpportunityRepository interface {
	Create(ctx context.Context, opportunity *models.Opportunity) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)
	Update(ctx context.Context, opportunity *models.Opportunity) error
	Query(ctx context.Context, filter OpportunityFilter) ([]*models.Opportunity, int64, error)
}

// IApplicationRepository manages applications.
// Create fails with apperrors.ErrDuplicateApplication when a pending
// application already exists for the same (expert, opportunity) pair.
type IApplicationRepository interface {
	Create(ctx context.Context, application *models.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	Update(ctx context.Context, application *models.Application) error
	Query(ctx context.Context, filter ApplicationFilter) ([]*models.Application, error)
}

// ISavedOpportunityRepository manages the expert bookmark relation
type ISavedOpportunityRepository interface {
	Exists(ctx context.Context, expertID, opportunityID uuid.UUID) (bool, error)
	Create(ctx context.Context, saved *models.SavedOpportunity) error
	Delete(ctx context.Context, expertID, opportunityID uuid.UUID) error
	ListByExpert(ctx context.Context, expertID uuid.UUID) ([]*models.SavedOpportunity, error)
}

// IMessageRepository manages direct messages
type IMessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	Query(ctx context.Context, filter MessageFilter) ([]*models.Message, error)
	MarkRead(ctx context.Context, receiverID uuid.UUID, senderID *uuid.UUID, messageID *uuid.UUID) (int64, error)
}

// Store groups the per-collection repositories behind one handle
type Store interface {
	Users() IUserRepository
	Profiles() IProfileRepository
	Opportunities() IOpportunityRepository
	Applications() IApplicationRepository
	SavedOpportunities() ISavedOpportunityRepository
	Messages() IMessageRepository
}

// TxFn runs against a Store bound to an open transaction
type TxFn func(ctx context.Context, tx Store) error

// Transactor is implemented by stores that can run several writes atomically.
// When fn returns an error nothing it wrote is kept.
type Transactor interface {
	WithTx(ctx context.Context, fn TxFn) error
}

// SortOrder selects the created_at ordering of a query
type SortOrder int

const (
	NewestFirst SortOrder = iota
	OldestFirst
)

// OpportunityFilter narrows an opportunity query; zero values mean "any"
type OpportunityFilter struct {
	NGOID     *uuid.UUID
	Statuses  []models.OpportunityStatus
	Expertise string
	Search    string
	Offset    uint64
	Limit     int
	Order     SortOrder
}

// ApplicationFilter narrows an application query
type ApplicationFilter struct {
	OpportunityID *uuid.UUID
	ExpertID      *uuid.UUID
	Statuses      []models.ApplicationStatus
	Order         SortOrder
}

// ExpertFilter narrows an expert profile query
type ExpertFilter struct {
	Expertise string
	Limit     int
}

// MessageFilter narrows a message query. Participants matches either
// direction between the two profiles; Involving matches any message sent or
// received by one profile.
type MessageFilter struct {
	Participants *[2]uuid.UUID
	Involving    *uuid.UUID
	SenderID     *uuid.UUID
	ReceiverID   *uuid.UUID
	UnreadOnly   bool
	Limit        int
	Order        SortOrder
}
