package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpportunity(ngoID uuid.UUID, title string) *models.Opportunity {
	return &models.Opportunity{
		NGOID:             ngoID,
		Title:             title,
		Description:       "Help with " + title,
		RequiredExpertise: []string{"Water Sanitation"},
		LocationName:      "Nairobi",
		StartDate:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Compensation:      models.Compensation{Type: models.CompensationVolunteer},
		Status:            models.OpportunityOpen,
	}
}

func TestOpportunityUpdateChecksVersion(t *testing.T) {
	ctx := context.Background()
	s := New()
	repo := s.Opportunities()

	o := newOpportunity(uuid.New(), "Well audit")
	require.NoError(t, repo.Create(ctx, o))
	assert.Equal(t, int64(1), o.Version)

	stale := *o
	o.Status = models.OpportunityClosed
	require.NoError(t, repo.Update(ctx, o))
	assert.Equal(t, int64(2), o.Version)

	stale.Status = models.OpportunityInProgress
	err := repo.Update(ctx, &stale)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OpportunityClosed, got.Status)
}

func TestOpportunityReturnedCopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()
	o := newOpportunity(uuid.New(), "Isolation")
	require.NoError(t, s.Opportunities().Create(ctx, o))

	o.RequiredExpertise[0] = "mutated"
	got, err := s.Opportunities().GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Water Sanitation", got.RequiredExpertise[0])
}

func TestOpportunityQueryFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := New()
	ngo := uuid.New()
	for _, title := range []string{"First", "Second", "Third"} {
		require.NoError(t, s.Opportunities().Create(ctx, newOpportunity(ngo, title)))
	}
	draft := newOpportunity(ngo, "Draft one")
	draft.Status = models.OpportunityDraft
	require.NoError(t, s.Opportunities().Create(ctx, draft))
	require.NoError(t, s.Opportunities().Create(ctx, newOpportunity(uuid.New(), "Other NGO")))

	page, total, err := s.Opportunities().Query(ctx, repositories.OpportunityFilter{
		NGOID:    &ngo,
		Statuses: []models.OpportunityStatus{models.OpportunityOpen},
		Offset:   1,
		Limit:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, "Second", page[0].Title)

	found, _, err := s.Opportunities().Query(ctx, repositories.OpportunityFilter{Search: "other", Expertise: "water sanitation"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Other NGO", found[0].Title)

	empty, total, err := s.Opportunities().Query(ctx, repositories.OpportunityFilter{Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, int64(5), total)
}

func TestApplicationPendingPairIsUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	expert, opportunity := uuid.New(), uuid.New()

	first := &models.Application{ExpertID: expert, OpportunityID: opportunity, Status: models.ApplicationPending}
	require.NoError(t, s.Applications().Create(ctx, first))

	err := s.Applications().Create(ctx, &models.Application{ExpertID: expert, OpportunityID: opportunity, Status: models.ApplicationPending})
	assert.True(t, errors.Is(err, apperrors.ErrDuplicateApplication))

	first.Status = models.ApplicationWithdrawn
	require.NoError(t, s.Applications().Update(ctx, first))
	assert.NoError(t, s.Applications().Create(ctx, &models.Application{ExpertID: expert, OpportunityID: opportunity, Status: models.ApplicationPending}))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	o := newOpportunity(uuid.New(), "Tx")
	require.NoError(t, s.Opportunities().Create(ctx, o))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		o.Status = models.OpportunityInProgress
		if err := tx.Opportunities().Update(ctx, o); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Opportunities().GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OpportunityOpen, got.Status)
	assert.Equal(t, int64(1), got.Version)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()
	var created *models.Opportunity
	err := s.WithTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		created = newOpportunity(uuid.New(), "Committed")
		return tx.Opportunities().Create(ctx, created)
	})
	require.NoError(t, err)

	_, err = s.Opportunities().GetByID(ctx, created.ID)
	assert.NoError(t, err)
}

func TestFailNextAndAfterNext(t *testing.T) {
	ctx := context.Background()
	s := New()
	unreachable := apperrors.NewConnectionError(errors.New("dial tcp: refused"))
	s.FailNext(OpOpportunitiesGet, unreachable)

	_, err := s.Opportunities().GetByID(ctx, uuid.New())
	assert.True(t, apperrors.IsRetryable(err))

	_, err = s.Opportunities().GetByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))

	calls := 0
	s.AfterNext(OpOpportunitiesQuery, func() {
		calls++
		// the store lock is released, so re-entering must not deadlock
		_, _, err := s.Opportunities().Query(ctx, repositories.OpportunityFilter{})
		assert.NoError(t, err)
	})
	_, _, err = s.Opportunities().Query(ctx, repositories.OpportunityFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestMessagesMarkReadAndQuery(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	for _, m := range []*models.Message{
		{SenderID: alice, ReceiverID: bob, Content: "hi bob"},
		{SenderID: bob, ReceiverID: alice, Content: "hi alice"},
		{SenderID: carol, ReceiverID: bob, Content: "hey"},
	} {
		require.NoError(t, s.Messages().Create(ctx, m))
	}

	thread, err := s.Messages().Query(ctx, repositories.MessageFilter{Participants: &[2]uuid.UUID{alice, bob}})
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "hi alice", thread[0].Content)

	n, err := s.Messages().MarkRead(ctx, bob, &alice, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	unread, err := s.Messages().Query(ctx, repositories.MessageFilter{ReceiverID: &bob, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, carol, unread[0].SenderID)
}

func TestUserEmailUniqueCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Users().CreateUser(ctx, &models.User{Email: "Ada@Example.org", PasswordHash: "x"}))

	err := s.Users().CreateUser(ctx, &models.User{Email: "ada@example.org", PasswordHash: "y"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	u, err := s.Users().GetUserByEmail(ctx, " ADA@example.org ")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.org", u.Email)
}
