package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/repositories"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
)

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneOpportunity(o models.Opportunity) *models.Opportunity {
	o.RequiredExpertise = cloneStrings(o.RequiredExpertise)
	if o.Geo != nil {
		geo := *o.Geo
		o.Geo = &geo
	}
	return &o
}

func cloneExpert(e models.ExpertProfile) *models.ExpertProfile {
	e.ExpertiseAreas = cloneStrings(e.ExpertiseAreas)
	return &e
}

func containsFold(list []string, needle string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), needle) {
			return true
		}
	}
	return false
}

func newer(order repositories.SortOrder, a, b time.Time) bool {
	if order == repositories.OldestFirst {
		return a.Before(b)
	}
	return a.After(b)
}

type userRepo struct{ s *Store }

func (r *userRepo) CreateUser(ctx context.Context, user *models.User) error {
	return r.s.do(ctx, OpUsersCreate, func(d *state) error {
		email := strings.ToLower(strings.TrimSpace(user.Email))
		for _, u := range d.users {
			if u.Email == email {
				return apperrors.ErrEmailAlreadyExists
			}
		}
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		now := r.s.stamp(d)
		user.Email = email
		user.CreatedAt, user.UpdatedAt = now, now
		d.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var out *models.User
	err := r.s.do(ctx, OpUsersGet, func(d *state) error {
		u, ok := d.users[id]
		if !ok {
			return apperrors.ErrUserNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	email = strings.ToLower(strings.TrimSpace(email))
	err := r.s.do(ctx, OpUsersGet, func(d *state) error {
		for _, u := range d.users {
			if u.Email == email {
				found := u
				out = &found
				return nil
			}
		}
		return apperrors.ErrUserNotFound
	})
	return out, err
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	return r.s.do(ctx, OpUsersUpdate, func(d *state) error {
		u, ok := d.users[id]
		if !ok {
			return apperrors.ErrUserNotFound
		}
		now := r.s.stamp(d)
		u.LastLoginAt = &now
		u.UpdatedAt = now
		d.users[id] = u
		return nil
	})
}

type profileRepo struct{ s *Store }

func (r *profileRepo) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return r.s.do(ctx, OpProfilesCreate, func(d *state) error {
		for _, p := range d.profiles {
			if p.UserID == profile.UserID {
				return apperrors.NewConflictError("profile already exists for user")
			}
		}
		if profile.ID == uuid.Nil {
			profile.ID = uuid.New()
		}
		now := r.s.stamp(d)
		profile.CreatedAt, profile.UpdatedAt = now, now
		d.profiles[profile.ID] = *profile
		return nil
	})
}

func (r *profileRepo) GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var out *models.Profile
	err := r.s.do(ctx, OpProfilesGet, func(d *state) error {
		p, ok := d.profiles[id]
		if !ok {
			return apperrors.ErrProfileNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *profileRepo) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var out *models.Profile
	err := r.s.do(ctx, OpProfilesGet, func(d *state) error {
		for _, p := range d.profiles {
			if p.UserID == userID {
				found := p
				out = &found
				return nil
			}
		}
		return apperrors.ErrProfileNotFound
	})
	return out, err
}

func (r *profileRepo) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	return r.s.do(ctx, OpProfilesUpdate, func(d *state) error {
		existing, ok := d.profiles[profile.ID]
		if !ok {
			return apperrors.ErrProfileNotFound
		}
		profile.UserID, profile.Role, profile.CreatedAt = existing.UserID, existing.Role, existing.CreatedAt
		profile.UpdatedAt = r.s.stamp(d)
		d.profiles[profile.ID] = *profile
		return nil
	})
}

func (r *profileRepo) CreateNGOProfile(ctx context.Context, ngo *models.NGOProfile) error {
	return r.s.do(ctx, OpProfilesCreate, func(d *state) error {
		if _, ok := d.profiles[ngo.ProfileID]; !ok {
			return apperrors.ErrProfileNotFound
		}
		for _, n := range d.ngos {
			if n.ProfileID == ngo.ProfileID {
				return apperrors.NewConflictError("ngo profile already exists")
			}
		}
		if ngo.ID == uuid.Nil {
			ngo.ID = uuid.New()
		}
		now := r.s.stamp(d)
		ngo.CreatedAt, ngo.UpdatedAt = now, now
		d.ngos[ngo.ID] = *ngo
		return nil
	})
}

func (r *profileRepo) GetNGOProfileByID(ctx context.Context, id uuid.UUID) (*models.NGOProfile, error) {
	var out *models.NGOProfile
	err := r.s.do(ctx, OpProfilesGet, func(d *state) error {
		n, ok := d.ngos[id]
		if !ok {
			return apperrors.ErrProfileNotFound
		}
		out = &n
		return nil
	})
	return out, err
}

func (r *profileRepo) GetNGOProfileByProfileID(ctx context.Context, profileID uuid.UUID) (*models.NGOProfile, error) {
	var out *models.NGOProfile
	err := r.s.do(ctx, OpProfilesGet, func(d *state) error {
		for _, n := range d.ngos {
			if n.ProfileID == profileID {
				found := n
				out = &found
				return nil
			}
		}
		return apperrors.ErrProfileNotFound
	})
	return out, err
}

func (r *profileRepo) UpdateNGOProfile(ctx context.Context, ngo *models.NGOProfile) error {
	return r.s.do(ctx, OpProfilesUpdate, func(d *state) error {
		existing, ok := d.ngos[ngo.ID]
		if !ok {
			return apperrors.ErrProfileNotFound
		}
		ngo.ProfileID, ngo.Verified, ngo.CreatedAt = existing.ProfileID, existing.Verified, existing.CreatedAt
		ngo.UpdatedAt = r.s.stamp(d)
		d.ngos[ngo.ID] = *ngo
		return nil
	})
}

func (r *profileRepo) CreateExpertProfile(ctx context.Context, expert *models.ExpertProfile) error {
	return r.s.do(ctx, OpProfilesCreate, func(d *state) error {
		if _, ok := d.profiles[expert.ProfileID]; !ok {
			return apperrors.ErrProfileNotFound
		}
		for _, e := range d.experts {
			if e.ProfileID == expert.ProfileID {
				return apperrors.NewConflictError("expert profile already exists")
			}
		}
		if expert.ID == uuid.Nil {
			expert.ID = uuid.New()
		}
		now := r.s.stamp(d)
		expert.CreatedAt, expert.UpdatedAt = now, now
		d.experts[expert.ID] = *cloneExpert(*expert)
		return nil
	})
}

func (r *profileRepo) GetExpertProfileByID(ctx context.Context, id uuid.UUID) (*models.ExpertProfile, error) {
	var out *models.ExpertProfile
	err := r.s.do(ctx, OpProfilesGet, func(d *state) error {
		e, ok := d.experts[id]
		if !ok {
			return apperrors.ErrProfileNotFound
		}
		out = cloneExpert(e)
		return nil
	})
	return out, err
}

func (r *profileRepo) GetExpertProfileByProfileID(ctx context.Context, profileID uuid.UUID) (*models.ExpertProfile, error) {
	var out *models.ExpertProfile
	err := r.s.do(ctx, OpProfilesGet, func(d *state) error {
		for _, e := range d.experts {
			if e.ProfileID == profileID {
				out = cloneExpert(e)
				return nil
			}
		}
		return apperrors.ErrProfileNotFound
	})
	return out, err
}

func (r *profileRepo) UpdateExpertProfile(ctx context.Context, expert *models.ExpertProfile) error {
	return r.s.do(ctx, OpProfilesUpdate, func(d *state) error {
		existing, ok := d.experts[expert.ID]
		if !ok {
			return apperrors.ErrProfileNotFound
		}
		expert.ProfileID, expert.CreatedAt = existing.ProfileID, existing.CreatedAt
		expert.UpdatedAt = r.s.stamp(d)
		d.experts[expert.ID] = *cloneExpert(*expert)
		return nil
	})
}

func (r *profileRepo) QueryExpertProfiles(ctx context.Context, filter repositories.ExpertFilter) ([]*models.ExpertProfile, error) {
	var out []*models.ExpertProfile
	err := r.s.do(ctx, OpProfilesQuery, func(d *state) error {
		needle := strings.TrimSpace(filter.Expertise)
		for _, e := range d.experts {
			if needle != "" && !containsFold(e.ExpertiseAreas, needle) {
				continue
			}
			out = append(out, cloneExpert(e))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type opportunityRepo struct{ s *Store }

func (r *opportunityRepo) Create(ctx context.Context, o *models.Opportunity) error {
	return r.s.do(ctx, OpOpportunitiesCreate, func(d *state) error {
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		now := r.s.stamp(d)
		o.Version = 1
		o.CreatedAt, o.UpdatedAt = now, now
		d.opportunities[o.ID] = *cloneOpportunity(*o)
		return nil
	})
}

func (r *opportunityRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	var out *models.Opportunity
	err := r.s.do(ctx, OpOpportunitiesGet, func(d *state) error {
		o, ok := d.opportunities[id]
		if !ok {
			return apperrors.NewResourceNotFoundError("opportunity not found")
		}
		out = cloneOpportunity(o)
		return nil
	})
	return out, err
}

func (r *opportunityRepo) Update(ctx context.Context, o *models.Opportunity) error {
	return r.s.do(ctx, OpOpportunitiesUpdate, func(d *state) error {
		existing, ok := d.opportunities[o.ID]
		if !ok {
			return apperrors.NewResourceNotFoundError("opportunity not found")
		}
		if existing.Version != o.Version {
			return apperrors.NewConflictError("opportunity was modified concurrently")
		}
		o.NGOID, o.CreatedAt = existing.NGOID, existing.CreatedAt
		o.Version = existing.Version + 1
		o.UpdatedAt = r.s.stamp(d)
		d.opportunities[o.ID] = *cloneOpportunity(*o)
		return nil
	})
}

func (r *opportunityRepo) Query(ctx context.Context, filter repositories.OpportunityFilter) ([]*models.Opportunity, int64, error) {
	var matched []*models.Opportunity
	err := r.s.do(ctx, OpOpportunitiesQuery, func(d *state) error {
		search := strings.ToLower(strings.TrimSpace(filter.Search))
		expertise := strings.TrimSpace(filter.Expertise)
		for _, o := range d.opportunities {
			if filter.NGOID != nil && o.NGOID != *filter.NGOID {
				continue
			}
			if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, o.Status) {
				continue
			}
			if expertise != "" && !containsFold(o.RequiredExpertise, expertise) {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(o.Title), search) &&
				!strings.Contains(strings.ToLower(o.Description), search) {
				continue
			}
			matched = append(matched, cloneOpportunity(o))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		return newer(filter.Order, matched[i].CreatedAt, matched[j].CreatedAt)
	})
	total := int64(len(matched))

	if filter.Offset >= uint64(len(matched)) {
		return []*models.Opportunity{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func hasStatus[T comparable](list []T, s T) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

type applicationRepo struct{ s *Store }

func (r *applicationRepo) Create(ctx context.Context, a *models.Application) error {
	return r.s.do(ctx, OpApplicationsCreate, func(d *state) error {
		if a.Status == models.ApplicationPending {
			for _, existing := range d.applications {
				if existing.ExpertID == a.ExpertID &&
					existing.OpportunityID == a.OpportunityID &&
					existing.Status == models.ApplicationPending {
					return apperrors.NewDuplicateApplicationError("a pending application already exists for this opportunity")
				}
			}
		}
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		now := r.s.stamp(d)
		a.Version = 1
		a.CreatedAt, a.UpdatedAt = now, now
		d.applications[a.ID] = *a
		return nil
	})
}

func (r *applicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var out *models.Application
	err := r.s.do(ctx, OpApplicationsGet, func(d *state) error {
		a, ok := d.applications[id]
		if !ok {
			return apperrors.NewResourceNotFoundError("application not found")
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *applicationRepo) Update(ctx context.Context, a *models.Application) error {
	return r.s.do(ctx, OpApplicationsUpdate, func(d *state) error {
		existing, ok := d.applications[a.ID]
		if !ok {
			return apperrors.NewResourceNotFoundError("application not found")
		}
		if existing.Version != a.Version {
			return apperrors.NewConflictError("application was modified concurrently")
		}
		a.OpportunityID, a.ExpertID, a.CreatedAt = existing.OpportunityID, existing.ExpertID, existing.CreatedAt
		a.Version = existing.Version + 1
		a.UpdatedAt = r.s.stamp(d)
		d.applications[a.ID] = *a
		return nil
	})
}

func (r *applicationRepo) Query(ctx context.Context, filter repositories.ApplicationFilter) ([]*models.Application, error) {
	out := []*models.Application{}
	err := r.s.do(ctx, OpApplicationsQuery, func(d *state) error {
		for _, a := range d.applications {
			if filter.OpportunityID != nil && a.OpportunityID != *filter.OpportunityID {
				continue
			}
			if filter.ExpertID != nil && a.ExpertID != *filter.ExpertID {
				continue
			}
			if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, a.Status) {
				continue
			}
			found := a
			out = append(out, &found)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return newer(filter.Order, out[i].CreatedAt, out[j].CreatedAt) })
	return out, nil
}

type savedRepo struct{ s *Store }

func (r *savedRepo) find(d *state, expertID, opportunityID uuid.UUID) (uuid.UUID, bool) {
	for id, s := range d.saved {
		if s.ExpertID == expertID && s.OpportunityID == opportunityID {
			return id, true
		}
	}
	return uuid.Nil, false
}

func (r *savedRepo) Exists(ctx context.Context, expertID, opportunityID uuid.UUID) (bool, error) {
	var exists bool
	err := r.s.do(ctx, OpSavedExists, func(d *state) error {
		_, exists = r.find(d, expertID, opportunityID)
		return nil
	})
	return exists, err
}

func (r *savedRepo) Create(ctx context.Context, saved *models.SavedOpportunity) error {
	return r.s.do(ctx, OpSavedCreate, func(d *state) error {
		if _, ok := r.find(d, saved.ExpertID, saved.OpportunityID); ok {
			return apperrors.NewConflictError("opportunity already saved")
		}
		if saved.ID == uuid.Nil {
			saved.ID = uuid.New()
		}
		saved.CreatedAt = r.s.stamp(d)
		d.saved[saved.ID] = *saved
		return nil
	})
}

func (r *savedRepo) Delete(ctx context.Context, expertID, opportunityID uuid.UUID) error {
	return r.s.do(ctx, OpSavedDelete, func(d *state) error {
		id, ok := r.find(d, expertID, opportunityID)
		if !ok {
			return apperrors.NewResourceNotFoundError("saved opportunity not found")
		}
		delete(d.saved, id)
		return nil
	})
}

func (r *savedRepo) ListByExpert(ctx context.Context, expertID uuid.UUID) ([]*models.SavedOpportunity, error) {
	out := []*models.SavedOpportunity{}
	err := r.s.do(ctx, OpSavedList, func(d *state) error {
		for _, s := range d.saved {
			if s.ExpertID == expertID {
				found := s
				out = append(out, &found)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type messageRepo struct{ s *Store }

func (r *messageRepo) Create(ctx context.Context, m *models.Message) error {
	return r.s.do(ctx, OpMessagesCreate, func(d *state) error {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.CreatedAt = r.s.stamp(d)
		d.messages[m.ID] = *m
		return nil
	})
}

func (r *messageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var out *models.Message
	err := r.s.do(ctx, OpMessagesGet, func(d *state) error {
		m, ok := d.messages[id]
		if !ok {
			return apperrors.NewResourceNotFoundError("message not found")
		}
		out = &m
		return nil
	})
	return out, err
}

func matchesMessage(m models.Message, f repositories.MessageFilter) bool {
	if f.Participants != nil {
		a, b := f.Participants[0], f.Participants[1]
		if !(m.SenderID == a && m.ReceiverID == b) && !(m.SenderID == b && m.ReceiverID == a) {
			return false
		}
	}
	if f.Involving != nil && m.SenderID != *f.Involving && m.ReceiverID != *f.Involving {
		return false
	}
	if f.SenderID != nil && m.SenderID != *f.SenderID {
		return false
	}
	if f.ReceiverID != nil && m.ReceiverID != *f.ReceiverID {
		return false
	}
	return !f.UnreadOnly || !m.Read
}

func (r *messageRepo) Query(ctx context.Context, filter repositories.MessageFilter) ([]*models.Message, error) {
	out := []*models.Message{}
	err := r.s.do(ctx, OpMessagesQuery, func(d *state) error {
		for _, m := range d.messages {
			if matchesMessage(m, filter) {
				found := m
				out = append(out, &found)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return newer(filter.Order, out[i].CreatedAt, out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *messageRepo) MarkRead(ctx context.Context, receiverID uuid.UUID, senderID *uuid.UUID, messageID *uuid.UUID) (int64, error) {
	var n int64
	err := r.s.do(ctx, OpMessagesMarkRead, func(d *state) error {
		for id, m := range d.messages {
			if m.ReceiverID != receiverID || m.Read {
				continue
			}
			if senderID != nil && m.SenderID != *senderID {
				continue
			}
			if messageID != nil && id != *messageID {
				continue
			}
			m.Read = true
			d.messages[id] = m
			n++
		}
		return nil
	})
	return n, err
}
