// Package seed loads demo accounts and opportunities for local development.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/app/services"
	"github.com/impactlink/impactlink/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// DemoPassword is shared by every seeded account
const DemoPassword = "impactlink-demo1"

// Demo account emails
const (
	NGOEmail    = "water@demo.impactlink.app"
	ExpertEmail = "hydro@demo.impactlink.app"
)

// Services are the entry points the seed drives; it never writes the store directly
type Services struct {
	Auth          *services.AuthService
	Opportunities services.OpportunityService
	Applications  services.ApplicationService
	Messages      services.MessageService
}

func ptr[T any](v T) *T { return &v }

// CreateDemoData registers one NGO and one expert, posts two opportunities
// and files an application with a first message. It does nothing when the
// demo NGO already exists.
func CreateDemoData(ctx context.Context, svc Services, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating demo data...")

	ngoSession, err := svc.Auth.Register(ctx, services.RegisterInput{
		Email:    NGOEmail,
		Password: DemoPassword,
		FullName: "Amina Odhiambo",
		Role:     models.RoleNGO,
		NGO: &services.NGODetails{
			OrganizationName: "Clean Water Collective",
			Country:          "Kenya",
			City:             "Kisumu",
			Website:          ptr("https://cleanwater.example.org"),
			MissionStatement: ptr("Safe drinking water for every village on Lake Victoria"),
			FoundedYear:      ptr(2014),
		},
	})
	if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
		lgr.Info().Msg("Demo data already present, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	expertSession, err := svc.Auth.Register(ctx, services.RegisterInput{
		Email:    ExpertEmail,
		Password: DemoPassword,
		FullName: "Lars Eriksen",
		Role:     models.RoleExpert,
		Expert: &services.ExpertDetails{
			ExpertiseAreas:  []string{"hydrology", "water sanitation"},
			YearsExperience: ptr(12),
			Education:       ptr("MSc Environmental Engineering"),
			HourlyRate:      ptr(45.0),
		},
	})
	if err != nil {
		return err
	}

	ngo := ngoSession.Account.Actor()
	expert := expertSession.Account.Actor()
	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 1, 0)

	survey, err := svc.Opportunities.Create(ctx, ngo, services.CreateOpportunityInput{
		Title:             "Borehole site survey",
		Description:       "Assess groundwater potential for three village boreholes.",
		RequiredExpertise: []string{"hydrology"},
		LocationName:      "Kisumu County",
		Geo:               &models.GeoPoint{Latitude: -0.0917, Longitude: 34.768},
		StartDate:         start,
		EndDate:           start.AddDate(0, 0, 21),
		Compensation:      models.Compensation{Type: models.CompensationPaid, Amount: 1800, Currency: "USD", Unit: "project"},
		Status:            models.OpportunityOpen,
	})
	if err != nil {
		return err
	}

	if _, err := svc.Opportunities.Create(ctx, ngo, services.CreateOpportunityInput{
		Title:             "Hygiene training for school staff",
		Description:       "Two-day workshop on handwashing stations and water storage.",
		RequiredExpertise: []string{"water sanitation", "training"},
		LocationName:      "Remote",
		StartDate:         start.AddDate(0, 2, 0),
		EndDate:           start.AddDate(0, 2, 2),
		Compensation:      models.Compensation{Type: models.CompensationVolunteer},
		Status:            models.OpportunityDraft,
	}); err != nil {
		return err
	}

	if _, err := svc.Applications.Apply(ctx, expert, survey.ID, "I surveyed 40 boreholes in the Rift Valley last year."); err != nil {
		return err
	}
	if _, err := svc.Messages.Send(ctx, expert, ngo.ProfileID, "Happy to share my survey reports if useful."); err != nil {
		return err
	}

	lgr.Info().
		Str("ngoEmail", NGOEmail).
		Str("expertEmail", ExpertEmail).
		Msg("Demo data created")
	return nil
}
