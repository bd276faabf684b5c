package dto

// CompensationRequest describes how an opportunity is paid
type CompensationRequest struct {
	Type     string  `json:"type"`
	Amount   float64 `json:"amount,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Unit     string  `json:"unit,omitempty"`
}

// CreateOpportunityRequest represents a new opportunity. Field rules are
// checked by the opportunity service so that every violation is reported
// together; dates use the YYYY-MM-DD layout.
type CreateOpportunityRequest struct {
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	RequiredExpertise []string            `json:"requiredExpertise"`
	LocationName      string              `json:"locationName"`
	Latitude          *float64            `json:"latitude,omitempty"`
	Longitude         *float64            `json:"longitude,omitempty"`
	StartDate         string              `json:"startDate"`
	EndDate           string              `json:"endDate"`
	Compensation      CompensationRequest `json:"compensation"`
	Status            string              `json:"status,omitempty" binding:"omitempty,oneof=draft open"`
}

// TransitionOpportunityRequest moves an opportunity to a new status
type TransitionOpportunityRequest struct {
	Status string `json:"status" binding:"required"`
}

// OpportunityListQuery represents the explore filters
type OpportunityListQuery struct {
	Search    string `form:"search" binding:"omitempty,max=200"`
	Expertise string `form:"expertise" binding:"omitempty,max=100"`
}

// SavedResponse is the bookmark state after a toggle
type SavedResponse struct {
	OpportunityID string `json:"opportunityId"`
	Saved         bool   `json:"saved"`
}
