package dto

// UpdateProfileRequest represents base profile changes; omitted fields are kept
type UpdateProfileRequest struct {
	FullName  *string `json:"fullName,omitempty" binding:"omitempty,min=2,max=100"`
	Bio       *string `json:"bio,omitempty" binding:"omitempty,max=2000"`
	AvatarRef *string `json:"avatarRef,omitempty" binding:"omitempty,max=500"`
}

// UpdateNGORequest represents NGO profile changes; omitted fields are kept
type UpdateNGORequest struct {
	OrganizationName *string `json:"organizationName,omitempty"`
	Country          *string `json:"country,omitempty"`
	City             *string `json:"city,omitempty"`
	Website          *string `json:"website,omitempty" binding:"omitempty,url"`
	MissionStatement *string `json:"missionStatement,omitempty" binding:"omitempty,max=2000"`
	FoundedYear      *int    `json:"foundedYear,omitempty" binding:"omitempty,min=1800,max=2100"`
}

// UpdateExpertRequest represents expert profile changes; omitted fields are kept
type UpdateExpertRequest struct {
	ExpertiseAreas  []string `json:"expertiseAreas,omitempty"`
	YearsExperience *int     `json:"yearsExperience,omitempty" binding:"omitempty,min=0,max=80"`
	Education       *string  `json:"education,omitempty"`
	Certifications  *string  `json:"certifications,omitempty"`
	HourlyRate      *float64 `json:"hourlyRate,omitempty" binding:"omitempty,gte=0"`
}

// ExpertListQuery represents the explore-experts filters
type ExpertListQuery struct {
	Search    string `form:"search" binding:"omitempty,max=200"`
	Expertise string `form:"expertise" binding:"omitempty,max=100"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
}
