package dto

import "github.com/impactlink/impactlink/internal/app/models"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// NGODetailsRequest is the NGO half of a registration
type NGODetailsRequest struct {
	OrganizationName string  `json:"organizationName" binding:"required,nonblank"`
	Country          string  `json:"country" binding:"required,nonblank"`
	City             string  `json:"city" binding:"required,nonblank"`
	Website          *string `json:"website,omitempty" binding:"omitempty,url"`
	MissionStatement *string `json:"missionStatement,omitempty"`
	FoundedYear      *int    `json:"foundedYear,omitempty" binding:"omitempty,min=1800,max=2100"`
}

// ExpertDetailsRequest is the expert half of a registration
type ExpertDetailsRequest struct {
	ExpertiseAreas  []string `json:"expertiseAreas" binding:"required,min=1,dive,nonblank"`
	YearsExperience *int     `json:"yearsExperience,omitempty" binding:"omitempty,min=0,max=80"`
	Education       *string  `json:"education,omitempty"`
	Certifications  *string  `json:"certifications,omitempty"`
	HourlyRate      *float64 `json:"hourlyRate,omitempty" binding:"omitempty,gte=0"`
}

// RegisterRequest creates an account with its role profile
type RegisterRequest struct {
	Email    string                `json:"email" binding:"required,email"`
	Password string                `json:"password" binding:"required,min=8"`
	FullName string                `json:"fullName" binding:"required,min=2,max=100"`
	Role     models.Role           `json:"role" binding:"required,oneof=ngo expert"`
	NGO      *NGODetailsRequest    `json:"ngo,omitempty" binding:"required_if=Role ngo"`
	Expert   *ExpertDetailsRequest `json:"expert,omitempty" binding:"required_if=Role expert"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token   TokenResponse  `json:"token"`
	Account models.Account `json:"account"`
}
