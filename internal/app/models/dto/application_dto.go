package dto

// ApplyRequest submits an application. The cover message is optional.
type ApplyRequest struct {
	Message string `json:"message" binding:"max=5000"`
}
