package dto

import "time"

// APIResponse is the envelope of every JSON response
type APIResponse struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message,omitempty"`
	Data           interface{}     `json:"data,omitempty"`
	Error          *ErrorDetail    `json:"error,omitempty"`
	PaginationInfo *PaginationInfo `json:"pagination,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// PaginationInfo describes one page of a listing
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
}

// NewSuccessResponse wraps data in a successful envelope
func NewSuccessResponse(data interface{}, message string) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewPaginatedResponse wraps one page of items with its pagination info
func NewPaginatedResponse(items interface{}, pagination PaginationInfo) APIResponse {
	return APIResponse{
		Success:        true,
		Data:           items,
		PaginationInfo: &pagination,
		Timestamp:      time.Now(),
	}
}
