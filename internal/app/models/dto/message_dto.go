package dto

// SendMessageRequest represents a direct message
type SendMessageRequest struct {
	ReceiverID string `json:"receiverId" binding:"required,uuid"`
	Content    string `json:"content" binding:"required,nonblank,max=5000"`
}

// ConversationQuery bounds a thread read
type ConversationQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}
