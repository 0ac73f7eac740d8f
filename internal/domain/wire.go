package domain

import "encoding/json"

// Client -> server events. Each maps to exactly one correlated response event.
const (
	EventLogin        = "login"
	EventSendMessage  = "send_message"
	EventGetMessages  = "get_messages"
	EventGetCustomers = "get_customers"
	EventPing         = "ping"
)

// Server -> client events.
const (
	EventLoginResponse     = "login_response"
	EventMessageResponse   = "message_response"
	EventMessagesResponse  = "messages_response"
	EventCustomersResponse = "customers_response"
	EventNewMessage        = "new_message"
	EventError             = "error"
	EventPong              = "pong"
)

// Error codes for uncorrelated error events.
const (
	ErrCodeBadRequest = "BAD_REQUEST"
)

// Envelope frames every websocket message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client -> server payloads

type LoginRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type SendMessageRequest struct {
	SenderID    string `json:"senderId"`
	SenderName  string `json:"senderName"`
	RecipientID string `json:"recipientId,omitempty"`
	Content     string `json:"content"`
	Role        string `json:"role,omitempty"`
}

type GetMessagesRequest struct {
	UserID string `json:"userId"`
}

// Server -> client payloads

type LoginResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token,omitempty"`
	Role     string `json:"role,omitempty"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Error    string `json:"error,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type MessagesResponse struct {
	Success  bool                  `json:"success"`
	Messages []MessageNotification `json:"messages"`
	Error    string                `json:"error,omitempty"`
}

type CustomersResponse struct {
	Success   bool           `json:"success"`
	Customers []CustomerInfo `json:"customers"`
	Error     string         `json:"error,omitempty"`
}

// MessageNotification is both the new_message push payload and the history
// entry shape in messages_response.
type MessageNotification struct {
	ID             int64  `json:"id"`
	SenderID       string `json:"senderId"`
	SenderName     string `json:"senderName"`
	Content        string `json:"content"`
	Timestamp      int64  `json:"timestamp"`
	IsFromCustomer bool   `json:"isFromCustomer"`
}

type CustomerInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsOnline bool   `json:"isOnline"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NotificationFromMessage converts a persisted message to its wire shape.
func NotificationFromMessage(m Message) MessageNotification {
	return MessageNotification{
		ID:             m.ID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		Content:        m.Content,
		Timestamp:      m.Timestamp.UnixMilli(),
		IsFromCustomer: m.SenderRole == RoleCustomer,
	}
}
