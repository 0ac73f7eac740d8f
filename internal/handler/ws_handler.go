package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/supdesk/relay-service/internal/config"
	"github.com/supdesk/relay-service/internal/domain"
	"github.com/supdesk/relay-service/internal/hub"
	"github.com/supdesk/relay-service/internal/service"
	"github.com/supdesk/relay-service/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades connections and dispatches enveloped events to the
// relay service. It owns the per-connection state machine: a connection
// is anonymous until login_response{success:true}, and only authenticated
// connections may send or read messages.
type WSHandler struct {
	service service.RelayService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(svc service.RelayService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.L().Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), conn, h.wsCfg)
	log.L().Debug().Str(log.FieldConnID, client.ID()).Msg("client connected")

	go client.WritePump()
	go client.ReadPump(h.handleMessage, h.handleClose)
}

func (h *WSHandler) handleClose(client *hub.Client) {
	h.service.HandleDisconnect(h.connContext(client), client)
}

func (h *WSHandler) connContext(client *hub.Client) context.Context {
	logger := log.L().With().Str(log.FieldConnID, client.ID()).Logger()
	return log.WithLogger(context.Background(), logger)
}

func (h *WSHandler) handleMessage(client *hub.Client, message []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		client.Send(domain.EventError, domain.ErrorPayload{
			Code:    domain.ErrCodeBadRequest,
			Message: "invalid message format",
		})
		return
	}

	ctx := h.connContext(client)

	switch env.Event {
	case domain.EventLogin:
		h.handleLogin(ctx, client, env.Data)

	case domain.EventSendMessage:
		h.handleSendMessage(ctx, client, env.Data)

	case domain.EventGetMessages:
		h.handleGetMessages(ctx, client, env.Data)

	case domain.EventGetCustomers:
		h.handleGetCustomers(ctx, client)

	case domain.EventPing:
		client.Send(domain.EventPong, nil)

	default:
		client.Send(domain.EventError, domain.ErrorPayload{
			Code:    domain.ErrCodeBadRequest,
			Message: "unknown event",
		})
	}
}

func (h *WSHandler) handleLogin(ctx context.Context, client *hub.Client, data json.RawMessage) {
	var req domain.LoginRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.respond(client, domain.EventLoginResponse, domain.LoginResponse{
			Success: false,
			Error:   "invalid login payload",
		})
		return
	}

	result, err := h.service.HandleLogin(ctx, client, req.Username, req.Role)
	if err != nil {
		h.respond(client, domain.EventLoginResponse, domain.LoginResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	client.Session.Authenticate(result.UserID, result.Username, result.Role)

	h.respond(client, domain.EventLoginResponse, domain.LoginResponse{
		Success:  true,
		Token:    result.Token,
		Role:     result.Role.String(),
		UserID:   result.UserID,
		Username: result.Username,
	})
}

func (h *WSHandler) handleSendMessage(ctx context.Context, client *hub.Client, data json.RawMessage) {
	if !client.Session.IsAuthenticated() {
		h.respond(client, domain.EventMessageResponse, domain.MessageResponse{
			Success: false,
			Error:   h.notAuthenticated().Error(),
		})
		return
	}

	var req domain.SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.respond(client, domain.EventMessageResponse, domain.MessageResponse{
			Success: false,
			Error:   "invalid send_message payload",
		})
		return
	}

	_, err := h.service.HandleSendMessage(ctx, service.SendRequest{
		SenderID:    req.SenderID,
		SenderName:  req.SenderName,
		RecipientID: req.RecipientID,
		Content:     req.Content,
		Role:        req.Role,
	})
	if err != nil {
		h.respond(client, domain.EventMessageResponse, domain.MessageResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	// Persistence succeeded; the ack is independent of delivery outcome.
	h.respond(client, domain.EventMessageResponse, domain.MessageResponse{
		Success: true,
		Message: "Message sent successfully",
	})
}

func (h *WSHandler) handleGetMessages(ctx context.Context, client *hub.Client, data json.RawMessage) {
	if !client.Session.IsAuthenticated() {
		h.respond(client, domain.EventMessagesResponse, domain.MessagesResponse{
			Success: false,
			Error:   h.notAuthenticated().Error(),
		})
		return
	}

	var req domain.GetMessagesRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.respond(client, domain.EventMessagesResponse, domain.MessagesResponse{
			Success: false,
			Error:   "invalid get_messages payload",
		})
		return
	}

	messages, err := h.service.HandleGetMessages(ctx, req.UserID)
	if err != nil {
		h.respond(client, domain.EventMessagesResponse, domain.MessagesResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	notifications := make([]domain.MessageNotification, 0, len(messages))
	for _, m := range messages {
		notifications = append(notifications, domain.NotificationFromMessage(m))
	}

	h.respond(client, domain.EventMessagesResponse, domain.MessagesResponse{
		Success:  true,
		Messages: notifications,
	})
}

func (h *WSHandler) handleGetCustomers(ctx context.Context, client *hub.Client) {
	if !client.Session.IsAuthenticated() {
		h.respond(client, domain.EventCustomersResponse, domain.CustomersResponse{
			Success: false,
			Error:   h.notAuthenticated().Error(),
		})
		return
	}

	summaries, err := h.service.HandleGetCustomers(ctx)
	if err != nil {
		h.respond(client, domain.EventCustomersResponse, domain.CustomersResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	customers := make([]domain.CustomerInfo, 0, len(summaries))
	for _, s := range summaries {
		customers = append(customers, domain.CustomerInfo{
			ID:       s.ID,
			Username: s.Username,
			Role:     s.Role.String(),
			IsOnline: s.IsOnline,
		})
	}

	h.respond(client, domain.EventCustomersResponse, domain.CustomersResponse{
		Success:   true,
		Customers: customers,
	})
}

func (h *WSHandler) notAuthenticated() error {
	return &domain.ProtocolError{Reason: "not authenticated"}
}

// respond sends the correlated response event. The sender always gets a
// definitive response for every request; a failed push here means the
// connection is already gone.
func (h *WSHandler) respond(client *hub.Client, event string, payload interface{}) {
	if err := client.Send(event, payload); err != nil {
		log.L().Warn().Err(err).
			Str(log.FieldConnID, client.ID()).
			Str(log.FieldEvent, event).
			Msg("failed to send response")
	}
}

func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/relay/ws", h.HandleWebSocket)
}
