package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/supdesk/relay-service/internal/auth"
	"github.com/supdesk/relay-service/internal/config"
	"github.com/supdesk/relay-service/internal/directory"
	"github.com/supdesk/relay-service/internal/domain"
	"github.com/supdesk/relay-service/internal/registry"
	"github.com/supdesk/relay-service/internal/service"
	"github.com/supdesk/relay-service/internal/store"
	"github.com/supdesk/relay-service/pkg/jwt"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	msgStore, err := store.NewMemoryStore(0)
	require.NoError(t, err)

	tokens, err := jwt.NewManager(time.Hour, "relay-test")
	require.NoError(t, err)

	dir := directory.NewMemoryDirectory()
	reg := registry.New()
	provider := auth.NewDirectoryProvider(dir, tokens, "default")
	svc := service.NewRelayService(provider, reg, msgStore, dir, nil, nil)

	wsCfg := config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      5 * time.Second,
		MaxMessageSize: 4096,
	}

	mux := http.NewServeMux()
	NewWSHandler(svc, wsCfg).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/relay/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, payload interface{}) {
	t.Helper()
	env := domain.Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		env.Data = data
	}
	require.NoError(t, conn.WriteJSON(env))
}

// await reads frames until the named event arrives, skipping interleaved
// pushes, and decodes its data into out.
func await(t *testing.T, conn *websocket.Conn, event string, out interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var env domain.Envelope
		require.NoError(t, conn.ReadJSON(&env))
		if env.Event != event {
			continue
		}
		if out != nil {
			require.NoError(t, json.Unmarshal(env.Data, out))
		}
		return
	}
}

func loginAs(t *testing.T, conn *websocket.Conn, username, role string) domain.LoginResponse {
	t.Helper()
	send(t, conn, domain.EventLogin, domain.LoginRequest{Username: username, Role: role})
	var resp domain.LoginResponse
	await(t, conn, domain.EventLoginResponse, &resp)
	return resp
}

func TestWebSocket_LoginFlow(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)
	conn := dial(t, srv)

	resp := loginAs(t, conn, "alice", "CUSTOMER")

	req.True(resp.Success)
	req.NotEmpty(resp.Token)
	req.Equal("CUSTOMER", resp.Role)
	req.Equal("alice", resp.Username)
	req.True(strings.HasPrefix(resp.UserID, "customer-"))
}

func TestWebSocket_LoginRejectsUnknownRole(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)
	conn := dial(t, srv)

	resp := loginAs(t, conn, "alice", "ADMIN")

	req.False(resp.Success)
	req.NotEmpty(resp.Error)
	req.Empty(resp.Token)
}

func TestWebSocket_SendBeforeLoginRejected(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, domain.EventSendMessage, domain.SendMessageRequest{
		SenderID: "someone",
		Content:  "hi",
	})

	var resp domain.MessageResponse
	await(t, conn, domain.EventMessageResponse, &resp)
	req.False(resp.Success)
	req.Contains(resp.Error, "not authenticated")
}

func TestWebSocket_GetMessagesBeforeLoginRejected(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, domain.EventGetMessages, domain.GetMessagesRequest{UserID: "someone"})

	var resp domain.MessagesResponse
	await(t, conn, domain.EventMessagesResponse, &resp)
	req.False(resp.Success)
	req.Contains(resp.Error, "not authenticated")
}

func TestWebSocket_MalformedFrame(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)
	conn := dial(t, srv)

	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	var payload domain.ErrorPayload
	await(t, conn, domain.EventError, &payload)
	req.Equal(domain.ErrCodeBadRequest, payload.Code)
}

func TestWebSocket_UnknownEvent(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, "subscribe", nil)

	var payload domain.ErrorPayload
	await(t, conn, domain.EventError, &payload)
	req.Equal(domain.ErrCodeBadRequest, payload.Code)
}

func TestWebSocket_PingPong(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, domain.EventPing, nil)
	await(t, conn, domain.EventPong, nil)
}

func TestWebSocket_RelayFlow(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t)

	manager := dial(t, srv)
	mResp := loginAs(t, manager, "bob", "MANAGER")
	req.True(mResp.Success)
	req.Equal(domain.SupportDeskID, mResp.UserID)

	customer := dial(t, srv)
	cResp := loginAs(t, customer, "alice", "CUSTOMER")
	req.True(cResp.Success)

	// Customer writes to the desk; recipient defaults to the desk identity.
	send(t, customer, domain.EventSendMessage, domain.SendMessageRequest{
		SenderID:   cResp.UserID,
		SenderName: cResp.Username,
		Content:    "my order never arrived",
	})

	var ack domain.MessageResponse
	await(t, customer, domain.EventMessageResponse, &ack)
	req.True(ack.Success)

	// The online manager gets the live push.
	var notif domain.MessageNotification
	await(t, manager, domain.EventNewMessage, &notif)
	req.NotZero(notif.ID)
	req.Equal(cResp.UserID, notif.SenderID)
	req.Equal("alice", notif.SenderName)
	req.Equal("my order never arrived", notif.Content)
	req.True(notif.IsFromCustomer)

	// Manager replies; customer gets the push with the customer flag off.
	send(t, manager, domain.EventSendMessage, domain.SendMessageRequest{
		SenderID:    mResp.UserID,
		SenderName:  mResp.Username,
		RecipientID: cResp.UserID,
		Content:     "looking into it now",
		Role:        "MANAGER",
	})

	var reply domain.MessageNotification
	await(t, customer, domain.EventNewMessage, &reply)
	req.Equal("looking into it now", reply.Content)
	req.False(reply.IsFromCustomer)

	// History for the customer holds both sides of the conversation.
	send(t, customer, domain.EventGetMessages, domain.GetMessagesRequest{UserID: cResp.UserID})
	var history domain.MessagesResponse
	await(t, customer, domain.EventMessagesResponse, &history)
	req.True(history.Success)
	req.Len(history.Messages, 2)
	req.Equal("my order never arrived", history.Messages[0].Content)
	req.Equal("looking into it now", history.Messages[1].Content)

	// The manager's customer list shows alice online.
	send(t, manager, domain.EventGetCustomers, nil)
	var customers domain.CustomersResponse
	await(t, manager, domain.EventCustomersResponse, &customers)
	req.True(customers.Success)
	req.Len(customers.Customers, 1)
	req.Equal("alice", customers.Customers[0].Username)
	req.True(customers.Customers[0].IsOnline)
}
