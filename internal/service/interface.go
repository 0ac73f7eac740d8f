package service

import (
	"context"

	"github.com/supdesk/relay-service/internal/auth"
	"github.com/supdesk/relay-service/internal/domain"
	"github.com/supdesk/relay-service/internal/registry"
)

// SendRequest is a normalizable send_message request. RecipientID and
// Role may be empty; the relay substitutes the support-desk sentinel and
// the customer role.
type SendRequest struct {
	SenderID    string
	SenderName  string
	RecipientID string
	Content     string
	Role        string
}

// RelayService routes events between connections and the collaborators.
// Every method returns failures as values of the domain failure classes;
// none of them panics across the boundary or closes a connection.
type RelayService interface {
	// HandleLogin authenticates and, on success, registers the
	// connection as the user's current session.
	HandleLogin(ctx context.Context, conn registry.Conn, username, role string) (*auth.Result, error)

	// HandleSendMessage normalizes, persists, then best-effort delivers.
	// The returned message is the persisted record; a non-nil error means
	// nothing was delivered.
	HandleSendMessage(ctx context.Context, req SendRequest) (*domain.Message, error)

	// HandleGetMessages returns the user's history, timestamp ascending,
	// ties by id ascending.
	HandleGetMessages(ctx context.Context, userID string) ([]domain.Message, error)

	// HandleGetCustomers returns every customer directory record with
	// presence looked up at call time.
	HandleGetCustomers(ctx context.Context) ([]domain.CustomerSummary, error)

	// HandleDisconnect detaches the connection from routing.
	HandleDisconnect(ctx context.Context, conn registry.Conn)

	Close() error
}
