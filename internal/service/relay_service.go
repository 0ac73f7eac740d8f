package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/supdesk/relay-service/internal/audit"
	"github.com/supdesk/relay-service/internal/auth"
	"github.com/supdesk/relay-service/internal/cache"
	"github.com/supdesk/relay-service/internal/directory"
	"github.com/supdesk/relay-service/internal/domain"
	"github.com/supdesk/relay-service/internal/kafka"
	"github.com/supdesk/relay-service/internal/registry"
	"github.com/supdesk/relay-service/internal/store"
	"github.com/supdesk/relay-service/pkg/log"
)

type relayService struct {
	authp    auth.Provider
	reg      registry.SessionRegistry
	store    store.MessageStore
	dir      directory.UserDirectory
	msgCache cache.MessageCache // optional
	feed     kafka.FeedProducer // optional
	sf       singleflight.Group
}

// NewRelayService wires the router. msgCache and feed may be nil when the
// cache or feed is disabled.
func NewRelayService(
	authp auth.Provider,
	reg registry.SessionRegistry,
	msgStore store.MessageStore,
	dir directory.UserDirectory,
	msgCache cache.MessageCache,
	feed kafka.FeedProducer,
) RelayService {
	return &relayService{
		authp:    authp,
		reg:      reg,
		store:    msgStore,
		dir:      dir,
		msgCache: msgCache,
		feed:     feed,
	}
}

func (s *relayService) HandleLogin(ctx context.Context, conn registry.Conn, username, role string) (*auth.Result, error) {
	if strings.TrimSpace(username) == "" {
		return nil, &domain.ValidationError{Field: "username"}
	}

	result, err := s.authp.Authenticate(ctx, username, role)
	if err != nil {
		audit.LogWithDetail(ctx, audit.ActionLoginFailed, "", username, "login rejected")
		return nil, err
	}

	// Register only after authentication succeeded; a failed login leaves
	// the registry untouched.
	s.reg.Register(result.UserID, result.Role, conn)

	audit.Log(ctx, audit.ActionLogin, result.UserID, "user logged in")
	return result, nil
}

func (s *relayService) HandleSendMessage(ctx context.Context, req SendRequest) (*domain.Message, error) {
	if strings.TrimSpace(req.SenderID) == "" {
		return nil, &domain.ValidationError{Field: "senderId"}
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, &domain.ValidationError{Field: "content"}
	}

	// Normalize: absent recipient routes to the support desk, absent role
	// means customer.
	recipientID := req.RecipientID
	if recipientID == "" {
		recipientID = domain.SupportDeskID
	}
	role := domain.RoleCustomer
	if req.Role != "" {
		parsed, err := domain.ParseRole(req.Role)
		if err != nil {
			return nil, &domain.ValidationError{Field: "role"}
		}
		role = parsed
	}

	msg := &domain.Message{
		SenderID:    req.SenderID,
		SenderName:  req.SenderName,
		RecipientID: recipientID,
		Content:     req.Content,
		SenderRole:  role,
		Timestamp:   time.Now().UTC(),
	}

	// Persistence must complete before delivery is attempted; a failed
	// write aborts the whole operation.
	if _, err := s.store.Append(ctx, msg); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str(log.FieldUserID, msg.SenderID).
			Str(log.FieldRecipientID, recipientID).
			Msg("message append failed")
		return nil, &domain.PersistenceError{Err: err}
	}

	s.afterPersist(ctx, msg)
	s.deliver(ctx, msg)

	audit.LogWithDetail(ctx, audit.ActionRelay, msg.SenderID, recipientID, "message relayed")
	return msg, nil
}

// afterPersist handles the best-effort side channels of a persisted
// message: history cache invalidation and the feed topic. Neither outcome
// affects the ack.
func (s *relayService) afterPersist(ctx context.Context, msg *domain.Message) {
	if s.msgCache != nil {
		if err := s.msgCache.Invalidate(ctx, msg.SenderID, msg.RecipientID); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("history cache invalidation failed")
		}
	}
	if s.feed != nil {
		if err := s.feed.ProduceMessage(ctx, msg); err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64(log.FieldMessageID, msg.ID).Msg("feed produce failed")
		}
	}
}

// deliver pushes the message to the recipient's current connection, if
// any. A failed push is logged, not retried: the recipient pulls history
// later either way.
func (s *relayService) deliver(ctx context.Context, msg *domain.Message) {
	conn, ok := s.reg.Lookup(msg.RecipientID)
	if !ok {
		log.Ctx(ctx).Debug().
			Str(log.FieldRecipientID, msg.RecipientID).
			Int64(log.FieldMessageID, msg.ID).
			Msg("recipient offline, delivery skipped")
		return
	}

	if err := conn.Send(domain.EventNewMessage, domain.NotificationFromMessage(*msg)); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str(log.FieldRecipientID, msg.RecipientID).
			Int64(log.FieldMessageID, msg.ID).
			Msg("live delivery failed")
	}
}

func (s *relayService) HandleGetMessages(ctx context.Context, userID string) ([]domain.Message, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &domain.ValidationError{Field: "userId"}
	}

	messages, err := s.loadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.ActionHistory, userID, "history retrieved")
	return messages, nil
}

func (s *relayService) loadHistory(ctx context.Context, userID string) ([]domain.Message, error) {
	if s.msgCache == nil {
		return s.store.QueryByUser(ctx, userID)
	}

	key := s.msgCache.BuildKey(userID)

	// Collapse concurrent reads for the same user onto one store query.
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		cached, err := s.msgCache.Get(ctx, key)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Ctx(ctx).Warn().Err(err).Msg("history cache get failed")
		}

		messages, err := s.store.QueryByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := s.msgCache.Set(ctx, key, messages); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("history cache set failed")
		}
		return messages, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Message), nil
}

func (s *relayService) HandleGetCustomers(ctx context.Context) ([]domain.CustomerSummary, error) {
	records, err := s.dir.ListByRole(ctx, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}

	// Presence is looked up fresh per call, never cached.
	summaries := make([]domain.CustomerSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, domain.CustomerSummary{
			ID:       rec.ID,
			Username: rec.Username,
			Role:     rec.Role,
			IsOnline: s.reg.IsOnline(rec.ID),
		})
	}

	audit.Log(ctx, audit.ActionCustomers, "", "customer list retrieved")
	return summaries, nil
}

func (s *relayService) HandleDisconnect(ctx context.Context, conn registry.Conn) {
	s.reg.Unregister(conn)
	audit.LogWithDetail(ctx, audit.ActionDisconnect, "", conn.ID(), "connection closed")
}

func (s *relayService) Close() error {
	var errs []error
	if s.feed != nil {
		if err := s.feed.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.msgCache != nil {
		if err := s.msgCache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
