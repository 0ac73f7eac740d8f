package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/supdesk/relay-service/internal/config"
	"github.com/supdesk/relay-service/internal/domain"
)

// CassandraStore persists messages in a messages_by_user table, one row
// per participant, clustered by (ts ASC, message_id ASC):
//
//	CREATE TABLE messages_by_user (
//	    user_id      text,
//	    ts           timestamp,
//	    message_id   bigint,
//	    sender_id    text,
//	    sender_name  text,
//	    recipient_id text,
//	    content      text,
//	    sender_role  text,
//	    PRIMARY KEY ((user_id), ts, message_id)
//	) WITH CLUSTERING ORDER BY (ts ASC, message_id ASC);
type CassandraStore struct {
	session *gocql.Session
	ids     *snowflake
}

func NewCassandraStore(cfg config.CassandraConfig, machineID int64) (*CassandraStore, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.ConnectTimeout = cfg.ConnectTimeout
	cluster.Timeout = cfg.Timeout

	switch cfg.Consistency {
	case "LOCAL_ONE":
		cluster.Consistency = gocql.LocalOne
	case "LOCAL_QUORUM":
		cluster.Consistency = gocql.LocalQuorum
	case "ONE":
		cluster.Consistency = gocql.One
	case "QUORUM":
		cluster.Consistency = gocql.Quorum
	default:
		cluster.Consistency = gocql.LocalQuorum
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create cassandra session: %w", err)
	}

	ids, err := newSnowflake(machineID)
	if err != nil {
		session.Close()
		return nil, err
	}

	return &CassandraStore{session: session, ids: ids}, nil
}

const insertMessageCQL = `INSERT INTO messages_by_user
	(user_id, ts, message_id, sender_id, sender_name, recipient_id, content, sender_role)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (s *CassandraStore) Append(ctx context.Context, msg *domain.Message) (int64, error) {
	id, err := s.ids.next()
	if err != nil {
		return 0, err
	}
	msg.ID = id

	// One row per participant so QueryByUser is a single-partition read.
	participants := []string{msg.SenderID}
	if msg.RecipientID != msg.SenderID {
		participants = append(participants, msg.RecipientID)
	}

	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	for _, userID := range participants {
		batch.Query(insertMessageCQL,
			userID,
			msg.Timestamp,
			msg.ID,
			msg.SenderID,
			msg.SenderName,
			msg.RecipientID,
			msg.Content,
			msg.SenderRole.String(),
		)
	}

	if err := s.session.ExecuteBatch(batch); err != nil {
		return 0, fmt.Errorf("failed to append message: %w", err)
	}

	return id, nil
}

func (s *CassandraStore) QueryByUser(ctx context.Context, userID string) ([]domain.Message, error) {
	iter := s.session.Query(
		`SELECT message_id, sender_id, sender_name, recipient_id, content, sender_role, ts
		 FROM messages_by_user
		 WHERE user_id = ?
		 ORDER BY ts ASC, message_id ASC`,
		userID,
	).WithContext(ctx).Iter()

	var (
		messages []domain.Message
		msg      domain.Message
		role     string
		ts       time.Time
	)

	for iter.Scan(&msg.ID, &msg.SenderID, &msg.SenderName, &msg.RecipientID, &msg.Content, &role, &ts) {
		msg.SenderRole = domain.Role(role)
		msg.Timestamp = ts
		messages = append(messages, msg)
		msg = domain.Message{}
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

func (s *CassandraStore) Close() error {
	s.session.Close()
	return nil
}
