package log

const (
	// Connection
	FieldConnID    = "conn_id"
	FieldRemoteIP  = "remote_ip"
	FieldEvent     = "event"

	// Actor
	FieldUserID   = "user_id"
	FieldUsername = "username"
	FieldRole     = "role"

	// Message routing
	FieldMessageID   = "message_id"
	FieldRecipientID = "recipient_id"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
