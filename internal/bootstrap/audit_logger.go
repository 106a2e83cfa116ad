package bootstrap

import "context"

// AuditLog is an operational audit record for process-level events such as
// startup and shutdown. Domain-level auditing lives in internal/audit.
type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
