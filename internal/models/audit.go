package models

import "time"

// AuditAction constants represent portal actions recorded in the audit trail.
const (
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionEnrollment     = "ENROLLMENT_CREATE"
	AuditActionUserCreate     = "USER_CREATE"
	AuditActionUserUpdate     = "USER_UPDATE"
	AuditActionUserDelete     = "USER_DELETE"
	AuditActionUserStatus     = "USER_STATUS"
	AuditActionRoleCreate     = "ROLE_CREATE"
	AuditActionRoleUpdate     = "ROLE_UPDATE"
	AuditActionRoleDelete     = "ROLE_DELETE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RequestMeta carries caller details from the HTTP layer to audit writes.
type RequestMeta struct {
	UserID    string
	IP        string
	UserAgent string
}
