package models

import "time"

// AuditAction constants represent portal actions recorded locally.
const (
	AuditActionCourseCreate      = "COURSE_CREATE"
	AuditActionCalendarCreate    = "CALENDAR_CREATE"
	AuditActionBatchCreate       = "BATCH_CREATE"
	AuditActionBatchUpdate       = "BATCH_UPDATE"
	AuditActionBatchDelete       = "BATCH_DELETE"
	AuditActionUserCreate        = "USER_CREATE"
	AuditActionUserDelete        = "USER_DELETE"
	AuditActionEnrollmentRequest = "ENROLLMENT_REQUEST"
)

// AuditEntry is the portal's local trail of upstream mutations. The
// upstream API owns the records themselves; this is the only state the
// portal persists.
type AuditEntry struct {
	ID         string    `db:"id" json:"id"`
	Actor      string    `db:"actor" json:"actor"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *int64    `db:"resource_id" json:"resource_id,omitempty"`
	Detail     string    `db:"detail" json:"detail,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
