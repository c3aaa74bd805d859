package models

import "time"

// EnrollmentStatus is the per-batch status shown to an employee.
type EnrollmentStatus string

// NotEnrolled is a client-side default only; the remaining statuses are
// owned by the upstream API and passed through verbatim.
const (
	StatusNotEnrolled EnrollmentStatus = "NotEnrolled"
	StatusRequested   EnrollmentStatus = "Requested"
	StatusApproved    EnrollmentStatus = "Approved"
	StatusRejected    EnrollmentStatus = "Rejected"
)

// Enrollment is a record from the "my enrollments" upstream query. It is
// denormalized and carries no reliable batch identifier; correlation back
// to a batch happens by name.
type Enrollment struct {
	EnrollmentID int64            `json:"enrollmentId"`
	EmployeeName string           `json:"employeeName"`
	CourseName   string           `json:"courseName"`
	BatchName    string           `json:"batchName"`
	Status       EnrollmentStatus `json:"status"`
	ApprovedBy   *string          `json:"approvedBy,omitempty"`
}

// BatchStatus is the reconciled per-batch view served to the dashboard.
type BatchStatus struct {
	BatchID    int64            `json:"batchId"`
	BatchName  string           `json:"batchName"`
	CourseName string           `json:"courseName,omitempty"`
	StartDate  string           `json:"startDate,omitempty"`
	EndDate    string           `json:"endDate,omitempty"`
	Status     EnrollmentStatus `json:"status"`
}

// Feedback is an employee feedback entry for a batch.
type Feedback struct {
	FeedbackID   int64      `json:"feedbackId"`
	BatchID      int64      `json:"batchId"`
	EmployeeName string     `json:"employeeName,omitempty"`
	FeedbackText string     `json:"feedbackText,omitempty"`
	Rating       int        `json:"rating"`
	CreatedOn    *time.Time `json:"createdOn,omitempty"`
}
