package models

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Course is an upstream course record.
type Course struct {
	CourseID     int64      `json:"courseId"`
	CourseName   string     `json:"courseName"`
	Description  string     `json:"description,omitempty"`
	DurationDays int        `json:"durationDays,omitempty"`
	CreatedOn    *time.Time `json:"createdOn,omitempty"`
}

// CourseCalendar schedules a course run. Dates stay strings end to end;
// the upstream API accepts and returns them in DateLayout form.
type CourseCalendar struct {
	CalendarID int64   `json:"calendarId"`
	CourseID   int64   `json:"courseId"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`
	Course     *Course `json:"course,omitempty"`
}

// Batch is a named cohort under a calendar.
type Batch struct {
	BatchID    int64           `json:"batchId"`
	CalendarID int64           `json:"calendarId"`
	BatchName  string          `json:"batchName"`
	CreatedOn  *time.Time      `json:"createdOn,omitempty"`
	IsActive   bool            `json:"isActive"`
	ModifiedBy string          `json:"modifiedBy,omitempty"`
	Calendar   *CourseCalendar `json:"calendar,omitempty"`
}

// CourseName resolves the course name through the embedded calendar when
// the upstream response carried it.
func (b Batch) CourseName() string {
	if b.Calendar != nil && b.Calendar.Course != nil {
		return b.Calendar.Course.CourseName
	}
	return ""
}
