package gateway

import (
	"context"
	"net/http"

	"github.com/noah-isme/tms-portal-api/internal/models"
)

// CreateCourseRequest is the payload for course creation.
type CreateCourseRequest struct {
	CourseName   string `json:"courseName"`
	Description  string `json:"description,omitempty"`
	DurationDays int    `json:"durationDays,omitempty"`
}

// CreateCalendarRequest is the payload for calendar creation.
type CreateCalendarRequest struct {
	CourseID  int64  `json:"courseId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ListCourses returns all courses.
func (c *Client) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := c.do(ctx, "list_courses", http.MethodGet, "/courses", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// CreateCourse registers a new course.
func (c *Client) CreateCourse(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	var course models.Course
	if err := c.do(ctx, "create_course", http.MethodPost, "/courses", req, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// CreateCalendar schedules a calendar for a course. The embedded course is
// not guaranteed on the create response.
func (c *Client) CreateCalendar(ctx context.Context, req CreateCalendarRequest) (*models.CourseCalendar, error) {
	var calendar models.CourseCalendar
	if err := c.do(ctx, "create_calendar", http.MethodPost, "/calendars", req, &calendar); err != nil {
		return nil, err
	}
	return &calendar, nil
}
