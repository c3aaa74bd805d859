package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/tms-portal-api/internal/models"
)

func TestCalendarForAbsent(t *testing.T) {
	graph := NewResourceGraph()

	_, ok := graph.CalendarFor(1)
	assert.False(t, ok)
}

func TestRecordCalendarLastWriteWins(t *testing.T) {
	graph := NewResourceGraph()

	graph.RecordCalendar(1, models.CourseCalendar{CalendarID: 10, CourseID: 1, StartDate: "2025-01-01", EndDate: "2025-02-01"})
	graph.RecordCalendar(1, models.CourseCalendar{CalendarID: 11, CourseID: 1, StartDate: "2025-03-01", EndDate: "2025-04-01"})

	calendar, ok := graph.CalendarFor(1)
	assert.True(t, ok)
	assert.Equal(t, int64(11), calendar.CalendarID)
}

func TestSetCoursesReplacesSnapshot(t *testing.T) {
	graph := NewResourceGraph()
	graph.SetCourses([]models.Course{{CourseID: 1, CourseName: "Java"}})
	graph.SetCourses([]models.Course{{CourseID: 2, CourseName: "Go"}})

	courses := graph.Courses()
	assert.Len(t, courses, 1)
	assert.Equal(t, "Go", courses[0].CourseName)
}
