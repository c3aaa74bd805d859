package store

import (
	"sync"

	"github.com/noah-isme/tms-portal-api/internal/models"
)

// ResourceGraph holds the last-fetched course list and, per course, the
// most recent calendar created this session. The calendar slot is
// last-write-wins with no history; courses and calendars are never deleted
// here. Mutations are bounded replace-or-merge operations behind a single
// mutex, so the last completed write wins.
type ResourceGraph struct {
	mu        sync.RWMutex
	courses   []models.Course
	calendars map[int64]models.CourseCalendar
}

// NewResourceGraph constructs an empty graph.
func NewResourceGraph() *ResourceGraph {
	return &ResourceGraph{calendars: make(map[int64]models.CourseCalendar)}
}

// SetCourses replaces the course snapshot.
func (g *ResourceGraph) SetCourses(courses []models.Course) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.courses = make([]models.Course, len(courses))
	copy(g.courses, courses)
}

// Courses returns the current course snapshot.
func (g *ResourceGraph) Courses() []models.Course {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]models.Course, len(g.courses))
	copy(out, g.courses)
	return out
}

// RecordCalendar stores the calendar for a course, overwriting any prior
// calendar recorded for it.
func (g *ResourceGraph) RecordCalendar(courseID int64, calendar models.CourseCalendar) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calendars[courseID] = calendar
}

// CalendarFor returns the most recently recorded calendar for a course.
func (g *ResourceGraph) CalendarFor(courseID int64) (models.CourseCalendar, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	calendar, ok := g.calendars[courseID]
	return calendar, ok
}
