package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tms-portal-api/internal/models"
)

func newAuditRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAuditRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	repo := NewAuditRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_entries")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.AuditEntry{
		Actor:    "admin",
		Action:   models.AuditActionBatchCreate,
		Resource: "batch",
		Detail:   "Go Basics B1",
	}
	require.NoError(t, repo.Insert(context.Background(), entry))
	require.NotEmpty(t, entry.ID, "id is assigned on insert")
	require.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryList(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	repo := NewAuditRepository(db)
	rows := sqlmock.NewRows([]string{"id", "actor", "action", "resource", "resource_id", "detail", "created_at"}).
		AddRow("e1", "admin", models.AuditActionCourseCreate, "course", int64(1), "Go Basics", time.Now()).
		AddRow("e2", "admin", models.AuditActionUserDelete, "user", int64(42), "", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, actor, action, resource, resource_id, detail, created_at FROM audit_entries")).
		WithArgs(50).
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, models.AuditActionCourseCreate, entries[0].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}
