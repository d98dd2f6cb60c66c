package reportJobRepo

import (
	"context"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifecode-app/lifecode-server/internal/adapters/secondary/storage/pg"
	"github.com/lifecode-app/lifecode-server/internal/domain"
	ports "github.com/lifecode-app/lifecode-server/internal/ports/repository"
)

func newMockRepo(t *testing.T) (ports.IReportJobRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := New(pg.NewDB(sqlxDB), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return repo, mock
}

func jobRows(job *domain.ReportJob) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "archive_id", "user_id", "report_type", "status",
		"free_retry", "error_message", "created_at", "started_at", "finished_at",
	}).AddRow(
		job.ID, job.ArchiveID, job.UserID, job.ReportType, job.Status,
		job.FreeRetry, job.ErrorMessage, job.CreatedAt, job.StartedAt, job.FinishedAt,
	)
}

func TestClaimNextReturnsJob(t *testing.T) {
	repo, mock := newMockRepo(t)
	job := &domain.ReportJob{
		ID:         uuid.New(),
		ArchiveID:  uuid.New(),
		UserID:     uuid.New(),
		ReportType: domain.ReportTypeMain,
		Status:     domain.JobStatusProcessing,
		CreatedAt:  time.Now(),
	}

	mock.ExpectQuery(`UPDATE report_jobs SET status = \$1`).
		WithArgs(domain.JobStatusProcessing, domain.JobStatusRunning).
		WillReturnRows(jobRows(job))

	claimed, err := repo.ClaimNext(context.Background())
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, job.ID, claimed.ID)
	assert.Equal(t, domain.JobStatusProcessing, claimed.Status)
}

func TestClaimNextEmptyQueue(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`UPDATE report_jobs SET status = \$1`).
		WithArgs(domain.JobStatusProcessing, domain.JobStatusRunning).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	claimed, err := repo.ClaimNext(context.Background())
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestCreateMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)
	job := &domain.ReportJob{
		ID:         uuid.New(),
		ArchiveID:  uuid.New(),
		UserID:     uuid.New(),
		ReportType: domain.ReportTypeMain,
		Status:     domain.JobStatusPending,
		CreatedAt:  time.Now(),
	}

	mock.ExpectExec(`INSERT INTO report_jobs`).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	err := repo.Create(context.Background(), job)
	assert.ErrorIs(t, err, domain.ErrJobAlreadyRunning)
}

func TestFinishTerminalJobImmutable(t *testing.T) {
	repo, mock := newMockRepo(t)
	jobID := uuid.New()

	// UPDATE не затронул строк: джоба уже в терминальном статусе
	mock.ExpectExec(`UPDATE report_jobs SET status = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT status FROM report_jobs WHERE id = \$1`).
		WithArgs(jobID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(domain.JobStatusCompleted)))

	err := repo.Finish(context.Background(), jobID, domain.JobStatusFailed, nil)
	assert.ErrorIs(t, err, domain.ErrJobTerminal)
}

func TestFinishUnknownJob(t *testing.T) {
	repo, mock := newMockRepo(t)
	jobID := uuid.New()

	mock.ExpectExec(`UPDATE report_jobs SET status = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT status FROM report_jobs WHERE id = \$1`).
		WithArgs(jobID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err := repo.Finish(context.Background(), jobID, domain.JobStatusCompleted, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFinishRejectsNonTerminalStatus(t *testing.T) {
	repo, _ := newMockRepo(t)

	err := repo.Finish(context.Background(), uuid.New(), domain.JobStatusRunning, nil)
	assert.Error(t, err)
}
