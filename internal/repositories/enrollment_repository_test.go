package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/learnhub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupEnrollmentTestRepository creates an enrollment repository with a mock database
func setupEnrollmentTestRepository(t *testing.T) (*enrollmentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewEnrollmentRepository(db, zap.NewNop())

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestEnrollmentRepository_Ensure(t *testing.T) {
	tests := []struct {
		name            string
		setupMock       func(sqlmock.Sqlmock)
		expectedError   bool
		expectedCreated bool
	}{
		{
			name: "created",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT IGNORE INTO enrollments \(user_id, course_id, status\) VALUES \(\?, \?, \?\)`).
					WithArgs(2, "a", "active").
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
			expectedCreated: true,
		},
		{
			name: "already enrolled",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT IGNORE INTO enrollments`).
					WithArgs(2, "a", "active").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedCreated: false,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT IGNORE INTO enrollments`).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupEnrollmentTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			created, err := repo.Ensure(context.Background(), 2, "a")

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedCreated, created)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEnrollmentRepository_Get(t *testing.T) {
	enrolled := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		repo, mock, cleanup := setupEnrollmentTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT id, user_id, course_id, status, enrolled_at FROM enrollments WHERE user_id = \? AND course_id = \? LIMIT 1`).
			WithArgs(2, "a").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "course_id", "status", "enrolled_at"}).
				AddRow(9, 2, "a", "paused", enrolled))

		e, err := repo.Get(context.Background(), 2, "a")

		require.NoError(t, err)
		assert.Equal(t, models.EnrollmentStatusPaused, e.Status)
		assert.Equal(t, enrolled, e.EnrolledAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, cleanup := setupEnrollmentTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`FROM enrollments WHERE user_id = \? AND course_id = \?`).
			WithArgs(2, "zz").
			WillReturnError(sql.ErrNoRows)

		e, err := repo.Get(context.Background(), 2, "zz")

		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.Nil(t, e)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEnrollmentRepository_ListByUser(t *testing.T) {
	repo, mock, cleanup := setupEnrollmentTestRepository(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`FROM enrollments WHERE user_id = \? ORDER BY enrolled_at DESC, id DESC`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "course_id", "status", "enrolled_at"}).
			AddRow(2, 2, "b", "active", now).
			AddRow(1, 2, "a", "paused", now.Add(-time.Hour)))

	list, err := repo.ListByUser(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].CourseID)
	assert.Equal(t, models.EnrollmentStatusPaused, list[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepository_UpdateStatus(t *testing.T) {
	repo, mock, cleanup := setupEnrollmentTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE enrollments SET status = \? WHERE user_id = \? AND course_id = \?`).
		WithArgs("paused", 2, "a").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), 2, "a", models.EnrollmentStatusPaused)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
