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

// setupProgressTestRepository creates a progress repository with a mock database
func setupProgressTestRepository(t *testing.T) (*progressRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewProgressRepository(db, zap.NewNop())

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

var progressNow = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

func TestNewProgressRepository(t *testing.T) {
	db := &sql.DB{}

	repo := NewProgressRepository(db, zap.NewNop())

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestProgressRepository_GetUserState(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		validate      func(*testing.T, *models.User)
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT course_id, chapter_id FROM chapter_completions WHERE user_id = \? ORDER BY id`).
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"course_id", "chapter_id"}).
						AddRow("a", "a2").
						AddRow("a", "a1").
						AddRow("b", "b1"))
				mock.ExpectQuery(`SELECT course_id, completed_at FROM course_completions WHERE user_id = \?`).
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"course_id", "completed_at"}).
						AddRow("a", progressNow))
				mock.ExpectQuery(`SELECT badge_id, name, description, icon, rarity, course_id, earned_at FROM user_badges WHERE user_id = \?`).
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"badge_id", "name", "description", "icon", "rarity", "course_id", "earned_at"}).
						AddRow("a-badge", "A", "", "", "rare", "a", progressNow).
						AddRow("first-course", "First", "", "", "common", nil, progressNow))
			},
			validate: func(t *testing.T, u *models.User) {
				assert.Equal(t, 7, u.ID)
				assert.Equal(t, []string{"a2", "a1"}, u.CompletedChapters("a"))
				assert.Equal(t, []string{"b1"}, u.CompletedChapters("b"))
				assert.True(t, u.HasCompletedCourse("a"))
				require.Len(t, u.Badges, 2)
				assert.Equal(t, "a", u.Badges[0].CourseID)
				assert.Empty(t, u.Badges[1].CourseID)
			},
		},
		{
			name: "empty state",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM chapter_completions`).WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"course_id", "chapter_id"}))
				mock.ExpectQuery(`FROM course_completions`).WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"course_id", "completed_at"}))
				mock.ExpectQuery(`FROM user_badges`).WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"badge_id", "name", "description", "icon", "rarity", "course_id", "earned_at"}))
			},
			validate: func(t *testing.T, u *models.User) {
				assert.Empty(t, u.CompletedCourses)
				assert.Empty(t, u.CurrentProgress)
				assert.NotNil(t, u.Badges)
			},
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM chapter_completions`).WithArgs(7).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupProgressTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			user, err := repo.GetUserState(context.Background(), 7)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				tt.validate(t, user)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProgressRepository_RecordCompletion(t *testing.T) {
	badge := &models.EarnedBadge{ID: "a-badge", Name: "A", Rarity: models.RarityRare, CourseID: "a", EarnedAt: progressNow}

	tests := []struct {
		name            string
		event           models.CompletionEvent
		setupMock       func(sqlmock.Sqlmock)
		expectedError   bool
		expectedOutcome *models.CompletionOutcome
	}{
		{
			name:  "chapter only",
			event: models.CompletionEvent{CourseID: "a", ChapterID: "a1", CompletedAt: progressNow},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT IGNORE INTO chapter_completions \(user_id, course_id, chapter_id, completed_at\) VALUES \(\?, \?, \?, \?\)`).
					WithArgs(7, "a", "a1", progressNow).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec(`INSERT IGNORE INTO learning_activity \(user_id, activity_date\) VALUES \(\?, \?\)`).
					WithArgs(7, "2026-04-02").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectedOutcome: &models.CompletionOutcome{ChapterRecorded: true},
		},
		{
			name:  "last chapter with course and badge",
			event: models.CompletionEvent{CourseID: "a", ChapterID: "a2", CourseCompleted: true, Badge: badge, CompletedAt: progressNow},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT IGNORE INTO chapter_completions`).
					WithArgs(7, "a", "a2", progressNow).
					WillReturnResult(sqlmock.NewResult(2, 1))
				mock.ExpectExec(`INSERT IGNORE INTO learning_activity`).
					WithArgs(7, "2026-04-02").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`INSERT IGNORE INTO course_completions \(user_id, course_id, completed_at\) VALUES \(\?, \?, \?\)`).
					WithArgs(7, "a", progressNow).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT IGNORE INTO user_badges \(user_id, badge_id, name, description, icon, rarity, course_id, earned_at\)`).
					WithArgs(7, "a-badge", "A", "", "", "rare", "a", progressNow).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			expectedOutcome: &models.CompletionOutcome{ChapterRecorded: true, CourseCompleted: true, BadgeEarned: badge},
		},
		{
			name:  "duplicate completion records nothing",
			event: models.CompletionEvent{CourseID: "a", ChapterID: "a1", CompletedAt: progressNow},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT IGNORE INTO chapter_completions`).
					WithArgs(7, "a", "a1", progressNow).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
			expectedOutcome: &models.CompletionOutcome{},
		},
		{
			name:  "insert error rolls back",
			event: models.CompletionEvent{CourseID: "a", ChapterID: "a1", CompletedAt: progressNow},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`INSERT IGNORE INTO chapter_completions`).
					WillReturnError(errors.New("database error"))
				mock.ExpectRollback()
			},
			expectedError: true,
		},
		{
			name:  "begin error",
			event: models.CompletionEvent{CourseID: "a", ChapterID: "a1", CompletedAt: progressNow},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupProgressTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			outcome, err := repo.RecordCompletion(context.Background(), 7, tt.event)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, outcome)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedOutcome, outcome)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProgressRepository_AwardBadges(t *testing.T) {
	first := models.EarnedBadge{ID: "first-course", Name: "First", Rarity: models.RarityCommon, EarnedAt: progressNow}
	streak := models.EarnedBadge{ID: "week-streak", Name: "On Fire", Rarity: models.RarityRare, EarnedAt: progressNow}

	t.Run("returns only newly stored badges", func(t *testing.T) {
		repo, mock, cleanup := setupProgressTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT IGNORE INTO user_badges`).
			WithArgs(7, "first-course", "First", "", "", "common", nil, progressNow).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT IGNORE INTO user_badges`).
			WithArgs(7, "week-streak", "On Fire", "", "", "rare", nil, progressNow).
			WillReturnResult(sqlmock.NewResult(3, 1))
		mock.ExpectCommit()

		awarded, err := repo.AwardBadges(context.Background(), 7, []models.EarnedBadge{first, streak})

		require.NoError(t, err)
		assert.Equal(t, []models.EarnedBadge{streak}, awarded)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing to award", func(t *testing.T) {
		repo, mock, cleanup := setupProgressTestRepository(t)
		defer cleanup()

		awarded, err := repo.AwardBadges(context.Background(), 7, nil)

		require.NoError(t, err)
		assert.Empty(t, awarded)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert error", func(t *testing.T) {
		repo, mock, cleanup := setupProgressTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT IGNORE INTO user_badges`).WillReturnError(errors.New("database error"))
		mock.ExpectRollback()

		awarded, err := repo.AwardBadges(context.Background(), 7, []models.EarnedBadge{first})

		assert.Error(t, err)
		assert.Nil(t, awarded)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProgressRepository_ListActivityDays(t *testing.T) {
	repo, mock, cleanup := setupProgressTestRepository(t)
	defer cleanup()

	d1 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT activity_date FROM learning_activity WHERE user_id = \? AND activity_date >= \? ORDER BY activity_date`).
		WithArgs(7, "2026-03-03").
		WillReturnRows(sqlmock.NewRows([]string{"activity_date"}).AddRow(d1).AddRow(d2))

	days, err := repo.ListActivityDays(context.Background(), 7, progressNow.AddDate(0, 0, -30))

	require.NoError(t, err)
	assert.Equal(t, []time.Time{d1, d2}, days)
	assert.NoError(t, mock.ExpectationsWereMet())
}
