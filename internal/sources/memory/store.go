// Package memory keeps the course catalog and learner progress in process memory.
// It backs DATA_SOURCE=memory and is used for local development and demos.
package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/learnhub/backend/internal/models"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Courses []models.Course `yaml:"courses"`
}

type userState struct {
	user     *models.User
	activity map[string]time.Time
}

// Store is a thread-safe catalog and progress store
type Store struct {
	mu      sync.RWMutex
	courses []models.Course
	users   map[int]*userState
}

// NewStore creates a store serving the given catalog
func NewStore(courses []models.Course) *Store {
	sorted := make([]models.Course, len(courses))
	for i := range courses {
		sorted[i] = copyCourse(&courses[i])
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Title != sorted[j].Title {
			return sorted[i].Title < sorted[j].Title
		}
		return sorted[i].ID < sorted[j].ID
	})

	return &Store{
		courses: sorted,
		users:   make(map[int]*userState),
	}
}

// LoadCourses reads a YAML catalog file
func LoadCourses(path string) ([]models.Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read course catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse course catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Courses))
	for _, c := range file.Courses {
		if c.ID == "" {
			return nil, fmt.Errorf("course without id: %w", models.ErrValidation)
		}
		if _, ok := seen[c.ID]; ok {
			return nil, fmt.Errorf("duplicate course id %q: %w", c.ID, models.ErrValidation)
		}
		seen[c.ID] = struct{}{}
	}

	return file.Courses, nil
}

// ListCourses returns the courses matching the filter ordered by title
func (s *Store) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	result := make([]models.Course, 0, len(s.courses))
	for i := range s.courses {
		c := &s.courses[i]
		if filter.Category != "" && !strings.EqualFold(c.Category, filter.Category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) {
			continue
		}
		result = append(result, copyCourse(c))
	}

	return result, nil
}

// GetCourse returns one course
func (s *Store) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.courses {
		if s.courses[i].ID == courseID {
			c := copyCourse(&s.courses[i])
			return &c, nil
		}
	}

	return nil, fmt.Errorf("course %q: %w", courseID, models.ErrNotFound)
}

// GetUserState returns a copy of the learner state; unknown users get an empty state
func (s *Store) GetUserState(ctx context.Context, userID int) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.users[userID]
	if !ok {
		return emptyUser(userID), nil
	}
	return st.user.Clone(), nil
}

// RecordCompletion applies a completion event; parts already recorded are skipped
func (s *Store) RecordCompletion(ctx context.Context, userID int, event models.CompletionEvent) (*models.CompletionOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	outcome := &models.CompletionOutcome{}

	p, ok := st.user.CurrentProgress[event.CourseID]
	if !ok || p == nil {
		p = &models.CourseProgress{}
		st.user.CurrentProgress[event.CourseID] = p
	}
	if !slices.Contains(p.CompletedChapters, event.ChapterID) {
		p.CompletedChapters = append(p.CompletedChapters, event.ChapterID)
		day := event.CompletedAt.UTC().Truncate(24 * time.Hour)
		st.activity[day.Format(time.DateOnly)] = day
		outcome.ChapterRecorded = true
	}

	if event.CourseCompleted && !st.user.HasCompletedCourse(event.CourseID) {
		st.user.CompletedCourses = append(st.user.CompletedCourses, models.CompletedCourse{
			CourseID:    event.CourseID,
			CompletedAt: event.CompletedAt,
		})
		outcome.CourseCompleted = true
	}

	if event.Badge != nil && !st.user.HasBadge(event.Badge.ID) {
		badge := *event.Badge
		st.user.Badges = append(st.user.Badges, badge)
		outcome.BadgeEarned = &badge
	}

	return outcome, nil
}

// AwardBadges stores badges not held yet and returns them
func (s *Store) AwardBadges(ctx context.Context, userID int, badges []models.EarnedBadge) ([]models.EarnedBadge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	awarded := make([]models.EarnedBadge, 0, len(badges))
	for _, b := range badges {
		if st.user.HasBadge(b.ID) {
			continue
		}
		st.user.Badges = append(st.user.Badges, b)
		awarded = append(awarded, b)
	}

	return awarded, nil
}

// ListActivityDays returns the active UTC days on or after since in ascending order
func (s *Store) ListActivityDays(ctx context.Context, userID int, since time.Time) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	days := make([]time.Time, 0)
	st, ok := s.users[userID]
	if !ok {
		return days, nil
	}

	from := since.UTC().Truncate(24 * time.Hour)
	for _, day := range st.activity {
		if !day.Before(from) {
			days = append(days, day)
		}
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })

	return days, nil
}

// state returns the mutable state of a user; callers hold the write lock
func (s *Store) state(userID int) *userState {
	st, ok := s.users[userID]
	if !ok {
		st = &userState{user: emptyUser(userID), activity: make(map[string]time.Time)}
		s.users[userID] = st
	}
	return st
}

func emptyUser(userID int) *models.User {
	return &models.User{
		ID:               userID,
		CompletedCourses: []models.CompletedCourse{},
		CurrentProgress:  map[string]*models.CourseProgress{},
		Badges:           []models.EarnedBadge{},
	}
}

func copyCourse(c *models.Course) models.Course {
	cp := *c
	cp.Chapters = append([]models.Chapter(nil), c.Chapters...)
	if c.Badge != nil {
		badge := *c.Badge
		cp.Badge = &badge
	}
	return cp
}
