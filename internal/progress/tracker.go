// Package progress implements the chapter progression rules: strict sequential unlock,
// progress percentage, course completion and the course badge grant.
//
// Functions here are pure. They never talk to storage; callers persist the returned
// Update and refetch state from the system of record.
package progress

import (
	"fmt"
	"slices"
	"time"

	"github.com/learnhub/backend/internal/models"
)

// Status is the state of a course for one user
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Update describes what MarkChapterComplete changed
type Update struct {
	ChapterAdded    bool
	CourseCompleted bool
	BadgeGranted    *models.EarnedBadge
}

// ChapterIndex returns the position of chapterID in the course, or -1
func ChapterIndex(course *models.Course, chapterID string) int {
	for i, ch := range course.Chapters {
		if ch.ID == chapterID {
			return i
		}
	}
	return -1
}

// IsChapterAccessible reports whether the chapter at chapterIndex can be attempted.
//
// The first chapter is always open. Any other chapter opens only when the chapter right
// before it (by position) is completed; earlier chapters are not checked.
func IsChapterAccessible(course *models.Course, chapterIndex int, completedChapterIDs []string) bool {
	if chapterIndex < 0 || chapterIndex >= len(course.Chapters) {
		return false
	}
	if chapterIndex == 0 {
		return true
	}
	return slices.Contains(completedChapterIDs, course.Chapters[chapterIndex-1].ID)
}

// ComputeProgressPercentage returns 100 * |completed ∩ chapters| / |chapters| rounded half up.
// A course without chapters is at 0.
func ComputeProgressPercentage(course *models.Course, completedChapterIDs []string) int {
	total := len(course.Chapters)
	if total == 0 {
		return 0
	}
	done := countCompleted(course, completedChapterIDs)
	return (200*done + total) / (2 * total)
}

// GetCourseStatus derives the course status from the user state
func GetCourseStatus(user *models.User, course *models.Course) Status {
	if user.HasCompletedCourse(course.ID) {
		return StatusCompleted
	}
	if user.CurrentProgress != nil {
		if _, ok := user.CurrentProgress[course.ID]; ok {
			return StatusInProgress
		}
	}
	return StatusNotStarted
}

// MarkChapterComplete records chapterID as completed on user.
//
// Completing an already completed chapter is a no-op and returns a zero Update. When the
// last missing chapter is added, the course is added to the completed set and the course
// badge, if any and not yet held, is appended with EarnedAt = now.
func MarkChapterComplete(user *models.User, course *models.Course, chapterID string, now time.Time) (Update, error) {
	if ChapterIndex(course, chapterID) < 0 {
		return Update{}, fmt.Errorf("chapter %q in course %q: %w", chapterID, course.ID, models.ErrInvalidChapter)
	}

	if user.CurrentProgress == nil {
		user.CurrentProgress = make(map[string]*models.CourseProgress)
	}
	p, ok := user.CurrentProgress[course.ID]
	if !ok || p == nil {
		p = &models.CourseProgress{}
		user.CurrentProgress[course.ID] = p
	}
	if slices.Contains(p.CompletedChapters, chapterID) {
		return Update{}, nil
	}

	p.CompletedChapters = append(p.CompletedChapters, chapterID)
	upd := Update{ChapterAdded: true}

	if countCompleted(course, p.CompletedChapters) < len(course.Chapters) {
		return upd, nil
	}

	if !user.HasCompletedCourse(course.ID) {
		user.CompletedCourses = append(user.CompletedCourses, models.CompletedCourse{
			CourseID:    course.ID,
			CompletedAt: now,
		})
		upd.CourseCompleted = true
	}

	if course.Badge != nil && !user.HasCourseBadge(course.ID) && !user.HasBadge(course.Badge.ID) {
		earned := course.Badge.Earn(course.ID, now)
		user.Badges = append(user.Badges, earned)
		upd.BadgeGranted = &earned
	}

	return upd, nil
}

// Describe builds the per-chapter view of a course for one user
func Describe(user *models.User, course *models.Course) *models.CourseProgressResponse {
	completed := user.CompletedChapters(course.ID)

	chapters := make([]models.ChapterState, 0, len(course.Chapters))
	for i, ch := range course.Chapters {
		chapters = append(chapters, models.ChapterState{
			Chapter:    ch,
			Index:      i,
			Completed:  slices.Contains(completed, ch.ID),
			Accessible: IsChapterAccessible(course, i, completed),
		})
	}

	return &models.CourseProgressResponse{
		Course:             course,
		Status:             string(GetCourseStatus(user, course)),
		ProgressPercentage: ComputeProgressPercentage(course, completed),
		CompletedChapters:  countCompleted(course, completed),
		TotalChapters:      len(course.Chapters),
		Chapters:           chapters,
	}
}

// countCompleted counts distinct completed ids that belong to the course
func countCompleted(course *models.Course, completedChapterIDs []string) int {
	seen := make(map[string]struct{}, len(completedChapterIDs))
	for _, id := range completedChapterIDs {
		seen[id] = struct{}{}
	}
	n := 0
	for _, ch := range course.Chapters {
		if _, ok := seen[ch.ID]; ok {
			n++
		}
	}
	return n
}
