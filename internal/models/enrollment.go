package models

import "time"

// EnrollmentStatus is the state of a user in a course
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusPaused    EnrollmentStatus = "paused"
)

// Enrollment is the stored relationship between a user and a course
type Enrollment struct {
	ID         int              `json:"id"`
	UserID     int              `json:"userId"`
	CourseID   string           `json:"courseId"`
	Status     EnrollmentStatus `json:"status"`
	EnrolledAt time.Time        `json:"enrolledAt"`
}

// EnrollmentView is an enrollment with derived progress
type EnrollmentView struct {
	CourseID           string           `json:"courseId"`
	Title              string           `json:"title"`
	Category           string           `json:"category"`
	Status             EnrollmentStatus `json:"status"`
	ProgressPercentage int              `json:"progressPercentage"`
	CompletedChapters  int              `json:"completedChapters"`
	TotalChapters      int              `json:"totalChapters"`
	EnrolledAt         time.Time        `json:"enrolledAt"`
}

// CompletionEvent is sent to the data source when a chapter is completed
type CompletionEvent struct {
	CourseID        string       `json:"courseId"`
	ChapterID       string       `json:"chapterId"`
	CourseCompleted bool         `json:"courseCompleted"`
	Badge           *EarnedBadge `json:"badge,omitempty"`
	CompletedAt     time.Time    `json:"completedAt"`
}

// CompletionOutcome is what the data source actually recorded
type CompletionOutcome struct {
	ChapterRecorded bool         `json:"chapterRecorded"`
	CourseCompleted bool         `json:"courseCompleted"`
	BadgeEarned     *EarnedBadge `json:"badgeEarned,omitempty"`
}

// CompleteChapterResponse is returned to the caller after a completion
type CompleteChapterResponse struct {
	CourseCompleted bool                    `json:"courseCompleted"`
	BadgesEarned    []EarnedBadge           `json:"badgesEarned"`
	Progress        *CourseProgressResponse `json:"progress"`
}

// DashboardStats is the admin overview
type DashboardStats struct {
	TotalUsers       int `json:"totalUsers"`
	ActiveUsers      int `json:"activeUsers"`
	TotalEnrollments int `json:"totalEnrollments"`
	CompletedCourses int `json:"completedCourses"`
	BadgesAwarded    int `json:"badgesAwarded"`
	TotalCourses     int `json:"totalCourses"`
}

// CourseActivity holds the stored per-course counters behind CourseStats
type CourseActivity struct {
	CourseID           string
	Enrollments        int
	Completions        int
	ChapterCompletions int
	Ratings            int
	RatingSum          int
}

// CourseStats is one row of the admin course report
type CourseStats struct {
	CourseID        string  `json:"courseId"`
	Title           string  `json:"title"`
	Category        string  `json:"category"`
	TotalChapters   int     `json:"totalChapters"`
	Enrollments     int     `json:"enrollments"`
	Completions     int     `json:"completions"`
	CompletionRate  int     `json:"completionRate"`
	AverageProgress int     `json:"averageProgress"`
	Ratings         int     `json:"ratings"`
	AverageRating   float64 `json:"averageRating"`
}

// ActivityDay is one day of the admin activity report
type ActivityDay struct {
	Date              string `json:"date"`
	ActiveLearners    int    `json:"activeLearners"`
	Enrollments       int    `json:"enrollments"`
	ChaptersCompleted int    `json:"chaptersCompleted"`
	CoursesCompleted  int    `json:"coursesCompleted"`
}

// ActivityReport covers the last PeriodDays days, oldest first
type ActivityReport struct {
	PeriodDays        int           `json:"periodDays"`
	From              string        `json:"from"`
	To                string        `json:"to"`
	Days              []ActivityDay `json:"days"`
	Enrollments       int           `json:"enrollments"`
	ChaptersCompleted int           `json:"chaptersCompleted"`
	CoursesCompleted  int           `json:"coursesCompleted"`
}
