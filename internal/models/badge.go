package models

import "time"

// Rarity of a badge
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// IsValid reports whether the rarity is known
func (r Rarity) IsValid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// CriterionType names a badge rule predicate
type CriterionType string

const (
	CriterionCourseCompleted          CriterionType = "course_completed"
	CriterionCoursesCompleted         CriterionType = "courses_completed"
	CriterionCategoryCoursesCompleted CriterionType = "category_courses_completed"
	CriterionCoursesCompletedInMonth  CriterionType = "courses_completed_in_month"
	CriterionStreakDays               CriterionType = "streak_days"
)

// Criterion is the rule attached to a badge definition
type Criterion struct {
	Type      CriterionType `json:"type" yaml:"type"`
	Threshold int           `json:"threshold,omitempty" yaml:"threshold"`
	Category  string        `json:"category,omitempty" yaml:"category"`
}

// BadgeDefinition describes a badge that can be earned
type BadgeDefinition struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Icon        string     `json:"icon" yaml:"icon"`
	Rarity      Rarity     `json:"rarity" yaml:"rarity"`
	CourseID    string     `json:"courseId,omitempty" yaml:"courseId"`
	Criterion   *Criterion `json:"criterion,omitempty" yaml:"criterion"`
}

// EarnedBadge is a badge definition awarded to a user
type EarnedBadge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Rarity      Rarity    `json:"rarity"`
	CourseID    string    `json:"courseId,omitempty"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// Earn builds an earned record for the definition
func (d *BadgeDefinition) Earn(courseID string, at time.Time) EarnedBadge {
	return EarnedBadge{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Icon:        d.Icon,
		Rarity:      d.Rarity,
		CourseID:    courseID,
		EarnedAt:    at,
	}
}

// BadgeProgress is a definition with the user's progress toward it
type BadgeProgress struct {
	BadgeDefinition
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earnedAt,omitempty"`
	Progress int        `json:"progress"`
}

// UserBadgesResponse lists earned and not yet earned badges
type UserBadgesResponse struct {
	EarnedBadges    []EarnedBadge   `json:"earned_badges"`
	AvailableBadges []BadgeProgress `json:"available_badges"`
}

// CheckAchievementsResponse lists the badges awarded by an achievement check
type CheckAchievementsResponse struct {
	NewlyEarned []EarnedBadge `json:"newly_earned"`
}
