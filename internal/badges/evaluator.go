// Package badges evaluates configured badge rules against a learner's state.
package badges

import (
	"sort"
	"strings"
	"time"

	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/progress"
)

// Catalog indexes courses by id
type Catalog map[string]*models.Course

// NewCatalog builds a Catalog from a course list
func NewCatalog(courses []models.Course) Catalog {
	catalog := make(Catalog, len(courses))
	for i := range courses {
		catalog[courses[i].ID] = &courses[i]
	}
	return catalog
}

// Stats carries values derived from learning activity
type Stats struct {
	CurrentStreak int
}

// Evaluator holds the badge definitions ordered by id
type Evaluator struct {
	definitions []models.BadgeDefinition
}

// NewEvaluator creates a new Evaluator.
// Definitions are copied and sorted by ascending id.
func NewEvaluator(definitions []models.BadgeDefinition) *Evaluator {
	defs := append([]models.BadgeDefinition(nil), definitions...)
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return &Evaluator{definitions: defs}
}

// Definitions returns the configured definitions ordered by id
func (e *Evaluator) Definitions() []models.BadgeDefinition {
	return append([]models.BadgeDefinition(nil), e.definitions...)
}

// Evaluate returns the badges the user satisfies but does not hold yet, ordered by id.
// It never mutates the user; the caller records the result.
func (e *Evaluator) Evaluate(user *models.User, catalog Catalog, stats Stats, now time.Time) []models.EarnedBadge {
	earned := make([]models.EarnedBadge, 0)
	for i := range e.definitions {
		def := &e.definitions[i]
		if user.HasBadge(def.ID) {
			continue
		}
		current, target := measure(def, user, catalog, stats, now)
		if target > 0 && current >= target {
			earned = append(earned, def.Earn(def.CourseID, now))
		}
	}
	return earned
}

// Progress reports every definition with the earned flag and a 0-100 progress value
func (e *Evaluator) Progress(user *models.User, catalog Catalog, stats Stats, now time.Time) []models.BadgeProgress {
	result := make([]models.BadgeProgress, 0, len(e.definitions))
	for i := range e.definitions {
		def := e.definitions[i]
		bp := models.BadgeProgress{BadgeDefinition: def}

		for _, b := range user.Badges {
			if b.ID == def.ID {
				at := b.EarnedAt
				bp.Earned = true
				bp.EarnedAt = &at
				break
			}
		}

		if bp.Earned {
			bp.Progress = 100
		} else {
			bp.Progress = percentOf(&def, user, catalog, stats, now)
		}
		result = append(result, bp)
	}
	return result
}

// percentOf converts a rule measurement into a capped percentage
func percentOf(def *models.BadgeDefinition, user *models.User, catalog Catalog, stats Stats, now time.Time) int {
	if def.Criterion != nil && def.Criterion.Type == models.CriterionCourseCompleted {
		if user.HasCompletedCourse(def.CourseID) {
			return 100
		}
		course, ok := catalog[def.CourseID]
		if !ok {
			return 0
		}
		return progress.ComputeProgressPercentage(course, user.CompletedChapters(course.ID))
	}

	current, target := measure(def, user, catalog, stats, now)
	if target <= 0 {
		return 0
	}
	if current >= target {
		return 100
	}
	return current * 100 / target
}

// measure returns the current value and the target of a definition's criterion.
// A zero target means the rule can never be satisfied.
func measure(def *models.BadgeDefinition, user *models.User, catalog Catalog, stats Stats, now time.Time) (int, int) {
	c := def.Criterion
	if c == nil {
		return 0, 0
	}

	switch c.Type {
	case models.CriterionCourseCompleted:
		if def.CourseID == "" {
			return 0, 0
		}
		if user.HasCompletedCourse(def.CourseID) {
			return 1, 1
		}
		return 0, 1

	case models.CriterionCoursesCompleted:
		return len(user.CompletedCourses), c.Threshold

	case models.CriterionCategoryCoursesCompleted:
		n := 0
		for _, cc := range user.CompletedCourses {
			course, ok := catalog[cc.CourseID]
			if ok && strings.EqualFold(course.Category, c.Category) {
				n++
			}
		}
		return n, c.Threshold

	case models.CriterionCoursesCompletedInMonth:
		n := 0
		year, month, _ := now.UTC().Date()
		for _, cc := range user.CompletedCourses {
			y, m, _ := cc.CompletedAt.UTC().Date()
			if y == year && m == month {
				n++
			}
		}
		return n, c.Threshold

	case models.CriterionStreakDays:
		return stats.CurrentStreak, c.Threshold
	}

	return 0, 0
}

// CourseBadgeDefinitions turns the badges attached to catalog courses into
// course_completed definitions ordered by id
func CourseBadgeDefinitions(catalog Catalog) []models.BadgeDefinition {
	defs := make([]models.BadgeDefinition, 0)
	for _, course := range catalog {
		if course.Badge == nil {
			continue
		}
		def := *course.Badge
		def.CourseID = course.ID
		def.Criterion = &models.Criterion{Type: models.CriterionCourseCompleted}
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// With returns an evaluator that also holds extra definitions.
// Extra definitions whose id is already configured are ignored.
func (e *Evaluator) With(extra []models.BadgeDefinition) *Evaluator {
	known := make(map[string]struct{}, len(e.definitions)+len(extra))
	defs := make([]models.BadgeDefinition, 0, len(e.definitions)+len(extra))
	for _, d := range e.definitions {
		known[d.ID] = struct{}{}
		defs = append(defs, d)
	}
	for _, d := range extra {
		if _, ok := known[d.ID]; ok {
			continue
		}
		known[d.ID] = struct{}{}
		defs = append(defs, d)
	}
	return NewEvaluator(defs)
}
