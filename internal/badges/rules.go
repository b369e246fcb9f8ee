package badges

import (
	"fmt"
	"os"

	"github.com/learnhub/backend/internal/models"
	"gopkg.in/yaml.v3"
)

type rulesFile struct {
	Badges []models.BadgeDefinition `yaml:"badges"`
}

// LoadRules reads and validates badge definitions from a YAML file
func LoadRules(path string) ([]models.BadgeDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read badge rules %s: %w", path, err)
	}
	defs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("invalid badge rules %s: %w", path, err)
	}
	return defs, nil
}

// ParseRules decodes and validates badge definitions from YAML
func ParseRules(data []byte) ([]models.BadgeDefinition, error) {
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode yaml: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Badges))
	for i, def := range file.Badges {
		if err := validateDefinition(def); err != nil {
			return nil, fmt.Errorf("badge #%d: %w", i+1, err)
		}
		if _, dup := seen[def.ID]; dup {
			return nil, fmt.Errorf("badge #%d: duplicate id %q: %w", i+1, def.ID, models.ErrValidation)
		}
		seen[def.ID] = struct{}{}
	}
	return file.Badges, nil
}

func validateDefinition(def models.BadgeDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("id is required: %w", models.ErrValidation)
	}
	if def.Name == "" {
		return fmt.Errorf("%s: name is required: %w", def.ID, models.ErrValidation)
	}
	if !def.Rarity.IsValid() {
		return fmt.Errorf("%s: unknown rarity %q: %w", def.ID, def.Rarity, models.ErrValidation)
	}
	if def.Criterion == nil {
		return fmt.Errorf("%s: criterion is required: %w", def.ID, models.ErrValidation)
	}

	c := def.Criterion
	switch c.Type {
	case models.CriterionCourseCompleted:
		if def.CourseID == "" {
			return fmt.Errorf("%s: courseId is required for %s: %w", def.ID, c.Type, models.ErrValidation)
		}
		return nil
	case models.CriterionCategoryCoursesCompleted:
		if c.Category == "" {
			return fmt.Errorf("%s: category is required for %s: %w", def.ID, c.Type, models.ErrValidation)
		}
	case models.CriterionCoursesCompleted, models.CriterionCoursesCompletedInMonth, models.CriterionStreakDays:
	default:
		return fmt.Errorf("%s: unknown criterion type %q: %w", def.ID, c.Type, models.ErrValidation)
	}

	if c.Threshold <= 0 {
		return fmt.Errorf("%s: threshold must be positive: %w", def.ID, models.ErrValidation)
	}
	return nil
}
