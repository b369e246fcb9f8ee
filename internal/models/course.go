package models

// ContentType represents the type of chapter content
type ContentType string

const (
	ContentTypeVideo    ContentType = "video"
	ContentTypeDocument ContentType = "document"
	ContentTypeQuiz     ContentType = "quiz"
	ContentTypeOther    ContentType = "other"
)

// Chapter is an ordered unit of course content
type Chapter struct {
	ID              string      `json:"id" yaml:"id"`
	Title           string      `json:"title" yaml:"title"`
	Description     string      `json:"description,omitempty" yaml:"description"`
	ContentType     ContentType `json:"contentType" yaml:"contentType"`
	Content         string      `json:"content,omitempty" yaml:"content"`
	DurationMinutes int         `json:"durationMinutes,omitempty" yaml:"durationMinutes"`
}

// Course is a catalog entry; chapter order is the unlock order
type Course struct {
	ID              string           `json:"id" yaml:"id"`
	Title           string           `json:"title" yaml:"title"`
	Description     string           `json:"description" yaml:"description"`
	Category        string           `json:"category" yaml:"category"`
	Difficulty      string           `json:"difficulty,omitempty" yaml:"difficulty"`
	DurationMinutes int              `json:"durationMinutes,omitempty" yaml:"durationMinutes"`
	Chapters        []Chapter        `json:"chapters" yaml:"chapters"`
	Badge           *BadgeDefinition `json:"badge,omitempty" yaml:"badge"`
}

// ChapterIDs returns the chapter ids in unlock order
func (c *Course) ChapterIDs() []string {
	ids := make([]string, 0, len(c.Chapters))
	for _, ch := range c.Chapters {
		ids = append(ids, ch.ID)
	}
	return ids
}

// CourseFilter narrows catalog listings
type CourseFilter struct {
	Category string
	Search   string
}

// ChapterState is a chapter as seen by one user
type ChapterState struct {
	Chapter
	Index      int  `json:"index"`
	Completed  bool `json:"completed"`
	Accessible bool `json:"accessible"`
}

// CourseProgressResponse is the course detail screen payload
type CourseProgressResponse struct {
	Course             *Course        `json:"course"`
	Status             string         `json:"status"`
	ProgressPercentage int            `json:"progressPercentage"`
	CompletedChapters  int            `json:"completedChapters"`
	TotalChapters      int            `json:"totalChapters"`
	Chapters           []ChapterState `json:"chapters"`
}

// RateCourseRequest represents a course rating by the current user
type RateCourseRequest struct {
	Rating int     `json:"rating"`
	Review *string `json:"review"`
}

// CourseRating is one learner's rating of a course
type CourseRating struct {
	UserID   int     `json:"userId"`
	CourseID string  `json:"courseId"`
	Rating   int     `json:"rating"`
	Review   *string `json:"review,omitempty"`
}

// RatingSummary aggregates the ratings of a course
type RatingSummary struct {
	CourseID      string  `json:"courseId"`
	Ratings       int     `json:"ratings"`
	AverageRating float64 `json:"averageRating"`
}

// RateCourseResponse is returned after a rating is stored
type RateCourseResponse struct {
	Rating  *CourseRating  `json:"rating"`
	Summary *RatingSummary `json:"summary"`
}
