package models

import "time"

// Role is the role of a user
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// RoleLevel orders roles for permission checks
var RoleLevel = map[Role]int{
	RoleStudent:    1,
	RoleInstructor: 2,
	RoleAdmin:      3,
}

// IsValid reports whether the role is one of the known roles
func (r Role) IsValid() bool {
	_, ok := RoleLevel[r]
	return ok
}

// Account represents a stored user account
type Account struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CourseProgress holds the completed chapters of one course in completion order
type CourseProgress struct {
	CompletedChapters []string `json:"completedChapters"`
}

// CompletedCourse records when a course was completed
type CompletedCourse struct {
	CourseID    string    `json:"courseId"`
	CompletedAt time.Time `json:"completedAt"`
}

// User is the learner state the tracker and the evaluator work on
type User struct {
	ID               int                        `json:"id"`
	Name             string                     `json:"name"`
	Email            string                     `json:"email"`
	Role             Role                       `json:"role"`
	CompletedCourses []CompletedCourse          `json:"completedCourses"`
	CurrentProgress  map[string]*CourseProgress `json:"currentProgress"`
	Badges           []EarnedBadge              `json:"badges"`
}

// HasCompletedCourse reports whether courseID is in the completed set
func (u *User) HasCompletedCourse(courseID string) bool {
	for _, c := range u.CompletedCourses {
		if c.CourseID == courseID {
			return true
		}
	}
	return false
}

// CompletedChapters returns the completed chapter ids of a course (nil if none)
func (u *User) CompletedChapters(courseID string) []string {
	if u.CurrentProgress == nil {
		return nil
	}
	p, ok := u.CurrentProgress[courseID]
	if !ok || p == nil {
		return nil
	}
	return p.CompletedChapters
}

// HasBadge reports whether a badge with the given definition id was earned
func (u *User) HasBadge(badgeID string) bool {
	for _, b := range u.Badges {
		if b.ID == badgeID {
			return true
		}
	}
	return false
}

// HasCourseBadge reports whether a badge with courseID provenance was earned
func (u *User) HasCourseBadge(courseID string) bool {
	for _, b := range u.Badges {
		if b.CourseID == courseID {
			return true
		}
	}
	return false
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Token string   `json:"token"`
	User  *Account `json:"user"`
}

// UpdateRoleRequest represents an admin role change
type UpdateRoleRequest struct {
	Role Role `json:"role"`
}

// UserListFilter narrows the admin user listing. Zero values mean no filter.
type UserListFilter struct {
	Role   Role
	Active *bool
	Search string
	Page   int
	Count  int
}

// UserList is one page of the admin user listing
type UserList struct {
	Users []Account `json:"users"`
	Page  int       `json:"page"`
	Count int       `json:"count"`
}

// UpdateProfileRequest changes the caller's own name or email. Omitted fields are kept.
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// ChangePasswordRequest represents a password change by the account owner
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UserStats is the aggregate shown on the dashboard and profile
type UserStats struct {
	CompletedCourses  int `json:"completedCourses"`
	InProgressCourses int `json:"inProgressCourses"`
	CompletedChapters int `json:"completedChapters"`
	TotalBadges       int `json:"totalBadges"`
	CurrentStreak     int `json:"currentStreak"`
	LongestStreak     int `json:"longestStreak"`
}

// Clone returns a deep copy of the user state
func (u *User) Clone() *User {
	c := *u
	c.CompletedCourses = append([]CompletedCourse(nil), u.CompletedCourses...)
	c.Badges = append([]EarnedBadge(nil), u.Badges...)
	if u.CurrentProgress != nil {
		c.CurrentProgress = make(map[string]*CourseProgress, len(u.CurrentProgress))
		for id, p := range u.CurrentProgress {
			if p == nil {
				continue
			}
			c.CurrentProgress[id] = &CourseProgress{
				CompletedChapters: append([]string(nil), p.CompletedChapters...),
			}
		}
	}
	return &c
}
