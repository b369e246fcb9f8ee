// Package remote reads the course catalog and learner progress from an external REST backend.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/learnhub/backend/internal/models"
	"go.uber.org/zap"
)

const activityDateLayout = "2006-01-02"

// envelope is the response wrapper used by the backend
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

type awardBadgesRequest struct {
	Badges []models.EarnedBadge `json:"badges"`
}

// Client talks to the remote backend. Calls are not retried.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		logger: logger,
	}
}

// ListCourses fetches the catalog
func (c *Client) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	courses, err := call[[]models.Course](ctx, c, http.MethodGet, "/api/courses", func(r *resty.Request) {
		if filter.Category != "" {
			r.SetQueryParam("category", filter.Category)
		}
		if filter.Search != "" {
			r.SetQueryParam("search", filter.Search)
		}
	})
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

// GetCourse fetches one course
func (c *Client) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := call[*models.Course](ctx, c, http.MethodGet, "/api/courses/{courseId}", func(r *resty.Request) {
		r.SetPathParam("courseId", courseID)
	})
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, fmt.Errorf("course %q: %w", courseID, models.ErrNotFound)
	}
	return course, nil
}

// GetUserState fetches the learner state of a user
func (c *Client) GetUserState(ctx context.Context, userID int) (*models.User, error) {
	user, err := call[*models.User](ctx, c, http.MethodGet, "/api/users/{userId}/progress", func(r *resty.Request) {
		r.SetPathParam("userId", strconv.Itoa(userID))
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &models.User{}
	}
	user.ID = userID
	if user.CurrentProgress == nil {
		user.CurrentProgress = map[string]*models.CourseProgress{}
	}
	if user.CompletedCourses == nil {
		user.CompletedCourses = []models.CompletedCourse{}
	}
	if user.Badges == nil {
		user.Badges = []models.EarnedBadge{}
	}
	return user, nil
}

// RecordCompletion sends a completion event; the backend reports what it stored
func (c *Client) RecordCompletion(ctx context.Context, userID int, event models.CompletionEvent) (*models.CompletionOutcome, error) {
	path := "/api/users/{userId}/courses/{courseId}/chapters/{chapterId}/complete"
	outcome, err := call[*models.CompletionOutcome](ctx, c, http.MethodPut, path, func(r *resty.Request) {
		r.SetPathParams(map[string]string{
			"userId":    strconv.Itoa(userID),
			"courseId":  event.CourseID,
			"chapterId": event.ChapterID,
		}).SetBody(event)
	})
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		outcome = &models.CompletionOutcome{}
	}
	return outcome, nil
}

// AwardBadges stores badges; the backend returns the ones that were new
func (c *Client) AwardBadges(ctx context.Context, userID int, badges []models.EarnedBadge) ([]models.EarnedBadge, error) {
	if len(badges) == 0 {
		return []models.EarnedBadge{}, nil
	}

	awarded, err := call[[]models.EarnedBadge](ctx, c, http.MethodPost, "/api/users/{userId}/badges", func(r *resty.Request) {
		r.SetPathParam("userId", strconv.Itoa(userID)).SetBody(awardBadgesRequest{Badges: badges})
	})
	if err != nil {
		return nil, err
	}
	if awarded == nil {
		awarded = []models.EarnedBadge{}
	}
	return awarded, nil
}

// ListActivityDays fetches the active UTC days on or after since
func (c *Client) ListActivityDays(ctx context.Context, userID int, since time.Time) ([]time.Time, error) {
	raw, err := call[[]string](ctx, c, http.MethodGet, "/api/users/{userId}/activity", func(r *resty.Request) {
		r.SetPathParam("userId", strconv.Itoa(userID)).
			SetQueryParam("since", since.UTC().Format(activityDateLayout))
	})
	if err != nil {
		return nil, err
	}

	days := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		day, err := time.Parse(activityDateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("invalid activity date %q: %w", s, err)
		}
		days = append(days, day)
	}
	return days, nil
}

// call executes a request and unwraps the response envelope.
// Transport failures and 5xx answers are reported as models.ErrTransientNetwork.
func call[T any](ctx context.Context, c *Client, method, path string, configure func(*resty.Request)) (T, error) {
	var zero T
	var body envelope[T]

	req := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		SetError(&body)
	if configure != nil {
		configure(req)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("remote backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return zero, fmt.Errorf("%s %s: %w: %w", method, path, models.ErrTransientNetwork, err)
	}

	status := resp.StatusCode()
	switch {
	case status == http.StatusNotFound:
		return zero, fmt.Errorf("%s %s: %w", method, path, models.ErrNotFound)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return zero, fmt.Errorf("%s %s: %s: %w", method, path, body.Message, models.ErrValidation)
	case status >= http.StatusInternalServerError:
		c.logger.Warn("remote backend unavailable",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
		return zero, fmt.Errorf("%s %s: status %d: %w", method, path, status, models.ErrTransientNetwork)
	case resp.IsError():
		return zero, fmt.Errorf("%s %s: unexpected status %d", method, path, status)
	}

	if !body.Success {
		msg := body.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return zero, fmt.Errorf("%s %s: %s", method, path, msg)
	}

	return body.Data, nil
}
