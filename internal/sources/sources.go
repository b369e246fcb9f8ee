// Package sources opens the course catalog and the learner progress store selected by configuration
package sources

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/learnhub/backend/internal/cache"
	"github.com/learnhub/backend/internal/config"
	"github.com/learnhub/backend/internal/repositories"
	"github.com/learnhub/backend/internal/services"
	"github.com/learnhub/backend/internal/sources/memory"
	"github.com/learnhub/backend/internal/sources/remote"
	"go.uber.org/zap"
)

// Source is a course catalog together with the progress store that belongs to it
type Source struct {
	Kind     string
	Courses  services.CourseSource
	Progress services.ProgressStore
}

// Open builds the data source of the given kind.
//
// The sql kind reads from "db", the memory kind seeds an in-process store from the catalog file
// and the remote kind talks to an external backend over HTTP.
func Open(cfg config.DataSourceConfig, db *sql.DB, logger *zap.Logger) (*Source, error) {
	switch cfg.Kind {
	case config.DataSourceSQL:
		if db == nil {
			return nil, fmt.Errorf("sql data source requires a database connection")
		}
		return &Source{
			Kind:     cfg.Kind,
			Courses:  repositories.NewCourseRepository(db, logger),
			Progress: repositories.NewProgressRepository(db, logger),
		}, nil

	case config.DataSourceMemory:
		courses, err := memory.LoadCourses(cfg.CoursesPath)
		if err != nil {
			return nil, err
		}
		store := memory.NewStore(courses)
		logger.Info("using in-memory data source", zap.Int("courses", len(courses)))
		return &Source{Kind: cfg.Kind, Courses: store, Progress: store}, nil

	case config.DataSourceRemote:
		client := remote.NewClient(cfg.RemoteURL, cfg.RemoteTimeout, logger)
		logger.Info("using remote data source", zap.String("url", cfg.RemoteURL))
		return &Source{Kind: cfg.Kind, Courses: client, Progress: client}, nil

	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Kind)
	}
}

// WithCache puts a Redis read-through cache in front of the catalog.
// The memory catalog is never cached and a zero ttl disables caching.
func (s *Source) WithCache(rdb cache.RedisClient, ttl time.Duration, logger *zap.Logger) {
	if s.Kind == config.DataSourceMemory || ttl <= 0 || rdb == nil {
		return
	}
	s.Courses = cache.NewCatalogCache(s.Courses, rdb, ttl, logger)
	logger.Info("catalog cache enabled", zap.Duration("ttl", ttl))
}
