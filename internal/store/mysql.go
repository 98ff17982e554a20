package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/replay-coach/internal/config"
	"github.com/user/replay-coach/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MySQLStore implements Store interface using MySQL database
type MySQLStore struct {
	db *gorm.DB
}

// NewMySQLStore creates a new MySQL store instance
func NewMySQLStore(cfg *config.DBConfig) (*MySQLStore, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Auto migrate tables
	if err := db.AutoMigrate(&model.Video{}, &model.ScoreEvent{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &MySQLStore{db: db}, nil
}

// CreateVideo inserts a pending video row. The row exists before the byte
// upload itself completes.
func (s *MySQLStore) CreateVideo(ctx context.Context, video *model.Video) error {
	if err := s.db.WithContext(ctx).Create(video).Error; err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}
	return nil
}

// GetVideo retrieves a video by object id, scoped to its owner.
// Returns nil if no matching row exists.
func (s *MySQLStore) GetVideo(ctx context.Context, objectID, owner string) (*model.Video, error) {
	var video model.Video
	result := s.db.WithContext(ctx).
		Where("object_id = ? AND owner = ?", objectID, owner).
		First(&video)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get video: %w", result.Error)
	}
	return &video, nil
}

// ListVideos retrieves all videos owned by the given owner, newest first
func (s *MySQLStore) ListVideos(ctx context.Context, owner string) ([]*model.Video, error) {
	var videos []*model.Video
	result := s.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("created_at DESC").
		Find(&videos)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list videos: %w", result.Error)
	}
	return videos, nil
}

// SetExternalID records the indexing service's identifier for a video
func (s *MySQLStore) SetExternalID(ctx context.Context, objectID, externalID string) error {
	result := s.db.WithContext(ctx).
		Model(&model.Video{}).
		Where("object_id = ?", objectID).
		Update("external_id", externalID)
	if result.Error != nil {
		return fmt.Errorf("failed to set external id: %w", result.Error)
	}
	return nil
}

// SetThumbnail caches a thumbnail data URL on a video row
func (s *MySQLStore) SetThumbnail(ctx context.Context, objectID, thumbnail string) error {
	result := s.db.WithContext(ctx).
		Model(&model.Video{}).
		Where("object_id = ?", objectID).
		Update("thumbnail", thumbnail)
	if result.Error != nil {
		return fmt.Errorf("failed to set thumbnail: %w", result.Error)
	}
	return nil
}

// SetAnalysis persists an analysis result onto a video row. The update only
// touches rows whose analysis column is still NULL, so the first completed
// run wins and a stored result is never overwritten. Returns whether this
// call performed the write.
func (s *MySQLStore) SetAnalysis(ctx context.Context, objectID string, analysis []byte) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&model.Video{}).
		Where("object_id = ? AND analysis IS NULL", objectID).
		Update("analysis", analysis)
	if result.Error != nil {
		return false, fmt.Errorf("failed to set analysis: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CountVideos returns the total count of videos
func (s *MySQLStore) CountVideos(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.Video{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count videos: %w", result.Error)
	}
	return count, nil
}

// RecordScore appends one score event row
func (s *MySQLStore) RecordScore(ctx context.Context, score *model.ScoreEvent) error {
	if score.Timestamp.IsZero() {
		score.Timestamp = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(score).Error; err != nil {
		return fmt.Errorf("failed to record score: %w", err)
	}
	return nil
}

// ListScores retrieves all score events for an owner, oldest first
func (s *MySQLStore) ListScores(ctx context.Context, owner string) ([]*model.ScoreEvent, error) {
	var scores []*model.ScoreEvent
	result := s.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("timestamp ASC").
		Find(&scores)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list scores: %w", result.Error)
	}
	return scores, nil
}

// Ping checks database connectivity
func (s *MySQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.Close()
}

// DB returns the underlying gorm.DB instance (for testing purposes)
func (s *MySQLStore) DB() *gorm.DB {
	return s.db
}
