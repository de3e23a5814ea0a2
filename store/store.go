// Package store persists podcasts and items in an embedded SQLite database.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/1930s/Podcast-Server/entity"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/1930s/Podcast-Server/store Store

var (
	// ErrPodcastNotFound is returned when no podcast matches the requested id
	ErrPodcastNotFound = errors.New("podcast not found")
	// ErrItemNotFound is returned when no item matches the requested id
	ErrItemNotFound = errors.New("item not found")
)

// Store is the persistence contract used by the download engine and the manager
type Store interface {
	FindPodcastByID(ctx context.Context, id uuid.UUID) (*entity.Podcast, error)
	FindItemByID(ctx context.Context, id uuid.UUID) (*entity.Item, error)
	FindAllToDownload(ctx context.Context, since time.Time, maxRetry int) ([]*entity.Item, error)
	SavePodcast(ctx context.Context, podcast *entity.Podcast) error
	SaveItem(ctx context.Context, item *entity.Item) error
}

// SQLStore implements Store on top of gorm and the pure-Go SQLite driver
type SQLStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (or creates) the database at path and migrates the schema
func Open(path string, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	if err := db.AutoMigrate(&entity.Podcast{}, &entity.Item{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Debug("database ready", zap.String("path", path))
	return &SQLStore{db: db, logger: logger}, nil
}

// Close releases the underlying connection pool
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FindPodcastByID loads a podcast, ErrPodcastNotFound when absent
func (s *SQLStore) FindPodcastByID(ctx context.Context, id uuid.UUID) (*entity.Podcast, error) {
	var podcast entity.Podcast
	err := s.db.WithContext(ctx).First(&podcast, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPodcastNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load podcast %s: %w", id, err)
	}
	return &podcast, nil
}

// FindItemByID loads an item together with its podcast
func (s *SQLStore) FindItemByID(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	var item entity.Item
	err := s.db.WithContext(ctx).Preload("Podcast").First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item %s: %w", id, err)
	}
	return &item, nil
}

// FindAllToDownload returns items published since the given date that were never
// downloaded or that failed no more than maxRetry times
func (s *SQLStore) FindAllToDownload(ctx context.Context, since time.Time, maxRetry int) ([]*entity.Item, error) {
	var items []*entity.Item
	err := s.db.WithContext(ctx).
		Preload("Podcast").
		Where("pub_date >= ?", since).
		Where(
			s.db.Where("status = ?", entity.StatusNotDownloaded).
				Or("status = ? AND number_of_fail <= ?", entity.StatusFailed, maxRetry),
		).
		Order("pub_date ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list items to download: %w", err)
	}
	return items, nil
}

// SavePodcast inserts or updates a podcast
func (s *SQLStore) SavePodcast(ctx context.Context, podcast *entity.Podcast) error {
	if podcast.ID == uuid.Nil {
		podcast.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Save(podcast).Error; err != nil {
		return fmt.Errorf("failed to save podcast %s: %w", podcast.ID, err)
	}
	return nil
}

// SaveItem inserts or updates an item; the attached podcast is only referenced, never written
func (s *SQLStore) SaveItem(ctx context.Context, item *entity.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Podcast != nil {
		item.PodcastID = item.Podcast.ID
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error; err != nil {
		return fmt.Errorf("failed to save item %s: %w", item.ID, err)
	}
	return nil
}
