package memory

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// GormStore keeps entries in a SQL table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the table and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("memory: nil database")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Create(ctx context.Context, e *Entry) error {
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *GormStore) Recent(ctx context.Context, roomID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []Entry
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
