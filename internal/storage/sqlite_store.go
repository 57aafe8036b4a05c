package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLiteStore keeps every key as one row of the kv_items table.
type SQLiteStore struct {
	db *gorm.DB
}

func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return storageErr("set", key, err)
	}
	row := item{Name: key, Value: string(data), UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return storageErr("set", key, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	var row item
	err := s.db.WithContext(ctx).Where("name = ?", key).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	case err != nil:
		return false, storageErr("get", key, err)
	}
	if err := json.Unmarshal([]byte(row.Value), dst); err != nil {
		return false, storageErr("get", key, err)
	}
	return true, nil
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("name = ?", key).Delete(&item{}).Error; err != nil {
		return storageErr("remove", key, err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&item{}).Error; err != nil {
		return storageErr("clear", "", err)
	}
	return nil
}

func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.WithContext(ctx).Model(&item{}).Order("name ASC").Pluck("name", &keys).Error; err != nil {
		return nil, storageErr("keys", "", err)
	}
	return keys, nil
}
