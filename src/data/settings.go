package data

import (
	"sync"

	"gorm.io/gorm"
)

// Setting is a row of the settings table. Active has no column default so
// gorm writes an explicit 0 for inactive rows.
type Setting struct {
	ID     uint   `gorm:"primaryKey"`
	Name   string `gorm:"size:64;not null;uniqueIndex"`
	Value  string `gorm:"type:text;not null"`
	Active uint8  `gorm:"not null"`
}

// SettingsStore caches the active rows of the settings table.
type SettingsStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewSettingsStore returns a store seeded with values. It is mostly useful
// without a database.
func NewSettingsStore(values map[string]string) *SettingsStore {
	s := &SettingsStore{values: make(map[string]string, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// LoadSettings reads all active settings from db into a new store.
func LoadSettings(db *gorm.DB) (*SettingsStore, error) {
	s := NewSettingsStore(nil)
	return s, s.Reload(db)
}

// Reload replaces the cached values with the current table contents.
func (s *SettingsStore) Reload(db *gorm.DB) error {
	var rows []Setting
	if err := db.Where("active = ?", 1).Find(&rows).Error; err != nil {
		return err
	}

	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Name] = r.Value
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// Lookup returns a cached setting and whether it is present.
func (s *SettingsStore) Lookup(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}
