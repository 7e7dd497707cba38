package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"blip_sim/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the SQLite-backed settlement ledger.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the ledger at path. An empty path resolves
// to the per-user config directory.
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		resolved, err := getDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
		path = resolved
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.SettledOrder{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "BlipSim", "data", "ledger.db"), nil
}

// RecordSettlement appends a ledger row.
func (s *Storage) RecordSettlement(rec *domain.SettledOrder) error {
	return s.db.Create(rec).Error
}

// RecentSettlements returns up to limit rows, newest first.
func (s *Storage) RecentSettlements(limit int) ([]domain.SettledOrder, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []domain.SettledOrder
	err := s.db.Order("settled_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// CountByPath returns how many settlements went through each path.
func (s *Storage) CountByPath() (map[string]int64, error) {
	var rows []struct {
		Path  string
		Total int64
	}
	err := s.db.Model(&domain.SettledOrder{}).
		Select("path, count(*) as total").
		Group("path").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, r := range rows {
		result[r.Path] = r.Total
	}
	return result, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
