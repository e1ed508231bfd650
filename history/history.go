// Copyright 2023 NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package history

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// EpochMetric is one aggregate metric value of one epoch of one run.
type EpochMetric struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time `gorm:"not null"`

	Run   string `gorm:"not null;index"`
	Epoch int    `gorm:"not null"`
	// Phase is "train", "val" or "test".
	Phase string  `gorm:"not null"`
	Name  string  `gorm:"not null"`
	Value float64 `gorm:"not null"`
}

// Store persists per-epoch aggregate metrics into a SQLite database, so runs
// can be compared afterwards. It never stores model weights.
type Store struct {
	db *gorm.DB
}

// Open opens (creating it if needed) the metric history at the given path.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: NewLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("history: opening database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&EpochMetric{}); err != nil {
		return nil, fmt.Errorf("history: migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordEpoch stores the mean metric values of one completed epoch.
func (s *Store) RecordEpoch(run string, epoch int, phase string, means map[string]float64) error {
	rows := make([]EpochMetric, 0, len(means))
	for name, value := range means {
		rows = append(rows, EpochMetric{
			Run:   run,
			Epoch: epoch,
			Phase: phase,
			Name:  name,
			Value: value,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := s.db.Create(&rows).Error; err != nil {
		return fmt.Errorf("history: recording epoch %d: %w", epoch, err)
	}
	return nil
}

// Epochs returns every recorded metric of the given run, ordered by epoch.
func (s *Store) Epochs(run string) ([]EpochMetric, error) {
	var rows []EpochMetric
	err := s.db.Where("run = ?", run).Order("epoch, phase, name").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("history: loading run %s: %w", run, err)
	}
	return rows, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
