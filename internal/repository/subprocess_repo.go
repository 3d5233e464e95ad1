package repository

import (
	"subprocess-review-backend/internal/models"

	"gorm.io/gorm"
)

type SubprocessRepository struct {
	db *gorm.DB
}

func NewSubprocessRepository(db *gorm.DB) *SubprocessRepository {
	return &SubprocessRepository{db: db}
}

// Expose DB if needed
func (r *SubprocessRepository) DB() *gorm.DB {
	return r.db
}

// GetAll returns every imported row ordered by batch and position within
// the batch, which is the order the read path renders them in.
func (r *SubprocessRepository) GetAll() ([]models.Subprocess, error) {
	var rows []models.Subprocess
	err := r.db.Order("id_bloco ASC, posicao ASC").Find(&rows).Error
	return rows, err
}

// MaxBatchID returns the highest assigned batch id, 0 when the table is
// empty. New imports continue numbering from here.
func (r *SubprocessRepository) MaxBatchID() (int, error) {
	var maxID int
	err := r.db.Model(&models.Subprocess{}).
		Select("COALESCE(MAX(id_bloco), 0)").
		Scan(&maxID).Error
	return maxID, err
}

// ExistingPayloads returns the serialized payload of every stored row,
// used for duplicate detection on import.
func (r *SubprocessRepository) ExistingPayloads() ([]string, error) {
	var payloads []string
	err := r.db.Model(&models.Subprocess{}).
		Pluck("dados", &payloads).Error
	return payloads, err
}

// InsertAll persists a whole import in one statement.
func (r *SubprocessRepository) InsertAll(rows []models.Subprocess) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.Create(&rows).Error
}
