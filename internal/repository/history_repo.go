package repository

import (
	"subprocess-review-backend/internal/models"

	"gorm.io/gorm"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *HistoryRepository) WithTx(tx *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: tx}
}

// Append writes one completion entry. Entries are never updated or
// deleted afterwards.
func (r *HistoryRepository) Append(entry *models.HistoryEntry) error {
	return r.db.Create(entry).Error
}

// List returns completion entries newest first.
func (r *HistoryRepository) List() ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := r.db.Order("data_execucao DESC").Find(&entries).Error
	return entries, err
}

// CountForBatch reports how many completion entries reference a batch.
func (r *HistoryRepository) CountForBatch(batchID int) (int64, error) {
	var count int64
	err := r.db.Model(&models.HistoryEntry{}).
		Where("id_bloco = ?", batchID).
		Count(&count).Error
	return count, err
}
