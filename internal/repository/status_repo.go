package repository

import (
	"errors"
	"time"

	"subprocess-review-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// WithTx returns a repository bound to an open transaction.
func (r *StatusRepository) WithTx(tx *gorm.DB) *StatusRepository {
	return &StatusRepository{db: tx}
}

// Get returns the status row for a batch, or nil when none exists yet
// (a missing row means pending).
func (r *StatusRepository) Get(batchID int) (*models.BatchStatus, error) {
	var status models.BatchStatus
	err := r.db.First(&status, "id_bloco = ?", batchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// GetAll returns current statuses keyed by batch id.
func (r *StatusRepository) GetAll() (map[int]models.BatchStatus, error) {
	var rows []models.BatchStatus
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	statuses := make(map[int]models.BatchStatus, len(rows))
	for _, s := range rows {
		statuses[s.BatchID] = s
	}
	return statuses, nil
}

// EnsurePending creates the pending row for a batch if it does not exist.
// Racing callers are safe: the conflict clause makes the insert a no-op.
func (r *StatusRepository) EnsurePending(batchID int) error {
	status := models.BatchStatus{
		BatchID: batchID,
		State:   models.StatePending,
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&status).Error
}

// TryStart moves a batch from pending to in_progress and records the
// holder. The state predicate in the WHERE clause is the concurrency
// guard: of two racing starts only one sees RowsAffected == 1.
func (r *StatusRepository) TryStart(batchID int, user string, now time.Time) (bool, error) {
	res := r.db.Model(&models.BatchStatus{}).
		Where("id_bloco = ? AND state = ?", batchID, models.StatePending).
		Updates(map[string]interface{}{
			"state":      models.StateInProgress,
			"usuario":    user,
			"started_at": now,
		})
	return res.RowsAffected == 1, res.Error
}

// TryRelease moves a batch back to pending, but only for its holder.
func (r *StatusRepository) TryRelease(batchID int, user string) (bool, error) {
	res := r.db.Model(&models.BatchStatus{}).
		Where("id_bloco = ? AND state = ? AND usuario = ?", batchID, models.StateInProgress, user).
		Updates(map[string]interface{}{
			"state":      models.StatePending,
			"usuario":    nil,
			"started_at": nil,
		})
	return res.RowsAffected == 1, res.Error
}

// TryFinish moves a batch to done, but only for its holder. Done is
// terminal: no clause here or elsewhere ever updates a done row.
func (r *StatusRepository) TryFinish(batchID int, user string) (bool, error) {
	res := r.db.Model(&models.BatchStatus{}).
		Where("id_bloco = ? AND state = ? AND usuario = ?", batchID, models.StateInProgress, user).
		Update("state", models.StateDone)
	return res.RowsAffected == 1, res.Error
}
