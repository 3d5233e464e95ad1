package models

import (
	"time"
)

// Batch lifecycle states. A missing status_blocos row means StatePending.
const (
	StatePending    = "pending"
	StateInProgress = "in_progress"
	StateDone       = "done"
)

// BatchStatus tracks the lifecycle of one batch. Holder is set iff the
// batch is in progress; done is terminal.
type BatchStatus struct {
	BatchID   int        `gorm:"column:id_bloco;primaryKey" json:"batch_id"`
	State     string     `gorm:"index" json:"state"`
	Holder    *string    `gorm:"column:usuario" json:"holder,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (BatchStatus) TableName() string {
	return "status_blocos"
}
