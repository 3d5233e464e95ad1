package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// HistoryEntry is an append-only record of a completed batch: who finished
// it, when, and a payload summary of what it contained.
type HistoryEntry struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BatchID    int            `gorm:"column:id_bloco;index" json:"batch_id"`
	Usuario    string         `json:"usuario"`
	Fornecedor string         `json:"fornecedor"`
	Pag        string         `json:"pag"`
	MemberIDs  datatypes.JSON `gorm:"column:member_ids" json:"member_ids"`
	TotalValue float64        `json:"total_value"`
	ExecutedAt time.Time      `gorm:"column:data_execucao" json:"executed_at"`
}

func (HistoryEntry) TableName() string {
	return "historico_execucao"
}
