package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Subprocess is one imported spreadsheet row. Rows are immutable after
// import; BatchID ties the row to the review batch it was chunked into.
type Subprocess struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID    int       `gorm:"column:id_bloco;index"`
	Position   int       `gorm:"column:posicao"`
	Fornecedor string    `gorm:"index"`
	Pag        string    `gorm:"index"`
	ExternalID string    `gorm:"column:external_id;index"`
	Dados      datatypes.JSON
	CreatedAt  time.Time
}

func (Subprocess) TableName() string {
	return "subprocessos"
}
