package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document is one persisted workspace blob, keyed by user.
type Document struct {
	Key       string         `gorm:"column:doc_key;primaryKey;size:191"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
