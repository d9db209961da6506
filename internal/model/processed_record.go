package model

import "time"

// MixedBackend is recorded when the two outputs of a record came from
// different sources
const MixedBackend = "mixed"

// ProcessedRecord holds the raw categorization and action outputs for one email
type ProcessedRecord struct {
	EmailID         string    `json:"-" gorm:"primaryKey;type:varchar(64)"`
	Email           Email     `json:"email" gorm:"serializer:json;type:text"`
	CategoryOutput  string    `json:"category_output" gorm:"type:text"`
	ActionOutput    string    `json:"action_output" gorm:"type:text"`
	Backend         string    `json:"backend,omitempty" gorm:"type:varchar(64)"`
	CategoryBackend string    `json:"category_backend,omitempty" gorm:"type:varchar(64)"`
	ActionBackend   string    `json:"action_backend,omitempty" gorm:"type:varchar(64)"`
	ProcessedAt     time.Time `json:"processed_at" gorm:"autoCreateTime:false"`
}

// TableName specifies the table name for ProcessedRecord
func (ProcessedRecord) TableName() string {
	return "processed_records"
}
