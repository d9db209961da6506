package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultDraftType is assigned to drafts created without an explicit type
const DefaultDraftType = "custom"

// Draft represents a reply draft authored by a user or by the agent
type Draft struct {
	ID            string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Subject       string         `json:"subject" gorm:"type:text"`
	Body          string         `json:"body" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"autoUpdateTime:false"`
	SourceEmailID *int           `json:"source_email_id"`
	Type          string         `json:"type" gorm:"type:varchar(64)"`
	Metadata      map[string]any `json:"metadata" gorm:"serializer:json;type:text"`
}

// TableName specifies the table name for Draft
func (Draft) TableName() string {
	return "drafts"
}

// DraftInput carries the caller-supplied fields of a new draft
type DraftInput struct {
	Subject       string         `json:"subject"`
	Body          string         `json:"body"`
	SourceEmailID *int           `json:"source_email_id"`
	Type          string         `json:"type"`
	Metadata      map[string]any `json:"metadata"`
}

// DraftPatch is a partial update. Only fields present in the decoded
// payload are applied; a present null is applied as well.
type DraftPatch struct {
	Subject       Optional[string]         `json:"subject"`
	Body          Optional[string]         `json:"body"`
	SourceEmailID Optional[*int]           `json:"source_email_id"`
	Type          Optional[string]         `json:"type"`
	Metadata      Optional[map[string]any] `json:"metadata"`
}

// Validate rejects explicit nulls for the text fields. A null source
// email or metadata is a valid update.
func (p DraftPatch) Validate() error {
	for _, f := range []struct {
		name string
		null bool
	}{
		{"subject", p.Subject.Null},
		{"body", p.Body.Null},
		{"type", p.Type.Null},
	} {
		if f.null {
			return fmt.Errorf("%s must not be null", f.name)
		}
	}
	return nil
}

// Apply merges the present fields of p into d
func (p DraftPatch) Apply(d *Draft) {
	if p.Subject.Set {
		d.Subject = p.Subject.Value
	}
	if p.Body.Set {
		d.Body = p.Body.Value
	}
	if p.SourceEmailID.Set {
		d.SourceEmailID = p.SourceEmailID.Value
	}
	if p.Type.Set {
		d.Type = p.Type.Value
	}
	if p.Metadata.Set {
		d.Metadata = p.Metadata.Value
	}
}

// Optional records whether a JSON field was present at all, and whether
// it was present as null
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON is only invoked for keys present in the payload, null included
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Null = bytes.Equal(bytes.TrimSpace(data), []byte("null"))
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON encodes the wrapped value
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}
