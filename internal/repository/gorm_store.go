package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"email-agent-go/internal/model"
)

// GormStore persists every collection in SQL tables
type GormStore struct {
	db *gorm.DB
	stamper
}

// NewGormStore wraps an initialized database handle
func NewGormStore(db *gorm.DB, opts ...Option) *GormStore {
	return &GormStore{db: db, stamper: newStamper(opts)}
}

// GetProcessed returns every processed record keyed by email id
func (s *GormStore) GetProcessed(ctx context.Context) (map[string]model.ProcessedRecord, error) {
	var records []model.ProcessedRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get processed records: %w", err)
	}

	out := make(map[string]model.ProcessedRecord, len(records))
	for _, r := range records {
		r.ProcessedAt = r.ProcessedAt.UTC()
		out[r.EmailID] = r
	}
	return out, nil
}

// SetProcessed creates or overwrites the record for id
func (s *GormStore) SetProcessed(ctx context.Context, id string, record model.ProcessedRecord) error {
	record.EmailID = id
	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return fmt.Errorf("failed to save processed record: %w", err)
	}
	return nil
}

// ListDrafts returns all drafts in creation order
func (s *GormStore) ListDrafts(ctx context.Context) ([]model.Draft, error) {
	drafts := []model.Draft{}
	if err := s.db.WithContext(ctx).Order("created_at").Find(&drafts).Error; err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	for i := range drafts {
		normalizeDraft(&drafts[i])
	}
	return drafts, nil
}

// CreateDraft inserts a new draft
func (s *GormStore) CreateDraft(ctx context.Context, input model.DraftInput) (model.Draft, error) {
	draft := s.newDraft(input)
	if err := s.db.WithContext(ctx).Create(&draft).Error; err != nil {
		return model.Draft{}, fmt.Errorf("failed to create draft: %w", err)
	}
	return draft, nil
}

// GetDraft returns the draft with id
func (s *GormStore) GetDraft(ctx context.Context, id string) (model.Draft, error) {
	var draft model.Draft
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Draft{}, ErrDraftNotFound
	}
	if err != nil {
		return model.Draft{}, fmt.Errorf("database error: %w", err)
	}
	normalizeDraft(&draft)
	return draft, nil
}

// normalizeDraft drops the driver's time zone from decoded timestamps
func normalizeDraft(d *model.Draft) {
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
}

// UpdateDraft applies patch to the draft with id
func (s *GormStore) UpdateDraft(ctx context.Context, id string, patch model.DraftPatch) (model.Draft, error) {
	draft, err := s.GetDraft(ctx, id)
	if err != nil {
		return model.Draft{}, err
	}

	s.applyPatch(&draft, patch)
	if err := s.db.WithContext(ctx).Save(&draft).Error; err != nil {
		return model.Draft{}, fmt.Errorf("failed to update draft: %w", err)
	}
	return draft, nil
}

// DeleteDraft removes the draft with id
func (s *GormStore) DeleteDraft(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Draft{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete draft: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDraftNotFound
	}
	return nil
}

// GetPrompts returns the prompt template set
func (s *GormStore) GetPrompts(ctx context.Context) (model.PromptSet, error) {
	var rows []model.PromptRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get prompts: %w", err)
	}

	prompts := make(model.PromptSet, len(rows))
	for _, r := range rows {
		prompts[r.Name] = r.Template
	}
	return prompts, nil
}

// SavePrompts replaces the prompt template set
func (s *GormStore) SavePrompts(ctx context.Context, prompts model.PromptSet) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.PromptRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear prompts: %w", err)
		}
		if len(prompts) == 0 {
			return nil
		}

		rows := make([]model.PromptRow, 0, len(prompts))
		for name, template := range prompts {
			rows = append(rows, model.PromptRow{Name: name, Template: template})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to save prompts: %w", err)
		}
		return nil
	})
}

// Close releases the underlying connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
