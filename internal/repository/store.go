// Package repository persists processed records, drafts and prompt
// templates. Callers depend only on the store interfaces; the JSON document
// adapter is the default, with in-memory and SQL adapters alongside.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"email-agent-go/internal/model"
)

// ErrDraftNotFound is returned for an unknown draft id
var ErrDraftNotFound = errors.New("draft not found")

// ProcessedStore persists processed-email results keyed by email id
type ProcessedStore interface {
	GetProcessed(ctx context.Context) (map[string]model.ProcessedRecord, error)
	SetProcessed(ctx context.Context, id string, record model.ProcessedRecord) error
}

// DraftStore persists reply drafts
type DraftStore interface {
	ListDrafts(ctx context.Context) ([]model.Draft, error)
	CreateDraft(ctx context.Context, input model.DraftInput) (model.Draft, error)
	GetDraft(ctx context.Context, id string) (model.Draft, error)
	UpdateDraft(ctx context.Context, id string, patch model.DraftPatch) (model.Draft, error)
	DeleteDraft(ctx context.Context, id string) error
}

// PromptStore persists the prompt template set
type PromptStore interface {
	GetPrompts(ctx context.Context) (model.PromptSet, error)
	SavePrompts(ctx context.Context, prompts model.PromptSet) error
}

// Store is implemented by every adapter
type Store interface {
	ProcessedStore
	DraftStore
	PromptStore
	Close() error
}

// Option configures an adapter
type Option func(*stamper)

// WithClock replaces the clock used for draft timestamps
func WithClock(now func() time.Time) Option {
	return func(s *stamper) {
		s.now = now
	}
}

// stamper assigns draft identifiers and timestamps
type stamper struct {
	now func() time.Time
}

func newStamper(opts []Option) stamper {
	s := stamper{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s stamper) timestamp() time.Time {
	return s.now().UTC()
}

// newDraft builds a draft from input with a fresh id and equal timestamps
func (s stamper) newDraft(input model.DraftInput) model.Draft {
	now := s.timestamp()
	draft := model.Draft{
		ID:            uuid.NewString(),
		Subject:       input.Subject,
		Body:          input.Body,
		CreatedAt:     now,
		UpdatedAt:     now,
		SourceEmailID: input.SourceEmailID,
		Type:          input.Type,
		Metadata:      input.Metadata,
	}
	if draft.Type == "" {
		draft.Type = model.DefaultDraftType
	}
	if draft.Metadata == nil {
		draft.Metadata = map[string]any{}
	}
	return draft
}

// applyPatch merges patch into draft and refreshes updated_at
func (s stamper) applyPatch(draft *model.Draft, patch model.DraftPatch) {
	patch.Apply(draft)
	draft.UpdatedAt = s.timestamp()
}
