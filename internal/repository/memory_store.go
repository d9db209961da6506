package repository

import (
	"context"
	"sync"

	"email-agent-go/internal/model"
)

// MemoryStore keeps every collection in process memory
type MemoryStore struct {
	mu        sync.RWMutex
	processed map[string]model.ProcessedRecord
	drafts    []model.Draft
	prompts   model.PromptSet
	stamper
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		processed: make(map[string]model.ProcessedRecord),
		prompts:   model.PromptSet{},
		stamper:   newStamper(opts),
	}
}

// GetProcessed returns a copy of every processed record
func (s *MemoryStore) GetProcessed(ctx context.Context) (map[string]model.ProcessedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.ProcessedRecord, len(s.processed))
	for id, record := range s.processed {
		out[id] = record
	}
	return out, nil
}

// SetProcessed creates or overwrites the record for id
func (s *MemoryStore) SetProcessed(ctx context.Context, id string, record model.ProcessedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.EmailID = id
	s.processed[id] = record
	return nil
}

// ListDrafts returns all drafts in creation order
func (s *MemoryStore) ListDrafts(ctx context.Context) ([]model.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Draft, len(s.drafts))
	copy(out, s.drafts)
	return out, nil
}

// CreateDraft appends a new draft
func (s *MemoryStore) CreateDraft(ctx context.Context, input model.DraftInput) (model.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.newDraft(input)
	s.drafts = append(s.drafts, draft)
	return draft, nil
}

// GetDraft returns the draft with id
func (s *MemoryStore) GetDraft(ctx context.Context, id string) (model.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.drafts {
		if d.ID == id {
			return d, nil
		}
	}
	return model.Draft{}, ErrDraftNotFound
}

// UpdateDraft applies patch to the draft with id
func (s *MemoryStore) UpdateDraft(ctx context.Context, id string, patch model.DraftPatch) (model.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.drafts {
		if s.drafts[i].ID == id {
			s.applyPatch(&s.drafts[i], patch)
			return s.drafts[i], nil
		}
	}
	return model.Draft{}, ErrDraftNotFound
}

// DeleteDraft removes the draft with id
func (s *MemoryStore) DeleteDraft(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range s.drafts {
		if d.ID == id {
			s.drafts = append(s.drafts[:i:i], s.drafts[i+1:]...)
			return nil
		}
	}
	return ErrDraftNotFound
}

// GetPrompts returns a copy of the prompt template set
func (s *MemoryStore) GetPrompts(ctx context.Context) (model.PromptSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(model.PromptSet, len(s.prompts))
	for k, v := range s.prompts {
		out[k] = v
	}
	return out, nil
}

// SavePrompts replaces the prompt template set
func (s *MemoryStore) SavePrompts(ctx context.Context, prompts model.PromptSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = make(model.PromptSet, len(prompts))
	for k, v := range prompts {
		s.prompts[k] = v
	}
	return nil
}

// Close is a no-op for in-memory storage
func (s *MemoryStore) Close() error {
	return nil
}
