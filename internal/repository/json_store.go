package repository

import (
	"context"

	"email-agent-go/internal/model"
)

// JSONPaths locates the documents of a JSONStore
type JSONPaths struct {
	Prompts   string
	Processed string
	Drafts    string
}

// JSONStore keeps each collection in one JSON document. Every mutation
// reads the whole document, changes it in memory and writes it back.
// Nothing serializes concurrent writers; the last write wins.
type JSONStore struct {
	paths JSONPaths
	stamper
}

// NewJSONStore creates a document-backed store
func NewJSONStore(paths JSONPaths, opts ...Option) *JSONStore {
	return &JSONStore{paths: paths, stamper: newStamper(opts)}
}

// GetProcessed returns every processed record keyed by email id
func (s *JSONStore) GetProcessed(ctx context.Context) (map[string]model.ProcessedRecord, error) {
	processed := map[string]model.ProcessedRecord{}
	if _, err := ReadDocument(s.paths.Processed, &processed); err != nil {
		return nil, err
	}
	if processed == nil {
		processed = map[string]model.ProcessedRecord{}
	}
	for id, record := range processed {
		record.EmailID = id
		processed[id] = record
	}
	return processed, nil
}

// SetProcessed creates or overwrites the record for id
func (s *JSONStore) SetProcessed(ctx context.Context, id string, record model.ProcessedRecord) error {
	processed, err := s.GetProcessed(ctx)
	if err != nil {
		return err
	}
	record.EmailID = id
	processed[id] = record
	return WriteDocument(s.paths.Processed, processed)
}

func (s *JSONStore) loadDrafts() ([]model.Draft, error) {
	drafts := []model.Draft{}
	if _, err := ReadDocument(s.paths.Drafts, &drafts); err != nil {
		return nil, err
	}
	if drafts == nil {
		drafts = []model.Draft{}
	}
	return drafts, nil
}

// ListDrafts returns all drafts in creation order
func (s *JSONStore) ListDrafts(ctx context.Context) ([]model.Draft, error) {
	return s.loadDrafts()
}

// CreateDraft appends a new draft
func (s *JSONStore) CreateDraft(ctx context.Context, input model.DraftInput) (model.Draft, error) {
	drafts, err := s.loadDrafts()
	if err != nil {
		return model.Draft{}, err
	}

	draft := s.newDraft(input)
	drafts = append(drafts, draft)
	if err := WriteDocument(s.paths.Drafts, drafts); err != nil {
		return model.Draft{}, err
	}
	return draft, nil
}

// GetDraft returns the draft with id
func (s *JSONStore) GetDraft(ctx context.Context, id string) (model.Draft, error) {
	drafts, err := s.loadDrafts()
	if err != nil {
		return model.Draft{}, err
	}
	for _, d := range drafts {
		if d.ID == id {
			return d, nil
		}
	}
	return model.Draft{}, ErrDraftNotFound
}

// UpdateDraft applies patch to the draft with id
func (s *JSONStore) UpdateDraft(ctx context.Context, id string, patch model.DraftPatch) (model.Draft, error) {
	drafts, err := s.loadDrafts()
	if err != nil {
		return model.Draft{}, err
	}
	for i := range drafts {
		if drafts[i].ID != id {
			continue
		}
		s.applyPatch(&drafts[i], patch)
		if err := WriteDocument(s.paths.Drafts, drafts); err != nil {
			return model.Draft{}, err
		}
		return drafts[i], nil
	}
	return model.Draft{}, ErrDraftNotFound
}

// DeleteDraft removes the draft with id
func (s *JSONStore) DeleteDraft(ctx context.Context, id string) error {
	drafts, err := s.loadDrafts()
	if err != nil {
		return err
	}

	kept := make([]model.Draft, 0, len(drafts))
	for _, d := range drafts {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(drafts) {
		return ErrDraftNotFound
	}
	return WriteDocument(s.paths.Drafts, kept)
}

// GetPrompts returns the prompt template set
func (s *JSONStore) GetPrompts(ctx context.Context) (model.PromptSet, error) {
	prompts := model.PromptSet{}
	if _, err := ReadDocument(s.paths.Prompts, &prompts); err != nil {
		return nil, err
	}
	if prompts == nil {
		prompts = model.PromptSet{}
	}
	return prompts, nil
}

// SavePrompts replaces the prompt template set
func (s *JSONStore) SavePrompts(ctx context.Context, prompts model.PromptSet) error {
	return WriteDocument(s.paths.Prompts, prompts)
}

// Close is a no-op for document storage
func (s *JSONStore) Close() error {
	return nil
}
