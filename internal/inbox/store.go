package inbox

import (
	"context"

	"email-agent-go/internal/model"
	"email-agent-go/internal/repository"
)

// Store reads the inbox document. The HTTP surface only reads it; the
// syncer is the sole writer.
type Store struct {
	path string
}

// NewStore creates an inbox store over the document at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// List returns every email in document order, or an empty list when the
// document does not exist
func (s *Store) List(ctx context.Context) ([]model.Email, error) {
	emails := []model.Email{}
	if _, err := repository.ReadDocument(s.path, &emails); err != nil {
		return nil, err
	}
	if emails == nil {
		emails = []model.Email{}
	}
	return emails, nil
}

// Find returns the first email whose id equals id
func (s *Store) Find(ctx context.Context, id int) (model.Email, bool, error) {
	emails, err := s.List(ctx)
	if err != nil {
		return model.Email{}, false, err
	}
	for _, e := range emails {
		if e.ID == id {
			return e, true, nil
		}
	}
	return model.Email{}, false, nil
}

// Append adds messages not yet present in the document and returns the
// emails that were added. New ids continue after the highest existing id.
func (s *Store) Append(ctx context.Context, messages []Message) ([]model.Email, error) {
	if len(messages) == 0 {
		return nil, nil
	}

	emails, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(emails))
	nextID := 1
	for _, e := range emails {
		if e.MessageID != "" {
			seen[e.MessageID] = true
		}
		if e.ID >= nextID {
			nextID = e.ID + 1
		}
	}

	var added []model.Email
	for _, msg := range messages {
		if msg.ID != "" && seen[msg.ID] {
			continue
		}
		email := toEmail(msg, nextID)
		nextID++
		seen[msg.ID] = true
		added = append(added, email)
	}

	if len(added) == 0 {
		return nil, nil
	}

	emails = append(emails, added...)
	if err := repository.WriteDocument(s.path, emails); err != nil {
		return nil, err
	}
	return added, nil
}
