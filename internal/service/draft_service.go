package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"email-agent-go/internal/model"
	"email-agent-go/internal/sender"
)

// CreateDraft stores a new draft
func (s *AgentService) CreateDraft(ctx context.Context, input model.DraftInput) (model.Draft, error) {
	draft, err := s.drafts.CreateDraft(ctx, input)
	if err != nil {
		return model.Draft{}, err
	}
	s.metrics.DraftOperations.WithLabelValues("create").Inc()
	logrus.WithField("draft_id", draft.ID).Debug("Draft created")
	return draft, nil
}

// ListDrafts returns all drafts
func (s *AgentService) ListDrafts(ctx context.Context) ([]model.Draft, error) {
	return s.drafts.ListDrafts(ctx)
}

// GetDraft returns one draft
func (s *AgentService) GetDraft(ctx context.Context, id string) (model.Draft, error) {
	return s.drafts.GetDraft(ctx, id)
}

// UpdateDraft applies a partial update
func (s *AgentService) UpdateDraft(ctx context.Context, id string, patch model.DraftPatch) (model.Draft, error) {
	draft, err := s.drafts.UpdateDraft(ctx, id, patch)
	if err != nil {
		return model.Draft{}, err
	}
	s.metrics.DraftOperations.WithLabelValues("update").Inc()
	return draft, nil
}

// DeleteDraft removes a draft
func (s *AgentService) DeleteDraft(ctx context.Context, id string) error {
	if err := s.drafts.DeleteDraft(ctx, id); err != nil {
		return err
	}
	s.metrics.DraftOperations.WithLabelValues("delete").Inc()
	return nil
}

// SendDraft sends a draft as a reply to the sender of its source email
func (s *AgentService) SendDraft(ctx context.Context, id string) (SendResult, error) {
	if s.sender == nil {
		return SendResult{}, ErrSendingDisabled
	}

	draft, err := s.drafts.GetDraft(ctx, id)
	if err != nil {
		return SendResult{}, err
	}
	if draft.SourceEmailID == nil {
		return SendResult{}, fmt.Errorf("%w: draft %s has no source email", sender.ErrNoRecipient, id)
	}

	original, err := s.findEmail(ctx, *draft.SourceEmailID)
	if err != nil {
		return SendResult{}, err
	}

	messageID, err := s.sender.SendReply(ctx, draft, original)
	if err != nil {
		s.metrics.DraftSendFailures.Inc()
		return SendResult{}, err
	}

	s.metrics.DraftsSent.Inc()
	return SendResult{DraftID: draft.ID, MessageID: messageID, To: original.Sender}, nil
}
