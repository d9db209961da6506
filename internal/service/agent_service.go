// Package service implements the assistant's use cases on top of the
// inbox, the record stores and the generation dispatcher.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"email-agent-go/internal/llm"
	"email-agent-go/internal/metrics"
	"email-agent-go/internal/model"
	"email-agent-go/internal/repository"
)

var (
	// ErrEmailNotFound is returned for an email id absent from the inbox
	ErrEmailNotFound = errors.New("email not found")
	// ErrUnknownPromptType is returned for an unmapped agent prompt type
	ErrUnknownPromptType = errors.New("unknown prompt_type")
	// ErrPromptMissing is returned when the prompt set lacks a required template
	ErrPromptMissing = errors.New("prompt template missing")
	// ErrSendingDisabled is returned when no draft sender is configured
	ErrSendingDisabled = errors.New("draft sending is not configured")
)

// Inbox is the read side of the inbox document
type Inbox interface {
	List(ctx context.Context) ([]model.Email, error)
	Find(ctx context.Context, id int) (model.Email, bool, error)
}

// DraftSender delivers a draft as a reply to original
type DraftSender interface {
	SendReply(ctx context.Context, draft model.Draft, original model.Email) (string, error)
}

// promptBinding ties an agent prompt type to its template and task kind
type promptBinding struct {
	key  string
	kind llm.Kind
}

var promptTypes = map[string]promptBinding{
	"categorization": {key: model.CategorizationPromptKey, kind: llm.KindCategorize},
	"action":         {key: model.ActionPromptKey, kind: llm.KindExtractActions},
	"auto_reply":     {key: model.AutoReplyPromptKey, kind: llm.KindDraftReply},
	"reply":          {key: model.AutoReplyPromptKey, kind: llm.KindDraftReply},
}

// QueryRequest is an ad-hoc agent query against one email
type QueryRequest struct {
	EmailID         int
	PromptType      string
	UserInstruction *string
}

// QueryResult carries the raw output and its JSON decoding, which is nil
// when the output is not valid JSON
type QueryResult struct {
	Raw    string `json:"raw"`
	Parsed any    `json:"parsed"`
}

// SendResult reports a delivered draft
type SendResult struct {
	DraftID   string `json:"draft_id"`
	MessageID string `json:"message_id"`
	To        string `json:"to"`
}

// AgentService orchestrates processing, agent queries and drafts
type AgentService struct {
	inbox      Inbox
	processed  repository.ProcessedStore
	drafts     repository.DraftStore
	prompts    repository.PromptStore
	dispatcher *llm.Dispatcher
	sender     DraftSender
	maxTokens  int
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option configures an AgentService
type Option func(*AgentService)

// WithSender enables sending drafts
func WithSender(s DraftSender) Option {
	return func(svc *AgentService) {
		svc.sender = s
	}
}

// WithClock replaces the clock used for processed_at
func WithClock(now func() time.Time) Option {
	return func(svc *AgentService) {
		svc.now = now
	}
}

// NewAgentService creates the service
func NewAgentService(inbox Inbox, store repository.Store, dispatcher *llm.Dispatcher, maxTokens int, m *metrics.Metrics, opts ...Option) *AgentService {
	svc := &AgentService{
		inbox:      inbox,
		processed:  store,
		drafts:     store,
		prompts:    store,
		dispatcher: dispatcher,
		maxTokens:  maxTokens,
		metrics:    m,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Backend names the active generation backend
func (s *AgentService) Backend() string {
	return s.dispatcher.Backend()
}

// BackendHealth probes the generative backend
func (s *AgentService) BackendHealth(ctx context.Context) error {
	return s.dispatcher.Ping(ctx)
}

// SendingEnabled reports whether drafts can be sent
func (s *AgentService) SendingEnabled() bool {
	return s.sender != nil
}

// Inbox returns every email in the inbox
func (s *AgentService) Inbox(ctx context.Context) ([]model.Email, error) {
	return s.inbox.List(ctx)
}

func (s *AgentService) findEmail(ctx context.Context, id int) (model.Email, error) {
	email, ok, err := s.inbox.Find(ctx, id)
	if err != nil {
		return model.Email{}, fmt.Errorf("failed to read inbox: %w", err)
	}
	if !ok {
		return model.Email{}, fmt.Errorf("%w: %d", ErrEmailNotFound, id)
	}
	return email, nil
}

func (s *AgentService) template(ctx context.Context, key string) (string, error) {
	prompts, err := s.prompts.GetPrompts(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load prompts: %w", err)
	}
	template, ok := prompts.Template(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPromptMissing, key)
	}
	return template, nil
}

// ProcessEmail categorizes the email and extracts its action items, then
// stores the raw outputs, overwriting any earlier record
func (s *AgentService) ProcessEmail(ctx context.Context, emailID int) (model.ProcessedRecord, error) {
	email, err := s.findEmail(ctx, emailID)
	if err != nil {
		return model.ProcessedRecord{}, err
	}

	categoryTemplate, err := s.template(ctx, model.CategorizationPromptKey)
	if err != nil {
		return model.ProcessedRecord{}, err
	}
	actionTemplate, err := s.template(ctx, model.ActionPromptKey)
	if err != nil {
		return model.ProcessedRecord{}, err
	}

	category := s.dispatcher.Run(ctx, llm.Task{
		Kind:   llm.KindCategorize,
		Prompt: llm.RenderPrompt(categoryTemplate, email.Body, nil),
		Text:   email.Body,
	}, s.maxTokens)
	actions := s.dispatcher.Run(ctx, llm.Task{
		Kind:   llm.KindExtractActions,
		Prompt: llm.RenderPrompt(actionTemplate, email.Body, nil),
		Text:   email.Body,
	}, s.maxTokens)

	backend := category.Source
	if actions.Source != category.Source {
		backend = model.MixedBackend
	}
	record := model.ProcessedRecord{
		Email:           email,
		CategoryOutput:  category.Output,
		ActionOutput:    actions.Output,
		Backend:         backend,
		CategoryBackend: category.Source,
		ActionBackend:   actions.Source,
		ProcessedAt:     s.now().UTC(),
	}
	if err := s.processed.SetProcessed(ctx, strconv.Itoa(email.ID), record); err != nil {
		return model.ProcessedRecord{}, fmt.Errorf("failed to store processed record: %w", err)
	}
	record.EmailID = strconv.Itoa(email.ID)

	s.metrics.EmailsProcessed.Inc()
	logrus.WithFields(logrus.Fields{
		"email_id": email.ID,
		"backend":  record.Backend,
	}).Info("Email processed")
	return record, nil
}

// Processed returns all processed records keyed by email id
func (s *AgentService) Processed(ctx context.Context) (map[string]model.ProcessedRecord, error) {
	return s.processed.GetProcessed(ctx)
}

// Query runs an ad-hoc agent prompt against one email
func (s *AgentService) Query(ctx context.Context, req QueryRequest) (QueryResult, error) {
	email, err := s.findEmail(ctx, req.EmailID)
	if err != nil {
		return QueryResult{}, err
	}

	binding, ok := promptTypes[req.PromptType]
	if !ok {
		return QueryResult{}, fmt.Errorf("%w: %q", ErrUnknownPromptType, req.PromptType)
	}

	template, err := s.template(ctx, binding.key)
	if err != nil {
		return QueryResult{}, err
	}

	result := s.dispatcher.AgentQuery(ctx, binding.kind, email, template, req.UserInstruction, s.maxTokens)
	s.metrics.AgentQueries.WithLabelValues(req.PromptType).Inc()

	return QueryResult{Raw: result.Output, Parsed: parseOutput(result.Output)}, nil
}

// parseOutput decodes raw as JSON, returning nil when it is not valid JSON
func parseOutput(raw string) any {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}
	return parsed
}

// Prompts returns the current prompt template set
func (s *AgentService) Prompts(ctx context.Context) (model.PromptSet, error) {
	return s.prompts.GetPrompts(ctx)
}

// SavePrompts replaces the prompt template set
func (s *AgentService) SavePrompts(ctx context.Context, prompts model.PromptSet) error {
	if err := s.prompts.SavePrompts(ctx, prompts); err != nil {
		return fmt.Errorf("failed to save prompts: %w", err)
	}
	logrus.WithField("count", len(prompts)).Info("Prompts updated")
	return nil
}
