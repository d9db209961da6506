package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metricsPkg "email-agent-go/internal/metrics"
	"email-agent-go/internal/model"
)

// stubGenerator returns a canned output or error and records prompts
type stubGenerator struct {
	output  string
	err     error
	block   bool
	prompts []string
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.output, s.err
}

func newTestMetrics() *metricsPkg.Metrics {
	return metricsPkg.NewMetrics(prometheus.NewRegistry())
}

func TestDispatcherHeuristicWhenDisabled(t *testing.T) {
	m := newTestMetrics()
	d := NewDispatcher(nil, time.Second, m)

	result := d.Run(context.Background(), Task{
		Kind: KindCategorize,
		Text: "Please send the Q3 invoice payment by Friday",
	}, 256)

	assert.Equal(t, HeuristicSource, result.Source)
	assert.JSONEq(t, `{"category":"Important","reason":"Contains payment/invoice information."}`, result.Output)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HeuristicFallbacks.WithLabelValues("categorize")))
	assert.Equal(t, HeuristicSource, d.Backend())
}

func TestDispatcherBackendSuccess(t *testing.T) {
	gen := &stubGenerator{output: "backend says hi"}
	m := newTestMetrics()
	d := NewDispatcher(gen, time.Second, m)

	result := d.Run(context.Background(), Task{Kind: KindCategorize, Prompt: "categorize this", Text: "x"}, 256)

	assert.Equal(t, "backend says hi", result.Output)
	assert.Equal(t, "stub", result.Source)
	assert.Equal(t, []string{"categorize this"}, gen.prompts)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationRequests.WithLabelValues("stub", "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HeuristicFallbacks.WithLabelValues("categorize")))
}

func TestDispatcherBackendFailureFallsBack(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model not loaded")}
	m := newTestMetrics()
	d := NewDispatcher(gen, time.Second, m)

	output := d.Generate(context.Background(), Task{
		Kind: KindExtractActions,
		Text: "Please send the Q3 invoice payment by Friday",
	}, 256)

	var items []model.ActionItem
	require.NoError(t, json.Unmarshal([]byte(output), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "send the Q3 invoice payment by Friday", items[0].Task)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationRequests.WithLabelValues("stub", "failure")))
}

func TestDispatcherEmptyOutputFallsBack(t *testing.T) {
	d := NewDispatcher(&stubGenerator{output: "  \n"}, time.Second, newTestMetrics())

	result := d.Run(context.Background(), Task{Kind: KindDraftReply, Text: "Hello"}, 256)

	assert.Equal(t, HeuristicSource, result.Source)
	var reply model.DraftReply
	require.NoError(t, json.Unmarshal([]byte(result.Output), &reply))
	assert.Equal(t, "Re: Hello", reply.Subject)
}

func TestDispatcherTimeoutFallsBack(t *testing.T) {
	d := NewDispatcher(&stubGenerator{block: true}, 20*time.Millisecond, newTestMetrics())

	result := d.Run(context.Background(), Task{Kind: KindCategorize, Text: "weekly digest"}, 256)

	assert.Equal(t, HeuristicSource, result.Source)
	assert.Contains(t, result.Output, "Newsletter")
}

func TestDispatcherUnknownKind(t *testing.T) {
	d := NewDispatcher(nil, time.Second, newTestMetrics())

	output := d.Generate(context.Background(), Task{Text: "categorize this please"}, 256)

	assert.Equal(t, NoMatchOutput, output)
	var s string
	assert.NoError(t, json.Unmarshal([]byte(output), &s))
}

func TestDispatcherUsesTaskKindNotPromptWords(t *testing.T) {
	d := NewDispatcher(nil, time.Second, newTestMetrics())

	// The prompt mentions categories and replies but the task is extraction
	output := d.Generate(context.Background(), Task{
		Kind:   KindExtractActions,
		Prompt: "Categorize and draft a reply",
		Text:   "Hello there",
	}, 256)

	assert.Equal(t, "[]", output)
}

func TestAgentQuery(t *testing.T) {
	gen := &stubGenerator{output: `{"subject":"Re: hi","body":"ok"}`}
	d := NewDispatcher(gen, time.Second, newTestMetrics())
	email := model.Email{ID: 7, Subject: "Lunch", Sender: "amy@example.com", Body: "Can we meet?"}
	tone := "friendly"

	result := d.AgentQuery(context.Background(), KindDraftReply, email,
		"Draft a reply. Tone: {user_instruction}\n\nEmail:\n{email_text}", &tone, 256)

	assert.Equal(t, `{"subject":"Re: hi","body":"ok"}`, result.Output)
	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Tone: friendly")
	assert.Contains(t, prompt, "Can we meet?\n\nFull email metadata:\n")
	assert.Contains(t, prompt, `"sender":"amy@example.com"`)
}

func TestAgentQueryHeuristicTone(t *testing.T) {
	d := NewDispatcher(nil, time.Second, newTestMetrics())
	email := model.Email{ID: 1, Body: "Let's schedule a meeting"}
	tone := "formal"

	result := d.AgentQuery(context.Background(), KindDraftReply, email, "{email_text}", &tone, 256)

	var reply model.DraftReply
	require.NoError(t, json.Unmarshal([]byte(result.Output), &reply))
	assert.Contains(t, reply.Body, "30-minute meeting")
	assert.Contains(t, reply.Body, "Tone requested: formal")
}

func TestRenderPromptWithoutInstruction(t *testing.T) {
	prompt := RenderPrompt("A {email_text} B {user_instruction}", "body", nil)
	assert.Equal(t, "A body B {user_instruction}", prompt)
}
