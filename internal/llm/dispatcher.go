package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"email-agent-go/internal/heuristic"
	metricsPkg "email-agent-go/internal/metrics"
)

// HeuristicSource is reported when the heuristic path produced the output
const HeuristicSource = "heuristic"

// NoMatchOutput is returned when no heuristic applies to a task. It is a
// JSON string literal so callers parsing the output still succeed.
const NoMatchOutput = `"MOCK_LLM: no match for prompt; implement local model for better output."`

// Result is a dispatched generation and where it came from
type Result struct {
	Output string
	Source string
}

// Dispatcher chooses between a generative backend and the heuristics
type Dispatcher struct {
	generator TextGenerator
	timeout   time.Duration
	metrics   *metricsPkg.Metrics
}

// NewDispatcher creates a dispatcher. A nil generator disables the
// generative backend entirely.
func NewDispatcher(generator TextGenerator, timeout time.Duration, metrics *metricsPkg.Metrics) *Dispatcher {
	return &Dispatcher{
		generator: generator,
		timeout:   timeout,
		metrics:   metrics,
	}
}

// Backend returns the configured backend name, or HeuristicSource
func (d *Dispatcher) Backend() string {
	if d.generator == nil {
		return HeuristicSource
	}
	return d.generator.Name()
}

// pinger is implemented by backends that can report availability
type pinger interface {
	HealthPing(ctx context.Context) error
}

// Ping checks the backend when it supports a health probe
func (d *Dispatcher) Ping(ctx context.Context) error {
	if p, ok := d.generator.(pinger); ok {
		return p.HealthPing(ctx)
	}
	return nil
}

// Generate returns the raw output for task. It never fails: backend
// errors degrade to the heuristic path.
func (d *Dispatcher) Generate(ctx context.Context, task Task, maxTokens int) string {
	return d.Run(ctx, task, maxTokens).Output
}

// Run is Generate plus the source of the output
func (d *Dispatcher) Run(ctx context.Context, task Task, maxTokens int) Result {
	if d.generator != nil {
		outcome := d.attempt(ctx, task.Prompt, maxTokens)
		if outcome.Ok() {
			return Result{Output: outcome.Output, Source: d.generator.Name()}
		}
		logrus.WithFields(logrus.Fields{
			"backend": d.generator.Name(),
			"kind":    task.Kind.String(),
		}).Warnf("Generation failed, using heuristics: %v", outcome.Err)
	}

	d.metrics.HeuristicFallbacks.WithLabelValues(task.Kind.String()).Inc()
	return Result{Output: heuristicOutput(task), Source: HeuristicSource}
}

// attempt calls the backend under the configured timeout
func (d *Dispatcher) attempt(ctx context.Context, prompt string, maxTokens int) Outcome {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	output, err := d.generator.Generate(ctx, prompt, maxTokens)
	d.metrics.GenerationDuration.Observe(time.Since(start).Seconds())

	if err == nil && strings.TrimSpace(output) == "" {
		err = fmt.Errorf("empty output")
	}
	if err != nil {
		d.metrics.GenerationRequests.WithLabelValues(d.generator.Name(), "failure").Inc()
		return Outcome{Err: fmt.Errorf("%w: %s: %v", ErrGenerationFailure, d.generator.Name(), err)}
	}

	d.metrics.GenerationRequests.WithLabelValues(d.generator.Name(), "success").Inc()
	return Outcome{Output: output}
}

func heuristicOutput(task Task) string {
	switch task.Kind {
	case KindCategorize:
		return encode(heuristic.Classify(task.Text))
	case KindExtractActions:
		return encode(heuristic.ExtractActions(task.Text))
	case KindDraftReply:
		return encode(heuristic.DraftReply(task.Text, task.Tone))
	default:
		return NoMatchOutput
	}
}

func encode(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		logrus.Errorf("Failed to encode heuristic output: %v", err)
		return NoMatchOutput
	}
	return string(data)
}
