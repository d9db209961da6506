package inbox

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"email-agent-go/internal/metrics"
	"email-agent-go/internal/model"
)

type fakeSource struct {
	batches [][]Message
	err     error
	closed  bool
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchNewEmails(ctx context.Context) ([]Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

type recordingProcessor struct {
	mu  sync.Mutex
	ids []int
}

func (p *recordingProcessor) ProcessEmail(ctx context.Context, emailID int) (model.ProcessedRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, emailID)
	return model.ProcessedRecord{}, nil
}

func newTestSyncer(t *testing.T, source Source, processor Processor) (*Syncer, *Store, *metrics.Metrics) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "inbox.json"))
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return NewSyncer(5, source, store, processor, m), store, m
}

func TestRunOnceAppendsAndAutoProcesses(t *testing.T) {
	source := &fakeSource{batches: [][]Message{{
		{ID: "m1", Subject: "One", From: "a@example.com", Body: "first"},
		{ID: "m2", Subject: "Two", From: "b@example.com", Body: "second"},
	}}}
	processor := &recordingProcessor{}
	syncer, store, m := newTestSyncer(t, source, processor)

	added, err := syncer.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, []int{1, 2}, processor.ids)

	emails, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, emails, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.InboxSyncs))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.InboxFetched))

	status := syncer.Status()
	assert.False(t, status.Running)
	assert.True(t, status.AutoProcess)
	assert.Equal(t, 2, status.LastAdded)
	assert.False(t, status.LastRun.IsZero())
	assert.Empty(t, status.LastError)
}

func TestRunOnceWithoutProcessor(t *testing.T) {
	source := &fakeSource{batches: [][]Message{{{ID: "m1", Subject: "One"}}}}
	syncer, _, _ := newTestSyncer(t, source, nil)

	added, err := syncer.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, added, 1)
	assert.False(t, syncer.Status().AutoProcess)
}

func TestRunOnceFetchFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("connection reset")}
	syncer, _, m := newTestSyncer(t, source, nil)

	_, err := syncer.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InboxSyncFailures))
	assert.Contains(t, syncer.Status().LastError, "connection reset")
}

func TestStartStop(t *testing.T) {
	source := &fakeSource{}
	syncer, _, _ := newTestSyncer(t, source, nil)

	require.NoError(t, syncer.Start())
	assert.True(t, syncer.IsRunning())
	assert.False(t, syncer.GetNextRun().IsZero())
	assert.Error(t, syncer.Start())

	require.NoError(t, syncer.Stop())
	assert.False(t, syncer.IsRunning())
	assert.True(t, syncer.GetNextRun().IsZero())

	require.NoError(t, syncer.Start())
	assert.True(t, syncer.IsRunning())
	require.NoError(t, syncer.Close())
	assert.False(t, syncer.IsRunning())
	assert.True(t, source.closed)
}

func TestStartRejectsInvalidInterval(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "inbox.json"))
	syncer := NewSyncer(0, &fakeSource{}, store, nil, metrics.NewMetrics(prometheus.NewRegistry()))

	assert.Error(t, syncer.Start())
	assert.False(t, syncer.IsRunning())
}
