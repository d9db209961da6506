package inbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"email-agent-go/internal/metrics"
	"email-agent-go/internal/model"
)

// Processor runs the categorize and extract pipeline for one email
type Processor interface {
	ProcessEmail(ctx context.Context, emailID int) (model.ProcessedRecord, error)
}

// Status describes the syncer for the control endpoints
type Status struct {
	Running         bool      `json:"running"`
	Source          string    `json:"source"`
	IntervalMinutes int       `json:"interval_minutes"`
	AutoProcess     bool      `json:"auto_process"`
	NextRun         time.Time `json:"next_run"`
	LastRun         time.Time `json:"last_run"`
	LastAdded       int       `json:"last_added"`
	LastError       string    `json:"last_error,omitempty"`
}

// Syncer periodically copies new upstream messages into the inbox document
type Syncer struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	interval  int
	source    Source
	store     *Store
	processor Processor
	metrics   *metrics.Metrics
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	cycleMu   sync.Mutex
	isRunning bool
	lastRun   time.Time
	lastAdded int
	lastErr   error
	mu        sync.RWMutex
}

// NewSyncer creates a syncer. A nil processor disables auto-processing.
func NewSyncer(intervalMinutes int, source Source, store *Store, processor Processor, m *metrics.Metrics) *Syncer {
	return &Syncer{
		cron:      cron.New(),
		interval:  intervalMinutes,
		source:    source,
		store:     store,
		processor: processor,
		metrics:   m,
	}
}

// Start schedules a sync cycle every interval minutes
func (s *Syncer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("syncer is already running")
	}
	if s.interval <= 0 {
		return fmt.Errorf("invalid sync interval: %d minutes", s.interval)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %dm", s.interval), s.scheduledSync)
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.WithFields(logrus.Fields{
		"source":   s.source.Name(),
		"interval": s.interval,
	}).Info("Inbox syncer started")
	return nil
}

// Stop unschedules the job and waits for a running cycle to finish
func (s *Syncer) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}

	s.cancel()
	s.cron.Remove(s.entryID)
	stopped := s.cron.Stop()
	s.isRunning = false
	s.mu.Unlock()

	select {
	case <-stopped.Done():
		logrus.Info("Inbox syncer stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Inbox syncer stop timeout, forcing shutdown")
	}
	return nil
}

// IsRunning reports whether the cron job is scheduled
func (s *Syncer) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Syncer) scheduledSync() {
	s.mu.RLock()
	ctx := s.ctx
	running := s.isRunning
	s.mu.RUnlock()

	if !running {
		return
	}
	if _, err := s.sync(ctx); err != nil {
		logrus.Errorf("Inbox sync failed: %v", err)
	}
}

// RunOnce performs one sync cycle outside the schedule
func (s *Syncer) RunOnce(ctx context.Context) ([]model.Email, error) {
	logrus.Info("Running inbox sync once")
	return s.sync(ctx)
}

// sync fetches, appends and optionally processes new messages. Cycles
// never overlap.
func (s *Syncer) sync(ctx context.Context) ([]model.Email, error) {
	s.wg.Add(1)
	defer s.wg.Done()

	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	startTime := time.Now()
	s.metrics.InboxSyncs.Inc()

	added, err := s.fetchAndAppend(ctx)
	s.recordRun(startTime, len(added), err)
	if err != nil {
		s.metrics.InboxSyncFailures.Inc()
		return nil, err
	}
	s.metrics.InboxFetched.Add(float64(len(added)))

	if s.processor != nil {
		for _, email := range added {
			if ctx.Err() != nil {
				break
			}
			if _, err := s.processor.ProcessEmail(ctx, email.ID); err != nil {
				logrus.WithField("email_id", email.ID).Errorf("Failed to auto-process email: %v", err)
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"source":   s.source.Name(),
		"added":    len(added),
		"duration": time.Since(startTime).String(),
	}).Info("Inbox sync cycle completed")
	return added, nil
}

func (s *Syncer) fetchAndAppend(ctx context.Context) ([]model.Email, error) {
	messages, err := s.source.FetchNewEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch emails: %w", err)
	}

	added, err := s.store.Append(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to update inbox: %w", err)
	}
	return added, nil
}

func (s *Syncer) recordRun(at time.Time, added int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastRun = at
	s.lastAdded = added
	s.lastErr = err
}

// GetNextRun returns the time of the next scheduled cycle
func (s *Syncer) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// GetLastRun returns the start time of the last cycle, scheduled or manual
func (s *Syncer) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// Status returns a snapshot of the syncer state
func (s *Syncer) Status() Status {
	status := Status{
		Running:         s.IsRunning(),
		Source:          s.source.Name(),
		IntervalMinutes: s.interval,
		AutoProcess:     s.processor != nil,
		NextRun:         s.GetNextRun(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	status.LastRun = s.lastRun
	status.LastAdded = s.lastAdded
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	return status
}

// Wait blocks until in-flight cycles have finished
func (s *Syncer) Wait() {
	s.wg.Wait()
}

// Close stops the schedule and releases the source
func (s *Syncer) Close() error {
	if err := s.Stop(); err != nil {
		return err
	}
	s.Wait()
	return s.source.Close()
}
