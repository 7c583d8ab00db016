// Package scheduler drives the recurring background jobs (calibration
// sweeps, database maintenance) and tracks each job's last outcome for
// the system status surface.
package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a named unit of background work.
type Job interface {
	Run() error
	Name() string
}

// JobStatus reports a registered job and its most recent run.
type JobStatus struct {
	Name       string `json:"name"`
	Schedule   string `json:"schedule"`
	Runs       int64  `json:"runs"`
	LastRun    string `json:"last_run,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	LastError  string `json:"last_error,omitempty"`
}

type entry struct {
	job    Job
	status JobStatus
}

// Scheduler manages background jobs keyed by name.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates a new scheduler
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		log:     log.With().Str("component", "scheduler").Logger(),
		entries: map[string]*entry{},
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job under a cron schedule. The job's name is the
// handle for RunNow and status reporting, so it must be unique.
// Schedule examples:
//   - "0 */5 * * * *"      - Every 5 minutes
//   - "@hourly"            - Every hour
//   - "@daily"             - Every midnight
//   - "@every 30s"         - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	name := job.Name()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("job %q is already registered", name)
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.execute(name) }); err != nil {
		return err
	}
	s.entries[name] = &entry{
		job:    job,
		status: JobStatus{Name: name, Schedule: schedule},
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", name).
		Msg("Job registered")

	return nil
}

// RunNow executes a registered job immediately, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	_, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	s.log.Info().Str("job", name).Msg("Running job immediately")
	return s.execute(name)
}

// Jobs returns the status of every registered job, sorted by name.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.entries))
	for _, e := range s.entries {
		statuses = append(statuses, e.status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

func (s *Scheduler) execute(name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	s.log.Debug().Str("job", name).Msg("Running job")
	started := time.Now()
	err := e.job.Run()
	elapsed := time.Since(started)

	s.mu.Lock()
	e.status.Runs++
	e.status.LastRun = started.Format(time.RFC3339)
	e.status.DurationMS = elapsed.Milliseconds()
	if err != nil {
		e.status.LastError = err.Error()
	} else {
		e.status.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", name).
			Dur("duration", elapsed).
			Msg("Job failed")
	} else {
		s.log.Debug().
			Str("job", name).
			Dur("duration", elapsed).
			Msg("Job completed")
	}
	return err
}
