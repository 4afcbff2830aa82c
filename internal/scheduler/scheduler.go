// Package scheduler owns the registry of recurring discovery jobs, one
// per (account, discovery type), with start/stop/reload lifecycle and
// manual on-demand triggering.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/replyscout/replyscout/internal/adapter"
	"github.com/replyscout/replyscout/internal/model"
	"github.com/replyscout/replyscout/internal/store"
)

// Discoverer executes one discovery run. Satisfied by *discovery.Service.
type Discoverer interface {
	Discover(ctx context.Context, accountID string, discoveryType model.DiscoveryType) ([]*model.Opportunity, error)
}

// JobKey identifies one scheduled task as "accountID:discoveryType".
func JobKey(accountID string, t model.DiscoveryType) string {
	return accountID + ":" + string(t)
}

// JobHandle is the introspection view of a registered job.
type JobHandle struct {
	Key       string              `json:"key"`
	AccountID string              `json:"accountId"`
	Type      model.DiscoveryType `json:"discoveryType"`
	CronExpr  string              `json:"cronExpression"`
}

// Scheduler drives recurring discovery jobs. Jobs are independent:
// concurrent executions of different jobs are expected, and a manual
// trigger may overlap a timer firing of the same job. Opportunity
// creation is dedup-safe, so overlap never duplicates data.
type Scheduler struct {
	accounts store.Accounts
	disc     Discoverer
	log      zerolog.Logger

	mu          sync.Mutex
	cron        *cron.Cron
	jobs        map[string]JobHandle
	initialized bool
	running     bool
}

// New constructs a scheduler. Call Initialize before Start.
func New(accounts store.Accounts, disc Discoverer, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		accounts: accounts,
		disc:     disc,
		log:      log,
		jobs:     map[string]JobHandle{},
	}
}

// Initialize loads all active accounts and registers a job per enabled
// schedule, timers created but not firing. A bad registration (invalid
// cron expression, duplicate schedule type) is fatal to that registration
// only; the remaining jobs register and the errors are returned joined.
func (s *Scheduler) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.initializeLocked(ctx)
	return err
}

// initializeLocked rebuilds the registry. rebuilt reports whether a new
// registry was installed; it is false only when active accounts could not
// be loaded at all, in which case the previous registry survives.
func (s *Scheduler) initializeLocked(ctx context.Context) (rebuilt bool, err error) {
	accts, err := s.accounts.ListActive(ctx)
	if err != nil {
		return false, fmt.Errorf("load active accounts: %w", err)
	}

	c := cron.New()
	jobs := make(map[string]JobHandle)
	var errs []error

	for _, acct := range accts {
		for _, sched := range acct.Schedules {
			if !sched.Enabled {
				continue
			}
			key := JobKey(acct.AccountID, sched.Type)
			if !sched.Type.Valid() {
				errs = append(errs, fmt.Errorf("%w: job %s has unknown discovery type", model.ErrValidation, key))
				continue
			}
			if _, dup := jobs[key]; dup {
				errs = append(errs, fmt.Errorf("%w: duplicate schedule for job %s", model.ErrConflict, key))
				continue
			}

			accountID, discoveryType := acct.AccountID, sched.Type
			if _, err := c.AddFunc(sched.CronExpr, func() {
				s.runJob(accountID, discoveryType)
			}); err != nil {
				errs = append(errs, fmt.Errorf("%w: job %s has invalid cron expression %q: %v", model.ErrValidation, key, sched.CronExpr, err))
				continue
			}
			jobs[key] = JobHandle{Key: key, AccountID: accountID, Type: discoveryType, CronExpr: sched.CronExpr}
		}
	}

	s.cron = c
	s.jobs = jobs
	s.initialized = true
	s.log.Info().Int("jobs", len(jobs)).Msg("scheduler initialized")
	return true, errors.Join(errs...)
}

// Start arms every registered job's timer.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errors.New("scheduler: Start before Initialize")
	}
	if s.running {
		return nil
	}
	s.cron.Start()
	s.running = true
	s.log.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
	return nil
}

// Stop disarms future timer firings immediately. In-flight executions
// are allowed to finish; callers must tolerate a brief completion after
// Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.log.Info().Msg("scheduler stopped")
}

// Reload rebuilds the registry from current account configuration and
// restores the previous running state. Used after an account's schedules
// change externally. Per-registration failures are returned joined but
// never leave the surviving jobs disarmed; only a total failure to load
// accounts skips the restart, keeping the previous registry stopped.
func (s *Scheduler) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasRunning := s.running
	s.stopLocked()
	rebuilt, err := s.initializeLocked(ctx)
	if wasRunning && rebuilt {
		s.cron.Start()
		s.running = true
	}
	return err
}

// TriggerNow synchronously invokes discovery for one job, bypassing the
// timer. Failures propagate to the caller, unlike scheduled ticks.
func (s *Scheduler) TriggerNow(ctx context.Context, accountID string, t model.DiscoveryType) ([]*model.Opportunity, error) {
	return s.disc.Discover(ctx, accountID, t)
}

// IsRunning reports whether timers are armed.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RegisteredJobs returns a snapshot of the registry.
func (s *Scheduler) RegisteredJobs() map[string]JobHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]JobHandle, len(s.jobs))
	for k, v := range s.jobs {
		out[k] = v
	}
	return out
}

// runJob is the per-tick execution boundary: any failure, including a
// panic, is logged and absorbed so a failing job never stops the
// scheduler or other jobs.
func (s *Scheduler) runJob(accountID string, t model.DiscoveryType) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error().
				Interface("panic", rec).
				Str("account_id", accountID).
				Str("discovery_type", string(t)).
				Msg("discovery tick panicked")
		}
	}()

	inserted, err := s.disc.Discover(context.Background(), accountID, t)
	if err != nil {
		s.log.Error().Err(err).
			Str("account_id", accountID).
			Str("discovery_type", string(t)).
			Str("adapter_error", string(adapter.Classify(err))).
			Msg("scheduled discovery failed")
		return
	}
	if len(inserted) > 0 {
		s.log.Info().
			Str("account_id", accountID).
			Str("discovery_type", string(t)).
			Int("inserted", len(inserted)).
			Msg("scheduled discovery inserted opportunities")
	}
}
