package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"hrdesk/internal/domain/auth"
	"hrdesk/internal/domain/leave"
	"hrdesk/internal/platform/apperr"
	"hrdesk/internal/platform/config"
)

const (
	JobCarryOver    = "leave_carry_over"
	JobSessionSweep = "payroll_session_sweep"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// CarryOverRunner is the part of the leave service the scheduler drives.
type CarryOverRunner interface {
	CarryOver(ctx context.Context, actor auth.Principal, year int) (leave.CarryOverSummary, error)
	CarryOverPending(ctx context.Context, year int) (bool, error)
}

// SessionSweeper drops expired payroll previews.
type SessionSweeper interface {
	SweepSessions() int
}

type Service struct {
	Runs    RunStore
	Cfg     config.Config
	Leave   CarryOverRunner
	Payroll SessionSweeper
	Now     func() time.Time
	queue   chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(runs RunStore, cfg config.Config, leaveSvc CarryOverRunner, payrollSvc SessionSweeper) *Service {
	return &Service{
		Runs:    runs,
		Cfg:     cfg,
		Leave:   leaveSvc,
		Payroll: payrollSvc,
		Now:     time.Now,
		queue:   make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.CarryOverCheckInterval > 0 && s.Leave != nil {
		go s.scheduleCarryOver(ctx, s.Cfg.CarryOverCheckInterval)
	}
	if s.Cfg.SessionSweepInterval > 0 && s.Payroll != nil {
		go s.scheduleSweep(ctx, s.Cfg.SessionSweepInterval)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// CarryOverNow runs a carry-over for year on behalf of actor and records the run.
func (s *Service) CarryOverNow(ctx context.Context, actor auth.Principal, year int) (leave.CarryOverSummary, error) {
	out, err := s.RunNow(ctx, JobCarryOver, func(ctx context.Context) (any, error) {
		return s.Leave.CarryOver(ctx, actor, year)
	})
	summary, _ := out.(leave.CarryOverSummary)
	return summary, err
}

func (s *Service) History(ctx context.Context, actor auth.Principal, jobType string, limit int) ([]Run, error) {
	if !auth.Can(actor, auth.ActOpsRead, auth.Resource{}) {
		return nil, apperr.Forbidden(errors.New("jobs: forbidden"))
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.Runs.ListRuns(ctx, jobType, limit)
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID, err := s.Runs.StartRun(ctx, j.Type, s.Now().UTC())
	if err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	payload := details
	if err != nil {
		status = StatusFailed
		payload = map[string]any{"error": err.Error(), "result": details}
	}
	detailsJSON, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.Runs.FinishRun(ctx, runID, status, detailsJSON, s.Now().UTC()); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

// checkCarryOver enqueues the previous year's carry-over once a new year
// has started and that year still has unprocessed balances.
func (s *Service) checkCarryOver(ctx context.Context) {
	year := s.Now().UTC().Year() - 1
	pending, err := s.Leave.CarryOverPending(ctx, year)
	if err != nil {
		slog.Warn("carry-over check failed", "year", year, "err", err)
		return
	}
	if !pending {
		return
	}
	s.Enqueue(JobCarryOver, func(ctx context.Context) (any, error) {
		return s.Leave.CarryOver(ctx, auth.SystemPrincipal(), year)
	})
}

func (s *Service) scheduleCarryOver(ctx context.Context, interval time.Duration) {
	s.checkCarryOver(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkCarryOver(ctx)
		}
	}
}

// scheduleSweep runs inline; sweeping is cheap and not worth a job_runs row.
func (s *Service) scheduleSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Payroll.SweepSessions(); removed > 0 {
				slog.Info("expired payroll previews removed", "jobType", JobSessionSweep, "count", removed)
			}
		}
	}
}
