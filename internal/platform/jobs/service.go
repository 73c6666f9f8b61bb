package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"kpi/internal/platform/config"
	"kpi/internal/platform/querier"
)

const (
	JobPurgeResetTokens     = "purge_reset_tokens"
	JobPurgeIdempotencyKeys = "purge_idempotency_keys"
)

type Service struct {
	DB                   querier.Querier
	Interval             time.Duration
	IdempotencyRetention time.Duration
	Now                  func() time.Time
	queue                chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db querier.Querier, cfg config.Config) *Service {
	return &Service{
		DB:                   db,
		Interval:             cfg.MaintenanceInterval,
		IdempotencyRetention: cfg.IdempotencyRetention,
		Now:                  time.Now,
		queue:                make(chan job, 32),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Interval > 0 {
		go s.schedule(ctx, s.Interval)
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

// RunMaintenance executes every purge job synchronously and returns their details by job type.
func (s *Service) RunMaintenance(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	for _, j := range s.maintenanceJobs() {
		details, err := s.runJob(ctx, j)
		if err != nil {
			return out, err
		}
		out[j.Type] = details
	}
	return out, nil
}

func (s *Service) maintenanceJobs() []job {
	return []job{
		{Type: JobPurgeResetTokens, Run: s.PurgeResetTokens},
		{Type: JobPurgeIdempotencyKeys, Run: s.PurgeIdempotencyKeys},
	}
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
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) schedule(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, j := range s.maintenanceJobs() {
				s.Enqueue(j.Type, j.Run)
			}
		}
	}
}

// PurgeResetTokens removes reset tokens that were used or have expired.
func (s *Service) PurgeResetTokens(ctx context.Context) (any, error) {
	cutoff := s.Now().UTC()
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM password_resets
    WHERE used_at IS NOT NULL OR expires_at < $1
  `, cutoff)
	if err != nil {
		return nil, err
	}
	return map[string]any{"cutoff": cutoff, "deleted": tag.RowsAffected()}, nil
}

// PurgeIdempotencyKeys drops stored review responses older than the retention window.
func (s *Service) PurgeIdempotencyKeys(ctx context.Context) (any, error) {
	if s.IdempotencyRetention <= 0 {
		return map[string]any{"deleted": 0, "skipped": true}, nil
	}
	cutoff := s.Now().UTC().Add(-s.IdempotencyRetention)
	tag, err := s.DB.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return nil, err
	}
	return map[string]any{"cutoff": cutoff, "deleted": tag.RowsAffected()}, nil
}
