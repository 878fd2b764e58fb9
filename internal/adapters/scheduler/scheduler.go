package scheduler

import (
	"context"
	"fmt"
	"property-browser-service/internal/contextkeys"
	"property-browser-service/internal/core/port"
	"time"

	"github.com/robfig/cron/v3"
)

// Job - периодическая задача сервиса
type Job struct {
	Name     string
	Schedule string // cron-выражение или "@every 5m"
	Timeout  time.Duration
	Run      func(ctx context.Context)
}

// Scheduler запускает фоновые задачи по расписанию cron
type Scheduler struct {
	cron   *cron.Cron
	logger port.LoggerPort
}

func NewScheduler(logger port.LoggerPort) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		logger: logger.WithFields(port.Fields{"component": "Scheduler"}),
	}
}

// Add регистрирует задачу. Пустое расписание выключает задачу.
func (s *Scheduler) Add(job Job) error {
	if job.Schedule == "" {
		s.logger.Info("Job disabled", port.Fields{"job": job.Name})
		return nil
	}
	if job.Timeout <= 0 {
		job.Timeout = time.Minute
	}

	jobLogger := s.logger.WithFields(port.Fields{"job": job.Name})
	_, err := s.cron.AddFunc(job.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), job.Timeout)
		defer cancel()
		ctx = contextkeys.ContextWithLogger(ctx, jobLogger)

		start := time.Now()
		job.Run(ctx)
		jobLogger.Debug("Job finished", port.Fields{"duration_ms": time.Since(start).Milliseconds()})
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s (%s): %w", job.Name, job.Schedule, err)
	}
	s.logger.Info("Job scheduled", port.Fields{"job": job.Name, "schedule": job.Schedule})
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop ждет завершения запущенных задач или отмены ctx
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out", nil)
	}
}
