package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brandlift/w9-backend/internal/app/service"
	"github.com/brandlift/w9-backend/pkg/logger"
)

// W9Scheduler runs the time-driven compliance jobs: the nightly expiration
// sweep and the yearly 1099 batch.
type W9Scheduler struct {
	cron             *cron.Cron
	formService      service.W9FormService
	reportingService service.ReportingService
}

func NewW9Scheduler(formService service.W9FormService, reportingService service.ReportingService) *W9Scheduler {
	return &W9Scheduler{
		cron:             cron.New(),
		formService:      formService,
		reportingService: reportingService,
	}
}

func (s *W9Scheduler) Start() error {
	// Nightly at 02:00: age out approved forms past their expiration date
	_, err := s.cron.AddFunc("0 2 * * *", func() {
		expired, err := s.formService.ExpireOverdue(time.Now())
		if err != nil {
			logger.Error("Scheduled form expiration sweep failed", err)
			return
		}
		if expired > 0 {
			logger.Info("Expired overdue W9 forms", map[string]interface{}{
				"count": expired,
			})
		}
	})
	if err != nil {
		logger.Error("Failed to schedule form expiration sweep", err)
		return err
	}

	// January 15th at 03:00: run the 1099 batch for the previous tax year
	_, err = s.cron.AddFunc("0 3 15 1 *", func() {
		year := time.Now().Year() - 1
		result, err := s.reportingService.Generate1099Forms(year)
		if err != nil {
			logger.Error("Scheduled 1099 batch failed", err, map[string]interface{}{
				"year": year,
			})
			return
		}
		logger.Info("Scheduled 1099 batch completed", map[string]interface{}{
			"year":      year,
			"processed": result.Processed,
			"failed":    len(result.Errors),
		})
	})
	if err != nil {
		logger.Error("Failed to schedule 1099 batch", err)
		return err
	}

	s.cron.Start()
	logger.Info("W9 compliance scheduler started", nil)
	return nil
}

func (s *W9Scheduler) Stop() {
	s.cron.Stop()
	logger.Info("W9 compliance scheduler stopped", nil)
}
