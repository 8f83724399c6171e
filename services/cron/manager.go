package cron

import (
	"log"
	"time"

	"github.com/learnhub/learnhub-api/model"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron *cron.Cron
	db   *gorm.DB
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron: c,
		db:   db,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Hourly: reconcile denormalized course/instructor counters
	_, err := m.cron.AddFunc("0 0 * * * *", func() {
		m.logJobStart("reconcile_counters")
		m.ReconcileCounters()
	})
	if err != nil {
		return err
	}

	// 2. Daily at 03:00: cleanup expired blacklisted tokens
	_, err = m.cron.AddFunc("0 0 3 * * *", func() {
		m.logJobStart("cleanup_token_blacklist")
		m.CleanupTokenBlacklist()
	})
	if err != nil {
		return err
	}

	// 3. Daily at 04:00: cleanup old cron job logs
	_, err = m.cron.AddFunc("0 0 4 * * *", func() {
		m.logJobStart("cleanup_cron_logs")
		m.CleanupOldJobLogs()
	})
	return err
}

// logJobStart records the start of a cron job execution
func (m *CronManager) logJobStart(jobName string) {
	entry := model.CronJobLog{
		JobName:   jobName,
		Status:    "started",
		StartedAt: time.Now(),
	}
	if err := m.db.Create(&entry).Error; err != nil {
		log.Printf("Failed to log cron job start for %s: %v", jobName, err)
	}
}

// logJobResult records the outcome of a cron job execution
func (m *CronManager) logJobResult(jobName string, startedAt time.Time, message string, jobErr error) {
	now := time.Now()
	entry := model.CronJobLog{
		JobName:     jobName,
		StartedAt:   startedAt,
		CompletedAt: &now,
		Duration:    int(now.Sub(startedAt).Milliseconds()),
		Message:     message,
	}
	if jobErr != nil {
		entry.Status = "failed"
		entry.ErrorMsg = jobErr.Error()
	} else {
		entry.Status = "completed"
	}
	if err := m.db.Create(&entry).Error; err != nil {
		log.Printf("Failed to log cron job result for %s: %v", jobName, err)
	}
}
