package cron

import (
	"fmt"
	"log"
	"time"

	"github.com/learnhub/learnhub-api/model"
)

// ReconcileCounters recomputes the denormalized counters from live counts.
// The counters are bumped atomically on the hot paths (enroll, content
// changes); this job repairs any drift from crashes or manual data edits.
func (m *CronManager) ReconcileCounters() {
	startedAt := time.Now()

	courses, err := m.reconcileCourseCounters()
	if err != nil {
		m.logJobResult("reconcile_counters", startedAt, "", err)
		return
	}
	instructors, err := m.reconcileInstructorCounters()
	if err != nil {
		m.logJobResult("reconcile_counters", startedAt, "", err)
		return
	}

	msg := fmt.Sprintf("reconciled %d course and %d instructor counter rows", courses, instructors)
	log.Println("[cron]", msg)
	m.logJobResult("reconcile_counters", startedAt, msg, nil)
}

func (m *CronManager) reconcileCourseCounters() (int64, error) {
	result := m.db.Exec(`
UPDATE courses SET
  total_modules = (
    SELECT COUNT(*) FROM modules
    WHERE modules.course_id = courses.id AND modules.deleted_at IS NULL),
  total_lessons = (
    SELECT COUNT(*) FROM lessons
    JOIN modules ON modules.id = lessons.module_id AND modules.deleted_at IS NULL
    WHERE modules.course_id = courses.id AND lessons.deleted_at IS NULL),
  total_students = (
    SELECT COUNT(*) FROM enrollments
    WHERE enrollments.course_id = courses.id AND enrollments.deleted_at IS NULL)
WHERE courses.deleted_at IS NULL`)
	return result.RowsAffected, result.Error
}

func (m *CronManager) reconcileInstructorCounters() (int64, error) {
	result := m.db.Exec(`
UPDATE users SET total_students = (
  SELECT COUNT(*) FROM enrollments
  JOIN courses ON courses.id = enrollments.course_id AND courses.deleted_at IS NULL
  WHERE courses.instructor_id = users.id AND enrollments.deleted_at IS NULL)
WHERE users.role = ? AND users.deleted_at IS NULL`, model.RoleInstructor)
	return result.RowsAffected, result.Error
}

// CleanupTokenBlacklist removes expired revoked-token entries.
func (m *CronManager) CleanupTokenBlacklist() {
	startedAt := time.Now()

	result := m.db.Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	if result.Error != nil {
		m.logJobResult("cleanup_token_blacklist", startedAt, "", result.Error)
		return
	}

	msg := fmt.Sprintf("removed %d expired blacklist entries", result.RowsAffected)
	m.logJobResult("cleanup_token_blacklist", startedAt, msg, nil)
}

// CleanupOldJobLogs removes cron job logs older than 30 days.
func (m *CronManager) CleanupOldJobLogs() {
	startedAt := time.Now()
	cutoff := time.Now().AddDate(0, 0, -30)

	result := m.db.Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobResult("cleanup_cron_logs", startedAt, "", result.Error)
		return
	}

	msg := fmt.Sprintf("removed %d old job logs", result.RowsAffected)
	m.logJobResult("cleanup_cron_logs", startedAt, msg, nil)
}
