package cron

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/learnhub/learnhub-api/database"
	"github.com/learnhub/learnhub-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

func newTestManager(t *testing.T) (*CronManager, *gorm.DB) {
	t.Helper()

	name := fmt.Sprintf("cron_test_%d", atomic.AddInt64(&testDBCounter, 1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return NewCronManager(db), db
}

func TestReconcileCountersRepairsDrift(t *testing.T) {
	m, db := newTestManager(t)

	instructor := model.User{Email: "i@test.dev", PasswordHash: "x", Name: "i", Role: model.RoleInstructor}
	require.NoError(t, db.Create(&instructor).Error)
	student := model.User{Email: "s@test.dev", PasswordHash: "x", Name: "s", Role: model.RoleStudent}
	require.NoError(t, db.Create(&student).Error)

	course := model.Course{
		InstructorID: instructor.ID,
		Title:        "Drifted",
		Published:    true,
		Modules: []model.Module{
			{Title: "M1", Order: 1, Lessons: []model.Lesson{{Title: "L1", Order: 1}, {Title: "L2", Order: 2}}},
			{Title: "M2", Order: 2, Lessons: []model.Lesson{{Title: "L3", Order: 1}}},
		},
	}
	require.NoError(t, db.Create(&course).Error)
	require.NoError(t, db.Create(&model.Enrollment{
		StudentID: student.ID,
		CourseID:  course.ID,
		Status:    model.EnrollmentStatusActive,
	}).Error)

	// Simulate drift from a crashed writer.
	require.NoError(t, db.Model(&model.Course{}).Where("id = ?", course.ID).
		Updates(map[string]interface{}{"total_modules": 9, "total_lessons": 0, "total_students": 5}).Error)
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", instructor.ID).
		Update("total_students", 7).Error)

	m.ReconcileCounters()

	var repaired model.Course
	require.NoError(t, db.First(&repaired, course.ID).Error)
	assert.Equal(t, int64(2), repaired.TotalModules)
	assert.Equal(t, int64(3), repaired.TotalLessons)
	assert.Equal(t, int64(1), repaired.TotalStudents)

	var owner model.User
	require.NoError(t, db.First(&owner, instructor.ID).Error)
	assert.Equal(t, int64(1), owner.TotalStudents)

	var logEntry model.CronJobLog
	require.NoError(t, db.Where("job_name = ?", "reconcile_counters").
		Order("id DESC").First(&logEntry).Error)
	assert.Equal(t, "completed", logEntry.Status)
	assert.Contains(t, logEntry.Message, "course")
}

func TestCleanupTokenBlacklistRemovesExpired(t *testing.T) {
	m, db := newTestManager(t)

	expired := model.JWTTokenBlacklist{Token: "old", Reason: "logout", ExpiresAt: time.Now().Add(-time.Hour)}
	live := model.JWTTokenBlacklist{Token: "new", Reason: "logout", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, db.Create(&expired).Error)
	require.NoError(t, db.Create(&live).Error)

	m.CleanupTokenBlacklist()

	var remaining []model.JWTTokenBlacklist
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].Token)
}
