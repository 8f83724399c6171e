package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/learnhub/learnhub-api/database"
	"github.com/learnhub/learnhub-api/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

// newTestDB opens an isolated in-memory SQLite database with the full
// schema migrated. Each call gets its own named database so parallel
// tests never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("svc_test_%d", atomic.AddInt64(&testDBCounter, 1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A pinned connection keeps the in-memory database alive for the
	// whole test while leaving the pool free for out-of-band statements
	// run from inside GORM callbacks, which would deadlock against a
	// single-connection pool.
	conn, err := sqlDB.Conn(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))
	return db
}

// fixture is the standard course setup used across service tests: one
// instructor, one student, and a published course with two modules of two
// lessons each. Lessons come back in sequence order.
type fixture struct {
	db         *gorm.DB
	instructor model.User
	student    model.User
	course     model.Course
	lessons    []model.Lesson
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	f := &fixture{db: db}
	f.instructor = createUser(t, db, "instructor@test.dev", model.RoleInstructor)
	f.student = createUser(t, db, "student@test.dev", model.RoleStudent)
	f.course = createCourse(t, db, f.instructor.ID, [][]int{{2}, {2}})
	f.lessons = orderedLessons(t, db, f.course.ID)
	return f
}

func createUser(t *testing.T, db *gorm.DB, email, role string) model.User {
	t.Helper()
	user := model.User{
		Email:        email,
		PasswordHash: "x",
		Name:         email,
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// createCourse builds a published course. moduleShapes holds one entry per
// module; the entry's single int is that module's lesson count.
func createCourse(t *testing.T, db *gorm.DB, instructorID uint, moduleShapes [][]int) model.Course {
	t.Helper()
	course := model.Course{
		InstructorID: instructorID,
		Title:        "Test Course",
		Published:    true,
	}
	for mi, shape := range moduleShapes {
		module := model.Module{
			Title: fmt.Sprintf("Module %d", mi+1),
			Order: mi + 1,
		}
		for li := 0; li < shape[0]; li++ {
			module.Lessons = append(module.Lessons, model.Lesson{
				Title: fmt.Sprintf("Lesson %d.%d", mi+1, li+1),
				Order: li + 1,
			})
		}
		course.Modules = append(course.Modules, module)
	}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func orderedLessons(t *testing.T, db *gorm.DB, courseID uint) []model.Lesson {
	t.Helper()
	var modules []model.Module
	require.NoError(t, db.Preload("Lessons").Where("course_id = ?", courseID).Find(&modules).Error)
	return FlattenLessons(modules)
}

func enroll(t *testing.T, db *gorm.DB, studentID, courseID uint) model.Enrollment {
	t.Helper()
	enrollment := model.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    model.EnrollmentStatusActive,
	}
	require.NoError(t, db.Create(&enrollment).Error)
	return enrollment
}

// completeAll walks the course in order so gating is satisfied at each
// step, and returns the final enrollment state.
func (f *fixture) completeAll(t *testing.T, svc *ProgressService) model.Enrollment {
	t.Helper()
	for _, lesson := range f.lessons {
		_, err := svc.CompleteLesson(context.Background(), f.student.ID, lesson.ID)
		require.NoError(t, err)
	}
	return f.reloadEnrollment(t)
}

func (f *fixture) reloadEnrollment(t *testing.T) model.Enrollment {
	t.Helper()
	var enrollment model.Enrollment
	err := f.db.Where("student_id = ? AND course_id = ?", f.student.ID, f.course.ID).
		First(&enrollment).Error
	require.NoError(t, err)
	return enrollment
}

func within(t *testing.T, expected, actual float64) {
	t.Helper()
	require.InDelta(t, expected, actual, 0.001)
}
