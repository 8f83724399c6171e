package services

import (
	"context"
	"testing"

	"github.com/learnhub/learnhub-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollCreatesActiveEnrollment(t *testing.T) {
	f := newFixture(t)
	svc := NewEnrollmentService(f.db)

	enrollment, err := svc.Enroll(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusActive, enrollment.Status)
	within(t, 0, enrollment.Progress)
	assert.Nil(t, enrollment.CompletedAt)
}

func TestEnrollBumpsStudentCounters(t *testing.T) {
	f := newFixture(t)
	svc := NewEnrollmentService(f.db)
	second := createUser(t, f.db, "second@test.dev", model.RoleStudent)

	_, err := svc.Enroll(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), second.ID, f.course.ID)
	require.NoError(t, err)

	var course model.Course
	require.NoError(t, f.db.First(&course, f.course.ID).Error)
	assert.Equal(t, int64(2), course.TotalStudents)

	var instructor model.User
	require.NoError(t, f.db.First(&instructor, f.instructor.ID).Error)
	assert.Equal(t, int64(2), instructor.TotalStudents)
}

func TestEnrollTwiceIsConflict(t *testing.T) {
	f := newFixture(t)
	svc := NewEnrollmentService(f.db)

	_, err := svc.Enroll(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), f.student.ID, f.course.ID)
	require.ErrorIs(t, err, ErrConflict)

	// The failed attempt must not have moved the counters.
	var course model.Course
	require.NoError(t, f.db.First(&course, f.course.ID).Error)
	assert.Equal(t, int64(1), course.TotalStudents)
}

func TestEnrollUnpublishedCourse(t *testing.T) {
	f := newFixture(t)
	svc := NewEnrollmentService(f.db)
	require.NoError(t, f.db.Model(&model.Course{}).
		Where("id = ?", f.course.ID).
		Update("published", false).Error)

	_, err := svc.Enroll(context.Background(), f.student.ID, f.course.ID)
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
}

func TestEnrollUnknownCourse(t *testing.T) {
	f := newFixture(t)
	svc := NewEnrollmentService(f.db)

	_, err := svc.Enroll(context.Background(), f.student.ID, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListForStudentEnrollments(t *testing.T) {
	f := newFixture(t)
	svc := NewEnrollmentService(f.db)
	other := createCourse(t, f.db, f.instructor.ID, [][]int{{1}})

	_, err := svc.Enroll(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	_, err = svc.Enroll(context.Background(), f.student.ID, other.ID)
	require.NoError(t, err)

	enrollments, err := svc.ListForStudent(context.Background(), f.student.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	for _, e := range enrollments {
		assert.NotEmpty(t, e.Course.Title)
	}
}
