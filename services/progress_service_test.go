package services

import (
	"context"
	"testing"

	"github.com/learnhub/learnhub-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteLessonRequiresEnrollment(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.db)

	_, err := svc.CompleteLesson(context.Background(), f.student.ID, f.lessons[0].ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCompleteLessonUnknownLesson(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.db)

	_, err := svc.CompleteLesson(context.Background(), f.student.ID, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteLessonEnforcesSequentialGating(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.db)
	enroll(t, f.db, f.student.ID, f.course.ID)

	_, err := svc.CompleteLesson(context.Background(), f.student.ID, f.lessons[1].ID)
	require.Error(t, err)
	assert.True(t, IsInvalidState(err), "locked lesson must be an invalid-state error, got %v", err)
	assert.Contains(t, err.Error(), f.lessons[0].Title, "error should name the prerequisite")

	// Completing the prerequisite unlocks it.
	_, err = svc.CompleteLesson(context.Background(), f.student.ID, f.lessons[0].ID)
	require.NoError(t, err)
	_, err = svc.CompleteLesson(context.Background(), f.student.ID, f.lessons[1].ID)
	require.NoError(t, err)
}

func TestCompleteLessonIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.db)
	enroll(t, f.db, f.student.ID, f.course.ID)

	first, err := svc.CompleteLesson(context.Background(), f.student.ID, f.lessons[0].ID)
	require.NoError(t, err)
	second, err := svc.CompleteLesson(context.Background(), f.student.ID, f.lessons[0].ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CompletedAt.Unix(), second.CompletedAt.Unix())

	var count int64
	require.NoError(t, f.db.Model(&model.LessonProgress{}).
		Where("student_id = ? AND lesson_id = ?", f.student.ID, f.lessons[0].ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	enrollment := f.reloadEnrollment(t)
	within(t, 25, enrollment.Progress)
}

func TestProgressPercentages(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.db)
	enroll(t, f.db, f.student.ID, f.course.ID)

	// 1 of 4
	_, err := svc.CompleteLesson(context.Background(), f.student.ID, f.lessons[0].ID)
	require.NoError(t, err)
	within(t, 25, f.reloadEnrollment(t).Progress)

	// 3 of 4
	for _, lesson := range f.lessons[1:3] {
		_, err := svc.CompleteLesson(context.Background(), f.student.ID, lesson.ID)
		require.NoError(t, err)
	}
	enrollment := f.reloadEnrollment(t)
	within(t, 75, enrollment.Progress)
	assert.Equal(t, model.EnrollmentStatusActive, enrollment.Status)
	assert.Nil(t, enrollment.CompletedAt)
}

func TestCompletingAllLessonsCompletesEnrollment(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.db)
	enroll(t, f.db, f.student.ID, f.course.ID)

	enrollment := f.completeAll(t, svc)
	within(t, 100, enrollment.Progress)
	assert.Equal(t, model.EnrollmentStatusCompleted, enrollment.Status)
	require.NotNil(t, enrollment.CompletedAt)

	// Re-completing a lesson must not move completed_at or regress state.
	completedAt := *enrollment.CompletedAt
	_, err := svc.CompleteLesson(context.Background(), f.student.ID, f.lessons[0].ID)
	require.NoError(t, err)

	again := f.reloadEnrollment(t)
	assert.Equal(t, model.EnrollmentStatusCompleted, again.Status)
	require.NotNil(t, again.CompletedAt)
	assert.True(t, again.CompletedAt.Equal(completedAt))
}

func TestZeroLessonCourseHasZeroProgress(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(db)
	instructor := createUser(t, db, "i@test.dev", model.RoleInstructor)
	student := createUser(t, db, "s@test.dev", model.RoleStudent)

	course := model.Course{InstructorID: instructor.ID, Title: "Empty", Published: true}
	require.NoError(t, db.Create(&course).Error)
	enrollment := enroll(t, db, student.ID, course.ID)

	// Force a recompute through the exported summary path.
	summary, err := svc.CourseProgress(context.Background(), student.ID, course.ID)
	require.NoError(t, err)
	within(t, 0, summary.Progress)
	assert.Equal(t, int64(0), summary.TotalLessons)

	var reloaded model.Enrollment
	require.NoError(t, db.First(&reloaded, enrollment.ID).Error)
	assert.Equal(t, model.EnrollmentStatusActive, reloaded.Status)
}

func TestPreviewLessonBypassesGatingButNotEnrollment(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(db)
	instructor := createUser(t, db, "i@test.dev", model.RoleInstructor)
	student := createUser(t, db, "s@test.dev", model.RoleStudent)

	course := model.Course{
		InstructorID: instructor.ID,
		Title:        "With Preview",
		Published:    true,
		Modules: []model.Module{{
			Title: "M1", Order: 1,
			Lessons: []model.Lesson{
				{Title: "L1", Order: 1},
				{Title: "L2", Order: 2},
				{Title: "L3 preview", Order: 3, IsPreview: true},
			},
		}},
	}
	require.NoError(t, db.Create(&course).Error)
	lessons := orderedLessons(t, db, course.ID)
	preview := lessons[2]

	// Unenrolled students can read a preview but not complete it.
	detail, err := svc.LessonDetail(context.Background(), student.ID, preview.ID)
	require.NoError(t, err)
	assert.Equal(t, preview.ID, detail.ID)

	_, err = svc.CompleteLesson(context.Background(), student.ID, preview.ID)
	require.ErrorIs(t, err, ErrForbidden)

	// Enrolled students can complete the preview out of order.
	enroll(t, db, student.ID, course.ID)
	_, err = svc.CompleteLesson(context.Background(), student.ID, preview.ID)
	require.NoError(t, err)

	// But completing the preview does not unlock its successor chain:
	// lesson 2 still waits on lesson 1.
	_, err = svc.CompleteLesson(context.Background(), student.ID, lessons[1].ID)
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
}

func TestLessonDetailLockedForNonPreview(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.db)
	enroll(t, f.db, f.student.ID, f.course.ID)

	_, err := svc.LessonDetail(context.Background(), f.student.ID, f.lessons[2].ID)
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
}

func TestCourseContentAnnotatesLocks(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.db)
	enroll(t, f.db, f.student.ID, f.course.ID)

	_, err := svc.CompleteLesson(context.Background(), f.student.ID, f.lessons[0].ID)
	require.NoError(t, err)

	view, err := svc.CourseContent(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	require.Len(t, view.Modules, 2)

	var flat []LessonView
	for _, m := range view.Modules {
		flat = append(flat, m.Lessons...)
	}
	require.Len(t, flat, 4)

	assert.True(t, flat[0].Completed)
	assert.False(t, flat[0].IsLocked)
	assert.False(t, flat[1].IsLocked, "lesson 2 unlocks once lesson 1 is done")
	assert.True(t, flat[2].IsLocked)
	assert.True(t, flat[3].IsLocked)
}

func TestCourseContentRequiresEnrollment(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.db)

	_, err := svc.CourseContent(context.Background(), f.student.ID, f.course.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCourseProgressSummaryListsCompletedLessons(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(f.db)
	enroll(t, f.db, f.student.ID, f.course.ID)

	for _, lesson := range f.lessons[:2] {
		_, err := svc.CompleteLesson(context.Background(), f.student.ID, lesson.ID)
		require.NoError(t, err)
	}

	summary, err := svc.CourseProgress(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.CompletedCount)
	assert.Equal(t, int64(4), summary.TotalLessons)
	within(t, 50, summary.Progress)
	assert.ElementsMatch(t, []uint{f.lessons[0].ID, f.lessons[1].ID}, summary.CompletedLessonIDs)
}
