package services

import (
	"context"
	"testing"

	"github.com/learnhub/learnhub-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assignmentFixture attaches an assignment to the first lesson so gating
// never blocks the happy paths.
func assignmentFixture(t *testing.T, f *fixture) model.Assignment {
	t.Helper()
	assignment := model.Assignment{
		LessonID:     f.lessons[0].ID,
		Title:        "Build a CLI",
		Instructions: "Ship a working command line tool.",
	}
	require.NoError(t, f.db.Create(&assignment).Error)
	return assignment
}

func TestSubmitCreatesPendingSubmission(t *testing.T) {
	f := newFixture(t)
	svc := NewAssignmentService(f.db, NewProgressService(f.db))
	assignment := assignmentFixture(t, f)
	enroll(t, f.db, f.student.ID, f.course.ID)

	submission, err := svc.Submit(context.Background(), f.student.ID, assignment.ID, "my solution")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusPending, submission.Status)
	assert.Nil(t, submission.Grade)
	assert.Nil(t, submission.GradedAt)
}

func TestSubmitRequiresEnrollment(t *testing.T) {
	f := newFixture(t)
	svc := NewAssignmentService(f.db, NewProgressService(f.db))
	assignment := assignmentFixture(t, f)

	_, err := svc.Submit(context.Background(), f.student.ID, assignment.ID, "solution")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestSubmitRespectsLessonGating(t *testing.T) {
	f := newFixture(t)
	svc := NewAssignmentService(f.db, NewProgressService(f.db))
	enroll(t, f.db, f.student.ID, f.course.ID)

	// Assignment sits on the second lesson, which stays locked until the
	// first is completed.
	locked := model.Assignment{LessonID: f.lessons[1].ID, Title: "Locked work"}
	require.NoError(t, f.db.Create(&locked).Error)

	_, err := svc.Submit(context.Background(), f.student.ID, locked.ID, "too early")
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
}

func TestSubmitWhilePendingIsRejected(t *testing.T) {
	f := newFixture(t)
	svc := NewAssignmentService(f.db, NewProgressService(f.db))
	assignment := assignmentFixture(t, f)
	enroll(t, f.db, f.student.ID, f.course.ID)

	_, err := svc.Submit(context.Background(), f.student.ID, assignment.ID, "v1")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), f.student.ID, assignment.ID, "v2")
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
	assert.Contains(t, err.Error(), "pending review")
}

func TestGradeSubmission(t *testing.T) {
	f := newFixture(t)
	svc := NewAssignmentService(f.db, NewProgressService(f.db))
	assignment := assignmentFixture(t, f)
	enroll(t, f.db, f.student.ID, f.course.ID)

	submission, err := svc.Submit(context.Background(), f.student.ID, assignment.ID, "v1")
	require.NoError(t, err)

	graded, err := svc.Grade(context.Background(), f.instructor.ID, submission.ID, 87, "solid work")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusGraded, graded.Status)
	require.NotNil(t, graded.Grade)
	within(t, 87, *graded.Grade)
	assert.Equal(t, "solid work", graded.Feedback)
	require.NotNil(t, graded.GradedAt)

	// Grading is one-shot per submission.
	_, err = svc.Grade(context.Background(), f.instructor.ID, submission.ID, 90, "changed my mind")
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
}

func TestGradeOwnershipEnforced(t *testing.T) {
	f := newFixture(t)
	svc := NewAssignmentService(f.db, NewProgressService(f.db))
	assignment := assignmentFixture(t, f)
	enroll(t, f.db, f.student.ID, f.course.ID)
	other := createUser(t, f.db, "other@test.dev", model.RoleInstructor)

	submission, err := svc.Submit(context.Background(), f.student.ID, assignment.ID, "v1")
	require.NoError(t, err)

	_, err = svc.Grade(context.Background(), other.ID, submission.ID, 50, "")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestResubmitAfterGrading(t *testing.T) {
	f := newFixture(t)
	svc := NewAssignmentService(f.db, NewProgressService(f.db))
	assignment := assignmentFixture(t, f)
	enroll(t, f.db, f.student.ID, f.course.ID)

	first, err := svc.Submit(context.Background(), f.student.ID, assignment.ID, "v1")
	require.NoError(t, err)
	_, err = svc.Grade(context.Background(), f.instructor.ID, first.ID, 40, "try again")
	require.NoError(t, err)

	second, err := svc.Submit(context.Background(), f.student.ID, assignment.ID, "v2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, model.SubmissionStatusPending, second.Status)
}

func TestListForAssignment(t *testing.T) {
	f := newFixture(t)
	svc := NewAssignmentService(f.db, NewProgressService(f.db))
	assignment := assignmentFixture(t, f)
	enroll(t, f.db, f.student.ID, f.course.ID)

	_, err := svc.Submit(context.Background(), f.student.ID, assignment.ID, "v1")
	require.NoError(t, err)

	submissions, err := svc.ListForAssignment(context.Background(), f.instructor.ID, assignment.ID)
	require.NoError(t, err)
	require.Len(t, submissions, 1)
	assert.Equal(t, f.student.ID, submissions[0].StudentID)

	other := createUser(t, f.db, "other2@test.dev", model.RoleInstructor)
	_, err = svc.ListForAssignment(context.Background(), other.ID, assignment.ID)
	require.ErrorIs(t, err, ErrForbidden)
}
