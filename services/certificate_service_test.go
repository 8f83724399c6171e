package services

import (
	"context"
	"strings"
	"testing"

	"github.com/learnhub/learnhub-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// completedFixture returns the standard fixture with the student enrolled
// and the whole course completed, ready for certificate flows.
func completedFixture(t *testing.T) (*fixture, *CertificateService) {
	t.Helper()
	f := newFixture(t)
	progress := NewProgressService(f.db)
	enroll(t, f.db, f.student.ID, f.course.ID)
	f.completeAll(t, progress)
	return f, NewCertificateService(f.db, nil)
}

func TestRequestCertificateBeforeCompletion(t *testing.T) {
	f := newFixture(t)
	svc := NewCertificateService(f.db, nil)
	progress := NewProgressService(f.db)
	enroll(t, f.db, f.student.ID, f.course.ID)

	_, err := progress.CompleteLesson(context.Background(), f.student.ID, f.lessons[0].ID)
	require.NoError(t, err)

	_, err = svc.Request(context.Background(), f.student.ID, f.course.ID)
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
	assert.Contains(t, err.Error(), "25")
}

func TestRequestCertificateWithoutEnrollment(t *testing.T) {
	f := newFixture(t)
	svc := NewCertificateService(f.db, nil)

	_, err := svc.Request(context.Background(), f.student.ID, f.course.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRequestCertificateCreatesPending(t *testing.T) {
	f, svc := completedFixture(t)

	certificate, err := svc.Request(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CertificateStatusPending, certificate.Status)
	assert.Nil(t, certificate.VerificationCode)
	assert.Nil(t, certificate.IssuedAt)
}

func TestRequestCertificateIsIdempotent(t *testing.T) {
	f, svc := completedFixture(t)

	first, err := svc.Request(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	second, err := svc.Request(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, f.db.Model(&model.Certificate{}).
		Where("student_id = ? AND course_id = ?", f.student.ID, f.course.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestIssueCertificate(t *testing.T) {
	f, svc := completedFixture(t)

	requested, err := svc.Request(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)

	issued, err := svc.Issue(context.Background(), f.instructor.ID, requested.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CertificateStatusIssued, issued.Status)
	require.NotNil(t, issued.VerificationCode)
	assert.True(t, strings.HasPrefix(*issued.VerificationCode, "CERT-"))
	require.NotNil(t, issued.IssuedAt)

	// Re-issuing returns the same certificate unchanged.
	again, err := svc.Issue(context.Background(), f.instructor.ID, requested.ID)
	require.NoError(t, err)
	assert.Equal(t, *issued.VerificationCode, *again.VerificationCode)
}

func TestIssueCertificateOwnershipEnforced(t *testing.T) {
	f, svc := completedFixture(t)
	other := createUser(t, f.db, "other@test.dev", model.RoleInstructor)

	requested, err := svc.Request(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)

	_, err = svc.Issue(context.Background(), other.ID, requested.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestRejectCertificate(t *testing.T) {
	f, svc := completedFixture(t)

	requested, err := svc.Request(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), f.instructor.ID, requested.ID, "plagiarised final project")
	require.NoError(t, err)
	assert.Equal(t, model.CertificateStatusRejected, rejected.Status)
	assert.Equal(t, "plagiarised final project", rejected.RejectedReason)

	// Rejection is terminal: issuing afterwards is an invalid transition,
	// and a repeat rejection is a no-op.
	_, err = svc.Issue(context.Background(), f.instructor.ID, requested.ID)
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))

	again, err := svc.Reject(context.Background(), f.instructor.ID, requested.ID, "different reason")
	require.NoError(t, err)
	assert.Equal(t, "plagiarised final project", again.RejectedReason)

	// A re-request does not re-open the rejected certificate.
	rerequested, err := svc.Request(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CertificateStatusRejected, rerequested.Status)
}

func TestRejectIssuedCertificate(t *testing.T) {
	f, svc := completedFixture(t)

	requested, err := svc.Request(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	_, err = svc.Issue(context.Background(), f.instructor.ID, requested.ID)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), f.instructor.ID, requested.ID, "too late")
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))
}

// flipCertificateBeforeUpdate rewrites the certificate row out of band just
// before the service's own conditional update runs, mimicking a second
// request landing between load and update.
func flipCertificateBeforeUpdate(t *testing.T, f *fixture, query string, args ...interface{}) {
	t.Helper()
	fired := false
	err := f.db.Callback().Update().Before("gorm:update").Register("flip_certificate", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "certificates" {
			return
		}
		fired = true
		if execErr := f.db.Exec(query, args...).Error; execErr != nil {
			t.Errorf("out-of-band update: %v", execErr)
		}
	})
	require.NoError(t, err)
}

func TestIssueLosesRaceToReject(t *testing.T) {
	f, svc := completedFixture(t)

	requested, err := svc.Request(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	flipCertificateBeforeUpdate(t, f,
		"UPDATE certificates SET status = ?, rejected_reason = ? WHERE id = ?",
		model.CertificateStatusRejected, "duplicate submission", requested.ID)

	_, err = svc.Issue(context.Background(), f.instructor.ID, requested.ID)
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))

	var stored model.Certificate
	require.NoError(t, f.db.First(&stored, requested.ID).Error)
	assert.Equal(t, model.CertificateStatusRejected, stored.Status)
	assert.Nil(t, stored.VerificationCode)
	assert.Equal(t, "duplicate submission", stored.RejectedReason)
}

func TestRejectLosesRaceToIssue(t *testing.T) {
	f, svc := completedFixture(t)

	requested, err := svc.Request(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	flipCertificateBeforeUpdate(t, f,
		"UPDATE certificates SET status = ?, verification_code = ? WHERE id = ?",
		model.CertificateStatusIssued, "CERT-RACE-000000000001", requested.ID)

	_, err = svc.Reject(context.Background(), f.instructor.ID, requested.ID, "incomplete work")
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))

	var stored model.Certificate
	require.NoError(t, f.db.First(&stored, requested.ID).Error)
	assert.Equal(t, model.CertificateStatusIssued, stored.Status)
	assert.Empty(t, stored.RejectedReason)
}

func TestVerifyCertificate(t *testing.T) {
	f, svc := completedFixture(t)

	requested, err := svc.Request(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)
	issued, err := svc.Issue(context.Background(), f.instructor.ID, requested.ID)
	require.NoError(t, err)

	view, err := svc.Verify(context.Background(), *issued.VerificationCode)
	require.NoError(t, err)
	assert.Equal(t, f.student.Name, view.StudentName)
	assert.Equal(t, f.course.Title, view.CourseTitle)
	require.NotNil(t, view.IssuedAt)

	_, err = svc.Verify(context.Background(), "CERT-NOPE-000000000000")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Verify(context.Background(), "  ")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVerificationCodesAreUnique(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		code, err := generateVerificationCode()
		require.NoError(t, err)
		_, dup := seen[code]
		require.False(t, dup, "duplicate code %s after %d generations", code, i)
		seen[code] = struct{}{}
	}
}

func TestListForStudent(t *testing.T) {
	f, svc := completedFixture(t)

	_, err := svc.Request(context.Background(), f.student.ID, f.course.ID)
	require.NoError(t, err)

	certificates, err := svc.ListForStudent(context.Background(), f.student.ID)
	require.NoError(t, err)
	require.Len(t, certificates, 1)
	assert.Equal(t, f.course.Title, certificates[0].Course.Title)
}
