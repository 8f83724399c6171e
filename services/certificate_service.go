package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/learnhub/learnhub-api/model"
	"github.com/learnhub/learnhub-api/utils/cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	verifyCacheKeyPrefix = "certificates:verify:"
	verifyCacheTTL       = 5 * time.Minute

	// codeGenRetries bounds retries when the unique index rejects a
	// generated verification code.
	codeGenRetries = 5
)

// CertificateService runs the PENDING -> ISSUED | REJECTED approval
// pipeline, gated on enrollment completion. redisCache is optional; when
// nil, public verification always hits the database.
type CertificateService struct {
	db            *gorm.DB
	redisCache    *cache.RedisCache
	notifications *NotificationService
}

// NewCertificateService creates a new certificate service
func NewCertificateService(db *gorm.DB, redisCache *cache.RedisCache) *CertificateService {
	return &CertificateService{
		db:            db,
		redisCache:    redisCache,
		notifications: NewNotificationService(db),
	}
}

// Request creates a PENDING certificate for a completed enrollment.
// Idempotent: an existing certificate for (student, course) is returned
// unchanged whatever its status. A rejection does not re-open the
// request.
func (s *CertificateService) Request(ctx context.Context, studentID, courseID uint) (*model.Certificate, error) {
	var existing model.Certificate
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var enrollment model.Enrollment
	err = s.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment: %w", ErrNotFound)
		}
		return nil, err
	}
	if !enrollment.IsCompleted() {
		return nil, NewInvalidState("course is not yet completed: progress is %.0f%%", enrollment.Progress)
	}

	certificate := model.Certificate{
		StudentID:    studentID,
		CourseID:     courseID,
		EnrollmentID: enrollment.ID,
		Status:       model.CertificateStatusPending,
	}
	// Unique (student_id, course_id) index absorbs a concurrent duplicate
	// request; whichever row exists afterwards is the answer.
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&certificate).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&certificate).Error; err != nil {
		return nil, err
	}
	return &certificate, nil
}

// Issue transitions a PENDING certificate to ISSUED, stamping a unique
// verification code. Only the instructor owning the course may issue.
// Re-issuing an already ISSUED certificate returns it unchanged; a
// REJECTED one cannot be issued.
func (s *CertificateService) Issue(ctx context.Context, instructorID, certificateID uint) (*model.Certificate, error) {
	certificate, err := s.loadOwned(ctx, instructorID, certificateID)
	if err != nil {
		return nil, err
	}

	switch certificate.Status {
	case model.CertificateStatusIssued:
		return certificate, nil
	case model.CertificateStatusRejected:
		return nil, NewInvalidState("certificate was rejected and cannot be issued")
	}

	var enrollment model.Enrollment
	if err := s.db.WithContext(ctx).First(&enrollment, certificate.EnrollmentID).Error; err != nil {
		return nil, err
	}
	if !enrollment.IsCompleted() {
		return nil, NewInvalidState("enrollment is not completed")
	}

	now := time.Now()
	for attempt := 0; attempt < codeGenRetries; attempt++ {
		code, err := generateVerificationCode()
		if err != nil {
			return nil, err
		}
		result := s.db.WithContext(ctx).
			Model(&model.Certificate{}).
			Where("id = ? AND status = ?", certificate.ID, model.CertificateStatusPending).
			Updates(map[string]interface{}{
				"status":            model.CertificateStatusIssued,
				"verification_code": code,
				"issued_at":         now,
			})
		if result.Error != nil {
			if isUniqueViolation(result.Error) {
				continue
			}
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			// Lost the race to a concurrent issue or reject between
			// load and update. Re-read and dispatch on the stored
			// status; PENDING is never restored, so this terminates.
			return s.Issue(ctx, instructorID, certificate.ID)
		}
		certificate.Status = model.CertificateStatusIssued
		certificate.VerificationCode = &code
		certificate.IssuedAt = &now
		s.notifyStatus(ctx, certificate, "Certificate issued",
			"Your course certificate has been issued. Verification code: "+code)
		return certificate, nil
	}
	return nil, fmt.Errorf("could not generate a unique verification code after %d attempts", codeGenRetries)
}

// Reject transitions a PENDING certificate to REJECTED. Rejecting an
// already REJECTED certificate returns it unchanged; an ISSUED one cannot
// be rejected.
func (s *CertificateService) Reject(ctx context.Context, instructorID, certificateID uint, reason string) (*model.Certificate, error) {
	certificate, err := s.loadOwned(ctx, instructorID, certificateID)
	if err != nil {
		return nil, err
	}

	switch certificate.Status {
	case model.CertificateStatusRejected:
		return certificate, nil
	case model.CertificateStatusIssued:
		return nil, NewInvalidState("certificate is already issued and cannot be rejected")
	}

	result := s.db.WithContext(ctx).
		Model(&model.Certificate{}).
		Where("id = ? AND status = ?", certificate.ID, model.CertificateStatusPending).
		Updates(map[string]interface{}{
			"status":          model.CertificateStatusRejected,
			"rejected_reason": reason,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// A concurrent issue or reject won between load and update.
		return s.Reject(ctx, instructorID, certificate.ID, reason)
	}
	certificate.Status = model.CertificateStatusRejected
	certificate.RejectedReason = reason
	s.notifyStatus(ctx, certificate, "Certificate request rejected", reason)
	return certificate, nil
}

// VerificationView is the minimal public record behind a verification
// code: enough to confirm authenticity, nothing more.
type VerificationView struct {
	VerificationCode string     `json:"verification_code"`
	StudentName      string     `json:"student_name"`
	CourseTitle      string     `json:"course_title"`
	IssuedAt         *time.Time `json:"issued_at"`
}

// Verify resolves a verification code without authentication. Results are
// cached briefly since issued certificates never change.
func (s *CertificateService) Verify(ctx context.Context, code string) (*VerificationView, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("certificate: %w", ErrNotFound)
	}

	cacheKey := verifyCacheKeyPrefix + code
	if s.redisCache != nil {
		var cached VerificationView
		if err := s.redisCache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	var certificate model.Certificate
	err := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Course").
		Where("verification_code = ? AND status = ?", code, model.CertificateStatusIssued).
		First(&certificate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("certificate: %w", ErrNotFound)
		}
		return nil, err
	}

	view := &VerificationView{
		VerificationCode: code,
		StudentName:      certificate.Student.Name,
		CourseTitle:      certificate.Course.Title,
		IssuedAt:         certificate.IssuedAt,
	}
	if s.redisCache != nil {
		_ = s.redisCache.SetJSON(ctx, cacheKey, view, verifyCacheTTL)
	}
	return view, nil
}

// ListForStudent returns a student's certificates, newest first.
func (s *CertificateService) ListForStudent(ctx context.Context, studentID uint) ([]model.Certificate, error) {
	var certificates []model.Certificate
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&certificates).Error
	return certificates, err
}

func (s *CertificateService) loadOwned(ctx context.Context, instructorID, certificateID uint) (*model.Certificate, error) {
	var certificate model.Certificate
	err := s.db.WithContext(ctx).
		Preload("Course").
		First(&certificate, certificateID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("certificate: %w", ErrNotFound)
		}
		return nil, err
	}
	if certificate.Course.InstructorID != instructorID {
		return nil, fmt.Errorf("certificate belongs to another instructor's course: %w", ErrForbidden)
	}
	return &certificate, nil
}

func (s *CertificateService) notifyStatus(ctx context.Context, certificate *model.Certificate, title, message string) {
	_, _ = s.notifications.CreateNotification(ctx, CreateNotificationRequest{
		UserID:   certificate.StudentID,
		Type:     model.NotificationTypeInfo,
		Category: model.NotificationCategoryCertificate,
		Title:    title,
		Message:  message,
		Metadata: map[string]interface{}{"certificate_id": certificate.ID, "course_id": certificate.CourseID},
	})
}

// generateVerificationCode builds a code of the form
// CERT-<unix-nano base36>-<12 hex chars>. The random suffix alone carries
// 48 bits of entropy; the unique index on verification_code is the final
// authority on uniqueness.
func generateVerificationCode() (string, error) {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	ts := strconv.FormatInt(time.Now().UnixNano(), 36)
	return fmt.Sprintf("CERT-%s-%s", strings.ToUpper(ts), strings.ToUpper(hex.EncodeToString(suffix))), nil
}

// isUniqueViolation reports whether err came from a unique constraint.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
