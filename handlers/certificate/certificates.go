package certificate

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/learnhub-api/services"
	"github.com/learnhub/learnhub-api/utils/middleware"
	"github.com/learnhub/learnhub-api/utils/response"
	"github.com/learnhub/learnhub-api/utils/validation"
	"gorm.io/gorm"
)

// CertificateHandler handles certificate endpoints
type CertificateHandler struct {
	db           *gorm.DB
	certificates *services.CertificateService
	validator    *validation.Validator
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(db *gorm.DB, certificates *services.CertificateService) *CertificateHandler {
	return &CertificateHandler{
		db:           db,
		certificates: certificates,
		validator:    validation.NewValidator(),
	}
}

// RejectRequest represents the request body for rejecting a certificate
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,min=2,max=500"`
}

// Request handles POST /api/v1/courses/:id/certificates
func (h *CertificateHandler) Request(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	certificate, err := h.certificates.Request(c.Context(), user.ID, uint(courseID))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Created(c, certificate)
}

// Issue handles PUT /api/v1/certificates/:id/issue
func (h *CertificateHandler) Issue(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	certificateID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid certificate ID")
	}

	certificate, err := h.certificates.Issue(c.Context(), user.ID, uint(certificateID))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, certificate)
}

// Reject handles PUT /api/v1/certificates/:id/reject
func (h *CertificateHandler) Reject(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	var req RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	certificateID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid certificate ID")
	}

	certificate, err := h.certificates.Reject(c.Context(), user.ID, uint(certificateID), validation.SanitizeString(req.Reason))
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, certificate)
}

// Verify handles GET /api/v1/certificates/verify/:code
//
// Public endpoint; no authentication required.
func (h *CertificateHandler) Verify(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Params("code"))
	if code == "" {
		return response.BadRequest(c, "Verification code is required")
	}

	view, err := h.certificates.Verify(c.Context(), code)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, view)
}

// MyCertificates handles GET /api/v1/certificates/me
func (h *CertificateHandler) MyCertificates(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	certificates, err := h.certificates.ListForStudent(c.Context(), user.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch certificates")
	}

	return response.Success(c, certificates)
}
