package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vaccert/vaccination-server/internal/api/middleware"
	"github.com/vaccert/vaccination-server/internal/models"
	"go.uber.org/zap"
)

// RecordManager is the record service as seen by the HTTP layer
type RecordManager interface {
	Create(ctx context.Context, fields models.PatientFields) (models.CreatedPatient, error)
	List(ctx context.Context, page, limit int) (models.PatientPage, error)
	GetBySlug(ctx context.Context, slug string) (*models.Patient, error)
	Update(ctx context.Context, slug string, fields models.PatientFields) error
	Delete(ctx context.Context, id int64) error
	QRCode(ctx context.Context, slug string, size int) ([]byte, error)
}

type PatientHandler struct {
	records RecordManager
	log     *zap.Logger
}

func NewPatientHandler(records RecordManager, log *zap.Logger) *PatientHandler {
	return &PatientHandler{records: records, log: log}
}

// CreatePatient stores a new record and returns its id and public slug
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	fields, ok := h.bindFields(c)
	if !ok {
		return
	}

	created, err := h.records.Create(c.Request.Context(), fields)
	if err != nil {
		respondError(c, h.log, "create patient", err)
		return
	}

	h.log.Info("patient created",
		zap.Int64("id", created.ID),
		zap.String("slug", created.Slug),
		zap.Int64("admin_id", c.GetInt64(middleware.AdminIDKey)),
	)
	c.JSON(http.StatusCreated, gin.H{
		"id":      created.ID,
		"slug":    created.Slug,
		"message": "Patient record created successfully",
	})
}

// ListPatients returns a page of records, newest first
func (h *PatientHandler) ListPatients(c *gin.Context) {
	// non-numeric values fall through as 0 and get the defaults
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.records.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, h.log, "list patients", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPatient is the public lookup behind the certificate view
func (h *PatientHandler) GetPatient(c *gin.Context) {
	patient, err := h.records.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, "get patient", err)
		return
	}

	c.JSON(http.StatusOK, patient)
}

// GetPatientQRCode serves a downloadable PNG QR code for the public view
func (h *PatientHandler) GetPatientQRCode(c *gin.Context) {
	slug := c.Param("slug")
	size, _ := strconv.Atoi(c.Query("size"))

	png, err := h.records.QRCode(c.Request.Context(), slug, size)
	if err != nil {
		respondError(c, h.log, "render qr code", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="qr-code-%s.png"`, slug))
	c.Data(http.StatusOK, "image/png", png)
}

// UpdatePatient replaces every editable field of the record under slug
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	fields, ok := h.bindFields(c)
	if !ok {
		return
	}

	if err := h.records.Update(c.Request.Context(), c.Param("slug"), fields); err != nil {
		respondError(c, h.log, "update patient", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Patient updated successfully"})
}

// DeletePatient removes a record by its internal id
func (h *PatientHandler) DeletePatient(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid patient ID"})
		return
	}

	if err := h.records.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, "delete patient", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Patient deleted successfully"})
}

func (h *PatientHandler) bindFields(c *gin.Context) (models.PatientFields, bool) {
	var req models.PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, &req, err)
		return models.PatientFields{}, false
	}

	fields, err := req.Fields()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return models.PatientFields{}, false
	}
	return fields, true
}
