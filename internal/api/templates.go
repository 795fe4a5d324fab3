package api

import (
	"encoding/json"
	"net/http"

	"whatsapp-crm/internal/database"
	"whatsapp-crm/internal/metrics"
	"whatsapp-crm/internal/models"
	"whatsapp-crm/internal/policy"
	"whatsapp-crm/internal/validation"
	"whatsapp-crm/internal/whatsapp"
	"whatsapp-crm/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type TemplateHandler struct {
	Registry *policy.Registry
	Client   *whatsapp.Client
	Hub      *ws.Hub
	Metrics  *metrics.Metrics
	Log      *logrus.Entry
}

func NewTemplateHandler(registry *policy.Registry, client *whatsapp.Client, hub *ws.Hub, m *metrics.Metrics, log *logrus.Entry) *TemplateHandler {
	return &TemplateHandler{
		Registry: registry,
		Client:   client,
		Hub:      hub,
		Metrics:  m,
		Log:      log,
	}
}

// engineFor builds a validation engine backed by the tenant's policy rules.
func (h *TemplateHandler) engineFor(c *gin.Context) *validation.Engine {
	return validation.NewEngine(h.Registry.Scanner(c.GetString("tenant_id")))
}

func (h *TemplateHandler) recordValidation(result validation.Result) {
	if h.Metrics == nil {
		return
	}

	outcome := "valid"
	if !result.IsValid {
		outcome = "invalid"
	}
	h.Metrics.ValidationsTotal.WithLabelValues(outcome).Inc()

	for _, e := range result.Errors {
		h.Metrics.ValidationErrors.WithLabelValues(string(e.Code)).Inc()
		switch e.Code {
		case validation.CodePolicyViolationSensitiveData:
			h.Metrics.PolicyMatches.WithLabelValues("sensitive_data").Inc()
		case validation.CodePolicyViolationSpamLanguage:
			h.Metrics.PolicyMatches.WithLabelValues("spam_language").Inc()
		}
	}
}

func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	var templates []models.Template
	if err := database.DB.Order("updated_at DESC").Find(&templates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Return empty array instead of null
	if templates == nil {
		templates = []models.Template{}
	}

	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	var template models.Template
	if err := database.DB.First(&template, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	c.JSON(http.StatusOK, template)
}

// CreateTemplate validates and scores the document, then stores it as a
// draft. An invalid document is rejected with the full error list so the UI
// can annotate each field.
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var doc validation.Template
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if doc.Name != "" {
		if err := requestValidator.Var(doc.Name, "templatename"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Template name may only contain lowercase letters, digits and underscores"})
			return
		}
	}

	engine := h.engineFor(c)
	result := engine.Validate(c.Request.Context(), &doc)
	h.recordValidation(result)
	if !result.IsValid {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	var existing models.Template
	err := database.DB.Where("name = ? AND language = ?", doc.Name, doc.Language).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A template with this name and language already exists"})
		return
	}

	quality := engine.CalculateQualityScore(&doc)

	raw, err := json.Marshal(doc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	template := models.Template{
		ID:            uuid.NewString(),
		Name:          doc.Name,
		Language:      doc.Language,
		Category:      doc.Category,
		Status:        models.TemplateStatusDraft,
		Document:      string(raw),
		QualityScore:  quality.Score,
		QualityRating: quality.Rating,
	}
	if err := database.DB.Create(&template).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"template": template,
		"quality":  quality,
	})
}

// UpdateTemplate replaces the document of a draft or rejected template and
// re-runs validation and scoring.
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	var template models.Template
	if err := database.DB.First(&template, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	if template.Status != models.TemplateStatusDraft && template.Status != models.TemplateStatusRejected {
		c.JSON(http.StatusConflict, gin.H{"error": "Only draft or rejected templates can be edited"})
		return
	}

	var doc validation.Template
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if doc.Name != "" {
		if err := requestValidator.Var(doc.Name, "templatename"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Template name may only contain lowercase letters, digits and underscores"})
			return
		}
	}

	engine := h.engineFor(c)
	result := engine.Validate(c.Request.Context(), &doc)
	h.recordValidation(result)
	if !result.IsValid {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	quality := engine.CalculateQualityScore(&doc)

	raw, err := json.Marshal(doc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"name":             doc.Name,
		"language":         doc.Language,
		"category":         doc.Category,
		"status":           models.TemplateStatusDraft,
		"document":         string(raw),
		"quality_score":    quality.Score,
		"quality_rating":   quality.Rating,
		"rejection_reason": "",
	}
	if err := database.DB.Model(&template).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"template": template,
		"quality":  quality,
	})
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	var template models.Template
	if err := database.DB.First(&template, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	if template.RemoteID != "" {
		if err := h.Client.DeleteTemplate(template.Name); err != nil {
			h.Log.WithError(err).WithField("template", template.Name).Warn("Provider delete failed")
		}
	}

	if err := database.DB.Delete(&template).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Template deleted"})
}

// ValidateTemplate runs the validation pipeline without persisting anything.
// The result is returned with 200 regardless of outcome; the isValid flag is
// the verdict.
func (h *TemplateHandler) ValidateTemplate(c *gin.Context) {
	var doc validation.Template
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.engineFor(c).Validate(c.Request.Context(), &doc)
	h.recordValidation(result)
	c.JSON(http.StatusOK, result)
}

// ScoreTemplate computes the advisory quality score for a document.
func (h *TemplateHandler) ScoreTemplate(c *gin.Context) {
	var doc validation.Template
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.engineFor(c).CalculateQualityScore(&doc))
}

// SubmitTemplate sends a stored template to the provider for review.
func (h *TemplateHandler) SubmitTemplate(c *gin.Context) {
	var template models.Template
	if err := database.DB.First(&template, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	if template.Status == models.TemplateStatusPending || template.Status == models.TemplateStatusApproved {
		c.JSON(http.StatusConflict, gin.H{"error": "Template is already " + template.Status})
		return
	}

	var doc validation.Template
	if err := json.Unmarshal([]byte(template.Document), &doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored document is corrupt"})
		return
	}

	result := h.engineFor(c).Validate(c.Request.Context(), &doc)
	h.recordValidation(result)
	if !result.IsValid {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	submitted, err := h.Client.SubmitTemplate(&doc)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Submission failed: " + err.Error()})
		return
	}

	status := models.TemplateStatusPending
	if submitted.Status != "" {
		status = submitted.Status
	}

	updates := map[string]interface{}{
		"status":    status,
		"remote_id": submitted.ID,
	}
	if err := database.DB.Model(&template).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.Hub != nil {
		h.Hub.BroadcastEvent(ws.EventTemplateStatus, map[string]interface{}{
			"id":     template.ID,
			"name":   template.Name,
			"status": template.Status,
		})
	}

	c.JSON(http.StatusOK, template)
}

// SyncTemplates pulls the provider's template list and refreshes local
// status, category and remote ids by name and language.
func (h *TemplateHandler) SyncTemplates(c *gin.Context) {
	if h.Client.Config.WhatsAppBusinessAccountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "WABA_ID not configured"})
		return
	}

	remotes, err := h.Client.ListTemplates()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch templates: " + err.Error()})
		return
	}

	synced := 0
	for _, remote := range remotes {
		res := database.DB.Model(&models.Template{}).
			Where("name = ? AND language = ?", remote.Name, remote.Language).
			Updates(map[string]interface{}{
				"status":    remote.Status,
				"category":  remote.Category,
				"remote_id": remote.ID,
			})
		if res.Error != nil {
			h.Log.WithError(res.Error).WithField("template", remote.Name).Error("Sync update failed")
			continue
		}
		synced += int(res.RowsAffected)
	}

	h.Log.WithFields(logrus.Fields{
		"remote": len(remotes),
		"synced": synced,
	}).Info("Template sync finished")

	c.JSON(http.StatusOK, gin.H{"remote": len(remotes), "synced": synced})
}
