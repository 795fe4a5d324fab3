package api

import (
	"errors"
	"net/http"
	"time"

	"whatsapp-crm/internal/campaigns"
	"whatsapp-crm/internal/database"
	"whatsapp-crm/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CampaignHandler struct {
	Runner *campaigns.Runner
}

func NewCampaignHandler(runner *campaigns.Runner) *CampaignHandler {
	return &CampaignHandler{Runner: runner}
}

func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	var rows []models.Campaign
	if err := database.DB.Order("created_at DESC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Return empty array instead of null
	if rows == nil {
		rows = []models.Campaign{}
	}

	c.JSON(http.StatusOK, rows)
}

func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	var campaign models.Campaign
	if err := database.DB.First(&campaign, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}

	var messages []models.CampaignMessage
	database.DB.Where("campaign_id = ?", campaign.ID).Order("id").Find(&messages)
	if messages == nil {
		messages = []models.CampaignMessage{}
	}

	c.JSON(http.StatusOK, gin.H{
		"campaign": campaign,
		"messages": messages,
	})
}

type createCampaignRequest struct {
	Name        string     `json:"name" binding:"required"`
	TemplateID  string     `json:"template_id" binding:"required"`
	SegmentID   *uint      `json:"segment_id"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// CreateCampaign stores a campaign as DRAFT, or SCHEDULED when a start time
// is supplied. The template must exist and be approved by the provider.
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tpl models.Template
	if err := database.DB.First(&tpl, "id = ?", req.TemplateID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Template not found"})
		return
	}
	if tpl.Status != models.TemplateStatusApproved {
		c.JSON(http.StatusConflict, gin.H{"error": "Template must be APPROVED before it can be used in a campaign"})
		return
	}

	if req.SegmentID != nil {
		var segment models.Segment
		if err := database.DB.First(&segment, *req.SegmentID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Segment not found"})
			return
		}
	}

	status := models.CampaignStatusDraft
	if req.ScheduledAt != nil {
		status = models.CampaignStatusScheduled
	}

	campaign := models.Campaign{
		ID:          uuid.NewString(),
		Name:        req.Name,
		TemplateID:  req.TemplateID,
		SegmentID:   req.SegmentID,
		Status:      status,
		ScheduledAt: req.ScheduledAt,
	}
	if err := database.DB.Create(&campaign).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	var campaign models.Campaign
	if err := database.DB.First(&campaign, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}

	if campaign.Status == models.CampaignStatusRunning {
		c.JSON(http.StatusConflict, gin.H{"error": "A running campaign cannot be deleted"})
		return
	}

	database.DB.Where("campaign_id = ?", campaign.ID).Delete(&models.CampaignMessage{})
	if err := database.DB.Delete(&campaign).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Campaign deleted"})
}

// StartCampaign launches a draft or scheduled campaign immediately.
func (h *CampaignHandler) StartCampaign(c *gin.Context) {
	err := h.Runner.Launch(c.Param("id"))
	if err != nil {
		if errors.Is(err, campaigns.ErrNotLaunchable) {
			c.JSON(http.StatusConflict, gin.H{"error": "Campaign is not in a launchable state"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "Campaign started"})
}
