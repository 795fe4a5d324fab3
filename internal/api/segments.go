package api

import (
	"net/http"

	"whatsapp-crm/internal/database"
	"whatsapp-crm/internal/models"

	"github.com/gin-gonic/gin"
)

type SegmentHandler struct{}

func NewSegmentHandler() *SegmentHandler {
	return &SegmentHandler{}
}

// segmentSize counts the contacts whose tags contain the segment tag.
func segmentSize(tag string) int64 {
	var count int64
	database.DB.Model(&models.Contact{}).Where("tags LIKE ?", "%"+tag+"%").Count(&count)
	return count
}

func (h *SegmentHandler) GetSegments(c *gin.Context) {
	var segments []models.Segment
	if err := database.DB.Order("created_at DESC").Find(&segments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type segmentWithSize struct {
		models.Segment
		ContactCount int64 `json:"contact_count"`
	}

	out := make([]segmentWithSize, 0, len(segments))
	for _, s := range segments {
		out = append(out, segmentWithSize{Segment: s, ContactCount: segmentSize(s.Tag)})
	}

	c.JSON(http.StatusOK, out)
}

type segmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Tag         string `json:"tag" binding:"required"`
}

func (h *SegmentHandler) CreateSegment(c *gin.Context) {
	var req segmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	segment := models.Segment{
		Name:        req.Name,
		Description: req.Description,
		Tag:         req.Tag,
	}
	if err := database.DB.Create(&segment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, segment)
}

func (h *SegmentHandler) UpdateSegment(c *gin.Context) {
	var segment models.Segment
	if err := database.DB.First(&segment, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Segment not found"})
		return
	}

	var req segmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	segment.Name = req.Name
	segment.Description = req.Description
	segment.Tag = req.Tag
	if err := database.DB.Save(&segment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, segment)
}

func (h *SegmentHandler) DeleteSegment(c *gin.Context) {
	res := database.DB.Delete(&models.Segment{}, c.Param("id"))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Segment not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Segment deleted"})
}

// GetSegmentContacts previews the members a campaign against this segment
// would target.
func (h *SegmentHandler) GetSegmentContacts(c *gin.Context) {
	var segment models.Segment
	if err := database.DB.First(&segment, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Segment not found"})
		return
	}

	var contacts []models.Contact
	if err := database.DB.Where("tags LIKE ?", "%"+segment.Tag+"%").Find(&contacts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if contacts == nil {
		contacts = []models.Contact{}
	}

	c.JSON(http.StatusOK, gin.H{
		"segment":  segment,
		"count":    len(contacts),
		"contacts": contacts,
	})
}
