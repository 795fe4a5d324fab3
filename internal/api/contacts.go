package api

import (
	"encoding/csv"
	"net/http"

	"whatsapp-crm/internal/database"
	"whatsapp-crm/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"
)

type ContactHandler struct{}

func NewContactHandler() *ContactHandler {
	return &ContactHandler{}
}

func (h *ContactHandler) GetContacts(c *gin.Context) {
	q := database.DB.Model(&models.Contact{}).Order("created_at DESC")

	if search := c.Query("q"); search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR wa_id LIKE ?", like, like)
	}
	if tag := c.Query("tag"); tag != "" {
		q = q.Where("tags LIKE ?", "%"+tag+"%")
	}

	var contacts []models.Contact
	if err := q.Find(&contacts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Return empty array instead of null
	if contacts == nil {
		contacts = []models.Contact{}
	}

	c.JSON(http.StatusOK, contacts)
}

func (h *ContactHandler) GetContact(c *gin.Context) {
	var contact models.Contact
	if err := database.DB.First(&contact, "wa_id = ?", c.Param("waId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}
	c.JSON(http.StatusOK, contact)
}

// CreateContactRequest for adding new contacts
type CreateContactRequest struct {
	WaID  string `json:"wa_id" binding:"required"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Tags  string `json:"tags"`
}

func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contact := models.Contact{
		WaID:  req.WaID,
		Name:  req.Name,
		Email: req.Email,
		Tags:  req.Tags,
	}

	// Upsert to avoid duplicates
	err := database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wa_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "tags"}),
	}).Create(&contact).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contact"})
		return
	}

	c.JSON(http.StatusCreated, contact)
}

type UpdateContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Tags  string `json:"tags"`
}

func (h *ContactHandler) UpdateContact(c *gin.Context) {
	waID := c.Param("waId")
	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := database.DB.Model(&models.Contact{}).Where("wa_id = ?", waID).Updates(map[string]interface{}{
		"name":  req.Name,
		"email": req.Email,
		"tags":  req.Tags,
	})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update contact"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Contact updated"})
}

func (h *ContactHandler) DeleteContact(c *gin.Context) {
	res := database.DB.Delete(&models.Contact{}, "wa_id = ?", c.Param("waId"))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contact"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Contact deleted"})
}

func (h *ContactHandler) ExportContacts(c *gin.Context) {
	var contacts []models.Contact
	if err := database.DB.Order("created_at DESC").Find(&contacts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=contacts.csv")

	w := csv.NewWriter(c.Writer)
	w.Write([]string{"WhatsApp ID", "Name", "Email", "Tags", "Created At"})
	for _, contact := range contacts {
		w.Write([]string{
			contact.WaID,
			contact.Name,
			contact.Email,
			contact.Tags,
			contact.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	w.Flush()
}
