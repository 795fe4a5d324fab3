package api

import (
	"io"
	"net/http"

	"whatsapp-crm/internal/database"
	"whatsapp-crm/internal/models"
	"whatsapp-crm/internal/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxUploadBytes = 16 << 20 // Meta caps most media types at 16MB

type MediaHandler struct {
	Client *whatsapp.Client
	Log    *logrus.Entry
}

func NewMediaHandler(client *whatsapp.Client, log *logrus.Entry) *MediaHandler {
	return &MediaHandler{Client: client, Log: log}
}

// UploadMedia pushes a file to the provider and records the returned media id
// so campaigns and flows can reference it later.
func (h *MediaHandler) UploadMedia(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds 16MB limit"})
		return
	}

	fileBytes, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}

	mimeType := header.Header.Get("Content-Type")

	resp, err := h.Client.UploadMedia(fileBytes, mimeType, header.Filename)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	media := models.Media{
		MediaID:  resp.ID,
		Filename: header.Filename,
		MimeType: mimeType,
		FileSize: header.Size,
	}
	if err := database.DB.Create(&media).Error; err != nil {
		h.Log.WithError(err).Error("Failed to persist media record")
	}

	c.JSON(http.StatusCreated, media)
}

func (h *MediaHandler) ListMedia(c *gin.Context) {
	var media []models.Media
	if err := database.DB.Order("uploaded_at DESC").Find(&media).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Return empty array instead of null
	if media == nil {
		media = []models.Media{}
	}

	c.JSON(http.StatusOK, media)
}

// GetMediaURL resolves a provider media id to a short-lived download URL.
func (h *MediaHandler) GetMediaURL(c *gin.Context) {
	mediaID := c.Param("id")

	url, err := h.Client.RetrieveMediaURL(mediaID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	mediaID := c.Param("id")

	if err := h.Client.DeleteMedia(mediaID); err != nil {
		h.Log.WithError(err).WithField("media_id", mediaID).Warn("Provider media delete failed")
	}

	if err := database.DB.Where("media_id = ?", mediaID).Delete(&models.Media{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Media deleted"})
}
