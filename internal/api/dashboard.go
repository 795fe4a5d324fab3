package api

import (
	"net/http"
	"strconv"

	"whatsapp-crm/internal/database"
	"whatsapp-crm/internal/models"
	"whatsapp-crm/internal/whatsapp"
	"whatsapp-crm/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type DashboardHandler struct {
	Client *whatsapp.Client
	Hub    *ws.Hub
	Log    *logrus.Entry
}

func NewDashboardHandler(client *whatsapp.Client, hub *ws.Hub, log *logrus.Entry) *DashboardHandler {
	return &DashboardHandler{Client: client, Hub: hub, Log: log}
}

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

func countByStatus(model interface{}) ([]statusCount, error) {
	var counts []statusCount
	err := database.DB.Model(model).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error
	if counts == nil {
		counts = []statusCount{}
	}
	return counts, err
}

func (h *DashboardHandler) GetStats(c *gin.Context) {
	var contacts, flows, inbound, outbound int64
	database.DB.Model(&models.Contact{}).Count(&contacts)
	database.DB.Model(&models.Flow{}).Where("enabled = ?", true).Count(&flows)
	database.DB.Model(&models.Message{}).Where("direction = ?", "in").Count(&inbound)
	database.DB.Model(&models.Message{}).Where("direction = ?", "out").Count(&outbound)

	var avgQuality float64
	database.DB.Model(&models.Template{}).
		Select("COALESCE(AVG(quality_score), 0)").
		Scan(&avgQuality)

	templates, err := countByStatus(&models.Template{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	campaigns, err := countByStatus(&models.Campaign{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contacts":          contacts,
		"enabled_flows":     flows,
		"messages_inbound":  inbound,
		"messages_outbound": outbound,
		"avg_quality_score": avgQuality,
		"templates":         templates,
		"campaigns":         campaigns,
	})
}

func (h *DashboardHandler) GetMessages(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	query := database.DB.Order("created_at DESC").Limit(limit)
	if waID := c.Query("wa_id"); waID != "" {
		query = query.Where("wa_id = ?", waID)
	}

	var messages []models.Message
	if err := query.Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Return empty array instead of null
	if messages == nil {
		messages = []models.Message{}
	}

	c.JSON(http.StatusOK, messages)
}

type sendRequest struct {
	To      string `json:"to" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// SendMessage is the operator reply path: free-form text inside the 24h
// customer service window.
func (h *DashboardHandler) SendMessage(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wamid, err := h.Client.SendTextMessage(req.To, req.Content)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send message: " + err.Error()})
		return
	}

	msg := models.Message{
		WaID:      req.To,
		Direction: "out",
		Sender:    "operator",
		Content:   req.Content,
		Type:      "text",
		Status:    "sent",
		MessageID: wamid,
	}
	if err := database.DB.Create(&msg).Error; err != nil {
		h.Log.WithError(err).Error("Failed to persist outbound message")
	}

	if h.Hub != nil {
		h.Hub.BroadcastEvent(ws.EventMessageSent, msg)
	}

	c.JSON(http.StatusOK, gin.H{"status": "Message sent", "message": msg})
}
