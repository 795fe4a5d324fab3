package webhook

import (
	"net/http"
	"strconv"

	"whatsapp-crm/internal/automation"
	"whatsapp-crm/internal/config"
	dbmodels "whatsapp-crm/internal/models"
	"whatsapp-crm/internal/ws"
	"whatsapp-crm/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Handler struct {
	Config *config.Config
	DB     *gorm.DB
	Engine *automation.Engine
	Hub    *ws.Hub
	Log    *logrus.Entry
}

func NewHandler(cfg *config.Config, db *gorm.DB, engine *automation.Engine, hub *ws.Hub, log *logrus.Entry) *Handler {
	return &Handler{
		Config: cfg,
		DB:     db,
		Engine: engine,
		Hub:    hub,
		Log:    log,
	}
}

func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "" && token != "" {
		if mode == "subscribe" && token == h.Config.VerifyToken {
			h.Log.Info("Webhook verified successfully")
			c.String(http.StatusOK, challenge)
		} else {
			c.Status(http.StatusForbidden)
		}
	} else {
		c.Status(http.StatusBadRequest)
	}
}

// HandleNotification processes every entry and change in the payload. The
// provider batches notifications, so a single POST can carry inbound
// messages, delivery receipts and template review results together.
func (h *Handler) HandleNotification(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.Log.WithError(err).Warn("Bad webhook payload")
		c.Status(http.StatusBadRequest)
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			switch change.Field {
			case "messages":
				h.processMessages(change.Value)
			case "message_template_status_update":
				h.processTemplateStatus(change.Value)
			default:
				h.Log.WithField("field", change.Field).Debug("Ignoring webhook change")
			}
		}
	}

	c.Status(http.StatusOK)
}

func (h *Handler) processMessages(value models.ChangeValue) {
	names := make(map[string]string, len(value.Contacts))
	for _, contact := range value.Contacts {
		names[contact.WaID] = contact.Profile.Name
	}

	for _, message := range value.Messages {
		content := messageContent(message)

		row := dbmodels.Message{
			WaID:      message.From,
			Direction: "in",
			Sender:    message.From,
			Content:   content,
			Type:      message.Type,
			Status:    "received",
			MessageID: message.ID,
		}
		if err := h.DB.Create(&row).Error; err != nil {
			h.Log.WithError(err).Error("Failed to store inbound message")
		}

		h.upsertContact(message.From, names[message.From])
		h.Hub.BroadcastEvent(ws.EventMessageReceived, row)

		if h.Engine != nil {
			if text := triggerText(message); text != "" {
				go h.Engine.HandleInbound(message.From, text)
			}
		}
	}

	for _, status := range value.Statuses {
		h.DB.Model(&dbmodels.Message{}).
			Where("message_id = ?", status.ID).
			Update("status", status.Status)
		h.DB.Model(&dbmodels.CampaignMessage{}).
			Where("message_id = ?", status.ID).
			Update("status", status.Status)

		h.Hub.BroadcastEvent(ws.EventMessageStatus, status)
	}
}

func (h *Handler) processTemplateStatus(value models.ChangeValue) {
	updates := map[string]interface{}{
		"status": value.Event,
	}
	if value.Event == dbmodels.TemplateStatusRejected {
		updates["rejection_reason"] = value.Reason
	}

	q := h.DB.Model(&dbmodels.Template{})
	if value.MessageTemplateID != 0 {
		q = q.Where("remote_id = ?", strconv.FormatInt(value.MessageTemplateID, 10))
	} else {
		q = q.Where("name = ? AND language = ?", value.MessageTemplateName, value.MessageTemplateLanguage)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		h.Log.WithError(res.Error).Error("Failed to apply template status update")
		return
	}

	h.Log.WithFields(logrus.Fields{
		"template": value.MessageTemplateName,
		"event":    value.Event,
	}).Info("Template status updated")

	h.Hub.BroadcastEvent(ws.EventTemplateStatus, map[string]interface{}{
		"name":     value.MessageTemplateName,
		"language": value.MessageTemplateLanguage,
		"status":   value.Event,
		"reason":   value.Reason,
	})
}

// upsertContact inserts the contact on first sight; a non-empty profile name
// refreshes the stored one.
func (h *Handler) upsertContact(waID, name string) {
	contact := dbmodels.Contact{WaID: waID, Name: name}

	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "wa_id"}},
		DoNothing: true,
	}
	if name != "" {
		conflict.DoNothing = false
		conflict.DoUpdates = clause.AssignmentColumns([]string{"name"})
	}

	if err := h.DB.Clauses(conflict).Create(&contact).Error; err != nil {
		h.Log.WithError(err).Error("Failed to upsert contact")
	}
}

func messageContent(message models.InboundMessage) string {
	switch message.Type {
	case "text":
		if message.Text != nil {
			return message.Text.Body
		}
	case "image":
		if message.Image != nil {
			content := "[image]:" + message.Image.ID
			if message.Image.Caption != "" {
				content += ":" + message.Image.Caption
			}
			return content
		}
	case "video":
		if message.Video != nil {
			content := "[video]:" + message.Video.ID
			if message.Video.Caption != "" {
				content += ":" + message.Video.Caption
			}
			return content
		}
	case "audio":
		if message.Audio != nil {
			return "[audio]:" + message.Audio.ID
		}
	case "document":
		if message.Document != nil {
			content := "[document]:" + message.Document.ID
			if message.Document.Filename != "" {
				content += ":" + message.Document.Filename
			}
			return content
		}
	case "interactive":
		if message.Interactive != nil {
			if message.Interactive.ButtonReply != nil {
				return message.Interactive.ButtonReply.Title
			}
			if message.Interactive.ListReply != nil {
				return message.Interactive.ListReply.Title
			}
		}
	}
	return "[" + message.Type + "]"
}

// triggerText is the text fed to the automation engine: the message body
// for text messages, the selected title for interactive replies.
func triggerText(message models.InboundMessage) string {
	switch message.Type {
	case "text":
		if message.Text != nil {
			return message.Text.Body
		}
	case "interactive":
		if message.Interactive != nil {
			if message.Interactive.ButtonReply != nil {
				return message.Interactive.ButtonReply.Title
			}
			if message.Interactive.ListReply != nil {
				return message.Interactive.ListReply.Title
			}
		}
	}
	return ""
}
