package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"whatsapp-crm/internal/database"
	"whatsapp-crm/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errInvalidMatchMode = errors.New("match_mode must be one of: equals, contains, starts_with, regex")

type FlowHandler struct{}

func NewFlowHandler() *FlowHandler {
	return &FlowHandler{}
}

type flowNodePayload struct {
	ID       string `json:"id" binding:"required"`
	Type     string `json:"type"`
	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"position"`
	Data json.RawMessage `json:"data"`
}

type flowEdgePayload struct {
	ID           string `json:"id"`
	Source       string `json:"source" binding:"required"`
	Target       string `json:"target" binding:"required"`
	SourceHandle string `json:"sourceHandle"`
}

type flowRequest struct {
	Name         string            `json:"name" binding:"required"`
	TriggerValue string            `json:"trigger_value"`
	MatchMode    string            `json:"match_mode"`
	Enabled      *bool             `json:"enabled"`
	Nodes        []flowNodePayload `json:"nodes"`
	Edges        []flowEdgePayload `json:"edges"`
}

func validMatchMode(mode string) bool {
	switch mode {
	case "", models.MatchEquals, models.MatchContains, models.MatchStartsWith, models.MatchRegex:
		return true
	}
	return false
}

func (h *FlowHandler) GetFlows(c *gin.Context) {
	var flows []models.Flow
	if err := database.DB.Preload("Nodes").Preload("Edges").Order("updated_at DESC").Find(&flows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Return empty array instead of null
	if flows == nil {
		flows = []models.Flow{}
	}

	c.JSON(http.StatusOK, flows)
}

func (h *FlowHandler) GetFlow(c *gin.Context) {
	var flow models.Flow
	if err := database.DB.Preload("Nodes").Preload("Edges").First(&flow, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Flow not found"})
		return
	}
	c.JSON(http.StatusOK, flow)
}

func (h *FlowHandler) CreateFlow(c *gin.Context) {
	var req flowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flow := models.Flow{ID: uuid.NewString()}
	if err := h.saveFlow(&flow, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, flow)
}

func (h *FlowHandler) UpdateFlow(c *gin.Context) {
	var flow models.Flow
	if err := database.DB.First(&flow, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Flow not found"})
		return
	}

	var req flowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.saveFlow(&flow, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, flow)
}

// saveFlow writes the flow row and replaces its graph in one transaction, so
// a half-saved graph can never be triggered.
func (h *FlowHandler) saveFlow(flow *models.Flow, req *flowRequest) error {
	if !validMatchMode(req.MatchMode) {
		return errInvalidMatchMode
	}
	if req.MatchMode == models.MatchRegex {
		if _, err := regexp.Compile("(?i)" + req.TriggerValue); err != nil {
			return err
		}
	}

	flow.Name = req.Name
	flow.TriggerValue = req.TriggerValue
	flow.MatchMode = req.MatchMode
	if flow.MatchMode == "" {
		flow.MatchMode = models.MatchEquals
	}
	flow.Enabled = req.Enabled == nil || *req.Enabled

	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Nodes", "Edges").Save(flow).Error; err != nil {
			return err
		}
		if err := tx.Where("flow_id = ?", flow.ID).Delete(&models.FlowNode{}).Error; err != nil {
			return err
		}
		if err := tx.Where("flow_id = ?", flow.ID).Delete(&models.FlowEdge{}).Error; err != nil {
			return err
		}

		for _, n := range req.Nodes {
			node := models.FlowNode{
				FlowID:    flow.ID,
				NodeID:    n.ID,
				Type:      n.Type,
				PositionX: n.Position.X,
				PositionY: n.Position.Y,
				Data:      string(n.Data),
			}
			if err := tx.Create(&node).Error; err != nil {
				return err
			}
		}
		for _, e := range req.Edges {
			edge := models.FlowEdge{
				FlowID:       flow.ID,
				EdgeID:       e.ID,
				Source:       e.Source,
				Target:       e.Target,
				SourceHandle: e.SourceHandle,
			}
			if err := tx.Create(&edge).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (h *FlowHandler) DeleteFlow(c *gin.Context) {
	flowID := c.Param("id")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("flow_id = ?", flowID).Delete(&models.FlowNode{}).Error; err != nil {
			return err
		}
		if err := tx.Where("flow_id = ?", flowID).Delete(&models.FlowEdge{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Flow{}, "id = ?", flowID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Flow deleted"})
}
