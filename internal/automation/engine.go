package automation

import (
	"fmt"
	"regexp"
	"strings"

	"whatsapp-crm/internal/models"
	"whatsapp-crm/internal/whatsapp"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// maxFlowDepth bounds the walk so a cyclic graph cannot loop forever.
const maxFlowDepth = 10

// Engine runs keyword-triggered chatbot flows against inbound messages.
type Engine struct {
	db     *gorm.DB
	client *whatsapp.Client
	log    *logrus.Entry
}

func NewEngine(db *gorm.DB, client *whatsapp.Client, log *logrus.Entry) *Engine {
	return &Engine{db: db, client: client, log: log}
}

// MatchTrigger reports whether a message activates a flow trigger. Matching
// is case-insensitive for every mode.
func MatchTrigger(mode, triggerValue, message string) bool {
	value := strings.ToLower(strings.TrimSpace(triggerValue))
	if value == "" {
		return false
	}
	msg := strings.ToLower(strings.TrimSpace(message))

	switch mode {
	case models.MatchEquals, "":
		return msg == value
	case models.MatchContains:
		return strings.Contains(msg, value)
	case models.MatchStartsWith:
		return strings.HasPrefix(msg, value)
	case models.MatchRegex:
		re, err := regexp.Compile("(?i)" + strings.TrimSpace(triggerValue))
		if err != nil {
			return false
		}
		return re.MatchString(message)
	default:
		return false
	}
}

// HandleInbound checks every enabled flow against the message and runs the
// first one whose trigger matches.
func (e *Engine) HandleInbound(waID, messageContent string) error {
	var flows []models.Flow
	if err := e.db.Where("enabled = ?", true).Find(&flows).Error; err != nil {
		e.log.WithError(err).Error("Failed to load flows")
		return err
	}

	for _, flow := range flows {
		if !MatchTrigger(flow.MatchMode, flow.TriggerValue, messageContent) {
			continue
		}

		e.log.WithFields(logrus.Fields{
			"flow":  flow.Name,
			"wa_id": waID,
		}).Info("Flow triggered")

		return e.RunFlow(waID, flow.ID)
	}

	return nil
}

// RunFlow walks the flow graph from its start node, sending each node's
// steps and following default edges. The walk stops at a node that waits
// for user input, or after maxFlowDepth nodes.
func (e *Engine) RunFlow(waID, flowID string) error {
	graph, err := e.loadGraph(flowID)
	if err != nil {
		return err
	}

	node := graph.Start()
	if node == nil {
		return fmt.Errorf("flow %s has no start node", flowID)
	}

	for depth := 0; node != nil && depth < maxFlowDepth; depth++ {
		waits, err := e.executeNode(waID, node)
		if err != nil {
			return err
		}
		if waits {
			return nil
		}
		node = graph.Next(node.ID)
	}

	return nil
}

// executeNode sends the node's steps and reports whether the node ends by
// waiting for user input.
func (e *Engine) executeNode(waID string, node *GraphNode) (bool, error) {
	for _, step := range node.Data.Steps {
		switch step.Type {
		case "Text", "Text Message":
			text := e.replaceVariables(waID, step.Content)
			if _, err := e.client.SendTextMessage(waID, text); err != nil {
				return false, err
			}

		case "Quick Reply":
			text := e.replaceVariables(waID, step.Content)
			var buttons []whatsapp.ReplyObj
			for i, btn := range step.Buttons {
				if i >= 3 {
					break // WhatsApp limit
				}
				buttons = append(buttons, whatsapp.ReplyObj{
					ID:    fmt.Sprintf("btn_%d", i),
					Title: btn.Label,
				})
			}
			if _, err := e.client.SendButtonsMessage(waID, text, buttons); err != nil {
				return false, err
			}

		case "Image":
			if step.Url != "" {
				if _, err := e.client.SendImageMessage(waID, step.Url, step.Content); err != nil {
					return false, err
				}
			}
		}
	}

	if len(node.Data.Steps) > 0 {
		last := node.Data.Steps[len(node.Data.Steps)-1]
		if strings.Contains(last.Type, "Input") || last.Type == "Quick Reply" || last.Type == "List" {
			return true, nil
		}
	}
	return false, nil
}

// replaceVariables substitutes contact fields into outgoing text.
func (e *Engine) replaceVariables(waID, text string) string {
	var contact models.Contact
	e.db.Select("name").Where("wa_id = ?", waID).First(&contact)

	text = strings.ReplaceAll(text, "{{contact.name}}", contact.Name)
	text = strings.ReplaceAll(text, "{{contact.phone}}", waID)
	return text
}
