package api

import (
	"encoding/json"
	"net/http"

	"whatsapp-crm/internal/database"
	"whatsapp-crm/internal/models"
	"whatsapp-crm/internal/policy"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PolicyHandler struct {
	Registry *policy.Registry
	Log      *logrus.Entry
}

func NewPolicyHandler(registry *policy.Registry, log *logrus.Entry) *PolicyHandler {
	return &PolicyHandler{Registry: registry, Log: log}
}

func (h *PolicyHandler) tenant(c *gin.Context) string {
	t := c.GetString("tenant_id")
	if t == "" {
		t = policy.DefaultTenant
	}
	return t
}

// GetRules returns the tenant's effective rule set.
func (h *PolicyHandler) GetRules(c *gin.Context) {
	scanner := h.Registry.Scanner(h.tenant(c))
	c.JSON(http.StatusOK, scanner.Rules())
}

// UpdateRules replaces the lists present in the request body. A list that is
// omitted keeps its current rules; an empty list clears them. The whole
// update is rejected if any pattern fails to compile.
func (h *PolicyHandler) UpdateRules(c *gin.Context) {
	var update policy.RuleSetUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if update.SensitiveDataPatterns == nil && update.SpamLanguagePatterns == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Provide sensitiveDataPatterns, spamLanguagePatterns, or both"})
		return
	}

	tenant := h.tenant(c)
	scanner := h.Registry.Scanner(tenant)
	if err := scanner.SetRules(update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	effective := scanner.Rules()
	if err := h.persist(tenant, effective); err != nil {
		h.Log.WithError(err).WithField("tenant", tenant).Error("Failed to persist policy rules")
	}

	c.JSON(http.StatusOK, effective)
}

// persist stores the effective rule set so a restart keeps the override.
func (h *PolicyHandler) persist(tenant string, set policy.RuleSet) error {
	sensitive, err := json.Marshal(set.SensitiveDataPatterns)
	if err != nil {
		return err
	}
	spam, err := json.Marshal(set.SpamLanguagePatterns)
	if err != nil {
		return err
	}

	row := models.PolicyRules{
		TenantID:          tenant,
		SensitivePatterns: string(sensitive),
		SpamPatterns:      string(spam),
	}
	return database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sensitive_patterns", "spam_patterns"}),
	}).Create(&row).Error
}

// LoadPolicyOverrides replays persisted rule sets into the registry at
// startup. Rows that no longer compile are skipped with a warning rather
// than blocking boot.
func LoadPolicyOverrides(db *gorm.DB, registry *policy.Registry, log *logrus.Entry) {
	var rows []models.PolicyRules
	if err := db.Find(&rows).Error; err != nil {
		log.WithError(err).Error("Failed to load policy overrides")
		return
	}

	for _, row := range rows {
		var update policy.RuleSetUpdate

		if row.SensitivePatterns != "" {
			var rules []policy.Rule
			if err := json.Unmarshal([]byte(row.SensitivePatterns), &rules); err != nil {
				log.WithError(err).WithField("tenant", row.TenantID).Warn("Bad sensitive pattern JSON, skipping")
				continue
			}
			if rules == nil {
				rules = []policy.Rule{}
			}
			update.SensitiveDataPatterns = rules
		}
		if row.SpamPatterns != "" {
			var rules []policy.Rule
			if err := json.Unmarshal([]byte(row.SpamPatterns), &rules); err != nil {
				log.WithError(err).WithField("tenant", row.TenantID).Warn("Bad spam pattern JSON, skipping")
				continue
			}
			if rules == nil {
				rules = []policy.Rule{}
			}
			update.SpamLanguagePatterns = rules
		}

		if err := registry.Scanner(row.TenantID).SetRules(update); err != nil {
			log.WithError(err).WithField("tenant", row.TenantID).Warn("Persisted policy rules no longer compile, skipping")
		}
	}

	if len(rows) > 0 {
		log.WithField("tenants", len(rows)).Info("Policy overrides loaded")
	}
}
