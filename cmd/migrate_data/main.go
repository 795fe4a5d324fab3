package main

import (
	"fmt"

	"whatsapp-crm/internal/config"
	"whatsapp-crm/internal/database"
	"whatsapp-crm/internal/logging"
	"whatsapp-crm/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// One-shot copy of a local SQLite database into PostgreSQL. Set DB_DRIVER=postgres
// plus the DB_* connection vars for the destination; DB_PATH points at the source.
func main() {
	log := logging.New("migrate-data")
	cfg := config.LoadConfig()

	if cfg.DBDriver != "postgres" {
		log.Fatal("Destination must be postgres (set DB_DRIVER=postgres)")
	}

	sourceDB, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.WithError(err).Fatal("Failed to open source SQLite database")
	}
	log.WithField("path", cfg.DBPath).Info("Connected to source SQLite database")

	destDB, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to destination PostgreSQL")
	}
	if err := destDB.AutoMigrate(database.Models()...); err != nil {
		log.WithError(err).Fatal("Failed to migrate destination schema")
	}

	migrateTable := func(name string, rows interface{}) {
		if err := sourceDB.Find(rows).Error; err != nil {
			log.WithError(err).WithField("table", name).Error("Failed to read source table")
			return
		}

		err := destDB.Transaction(func(tx *gorm.DB) error {
			return tx.CreateInBatches(rows, 500).Error
		})
		if err != nil {
			log.WithError(err).WithField("table", name).Error("Failed to write destination table")
			return
		}
		log.WithField("table", name).Info("Migrated table")
	}

	// Parents before children so foreign keys resolve.
	var users []models.User
	migrateTable("users", &users)
	var contacts []models.Contact
	migrateTable("contacts", &contacts)
	var segments []models.Segment
	migrateTable("segments", &segments)
	var templates []models.Template
	migrateTable("templates", &templates)
	var campaigns []models.Campaign
	migrateTable("campaigns", &campaigns)
	var campaignMessages []models.CampaignMessage
	migrateTable("campaign_messages", &campaignMessages)
	var messages []models.Message
	migrateTable("messages", &messages)
	var flows []models.Flow
	migrateTable("flows", &flows)
	var flowNodes []models.FlowNode
	migrateTable("flow_nodes", &flowNodes)
	var flowEdges []models.FlowEdge
	migrateTable("flow_edges", &flowEdges)
	var policyRules []models.PolicyRules
	migrateTable("policy_rules", &policyRules)
	var settings []models.SystemSetting
	migrateTable("system_settings", &settings)
	var media []models.Media
	migrateTable("media", &media)

	// Copied rows carry their original ids, so bump each serial sequence past
	// the current max or the next insert will collide.
	serialTables := []string{
		"users",
		"segments",
		"campaign_messages",
		"messages",
		"flow_nodes",
		"flow_edges",
		"policy_rules",
		"media",
	}
	for _, table := range serialTables {
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), coalesce(max(id), 0) + 1, false) FROM %s",
			table, table,
		)
		if err := destDB.Exec(query).Error; err != nil {
			log.WithError(err).WithField("table", table).Error("Failed to sync sequence")
		}
	}

	log.Info("Migration completed")
}
