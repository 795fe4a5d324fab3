package campaigns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"whatsapp-crm/internal/config"
	"whatsapp-crm/internal/metrics"
	"whatsapp-crm/internal/models"
	"whatsapp-crm/internal/validation"
	"whatsapp-crm/internal/whatsapp"
	"whatsapp-crm/internal/ws"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

var ErrNotLaunchable = errors.New("campaign is not in a launchable state")

// Runner owns campaign execution: a cron sweep promotes scheduled campaigns
// when their time comes, and each running campaign sends through a shared
// rate limiter so the provider's messages-per-second cap is respected.
type Runner struct {
	db      *gorm.DB
	client  *whatsapp.Client
	hub     *ws.Hub
	metrics *metrics.Metrics
	log     *logrus.Entry

	limiter   *rate.Limiter
	cron      *cron.Cron
	sweepSpec string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(db *gorm.DB, client *whatsapp.Client, hub *ws.Hub, m *metrics.Metrics, cfg *config.Config, log *logrus.Entry) (*Runner, error) {
	if _, err := cron.ParseStandard(cfg.CampaignSweepSpec); err != nil {
		return nil, fmt.Errorf("invalid CAMPAIGN_SWEEP_SPEC %q: %w", cfg.CampaignSweepSpec, err)
	}

	mps := cfg.SendRateMPS
	if mps <= 0 {
		mps = 10
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		db:        db,
		client:    client,
		hub:       hub,
		metrics:   m,
		log:       log,
		limiter:   rate.NewLimiter(rate.Limit(mps), int(mps)+1),
		cron:      cron.New(),
		sweepSpec: cfg.CampaignSweepSpec,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start recovers campaigns interrupted by a restart and schedules the sweep.
func (r *Runner) Start() error {
	r.db.Model(&models.Campaign{}).
		Where("status = ?", models.CampaignStatusRunning).
		Update("status", models.CampaignStatusFailed)

	if _, err := r.cron.AddFunc(r.sweepSpec, r.sweep); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the sweep and waits for in-flight campaigns to notice the
// cancelled context.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	r.cancel()
	r.wg.Wait()
}

// sweep launches every scheduled campaign whose time has come.
func (r *Runner) sweep() {
	var due []models.Campaign
	err := r.db.Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?",
		models.CampaignStatusScheduled, time.Now()).Find(&due).Error
	if err != nil {
		r.log.WithError(err).Error("Campaign sweep query failed")
		return
	}

	for _, c := range due {
		if err := r.Launch(c.ID); err != nil {
			r.log.WithError(err).WithField("campaign", c.ID).Error("Failed to launch campaign")
		}
	}
}

// Launch transitions a draft or scheduled campaign to RUNNING and starts
// sending in the background. The status update is conditional, so two
// concurrent launches cannot both win.
func (r *Runner) Launch(campaignID string) error {
	now := time.Now()
	res := r.db.Model(&models.Campaign{}).
		Where("id = ? AND status IN ?", campaignID,
			[]string{models.CampaignStatusDraft, models.CampaignStatusScheduled}).
		Updates(map[string]interface{}{
			"status":     models.CampaignStatusRunning,
			"started_at": &now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotLaunchable
	}

	r.wg.Add(1)
	go r.run(campaignID)
	return nil
}

func (r *Runner) run(campaignID string) {
	defer r.wg.Done()

	log := r.log.WithField("campaign", campaignID)

	var campaign models.Campaign
	if err := r.db.First(&campaign, "id = ?", campaignID).Error; err != nil {
		log.WithError(err).Error("Campaign vanished after launch")
		return
	}

	doc, tpl, err := r.loadTemplate(campaign.TemplateID)
	if err != nil {
		log.WithError(err).Error("Campaign template unusable")
		r.finish(&campaign, models.CampaignStatusFailed)
		return
	}

	recipients, err := r.recipients(&campaign)
	if err != nil {
		log.WithError(err).Error("Failed to resolve recipients")
		r.finish(&campaign, models.CampaignStatusFailed)
		return
	}

	campaign.Total = len(recipients)
	r.db.Model(&campaign).Update("total", campaign.Total)
	log.WithField("recipients", campaign.Total).Info("Campaign started")

	components := buildSendComponents(doc)

	for _, contact := range recipients {
		if err := r.limiter.Wait(r.ctx); err != nil {
			log.Info("Campaign interrupted by shutdown")
			r.finish(&campaign, models.CampaignStatusFailed)
			return
		}

		row := models.CampaignMessage{
			CampaignID: campaign.ID,
			WaID:       contact.WaID,
		}

		wamid, err := r.client.SendTemplateMessage(contact.WaID, tpl.Name, tpl.Language, components)
		now := time.Now()
		if err != nil {
			campaign.Failed++
			row.Status = "failed"
			row.Error = err.Error()
			r.metrics.CampaignMessages.WithLabelValues("failed").Inc()
		} else {
			campaign.Sent++
			row.Status = "sent"
			row.MessageID = wamid
			row.SentAt = &now
			r.metrics.CampaignMessages.WithLabelValues("sent").Inc()
		}
		r.db.Create(&row)
		r.db.Model(&campaign).Updates(map[string]interface{}{
			"sent":   campaign.Sent,
			"failed": campaign.Failed,
		})

		r.hub.BroadcastEvent(ws.EventCampaignProgress, map[string]interface{}{
			"campaign_id": campaign.ID,
			"total":       campaign.Total,
			"sent":        campaign.Sent,
			"failed":      campaign.Failed,
		})
	}

	r.finish(&campaign, models.CampaignStatusCompleted)
	log.WithFields(logrus.Fields{
		"sent":   campaign.Sent,
		"failed": campaign.Failed,
	}).Info("Campaign completed")
}

// loadTemplate fetches the campaign's template and rejects anything the
// provider has not approved.
func (r *Runner) loadTemplate(templateID string) (*validation.Template, *models.Template, error) {
	var tpl models.Template
	if err := r.db.First(&tpl, "id = ?", templateID).Error; err != nil {
		return nil, nil, err
	}
	if tpl.Status != models.TemplateStatusApproved {
		return nil, nil, fmt.Errorf("template %s is %s, not APPROVED", tpl.Name, tpl.Status)
	}

	var doc validation.Template
	if err := json.Unmarshal([]byte(tpl.Document), &doc); err != nil {
		return nil, nil, fmt.Errorf("template document corrupt: %w", err)
	}
	return &doc, &tpl, nil
}

func (r *Runner) recipients(campaign *models.Campaign) ([]models.Contact, error) {
	var contacts []models.Contact
	q := r.db.Model(&models.Contact{})

	if campaign.SegmentID != nil {
		var segment models.Segment
		if err := r.db.First(&segment, *campaign.SegmentID).Error; err != nil {
			return nil, err
		}
		q = q.Where("tags LIKE ?", "%"+segment.Tag+"%")
	}

	if err := q.Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *Runner) finish(campaign *models.Campaign, status string) {
	now := time.Now()
	r.db.Model(campaign).Updates(map[string]interface{}{
		"status":       status,
		"completed_at": &now,
	})
	r.hub.BroadcastEvent(ws.EventCampaignProgress, map[string]interface{}{
		"campaign_id": campaign.ID,
		"status":      status,
		"total":       campaign.Total,
		"sent":        campaign.Sent,
		"failed":      campaign.Failed,
	})
}

// buildSendComponents turns the stored document's sample values into body
// parameters for the send payload.
// TODO: media-header templates need a per-send media id before a header
// component can be included here.
func buildSendComponents(doc *validation.Template) []whatsapp.ComponentObj {
	indices := validation.ExtractPlaceholders(doc.Components.BodyText())
	if len(indices) == 0 {
		return nil
	}

	max := 0
	for _, idx := range indices {
		if idx > max {
			max = idx
		}
	}

	params := make([]whatsapp.ParameterObj, 0, max)
	for i := 1; i <= max; i++ {
		params = append(params, whatsapp.ParameterObj{
			Type: "text",
			Text: doc.SampleValues[strconv.Itoa(i)],
		})
	}

	return []whatsapp.ComponentObj{{
		Type:       "body",
		Parameters: params,
	}}
}
