package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"whatsapp-crm/internal/api"
	"whatsapp-crm/internal/auth"
	"whatsapp-crm/internal/automation"
	"whatsapp-crm/internal/campaigns"
	"whatsapp-crm/internal/config"
	"whatsapp-crm/internal/database"
	"whatsapp-crm/internal/logging"
	"whatsapp-crm/internal/metrics"
	"whatsapp-crm/internal/policy"
	"whatsapp-crm/internal/webhook"
	"whatsapp-crm/internal/whatsapp"
	"whatsapp-crm/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	log := logging.New("server")
	cfg := config.LoadConfig()

	if err := database.Init(cfg); err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	database.SyncConfig(cfg)

	m := metrics.New()

	// Policy rules: built-in defaults, optionally overridden by a YAML file
	// that is hot-reloaded on change, plus per-tenant overrides from the DB.
	registry := policy.NewRegistry()
	if cfg.PolicyRulesFile != "" {
		update, err := policy.LoadFile(cfg.PolicyRulesFile)
		if err != nil {
			log.WithError(err).Fatal("Failed to load policy rules file")
		}
		if err := registry.SetBase(policy.DefaultRuleSet().Merged(update)); err != nil {
			log.WithError(err).Fatal("Failed to apply policy rules file")
		}
		watcher, err := policy.WatchFile(cfg.PolicyRulesFile, registry, 500*time.Millisecond, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to watch policy rules file")
		}
		defer watcher.Stop()
		log.WithField("path", cfg.PolicyRulesFile).Info("Watching policy rules file")
	}
	api.LoadPolicyOverrides(database.DB, registry, log)

	authService := auth.NewService(database.DB, cfg.JWTSecret, log)
	if err := authService.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.WithError(err).Fatal("Failed to ensure admin user")
	}

	client := whatsapp.NewClient(cfg, log)

	hub := ws.NewHub(log, m.WSClients)
	go hub.Run()

	engine := automation.NewEngine(database.DB, client, log)

	runner, err := campaigns.NewRunner(database.DB, client, hub, m, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create campaign runner")
	}
	if err := runner.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start campaign runner")
	}

	webhookHandler := webhook.NewHandler(cfg, database.DB, engine, hub, log)
	authHandler := api.NewAuthHandler(authService)
	templateHandler := api.NewTemplateHandler(registry, client, hub, m, log)
	policyHandler := api.NewPolicyHandler(registry, log)
	contactHandler := api.NewContactHandler()
	segmentHandler := api.NewSegmentHandler()
	campaignHandler := api.NewCampaignHandler(runner)
	flowHandler := api.NewFlowHandler()
	dashboardHandler := api.NewDashboardHandler(client, hub, log)
	mediaHandler := api.NewMediaHandler(client, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(api.CORSMiddleware())
	r.Use(api.RequestLogger(log))
	r.Use(m.GinMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Webhook Routes (verified by Meta's token, not by JWT)
	r.GET("/webhook", webhookHandler.VerifyWebhook)
	r.POST("/webhook", webhookHandler.HandleNotification)

	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	r.POST("/api/auth/login", authHandler.Login)

	apiGroup := r.Group("/api")
	apiGroup.Use(api.AuthRequired(authService))
	apiGroup.Use(api.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		// Template Routes
		apiGroup.GET("/templates", templateHandler.ListTemplates)
		apiGroup.POST("/templates", templateHandler.CreateTemplate)
		apiGroup.GET("/templates/:id", templateHandler.GetTemplate)
		apiGroup.PUT("/templates/:id", templateHandler.UpdateTemplate)
		apiGroup.DELETE("/templates/:id", templateHandler.DeleteTemplate)
		apiGroup.POST("/templates/validate", templateHandler.ValidateTemplate)
		apiGroup.POST("/templates/score", templateHandler.ScoreTemplate)
		apiGroup.POST("/templates/:id/submit", templateHandler.SubmitTemplate)
		apiGroup.POST("/templates/sync", templateHandler.SyncTemplates)

		// Policy Routes
		apiGroup.GET("/policy/rules", policyHandler.GetRules)
		apiGroup.PUT("/policy/rules", policyHandler.UpdateRules)

		// CRM Routes
		apiGroup.GET("/contacts", contactHandler.GetContacts)
		apiGroup.POST("/contacts", contactHandler.CreateContact)
		apiGroup.GET("/contacts/:waId", contactHandler.GetContact)
		apiGroup.PUT("/contacts/:waId", contactHandler.UpdateContact)
		apiGroup.DELETE("/contacts/:waId", contactHandler.DeleteContact)
		apiGroup.GET("/contacts/export", contactHandler.ExportContacts)

		apiGroup.GET("/segments", segmentHandler.GetSegments)
		apiGroup.POST("/segments", segmentHandler.CreateSegment)
		apiGroup.PUT("/segments/:id", segmentHandler.UpdateSegment)
		apiGroup.DELETE("/segments/:id", segmentHandler.DeleteSegment)
		apiGroup.GET("/segments/:id/contacts", segmentHandler.GetSegmentContacts)

		// Campaign Routes
		apiGroup.GET("/campaigns", campaignHandler.GetCampaigns)
		apiGroup.POST("/campaigns", campaignHandler.CreateCampaign)
		apiGroup.GET("/campaigns/:id", campaignHandler.GetCampaign)
		apiGroup.DELETE("/campaigns/:id", campaignHandler.DeleteCampaign)
		apiGroup.POST("/campaigns/:id/start", campaignHandler.StartCampaign)

		// Automation Flow Routes
		apiGroup.GET("/flows", flowHandler.GetFlows)
		apiGroup.POST("/flows", flowHandler.CreateFlow)
		apiGroup.GET("/flows/:id", flowHandler.GetFlow)
		apiGroup.PUT("/flows/:id", flowHandler.UpdateFlow)
		apiGroup.DELETE("/flows/:id", flowHandler.DeleteFlow)

		// Inbox + Dashboard Routes
		apiGroup.GET("/dashboard/stats", dashboardHandler.GetStats)
		apiGroup.GET("/messages", dashboardHandler.GetMessages)
		apiGroup.POST("/send", dashboardHandler.SendMessage)

		// Media Routes
		apiGroup.POST("/media", mediaHandler.UploadMedia)
		apiGroup.GET("/media", mediaHandler.ListMedia)
		apiGroup.GET("/media/:id", mediaHandler.GetMediaURL)
		apiGroup.DELETE("/media/:id", mediaHandler.DeleteMedia)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to run server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("Shutting down")
	runner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}
