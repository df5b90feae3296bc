package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ritualhq/ritual/backend/internal/config"
	"github.com/ritualhq/ritual/backend/internal/handlers"
	"github.com/ritualhq/ritual/backend/internal/logger"
	"github.com/ritualhq/ritual/backend/internal/middleware"
	"github.com/ritualhq/ritual/backend/internal/plan"
	"github.com/ritualhq/ritual/backend/internal/repository"
	"github.com/ritualhq/ritual/backend/internal/service"
	"github.com/ritualhq/ritual/backend/internal/worker"
	"github.com/ritualhq/ritual/backend/pkg/supabase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server and listen for requests.`,
	RunE:  runServe,
}

var (
	port string
)

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Override port from flag if provided
	if port != "" {
		cfg.Server.Port = port
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.Logging.Level)
	logCfg.Format = cfg.Logging.Format
	if cfg.Server.Env != "production" {
		logCfg.Level = logger.LevelDebug
		logCfg.Format = "text"
	}
	logger.SetDefault(logger.NewSlogLogger(logCfg))
	log := logger.Default()

	log.Info("starting ritual api server",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
	)

	// Load the step catalog
	catalog, err := plan.Load(cfg.Plan.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load step catalog: %w", err)
	}
	log.Info("step catalog loaded",
		logger.Int("version", catalog.Version),
		logger.Int("steps", len(catalog.Steps)),
	)

	// Initialize Supabase client
	supabaseClient := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(supabaseClient)
	recordRepo := repository.NewDailyRecordRepository(supabaseClient)
	skipRepo := repository.NewSkipEventRepository(supabaseClient)
	ratingRepo := repository.NewOutcomeRatingRepository(supabaseClient)
	sessionRepo := repository.NewSessionStartRepository(supabaseClient)
	streakRepo := repository.NewStreakStateRepository(supabaseClient)

	// Background queue for advisory recomputation work
	queue := worker.NewQueue(cfg.Worker.QueueSize, cfg.Worker.Workers, log)

	// Initialize services
	scoringService := service.NewScoringService(profileRepo, recordRepo, skipRepo, catalog)
	streakService := service.NewStreakService(scoringService, streakRepo,
		cfg.Scoring.QualifyingScore, cfg.Scoring.StreakLookbackDays)
	summaryService := service.NewSummaryService(profileRepo, recordRepo, skipRepo,
		scoringService, streakService, catalog, queue)
	estimator := service.EstimatorParams{
		TimerSkipSeconds:         cfg.Scoring.TimerSkipSeconds,
		ProductSkipSeconds:       cfg.Scoring.ProductSkipSeconds,
		TimerSkipWeightPercent:   cfg.Scoring.TimerSkipWeightPercent,
		ExerciseEndWeightPercent: cfg.Scoring.ExerciseEndWeightPercent,
		ApplicationPoints:        cfg.Scoring.ApplicationPoints,
	}
	insightsService := service.NewInsightsService(profileRepo, recordRepo, skipRepo,
		ratingRepo, sessionRepo, scoringService, catalog, estimator,
		cfg.Insights.MinRatedWeeks, cfg.Insights.SignificanceThreshold, cfg.Insights.PatternWindowDays)
	routineService := service.NewRoutineService(profileRepo, recordRepo, skipRepo,
		sessionRepo, streakService, catalog, queue)

	// Initialize handlers
	routineHandler := handlers.NewRoutineHandler(routineService)
	summaryHandler := handlers.NewSummaryHandler(summaryService)
	insightsHandler := handlers.NewInsightsHandler(insightsService, streakService)

	// Set Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"env":    cfg.Server.Env,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.Auth(supabaseClient))
		{
			// Routine event routes
			protected.POST("/routine/steps/:stepID/complete", routineHandler.CompleteStep)
			protected.POST("/routine/steps/:stepID/uncomplete", routineHandler.UncompleteStep)
			protected.POST("/routine/sessions/:section/complete", routineHandler.CompleteSession)
			protected.POST("/routine/skips", routineHandler.RecordSkip)

			// Summary and insight routes
			protected.GET("/summary/weekly", summaryHandler.GetWeeklySummary)

			insights := protected.Group("/insights")
			insights.Use(middleware.RateLimitInsights())
			{
				insights.GET("/monthly", insightsHandler.GetMonthlyInsights)
				insights.GET("/streaks", insightsHandler.GetStreaks)
			}
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-quit:
		log.Info("shutting down", logger.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", logger.Err(err))
	}
	// Drain the background queue so advisory writes are not lost
	if err := queue.Shutdown(shutdownCtx); err != nil {
		log.Warn("task queue drain timed out", logger.Err(err))
	}

	return nil
}
