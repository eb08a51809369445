package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meetingagent/config"
	"meetingagent/handlers"
	"meetingagent/middleware"
	"meetingagent/routes"
	"meetingagent/services/calendar"
	"meetingagent/services/oracle"
	"meetingagent/services/session"
	"meetingagent/services/workflow"
	"meetingagent/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Oracle.
	oracleTimeout := time.Duration(config.AppConfig.OracleTimeoutSeconds) * time.Second
	turnOracle, err := oracle.NewGeminiClient(
		config.AppConfig.GeminiAPIKey,
		config.AppConfig.GeminiModel,
		oracleTimeout,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize oracle: %v", err)
	}

	// Availability provider.
	cal := calendar.NewMockCalendar(config.BusyAttendeeList()...)

	// Workflows.
	inputWorkflow := &workflow.InputWorkflow{
		Oracle:          turnOracle,
		DefaultTimezone: config.AppConfig.DefaultTimezone,
		Logger:          logger,
	}
	bookingWorkflow := &workflow.BookingWorkflow{
		Oracle:          turnOracle,
		Calendar:        cal,
		DefaultTimezone: config.AppConfig.DefaultTimezone,
		Logger:          logger,
	}
	planner := &workflow.Planner{
		Oracle:  turnOracle,
		Input:   inputWorkflow,
		Booking: bookingWorkflow,
		Logger:  logger,
	}

	// Session store.
	var store session.Store
	var redisClients []*redis.Client
	if config.AppConfig.SessionBackend == "redis" {
		client := utils.GetSessionCacheClient()
		ttl := time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
		store = session.NewRedisStore(client, ttl)
		redisClients = append(redisClients, client)
	} else {
		store = session.NewMemoryStore()
	}
	utils.StartHealthMonitor(redisClients)

	sessionService := session.NewService(store, planner, config.AppConfig.TurnBudget, logger)
	chatHandler := handlers.NewChatHandler(sessionService, logger)

	routes.RegisterRoutes(router, chatHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
