package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/adaptive-fitness/internal/api"
	"alcyxob/adaptive-fitness/internal/calories"
	"alcyxob/adaptive-fitness/internal/config"
	"alcyxob/adaptive-fitness/internal/dates"
	"alcyxob/adaptive-fitness/internal/export"
	"alcyxob/adaptive-fitness/internal/generator"
	"alcyxob/adaptive-fitness/internal/repository/mongo"
	"alcyxob/adaptive-fitness/internal/service"
	"alcyxob/adaptive-fitness/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logrus.WithField("component", "main")
	log.Info("starting adaptive fitness engine")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.WithError(err).Fatal("could not load config")
	}

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		log.WithError(err).Fatalf("invalid timezone %q", cfg.Schedule.Timezone)
	}
	clock := dates.NewSystemClock(loc)

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.WithError(err).Fatal("could not connect to MongoDB")
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.WithError(err).Error("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureProgramIndexes(ctx, appDB.Collection("programs"))
		mongo.EnsureSessionIndexes(ctx, appDB.Collection("workout_sessions"))
		mongo.EnsureProfileIndexes(ctx, appDB.Collection("user_profiles"))
		mongo.EnsureProgressionIndexes(ctx, appDB.Collection("progression_events"))
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize S3 storage")
	}

	// --- Initialize Repositories ---
	programRepo := mongo.NewMongoProgramRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	profileRepo := mongo.NewMongoProfileRepository(appDB)
	progressionRepo := mongo.NewMongoProgressionRepository(appDB)

	// --- Initialize Services ---
	estimator := calories.NewMETEstimator()
	profileService := service.NewProfileService(profileRepo)
	sessionService := service.NewSessionService(sessionRepo, programRepo, profileRepo, progressionRepo, estimator, clock)
	scheduleService := service.NewScheduleService(programRepo, profileRepo, sessionRepo, sessionService, clock)
	programGenerator := &generator.StaticGenerator{}
	cycleService := service.NewCycleService(programRepo, profileRepo, sessionRepo, programGenerator, sessionService, clock)
	exporter := export.NewExporter(programRepo, profileRepo, sessionRepo, fileStorage, clock)

	// --- Nightly Sweep ---
	sweeper := cron.New()
	if err := sweeper.AddFunc(cfg.Schedule.SweepSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		scheduleService.NightlySweep(ctx)
	}); err != nil {
		log.WithError(err).Fatalf("invalid sweep spec %q", cfg.Schedule.SweepSpec)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// --- Initialize Gin Engine ---
	router := gin.New()
	router.Use(gin.Recovery())

	// --- Setup Routes ---
	api.SetupRoutes(router, profileService, scheduleService, sessionService, cycleService, exporter)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("address", cfg.Server.Address).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen and serve error")
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exiting")
}
