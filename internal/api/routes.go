package api

import (
	"net/http"

	"alcyxob/adaptive-fitness/internal/export"
	"alcyxob/adaptive-fitness/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	profileService service.ProfileService,
	scheduleService service.ScheduleService,
	sessionService service.SessionService,
	cycleService service.CycleService,
	exporter export.Exporter,
) {
	profileHandler := NewProfileHandler(profileService)
	scheduleHandler := NewScheduleHandler(scheduleService)
	sessionHandler := NewSessionHandler(sessionService, profileService)
	cycleHandler := NewCycleHandler(cycleService, exporter)

	router.Use(RequestLogger())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	apiV1.Use(UserIDMiddleware())
	{
		profileGroup := apiV1.Group("/profile")
		{
			profileGroup.GET("", profileHandler.GetProfile)
			profileGroup.PUT("", profileHandler.SaveProfile)
		}

		scheduleGroup := apiV1.Group("/schedule")
		{
			scheduleGroup.GET("", scheduleHandler.GetSchedule)
			scheduleGroup.POST("/materialize", scheduleHandler.MaterializeCycle)
			scheduleGroup.GET("/missed", scheduleHandler.GetMissed)
			scheduleGroup.POST("/reconcile", scheduleHandler.Reconcile)
			scheduleGroup.POST("/skip-missed", scheduleHandler.SkipMissed)
		}

		sessionGroup := apiV1.Group("/sessions")
		{
			sessionGroup.POST("/start", sessionHandler.StartSession)
			sessionGroup.POST("/cardio", sessionHandler.LogCardio)
		}

		apiV1.GET("/programs/:programId/slots/:slotId/target", sessionHandler.GetCurrentTarget)

		cycleGroup := apiV1.Group("/cycle")
		{
			cycleGroup.GET("/status", cycleHandler.GetStatus)
			cycleGroup.POST("/repeat", cycleHandler.Repeat)
			cycleGroup.POST("/new-program", cycleHandler.StartProgram)
			cycleGroup.POST("/export", cycleHandler.Export)
		}
	}
}
