// Package export renders cycle summaries to JSON snapshots in object
// storage, so users can share or keep a record of a finished week.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"alcyxob/adaptive-fitness/internal/dates"
	"alcyxob/adaptive-fitness/internal/domain"
	"alcyxob/adaptive-fitness/internal/repository"
	"alcyxob/adaptive-fitness/internal/schedule"
	"alcyxob/adaptive-fitness/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CycleSummary is the exported snapshot document.
type CycleSummary struct {
	ProgramName            string           `json:"programName"`
	CycleNumber            int              `json:"cycleNumber"`
	AnchorDate             string           `json:"anchorDate"`
	GeneratedAt            time.Time        `json:"generatedAt"`
	CompletedWorkouts      int              `json:"completedWorkouts"`
	TotalWorkoutsCompleted int              `json:"totalWorkoutsCompleted"`
	Sessions               []SessionSummary `json:"sessions"`
}

// SessionSummary is one session line in the snapshot.
type SessionSummary struct {
	Date            string `json:"date"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
	Calories        int    `json:"calories,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

// Exporter builds and stores cycle summary snapshots.
type Exporter interface {
	// ExportCycleSummary snapshots the active program's current cycle to
	// object storage and returns a presigned download URL for the snapshot.
	ExportCycleSummary(ctx context.Context, userID primitive.ObjectID) (string, error)
}

type exporter struct {
	programRepo repository.ProgramRepository
	profileRepo repository.ProfileRepository
	sessionRepo repository.SessionRepository
	files       storage.FileStorage
	clock       dates.Clock
	log         *logrus.Entry
}

// NewExporter creates a new exporter.
func NewExporter(
	programRepo repository.ProgramRepository,
	profileRepo repository.ProfileRepository,
	sessionRepo repository.SessionRepository,
	files storage.FileStorage,
	clock dates.Clock,
) Exporter {
	return &exporter{
		programRepo: programRepo,
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		files:       files,
		clock:       clock,
		log:         logrus.WithField("component", "export"),
	}
}

func (e *exporter) ExportCycleSummary(ctx context.Context, userID primitive.ObjectID) (string, error) {
	profile, err := e.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load profile: %w", err)
	}
	program, err := e.programRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load active program: %w", err)
	}

	anchor := program.Anchor()
	windowEnd := anchor.AddDays(schedule.CycleDays - 1)
	sessions, err := e.sessionRepo.GetByProgramAndDateRange(ctx, program.ID, anchor.String(), windowEnd.String())
	if err != nil {
		return "", fmt.Errorf("failed to load cycle sessions: %w", err)
	}

	summary := CycleSummary{
		ProgramName:            program.Name,
		CycleNumber:            profile.CycleNumber,
		AnchorDate:             program.AnchorDate,
		GeneratedAt:            e.clock.Now(),
		TotalWorkoutsCompleted: profile.TotalWorkoutsCompleted,
	}
	for _, s := range sessions {
		if s.SessionType == domain.SessionTypeWorkout && s.Completed {
			summary.CompletedWorkouts++
		}
		summary.Sessions = append(summary.Sessions, SessionSummary{
			Date:            s.ScheduledDate,
			Type:            string(s.SessionType),
			Status:          string(s.Status),
			DurationMinutes: s.DurationMinutes,
			Calories:        s.Calories,
			Notes:           s.Notes,
		})
	}

	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode cycle summary: %w", err)
	}

	objectKey := fmt.Sprintf("exports/%s/%s-%s.json", userID.Hex(), program.AnchorDate, uuid.NewString())
	if err := e.files.Upload(ctx, objectKey, "application/json", bytes.NewReader(payload)); err != nil {
		return "", fmt.Errorf("failed to store cycle summary: %w", err)
	}

	url, err := e.files.GeneratePresignedDownloadURL(ctx, objectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign summary download: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"userId": userID.Hex(),
		"key":    objectKey,
	}).Info("cycle summary exported")
	return url, nil
}
