package schedule

import (
	"sort"

	"alcyxob/adaptive-fitness/internal/dates"
	"alcyxob/adaptive-fitness/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Missed returns the workout sessions whose scheduled date is strictly
// before today without the session having reached a terminal state, earliest
// first. Rest days never count as missed. today must be the caller's LOCAL
// calendar day; using a server-side UTC date here produces off-by-one misses
// for users west of Greenwich.
func Missed(sessions []domain.WorkoutSession, today dates.LocalDate) []domain.WorkoutSession {
	var missed []domain.WorkoutSession
	for _, s := range sessions {
		if s.MissedAsOf(today) {
			missed = append(missed, s)
		}
	}
	sortByDate(missed)
	return missed
}

// Move is one planned date change produced by the reschedule planner.
type Move struct {
	SessionID primitive.ObjectID
	From      dates.LocalDate
	To        dates.LocalDate
}

// PlanReschedule computes the "life happens" policy: take every non-terminal
// session from the earliest missed date forward and shift the whole tail
// toward today by the miss gap, preserving relative order and day spacing so
// no workout is lost and the cycle's movement-pattern coverage stays intact.
// Shifted sessions slide past dates still held by unarchived terminal
// sessions, keeping at most one non-archived session per date.
//
// The plan is derived purely from current state, never from a delta, so
// running it twice with no new misses yields an empty plan the second time.
func PlanReschedule(sessions []domain.WorkoutSession, today dates.LocalDate) []Move {
	missed := Missed(sessions, today)
	if len(missed) == 0 {
		return nil
	}
	earliest := missed[0].Scheduled()
	gap := earliest.DaysUntil(today)
	if gap <= 0 {
		return nil
	}

	ordered := make([]domain.WorkoutSession, len(sessions))
	copy(ordered, sessions)
	sortByDate(ordered)

	// Dates held by terminal sessions that archival has not swept yet
	// (completed today, or completed ahead of schedule) are not free; a
	// shifted session landing there would double-book the date until the
	// next archival pass.
	occupied := make(map[string]struct{})
	for _, s := range ordered {
		if s.Status != domain.StatusComplete && s.Status != domain.StatusSkipped {
			continue
		}
		occupied[s.ScheduledDate] = struct{}{}
	}

	var moves []Move
	var prev dates.LocalDate
	for _, s := range ordered {
		if s.Status.IsTerminal() {
			continue
		}
		from := s.Scheduled()
		if from.Before(earliest) {
			continue
		}
		to := from.AddDays(gap)
		if len(moves) > 0 && !to.After(prev) {
			to = prev.AddDays(1)
		}
		for {
			if _, taken := occupied[to.String()]; !taken {
				break
			}
			to = to.AddDays(1)
		}
		prev = to
		moves = append(moves, Move{SessionID: s.ID, From: from, To: to})
	}
	return moves
}

// SkipTargets returns the IDs of missed sessions for the explicit
// skip-missed policy: mark them skipped and leave future dates untouched.
func SkipTargets(sessions []domain.WorkoutSession, today dates.LocalDate) []primitive.ObjectID {
	missed := Missed(sessions, today)
	ids := make([]primitive.ObjectID, 0, len(missed))
	for _, s := range missed {
		ids = append(ids, s.ID)
	}
	return ids
}

// DueRestDays returns rest sessions whose day has passed while still open.
// A rest day needs no user action, so the cleanup pass completes these
// before archiving them.
func DueRestDays(sessions []domain.WorkoutSession, today dates.LocalDate) []domain.WorkoutSession {
	var due []domain.WorkoutSession
	for _, s := range sessions {
		if s.SessionType != domain.SessionTypeRest {
			continue
		}
		if s.Status.IsTerminal() {
			continue
		}
		if s.Scheduled().Before(today) {
			due = append(due, s)
		}
	}
	sortByDate(due)
	return due
}

// Archivable returns terminal (complete or skipped) sessions whose scheduled
// date is in the past. Archival is a pure cleanup pass, independent of
// reconciliation.
func Archivable(sessions []domain.WorkoutSession, today dates.LocalDate) []domain.WorkoutSession {
	var out []domain.WorkoutSession
	for _, s := range sessions {
		if s.Status != domain.StatusComplete && s.Status != domain.StatusSkipped {
			continue
		}
		if s.Scheduled().Before(today) {
			out = append(out, s)
		}
	}
	sortByDate(out)
	return out
}

func sortByDate(sessions []domain.WorkoutSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		// YYYY-MM-DD strings order lexicographically as calendar days.
		return sessions[i].ScheduledDate < sessions[j].ScheduledDate
	})
}
