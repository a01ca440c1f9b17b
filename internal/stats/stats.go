// Package stats derives aggregate dashboard figures from the reconciled
// session set. Every computation is a pure function of its input slice and is
// re-run from scratch whenever a new snapshot arrives.
package stats

import (
	"sort"
	"time"

	"github.com/example/booking-engine/internal/persistence"
)

// RecentSessionLimit bounds the dashboard's recent-activity list.
const RecentSessionLimit = 10

// MonthCount is the session count for one calendar month.
type MonthCount struct {
	Label string
	Count int
}

// Snapshot holds every aggregate the dashboard renders.
type Snapshot struct {
	TotalHours        float64
	TotalSessions     int
	UniqueClientCount int
	AverageHours      float64
	// HoursByClient is keyed by the session's client name snapshot, so a
	// renamed or deleted client keeps its historical label.
	HoursByClient map[string]float64
	// SessionsByMonth is ordered chronologically by month.
	SessionsByMonth []MonthCount
}

// Compute aggregates the full session set. An empty input yields a zero
// snapshot with AverageHours of 0, not NaN.
func Compute(sessions []persistence.Session) Snapshot {
	snapshot := Snapshot{
		TotalSessions: len(sessions),
		HoursByClient: make(map[string]float64),
	}

	clients := make(map[string]struct{})
	months := make(map[time.Time]int)
	for _, session := range sessions {
		snapshot.TotalHours += session.Hours
		snapshot.HoursByClient[session.ClientName] += session.Hours
		clients[session.ClientID] = struct{}{}
		months[monthOf(session.Start)]++
	}
	snapshot.UniqueClientCount = len(clients)
	if snapshot.TotalSessions > 0 {
		snapshot.AverageHours = snapshot.TotalHours / float64(snapshot.TotalSessions)
	}

	keys := make([]time.Time, 0, len(months))
	for month := range months {
		keys = append(keys, month)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	snapshot.SessionsByMonth = make([]MonthCount, 0, len(keys))
	for _, month := range keys {
		snapshot.SessionsByMonth = append(snapshot.SessionsByMonth, MonthCount{
			Label: month.Format("Jan 2006"),
			Count: months[month],
		})
	}

	return snapshot
}

// RecentSessions returns the newest sessions by start time, most recent
// first, capped at RecentSessionLimit. The input slice is not modified.
func RecentSessions(sessions []persistence.Session) []persistence.Session {
	recent := make([]persistence.Session, len(sessions))
	copy(recent, sessions)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Start.After(recent[j].Start)
	})
	if len(recent) > RecentSessionLimit {
		recent = recent[:RecentSessionLimit]
	}
	return recent
}

func monthOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
