package stats

import (
	"sort"

	"github.com/verte-zerg/scorecard/internal/model"
)

// Report contains precomputed data for history rendering.
type Report struct {
	// Sessions are oldest first.
	Sessions []model.Session
	Summary  Summary
	Trend    []float64
}

// BuildReport filters sessions and prepares the summary and trend.
func BuildReport(sessions []model.Session, cfg model.HistoryConfig) Report {
	filtered := make([]model.Session, 0, len(sessions))
	for _, s := range sessions {
		if cfg.RoundID != "" && s.RoundType.ID != cfg.RoundID {
			continue
		}
		filtered = append(filtered, s)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].StartTime.Before(filtered[j].StartTime)
	})
	if cfg.Last > 0 && len(filtered) > cfg.Last {
		filtered = filtered[len(filtered)-cfg.Last:]
	}
	return Report{
		Sessions: filtered,
		Summary:  Summarize(filtered),
		Trend:    MovingAverage(Percentages(filtered), cfg.CurveWindow),
	}
}

// Newest returns the report sessions newest first.
func (r Report) Newest() []model.Session {
	out := make([]model.Session, len(r.Sessions))
	for i, s := range r.Sessions {
		out[len(out)-1-i] = s
	}
	return out
}
