// Package stats contains history statistics and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/scorecard/internal/model"
	"github.com/verte-zerg/scorecard/internal/scoring"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates a set of completed sessions.
type Summary struct {
	TotalSessions int
	TotalArrows   int
	AverageScore  float64
	BestScore     int
	BestAverage   float64
	// Consistency is the standard deviation of session totals.
	Consistency float64
	// Improvement is the least-squares slope of percentage per session, oldest first.
	Improvement float64
}

// Summarize computes a Summary. Sessions are expected oldest first.
func Summarize(sessions []model.Session) Summary {
	var s Summary
	if len(sessions) == 0 {
		return s
	}
	s.TotalSessions = len(sessions)
	totals := make([]float64, len(sessions))
	pcts := make([]float64, len(sessions))
	var sum float64
	for i, session := range sessions {
		total := session.Total()
		arrows := session.ArrowCount()
		totals[i] = float64(total)
		pcts[i] = scoring.Percentage(total, session.RoundType.MaxScore)
		sum += float64(total)
		s.TotalArrows += arrows
		if i == 0 || total > s.BestScore {
			s.BestScore = total
		}
		if arrows > 0 {
			if avg := float64(total) / float64(arrows); avg > s.BestAverage {
				s.BestAverage = avg
			}
		}
	}
	s.AverageScore = sum / float64(len(sessions))
	s.Consistency = stdDev(totals, s.AverageScore)
	s.Improvement = slope(pcts)
	return s
}

func stdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(values)))
}

func slope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / den
}

// Percentages returns each session's score as a percentage of its max.
func Percentages(sessions []model.Session) []float64 {
	out := make([]float64, len(sessions))
	for i, s := range sessions {
		out[i] = scoring.Percentage(s.Total(), s.RoundType.MaxScore)
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	last := len(sparkChars) - 1
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - minVal) / (maxVal - minVal) * float64(last)))
		b.WriteByte(sparkChars[max(0, min(idx, last))])
	}
	return b.String()
}

// RenderSummary prints the summary block.
func RenderSummary(w io.Writer, s Summary) error {
	if s.TotalSessions == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", s.TotalSessions),
		fmt.Sprintf("Arrows: %d", s.TotalArrows),
		fmt.Sprintf("Avg score: %.1f", s.AverageScore),
		fmt.Sprintf("Best score: %d", s.BestScore),
		fmt.Sprintf("Best avg/arrow: %.2f", s.BestAverage),
		fmt.Sprintf("Consistency (stddev): %.1f", s.Consistency),
		fmt.Sprintf("Trend: %+.2f%% per session", s.Improvement),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// HistoryRows formats sessions as table cells, in the order given.
func HistoryRows(sessions []model.Session) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		calc := scoring.Calculate(s)
		bow := "-"
		if s.Metadata.BowType != nil {
			bow = s.Metadata.BowType.Name
		}
		rows = append(rows, []string{
			s.StartTime.Local().Format("2006-01-02 15:04"),
			s.RoundType.Name,
			bow,
			fmt.Sprintf("%d/%d", calc.TotalScore, s.RoundType.MaxScore),
			fmt.Sprintf("%.1f%%", scoring.Percentage(calc.TotalScore, s.RoundType.MaxScore)),
			fmt.Sprintf("%d", calc.InnerTens),
			fmt.Sprintf("%d", len(s.Ends)),
		})
	}
	return rows
}

// HistoryHeaders are the column titles matching HistoryRows.
var HistoryHeaders = []string{"Date", "Round", "Bow", "Score", "Pct", "X", "Ends"}

// RenderHistory prints a session table in the order given.
func RenderHistory(w io.Writer, sessions []model.Session) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "History"); err != nil {
		return err
	}
	rightAlign := map[int]bool{3: true, 4: true, 5: true, 6: true}
	for _, line := range FormatTable(HistoryHeaders, HistoryRows(sessions), rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderTrend prints a sparkline of the trend values, keeping the newest that fit in width columns.
func RenderTrend(w io.Writer, values []float64, width int) error {
	if len(values) == 0 {
		return nil
	}
	const label = "Trend "
	if width > len(label) && len(values) > width-len(label) {
		values = values[len(values)-(width-len(label)):]
	}
	_, err := fmt.Fprintf(w, "%s%s\n", label, Sparkline(values))
	return err
}
