// Package scoring implements arrow arithmetic and score classification.
package scoring

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/scorecard/internal/model"
)

// ErrInvalidScore is returned for input outside 1-10, X and M.
var ErrInvalidScore = errors.New("invalid score")

// Color classes used to tint score chips.
const (
	ColorGold  = "gold"
	ColorRed   = "red"
	ColorBlue  = "blue"
	ColorBlack = "black"
	ColorWhite = "white"
	ColorMiss  = "miss"
)

// ParseScore converts user text into an ArrowScore. Input is trimmed and case-insensitive.
func ParseScore(text string) (model.ArrowScore, error) {
	v := strings.ToUpper(strings.TrimSpace(text))
	if v == string(model.InnerTen) || v == string(model.Miss) {
		return model.ArrowScore(v), nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 10 {
		return "", fmt.Errorf("%w %q: use 1-10, X, or M", ErrInvalidScore, text)
	}
	return model.ArrowScore(strconv.Itoa(n)), nil
}

// Value returns the points an arrow contributes. Invalid values count as zero.
func Value(s model.ArrowScore) int {
	switch s {
	case model.InnerTen:
		return 10
	case model.Miss:
		return 0
	}
	n, err := strconv.Atoi(string(s))
	if err != nil || n < 1 || n > 10 {
		return 0
	}
	return n
}

// Total sums a sequence of scores.
func Total(scores []model.ArrowScore) int {
	total := 0
	for _, s := range scores {
		total += Value(s)
	}
	return total
}

// Scores extracts the score values from arrows.
func Scores(arrows []model.Arrow) []model.ArrowScore {
	out := make([]model.ArrowScore, len(arrows))
	for i, a := range arrows {
		out[i] = a.Value
	}
	return out
}

// EndTotal sums the arrows of an end, finished or in progress.
func EndTotal(arrows []model.Arrow) int {
	return Total(Scores(arrows))
}

// RunningTotal sums the totals of completed ends.
func RunningTotal(ends []model.End) int {
	total := 0
	for _, end := range ends {
		total += end.Total
	}
	return total
}

// Percentage returns total as a percentage of max, or 0 when max is not positive.
func Percentage(total, max int) float64 {
	if max <= 0 {
		return 0
	}
	return float64(total) / float64(max) * 100
}

// ColorClass maps a score to the target-face color band it sits in.
func ColorClass(s model.ArrowScore) string {
	if s == model.Miss {
		return ColorMiss
	}
	switch Value(s) {
	case 10, 9:
		return ColorGold
	case 8, 7:
		return ColorRed
	case 6, 5:
		return ColorBlue
	case 4, 3:
		return ColorBlack
	default:
		return ColorWhite
	}
}

// Calculation is a per-session score breakdown.
type Calculation struct {
	TotalScore      int
	RunningTotal    []int
	EndScores       []int
	AveragePerArrow float64
	AveragePerEnd   float64
	InnerTens       int
	Tens            int
	Nines           int
	Misses          int
}

// Calculate builds the score breakdown for a session's completed ends.
func Calculate(session model.Session) Calculation {
	calc := Calculation{
		RunningTotal: make([]int, 0, len(session.Ends)),
		EndScores:    make([]int, 0, len(session.Ends)),
	}
	arrows := 0
	for _, end := range session.Ends {
		calc.TotalScore += end.Total
		calc.EndScores = append(calc.EndScores, end.Total)
		calc.RunningTotal = append(calc.RunningTotal, calc.TotalScore)
		for _, a := range end.Arrows {
			arrows++
			switch {
			case a.Value == model.InnerTen:
				calc.InnerTens++
				calc.Tens++
			case a.Value == model.Miss:
				calc.Misses++
			case Value(a.Value) == 10:
				calc.Tens++
			case Value(a.Value) == 9:
				calc.Nines++
			}
		}
	}
	if arrows > 0 {
		calc.AveragePerArrow = float64(calc.TotalScore) / float64(arrows)
	}
	if len(session.Ends) > 0 {
		calc.AveragePerEnd = float64(calc.TotalScore) / float64(len(session.Ends))
	}
	return calc
}
