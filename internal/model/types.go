// Package model defines shared data structures.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ArrowScore is a single recorded arrow value: "1".."10", "X" or "M".
type ArrowScore string

// Sentinel arrow values.
const (
	InnerTen ArrowScore = "X"
	Miss     ArrowScore = "M"
)

// Palette lists every score an archer can enter, highest first.
var Palette = []ArrowScore{InnerTen, "10", "9", "8", "7", "6", "5", "4", "3", "2", "1", Miss}

// Valid reports whether s is one of the palette values.
func (s ArrowScore) Valid() bool {
	if s == InnerTen || s == Miss {
		return true
	}
	n, err := strconv.Atoi(string(s))
	if err != nil {
		return false
	}
	return n >= 1 && n <= 10 && strconv.Itoa(n) == string(s)
}

// MarshalJSON encodes numeric scores as numbers and X/M as strings.
func (s ArrowScore) MarshalJSON() ([]byte, error) {
	if s == InnerTen || s == Miss {
		return json.Marshal(string(s))
	}
	n, err := strconv.Atoi(string(s))
	if err != nil {
		return nil, fmt.Errorf("invalid arrow score %q", string(s))
	}
	return json.Marshal(n)
}

// UnmarshalJSON accepts either a number (1-10) or the strings "X"/"M" (or a quoted number).
func (s *ArrowScore) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		v := ArrowScore(strconv.Itoa(n))
		if !v.Valid() {
			return fmt.Errorf("invalid arrow score %d", n)
		}
		*s = v
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("invalid arrow score %s", string(data))
	}
	v := ArrowScore(str)
	if !v.Valid() {
		return fmt.Errorf("invalid arrow score %q", str)
	}
	*s = v
	return nil
}

// Arrow is one recorded shot.
type Arrow struct {
	Value      ArrowScore `json:"value"`
	IsInnerTen bool       `json:"isInnerTen"`
	Timestamp  time.Time  `json:"timestamp"`
}

// End is a completed batch of arrows.
type End struct {
	Number    int       `json:"number"`
	Arrows    []Arrow   `json:"arrows"`
	Timestamp time.Time `json:"timestamp"`
	Total     int       `json:"total"`
}

// ScoringRing is one band of a target face. Radii are in cm from the center.
type ScoringRing struct {
	Value       int     `json:"value"`
	InnerRadius float64 `json:"innerRadius"`
	OuterRadius float64 `json:"outerRadius"`
	Color       string  `json:"color"`
}

// TargetFace describes a target face by diameter.
type TargetFace struct {
	Size  int           `json:"size"`
	Rings []ScoringRing `json:"rings"`
}

// IntRange is an inclusive integer range.
type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether v lies within the range.
func (r IntRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// OverrideBounds marks a round as configurable and limits the allowed overrides.
type OverrideBounds struct {
	Arrows IntRange `json:"arrows"`
	Ends   IntRange `json:"ends"`
}

// RoundType defines a shooting format. A nil Overrides means the format is fixed.
type RoundType struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Distance     int             `json:"distance"`
	TargetFace   TargetFace      `json:"targetFace"`
	ArrowsPerEnd int             `json:"arrowsPerEnd"`
	TotalEnds    int             `json:"totalEnds"`
	MaxScore     int             `json:"maxScore"`
	Overrides    *OverrideBounds `json:"overrides,omitempty"`
}

// IsConfigurable reports whether arrows per end and total ends may be overridden.
func (r RoundType) IsConfigurable() bool {
	return r.Overrides != nil
}

// BowType is catalog metadata attached to a session.
type BowType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// SessionMetadata carries descriptive, non-scoring data for a session.
type SessionMetadata struct {
	BowType   *BowType `json:"bowType,omitempty"`
	Location  string   `json:"location,omitempty"`
	Weather   string   `json:"weather,omitempty"`
	Equipment string   `json:"equipment,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// Session is a round being shot or already completed.
type Session struct {
	ID         string          `json:"id"`
	RoundType  RoundType       `json:"roundType"`
	StartTime  time.Time       `json:"startTime"`
	EndTime    *time.Time      `json:"endTime,omitempty"`
	Ends       []End           `json:"ends"`
	Metadata   SessionMetadata `json:"metadata"`
	IsComplete bool            `json:"isComplete"`
}

// Total sums the completed end totals.
func (s Session) Total() int {
	total := 0
	for _, end := range s.Ends {
		total += end.Total
	}
	return total
}

// ArrowCount returns the number of arrows across completed ends.
func (s Session) ArrowCount() int {
	n := 0
	for _, end := range s.Ends {
		n += len(end.Arrows)
	}
	return n
}

// ExportDocument is the portable history format.
type ExportDocument struct {
	Sessions   []Session `json:"sessions"`
	ExportDate time.Time `json:"exportDate"`
	Version    string    `json:"version"`
}

// View selects which screen is active.
type View string

// Available views.
const (
	ViewScoring View = "scoring"
	ViewHistory View = "history"
)

// Config defines scoring defaults chosen before a session starts.
type Config struct {
	RoundID      string
	BowID        string
	ArrowsPerEnd int
	TotalEnds    int

	// Distance and FaceSize make a custom round out of a configurable one.
	Distance int
	FaceSize int
}

// HistoryConfig defines filters for the history listing.
type HistoryConfig struct {
	RoundID     string
	Last        int
	CurveWindow int
}
