// Package catalog holds the static round, bow, and target face tables.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"github.com/verte-zerg/scorecard/internal/model"
)

// MaxArrowValue is the highest points a single arrow can score.
const MaxArrowValue = 10

// Default limits applied to configurable rounds.
var (
	ArrowRange = model.IntRange{Min: 1, Max: 12}
	EndRange   = model.IntRange{Min: 1, Max: 36}
)

// ErrInvalidRound is returned when a round definition or override fails validation.
var ErrInvalidRound = errors.New("invalid round")

var configurable = &model.OverrideBounds{Arrows: ArrowRange, Ends: EndRange}

var bowTypes = []model.BowType{
	{ID: "recurve", Name: "Recurve Bow", Category: "recurve", Description: "Traditional recurve bow without mechanical aids"},
	{ID: "compound", Name: "Compound Bow", Category: "compound", Description: "Modern bow with cams and mechanical advantage"},
	{ID: "barebow", Name: "Barebow", Category: "barebow", Description: "Recurve bow without sights or stabilizers"},
	{ID: "traditional", Name: "Traditional Bow", Category: "traditional", Description: "Historical longbow or traditional recurve"},
}

var roundTypes = []model.RoundType{
	fixedRound("70m-122cm", "70m Round", 70, target122, 6, 12),
	fixedRound("60m-122cm", "60m Round", 60, target122, 6, 12),
	fixedRound("50m-122cm", "50m Round", 50, target122, 6, 12),
	fixedRound("30m-80cm", "30m Round", 30, target80, 6, 12),
	fixedRound("18m-40cm", "18m Round", 18, target40, 3, 20),
	configurableRound("practice-30m", "Practice 30m", 30, target80, 3, 10),
	configurableRound("practice-18m", "Practice 18m", 18, target40, 3, 10),
	configurableRound("custom-practice", "Custom Practice", 30, target80, 3, 10),
}

func fixedRound(id, name string, distance int, face model.TargetFace, arrows, ends int) model.RoundType {
	return model.RoundType{
		ID:           id,
		Name:         name,
		Distance:     distance,
		TargetFace:   face,
		ArrowsPerEnd: arrows,
		TotalEnds:    ends,
		MaxScore:     MaxScore(arrows, ends),
	}
}

func configurableRound(id, name string, distance int, face model.TargetFace, arrows, ends int) model.RoundType {
	rt := fixedRound(id, name, distance, face, arrows, ends)
	rt.Overrides = configurable
	return rt
}

// MaxScore is the perfect score for a round shape.
func MaxScore(arrowsPerEnd, totalEnds int) int {
	return arrowsPerEnd * totalEnds * MaxArrowValue
}

// Rounds returns every catalog round.
func Rounds() []model.RoundType {
	out := make([]model.RoundType, len(roundTypes))
	for i, rt := range roundTypes {
		out[i] = cloneRound(rt)
	}
	return out
}

// Round looks up a round by id.
func Round(id string) (model.RoundType, bool) {
	for _, rt := range roundTypes {
		if rt.ID == id {
			return cloneRound(rt), true
		}
	}
	return model.RoundType{}, false
}

// RoundsByDistance returns rounds shot at the given distance in meters.
func RoundsByDistance(distance int) []model.RoundType {
	var out []model.RoundType
	for _, rt := range roundTypes {
		if rt.Distance == distance {
			out = append(out, cloneRound(rt))
		}
	}
	return out
}

// Bows returns every catalog bow type.
func Bows() []model.BowType {
	return append([]model.BowType(nil), bowTypes...)
}

// Bow looks up a bow type by id.
func Bow(id string) (model.BowType, bool) {
	for _, b := range bowTypes {
		if b.ID == id {
			return b, true
		}
	}
	return model.BowType{}, false
}

// BowsByCategory returns the bow types in a category.
func BowsByCategory(category string) []model.BowType {
	var out []model.BowType
	for _, b := range bowTypes {
		if b.Category == category {
			out = append(out, b)
		}
	}
	return out
}

// ValidateRoundType checks that every required field is set and the max score is consistent.
func ValidateRoundType(rt model.RoundType) error {
	var missing []string
	if rt.ID == "" {
		missing = append(missing, "id")
	}
	if rt.Name == "" {
		missing = append(missing, "name")
	}
	if rt.Distance <= 0 {
		missing = append(missing, "distance")
	}
	if rt.TargetFace.Size <= 0 || len(rt.TargetFace.Rings) == 0 {
		missing = append(missing, "targetFace")
	}
	if rt.ArrowsPerEnd <= 0 {
		missing = append(missing, "arrowsPerEnd")
	}
	if rt.TotalEnds <= 0 {
		missing = append(missing, "totalEnds")
	}
	if rt.MaxScore <= 0 {
		missing = append(missing, "maxScore")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRound, strings.Join(missing, ", "))
	}
	if want := MaxScore(rt.ArrowsPerEnd, rt.TotalEnds); rt.MaxScore != want {
		return fmt.Errorf("%w: max score %d does not match %d arrows x %d ends", ErrInvalidRound, rt.MaxScore, rt.ArrowsPerEnd, rt.TotalEnds)
	}
	if ring, ok := RingFor(rt.TargetFace, 0); !ok || ring.Value != 10 {
		return fmt.Errorf("%w: target face has no 10 ring at the center", ErrInvalidRound)
	}
	if _, ok := RingFor(rt.TargetFace, float64(rt.TargetFace.Size)/2); !ok {
		return fmt.Errorf("%w: target face rings do not reach the %dcm edge", ErrInvalidRound, rt.TargetFace.Size)
	}
	return nil
}

// Overrides requests a different round shape. Zero fields keep the round's default.
type Overrides struct {
	ArrowsPerEnd int
	TotalEnds    int
}

// Specialize applies overrides to a configurable round and recomputes its max score.
// Fixed rounds are returned unchanged.
func Specialize(rt model.RoundType, o Overrides) (model.RoundType, error) {
	out := cloneRound(rt)
	if !rt.IsConfigurable() {
		return out, nil
	}
	if o.ArrowsPerEnd != 0 {
		if !rt.Overrides.Arrows.Contains(o.ArrowsPerEnd) {
			return model.RoundType{}, fmt.Errorf("%w: arrows per end must be between %d and %d", ErrInvalidRound, rt.Overrides.Arrows.Min, rt.Overrides.Arrows.Max)
		}
		out.ArrowsPerEnd = o.ArrowsPerEnd
	}
	if o.TotalEnds != 0 {
		if !rt.Overrides.Ends.Contains(o.TotalEnds) {
			return model.RoundType{}, fmt.Errorf("%w: total ends must be between %d and %d", ErrInvalidRound, rt.Overrides.Ends.Min, rt.Overrides.Ends.Max)
		}
		out.TotalEnds = o.TotalEnds
	}
	out.MaxScore = MaxScore(out.ArrowsPerEnd, out.TotalEnds)
	return out, nil
}

// CustomRound builds a configurable round. Unknown target sizes fall back to the 80cm face.
func CustomRound(distance, arrowsPerEnd, totalEnds, targetSize int) model.RoundType {
	face, ok := TargetFace(targetSize)
	if !ok {
		face = cloneFace(target80)
	}
	rt := configurableRound(
		slug.Make(fmt.Sprintf("custom %dm %dx%d", distance, arrowsPerEnd, totalEnds)),
		fmt.Sprintf("Custom %dm (%d×%d)", distance, arrowsPerEnd, totalEnds),
		distance, face, arrowsPerEnd, totalEnds,
	)
	return cloneRound(rt)
}

func cloneRound(rt model.RoundType) model.RoundType {
	out := rt
	out.TargetFace = cloneFace(rt.TargetFace)
	if rt.Overrides != nil {
		bounds := *rt.Overrides
		out.Overrides = &bounds
	}
	return out
}
