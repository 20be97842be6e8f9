package catalog

import "github.com/verte-zerg/scorecard/internal/model"

const (
	colorGold  = "#FFD700"
	colorRed   = "#FF0000"
	colorBlue  = "#0000FF"
	colorBlack = "#000000"
	colorWhite = "#FFFFFF"
)

var ringColors = [10]string{
	colorGold, colorGold,
	colorRed, colorRed,
	colorBlue, colorBlue,
	colorBlack, colorBlack,
	colorWhite, colorWhite,
}

// newTargetFace splits a face of the given diameter into ten equal-width rings, 10 at the center.
func newTargetFace(size int) model.TargetFace {
	rings := make([]model.ScoringRing, 0, len(ringColors))
	for i, color := range ringColors {
		rings = append(rings, model.ScoringRing{
			Value:       10 - i,
			InnerRadius: float64(size*i) / 20,
			OuterRadius: float64(size*(i+1)) / 20,
			Color:       color,
		})
	}
	return model.TargetFace{Size: size, Rings: rings}
}

var (
	target122 = newTargetFace(122)
	target80  = newTargetFace(80)
	target40  = newTargetFace(40)
)

// TargetFace returns the standard face for a diameter in cm.
func TargetFace(size int) (model.TargetFace, bool) {
	switch size {
	case 122:
		return cloneFace(target122), true
	case 80:
		return cloneFace(target80), true
	case 40:
		return cloneFace(target40), true
	default:
		return model.TargetFace{}, false
	}
}

// RingFor returns the ring a hit at radius r (cm from center) lands in. Hits outside the face miss.
func RingFor(face model.TargetFace, r float64) (model.ScoringRing, bool) {
	if r < 0 {
		return model.ScoringRing{}, false
	}
	for _, ring := range face.Rings {
		if r >= ring.InnerRadius && r < ring.OuterRadius {
			return ring, true
		}
	}
	if n := len(face.Rings); n > 0 && r == face.Rings[n-1].OuterRadius {
		return face.Rings[n-1], true
	}
	return model.ScoringRing{}, false
}

func cloneFace(face model.TargetFace) model.TargetFace {
	out := face
	out.Rings = append([]model.ScoringRing(nil), face.Rings...)
	return out
}
