package services

import (
	"sort"

	"ambulance-dispatch/internal/models"
)

// Locatable is any resource the locator can rank.
type Locatable interface {
	GetID() string
	GetLocation() models.Coordinate
}

type Ranked[T Locatable] struct {
	Item       T
	DistanceKM float64
}

// Nearby keeps the candidates within radiusKM of origin, orders them nearest
// first with ties broken by ID, and returns at most limit of them. Candidates
// with an invalid location are skipped. A non-positive limit means no cap.
func Nearby[T Locatable](origin models.Coordinate, candidates []T, radiusKM float64, limit int) []Ranked[T] {
	ranked := make([]Ranked[T], 0, len(candidates))
	for _, c := range candidates {
		loc := c.GetLocation()
		if !loc.IsValid() {
			continue
		}
		d := models.DistanceKM(origin, loc)
		if d <= radiusKM {
			ranked = append(ranked, Ranked[T]{Item: c, DistanceKM: d})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].DistanceKM != ranked[j].DistanceKM {
			return ranked[i].DistanceKM < ranked[j].DistanceKM
		}
		return ranked[i].Item.GetID() < ranked[j].Item.GetID()
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
