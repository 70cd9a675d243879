// Package geo ranks locations by great-circle distance.
package geo

import (
	"math"
	"sort"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Haversine returns the great-circle distance in kilometers.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Distance is Haversine between two points.
func Distance(a, b Point) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Ranked pairs a candidate with its distance from the origin.
type Ranked[T any] struct {
	Value      T
	DistanceKm float64
}

// RankByDistance orders candidates nearest-first from origin. locate returns
// the candidate's point and false when either coordinate is missing; such
// candidates are left out. Ties keep input order. limit <= 0 means no limit.
func RankByDistance[T any](origin Point, candidates []T, locate func(T) (Point, bool), limit int) []Ranked[T] {
	ranked := make([]Ranked[T], 0, len(candidates))
	for _, c := range candidates {
		p, ok := locate(c)
		if !ok {
			continue
		}
		ranked = append(ranked, Ranked[T]{Value: c, DistanceKm: Distance(origin, p)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// RoundKm rounds a distance to two decimals for display.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
