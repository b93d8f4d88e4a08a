package scoring

import "math"

// earthRadiusMiles is the mean earth radius used by the haversine formula.
const earthRadiusMiles = 3958.8

// referenceRadiusMiles is the proximity decay reference for requests that do
// not constrain distance.
const referenceRadiusMiles = 50.0

// maxProximityComponent is the distance contribution ceiling in the weighted band.
const maxProximityComponent = 12.0

// DistanceMiles computes the great-circle distance between two coordinates.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

// WithinRadius reports whether distance passes the request's radius filter.
// A non-positive radius means the request is unconstrained.
func WithinRadius(distance, maxDistance float64) bool {
	if maxDistance <= 0 {
		return true
	}
	return distance <= maxDistance
}

// proximityComponent is the weighted-band distance contribution: 12 at zero
// distance, linearly down to 0 at the radius edge.
func proximityComponent(distance, maxDistance float64) float64 {
	if maxDistance <= 0 {
		maxDistance = referenceRadiusMiles
	}
	return clamp(maxProximityComponent*(1-distance/maxDistance), 0, maxProximityComponent)
}

// exactBandDistancePenalty is the exact-title band penalty: up to 3 points
// proportional to how far out the candidate sits.
func exactBandDistancePenalty(distance, maxDistance float64) float64 {
	if maxDistance <= 0 {
		maxDistance = referenceRadiusMiles
	}
	return 3 * math.Min(distance/maxDistance, 1)
}
