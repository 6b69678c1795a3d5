package geospatial

import "math"

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// Decimate keeps every k-th element of s, starting at index 0, so the result
// has ceil(len(s)/k) elements. A stride below 1 is treated as 1.
func Decimate[T any](s []T, k int) []T {
	if k < 1 {
		k = 1
	}
	out := make([]T, 0, (len(s)+k-1)/k)
	for i := 0; i < len(s); i += k {
		out = append(out, s[i])
	}
	return out
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
