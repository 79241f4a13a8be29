package cluster

import "math"

// LngToX projects a longitude into [0..1] tile space (spherical mercator).
func LngToX(lng float64) float64 {
	return lng/360.0 + 0.5
}

// LatToY projects a latitude into [0..1] tile space. Poles and anything past
// them saturate to 0 or 1.
func LatToY(lat float64) float64 {
	sin := math.Sin(lat * math.Pi / 180.0)
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi
	if y < 0 {
		return 0
	}
	if y > 1 {
		return 1
	}
	return y
}

// XToLng is the inverse of LngToX.
func XToLng(x float64) float64 {
	return (x - 0.5) * 360
}

// YToLat is the inverse of LatToY.
func YToLat(y float64) float64 {
	y2 := (180 - y*360) * math.Pi / 180.0
	return 360*math.Atan(math.Exp(y2))/math.Pi - 90
}

// MercatorProjection projects geographic coordinates into tile space.
func MercatorProjection(coordinates GeoCoordinates) (float64, float64) {
	return LngToX(coordinates.Lon), LatToY(coordinates.Lat)
}

// ReverseMercatorProjection converts tile space coordinates back to geographic.
func ReverseMercatorProjection(x, y float64) GeoCoordinates {
	return GeoCoordinates{Lon: XToLng(x), Lat: YToLat(y)}
}

// GeoCoordinates represent position in the Earth
type GeoCoordinates struct {
	Lon float64
	Lat float64
}
