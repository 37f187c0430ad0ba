// Package geodesy computes distances and bearings between fixes on the WGS84
// ellipsoid.
package geodesy

import (
	"math"

	"github.com/golang/geo/s2"
)

// WGS84 ellipsoid.
const (
	WGS84A = 6378137.0       // equatorial radius, meters
	WGS84F = 298.257223563   // inverse flattening
	WGS84B = 6356752.3142    // polar radius, meters
	e2     = (2 - 1/WGS84F) / WGS84F
)

// RadiusAt is the meridional radius of curvature at lat degrees, in meters.
func RadiusAt(lat float64) float64 {
	s := math.Sin(lat * math.Pi / 180)
	return WGS84A * (1 - e2) / math.Pow(1-e2*s*s, 1.5)
}

// Distance returns the great-circle distance in meters, using the radius of
// curvature at the mean latitude.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	d, _, _ := DistanceAndBearings(lat1, lon1, lat2, lon2)
	return d
}

// DistanceAndBearings also returns the initial bearing at the first point and
// the final bearing at the second, both in degrees from true north in
// [0, 360). Bearings are NaN for coincident points.
func DistanceAndBearings(lat1, lon1, lat2, lon2 float64) (dist, initial, final float64) {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	dist = p1.Distance(p2).Radians() * RadiusAt((lat1+lat2)/2)
	if dist == 0 {
		return 0, math.NaN(), math.NaN()
	}
	initial = bearing(p1, p2)
	final = math.Mod(bearing(p2, p1)+180, 360)
	return dist, initial, final
}

func bearing(from, to s2.LatLng) float64 {
	φ1, φ2 := from.Lat.Radians(), to.Lat.Radians()
	Δλ := to.Lng.Radians() - from.Lng.Radians()
	y := math.Sin(Δλ) * math.Cos(φ2)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	deg := math.Atan2(y, x) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}
