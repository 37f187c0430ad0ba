package ingest

import (
	"math"

	"gpsd-ng/internal/geodesy"
	"gpsd-ng/internal/gps"
)

// maxMotionGap bounds the time between fixes used to derive motion.
const maxMotionGap = 10.0

// deriveMotion fills speed, track and climb that in does not carry from the
// distance to the previous fix. prev is the session's fix before the merge.
func deriveMotion(prev *gps.Fix, in *gps.Data, mask gps.Mask) gps.Mask {
	if !mask.Has(gps.Time) || !mask.Has(gps.LatLon) {
		return mask
	}
	dt := in.Fix.Time - prev.Time
	if !(dt > 0 && dt <= maxMotionGap) || math.IsNaN(prev.Latitude) || math.IsNaN(prev.Longitude) {
		return mask
	}
	dist, track, _ := geodesy.DistanceAndBearings(prev.Latitude, prev.Longitude, in.Fix.Latitude, in.Fix.Longitude)
	if !mask.Has(gps.Speed) {
		in.Fix.Speed = dist / dt
		mask = mask.With(gps.Speed)
	}
	if !mask.Has(gps.Track) && !math.IsNaN(track) {
		in.Fix.Track = track
		mask = mask.With(gps.Track)
	}
	if !mask.Has(gps.Climb) && mask.Has(gps.Altitude) && !math.IsNaN(prev.Altitude) && !math.IsNaN(in.Fix.Altitude) {
		in.Fix.Climb = (in.Fix.Altitude - prev.Altitude) / dt
		mask = mask.With(gps.Climb)
	}
	return mask
}
