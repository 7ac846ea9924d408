// Package lighting converts sun placement into the angles used by occlusion maps.
package lighting

import "math"

// SunDirection converts longitude/latitude angles in degrees to a unit vector
// pointing towards the sun. Longitude rotates around Y (0 = +Z, 90 = +X east),
// latitude is elevation from the horizon.
func SunDirection(longitude, latitude float64) [3]float64 {
	lonRad := longitude * math.Pi / 180.0
	latRad := latitude * math.Pi / 180.0

	return [3]float64{
		math.Cos(latRad) * math.Sin(lonRad),
		math.Sin(latRad),
		math.Cos(latRad) * math.Cos(lonRad),
	}
}

// SweepAngle projects the sun onto the east-west vertical plane and returns
// its angle in radians: 0 on the east horizon, π/2 overhead, π on the west
// horizon. A sun below the horizon returns -1.
func SweepAngle(longitude, latitude float64) float64 {
	dir := SunDirection(longitude, latitude)
	if dir[1] < 0 {
		return -1
	}
	return math.Atan2(dir[1], dir[0])
}
