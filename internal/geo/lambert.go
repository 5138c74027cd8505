package geo

import "math"

// Lambert-93 (EPSG:2154) direct projection constants for the GRS80
// ellipsoid, from the IGN NTG 71 specification. The neighborhood layer is
// delivered in this planar CRS, so transaction points are reprojected onto
// it before the point-in-polygon join.
const (
	lambertE  = 0.0818191910435   // GRS80 first eccentricity
	lambertN  = 0.725607765053267 // exponent of the projection
	lambertC  = 11754255.426096   // projection constant (m)
	lambertXs = 700000.0          // false easting (m)
	lambertYs = 12655612.049876   // false northing (m)
	lambertL0 = 3.0 * math.Pi / 180.0
)

// Lambert93 projects a WGS84 geographic coordinate (decimal degrees) to
// Lambert-93 planar easting/northing in meters.
func Lambert93(lat, lon float64) (x, y float64) {
	phi := lat * math.Pi / 180.0
	lambda := lon * math.Pi / 180.0

	sinPhi := math.Sin(phi)
	isoLat := math.Atanh(sinPhi) - lambertE*math.Atanh(lambertE*sinPhi)

	r := lambertC * math.Exp(-lambertN*isoLat)
	gamma := lambertN * (lambda - lambertL0)

	x = lambertXs + r*math.Sin(gamma)
	y = lambertYs - r*math.Cos(gamma)
	return x, y
}
