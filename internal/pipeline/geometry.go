package pipeline

// pointInRing reports whether (lon, lat) lies inside the ring using the
// standard even-odd ray-casting test. The ring need not be explicitly
// closed (last point equal to first).
func pointInRing(ring [][2]float64, lon, lat float64) bool {
	inside := false
	n := len(ring)
	if n < 3 {
		return false
	}
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]

		intersects := (yi > lat) != (yj > lat)
		if intersects {
			xCross := xi + (lat-yi)/(yj-yi)*(xj-xi)
			if lon < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// pointInPolygon reports whether (lon, lat) is inside the polygon: inside
// the outer ring (Rings[0]) and outside every hole ring (Rings[1:]).
func pointInPolygon(p Polygon, lon, lat float64) bool {
	if len(p.Rings) == 0 {
		return false
	}
	if !pointInRing(p.Rings[0], lon, lat) {
		return false
	}
	for _, hole := range p.Rings[1:] {
		if pointInRing(hole, lon, lat) {
			return false
		}
	}
	return true
}

// zoneContains reports whether (lon, lat) is inside any of the zone's
// polygons (a zone may be a multi-polygon).
func zoneContains(z Zone, lon, lat float64) bool {
	for _, poly := range z.Polygons {
		if pointInPolygon(poly, lon, lat) {
			return true
		}
	}
	return false
}
