package pipeline

import "sort"

// DetectObject picks the boundary-tagged zone with the most track points
// inside it and returns its owning object UID, per §4.9. Ties between
// objects break lexicographically on ObjectUID (smallest wins) whatever the
// order of the zones slice; only zones with equal count and equal ObjectUID
// keep their slice order (resolves the distilled spec's open tiebreak
// question).
func DetectObject(track []TrackPoint, zones []Zone) (objectUID string, detected bool) {
	if len(track) == 0 {
		return "", false
	}

	var boundaries []Zone
	for _, z := range zones {
		if z.Tag == TagBoundary {
			boundaries = append(boundaries, z)
		}
	}
	if len(boundaries) == 0 {
		return "", false
	}

	counts := make([]int, len(boundaries))
	for i, z := range boundaries {
		for _, pt := range track {
			if zoneContains(z, pt.Lon, pt.Lat) {
				counts[i]++
			}
		}
	}

	order := make([]int, len(boundaries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if counts[ia] != counts[ib] {
			return counts[ia] > counts[ib]
		}
		return boundaries[ia].ObjectUID < boundaries[ib].ObjectUID
	})

	best := order[0]
	if counts[best] == 0 {
		return "", false
	}
	return boundaries[best].ObjectUID, true
}
