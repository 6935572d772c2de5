package property

import (
	"cmp"
	"math"
	"slices"
)

// Recommend ranks the listings in props that the seeker has not interacted
// with by similarity to those they have. A listing scores 2 when its rent
// is within 30% of the mean rent of the interacted listings and 3 when its
// bedroom count equals their rounded mean. Without usable history the first
// limit listings are returned.
func Recommend(props []*Property, interacted []int64, limit int) []*Property {
	seen := make(map[int64]bool, len(interacted))
	for _, id := range interacted {
		seen[id] = true
	}

	var basis []*Property
	for _, p := range props {
		if seen[p.ID] {
			basis = append(basis, p)
		}
	}
	if len(basis) == 0 {
		return head(props, limit)
	}

	var rentSum, bedSum float64
	for _, p := range basis {
		rentSum += float64(p.Rent)
		bedSum += float64(p.Bedrooms)
	}
	avgRent := rentSum / float64(len(basis))
	avgBeds := int(math.Round(bedSum / float64(len(basis))))

	type scored struct {
		p     *Property
		score int
	}
	var candidates []scored
	for _, p := range props {
		if seen[p.ID] {
			continue
		}
		score := 0
		if math.Abs(float64(p.Rent)-avgRent) < avgRent*0.3 {
			score += 2
		}
		if p.Bedrooms == avgBeds {
			score += 3
		}
		candidates = append(candidates, scored{p: p, score: score})
	}
	if len(candidates) == 0 {
		return head(props, limit)
	}

	slices.SortStableFunc(candidates, func(a, b scored) int { return cmp.Compare(b.score, a.score) })

	out := make([]*Property, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.p)
	}
	return head(out, limit)
}

func head(props []*Property, limit int) []*Property {
	if limit > 0 && len(props) > limit {
		props = props[:limit]
	}
	return append([]*Property{}, props...)
}
