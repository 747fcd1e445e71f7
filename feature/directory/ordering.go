package directory

import (
	"math"
	"strings"

	"player-directory/core/sortedview"
	"player-directory/feature/directory/models"
)

// unrankedCategory sorts players without a ranked primary category after
// every ranked one.
const unrankedCategory = math.MaxInt

// NewComparer builds the total order over players used by every view:
// primary category rank ascending, then display name (case-insensitive),
// then identity key so that name ties stay deterministic. The rank map comes
// from the category provider and is re-supplied whenever ranks change, so the
// same comparer instance is applied to the canonical store and every derived
// view; paginated reads across views stay mutually comparable.
func NewComparer(ranks map[int]int) sortedview.Less[*models.Player] {
	return func(a, b *models.Player) bool {
		ra, rb := categoryRank(a, ranks), categoryRank(b, ranks)
		if ra != rb {
			return ra < rb
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.Key < b.Key
	}
}

func categoryRank(p *models.Player, ranks map[int]int) int {
	if p.PrimaryCategoryID == models.BucketNone {
		return unrankedCategory
	}
	if rank, ok := ranks[p.PrimaryCategoryID]; ok {
		return rank
	}
	return unrankedCategory
}
