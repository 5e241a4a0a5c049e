package memory

import (
	"sort"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

// sortEntities orders rows by the given keys, comparing in listed priority
// order. The sort is stable, so insertion order remains the tie-break.
func sortEntities(rows []types.Entity, keys []types.Order) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range keys {
			cmp, ok := compareValues(rows[i][key.Field], rows[j][key.Field])
			if !ok || cmp == 0 {
				continue
			}
			if key.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}
