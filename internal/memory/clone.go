package memory

import (
	"time"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

// cloneEntity returns a deep copy of an entity. Every value crossing the
// store boundary is cloned in both directions so external mutation can
// never corrupt internal state.
func cloneEntity(e types.Entity) types.Entity {
	if e == nil {
		return nil
	}
	out := make(types.Entity, len(e))
	for k, v := range e {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = cloneValue(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	case []byte:
		out := make([]byte, len(val))
		copy(out, val)
		return out
	case time.Time:
		return val
	default:
		// Scalars are copied by value.
		return val
	}
}
