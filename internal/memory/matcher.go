package memory

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

// The in-memory matcher evaluates the filter operator set over shallow
// keys only. A dot-path field never matches here; nested JSON access is an
// embedded-SQL capability, and the divergence is reported through
// Capabilities().FullFilterLanguage.

// matchAll evaluates a top-level condition list (implicit AND).
func matchAll(e types.Entity, where []types.Where) bool {
	for _, node := range where {
		if !matchNode(e, node) {
			return false
		}
	}
	return true
}

func matchNode(e types.Entity, node types.Where) bool {
	switch w := node.(type) {
	case types.Condition:
		return matchCondition(e, w)
	case types.Group:
		return matchGroup(e, w)
	default:
		return false
	}
}

// matchGroup joins child results with the group's conjunction. An empty
// group matches everything.
func matchGroup(e types.Entity, g types.Group) bool {
	if len(g.Children) == 0 {
		return true
	}
	if g.Conj == types.ConjOr {
		for _, child := range g.Children {
			if matchNode(e, child) {
				return true
			}
		}
		return false
	}
	for _, child := range g.Children {
		if !matchNode(e, child) {
			return false
		}
	}
	return true
}

func matchCondition(e types.Entity, c types.Condition) bool {
	if strings.ContainsRune(c.Field, '.') {
		// Shallow keys only; nested paths never match in this engine.
		return false
	}
	v, present := e[c.Field]

	switch c.Op {
	case types.OpIsNull:
		return !present || v == nil
	case types.OpIsNotNull:
		return present && v != nil
	}

	if !present || v == nil {
		// Comparisons against an absent field follow SQL NULL semantics:
		// nothing matches.
		return false
	}

	switch c.Op {
	case types.OpEq:
		return equalValues(v, c.Value)
	case types.OpNeq:
		return !equalValues(v, c.Value)
	case types.OpGt:
		cmp, ok := compareValues(v, c.Value)
		return ok && cmp > 0
	case types.OpGte:
		cmp, ok := compareValues(v, c.Value)
		return ok && cmp >= 0
	case types.OpLt:
		cmp, ok := compareValues(v, c.Value)
		return ok && cmp < 0
	case types.OpLte:
		cmp, ok := compareValues(v, c.Value)
		return ok && cmp <= 0
	case types.OpIn:
		vals, ok := types.ValueSlice(c.Value)
		if !ok {
			return false
		}
		for _, candidate := range vals {
			if equalValues(v, candidate) {
				return true
			}
		}
		return false
	case types.OpNin:
		vals, ok := types.ValueSlice(c.Value)
		if !ok {
			return false
		}
		for _, candidate := range vals {
			if equalValues(v, candidate) {
				return false
			}
		}
		return true
	case types.OpLike:
		return substringMatch(v, c.Value, false)
	case types.OpILike:
		return substringMatch(v, c.Value, true)
	case types.OpBetween:
		vals, ok := types.ValueSlice(c.Value)
		if !ok || len(vals) != 2 {
			return false
		}
		lo, okLo := compareValues(v, vals[0])
		hi, okHi := compareValues(v, vals[1])
		return okLo && okHi && lo >= 0 && hi <= 0
	default:
		return false
	}
}

func substringMatch(v, pattern any, fold bool) bool {
	sv, okV := v.(string)
	sp, okP := pattern.(string)
	if !okV || !okP {
		return false
	}
	if fold {
		sv = strings.ToLower(sv)
		sp = strings.ToLower(sp)
	}
	return strings.Contains(sv, sp)
}

// equalValues compares two filter operands loosely: numeric values compare
// across int/float widths, times compare by instant, composite values by
// their JSON encoding, everything else by direct equality.
func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if a == nil || b == nil {
		return a == b
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return equalJSON(a, b)
	}
	return a == b
}

// equalJSON compares maps, slices, and other non-comparable values by
// their JSON encoding, the same serialization the embedded engine stores
// and filters against.
func equalJSON(a, b any) bool {
	da, err := json.Marshal(a)
	if err != nil {
		return false
	}
	db, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(da, db)
}

// compareValues orders two operands of the same kind. Returns false when
// the kinds are not mutually comparable.
func compareValues(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		default:
			return 0, true
		}
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	if ba, ok := a.(bool); ok {
		bb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case ba == bb:
			return 0, true
		case bb:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
