package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

func TestMatchCondition(t *testing.T) {
	now := time.Now()
	row := types.Entity{
		"name":       "Blue Pen",
		"price":      1.5,
		"stock":      int64(100),
		"active":     true,
		"created_at": now,
		"tags":       []any{"office"},
		"attrs":      map[string]any{"color": "blue", "weight": 12.0},
	}

	tests := []struct {
		name string
		cond types.Condition
		want bool
	}{
		{"eq string", types.Eq("name", "Blue Pen"), true},
		{"eq string miss", types.Eq("name", "Red Pen"), false},
		{"eq numeric across widths", types.Eq("stock", 100), true},
		{"eq float", types.Eq("price", 1.5), true},
		{"eq time by instant", types.Eq("created_at", now), true},
		{"neq", types.Condition{Field: "name", Op: types.OpNeq, Value: "Red Pen"}, true},
		{"neq miss", types.Condition{Field: "name", Op: types.OpNeq, Value: "Blue Pen"}, false},
		{"gt", types.Condition{Field: "price", Op: types.OpGt, Value: 1.0}, true},
		{"gt equal is false", types.Condition{Field: "price", Op: types.OpGt, Value: 1.5}, false},
		{"gte equal", types.Condition{Field: "price", Op: types.OpGte, Value: 1.5}, true},
		{"lt", types.Condition{Field: "price", Op: types.OpLt, Value: 2.0}, true},
		{"lte equal", types.Condition{Field: "price", Op: types.OpLte, Value: 1.5}, true},
		{"string ordering", types.Condition{Field: "name", Op: types.OpLt, Value: "Cup"}, true},
		{"in", types.Condition{Field: "name", Op: types.OpIn, Value: []any{"Red Pen", "Blue Pen"}}, true},
		{"in miss", types.Condition{Field: "name", Op: types.OpIn, Value: []any{"Cup"}}, false},
		{"nin", types.Condition{Field: "name", Op: types.OpNin, Value: []any{"Cup"}}, true},
		{"nin miss", types.Condition{Field: "name", Op: types.OpNin, Value: []any{"Blue Pen"}}, false},
		{"like is case sensitive", types.Condition{Field: "name", Op: types.OpLike, Value: "Pen"}, true},
		{"like case miss", types.Condition{Field: "name", Op: types.OpLike, Value: "pen"}, false},
		{"ilike folds case", types.Condition{Field: "name", Op: types.OpILike, Value: "pen"}, true},
		{"between inclusive", types.Condition{Field: "price", Op: types.OpBetween, Value: []any{1.5, 2.0}}, true},
		{"between outside", types.Condition{Field: "price", Op: types.OpBetween, Value: []any{2.0, 3.0}}, false},
		{"isNull on absent field", types.Condition{Field: "deleted_at", Op: types.OpIsNull}, true},
		{"isNull on present field", types.Condition{Field: "name", Op: types.OpIsNull}, false},
		{"isNotNull on present field", types.Condition{Field: "name", Op: types.OpIsNotNull}, true},
		{"isNotNull on absent field", types.Condition{Field: "deleted_at", Op: types.OpIsNotNull}, false},
		{"absent field never compares", types.Condition{Field: "weight", Op: types.OpGt, Value: 0}, false},
		{"absent field never equals", types.Eq("weight", nil), false},
		{"dot path never matches here", types.Eq("attrs.color", "red"), false},
		{"incomparable kinds", types.Condition{Field: "name", Op: types.OpGt, Value: 42}, false},
		{"eq map compares structurally", types.Eq("attrs", map[string]any{"color": "blue", "weight": 12.0}), true},
		{"eq map miss", types.Eq("attrs", map[string]any{"color": "red", "weight": 12.0}), false},
		{"eq slice compares structurally", types.Eq("tags", []any{"office"}), true},
		{"eq slice miss", types.Eq("tags", []any{"office", "home"}), false},
		{"neq map", types.Condition{Field: "attrs", Op: types.OpNeq, Value: map[string]any{"color": "red"}}, true},
		{"map against scalar", types.Eq("attrs", "blue"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchCondition(row, tt.cond))
		})
	}
}

func TestMatchGroup(t *testing.T) {
	row := types.Entity{"name": "Pen", "state": "active"}

	t.Run("or short-circuits", func(t *testing.T) {
		g := types.Or(types.Eq("name", "Cup"), types.Eq("state", "active"))
		assert.True(t, matchGroup(row, g))
	})

	t.Run("and requires all", func(t *testing.T) {
		g := types.And(types.Eq("name", "Pen"), types.Eq("state", "archived"))
		assert.False(t, matchGroup(row, g))
	})

	t.Run("empty group matches everything", func(t *testing.T) {
		assert.True(t, matchGroup(row, types.And()))
		assert.True(t, matchGroup(row, types.Or()))
	})

	t.Run("nested groups", func(t *testing.T) {
		g := types.And(
			types.Eq("name", "Pen"),
			types.Or(types.Eq("state", "active"), types.Eq("state", "draft")),
		)
		assert.True(t, matchGroup(row, g))
	})
}

func TestCompareValues(t *testing.T) {
	t.Run("bools order false before true", func(t *testing.T) {
		cmp, ok := compareValues(false, true)
		assert.True(t, ok)
		assert.Equal(t, -1, cmp)
	})

	t.Run("times compare by instant", func(t *testing.T) {
		a := time.Now()
		b := a.Add(time.Second)
		cmp, ok := compareValues(a, b)
		assert.True(t, ok)
		assert.Equal(t, -1, cmp)
	})

	t.Run("mixed kinds do not compare", func(t *testing.T) {
		_, ok := compareValues("a", 1)
		assert.False(t, ok)
	})
}
