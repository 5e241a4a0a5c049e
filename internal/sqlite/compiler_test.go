package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

func compilerConfig() types.TableConfig {
	return types.TableConfig{
		Name: "products",
		Columns: map[string]string{
			"id":         types.ColText,
			"name":       types.ColText,
			"price":      types.ColReal,
			"active":     types.ColInteger,
			"attrs":      types.ColText,
			"deleted_at": types.ColText,
		},
		JSONColumns: map[string]bool{"attrs": true},
		DateColumns: map[string]bool{"deleted_at": true},
		BoolColumns: map[string]bool{"active": true},
	}
}

func TestCompileCondition(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		where    []types.Where
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "eq",
			where:    []types.Where{types.Eq("name", "Pen")},
			wantSQL:  `("name" = ?)`,
			wantArgs: []any{"Pen"},
		},
		{
			name:     "eq bool encodes to integer",
			where:    []types.Where{types.Eq("active", true)},
			wantSQL:  `("active" = ?)`,
			wantArgs: []any{int64(1)},
		},
		{
			name:     "eq time encodes to RFC3339",
			where:    []types.Where{types.Eq("deleted_at", ts)},
			wantSQL:  `("deleted_at" = ?)`,
			wantArgs: []any{"2026-03-01T12:00:00Z"},
		},
		{
			name:     "neq",
			where:    []types.Where{types.Condition{Field: "name", Op: types.OpNeq, Value: "Pen"}},
			wantSQL:  `("name" <> ?)`,
			wantArgs: []any{"Pen"},
		},
		{
			name:     "gt",
			where:    []types.Where{types.Condition{Field: "price", Op: types.OpGt, Value: 1.5}},
			wantSQL:  `("price" > ?)`,
			wantArgs: []any{1.5},
		},
		{
			name:     "gte",
			where:    []types.Where{types.Condition{Field: "price", Op: types.OpGte, Value: 1.5}},
			wantSQL:  `("price" >= ?)`,
			wantArgs: []any{1.5},
		},
		{
			name:     "lt",
			where:    []types.Where{types.Condition{Field: "price", Op: types.OpLt, Value: 1.5}},
			wantSQL:  `("price" < ?)`,
			wantArgs: []any{1.5},
		},
		{
			name:     "lte",
			where:    []types.Where{types.Condition{Field: "price", Op: types.OpLte, Value: 1.5}},
			wantSQL:  `("price" <= ?)`,
			wantArgs: []any{1.5},
		},
		{
			name:     "in",
			where:    []types.Where{types.Condition{Field: "name", Op: types.OpIn, Value: []any{"Pen", "Cup"}}},
			wantSQL:  `("name" IN (?,?))`,
			wantArgs: []any{"Pen", "Cup"},
		},
		{
			name:    "in with empty list matches nothing",
			where:   []types.Where{types.Condition{Field: "name", Op: types.OpIn, Value: []any{}}},
			wantSQL: `((1=0))`,
		},
		{
			name:     "nin",
			where:    []types.Where{types.Condition{Field: "name", Op: types.OpNin, Value: []any{"Pen"}}},
			wantSQL:  `("name" NOT IN (?))`,
			wantArgs: []any{"Pen"},
		},
		{
			name:     "like wraps the operand",
			where:    []types.Where{types.Condition{Field: "name", Op: types.OpLike, Value: "Pen"}},
			wantSQL:  `("name" LIKE ? ESCAPE '\')`,
			wantArgs: []any{"%Pen%"},
		},
		{
			name:     "like escapes underscore",
			where:    []types.Where{types.Condition{Field: "name", Op: types.OpLike, Value: "P_n"}},
			wantSQL:  `("name" LIKE ? ESCAPE '\')`,
			wantArgs: []any{`%P\_n%`},
		},
		{
			name:     "like escapes percent",
			where:    []types.Where{types.Condition{Field: "name", Op: types.OpLike, Value: "100%"}},
			wantSQL:  `("name" LIKE ? ESCAPE '\')`,
			wantArgs: []any{`%100\%%`},
		},
		{
			name:     "like escapes backslash",
			where:    []types.Where{types.Condition{Field: "name", Op: types.OpLike, Value: `a\b`}},
			wantSQL:  `("name" LIKE ? ESCAPE '\')`,
			wantArgs: []any{`%a\\b%`},
		},
		{
			name:     "ilike folds both sides",
			where:    []types.Where{types.Condition{Field: "name", Op: types.OpILike, Value: "pen"}},
			wantSQL:  `(lower("name") LIKE lower(?) ESCAPE '\')`,
			wantArgs: []any{"%pen%"},
		},
		{
			name:     "ilike escapes wildcards",
			where:    []types.Where{types.Condition{Field: "name", Op: types.OpILike, Value: "50_%"}},
			wantSQL:  `(lower("name") LIKE lower(?) ESCAPE '\')`,
			wantArgs: []any{`%50\_\%%`},
		},
		{
			name:     "between",
			where:    []types.Where{types.Condition{Field: "price", Op: types.OpBetween, Value: []any{1.0, 5.0}}},
			wantSQL:  `("price" BETWEEN ? AND ?)`,
			wantArgs: []any{1.0, 5.0},
		},
		{
			name:    "isNull",
			where:   []types.Where{types.Condition{Field: "deleted_at", Op: types.OpIsNull}},
			wantSQL: `("deleted_at" IS NULL)`,
		},
		{
			name:    "isNotNull",
			where:   []types.Where{types.Condition{Field: "deleted_at", Op: types.OpIsNotNull}},
			wantSQL: `("deleted_at" IS NOT NULL)`,
		},
		{
			name:     "dot path addresses the JSON column",
			where:    []types.Where{types.Eq("attrs.color", "red")},
			wantSQL:  `(json_extract("attrs", '$.color') = ?)`,
			wantArgs: []any{"red"},
		},
		{
			name:     "deep dot path",
			where:    []types.Where{types.Eq("attrs.specs.weight", 12.0)},
			wantSQL:  `(json_extract("attrs", '$.specs.weight') = ?)`,
			wantArgs: []any{12.0},
		},
		{
			name: "top-level list is implicitly AND-ed",
			where: []types.Where{
				types.Eq("name", "Pen"),
				types.Condition{Field: "price", Op: types.OpGt, Value: 1.0},
			},
			wantSQL:  `("name" = ? AND "price" > ?)`,
			wantArgs: []any{"Pen", 1.0},
		},
		{
			name: "or group",
			where: []types.Where{
				types.Or(types.Eq("name", "Pen"), types.Eq("name", "Cup")),
			},
			wantSQL:  `(("name" = ? OR "name" = ?))`,
			wantArgs: []any{"Pen", "Cup"},
		},
		{
			name: "nested groups",
			where: []types.Where{
				types.Or(
					types.Eq("name", "Pen"),
					types.And(
						types.Condition{Field: "price", Op: types.OpGte, Value: 2.0},
						types.Eq("active", true),
					),
				),
			},
			wantSQL:  `(("name" = ? OR ("price" >= ? AND "active" = ?)))`,
			wantArgs: []any{"Pen", 2.0, int64(1)},
		},
	}

	cfg := compilerConfig()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := compileWhere(tt.where, cfg)
			require.NoError(t, err)
			require.NotNil(t, filter)

			sqlStr, args, err := filter.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sqlStr)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestCompileWhere_Empty(t *testing.T) {
	cfg := compilerConfig()

	filter, err := compileWhere(nil, cfg)
	require.NoError(t, err)
	assert.Nil(t, filter)

	// An empty group is the identity element: it contributes no predicate.
	filter, err = compileWhere([]types.Where{types.And(), types.Or()}, cfg)
	require.NoError(t, err)
	assert.Nil(t, filter)
}

func TestCompileWhere_InvalidArity(t *testing.T) {
	cfg := compilerConfig()

	_, err := compileWhere([]types.Where{
		types.Condition{Field: "price", Op: types.OpBetween, Value: 3},
	}, cfg)
	assert.ErrorIs(t, err, types.ErrInvalidFilter)

	_, err = compileWhere([]types.Where{
		types.Or(types.Condition{Field: "name", Op: types.OpIn, Value: "Pen"}),
	}, cfg)
	assert.ErrorIs(t, err, types.ErrInvalidFilter)
}

func TestSelectBuilder(t *testing.T) {
	cfg := types.TableConfig{
		Name: "products",
		Columns: map[string]string{
			"id":    types.ColText,
			"name":  types.ColText,
			"price": types.ColReal,
		},
	}

	t.Run("full query", func(t *testing.T) {
		filter, err := compileWhere([]types.Where{types.Eq("name", "Pen")}, cfg)
		require.NoError(t, err)

		sqlStr, args, err := selectBuilder(cfg, filter,
			[]types.Order{{Field: "price", Desc: true}},
			types.Page{Start: 20, Count: 10, PageNo: 3, PageSize: 10},
		).ToSql()
		require.NoError(t, err)
		assert.Equal(t,
			`SELECT "id", "name", "price" FROM "products" WHERE ("name" = ?) ORDER BY "price" DESC LIMIT 10 OFFSET 20`,
			sqlStr)
		assert.Equal(t, []any{"Pen"}, args)
	})

	t.Run("unbounded", func(t *testing.T) {
		sqlStr, _, err := selectBuilder(cfg, nil, nil, types.Page{}).ToSql()
		require.NoError(t, err)
		assert.Equal(t, `SELECT "id", "name", "price" FROM "products"`, sqlStr)
	})

	t.Run("offset without limit still paginates", func(t *testing.T) {
		sqlStr, _, err := selectBuilder(cfg, nil, nil, types.Page{Start: 5}).ToSql()
		require.NoError(t, err)
		assert.Contains(t, sqlStr, "LIMIT")
		assert.Contains(t, sqlStr, "OFFSET 5")
	})
}

func TestCountBuilder(t *testing.T) {
	cfg := compilerConfig()
	filter, err := compileWhere([]types.Where{
		types.Condition{Field: "price", Op: types.OpGt, Value: 1.0},
	}, cfg)
	require.NoError(t, err)

	sqlStr, args, err := countBuilder(cfg, filter).ToSql()
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "products" WHERE ("price" > ?)`, sqlStr)
	assert.Equal(t, []any{1.0}, args)
}

func TestCreateTableSQL(t *testing.T) {
	cfg := types.TableConfig{
		Name: "products",
		Columns: map[string]string{
			"id":    types.ColText,
			"name":  types.ColText,
			"price": types.ColReal,
		},
	}
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "products" ("id" text PRIMARY KEY, "name" text, "price" real)`,
		createTableSQL(cfg))
}

func TestInferConfig(t *testing.T) {
	cfg := inferConfig("Product", types.Entity{
		"id":     "product_1",
		"name":   "Pen",
		"price":  1.5,
		"stock":  100,
		"active": true,
		"attrs":  map[string]any{"color": "blue"},
		"tags":   []any{"office"},
		"since":  time.Now(),
	})

	assert.Equal(t, "Product", cfg.Name)
	assert.Equal(t, types.ColText, cfg.Columns["id"])
	assert.Equal(t, types.ColText, cfg.Columns["name"])
	assert.Equal(t, types.ColReal, cfg.Columns["price"])
	assert.Equal(t, types.ColReal, cfg.Columns["stock"])
	assert.Equal(t, types.ColInteger, cfg.Columns["active"])
	assert.True(t, cfg.BoolColumns["active"])
	assert.True(t, cfg.JSONColumns["attrs"])
	assert.True(t, cfg.JSONColumns["tags"])
	assert.True(t, cfg.DateColumns["since"])

	// Timestamp columns exist even when the first payload lacks them.
	assert.True(t, cfg.DateColumns["created_at"])
	assert.True(t, cfg.DateColumns["updated_at"])
}
