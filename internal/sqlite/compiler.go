package sqlite

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

// Filter compilation: a depth-first walk over the condition/group tree
// emitting squirrel sqlizers. Groups join children with AND/OR; an empty
// group contributes nothing (identity element for AND). A dot-path field
// becomes a json_extract expression against its JSON column.

// compileWhere compiles a top-level condition list (implicit AND). A nil
// result means no filter.
func compileWhere(where []types.Where, cfg types.TableConfig) (sq.Sqlizer, error) {
	conj := make(sq.And, 0, len(where))
	for _, node := range where {
		s, err := compileNode(node, cfg)
		if err != nil {
			return nil, err
		}
		if s != nil {
			conj = append(conj, s)
		}
	}
	if len(conj) == 0 {
		return nil, nil
	}
	return conj, nil
}

func compileNode(node types.Where, cfg types.TableConfig) (sq.Sqlizer, error) {
	switch w := node.(type) {
	case types.Condition:
		return compileCondition(w, cfg)
	case types.Group:
		return compileGroup(w, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown filter node %T", types.ErrInvalidFilter, node)
	}
}

func compileGroup(g types.Group, cfg types.TableConfig) (sq.Sqlizer, error) {
	children := make([]sq.Sqlizer, 0, len(g.Children))
	for _, child := range g.Children {
		s, err := compileNode(child, cfg)
		if err != nil {
			return nil, err
		}
		if s != nil {
			children = append(children, s)
		}
	}
	if len(children) == 0 {
		return nil, nil
	}
	if g.Conj == types.ConjOr {
		return sq.Or(children), nil
	}
	return sq.And(children), nil
}

func compileCondition(c types.Condition, cfg types.TableConfig) (sq.Sqlizer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	column, _ := types.SplitField(c.Field)
	expr := fieldExpr(c.Field)

	switch c.Op {
	case types.OpEq:
		v, err := encodeValue(cfg, column, c.Value)
		if err != nil {
			return nil, err
		}
		return sq.Eq{expr: v}, nil
	case types.OpNeq:
		v, err := encodeValue(cfg, column, c.Value)
		if err != nil {
			return nil, err
		}
		return sq.NotEq{expr: v}, nil
	case types.OpGt:
		v, err := encodeValue(cfg, column, c.Value)
		if err != nil {
			return nil, err
		}
		return sq.Gt{expr: v}, nil
	case types.OpGte:
		v, err := encodeValue(cfg, column, c.Value)
		if err != nil {
			return nil, err
		}
		return sq.GtOrEq{expr: v}, nil
	case types.OpLt:
		v, err := encodeValue(cfg, column, c.Value)
		if err != nil {
			return nil, err
		}
		return sq.Lt{expr: v}, nil
	case types.OpLte:
		v, err := encodeValue(cfg, column, c.Value)
		if err != nil {
			return nil, err
		}
		return sq.LtOrEq{expr: v}, nil
	case types.OpIn, types.OpNin:
		vals, _ := types.ValueSlice(c.Value) // arity validated above
		encoded := make([]any, len(vals))
		for i, v := range vals {
			ev, err := encodeValue(cfg, column, v)
			if err != nil {
				return nil, err
			}
			encoded[i] = ev
		}
		if c.Op == types.OpIn {
			return sq.Eq{expr: encoded}, nil
		}
		return sq.NotEq{expr: encoded}, nil
	case types.OpLike:
		return sq.Expr(expr+` LIKE ? ESCAPE '\'`, likePattern(c.Value)), nil
	case types.OpILike:
		return sq.Expr(`lower(`+expr+`) LIKE lower(?) ESCAPE '\'`, likePattern(c.Value)), nil
	case types.OpBetween:
		vals, _ := types.ValueSlice(c.Value) // arity validated above
		lo, err := encodeValue(cfg, column, vals[0])
		if err != nil {
			return nil, err
		}
		hi, err := encodeValue(cfg, column, vals[1])
		if err != nil {
			return nil, err
		}
		return sq.Expr(expr+" BETWEEN ? AND ?", lo, hi), nil
	case types.OpIsNull:
		return sq.Eq{expr: nil}, nil
	case types.OpIsNotNull:
		return sq.NotEq{expr: nil}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported operator %q", types.ErrInvalidFilter, c.Op)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds the substring-match pattern for a like/ilike needle.
// Wildcard metacharacters in the needle are escaped so they match
// literally, keeping substring semantics identical across engines.
func likePattern(v any) string {
	return "%" + likeEscaper.Replace(asString(v)) + "%"
}

// fieldExpr renders the SQL expression for a field: the quoted column, or
// a json_extract over the column when the field carries a dot path.
func fieldExpr(field string) string {
	column, path := types.SplitField(field)
	if path == "" {
		return quoteIdent(column)
	}
	return fmt.Sprintf("json_extract(%s, '$.%s')", quoteIdent(column), path)
}

// selectBuilder assembles SELECT ... WHERE ... ORDER BY ... LIMIT/OFFSET
// for a compiled filter and canonical window.
func selectBuilder(cfg types.TableConfig, filter sq.Sqlizer, orderBy []types.Order, window types.Page) sq.SelectBuilder {
	cols := make([]string, 0, len(cfg.Columns))
	for _, col := range sortedColumns(cfg) {
		cols = append(cols, quoteIdent(col))
	}
	b := sq.Select(cols...).From(quoteIdent(cfg.Name))
	if filter != nil {
		b = b.Where(filter)
	}
	for _, key := range orderBy {
		dir := " ASC"
		if key.Desc {
			dir = " DESC"
		}
		b = b.OrderBy(fieldExpr(key.Field) + dir)
	}
	if window.Bounded() {
		b = b.Limit(uint64(window.Count)).Offset(uint64(window.Start))
	} else if window.Start > 0 {
		// SQLite requires a LIMIT clause before OFFSET.
		b = b.Limit(^uint64(0) >> 1).Offset(uint64(window.Start))
	}
	return b
}

// countBuilder assembles the parallel COUNT(*) query: same WHERE, no
// ordering or window, supplying the unpaginated total.
func countBuilder(cfg types.TableConfig, filter sq.Sqlizer) sq.SelectBuilder {
	b := sq.Select("COUNT(*)").From(quoteIdent(cfg.Name))
	if filter != nil {
		b = b.Where(filter)
	}
	return b
}
