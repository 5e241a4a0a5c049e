package types

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Operator is a typed comparison operator in a filter condition.
type Operator string

// Supported filter operators.
const (
	OpEq        Operator = "eq"
	OpNeq       Operator = "neq"
	OpGt        Operator = "gt"
	OpGte       Operator = "gte"
	OpLt        Operator = "lt"
	OpLte       Operator = "lte"
	OpIn        Operator = "in"
	OpNin       Operator = "nin"
	OpLike      Operator = "like"
	OpILike     Operator = "ilike"
	OpBetween   Operator = "between"
	OpIsNull    Operator = "isNull"
	OpIsNotNull Operator = "isNotNull"
)

// Conjunction joins the children of a filter group.
type Conjunction string

// Supported group conjunctions.
const (
	ConjAnd Conjunction = "and"
	ConjOr  Conjunction = "or"
)

// Where is a node in the filter tree. It is a closed interface: only
// Condition and Group implement it.
type Where interface {
	isWhere()
}

// Condition is a single comparison against one field. Field may contain '.'
// to address a path inside a JSON column (embedded-SQL engine only).
type Condition struct {
	Field string
	Op    Operator
	Value any
}

func (Condition) isWhere() {}

// Group joins child nodes with AND or OR. A group with zero children
// matches everything (identity element for AND), never false.
type Group struct {
	Conj     Conjunction
	Children []Where
}

func (Group) isWhere() {}

// And builds an AND group.
func And(children ...Where) Group {
	return Group{Conj: ConjAnd, Children: children}
}

// Or builds an OR group.
func Or(children ...Where) Group {
	return Group{Conj: ConjOr, Children: children}
}

// Eq builds an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// Order is one ordering key of a query.
type Order struct {
	Field string
	Desc  bool
}

// QuerySpec is the backend-agnostic description of one read request. The
// top-level Where list is implicitly AND-ed. Limit and Skip are the loose
// calling convention; Page is the structured one. Normalization into a
// canonical window happens once, in Window.
type QuerySpec struct {
	Entity  string
	Where   []Where
	OrderBy []Order
	Page    *Pagination
	Limit   int
	Skip    int
}

// Window returns the canonical pagination for this spec. A nil Page with
// Limit/Skip set is treated as the offset form.
func (s QuerySpec) Window() Page {
	if s.Page != nil {
		return s.Page.Normalize()
	}
	if s.Limit > 0 || s.Skip > 0 {
		return Pagination{Offset: s.Skip, Limit: s.Limit}.Normalize()
	}
	return Page{}
}

// Validate checks operator/value arity for a condition: in and nin require
// a list value, between requires a 2-element list. Violations return
// ErrInvalidFilter rather than surfacing as engine errors.
func (c Condition) Validate() error {
	switch c.Op {
	case OpIn, OpNin:
		if _, ok := ValueSlice(c.Value); !ok {
			return fmt.Errorf("%w: %s requires a list value for field %q", ErrInvalidFilter, c.Op, c.Field)
		}
	case OpBetween:
		vals, ok := ValueSlice(c.Value)
		if !ok || len(vals) != 2 {
			return fmt.Errorf("%w: between requires a 2-element list for field %q", ErrInvalidFilter, c.Field)
		}
	}
	return nil
}

// SplitField splits a dot-path field into its column and the remaining
// path. A field without '.' returns an empty path.
func SplitField(field string) (column, path string) {
	if i := strings.IndexByte(field, '.'); i >= 0 {
		return field[:i], field[i+1:]
	}
	return field, ""
}

// EqualityWhere converts a partial-match object into the equivalent filter
// tree: one eq condition per key, AND-ed. Keys are visited in sorted order
// so compiled SQL is deterministic.
func EqualityWhere(match Entity) []Where {
	if len(match) == 0 {
		return nil
	}
	keys := make([]string, 0, len(match))
	for k := range match {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	where := make([]Where, 0, len(keys))
	for _, k := range keys {
		where = append(where, Eq(k, match[k]))
	}
	return where
}

// ValueSlice converts a filter value into a []any when it holds a slice of
// any element type. Strings and byte slices are not treated as lists.
func ValueSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case nil:
		return nil, false
	case []any:
		return s, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
