package types

// Physical column types use the embedded engine's vocabulary.
const (
	ColText    = "text"
	ColReal    = "real"
	ColInteger = "integer"
)

// TableConfig is the static description of one entity's physical shape:
// table name, column types, and which columns carry JSON, date, or boolean
// values and therefore need serialization on the way in and out.
//
// The config is created once, either registered explicitly before first use
// or auto-inferred from the first written payload, and never mutated
// afterwards. New keys seen on later writes are not retro-added; such
// fields are silently not stored (preserved source asymmetry).
type TableConfig struct {
	Name        string
	Columns     map[string]string
	JSONColumns map[string]bool
	DateColumns map[string]bool
	BoolColumns map[string]bool
}

// ColumnType returns the physical type for a column. Unknown columns fall
// back to a plain text mapping rather than failing, so ad-hoc fields in
// filters stay usable.
func (c TableConfig) ColumnType(name string) string {
	if t, ok := c.Columns[name]; ok {
		return t
	}
	return ColText
}

// Clone returns an independent copy of the config.
func (c TableConfig) Clone() TableConfig {
	out := TableConfig{
		Name:        c.Name,
		Columns:     make(map[string]string, len(c.Columns)),
		JSONColumns: make(map[string]bool, len(c.JSONColumns)),
		DateColumns: make(map[string]bool, len(c.DateColumns)),
		BoolColumns: make(map[string]bool, len(c.BoolColumns)),
	}
	for k, v := range c.Columns {
		out.Columns[k] = v
	}
	for k := range c.JSONColumns {
		out.JSONColumns[k] = true
	}
	for k := range c.DateColumns {
		out.DateColumns[k] = true
	}
	for k := range c.BoolColumns {
		out.BoolColumns[k] = true
	}
	return out
}
