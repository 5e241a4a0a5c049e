// Package memory provides the public API for the in-process storage
// engine. The engine keeps every table in process memory, isolates callers
// through deep copies, and supports the filter language over shallow keys
// only; see Capabilities on its adapters.
package memory

import (
	"github.com/qwe8652591/ai-builder-core-sub002/internal/memory"
	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

// New creates an empty in-memory engine.
//
// Example:
//
//	engine := memory.New()
//	products := engine.Adapter("Product")
//	created, err := products.Create(types.Entity{"name": "Pen"})
func New() types.Engine {
	return memory.New()
}
