package types

import "errors"

// Config selects and parameterizes a storage engine.
type Config struct {
	Backend     string `json:"backend" yaml:"backend"`
	DataDir     string `json:"data_dir" yaml:"data_dir"`
	SnapshotKey string `json:"snapshot_key" yaml:"snapshot_key"`

	// AutoSave persists a full durable snapshot after every committed
	// write. Requires SnapshotKey and a snapshot store.
	AutoSave bool `json:"auto_save" yaml:"auto_save"`
}

// Supported backend names.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrSnapshotKeyMissing = errors.New("auto_save requires a snapshot_key")
)

var knownBackends = map[string]bool{
	BackendMemory: true,
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed, returning a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.AutoSave && c.SnapshotKey == "" {
		return ErrSnapshotKeyMissing
	}
	return nil
}
