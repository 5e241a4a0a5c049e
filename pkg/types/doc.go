// Package types defines the adapter contract, query model, table
// configuration, and standard errors for the storage core. Both storage
// engines (in-memory and embedded SQL) implement the interfaces declared
// here; callers outside the core depend only on this package.
package types
