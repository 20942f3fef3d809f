// Package store persists the durable link between local library items and
// remote catalog entries, plus local installation facts, in a single SQLite
// database file.
//
// All access is serialized through a per-Store gate with an acquisition
// timeout; contention is logged before it becomes a failure. Schema creation
// is idempotent and later-version columns are added in place by inspecting
// the current column set, so a database written by an older build keeps
// working without data loss.
//
// Read and write methods swallow persistence failures and return an empty or
// false default after logging; only Open fails hard, since nothing can
// proceed without schema.
package store
