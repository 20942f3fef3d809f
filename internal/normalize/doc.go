// Package normalize produces canonical comparison forms for titles and
// file names. Both functions are total and deterministic; Title is
// idempotent, so normalized values can be stored and re-normalized safely.
package normalize
