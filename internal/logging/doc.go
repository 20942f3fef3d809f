// Package logging configures slog for ludex.
//
// Two handler formats are supported: "console" renders compact
// timestamp/level/message lines with key=value attributes, "json" emits
// machine-readable records. Attr helpers mirror the slog constructors so
// call sites stay terse.
package logging
