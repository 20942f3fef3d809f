package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"ludex/internal/config"
	"ludex/internal/logging"
)

// ErrStoreBusy indicates the store gate could not be acquired in time.
var ErrStoreBusy = errors.New("state store busy")

// Store manages durable linkage and install state backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	gate        chan struct{}
	gateTimeout time.Duration
	gateWarn    time.Duration

	writer *identityWriter
}

// Open initializes or connects to the state database. The schema is created
// idempotently and later-version columns are reconciled in place. A legacy
// database file, if present under the old name, is copied (never moved) into
// place first.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithComponent(logger, "store")

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	if err := migrateLegacyFile(cfg.LegacyDatabasePath(), dbPath, logger); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{
		db:          db,
		path:        dbPath,
		logger:      logger,
		gate:        make(chan struct{}, 1),
		gateTimeout: time.Duration(cfg.Store.GateTimeoutSeconds) * time.Second,
		gateWarn:    time.Duration(cfg.Store.GateWarnMillis) * time.Millisecond,
	}

	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.writer = newIdentityWriter(s)
	return s, nil
}

// Close drains the background writer and closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.writer != nil {
		s.writer.close()
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// acquireGate serializes store access. Acquisition beyond the warn threshold
// is logged; beyond the timeout the operation gives up with ErrStoreBusy.
func (s *Store) acquireGate(ctx context.Context) (func(), error) {
	start := time.Now()
	timer := time.NewTimer(s.gateTimeout)
	defer timer.Stop()

	select {
	case s.gate <- struct{}{}:
	case <-timer.C:
		s.logger.Warn("store gate acquisition timed out", logging.Duration("timeout", s.gateTimeout))
		return nil, ErrStoreBusy
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if wait := time.Since(start); wait >= s.gateWarn {
		s.logger.Warn("slow store gate acquisition", logging.Duration("wait", wait))
	}
	return func() { <-s.gate }, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeFormat keeps a fixed-width fraction so stored timestamps compare
// correctly as strings in SQL.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(timeFormat)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func timePointer(raw sql.NullString) *time.Time {
	if !raw.Valid {
		return nil
	}
	t, err := parseTimeString(raw.String)
	if err != nil {
		return nil
	}
	return &t
}
