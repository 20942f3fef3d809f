package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"ludex/internal/logging"
)

// StaleRecoveryNote explains why a row was forced to the failed phase.
const StaleRecoveryNote = "Operation abandoned: process exited before completion"

// RecoverStaleOperations forces rows whose install phase marks an operation
// still "in progress" or "cancelled", and whose last attempt is at least
// threshold old, into the terminal failed phase. Run at startup so a killed
// process cannot leave rows permanently stuck. Returns the number of rows
// recovered.
func (s *Store) RecoverStaleOperations(ctx context.Context, threshold time.Duration) int {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("recover stale operations", err)
		return 0
	}
	defer release()

	cutoff := time.Now().Add(-threshold)
	res, err := s.db.ExecContext(ctx,
		`UPDATE install_state
         SET install_phase = ?, status_note = ?, updated_at = ?
         WHERE install_phase IN (?, ?, ?, ?)
           AND last_attempt_at IS NOT NULL
           AND last_attempt_at <= ?`,
		string(PhaseFailed),
		StaleRecoveryNote,
		timestamp(time.Now()),
		string(PhasePending),
		string(PhaseDownloading),
		string(PhaseInstalling),
		string(PhaseCancelled),
		timestamp(cutoff),
	)
	if err != nil {
		s.logger.Error("recover stale operations", logging.Error(err))
		return 0
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	if affected > 0 {
		s.logger.Info("recovered stale install operations",
			logging.Int64("rows", affected),
			logging.Duration("threshold", threshold))
	}
	return int(affected)
}

// Validate checks the recorded installed path against the filesystem and
// corrects the in-memory record when they disagree. Returns true when the
// caller should persist the corrected state.
func (s *Store) Validate(state *InstallState) bool {
	if state == nil {
		return false
	}

	exists := false
	if strings.TrimSpace(state.InstalledPath) != "" {
		if _, err := os.Stat(state.InstalledPath); err == nil {
			exists = true
		}
	}

	now := time.Now()
	state.LastValidatedAt = &now

	switch {
	case state.IsInstalled && !exists:
		state.IsInstalled = false
		state.InstalledAt = nil
		return true
	case !state.IsInstalled && exists:
		state.IsInstalled = true
		return true
	default:
		return false
	}
}

// Stats counts rows grouped by install phase.
func (s *Store) Stats(ctx context.Context) PhaseStats {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("stats", err)
		return nil
	}
	defer release()

	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(install_phase, ''), COUNT(1) FROM install_state GROUP BY install_phase`)
	if err != nil {
		s.logger.Error("state stats", logging.Error(err))
		return nil
	}
	defer rows.Close()

	stats := make(PhaseStats)
	for rows.Next() {
		var phase string
		var count int
		if err := rows.Scan(&phase, &count); err != nil {
			s.logger.Error("scan state stats", logging.Error(err))
			return nil
		}
		stats[ParseInstallPhase(phase)] += count
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("iterate state stats", logging.Error(err))
		return nil
	}
	return stats
}

// CheckHealth returns diagnostic information about the state database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("state database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat state database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("state database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("state database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping state database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'install_state'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			health.TableExists = false
		} else {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		present, err := tableColumns(connCtx, s.db, "install_state")
		if err != nil {
			health.Error = err.Error()
			return health, err
		}
		for name := range present {
			health.ColumnsPresent = append(health.ColumnsPresent, name)
		}
		for _, name := range expectedColumns() {
			if _, ok := present[name]; !ok {
				health.MissingColumns = append(health.MissingColumns, name)
			}
		}

		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM install_state")
		if err := row.Scan(&health.TotalRows); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count state rows: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}
