package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"ludex/internal/logging"
)

const stateColumns = `local_item_id, remote_item_id, remote_collection_id, server_origin,
    remote_content_hash, local_content_hash, install_kind, installed_path, archive_path,
    install_root_path, is_installed, installed_at, last_validated_at, install_phase,
    last_attempt_at, status_note, merged_app_id, merged_base_item_id, launch_path,
    launch_args, merged_synced_at, created_at, updated_at`

// Get returns the row for a local item, or nil when absent or on error.
func (s *Store) Get(ctx context.Context, localItemID string) *InstallState {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("get", err)
		return nil
	}
	defer release()

	return s.getLocked(ctx, localItemID)
}

func (s *Store) getLocked(ctx context.Context, localItemID string) *InstallState {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+stateColumns+` FROM install_state WHERE local_item_id = ?`, localItemID)
	state, err := scanState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logger.Error("read install state", logging.String("item", localItemID), logging.Error(err))
		return nil
	}
	return state
}

// GetByCollection returns every row linked to a remote collection. Errors
// yield an empty slice.
func (s *Store) GetByCollection(ctx context.Context, remoteCollectionID string) []InstallState {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("get by collection", err)
		return nil
	}
	defer release()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+stateColumns+` FROM install_state WHERE remote_collection_id = ? ORDER BY local_item_id`,
		remoteCollectionID)
	if err != nil {
		s.logger.Error("query by collection", logging.String("collection", remoteCollectionID), logging.Error(err))
		return nil
	}
	defer rows.Close()

	var states []InstallState
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			s.logger.Error("scan install state", logging.Error(err))
			return nil
		}
		states = append(states, *state)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("iterate install states", logging.Error(err))
		return nil
	}
	return states
}

// Upsert writes a full row keyed by LocalItemID; every field is overwritten,
// last writer wins. Returns false on failure.
func (s *Store) Upsert(ctx context.Context, state InstallState) bool {
	if strings.TrimSpace(state.LocalItemID) == "" {
		s.logger.Error("upsert rejected: empty local item id")
		return false
	}

	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("upsert", err)
		return false
	}
	defer release()

	now := timestamp(time.Now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO install_state (`+stateColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(local_item_id) DO UPDATE SET
             remote_item_id = excluded.remote_item_id,
             remote_collection_id = excluded.remote_collection_id,
             server_origin = excluded.server_origin,
             remote_content_hash = excluded.remote_content_hash,
             local_content_hash = excluded.local_content_hash,
             install_kind = excluded.install_kind,
             installed_path = excluded.installed_path,
             archive_path = excluded.archive_path,
             install_root_path = excluded.install_root_path,
             is_installed = excluded.is_installed,
             installed_at = excluded.installed_at,
             last_validated_at = excluded.last_validated_at,
             install_phase = excluded.install_phase,
             last_attempt_at = excluded.last_attempt_at,
             status_note = excluded.status_note,
             merged_app_id = excluded.merged_app_id,
             merged_base_item_id = excluded.merged_base_item_id,
             launch_path = excluded.launch_path,
             launch_args = excluded.launch_args,
             merged_synced_at = excluded.merged_synced_at,
             updated_at = excluded.updated_at`,
		state.LocalItemID,
		nullableString(state.RemoteItemID),
		nullableString(state.RemoteCollectionID),
		nullableString(state.ServerOrigin),
		nullableString(state.RemoteContentHash),
		nullableString(state.LocalContentHash),
		nullableString(string(state.InstallKind)),
		nullableString(state.InstalledPath),
		nullableString(state.ArchivePath),
		nullableString(state.InstallRootPath),
		boolToInt(state.IsInstalled),
		nullableTime(state.InstalledAt),
		nullableTime(state.LastValidatedAt),
		nullableString(string(state.InstallPhase)),
		nullableTime(state.LastAttemptAt),
		nullableString(state.StatusNote),
		nullableString(state.MergedAppID),
		nullableString(state.MergedBaseItemID),
		nullableString(state.LaunchPath),
		nullableString(state.LaunchArgs),
		nullableTime(state.MergedSyncedAt),
		now,
		now,
	)
	if err != nil {
		s.logger.Error("upsert install state", logging.String("item", state.LocalItemID), logging.Error(err))
		return false
	}
	return true
}

// UpsertIdentity inserts or updates only identity columns, leaving install
// facts untouched. This is the matcher write path: re-matching must never
// clobber installation state.
func (s *Store) UpsertIdentity(ctx context.Context, identity Identity) bool {
	if strings.TrimSpace(identity.LocalItemID) == "" {
		s.logger.Error("identity upsert rejected: empty local item id")
		return false
	}

	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("upsert identity", err)
		return false
	}
	defer release()

	return s.upsertIdentityLocked(ctx, identity)
}

func (s *Store) upsertIdentityLocked(ctx context.Context, identity Identity) bool {
	now := timestamp(time.Now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO install_state (
             local_item_id, remote_item_id, remote_collection_id, server_origin,
             remote_content_hash, local_content_hash, install_kind,
             is_installed, created_at, updated_at
         ) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
         ON CONFLICT(local_item_id) DO UPDATE SET
             remote_item_id = excluded.remote_item_id,
             remote_collection_id = excluded.remote_collection_id,
             server_origin = excluded.server_origin,
             remote_content_hash = excluded.remote_content_hash,
             local_content_hash = excluded.local_content_hash,
             install_kind = excluded.install_kind,
             updated_at = excluded.updated_at`,
		identity.LocalItemID,
		nullableString(identity.RemoteItemID),
		nullableString(identity.RemoteCollectionID),
		nullableString(identity.ServerOrigin),
		nullableString(identity.RemoteContentHash),
		nullableString(identity.LocalContentHash),
		nullableString(string(identity.InstallKind)),
		now,
		now,
	)
	if err != nil {
		s.logger.Error("upsert identity", logging.String("item", identity.LocalItemID), logging.Error(err))
		return false
	}
	return true
}

// Delete removes the full row but preserves its identity: the identity is
// re-read first and written back after the delete, so a later re-install
// does not need re-matching. Returns false when nothing was deleted.
func (s *Store) Delete(ctx context.Context, localItemID string) bool {
	return s.delete(ctx, localItemID, false)
}

// DeletePreserveMerge behaves like Delete but also carries the merged
// secondary-entry fields across the delete. Used when the local item still
// exists but its installed payload was removed.
func (s *Store) DeletePreserveMerge(ctx context.Context, localItemID string) bool {
	return s.delete(ctx, localItemID, true)
}

func (s *Store) delete(ctx context.Context, localItemID string, keepMerge bool) bool {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("delete", err)
		return false
	}
	defer release()

	existing := s.getLocked(ctx, localItemID)

	res, err := s.db.ExecContext(ctx, `DELETE FROM install_state WHERE local_item_id = ?`, localItemID)
	if err != nil {
		s.logger.Error("delete install state", logging.String("item", localItemID), logging.Error(err))
		return false
	}
	affected, err := res.RowsAffected()
	if err != nil || affected == 0 {
		return false
	}

	if existing == nil {
		return true
	}
	if existing.HasRemoteLink() || existing.LocalContentHash != "" {
		s.upsertIdentityLocked(ctx, Identity{
			LocalItemID:        existing.LocalItemID,
			RemoteItemID:       existing.RemoteItemID,
			RemoteCollectionID: existing.RemoteCollectionID,
			ServerOrigin:       existing.ServerOrigin,
			RemoteContentHash:  existing.RemoteContentHash,
			LocalContentHash:   existing.LocalContentHash,
			InstallKind:        existing.InstallKind,
		})
		if keepMerge && existing.MergedAppID != "" {
			s.setMergeLocked(ctx, localItemID, existing.MergedAppID, existing.MergedBaseItemID,
				existing.LaunchPath, existing.LaunchArgs, existing.MergedSyncedAt)
		}
	}
	return true
}

// Forget removes the row entirely, identity included.
func (s *Store) Forget(ctx context.Context, localItemID string) bool {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("forget", err)
		return false
	}
	defer release()

	res, err := s.db.ExecContext(ctx, `DELETE FROM install_state WHERE local_item_id = ?`, localItemID)
	if err != nil {
		s.logger.Error("forget install state", logging.String("item", localItemID), logging.Error(err))
		return false
	}
	affected, _ := res.RowsAffected()
	return affected > 0
}

// SetLocalContentHash updates only the cached local content hash.
func (s *Store) SetLocalContentHash(ctx context.Context, localItemID, hash string) bool {
	return s.updateColumn(ctx, localItemID, "local_content_hash", nullableString(hash))
}

// SetInstalledPath updates only the installed path.
func (s *Store) SetInstalledPath(ctx context.Context, localItemID, path string) bool {
	return s.updateColumn(ctx, localItemID, "installed_path", nullableString(path))
}

// SetMergedAppID updates only the merged secondary-entry identifier.
func (s *Store) SetMergedAppID(ctx context.Context, localItemID, appID string) bool {
	return s.updateColumn(ctx, localItemID, "merged_app_id", nullableString(appID))
}

// SetMergeLaunch updates the merge/launch metadata in one statement.
func (s *Store) SetMergeLaunch(ctx context.Context, localItemID, mergedAppID, mergedBaseItemID, launchPath, launchArgs string, syncedAt *time.Time) bool {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("set merge launch", err)
		return false
	}
	defer release()

	return s.setMergeLocked(ctx, localItemID, mergedAppID, mergedBaseItemID, launchPath, launchArgs, syncedAt)
}

func (s *Store) setMergeLocked(ctx context.Context, localItemID, mergedAppID, mergedBaseItemID, launchPath, launchArgs string, syncedAt *time.Time) bool {
	_, err := s.db.ExecContext(ctx,
		`UPDATE install_state
         SET merged_app_id = ?, merged_base_item_id = ?, launch_path = ?, launch_args = ?,
             merged_synced_at = ?, updated_at = ?
         WHERE local_item_id = ?`,
		nullableString(mergedAppID),
		nullableString(mergedBaseItemID),
		nullableString(launchPath),
		nullableString(launchArgs),
		nullableTime(syncedAt),
		timestamp(time.Now()),
		localItemID,
	)
	if err != nil {
		s.logger.Error("update merge metadata", logging.String("item", localItemID), logging.Error(err))
		return false
	}
	return true
}

// SetInstallPhase records the current phase of an install operation with the
// attempt timestamp set to now.
func (s *Store) SetInstallPhase(ctx context.Context, localItemID string, phase InstallPhase, note string) bool {
	return s.SetInstallPhaseAt(ctx, localItemID, phase, note, time.Now())
}

// SetInstallPhaseAt records an install phase with an explicit attempt time.
func (s *Store) SetInstallPhaseAt(ctx context.Context, localItemID string, phase InstallPhase, note string, attemptAt time.Time) bool {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("set install phase", err)
		return false
	}
	defer release()

	_, err = s.db.ExecContext(ctx,
		`UPDATE install_state
         SET install_phase = ?, status_note = ?, last_attempt_at = ?, updated_at = ?
         WHERE local_item_id = ?`,
		nullableString(string(phase)),
		nullableString(note),
		timestamp(attemptAt),
		timestamp(time.Now()),
		localItemID,
	)
	if err != nil {
		s.logger.Error("update install phase", logging.String("item", localItemID), logging.Error(err))
		return false
	}
	return true
}

func (s *Store) updateColumn(ctx context.Context, localItemID, column string, value any) bool {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("update "+column, err)
		return false
	}
	defer release()

	// column is always a compile-time constant from this file, never input.
	_, err = s.db.ExecContext(ctx,
		`UPDATE install_state SET `+column+` = ?, updated_at = ? WHERE local_item_id = ?`,
		value, timestamp(time.Now()), localItemID)
	if err != nil {
		s.logger.Error("update column", logging.String("column", column),
			logging.String("item", localItemID), logging.Error(err))
		return false
	}
	return true
}

func (s *Store) logGateFailure(op string, err error) {
	if errors.Is(err, ErrStoreBusy) {
		s.logger.Warn("store operation skipped: gate busy", logging.String("op", op))
		return
	}
	s.logger.Warn("store operation aborted", logging.String("op", op), logging.Error(err))
}

func scanState(scanner interface{ Scan(dest ...any) error }) (*InstallState, error) {
	var (
		localItemID      string
		remoteItemID     sql.NullString
		remoteCollection sql.NullString
		serverOrigin     sql.NullString
		remoteHash       sql.NullString
		localHash        sql.NullString
		installKind      sql.NullString
		installedPath    sql.NullString
		archivePath      sql.NullString
		installRoot      sql.NullString
		isInstalled      sql.NullInt64
		installedAt      sql.NullString
		lastValidatedAt  sql.NullString
		installPhase     sql.NullString
		lastAttemptAt    sql.NullString
		statusNote       sql.NullString
		mergedAppID      sql.NullString
		mergedBaseItemID sql.NullString
		launchPath       sql.NullString
		launchArgs       sql.NullString
		mergedSyncedAt   sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&localItemID,
		&remoteItemID,
		&remoteCollection,
		&serverOrigin,
		&remoteHash,
		&localHash,
		&installKind,
		&installedPath,
		&archivePath,
		&installRoot,
		&isInstalled,
		&installedAt,
		&lastValidatedAt,
		&installPhase,
		&lastAttemptAt,
		&statusNote,
		&mergedAppID,
		&mergedBaseItemID,
		&launchPath,
		&launchArgs,
		&mergedSyncedAt,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	state := &InstallState{
		LocalItemID:        localItemID,
		RemoteItemID:       remoteItemID.String,
		RemoteCollectionID: remoteCollection.String,
		ServerOrigin:       serverOrigin.String,
		RemoteContentHash:  remoteHash.String,
		LocalContentHash:   localHash.String,
		InstallKind:        ParseInstallKind(installKind.String),
		InstalledPath:      installedPath.String,
		ArchivePath:        archivePath.String,
		InstallRootPath:    installRoot.String,
		IsInstalled:        isInstalled.Valid && isInstalled.Int64 != 0,
		InstalledAt:        timePointer(installedAt),
		LastValidatedAt:    timePointer(lastValidatedAt),
		InstallPhase:       ParseInstallPhase(installPhase.String),
		LastAttemptAt:      timePointer(lastAttemptAt),
		StatusNote:         statusNote.String,
		MergedAppID:        mergedAppID.String,
		MergedBaseItemID:   mergedBaseItemID.String,
		LaunchPath:         launchPath.String,
		LaunchArgs:         launchArgs.String,
		MergedSyncedAt:     timePointer(mergedSyncedAt),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		state.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		state.UpdatedAt = updated
	}
	return state, nil
}
