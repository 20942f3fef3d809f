package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ludex/internal/logging"
)

// SetCollectionMapping records which local collection a remote collection
// reconciles into.
func (s *Store) SetCollectionMapping(ctx context.Context, remoteCollectionID, localCollection string) bool {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("set collection mapping", err)
		return false
	}
	defer release()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collection_mappings (remote_collection_id, local_collection, updated_at)
         VALUES (?, ?, ?)
         ON CONFLICT(remote_collection_id) DO UPDATE SET
             local_collection = excluded.local_collection,
             updated_at = excluded.updated_at`,
		remoteCollectionID, localCollection, timestamp(time.Now()))
	if err != nil {
		s.logger.Error("set collection mapping", logging.String("collection", remoteCollectionID), logging.Error(err))
		return false
	}
	return true
}

// CollectionMapping returns the local collection mapped to a remote
// collection, resolving aliases first. Empty when unmapped or on error.
func (s *Store) CollectionMapping(ctx context.Context, remoteCollectionID string) string {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("collection mapping", err)
		return ""
	}
	defer release()

	resolved := s.resolveAliasLocked(ctx, remoteCollectionID)

	var local string
	row := s.db.QueryRowContext(ctx,
		`SELECT local_collection FROM collection_mappings WHERE remote_collection_id = ?`, resolved)
	if err := row.Scan(&local); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("read collection mapping", logging.String("collection", remoteCollectionID), logging.Error(err))
		}
		return ""
	}
	return local
}

// SetCollectionAlias points an alternate remote collection name at a
// canonical one.
func (s *Store) SetCollectionAlias(ctx context.Context, alias, remoteCollectionID string) bool {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("set collection alias", err)
		return false
	}
	defer release()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collection_aliases (alias, remote_collection_id)
         VALUES (?, ?)
         ON CONFLICT(alias) DO UPDATE SET remote_collection_id = excluded.remote_collection_id`,
		alias, remoteCollectionID)
	if err != nil {
		s.logger.Error("set collection alias", logging.String("alias", alias), logging.Error(err))
		return false
	}
	return true
}

func (s *Store) resolveAliasLocked(ctx context.Context, remoteCollectionID string) string {
	var canonical string
	row := s.db.QueryRowContext(ctx,
		`SELECT remote_collection_id FROM collection_aliases WHERE alias = ?`, remoteCollectionID)
	if err := row.Scan(&canonical); err != nil {
		return remoteCollectionID
	}
	return canonical
}

// ExcludeItem marks a local item as excluded from reconciliation.
func (s *Store) ExcludeItem(ctx context.Context, localItemID, reason string) bool {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("exclude item", err)
		return false
	}
	defer release()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collection_exclusions (local_item_id, reason, created_at)
         VALUES (?, ?, ?)
         ON CONFLICT(local_item_id) DO UPDATE SET reason = excluded.reason`,
		localItemID, nullableString(reason), timestamp(time.Now()))
	if err != nil {
		s.logger.Error("exclude item", logging.String("item", localItemID), logging.Error(err))
		return false
	}
	return true
}

// IsExcluded reports whether a local item sits on the exclusion list.
func (s *Store) IsExcluded(ctx context.Context, localItemID string) bool {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("is excluded", err)
		return false
	}
	defer release()

	var count int
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM collection_exclusions WHERE local_item_id = ?`, localItemID)
	if err := row.Scan(&count); err != nil {
		s.logger.Error("read exclusion", logging.String("item", localItemID), logging.Error(err))
		return false
	}
	return count > 0
}

// Metadata returns a value from the metadata key/value table, empty when
// absent.
func (s *Store) Metadata(ctx context.Context, key string) string {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("metadata", err)
		return ""
	}
	defer release()

	var value string
	row := s.db.QueryRowContext(ctx, `SELECT value FROM install_state_metadata WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("read metadata", logging.String("key", key), logging.Error(err))
		}
		return ""
	}
	return value
}

// SetMetadata writes a metadata key/value pair, used for one-time migration
// markers.
func (s *Store) SetMetadata(ctx context.Context, key, value string) bool {
	ctx = ensureContext(ctx)
	release, err := s.acquireGate(ctx)
	if err != nil {
		s.logGateFailure("set metadata", err)
		return false
	}
	defer release()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO install_state_metadata (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		s.logger.Error("write metadata", logging.String("key", key), logging.Error(err))
		return false
	}
	return true
}
