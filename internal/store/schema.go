package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// columnDef describes a column added after the baseline schema shipped.
// Order matters only for readability; each ALTER is independent.
type columnDef struct {
	name string
	ddl  string
}

// laterColumns lists every install_state column introduced since the
// baseline. reconcileColumns adds the missing ones, which keeps databases
// created by older builds usable without a rewrite.
var laterColumns = []columnDef{
	{"server_origin", "server_origin TEXT"},
	{"install_phase", "install_phase TEXT"},
	{"last_attempt_at", "last_attempt_at TEXT"},
	{"status_note", "status_note TEXT"},
	{"merged_app_id", "merged_app_id TEXT"},
	{"merged_base_item_id", "merged_base_item_id TEXT"},
	{"launch_path", "launch_path TEXT"},
	{"launch_args", "launch_args TEXT"},
	{"merged_synced_at", "merged_synced_at TEXT"},
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := s.reconcileColumns(ctx); err != nil {
		return err
	}
	return nil
}

// reconcileColumns inspects the live column set and additively ALTERs in any
// later-version columns. Safe to run repeatedly and against databases
// created by any prior version.
func (s *Store) reconcileColumns(ctx context.Context) error {
	present, err := tableColumns(ctx, s.db, "install_state")
	if err != nil {
		return err
	}

	for _, col := range laterColumns {
		if _, ok := present[col.name]; ok {
			continue
		}
		stmt := "ALTER TABLE install_state ADD COLUMN " + col.ddl
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", col.name, err)
		}
	}
	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]struct{})
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		columns[name] = struct{}{}
	}
	return columns, rows.Err()
}

// expectedColumns is the full current install_state column inventory, used
// by CheckHealth to report drift.
func expectedColumns() []string {
	base := []string{
		"local_item_id",
		"remote_item_id",
		"remote_collection_id",
		"remote_content_hash",
		"local_content_hash",
		"install_kind",
		"installed_path",
		"archive_path",
		"install_root_path",
		"is_installed",
		"installed_at",
		"last_validated_at",
		"created_at",
		"updated_at",
	}
	for _, col := range laterColumns {
		base = append(base, col.name)
	}
	return base
}
