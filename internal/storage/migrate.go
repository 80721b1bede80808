package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migration is one numbered schema step; files are named NNNN_name.{up,down}.sql.
type migration struct {
	version int
	up      string
	down    string
}

// MigrateUp applies every migration newer than the database's user_version.
func MigrateUp(db *sql.DB) error {
	steps, err := loadMigrations()
	if err != nil {
		return err
	}
	current, err := schemaVersion(db)
	if err != nil {
		return err
	}
	for _, m := range steps {
		if m.version <= current {
			continue
		}
		if err := applyStep(db, m.up, m.version); err != nil {
			return fmt.Errorf("apply migration %04d: %w", m.version, err)
		}
	}
	return nil
}

// MigrateDown reverts every applied migration, newest first.
func MigrateDown(db *sql.DB) error {
	steps, err := loadMigrations()
	if err != nil {
		return err
	}
	current, err := schemaVersion(db)
	if err != nil {
		return err
	}
	for i := len(steps) - 1; i >= 0; i-- {
		m := steps[i]
		if m.version > current {
			continue
		}
		if err := applyStep(db, m.down, m.version-1); err != nil {
			return fmt.Errorf("revert migration %04d: %w", m.version, err)
		}
	}
	return nil
}

func loadMigrations() ([]migration, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	byVersion := map[int]*migration{}
	for _, name := range names {
		base := path.Base(name)
		prefix, _, ok := strings.Cut(base, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: missing version prefix", base)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s: bad version: %w", base, err)
		}
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", base, err)
		}
		m := byVersion[version]
		if m == nil {
			m = &migration{version: version}
			byVersion[version] = m
		}
		switch {
		case strings.HasSuffix(base, ".up.sql"):
			m.up = string(body)
		case strings.HasSuffix(base, ".down.sql"):
			m.down = string(body)
		}
	}

	out := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.up == "" {
			return nil, fmt.Errorf("migration %04d: missing up script", m.version)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func schemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// applyStep runs script and records version in one transaction.
func applyStep(db *sql.DB, script string, version int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if strings.TrimSpace(script) != "" {
		if _, err := tx.Exec(script); err != nil {
			return err
		}
	}
	// PRAGMA takes no bind parameters; version is an int we parsed ourselves.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return err
	}
	return tx.Commit()
}
