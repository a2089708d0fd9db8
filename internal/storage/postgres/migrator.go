package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	migrationsDir = "sql/migrations"
	// migrationLockKey — ключ pg_advisory_lock, общий для всех экземпляров сервиса и cmd/migrate.
	migrationLockKey = int64(0x53686f70) // "Shop"

	migrationTableDDL = `
CREATE TABLE IF NOT EXISTS shop_schema_migrations (
    version    BIGINT PRIMARY KEY,
    name       TEXT NOT NULL,
    checksum   TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
)

//go:embed sql/migrations/*.sql
var embeddedMigrations embed.FS

var migrationFileName = regexp.MustCompile(`^(\d+)_(\w+)\.(up|down)\.sql$`)

// ErrMigrationChecksum — применённая миграция изменена после применения.
var ErrMigrationChecksum = errors.New("applied migration was modified")

type migrationDirection string

const (
	migrationUp   migrationDirection = "up"
	migrationDown migrationDirection = "down"
)

type migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

// checksum считается только по up-части: именно она определяет текущую схему.
func (m migration) checksum() string {
	sum := sha256.Sum256([]byte(m.UpSQL))
	return hex.EncodeToString(sum[:])
}

func (m migration) String() string {
	return fmt.Sprintf("%04d_%s", m.Version, m.Name)
}

type appliedMigration struct {
	name     string
	checksum string
}

// MigrationState описывает состояние схемы.
type MigrationState struct {
	// Version — максимальная применённая версия, 0 для пустой базы.
	Version int64
	// Name — имя миграции Version.
	Name    string
	Applied int
	Pending int
}

// MigrateUp применяет не более steps ожидающих миграций; steps<=0 применяет все.
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	return s.migrate(ctx, migrationUp, steps)
}

// MigrateDown откатывает steps последних миграций; steps<=0 откатывает одну.
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	if steps <= 0 {
		steps = 1
	}
	return s.migrate(ctx, migrationDown, steps)
}

// MigrationStatus сравнивает встроенные миграции с записанными в базе.
func (s *Store) MigrationStatus(ctx context.Context) (MigrationState, error) {
	if s == nil || s.db == nil {
		return MigrationState{}, errStoreNotInitialized
	}

	known, err := loadMigrations(embeddedMigrations)
	if err != nil {
		return MigrationState{}, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(queryCtx, migrationTableDDL); err != nil {
		return MigrationState{}, fmt.Errorf("ensure migration table: %w", err)
	}
	applied, err := appliedMigrations(queryCtx, s.db)
	if err != nil {
		return MigrationState{}, err
	}

	state := MigrationState{Applied: len(applied)}
	for version, rec := range applied {
		if version > state.Version {
			state.Version = version
			state.Name = rec.name
		}
	}
	for _, m := range known {
		if _, ok := applied[m.Version]; !ok {
			state.Pending++
		}
	}
	return state, nil
}

func (s *Store) migrate(ctx context.Context, direction migrationDirection, steps int) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}

	known, err := loadMigrations(embeddedMigrations)
	if err != nil {
		return err
	}

	var run func(context.Context, *sql.Conn, []migration, int) error
	switch direction {
	case migrationUp:
		run = migrateUp
	case migrationDown:
		run = migrateDown
	default:
		return fmt.Errorf("unsupported migration direction: %s", direction)
	}

	return s.withMigrationLock(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, migrationTableDDL); err != nil {
			return fmt.Errorf("ensure migration table: %w", err)
		}
		return run(ctx, conn, known, steps)
	})
}

// withMigrationLock держит advisory lock на выделенном соединении,
// чтобы параллельный старт нескольких реплик не применил миграцию дважды.
func (s *Store) withMigrationLock(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire db connection: %w", err)
	}
	defer conn.Close()

	lockCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := conn.ExecContext(lockCtx, `SELECT pg_advisory_lock($1)`, migrationLockKey); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, migrationLockKey)
	}()

	return fn(conn)
}

func migrateUp(ctx context.Context, conn *sql.Conn, known []migration, steps int) error {
	applied, err := appliedMigrations(ctx, conn)
	if err != nil {
		return err
	}

	done := 0
	for _, m := range known {
		if rec, ok := applied[m.Version]; ok {
			if rec.checksum != m.checksum() {
				return fmt.Errorf("%s: %w", m, ErrMigrationChecksum)
			}
			continue
		}
		if steps > 0 && done >= steps {
			break
		}

		err := inTx(ctx, conn, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
				return fmt.Errorf("execute up migration %s: %w", m, err)
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO shop_schema_migrations (version, name, checksum) VALUES ($1, $2, $3)`,
				m.Version, m.Name, m.checksum())
			if err != nil {
				return fmt.Errorf("record up migration %s: %w", m, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		done++
	}
	return nil
}

func migrateDown(ctx context.Context, conn *sql.Conn, known []migration, steps int) error {
	byVersion := make(map[int64]migration, len(known))
	for _, m := range known {
		byVersion[m.Version] = m
	}

	applied, err := appliedMigrations(ctx, conn)
	if err != nil {
		return err
	}
	versions := make([]int64, 0, len(applied))
	for version := range applied {
		versions = append(versions, version)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })
	if len(versions) > steps {
		versions = versions[:steps]
	}

	for _, version := range versions {
		m, ok := byVersion[version]
		if !ok {
			return fmt.Errorf("cannot roll back unknown migration version %d", version)
		}

		err := inTx(ctx, conn, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.DownSQL); err != nil {
				return fmt.Errorf("execute down migration %s: %w", m, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM shop_schema_migrations WHERE version = $1`, m.Version); err != nil {
				return fmt.Errorf("delete migration record %s: %w", m, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func inTx(ctx context.Context, conn *sql.Conn, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration tx: %w", err)
	}
	return nil
}

func appliedMigrations(ctx context.Context, q querier) (map[int64]appliedMigration, error) {
	rows, err := q.QueryContext(ctx, `SELECT version, name, checksum FROM shop_schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int64]appliedMigration)
	for rows.Next() {
		var (
			version int64
			rec     appliedMigration
		)
		if err := rows.Scan(&version, &rec.name, &rec.checksum); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[version] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

// loadMigrations собирает пары up/down из каталога migrationsDir и сортирует их по версии.
func loadMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	byVersion := make(map[int64]*migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := entry.Name()
		parts := migrationFileName.FindStringSubmatch(file)
		if parts == nil {
			return nil, fmt.Errorf("invalid migration file name: %s", file)
		}
		version, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse migration version from %s: %w", file, err)
		}
		name, direction := parts[2], migrationDirection(parts[3])

		raw, err := fs.ReadFile(fsys, path.Join(migrationsDir, file))
		if err != nil {
			return nil, fmt.Errorf("read migration file %s: %w", file, err)
		}
		body := strings.TrimSpace(string(raw))
		if body == "" {
			return nil, fmt.Errorf("migration file is empty: %s", file)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if m.Name != name {
			return nil, fmt.Errorf("migration %d has conflicting names %q and %q", version, m.Name, name)
		}

		target := &m.UpSQL
		if direction == migrationDown {
			target = &m.DownSQL
		}
		if *target != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %d", direction, version)
		}
		*target = body
	}
	if len(byVersion) == 0 {
		return nil, errors.New("no migration files found")
	}

	migrations := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.UpSQL == "" || m.DownSQL == "" {
			return nil, fmt.Errorf("migration %s must have both up and down files", m)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}
