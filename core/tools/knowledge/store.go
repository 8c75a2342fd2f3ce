package knowledge

import (
	"context"
	"database/sql"
	"embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"
)

const digestKey = "catalog_digest"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store persists a scheme catalog in SQLite so it can be edited without
// rebuilding the binary.
type Store struct {
	db *sql.DB
}

// OpenStore opens the SQLite database at path with the required pragmas and
// migrations applied.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			if stmt == "PRAGMA journal_mode=WAL;" {
				logger.Warn("sqlite: WAL mode not enabled", "error", err)
				continue
			}
			return fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Digest identifies a catalog source document.
func Digest(source []byte) string {
	sum := blake3.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// Seed replaces the stored schemes with the ones parsed from source unless
// the stored digest already matches. It reports whether a reseed happened.
func (s *Store) Seed(ctx context.Context, source []byte) (bool, error) {
	digest := Digest(source)

	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM catalog_meta WHERE key = ?`, digestKey).Scan(&stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("read catalog digest: %w", err)
	}
	if stored == digest {
		logger.Debug("catalog up to date", "digest", digest)
		return false, nil
	}

	catalog, err := ParseCatalog(source)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schemes`); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("clear schemes: %w", err)
	}
	for i, scheme := range catalog.Schemes() {
		docs, err := json.Marshal(scheme.Docs)
		if err != nil {
			_ = tx.Rollback()
			return false, fmt.Errorf("encode docs for %s: %w", scheme.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schemes(position, id, name, description, benefits, eligibility_rules, docs)
			VALUES(?, ?, ?, ?, ?, ?, ?)`,
			i, scheme.ID, scheme.Name, scheme.Description, scheme.Benefits, scheme.EligibilityRules, string(docs)); err != nil {
			_ = tx.Rollback()
			return false, fmt.Errorf("insert scheme %s: %w", scheme.ID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO catalog_meta(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, digestKey, digest); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("store catalog digest: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}

	logger.Info("catalog seeded", "schemes", len(catalog.schemes), "digest", digest)
	return true, nil
}

// Load reads the stored schemes in catalog order.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, benefits, eligibility_rules, docs
		FROM schemes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query schemes: %w", err)
	}
	defer rows.Close()

	var schemes []Scheme
	for rows.Next() {
		var (
			scheme Scheme
			docs   string
		)
		if err := rows.Scan(&scheme.ID, &scheme.Name, &scheme.Description, &scheme.Benefits, &scheme.EligibilityRules, &docs); err != nil {
			return nil, fmt.Errorf("scan scheme: %w", err)
		}
		if err := json.Unmarshal([]byte(docs), &scheme.Docs); err != nil {
			return nil, fmt.Errorf("decode docs for %s: %w", scheme.ID, err)
		}
		schemes = append(schemes, scheme)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schemes: %w", err)
	}

	return NewCatalog(schemes)
}

// LoadCatalog returns the embedded catalog, or the one kept in the SQLite
// database at path when path is not empty. The database is seeded from the
// embedded document the first time and whenever it changes.
func LoadCatalog(ctx context.Context, path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}

	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if _, err := store.Seed(ctx, defaultCatalog); err != nil {
		return nil, err
	}
	return store.Load(ctx)
}
