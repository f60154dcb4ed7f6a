package graph

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thoth-station/adviser/pkg/stack"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotInitialized is returned by SQLiteGraph methods called before Init.
var ErrNotInitialized = errors.New("knowledge graph database not initialized")

// Config holds SQLite knowledge graph configuration.
type Config struct {
	// Path is the database file, or ":memory:".
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Logger          zerolog.Logger
}

// SQLiteGraph is a KnowledgeGraph backed by a local SQLite database. It is
// meant for tests and local CLI runs.
type SQLiteGraph struct {
	db     *sql.DB
	cfg    Config
	logger zerolog.Logger
}

var _ KnowledgeGraph = (*SQLiteGraph)(nil)

// NewSQLiteGraph creates a knowledge graph instance. Call Init and Migrate
// before use.
func NewSQLiteGraph(cfg Config) (*SQLiteGraph, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 8
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 2
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}
	// Every connection to ":memory:" opens its own database.
	if cfg.Path == ":memory:" {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
	}

	return &SQLiteGraph{
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "knowledge_graph").Logger(),
	}, nil
}

// Open creates, initializes and migrates a knowledge graph in one call.
func Open(ctx context.Context, cfg Config) (*SQLiteGraph, error) {
	g, err := NewSQLiteGraph(cfg)
	if err != nil {
		return nil, err
	}
	if err := g.Init(ctx); err != nil {
		return nil, err
	}
	if err := g.Migrate(ctx); err != nil {
		_ = g.Close()
		return nil, err
	}
	return g, nil
}

// Init opens the database connection.
func (g *SQLiteGraph) Init(ctx context.Context) error {
	dsn := g.cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if g.cfg.Path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(g.cfg.MaxOpenConns)
	db.SetMaxIdleConns(g.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(g.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	g.db = db
	g.logger.Debug().Str("path", g.cfg.Path).Msg("Knowledge graph opened")
	return nil
}

// Close closes the database connection.
func (g *SQLiteGraph) Close() error {
	if g.db != nil {
		return g.db.Close()
	}
	return nil
}

// Migrate applies the embedded schema migrations.
func (g *SQLiteGraph) Migrate(_ context.Context) error {
	if g.db == nil {
		return ErrNotInitialized
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(g.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (g *SQLiteGraph) HealthCheck(ctx context.Context) error {
	if g.db == nil {
		return ErrNotInitialized
	}
	return g.db.PingContext(ctx)
}

// HasSolverResult reports whether a successful solver result exists for pv
// in env. An empty pv.Index matches any index.
func (g *SQLiteGraph) HasSolverResult(ctx context.Context, pv stack.PackageVersion, env Environment) (bool, error) {
	if g.db == nil {
		return false, ErrNotInitialized
	}

	query := `
		SELECT COUNT(*)
		FROM solver_result sr
		JOIN python_package_version pv ON pv.id = sr.package_version_id
		WHERE pv.name = ? AND pv.version = ?
			AND (? = '' OR pv.index_url = ?)
			AND (? = '' OR sr.os_name = ?)
			AND (? = '' OR sr.os_version = ?)
			AND (? = '' OR sr.python_version = ?)
			AND sr.solved = 1
	`

	var count int
	err := g.db.QueryRowContext(ctx, query,
		normalizeName(pv.Name), pv.Version,
		pv.Index, pv.Index,
		env.OSName, env.OSName,
		env.OSVersion, env.OSVersion,
		env.PythonVersion, env.PythonVersion,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query solver results for %s: %w", pv, err)
	}

	return count > 0, nil
}

// Observations returns the observations recorded for pv, oldest first.
func (g *SQLiteGraph) Observations(ctx context.Context, pv stack.PackageVersion) ([]Observation, error) {
	if g.db == nil {
		return nil, ErrNotInitialized
	}

	query := `
		SELECT o.id, pv.name, pv.version, pv.index_url, o.kind, o.score, o.message, o.link, o.created_at
		FROM observation o
		JOIN python_package_version pv ON pv.id = o.package_version_id
		WHERE pv.name = ? AND pv.version = ? AND (? = '' OR pv.index_url = ?)
		ORDER BY o.created_at ASC, o.id ASC
	`

	rows, err := g.db.QueryContext(ctx, query, normalizeName(pv.Name), pv.Version, pv.Index, pv.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations for %s: %w", pv, err)
	}
	defer rows.Close()

	var observations []Observation
	for rows.Next() {
		var o Observation
		err := rows.Scan(
			&o.ID,
			&o.Package.Name,
			&o.Package.Version,
			&o.Package.Index,
			&o.Kind,
			&o.Score,
			&o.Message,
			&o.Link,
			&o.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}

	return observations, nil
}

// IsIndexEnabled reports whether the index at url is registered and enabled.
func (g *SQLiteGraph) IsIndexEnabled(ctx context.Context, url string) (bool, error) {
	if g.db == nil {
		return false, ErrNotInitialized
	}

	var enabled bool
	err := g.db.QueryRowContext(ctx,
		`SELECT enabled FROM python_package_index WHERE url = ?`,
		strings.TrimRight(url, "/"),
	).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query index %s: %w", url, err)
	}

	return enabled, nil
}

// PackageVersions lists the known versions of a package ordered by index
// and insertion.
func (g *SQLiteGraph) PackageVersions(ctx context.Context, name string) ([]stack.PackageVersion, error) {
	if g.db == nil {
		return nil, ErrNotInitialized
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT name, version, index_url
		FROM python_package_version
		WHERE name = ?
		ORDER BY index_url ASC, id ASC
	`, normalizeName(name))
	if err != nil {
		return nil, fmt.Errorf("failed to list versions of %s: %w", name, err)
	}
	defer rows.Close()

	var versions []stack.PackageVersion
	for rows.Next() {
		var pv stack.PackageVersion
		if err := rows.Scan(&pv.Name, &pv.Version, &pv.Index); err != nil {
			return nil, fmt.Errorf("failed to scan package version: %w", err)
		}
		versions = append(versions, pv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating package versions: %w", err)
	}

	return versions, nil
}

// SolverResult records the outcome of resolving one package version in one
// environment.
type SolverResult struct {
	Package     stack.PackageVersion `yaml:"package" json:"package"`
	Environment Environment          `yaml:"environment" json:"environment"`
	Solved      bool                 `yaml:"solved" json:"solved"`
	Error       string               `yaml:"error,omitempty" json:"error,omitempty"`
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// AddIndex registers a package index, replacing its enabled flag if known.
func (g *SQLiteGraph) AddIndex(ctx context.Context, url string, enabled bool) error {
	if g.db == nil {
		return ErrNotInitialized
	}
	return addIndex(ctx, g.db, url, enabled)
}

func addIndex(ctx context.Context, q execQuerier, url string, enabled bool) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO python_package_index (url, enabled) VALUES (?, ?)
		ON CONFLICT(url) DO UPDATE SET enabled = excluded.enabled
	`, strings.TrimRight(url, "/"), enabled)
	if err != nil {
		return fmt.Errorf("failed to add index %s: %w", url, err)
	}
	return nil
}

// AddPackageVersion registers pv and returns its row id.
func (g *SQLiteGraph) AddPackageVersion(ctx context.Context, pv stack.PackageVersion) (int64, error) {
	if g.db == nil {
		return 0, ErrNotInitialized
	}
	return addPackageVersion(ctx, g.db, pv)
}

func addPackageVersion(ctx context.Context, q execQuerier, pv stack.PackageVersion) (int64, error) {
	if pv.Name == "" || pv.Version == "" {
		return 0, fmt.Errorf("package version requires name and version, got %q", pv)
	}

	name := normalizeName(pv.Name)
	_, err := q.ExecContext(ctx, `
		INSERT INTO python_package_version (name, version, index_url) VALUES (?, ?, ?)
		ON CONFLICT(name, version, index_url) DO NOTHING
	`, name, pv.Version, pv.Index)
	if err != nil {
		return 0, fmt.Errorf("failed to add package version %s: %w", pv, err)
	}

	var id int64
	err = q.QueryRowContext(ctx,
		`SELECT id FROM python_package_version WHERE name = ? AND version = ? AND index_url = ?`,
		name, pv.Version, pv.Index,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to look up package version %s: %w", pv, err)
	}
	return id, nil
}

// AddSolverResult records a solver result, replacing an earlier one for the
// same package and environment.
func (g *SQLiteGraph) AddSolverResult(ctx context.Context, r SolverResult) error {
	if g.db == nil {
		return ErrNotInitialized
	}
	return addSolverResult(ctx, g.db, r)
}

func addSolverResult(ctx context.Context, q execQuerier, r SolverResult) error {
	id, err := addPackageVersion(ctx, q, r.Package)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO solver_result (package_version_id, os_name, os_version, python_version, solved, error)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(package_version_id, os_name, os_version, python_version) DO UPDATE SET
			solved = excluded.solved,
			error = excluded.error
	`, id, r.Environment.OSName, r.Environment.OSVersion, r.Environment.PythonVersion, r.Solved, r.Error)
	if err != nil {
		return fmt.Errorf("failed to add solver result for %s: %w", r.Package, err)
	}
	return nil
}

// AddObservation records an observation. A missing ID or CreatedAt is
// filled in.
func (g *SQLiteGraph) AddObservation(ctx context.Context, o *Observation) error {
	if g.db == nil {
		return ErrNotInitialized
	}
	return addObservation(ctx, g.db, o)
}

func addObservation(ctx context.Context, q execQuerier, o *Observation) error {
	if o.Kind == "" {
		return fmt.Errorf("observation for %s has no kind", o.Package)
	}
	id, err := addPackageVersion(ctx, q, o.Package)
	if err != nil {
		return err
	}

	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO observation (id, package_version_id, kind, score, message, link, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, o.ID, id, o.Kind, o.Score, o.Message, o.Link, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add observation for %s: %w", o.Package, err)
	}
	return nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-"))
}
