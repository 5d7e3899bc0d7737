package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/models"
	"github.com/astroviz/orrery/internal/viewmode"
	"github.com/astroviz/orrery/pkg/healthcheck"
)

// PGStore loads system descriptions from the star_systems table, where each
// row holds the full description as JSONB.
type PGStore struct {
	pool     *pgxpool.Pool
	validate *validator.Validate
	logger   *zap.Logger
}

// NewPGStore creates a PostgreSQL-backed system catalog.
func NewPGStore(ctx context.Context, databaseURL string, logger *zap.Logger) (*PGStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PGStore{
		pool:     pool,
		validate: validator.New(),
		logger:   logger.With(zap.String("component", "catalog_pg")),
	}, nil
}

// LoadSystem fetches and validates one system description. Returns nil when
// no row exists.
func (s *PGStore) LoadSystem(ctx context.Context, _ viewmode.Mode, systemID string) (*models.OrbitalSystemData, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM star_systems WHERE id = $1`, systemID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query system %s: %w", systemID, err)
	}
	return decodeSystem(raw, systemID, s.validate)
}

// ListSystems returns the ids of every stored system.
func (s *PGStore) ListSystems(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM star_systems ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list systems: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan system id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating system rows: %w", err)
	}
	return ids, nil
}

// SaveSystem upserts a system description after validating it.
func (s *PGStore) SaveSystem(ctx context.Context, system *models.OrbitalSystemData, raw []byte) error {
	if err := system.Validate(); err != nil {
		return fmt.Errorf("refusing to store invalid system: %w", err)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO star_systems (id, name, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET name = $2, data = $3, updated_at = NOW()
	`, system.ID, system.Name, raw)
	if err != nil {
		return fmt.Errorf("failed to store system %s: %w", system.ID, err)
	}
	s.logger.Info("Stored system description", zap.String("system_id", system.ID))
	return nil
}

// Close releases the connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}

// Name implements healthcheck.Checker.
func (s *PGStore) Name() string { return "catalog" }

// Check implements healthcheck.Checker by pinging the database.
func (s *PGStore) Check(ctx context.Context) *healthcheck.Result {
	status := healthcheck.StatusHealthy
	message := "database reachable"
	if err := s.pool.Ping(ctx); err != nil {
		status = healthcheck.StatusUnhealthy
		message = err.Error()
	}
	return &healthcheck.Result{
		ComponentName: s.Name(),
		Status:        status,
		Message:       message,
		Timestamp:     time.Now().UTC(),
	}
}
