// Package catalog supplies validated planetary-system descriptions to the
// layout engine, from JSON files on disk or from a PostgreSQL store.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/models"
	"github.com/astroviz/orrery/internal/viewmode"
	"github.com/astroviz/orrery/pkg/healthcheck"
)

// FileStore loads system descriptions from <dir>/<systemID>.json.
type FileStore struct {
	dir      string
	validate *validator.Validate
	logger   *zap.Logger
}

// NewFileStore creates a file-backed system catalog.
func NewFileStore(dir string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		dir:      dir,
		validate: validator.New(),
		logger:   logger.With(zap.String("component", "catalog_file")),
	}
}

// LoadSystem reads and validates one system description. Returns nil when
// the file does not exist. The view mode does not affect the description;
// it is part of the loader contract for stores that keep per-mode variants.
func (s *FileStore) LoadSystem(ctx context.Context, _ viewmode.Mode, systemID string) (*models.OrbitalSystemData, error) {
	if strings.ContainsAny(systemID, `/\.`) {
		return nil, fmt.Errorf("invalid system id %q", systemID)
	}

	path := filepath.Join(s.dir, systemID+".json")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read system %s: %w", systemID, err)
	}

	return decodeSystem(raw, systemID, s.validate)
}

// ListSystems returns the ids of every description in the data directory.
func (s *FileStore) ListSystems(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Name implements healthcheck.Checker.
func (s *FileStore) Name() string { return "catalog" }

// Check implements healthcheck.Checker: the catalog is healthy when its
// data directory is readable.
func (s *FileStore) Check(ctx context.Context) *healthcheck.Result {
	status := healthcheck.StatusHealthy
	message := "catalog directory readable"
	if _, err := os.ReadDir(s.dir); err != nil {
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

// decodeSystem unmarshals a raw description and runs both structural
// (tag-based) and semantic validation.
func decodeSystem(raw []byte, systemID string, validate *validator.Validate) (*models.OrbitalSystemData, error) {
	var system models.OrbitalSystemData
	if err := json.Unmarshal(raw, &system); err != nil {
		return nil, fmt.Errorf("system %s is not valid JSON: %w", systemID, err)
	}
	if err := validate.Struct(&system); err != nil {
		return nil, fmt.Errorf("system %s failed structural validation: %w", systemID, err)
	}
	if err := system.Validate(); err != nil {
		return nil, fmt.Errorf("system %s failed semantic validation: %w", systemID, err)
	}
	return &system, nil
}
