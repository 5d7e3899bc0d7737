package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/astroviz/orrery/internal/viewmode"
	"github.com/astroviz/orrery/pkg/healthcheck"
)

const validSystemJSON = `{
	"id": "sol",
	"name": "Sol",
	"objects": [
		{
			"id": "sol-star",
			"name": "Sol",
			"classification": "star",
			"properties": {"radiusKm": 696340},
			"position": {"x": 0, "y": 0, "z": 0}
		},
		{
			"id": "earth",
			"name": "Earth",
			"classification": "planet",
			"properties": {"radiusKm": 6371},
			"orbit": {"parent": "sol-star", "semiMajorAxisAu": 1.0}
		}
	],
	"lighting": {"primaryStarId": "sol-star"}
}`

func writeSystem(t *testing.T, dir, id, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".json"), []byte(body), 0o644))
}

func TestFileStoreLoadSystem(t *testing.T) {
	dir := t.TempDir()
	writeSystem(t, dir, "sol", validSystemJSON)
	store := NewFileStore(dir, zap.NewNop())

	t.Run("loads and validates a system", func(t *testing.T) {
		system, err := store.LoadSystem(context.Background(), viewmode.ModeExplorational, "sol")
		require.NoError(t, err)
		require.NotNil(t, system)
		assert.Equal(t, "sol", system.ID)
		assert.Len(t, system.Objects, 2)
		assert.Equal(t, "sol-star", system.Objects[1].Orbit.Parent)
	})

	t.Run("missing system yields nil without error", func(t *testing.T) {
		system, err := store.LoadSystem(context.Background(), viewmode.ModeExplorational, "kepler-442")
		require.NoError(t, err)
		assert.Nil(t, system)
	})

	t.Run("rejects path-like ids", func(t *testing.T) {
		for _, id := range []string{"../sol", "a/b", `a\b`, "sol.json"} {
			_, err := store.LoadSystem(context.Background(), viewmode.ModeExplorational, id)
			assert.Error(t, err, "id %q must be rejected", id)
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		writeSystem(t, dir, "broken", `{"id": "broken",`)
		_, err := store.LoadSystem(context.Background(), viewmode.ModeExplorational, "broken")
		assert.ErrorContains(t, err, "not valid JSON")
	})

	t.Run("rejects structurally invalid systems", func(t *testing.T) {
		writeSystem(t, dir, "nameless", `{"id": "nameless", "objects": []}`)
		_, err := store.LoadSystem(context.Background(), viewmode.ModeExplorational, "nameless")
		assert.ErrorContains(t, err, "structural validation")
	})

	t.Run("rejects semantically invalid systems", func(t *testing.T) {
		writeSystem(t, dir, "starless", `{
			"id": "starless",
			"name": "Starless",
			"objects": [
				{
					"id": "rogue",
					"name": "Rogue",
					"classification": "planet",
					"position": {"x": 0, "y": 0, "z": 0}
				}
			]
		}`)
		_, err := store.LoadSystem(context.Background(), viewmode.ModeExplorational, "starless")
		assert.ErrorContains(t, err, "semantic validation")
	})
}

func TestFileStoreListSystems(t *testing.T) {
	dir := t.TempDir()
	writeSystem(t, dir, "vega", validSystemJSON)
	writeSystem(t, dir, "sol", validSystemJSON)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))

	store := NewFileStore(dir, zap.NewNop())
	ids, err := store.ListSystems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"sol", "vega"}, ids)
}

func TestFileStoreCheck(t *testing.T) {
	store := NewFileStore(t.TempDir(), zap.NewNop())
	result := store.Check(context.Background())
	assert.Equal(t, "catalog", result.ComponentName)
	assert.Equal(t, healthcheck.StatusHealthy, result.Status)

	missing := NewFileStore(filepath.Join(t.TempDir(), "absent"), zap.NewNop())
	result = missing.Check(context.Background())
	assert.Equal(t, healthcheck.StatusUnhealthy, result.Status)
}
