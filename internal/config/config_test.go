package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)
	require.Equal(t, ".", cfg.Registry.Root)
	require.Equal(t, "index.json", cfg.Registry.Index)
	require.Equal(t, "content/packages", cfg.Output.Dir)
	require.Equal(t, 2*time.Second, cfg.Watch.Debounce.Std())
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "elsewhere.yaml"))
	require.Error(t, err)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formdocs-test.yaml")
	body := `
registry:
  root: /srv/registry
output:
  dir: /srv/site/content
watch:
  interval: 15m
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/registry", cfg.Registry.Root)
	require.Equal(t, "index.json", cfg.Registry.Index)
	require.Equal(t, "/srv/site/content", cfg.Output.Dir)
	require.Equal(t, 15*time.Minute, cfg.Watch.Interval.Std())
}

func TestLoad_UnknownFieldsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formdocs-test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("registryy:\n  root: x\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FORMDOCS_REGISTRY_ROOT", "/env/registry")
	t.Setenv("FORMDOCS_OUTPUT_DIR", "/env/out")

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)
	require.Equal(t, "/env/registry", cfg.Registry.Root)
	require.Equal(t, "/env/out", cfg.Output.Dir)
	require.Equal(t, filepath.Join("/env/registry", "index.json"), cfg.IndexPath())
}

func TestArchivePath_JoinsRegistryRoot(t *testing.T) {
	cfg := Default()
	cfg.Registry.Root = "/srv/registry"
	require.Equal(t,
		filepath.Join("/srv/registry", "packages", "prime", "prime-1.0.0.zip"),
		cfg.ArchivePath("packages/prime/prime-1.0.0.zip"))
}

func TestInit_WritesAndRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formdocs.yaml")

	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}
