package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYaml = `kibo:
  apiRoot: "https://t12345.sandbox.mozu.com/api"
  clientId: "acme.sync.1.0.0.release"
  clientSecret: "0123456789abcdef0123456789abcdef"
  masterCatalog: 1
primeCatalog: 1
catalogPairs:
  - source: 1
    destination: 2
  - source: 1
    destination: 3
sitePairs:
  - source: 100
    destination: 101
schedule:
  runOnStart: true
  cron: "0 0 12 * * *"
checkpoint:
  enabled: true
  dir: /tmp/checkpoints
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTryLoadFromDisk(t *testing.T) {
	path := writeTestConfig(t, testConfigYaml)

	cfg, err := TryLoadFromDisk(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://t12345.sandbox.mozu.com/api", cfg.Kibo.APIRoot)
	assert.Equal(t, 1, cfg.PrimeCatalog)
	assert.Equal(t, []Pair{{Source: 1, Destination: 2}, {Source: 1, Destination: 3}}, cfg.CatalogPairs)
	assert.Equal(t, []Pair{{Source: 100, Destination: 101}}, cfg.SitePairs)

	// 未显式配置的字段落默认值
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.Equal(t, DefaultMaxInflightWrites, cfg.MaxInflightWrites)

	require.NotNil(t, cfg.Schedule)
	assert.True(t, cfg.Schedule.RunOnStart)
	assert.Equal(t, "0 0 12 * * *", cfg.Schedule.Cron)
	require.NotNil(t, cfg.Checkpoint)
	assert.True(t, cfg.Checkpoint.Enabled)

	assert.Empty(t, cfg.Validate())
}

func TestTryLoadFromDiskMissingFile(t *testing.T) {
	_, err := TryLoadFromDisk(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfigValidateRejectsBadPairs(t *testing.T) {
	path := writeTestConfig(t, testConfigYaml)
	cfg, err := TryLoadFromDisk(path)
	require.NoError(t, err)

	cfg.CatalogPairs = []Pair{{Source: 0, Destination: 2}}
	assert.NotEmpty(t, cfg.Validate())

	cfg.CatalogPairs = nil
	assert.NotEmpty(t, cfg.Validate())

	cfg.PrimeCatalog = 0
	assert.NotEmpty(t, cfg.Validate())
}
