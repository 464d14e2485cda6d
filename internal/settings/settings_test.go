package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFull(t *testing.T) {
	hclContent := `
tree_path    = "/tmp/tree.yaml"
keystore_dir = "/tmp/keys"
log_level    = "debug"
log_json     = true

frr {
  vtysh_path = "/usr/local/bin/vtysh"
}

audit {
  enabled        = false
  db_path        = "/tmp/audit.db"
  retention_days = 7
}
`
	s, err := Parse("test.hcl", []byte(hclContent))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/tree.yaml", s.TreePath)
	assert.Equal(t, "/tmp/keys", s.KeystoreDir)
	assert.Equal(t, "debug", s.LogLevel)
	assert.True(t, s.LogJSON)
	assert.Equal(t, "/usr/local/bin/vtysh", s.FRR.VtyshPath)
	assert.False(t, s.Audit.Enabled)
	assert.Equal(t, 7, s.Audit.RetentionDays)
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	s, err := Parse("test.hcl", []byte(`log_level = "warn"`))
	require.NoError(t, err)

	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, Default().TreePath, s.TreePath)
	require.NotNil(t, s.FRR)
	assert.Equal(t, "vtysh", s.FRR.VtyshPath)
	require.NotNil(t, s.Audit)
	assert.True(t, s.Audit.Enabled)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse("test.hcl", []byte(`tree_path = `))
	assert.Error(t, err)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "confplane.hcl")
	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	s, err := Parse(path, data)
	require.NoError(t, err)
	assert.Equal(t, Default().TreePath, s.TreePath)
	assert.Equal(t, Default().Audit.RetentionDays, s.Audit.RetentionDays)

	assert.Error(t, WriteDefault(path), "must not overwrite an existing file")
}
