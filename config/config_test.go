package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afmzln/dwh-sql-project/config"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "datasets/source_crm", cfg.Sources.CRMDir)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "drop", cfg.Cleansing.MalformedKeyPolicy)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
sources:
  crm_dir: /data/crm
  erp_dir: /data/erp
database:
  path: /data/warehouse.db
cleansing:
  malformed_key_policy: keep
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/crm", cfg.Sources.CRMDir)
	assert.Equal(t, "keep", cfg.Cleansing.MalformedKeyPolicy)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 8080, cfg.Server.Port, "unset fields keep defaults")
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"missing crm dir", func(c *config.Config) { c.Sources.CRMDir = "" }, config.ErrMissingCRMDir},
		{"missing erp dir", func(c *config.Config) { c.Sources.ERPDir = "" }, config.ErrMissingERPDir},
		{"missing db path", func(c *config.Config) { c.Database.Path = "" }, config.ErrMissingDatabasePath},
		{"bad port", func(c *config.Config) { c.Server.Port = 0 }, config.ErrInvalidPort},
		{"bad key policy", func(c *config.Config) { c.Cleansing.MalformedKeyPolicy = "explode" }, config.ErrInvalidMalformedKeyMode},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "loud" }, config.ErrInvalidLogLevel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tc.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/does/not/exist.yaml")
	assert.Error(t, err)
}
